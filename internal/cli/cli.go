// Package cli provides the command line interface.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/temirov/readmegen/internal/budget"
	"github.com/temirov/readmegen/internal/config"
	"github.com/temirov/readmegen/internal/extract"
	"github.com/temirov/readmegen/internal/generation"
	"github.com/temirov/readmegen/internal/output"
	"github.com/temirov/readmegen/internal/readme"
	"github.com/temirov/readmegen/internal/retrieval"
	"github.com/temirov/readmegen/internal/services/clipboard"
	"github.com/temirov/readmegen/internal/services/httpapi"
	"github.com/temirov/readmegen/internal/tokenizer"
	"github.com/temirov/readmegen/internal/utils"
)

const (
	versionFlagName      = "version"
	configFlagName       = "config"
	logLevelFlagName     = "log-level"
	addressFlagName      = "address"
	outputFlagName       = "output"
	formatFlagName       = "format"
	copyFlagName         = "copy"
	globalFlagName       = "global"
	forceFlagName        = "force"
	versionTemplate      = "readmegen version: %s\n"
	rootUse              = "readmegen"
	rootShortDescription = "readmegen generates README documents for public repositories"
	rootLongDescription  = `readmegen clones a public repository, collects its source files, and asks a
language model to write a README for it.
Run "serve" to expose POST /generate-readme, or "generate" for a single repository.`

	serveUse              = "serve"
	serveShortDescription = "serve the README generation API"
	serveUsageExample     = `  # Listen on all interfaces
  readmegen serve --address 0.0.0.0:8000`

	generateUse              = "generate <repo-url>"
	generateAlias            = "g"
	generateShortDescription = "generate a README for one repository (" + generateAlias + ")"
	generateUsageExample     = `  # Print the README
  readmegen generate https://github.com/example/project

  # Save it and copy it to the clipboard
  readmegen generate https://github.com/example/project --output README.md --copy`

	configUse                   = "config"
	configShortDescription      = "manage readmegen configuration"
	configInitUse               = "init"
	configInitShortDescription  = "write the default configuration file"
	configInitCreatedFormat     = "configuration written to %s\n"
	versionFlagDescription      = "display application version"
	configFlagDescription       = "path to a configuration file"
	logLevelFlagDescription     = "log level override (debug, info, warn, error)"
	addressFlagDescription      = "listen address override"
	outputFlagDescription       = "write the rendered result to this file instead of stdout"
	formatFlagDescription       = "output format (raw, json, xml)"
	invalidFormatMessage        = "invalid format value '%s'"
	copyFlagDescription         = "copy the README to the system clipboard"
	globalFlagDescription       = "write the configuration under the home directory"
	forceFlagDescription        = "overwrite an existing configuration file"
	truncatedWarningMessage     = "codebase exceeded the context budget and was truncated"
	tokenizerUnavailableMessage = "tokenizer unavailable; diagnostic token counts disabled"
	outputWrittenMessage        = "readme written"
	listeningFormat             = "readmegen listening on http://%s\n"
)

// dependencies holds collaborators that tests replace.
type dependencies struct {
	newCloner    func(retrieval.GitClonerOptions) retrieval.Cloner
	newGenerator func(context.Context, generation.Config) (generation.Generator, error)
	newCounter   func(tokenizer.Config) (tokenizer.Counter, string, error)
	copier       clipboard.Copier
	stdout       io.Writer
	workingDir   string
}

func defaultDependencies() dependencies {
	return dependencies{
		newCloner: func(options retrieval.GitClonerOptions) retrieval.Cloner {
			return retrieval.NewGitCloner(options)
		},
		newGenerator: generation.NewGenerator,
		newCounter:   tokenizer.NewCounter,
		copier:       clipboard.NewSystemClipboard(),
		stdout:       os.Stdout,
	}
}

// globalOptions stores flags shared by every subcommand.
type globalOptions struct {
	configPath string
	logLevel   string
}

// Execute runs the readmegen application.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	rootCommand := createRootCommand(defaultDependencies())
	rootCommand.SetArgs(normalizeBooleanFlagArguments(rootCommand, os.Args[1:]))
	return rootCommand.ExecuteContext(ctx)
}

// createRootCommand builds the root Cobra command.
func createRootCommand(deps dependencies) *cobra.Command {
	var showVersion bool
	var options globalOptions

	rootCommand := &cobra.Command{
		Use:          rootUse,
		Short:        rootShortDescription,
		Long:         rootLongDescription,
		SilenceUsage: true,
		RunE: func(command *cobra.Command, arguments []string) error {
			if showVersion {
				fmt.Fprintf(command.OutOrStdout(), versionTemplate, utils.GetApplicationVersion())
				return nil
			}
			return command.Help()
		},
	}
	rootCommand.PersistentFlags().BoolVar(&showVersion, versionFlagName, false, versionFlagDescription)
	rootCommand.PersistentFlags().StringVar(&options.configPath, configFlagName, utils.EmptyString, configFlagDescription)
	rootCommand.PersistentFlags().StringVar(&options.logLevel, logLevelFlagName, utils.EmptyString, logLevelFlagDescription)
	if deps.stdout != nil {
		rootCommand.SetOut(deps.stdout)
	}
	rootCommand.AddCommand(
		createServeCommand(deps, &options),
		createGenerateCommand(deps, &options),
		createConfigCommand(deps),
	)
	rootCommand.InitDefaultHelpCmd()
	rootCommand.InitDefaultCompletionCmd()
	return rootCommand
}

// createServeCommand returns the serve subcommand.
func createServeCommand(deps dependencies, options *globalOptions) *cobra.Command {
	var addressOverride string

	serveCommand := &cobra.Command{
		Use:     serveUse,
		Short:   serveShortDescription,
		Example: serveUsageExample,
		Args:    cobra.NoArgs,
		RunE: func(command *cobra.Command, arguments []string) error {
			application, buildErr := buildApplication(command.Context(), deps, *options)
			if buildErr != nil {
				return buildErr
			}
			defer func() { _ = application.logger.Sync() }()

			serverConfiguration := application.configuration.Server
			if strings.TrimSpace(addressOverride) != utils.EmptyString {
				serverConfiguration.Address = addressOverride
			}
			server, serverErr := httpapi.NewServer(httpapi.Config{
				Address:         serverConfiguration.Address,
				AllowedOrigins:  serverConfiguration.AllowedOrigins,
				ShutdownTimeout: serverConfiguration.ShutdownTimeout,
				Generator:       application.service,
				Logger:          application.logger,
			})
			if serverErr != nil {
				return serverErr
			}
			writer := command.OutOrStdout()
			return server.Run(command.Context(), func(address string) {
				fmt.Fprintf(writer, listeningFormat, address)
			})
		},
	}
	serveCommand.Flags().StringVar(&addressOverride, addressFlagName, utils.EmptyString, addressFlagDescription)
	return serveCommand
}

// createGenerateCommand returns the generate subcommand.
func createGenerateCommand(deps dependencies, options *globalOptions) *cobra.Command {
	var outputPath string
	var outputFormat string = output.FormatRaw
	var copyEnabled bool

	generateCommand := &cobra.Command{
		Use:     generateUse,
		Aliases: []string{generateAlias},
		Short:   generateShortDescription,
		Example: generateUsageExample,
		Args:    cobra.ExactArgs(1),
		RunE: func(command *cobra.Command, arguments []string) error {
			outputFormatLower := strings.ToLower(outputFormat)
			if !output.IsSupportedFormat(outputFormatLower) {
				return fmt.Errorf(invalidFormatMessage, outputFormat)
			}
			application, buildErr := buildApplication(command.Context(), deps, *options)
			if buildErr != nil {
				return buildErr
			}
			defer func() { _ = application.logger.Sync() }()

			result, generateErr := application.service.Generate(command.Context(), arguments[0])
			if generateErr != nil {
				return generateErr
			}
			if result.Truncated {
				application.logger.Warn(truncatedWarningMessage, zap.Int("estimated_tokens", result.EstimatedTokens))
			}

			report := output.NewReport(arguments[0], result)
			if outputPath != utils.EmptyString {
				rendered, renderErr := output.Render(report, outputFormatLower)
				if renderErr != nil {
					return renderErr
				}
				if writeErr := os.WriteFile(outputPath, []byte(rendered), 0o644); writeErr != nil {
					return fmt.Errorf("write readme to %s: %w", outputPath, writeErr)
				}
				application.logger.Info(outputWrittenMessage, zap.String("path", outputPath))
			} else if writeErr := output.Write(command.OutOrStdout(), report, outputFormatLower); writeErr != nil {
				return writeErr
			}

			if copyEnabled && deps.copier != nil {
				if copyErr := deps.copier.Copy(result.Readme); copyErr != nil {
					return fmt.Errorf("copy readme to clipboard: %w", copyErr)
				}
			}
			return nil
		},
	}
	generateCommand.Flags().StringVar(&outputPath, outputFlagName, utils.EmptyString, outputFlagDescription)
	generateCommand.Flags().StringVar(&outputFormat, formatFlagName, output.FormatRaw, formatFlagDescription)
	registerBooleanFlag(generateCommand.Flags(), &copyEnabled, copyFlagName, false, copyFlagDescription)
	return generateCommand
}

// createConfigCommand returns the config command group.
func createConfigCommand(deps dependencies) *cobra.Command {
	var globalTarget bool
	var forceOverwrite bool

	initCommand := &cobra.Command{
		Use:   configInitUse,
		Short: configInitShortDescription,
		Args:  cobra.NoArgs,
		RunE: func(command *cobra.Command, arguments []string) error {
			target := config.InitTargetLocal
			if globalTarget {
				target = config.InitTargetGlobal
			}
			destinationPath, initErr := config.InitializeConfiguration(config.InitOptions{
				Target:           target,
				Force:            forceOverwrite,
				WorkingDirectory: deps.workingDir,
			})
			if initErr != nil {
				return initErr
			}
			fmt.Fprintf(command.OutOrStdout(), configInitCreatedFormat, destinationPath)
			return nil
		},
	}
	registerBooleanFlag(initCommand.Flags(), &globalTarget, globalFlagName, false, globalFlagDescription)
	registerBooleanFlag(initCommand.Flags(), &forceOverwrite, forceFlagName, false, forceFlagDescription)

	configCommand := &cobra.Command{
		Use:   configUse,
		Short: configShortDescription,
	}
	configCommand.AddCommand(initCommand)
	return configCommand
}

// application bundles the loaded configuration with the service built from it.
type application struct {
	configuration config.ApplicationConfiguration
	logger        *zap.Logger
	service       *readme.Service
}

// buildApplication loads configuration and wires the README service.
func buildApplication(ctx context.Context, deps dependencies, options globalOptions) (application, error) {
	configuration, loadErr := config.LoadApplicationConfiguration(config.LoadOptions{
		WorkingDirectory: deps.workingDir,
		ExplicitFilePath: options.configPath,
	})
	if loadErr != nil {
		return application{}, loadErr
	}

	logLevel := configuration.Log.Level
	if strings.TrimSpace(options.logLevel) != utils.EmptyString {
		logLevel = options.logLevel
	}
	logger, loggerErr := utils.NewApplicationLogger(logLevel)
	if loggerErr != nil {
		return application{}, fmt.Errorf(utils.LoggerInitializationFailedMessageFormat, loggerErr)
	}

	generatorConfig := configuration.Generation.GeneratorConfig()
	generatorConfig.Logger = logger
	generator, generatorErr := deps.newGenerator(ctx, generatorConfig)
	if generatorErr != nil {
		return application{}, fmt.Errorf("initialize generator: %w", generatorErr)
	}

	budgetOptions := []budget.Option{budget.WithLogger(logger)}
	if tokenizerModel := strings.TrimSpace(configuration.Budget.TokenizerModel); tokenizerModel != utils.EmptyString && deps.newCounter != nil {
		counter, resolvedModel, counterErr := deps.newCounter(tokenizer.Config{Model: tokenizerModel})
		if counterErr != nil {
			logger.Warn(tokenizerUnavailableMessage, zap.Error(counterErr))
		} else {
			logger.Debug("tokenizer ready", zap.String("model", resolvedModel))
			budgetOptions = append(budgetOptions, budget.WithCounter(counter))
		}
	}

	service, serviceErr := readme.NewService(readme.Options{
		Cloner: deps.newCloner(retrieval.GitClonerOptions{
			Depth:  configuration.Retrieval.Depth,
			Logger: logger,
		}),
		Generator:         generator,
		Extractor:         extract.NewExtractor(configuration.Filter.Policy(), logger),
		Budgeter:          budget.NewBudgeter(configuration.Budget.MaxTokens, budgetOptions...),
		Logger:            logger,
		TempRoot:          configuration.Workspace.TempRoot,
		CloneTimeout:      configuration.Retrieval.Timeout,
		GenerationTimeout: configuration.Generation.Timeout,
	})
	if serviceErr != nil {
		return application{}, serviceErr
	}
	return application{configuration: configuration, logger: logger, service: service}, nil
}

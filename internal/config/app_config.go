// Package config loads readmegen settings from configuration files, dotenv files,
// and environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/temirov/readmegen/internal/budget"
	"github.com/temirov/readmegen/internal/filter"
	"github.com/temirov/readmegen/internal/generation"
	"github.com/temirov/readmegen/internal/readme"
	"github.com/temirov/readmegen/internal/retrieval"
	"github.com/temirov/readmegen/internal/utils"
)

// Configuration keys.
const (
	KeyServerAddress          = "server.address"
	KeyServerAllowedOrigins   = "server.allowed_origins"
	KeyServerShutdownTimeout  = "server.shutdown_timeout"
	KeyGenerationProvider     = "generation.provider"
	KeyGenerationModel        = "generation.model"
	KeyGenerationAPIKey       = "generation.api_key"
	KeyGenerationBaseURL      = "generation.base_url"
	KeyGenerationTimeout      = "generation.timeout"
	KeyRetrievalTimeout       = "retrieval.timeout"
	KeyRetrievalDepth         = "retrieval.depth"
	KeyBudgetMaxTokens        = "budget.max_tokens"
	KeyBudgetTokenizerModel   = "budget.tokenizer_model"
	KeyWorkspaceTempRoot      = "workspace.temp_root"
	KeyFilterDirectories      = "filter.directories"
	KeyFilterExtensions       = "filter.extensions"
	KeyFilterNames            = "filter.names"
	KeyFilterSuffixes         = "filter.suffixes"
	KeyFilterSkipBinary       = "filter.skip_binary"
	KeyLogLevel               = "log.level"
	defaultServerAddress      = "127.0.0.1:8000"
	defaultShutdownTimeout    = 5 * time.Second
	defaultLogLevel           = "info"
	allowAllOrigins           = "*"
	environmentKeySeparator   = "_"
	configurationKeySeparator = "."
)

// LoadOptions controls how application configuration is discovered.
type LoadOptions struct {
	WorkingDirectory string
	ExplicitFilePath string
	// SkipEnvironmentFile disables loading .env from the working directory.
	SkipEnvironmentFile bool
}

// ApplicationConfiguration holds every runtime setting.
type ApplicationConfiguration struct {
	Server     ServerConfiguration     `mapstructure:"server"`
	Generation GenerationConfiguration `mapstructure:"generation"`
	Retrieval  RetrievalConfiguration  `mapstructure:"retrieval"`
	Budget     BudgetConfiguration     `mapstructure:"budget"`
	Workspace  WorkspaceConfiguration  `mapstructure:"workspace"`
	Filter     FilterConfiguration     `mapstructure:"filter"`
	Log        LogConfiguration        `mapstructure:"log"`
}

// ServerConfiguration configures the HTTP listener.
type ServerConfiguration struct {
	Address         string        `mapstructure:"address"`
	AllowedOrigins  []string      `mapstructure:"allowed_origins"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// GenerationConfiguration selects the completion provider.
type GenerationConfiguration struct {
	Provider string        `mapstructure:"provider"`
	Model    string        `mapstructure:"model"`
	APIKey   string        `mapstructure:"api_key"`
	BaseURL  string        `mapstructure:"base_url"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// RetrievalConfiguration controls repository cloning.
type RetrievalConfiguration struct {
	Timeout time.Duration `mapstructure:"timeout"`
	Depth   int           `mapstructure:"depth"`
}

// BudgetConfiguration controls context budgeting.
type BudgetConfiguration struct {
	MaxTokens int `mapstructure:"max_tokens"`
	// TokenizerModel enables diagnostic tiktoken counts when set.
	TokenizerModel string `mapstructure:"tokenizer_model"`
}

// WorkspaceConfiguration controls where repository snapshots are created.
type WorkspaceConfiguration struct {
	TempRoot string `mapstructure:"temp_root"`
}

// FilterConfiguration lists rules appended to the built-in filter policy.
type FilterConfiguration struct {
	Directories []string `mapstructure:"directories"`
	Extensions  []string `mapstructure:"extensions"`
	Names       []string `mapstructure:"names"`
	Suffixes    []string `mapstructure:"suffixes"`
	SkipBinary  bool     `mapstructure:"skip_binary"`
}

// LogConfiguration controls logger verbosity.
type LogConfiguration struct {
	Level string `mapstructure:"level"`
}

// Policy builds the filter policy described by the configuration.
func (configuration FilterConfiguration) Policy() filter.Policy {
	return filter.NewPolicy(filter.Additions{
		Directories:       configuration.Directories,
		Extensions:        configuration.Extensions,
		Names:             configuration.Names,
		Suffixes:          configuration.Suffixes,
		SkipBinaryContent: configuration.SkipBinary,
	})
}

// GeneratorConfig converts the generation settings for generation.NewGenerator.
func (configuration GenerationConfiguration) GeneratorConfig() generation.Config {
	return generation.Config{
		Provider: configuration.Provider,
		Model:    configuration.Model,
		APIKey:   configuration.APIKey,
		BaseURL:  configuration.BaseURL,
	}
}

// LoadApplicationConfiguration loads defaults, then the global file, then the local or
// explicit file, then READMEGEN_* environment variables. A .env file in the working
// directory is loaded into the process environment first without overriding variables
// that are already set.
func LoadApplicationConfiguration(options LoadOptions) (ApplicationConfiguration, error) {
	workingDirectory := options.WorkingDirectory
	if workingDirectory == "" {
		currentDirectory, err := os.Getwd()
		if err != nil {
			return ApplicationConfiguration{}, fmt.Errorf("determine working directory: %w", err)
		}
		workingDirectory = currentDirectory
	}

	if !options.SkipEnvironmentFile {
		if loadErr := loadEnvironmentFile(filepath.Join(workingDirectory, utils.EnvironmentFileName)); loadErr != nil {
			return ApplicationConfiguration{}, loadErr
		}
	}

	reader := viper.New()
	applyDefaults(reader)
	reader.SetEnvPrefix(utils.EnvironmentPrefix)
	reader.SetEnvKeyReplacer(strings.NewReplacer(configurationKeySeparator, environmentKeySeparator))
	reader.AutomaticEnv()

	if homeDirectory, err := os.UserHomeDir(); err == nil && homeDirectory != "" {
		globalPath := filepath.Join(homeDirectory, utils.GlobalConfigDirectoryName, utils.ConfigFileName)
		if mergeErr := mergeConfigurationFromPath(reader, globalPath); mergeErr != nil {
			return ApplicationConfiguration{}, mergeErr
		}
	}

	localPath, resolveErr := resolveLocalConfigPath(workingDirectory, options.ExplicitFilePath)
	if resolveErr != nil {
		return ApplicationConfiguration{}, resolveErr
	}
	if options.ExplicitFilePath != "" {
		if _, statErr := os.Stat(localPath); statErr != nil {
			return ApplicationConfiguration{}, fmt.Errorf("stat configuration %s: %w", localPath, statErr)
		}
	}
	if mergeErr := mergeConfigurationFromPath(reader, localPath); mergeErr != nil {
		return ApplicationConfiguration{}, mergeErr
	}

	var configuration ApplicationConfiguration
	if decodeErr := reader.Unmarshal(&configuration); decodeErr != nil {
		return ApplicationConfiguration{}, fmt.Errorf("decode configuration: %w", decodeErr)
	}
	configuration.Server.AllowedOrigins = normalizeOrigins(configuration.Server.AllowedOrigins)
	if validationErr := configuration.Validate(); validationErr != nil {
		return ApplicationConfiguration{}, validationErr
	}
	return configuration, nil
}

// Validate reports settings that cannot be used.
func (configuration ApplicationConfiguration) Validate() error {
	var problems []error
	switch strings.ToLower(strings.TrimSpace(configuration.Generation.Provider)) {
	case generation.ProviderOpenAI, generation.ProviderGemini:
	default:
		problems = append(problems, fmt.Errorf("%s must be %q or %q, got %q", KeyGenerationProvider, generation.ProviderOpenAI, generation.ProviderGemini, configuration.Generation.Provider))
	}
	if configuration.Budget.MaxTokens <= 0 {
		problems = append(problems, fmt.Errorf("%s must be positive, got %d", KeyBudgetMaxTokens, configuration.Budget.MaxTokens))
	}
	if configuration.Retrieval.Timeout <= 0 {
		problems = append(problems, fmt.Errorf("%s must be positive", KeyRetrievalTimeout))
	}
	if configuration.Generation.Timeout <= 0 {
		problems = append(problems, fmt.Errorf("%s must be positive", KeyGenerationTimeout))
	}
	if strings.TrimSpace(configuration.Server.Address) == "" {
		problems = append(problems, fmt.Errorf("%s is required", KeyServerAddress))
	}
	return errors.Join(problems...)
}

func applyDefaults(reader *viper.Viper) {
	reader.SetDefault(KeyServerAddress, defaultServerAddress)
	reader.SetDefault(KeyServerAllowedOrigins, []string{allowAllOrigins})
	reader.SetDefault(KeyServerShutdownTimeout, defaultShutdownTimeout)
	reader.SetDefault(KeyGenerationProvider, generation.ProviderOpenAI)
	reader.SetDefault(KeyGenerationModel, "")
	reader.SetDefault(KeyGenerationAPIKey, "")
	reader.SetDefault(KeyGenerationBaseURL, "")
	reader.SetDefault(KeyGenerationTimeout, readme.DefaultGenerationTimeout)
	reader.SetDefault(KeyRetrievalTimeout, readme.DefaultCloneTimeout)
	reader.SetDefault(KeyRetrievalDepth, retrieval.DefaultDepth)
	reader.SetDefault(KeyBudgetMaxTokens, budget.DefaultMaxTokens)
	reader.SetDefault(KeyBudgetTokenizerModel, "")
	reader.SetDefault(KeyWorkspaceTempRoot, "")
	reader.SetDefault(KeyFilterDirectories, []string{})
	reader.SetDefault(KeyFilterExtensions, []string{})
	reader.SetDefault(KeyFilterNames, []string{})
	reader.SetDefault(KeyFilterSuffixes, []string{})
	reader.SetDefault(KeyFilterSkipBinary, false)
	reader.SetDefault(KeyLogLevel, defaultLogLevel)
}

func loadEnvironmentFile(path string) error {
	if _, statErr := os.Stat(path); statErr != nil {
		if os.IsNotExist(statErr) {
			return nil
		}
		return fmt.Errorf("stat environment file %s: %w", path, statErr)
	}
	if loadErr := godotenv.Load(path); loadErr != nil {
		return fmt.Errorf("load environment file %s: %w", path, loadErr)
	}
	return nil
}

func resolveLocalConfigPath(workingDirectory, explicitPath string) (string, error) {
	if explicitPath != "" {
		if filepath.IsAbs(explicitPath) {
			return explicitPath, nil
		}
		if workingDirectory == "" {
			absolute, err := filepath.Abs(explicitPath)
			if err != nil {
				return "", fmt.Errorf("resolve configuration path %s: %w", explicitPath, err)
			}
			return absolute, nil
		}
		return filepath.Join(workingDirectory, explicitPath), nil
	}
	if workingDirectory == "" {
		return "", nil
	}
	return filepath.Join(workingDirectory, utils.ConfigFileName), nil
}

func mergeConfigurationFromPath(reader *viper.Viper, path string) error {
	if path == "" {
		return nil
	}
	info, statErr := os.Stat(path)
	if statErr != nil {
		if os.IsNotExist(statErr) {
			return nil
		}
		return fmt.Errorf("stat configuration %s: %w", path, statErr)
	}
	if info.IsDir() {
		return fmt.Errorf("configuration path %s is a directory", path)
	}

	reader.SetConfigFile(path)
	if mergeErr := reader.MergeInConfig(); mergeErr != nil {
		return fmt.Errorf("read configuration from %s: %w", path, mergeErr)
	}
	return nil
}

func normalizeOrigins(origins []string) []string {
	normalized := make([]string, 0, len(origins))
	for _, origin := range origins {
		for _, part := range strings.Split(origin, ",") {
			trimmedOrigin := strings.TrimSpace(part)
			if trimmedOrigin == "" {
				continue
			}
			normalized = append(normalized, trimmedOrigin)
		}
	}
	if len(normalized) == 0 {
		return []string{allowAllOrigins}
	}
	return utils.DeduplicatePatterns(normalized)
}

package main

import (
	"fmt"

	"github.com/temirov/readmegen/internal/cli"
	"github.com/temirov/readmegen/internal/utils"
)

// main is the entry point for the readmegen command.
func main() {
	loggerInstance, loggerInitializationError := utils.NewApplicationLogger(utils.EmptyString)
	if loggerInitializationError != nil {
		panic(fmt.Errorf(utils.LoggerInitializationFailedMessageFormat, loggerInitializationError))
	}
	defer func() { _ = loggerInstance.Sync() }()
	if applicationExecutionError := cli.Execute(); applicationExecutionError != nil {
		loggerInstance.Fatal(utils.ApplicationExecutionFailedMessage + ": " + applicationExecutionError.Error())
	}
}

package main

import (
	"fmt"
	"os"

	"github.com/skytin1004/empire-db/infrastructure/logger"
)

var log, _ = logger.Get(logger.SubsystemTags.QRYD)

func initLog(cfg *configFlags) {
	err := logger.BackendLog().AddLogWriter(os.Stderr, logger.LevelWarn)
	if err != nil {
		printErrorAndExit(fmt.Sprintf("error attaching stderr log writer: %s", err))
	}
	if cfg.LogFile != "" {
		level, ok := logger.LevelFromString(cfg.LogLevel)
		if !ok {
			printErrorAndExit(fmt.Sprintf("invalid log level: %s", cfg.LogLevel))
		}
		err := logger.BackendLog().AddLogFile(cfg.LogFile, level)
		if err != nil {
			printErrorAndExit(fmt.Sprintf("error adding log file %s: %s", cfg.LogFile, err))
		}
	}
	err = logger.SetLogLevels(cfg.LogLevel)
	if err != nil {
		printErrorAndExit(fmt.Sprintf("error setting log levels: %s", err))
	}
}

func printErrorAndExit(message string) {
	fmt.Fprintf(os.Stderr, "%s\n", message)
	os.Exit(1)
}

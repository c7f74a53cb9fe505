package main

import (
	"github.com/jessevdk/go-flags"
	"github.com/pkg/errors"
)

const defaultMaxRows = -1

type configFlags struct {
	Driver     string `short:"d" long:"driver" description:"Name of the registered database/sql driver to use"`
	DSN        string `long:"dsn" description:"Data source name passed to the driver"`
	MaxRows    int    `short:"n" long:"max-rows" description:"Maximum number of rows to print (-1 for all)"`
	XML        bool   `short:"x" long:"xml" description:"Print the result as an XML rowset document"`
	Scrollable bool   `long:"scrollable" description:"Request a scrollable cursor (buffers the result set)"`
	LogFile    string `long:"logfile" description:"Write a rotating trace log to this file"`
	LogLevel   string `long:"loglevel" description:"Log level for all subsystems {trace, debug, info, warn, error, critical}" default:"info"`
	TrackLeaks bool   `long:"track-leaks" description:"Track open readers and report any left open on exit"`
	ShowVer    bool   `short:"V" long:"version" description:"Display version information and exit"`
	Query      string
}

func parseConfig() (*configFlags, error) {
	cfg := &configFlags{
		MaxRows: defaultMaxRows,
	}
	parser := flags.NewParser(cfg, flags.HelpFlag)
	parser.Usage = "querydump [OPTIONS] QUERY\n\nExecutes QUERY through the given database/sql driver and prints its rows." +
		"\n\nThe driver must be registered by the program embedding this tool."
	remainingArgs, err := parser.Parse()
	if err != nil {
		return nil, err
	}

	if cfg.ShowVer {
		return cfg, nil
	}

	if cfg.Driver == "" || cfg.DSN == "" {
		return nil, errors.New("both --driver and --dsn must be specified")
	}
	if len(remainingArgs) != 1 {
		return nil, errors.New("exactly one QUERY argument must be specified")
	}
	cfg.Query = remainingArgs[0]
	return cfg, nil
}

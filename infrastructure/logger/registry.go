package logger

import (
	"fmt"
	"os"
	"sync"

	"github.com/pkg/errors"
)

// SubsystemTags are the tags of all of the repository's subsystem loggers.
var SubsystemTags = struct {
	RDER,
	RLBK,
	SQLD,
	QRYD string
}{
	RDER: "RDER",
	RLBK: "RLBK",
	SQLD: "SQLD",
	QRYD: "QRYD",
}

// backendLog is the logging backend used to create all subsystem loggers.
var backendLog = NewBackend()

var (
	loggersMtx sync.Mutex
	loggers    = make(map[string]*Logger)
)

// Get returns the subsystem logger for the given tag, creating it on the
// backend the first time the tag is requested. An unknown tag is an error.
func Get(tag string) (*Logger, error) {
	if !validTag(tag) {
		return nil, errors.Errorf("unknown subsystem tag %s", tag)
	}
	loggersMtx.Lock()
	defer loggersMtx.Unlock()
	log, ok := loggers[tag]
	if !ok {
		log = backendLog.Logger(tag)
		loggers[tag] = log
	}
	return log, nil
}

func validTag(tag string) bool {
	switch tag {
	case SubsystemTags.RDER, SubsystemTags.RLBK, SubsystemTags.SQLD, SubsystemTags.QRYD:
		return true
	}
	return false
}

// BackendLog returns the logging backend all subsystem loggers write to.
func BackendLog() *Backend {
	return backendLog
}

// InitLog attaches a log file and an error log file to the backend log.
func InitLog(logFile, errLogFile string) {
	err := backendLog.AddLogFile(logFile, LevelTrace)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error adding log file %s as log rotator for level %s: %s\n", logFile, LevelTrace, err)
		os.Exit(1)
	}
	err = backendLog.AddLogFile(errLogFile, LevelWarn)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error adding log file %s as log rotator for level %s: %s\n", errLogFile, LevelWarn, err)
		os.Exit(1)
	}
}

// SetLogLevels sets the logging level for all of the subsystem loggers.
func SetLogLevels(level string) error {
	lvl, ok := LevelFromString(level)
	if !ok {
		return errors.Errorf("invalid log level %s", level)
	}
	loggersMtx.Lock()
	defer loggersMtx.Unlock()
	for _, log := range loggers {
		log.SetLevel(lvl)
	}
	return nil
}

package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/jrick/logrotate/rotator"
	"github.com/pkg/errors"
)

// defaultFlags specifies changes to the default logger behavior. It is set
// during package init and configured using the LOGFLAGS environment variable.
// New logger backends can override these default flags using WithFlags.
var defaultFlags = getDefaultFlags()

// Flags to modify Backend's behavior.
const (
	// LogFlagLongFile modifies the logger output to include full path and line number
	// of the logging callsite, e.g. /a/b/c/main.go:123.
	LogFlagLongFile uint32 = 1 << iota

	// LogFlagShortFile modifies the logger output to include filename and line number
	// of the logging callsite, e.g. main.go:123. takes precedence over LogFlagLongFile.
	LogFlagShortFile
)

// Read logger flags from the LOGFLAGS environment variable. Multiple flags can
// be set at once, separated by commas.
func getDefaultFlags() (flags uint32) {
	for _, f := range strings.Split(os.Getenv("LOGFLAGS"), ",") {
		switch f {
		case "longfile":
			flags |= LogFlagLongFile
		case "shortfile":
			flags |= LogFlagShortFile
		}
	}
	return
}

const (
	defaultThresholdKB = 100 * 1000 // 100 MB logs by default.
	defaultMaxRolls    = 8          // keep 8 last logs by default.
)

type logWriter interface {
	io.WriteCloser
	LogLevel() Level
}

type logWriterWrap struct {
	io.WriteCloser
	logLevel Level
}

func (lw logWriterWrap) LogLevel() Level {
	return lw.logLevel
}

// Backend is a logging backend. Subsystem loggers created from the backend
// write to the backend's writers. Writes from all subsystems are serialized
// through the backend's mutex.
type Backend struct {
	flag    uint32
	mtx     sync.Mutex
	writers []logWriter
}

// NewBackendWithFlags configures a Backend to use the specified flags rather
// than using the package's defaults as determined through the LOGFLAGS
// environment variable.
func NewBackendWithFlags(flags uint32) *Backend {
	return &Backend{flag: flags}
}

// NewBackend creates a new logger backend.
func NewBackend() *Backend {
	return NewBackendWithFlags(defaultFlags)
}

// AddLogFile adds a file which the log will write into on a certain
// log level with the default log rotation settings. It'll create the file if it doesn't exist.
func (b *Backend) AddLogFile(logFile string, logLevel Level) error {
	return b.AddLogFileWithCustomRotator(logFile, logLevel, defaultThresholdKB, defaultMaxRolls)
}

// AddLogWriter adds a type implementing io.WriteCloser which the log will
// write into on a certain log level.
func (b *Backend) AddLogWriter(writer io.WriteCloser, logLevel Level) error {
	b.mtx.Lock()
	defer b.mtx.Unlock()
	b.writers = append(b.writers, logWriterWrap{
		WriteCloser: writer,
		logLevel:    logLevel,
	})
	return nil
}

// AddLogFileWithCustomRotator adds a file which the log will write into on a
// certain log level, with the specified log rotation settings.
// It'll create the file if it doesn't exist.
func (b *Backend) AddLogFileWithCustomRotator(logFile string, logLevel Level, thresholdKB int64, maxRolls int) error {
	logDir, _ := filepath.Split(logFile)
	// if the logDir is empty then `logFile` is in the cwd and there's no
	// need to create any directory.
	if logDir != "" {
		err := os.MkdirAll(logDir, 0700)
		if err != nil {
			return errors.Errorf("failed to create log directory: %+v", err)
		}
	}
	r, err := rotator.New(logFile, thresholdKB, false, maxRolls)
	if err != nil {
		return errors.Errorf("failed to create file rotator: %s", err)
	}
	return b.AddLogWriter(r, logLevel)
}

// Close finalizes all writers attached to this backend.
func (b *Backend) Close() {
	b.mtx.Lock()
	defer b.mtx.Unlock()
	for _, writer := range b.writers {
		_ = writer.Close()
	}
	b.writers = nil
}

// Logger returns a new logger for a particular subsystem that writes to the
// Backend b. A tag describes the subsystem and is included in all log
// messages. The logger is off by default; call SetLevel to produce output.
func (b *Backend) Logger(subsystemTag string) *Logger {
	return &Logger{lvl: LevelOff, tag: subsystemTag, b: b}
}

// write formats a log entry and dispatches it to every writer whose
// configured level admits lvl.
func (b *Backend) write(lvl Level, tag string, format string, args ...interface{}) {
	entry := b.formatEntry(lvl, tag, format, args...)
	b.mtx.Lock()
	defer b.mtx.Unlock()
	for _, writer := range b.writers {
		if lvl >= writer.LogLevel() {
			_, _ = writer.Write(entry)
		}
	}
}

func (b *Backend) formatEntry(lvl Level, tag string, format string, args ...interface{}) []byte {
	t := time.Now().Format("2006-01-02 15:04:05.000")
	var callsite string
	if b.flag&(LogFlagShortFile|LogFlagLongFile) != 0 {
		callsite = " " + b.callsite()
	}
	msg := fmt.Sprintf(format, args...)
	return []byte(fmt.Sprintf("%s [%s] %s:%s %s\n", t, lvl, tag, callsite, msg))
}

// callsite returns the file name and line number of the logging callsite,
// honoring the short/long file flags.
func (b *Backend) callsite() string {
	// skip runtime.Callers, callsite, formatEntry, write and the Logger method.
	_, file, line, ok := runtime.Caller(5)
	if !ok {
		return "<unknown>:0"
	}
	if b.flag&LogFlagShortFile != 0 {
		file = filepath.Base(file)
	}
	return fmt.Sprintf("%s:%d", file, line)
}

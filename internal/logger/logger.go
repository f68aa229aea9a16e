package logger

import (
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"labelvision/internal/config"

	"github.com/rs/zerolog"
)

// Log file names, one per level.
const (
	InfoFile    = "info.log"
	WarningFile = "warning.log"
	ErrorFile   = "error.log"
)

// Logger provides leveled logging (info/warning/error) to files and stdout/stderr.
type Logger struct {
	infoLog    zerolog.Logger
	warningLog zerolog.Logger
	errorLog   zerolog.Logger
	logDir     string
	mu         sync.Mutex
}

// NewLogger creates a Logger writing to the console and to per-level files in
// config.LogDirectory. If the directory cannot be created it logs to the console only.
func NewLogger(config *config.Config) *Logger {
	logger := &Logger{
		logDir: config.LogDirectory,
	}

	if err := os.MkdirAll(config.LogDirectory, 0755); err != nil {
		logger.setupLoggers(nil, nil, nil)
		logger.Warning("Failed to create log directory %s: %v", config.LogDirectory, err)
		return logger
	}

	logger.setupLoggers(
		logger.openLogFile(InfoFile),
		logger.openLogFile(WarningFile),
		logger.openLogFile(ErrorFile),
	)
	return logger
}

// New creates a Logger that writes every level to w only. Used by tools and tests.
func New(w io.Writer) *Logger {
	base := zerolog.New(w).With().Timestamp().Logger()
	return &Logger{
		infoLog:    base.Level(zerolog.InfoLevel),
		warningLog: base.Level(zerolog.WarnLevel),
		errorLog:   base.Level(zerolog.ErrorLevel),
	}
}

// Nop returns a Logger that discards everything.
func Nop() *Logger {
	return New(io.Discard)
}

// setupLoggers initializes writers and per-level loggers. Nil files are skipped.
func (l *Logger) setupLoggers(infoFile, warningFile, errorFile io.Writer) {
	stdout := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.DateTime, NoColor: true}
	stderr := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.DateTime, NoColor: true}

	l.infoLog = newLevelLogger(zerolog.InfoLevel, stdout, infoFile)
	l.warningLog = newLevelLogger(zerolog.WarnLevel, stdout, warningFile)
	l.errorLog = newLevelLogger(zerolog.ErrorLevel, stderr, errorFile)
}

func newLevelLogger(level zerolog.Level, console io.Writer, file io.Writer) zerolog.Logger {
	var w io.Writer = console
	if file != nil {
		w = zerolog.MultiLevelWriter(console, file)
	}
	return zerolog.New(w).Level(level).With().Timestamp().Logger()
}

// openLogFile opens or creates a log file for appending. Returns nil on failure.
func (l *Logger) openLogFile(filename string) io.Writer {
	file, err := os.OpenFile(filepath.Join(l.logDir, filename), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
	if err != nil {
		return nil
	}
	return file
}

// Info writes a formatted info-level log entry.
func (l *Logger) Info(format string, v ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.infoLog.Info().Msgf(format, v...)
}

// Warning writes a formatted warning-level log entry.
func (l *Logger) Warning(format string, v ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.warningLog.Warn().Msgf(format, v...)
}

// Error writes a formatted error-level log entry.
func (l *Logger) Error(format string, v ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.errorLog.Error().Msgf(format, v...)
}

// Dir returns the directory holding the per-level log files, or "" for console-only loggers.
func (l *Logger) Dir() string {
	return l.logDir
}

// CleanLogs truncates the specified log file.
func (l *Logger) CleanLogs(fileName string) error {
	if l.logDir == "" {
		return nil
	}

	filePath := filepath.Join(l.logDir, fileName)
	file, err := os.OpenFile(filePath, os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		l.Error("Error opening file: %v", err)
		return err
	}
	defer file.Close()

	l.Info("File content has been cleared: %s", fileName)
	return nil
}

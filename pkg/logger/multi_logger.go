package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LogCategory represents different log categories
type LogCategory string

const (
	CategoryAcquire LogCategory = "acquire" // Acquisition lifecycle events (JSON)
	CategoryError   LogCategory = "error"   // Application errors (JSON)
)

// Categories lists every category written by MultiLogger
var Categories = []LogCategory{CategoryAcquire, CategoryError}

const dateLayout = "20060102"

// MultiLogger provides categorized logging with one JSON file per category and day.
// Files are reopened when the date changes.
type MultiLogger struct {
	loggers     map[LogCategory]*zap.Logger
	files       map[LogCategory]*os.File
	config      MultiLoggerConfig
	level       zapcore.Level
	mu          sync.RWMutex
	currentDate string
	now         func() time.Time
}

// MultiLoggerConfig contains configuration for multi-output logging
type MultiLoggerConfig struct {
	Level   string // debug, info, warn, error
	LogsDir string // Directory for log files
}

// NewMultiLogger creates a new multi-output logger
func NewMultiLogger(config MultiLoggerConfig) (*MultiLogger, error) {
	if config.LogsDir == "" {
		return nil, fmt.Errorf("logs_dir must be specified")
	}

	if err := os.MkdirAll(config.LogsDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create logs directory: %w", err)
	}

	level, err := zapcore.ParseLevel(config.Level)
	if err != nil {
		level = zapcore.InfoLevel
	}

	ml := &MultiLogger{
		loggers: make(map[LogCategory]*zap.Logger),
		files:   make(map[LogCategory]*os.File),
		config:  config,
		level:   level,
		now:     time.Now,
	}
	if err := ml.open(ml.now().Format(dateLayout)); err != nil {
		return nil, err
	}
	return ml, nil
}

// NewNopMultiLogger returns a MultiLogger that discards everything
func NewNopMultiLogger() *MultiLogger {
	ml := &MultiLogger{
		loggers: make(map[LogCategory]*zap.Logger),
		files:   make(map[LogCategory]*os.File),
		now:     time.Now,
	}
	for _, category := range Categories {
		ml.loggers[category] = zap.NewNop()
	}
	return ml
}

// open creates the category loggers for a date; callers hold mu or own ml exclusively
func (ml *MultiLogger) open(date string) error {
	for _, category := range Categories {
		level := ml.level
		if category == CategoryError {
			level = zapcore.ErrorLevel
		}
		logger, file, err := ml.createStructuredLogger(category, date, level)
		if err != nil {
			return fmt.Errorf("failed to create %s logger: %w", category, err)
		}
		if old, ok := ml.files[category]; ok {
			_ = ml.loggers[category].Sync()
			old.Close()
		}
		ml.loggers[category] = logger
		ml.files[category] = file
	}
	ml.currentDate = date
	return nil
}

// createStructuredLogger creates a JSON-formatted logger for a category
func (ml *MultiLogger) createStructuredLogger(category LogCategory, date string, level zapcore.Level) (*zap.Logger, *os.File, error) {
	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.TimeKey = "ts"
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderConfig.MessageKey = "msg"
	encoderConfig.LevelKey = "level"
	encoderConfig.CallerKey = ""

	encoder := zapcore.NewJSONEncoder(encoderConfig)

	logPath := CategoryLogPath(ml.config.LogsDir, category, date)
	file, err := os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, nil, err
	}

	core := zapcore.NewCore(encoder, zapcore.AddSync(file), level)
	return zap.New(core), file, nil
}

// CategoryLogPath returns the file used for a category on a date (YYYYMMDD)
func CategoryLogPath(logsDir string, category LogCategory, date string) string {
	return filepath.Join(logsDir, fmt.Sprintf("%s-%s.log", category, date))
}

// GetLogsDir returns the logs directory path
func (ml *MultiLogger) GetLogsDir() string {
	return ml.config.LogsDir
}

// GetLogger returns the structured logger for a specific category
func (ml *MultiLogger) GetLogger(category LogCategory) *zap.Logger {
	ml.rotateIfNeeded()

	ml.mu.RLock()
	defer ml.mu.RUnlock()

	if logger, ok := ml.loggers[category]; ok {
		return logger
	}
	return ml.loggers[CategoryError]
}

func (ml *MultiLogger) rotateIfNeeded() {
	if ml.config.LogsDir == "" {
		return
	}
	today := ml.now().Format(dateLayout)

	ml.mu.RLock()
	current := ml.currentDate
	ml.mu.RUnlock()
	if current == today {
		return
	}

	ml.mu.Lock()
	defer ml.mu.Unlock()
	if ml.currentDate == today {
		return
	}
	// Keep writing to the old files if the new ones cannot be opened
	_ = ml.open(today)
}

// Acquire returns the acquisition lifecycle logger (JSON format)
func (ml *MultiLogger) Acquire() *zap.Logger {
	return ml.GetLogger(CategoryAcquire)
}

// Error returns the error logger (JSON format)
func (ml *MultiLogger) Error() *zap.Logger {
	return ml.GetLogger(CategoryError)
}

// LogAppError logs an application-level error (Go errors, panics)
func (ml *MultiLogger) LogAppError(msg string, fields ...zap.Field) {
	ml.Error().Error(msg, fields...)
}

// LogAcquireEvent logs an acquisition lifecycle event with structured data
func (ml *MultiLogger) LogAcquireEvent(event string, fields ...zap.Field) {
	ml.Acquire().Info(event, fields...)
}

// Sync flushes all loggers
func (ml *MultiLogger) Sync() error {
	ml.mu.RLock()
	defer ml.mu.RUnlock()

	var lastErr error
	for _, logger := range ml.loggers {
		if err := logger.Sync(); err != nil {
			lastErr = err
		}
	}
	return lastErr
}

// Close flushes all loggers and closes their files
func (ml *MultiLogger) Close() error {
	ml.mu.Lock()
	defer ml.mu.Unlock()

	var lastErr error
	for category, logger := range ml.loggers {
		if err := logger.Sync(); err != nil {
			lastErr = err
		}
		if file, ok := ml.files[category]; ok {
			if err := file.Close(); err != nil {
				lastErr = err
			}
		}
	}
	ml.files = make(map[LogCategory]*os.File)
	return lastErr
}

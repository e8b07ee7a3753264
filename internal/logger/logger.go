package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/juju/lumberjack/v2"
	"github.com/kevinfinalboss/cmlporter/pkg/types"
	"github.com/rs/zerolog"
)

const (
	LogFileName       = "cmlporter.log"
	LogFileMaxSizeMB  = 10
	LogFileMaxBackups = 5
)

type Logger struct {
	logger   zerolog.Logger
	language string
	messages map[string]string
	closer   io.Closer
}

func consoleWriter() zerolog.ConsoleWriter {
	return zerolog.ConsoleWriter{
		Out:        os.Stdout,
		TimeFormat: time.RFC3339,
		FormatLevel: func(i interface{}) string {
			return strings.ToUpper(fmt.Sprintf("%-6s", i))
		},
	}
}

func NewWithConfig(cfg *types.Config) *Logger {
	level := parseLogLevel(cfg.Settings.LogLevel)

	logger := zerolog.New(consoleWriter()).
		Level(level).
		With().
		Timestamp().
		Logger()

	l := &Logger{
		logger:   logger,
		language: cfg.Settings.Language,
	}
	l.loadMessages()
	return l
}

// WithLogFile returns a logger that writes to the console and to a rotating
// file in logDir. Close releases the file.
func (l *Logger) WithLogFile(logDir string) (*Logger, error) {
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory %s: %w", logDir, err)
	}

	file := &lumberjack.Logger{
		Filename:   filepath.Join(logDir, LogFileName),
		MaxSize:    LogFileMaxSizeMB,
		MaxBackups: LogFileMaxBackups,
	}

	multi := zerolog.MultiLevelWriter(consoleWriter(), file)
	logger := zerolog.New(multi).
		Level(l.logger.GetLevel()).
		With().
		Timestamp().
		Logger()

	return &Logger{
		logger:   logger,
		language: l.language,
		messages: l.messages,
		closer:   file,
	}, nil
}

func (l *Logger) Close() error {
	if l.closer == nil {
		return nil
	}
	return l.closer.Close()
}

func parseLogLevel(level string) zerolog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

func (l *Logger) loadMessages() {
	messages, err := loadLocaleMessages(l.language)
	if err != nil {
		messages = getEmbeddedMessages(l.language)
	}
	l.messages = messages
}

func (l *Logger) GetMessage(key string) string {
	return l.getMessage(key)
}

func (l *Logger) getMessage(key string) string {
	if message, exists := l.messages[key]; exists {
		return message
	}

	if message, exists := getEmbeddedMessages("en-US")[key]; exists {
		return message
	}

	return key
}

func (l *Logger) Debug(key string) *zerolog.Event {
	return l.logger.Debug().Str("message", l.getMessage(key))
}

func (l *Logger) Info(key string) *zerolog.Event {
	return l.logger.Info().Str("message", l.getMessage(key))
}

func (l *Logger) Warn(key string) *zerolog.Event {
	return l.logger.Warn().Str("message", l.getMessage(key))
}

func (l *Logger) Error(key string) *zerolog.Event {
	return l.logger.Error().Str("message", l.getMessage(key))
}

func (l *Logger) WithFields(fields map[string]interface{}) *Logger {
	ctx := l.logger.With()
	for k, v := range fields {
		ctx = ctx.Interface(k, v)
	}

	return &Logger{
		logger:   ctx.Logger(),
		language: l.language,
		messages: l.messages,
		closer:   l.closer,
	}
}

func (l *Logger) WithField(key string, value interface{}) *Logger {
	return &Logger{
		logger:   l.logger.With().Interface(key, value).Logger(),
		language: l.language,
		messages: l.messages,
		closer:   l.closer,
	}
}

package logger

import (
	"io"

	"github.com/rs/zerolog"
)

func NewTest() *Logger {
	testLogger := zerolog.New(io.Discard).With().Timestamp().Logger()

	return &Logger{
		logger:   testLogger,
		language: "en-US",
		messages: getEmbeddedMessages("en-US"),
	}
}

// NewTestWithOutput writes JSON records to w so tests can assert on them.
func NewTestWithOutput(w io.Writer) *Logger {
	testLogger := zerolog.New(w).Level(zerolog.DebugLevel).With().Logger()

	return &Logger{
		logger:   testLogger,
		language: "en-US",
		messages: getEmbeddedMessages("en-US"),
	}
}

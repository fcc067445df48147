// Package logging builds the zerolog logger shared by all commands.
package logging

import (
	"fmt"
	"io"
	"os"
	"time"

	"addrview/pkg/config"

	"github.com/rs/zerolog"
)

// New returns a logger at cfg's level. When cfg names a log file, output is
// appended there; otherwise it goes to fallback. A nil fallback discards
// output, which is what the TUI wants since it owns the terminal. The
// returned closer releases the log file, if any.
func New(cfg config.Config, fallback io.Writer) (zerolog.Logger, io.Closer, error) {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		return zerolog.Nop(), nopCloser{}, fmt.Errorf("invalid log level %q: %w", cfg.LogLevel, err)
	}
	if level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	var (
		out    io.Writer = io.Discard
		closer io.Closer = nopCloser{}
	)
	switch {
	case cfg.LogFile != "":
		f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
		if err != nil {
			return zerolog.Nop(), nopCloser{}, fmt.Errorf("open log file: %w", err)
		}
		out, closer = f, f
	case fallback != nil:
		out = zerolog.ConsoleWriter{Out: fallback, TimeFormat: time.RFC3339}
	}

	logger := zerolog.New(out).Level(level).With().Timestamp().Logger()
	return logger, closer, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

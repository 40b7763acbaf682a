package logging

import (
	"fmt"
	"io"
	"os"

	"github.com/muesli/termenv"
	"github.com/rs/zerolog"
)

// Fields is a set of key/value pairs attached to every message of a Logger.
type Fields map[string]any

// Logger wraps a zerolog.Logger with printf-style levelled methods.
type Logger struct {
	base zerolog.Logger
}

// New creates a Logger writing to out. format is either "console" or "json",
// level is any level understood by zerolog.ParseLevel.
func New(out io.Writer, format, level string) (*Logger, error) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	if lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}

	var w io.Writer
	switch format {
	case "", "console":
		w = ColoredConsoleWriter(out)
	case "json":
		w = out
	default:
		return nil, fmt.Errorf("unsupported log format %q", format)
	}

	base := zerolog.New(w).Level(lvl).With().Timestamp().Logger()
	return &Logger{base: base}, nil
}

// Default returns an info level console logger on stderr.
func Default() *Logger {
	l, _ := New(os.Stderr, "console", "info")
	return l
}

// Nop returns a Logger that discards everything.
func Nop() *Logger {
	return &Logger{base: zerolog.Nop()}
}

// WithFields returns a new Logger that includes the provided fields.
func (l *Logger) WithFields(fields Fields) *Logger {
	return &Logger{base: l.base.With().Fields(map[string]any(fields)).Logger()}
}

// ColoredConsoleWriter wraps an io.Writer to print human readable, coloured logs.
func ColoredConsoleWriter(out io.Writer) zerolog.ConsoleWriter {
	return zerolog.ConsoleWriter{
		Out:        out,
		TimeFormat: "2006-01-02 15:04:05",
		FormatLevel: func(i any) string {
			level, _ := i.(string)
			switch level {
			case "info":
				return termenv.String("INFO ").Foreground(termenv.ANSICyan).String()
			case "warn":
				return termenv.String("WARN ").Foreground(termenv.ANSIYellow).String()
			case "error":
				return termenv.String("ERROR").Foreground(termenv.ANSIRed).String()
			case "debug":
				return termenv.String("DEBUG").Foreground(termenv.ANSIWhite).String()
			default:
				return level
			}
		},
	}
}

func (l *Logger) Debug(msg string) {
	l.base.Debug().Msg(msg)
}

func (l *Logger) Debugf(format string, args ...any) {
	l.base.Debug().Msgf(format, args...)
}

func (l *Logger) Info(msg string) {
	l.base.Info().Msg(msg)
}

func (l *Logger) Infof(format string, args ...any) {
	l.base.Info().Msgf(format, args...)
}

func (l *Logger) Warn(msg string) {
	l.base.Warn().Msg(msg)
}

func (l *Logger) Warnf(format string, args ...any) {
	l.base.Warn().Msgf(format, args...)
}

func (l *Logger) Error(msg string) {
	l.base.Error().Msg(msg)
}

func (l *Logger) Errorf(format string, args ...any) {
	l.base.Error().Msgf(format, args...)
}

// ErrorErr logs msg at error level with err attached under the "error" key.
func (l *Logger) ErrorErr(err error, msg string) {
	l.base.Error().Err(err).Msg(msg)
}

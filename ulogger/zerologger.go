package ulogger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/ordishs/gocore"
	"github.com/rs/zerolog"
	"golang.org/x/term"
)

type ZLoggerWrapper struct {
	zerolog.Logger
	service string
	w       io.Writer
}

func NewZeroLogger(service string, options ...Option) *ZLoggerWrapper {
	if service == "" {
		service = "headersync"
	}

	opts := DefaultOptions()
	for _, o := range options {
		o(opts)
	}

	var out io.Writer = opts.writer
	if gocore.Config().GetBool("PRETTY_LOGS", true) {
		out = consoleWriter(opts.writer, service)
	}

	z := &ZLoggerWrapper{
		zerolog.New(out).With().
			CallerWithSkipFrameCount(zerolog.CallerSkipFrameCount+1+opts.skip).
			Str("service", service).
			Timestamp().
			Logger(),
		service,
		opts.writer,
	}

	z.SetLogLevel(opts.logLevel)

	return z
}

// consoleWriter prints "15:04:05 | LEVEL | service | message", coloured only on a terminal.
func consoleWriter(writer io.Writer, service string) zerolog.ConsoleWriter {
	noColor := os.Getenv("NO_COLOR") != ""
	if f, ok := writer.(*os.File); !ok || !term.IsTerminal(int(f.Fd())) {
		noColor = true
	}

	return zerolog.ConsoleWriter{
		Out:           writer,
		NoColor:       noColor,
		TimeFormat:    "15:04:05",
		FieldsExclude: []string{"service"},
		FormatLevel: func(i interface{}) string {
			return fmt.Sprintf("| %-6s|", strings.ToUpper(fmt.Sprint(i)))
		},
		FormatMessage: func(i interface{}) string {
			return fmt.Sprintf("| %-10s| %s", service, i)
		},
		FormatTimestamp: func(i interface{}) string {
			s, _ := i.(string)
			if ts, err := time.Parse(time.RFC3339, s); err == nil {
				return ts.Format("15:04:05")
			}

			return s
		},
	}
}

func (z *ZLoggerWrapper) New(service string, options ...Option) Logger {
	// inherit the parent's writer and level unless overridden
	opts := []Option{WithWriter(z.w), WithLevel(z.Logger.GetLevel().String())}

	return NewZeroLogger(service, append(opts, options...)...)
}

func (z *ZLoggerWrapper) Duplicate(options ...Option) Logger {
	return z.New(z.service, options...)
}

// SetLogLevel accepts the gocore level names in any case. Anything unknown means INFO.
func (z *ZLoggerWrapper) SetLogLevel(logLevel string) {
	level, err := zerolog.ParseLevel(strings.ToLower(logLevel))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	z.Logger = z.Logger.Level(level)
}

var gocoreLevels = map[zerolog.Level]int{
	zerolog.DebugLevel: int(gocore.DEBUG),
	zerolog.InfoLevel:  int(gocore.INFO),
	zerolog.WarnLevel:  int(gocore.WARN),
	zerolog.ErrorLevel: int(gocore.ERROR),
	zerolog.FatalLevel: int(gocore.FATAL),
}

func (z *ZLoggerWrapper) LogLevel() int {
	if level, ok := gocoreLevels[z.Logger.GetLevel()]; ok {
		return level
	}

	return int(gocore.INFO)
}

func (z *ZLoggerWrapper) Debugf(format string, args ...interface{}) {
	z.Logger.Debug().Msgf(format, args...)
}

func (z *ZLoggerWrapper) Infof(format string, args ...interface{}) {
	z.Logger.Info().Msgf(format, args...)
}

func (z *ZLoggerWrapper) Warnf(format string, args ...interface{}) {
	z.Logger.Warn().Msgf(format, args...)
}

func (z *ZLoggerWrapper) Errorf(format string, args ...interface{}) {
	z.Logger.Error().Msgf(format, args...)
}

func (z *ZLoggerWrapper) Fatalf(format string, args ...interface{}) {
	z.Logger.Fatal().Msgf(format, args...)
}

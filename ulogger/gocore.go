package ulogger

import (
	"github.com/ordishs/gocore"
)

type GoCoreLogger struct {
	*gocore.Logger
	skipFrame int
}

func NewGoCoreLogger(service string, options ...Option) *GoCoreLogger {
	if service == "" {
		service = "headersync"
	}

	opts := DefaultOptions()
	for _, o := range options {
		o(opts)
	}

	return &GoCoreLogger{gocore.Log(service, gocore.NewLogLevelFromString(opts.logLevel)), opts.skip}
}

func (g *GoCoreLogger) New(service string, options ...Option) Logger {
	opts := DefaultOptions()
	for _, o := range options {
		o(opts)
	}

	return &GoCoreLogger{
		gocore.Log(service, g.Logger.GetLogLevel()),
		opts.skip,
	}
}

func (g *GoCoreLogger) Duplicate(options ...Option) Logger {
	newLogger := &GoCoreLogger{g.Logger, g.skipFrame}

	defaultOpts := DefaultOptions()
	opts := DefaultOptions()

	for _, o := range options {
		o(opts)
	}

	if opts.skip != defaultOpts.skip {
		newLogger.skipFrame = opts.skip
	}

	return newLogger
}

func (g *GoCoreLogger) LogLevel() int {
	return int(g.Logger.GetLogLevel())
}

func (g *GoCoreLogger) SetLogLevel(_ string) {
	// noop, has to be set when creating
}

func (g *GoCoreLogger) Debugf(format string, args ...interface{}) {
	g.Logger.Debugf(format, args...)
}

func (g *GoCoreLogger) Infof(format string, args ...interface{}) {
	g.Logger.Infof(format, args...)
}

func (g *GoCoreLogger) Warnf(format string, args ...interface{}) {
	g.Logger.Warnf(format, args...)
}

func (g *GoCoreLogger) Errorf(format string, args ...interface{}) {
	g.Logger.Errorf(format, args...)
}

func (g *GoCoreLogger) Fatalf(format string, args ...interface{}) {
	g.Logger.Fatalf(format, args...)
}

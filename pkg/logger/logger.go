// Package logger is the process-wide zap logger. The level can be changed at
// runtime, the console writer can be swapped (e.g. to the readline buffer) and
// an optional rotating file sink receives JSON records.
package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	// mu guards the fields below.
	mu  sync.Mutex
	log *zap.Logger

	logLevel   = zap.NewAtomicLevelAt(zap.InfoLevel)
	encoderCfg = defaultEncoderConfig()
	// consoleWriter receives human readable records, stderr by default so
	// that logs do not interleave with prompts.
	consoleWriter = zapcore.Lock(zapcore.AddSync(os.Stderr))
	fileSink      *lumberjack.Logger
)

// Options configures Init.
type Options struct {
	// Level is one of debug, info, warn, error. Unknown values mean info.
	Level string
	// File enables a rotating JSON log file when non-empty.
	File string
}

func defaultEncoderConfig() zapcore.EncoderConfig {
	return zapcore.EncoderConfig{
		TimeKey:        "time",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		MessageKey:     "msg",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.CapitalColorLevelEncoder,
		EncodeTime:     zapcore.TimeEncoderOfLayout("2006-01-02 15:04:05"),
		EncodeDuration: zapcore.StringDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}
}

// rebuildLoggerLocked recreates the global logger. mu must be held.
func rebuildLoggerLocked() {
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(encoderCfg), consoleWriter, logLevel)

	if fileSink != nil {
		fileCore := zapcore.NewCore(
			zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()),
			zapcore.AddSync(fileSink),
			logLevel,
		)
		core = zapcore.NewTee(core, fileCore)
	}

	if log != nil {
		_ = log.Sync()
	}
	log = zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1), zap.ErrorOutput(consoleWriter))
}

// ParseLevel maps a level name to a zap level, case-insensitively.
func ParseLevel(level string) zapcore.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return zap.DebugLevel
	case "warn", "warning":
		return zap.WarnLevel
	case "error":
		return zap.ErrorLevel
	default:
		return zap.InfoLevel
	}
}

// Init sets the level and the optional file sink and rebuilds the logger.
func Init(opts Options) {
	mu.Lock()
	defer mu.Unlock()

	logLevel.SetLevel(ParseLevel(opts.Level))

	if fileSink != nil {
		_ = fileSink.Close()
		fileSink = nil
	}

	if opts.File != "" {
		fileSink = &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    50, // megabytes
			MaxBackups: 3,
			MaxAge:     7, // days
			Compress:   true,
		}
	}

	encoderCfg = defaultEncoderConfig()
	rebuildLoggerLocked()
}

// SetWriter redirects console records to w, nil restores stderr.
func SetWriter(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()

	if w == nil {
		w = os.Stderr
	}
	consoleWriter = zapcore.Lock(zapcore.AddSync(w))

	rebuildLoggerLocked()
}

// Close flushes the logger and closes the file sink.
func Close() error {
	mu.Lock()
	defer mu.Unlock()

	if log != nil {
		_ = log.Sync()
	}

	if fileSink == nil {
		return nil
	}

	err := fileSink.Close()
	fileSink = nil
	rebuildLoggerLocked()

	return err
}

// Logger returns the global logger, building it on first use.
func Logger() *zap.Logger {
	mu.Lock()
	defer mu.Unlock()

	if log == nil {
		rebuildLoggerLocked()
	}
	return log
}

func IsDebugEnabled() bool {
	return logLevel.Enabled(zap.DebugLevel)
}

func Debug(msg string, fields ...zap.Field) { Logger().Debug(msg, fields...) }

func Info(msg string, fields ...zap.Field) { Logger().Info(msg, fields...) }

func Warn(msg string, fields ...zap.Field) { Logger().Warn(msg, fields...) }

func Error(msg string, fields ...zap.Field) { Logger().Error(msg, fields...) }

// Infof formats with fmt.Sprintf; prefer Info with fields on hot paths.
func Infof(msg string, a ...any) { Logger().Info(fmt.Sprintf(msg, a...)) }

func Warnf(msg string, a ...any) { Logger().Warn(fmt.Sprintf(msg, a...)) }

// Named returns a child logger for direct use by other libraries, without
// the caller skip of the package helpers.
func Named(name string) *zap.Logger {
	return Logger().WithOptions(zap.AddCallerSkip(-1)).Named(name)
}

// Package log provides the package-level structured logger shared by
// avl, store, and cmd/scryptoctl.
package log

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	log      *zap.SugaredLogger
	errorLog *os.File
	// panicOnInvalidChars is set from $LOG_PANIC_ON_INVALIDCHARS.
	panicOnInvalidChars bool
)

func init() {
	level := "error"
	if s := os.Getenv("LOG_LEVEL"); s != "" {
		level = s
	}
	Init(level, "stderr")
}

// Logger returns the underlying sugared zap logger.
func Logger() *zap.SugaredLogger { return log }

// Init initializes the logger. output can be "stdout", "stderr", or a
// file path.
func Init(logLevel string, output string) {
	cfg := newConfig(logLevel, output)

	logger, err := cfg.Build()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()
	withOptions := logger.WithOptions(zap.AddCallerSkip(1))
	log = withOptions.Sugar()
	log.Infof("logger construction succeeded at level %s with output %s", logLevel, output)

	if s := os.Getenv("LOG_PANIC_ON_INVALIDCHARS"); s != "" {
		b, _ := strconv.ParseBool(s)
		panicOnInvalidChars = b
	}
}

// SetFileErrorLog, if set, additionally writes Warning and Error
// messages to path.
func SetFileErrorLog(path string) error {
	log.Infof("using file %s for logging warning and errors", path)
	var err error
	errorLog, err = os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	return err
}

func levelFromString(logLevel string) zapcore.Level {
	switch logLevel {
	case "debug":
		return zap.DebugLevel
	case "info":
		return zap.InfoLevel
	case "warn":
		return zap.WarnLevel
	case "error":
		return zap.ErrorLevel
	case "fatal":
		return zap.FatalLevel
	default:
		return zap.InfoLevel
	}
}

func newConfig(logLevel, output string) zap.Config {
	encoderCfg := zapcore.EncoderConfig{
		TimeKey:       "ts",
		LevelKey:      "level",
		CallerKey:     "caller",
		MessageKey:    "msg",
		StacktraceKey: "stacktrace",
		LineEnding:    zapcore.DefaultLineEnding,
		EncodeLevel:   zapcore.CapitalColorLevelEncoder,
		EncodeTime: func(ts time.Time, encoder zapcore.PrimitiveArrayEncoder) {
			encoder.AppendString(ts.Local().Format(time.RFC3339))
		},
		EncodeDuration: zapcore.SecondsDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}
	return zap.Config{
		Level:    zap.NewAtomicLevelAt(levelFromString(logLevel)),
		Encoding: "console",
		Sampling: &zap.SamplingConfig{
			Initial:    100,
			Thereafter: 100,
		},
		EncoderConfig:    encoderCfg,
		OutputPaths:      []string{output},
		ErrorOutputPaths: []string{output},
	}
}

func writeErrorToFile(msg string) {
	if errorLog == nil {
		return
	}
	go errorLog.WriteString(fmt.Sprintf("[%s] %s\n", time.Now().Format("2006/0102/150405"), msg))
}

// checkInvalidChars panics on a Unicode replacement char (U+FFFD) in a
// formatted log line when $LOG_PANIC_ON_INVALIDCHARS is true — usually
// a sign of a fmt verb/argument mismatch.
func checkInvalidChars(args ...interface{}) {
	if panicOnInvalidChars {
		s := fmt.Sprint(args...)
		if strings.ContainsRune(s, '�') {
			panic(fmt.Sprintf("log line with invalid chars: %s", s))
		}
	}
}

// Debug sends a debug level log message.
func Debug(args ...interface{}) {
	log.Debug(args...)
	checkInvalidChars(args...)
}

// Info sends an info level log message.
func Info(args ...interface{}) {
	log.Info(args...)
	checkInvalidChars(args...)
}

// Warn sends a warn level log message.
func Warn(args ...interface{}) {
	log.Warn(args...)
	writeErrorToFile(fmt.Sprint(args...))
	checkInvalidChars(args...)
}

// Error sends an error level log message.
func Error(args ...interface{}) {
	log.Error(args...)
	writeErrorToFile(fmt.Sprint(args...))
	checkInvalidChars(args...)
}

// Fatal sends a fatal level log message and exits the process.
func Fatal(args ...interface{}) {
	log.Fatal(args...)
	checkInvalidChars(args...)
	panic("unreachable")
}

// Fatalf sends a formatted fatal level log message and exits the
// process.
func Fatalf(template string, args ...interface{}) {
	log.Fatalf(template, args...)
	checkInvalidChars(fmt.Sprintf(template, args...))
	panic("unreachable")
}

// Debugf sends a formatted debug level log message.
func Debugf(template string, args ...interface{}) {
	log.Debugf(template, args...)
	checkInvalidChars(fmt.Sprintf(template, args...))
}

// Infof sends a formatted info level log message.
func Infof(template string, args ...interface{}) {
	log.Infof(template, args...)
	checkInvalidChars(fmt.Sprintf(template, args...))
}

// Warnf sends a formatted warn level log message.
func Warnf(template string, args ...interface{}) {
	log.Warnf(template, args...)
	writeErrorToFile(fmt.Sprintf(template, args...))
	checkInvalidChars(fmt.Sprintf(template, args...))
}

// Errorf sends a formatted error level log message.
func Errorf(template string, args ...interface{}) {
	log.Errorf(template, args...)
	writeErrorToFile(fmt.Sprintf(template, args...))
	checkInvalidChars(fmt.Sprintf(template, args...))
}

// Debugw sends a key-value formatted debug level log message.
func Debugw(msg string, keysAndValues ...interface{}) {
	log.Debugw(msg, keysAndValues...)
}

// Infow sends a key-value formatted info level log message.
func Infow(msg string, keysAndValues ...interface{}) {
	log.Infow(msg, keysAndValues...)
}

// Warnw sends a key-value formatted warn level log message.
func Warnw(msg string, keysAndValues ...interface{}) {
	log.Warnw(msg, keysAndValues...)
}

// Errorw sends a key-value formatted error level log message.
func Errorw(msg string, keysAndValues ...interface{}) {
	log.Errorw(msg, keysAndValues...)
}

// Fatalw sends a key-value formatted fatal level log message and exits
// the process.
func Fatalw(msg string, keysAndValues ...interface{}) {
	log.Fatalw(msg, keysAndValues...)
	panic("unreachable")
}

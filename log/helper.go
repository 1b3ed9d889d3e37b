// Package log provides a unified logging interface for the libloot library.
// It wraps the Kratos logging system and provides convenient methods for
// different log levels; hosts install their own logger via SetLogger.
package log

import (
	"fmt"
	"os"
	"sync/atomic"
	"time"

	"github.com/go-kratos/kratos/v2/log"
)

// Level represents the logging level.
type Level int32

const (
	// DebugLevel logs are typically voluminous, and are usually disabled in production.
	DebugLevel Level = iota
	// InfoLevel is the default logging priority.
	InfoLevel
	// WarnLevel logs are more important than Info, but don't need individual human review.
	WarnLevel
	// ErrorLevel logs are high-priority. If the library is running smoothly,
	// it shouldn't generate any error-level logs.
	ErrorLevel
)

var (
	// helperStore stores *log.Helper atomically for safe hot-swap updates.
	helperStore atomic.Value // of *log.Helper

	// baseStore keeps the unfiltered logger so level changes can rebuild
	// the filter. The logger is boxed so atomic.Value sees one concrete
	// type whatever the host installs.
	baseStore atomic.Value // of loggerBox

	// minLevel is the current minimum level applied via a Kratos filter.
	minLevel atomic.Int32
)

type loggerBox struct {
	logger log.Logger
}

// SetLogger installs the host application's logger. Passing nil uninstalls
// it and reverts to the stderr fallback.
func SetLogger(logger log.Logger) {
	if logger == nil {
		helperStore.Store((*log.Helper)(nil))
		baseStore.Store(loggerBox{})
		return
	}
	baseStore.Store(loggerBox{logger: logger})
	filtered := log.NewFilter(logger, log.FilterLevel(kratosLevel(Level(minLevel.Load()))))
	helperStore.Store(log.NewHelper(filtered))
}

// SetLevel sets the global logging level and rebuilds the installed logger's
// filter. The fallback logger honours the level directly.
func SetLevel(level Level) {
	minLevel.Store(int32(level))
	if v := baseStore.Load(); v != nil {
		if box, ok := v.(loggerBox); ok && box.logger != nil && helper() != nil {
			helperStore.Store(log.NewHelper(log.NewFilter(box.logger, log.FilterLevel(kratosLevel(level)))))
		}
	}
}

func kratosLevel(level Level) log.Level {
	switch level {
	case DebugLevel:
		return log.LevelDebug
	case InfoLevel:
		return log.LevelInfo
	case WarnLevel:
		return log.LevelWarn
	case ErrorLevel:
		return log.LevelError
	default:
		return log.LevelInfo
	}
}

// helper returns the installed log helper, or nil when none is installed.
func helper() *log.Helper {
	if v := helperStore.Load(); v != nil {
		if h, ok := v.(*log.Helper); ok && h != nil {
			return h
		}
	}
	return nil
}

// fallbackLogger writes timestamped lines to stderr when no logger is installed.
type fallbackLogger struct{}

func (f *fallbackLogger) logFormat(level, format string, args ...any) {
	if Level(minLevel.Load()) > fallbackThreshold(level) {
		return
	}
	timestamp := time.Now().Format("2006-01-02 15:04:05.000")
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintf(os.Stderr, "[%s] [%s] [libloot] %s\n", timestamp, level, msg)
}

func fallbackThreshold(level string) Level {
	switch level {
	case "DEBUG":
		return DebugLevel
	case "INFO":
		return InfoLevel
	case "WARN":
		return WarnLevel
	default:
		return ErrorLevel
	}
}

var fallback = &fallbackLogger{}

// Debug uses the log helper to record debug-level log information.
func Debug(a ...any) {
	if h := helper(); h != nil {
		h.Debug(a...)
	} else {
		fallback.logFormat("DEBUG", "%s", fmt.Sprint(a...))
	}
}

// Debugf uses the log helper to record formatted debug-level log information.
func Debugf(format string, a ...any) {
	if h := helper(); h != nil {
		h.Debugf(format, a...)
	} else {
		fallback.logFormat("DEBUG", format, a...)
	}
}

// Info uses the log helper to record info-level log information.
func Info(a ...any) {
	if h := helper(); h != nil {
		h.Info(a...)
	} else {
		fallback.logFormat("INFO", "%s", fmt.Sprint(a...))
	}
}

// Infof uses the log helper to record formatted info-level log information.
func Infof(format string, a ...any) {
	if h := helper(); h != nil {
		h.Infof(format, a...)
	} else {
		fallback.logFormat("INFO", format, a...)
	}
}

// Warn uses the log helper to record warn-level log information.
func Warn(a ...any) {
	if h := helper(); h != nil {
		h.Warn(a...)
	} else {
		fallback.logFormat("WARN", "%s", fmt.Sprint(a...))
	}
}

// Warnf uses the log helper to record formatted warn-level log information.
func Warnf(format string, a ...any) {
	if h := helper(); h != nil {
		h.Warnf(format, a...)
	} else {
		fallback.logFormat("WARN", format, a...)
	}
}

// Error uses the log helper to record error-level log information.
func Error(a ...any) {
	if h := helper(); h != nil {
		h.Error(a...)
	} else {
		fallback.logFormat("ERROR", "%s", fmt.Sprint(a...))
	}
}

// Errorf uses the log helper to record formatted error-level log information.
func Errorf(format string, a ...any) {
	if h := helper(); h != nil {
		h.Errorf(format, a...)
	} else {
		fallback.logFormat("ERROR", format, a...)
	}
}

package utils

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"sync/atomic"
)

// Level - уровень логирования
type Level int32

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

// ParseLevel разбирает LOG_LEVEL, неизвестное значение даёт info
func ParseLevel(s string) Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

// Logger с уровнями debug, info, warn и error
type Logger struct {
	level atomic.Int32
	debug *log.Logger
	info  *log.Logger
	warn  *log.Logger
	error *log.Logger
}

// Создаём глобальный экземпляр
var Log = NewLogger(os.Stdout, os.Stderr)

func NewLogger(out, errOut io.Writer) *Logger {
	flags := log.Ldate | log.Ltime | log.Lshortfile
	l := &Logger{
		debug: log.New(out, "DEBUG: ", flags),
		info:  log.New(out, "INFO: ", flags),
		warn:  log.New(errOut, "WARN: ", flags),
		error: log.New(errOut, "ERROR: ", flags),
	}
	l.level.Store(int32(LevelInfo))
	return l
}

// SetLevel меняет минимальный уровень
func (l *Logger) SetLevel(level Level) {
	l.level.Store(int32(level))
}

func (l *Logger) enabled(level Level) bool {
	return Level(l.level.Load()) <= level
}

// calldepth 3: Output <- write <- Info/Infof <- caller
func (l *Logger) write(level Level, target *log.Logger, msg string) {
	if !l.enabled(level) {
		return
	}
	_ = target.Output(3, msg)
}

func (l *Logger) Debug(msg string) { l.write(LevelDebug, l.debug, msg) }

func (l *Logger) Info(msg string) { l.write(LevelInfo, l.info, msg) }

func (l *Logger) Warn(msg string) { l.write(LevelWarn, l.warn, msg) }

func (l *Logger) Error(msg string) { l.write(LevelError, l.error, msg) }

func (l *Logger) Debugf(format string, args ...any) {
	l.write(LevelDebug, l.debug, fmt.Sprintf(format, args...))
}

func (l *Logger) Infof(format string, args ...any) {
	l.write(LevelInfo, l.info, fmt.Sprintf(format, args...))
}

func (l *Logger) Warnf(format string, args ...any) {
	l.write(LevelWarn, l.warn, fmt.Sprintf(format, args...))
}

func (l *Logger) Errorf(format string, args ...any) {
	l.write(LevelError, l.error, fmt.Sprintf(format, args...))
}

package log

import (
	"strings"
	"time"

	"go.uber.org/zap"
)

// Log is the logging facade used across the engine. Implementations must be
// safe for concurrent use.
type Log interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)
	Fatal(msg string, fields ...Field)

	With(fields ...Field) Log
}

type Level uint8

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
	LevelFatal
)

// ParseLevel maps a level name to a Level. Unknown names fall back to info.
func ParseLevel(s string) Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug
	case "info":
		return LevelInfo
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	case "fatal":
		return LevelFatal
	default:
		return LevelInfo
	}
}

// Field is a structured log attribute.
type Field = zap.Field

func Any(key string, val any) Field              { return zap.Any(key, val) }
func Bool(key string, val bool) Field            { return zap.Bool(key, val) }
func Duration(key string, d time.Duration) Field { return zap.Duration(key, d) }
func Float64(key string, val float64) Field      { return zap.Float64(key, val) }
func Int(key string, val int) Field              { return zap.Int(key, val) }
func Int64(key string, val int64) Field          { return zap.Int64(key, val) }
func String(key, val string) Field               { return zap.String(key, val) }
func Time(key string, t time.Time) Field         { return zap.Time(key, t) }
func Uint64(key string, val uint64) Field        { return zap.Uint64(key, val) }
func Err(err error) Field                        { return zap.Error(err) }

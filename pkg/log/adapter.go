// Package log wires zap into the Kratos log.Logger interface for SnakeKeeper.
// Credential-bearing fields are masked before they reach any sink.
package log

import (
	"fmt"

	"github.com/go-kratos/kratos/v2/log"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// KratosAdapter adapts a zap logger to log.Logger.
type KratosAdapter struct {
	zapLogger *zap.Logger
}

// NewKratosAdapter wraps zapLogger. Caller frames added by Kratos helpers are skipped.
func NewKratosAdapter(zapLogger *zap.Logger) log.Logger {
	return &KratosAdapter{zapLogger: zapLogger.WithOptions(zap.AddCallerSkip(2))}
}

// Log implements log.Logger. A "msg" pair becomes the entry message; the
// remaining pairs become fields, string values sanitized by key.
func (a *KratosAdapter) Log(level log.Level, keyvals ...interface{}) error {
	if len(keyvals) == 0 {
		return nil
	}

	var msg string
	fields := make([]zap.Field, 0, len(keyvals)/2)
	for i := 0; i < len(keyvals); i += 2 {
		key := fmt.Sprint(keyvals[i])
		if i+1 >= len(keyvals) {
			fields = append(fields, zap.Any(key, "KEYVALS UNPAIRED"))
			break
		}
		value := keyvals[i+1]

		if key == "msg" && msg == "" {
			msg = fmt.Sprint(value)
			continue
		}

		switch v := value.(type) {
		case string:
			fields = append(fields, zap.String(key, SanitizeField(key, v)))
		case error:
			fields = append(fields, zap.String(key, v.Error()))
		default:
			fields = append(fields, zap.Any(key, v))
		}
	}

	if ce := a.zapLogger.Check(toZapLevel(level), msg); ce != nil {
		ce.Write(fields...)
	}
	return nil
}

// Sync flushes buffered entries.
func (a *KratosAdapter) Sync() error {
	return a.zapLogger.Sync()
}

func toZapLevel(level log.Level) zapcore.Level {
	switch level {
	case log.LevelDebug:
		return zapcore.DebugLevel
	case log.LevelWarn:
		return zapcore.WarnLevel
	case log.LevelError:
		return zapcore.ErrorLevel
	case log.LevelFatal:
		return zapcore.FatalLevel
	default:
		return zapcore.InfoLevel
	}
}

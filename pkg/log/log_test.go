package log

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"SnakeKeeper/internal/conf"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func newObservedAdapter(t *testing.T) (log.Logger, *observer.ObservedLogs) {
	t.Helper()
	core, logs := observer.New(zapcore.DebugLevel)
	return NewKratosAdapter(zap.New(core)), logs
}

func TestNewZapLogger_NilConfig(t *testing.T) {
	_, err := NewZapLogger(nil)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "log config is nil")
}

func TestNewZapLogger_InvalidLevel(t *testing.T) {
	_, err := NewZapLogger(&conf.Log{Level: "loud", Format: "json"})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "invalid log level")
}

func TestNewZapLogger_FileOutput(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "snakekeeper.log")

	logger, err := NewZapLogger(&conf.Log{Level: "info", Format: "json", Env: "production", OutputFile: logFile})
	require.NoError(t, err)

	logger.Info("hello", zap.String("role_id", "123"))
	_ = logger.Sync()

	data, err := os.ReadFile(logFile)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"service":"SnakeKeeper"`)
	assert.Contains(t, string(data), `"role_id":"123"`)
}

func TestResolveEnv(t *testing.T) {
	assert.Equal(t, "development", resolveEnv("development"))

	t.Setenv("SNAKEKEEPER_ENV", "staging")
	assert.Equal(t, "staging", resolveEnv(""))

	t.Setenv("SNAKEKEEPER_ENV", "")
	assert.Equal(t, "production", resolveEnv(""))
}

func TestKratosAdapter_MessageAndSanitizedFields(t *testing.T) {
	adapter, logs := newObservedAdapter(t)

	err := adapter.Log(log.LevelWarn,
		"msg", "login ok",
		"authKey", "abcdefghijklmnop",
		"signDay", "3",
		"err", errors.New("boom"),
		"count", 2,
	)
	require.NoError(t, err)

	entries := logs.All()
	require.Len(t, entries, 1)
	entry := entries[0]
	assert.Equal(t, "login ok", entry.Message)
	assert.Equal(t, zapcore.WarnLevel, entry.Level)

	fields := entry.ContextMap()
	assert.Equal(t, "abcd********mnop", fields["authKey"])
	assert.Equal(t, "3", fields["signDay"])
	assert.Equal(t, "boom", fields["err"])
	assert.EqualValues(t, 2, fields["count"])
	_, hasMsg := fields["msg"]
	assert.False(t, hasMsg)
}

func TestKratosAdapter_EmptyAndUnpaired(t *testing.T) {
	adapter, logs := newObservedAdapter(t)

	assert.NoError(t, adapter.Log(log.LevelInfo))
	assert.Equal(t, 0, logs.Len())

	assert.NoError(t, adapter.Log(log.LevelInfo, "msg", "x", "dangling"))
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "KEYVALS UNPAIRED", logs.All()[0].ContextMap()["dangling"])
}

func TestSanitizeField(t *testing.T) {
	tests := []struct {
		key, value, want string
	}{
		{"authKey", "0123456789", "0123**6789"},
		{"openKey", "abc", "a*c"},
		{"sign", "ab", "**"},
		{"Sign", "abcdef", "a****f"},
		{"signDay", "5", "5"},
		{"sign_in", "done", "done"},
		{"ACCOUNTS_ENCRYPTION_KEY", "0123456789abcdef", "0123********cdef"},
		{"note", "小号", "小号"},
		{"authKey", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.key+"/"+tt.value, func(t *testing.T) {
			assert.Equal(t, tt.want, SanitizeField(tt.key, tt.value))
		})
	}
}

func TestEmojiConsoleEncoder(t *testing.T) {
	enc := NewEmojiConsoleEncoder(zapcore.EncoderConfig{MessageKey: "msg", LineEnding: "\n"})

	buf, err := enc.EncodeEntry(zapcore.Entry{Level: zapcore.InfoLevel, Message: "mark created"},
		[]zapcore.Field{zap.String("type", "marker")})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(buf.String(), "🧯 mark created"))

	buf, err = enc.Clone().EncodeEntry(zapcore.Entry{Level: zapcore.ErrorLevel, Message: "failed"}, nil)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(buf.String(), "❌ failed"))

	buf, err = enc.EncodeEntry(zapcore.Entry{Level: zapcore.WarnLevel, Message: "odd"},
		[]zapcore.Field{zap.String("type", "unknown")})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(buf.String(), "⚠️ odd"))
}

func TestRunContext(t *testing.T) {
	assert.Equal(t, "unknown", GetRunID(context.Background()))
	assert.Zero(t, GetElapsedTime(context.Background()))

	ctx := WithRunContext(context.Background(), "daily")
	runID := GetRunID(ctx)
	assert.Len(t, runID, 36)

	accCtx := WithAccount(ctx, "10001", "main")
	assert.Equal(t, runID, GetRunID(accCtx))
	assert.Equal(t, "10001", GetRunContext(accCtx).RoleID)
	assert.Empty(t, GetRunContext(ctx).RoleID)

	assert.Equal(t, []interface{}{"run_id", runID, "task", "daily", "role_id", "10001", "note", "main"},
		GetRunContext(accCtx).Fields())

	time.Sleep(5 * time.Millisecond)
	assert.GreaterOrEqual(t, GetElapsedTime(ctx), int64(5))
}

func TestLogHelper_TypedMethods(t *testing.T) {
	adapter, logs := newObservedAdapter(t)
	h := NewLogHelper(adapter)

	h.Auth("session refreshed", "role_id", "1")
	h.Security("circuit breaker open")
	h.Database("query")

	entries := logs.All()
	require.Len(t, entries, 3)
	assert.Equal(t, "auth", entries[0].ContextMap()["type"])
	assert.Equal(t, "1", entries[0].ContextMap()["role_id"])
	assert.Equal(t, zapcore.WarnLevel, entries[1].Level)
	assert.Equal(t, zapcore.DebugLevel, entries[2].Level)
}

func TestLogHelper_RequestLevels(t *testing.T) {
	adapter, logs := newObservedAdapter(t)
	h := NewLogHelper(adapter)

	h.Request("GET", "/v1/marks", 200, 3)
	h.Request("DELETE", "/v1/marks/1", 404, 2)
	h.Request("POST", "/v1/runs/all", 200, slowRequestMs)
	h.Request("GET", "/v1/runs", 500, 1)

	entries := logs.All()
	require.Len(t, entries, 4)
	assert.Equal(t, "GET /v1/marks - 200 (3ms)", entries[0].Message)
	assert.Equal(t, "request", entries[0].ContextMap()["type"])
	assert.Equal(t, zapcore.InfoLevel, entries[0].Level)
	assert.Equal(t, zapcore.WarnLevel, entries[1].Level)
	assert.Equal(t, zapcore.WarnLevel, entries[2].Level)
	assert.Equal(t, zapcore.ErrorLevel, entries[3].Level)
}

func TestLogHelper_RunLifecycle(t *testing.T) {
	adapter, logs := newObservedAdapter(t)
	h := NewLogHelper(adapter)
	ctx := WithRunContext(context.Background(), "monitor")

	h.RunStarted(ctx, 2)
	h.RunFinished(ctx, 1, 1)

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Contains(t, entries[0].Message, "run started")
	assert.Equal(t, GetRunID(ctx), entries[0].ContextMap()["run_id"])
	assert.EqualValues(t, 1, entries[1].ContextMap()["failed"])
}

package log

import (
	"context"
	"fmt"

	"github.com/go-kratos/kratos/v2/log"
)

// slowRequestMs 超过该耗时的管理请求记为 WARN
const slowRequestMs = 5000

// LogHelper 扩展 Kratos log.Helper，自动附加 type 字段触发 EmojiConsoleEncoder 的映射
type LogHelper struct {
	*log.Helper
}

// NewLogHelper 创建增强的日志辅助器
func NewLogHelper(logger log.Logger) *LogHelper {
	return &LogHelper{Helper: log.NewHelper(logger)}
}

func (h *LogHelper) emit(level log.Level, logType, msg string, kvs []interface{}) {
	all := make([]interface{}, 0, len(kvs)+4)
	all = append(all, "msg", msg)
	all = append(all, kvs...)
	all = append(all, "type", logType)
	h.Log(level, all...)
}

// Auth 记录认证相关日志（🔓）
func (h *LogHelper) Auth(msg string, kvs ...interface{}) {
	h.emit(log.LevelInfo, "auth", msg, kvs)
}

// Account 记录账号相关日志（👤）
func (h *LogHelper) Account(msg string, kvs ...interface{}) {
	h.emit(log.LevelInfo, "account", msg, kvs)
}

// Scheduler 记录调度相关日志（🎯）
func (h *LogHelper) Scheduler(msg string, kvs ...interface{}) {
	h.emit(log.LevelInfo, "scheduler", msg, kvs)
}

// Notify 记录通知发送日志（📣）
func (h *LogHelper) Notify(msg string, kvs ...interface{}) {
	h.emit(log.LevelInfo, "notify", msg, kvs)
}

// Startup 记录启动日志（🚀）
func (h *LogHelper) Startup(msg string, kvs ...interface{}) {
	h.emit(log.LevelInfo, "startup", msg, kvs)
}

// Success 记录成功操作（✅）
func (h *LogHelper) Success(msg string, kvs ...interface{}) {
	h.emit(log.LevelInfo, "success", msg, kvs)
}

// Security 记录熔断、凭据失效等安全事件（🔒），WARN 级别
func (h *LogHelper) Security(msg string, kvs ...interface{}) {
	h.emit(log.LevelWarn, "security", msg, kvs)
}

// Marker 记录熔断标记的读写（🧯）
func (h *LogHelper) Marker(msg string, kvs ...interface{}) {
	h.emit(log.LevelInfo, "marker", msg, kvs)
}

// Task 记录每日任务（🎁）
func (h *LogHelper) Task(msg string, kvs ...interface{}) {
	h.emit(log.LevelInfo, "task", msg, kvs)
}

// Monitor 记录好友监控（👀）
func (h *LogHelper) Monitor(msg string, kvs ...interface{}) {
	h.emit(log.LevelInfo, "monitor", msg, kvs)
}

// Audit 记录审计事件（📋）
func (h *LogHelper) Audit(msg string, kvs ...interface{}) {
	h.emit(log.LevelInfo, "audit", msg, kvs)
}

// Database 记录数据库操作（💾），DEBUG 级别
func (h *LogHelper) Database(msg string, kvs ...interface{}) {
	h.emit(log.LevelDebug, "database", msg, kvs)
}

// Request 记录管理接口请求（🔗），根据状态码和耗时选择级别
//
//	🔗 DELETE /v1/marks/10001 - 200 (3ms) | {"request_id":"..."}
func (h *LogHelper) Request(method, path string, status int, durationMs int64, kvs ...interface{}) {
	level := log.LevelInfo
	switch {
	case status >= 500:
		level = log.LevelError
	case status >= 400 || durationMs >= slowRequestMs:
		level = log.LevelWarn
	}
	kvs = append(kvs, "method", method, "path", path, "status", status, "duration_ms", durationMs)
	h.emit(level, "request", fmt.Sprintf("%s %s - %d (%dms)", method, path, status, durationMs), kvs)
}

// ========== Context-Aware 日志方法 ==========

// RunStarted 记录批次开始，自动带上 run_id / task
func (h *LogHelper) RunStarted(ctx context.Context, accounts int) {
	rc := GetRunContext(ctx)
	kvs := append(rc.Fields(), "accounts", accounts)
	h.emit(log.LevelInfo, "scheduler", fmt.Sprintf("[%s] run started", rc.RunID), kvs)
}

// RunFinished 记录批次结束与耗时
func (h *LogHelper) RunFinished(ctx context.Context, succeeded, failed int) {
	rc := GetRunContext(ctx)
	kvs := append(rc.Fields(),
		"succeeded", succeeded,
		"failed", failed,
		"duration_ms", GetElapsedTime(ctx),
	)
	h.emit(log.LevelInfo, "scheduler", fmt.Sprintf("[%s] run finished", rc.RunID), kvs)
}

// WithContext 记录带 run 上下文的日志
func (h *LogHelper) WithContext(ctx context.Context, level log.Level, logType, msg string, kvs ...interface{}) {
	h.emit(level, logType, msg, append(GetRunContext(ctx).Fields(), kvs...))
}

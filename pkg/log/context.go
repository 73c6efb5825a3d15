package log

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type contextKey string

const runContextKey contextKey = "snakekeeper_run_context"

// RunContext 记录一次任务批次的追踪信息，随 Context 传递到 pipeline 和各个任务
type RunContext struct {
	RunID     string    // 每次批次唯一的 UUID
	Task      string    // daily / monitor / all
	RoleID    string    // 当前处理的账号
	Note      string    // 账号备注
	StartTime time.Time // 批次开始时间
}

// NewRunID returns a fresh run id.
func NewRunID() string {
	return uuid.NewString()
}

// WithRunContext starts a run for task and stores it in ctx.
func WithRunContext(ctx context.Context, task string) context.Context {
	return context.WithValue(ctx, runContextKey, &RunContext{
		RunID:     NewRunID(),
		Task:      task,
		StartTime: time.Now(),
	})
}

// WithAccount returns a child context carrying the account being processed.
// The parent run context is copied, never mutated.
func WithAccount(ctx context.Context, roleID, note string) context.Context {
	rc := *GetRunContext(ctx)
	rc.RoleID = roleID
	rc.Note = note
	return context.WithValue(ctx, runContextKey, &rc)
}

// GetRunContext 从 Context 中提取 RunContext，不存在时返回默认值，避免 nil 检查
func GetRunContext(ctx context.Context) *RunContext {
	if ctx != nil {
		if rc, ok := ctx.Value(runContextKey).(*RunContext); ok {
			return rc
		}
	}
	return &RunContext{RunID: "unknown"}
}

// GetRunID 从 Context 中提取 Run ID
func GetRunID(ctx context.Context) string {
	return GetRunContext(ctx).RunID
}

// GetElapsedTime 获取批次已执行时间（毫秒）
func GetElapsedTime(ctx context.Context) int64 {
	rc := GetRunContext(ctx)
	if rc.StartTime.IsZero() {
		return 0
	}
	return time.Since(rc.StartTime).Milliseconds()
}

// Fields returns the run context as log key/values.
func (rc *RunContext) Fields() []interface{} {
	kvs := []interface{}{"run_id", rc.RunID}
	if rc.Task != "" {
		kvs = append(kvs, "task", rc.Task)
	}
	if rc.RoleID != "" {
		kvs = append(kvs, "role_id", rc.RoleID)
	}
	if rc.Note != "" {
		kvs = append(kvs, "note", rc.Note)
	}
	return kvs
}

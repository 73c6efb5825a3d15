package biz

import (
	"context"

	"SnakeKeeper/internal/data"
	"SnakeKeeper/internal/model"
	"SnakeKeeper/pkg/game"
)

// AccountRepo defines the interface for account persistence.
type AccountRepo interface {
	LoadAll(ctx context.Context) ([]*data.Account, error)
	SaveAll(ctx context.Context, accounts []*data.Account) error
	// UpdateSession overwrites the session credentials of acc in place and
	// persists the whole store before returning.
	UpdateSession(ctx context.Context, acc *data.Account, session data.Session) error
	// Common returns the shared client parameters stored next to the accounts.
	Common() map[string]interface{}
}

// MarkerRepo defines the interface for the per-account circuit-breaker mark.
type MarkerRepo interface {
	Exists(ctx context.Context, key string) (bool, error)
	Create(ctx context.Context, key string) (created bool, err error)
	Delete(ctx context.Context, key string) error
	List(ctx context.Context) ([]*model.Mark, error)
}

// Notifier delivers operator notifications. Errors are never fatal.
type Notifier interface {
	Notify(ctx context.Context, title, body string) error
}

// AuditLogger defines the interface for audit logging
type AuditLogger interface {
	Record(ctx context.Context, event model.AuditEventType, roleID string, details map[string]interface{})
}

// Transport sends one envelope to the game backend.
type Transport interface {
	Send(ctx context.Context, env game.Envelope) (game.Response, error)
}

// Authenticator exchanges identity credentials for a fresh session.
type Authenticator interface {
	Login(ctx context.Context, acc *data.Account) error
}

// Executor runs one game request through the auth pipeline.
type Executor interface {
	Execute(ctx context.Context, msgID int, payload *game.Payload, acc *data.Account, opts ...ExecuteOption) (game.Response, error)
}

// MonitorStateRepo stores the per-target monitor state.
type MonitorStateRepo interface {
	Get(ctx context.Context, targetID int64) (data.TargetState, error)
	Save(ctx context.Context, targetID int64, st data.TargetState) error
}

// DailyRecordRepo stores one record per target and day.
type DailyRecordRepo interface {
	Upsert(ctx context.Context, targetID int64, rec data.DailyRecord) (replaced bool, err error)
}

package model

import "time"

// SessionExpiredEvent is raised when a request reports -73 and a re-login is about to run.
type SessionExpiredEvent struct {
	RoleID    string
	Note      string
	MsgID     int
	ExpiredAt time.Time
}

// AuthFatalEvent is raised when re-authentication is impossible for an account,
// either because the login failed or because a circuit-breaker mark already exists.
type AuthFatalEvent struct {
	RoleID      string
	Note        string
	Reason      string
	NewlyMarked bool // 本次新建了熔断标记（只有新建时才发通知）
	FailedAt    time.Time
}

// AuthRecoveredEvent is raised when a success reply clears an existing mark.
type AuthRecoveredEvent struct {
	RoleID      string
	Note        string
	MsgID       int
	RecoveredAt time.Time
}

// Mark is one circuit-breaker marker as seen by the operator surface.
type Mark struct {
	RoleID    string    `json:"role_id"`
	CreatedAt time.Time `json:"created_at"`
	Backend   string    `json:"backend"`
}

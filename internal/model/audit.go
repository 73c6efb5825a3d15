package model

// AuditEventType defines the type of an auth audit record.
type AuditEventType string

// Audit event type constants
const (
	AuditEventSessionExpired  AuditEventType = "SESSION_EXPIRED"
	AuditEventReauthSucceeded AuditEventType = "REAUTH_SUCCEEDED"
	AuditEventAuthFatal       AuditEventType = "AUTH_FATAL"
	AuditEventAuthRecovered   AuditEventType = "AUTH_RECOVERED"
	AuditEventMarkCleared     AuditEventType = "MARK_CLEARED" // operator
)

// String returns the string representation of AuditEventType
func (e AuditEventType) String() string {
	return string(e)
}

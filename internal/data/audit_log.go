package data

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"SnakeKeeper/internal/model"
	pkglog "SnakeKeeper/pkg/log"

	"github.com/go-kratos/kratos/v2/log"
	"gorm.io/gorm"
)

// AuditLog is the GORM model for auth_audit_logs table
type AuditLog struct {
	ID         int64     `gorm:"primaryKey;column:id"`
	RoleID     string    `gorm:"column:role_id;size:64;not null;index"`
	ActionType string    `gorm:"column:action_type;type:varchar(50);not null"`
	RunID      string    `gorm:"column:run_id;size:36"`
	Details    string    `gorm:"column:details;type:json"` // JSON string
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime"`
}

// TableName specifies the table name for GORM
func (AuditLog) TableName() string {
	return "auth_audit_logs"
}

// AuditLoggerImpl records auth events. With MySQL configured, rows are
// written asynchronously; otherwise events only go to the log.
type AuditLoggerImpl struct {
	db      *gorm.DB
	logChan chan *AuditLog
	done    chan struct{}
	once    sync.Once
	logger  *pkglog.LogHelper
}

// NewAuditLogger creates the audit logger. The cleanup drains pending rows.
func NewAuditLogger(d *Data, logger log.Logger) (*AuditLoggerImpl, func(), error) {
	al := &AuditLoggerImpl{logger: pkglog.NewLogHelper(logger)}

	if d != nil && d.DB() != nil {
		if err := d.DB().AutoMigrate(&AuditLog{}); err != nil {
			return nil, func() {}, fmt.Errorf("failed to migrate auth_audit_logs: %w", err)
		}
		al.db = d.DB()
		al.logChan = make(chan *AuditLog, 256)
		al.done = make(chan struct{})
		go al.start()
	}

	return al, al.Close, nil
}

func (a *AuditLoggerImpl) start() {
	defer close(a.done)
	for event := range a.logChan {
		if err := a.db.WithContext(context.Background()).Create(event).Error; err != nil {
			a.logger.Errorw("msg", "failed to write audit log",
				"role_id", event.RoleID,
				"action_type", event.ActionType,
				"error", err)
		}
	}
}

// Record queues one audit event. It never blocks the caller.
func (a *AuditLoggerImpl) Record(ctx context.Context, event model.AuditEventType, roleID string, details map[string]interface{}) {
	detailsJSON, err := json.Marshal(details)
	if err != nil {
		a.logger.Errorw("msg", "failed to marshal audit log details", "error", err)
		return
	}

	runID := pkglog.GetRunID(ctx)
	a.logger.Audit(event.String(), "role_id", roleID, "run_id", runID, "details", string(detailsJSON))

	if a.logChan == nil {
		return
	}

	row := &AuditLog{
		RoleID:     roleID,
		ActionType: event.String(),
		RunID:      runID,
		Details:    string(detailsJSON),
	}

	defer func() {
		// Close 之后的 Record 只落日志
		if recover() != nil {
			a.logger.Warnw("msg", "audit logger closed, dropping event", "action_type", row.ActionType)
		}
	}()
	select {
	case a.logChan <- row:
	default:
		a.logger.Warnw("msg", "audit log channel full, dropping event",
			"role_id", roleID,
			"action_type", row.ActionType)
	}
}

// Close stops the writer after the queued rows are flushed.
func (a *AuditLoggerImpl) Close() {
	a.once.Do(func() {
		if a.logChan == nil {
			return
		}
		close(a.logChan)
		<-a.done
	})
}

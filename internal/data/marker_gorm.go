package data

import (
	"context"
	"fmt"
	"time"

	"SnakeKeeper/internal/model"
	pkgerrors "SnakeKeeper/pkg/errors"

	"gorm.io/gorm"
)

// AuthFailureMark is the GORM model for auth_failure_marks table.
type AuthFailureMark struct {
	RoleID    string    `gorm:"primaryKey;column:role_id;size:64"`
	CreatedAt time.Time `gorm:"column:created_at;not null"`
}

// TableName specifies the table name for GORM.
func (AuthFailureMark) TableName() string {
	return "auth_failure_marks"
}

// GormMarkerStore keeps marks in MySQL. The primary key makes Create idempotent.
type GormMarkerStore struct {
	db  *gorm.DB
	now func() time.Time
}

// NewGormMarkerStore migrates the table and creates the store.
func NewGormMarkerStore(db *gorm.DB) (*GormMarkerStore, error) {
	if err := db.AutoMigrate(&AuthFailureMark{}); err != nil {
		return nil, fmt.Errorf("failed to migrate auth_failure_marks: %w", err)
	}
	return &GormMarkerStore{db: db, now: time.Now}, nil
}

// Exists reports whether a row exists for key.
func (s *GormMarkerStore) Exists(ctx context.Context, key string) (bool, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&AuthFailureMark{}).Where("role_id = ?", key).Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to query mark: %w", err)
	}
	return count > 0, nil
}

// Create inserts the row; a duplicate key means the mark already exists.
func (s *GormMarkerStore) Create(ctx context.Context, key string) (bool, error) {
	err := s.db.WithContext(ctx).Create(&AuthFailureMark{RoleID: key, CreatedAt: s.now()}).Error
	if err == nil {
		return true, nil
	}
	if pkgerrors.IsDuplicateKeyError(err) {
		return false, nil
	}
	return false, fmt.Errorf("failed to insert mark: %w", pkgerrors.ClassifyDBError(err))
}

// Delete removes the row for key.
func (s *GormMarkerStore) Delete(ctx context.Context, key string) error {
	if err := s.db.WithContext(ctx).Where("role_id = ?", key).Delete(&AuthFailureMark{}).Error; err != nil {
		return fmt.Errorf("failed to delete mark: %w", err)
	}
	return nil
}

// List returns all marks, oldest first.
func (s *GormMarkerStore) List(ctx context.Context) ([]*model.Mark, error) {
	var rows []AuthFailureMark
	if err := s.db.WithContext(ctx).Order("created_at ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list marks: %w", err)
	}

	marks := make([]*model.Mark, 0, len(rows))
	for _, row := range rows {
		marks = append(marks, &model.Mark{RoleID: row.RoleID, CreatedAt: row.CreatedAt, Backend: MarkerDriverMySQL})
	}
	return marks, nil
}

package repository

import (
	"context"
	"time"

	"autoflow/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AuditFilter narrows the audit-trail listing.
type AuditFilter struct {
	Search     string
	Action     string
	EntityType string
	EntityID   uuid.UUID
	UserID     uuid.UUID
	DateFrom   *time.Time
	DateTo     *time.Time
}

type AuditRepository interface {
	Append(ctx context.Context, entry *model.AuditLog) error
	List(ctx context.Context, filter AuditFilter, page, limit int) ([]model.AuditLog, int64, error)
}

type auditRepository struct {
	db *gorm.DB
}

func NewAuditRepository(db *gorm.DB) AuditRepository {
	return &auditRepository{db: db}
}

func (r *auditRepository) Append(ctx context.Context, entry *model.AuditLog) error {
	return GetDB(ctx, r.db).Create(entry).Error
}

func (r *auditRepository) List(ctx context.Context, filter AuditFilter, page, limit int) ([]model.AuditLog, int64, error) {
	var entries []model.AuditLog
	var total int64

	db := GetDB(ctx, r.db).Model(&model.AuditLog{})
	if filter.Search != "" {
		db = db.Where("summary LIKE ?", "%"+filter.Search+"%")
	}
	if filter.Action != "" {
		db = db.Where("action = ?", filter.Action)
	}
	if filter.EntityType != "" {
		db = db.Where("entity_type = ?", filter.EntityType)
	}
	if filter.EntityID != uuid.Nil {
		db = db.Where("entity_id = ?", filter.EntityID)
	}
	if filter.UserID != uuid.Nil {
		db = db.Where("user_id = ?", filter.UserID)
	}
	if filter.DateFrom != nil {
		db = db.Where("created_at >= ?", *filter.DateFrom)
	}
	if filter.DateTo != nil {
		db = db.Where("created_at <= ?", *filter.DateTo)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := db.Preload("User").
		Order("created_at DESC").
		Offset(offset).Limit(limit).
		Find(&entries).Error; err != nil {
		return nil, 0, err
	}

	return entries, total, nil
}

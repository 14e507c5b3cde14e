package repository

import (
	"context"

	"autoflow/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AlertFilter narrows the alert listing.
type AlertFilter struct {
	Status    string
	AlertType string
}

type AlertRepository interface {
	Create(ctx context.Context, alert *model.Alert) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Alert, error)
	List(ctx context.Context, filter AlertFilter, page, limit int) ([]model.Alert, int64, error)
	ListOpen(ctx context.Context) ([]model.Alert, error)
	CountOpen(ctx context.Context) (int64, error)

	// FindOpen looks up an open alert for the (entity, type) pair so the
	// sweep can insert-if-absent instead of duplicating.
	FindOpen(ctx context.Context, entityType string, entityID uuid.UUID, alertType string) (*model.Alert, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) error
	DeleteByEntity(ctx context.Context, entityType string, entityID uuid.UUID) error
}

type alertRepository struct {
	db *gorm.DB
}

func NewAlertRepository(db *gorm.DB) AlertRepository {
	return &alertRepository{db: db}
}

func (r *alertRepository) Create(ctx context.Context, alert *model.Alert) error {
	return GetDB(ctx, r.db).Create(alert).Error
}

func (r *alertRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Alert, error) {
	var alert model.Alert
	if err := GetDB(ctx, r.db).First(&alert, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &alert, nil
}

func (r *alertRepository) List(ctx context.Context, filter AlertFilter, page, limit int) ([]model.Alert, int64, error) {
	var alerts []model.Alert
	var total int64

	db := GetDB(ctx, r.db).Model(&model.Alert{})
	if filter.Status != "" {
		db = db.Where("status = ?", filter.Status)
	}
	if filter.AlertType != "" {
		db = db.Where("alert_type = ?", filter.AlertType)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := db.Order("due_date ASC, created_at DESC").
		Offset(offset).Limit(limit).
		Find(&alerts).Error; err != nil {
		return nil, 0, err
	}

	return alerts, total, nil
}

func (r *alertRepository) ListOpen(ctx context.Context) ([]model.Alert, error) {
	var alerts []model.Alert
	err := GetDB(ctx, r.db).Where("status = ?", model.AlertStatusOpen).
		Order("due_date ASC").Find(&alerts).Error
	if err != nil {
		return nil, err
	}
	return alerts, nil
}

func (r *alertRepository) CountOpen(ctx context.Context) (int64, error) {
	var total int64
	err := GetDB(ctx, r.db).Model(&model.Alert{}).
		Where("status = ?", model.AlertStatusOpen).Count(&total).Error
	return total, err
}

func (r *alertRepository) FindOpen(ctx context.Context, entityType string, entityID uuid.UUID, alertType string) (*model.Alert, error) {
	var alert model.Alert
	err := GetDB(ctx, r.db).
		Where("entity_type = ? AND entity_id = ? AND alert_type = ? AND status = ?",
			entityType, entityID, alertType, model.AlertStatusOpen).
		First(&alert).Error
	if err != nil {
		return nil, err
	}
	return &alert, nil
}

func (r *alertRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	return GetDB(ctx, r.db).Model(&model.Alert{}).Where("id = ?", id).Update("status", status).Error
}

func (r *alertRepository) DeleteByEntity(ctx context.Context, entityType string, entityID uuid.UUID) error {
	return GetDB(ctx, r.db).Delete(&model.Alert{}, "entity_type = ? AND entity_id = ?", entityType, entityID).Error
}

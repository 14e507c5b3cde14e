package repository

import (
	"context"
	"time"

	"autoflow/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ObligationFilter narrows the obligation listing.
type ObligationFilter struct {
	Status    string
	Type      string
	VehicleID uuid.UUID
	DueBefore *time.Time
}

// ObligationSummary aggregates outstanding obligations for the list header.
type ObligationSummary struct {
	PendingCount  int64  `json:"pending_count"`
	OverdueCount  int64  `json:"overdue_count"`
	PaidCount     int64  `json:"paid_count"`
	PendingAmount string `json:"pending_amount"`
}

type ObligationRepository interface {
	Create(ctx context.Context, obligation *model.VehicleObligation) error
	Update(ctx context.Context, obligation *model.VehicleObligation) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.VehicleObligation, error)
	List(ctx context.Context, filter ObligationFilter, page, limit int) ([]model.VehicleObligation, int64, error)
	ListByVehicle(ctx context.Context, vehicleID uuid.UUID) ([]model.VehicleObligation, error)
	Delete(ctx context.Context, id uuid.UUID) error
	DeleteByVehicle(ctx context.Context, vehicleID uuid.UUID) error

	// ListDue returns unpaid obligations due on or before the horizon,
	// soonest first. The alert sweep walks this set.
	ListDue(ctx context.Context, horizon time.Time) ([]model.VehicleObligation, error)
	Summary(ctx context.Context) (ObligationSummary, error)
}

type obligationRepository struct {
	db *gorm.DB
}

func NewObligationRepository(db *gorm.DB) ObligationRepository {
	return &obligationRepository{db: db}
}

func (r *obligationRepository) Create(ctx context.Context, obligation *model.VehicleObligation) error {
	return GetDB(ctx, r.db).Create(obligation).Error
}

func (r *obligationRepository) Update(ctx context.Context, obligation *model.VehicleObligation) error {
	return GetDB(ctx, r.db).Save(obligation).Error
}

func (r *obligationRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.VehicleObligation, error) {
	var obligation model.VehicleObligation
	if err := GetDB(ctx, r.db).Preload("Vehicle").First(&obligation, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &obligation, nil
}

func (r *obligationRepository) List(ctx context.Context, filter ObligationFilter, page, limit int) ([]model.VehicleObligation, int64, error) {
	var obligations []model.VehicleObligation
	var total int64

	db := GetDB(ctx, r.db).Model(&model.VehicleObligation{})
	if filter.Status != "" {
		db = db.Where("status = ?", filter.Status)
	}
	if filter.Type != "" {
		db = db.Where("obligation_type = ?", filter.Type)
	}
	if filter.VehicleID != uuid.Nil {
		db = db.Where("vehicle_id = ?", filter.VehicleID)
	}
	if filter.DueBefore != nil {
		db = db.Where("due_date <= ?", *filter.DueBefore)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := db.Preload("Vehicle").
		Order("due_date ASC").
		Offset(offset).Limit(limit).
		Find(&obligations).Error; err != nil {
		return nil, 0, err
	}

	return obligations, total, nil
}

func (r *obligationRepository) ListByVehicle(ctx context.Context, vehicleID uuid.UUID) ([]model.VehicleObligation, error) {
	var obligations []model.VehicleObligation
	err := GetDB(ctx, r.db).Where("vehicle_id = ?", vehicleID).
		Order("due_date ASC").Find(&obligations).Error
	if err != nil {
		return nil, err
	}
	return obligations, nil
}

func (r *obligationRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return GetDB(ctx, r.db).Delete(&model.VehicleObligation{}, "id = ?", id).Error
}

func (r *obligationRepository) DeleteByVehicle(ctx context.Context, vehicleID uuid.UUID) error {
	return GetDB(ctx, r.db).Delete(&model.VehicleObligation{}, "vehicle_id = ?", vehicleID).Error
}

func (r *obligationRepository) ListDue(ctx context.Context, horizon time.Time) ([]model.VehicleObligation, error) {
	var obligations []model.VehicleObligation
	err := GetDB(ctx, r.db).Preload("Vehicle").
		Where("status IN ?", []string{model.ObligationStatusPending, model.ObligationStatusOverdue}).
		Where("due_date <= ?", horizon).
		Order("due_date ASC").
		Find(&obligations).Error
	if err != nil {
		return nil, err
	}
	return obligations, nil
}

func (r *obligationRepository) Summary(ctx context.Context) (ObligationSummary, error) {
	var rows []struct {
		Status string
		Total  int64
	}
	db := GetDB(ctx, r.db)
	err := db.Model(&model.VehicleObligation{}).
		Select("status, COUNT(*) as total").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return ObligationSummary{}, err
	}

	var summary ObligationSummary
	for _, row := range rows {
		switch row.Status {
		case model.ObligationStatusPending:
			summary.PendingCount = row.Total
		case model.ObligationStatusOverdue:
			summary.OverdueCount = row.Total
		case model.ObligationStatusPaid:
			summary.PaidCount = row.Total
		}
	}

	var amount struct {
		Total string
	}
	err = db.Model(&model.VehicleObligation{}).
		Select("COALESCE(CAST(SUM(amount) AS TEXT), '0') as total").
		Where("status IN ?", []string{model.ObligationStatusPending, model.ObligationStatusOverdue}).
		Scan(&amount).Error
	if err != nil {
		return ObligationSummary{}, err
	}
	summary.PendingAmount = amount.Total

	return summary, nil
}

package repository

import (
	"context"
	"time"

	"autoflow/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PlanFilter narrows the maintenance-plan listing.
type PlanFilter struct {
	VehicleID uuid.UUID
	IsActive  *bool
}

// NextServiceAggregate is the MIN projection across a vehicle's active plans.
type NextServiceAggregate struct {
	NextDate *time.Time
	NextKm   *int
}

type PlanRepository interface {
	Create(ctx context.Context, plan *model.MaintenancePlan) error
	Update(ctx context.Context, plan *model.MaintenancePlan) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.MaintenancePlan, error)
	List(ctx context.Context, filter PlanFilter, page, limit int) ([]model.MaintenancePlan, int64, error)
	ListByVehicle(ctx context.Context, vehicleID uuid.UUID) ([]model.MaintenancePlan, error)
	Delete(ctx context.Context, id uuid.UUID) error
	DeleteByVehicle(ctx context.Context, vehicleID uuid.UUID) error

	// FindActiveByService returns the most recently created active plan for
	// the (vehicle, service type) pair, or gorm.ErrRecordNotFound.
	FindActiveByService(ctx context.Context, vehicleID uuid.UUID, serviceType string) (*model.MaintenancePlan, error)
	AggregateNextService(ctx context.Context, vehicleID uuid.UUID) (NextServiceAggregate, error)
}

type planRepository struct {
	db *gorm.DB
}

func NewPlanRepository(db *gorm.DB) PlanRepository {
	return &planRepository{db: db}
}

func (r *planRepository) Create(ctx context.Context, plan *model.MaintenancePlan) error {
	return GetDB(ctx, r.db).Create(plan).Error
}

func (r *planRepository) Update(ctx context.Context, plan *model.MaintenancePlan) error {
	return GetDB(ctx, r.db).Save(plan).Error
}

func (r *planRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.MaintenancePlan, error) {
	var plan model.MaintenancePlan
	if err := GetDB(ctx, r.db).Preload("Vehicle").First(&plan, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &plan, nil
}

func (r *planRepository) List(ctx context.Context, filter PlanFilter, page, limit int) ([]model.MaintenancePlan, int64, error) {
	var plans []model.MaintenancePlan
	var total int64

	db := GetDB(ctx, r.db).Model(&model.MaintenancePlan{})
	if filter.VehicleID != uuid.Nil {
		db = db.Where("vehicle_id = ?", filter.VehicleID)
	}
	if filter.IsActive != nil {
		db = db.Where("is_active = ?", *filter.IsActive)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := db.Preload("Vehicle").
		Order("created_at DESC").
		Offset(offset).Limit(limit).
		Find(&plans).Error; err != nil {
		return nil, 0, err
	}

	return plans, total, nil
}

func (r *planRepository) ListByVehicle(ctx context.Context, vehicleID uuid.UUID) ([]model.MaintenancePlan, error) {
	var plans []model.MaintenancePlan
	err := GetDB(ctx, r.db).Where("vehicle_id = ?", vehicleID).
		Order("created_at DESC").Find(&plans).Error
	if err != nil {
		return nil, err
	}
	return plans, nil
}

func (r *planRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return GetDB(ctx, r.db).Delete(&model.MaintenancePlan{}, "id = ?", id).Error
}

func (r *planRepository) DeleteByVehicle(ctx context.Context, vehicleID uuid.UUID) error {
	return GetDB(ctx, r.db).Delete(&model.MaintenancePlan{}, "vehicle_id = ?", vehicleID).Error
}

func (r *planRepository) FindActiveByService(ctx context.Context, vehicleID uuid.UUID, serviceType string) (*model.MaintenancePlan, error) {
	var plan model.MaintenancePlan
	err := GetDB(ctx, r.db).
		Where("vehicle_id = ? AND service_type = ? AND is_active = ?", vehicleID, serviceType, true).
		Order("created_at DESC").
		First(&plan).Error
	if err != nil {
		return nil, err
	}
	return &plan, nil
}

func (r *planRepository) AggregateNextService(ctx context.Context, vehicleID uuid.UUID) (NextServiceAggregate, error) {
	var row struct {
		NextDate string
		NextKm   *int
	}
	// MIN() strips the column's date type on sqlite, so the date comes back
	// as text and is parsed here.
	err := GetDB(ctx, r.db).Model(&model.MaintenancePlan{}).
		Select("COALESCE(CAST(MIN(next_service_date) AS TEXT), '') as next_date, MIN(next_service_km) as next_km").
		Where("vehicle_id = ? AND is_active = ?", vehicleID, true).
		Scan(&row).Error
	if err != nil {
		return NextServiceAggregate{}, err
	}
	return NextServiceAggregate{NextDate: parseDateColumn(row.NextDate), NextKm: row.NextKm}, nil
}

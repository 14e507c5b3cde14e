package repository

import (
	"context"
	"time"

	"autoflow/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// MaintenanceFilter narrows the maintenance-record listing.
type MaintenanceFilter struct {
	Search    string
	Status    string
	VehicleID uuid.UUID
	DateFrom  *time.Time
	DateTo    *time.Time
}

type MaintenanceRepository interface {
	Create(ctx context.Context, record *model.MaintenanceRecord) error
	Update(ctx context.Context, record *model.MaintenanceRecord) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.MaintenanceRecord, error)
	List(ctx context.Context, filter MaintenanceFilter, page, limit int) ([]model.MaintenanceRecord, int64, error)
	ListByVehicle(ctx context.Context, vehicleID uuid.UUID) ([]model.MaintenanceRecord, error)
	Delete(ctx context.Context, id uuid.UUID) error
	DeleteByVehicle(ctx context.Context, vehicleID uuid.UUID) error

	Upcoming(ctx context.Context, limit int) ([]model.MaintenanceRecord, error)
	CountOverdue(ctx context.Context, today time.Time) (int64, error)
	SumCostSince(ctx context.Context, since time.Time) (string, error)
}

type maintenanceRepository struct {
	db *gorm.DB
}

func NewMaintenanceRepository(db *gorm.DB) MaintenanceRepository {
	return &maintenanceRepository{db: db}
}

func (r *maintenanceRepository) Create(ctx context.Context, record *model.MaintenanceRecord) error {
	return GetDB(ctx, r.db).Create(record).Error
}

func (r *maintenanceRepository) Update(ctx context.Context, record *model.MaintenanceRecord) error {
	return GetDB(ctx, r.db).Save(record).Error
}

func (r *maintenanceRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.MaintenanceRecord, error) {
	var record model.MaintenanceRecord
	if err := GetDB(ctx, r.db).Preload("Vehicle").First(&record, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &record, nil
}

func (r *maintenanceRepository) List(ctx context.Context, filter MaintenanceFilter, page, limit int) ([]model.MaintenanceRecord, int64, error) {
	var records []model.MaintenanceRecord
	var total int64

	db := GetDB(ctx, r.db).Model(&model.MaintenanceRecord{})
	if filter.Search != "" {
		like := "%" + filter.Search + "%"
		db = db.Joins("JOIN vehicles ON vehicles.id = maintenance_records.vehicle_id").
			Where("maintenance_records.service_type LIKE ? OR vehicles.brand LIKE ? OR vehicles.model LIKE ? OR vehicles.license_plate LIKE ?",
				like, like, like, like)
	}
	if filter.Status != "" {
		db = db.Where("maintenance_records.status = ?", filter.Status)
	}
	if filter.VehicleID != uuid.Nil {
		db = db.Where("maintenance_records.vehicle_id = ?", filter.VehicleID)
	}
	if filter.DateFrom != nil {
		db = db.Where("maintenance_records.service_date >= ?", *filter.DateFrom)
	}
	if filter.DateTo != nil {
		db = db.Where("maintenance_records.service_date <= ?", *filter.DateTo)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := db.Preload("Vehicle").
		Order("maintenance_records.service_date DESC, maintenance_records.created_at DESC").
		Offset(offset).Limit(limit).
		Find(&records).Error; err != nil {
		return nil, 0, err
	}

	return records, total, nil
}

func (r *maintenanceRepository) ListByVehicle(ctx context.Context, vehicleID uuid.UUID) ([]model.MaintenanceRecord, error) {
	var records []model.MaintenanceRecord
	err := GetDB(ctx, r.db).Where("vehicle_id = ?", vehicleID).
		Order("service_date DESC").Find(&records).Error
	if err != nil {
		return nil, err
	}
	return records, nil
}

func (r *maintenanceRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return GetDB(ctx, r.db).Delete(&model.MaintenanceRecord{}, "id = ?", id).Error
}

func (r *maintenanceRepository) DeleteByVehicle(ctx context.Context, vehicleID uuid.UUID) error {
	return GetDB(ctx, r.db).Delete(&model.MaintenanceRecord{}, "vehicle_id = ?", vehicleID).Error
}

func (r *maintenanceRepository) Upcoming(ctx context.Context, limit int) ([]model.MaintenanceRecord, error) {
	var records []model.MaintenanceRecord
	err := GetDB(ctx, r.db).Preload("Vehicle").
		Where("next_service_date IS NOT NULL").
		Order("next_service_date ASC").Limit(limit).
		Find(&records).Error
	if err != nil {
		return nil, err
	}
	return records, nil
}

func (r *maintenanceRepository) CountOverdue(ctx context.Context, today time.Time) (int64, error) {
	var total int64
	err := GetDB(ctx, r.db).Model(&model.MaintenanceRecord{}).
		Where("next_service_date IS NOT NULL AND next_service_date < ?", today).
		Count(&total).Error
	return total, err
}

func (r *maintenanceRepository) SumCostSince(ctx context.Context, since time.Time) (string, error) {
	var row struct {
		Total string
	}
	err := GetDB(ctx, r.db).Model(&model.MaintenanceRecord{}).
		Select("COALESCE(CAST(SUM(cost) AS TEXT), '0') as total").
		Where("service_date >= ?", since).
		Scan(&row).Error
	return row.Total, err
}

package repository

import (
	"context"
	"time"

	"autoflow/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// VehicleFilter narrows the vehicle listing.
type VehicleFilter struct {
	Search       string
	Status       string
	Year         int
	Availability string // "available" or "unavailable"
}

// VehicleOption is the minimal projection used to populate select inputs.
type VehicleOption struct {
	ID           uuid.UUID `json:"id"`
	Brand        string    `json:"brand"`
	Model        string    `json:"model"`
	LicensePlate string    `json:"license_plate"`
}

type VehicleRepository interface {
	Create(ctx context.Context, vehicle *model.Vehicle) error
	Update(ctx context.Context, vehicle *model.Vehicle) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Vehicle, error)
	List(ctx context.Context, filter VehicleFilter, page, limit int) ([]model.Vehicle, int64, error)
	ListAll(ctx context.Context) ([]model.Vehicle, error)
	Options(ctx context.Context) ([]VehicleOption, error)
	Count(ctx context.Context) (int64, error)
	CountByStatus(ctx context.Context) (map[string]int, error)
	InternalCodeExists(ctx context.Context, code string) (bool, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) error
	UpdateMileage(ctx context.Context, id uuid.UUID, mileageKm int) error
	UpdateNextService(ctx context.Context, id uuid.UUID, nextDate *time.Time, nextKm *int) error
	CountRentals(ctx context.Context, vehicleID uuid.UUID) (int64, error)
	Delete(ctx context.Context, id uuid.UUID) error

	AppendOdometerLog(ctx context.Context, entry *model.VehicleOdometerLog) error
	ListOdometerLogs(ctx context.Context, vehicleID uuid.UUID, limit int) ([]model.VehicleOdometerLog, error)
	DeleteOdometerLogsByVehicle(ctx context.Context, vehicleID uuid.UUID) error

	ListImages(ctx context.Context, vehicleID uuid.UUID) ([]model.VehicleImage, error)
	NextImagePosition(ctx context.Context, vehicleID uuid.UUID) (int, error)
	InsertImage(ctx context.Context, image *model.VehicleImage) error
	DeleteImage(ctx context.Context, vehicleID, imageID uuid.UUID) (string, error)
	DeleteImagesByVehicle(ctx context.Context, vehicleID uuid.UUID) error
}

type vehicleRepository struct {
	db *gorm.DB
}

func NewVehicleRepository(db *gorm.DB) VehicleRepository {
	return &vehicleRepository{db: db}
}

func (r *vehicleRepository) Create(ctx context.Context, vehicle *model.Vehicle) error {
	return GetDB(ctx, r.db).Create(vehicle).Error
}

func (r *vehicleRepository) Update(ctx context.Context, vehicle *model.Vehicle) error {
	return GetDB(ctx, r.db).Save(vehicle).Error
}

func (r *vehicleRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Vehicle, error) {
	var vehicle model.Vehicle
	if err := GetDB(ctx, r.db).First(&vehicle, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &vehicle, nil
}

func applyVehicleFilter(db *gorm.DB, filter VehicleFilter) *gorm.DB {
	if filter.Search != "" {
		like := "%" + filter.Search + "%"
		db = db.Where(
			"brand LIKE ? OR model LIKE ? OR license_plate LIKE ? OR internal_code LIKE ?",
			like, like, like, like,
		)
	}
	if filter.Status != "" {
		db = db.Where("status = ?", filter.Status)
	}
	if filter.Year > 0 {
		db = db.Where("year = ?", filter.Year)
	}
	switch filter.Availability {
	case "available":
		db = db.Where("status = ?", model.VehicleStatusAvailable)
	case "unavailable":
		db = db.Where("status <> ?", model.VehicleStatusAvailable)
	}
	return db
}

func (r *vehicleRepository) List(ctx context.Context, filter VehicleFilter, page, limit int) ([]model.Vehicle, int64, error) {
	var vehicles []model.Vehicle
	var total int64

	db := applyVehicleFilter(GetDB(ctx, r.db).Model(&model.Vehicle{}), filter)
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := db.Order("created_at DESC").Offset(offset).Limit(limit).Find(&vehicles).Error; err != nil {
		return nil, 0, err
	}

	return vehicles, total, nil
}

func (r *vehicleRepository) ListAll(ctx context.Context) ([]model.Vehicle, error) {
	var vehicles []model.Vehicle
	if err := GetDB(ctx, r.db).Find(&vehicles).Error; err != nil {
		return nil, err
	}
	return vehicles, nil
}

func (r *vehicleRepository) Options(ctx context.Context) ([]VehicleOption, error) {
	var options []VehicleOption
	err := GetDB(ctx, r.db).Model(&model.Vehicle{}).
		Select("id, brand, model, license_plate").
		Order("brand ASC, model ASC").
		Scan(&options).Error
	if err != nil {
		return nil, err
	}
	return options, nil
}

func (r *vehicleRepository) Count(ctx context.Context) (int64, error) {
	var total int64
	err := GetDB(ctx, r.db).Model(&model.Vehicle{}).Count(&total).Error
	return total, err
}

func (r *vehicleRepository) CountByStatus(ctx context.Context) (map[string]int, error) {
	var rows []struct {
		Status string
		Total  int
	}
	err := GetDB(ctx, r.db).Model(&model.Vehicle{}).
		Select("status, COUNT(*) as total").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int, len(model.VehicleStatusOptions))
	for _, status := range model.VehicleStatusOptions {
		counts[status] = 0
	}
	for _, row := range rows {
		counts[row.Status] = row.Total
	}
	return counts, nil
}

func (r *vehicleRepository) InternalCodeExists(ctx context.Context, code string) (bool, error) {
	var total int64
	err := GetDB(ctx, r.db).Model(&model.Vehicle{}).Where("internal_code = ?", code).Count(&total).Error
	return total > 0, err
}

func (r *vehicleRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	return GetDB(ctx, r.db).Model(&model.Vehicle{}).Where("id = ?", id).Update("status", status).Error
}

// UpdateMileage only moves the odometer forward: the guarded WHERE keeps the
// column monotonic even under concurrent writers.
func (r *vehicleRepository) UpdateMileage(ctx context.Context, id uuid.UUID, mileageKm int) error {
	return GetDB(ctx, r.db).Model(&model.Vehicle{}).
		Where("id = ? AND mileage_km < ?", id, mileageKm).
		Update("mileage_km", mileageKm).Error
}

func (r *vehicleRepository) UpdateNextService(ctx context.Context, id uuid.UUID, nextDate *time.Time, nextKm *int) error {
	return GetDB(ctx, r.db).Model(&model.Vehicle{}).Where("id = ?", id).
		Updates(map[string]interface{}{
			"next_service_date": nextDate,
			"next_service_km":   nextKm,
		}).Error
}

func (r *vehicleRepository) CountRentals(ctx context.Context, vehicleID uuid.UUID) (int64, error) {
	var total int64
	err := GetDB(ctx, r.db).Model(&model.Rental{}).Where("vehicle_id = ?", vehicleID).Count(&total).Error
	return total, err
}

func (r *vehicleRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return GetDB(ctx, r.db).Delete(&model.Vehicle{}, "id = ?", id).Error
}

func (r *vehicleRepository) AppendOdometerLog(ctx context.Context, entry *model.VehicleOdometerLog) error {
	return GetDB(ctx, r.db).Create(entry).Error
}

func (r *vehicleRepository) ListOdometerLogs(ctx context.Context, vehicleID uuid.UUID, limit int) ([]model.VehicleOdometerLog, error) {
	var logs []model.VehicleOdometerLog
	err := GetDB(ctx, r.db).Where("vehicle_id = ?", vehicleID).
		Order("created_at DESC").Limit(limit).Find(&logs).Error
	if err != nil {
		return nil, err
	}
	return logs, nil
}

func (r *vehicleRepository) DeleteOdometerLogsByVehicle(ctx context.Context, vehicleID uuid.UUID) error {
	return GetDB(ctx, r.db).Delete(&model.VehicleOdometerLog{}, "vehicle_id = ?", vehicleID).Error
}

func (r *vehicleRepository) ListImages(ctx context.Context, vehicleID uuid.UUID) ([]model.VehicleImage, error) {
	var images []model.VehicleImage
	err := GetDB(ctx, r.db).Where("vehicle_id = ?", vehicleID).
		Order("position ASC, created_at ASC").Find(&images).Error
	if err != nil {
		return nil, err
	}
	return images, nil
}

func (r *vehicleRepository) NextImagePosition(ctx context.Context, vehicleID uuid.UUID) (int, error) {
	var max struct {
		Position int
	}
	err := GetDB(ctx, r.db).Model(&model.VehicleImage{}).
		Select("COALESCE(MAX(position), 0) as position").
		Where("vehicle_id = ?", vehicleID).
		Scan(&max).Error
	if err != nil {
		return 0, err
	}
	return max.Position + 1, nil
}

func (r *vehicleRepository) InsertImage(ctx context.Context, image *model.VehicleImage) error {
	return GetDB(ctx, r.db).Create(image).Error
}

// DeleteImage removes one gallery row and returns its storage path so the
// caller can clean up the external file.
func (r *vehicleRepository) DeleteImage(ctx context.Context, vehicleID, imageID uuid.UUID) (string, error) {
	var image model.VehicleImage
	db := GetDB(ctx, r.db)
	if err := db.First(&image, "id = ? AND vehicle_id = ?", imageID, vehicleID).Error; err != nil {
		return "", err
	}
	if err := db.Delete(&model.VehicleImage{}, "id = ?", image.ID).Error; err != nil {
		return "", err
	}
	return image.StoragePath, nil
}

func (r *vehicleRepository) DeleteImagesByVehicle(ctx context.Context, vehicleID uuid.UUID) error {
	return GetDB(ctx, r.db).Delete(&model.VehicleImage{}, "vehicle_id = ?", vehicleID).Error
}

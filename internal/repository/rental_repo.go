package repository

import (
	"context"
	"time"

	"autoflow/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// RentalFilter narrows the rental listing.
type RentalFilter struct {
	Search    string
	Status    string
	VehicleID uuid.UUID
	DateFrom  *time.Time
	DateTo    *time.Time
}

// ClientSummary aggregates a client's rental history. Amounts are carried as
// text so sqlite and postgres SUM() results scan the same way.
type ClientSummary struct {
	TotalRentals int64      `json:"total_rentals"`
	TotalAmount  string     `json:"total_amount"`
	FirstRental  *time.Time `json:"first_rental"`
	LastRental   *time.Time `json:"last_rental"`
}

type RentalRepository interface {
	Create(ctx context.Context, rental *model.Rental) error
	Update(ctx context.Context, rental *model.Rental) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Rental, error)
	List(ctx context.Context, filter RentalFilter, page, limit int) ([]model.Rental, int64, error)
	Delete(ctx context.Context, id uuid.UUID) error
	DeleteByVehicle(ctx context.Context, vehicleID uuid.UUID) error

	// FindOverlapping returns rentals of the vehicle in blocking states whose
	// closed [start,end] interval intersects the given one, excluding the
	// rental being edited.
	FindOverlapping(ctx context.Context, vehicleID uuid.UUID, start, end time.Time, excludeID uuid.UUID) ([]model.Rental, error)

	ListByClient(ctx context.Context, identifier string, page, limit int) ([]model.Rental, int64, error)
	SummaryByClient(ctx context.Context, identifier string) (ClientSummary, error)

	Recent(ctx context.Context, limit int) ([]model.Rental, error)
	CountByStatuses(ctx context.Context, statuses []string) (int64, error)
	SumRevenueSince(ctx context.Context, since time.Time) (string, error)
	AverageDurationDays(ctx context.Context) (float64, error)
}

type rentalRepository struct {
	db *gorm.DB
}

func NewRentalRepository(db *gorm.DB) RentalRepository {
	return &rentalRepository{db: db}
}

func (r *rentalRepository) Create(ctx context.Context, rental *model.Rental) error {
	return GetDB(ctx, r.db).Create(rental).Error
}

func (r *rentalRepository) Update(ctx context.Context, rental *model.Rental) error {
	return GetDB(ctx, r.db).Save(rental).Error
}

func (r *rentalRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Rental, error) {
	var rental model.Rental
	if err := GetDB(ctx, r.db).Preload("Vehicle").First(&rental, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &rental, nil
}

func applyRentalFilter(db *gorm.DB, filter RentalFilter) *gorm.DB {
	if filter.Search != "" {
		like := "%" + filter.Search + "%"
		db = db.Joins("JOIN vehicles ON vehicles.id = rentals.vehicle_id").
			Where("rentals.client_name LIKE ? OR rentals.client_document LIKE ? OR vehicles.license_plate LIKE ?",
				like, like, like)
	}
	if filter.Status != "" {
		db = db.Where("rentals.status = ?", filter.Status)
	}
	if filter.VehicleID != uuid.Nil {
		db = db.Where("rentals.vehicle_id = ?", filter.VehicleID)
	}
	if filter.DateFrom != nil {
		db = db.Where("rentals.start_date >= ?", *filter.DateFrom)
	}
	if filter.DateTo != nil {
		db = db.Where("rentals.end_date <= ?", *filter.DateTo)
	}
	return db
}

func (r *rentalRepository) List(ctx context.Context, filter RentalFilter, page, limit int) ([]model.Rental, int64, error) {
	var rentals []model.Rental
	var total int64

	db := applyRentalFilter(GetDB(ctx, r.db).Model(&model.Rental{}), filter)
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := db.Preload("Vehicle").
		Order("rentals.created_at DESC").
		Offset(offset).Limit(limit).
		Find(&rentals).Error; err != nil {
		return nil, 0, err
	}

	return rentals, total, nil
}

func (r *rentalRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return GetDB(ctx, r.db).Delete(&model.Rental{}, "id = ?", id).Error
}

func (r *rentalRepository) DeleteByVehicle(ctx context.Context, vehicleID uuid.UUID) error {
	return GetDB(ctx, r.db).Delete(&model.Rental{}, "vehicle_id = ?", vehicleID).Error
}

func (r *rentalRepository) FindOverlapping(ctx context.Context, vehicleID uuid.UUID, start, end time.Time, excludeID uuid.UUID) ([]model.Rental, error) {
	var rentals []model.Rental
	db := GetDB(ctx, r.db).
		Where("vehicle_id = ?", vehicleID).
		Where("status IN ?", model.RentalBlockingStatuses).
		Where("NOT (end_date < ? OR start_date > ?)", start, end)
	if excludeID != uuid.Nil {
		db = db.Where("id <> ?", excludeID)
	}
	if err := db.Find(&rentals).Error; err != nil {
		return nil, err
	}
	return rentals, nil
}

func (r *rentalRepository) ListByClient(ctx context.Context, identifier string, page, limit int) ([]model.Rental, int64, error) {
	var rentals []model.Rental
	var total int64

	db := GetDB(ctx, r.db).Model(&model.Rental{}).
		Where("client_document = ? OR client_name = ?", identifier, identifier)
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := db.Preload("Vehicle").
		Order("start_date DESC").
		Offset(offset).Limit(limit).
		Find(&rentals).Error; err != nil {
		return nil, 0, err
	}

	return rentals, total, nil
}

func (r *rentalRepository) SummaryByClient(ctx context.Context, identifier string) (ClientSummary, error) {
	var row struct {
		TotalRentals int64
		TotalAmount  string
		FirstRental  string
		LastRental   string
	}
	err := GetDB(ctx, r.db).Model(&model.Rental{}).
		Select("COUNT(*) as total_rentals, COALESCE(CAST(SUM(total_amount) AS TEXT), '0') as total_amount, COALESCE(CAST(MIN(start_date) AS TEXT), '') as first_rental, COALESCE(CAST(MAX(end_date) AS TEXT), '') as last_rental").
		Where("client_document = ? OR client_name = ?", identifier, identifier).
		Scan(&row).Error
	if err != nil {
		return ClientSummary{}, err
	}
	return ClientSummary{
		TotalRentals: row.TotalRentals,
		TotalAmount:  row.TotalAmount,
		FirstRental:  parseDateColumn(row.FirstRental),
		LastRental:   parseDateColumn(row.LastRental),
	}, nil
}

func (r *rentalRepository) Recent(ctx context.Context, limit int) ([]model.Rental, error) {
	var rentals []model.Rental
	err := GetDB(ctx, r.db).Preload("Vehicle").
		Order("created_at DESC").Limit(limit).Find(&rentals).Error
	if err != nil {
		return nil, err
	}
	return rentals, nil
}

func (r *rentalRepository) CountByStatuses(ctx context.Context, statuses []string) (int64, error) {
	if len(statuses) == 0 {
		return 0, nil
	}
	var total int64
	err := GetDB(ctx, r.db).Model(&model.Rental{}).Where("status IN ?", statuses).Count(&total).Error
	return total, err
}

func (r *rentalRepository) SumRevenueSince(ctx context.Context, since time.Time) (string, error) {
	var row struct {
		Total string
	}
	err := GetDB(ctx, r.db).Model(&model.Rental{}).
		Select("COALESCE(CAST(SUM(total_amount) AS TEXT), '0') as total").
		Where("start_date >= ?", since).
		Scan(&row).Error
	return row.Total, err
}

func (r *rentalRepository) AverageDurationDays(ctx context.Context) (float64, error) {
	var row struct {
		Avg float64
	}
	err := GetDB(ctx, r.db).Model(&model.Rental{}).
		Select("COALESCE(AVG(duration_days), 0) as avg").
		Where("status IN ?", []string{model.RentalStatusConfirmed, model.RentalStatusInProgress, model.RentalStatusCompleted}).
		Scan(&row).Error
	return row.Avg, err
}

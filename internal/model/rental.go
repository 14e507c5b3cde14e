package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Rental status enum constants
const (
	RentalStatusDraft      = "draft"
	RentalStatusConfirmed  = "confirmed"
	RentalStatusInProgress = "in_progress"
	RentalStatusCompleted  = "completed"
	RentalStatusCancelled  = "cancelled"
)

// RentalStatusOptions lists the states accepted by the rentals table.
var RentalStatusOptions = []string{
	RentalStatusDraft,
	RentalStatusConfirmed,
	RentalStatusInProgress,
	RentalStatusCompleted,
	RentalStatusCancelled,
}

// RentalBlockingStatuses are the states that occupy a vehicle's calendar.
// Two rentals in these states must never overlap for the same vehicle.
var RentalBlockingStatuses = []string{RentalStatusConfirmed, RentalStatusInProgress}

// Rental is a booking contract over a closed [start_date, end_date] interval.
// DurationDays and TotalAmount are derived server-side on every save.
type Rental struct {
	ID              uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	VehicleID       uuid.UUID       `gorm:"type:uuid;not null;index" json:"vehicle_id"`
	Vehicle         *Vehicle        `gorm:"foreignKey:VehicleID;constraint:OnDelete:RESTRICT" json:"vehicle,omitempty"`
	ClientName      string          `gorm:"type:varchar(150);not null" json:"client_name"`
	ClientDocument  string          `gorm:"type:varchar(50);not null;index" json:"client_document"`
	ClientPhone     string          `gorm:"type:varchar(50)" json:"client_phone"`
	StartDate       time.Time       `gorm:"type:date;not null;index" json:"start_date"`
	EndDate         time.Time       `gorm:"type:date;not null" json:"end_date"`
	DurationDays    int             `gorm:"not null;default:1" json:"duration_days"`
	DailyRate       decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"daily_rate"`
	TotalAmount     decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"total_amount"`
	OdometerStartKm *int            `json:"odometer_start_km"`
	OdometerEndKm   *int            `json:"odometer_end_km"`
	Status          string          `gorm:"type:varchar(20);not null;default:'draft';index" json:"status"`
	Notes           string          `gorm:"type:text" json:"notes"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

func (r *Rental) BeforeCreate(_ *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

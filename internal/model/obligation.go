package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Obligation type enum constants
const (
	ObligationTypeRegistration = "registration"
	ObligationTypeInsurance    = "insurance"
	ObligationTypeTax          = "tax"
	ObligationTypeOther        = "other"
)

// Obligation status enum constants
const (
	ObligationStatusPending = "pending"
	ObligationStatusPaid    = "paid"
	ObligationStatusOverdue = "overdue"
)

// ObligationTypeOptions lists the accepted compliance categories.
var ObligationTypeOptions = []string{
	ObligationTypeRegistration,
	ObligationTypeInsurance,
	ObligationTypeTax,
	ObligationTypeOther,
}

// ObligationStatusOptions lists the accepted payment states.
var ObligationStatusOptions = []string{
	ObligationStatusPending,
	ObligationStatusPaid,
	ObligationStatusOverdue,
}

// VehicleObligation is a due-date compliance liability (registration,
// insurance, tax). Status transitions pending<->overdue are applied
// automatically on every write based on the due date.
type VehicleObligation struct {
	ID             uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	VehicleID      uuid.UUID       `gorm:"type:uuid;not null;index" json:"vehicle_id"`
	Vehicle        *Vehicle        `gorm:"foreignKey:VehicleID" json:"vehicle,omitempty"`
	ObligationType string          `gorm:"type:varchar(20);not null;default:'registration';index" json:"obligation_type"`
	DueDate        time.Time       `gorm:"type:date;not null;index" json:"due_date"`
	Amount         decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"amount"`
	Status         string          `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	PaidAt         *time.Time      `gorm:"type:date" json:"paid_at"`
	Notes          string          `gorm:"type:text" json:"notes"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

func (o *VehicleObligation) BeforeCreate(_ *gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}

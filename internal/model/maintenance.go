package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Maintenance record status enum constants
const (
	MaintenanceStatusPending    = "pending"
	MaintenanceStatusInProgress = "in_progress"
	MaintenanceStatusCompleted  = "completed"
)

// MaintenanceStatusOptions lists the states accepted by maintenance_records.
var MaintenanceStatusOptions = []string{
	MaintenanceStatusPending,
	MaintenanceStatusInProgress,
	MaintenanceStatusCompleted,
}

// MaintenanceRecord is a point-in-time service entry. NextServiceDate is
// auto-suggested from the service type when the caller leaves it empty.
type MaintenanceRecord struct {
	ID              uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	VehicleID       uuid.UUID       `gorm:"type:uuid;not null;index" json:"vehicle_id"`
	Vehicle         *Vehicle        `gorm:"foreignKey:VehicleID" json:"vehicle,omitempty"`
	ServiceType     string          `gorm:"type:varchar(100);not null" json:"service_type"`
	Description     string          `gorm:"type:text" json:"description"`
	ServiceDate     time.Time       `gorm:"type:date;not null;index" json:"service_date"`
	MileageKm       *int            `json:"mileage_km"`
	Cost            decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"cost"`
	Status          string          `gorm:"type:varchar(20);not null;default:'pending'" json:"status"`
	NextServiceDate *time.Time      `gorm:"type:date" json:"next_service_date"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

func (m *MaintenanceRecord) BeforeCreate(_ *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

// MaintenancePlan is a recurring service rule by km and/or months. At least
// one of IntervalKm, IntervalMonths, NextServiceDate or NextServiceKm must be
// set. Next values default to last + interval when absent.
type MaintenancePlan struct {
	ID              uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	VehicleID       uuid.UUID  `gorm:"type:uuid;not null;index" json:"vehicle_id"`
	Vehicle         *Vehicle   `gorm:"foreignKey:VehicleID" json:"vehicle,omitempty"`
	ServiceType     string     `gorm:"type:varchar(100);not null" json:"service_type"`
	IntervalKm      *int       `json:"interval_km"`
	IntervalMonths  *int       `json:"interval_months"`
	LastServiceDate *time.Time `gorm:"type:date" json:"last_service_date"`
	LastServiceKm   *int       `json:"last_service_km"`
	NextServiceDate *time.Time `gorm:"type:date" json:"next_service_date"`
	NextServiceKm   *int       `json:"next_service_km"`
	IsActive        bool       `gorm:"not null;default:true;index" json:"is_active"`
	Notes           string     `gorm:"type:text" json:"notes"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

func (p *MaintenancePlan) BeforeCreate(_ *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

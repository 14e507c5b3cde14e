package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Alert entity type constants
const (
	AlertEntityVehicle    = "vehicle"
	AlertEntityObligation = "vehicle_obligation"
)

// Alert type constants
const (
	AlertTypeMaintenanceDueDate = "maintenance_due_date"
	AlertTypeMaintenanceDueKm   = "maintenance_due_km"
	AlertTypeRegistrationDue    = "registration_due"
	AlertTypeInsuranceDue       = "insurance_due"
	AlertTypeObligationDue      = "obligation_due"
)

// Alert status constants
const (
	AlertStatusOpen      = "open"
	AlertStatusDismissed = "dismissed"
	AlertStatusResolved  = "resolved"
)

// Alert is a materialized notification raised by the sweep. At most one open
// alert may exist per (entity_type, entity_id, alert_type).
type Alert struct {
	ID         uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	EntityType string     `gorm:"type:varchar(30);not null;index:idx_alert_entity" json:"entity_type"`
	EntityID   uuid.UUID  `gorm:"type:uuid;not null;index:idx_alert_entity" json:"entity_id"`
	AlertType  string     `gorm:"type:varchar(30);not null;index:idx_alert_entity" json:"alert_type"`
	Title      string     `gorm:"type:varchar(150);not null" json:"title"`
	Message    string     `gorm:"type:text" json:"message"`
	DueDate    *time.Time `gorm:"type:date" json:"due_date"`
	Status     string     `gorm:"type:varchar(20);not null;default:'open';index" json:"status"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

func (a *Alert) BeforeCreate(_ *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}

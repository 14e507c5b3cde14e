package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Audit action constants
const (
	AuditActionCreate = "create"
	AuditActionUpdate = "update"
	AuditActionDelete = "delete"
)

// Audit entity type constants
const (
	AuditEntityVehicle         = "vehicle"
	AuditEntityRental          = "rental"
	AuditEntityMaintenance     = "maintenance"
	AuditEntityMaintenancePlan = "maintenance_plan"
	AuditEntityObligation      = "vehicle_obligation"
)

// AuditLog tracks who changed what, with before/after JSON snapshots.
// Appends are best-effort: a failed audit write never blocks the primary
// operation.
type AuditLog struct {
	ID         uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	UserID     *uuid.UUID `gorm:"type:uuid;index" json:"user_id"`
	User       *User      `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Action     string     `gorm:"type:varchar(20);not null;index" json:"action"`
	EntityType string     `gorm:"type:varchar(30);not null;index" json:"entity_type"`
	EntityID   *uuid.UUID `gorm:"type:uuid;index" json:"entity_id"`
	Summary    string     `gorm:"type:varchar(255)" json:"summary"`
	BeforeData string     `gorm:"type:jsonb" json:"before_data,omitempty"`
	AfterData  string     `gorm:"type:jsonb" json:"after_data,omitempty"`
	CreatedAt  time.Time  `gorm:"index" json:"created_at"`
}

func (a *AuditLog) BeforeCreate(_ *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}

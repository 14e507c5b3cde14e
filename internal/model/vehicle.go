package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Vehicle status enum constants
const (
	VehicleStatusAvailable   = "available"
	VehicleStatusReserved    = "reserved"
	VehicleStatusRented      = "rented"
	VehicleStatusMaintenance = "maintenance"
	VehicleStatusRetired     = "retired"
)

// Transmission enum constants
const (
	TransmissionManual    = "manual"
	TransmissionAutomatic = "automatic"
)

// Fuel type enum constants
const (
	FuelNafta    = "nafta"
	FuelDiesel   = "diesel"
	FuelHybrid   = "hibrido"
	FuelElectric = "electrico"
	FuelOther    = "otro"
)

// VehicleStatusOptions lists the states accepted by the vehicles table.
var VehicleStatusOptions = []string{
	VehicleStatusAvailable,
	VehicleStatusReserved,
	VehicleStatusRented,
	VehicleStatusMaintenance,
	VehicleStatusRetired,
}

// TransmissionOptions lists the supported gearbox kinds.
var TransmissionOptions = []string{TransmissionManual, TransmissionAutomatic}

// FuelOptions lists the supported fuel kinds.
var FuelOptions = []string{FuelNafta, FuelDiesel, FuelHybrid, FuelElectric, FuelOther}

// Vehicle is the canonical fleet record. Mileage is monotonically
// non-decreasing; next-service projections are derived from active
// maintenance plans and copied here for display and alerting.
type Vehicle struct {
	ID                  uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	InternalCode        string          `gorm:"type:varchar(20);uniqueIndex;not null" json:"internal_code"`
	VIN                 *string         `gorm:"column:vin;type:varchar(30);uniqueIndex" json:"vin"`
	LicensePlate        string          `gorm:"type:varchar(15);uniqueIndex;not null" json:"license_plate"`
	Brand               string          `gorm:"type:varchar(100);not null" json:"brand"`
	Model               string          `gorm:"type:varchar(100);not null" json:"model"`
	Year                int             `gorm:"not null" json:"year"`
	Color               string          `gorm:"type:varchar(50)" json:"color"`
	Transmission        string          `gorm:"type:varchar(20);not null;default:'manual'" json:"transmission"`
	FuelType            string          `gorm:"type:varchar(20);not null;default:'nafta'" json:"fuel_type"`
	MileageKm           int             `gorm:"not null;default:0" json:"mileage_km"`
	CapacityKg          int             `gorm:"not null;default:0" json:"capacity_kg"`
	PassengerCapacity   int             `gorm:"not null;default:1" json:"passenger_capacity"`
	DailyRate           decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"daily_rate"`
	Status              string          `gorm:"type:varchar(20);not null;default:'available';index" json:"status"`
	NextServiceKm       *int            `json:"next_service_km"`
	NextServiceDate     *time.Time      `gorm:"type:date" json:"next_service_date"`
	RegistrationDueDate *time.Time      `gorm:"type:date" json:"registration_due_date"`
	InsuranceDueDate    *time.Time      `gorm:"type:date" json:"insurance_due_date"`
	PurchasedAt         *time.Time      `gorm:"type:date" json:"purchased_at"`
	Notes               string          `gorm:"type:text" json:"notes"`
	CreatedAt           time.Time       `json:"created_at"`
	UpdatedAt           time.Time       `json:"updated_at"`
}

func (v *Vehicle) BeforeCreate(_ *gorm.DB) error {
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	return nil
}

// VehicleImage stores gallery metadata. The binary itself lives in external
// storage; only the relative storage path is tracked here.
type VehicleImage struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	VehicleID   uuid.UUID `gorm:"type:uuid;not null;index" json:"vehicle_id"`
	FileName    string    `gorm:"type:varchar(255);not null" json:"file_name"`
	StoragePath string    `gorm:"type:varchar(500);not null" json:"storage_path"`
	Position    int       `gorm:"not null;default:0" json:"position"`
	CreatedAt   time.Time `json:"created_at"`
}

func (i *VehicleImage) BeforeCreate(_ *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

// VehicleOdometerLog is an append-only mileage ledger. Rows are written when
// a rental completes or when mileage is corrected manually.
type VehicleOdometerLog struct {
	ID         uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	VehicleID  uuid.UUID  `gorm:"type:uuid;not null;index" json:"vehicle_id"`
	RentalID   *uuid.UUID `gorm:"type:uuid;index" json:"rental_id"`
	RecordedBy *uuid.UUID `gorm:"type:uuid" json:"recorded_by"`
	MileageKm  int        `gorm:"not null" json:"mileage_km"`
	Note       string     `gorm:"type:varchar(255)" json:"note"`
	CreatedAt  time.Time  `json:"created_at"`
}

func (l *VehicleOdometerLog) BeforeCreate(_ *gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}

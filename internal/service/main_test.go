package service

import (
	"context"
	"testing"
	"time"

	"autoflow/internal/model"
	"autoflow/internal/repository"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// testEnv wires the full service graph over an in-memory sqlite database.
type testEnv struct {
	db *gorm.DB

	vehicleRepo     repository.VehicleRepository
	rentalRepo      repository.RentalRepository
	maintenanceRepo repository.MaintenanceRepository
	planRepo        repository.PlanRepository
	obligationRepo  repository.ObligationRepository
	alertRepo       repository.AlertRepository
	auditRepo       repository.AuditRepository
	userRepo        repository.UserRepository

	audit        AuditService
	vehicles     VehicleService
	rentals      RentalService
	plans        PlanService
	maintenance  MaintenanceService
	obligations  ObligationService
	alerts       AlertService
	dashboard    DashboardService
	users        UserService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	// A single connection keeps every session on the same in-memory DB.
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&model.User{},
		&model.Vehicle{},
		&model.VehicleImage{},
		&model.VehicleOdometerLog{},
		&model.Rental{},
		&model.MaintenanceRecord{},
		&model.MaintenancePlan{},
		&model.VehicleObligation{},
		&model.Alert{},
		&model.AuditLog{},
	))

	env := &testEnv{db: db}
	env.vehicleRepo = repository.NewVehicleRepository(db)
	env.rentalRepo = repository.NewRentalRepository(db)
	env.maintenanceRepo = repository.NewMaintenanceRepository(db)
	env.planRepo = repository.NewPlanRepository(db)
	env.obligationRepo = repository.NewObligationRepository(db)
	env.alertRepo = repository.NewAlertRepository(db)
	env.auditRepo = repository.NewAuditRepository(db)
	env.userRepo = repository.NewUserRepository(db)

	txManager := repository.NewTransactionManager(db)
	log := logrus.New()
	log.SetLevel(logrus.ErrorLevel)

	env.audit = NewAuditService(env.auditRepo, log)
	env.vehicles = NewVehicleService(env.vehicleRepo, env.rentalRepo, env.maintenanceRepo,
		env.planRepo, env.obligationRepo, env.alertRepo, txManager, env.audit)
	env.rentals = NewRentalService(env.rentalRepo, env.vehicleRepo, env.vehicles, txManager, env.audit)
	env.plans = NewPlanService(env.planRepo, env.vehicleRepo, env.audit)
	env.maintenance = NewMaintenanceService(env.maintenanceRepo, env.vehicleRepo, env.plans, env.audit)
	env.obligations = NewObligationService(env.obligationRepo, env.vehicleRepo, env.audit)
	env.alerts = NewAlertService(env.alertRepo, env.vehicleRepo, env.obligationRepo, nil, log)
	env.dashboard = NewDashboardService(env.vehicleRepo, env.rentalRepo, env.maintenanceRepo,
		env.alertRepo, env.alerts, log)
	env.users = NewUserService(env.userRepo, []byte("test_secret"))

	return env
}

// seedVehicle inserts a ready-to-rent vehicle directly through the repository.
func (e *testEnv) seedVehicle(t *testing.T, plate string, mileage int) *model.Vehicle {
	t.Helper()
	vehicle := &model.Vehicle{
		InternalCode: "AF-T-" + plate,
		LicensePlate: plate,
		Brand:        "Toyota",
		Model:        "Hilux",
		Year:         2021,
		Transmission: model.TransmissionManual,
		FuelType:     model.FuelDiesel,
		MileageKm:    mileage,
		DailyRate:    decimal.NewFromInt(100),
		Status:       model.VehicleStatusAvailable,
	}
	require.NoError(t, e.vehicleRepo.Create(context.Background(), vehicle))
	return vehicle
}

func mustDate(t *testing.T, value string) time.Time {
	t.Helper()
	d, err := parseDate(value)
	require.NoError(t, err)
	return d
}

func intPtr(v int) *int { return &v }

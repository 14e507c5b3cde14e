package service

import (
	"context"
	"errors"
	"testing"

	"autoflow/internal/model"
	"autoflow/pkg/fielderr"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func baseVehicleRequest(plate string) VehicleRequest {
	return VehicleRequest{
		LicensePlate: plate,
		Brand:        "Ford",
		Model:        "Transit",
		Year:         2020,
		MileageKm:    12000,
		DailyRate:    "85.50",
	}
}

func TestCreateVehicleGeneratesInternalCode(t *testing.T) {
	env := newTestEnv(t)

	vehicle, err := env.vehicles.Create(context.Background(), nil, baseVehicleRequest("XX001YY"))
	require.NoError(t, err)

	assert.Equal(t, "AF-000001", vehicle.InternalCode)
	assert.Equal(t, model.VehicleStatusAvailable, vehicle.Status)
	assert.Equal(t, model.TransmissionManual, vehicle.Transmission)
	assert.Equal(t, "85.50", vehicle.DailyRate)

	second, err := env.vehicles.Create(context.Background(), nil, baseVehicleRequest("XX002YY"))
	require.NoError(t, err)
	assert.Equal(t, "AF-000002", second.InternalCode)
}

func TestCreateVehicleValidatesYear(t *testing.T) {
	env := newTestEnv(t)

	req := baseVehicleRequest("XX001YY")
	req.Year = 1950
	_, err := env.vehicles.Create(context.Background(), nil, req)

	var fieldErrs fielderr.Errors
	require.ErrorAs(t, err, &fieldErrs)
	assert.True(t, fieldErrs.Has("year"))
}

func TestCreateVehicleRejectsDuplicatePlate(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.vehicles.Create(ctx, nil, baseVehicleRequest("XX001YY"))
	require.NoError(t, err)

	_, err = env.vehicles.Create(ctx, nil, baseVehicleRequest("XX001YY"))
	var fieldErrs fielderr.Errors
	require.ErrorAs(t, err, &fieldErrs)
	assert.True(t, fieldErrs.Has("license_plate"))
}

func TestUpdateVehicleKeepsMileageMonotonic(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	created, err := env.vehicles.Create(ctx, nil, baseVehicleRequest("XX001YY"))
	require.NoError(t, err)
	id := uuid.MustParse(created.ID)

	req := baseVehicleRequest("XX001YY")
	req.MileageKm = 9000
	updated, err := env.vehicles.Update(ctx, nil, id, req)
	require.NoError(t, err)
	assert.Equal(t, 12000, updated.MileageKm)

	req.MileageKm = 15000
	updated, err = env.vehicles.Update(ctx, nil, id, req)
	require.NoError(t, err)
	assert.Equal(t, 15000, updated.MileageKm)
}

func TestCorrectMileageAppendsOdometerLog(t *testing.T) {
	env := newTestEnv(t)
	vehicle := env.seedVehicle(t, "XX001YY", 100)
	ctx := context.Background()

	err := env.vehicles.CorrectMileage(ctx, nil, vehicle.ID, MileageCorrectionRequest{MileageKm: 50})
	var fieldErrs fielderr.Errors
	require.ErrorAs(t, err, &fieldErrs)
	assert.True(t, fieldErrs.Has("mileage_km"))

	require.NoError(t, env.vehicles.CorrectMileage(ctx, nil, vehicle.ID,
		MileageCorrectionRequest{MileageKm: 250, Note: "workshop reading"}))

	fresh, err := env.vehicleRepo.FindByID(ctx, vehicle.ID)
	require.NoError(t, err)
	assert.Equal(t, 250, fresh.MileageKm)

	logs, err := env.vehicleRepo.ListOdometerLogs(ctx, vehicle.ID, 10)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, "workshop reading", logs[0].Note)
}

func TestDeleteVehicleRestrictedWhileRented(t *testing.T) {
	env := newTestEnv(t)
	vehicle := env.seedVehicle(t, "XX001YY", 100)
	ctx := context.Background()

	_, err := env.rentals.Create(ctx, nil, baseRentalRequest(vehicle.ID))
	require.NoError(t, err)

	err = env.vehicles.Delete(ctx, nil, vehicle.ID)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrConflict))
}

func TestDeleteVehicleCascadesDependents(t *testing.T) {
	env := newTestEnv(t)
	vehicle := env.seedVehicle(t, "XX001YY", 100)
	ctx := context.Background()

	_, err := env.plans.Create(ctx, nil, PlanRequest{
		VehicleID:      vehicle.ID.String(),
		ServiceType:    "oil change",
		IntervalMonths: intPtr(6),
	})
	require.NoError(t, err)

	_, err = env.obligations.Create(ctx, nil, ObligationRequest{
		VehicleID:      vehicle.ID.String(),
		ObligationType: model.ObligationTypeInsurance,
		DueDate:        "2030-06-01",
	})
	require.NoError(t, err)

	require.NoError(t, env.vehicles.Delete(ctx, nil, vehicle.ID))

	plans, err := env.planRepo.ListByVehicle(ctx, vehicle.ID)
	require.NoError(t, err)
	assert.Empty(t, plans)

	obligations, err := env.obligationRepo.ListByVehicle(ctx, vehicle.ID)
	require.NoError(t, err)
	assert.Empty(t, obligations)

	_, err = env.vehicles.Get(ctx, vehicle.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestVehicleDetailAggregatesRelations(t *testing.T) {
	env := newTestEnv(t)
	vehicle := env.seedVehicle(t, "XX001YY", 100)
	ctx := context.Background()

	_, err := env.vehicles.AttachImage(ctx, vehicle.ID, AttachImageRequest{
		FileName:    "front.jpg",
		StoragePath: "vehicles/front.jpg",
	})
	require.NoError(t, err)

	_, err = env.plans.Create(ctx, nil, PlanRequest{
		VehicleID:      vehicle.ID.String(),
		ServiceType:    "oil change",
		IntervalMonths: intPtr(6),
	})
	require.NoError(t, err)

	detail, err := env.vehicles.Get(ctx, vehicle.ID)
	require.NoError(t, err)
	assert.Len(t, detail.Images, 1)
	assert.Equal(t, 1, detail.Images[0].Position)
	assert.Len(t, detail.Plans, 1)
}

func TestVehicleWritesLeaveAuditTrail(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	created, err := env.vehicles.Create(ctx, nil, baseVehicleRequest("XX001YY"))
	require.NoError(t, err)
	id := uuid.MustParse(created.ID)

	req := baseVehicleRequest("XX001YY")
	req.Notes = "fleet refresh"
	_, err = env.vehicles.Update(ctx, nil, id, req)
	require.NoError(t, err)

	entries, total, err := env.audit.List(ctx, AuditListQuery{EntityType: model.AuditEntityVehicle}, 1, 50)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	// Newest first.
	assert.Equal(t, model.AuditActionUpdate, entries[0].Action)
	assert.Equal(t, model.AuditActionCreate, entries[1].Action)
}

package service

import (
	"context"
	"testing"

	"autoflow/internal/model"
	"autoflow/pkg/fielderr"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func baseRentalRequest(vehicleID uuid.UUID) RentalRequest {
	return RentalRequest{
		VehicleID:      vehicleID.String(),
		ClientName:     "Ana Marquez",
		ClientDocument: "30111222",
		StartDate:      "2024-01-01",
		EndDate:        "2024-01-03",
		Status:         model.RentalStatusConfirmed,
	}
}

func TestCreateRentalDerivesDurationAndTotal(t *testing.T) {
	env := newTestEnv(t)
	vehicle := env.seedVehicle(t, "AB123CD", 50000)

	rental, err := env.rentals.Create(context.Background(), nil, baseRentalRequest(vehicle.ID))
	require.NoError(t, err)

	// Closed interval: Jan 1 through Jan 3 is three billable days.
	assert.Equal(t, 3, rental.DurationDays)
	assert.Equal(t, "100.00", rental.DailyRate)
	assert.Equal(t, "300.00", rental.TotalAmount)
}

func TestCreateRentalSameDayCountsOneDay(t *testing.T) {
	env := newTestEnv(t)
	vehicle := env.seedVehicle(t, "AB123CD", 50000)

	req := baseRentalRequest(vehicle.ID)
	req.EndDate = req.StartDate
	rental, err := env.rentals.Create(context.Background(), nil, req)
	require.NoError(t, err)

	assert.Equal(t, 1, rental.DurationDays)
	assert.Equal(t, "100.00", rental.TotalAmount)
}

func TestCreateRentalRejectsOverlap(t *testing.T) {
	env := newTestEnv(t)
	vehicle := env.seedVehicle(t, "AB123CD", 50000)

	_, err := env.rentals.Create(context.Background(), nil, baseRentalRequest(vehicle.ID))
	require.NoError(t, err)

	// Touching the booked window on its last day must be refused.
	second := baseRentalRequest(vehicle.ID)
	second.StartDate = "2024-01-03"
	second.EndDate = "2024-01-05"
	_, err = env.rentals.Create(context.Background(), nil, second)

	var fieldErrs fielderr.Errors
	require.ErrorAs(t, err, &fieldErrs)
	assert.True(t, fieldErrs.Has("start_date"))
}

func TestCreateRentalAllowsAdjacentWindow(t *testing.T) {
	env := newTestEnv(t)
	vehicle := env.seedVehicle(t, "AB123CD", 50000)

	_, err := env.rentals.Create(context.Background(), nil, baseRentalRequest(vehicle.ID))
	require.NoError(t, err)

	second := baseRentalRequest(vehicle.ID)
	second.StartDate = "2024-01-04"
	second.EndDate = "2024-01-06"
	_, err = env.rentals.Create(context.Background(), nil, second)
	require.NoError(t, err)
}

func TestCreateRentalDraftIgnoresOverlap(t *testing.T) {
	env := newTestEnv(t)
	vehicle := env.seedVehicle(t, "AB123CD", 50000)

	_, err := env.rentals.Create(context.Background(), nil, baseRentalRequest(vehicle.ID))
	require.NoError(t, err)

	// Drafts do not claim the calendar.
	second := baseRentalRequest(vehicle.ID)
	second.Status = model.RentalStatusDraft
	_, err = env.rentals.Create(context.Background(), nil, second)
	require.NoError(t, err)
}

func TestUpdateRentalExcludesSelfFromOverlap(t *testing.T) {
	env := newTestEnv(t)
	vehicle := env.seedVehicle(t, "AB123CD", 50000)

	created, err := env.rentals.Create(context.Background(), nil, baseRentalRequest(vehicle.ID))
	require.NoError(t, err)
	id := uuid.MustParse(created.ID)

	req := baseRentalRequest(vehicle.ID)
	req.EndDate = "2024-01-04"
	updated, err := env.rentals.Update(context.Background(), nil, id, req)
	require.NoError(t, err)
	assert.Equal(t, 4, updated.DurationDays)
}

func TestRentalOdometerValidation(t *testing.T) {
	env := newTestEnv(t)
	vehicle := env.seedVehicle(t, "AB123CD", 50000)

	req := baseRentalRequest(vehicle.ID)
	req.OdometerStart = intPtr(50000)
	req.OdometerEnd = intPtr(49000)
	_, err := env.rentals.Create(context.Background(), nil, req)

	var fieldErrs fielderr.Errors
	require.ErrorAs(t, err, &fieldErrs)
	assert.True(t, fieldErrs.Has("odometer_end_km"))
}

func TestCompletingRentalRequiresOdometerEnd(t *testing.T) {
	env := newTestEnv(t)
	vehicle := env.seedVehicle(t, "AB123CD", 50000)

	req := baseRentalRequest(vehicle.ID)
	req.Status = model.RentalStatusCompleted
	_, err := env.rentals.Create(context.Background(), nil, req)

	var fieldErrs fielderr.Errors
	require.ErrorAs(t, err, &fieldErrs)
	assert.True(t, fieldErrs.Has("odometer_end_km"))
}

func TestCompletingRentalPushesMileageAndLogsOdometer(t *testing.T) {
	env := newTestEnv(t)
	vehicle := env.seedVehicle(t, "AB123CD", 50000)
	ctx := context.Background()

	created, err := env.rentals.Create(ctx, nil, baseRentalRequest(vehicle.ID))
	require.NoError(t, err)
	id := uuid.MustParse(created.ID)

	req := baseRentalRequest(vehicle.ID)
	req.Status = model.RentalStatusCompleted
	req.OdometerStart = intPtr(50000)
	req.OdometerEnd = intPtr(50480)
	_, err = env.rentals.Update(ctx, nil, id, req)
	require.NoError(t, err)

	fresh, err := env.vehicleRepo.FindByID(ctx, vehicle.ID)
	require.NoError(t, err)
	assert.Equal(t, 50480, fresh.MileageKm)
	assert.Equal(t, model.VehicleStatusAvailable, fresh.Status)

	logs, err := env.vehicleRepo.ListOdometerLogs(ctx, vehicle.ID, 10)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, 50480, logs[0].MileageKm)
	require.NotNil(t, logs[0].RentalID)
	assert.Equal(t, id, *logs[0].RentalID)
}

func TestEditingCompletedRentalRepushesOdometer(t *testing.T) {
	env := newTestEnv(t)
	vehicle := env.seedVehicle(t, "AB123CD", 50000)
	ctx := context.Background()

	created, err := env.rentals.Create(ctx, nil, baseRentalRequest(vehicle.ID))
	require.NoError(t, err)
	id := uuid.MustParse(created.ID)

	req := baseRentalRequest(vehicle.ID)
	req.Status = model.RentalStatusCompleted
	req.OdometerStart = intPtr(50000)
	req.OdometerEnd = intPtr(50480)
	_, err = env.rentals.Update(ctx, nil, id, req)
	require.NoError(t, err)

	// Correcting the closing reading of an already-completed rental pushes
	// the new value onto the vehicle and appends another log row.
	req.OdometerEnd = intPtr(50900)
	_, err = env.rentals.Update(ctx, nil, id, req)
	require.NoError(t, err)

	fresh, err := env.vehicleRepo.FindByID(ctx, vehicle.ID)
	require.NoError(t, err)
	assert.Equal(t, 50900, fresh.MileageKm)

	logs, err := env.vehicleRepo.ListOdometerLogs(ctx, vehicle.ID, 10)
	require.NoError(t, err)
	assert.Len(t, logs, 2)
}

func TestRentalStatusDrivesVehicleStatus(t *testing.T) {
	env := newTestEnv(t)
	vehicle := env.seedVehicle(t, "AB123CD", 50000)
	ctx := context.Background()

	created, err := env.rentals.Create(ctx, nil, baseRentalRequest(vehicle.ID))
	require.NoError(t, err)
	id := uuid.MustParse(created.ID)

	fresh, err := env.vehicleRepo.FindByID(ctx, vehicle.ID)
	require.NoError(t, err)
	assert.Equal(t, model.VehicleStatusReserved, fresh.Status)

	req := baseRentalRequest(vehicle.ID)
	req.Status = model.RentalStatusInProgress
	_, err = env.rentals.Update(ctx, nil, id, req)
	require.NoError(t, err)

	fresh, err = env.vehicleRepo.FindByID(ctx, vehicle.ID)
	require.NoError(t, err)
	assert.Equal(t, model.VehicleStatusRented, fresh.Status)
}

func TestManualMaintenanceStatusWinsOverRental(t *testing.T) {
	env := newTestEnv(t)
	vehicle := env.seedVehicle(t, "AB123CD", 50000)
	ctx := context.Background()

	require.NoError(t, env.vehicleRepo.UpdateStatus(ctx, vehicle.ID, model.VehicleStatusMaintenance))

	_, err := env.rentals.Create(ctx, nil, baseRentalRequest(vehicle.ID))
	require.NoError(t, err)

	fresh, err := env.vehicleRepo.FindByID(ctx, vehicle.ID)
	require.NoError(t, err)
	assert.Equal(t, model.VehicleStatusMaintenance, fresh.Status)
}

func TestDeleteRentalFreesVehicle(t *testing.T) {
	env := newTestEnv(t)
	vehicle := env.seedVehicle(t, "AB123CD", 50000)
	ctx := context.Background()

	created, err := env.rentals.Create(ctx, nil, baseRentalRequest(vehicle.ID))
	require.NoError(t, err)

	require.NoError(t, env.rentals.Delete(ctx, nil, uuid.MustParse(created.ID)))

	fresh, err := env.vehicleRepo.FindByID(ctx, vehicle.ID)
	require.NoError(t, err)
	assert.Equal(t, model.VehicleStatusAvailable, fresh.Status)
}

func TestClientHistoryAggregates(t *testing.T) {
	env := newTestEnv(t)
	vehicle := env.seedVehicle(t, "AB123CD", 50000)
	ctx := context.Background()

	first := baseRentalRequest(vehicle.ID)
	_, err := env.rentals.Create(ctx, nil, first)
	require.NoError(t, err)

	second := baseRentalRequest(vehicle.ID)
	second.StartDate = "2024-02-01"
	second.EndDate = "2024-02-02"
	_, err = env.rentals.Create(ctx, nil, second)
	require.NoError(t, err)

	history, err := env.rentals.ClientHistory(ctx, "30111222", 1, 50)
	require.NoError(t, err)
	assert.Equal(t, int64(2), history.Summary.TotalRentals)
	assert.Equal(t, "500", history.Summary.TotalAmount)
	assert.Len(t, history.Rentals, 2)
}

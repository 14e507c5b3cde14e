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

func baseMaintenanceRequest(vehicleID uuid.UUID) MaintenanceRequest {
	return MaintenanceRequest{
		VehicleID:   vehicleID.String(),
		ServiceType: "oil change",
		ServiceDate: "2024-03-15",
		MileageKm:   intPtr(45000),
		Cost:        "180.00",
		Status:      model.MaintenanceStatusCompleted,
	}
}

func TestMaintenanceSuggestsNextServiceDate(t *testing.T) {
	env := newTestEnv(t)
	vehicle := env.seedVehicle(t, "MT001AA", 45000)
	ctx := context.Background()

	cases := []struct {
		serviceType string
		expected    string
	}{
		{"oil change", "2024-09-15"},
		{"cambio de aceite", "2024-09-15"},
		{"tire rotation", "2024-06-15"},
		{"neumaticos delanteros", "2024-06-15"},
		{"ITV", "2025-03-15"},
		{"annual inspection", "2025-03-15"},
		{"brake pads", "2024-09-15"},
	}
	for _, tc := range cases {
		req := baseMaintenanceRequest(vehicle.ID)
		req.ServiceType = tc.serviceType
		record, err := env.maintenance.Create(ctx, nil, req)
		require.NoError(t, err, tc.serviceType)
		assert.Equal(t, tc.expected, record.NextServiceDate, tc.serviceType)
	}
}

func TestMaintenanceKeepsExplicitNextServiceDate(t *testing.T) {
	env := newTestEnv(t)
	vehicle := env.seedVehicle(t, "MT001AA", 45000)

	req := baseMaintenanceRequest(vehicle.ID)
	req.NextServiceDate = "2024-05-01"
	record, err := env.maintenance.Create(context.Background(), nil, req)
	require.NoError(t, err)

	assert.Equal(t, "2024-05-01", record.NextServiceDate)
}

func TestMaintenanceValidatesCostAndDate(t *testing.T) {
	env := newTestEnv(t)
	vehicle := env.seedVehicle(t, "MT001AA", 45000)

	req := baseMaintenanceRequest(vehicle.ID)
	req.Cost = "-12"
	req.ServiceDate = "15/03/2024"
	_, err := env.maintenance.Create(context.Background(), nil, req)

	var fieldErrs fielderr.Errors
	require.ErrorAs(t, err, &fieldErrs)
	assert.True(t, fieldErrs.Has("cost"))
	assert.True(t, fieldErrs.Has("service_date"))
}

func TestMaintenanceRollsPlanForward(t *testing.T) {
	env := newTestEnv(t)
	vehicle := env.seedVehicle(t, "MT001AA", 45000)
	ctx := context.Background()

	plan, err := env.plans.Create(ctx, nil, PlanRequest{
		VehicleID:       vehicle.ID.String(),
		ServiceType:     "oil change",
		IntervalMonths:  intPtr(6),
		IntervalKm:      intPtr(10000),
		LastServiceDate: "2024-01-01",
		LastServiceKm:   intPtr(40000),
	})
	require.NoError(t, err)
	require.Equal(t, "2024-07-01", plan.NextServiceDate)

	_, err = env.maintenance.Create(ctx, nil, baseMaintenanceRequest(vehicle.ID))
	require.NoError(t, err)

	rolled, err := env.plans.Get(ctx, uuid.MustParse(plan.ID))
	require.NoError(t, err)
	assert.Equal(t, "2024-03-15", rolled.LastServiceDate)
	require.NotNil(t, rolled.LastServiceKm)
	assert.Equal(t, 45000, *rolled.LastServiceKm)
	assert.Equal(t, "2024-09-15", rolled.NextServiceDate)
	require.NotNil(t, rolled.NextServiceKm)
	assert.Equal(t, 55000, *rolled.NextServiceKm)

	fresh, err := env.vehicleRepo.FindByID(ctx, vehicle.ID)
	require.NoError(t, err)
	require.NotNil(t, fresh.NextServiceDate)
	assert.Equal(t, "2024-09-15", formatDate(*fresh.NextServiceDate))
}

func TestMaintenanceWithoutMatchingPlanLeavesPlansAlone(t *testing.T) {
	env := newTestEnv(t)
	vehicle := env.seedVehicle(t, "MT001AA", 45000)
	ctx := context.Background()

	plan, err := env.plans.Create(ctx, nil, PlanRequest{
		VehicleID:       vehicle.ID.String(),
		ServiceType:     "tire rotation",
		IntervalMonths:  intPtr(3),
		LastServiceDate: "2024-01-01",
	})
	require.NoError(t, err)

	_, err = env.maintenance.Create(ctx, nil, baseMaintenanceRequest(vehicle.ID))
	require.NoError(t, err)

	unchanged, err := env.plans.Get(ctx, uuid.MustParse(plan.ID))
	require.NoError(t, err)
	assert.Equal(t, "2024-01-01", unchanged.LastServiceDate)
	assert.Equal(t, "2024-04-01", unchanged.NextServiceDate)
}

func TestMaintenanceListFilters(t *testing.T) {
	env := newTestEnv(t)
	vehicle := env.seedVehicle(t, "MT001AA", 45000)
	other := env.seedVehicle(t, "MT002BB", 20000)
	ctx := context.Background()

	_, err := env.maintenance.Create(ctx, nil, baseMaintenanceRequest(vehicle.ID))
	require.NoError(t, err)

	req := baseMaintenanceRequest(other.ID)
	req.ServiceType = "brake pads"
	req.ServiceDate = "2024-05-20"
	_, err = env.maintenance.Create(ctx, nil, req)
	require.NoError(t, err)

	records, total, err := env.maintenance.List(ctx, MaintenanceListQuery{VehicleID: vehicle.ID.String()}, 1, 50)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, records, 1)
	assert.Equal(t, "oil change", records[0].ServiceType)

	records, total, err = env.maintenance.List(ctx, MaintenanceListQuery{DateFrom: "2024-05-01"}, 1, 50)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, records, 1)
	assert.Equal(t, "brake pads", records[0].ServiceType)
}

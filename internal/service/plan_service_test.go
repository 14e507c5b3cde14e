package service

import (
	"context"
	"testing"

	"autoflow/pkg/fielderr"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlanDerivesNextServiceFromIntervals(t *testing.T) {
	env := newTestEnv(t)
	vehicle := env.seedVehicle(t, "PL001AA", 40000)

	plan, err := env.plans.Create(context.Background(), nil, PlanRequest{
		VehicleID:       vehicle.ID.String(),
		ServiceType:     "oil change",
		IntervalMonths:  intPtr(6),
		IntervalKm:      intPtr(10000),
		LastServiceDate: "2024-01-01",
		LastServiceKm:   intPtr(40000),
	})
	require.NoError(t, err)

	assert.Equal(t, "2024-07-01", plan.NextServiceDate)
	require.NotNil(t, plan.NextServiceKm)
	assert.Equal(t, 50000, *plan.NextServiceKm)
}

func TestPlanExplicitNextValuesWin(t *testing.T) {
	env := newTestEnv(t)
	vehicle := env.seedVehicle(t, "PL001AA", 40000)

	plan, err := env.plans.Create(context.Background(), nil, PlanRequest{
		VehicleID:       vehicle.ID.String(),
		ServiceType:     "oil change",
		IntervalMonths:  intPtr(6),
		LastServiceDate: "2024-01-01",
		NextServiceDate: "2024-05-15",
	})
	require.NoError(t, err)

	assert.Equal(t, "2024-05-15", plan.NextServiceDate)
}

func TestPlanRequiresIntervalOrTarget(t *testing.T) {
	env := newTestEnv(t)
	vehicle := env.seedVehicle(t, "PL001AA", 40000)

	_, err := env.plans.Create(context.Background(), nil, PlanRequest{
		VehicleID:   vehicle.ID.String(),
		ServiceType: "oil change",
	})

	var fieldErrs fielderr.Errors
	require.ErrorAs(t, err, &fieldErrs)
	assert.True(t, fieldErrs.Has("interval_months"))
}

func TestPlanSyncWritesMinProjectionOntoVehicle(t *testing.T) {
	env := newTestEnv(t)
	vehicle := env.seedVehicle(t, "PL001AA", 40000)
	ctx := context.Background()

	_, err := env.plans.Create(ctx, nil, PlanRequest{
		VehicleID:       vehicle.ID.String(),
		ServiceType:     "oil change",
		IntervalMonths:  intPtr(6),
		IntervalKm:      intPtr(10000),
		LastServiceDate: "2024-01-01",
		LastServiceKm:   intPtr(40000),
	})
	require.NoError(t, err)

	_, err = env.plans.Create(ctx, nil, PlanRequest{
		VehicleID:       vehicle.ID.String(),
		ServiceType:     "tire rotation",
		IntervalMonths:  intPtr(3),
		IntervalKm:      intPtr(5000),
		LastServiceDate: "2024-01-01",
		LastServiceKm:   intPtr(40000),
	})
	require.NoError(t, err)

	fresh, err := env.vehicleRepo.FindByID(ctx, vehicle.ID)
	require.NoError(t, err)
	require.NotNil(t, fresh.NextServiceDate)
	assert.Equal(t, "2024-04-01", formatDate(*fresh.NextServiceDate))
	require.NotNil(t, fresh.NextServiceKm)
	assert.Equal(t, 45000, *fresh.NextServiceKm)
}

func TestInactivePlanExcludedFromProjection(t *testing.T) {
	env := newTestEnv(t)
	vehicle := env.seedVehicle(t, "PL001AA", 40000)
	ctx := context.Background()

	created, err := env.plans.Create(ctx, nil, PlanRequest{
		VehicleID:       vehicle.ID.String(),
		ServiceType:     "oil change",
		IntervalMonths:  intPtr(6),
		LastServiceDate: "2024-01-01",
	})
	require.NoError(t, err)

	inactive := false
	_, err = env.plans.Update(ctx, nil, uuid.MustParse(created.ID), PlanRequest{
		VehicleID:       vehicle.ID.String(),
		ServiceType:     "oil change",
		IntervalMonths:  intPtr(6),
		LastServiceDate: "2024-01-01",
		IsActive:        &inactive,
	})
	require.NoError(t, err)

	fresh, err := env.vehicleRepo.FindByID(ctx, vehicle.ID)
	require.NoError(t, err)
	assert.Nil(t, fresh.NextServiceDate)
	assert.Nil(t, fresh.NextServiceKm)
}

func TestDeletePlanResyncsProjection(t *testing.T) {
	env := newTestEnv(t)
	vehicle := env.seedVehicle(t, "PL001AA", 40000)
	ctx := context.Background()

	created, err := env.plans.Create(ctx, nil, PlanRequest{
		VehicleID:       vehicle.ID.String(),
		ServiceType:     "oil change",
		IntervalMonths:  intPtr(6),
		LastServiceDate: "2024-01-01",
	})
	require.NoError(t, err)

	require.NoError(t, env.plans.Delete(ctx, nil, uuid.MustParse(created.ID)))

	fresh, err := env.vehicleRepo.FindByID(ctx, vehicle.ID)
	require.NoError(t, err)
	assert.Nil(t, fresh.NextServiceDate)
}

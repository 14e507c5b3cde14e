package service

import (
	"context"
	"testing"

	"autoflow/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDashboardOverviewAggregates(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	rented := env.seedVehicle(t, "DB001AA", 100)
	env.seedVehicle(t, "DB002BB", 200)

	req := baseRentalRequest(rented.ID)
	req.StartDate = formatDate(today())
	req.EndDate = formatDate(today().AddDate(0, 0, 2))
	_, err := env.rentals.Create(ctx, nil, req)
	require.NoError(t, err)

	maint := baseMaintenanceRequest(rented.ID)
	maint.NextServiceDate = formatDate(today().AddDate(0, 0, 7))
	_, err = env.maintenance.Create(ctx, nil, maint)
	require.NoError(t, err)

	overview, err := env.dashboard.Overview(ctx)
	require.NoError(t, err)

	assert.Equal(t, 2, overview.Stats.TotalVehicles)
	assert.Equal(t, 1, overview.Stats.AvailableVehicles)
	assert.Equal(t, 1, overview.Stats.ActiveRentals)
	assert.Equal(t, 50, overview.Stats.UtilizationPercent)
	assert.Equal(t, "300", overview.Stats.RentalRevenue30d)
	assert.InDelta(t, 3.0, overview.Stats.AvgRentalDuration, 0.001)

	require.Len(t, overview.RecentRentals, 1)
	assert.Equal(t, model.RentalStatusConfirmed, overview.RecentRentals[0].Status)
	require.Len(t, overview.UpcomingMaintenance, 1)
}

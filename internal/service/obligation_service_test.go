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

func TestPendingObligationPastDuePromotedToOverdue(t *testing.T) {
	env := newTestEnv(t)
	vehicle := env.seedVehicle(t, "OB001AA", 100)

	obligation, err := env.obligations.Create(context.Background(), nil, ObligationRequest{
		VehicleID:      vehicle.ID.String(),
		ObligationType: model.ObligationTypeTax,
		DueDate:        formatDate(today().AddDate(0, 0, -10)),
		Amount:         "120.50",
		Status:         model.ObligationStatusPending,
	})
	require.NoError(t, err)

	assert.Equal(t, model.ObligationStatusOverdue, obligation.Status)
	assert.Equal(t, "120.50", obligation.Amount)
}

func TestOverdueObligationFutureDueDemotedToPending(t *testing.T) {
	env := newTestEnv(t)
	vehicle := env.seedVehicle(t, "OB001AA", 100)

	obligation, err := env.obligations.Create(context.Background(), nil, ObligationRequest{
		VehicleID:      vehicle.ID.String(),
		ObligationType: model.ObligationTypeInsurance,
		DueDate:        formatDate(today().AddDate(0, 0, 30)),
		Status:         model.ObligationStatusOverdue,
	})
	require.NoError(t, err)

	assert.Equal(t, model.ObligationStatusPending, obligation.Status)
}

func TestPaidObligationDefaultsPaidAtToToday(t *testing.T) {
	env := newTestEnv(t)
	vehicle := env.seedVehicle(t, "OB001AA", 100)

	obligation, err := env.obligations.Create(context.Background(), nil, ObligationRequest{
		VehicleID:      vehicle.ID.String(),
		ObligationType: model.ObligationTypeInsurance,
		DueDate:        formatDate(today().AddDate(0, 0, 30)),
		Status:         model.ObligationStatusPaid,
	})
	require.NoError(t, err)

	assert.Equal(t, model.ObligationStatusPaid, obligation.Status)
	assert.Equal(t, formatDate(today()), obligation.PaidAt)
}

func TestReopeningObligationClearsPaidAt(t *testing.T) {
	env := newTestEnv(t)
	vehicle := env.seedVehicle(t, "OB001AA", 100)
	ctx := context.Background()

	dueDate := formatDate(today().AddDate(0, 0, 30))
	created, err := env.obligations.Create(ctx, nil, ObligationRequest{
		VehicleID:      vehicle.ID.String(),
		ObligationType: model.ObligationTypeRegistration,
		DueDate:        dueDate,
		Status:         model.ObligationStatusPaid,
	})
	require.NoError(t, err)
	require.NotEmpty(t, created.PaidAt)

	updated, err := env.obligations.Update(ctx, nil, uuid.MustParse(created.ID), ObligationRequest{
		VehicleID:      vehicle.ID.String(),
		ObligationType: model.ObligationTypeRegistration,
		DueDate:        dueDate,
		Status:         model.ObligationStatusPending,
		PaidAt:         created.PaidAt,
	})
	require.NoError(t, err)

	assert.Equal(t, model.ObligationStatusPending, updated.Status)
	assert.Empty(t, updated.PaidAt)
}

func TestObligationRejectsNegativeAmount(t *testing.T) {
	env := newTestEnv(t)
	vehicle := env.seedVehicle(t, "OB001AA", 100)

	_, err := env.obligations.Create(context.Background(), nil, ObligationRequest{
		VehicleID:      vehicle.ID.String(),
		ObligationType: model.ObligationTypeTax,
		DueDate:        formatDate(today()),
		Amount:         "-5",
	})

	var fieldErrs fielderr.Errors
	require.ErrorAs(t, err, &fieldErrs)
	assert.True(t, fieldErrs.Has("amount"))
}

func TestObligationListReturnsSummary(t *testing.T) {
	env := newTestEnv(t)
	vehicle := env.seedVehicle(t, "OB001AA", 100)
	ctx := context.Background()

	_, err := env.obligations.Create(ctx, nil, ObligationRequest{
		VehicleID:      vehicle.ID.String(),
		ObligationType: model.ObligationTypeTax,
		DueDate:        formatDate(today().AddDate(0, 0, 15)),
		Amount:         "100",
	})
	require.NoError(t, err)

	_, err = env.obligations.Create(ctx, nil, ObligationRequest{
		VehicleID:      vehicle.ID.String(),
		ObligationType: model.ObligationTypeInsurance,
		DueDate:        formatDate(today().AddDate(0, 0, -5)),
		Amount:         "50",
	})
	require.NoError(t, err)

	_, err = env.obligations.Create(ctx, nil, ObligationRequest{
		VehicleID:      vehicle.ID.String(),
		ObligationType: model.ObligationTypeRegistration,
		DueDate:        formatDate(today().AddDate(0, 0, 60)),
		Amount:         "30",
		Status:         model.ObligationStatusPaid,
	})
	require.NoError(t, err)

	result, total, summary, err := env.obligations.List(ctx, ObligationListQuery{}, 1, 50)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Len(t, result, 3)
	assert.Equal(t, int64(1), summary.PendingCount)
	assert.Equal(t, int64(1), summary.OverdueCount)
	assert.Equal(t, int64(1), summary.PaidCount)
	assert.Equal(t, "150", summary.PendingAmount)
}

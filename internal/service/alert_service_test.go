package service

import (
	"context"
	"testing"

	"autoflow/internal/model"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingBroadcaster struct {
	events []interface{}
}

func (b *recordingBroadcaster) BroadcastJSON(v interface{}) {
	b.events = append(b.events, v)
}

func (e *testEnv) setVehicleDates(t *testing.T, vehicle *model.Vehicle, mutate func(*model.Vehicle)) {
	t.Helper()
	mutate(vehicle)
	require.NoError(t, e.vehicleRepo.Update(context.Background(), vehicle))
}

func TestSweepRaisesMaintenanceDateAlert(t *testing.T) {
	env := newTestEnv(t)
	vehicle := env.seedVehicle(t, "AL001AA", 100)
	ctx := context.Background()

	due := today().AddDate(0, 0, -1)
	env.setVehicleDates(t, vehicle, func(v *model.Vehicle) { v.NextServiceDate = &due })

	result, err := env.alerts.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Raised)

	open, err := env.alertRepo.ListOpen(ctx)
	require.NoError(t, err)
	require.Len(t, open, 1)
	assert.Equal(t, model.AlertTypeMaintenanceDueDate, open[0].AlertType)
	assert.Equal(t, vehicle.ID, open[0].EntityID)
}

func TestSweepIgnoresFutureServiceDate(t *testing.T) {
	env := newTestEnv(t)
	vehicle := env.seedVehicle(t, "AL001AA", 100)
	ctx := context.Background()

	due := today().AddDate(0, 0, 14)
	env.setVehicleDates(t, vehicle, func(v *model.Vehicle) { v.NextServiceDate = &due })

	result, err := env.alerts.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, result.Raised)
}

func TestSweepRaisesMileageAlert(t *testing.T) {
	env := newTestEnv(t)
	vehicle := env.seedVehicle(t, "AL001AA", 60000)
	ctx := context.Background()

	env.setVehicleDates(t, vehicle, func(v *model.Vehicle) { v.NextServiceKm = intPtr(55000) })

	result, err := env.alerts.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Raised)

	open, err := env.alertRepo.ListOpen(ctx)
	require.NoError(t, err)
	require.Len(t, open, 1)
	assert.Equal(t, model.AlertTypeMaintenanceDueKm, open[0].AlertType)
}

func TestSweepRaisesComplianceAlerts(t *testing.T) {
	env := newTestEnv(t)
	vehicle := env.seedVehicle(t, "AL001AA", 100)
	ctx := context.Background()

	past := today().AddDate(0, -1, 0)
	env.setVehicleDates(t, vehicle, func(v *model.Vehicle) {
		v.RegistrationDueDate = &past
		v.InsuranceDueDate = &past
	})

	result, err := env.alerts.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Raised)

	open, err := env.alertRepo.ListOpen(ctx)
	require.NoError(t, err)
	types := make([]string, 0, len(open))
	for _, a := range open {
		types = append(types, a.AlertType)
	}
	assert.ElementsMatch(t, []string{model.AlertTypeRegistrationDue, model.AlertTypeInsuranceDue}, types)
}

func TestSweepRaisesObligationAlert(t *testing.T) {
	env := newTestEnv(t)
	vehicle := env.seedVehicle(t, "AL001AA", 100)
	ctx := context.Background()

	created, err := env.obligations.Create(ctx, nil, ObligationRequest{
		VehicleID:      vehicle.ID.String(),
		ObligationType: model.ObligationTypeTax,
		DueDate:        formatDate(today()),
		Amount:         "80",
	})
	require.NoError(t, err)

	result, err := env.alerts.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Raised)

	open, err := env.alertRepo.ListOpen(ctx)
	require.NoError(t, err)
	require.Len(t, open, 1)
	assert.Equal(t, model.AlertEntityObligation, open[0].EntityType)
	assert.Equal(t, created.ID, open[0].EntityID.String())
	assert.Equal(t, model.AlertTypeObligationDue, open[0].AlertType)
}

func TestSweepDeduplicatesOpenAlerts(t *testing.T) {
	env := newTestEnv(t)
	vehicle := env.seedVehicle(t, "AL001AA", 100)
	ctx := context.Background()

	due := today()
	env.setVehicleDates(t, vehicle, func(v *model.Vehicle) { v.NextServiceDate = &due })

	first, err := env.alerts.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, first.Raised)

	second, err := env.alerts.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, second.Raised)

	open, err := env.alertRepo.ListOpen(ctx)
	require.NoError(t, err)
	assert.Len(t, open, 1)
}

func TestDismissedAlertCanBeRaisedAgain(t *testing.T) {
	env := newTestEnv(t)
	vehicle := env.seedVehicle(t, "AL001AA", 100)
	ctx := context.Background()

	due := today()
	env.setVehicleDates(t, vehicle, func(v *model.Vehicle) { v.NextServiceDate = &due })

	_, err := env.alerts.Sweep(ctx)
	require.NoError(t, err)

	open, err := env.alertRepo.ListOpen(ctx)
	require.NoError(t, err)
	require.Len(t, open, 1)
	require.NoError(t, env.alerts.Dismiss(ctx, open[0].ID))

	// The condition still holds, so the next sweep opens a fresh alert.
	result, err := env.alerts.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Raised)
}

func TestSweepIfDueThrottles(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	first, err := env.alerts.SweepIfDue(ctx)
	require.NoError(t, err)
	assert.False(t, first.Skipped)

	second, err := env.alerts.SweepIfDue(ctx)
	require.NoError(t, err)
	assert.True(t, second.Skipped)
}

func TestAlertTransitions(t *testing.T) {
	env := newTestEnv(t)
	vehicle := env.seedVehicle(t, "AL001AA", 100)
	ctx := context.Background()

	due := today()
	env.setVehicleDates(t, vehicle, func(v *model.Vehicle) { v.NextServiceDate = &due })
	_, err := env.alerts.Sweep(ctx)
	require.NoError(t, err)

	open, err := env.alertRepo.ListOpen(ctx)
	require.NoError(t, err)
	require.Len(t, open, 1)

	require.NoError(t, env.alerts.Resolve(ctx, open[0].ID))
	fresh, err := env.alertRepo.FindByID(ctx, open[0].ID)
	require.NoError(t, err)
	assert.Equal(t, model.AlertStatusResolved, fresh.Status)

	assert.ErrorIs(t, env.alerts.Dismiss(ctx, uuid.New()), ErrNotFound)
}

func TestRaisedAlertIsBroadcast(t *testing.T) {
	env := newTestEnv(t)
	vehicle := env.seedVehicle(t, "AL001AA", 100)
	ctx := context.Background()

	due := today()
	env.setVehicleDates(t, vehicle, func(v *model.Vehicle) { v.NextServiceDate = &due })

	broadcaster := &recordingBroadcaster{}
	log := logrus.New()
	log.SetLevel(logrus.ErrorLevel)
	alerts := NewAlertService(env.alertRepo, env.vehicleRepo, env.obligationRepo, broadcaster, log)

	result, err := alerts.Sweep(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, result.Raised)

	require.Len(t, broadcaster.events, 1)
	event, ok := broadcaster.events[0].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "alert.raised", event["event"])
}

package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"autoflow/internal/model"
	"autoflow/internal/repository"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// sweepInterval is the minimum gap between opportunistic sweeps. Explicit
// sweep requests bypass it.
const sweepInterval = time.Hour

// --- DTOs ---

type AlertResponse struct {
	ID         string `json:"id"`
	EntityType string `json:"entity_type"`
	EntityID   string `json:"entity_id"`
	AlertType  string `json:"alert_type"`
	Title      string `json:"title"`
	Message    string `json:"message"`
	DueDate    string `json:"due_date,omitempty"`
	Status     string `json:"status"`
	CreatedAt  string `json:"created_at"`
}

type AlertListQuery struct {
	Status    string `form:"status"`
	AlertType string `form:"alert_type"`
}

type SweepResult struct {
	Raised  int  `json:"raised"`
	Skipped bool `json:"skipped"`
}

// --- Interface ---

// Broadcaster pushes raised alerts to connected clients. The websocket hub
// satisfies it.
type Broadcaster interface {
	BroadcastJSON(v interface{})
}

type AlertService interface {
	// Sweep scans vehicles and obligations and raises deduplicated alerts.
	Sweep(ctx context.Context) (SweepResult, error)
	// SweepIfDue runs Sweep at most once per sweepInterval across the
	// process. Callers on the hot path use this.
	SweepIfDue(ctx context.Context) (SweepResult, error)
	List(ctx context.Context, query AlertListQuery, page, limit int) ([]AlertResponse, int64, error)
	Dismiss(ctx context.Context, id uuid.UUID) error
	Resolve(ctx context.Context, id uuid.UUID) error
}

type alertService struct {
	alertRepo      repository.AlertRepository
	vehicleRepo    repository.VehicleRepository
	obligationRepo repository.ObligationRepository
	broadcaster    Broadcaster
	log            *logrus.Logger

	mu        sync.Mutex
	lastSweep time.Time
}

func NewAlertService(
	alertRepo repository.AlertRepository,
	vehicleRepo repository.VehicleRepository,
	obligationRepo repository.ObligationRepository,
	broadcaster Broadcaster,
	log *logrus.Logger,
) AlertService {
	return &alertService{
		alertRepo:      alertRepo,
		vehicleRepo:    vehicleRepo,
		obligationRepo: obligationRepo,
		broadcaster:    broadcaster,
		log:            log,
	}
}

// --- Implementation ---

func (s *alertService) SweepIfDue(ctx context.Context) (SweepResult, error) {
	s.mu.Lock()
	if time.Since(s.lastSweep) < sweepInterval {
		s.mu.Unlock()
		return SweepResult{Skipped: true}, nil
	}
	s.lastSweep = time.Now()
	s.mu.Unlock()

	return s.Sweep(ctx)
}

func (s *alertService) Sweep(ctx context.Context) (SweepResult, error) {
	now := today()
	raised := 0

	vehicles, err := s.vehicleRepo.ListAll(ctx)
	if err != nil {
		return SweepResult{}, fmt.Errorf("failed to scan vehicles: %w", err)
	}
	for i := range vehicles {
		n, err := s.sweepVehicle(ctx, &vehicles[i], now)
		if err != nil {
			return SweepResult{}, err
		}
		raised += n
	}

	obligations, err := s.obligationRepo.ListDue(ctx, now)
	if err != nil {
		return SweepResult{}, fmt.Errorf("failed to scan obligations: %w", err)
	}
	for i := range obligations {
		o := &obligations[i]
		due := o.DueDate
		n, err := s.raise(ctx, model.Alert{
			EntityType: model.AlertEntityObligation,
			EntityID:   o.ID,
			AlertType:  model.AlertTypeObligationDue,
			Title:      fmt.Sprintf("%s payment due", o.ObligationType),
			Message:    obligationAlertMessage(o),
			DueDate:    &due,
		})
		if err != nil {
			return SweepResult{}, err
		}
		raised += n
	}

	if raised > 0 {
		s.log.WithField("raised", raised).Info("alert sweep raised alerts")
	}
	return SweepResult{Raised: raised}, nil
}

func (s *alertService) List(ctx context.Context, query AlertListQuery, page, limit int) ([]AlertResponse, int64, error) {
	filter := repository.AlertFilter{Status: query.Status, AlertType: query.AlertType}
	alerts, total, err := s.alertRepo.List(ctx, filter, page, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch alerts: %w", err)
	}

	result := make([]AlertResponse, 0, len(alerts))
	for _, a := range alerts {
		result = append(result, toAlertResponse(a))
	}
	return result, total, nil
}

func (s *alertService) Dismiss(ctx context.Context, id uuid.UUID) error {
	return s.transition(ctx, id, model.AlertStatusDismissed)
}

func (s *alertService) Resolve(ctx context.Context, id uuid.UUID) error {
	return s.transition(ctx, id, model.AlertStatusResolved)
}

// --- Helpers ---

func (s *alertService) transition(ctx context.Context, id uuid.UUID, status string) error {
	if _, err := s.alertRepo.FindByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}
	return s.alertRepo.UpdateStatus(ctx, id, status)
}

func (s *alertService) sweepVehicle(ctx context.Context, v *model.Vehicle, now time.Time) (int, error) {
	raised := 0
	label := fmt.Sprintf("%s %s (%s)", v.Brand, v.Model, v.LicensePlate)

	checks := []struct {
		condition bool
		alertType string
		title     string
		message   string
		dueDate   *time.Time
	}{
		{
			condition: v.NextServiceDate != nil && !v.NextServiceDate.After(now),
			alertType: model.AlertTypeMaintenanceDueDate,
			title:     "Maintenance due",
			message:   fmt.Sprintf("%s reached its scheduled service date", label),
			dueDate:   v.NextServiceDate,
		},
		{
			condition: v.NextServiceKm != nil && v.MileageKm >= *v.NextServiceKm,
			alertType: model.AlertTypeMaintenanceDueKm,
			title:     "Maintenance due by mileage",
			message:   fmt.Sprintf("%s is at %d km, service target %d km", label, v.MileageKm, derefInt(v.NextServiceKm)),
		},
		{
			condition: v.RegistrationDueDate != nil && !v.RegistrationDueDate.After(now),
			alertType: model.AlertTypeRegistrationDue,
			title:     "Registration expired",
			message:   fmt.Sprintf("%s registration is due", label),
			dueDate:   v.RegistrationDueDate,
		},
		{
			condition: v.InsuranceDueDate != nil && !v.InsuranceDueDate.After(now),
			alertType: model.AlertTypeInsuranceDue,
			title:     "Insurance expired",
			message:   fmt.Sprintf("%s insurance is due", label),
			dueDate:   v.InsuranceDueDate,
		},
	}

	for _, check := range checks {
		if !check.condition {
			continue
		}
		n, err := s.raise(ctx, model.Alert{
			EntityType: model.AlertEntityVehicle,
			EntityID:   v.ID,
			AlertType:  check.alertType,
			Title:      check.title,
			Message:    check.message,
			DueDate:    check.dueDate,
		})
		if err != nil {
			return raised, err
		}
		raised += n
	}
	return raised, nil
}

// raise inserts the alert unless an open one already exists for the same
// (entity, type). Plain check-then-insert, same race window as the rest of
// the write path.
func (s *alertService) raise(ctx context.Context, alert model.Alert) (int, error) {
	_, err := s.alertRepo.FindOpen(ctx, alert.EntityType, alert.EntityID, alert.AlertType)
	if err == nil {
		return 0, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, fmt.Errorf("failed to check for open alert: %w", err)
	}

	alert.Status = model.AlertStatusOpen
	if err := s.alertRepo.Create(ctx, &alert); err != nil {
		return 0, fmt.Errorf("failed to raise alert: %w", err)
	}

	if s.broadcaster != nil {
		s.broadcaster.BroadcastJSON(map[string]interface{}{
			"event": "alert.raised",
			"alert": toAlertResponse(alert),
		})
	}
	return 1, nil
}

func obligationAlertMessage(o *model.VehicleObligation) string {
	if o.Vehicle != nil {
		return fmt.Sprintf("%s %s (%s): %s due %s",
			o.Vehicle.Brand, o.Vehicle.Model, o.Vehicle.LicensePlate,
			o.ObligationType, formatDate(o.DueDate))
	}
	return fmt.Sprintf("%s due %s", o.ObligationType, formatDate(o.DueDate))
}

func derefInt(v *int) int {
	if v == nil {
		return 0
	}
	return *v
}

func toAlertResponse(a model.Alert) AlertResponse {
	return AlertResponse{
		ID:         a.ID.String(),
		EntityType: a.EntityType,
		EntityID:   a.EntityID.String(),
		AlertType:  a.AlertType,
		Title:      a.Title,
		Message:    a.Message,
		DueDate:    formatOptionalDate(a.DueDate),
		Status:     a.Status,
		CreatedAt:  a.CreatedAt.Format(time.RFC3339),
	}
}

package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"autoflow/internal/model"
	"autoflow/internal/repository"
	"autoflow/pkg/fielderr"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// --- DTOs ---

type ObligationRequest struct {
	VehicleID      string `json:"vehicle_id" binding:"required"`
	ObligationType string `json:"obligation_type" binding:"required"`
	DueDate        string `json:"due_date" binding:"required"` // YYYY-MM-DD
	Amount         string `json:"amount"`                      // Decimal string
	Status         string `json:"status"`
	PaidAt         string `json:"paid_at"`
	Notes          string `json:"notes"`
}

type ObligationListQuery struct {
	Status    string `form:"status"`
	Type      string `form:"type"`
	VehicleID string `form:"vehicle_id"`
	DueBefore string `form:"due_before"`
}

type ObligationResponse struct {
	ID             string `json:"id"`
	VehicleID      string `json:"vehicle_id"`
	VehicleLabel   string `json:"vehicle_label,omitempty"`
	ObligationType string `json:"obligation_type"`
	DueDate        string `json:"due_date"`
	Amount         string `json:"amount"`
	Status         string `json:"status"`
	PaidAt         string `json:"paid_at,omitempty"`
	Notes          string `json:"notes"`
	CreatedAt      string `json:"created_at"`
}

// --- Interface ---

type ObligationService interface {
	Create(ctx context.Context, userID *uuid.UUID, req ObligationRequest) (ObligationResponse, error)
	Update(ctx context.Context, userID *uuid.UUID, id uuid.UUID, req ObligationRequest) (ObligationResponse, error)
	Get(ctx context.Context, id uuid.UUID) (ObligationResponse, error)
	List(ctx context.Context, query ObligationListQuery, page, limit int) ([]ObligationResponse, int64, repository.ObligationSummary, error)
	Delete(ctx context.Context, userID *uuid.UUID, id uuid.UUID) error
}

type obligationService struct {
	obligationRepo repository.ObligationRepository
	vehicleRepo    repository.VehicleRepository
	audit          AuditService
}

func NewObligationService(
	obligationRepo repository.ObligationRepository,
	vehicleRepo repository.VehicleRepository,
	audit AuditService,
) ObligationService {
	return &obligationService{
		obligationRepo: obligationRepo,
		vehicleRepo:    vehicleRepo,
		audit:          audit,
	}
}

// --- Implementation ---

func (s *obligationService) Create(ctx context.Context, userID *uuid.UUID, req ObligationRequest) (ObligationResponse, error) {
	obligation := model.VehicleObligation{Status: model.ObligationStatusPending}
	if err := s.applyRequest(ctx, &obligation, req); err != nil {
		return ObligationResponse{}, err
	}

	if err := s.obligationRepo.Create(ctx, &obligation); err != nil {
		return ObligationResponse{}, fmt.Errorf("failed to create obligation: %w", err)
	}

	s.audit.Record(ctx, userID, model.AuditActionCreate, model.AuditEntityObligation, &obligation.ID,
		fmt.Sprintf("%s obligation due %s created", obligation.ObligationType, formatDate(obligation.DueDate)),
		nil, obligation)

	return toObligationResponse(obligation), nil
}

func (s *obligationService) Update(ctx context.Context, userID *uuid.UUID, id uuid.UUID, req ObligationRequest) (ObligationResponse, error) {
	obligation, err := s.obligationRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ObligationResponse{}, ErrNotFound
		}
		return ObligationResponse{}, err
	}
	before := *obligation

	if err := s.applyRequest(ctx, obligation, req); err != nil {
		return ObligationResponse{}, err
	}

	if err := s.obligationRepo.Update(ctx, obligation); err != nil {
		return ObligationResponse{}, fmt.Errorf("failed to update obligation: %w", err)
	}

	s.audit.Record(ctx, userID, model.AuditActionUpdate, model.AuditEntityObligation, &obligation.ID,
		fmt.Sprintf("%s obligation updated (%s)", obligation.ObligationType, obligation.Status),
		before, obligation)

	return toObligationResponse(*obligation), nil
}

func (s *obligationService) Get(ctx context.Context, id uuid.UUID) (ObligationResponse, error) {
	obligation, err := s.obligationRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ObligationResponse{}, ErrNotFound
		}
		return ObligationResponse{}, err
	}
	return toObligationResponse(*obligation), nil
}

func (s *obligationService) List(ctx context.Context, query ObligationListQuery, page, limit int) ([]ObligationResponse, int64, repository.ObligationSummary, error) {
	filter := repository.ObligationFilter{
		Status: query.Status,
		Type:   query.Type,
	}
	if query.VehicleID != "" {
		id, err := uuid.Parse(query.VehicleID)
		if err != nil {
			return nil, 0, repository.ObligationSummary{}, fmt.Errorf("invalid vehicle_id: %w", err)
		}
		filter.VehicleID = id
	}
	dueBefore, err := parseOptionalDate(query.DueBefore)
	if err != nil {
		return nil, 0, repository.ObligationSummary{}, err
	}
	filter.DueBefore = dueBefore

	obligations, total, err := s.obligationRepo.List(ctx, filter, page, limit)
	if err != nil {
		return nil, 0, repository.ObligationSummary{}, fmt.Errorf("failed to fetch obligations: %w", err)
	}
	summary, err := s.obligationRepo.Summary(ctx)
	if err != nil {
		return nil, 0, repository.ObligationSummary{}, fmt.Errorf("failed to summarize obligations: %w", err)
	}

	result := make([]ObligationResponse, 0, len(obligations))
	for _, o := range obligations {
		result = append(result, toObligationResponse(o))
	}
	return result, total, summary, nil
}

func (s *obligationService) Delete(ctx context.Context, userID *uuid.UUID, id uuid.UUID) error {
	obligation, err := s.obligationRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}

	if err := s.obligationRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete obligation: %w", err)
	}

	s.audit.Record(ctx, userID, model.AuditActionDelete, model.AuditEntityObligation, &id,
		fmt.Sprintf("%s obligation deleted", obligation.ObligationType), obligation, nil)

	return nil
}

// --- Helpers ---

func (s *obligationService) applyRequest(ctx context.Context, obligation *model.VehicleObligation, req ObligationRequest) error {
	ferr := fielderr.New()

	vehicleID, err := uuid.Parse(req.VehicleID)
	if err != nil {
		ferr.Add("vehicle_id", "is invalid")
		return ferr
	}
	if _, err := s.vehicleRepo.FindByID(ctx, vehicleID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ferr.Add("vehicle_id", "vehicle not found")
			return ferr
		}
		return err
	}

	if !contains(model.ObligationTypeOptions, req.ObligationType) {
		ferr.Add("obligation_type", "is invalid")
	}

	dueDate, err := parseDate(req.DueDate)
	if err != nil {
		ferr.Add("due_date", "must be YYYY-MM-DD")
	}

	status := req.Status
	if status == "" {
		status = obligation.Status
	}
	if !contains(model.ObligationStatusOptions, status) {
		ferr.Add("status", "is invalid")
	}

	amount := decimal.Zero
	if req.Amount != "" {
		parsed, err := decimal.NewFromString(req.Amount)
		if err != nil || parsed.IsNegative() {
			ferr.Add("amount", "must be a non-negative amount")
		} else {
			amount = parsed
		}
	}

	paidAt, err := parseOptionalDate(req.PaidAt)
	if err != nil {
		ferr.Add("paid_at", "must be YYYY-MM-DD")
	}

	if ferr.Any() {
		return ferr
	}

	// Status rules run before validation so a stale status submitted by the
	// form is normalized rather than rejected.
	status, paidAt = normalizeObligationStatus(status, dueDate, paidAt)

	if status == model.ObligationStatusPaid && paidAt == nil {
		ferr.Add("paid_at", "is required when status is paid")
		return ferr
	}

	obligation.VehicleID = vehicleID
	obligation.ObligationType = req.ObligationType
	obligation.DueDate = dueDate
	obligation.Amount = amount
	obligation.Status = status
	obligation.PaidAt = paidAt
	obligation.Notes = req.Notes

	return nil
}

// normalizeObligationStatus applies the paid_at defaults and the automatic
// pending<->overdue promotion based on the due date.
func normalizeObligationStatus(status string, dueDate time.Time, paidAt *time.Time) (string, *time.Time) {
	now := today()
	switch {
	case status == model.ObligationStatusPaid:
		if paidAt == nil {
			paidAt = &now
		}
	default:
		paidAt = nil
		if status == model.ObligationStatusPending && dueDate.Before(now) {
			status = model.ObligationStatusOverdue
		} else if status == model.ObligationStatusOverdue && !dueDate.Before(now) {
			status = model.ObligationStatusPending
		}
	}
	return status, paidAt
}

func toObligationResponse(o model.VehicleObligation) ObligationResponse {
	resp := ObligationResponse{
		ID:             o.ID.String(),
		VehicleID:      o.VehicleID.String(),
		ObligationType: o.ObligationType,
		DueDate:        formatDate(o.DueDate),
		Amount:         o.Amount.StringFixed(2),
		Status:         o.Status,
		PaidAt:         formatOptionalDate(o.PaidAt),
		Notes:          o.Notes,
		CreatedAt:      o.CreatedAt.Format(time.RFC3339),
	}
	if o.Vehicle != nil {
		resp.VehicleLabel = fmt.Sprintf("%s %s (%s)", o.Vehicle.Brand, o.Vehicle.Model, o.Vehicle.LicensePlate)
	}
	return resp
}

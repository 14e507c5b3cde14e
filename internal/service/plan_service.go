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
	"gorm.io/gorm"
)

// --- DTOs ---

type PlanRequest struct {
	VehicleID       string `json:"vehicle_id" binding:"required"`
	ServiceType     string `json:"service_type" binding:"required"`
	IntervalKm      *int   `json:"interval_km"`
	IntervalMonths  *int   `json:"interval_months"`
	LastServiceDate string `json:"last_service_date"` // YYYY-MM-DD
	LastServiceKm   *int   `json:"last_service_km"`
	NextServiceDate string `json:"next_service_date"`
	NextServiceKm   *int   `json:"next_service_km"`
	IsActive        *bool  `json:"is_active"`
	Notes           string `json:"notes"`
}

type PlanListQuery struct {
	VehicleID string `form:"vehicle_id"`
	IsActive  *bool  `form:"is_active"`
}

type PlanResponse struct {
	ID              string `json:"id"`
	VehicleID       string `json:"vehicle_id"`
	VehicleLabel    string `json:"vehicle_label,omitempty"`
	ServiceType     string `json:"service_type"`
	IntervalKm      *int   `json:"interval_km"`
	IntervalMonths  *int   `json:"interval_months"`
	LastServiceDate string `json:"last_service_date,omitempty"`
	LastServiceKm   *int   `json:"last_service_km"`
	NextServiceDate string `json:"next_service_date,omitempty"`
	NextServiceKm   *int   `json:"next_service_km"`
	IsActive        bool   `json:"is_active"`
	Notes           string `json:"notes"`
	CreatedAt       string `json:"created_at"`
}

// --- Interface ---

type PlanService interface {
	Create(ctx context.Context, userID *uuid.UUID, req PlanRequest) (PlanResponse, error)
	Update(ctx context.Context, userID *uuid.UUID, id uuid.UUID, req PlanRequest) (PlanResponse, error)
	Get(ctx context.Context, id uuid.UUID) (PlanResponse, error)
	List(ctx context.Context, query PlanListQuery, page, limit int) ([]PlanResponse, int64, error)
	Delete(ctx context.Context, userID *uuid.UUID, id uuid.UUID) error

	// RollForward moves the newest active plan matching (vehicle, service
	// type) past a completed service and re-syncs the vehicle projection.
	RollForward(ctx context.Context, vehicleID uuid.UUID, serviceType string, serviceDate time.Time, serviceKm *int) error
	// SyncVehicleProjection writes MIN(next date) and MIN(next km) across the
	// vehicle's active plans onto the vehicle record.
	SyncVehicleProjection(ctx context.Context, vehicleID uuid.UUID) error
}

type planService struct {
	planRepo    repository.PlanRepository
	vehicleRepo repository.VehicleRepository
	audit       AuditService
}

func NewPlanService(
	planRepo repository.PlanRepository,
	vehicleRepo repository.VehicleRepository,
	audit AuditService,
) PlanService {
	return &planService{
		planRepo:    planRepo,
		vehicleRepo: vehicleRepo,
		audit:       audit,
	}
}

// --- Implementation ---

func (s *planService) Create(ctx context.Context, userID *uuid.UUID, req PlanRequest) (PlanResponse, error) {
	plan := model.MaintenancePlan{IsActive: true}
	if err := s.applyRequest(ctx, &plan, req); err != nil {
		return PlanResponse{}, err
	}

	if err := s.planRepo.Create(ctx, &plan); err != nil {
		return PlanResponse{}, fmt.Errorf("failed to create maintenance plan: %w", err)
	}
	if err := s.SyncVehicleProjection(ctx, plan.VehicleID); err != nil {
		return PlanResponse{}, err
	}

	s.audit.Record(ctx, userID, model.AuditActionCreate, model.AuditEntityMaintenancePlan, &plan.ID,
		fmt.Sprintf("maintenance plan %q created", plan.ServiceType), nil, plan)

	return toPlanResponse(plan), nil
}

func (s *planService) Update(ctx context.Context, userID *uuid.UUID, id uuid.UUID, req PlanRequest) (PlanResponse, error) {
	plan, err := s.planRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return PlanResponse{}, ErrNotFound
		}
		return PlanResponse{}, err
	}
	before := *plan

	if err := s.applyRequest(ctx, plan, req); err != nil {
		return PlanResponse{}, err
	}

	if err := s.planRepo.Update(ctx, plan); err != nil {
		return PlanResponse{}, fmt.Errorf("failed to update maintenance plan: %w", err)
	}
	if err := s.SyncVehicleProjection(ctx, plan.VehicleID); err != nil {
		return PlanResponse{}, err
	}

	s.audit.Record(ctx, userID, model.AuditActionUpdate, model.AuditEntityMaintenancePlan, &plan.ID,
		fmt.Sprintf("maintenance plan %q updated", plan.ServiceType), before, plan)

	return toPlanResponse(*plan), nil
}

func (s *planService) Get(ctx context.Context, id uuid.UUID) (PlanResponse, error) {
	plan, err := s.planRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return PlanResponse{}, ErrNotFound
		}
		return PlanResponse{}, err
	}
	return toPlanResponse(*plan), nil
}

func (s *planService) List(ctx context.Context, query PlanListQuery, page, limit int) ([]PlanResponse, int64, error) {
	filter := repository.PlanFilter{IsActive: query.IsActive}
	if query.VehicleID != "" {
		id, err := uuid.Parse(query.VehicleID)
		if err != nil {
			return nil, 0, fmt.Errorf("invalid vehicle_id: %w", err)
		}
		filter.VehicleID = id
	}

	plans, total, err := s.planRepo.List(ctx, filter, page, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch maintenance plans: %w", err)
	}

	result := make([]PlanResponse, 0, len(plans))
	for _, p := range plans {
		result = append(result, toPlanResponse(p))
	}
	return result, total, nil
}

func (s *planService) Delete(ctx context.Context, userID *uuid.UUID, id uuid.UUID) error {
	plan, err := s.planRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}

	if err := s.planRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete maintenance plan: %w", err)
	}
	if err := s.SyncVehicleProjection(ctx, plan.VehicleID); err != nil {
		return err
	}

	s.audit.Record(ctx, userID, model.AuditActionDelete, model.AuditEntityMaintenancePlan, &id,
		fmt.Sprintf("maintenance plan %q deleted", plan.ServiceType), plan, nil)

	return nil
}

func (s *planService) RollForward(ctx context.Context, vehicleID uuid.UUID, serviceType string, serviceDate time.Time, serviceKm *int) error {
	plan, err := s.planRepo.FindActiveByService(ctx, vehicleID, serviceType)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return fmt.Errorf("failed to look up active plan: %w", err)
	}

	date := serviceDate
	plan.LastServiceDate = &date
	if serviceKm != nil {
		km := *serviceKm
		plan.LastServiceKm = &km
	}
	plan.NextServiceDate = nil
	plan.NextServiceKm = nil
	applyPlanDerivedValues(plan)

	if err := s.planRepo.Update(ctx, plan); err != nil {
		return fmt.Errorf("failed to roll plan forward: %w", err)
	}
	return s.SyncVehicleProjection(ctx, vehicleID)
}

func (s *planService) SyncVehicleProjection(ctx context.Context, vehicleID uuid.UUID) error {
	agg, err := s.planRepo.AggregateNextService(ctx, vehicleID)
	if err != nil {
		return fmt.Errorf("failed to aggregate next service: %w", err)
	}
	if err := s.vehicleRepo.UpdateNextService(ctx, vehicleID, agg.NextDate, agg.NextKm); err != nil {
		return fmt.Errorf("failed to sync vehicle projection: %w", err)
	}
	return nil
}

// --- Helpers ---

func (s *planService) applyRequest(ctx context.Context, plan *model.MaintenancePlan, req PlanRequest) error {
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

	if req.ServiceType == "" {
		ferr.Add("service_type", "is required")
	}
	if req.IntervalKm != nil && *req.IntervalKm <= 0 {
		ferr.Add("interval_km", "must be positive")
	}
	if req.IntervalMonths != nil && *req.IntervalMonths <= 0 {
		ferr.Add("interval_months", "must be positive")
	}

	lastDate, err := parseOptionalDate(req.LastServiceDate)
	if err != nil {
		ferr.Add("last_service_date", "must be YYYY-MM-DD")
	}
	nextDate, err := parseOptionalDate(req.NextServiceDate)
	if err != nil {
		ferr.Add("next_service_date", "must be YYYY-MM-DD")
	}

	if req.IntervalKm == nil && req.IntervalMonths == nil && nextDate == nil && req.NextServiceKm == nil {
		ferr.Add("interval_months", "set an interval or an explicit next service target")
	}

	if ferr.Any() {
		return ferr
	}

	plan.VehicleID = vehicleID
	plan.ServiceType = req.ServiceType
	plan.IntervalKm = req.IntervalKm
	plan.IntervalMonths = req.IntervalMonths
	plan.LastServiceDate = lastDate
	plan.LastServiceKm = req.LastServiceKm
	plan.NextServiceDate = nextDate
	plan.NextServiceKm = req.NextServiceKm
	if req.IsActive != nil {
		plan.IsActive = *req.IsActive
	}
	plan.Notes = req.Notes

	applyPlanDerivedValues(plan)
	return nil
}

// applyPlanDerivedValues fills in missing next-service targets from the last
// service plus the configured interval.
func applyPlanDerivedValues(plan *model.MaintenancePlan) {
	if plan.NextServiceDate == nil && plan.LastServiceDate != nil && plan.IntervalMonths != nil {
		next := addMonths(*plan.LastServiceDate, *plan.IntervalMonths)
		plan.NextServiceDate = &next
	}
	if plan.NextServiceKm == nil && plan.LastServiceKm != nil && plan.IntervalKm != nil {
		next := *plan.LastServiceKm + *plan.IntervalKm
		plan.NextServiceKm = &next
	}
}

func toPlanResponse(p model.MaintenancePlan) PlanResponse {
	resp := PlanResponse{
		ID:              p.ID.String(),
		VehicleID:       p.VehicleID.String(),
		ServiceType:     p.ServiceType,
		IntervalKm:      p.IntervalKm,
		IntervalMonths:  p.IntervalMonths,
		LastServiceDate: formatOptionalDate(p.LastServiceDate),
		LastServiceKm:   p.LastServiceKm,
		NextServiceDate: formatOptionalDate(p.NextServiceDate),
		NextServiceKm:   p.NextServiceKm,
		IsActive:        p.IsActive,
		Notes:           p.Notes,
		CreatedAt:       p.CreatedAt.Format(time.RFC3339),
	}
	if p.Vehicle != nil {
		resp.VehicleLabel = fmt.Sprintf("%s %s (%s)", p.Vehicle.Brand, p.Vehicle.Model, p.Vehicle.LicensePlate)
	}
	return resp
}

package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"autoflow/internal/model"
	"autoflow/internal/repository"
	"autoflow/pkg/fielderr"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// --- DTOs ---

type MaintenanceRequest struct {
	VehicleID       string `json:"vehicle_id" binding:"required"`
	ServiceType     string `json:"service_type" binding:"required"`
	Description     string `json:"description"`
	ServiceDate     string `json:"service_date" binding:"required"` // YYYY-MM-DD
	MileageKm       *int   `json:"mileage_km"`
	Cost            string `json:"cost"` // Decimal string
	Status          string `json:"status"`
	NextServiceDate string `json:"next_service_date"`
}

type MaintenanceListQuery struct {
	Search    string `form:"search"`
	Status    string `form:"status"`
	VehicleID string `form:"vehicle_id"`
	DateFrom  string `form:"date_from"`
	DateTo    string `form:"date_to"`
}

type MaintenanceResponse struct {
	ID              string `json:"id"`
	VehicleID       string `json:"vehicle_id"`
	VehicleLabel    string `json:"vehicle_label,omitempty"`
	ServiceType     string `json:"service_type"`
	Description     string `json:"description"`
	ServiceDate     string `json:"service_date"`
	MileageKm       *int   `json:"mileage_km"`
	Cost            string `json:"cost"`
	Status          string `json:"status"`
	NextServiceDate string `json:"next_service_date,omitempty"`
	CreatedAt       string `json:"created_at"`
}

// --- Interface ---

type MaintenanceService interface {
	Create(ctx context.Context, userID *uuid.UUID, req MaintenanceRequest) (MaintenanceResponse, error)
	Update(ctx context.Context, userID *uuid.UUID, id uuid.UUID, req MaintenanceRequest) (MaintenanceResponse, error)
	Get(ctx context.Context, id uuid.UUID) (MaintenanceResponse, error)
	List(ctx context.Context, query MaintenanceListQuery, page, limit int) ([]MaintenanceResponse, int64, error)
	Delete(ctx context.Context, userID *uuid.UUID, id uuid.UUID) error
}

type maintenanceService struct {
	maintenanceRepo repository.MaintenanceRepository
	vehicleRepo     repository.VehicleRepository
	plans           PlanService
	audit           AuditService
}

func NewMaintenanceService(
	maintenanceRepo repository.MaintenanceRepository,
	vehicleRepo repository.VehicleRepository,
	plans PlanService,
	audit AuditService,
) MaintenanceService {
	return &maintenanceService{
		maintenanceRepo: maintenanceRepo,
		vehicleRepo:     vehicleRepo,
		plans:           plans,
		audit:           audit,
	}
}

// --- Implementation ---

func (s *maintenanceService) Create(ctx context.Context, userID *uuid.UUID, req MaintenanceRequest) (MaintenanceResponse, error) {
	record := model.MaintenanceRecord{Status: model.MaintenanceStatusPending}
	if err := s.applyRequest(ctx, &record, req); err != nil {
		return MaintenanceResponse{}, err
	}

	if err := s.maintenanceRepo.Create(ctx, &record); err != nil {
		return MaintenanceResponse{}, fmt.Errorf("failed to create maintenance record: %w", err)
	}
	if err := s.plans.RollForward(ctx, record.VehicleID, record.ServiceType, record.ServiceDate, record.MileageKm); err != nil {
		return MaintenanceResponse{}, err
	}

	s.audit.Record(ctx, userID, model.AuditActionCreate, model.AuditEntityMaintenance, &record.ID,
		fmt.Sprintf("maintenance %q on %s recorded", record.ServiceType, formatDate(record.ServiceDate)),
		nil, record)

	return toMaintenanceResponse(record), nil
}

func (s *maintenanceService) Update(ctx context.Context, userID *uuid.UUID, id uuid.UUID, req MaintenanceRequest) (MaintenanceResponse, error) {
	record, err := s.maintenanceRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return MaintenanceResponse{}, ErrNotFound
		}
		return MaintenanceResponse{}, err
	}
	before := *record

	if err := s.applyRequest(ctx, record, req); err != nil {
		return MaintenanceResponse{}, err
	}

	if err := s.maintenanceRepo.Update(ctx, record); err != nil {
		return MaintenanceResponse{}, fmt.Errorf("failed to update maintenance record: %w", err)
	}
	if err := s.plans.RollForward(ctx, record.VehicleID, record.ServiceType, record.ServiceDate, record.MileageKm); err != nil {
		return MaintenanceResponse{}, err
	}

	s.audit.Record(ctx, userID, model.AuditActionUpdate, model.AuditEntityMaintenance, &record.ID,
		fmt.Sprintf("maintenance %q updated", record.ServiceType), before, record)

	return toMaintenanceResponse(*record), nil
}

func (s *maintenanceService) Get(ctx context.Context, id uuid.UUID) (MaintenanceResponse, error) {
	record, err := s.maintenanceRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return MaintenanceResponse{}, ErrNotFound
		}
		return MaintenanceResponse{}, err
	}
	return toMaintenanceResponse(*record), nil
}

func (s *maintenanceService) List(ctx context.Context, query MaintenanceListQuery, page, limit int) ([]MaintenanceResponse, int64, error) {
	filter := repository.MaintenanceFilter{
		Search: query.Search,
		Status: query.Status,
	}
	if query.VehicleID != "" {
		id, err := uuid.Parse(query.VehicleID)
		if err != nil {
			return nil, 0, fmt.Errorf("invalid vehicle_id: %w", err)
		}
		filter.VehicleID = id
	}
	from, err := parseOptionalDate(query.DateFrom)
	if err != nil {
		return nil, 0, err
	}
	filter.DateFrom = from
	to, err := parseOptionalDate(query.DateTo)
	if err != nil {
		return nil, 0, err
	}
	filter.DateTo = to

	records, total, err := s.maintenanceRepo.List(ctx, filter, page, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch maintenance records: %w", err)
	}

	result := make([]MaintenanceResponse, 0, len(records))
	for _, m := range records {
		result = append(result, toMaintenanceResponse(m))
	}
	return result, total, nil
}

func (s *maintenanceService) Delete(ctx context.Context, userID *uuid.UUID, id uuid.UUID) error {
	record, err := s.maintenanceRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}

	if err := s.maintenanceRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete maintenance record: %w", err)
	}

	s.audit.Record(ctx, userID, model.AuditActionDelete, model.AuditEntityMaintenance, &id,
		fmt.Sprintf("maintenance %q deleted", record.ServiceType), record, nil)

	return nil
}

// --- Helpers ---

func (s *maintenanceService) applyRequest(ctx context.Context, record *model.MaintenanceRecord, req MaintenanceRequest) error {
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

	serviceDate, err := parseDate(req.ServiceDate)
	if err != nil {
		ferr.Add("service_date", "must be YYYY-MM-DD")
	}

	status := req.Status
	if status == "" {
		status = record.Status
	}
	if !contains(model.MaintenanceStatusOptions, status) {
		ferr.Add("status", "is invalid")
	}

	if req.MileageKm != nil && *req.MileageKm < 0 {
		ferr.Add("mileage_km", "must not be negative")
	}

	cost := decimal.Zero
	if req.Cost != "" {
		parsed, err := decimal.NewFromString(req.Cost)
		if err != nil || parsed.IsNegative() {
			ferr.Add("cost", "must be a non-negative amount")
		} else {
			cost = parsed
		}
	}

	nextDate, err := parseOptionalDate(req.NextServiceDate)
	if err != nil {
		ferr.Add("next_service_date", "must be YYYY-MM-DD")
	}

	if ferr.Any() {
		return ferr
	}

	if nextDate == nil {
		suggested := suggestNextServiceDate(req.ServiceType, serviceDate)
		nextDate = &suggested
	}

	record.VehicleID = vehicleID
	record.ServiceType = req.ServiceType
	record.Description = req.Description
	record.ServiceDate = serviceDate
	record.MileageKm = req.MileageKm
	record.Cost = cost
	record.Status = status
	record.NextServiceDate = nextDate

	return nil
}

// suggestNextServiceDate picks a follow-up date from keywords in the service
// type: oil changes get six months, tires three, inspections a year.
func suggestNextServiceDate(serviceType string, serviceDate time.Time) time.Time {
	lower := strings.ToLower(serviceType)
	switch {
	case strings.Contains(lower, "oil") || strings.Contains(lower, "aceite"):
		return addMonths(serviceDate, 6)
	case strings.Contains(lower, "tire") || strings.Contains(lower, "neum"):
		return addMonths(serviceDate, 3)
	case strings.Contains(lower, "itv") || strings.Contains(lower, "tecnica") || strings.Contains(lower, "inspection"):
		return addMonths(serviceDate, 12)
	default:
		return addMonths(serviceDate, 6)
	}
}

func toMaintenanceResponse(m model.MaintenanceRecord) MaintenanceResponse {
	resp := MaintenanceResponse{
		ID:              m.ID.String(),
		VehicleID:       m.VehicleID.String(),
		ServiceType:     m.ServiceType,
		Description:     m.Description,
		ServiceDate:     formatDate(m.ServiceDate),
		MileageKm:       m.MileageKm,
		Cost:            m.Cost.StringFixed(2),
		Status:          m.Status,
		NextServiceDate: formatOptionalDate(m.NextServiceDate),
		CreatedAt:       m.CreatedAt.Format(time.RFC3339),
	}
	if m.Vehicle != nil {
		resp.VehicleLabel = fmt.Sprintf("%s %s (%s)", m.Vehicle.Brand, m.Vehicle.Model, m.Vehicle.LicensePlate)
	}
	return resp
}

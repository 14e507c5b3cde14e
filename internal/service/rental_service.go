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

type RentalRequest struct {
	VehicleID      string `json:"vehicle_id" binding:"required"`
	ClientName     string `json:"client_name" binding:"required"`
	ClientDocument string `json:"client_document" binding:"required"`
	ClientPhone    string `json:"client_phone"`
	StartDate      string `json:"start_date" binding:"required"` // YYYY-MM-DD
	EndDate        string `json:"end_date" binding:"required"`
	DailyRate      string `json:"daily_rate"` // Decimal string, defaults to the vehicle's rate
	OdometerStart  *int   `json:"odometer_start_km"`
	OdometerEnd    *int   `json:"odometer_end_km"`
	Status         string `json:"status"`
	Notes          string `json:"notes"`
}

type RentalListQuery struct {
	Search    string `form:"search"`
	Status    string `form:"status"`
	VehicleID string `form:"vehicle_id"`
	DateFrom  string `form:"date_from"`
	DateTo    string `form:"date_to"`
}

type RentalResponse struct {
	ID             string `json:"id"`
	VehicleID      string `json:"vehicle_id"`
	VehicleLabel   string `json:"vehicle_label,omitempty"`
	ClientName     string `json:"client_name"`
	ClientDocument string `json:"client_document"`
	ClientPhone    string `json:"client_phone"`
	StartDate      string `json:"start_date"`
	EndDate        string `json:"end_date"`
	DurationDays   int    `json:"duration_days"`
	DailyRate      string `json:"daily_rate"`
	TotalAmount    string `json:"total_amount"`
	OdometerStart  *int   `json:"odometer_start_km"`
	OdometerEnd    *int   `json:"odometer_end_km"`
	Status         string `json:"status"`
	Notes          string `json:"notes"`
	CreatedAt      string `json:"created_at"`
}

type ClientHistoryResponse struct {
	Identifier string                   `json:"identifier"`
	Summary    repository.ClientSummary `json:"summary"`
	Rentals    []RentalResponse         `json:"rentals"`
	Total      int64                    `json:"total"`
}

// --- Interface ---

type RentalService interface {
	Create(ctx context.Context, userID *uuid.UUID, req RentalRequest) (RentalResponse, error)
	Update(ctx context.Context, userID *uuid.UUID, id uuid.UUID, req RentalRequest) (RentalResponse, error)
	Get(ctx context.Context, id uuid.UUID) (RentalResponse, error)
	List(ctx context.Context, query RentalListQuery, page, limit int) ([]RentalResponse, int64, error)
	Delete(ctx context.Context, userID *uuid.UUID, id uuid.UUID) error
	ClientHistory(ctx context.Context, identifier string, page, limit int) (ClientHistoryResponse, error)
}

type rentalService struct {
	rentalRepo  repository.RentalRepository
	vehicleRepo repository.VehicleRepository
	vehicles    VehicleService
	txManager   repository.TransactionManager
	audit       AuditService
}

func NewRentalService(
	rentalRepo repository.RentalRepository,
	vehicleRepo repository.VehicleRepository,
	vehicles VehicleService,
	txManager repository.TransactionManager,
	audit AuditService,
) RentalService {
	return &rentalService{
		rentalRepo:  rentalRepo,
		vehicleRepo: vehicleRepo,
		vehicles:    vehicles,
		txManager:   txManager,
		audit:       audit,
	}
}

// --- Implementation ---

func (s *rentalService) Create(ctx context.Context, userID *uuid.UUID, req RentalRequest) (RentalResponse, error) {
	rental := model.Rental{Status: model.RentalStatusDraft}
	if err := s.applyRequest(ctx, &rental, req); err != nil {
		return RentalResponse{}, err
	}

	if err := s.persist(ctx, &rental, rental.Status == model.RentalStatusCompleted); err != nil {
		return RentalResponse{}, err
	}

	s.audit.Record(ctx, userID, model.AuditActionCreate, model.AuditEntityRental, &rental.ID,
		fmt.Sprintf("rental for %s (%s to %s) created", rental.ClientName,
			formatDate(rental.StartDate), formatDate(rental.EndDate)),
		nil, rental)

	return toRentalResponse(rental), nil
}

func (s *rentalService) Update(ctx context.Context, userID *uuid.UUID, id uuid.UUID, req RentalRequest) (RentalResponse, error) {
	rental, err := s.rentalRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return RentalResponse{}, ErrNotFound
		}
		return RentalResponse{}, err
	}
	before := *rental

	if err := s.applyRequest(ctx, rental, req); err != nil {
		return RentalResponse{}, err
	}

	// Every save of a completed rental re-pushes the closing odometer, so a
	// corrected reading still reaches the vehicle. The guarded mileage update
	// keeps re-pushes monotonic.
	if err := s.persist(ctx, rental, rental.Status == model.RentalStatusCompleted); err != nil {
		return RentalResponse{}, err
	}

	s.audit.Record(ctx, userID, model.AuditActionUpdate, model.AuditEntityRental, &rental.ID,
		fmt.Sprintf("rental for %s updated (%s)", rental.ClientName, rental.Status), before, rental)

	return toRentalResponse(*rental), nil
}

func (s *rentalService) Get(ctx context.Context, id uuid.UUID) (RentalResponse, error) {
	rental, err := s.rentalRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return RentalResponse{}, ErrNotFound
		}
		return RentalResponse{}, err
	}
	return toRentalResponse(*rental), nil
}

func (s *rentalService) List(ctx context.Context, query RentalListQuery, page, limit int) ([]RentalResponse, int64, error) {
	filter := repository.RentalFilter{
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

	rentals, total, err := s.rentalRepo.List(ctx, filter, page, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch rentals: %w", err)
	}

	result := make([]RentalResponse, 0, len(rentals))
	for _, r := range rentals {
		result = append(result, toRentalResponse(r))
	}
	return result, total, nil
}

func (s *rentalService) Delete(ctx context.Context, userID *uuid.UUID, id uuid.UUID) error {
	rental, err := s.rentalRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}

	if err := s.rentalRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete rental: %w", err)
	}
	// Deleting a booking frees the calendar the same way a cancellation does.
	if err := s.vehicles.ApplyRentalStatus(ctx, rental.VehicleID, model.RentalStatusCancelled); err != nil {
		return err
	}

	s.audit.Record(ctx, userID, model.AuditActionDelete, model.AuditEntityRental, &id,
		fmt.Sprintf("rental for %s deleted", rental.ClientName), rental, nil)

	return nil
}

func (s *rentalService) ClientHistory(ctx context.Context, identifier string, page, limit int) (ClientHistoryResponse, error) {
	summary, err := s.rentalRepo.SummaryByClient(ctx, identifier)
	if err != nil {
		return ClientHistoryResponse{}, fmt.Errorf("failed to summarize client history: %w", err)
	}
	rentals, total, err := s.rentalRepo.ListByClient(ctx, identifier, page, limit)
	if err != nil {
		return ClientHistoryResponse{}, fmt.Errorf("failed to fetch client rentals: %w", err)
	}

	resp := ClientHistoryResponse{
		Identifier: identifier,
		Summary:    summary,
		Total:      total,
		Rentals:    make([]RentalResponse, 0, len(rentals)),
	}
	for _, r := range rentals {
		resp.Rentals = append(resp.Rentals, toRentalResponse(r))
	}
	return resp, nil
}

// --- Helpers ---

// applyRequest validates the request, runs the overlap check and recomputes
// the derived duration and total.
func (s *rentalService) applyRequest(ctx context.Context, rental *model.Rental, req RentalRequest) error {
	ferr := fielderr.New()

	vehicleID, err := uuid.Parse(req.VehicleID)
	if err != nil {
		ferr.Add("vehicle_id", "is invalid")
		return ferr
	}
	vehicle, err := s.vehicleRepo.FindByID(ctx, vehicleID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ferr.Add("vehicle_id", "vehicle not found")
			return ferr
		}
		return err
	}

	if req.ClientName == "" {
		ferr.Add("client_name", "is required")
	}
	if req.ClientDocument == "" {
		ferr.Add("client_document", "is required")
	}

	start, err := parseDate(req.StartDate)
	if err != nil {
		ferr.Add("start_date", "must be YYYY-MM-DD")
	}
	end, err := parseDate(req.EndDate)
	if err != nil {
		ferr.Add("end_date", "must be YYYY-MM-DD")
	}
	if !ferr.Has("start_date") && !ferr.Has("end_date") && end.Before(start) {
		ferr.Add("end_date", "must not be before start_date")
	}

	status := req.Status
	if status == "" {
		status = rental.Status
	}
	if !contains(model.RentalStatusOptions, status) {
		ferr.Add("status", "is invalid")
	}

	rate := vehicle.DailyRate
	if req.DailyRate != "" {
		parsed, err := decimal.NewFromString(req.DailyRate)
		if err != nil || parsed.IsNegative() {
			ferr.Add("daily_rate", "must be a non-negative amount")
		} else {
			rate = parsed
		}
	}

	if req.OdometerStart != nil && *req.OdometerStart < 0 {
		ferr.Add("odometer_start_km", "must not be negative")
	}
	if req.OdometerEnd != nil && *req.OdometerEnd < 0 {
		ferr.Add("odometer_end_km", "must not be negative")
	}
	if req.OdometerStart != nil && req.OdometerEnd != nil && *req.OdometerEnd < *req.OdometerStart {
		ferr.Add("odometer_end_km", "must not be below odometer_start_km")
	}
	if status == model.RentalStatusCompleted && req.OdometerEnd == nil {
		ferr.Add("odometer_end_km", "is required to complete a rental")
	}

	if ferr.Any() {
		return ferr
	}

	// Blocking states claim the calendar; drafts and closed rentals do not.
	if contains(model.RentalBlockingStatuses, status) {
		overlapping, err := s.rentalRepo.FindOverlapping(ctx, vehicleID, start, end, rental.ID)
		if err != nil {
			return fmt.Errorf("failed to run overlap check: %w", err)
		}
		if len(overlapping) > 0 {
			ferr.Add("start_date", "vehicle is already booked in this period")
			return ferr
		}
	}

	rental.VehicleID = vehicleID
	rental.ClientName = req.ClientName
	rental.ClientDocument = req.ClientDocument
	rental.ClientPhone = req.ClientPhone
	rental.StartDate = start
	rental.EndDate = end
	rental.DailyRate = rate
	rental.OdometerStartKm = req.OdometerStart
	rental.OdometerEndKm = req.OdometerEnd
	rental.Status = status
	rental.Notes = req.Notes

	rental.DurationDays = daysInclusive(start, end)
	if rental.DurationDays < 1 {
		rental.DurationDays = 1
	}
	rental.TotalAmount = rate.Mul(decimal.NewFromInt(int64(rental.DurationDays)))

	return nil
}

// persist writes the rental and, on completion, pushes the closing odometer
// reading onto the vehicle in the same transaction.
func (s *rentalService) persist(ctx context.Context, rental *model.Rental, completing bool) error {
	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		var writeErr error
		if rental.CreatedAt.IsZero() {
			writeErr = s.rentalRepo.Create(txCtx, rental)
		} else {
			writeErr = s.rentalRepo.Update(txCtx, rental)
		}
		if writeErr != nil {
			return fmt.Errorf("failed to save rental: %w", writeErr)
		}

		if completing && rental.OdometerEndKm != nil {
			if err := s.vehicleRepo.UpdateMileage(txCtx, rental.VehicleID, *rental.OdometerEndKm); err != nil {
				return fmt.Errorf("failed to push mileage: %w", err)
			}
			entry := &model.VehicleOdometerLog{
				VehicleID: rental.VehicleID,
				RentalID:  &rental.ID,
				MileageKm: *rental.OdometerEndKm,
				Note:      "rental completed",
			}
			if err := s.vehicleRepo.AppendOdometerLog(txCtx, entry); err != nil {
				return fmt.Errorf("failed to append odometer log: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	return s.vehicles.ApplyRentalStatus(ctx, rental.VehicleID, rental.Status)
}

func toRentalResponse(r model.Rental) RentalResponse {
	resp := RentalResponse{
		ID:             r.ID.String(),
		VehicleID:      r.VehicleID.String(),
		ClientName:     r.ClientName,
		ClientDocument: r.ClientDocument,
		ClientPhone:    r.ClientPhone,
		StartDate:      formatDate(r.StartDate),
		EndDate:        formatDate(r.EndDate),
		DurationDays:   r.DurationDays,
		DailyRate:      r.DailyRate.StringFixed(2),
		TotalAmount:    r.TotalAmount.StringFixed(2),
		OdometerStart:  r.OdometerStartKm,
		OdometerEnd:    r.OdometerEndKm,
		Status:         r.Status,
		Notes:          r.Notes,
		CreatedAt:      r.CreatedAt.Format(time.RFC3339),
	}
	if r.Vehicle != nil {
		resp.VehicleLabel = fmt.Sprintf("%s %s (%s)", r.Vehicle.Brand, r.Vehicle.Model, r.Vehicle.LicensePlate)
	}
	return resp
}

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

type VehicleRequest struct {
	InternalCode      string `json:"internal_code"`
	VIN               string `json:"vin"`
	LicensePlate      string `json:"license_plate" binding:"required"`
	Brand             string `json:"brand" binding:"required"`
	Model             string `json:"model" binding:"required"`
	Year              int    `json:"year" binding:"required"`
	Color             string `json:"color"`
	Transmission      string `json:"transmission"`
	FuelType          string `json:"fuel_type"`
	MileageKm         int    `json:"mileage_km"`
	CapacityKg        int    `json:"capacity_kg"`
	PassengerCapacity int    `json:"passenger_capacity"`
	DailyRate         string `json:"daily_rate"` // Decimal string
	Status            string `json:"status"`

	RegistrationDueDate string `json:"registration_due_date"` // YYYY-MM-DD
	InsuranceDueDate    string `json:"insurance_due_date"`
	PurchasedAt         string `json:"purchased_at"`
	Notes               string `json:"notes"`
}

type VehicleListQuery struct {
	Search       string `form:"search"`
	Status       string `form:"status"`
	Year         int    `form:"year"`
	Availability string `form:"availability"`
}

type VehicleResponse struct {
	ID                  string  `json:"id"`
	InternalCode        string  `json:"internal_code"`
	VIN                 *string `json:"vin"`
	LicensePlate        string  `json:"license_plate"`
	Brand               string  `json:"brand"`
	Model               string  `json:"model"`
	Year                int     `json:"year"`
	Color               string  `json:"color"`
	Transmission        string  `json:"transmission"`
	FuelType            string  `json:"fuel_type"`
	MileageKm           int     `json:"mileage_km"`
	CapacityKg          int     `json:"capacity_kg"`
	PassengerCapacity   int     `json:"passenger_capacity"`
	DailyRate           string  `json:"daily_rate"`
	Status              string  `json:"status"`
	NextServiceKm       *int    `json:"next_service_km"`
	NextServiceDate     string  `json:"next_service_date,omitempty"`
	RegistrationDueDate string  `json:"registration_due_date,omitempty"`
	InsuranceDueDate    string  `json:"insurance_due_date,omitempty"`
	PurchasedAt         string  `json:"purchased_at,omitempty"`
	Notes               string  `json:"notes"`
	CreatedAt           string  `json:"created_at"`
}

type VehicleDetailResponse struct {
	VehicleResponse
	Images       []model.VehicleImage       `json:"images"`
	Plans        []PlanResponse             `json:"maintenance_plans"`
	Maintenance  []MaintenanceResponse      `json:"maintenance_records"`
	Obligations  []ObligationResponse       `json:"obligations"`
	OdometerLogs []model.VehicleOdometerLog `json:"odometer_logs"`
}

type MileageCorrectionRequest struct {
	MileageKm int    `json:"mileage_km" binding:"required"`
	Note      string `json:"note"`
}

type AttachImageRequest struct {
	FileName    string `json:"file_name" binding:"required"`
	StoragePath string `json:"storage_path" binding:"required"`
}

// --- Interface ---

type VehicleService interface {
	Create(ctx context.Context, userID *uuid.UUID, req VehicleRequest) (VehicleResponse, error)
	Update(ctx context.Context, userID *uuid.UUID, id uuid.UUID, req VehicleRequest) (VehicleResponse, error)
	Get(ctx context.Context, id uuid.UUID) (VehicleDetailResponse, error)
	List(ctx context.Context, query VehicleListQuery, page, limit int) ([]VehicleResponse, int64, error)
	Options(ctx context.Context) ([]repository.VehicleOption, error)
	Delete(ctx context.Context, userID *uuid.UUID, id uuid.UUID) error

	// ApplyRentalStatus maps a rental transition onto the vehicle's status.
	// Manually set maintenance/retired states always win.
	ApplyRentalStatus(ctx context.Context, vehicleID uuid.UUID, rentalStatus string) error
	CorrectMileage(ctx context.Context, userID *uuid.UUID, id uuid.UUID, req MileageCorrectionRequest) error

	AttachImage(ctx context.Context, id uuid.UUID, req AttachImageRequest) (model.VehicleImage, error)
	DetachImage(ctx context.Context, vehicleID, imageID uuid.UUID) (string, error)
}

type vehicleService struct {
	vehicleRepo     repository.VehicleRepository
	rentalRepo      repository.RentalRepository
	maintenanceRepo repository.MaintenanceRepository
	planRepo        repository.PlanRepository
	obligationRepo  repository.ObligationRepository
	alertRepo       repository.AlertRepository
	txManager       repository.TransactionManager
	audit           AuditService
}

func NewVehicleService(
	vehicleRepo repository.VehicleRepository,
	rentalRepo repository.RentalRepository,
	maintenanceRepo repository.MaintenanceRepository,
	planRepo repository.PlanRepository,
	obligationRepo repository.ObligationRepository,
	alertRepo repository.AlertRepository,
	txManager repository.TransactionManager,
	audit AuditService,
) VehicleService {
	return &vehicleService{
		vehicleRepo:     vehicleRepo,
		rentalRepo:      rentalRepo,
		maintenanceRepo: maintenanceRepo,
		planRepo:        planRepo,
		obligationRepo:  obligationRepo,
		alertRepo:       alertRepo,
		txManager:       txManager,
		audit:           audit,
	}
}

// --- Implementation ---

func (s *vehicleService) Create(ctx context.Context, userID *uuid.UUID, req VehicleRequest) (VehicleResponse, error) {
	vehicle := model.Vehicle{
		Transmission: model.TransmissionManual,
		FuelType:     model.FuelNafta,
		Status:       model.VehicleStatusAvailable,
	}
	if err := s.applyRequest(&vehicle, req); err != nil {
		return VehicleResponse{}, err
	}

	if vehicle.InternalCode == "" {
		code, err := s.generateInternalCode(ctx)
		if err != nil {
			return VehicleResponse{}, fmt.Errorf("failed to generate internal code: %w", err)
		}
		vehicle.InternalCode = code
	}

	if err := s.vehicleRepo.Create(ctx, &vehicle); err != nil {
		if field, ok := repository.UniqueViolationField(err); ok {
			ferr := fielderr.New()
			ferr.Add(field, "already in use")
			return VehicleResponse{}, ferr
		}
		return VehicleResponse{}, fmt.Errorf("failed to create vehicle: %w", err)
	}

	s.audit.Record(ctx, userID, model.AuditActionCreate, model.AuditEntityVehicle, &vehicle.ID,
		fmt.Sprintf("vehicle %s (%s %s) created", vehicle.InternalCode, vehicle.Brand, vehicle.Model),
		nil, vehicle)

	return toVehicleResponse(vehicle), nil
}

func (s *vehicleService) Update(ctx context.Context, userID *uuid.UUID, id uuid.UUID, req VehicleRequest) (VehicleResponse, error) {
	vehicle, err := s.vehicleRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return VehicleResponse{}, ErrNotFound
		}
		return VehicleResponse{}, err
	}
	before := *vehicle

	previousMileage := vehicle.MileageKm
	if err := s.applyRequest(vehicle, req); err != nil {
		return VehicleResponse{}, err
	}
	// Odometer never rolls back through an edit form.
	if vehicle.MileageKm < previousMileage {
		vehicle.MileageKm = previousMileage
	}

	if err := s.vehicleRepo.Update(ctx, vehicle); err != nil {
		if field, ok := repository.UniqueViolationField(err); ok {
			ferr := fielderr.New()
			ferr.Add(field, "already in use")
			return VehicleResponse{}, ferr
		}
		return VehicleResponse{}, fmt.Errorf("failed to update vehicle: %w", err)
	}

	s.audit.Record(ctx, userID, model.AuditActionUpdate, model.AuditEntityVehicle, &vehicle.ID,
		fmt.Sprintf("vehicle %s updated", vehicle.InternalCode), before, vehicle)

	return toVehicleResponse(*vehicle), nil
}

func (s *vehicleService) Get(ctx context.Context, id uuid.UUID) (VehicleDetailResponse, error) {
	vehicle, err := s.vehicleRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return VehicleDetailResponse{}, ErrNotFound
		}
		return VehicleDetailResponse{}, err
	}

	detail := VehicleDetailResponse{VehicleResponse: toVehicleResponse(*vehicle)}

	if detail.Images, err = s.vehicleRepo.ListImages(ctx, id); err != nil {
		return VehicleDetailResponse{}, fmt.Errorf("failed to fetch images: %w", err)
	}

	plans, err := s.planRepo.ListByVehicle(ctx, id)
	if err != nil {
		return VehicleDetailResponse{}, fmt.Errorf("failed to fetch plans: %w", err)
	}
	detail.Plans = make([]PlanResponse, 0, len(plans))
	for _, p := range plans {
		detail.Plans = append(detail.Plans, toPlanResponse(p))
	}

	records, err := s.maintenanceRepo.ListByVehicle(ctx, id)
	if err != nil {
		return VehicleDetailResponse{}, fmt.Errorf("failed to fetch maintenance records: %w", err)
	}
	detail.Maintenance = make([]MaintenanceResponse, 0, len(records))
	for _, m := range records {
		detail.Maintenance = append(detail.Maintenance, toMaintenanceResponse(m))
	}

	obligations, err := s.obligationRepo.ListByVehicle(ctx, id)
	if err != nil {
		return VehicleDetailResponse{}, fmt.Errorf("failed to fetch obligations: %w", err)
	}
	detail.Obligations = make([]ObligationResponse, 0, len(obligations))
	for _, o := range obligations {
		detail.Obligations = append(detail.Obligations, toObligationResponse(o))
	}

	if detail.OdometerLogs, err = s.vehicleRepo.ListOdometerLogs(ctx, id, 20); err != nil {
		return VehicleDetailResponse{}, fmt.Errorf("failed to fetch odometer logs: %w", err)
	}

	return detail, nil
}

func (s *vehicleService) List(ctx context.Context, query VehicleListQuery, page, limit int) ([]VehicleResponse, int64, error) {
	filter := repository.VehicleFilter{
		Search:       query.Search,
		Status:       query.Status,
		Year:         query.Year,
		Availability: query.Availability,
	}
	vehicles, total, err := s.vehicleRepo.List(ctx, filter, page, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch vehicles: %w", err)
	}

	result := make([]VehicleResponse, 0, len(vehicles))
	for _, v := range vehicles {
		result = append(result, toVehicleResponse(v))
	}
	return result, total, nil
}

func (s *vehicleService) Options(ctx context.Context) ([]repository.VehicleOption, error) {
	return s.vehicleRepo.Options(ctx)
}

func (s *vehicleService) Delete(ctx context.Context, userID *uuid.UUID, id uuid.UUID) error {
	vehicle, err := s.vehicleRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}

	rentals, err := s.vehicleRepo.CountRentals(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to count rentals: %w", err)
	}
	if rentals > 0 {
		return fmt.Errorf("%w: vehicle has %d rental(s)", ErrConflict, rentals)
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.maintenanceRepo.DeleteByVehicle(txCtx, id); err != nil {
			return err
		}
		if err := s.planRepo.DeleteByVehicle(txCtx, id); err != nil {
			return err
		}
		if err := s.obligationRepo.DeleteByVehicle(txCtx, id); err != nil {
			return err
		}
		if err := s.vehicleRepo.DeleteImagesByVehicle(txCtx, id); err != nil {
			return err
		}
		if err := s.vehicleRepo.DeleteOdometerLogsByVehicle(txCtx, id); err != nil {
			return err
		}
		if err := s.alertRepo.DeleteByEntity(txCtx, model.AlertEntityVehicle, id); err != nil {
			return err
		}
		return s.vehicleRepo.Delete(txCtx, id)
	})
	if err != nil {
		return fmt.Errorf("failed to delete vehicle: %w", err)
	}

	s.audit.Record(ctx, userID, model.AuditActionDelete, model.AuditEntityVehicle, &id,
		fmt.Sprintf("vehicle %s deleted", vehicle.InternalCode), vehicle, nil)

	return nil
}

func (s *vehicleService) ApplyRentalStatus(ctx context.Context, vehicleID uuid.UUID, rentalStatus string) error {
	vehicle, err := s.vehicleRepo.FindByID(ctx, vehicleID)
	if err != nil {
		return err
	}
	switch vehicle.Status {
	case model.VehicleStatusMaintenance, model.VehicleStatusRetired:
		return nil
	}

	var next string
	switch rentalStatus {
	case model.RentalStatusConfirmed:
		next = model.VehicleStatusReserved
	case model.RentalStatusInProgress:
		next = model.VehicleStatusRented
	default:
		next = model.VehicleStatusAvailable
	}
	if next == vehicle.Status {
		return nil
	}
	return s.vehicleRepo.UpdateStatus(ctx, vehicleID, next)
}

func (s *vehicleService) CorrectMileage(ctx context.Context, userID *uuid.UUID, id uuid.UUID, req MileageCorrectionRequest) error {
	vehicle, err := s.vehicleRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}
	if req.MileageKm <= vehicle.MileageKm {
		ferr := fielderr.New()
		ferr.Add("mileage_km", fmt.Sprintf("must be greater than current %d km", vehicle.MileageKm))
		return ferr
	}

	return s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.vehicleRepo.UpdateMileage(txCtx, id, req.MileageKm); err != nil {
			return err
		}
		entry := &model.VehicleOdometerLog{
			VehicleID:  id,
			RecordedBy: userID,
			MileageKm:  req.MileageKm,
			Note:       req.Note,
		}
		return s.vehicleRepo.AppendOdometerLog(txCtx, entry)
	})
}

func (s *vehicleService) AttachImage(ctx context.Context, id uuid.UUID, req AttachImageRequest) (model.VehicleImage, error) {
	if _, err := s.vehicleRepo.FindByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return model.VehicleImage{}, ErrNotFound
		}
		return model.VehicleImage{}, err
	}
	position, err := s.vehicleRepo.NextImagePosition(ctx, id)
	if err != nil {
		return model.VehicleImage{}, fmt.Errorf("failed to compute image position: %w", err)
	}
	image := model.VehicleImage{
		VehicleID:   id,
		FileName:    req.FileName,
		StoragePath: req.StoragePath,
		Position:    position,
	}
	if err := s.vehicleRepo.InsertImage(ctx, &image); err != nil {
		return model.VehicleImage{}, fmt.Errorf("failed to attach image: %w", err)
	}
	return image, nil
}

func (s *vehicleService) DetachImage(ctx context.Context, vehicleID, imageID uuid.UUID) (string, error) {
	path, err := s.vehicleRepo.DeleteImage(ctx, vehicleID, imageID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", ErrNotFound
		}
		return "", err
	}
	return path, nil
}

// --- Helpers ---

// applyRequest validates and copies the request fields onto the model.
func (s *vehicleService) applyRequest(vehicle *model.Vehicle, req VehicleRequest) error {
	ferr := fielderr.New()

	if req.LicensePlate == "" {
		ferr.Add("license_plate", "is required")
	}
	if req.Brand == "" {
		ferr.Add("brand", "is required")
	}
	if req.Model == "" {
		ferr.Add("model", "is required")
	}
	if maxYear := time.Now().Year() + 1; req.Year < 1980 || req.Year > maxYear {
		ferr.Add("year", fmt.Sprintf("must be between 1980 and %d", maxYear))
	}
	if req.MileageKm < 0 {
		ferr.Add("mileage_km", "must not be negative")
	}
	if req.CapacityKg < 0 {
		ferr.Add("capacity_kg", "must not be negative")
	}
	if req.PassengerCapacity < 0 {
		ferr.Add("passenger_capacity", "must not be negative")
	}

	transmission := req.Transmission
	if transmission == "" {
		transmission = vehicle.Transmission
	}
	if !contains(model.TransmissionOptions, transmission) {
		ferr.Add("transmission", "is invalid")
	}

	fuel := req.FuelType
	if fuel == "" {
		fuel = vehicle.FuelType
	}
	if !contains(model.FuelOptions, fuel) {
		ferr.Add("fuel_type", "is invalid")
	}

	status := req.Status
	if status == "" {
		status = vehicle.Status
	}
	if !contains(model.VehicleStatusOptions, status) {
		ferr.Add("status", "is invalid")
	}

	rate := decimal.Zero
	if req.DailyRate != "" {
		parsed, err := decimal.NewFromString(req.DailyRate)
		if err != nil || parsed.IsNegative() {
			ferr.Add("daily_rate", "must be a non-negative amount")
		} else {
			rate = parsed
		}
	}

	registrationDue, err := parseOptionalDate(req.RegistrationDueDate)
	if err != nil {
		ferr.Add("registration_due_date", "must be YYYY-MM-DD")
	}
	insuranceDue, err := parseOptionalDate(req.InsuranceDueDate)
	if err != nil {
		ferr.Add("insurance_due_date", "must be YYYY-MM-DD")
	}
	purchasedAt, err := parseOptionalDate(req.PurchasedAt)
	if err != nil {
		ferr.Add("purchased_at", "must be YYYY-MM-DD")
	}

	if ferr.Any() {
		return ferr
	}

	if req.InternalCode != "" {
		vehicle.InternalCode = req.InternalCode
	}
	if req.VIN != "" {
		vin := req.VIN
		vehicle.VIN = &vin
	} else {
		vehicle.VIN = nil
	}
	vehicle.LicensePlate = req.LicensePlate
	vehicle.Brand = req.Brand
	vehicle.Model = req.Model
	vehicle.Year = req.Year
	vehicle.Color = req.Color
	vehicle.Transmission = transmission
	vehicle.FuelType = fuel
	vehicle.MileageKm = req.MileageKm
	vehicle.CapacityKg = req.CapacityKg
	vehicle.PassengerCapacity = req.PassengerCapacity
	vehicle.DailyRate = rate
	vehicle.Status = status
	vehicle.RegistrationDueDate = registrationDue
	vehicle.InsuranceDueDate = insuranceDue
	vehicle.PurchasedAt = purchasedAt
	vehicle.Notes = req.Notes

	return nil
}

// generateInternalCode produces the next free AF-NNNNNN code, seeded from the
// current fleet size. Falls back to a timestamp suffix when five sequential
// candidates are taken.
func (s *vehicleService) generateInternalCode(ctx context.Context) (string, error) {
	count, err := s.vehicleRepo.Count(ctx)
	if err != nil {
		return "", err
	}
	for i := int64(1); i <= 5; i++ {
		candidate := fmt.Sprintf("AF-%06d", count+i)
		exists, err := s.vehicleRepo.InternalCodeExists(ctx, candidate)
		if err != nil {
			return "", err
		}
		if !exists {
			return candidate, nil
		}
	}
	return fmt.Sprintf("AF-%d", time.Now().UnixNano()%1_000_000_000), nil
}

func contains(options []string, value string) bool {
	for _, o := range options {
		if o == value {
			return true
		}
	}
	return false
}

func toVehicleResponse(v model.Vehicle) VehicleResponse {
	return VehicleResponse{
		ID:                  v.ID.String(),
		InternalCode:        v.InternalCode,
		VIN:                 v.VIN,
		LicensePlate:        v.LicensePlate,
		Brand:               v.Brand,
		Model:               v.Model,
		Year:                v.Year,
		Color:               v.Color,
		Transmission:        v.Transmission,
		FuelType:            v.FuelType,
		MileageKm:           v.MileageKm,
		CapacityKg:          v.CapacityKg,
		PassengerCapacity:   v.PassengerCapacity,
		DailyRate:           v.DailyRate.StringFixed(2),
		Status:              v.Status,
		NextServiceKm:       v.NextServiceKm,
		NextServiceDate:     formatOptionalDate(v.NextServiceDate),
		RegistrationDueDate: formatOptionalDate(v.RegistrationDueDate),
		InsuranceDueDate:    formatOptionalDate(v.InsuranceDueDate),
		PurchasedAt:         formatOptionalDate(v.PurchasedAt),
		Notes:               v.Notes,
		CreatedAt:           v.CreatedAt.Format(time.RFC3339),
	}
}

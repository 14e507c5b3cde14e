package service

import (
	"context"
	"fmt"

	"autoflow/internal/model"
	"autoflow/internal/repository"

	"github.com/sirupsen/logrus"
)

// --- DTOs ---

type DashboardResponse struct {
	Stats               model.DashboardStats  `json:"stats"`
	RecentRentals       []RentalResponse      `json:"recent_rentals"`
	UpcomingMaintenance []MaintenanceResponse `json:"upcoming_maintenance"`
	OpenAlerts          int64                 `json:"open_alerts"`
}

// --- Interface ---

type DashboardService interface {
	Overview(ctx context.Context) (DashboardResponse, error)
}

type dashboardService struct {
	vehicleRepo     repository.VehicleRepository
	rentalRepo      repository.RentalRepository
	maintenanceRepo repository.MaintenanceRepository
	alertRepo       repository.AlertRepository
	alerts          AlertService
	log             *logrus.Logger
}

func NewDashboardService(
	vehicleRepo repository.VehicleRepository,
	rentalRepo repository.RentalRepository,
	maintenanceRepo repository.MaintenanceRepository,
	alertRepo repository.AlertRepository,
	alerts AlertService,
	log *logrus.Logger,
) DashboardService {
	return &dashboardService{
		vehicleRepo:     vehicleRepo,
		rentalRepo:      rentalRepo,
		maintenanceRepo: maintenanceRepo,
		alertRepo:       alertRepo,
		alerts:          alerts,
		log:             log,
	}
}

// --- Implementation ---

func (s *dashboardService) Overview(ctx context.Context) (DashboardResponse, error) {
	// Opportunistic sweep. A failure here degrades alert freshness, not the
	// dashboard itself.
	if _, err := s.alerts.SweepIfDue(ctx); err != nil {
		s.log.WithError(err).Warn("opportunistic alert sweep failed")
	}

	statusCounts, err := s.vehicleRepo.CountByStatus(ctx)
	if err != nil {
		return DashboardResponse{}, fmt.Errorf("failed to count vehicles: %w", err)
	}

	total := 0
	for _, n := range statusCounts {
		total += n
	}

	activeRentals, err := s.rentalRepo.CountByStatuses(ctx, model.RentalBlockingStatuses)
	if err != nil {
		return DashboardResponse{}, fmt.Errorf("failed to count active rentals: %w", err)
	}
	draftRentals, err := s.rentalRepo.CountByStatuses(ctx, []string{model.RentalStatusDraft})
	if err != nil {
		return DashboardResponse{}, fmt.Errorf("failed to count draft rentals: %w", err)
	}
	overdueMaintenance, err := s.maintenanceRepo.CountOverdue(ctx, today())
	if err != nil {
		return DashboardResponse{}, fmt.Errorf("failed to count overdue maintenance: %w", err)
	}

	since := today().AddDate(0, 0, -30)
	revenue, err := s.rentalRepo.SumRevenueSince(ctx, since)
	if err != nil {
		return DashboardResponse{}, fmt.Errorf("failed to sum rental revenue: %w", err)
	}
	spend, err := s.maintenanceRepo.SumCostSince(ctx, since)
	if err != nil {
		return DashboardResponse{}, fmt.Errorf("failed to sum maintenance spend: %w", err)
	}
	avgDuration, err := s.rentalRepo.AverageDurationDays(ctx)
	if err != nil {
		return DashboardResponse{}, fmt.Errorf("failed to average rental duration: %w", err)
	}

	// Utilization counts reserved+rented against the non-retired fleet.
	inUse := statusCounts[model.VehicleStatusReserved] + statusCounts[model.VehicleStatusRented]
	fleet := total - statusCounts[model.VehicleStatusRetired]
	utilization := 0
	if fleet > 0 {
		utilization = inUse * 100 / fleet
	}

	stats := model.DashboardStats{
		TotalVehicles:       total,
		AvailableVehicles:   statusCounts[model.VehicleStatusAvailable],
		MaintenanceVehicles: statusCounts[model.VehicleStatusMaintenance],
		ActiveRentals:       int(activeRentals),
		DraftRentals:        int(draftRentals),
		OverdueMaintenance:  int(overdueMaintenance),
		UtilizationPercent:  utilization,
		RentalRevenue30d:    revenue,
		MaintenanceSpend30d: spend,
		AvgRentalDuration:   avgDuration,
	}

	recent, err := s.rentalRepo.Recent(ctx, 5)
	if err != nil {
		return DashboardResponse{}, fmt.Errorf("failed to fetch recent rentals: %w", err)
	}
	upcoming, err := s.maintenanceRepo.Upcoming(ctx, 5)
	if err != nil {
		return DashboardResponse{}, fmt.Errorf("failed to fetch upcoming maintenance: %w", err)
	}
	openAlerts, err := s.alertRepo.CountOpen(ctx)
	if err != nil {
		return DashboardResponse{}, fmt.Errorf("failed to count open alerts: %w", err)
	}

	resp := DashboardResponse{
		Stats:               stats,
		OpenAlerts:          openAlerts,
		RecentRentals:       make([]RentalResponse, 0, len(recent)),
		UpcomingMaintenance: make([]MaintenanceResponse, 0, len(upcoming)),
	}
	for _, r := range recent {
		resp.RecentRentals = append(resp.RecentRentals, toRentalResponse(r))
	}
	for _, m := range upcoming {
		resp.UpcomingMaintenance = append(resp.UpcomingMaintenance, toMaintenanceResponse(m))
	}
	return resp, nil
}

package model

// DashboardStats aggregates the fleet-health metrics shown on the home panel.
type DashboardStats struct {
	TotalVehicles       int     `json:"total_vehicles"`
	AvailableVehicles   int     `json:"available_vehicles"`
	MaintenanceVehicles int     `json:"maintenance_vehicles"`
	ActiveRentals       int     `json:"active_rentals"`
	DraftRentals        int     `json:"draft_rentals"`
	OverdueMaintenance  int     `json:"overdue_maintenance"`
	UtilizationPercent  int     `json:"utilization_percent"`
	RentalRevenue30d    string  `json:"rental_revenue_30d"`
	MaintenanceSpend30d string  `json:"maintenance_spend_30d"`
	AvgRentalDuration   float64 `json:"avg_rental_duration_days"`
}

package domain

import (
	"fmt"
	"strings"
	"time"
)

// Filter narrows a metric query. Nil fields mean "no restriction"; each
// backend applies only the fields that are meaningful for the metric at hand.
type Filter struct {
	From         *time.Time
	To           *time.Time
	RouteID      *int64
	DepartmentID *int64
}

// Key returns a canonical representation of the filter for use in cache keys.
// An empty filter yields an empty string.
func (f Filter) Key() string {
	parts := make([]string, 0, 4)
	if f.From != nil {
		parts = append(parts, "from="+f.From.UTC().Format("2006-01-02"))
	}
	if f.To != nil {
		parts = append(parts, "to="+f.To.UTC().Format("2006-01-02"))
	}
	if f.RouteID != nil {
		parts = append(parts, fmt.Sprintf("route=%d", *f.RouteID))
	}
	if f.DepartmentID != nil {
		parts = append(parts, fmt.Sprintf("dept=%d", *f.DepartmentID))
	}
	return strings.Join(parts, ",")
}

// RevenueSummary is the top-line financial scalar set.
type RevenueSummary struct {
	TotalRevenue   float64 `json:"total_revenue"`
	TicketCount    int64   `json:"ticket_count"`
	AvgTicketPrice float64 `json:"avg_ticket_price"`
}

type RouteRevenue struct {
	RouteID        int64   `json:"route_id"`
	Origin         string  `json:"origin"`
	Destination    string  `json:"destination"`
	TotalRevenue   float64 `json:"total_revenue"`
	TicketCount    int64   `json:"ticket_count"`
	AvgTicketPrice float64 `json:"avg_ticket_price"`
}

type DailyRevenue struct {
	FlightDate     time.Time `json:"flight_date"`
	TicketCount    int64     `json:"ticket_count"`
	DailyRevenue   float64   `json:"daily_revenue"`
	AvgTicketPrice float64   `json:"avg_ticket_price"`
}

// FlightLoad reports seats sold against capacity for one flight. LoadFactor
// is nil when the aircraft capacity is zero or unknown; consumers render
// that as not-applicable rather than 0%.
type FlightLoad struct {
	FlightID         int64    `json:"flight_id"`
	RouteID          int64    `json:"route_id"`
	Origin           string   `json:"origin"`
	Destination      string   `json:"destination"`
	SeatCapacity     int64    `json:"seat_capacity"`
	PassengersBooked int64    `json:"passengers_booked"`
	LoadFactor       *float64 `json:"load_factor"`
}

type AircraftUtilization struct {
	AircraftID          int64   `json:"aircraft_id"`
	Model               string  `json:"model"`
	Registration        string  `json:"registration"`
	TotalFlightDistance int64   `json:"total_flight_distance"`
	FlightHours         int64   `json:"flight_hours"`
	FuelGallonsHour     float64 `json:"fuel_gallons_hour"`
	TotalFlights        int64   `json:"total_flights"`
	HoursSinceACheck    int64   `json:"hours_since_acheck"`
	TakeoffsSinceCheck  int64   `json:"takeoffs_since_check"`
}

type ModelFuelEfficiency struct {
	Model              string  `json:"model"`
	AircraftCount      int64   `json:"aircraft_count"`
	AvgFuelConsumption float64 `json:"avg_fuel_consumption"`
	AvgDistance        float64 `json:"avg_distance"`
	AvgFlightHours     float64 `json:"avg_flight_hours"`
}

type MaintenanceSeverity string

const (
	MaintenanceCritical MaintenanceSeverity = "CRITICAL"
	MaintenanceHigh     MaintenanceSeverity = "HIGH"
	MaintenanceMedium   MaintenanceSeverity = "MEDIUM"
)

type MaintenanceAlert struct {
	AircraftID         int64               `json:"aircraft_id"`
	Model              string              `json:"model"`
	Registration       string              `json:"registration"`
	TakeoffsSinceCheck int64               `json:"takeoffs_since_check"`
	Severity           MaintenanceSeverity `json:"severity"`
}

type GenderDemographics struct {
	Gender         string  `json:"gender"`
	PassengerCount int64   `json:"passenger_count"`
	AvgAge         float64 `json:"avg_age"`
	MinAge         int64   `json:"min_age"`
	MaxAge         int64   `json:"max_age"`
}

type DepartmentMetrics struct {
	DepartmentID   int64   `json:"department_id"`
	DepartmentName string  `json:"department_name"`
	Headcount      int64   `json:"headcount"`
	TotalSalary    float64 `json:"total_salary"`
	AvgSalary      float64 `json:"avg_salary"`
}

type RouteLink struct {
	RouteID        int64   `json:"route_id"`
	OriginID       int64   `json:"origin_id"`
	Origin         string  `json:"origin"`
	OriginLat      float64 `json:"origin_lat"`
	OriginLon      float64 `json:"origin_lon"`
	DestinationID  int64   `json:"destination_id"`
	Destination    string  `json:"destination"`
	DestinationLat float64 `json:"destination_lat"`
	DestinationLon float64 `json:"destination_lon"`
	FlightCount    int64   `json:"flight_count"`
	PassengerCount int64   `json:"passenger_count"`
}

// RASM is revenue per available seat mile. Value is nil when no seat miles
// were flown in the period, mirroring the load-factor zero-capacity rule.
type RASM struct {
	TotalRevenue       float64  `json:"total_revenue"`
	AvailableSeatMiles float64  `json:"available_seat_miles"`
	Value              *float64 `json:"rasm"`
}

// Summary is the executive-overview card set on the dashboard landing page.
type Summary struct {
	TotalRevenue    float64  `json:"total_revenue"`
	AvgLoadFactor   *float64 `json:"avg_load_factor"`
	ActiveFleet     int64    `json:"active_fleet"`
	TotalPassengers int64    `json:"total_passengers"`
}

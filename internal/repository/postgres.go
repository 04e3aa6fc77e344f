package repository

import (
	"context"
	"fmt"

	"github.com/Fcevalerio/skyhigh-insights/internal/domain"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PGMetricStore runs the metric queries against the live PostgreSQL store.
type PGMetricStore struct {
	db *pgxpool.Pool
}

func NewPGMetricStore(db *pgxpool.Pool) *PGMetricStore {
	return &PGMetricStore{db: db}
}

func (s *PGMetricStore) Name() string { return "postgres" }

func (s *PGMetricStore) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

func (s *PGMetricStore) Close() {
	s.db.Close()
}

func (s *PGMetricStore) TotalRevenue(ctx context.Context) (*domain.RevenueSummary, error) {
	row := s.db.QueryRow(ctx, `
		SELECT COALESCE(SUM(fare_amount + ancillary_amount), 0),
		       COUNT(id),
		       COALESCE(AVG(fare_amount + ancillary_amount), 0)
		FROM tickets`)
	var r domain.RevenueSummary
	if err := row.Scan(&r.TotalRevenue, &r.TicketCount, &r.AvgTicketPrice); err != nil {
		return nil, err
	}
	return &r, nil
}

func (s *PGMetricStore) RevenueByRoute(ctx context.Context, f domain.Filter) ([]domain.RouteRevenue, error) {
	// Date bounds live in the join condition so routes without sales in the
	// window still appear with zero revenue.
	flightJoin := "LEFT JOIN flights f ON f.route_id = r.id"
	args := []any{}
	if f.From != nil {
		args = append(args, *f.From)
		flightJoin += fmt.Sprintf(" AND f.departure_time >= $%d", len(args))
	}
	if f.To != nil {
		args = append(args, *f.To)
		flightJoin += fmt.Sprintf(" AND f.departure_time <= $%d", len(args))
	}

	query := fmt.Sprintf(`
		SELECT r.id, a1.name, a2.name,
		       COALESCE(SUM(t.fare_amount + t.ancillary_amount), 0) AS total_revenue,
		       COUNT(t.id),
		       COALESCE(AVG(t.fare_amount + t.ancillary_amount), 0)
		FROM routes r
		JOIN airports a1 ON r.origin_airport_id = a1.id
		JOIN airports a2 ON r.destination_airport_id = a2.id
		%s
		LEFT JOIN tickets t ON t.flight_id = f.id
		GROUP BY r.id, a1.name, a2.name
		ORDER BY total_revenue DESC`, flightJoin)

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.RouteRevenue, 0)
	for rows.Next() {
		var r domain.RouteRevenue
		if err := rows.Scan(&r.RouteID, &r.Origin, &r.Destination, &r.TotalRevenue, &r.TicketCount, &r.AvgTicketPrice); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *PGMetricStore) FinancialTrends(ctx context.Context, f domain.Filter) ([]domain.DailyRevenue, error) {
	where := "WHERE 1=1"
	args := []any{}
	if f.From != nil {
		args = append(args, *f.From)
		where += fmt.Sprintf(" AND f.departure_time >= $%d", len(args))
	}
	if f.To != nil {
		args = append(args, *f.To)
		where += fmt.Sprintf(" AND f.departure_time <= $%d", len(args))
	}

	query := fmt.Sprintf(`
		SELECT f.departure_time::date AS flight_date,
		       COUNT(DISTINCT t.id),
		       COALESCE(SUM(t.fare_amount + t.ancillary_amount), 0),
		       COALESCE(AVG(t.fare_amount + t.ancillary_amount), 0)
		FROM flights f
		LEFT JOIN tickets t ON t.flight_id = f.id
		%s
		GROUP BY f.departure_time::date
		ORDER BY flight_date DESC`, where)

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.DailyRevenue, 0)
	for rows.Next() {
		var d domain.DailyRevenue
		if err := rows.Scan(&d.FlightDate, &d.TicketCount, &d.DailyRevenue, &d.AvgTicketPrice); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (s *PGMetricStore) LoadFactor(ctx context.Context, f domain.Filter) ([]domain.FlightLoad, error) {
	where := "WHERE 1=1"
	args := []any{}
	if f.RouteID != nil {
		args = append(args, *f.RouteID)
		where += fmt.Sprintf(" AND r.id = $%d", len(args))
	}
	if f.From != nil {
		args = append(args, *f.From)
		where += fmt.Sprintf(" AND f.departure_time >= $%d", len(args))
	}
	if f.To != nil {
		args = append(args, *f.To)
		where += fmt.Sprintf(" AND f.departure_time <= $%d", len(args))
	}

	query := fmt.Sprintf(`
		SELECT f.id, r.id, a1.name, a2.name, ac.seat_capacity,
		       COUNT(t.id) AS passengers_booked,
		       CASE WHEN ac.seat_capacity > 0
		            THEN ROUND((COUNT(t.id) * 100.0 / ac.seat_capacity)::numeric, 2)
		            ELSE NULL
		       END AS load_factor
		FROM flights f
		JOIN routes r ON f.route_id = r.id
		JOIN airports a1 ON r.origin_airport_id = a1.id
		JOIN airports a2 ON r.destination_airport_id = a2.id
		JOIN aircraft ac ON f.aircraft_id = ac.id
		LEFT JOIN tickets t ON t.flight_id = f.id
		%s
		GROUP BY f.id, r.id, a1.name, a2.name, ac.seat_capacity
		ORDER BY load_factor DESC NULLS LAST`, where)

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.FlightLoad, 0)
	for rows.Next() {
		var l domain.FlightLoad
		if err := rows.Scan(&l.FlightID, &l.RouteID, &l.Origin, &l.Destination, &l.SeatCapacity, &l.PassengersBooked, &l.LoadFactor); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func (s *PGMetricStore) FleetUtilization(ctx context.Context) ([]domain.AircraftUtilization, error) {
	rows, err := s.db.Query(ctx, `
		SELECT ac.id, ac.model, ac.registration_number,
		       ac.total_flight_distance, ac.flight_hours, ac.fuel_gallons_hour,
		       COUNT(f.id) AS total_flights,
		       ac.maintenance_last_acheck, ac.maintenance_takeoffs
		FROM aircraft ac
		LEFT JOIN flights f ON f.aircraft_id = ac.id
		GROUP BY ac.id, ac.model, ac.registration_number,
		         ac.total_flight_distance, ac.flight_hours, ac.fuel_gallons_hour,
		         ac.maintenance_last_acheck, ac.maintenance_takeoffs
		ORDER BY ac.total_flight_distance DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.AircraftUtilization, 0)
	for rows.Next() {
		var u domain.AircraftUtilization
		if err := rows.Scan(&u.AircraftID, &u.Model, &u.Registration, &u.TotalFlightDistance, &u.FlightHours, &u.FuelGallonsHour, &u.TotalFlights, &u.HoursSinceACheck, &u.TakeoffsSinceCheck); err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func (s *PGMetricStore) FuelEfficiency(ctx context.Context) ([]domain.ModelFuelEfficiency, error) {
	rows, err := s.db.Query(ctx, `
		SELECT model,
		       COUNT(DISTINCT id),
		       AVG(fuel_gallons_hour),
		       AVG(total_flight_distance),
		       AVG(flight_hours)
		FROM aircraft
		GROUP BY model
		ORDER BY AVG(fuel_gallons_hour) ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.ModelFuelEfficiency, 0)
	for rows.Next() {
		var e domain.ModelFuelEfficiency
		if err := rows.Scan(&e.Model, &e.AircraftCount, &e.AvgFuelConsumption, &e.AvgDistance, &e.AvgFlightHours); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *PGMetricStore) MaintenanceAlerts(ctx context.Context) ([]domain.MaintenanceAlert, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, model, registration_number, maintenance_takeoffs,
		       CASE WHEN maintenance_takeoffs >= 900 THEN 'CRITICAL'
		            WHEN maintenance_takeoffs >= 700 THEN 'HIGH'
		            ELSE 'MEDIUM'
		       END AS severity
		FROM aircraft
		WHERE maintenance_takeoffs >= 500
		ORDER BY maintenance_takeoffs DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.MaintenanceAlert, 0)
	for rows.Next() {
		var a domain.MaintenanceAlert
		if err := rows.Scan(&a.AircraftID, &a.Model, &a.Registration, &a.TakeoffsSinceCheck, &a.Severity); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *PGMetricStore) PassengerDemographics(ctx context.Context) ([]domain.GenderDemographics, error) {
	rows, err := s.db.Query(ctx, `
		SELECT gender, COUNT(*), ROUND(AVG(age)::numeric, 1), MIN(age), MAX(age)
		FROM passengers
		GROUP BY gender
		ORDER BY gender`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.GenderDemographics, 0)
	for rows.Next() {
		var d domain.GenderDemographics
		if err := rows.Scan(&d.Gender, &d.PassengerCount, &d.AvgAge, &d.MinAge, &d.MaxAge); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (s *PGMetricStore) HRMetrics(ctx context.Context, f domain.Filter) ([]domain.DepartmentMetrics, error) {
	where := ""
	args := []any{}
	if f.DepartmentID != nil {
		args = append(args, *f.DepartmentID)
		where = "WHERE d.id = $1"
	}

	query := fmt.Sprintf(`
		SELECT d.id, d.name,
		       COUNT(e.id) AS headcount,
		       COALESCE(SUM(e.salary), 0) AS total_salary,
		       COALESCE(AVG(e.salary), 0)
		FROM departments d
		LEFT JOIN employees e ON e.department_id = d.id
		%s
		GROUP BY d.id, d.name
		ORDER BY total_salary DESC`, where)

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.DepartmentMetrics, 0)
	for rows.Next() {
		var m domain.DepartmentMetrics
		if err := rows.Scan(&m.DepartmentID, &m.DepartmentName, &m.Headcount, &m.TotalSalary, &m.AvgSalary); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (s *PGMetricStore) RouteNetwork(ctx context.Context) ([]domain.RouteLink, error) {
	rows, err := s.db.Query(ctx, `
		SELECT r.id,
		       a1.id, a1.name, a1.latitude, a1.longitude,
		       a2.id, a2.name, a2.latitude, a2.longitude,
		       COUNT(DISTINCT f.id) AS flight_count,
		       COUNT(t.id) AS passenger_count
		FROM routes r
		JOIN airports a1 ON r.origin_airport_id = a1.id
		JOIN airports a2 ON r.destination_airport_id = a2.id
		LEFT JOIN flights f ON f.route_id = r.id
		LEFT JOIN tickets t ON t.flight_id = f.id
		GROUP BY r.id, a1.id, a1.name, a1.latitude, a1.longitude,
		         a2.id, a2.name, a2.latitude, a2.longitude
		ORDER BY flight_count DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.RouteLink, 0)
	for rows.Next() {
		var l domain.RouteLink
		if err := rows.Scan(&l.RouteID, &l.OriginID, &l.Origin, &l.OriginLat, &l.OriginLon, &l.DestinationID, &l.Destination, &l.DestinationLat, &l.DestinationLon, &l.FlightCount, &l.PassengerCount); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func (s *PGMetricStore) AvailableSeatMiles(ctx context.Context) (float64, error) {
	row := s.db.QueryRow(ctx, `
		SELECT COALESCE(SUM(ac.seat_capacity * r.distance_miles), 0)::double precision
		FROM flights f
		JOIN aircraft ac ON f.aircraft_id = ac.id
		JOIN routes r ON f.route_id = r.id`)
	var asm float64
	if err := row.Scan(&asm); err != nil {
		return 0, err
	}
	return asm, nil
}

var _ MetricStore = (*PGMetricStore)(nil)

package repository

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/Fcevalerio/skyhigh-insights/config"
	"github.com/Fcevalerio/skyhigh-insights/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSchema = []string{
	`CREATE TABLE airports (id BIGINT, name VARCHAR, latitude DOUBLE, longitude DOUBLE)`,
	`CREATE TABLE routes (id BIGINT, origin_airport_id BIGINT, destination_airport_id BIGINT, distance_miles DOUBLE)`,
	`CREATE TABLE aircraft (id BIGINT, model VARCHAR, registration_number VARCHAR, seat_capacity BIGINT,
		total_flight_distance BIGINT, flight_hours BIGINT, fuel_gallons_hour DOUBLE,
		maintenance_last_acheck BIGINT, maintenance_takeoffs BIGINT)`,
	`CREATE TABLE flights (id BIGINT, route_id BIGINT, aircraft_id BIGINT, departure_time TIMESTAMP)`,
	`CREATE TABLE tickets (id BIGINT, flight_id BIGINT, fare_amount DOUBLE, ancillary_amount DOUBLE)`,
	`CREATE TABLE passengers (id BIGINT, gender VARCHAR, age INTEGER)`,
	`CREATE TABLE departments (id BIGINT, name VARCHAR)`,
	`CREATE TABLE employees (id BIGINT, department_id BIGINT, salary DOUBLE)`,
}

// openTestStore builds a SnapshotStore over an empty in-memory instance with
// plain tables instead of parquet views. The metric SQL does not care which
// one backs the relation names.
func openTestStore(t *testing.T) *SnapshotStore {
	t.Helper()

	db, err := sql.Open("duckdb", "")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	for _, stmt := range testSchema {
		_, err := db.Exec(stmt)
		require.NoError(t, err)
	}
	return &SnapshotStore{db: db}
}

func mustExec(t *testing.T, s *SnapshotStore, query string, args ...any) {
	t.Helper()
	_, err := s.db.Exec(query, args...)
	require.NoError(t, err)
}

func seedRoute(t *testing.T, s *SnapshotStore, distanceMiles float64) {
	t.Helper()
	mustExec(t, s, `INSERT INTO airports VALUES (1, 'Alpha Intl', 40.64, -73.78), (2, 'Bravo Intl', 33.94, -118.41)`)
	mustExec(t, s, `INSERT INTO routes VALUES (1, 1, 2, ?)`, distanceMiles)
}

func TestSnapshotStore_TotalRevenue(t *testing.T) {
	store := openTestStore(t)
	mustExec(t, store, `INSERT INTO tickets VALUES (1, 1, 80, 20), (2, 1, 150, 0), (3, 1, 175, 25)`)

	got, err := store.TotalRevenue(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 450.0, got.TotalRevenue)
	assert.Equal(t, int64(3), got.TicketCount)
	assert.InDelta(t, 150.0, got.AvgTicketPrice, 0.001)
}

func TestSnapshotStore_TotalRevenue_EmptyTable(t *testing.T) {
	store := openTestStore(t)

	got, err := store.TotalRevenue(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 0.0, got.TotalRevenue)
	assert.Equal(t, int64(0), got.TicketCount)
}

func TestSnapshotStore_LoadFactor(t *testing.T) {
	store := openTestStore(t)
	seedRoute(t, store, 2475)
	mustExec(t, store, `INSERT INTO aircraft VALUES
		(1, '737-800', 'N101SH', 180, 512000, 1400, 850, 220, 410),
		(2, 'A320',    'N202SH', 0,   98000,  300,  800, 40,  55)`)
	mustExec(t, store, `INSERT INTO flights VALUES
		(1, 1, 1, TIMESTAMP '2024-03-01 08:00:00'),
		(2, 1, 2, TIMESTAMP '2024-03-02 09:30:00')`)
	for i := 0; i < 162; i++ {
		mustExec(t, store, `INSERT INTO tickets VALUES (?, 1, 120, 15)`, i+1)
	}
	mustExec(t, store, `INSERT INTO tickets VALUES (200, 2, 95, 0)`)

	got, err := store.LoadFactor(context.Background(), domain.Filter{})
	require.NoError(t, err)
	require.Len(t, got, 2)

	// Non-null factors sort first.
	full := got[0]
	assert.Equal(t, int64(1), full.FlightID)
	assert.Equal(t, int64(180), full.SeatCapacity)
	assert.Equal(t, int64(162), full.PassengersBooked)
	require.NotNil(t, full.LoadFactor)
	assert.InDelta(t, 90.0, *full.LoadFactor, 0.001)

	unknown := got[1]
	assert.Equal(t, int64(2), unknown.FlightID)
	assert.Equal(t, int64(1), unknown.PassengersBooked)
	assert.Nil(t, unknown.LoadFactor, "zero capacity must report not-applicable, not 0%%")
}

func TestSnapshotStore_LoadFactor_DateFilter(t *testing.T) {
	store := openTestStore(t)
	seedRoute(t, store, 1000)
	mustExec(t, store, `INSERT INTO aircraft VALUES (1, '737-800', 'N101SH', 100, 0, 0, 850, 0, 0)`)
	mustExec(t, store, `INSERT INTO flights VALUES
		(1, 1, 1, TIMESTAMP '2024-03-01 08:00:00'),
		(2, 1, 1, TIMESTAMP '2024-06-15 08:00:00')`)

	from := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	got, err := store.LoadFactor(context.Background(), domain.Filter{From: &from})
	require.NoError(t, err)

	require.Len(t, got, 1)
	assert.Equal(t, int64(2), got[0].FlightID)
}

func TestSnapshotStore_RevenueByRoute_KeepsRoutesWithoutSales(t *testing.T) {
	store := openTestStore(t)
	seedRoute(t, store, 2475)
	mustExec(t, store, `INSERT INTO airports VALUES (3, 'Charlie Intl', 41.97, -87.90)`)
	mustExec(t, store, `INSERT INTO routes VALUES (2, 1, 3, 740)`)
	mustExec(t, store, `INSERT INTO aircraft VALUES (1, '737-800', 'N101SH', 180, 0, 0, 850, 0, 0)`)
	mustExec(t, store, `INSERT INTO flights VALUES (1, 1, 1, TIMESTAMP '2024-03-01 08:00:00')`)
	mustExec(t, store, `INSERT INTO tickets VALUES (1, 1, 200, 50), (2, 1, 150, 0)`)

	got, err := store.RevenueByRoute(context.Background(), domain.Filter{})
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, int64(1), got[0].RouteID)
	assert.Equal(t, "Alpha Intl", got[0].Origin)
	assert.Equal(t, "Bravo Intl", got[0].Destination)
	assert.Equal(t, 400.0, got[0].TotalRevenue)
	assert.Equal(t, int64(2), got[0].TicketCount)

	assert.Equal(t, int64(2), got[1].RouteID)
	assert.Equal(t, 0.0, got[1].TotalRevenue)
	assert.Equal(t, int64(0), got[1].TicketCount)
}

func TestSnapshotStore_MaintenanceAlerts_SeverityBands(t *testing.T) {
	store := openTestStore(t)
	mustExec(t, store, `INSERT INTO aircraft VALUES
		(1, '737-800', 'N101SH', 180, 0, 0, 850, 0, 950),
		(2, 'A320',    'N202SH', 150, 0, 0, 800, 0, 720),
		(3, 'A320',    'N303SH', 150, 0, 0, 800, 0, 560),
		(4, '737-800', 'N404SH', 180, 0, 0, 850, 0, 120)`)

	got, err := store.MaintenanceAlerts(context.Background())
	require.NoError(t, err)

	require.Len(t, got, 3, "aircraft below the 500-takeoff floor must not alert")
	assert.Equal(t, domain.MaintenanceCritical, got[0].Severity)
	assert.Equal(t, int64(950), got[0].TakeoffsSinceCheck)
	assert.Equal(t, domain.MaintenanceHigh, got[1].Severity)
	assert.Equal(t, domain.MaintenanceMedium, got[2].Severity)
}

func TestSnapshotStore_FuelEfficiency_GroupsByModel(t *testing.T) {
	store := openTestStore(t)
	mustExec(t, store, `INSERT INTO aircraft VALUES
		(1, '737-800', 'N101SH', 180, 400000, 1000, 900, 0, 0),
		(2, '737-800', 'N202SH', 180, 600000, 1400, 800, 0, 0),
		(3, 'A220',    'N303SH', 130, 200000, 600,  600, 0, 0)`)

	got, err := store.FuelEfficiency(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 2)

	// Most efficient model first.
	assert.Equal(t, "A220", got[0].Model)
	assert.Equal(t, int64(1), got[0].AircraftCount)

	assert.Equal(t, "737-800", got[1].Model)
	assert.Equal(t, int64(2), got[1].AircraftCount)
	assert.InDelta(t, 850.0, got[1].AvgFuelConsumption, 0.001)
	assert.InDelta(t, 500000.0, got[1].AvgDistance, 0.001)
}

func TestSnapshotStore_PassengerDemographics(t *testing.T) {
	store := openTestStore(t)
	mustExec(t, store, `INSERT INTO passengers VALUES
		(1, 'F', 34), (2, 'F', 52), (3, 'M', 27)`)

	got, err := store.PassengerDemographics(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, "F", got[0].Gender)
	assert.Equal(t, int64(2), got[0].PassengerCount)
	assert.InDelta(t, 43.0, got[0].AvgAge, 0.001)
	assert.Equal(t, int64(34), got[0].MinAge)
	assert.Equal(t, int64(52), got[0].MaxAge)

	assert.Equal(t, "M", got[1].Gender)
	assert.Equal(t, int64(1), got[1].PassengerCount)
}

func TestSnapshotStore_HRMetrics(t *testing.T) {
	store := openTestStore(t)
	mustExec(t, store, `INSERT INTO departments VALUES (1, 'Flight Operations'), (2, 'Catering')`)
	mustExec(t, store, `INSERT INTO employees VALUES
		(1, 1, 90000), (2, 1, 110000), (3, 2, 48000)`)

	got, err := store.HRMetrics(context.Background(), domain.Filter{})
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, "Flight Operations", got[0].DepartmentName)
	assert.Equal(t, int64(2), got[0].Headcount)
	assert.Equal(t, 200000.0, got[0].TotalSalary)
	assert.InDelta(t, 100000.0, got[0].AvgSalary, 0.001)

	deptID := int64(2)
	filtered, err := store.HRMetrics(context.Background(), domain.Filter{DepartmentID: &deptID})
	require.NoError(t, err)
	require.Len(t, filtered, 1)
	assert.Equal(t, "Catering", filtered[0].DepartmentName)
	assert.Equal(t, 48000.0, filtered[0].TotalSalary)
}

func TestSnapshotStore_AvailableSeatMiles(t *testing.T) {
	store := openTestStore(t)
	seedRoute(t, store, 2500)
	mustExec(t, store, `INSERT INTO aircraft VALUES (1, '737-800', 'N101SH', 180, 0, 0, 850, 0, 0)`)
	mustExec(t, store, `INSERT INTO flights VALUES
		(1, 1, 1, TIMESTAMP '2024-03-01 08:00:00'),
		(2, 1, 1, TIMESTAMP '2024-03-02 08:00:00')`)

	asm, err := store.AvailableSeatMiles(context.Background())
	require.NoError(t, err)
	assert.InDelta(t, 900000.0, asm, 0.001)
}

func TestSnapshotStore_AvailableSeatMiles_NoFlights(t *testing.T) {
	store := openTestStore(t)

	asm, err := store.AvailableSeatMiles(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0.0, asm)
}

func TestSnapshotStore_FinancialTrends_GroupsByDay(t *testing.T) {
	store := openTestStore(t)
	seedRoute(t, store, 1000)
	mustExec(t, store, `INSERT INTO aircraft VALUES (1, '737-800', 'N101SH', 180, 0, 0, 850, 0, 0)`)
	mustExec(t, store, `INSERT INTO flights VALUES
		(1, 1, 1, TIMESTAMP '2024-03-01 08:00:00'),
		(2, 1, 1, TIMESTAMP '2024-03-01 18:00:00'),
		(3, 1, 1, TIMESTAMP '2024-03-02 08:00:00')`)
	mustExec(t, store, `INSERT INTO tickets VALUES
		(1, 1, 100, 0), (2, 2, 150, 0), (3, 3, 200, 0)`)

	got, err := store.FinancialTrends(context.Background(), domain.Filter{})
	require.NoError(t, err)
	require.Len(t, got, 2)

	// Newest day first.
	assert.Equal(t, "2024-03-02", got[0].FlightDate.Format("2006-01-02"))
	assert.Equal(t, 200.0, got[0].DailyRevenue)
	assert.Equal(t, "2024-03-01", got[1].FlightDate.Format("2006-01-02"))
	assert.Equal(t, 250.0, got[1].DailyRevenue)
	assert.Equal(t, int64(2), got[1].TicketCount)
}

func TestOpenSnapshotStore_MissingSnapshotIsDataError(t *testing.T) {
	_, err := OpenSnapshotStore(config.SnapshotConfig{Dir: t.TempDir(), Threads: 1})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrBadData)
}

func TestOpenSnapshotStore_ReadsParquetSnapshots(t *testing.T) {
	dir := t.TempDir()

	// Write one parquet file per table through the same engine the store
	// reads them with.
	db, err := sql.Open("duckdb", "")
	require.NoError(t, err)
	defer db.Close()

	for _, stmt := range testSchema {
		_, err := db.Exec(stmt)
		require.NoError(t, err)
	}
	_, err = db.Exec(`CREATE TABLE countries (id BIGINT, name VARCHAR)`)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO tickets VALUES (1, 1, 100, 0), (2, 1, 150, 0), (3, 1, 200, 0)`)
	require.NoError(t, err)

	for _, table := range snapshotTables {
		_, err := db.Exec(fmt.Sprintf(`COPY %s TO '%s/%s.parquet' (FORMAT PARQUET)`, table, dir, table))
		require.NoError(t, err)
	}

	store, err := OpenSnapshotStore(config.SnapshotConfig{Dir: dir, Threads: 1})
	require.NoError(t, err)
	defer store.Close()

	assert.Equal(t, "snapshot", store.Name())
	require.NoError(t, store.Ping(context.Background()))

	got, err := store.TotalRevenue(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 450.0, got.TotalRevenue)
	assert.Equal(t, int64(3), got.TicketCount)
}

package stationstore

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/levelo-marseille/levelo-etl/model"
	_ "modernc.org/sqlite" // SQLite driver
)

// SQLiteStore keeps the flattened local archive of collection runs. Rows only
// ever append, so history accumulates across runs; queries scope themselves to
// the most recent capture instant.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err := store.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	return store, nil
}

// Init creates the archive table and indexes.
func (s *SQLiteStore) Init() error {
	schema := `
	CREATE TABLE IF NOT EXISTS stations (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		station_id INTEGER NOT NULL,
		name TEXT NOT NULL,
		address TEXT NOT NULL,
		lat REAL NOT NULL,
		lon REAL NOT NULL,
		capacity INTEGER NOT NULL,
		bikes INTEGER NOT NULL,
		docks INTEGER NOT NULL,
		status TEXT NOT NULL,
		display_status TEXT NOT NULL,
		availability_rate REAL NOT NULL,
		zone TEXT NOT NULL,
		recorded_at TIMESTAMP NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_stations_recorded_at ON stations(recorded_at);
	CREATE INDEX IF NOT EXISTS idx_stations_station_id ON stations(station_id);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Load appends one run's records inside a single transaction.
func (s *SQLiteStore) Load(records []model.StationRecord) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO stations
		(station_id, name, address, lat, lon, capacity, bikes, docks, status, display_status, availability_rate, zone, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, r := range records {
		_, err := stmt.Exec(
			r.StationID, r.Name, r.Address, r.Lat, r.Lon, r.Capacity,
			r.BikesAvailable, r.DocksAvailable, r.Status, r.DisplayStatus,
			r.AvailabilityRate, r.Zone, r.Timestamp.Format(time.RFC3339),
		)
		if err != nil {
			return fmt.Errorf("failed to insert station %d: %w", r.StationID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// GetLatestStats summarizes the most recent run.
func (s *SQLiteStore) GetLatestStats() (model.QueryStat, error) {
	stats := make(model.QueryStat)

	var stations, bikes, capacity int
	var avgRate sql.NullFloat64
	err := s.db.QueryRow(`
		SELECT COUNT(*), COALESCE(SUM(bikes), 0), COALESCE(SUM(capacity), 0), AVG(availability_rate)
		FROM stations
		WHERE recorded_at = (SELECT MAX(recorded_at) FROM stations)
	`).Scan(&stations, &bikes, &capacity, &avgRate)
	if err != nil && err != sql.ErrNoRows {
		return nil, err
	}

	stats["stations"] = stations
	stats["bikes"] = bikes
	stats["capacity"] = capacity
	stats["avg_rate"] = fmt.Sprintf("%.1f%%", avgRate.Float64)

	for _, label := range []string{model.DisplayCritical, model.DisplayWarning, model.DisplayGood, model.DisplayExcellent} {
		var n int
		s.db.QueryRow(`
			SELECT COUNT(*) FROM stations
			WHERE display_status = ? AND recorded_at = (SELECT MAX(recorded_at) FROM stations)
		`, label).Scan(&n)
		stats[label] = n
	}

	return stats, nil
}

// GetCriticalStations lists the most recent run's critical stations, most
// starved first.
func (s *SQLiteStore) GetCriticalStations() ([]model.StationRecord, error) {
	query := `
		SELECT station_id, name, address, lat, lon, capacity, bikes, docks, status, display_status, availability_rate, zone, recorded_at
		FROM stations
		WHERE display_status = 'critical'
		  AND recorded_at = (SELECT MAX(recorded_at) FROM stations)
		ORDER BY availability_rate ASC, bikes ASC
	`
	return s.queryStations(query)
}

// GetZoneBreakdown aggregates the most recent run per geographic zone.
func (s *SQLiteStore) GetZoneBreakdown() ([]model.QueryStat, error) {
	query := `
		SELECT zone, COUNT(*) as stations, SUM(bikes) as bikes, SUM(capacity) as capacity, AVG(availability_rate) as avg_rate
		FROM stations
		WHERE recorded_at = (SELECT MAX(recorded_at) FROM stations)
		GROUP BY zone
		ORDER BY stations DESC
	`

	rows, err := s.db.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []model.QueryStat
	for rows.Next() {
		var zone string
		var stations, bikes, capacity int
		var avgRate sql.NullFloat64

		if err := rows.Scan(&zone, &stations, &bikes, &capacity, &avgRate); err != nil {
			return nil, err
		}

		results = append(results, model.QueryStat{
			"zone":     zone,
			"stations": stations,
			"bikes":    bikes,
			"capacity": capacity,
			"avg_rate": fmt.Sprintf("%.1f", avgRate.Float64),
		})
	}

	return results, rows.Err()
}

// Count returns the total number of archived rows across all runs.
func (s *SQLiteStore) Count() (int, error) {
	var count int
	err := s.db.QueryRow("SELECT COUNT(*) FROM stations").Scan(&count)
	return count, err
}

// queryStations is a helper to run a query and scan rows into StationRecords.
func (s *SQLiteStore) queryStations(query string, args ...interface{}) ([]model.StationRecord, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []model.StationRecord
	for rows.Next() {
		var r model.StationRecord
		var recordedAt string

		err := rows.Scan(
			&r.StationID, &r.Name, &r.Address, &r.Lat, &r.Lon, &r.Capacity,
			&r.BikesAvailable, &r.DocksAvailable, &r.Status, &r.DisplayStatus,
			&r.AvailabilityRate, &r.Zone, &recordedAt,
		)
		if err != nil {
			return nil, err
		}

		r.Timestamp, _ = time.Parse(time.RFC3339, recordedAt)
		records = append(records, r)
	}

	return records, rows.Err()
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

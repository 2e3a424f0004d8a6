// Package stationstore persists collection runs. The managed Supabase store
// is the production sink; the SQLite store keeps a local archive and carries
// the read-side analysis queries.
package stationstore

import "github.com/levelo-marseille/levelo-etl/model"

// DefaultBatchSize bounds how many rows travel in one store request.
const DefaultBatchSize = 50

// Repository defines the interface for persisting one run's records.
type Repository interface {
	Load(records []model.StationRecord) error
	Close() error
}

// Analyzer is the read side, implemented by stores that keep local history.
type Analyzer interface {
	GetLatestStats() (model.QueryStat, error)
	GetCriticalStations() ([]model.StationRecord, error)
	GetZoneBreakdown() ([]model.QueryStat, error)
}

// chunk splits records into batches of at most size rows. A non-positive size
// falls back to DefaultBatchSize.
func chunk(records []model.StationRecord, size int) [][]model.StationRecord {
	if size <= 0 {
		size = DefaultBatchSize
	}
	var batches [][]model.StationRecord
	for start := 0; start < len(records); start += size {
		end := start + size
		if end > len(records) {
			end = len(records)
		}
		batches = append(batches, records[start:end])
	}
	return batches
}

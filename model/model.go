package model

import (
	"encoding/json"
	"time"
)

// GBFS feed envelope structures. Both feeds share the
// {"last_updated": ..., "ttl": ..., "data": {"stations": [...]}} shape.

type StatusResponse struct {
	LastUpdated int64      `json:"last_updated"`
	TTL         int        `json:"ttl"`
	Data        StatusData `json:"data"`
}

type StatusData struct {
	Stations []StationStatus `json:"stations"`
}

type InfoResponse struct {
	LastUpdated int64    `json:"last_updated"`
	TTL         int      `json:"ttl"`
	Data        InfoData `json:"data"`
}

type InfoData struct {
	Stations []StationInfo `json:"stations"`
}

// FeedID is a station identifier as it appears on the wire. GBFS specifies a
// string, but providers have shipped bare numbers in the same field; both
// forms decode into the string representation.
type FeedID string

func (id *FeedID) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = FeedID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*id = FeedID(n.String())
	return nil
}

func (id FeedID) String() string {
	return string(id)
}

// StationStatus is one live entry from the station_status feed. Counts and
// flags are nullable upstream, hence the pointer fields.
type StationStatus struct {
	StationID         FeedID `json:"station_id"`
	NumBikesAvailable *int   `json:"num_bikes_available"`
	NumDocksAvailable *int   `json:"num_docks_available"`
	IsRenting         *int   `json:"is_renting"`
	IsInstalled       *int   `json:"is_installed"`
	IsReturning       *int   `json:"is_returning"`
	LastReported      int64  `json:"last_reported"`
}

// StationInfo is one static entry from the station_information feed.
type StationInfo struct {
	StationID FeedID  `json:"station_id"`
	Name      string  `json:"name"`
	Address   string  `json:"address"`
	Lat       float64 `json:"lat"`
	Lon       float64 `json:"lon"`
	Capacity  *int    `json:"capacity"`
}

// FeedData carries both station lists from a single fetch. A fetch either
// yields both lists or fails as a whole; there is no partial form.
type FeedData struct {
	Status []StationStatus
	Info   []StationInfo
}

// Display classification labels, from most to least starved.
const (
	DisplayCritical  = "critical"
	DisplayWarning   = "warning"
	DisplayGood      = "good"
	DisplayExcellent = "excellent"
)

// Operational status labels derived from the renting flag.
const (
	StatusActive = "active"
	StatusClosed = "closed"
)

// StationRecord is the merged, classified record persisted to the store and
// exported for the dashboard. Field order fixes the snapshot layout.
type StationRecord struct {
	StationID        int       `json:"station_id"`
	Name             string    `json:"name"`
	Address          string    `json:"address"`
	Lat              float64   `json:"lat"`
	Lon              float64   `json:"lon"`
	Capacity         int       `json:"capacity"`
	BikesAvailable   int       `json:"bikes_available"`
	DocksAvailable   int       `json:"docks_available"`
	Status           string    `json:"status"`
	DisplayStatus    string    `json:"display_status"`
	AvailabilityRate float64   `json:"availability_rate"`
	Zone             string    `json:"zone"`
	Timestamp        time.Time `json:"timestamp"`
}

// Skip reasons for status entries that produce no record.
const (
	SkipMissingInfo = "missing_station_info"
	SkipEmptyID     = "empty_station_id"
)

// SkippedStation records one status entry dropped during the merge, with the
// raw identifier it arrived under.
type SkippedStation struct {
	StationID string
	Reason    string
}

// RunSummary aggregates one collection run for the console report.
type RunSummary struct {
	Processed     int
	Skipped       []SkippedStation
	TotalBikes    int
	TotalCapacity int
	ByDisplay     map[string]int
	Duration      time.Duration
	ExportPath    string
	ExportErr     error
}

// NewRunSummary computes the aggregate counts for a finished merge.
func NewRunSummary(records []StationRecord, skipped []SkippedStation) *RunSummary {
	s := &RunSummary{
		Processed: len(records),
		Skipped:   skipped,
		ByDisplay: make(map[string]int),
	}
	for _, r := range records {
		s.TotalBikes += r.BikesAvailable
		s.TotalCapacity += r.Capacity
		s.ByDisplay[r.DisplayStatus]++
	}
	return s
}

// Critical returns the number of stations classified critical.
func (s *RunSummary) Critical() int {
	return s.ByDisplay[DisplayCritical]
}

// SkippedBy returns how many stations were skipped for the given reason.
func (s *RunSummary) SkippedBy(reason string) int {
	n := 0
	for _, sk := range s.Skipped {
		if sk.Reason == reason {
			n++
		}
	}
	return n
}

// QueryStat is a generic map used for returning summary statistics.
type QueryStat map[string]interface{}

package stationstore

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/levelo-marseille/levelo-etl/model"
)

// Managed store tables. Metadata is upserted on the station identifier;
// observations only ever append.
const (
	metadataTable     = "stations_metadata"
	observationsTable = "levelo_observations"
)

// SupabaseStore writes records to a managed Postgres instance through its
// PostgREST endpoint. It is write-only for this job; the dashboard and the
// analysis queries never read through it.
type SupabaseStore struct {
	baseURL   string
	apiKey    string
	batchSize int
	client    *http.Client
}

// metadataRow mirrors the stations_metadata schema.
type metadataRow struct {
	StationID int     `json:"station_id"`
	Name      string  `json:"name"`
	Address   string  `json:"address"`
	Lat       float64 `json:"lat"`
	Lon       float64 `json:"lon"`
	Capacity  int     `json:"capacity"`
	Zone      string  `json:"zone"`
	UpdatedAt string  `json:"updated_at"`
}

// observationRow mirrors the levelo_observations schema.
type observationRow struct {
	StationID  int    `json:"station_id"`
	Bikes      int    `json:"bikes"`
	Docks      int    `json:"docks"`
	Status     string `json:"status"`
	RecordedAt string `json:"recorded_at"`
}

func NewSupabaseStore(baseURL, apiKey string, batchSize int) *SupabaseStore {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &SupabaseStore{
		baseURL:   strings.TrimRight(baseURL, "/"),
		apiKey:    apiKey,
		batchSize: batchSize,
		client:    &http.Client{Timeout: 30 * time.Second},
	}
}

// Load upserts the static half of every record into stations_metadata, then
// appends the live half to levelo_observations. Both writes travel as bulk
// JSON arrays chunked at the batch size; any failed chunk aborts the load and
// callers must not assume partial success.
func (s *SupabaseStore) Load(records []model.StationRecord) error {
	for _, batch := range chunk(records, s.batchSize) {
		rows := make([]metadataRow, 0, len(batch))
		for _, r := range batch {
			rows = append(rows, metadataRow{
				StationID: r.StationID,
				Name:      r.Name,
				Address:   r.Address,
				Lat:       r.Lat,
				Lon:       r.Lon,
				Capacity:  r.Capacity,
				Zone:      r.Zone,
				UpdatedAt: r.Timestamp.Format(time.RFC3339),
			})
		}
		if err := s.post(metadataTable+"?on_conflict=station_id", rows, true); err != nil {
			return fmt.Errorf("failed to upsert %s: %w", metadataTable, err)
		}
	}

	for _, batch := range chunk(records, s.batchSize) {
		rows := make([]observationRow, 0, len(batch))
		for _, r := range batch {
			rows = append(rows, observationRow{
				StationID:  r.StationID,
				Bikes:      r.BikesAvailable,
				Docks:      r.DocksAvailable,
				Status:     r.Status,
				RecordedAt: r.Timestamp.Format(time.RFC3339),
			})
		}
		if err := s.post(observationsTable, rows, false); err != nil {
			return fmt.Errorf("failed to insert %s: %w", observationsTable, err)
		}
	}

	return nil
}

// post sends one bulk write to a PostgREST resource. merge requests upsert
// semantics instead of a plain insert.
func (s *SupabaseStore) post(resource string, rows interface{}, merge bool) error {
	body, err := json.Marshal(rows)
	if err != nil {
		return fmt.Errorf("failed to encode rows: %w", err)
	}

	req, err := http.NewRequest(http.MethodPost, s.baseURL+"/rest/v1/"+resource, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("apikey", s.apiKey)
	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	req.Header.Set("Content-Type", "application/json")
	prefer := "return=minimal"
	if merge {
		prefer += ",resolution=merge-duplicates"
	}
	req.Header.Set("Prefer", prefer)

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Read body for better error context
		msg, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("store returned status %d: %s", resp.StatusCode, string(msg))
	}

	return nil
}

// Close is a no-op; the REST store holds no connection state between calls.
func (s *SupabaseStore) Close() error {
	return nil
}

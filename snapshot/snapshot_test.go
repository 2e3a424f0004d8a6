package snapshot

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/levelo-marseille/levelo-etl/model"
)

func sampleRecords() []model.StationRecord {
	ts := time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)
	return []model.StationRecord{
		{
			StationID:        1141,
			Name:             "Canebière & Garibaldi",
			Address:          "Cours Garibaldi",
			Lat:              43.2982,
			Lon:              5.3761,
			Capacity:         16,
			BikesAvailable:   4,
			DocksAvailable:   12,
			Status:           model.StatusActive,
			DisplayStatus:    model.DisplayWarning,
			AvailabilityRate: 25.0,
			Zone:             "Centre Marseille",
			Timestamp:        ts,
		},
		{
			StationID:        1142,
			Name:             "Cours Julien",
			Address:          "Cours Julien",
			Lat:              43.2938,
			Lon:              5.3832,
			Capacity:         10,
			BikesAvailable:   0,
			DocksAvailable:   10,
			Status:           model.StatusActive,
			DisplayStatus:    model.DisplayCritical,
			AvailabilityRate: 0,
			Zone:             "Centre Marseille",
			Timestamp:        ts,
		},
	}
}

func TestExportCreatesDirectoryAndFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "levelo_data.json")
	exporter := NewFileExporter(path)

	err := exporter.Export(sampleRecords())
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var records []model.StationRecord
	require.NoError(t, json.Unmarshal(data, &records))
	require.Len(t, records, 2)
	assert.Equal(t, 1141, records[0].StationID)
	assert.Equal(t, "Cours Julien", records[1].Name)
	assert.Equal(t, 0.0, records[1].AvailabilityRate)
}

// The dashboard polls the file, so repeated exports of the same run must
// produce identical bytes.
func TestExportIsByteStable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "levelo_data.json")
	exporter := NewFileExporter(path)

	require.NoError(t, exporter.Export(sampleRecords()))
	first, err := os.ReadFile(path)
	require.NoError(t, err)

	require.NoError(t, exporter.Export(sampleRecords()))
	second, err := os.ReadFile(path)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestExportOverwritesPreviousSnapshot(t *testing.T) {
	path := filepath.Join(t.TempDir(), "levelo_data.json")
	exporter := NewFileExporter(path)

	require.NoError(t, exporter.Export(sampleRecords()))
	require.NoError(t, exporter.Export(sampleRecords()[:1]))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var records []model.StationRecord
	require.NoError(t, json.Unmarshal(data, &records))
	assert.Len(t, records, 1)
}

func TestExportEmptyRunWritesArray(t *testing.T) {
	path := filepath.Join(t.TempDir(), "levelo_data.json")
	exporter := NewFileExporter(path)

	require.NoError(t, exporter.Export(nil))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "[]", strings.TrimSpace(string(data)))
}

// Names carry accents and ampersands; the consumer wants them verbatim, not
// as their \u0026-style escape sequences.
func TestExportDoesNotEscapeText(t *testing.T) {
	path := filepath.Join(t.TempDir(), "levelo_data.json")
	exporter := NewFileExporter(path)

	require.NoError(t, exporter.Export(sampleRecords()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Canebière & Garibaldi")
	assert.NotContains(t, string(data), `\u0026`)
}

func TestNewFileExporterDefaultPath(t *testing.T) {
	assert.Equal(t, DefaultPath, NewFileExporter("").Path())
	assert.Equal(t, "custom/out.json", NewFileExporter("custom/out.json").Path())
}

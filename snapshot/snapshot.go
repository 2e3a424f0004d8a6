// Package snapshot writes the denormalized JSON file the dashboard reads.
package snapshot

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/levelo-marseille/levelo-etl/model"
)

// DefaultPath is where the dashboard expects the snapshot.
const DefaultPath = "data/levelo_data.json"

// Exporter defines the interface for writing the dashboard snapshot.
type Exporter interface {
	Export(records []model.StationRecord) error
	Path() string
}

// FileExporter writes the snapshot as indented UTF-8 JSON, overwriting any
// previous file.
type FileExporter struct {
	path string
}

func NewFileExporter(path string) *FileExporter {
	if path == "" {
		path = DefaultPath
	}
	return &FileExporter{path: path}
}

func (e *FileExporter) Path() string {
	return e.path
}

// Export serializes the record list to the snapshot file, creating the parent
// directory when needed. Identical records produce byte-identical files, so
// the dashboard can cheaply detect unchanged data.
func (e *FileExporter) Export(records []model.StationRecord) error {
	if dir := filepath.Dir(e.path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create export directory: %w", err)
		}
	}

	data, err := marshalRecords(records)
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}

	if err := os.WriteFile(e.path, data, 0644); err != nil {
		return fmt.Errorf("failed to write snapshot: %w", err)
	}

	return nil
}

// marshalRecords renders an indented JSON array with HTML escaping off, so
// accented station names and ampersands in addresses stay literal.
func marshalRecords(records []model.StationRecord) ([]byte, error) {
	if records == nil {
		// The contract is an array, never null.
		records = []model.StationRecord{}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(records); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

package etl

import (
	"fmt"
	"log"
	"time"

	"github.com/levelo-marseille/levelo-etl/gbfs"
	"github.com/levelo-marseille/levelo-etl/model"
	"github.com/levelo-marseille/levelo-etl/snapshot"
	"github.com/levelo-marseille/levelo-etl/stationstore"
	"github.com/levelo-marseille/levelo-etl/transformer"
)

// Pipeline manages one end-to-end collection run: fetch the feed pair, merge
// and classify, persist, export the dashboard snapshot.
type Pipeline struct {
	Client      gbfs.Client
	Transformer transformer.Transformer
	Repo        stationstore.Repository
	Exporter    snapshot.Exporter
}

// NewPipeline creates a pipeline with all dependencies supplied by the caller.
func NewPipeline(client gbfs.Client, xformer transformer.Transformer, repo stationstore.Repository, exporter snapshot.Exporter) *Pipeline {
	return &Pipeline{
		Client:      client,
		Transformer: xformer,
		Repo:        repo,
		Exporter:    exporter,
	}
}

// Run executes the full collection cycle. Fetch, process, and persist
// failures abort the run; an export failure is only recorded on the summary,
// since the store already holds the data at that point.
func (p *Pipeline) Run() (*model.RunSummary, error) {
	startTime := time.Now()
	log.Println("--- Starting collection run ---")

	// 1. Fetch
	log.Println("1. Fetching station feeds...")
	feed, err := p.Client.Fetch()
	if err != nil {
		return nil, fmt.Errorf("fetch failed: %w", err)
	}
	log.Printf("   -> %d status entries, %d information entries", len(feed.Status), len(feed.Info))

	// 2. Process
	log.Println("2. Merging and classifying stations...")
	records, skipped := p.Transformer.Transform(feed)
	if len(records) == 0 {
		return nil, fmt.Errorf("process failed: no stations survived the merge (%d skipped)", len(skipped))
	}
	summary := model.NewRunSummary(records, skipped)
	log.Printf("   -> %d records, %d skipped", summary.Processed, len(skipped))

	// 3. Persist
	log.Println("3. Loading records to the store...")
	if err := p.Repo.Load(records); err != nil {
		return nil, fmt.Errorf("load failed: %w", err)
	}
	log.Printf("   -> Successfully loaded %d records", len(records))

	// 4. Export
	log.Println("4. Exporting dashboard snapshot...")
	summary.ExportPath = p.Exporter.Path()
	if err := p.Exporter.Export(records); err != nil {
		summary.ExportErr = err
		log.Printf("Warning: snapshot export failed: %v", err)
	} else {
		log.Printf("   -> Snapshot written to %s", summary.ExportPath)
	}

	summary.Duration = time.Since(startTime)
	log.Printf("--- Collection run completed in %v ---\n", summary.Duration.Round(time.Millisecond))
	return summary, nil
}

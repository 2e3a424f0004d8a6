package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/levelo-marseille/levelo-etl/etl"
	"github.com/levelo-marseille/levelo-etl/gbfs"
	"github.com/levelo-marseille/levelo-etl/report"
	"github.com/levelo-marseille/levelo-etl/snapshot"
	"github.com/levelo-marseille/levelo-etl/stationstore"
	"github.com/levelo-marseille/levelo-etl/transformer"
)

// config gathers the flag and environment settings for one invocation.
type config struct {
	statusURL   string
	infoURL     string
	store       string
	dbPath      string
	outPath     string
	batchSize   int
	supabaseURL string
	supabaseKey string
}

// newRepository builds the selected persistence sink. The Supabase secrets
// are checked here so a misconfigured cron job dies before any network
// activity.
func newRepository(cfg config) (stationstore.Repository, error) {
	switch cfg.store {
	case "supabase":
		if cfg.supabaseURL == "" || cfg.supabaseKey == "" {
			return nil, fmt.Errorf("SUPABASE_URL and SUPABASE_KEY environment variables are required")
		}
		return stationstore.NewSupabaseStore(cfg.supabaseURL, cfg.supabaseKey, cfg.batchSize), nil
	case "sqlite":
		return stationstore.NewSQLiteStore(cfg.dbPath)
	default:
		return nil, fmt.Errorf("unknown store %q (want supabase or sqlite)", cfg.store)
	}
}

// initDependencies sets up all components of the pipeline.
func initDependencies(cfg config) (*etl.Pipeline, stationstore.Repository, error) {
	repo, err := newRepository(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("dependency setup failed (stationstore): %w", err)
	}

	client := gbfs.NewFeedClient(cfg.statusURL, cfg.infoURL)
	xformer := transformer.NewStationTransformer()
	exporter := snapshot.NewFileExporter(cfg.outPath)

	pipeline := etl.NewPipeline(client, xformer, repo, exporter)

	return pipeline, repo, nil
}

func main() {
	// CLI flags
	runETL := flag.Bool("run", false, "Run the collection pipeline once")
	query := flag.String("query", "", "Query against the local archive (stats, critical, zones)")
	storeKind := flag.String("store", "supabase", "Persistence sink (supabase or sqlite)")
	dbPath := flag.String("db", "levelo.db", "SQLite archive path (with -store sqlite)")
	statusURL := flag.String("status-url", gbfs.DefaultStatusURL, "Station status feed URL")
	infoURL := flag.String("info-url", gbfs.DefaultInfoURL, "Station information feed URL")
	outPath := flag.String("out", snapshot.DefaultPath, "Dashboard snapshot path")
	batchSize := flag.Int("batch", stationstore.DefaultBatchSize, "Rows per store write request")

	flag.Parse()

	cfg := config{
		statusURL:   *statusURL,
		infoURL:     *infoURL,
		store:       *storeKind,
		dbPath:      *dbPath,
		outPath:     *outPath,
		batchSize:   *batchSize,
		supabaseURL: os.Getenv("SUPABASE_URL"),
		supabaseKey: os.Getenv("SUPABASE_KEY"),
	}

	if *runETL {
		pipeline, repo, err := initDependencies(cfg)
		if err != nil {
			log.Fatalf("Initialization error: %v", err)
		}
		defer repo.Close() // Ensure the archive connection is closed

		summary, err := pipeline.Run()
		if err != nil {
			log.Fatalf("Collection run failed: %v", err)
		}

		fmt.Println()
		fmt.Println(report.RenderSummary(summary))
		return
	}

	if *query != "" {
		if cfg.store != "sqlite" {
			log.Fatalf("Queries read the local archive: rerun with -store sqlite")
		}

		store, err := stationstore.NewSQLiteStore(cfg.dbPath)
		if err != nil {
			log.Fatalf("Initialization error: %v", err)
		}
		defer store.Close()

		runQuery(store, *query)
		return
	}

	// Default help message
	fmt.Println("Le Vélo Marseille data collector")
	fmt.Println("\nUsage:")
	fmt.Println("  Collect once:       go run . -run")
	fmt.Println("  Latest stats:       go run . -store sqlite -query stats")
	fmt.Println("  Critical stations:  go run . -store sqlite -query critical")
	fmt.Println("  Zone breakdown:     go run . -store sqlite -query zones")
	fmt.Println("\nOptional Flags:")
	fmt.Println("  -store [supabase|sqlite]: Persistence sink (default: supabase, needs SUPABASE_URL and SUPABASE_KEY)")
	fmt.Println("  -db [path]:               SQLite archive path (default: levelo.db)")
	fmt.Println("  -status-url, -info-url:   Feed endpoints (default: Marseille GBFS)")
	fmt.Println("  -out [path]:              Snapshot path (default: data/levelo_data.json)")
	fmt.Println("  -batch [n]:               Rows per store write request (default: 50)")
	os.Exit(1)
}

func runQuery(store stationstore.Analyzer, query string) {
	switch query {
	case "stats":
		stats, err := store.GetLatestStats()
		if err != nil {
			log.Fatalf("Query failed: %v", err)
		}
		fmt.Println(report.RenderStats(stats))

	case "critical":
		records, err := store.GetCriticalStations()
		if err != nil {
			log.Fatalf("Query failed: %v", err)
		}
		fmt.Println(report.RenderCritical(records))

	case "zones":
		zones, err := store.GetZoneBreakdown()
		if err != nil {
			log.Fatalf("Query failed: %v", err)
		}
		fmt.Println(report.RenderZones(zones))

	default:
		log.Fatalf("Unknown query %q (want stats, critical, or zones)", query)
	}
}

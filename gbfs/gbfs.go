// Package gbfs fetches the station status and station information feeds of a
// GBFS-style bike share system.
package gbfs

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/levelo-marseille/levelo-etl/model"
)

// Default Le Vélo Marseille endpoints. The upstream provider has moved more
// than once, so both URLs stay configurable.
const (
	DefaultStatusURL = "https://transport.data.gouv.fr/gbfs/marseille/station_status.json"
	DefaultInfoURL   = "https://transport.data.gouv.fr/gbfs/marseille/station_information.json"
)

// Client defines the interface for fetching the feed pair.
type Client interface {
	Fetch() (*model.FeedData, error)
}

// FeedClient implements Client against a status/information endpoint pair.
type FeedClient struct {
	statusURL string
	infoURL   string
	client    *http.Client
}

func NewFeedClient(statusURL, infoURL string) *FeedClient {
	return &FeedClient{
		statusURL: statusURL,
		infoURL:   infoURL,
		client:    &http.Client{Timeout: 10 * time.Second},
	}
}

// Fetch performs the two GET requests in sequence and decodes both envelopes.
// Either both station lists come back or the fetch fails as a whole; there are
// no retries and no partial results.
func (c *FeedClient) Fetch() (*model.FeedData, error) {
	var statusResp model.StatusResponse
	if err := c.getJSON(c.statusURL, &statusResp); err != nil {
		return nil, fmt.Errorf("status feed: %w", err)
	}

	var infoResp model.InfoResponse
	if err := c.getJSON(c.infoURL, &infoResp); err != nil {
		return nil, fmt.Errorf("information feed: %w", err)
	}

	logFeedAge("status", statusResp.LastUpdated)
	logFeedAge("information", infoResp.LastUpdated)

	return &model.FeedData{
		Status: statusResp.Data.Stations,
		Info:   infoResp.Data.Stations,
	}, nil
}

func (c *FeedClient) getJSON(url string, out interface{}) error {
	resp, err := c.client.Get(url)
	if err != nil {
		return fmt.Errorf("failed to fetch data: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		// Read body for better error context
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("feed returned status %d: %s", resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to parse JSON: %w", err)
	}

	return nil
}

// logFeedAge notes how stale the feed claims to be; a frozen last_updated is
// usually the first sign of an upstream outage.
func logFeedAge(name string, lastUpdated int64) {
	if lastUpdated <= 0 {
		return
	}
	age := time.Since(time.Unix(lastUpdated, 0)).Round(time.Second)
	log.Printf("   -> %s feed last updated %s ago", name, age)
}

package gbfs

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const statusPayload = `{
	"last_updated": 1700000000,
	"ttl": 60,
	"data": {
		"stations": [
			{
				"station_id": "1141",
				"num_bikes_available": 4,
				"num_docks_available": 12,
				"is_renting": 1,
				"is_installed": 1,
				"is_returning": 1,
				"last_reported": 1699999940
			},
			{
				"station_id": "1142",
				"num_bikes_available": 0,
				"num_docks_available": 16,
				"is_renting": 0,
				"last_reported": 1699999950
			}
		]
	}
}`

const infoPayload = `{
	"last_updated": 1700000000,
	"ttl": 300,
	"data": {
		"stations": [
			{
				"station_id": "1141",
				"name": "Canebière Garibaldi",
				"address": "Cours Garibaldi",
				"lat": 43.2982,
				"lon": 5.3761,
				"capacity": 16
			}
		]
	}
}`

// newFeedServer serves a status and an information endpoint from one listener.
func newFeedServer(status, info http.HandlerFunc) *httptest.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/station_status.json", status)
	mux.HandleFunc("/station_information.json", info)
	return httptest.NewServer(mux)
}

func serveJSON(body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(body))
	}
}

func serveError(code int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream unavailable", code)
	}
}

func TestFetchSuccess(t *testing.T) {
	server := newFeedServer(serveJSON(statusPayload), serveJSON(infoPayload))
	defer server.Close()

	client := NewFeedClient(server.URL+"/station_status.json", server.URL+"/station_information.json")
	feed, err := client.Fetch()

	require.NoError(t, err)
	require.NotNil(t, feed)
	require.Len(t, feed.Status, 2)
	require.Len(t, feed.Info, 1)

	assert.Equal(t, "1141", feed.Status[0].StationID.String())
	require.NotNil(t, feed.Status[0].NumBikesAvailable)
	assert.Equal(t, 4, *feed.Status[0].NumBikesAvailable)

	assert.Equal(t, "Canebière Garibaldi", feed.Info[0].Name)
	require.NotNil(t, feed.Info[0].Capacity)
	assert.Equal(t, 16, *feed.Info[0].Capacity)
}

func TestFetchStatusFeedFailure(t *testing.T) {
	server := newFeedServer(serveError(http.StatusInternalServerError), serveJSON(infoPayload))
	defer server.Close()

	client := NewFeedClient(server.URL+"/station_status.json", server.URL+"/station_information.json")
	feed, err := client.Fetch()

	require.Error(t, err)
	assert.Nil(t, feed)
	assert.Contains(t, err.Error(), "status feed")
	assert.Contains(t, err.Error(), "500")
}

func TestFetchInformationFeedFailure(t *testing.T) {
	server := newFeedServer(serveJSON(statusPayload), serveError(http.StatusBadGateway))
	defer server.Close()

	client := NewFeedClient(server.URL+"/station_status.json", server.URL+"/station_information.json")
	feed, err := client.Fetch()

	// One bad feed fails the whole fetch; no partial results escape.
	require.Error(t, err)
	assert.Nil(t, feed)
	assert.Contains(t, err.Error(), "information feed")
}

func TestFetchInvalidJSON(t *testing.T) {
	server := newFeedServer(serveJSON("{not json"), serveJSON(infoPayload))
	defer server.Close()

	client := NewFeedClient(server.URL+"/station_status.json", server.URL+"/station_information.json")
	_, err := client.Fetch()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse JSON")
}

func TestFetchConnectionRefused(t *testing.T) {
	// Grab a port that is closed by the time the client dials it.
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	client := NewFeedClient(url+"/station_status.json", url+"/station_information.json")
	_, err := client.Fetch()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to fetch data")
}

// A feed that stalls past the client deadline fails the fetch instead of
// hanging the run.
func TestFetchTimesOutOnStalledFeed(t *testing.T) {
	release := make(chan struct{})
	server := newFeedServer(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}, serveJSON(infoPayload))
	defer server.Close()
	defer close(release)

	client := &FeedClient{
		statusURL: server.URL + "/station_status.json",
		infoURL:   server.URL + "/station_information.json",
		client:    &http.Client{Timeout: 50 * time.Millisecond},
	}

	_, err := client.Fetch()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "status feed")
	assert.Contains(t, err.Error(), "failed to fetch data")
}

func TestNewFeedClientTimeout(t *testing.T) {
	client := NewFeedClient(DefaultStatusURL, DefaultInfoURL)

	assert.Equal(t, 10*time.Second, client.client.Timeout)
	assert.Equal(t, DefaultStatusURL, client.statusURL)
	assert.Equal(t, DefaultInfoURL, client.infoURL)
}

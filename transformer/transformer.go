package transformer

import (
	"hash/fnv"
	"log"
	"math"
	"strconv"
	"time"

	"github.com/levelo-marseille/levelo-etl/model"
)

// ZoneConfig is the latitude banding used for regional aggregation. A latitude
// at or above NorthMinLat is north, at or above CentreMinLat is centre, and
// everything below is south.
type ZoneConfig struct {
	NorthMinLat  float64
	CentreMinLat float64
	NorthLabel   string
	CentreLabel  string
	SouthLabel   string
}

// DefaultZones returns the fixed production banding for the Marseille network.
func DefaultZones() ZoneConfig {
	return ZoneConfig{
		NorthMinLat:  43.30,
		CentreMinLat: 43.28,
		NorthLabel:   "Nord Marseille",
		CentreLabel:  "Centre Marseille",
		SouthLabel:   "Sud Marseille",
	}
}

// Zone buckets a latitude into the configured banding.
func (z ZoneConfig) Zone(lat float64) string {
	switch {
	case lat >= z.NorthMinLat:
		return z.NorthLabel
	case lat >= z.CentreMinLat:
		return z.CentreLabel
	default:
		return z.SouthLabel
	}
}

// hashedIDSpace bounds the integer keys assigned to stations whose wire
// identifier is not numeric.
const hashedIDSpace = 1_000_000

// Transformer defines the interface for merging the two feeds into records.
type Transformer interface {
	Transform(feed *model.FeedData) ([]model.StationRecord, []model.SkippedStation)
}

// StationTransformer implements the Transformer interface.
type StationTransformer struct {
	zones ZoneConfig
}

func NewStationTransformer() *StationTransformer {
	return &StationTransformer{zones: DefaultZones()}
}

// NewStationTransformerWithZones overrides the zone banding. Production runs
// use the defaults; the override exists for other deployments and for tests.
func NewStationTransformerWithZones(zones ZoneConfig) *StationTransformer {
	return &StationTransformer{zones: zones}
}

// Transform joins status and information on the station identifier and
// derives the availability fields. Status entries without a usable identifier
// or without a matching information entry are skipped and reported, never
// fatal. All records of one call share a single capture instant so a run
// forms one queryable snapshot.
func (t *StationTransformer) Transform(feed *model.FeedData) ([]model.StationRecord, []model.SkippedStation) {
	infoByID := make(map[string]model.StationInfo, len(feed.Info))
	for _, info := range feed.Info {
		// Last write wins on duplicate identifiers.
		infoByID[info.StationID.String()] = info
	}

	records := make([]model.StationRecord, 0, len(feed.Status))
	var skipped []model.SkippedStation
	now := time.Now().UTC()

	for _, status := range feed.Status {
		rawID := status.StationID.String()
		if rawID == "" {
			skipped = append(skipped, model.SkippedStation{StationID: rawID, Reason: model.SkipEmptyID})
			continue
		}

		info, ok := infoByID[rawID]
		if !ok {
			skipped = append(skipped, model.SkippedStation{StationID: rawID, Reason: model.SkipMissingInfo})
			continue
		}

		bikes := intValue(status.NumBikesAvailable)
		docks := intValue(status.NumDocksAvailable)
		capacity := intValue(info.Capacity)
		rate := AvailabilityRate(bikes, capacity)

		records = append(records, model.StationRecord{
			StationID:        NormalizeID(rawID),
			Name:             info.Name,
			Address:          info.Address,
			Lat:              info.Lat,
			Lon:              info.Lon,
			Capacity:         capacity,
			BikesAvailable:   bikes,
			DocksAvailable:   docks,
			Status:           operationalStatus(status.IsRenting),
			DisplayStatus:    Classify(bikes, docks, rate),
			AvailabilityRate: rate,
			Zone:             t.zones.Zone(info.Lat),
			Timestamp:        now,
		})
	}

	if len(skipped) > 0 {
		log.Printf("Warning: skipped %d of %d status entries", len(skipped), len(feed.Status))
	}

	return records, skipped
}

// AvailabilityRate returns bikes/capacity as a percentage rounded to one
// decimal place, and exactly 0 when the capacity is zero or missing. A
// present-but-zero capacity is treated the same as an absent one.
func AvailabilityRate(bikes, capacity int) float64 {
	if capacity <= 0 {
		return 0
	}
	rate := float64(bikes) / float64(capacity) * 100
	return math.Round(rate*10) / 10
}

// Classify maps availability onto the four dashboard labels. Empty and full
// stations are critical regardless of their rate; the remaining bands are
// rate < 15 critical, rate < 40 warning, rate > 70 excellent, otherwise good.
func Classify(bikes, docks int, rate float64) string {
	switch {
	case bikes == 0:
		return model.DisplayCritical
	case docks == 0:
		return model.DisplayCritical
	case rate < 15:
		return model.DisplayCritical
	case rate < 40:
		return model.DisplayWarning
	case rate > 70:
		return model.DisplayExcellent
	default:
		return model.DisplayGood
	}
}

// NormalizeID coerces a wire identifier into the integer space the store
// uses. Numeric identifiers convert directly; anything else maps through a
// stable hash so the same station keeps the same key across runs.
func NormalizeID(raw string) int {
	if n, err := strconv.Atoi(raw); err == nil {
		return n
	}
	h := fnv.New32a()
	h.Write([]byte(raw))
	return int(h.Sum32() % hashedIDSpace)
}

// operationalStatus derives active/closed from the renting flag; an absent
// flag counts as renting.
func operationalStatus(isRenting *int) string {
	if isRenting != nil && *isRenting == 0 {
		return model.StatusClosed
	}
	return model.StatusActive
}

func intValue(p *int) int {
	if p == nil {
		return 0
	}
	return *p
}

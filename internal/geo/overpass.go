package geo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strings"
	"time"

	"roadchal/internal/domain"
	"roadchal/internal/observability"
)

// DefaultStationName is used for stations without a name tag.
const DefaultStationName = "Metro Station"

// ErrUpstreamFailure is returned when the Overpass API answers with a non-2xx status.
var ErrUpstreamFailure = errors.New("overpass upstream failure")

// StationFinder finds transit stations near a point.
type StationFinder interface {
	NearbyStations(ctx context.Context, lat, lng float64, radiusM int) ([]domain.Place, error)
}

// OverpassClient queries OpenStreetMap through the Overpass API.
type OverpassClient struct {
	apiURL string
	client *http.Client
}

// NewOverpassClient creates a new OverpassClient.
func NewOverpassClient(apiURL string, timeout time.Duration) *OverpassClient {
	return &OverpassClient{
		apiURL: apiURL,
		client: &http.Client{Timeout: timeout},
	}
}

type overpassResponse struct {
	Elements []struct {
		Lat  float64           `json:"lat"`
		Lon  float64           `json:"lon"`
		Tags map[string]string `json:"tags"`
	} `json:"elements"`
}

// NearbyStations returns subway stations within radiusM meters of the point.
func (c *OverpassClient) NearbyStations(ctx context.Context, lat, lng float64, radiusM int) (stations []domain.Place, err error) {
	defer func() {
		observability.UpstreamCallsTotal.WithLabelValues("overpass", observability.UpstreamStatus(err)).Inc()
	}()

	query := fmt.Sprintf(`[out:json];
node["railway"="station"]["station"="subway"](around:%d,%f,%f);
out;`, radiusM, lat, lng)

	form := url.Values{"data": {query}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("%w: status %d", ErrUpstreamFailure, resp.StatusCode)
	}

	var body overpassResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	stations = make([]domain.Place, 0, len(body.Elements))
	for _, el := range body.Elements {
		name := el.Tags["name"]
		if name == "" {
			name = DefaultStationName
		}
		stations = append(stations, domain.Place{Name: name, Lat: el.Lat, Lng: el.Lon})
	}
	return stations, nil
}

// MetroPlanner picks the endpoint of the first leg of a journey.
type MetroPlanner struct {
	finder  StationFinder
	radiusM int
}

// NewMetroPlanner creates a new MetroPlanner.
func NewMetroPlanner(finder StationFinder, radiusM int) *MetroPlanner {
	return &MetroPlanner{finder: finder, radiusM: radiusM}
}

// NearestMetroOrDirect returns the station closest to start, unless the lookup
// fails, finds nothing, or the destination is at least as close as that station;
// in those cases the destination itself is returned.
func (p *MetroPlanner) NearestMetroOrDirect(ctx context.Context, start, destination domain.Place) domain.Place {
	stations, err := p.finder.NearbyStations(ctx, start.Lat, start.Lng, p.radiusM)
	if err != nil || len(stations) == 0 {
		return destination
	}

	closest := stations[0]
	best := math.Inf(1)
	for _, s := range stations {
		if d := Distance(start, s); d < best {
			best = d
			closest = s
		}
	}

	if Distance(start, destination) <= best {
		return destination
	}
	return closest
}

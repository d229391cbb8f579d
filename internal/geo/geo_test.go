package geo

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"roadchal/internal/domain"
)

func TestHaversine(t *testing.T) {
	assert.InDelta(t, 0, Haversine(18.52, 73.85, 18.52, 73.85), 1e-9)

	// One degree of latitude is roughly 111.2 km.
	assert.InDelta(t, 111195, Haversine(0, 0, 1, 0), 50)

	// Pune to Mumbai is roughly 120 km as the crow flies.
	assert.InDelta(t, 120000, Haversine(18.5204, 73.8567, 19.0760, 72.8777), 5000)
}

func TestValidCoordinates(t *testing.T) {
	assert.True(t, ValidCoordinates(18.5, 73.8))
	assert.True(t, ValidCoordinates(-90, 180))
	assert.False(t, ValidCoordinates(91, 0))
	assert.False(t, ValidCoordinates(0, -181))
}

type stubFinder struct {
	stations []domain.Place
	err      error
}

func (s stubFinder) NearbyStations(ctx context.Context, lat, lng float64, radiusM int) ([]domain.Place, error) {
	return s.stations, s.err
}

func TestMetroPlanner_NearestMetroOrDirect(t *testing.T) {
	start := domain.Place{Name: "Home", Lat: 18.5000, Lng: 73.8000}
	farDestination := domain.Place{Name: "Lonavala", Lat: 18.7350, Lng: 73.6750}
	nearStation := domain.Place{Name: "Akurdi", Lat: 18.5050, Lng: 73.8000}
	farStation := domain.Place{Name: "Nigdi", Lat: 18.5300, Lng: 73.8000}

	cases := []struct {
		name        string
		finder      stubFinder
		destination domain.Place
		want        domain.Place
	}{
		{
			name:        "lookup error falls back to destination",
			finder:      stubFinder{err: errors.New("boom")},
			destination: farDestination,
			want:        farDestination,
		},
		{
			name:        "no stations falls back to destination",
			finder:      stubFinder{},
			destination: farDestination,
			want:        farDestination,
		},
		{
			name:        "closest station wins",
			finder:      stubFinder{stations: []domain.Place{farStation, nearStation}},
			destination: farDestination,
			want:        nearStation,
		},
		{
			name:        "destination closer than any station",
			finder:      stubFinder{stations: []domain.Place{farStation}},
			destination: domain.Place{Name: "Corner", Lat: 18.5010, Lng: 73.8000},
			want:        domain.Place{Name: "Corner", Lat: 18.5010, Lng: 73.8000},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			planner := NewMetroPlanner(tc.finder, 5000)
			got := planner.NearestMetroOrDirect(context.Background(), start, tc.destination)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestOverpassClient_NearbyStations(t *testing.T) {
	var gotQuery string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		gotQuery = r.PostForm.Get("data")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"elements":[
			{"lat":18.6483,"lon":73.7675,"tags":{"name":"PCMC"}},
			{"lat":18.6298,"lon":73.7997,"tags":{}}
		]}`))
	}))
	defer server.Close()

	client := NewOverpassClient(server.URL, time.Second)
	stations, err := client.NearbyStations(context.Background(), 18.64, 73.78, 5000)
	require.NoError(t, err)

	assert.True(t, strings.Contains(gotQuery, `(around:5000,18.640000,73.780000)`))
	assert.True(t, strings.Contains(gotQuery, `["station"="subway"]`))
	require.Len(t, stations, 2)
	assert.Equal(t, domain.Place{Name: "PCMC", Lat: 18.6483, Lng: 73.7675}, stations[0])
	assert.Equal(t, DefaultStationName, stations[1].Name)
}

func TestOverpassClient_UpstreamError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := NewOverpassClient(server.URL, time.Second)
	_, err := client.NearbyStations(context.Background(), 18.64, 73.78, 5000)
	assert.ErrorIs(t, err, ErrUpstreamFailure)
}

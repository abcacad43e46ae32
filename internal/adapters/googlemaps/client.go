package googlemaps

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/thihaagset01/midwhereah/internal/core/domain"
	"github.com/thihaagset01/midwhereah/internal/core/ports"
)

const defaultBaseURL = "https://routes.googleapis.com"

// The Routes API requires an explicit field mask; requests without one are
// rejected.
const fieldMask = "routes.duration,routes.distanceMeters"

// Client implements ports.TravelTimeOracle against the Google Routes API v2
// computeRoutes endpoint.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// New creates a Routes API client.
func New(apiKey string) *Client {
	return &Client{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// NewWithBaseURL creates a client against a non-default endpoint, for tests.
func NewWithBaseURL(apiKey, baseURL string) *Client {
	c := New(apiKey)
	c.baseURL = strings.TrimSuffix(baseURL, "/")
	return c
}

type latLng struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type waypoint struct {
	Location struct {
		LatLng latLng `json:"latLng"`
	} `json:"location"`
}

type computeRoutesRequest struct {
	Origin            waypoint `json:"origin"`
	Destination       waypoint `json:"destination"`
	TravelMode        string   `json:"travelMode"`
	RoutingPreference string   `json:"routingPreference,omitempty"`
}

type computeRoutesResponse struct {
	Routes []struct {
		Duration       string `json:"duration"`
		DistanceMeters int32  `json:"distanceMeters"`
	} `json:"routes"`
}

// Lookup returns the route duration in minutes for one origin-destination
// pair. An empty route list maps to ports.ErrNoRoute.
func (c *Client) Lookup(ctx context.Context, origin, destination domain.GeoPoint, mode domain.TransportMode) (float64, error) {
	reqBody := computeRoutesRequest{TravelMode: travelMode(mode)}
	reqBody.Origin.Location.LatLng = latLng{Latitude: origin.Lat, Longitude: origin.Lng}
	reqBody.Destination.Location.LatLng = latLng{Latitude: destination.Lat, Longitude: destination.Lng}
	if reqBody.TravelMode == "DRIVE" {
		reqBody.RoutingPreference = "TRAFFIC_AWARE"
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return 0, fmt.Errorf("marshal routes request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/directions/v2:computeRoutes", bytes.NewReader(payload))
	if err != nil {
		return 0, fmt.Errorf("build routes request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Goog-Api-Key", c.apiKey)
	req.Header.Set("X-Goog-FieldMask", fieldMask)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("routes request: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return 0, fmt.Errorf("routes api rate limited")
	case resp.StatusCode >= 400:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return 0, fmt.Errorf("routes api status %d: %s", resp.StatusCode, string(body))
	}

	var parsed computeRoutesResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return 0, fmt.Errorf("decode routes response: %w", err)
	}
	if len(parsed.Routes) == 0 {
		return 0, ports.ErrNoRoute
	}

	seconds, err := parseDuration(parsed.Routes[0].Duration)
	if err != nil {
		return 0, fmt.Errorf("parse route duration: %w", err)
	}

	return seconds / 60.0, nil
}

// travelMode maps the domain transport mode onto the Routes API enum.
func travelMode(mode domain.TransportMode) string {
	switch mode {
	case domain.ModeDriving:
		return "DRIVE"
	case domain.ModeTransit:
		return "TRANSIT"
	case domain.ModeWalking:
		return "WALK"
	case domain.ModeCycling:
		return "BICYCLE"
	}
	return "TRANSIT"
}

// parseDuration parses the API's "450s" duration form.
func parseDuration(s string) (float64, error) {
	if s == "" {
		return 0, fmt.Errorf("empty duration")
	}
	trimmed := strings.TrimSuffix(s, "s")
	seconds, err := strconv.ParseFloat(trimmed, 64)
	if err != nil {
		return 0, fmt.Errorf("duration %q: %w", s, err)
	}
	return seconds, nil
}

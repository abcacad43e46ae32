package foursquare

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/thihaagset01/midwhereah/internal/core/domain"
)

const defaultBaseURL = "https://api.foursquare.com"

// Client implements ports.VenueDiscovery against the Foursquare Places API.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// New creates a Places API client.
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

type searchResponse struct {
	Results []struct {
		FsqID    string   `json:"fsq_id"`
		Name     string   `json:"name"`
		Rating   *float64 `json:"rating,omitempty"`
		Geocodes struct {
			Main struct {
				Latitude  float64 `json:"latitude"`
				Longitude float64 `json:"longitude"`
			} `json:"main"`
		} `json:"geocodes"`
		Categories []struct {
			Name string `json:"name"`
		} `json:"categories"`
	} `json:"results"`
}

// FindNear returns venues around point within radiusMeters. An empty result
// is not an error.
func (c *Client) FindNear(ctx context.Context, point domain.GeoPoint, radiusMeters int, categories []string, limit int) ([]domain.Venue, error) {
	q := url.Values{}
	q.Set("ll", fmt.Sprintf("%f,%f", point.Lat, point.Lng))
	q.Set("radius", strconv.Itoa(radiusMeters))
	q.Set("limit", strconv.Itoa(limit))
	q.Set("fields", "fsq_id,name,rating,geocodes,categories")
	if len(categories) > 0 {
		q.Set("query", strings.Join(categories, ","))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+"/v3/places/search?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build places request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("places request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("places api status %d: %s", resp.StatusCode, string(body))
	}

	var parsed searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode places response: %w", err)
	}

	venues := make([]domain.Venue, 0, len(parsed.Results))
	for _, r := range parsed.Results {
		v := domain.Venue{
			ID:     r.FsqID,
			Name:   r.Name,
			Rating: r.Rating,
			Location: domain.GeoPoint{
				Lat: r.Geocodes.Main.Latitude,
				Lng: r.Geocodes.Main.Longitude,
			},
		}
		if len(r.Categories) > 0 {
			v.Category = r.Categories[0].Name
		}
		venues = append(venues, v)
	}
	return venues, nil
}

package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"

	handler "github.com/thihaagset01/midwhereah/internal/adapters/http"
	"github.com/thihaagset01/midwhereah/internal/adapters/memory"
	"github.com/thihaagset01/midwhereah/internal/core/domain"
	"github.com/thihaagset01/midwhereah/internal/core/usecases"
)

// ---- Test helpers ----

var testHubs = []domain.TransitHub{
	{Name: "Orchard", Location: domain.GeoPoint{Lat: 1.3040, Lng: 103.8318}},
	{Name: "Raffles Place", Location: domain.GeoPoint{Lat: 1.2840, Lng: 103.8515}},
	{Name: "Jurong East", Location: domain.GeoPoint{Lat: 1.3330, Lng: 103.7422}},
}

func makeDeps(t *testing.T, opts ...func(*handler.Dependencies)) *handler.Dependencies {
	t.Helper()
	throttler := usecases.NewThrottler(1000)
	t.Cleanup(throttler.Close)

	travel := usecases.NewTravelTimeService(nil, memory.New(), throttler, time.Hour)
	candidates := usecases.NewCandidateService(testHubs, 15)
	optimizer := usecases.NewOptimizerService(candidates, travel, nil, nil, usecases.OptimizerConfig{})

	d := &handler.Dependencies{
		Optimizer: optimizer,
		Hubs:      testHubs,
		Cache:     memory.New(),
	}
	for _, o := range opts {
		o(d)
	}
	return d
}

func setupApp(deps *handler.Dependencies) *fiber.App {
	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	handler.SetupRoutes(app, deps)
	return app
}

func doPost(t *testing.T, app *fiber.App, path string, body string) (int, []byte) {
	t.Helper()
	req := httptest.NewRequest("POST", path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	data, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, data
}

const validOptimizeBody = `{
	"group_key": "grp-1",
	"participants": [
		{"id": "a", "lat": 1.3521, "lng": 103.8198, "mode": "TRANSIT"},
		{"id": "b", "lat": 1.3621, "lng": 103.8298, "mode": "DRIVING"}
	]
}`

// ---- Optimize handler tests ----

func TestOptimize_Success(t *testing.T) {
	app := setupApp(makeDeps(t))

	status, body := doPost(t, app, "/v1/optimize", validOptimizeBody)
	if status != 200 {
		t.Fatalf("expected 200, got %d: %s", status, body)
	}

	var result domain.OptimizationResult
	if err := json.Unmarshal(body, &result); err != nil {
		t.Fatalf("decode result: %v", err)
	}
	if len(result.TravelTimes) != 2 {
		t.Errorf("expected 2 travel times, got %d", len(result.TravelTimes))
	}
	if !result.Point.Valid() {
		t.Errorf("result point invalid: %+v", result.Point)
	}
	if result.Metadata.ParticipantCount != 2 {
		t.Errorf("participant count = %d", result.Metadata.ParticipantCount)
	}
}

func TestOptimize_TooFewParticipants(t *testing.T) {
	app := setupApp(makeDeps(t))

	status, body := doPost(t, app, "/v1/optimize", `{
		"participants": [{"id": "solo", "lat": 1.35, "lng": 103.82, "mode": "TRANSIT"}]
	}`)
	if status != 422 {
		t.Fatalf("expected 422, got %d: %s", status, body)
	}

	var apiErr struct {
		Code string `json:"code"`
	}
	json.Unmarshal(body, &apiErr)
	if apiErr.Code != "unprocessable" {
		t.Errorf("expected unprocessable code, got %s", apiErr.Code)
	}
}

func TestOptimize_UnknownMode(t *testing.T) {
	app := setupApp(makeDeps(t))

	status, _ := doPost(t, app, "/v1/optimize", `{
		"participants": [
			{"id": "a", "lat": 1.35, "lng": 103.82, "mode": "TELEPORT"},
			{"id": "b", "lat": 1.36, "lng": 103.83, "mode": "TRANSIT"}
		]
	}`)
	if status != 422 {
		t.Fatalf("expected 422 for unknown mode, got %d", status)
	}
}

func TestOptimize_InvalidCoordinate(t *testing.T) {
	app := setupApp(makeDeps(t))

	status, _ := doPost(t, app, "/v1/optimize", `{
		"participants": [
			{"id": "a", "lat": 95.0, "lng": 103.82, "mode": "TRANSIT"},
			{"id": "b", "lat": 1.36, "lng": 103.83, "mode": "TRANSIT"}
		]
	}`)
	if status != 422 {
		t.Fatalf("expected 422 for invalid coordinate, got %d", status)
	}
}

func TestOptimize_MalformedBody(t *testing.T) {
	app := setupApp(makeDeps(t))

	status, body := doPost(t, app, "/v1/optimize", `{not json`)
	if status != 400 {
		t.Fatalf("expected 400, got %d", status)
	}

	var apiErr struct {
		Code string `json:"code"`
	}
	json.Unmarshal(body, &apiErr)
	if apiErr.Code != "bad_request" {
		t.Errorf("expected bad_request code, got %s", apiErr.Code)
	}
}

func TestOptimize_ConfigOverrides(t *testing.T) {
	app := setupApp(makeDeps(t))

	// Unmeetable constraints force the terminal fallback.
	status, body := doPost(t, app, "/v1/optimize", `{
		"participants": [
			{"id": "a", "lat": 1.35, "lng": 103.82, "mode": "TRANSIT"},
			{"id": "b", "lat": 2.25, "lng": 103.82, "mode": "TRANSIT"}
		],
		"config": {"max_time_minutes": 1, "max_range_minutes": 1}
	}`)
	if status != 200 {
		t.Fatalf("expected 200, got %d: %s", status, body)
	}

	var result domain.OptimizationResult
	json.Unmarshal(body, &result)
	if !result.FallbackUsed {
		t.Error("tight constraints should flag fallback")
	}
	if result.Source != domain.SourceTerminalFallback {
		t.Errorf("source = %s, want terminal fallback", result.Source)
	}
}

// ---- Estimate handler tests ----

func TestEstimate_Success(t *testing.T) {
	app := setupApp(makeDeps(t))

	status, body := doPost(t, app, "/v1/estimate", `{
		"participants": [{"id": "a", "lat": 1.3521, "lng": 103.8198, "mode": "WALKING"}],
		"destination": {"lat": 1.3571, "lng": 103.8248}
	}`)
	if status != 200 {
		t.Fatalf("expected 200, got %d: %s", status, body)
	}

	var result struct {
		TravelTimes []float64 `json:"travel_times"`
	}
	json.Unmarshal(body, &result)
	if len(result.TravelTimes) != 1 {
		t.Fatalf("expected 1 travel time, got %d", len(result.TravelTimes))
	}
	if result.TravelTimes[0] <= 0 {
		t.Errorf("expected positive estimate, got %f", result.TravelTimes[0])
	}
}

func TestEstimate_InvalidDestination(t *testing.T) {
	app := setupApp(makeDeps(t))

	status, _ := doPost(t, app, "/v1/estimate", `{
		"participants": [{"id": "a", "lat": 1.35, "lng": 103.82, "mode": "TRANSIT"}],
		"destination": {"lat": 200, "lng": 0}
	}`)
	if status != 422 {
		t.Fatalf("expected 422, got %d", status)
	}
}

// ---- Hubs handler tests ----

func TestListHubs_Success(t *testing.T) {
	app := setupApp(makeDeps(t))

	req := httptest.NewRequest("GET", "/v1/hubs", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var result struct {
		Data       []struct{ Name string } `json:"data"`
		Pagination struct {
			Total int `json:"total"`
		} `json:"pagination"`
	}
	json.NewDecoder(resp.Body).Decode(&result)
	if result.Pagination.Total != 3 {
		t.Errorf("expected 3 hubs, got %d", result.Pagination.Total)
	}
}

func TestListHubs_SortedByDistance(t *testing.T) {
	app := setupApp(makeDeps(t))

	// Query from right next to Raffles Place.
	req := httptest.NewRequest("GET", "/v1/hubs?lat=1.2840&lng=103.8515", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var result struct {
		Data []struct {
			Name       string   `json:"name"`
			DistanceKm *float64 `json:"distance_km"`
		} `json:"data"`
	}
	json.NewDecoder(resp.Body).Decode(&result)
	if len(result.Data) != 3 {
		t.Fatalf("expected 3 hubs, got %d", len(result.Data))
	}
	if result.Data[0].Name != "Raffles Place" {
		t.Errorf("nearest hub = %s, want Raffles Place", result.Data[0].Name)
	}
	if result.Data[0].DistanceKm == nil {
		t.Fatal("expected distance_km when lat/lng provided")
	}
	for i := 1; i < len(result.Data); i++ {
		if *result.Data[i].DistanceKm < *result.Data[i-1].DistanceKm {
			t.Errorf("hubs not sorted by distance at index %d", i)
		}
	}
}

func TestListHubs_InvalidPoint(t *testing.T) {
	app := setupApp(makeDeps(t))

	req := httptest.NewRequest("GET", "/v1/hubs?lat=999&lng=0", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 400 {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestListHubs_Pagination(t *testing.T) {
	app := setupApp(makeDeps(t))

	req := httptest.NewRequest("GET", "/v1/hubs?offset=1&limit=1", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var result struct {
		Data       []struct{ Name string } `json:"data"`
		Pagination struct {
			Offset int `json:"offset"`
			Total  int `json:"total"`
		} `json:"pagination"`
	}
	json.NewDecoder(resp.Body).Decode(&result)
	if len(result.Data) != 1 {
		t.Errorf("expected 1 hub in page, got %d", len(result.Data))
	}
	if result.Pagination.Offset != 1 || result.Pagination.Total != 3 {
		t.Errorf("unexpected pagination: %+v", result.Pagination)
	}

	link := resp.Header.Get("Link")
	if !strings.Contains(link, `rel="next"`) || !strings.Contains(link, `rel="prev"`) {
		t.Errorf("expected next and prev links, got %s", link)
	}
}

func TestListHubs_CacheControlHeader(t *testing.T) {
	app := setupApp(makeDeps(t))

	req := httptest.NewRequest("GET", "/v1/hubs", nil)
	resp, _ := app.Test(req, -1)
	if cc := resp.Header.Get("Cache-Control"); cc != "public, max-age=3600" {
		t.Errorf("expected long cache on hubs, got %q", cc)
	}
}

// ---- Health handler tests ----

func TestHealth_Returns200(t *testing.T) {
	app := setupApp(makeDeps(t))

	req := httptest.NewRequest("GET", "/v1/health", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var result map[string]interface{}
	json.NewDecoder(resp.Body).Decode(&result)
	if result["status"] != "healthy" {
		t.Errorf("expected healthy status, got %v", result["status"])
	}
}

func TestReady_WithMemoryCache(t *testing.T) {
	app := setupApp(makeDeps(t))

	req := httptest.NewRequest("GET", "/v1/ready", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
}

func TestReady_NoCache(t *testing.T) {
	deps := makeDeps(t, func(d *handler.Dependencies) {
		d.Cache = nil
	})
	app := setupApp(deps)

	req := httptest.NewRequest("GET", "/v1/ready", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 503 {
		t.Fatalf("expected 503 without a cache, got %d", resp.StatusCode)
	}
}

func TestReady_CachePingFailure(t *testing.T) {
	deps := makeDeps(t, func(d *handler.Dependencies) {
		d.CachePing = func(ctx context.Context) error {
			return errors.New("connection refused")
		}
	})
	app := setupApp(deps)

	req := httptest.NewRequest("GET", "/v1/ready", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 503 {
		t.Fatalf("expected 503 on cache ping failure, got %d", resp.StatusCode)
	}
}

// ---- X-API-Version header ----

func TestAPIVersionHeader(t *testing.T) {
	app := setupApp(makeDeps(t))

	req := httptest.NewRequest("GET", "/v1/health", nil)
	resp, _ := app.Test(req, -1)
	if v := resp.Header.Get("X-API-Version"); v != "1.0.0" {
		t.Errorf("expected X-API-Version 1.0.0, got %q", v)
	}
}

// ---- GraphQL tests ----

func TestGraphQL_TransitHubs(t *testing.T) {
	app := setupApp(makeDeps(t))

	status, body := doPost(t, app, "/graphql", `{"query": "{ transitHubs { name location { lat lng } } }"}`)
	if status != 200 {
		t.Fatalf("expected 200, got %d: %s", status, body)
	}

	var result struct {
		Data struct {
			TransitHubs []struct {
				Name string `json:"name"`
			} `json:"transitHubs"`
		} `json:"data"`
		Errors []interface{} `json:"errors"`
	}
	json.Unmarshal(body, &result)
	if len(result.Errors) != 0 {
		t.Fatalf("graphql errors: %v", result.Errors)
	}
	if len(result.Data.TransitHubs) != 3 {
		t.Errorf("expected 3 hubs, got %d", len(result.Data.TransitHubs))
	}
}

func TestGraphQL_OptimizeMutation(t *testing.T) {
	app := setupApp(makeDeps(t))

	query := `mutation {
		optimize(participants: [
			{id: "a", lat: 1.3521, lng: 103.8198, mode: "TRANSIT"},
			{id: "b", lat: 1.3621, lng: 103.8298, mode: "DRIVING"}
		]) {
			point { lat lng }
			equity_score
			fallback_used
		}
	}`
	payload, _ := json.Marshal(map[string]string{"query": query})

	req := httptest.NewRequest("POST", "/graphql", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var result struct {
		Data struct {
			Optimize struct {
				Point struct {
					Lat float64 `json:"lat"`
					Lng float64 `json:"lng"`
				} `json:"point"`
			} `json:"optimize"`
		} `json:"data"`
		Errors []interface{} `json:"errors"`
	}
	json.NewDecoder(resp.Body).Decode(&result)
	if len(result.Errors) != 0 {
		t.Fatalf("graphql errors: %v", result.Errors)
	}
	if result.Data.Optimize.Point.Lat == 0 {
		t.Error("expected a non-zero optimize point")
	}
}

// A repeat GET presenting the previous ETag gets a bodyless 304.
func TestETag_ConditionalHubRequest(t *testing.T) {
	app := setupApp(makeDeps(t))

	req := httptest.NewRequest("GET", "/v1/hubs", nil)
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatal(err)
	}
	etag := resp.Header.Get("ETag")
	if !strings.HasPrefix(etag, `W/"`) {
		t.Fatalf("expected a weak ETag, got %q", etag)
	}

	again := httptest.NewRequest("GET", "/v1/hubs", nil)
	again.Header.Set("If-None-Match", etag)
	resp2, err := app.Test(again, -1)
	if err != nil {
		t.Fatal(err)
	}
	if resp2.StatusCode != 304 {
		t.Fatalf("expected 304, got %d", resp2.StatusCode)
	}
	body, _ := io.ReadAll(resp2.Body)
	if len(body) != 0 {
		t.Errorf("304 must carry no body, got %d bytes", len(body))
	}
}

// TestAccessLogMiddleware verifies structured access logging passes requests through.
func TestAccessLogMiddleware(t *testing.T) {
	app := fiber.New()
	app.Use(handler.AccessLogMiddleware())
	app.Get("/test", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"ok": true})
	})

	req := httptest.NewRequest("GET", "/test", nil)
	req.Header.Set("X-Request-ID", "test-req-123")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Errorf("expected 200, got %d", resp.StatusCode)
	}

	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), "ok") {
		t.Errorf("expected response body to contain 'ok', got %s", string(body))
	}
}

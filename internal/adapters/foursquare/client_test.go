package foursquare

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/thihaagset01/midwhereah/internal/core/domain"
)

func TestFindNear_ParsesVenues(t *testing.T) {
	var gotAuth string
	var gotQuery map[string]string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotQuery = map[string]string{
			"ll":     r.URL.Query().Get("ll"),
			"radius": r.URL.Query().Get("radius"),
			"limit":  r.URL.Query().Get("limit"),
			"query":  r.URL.Query().Get("query"),
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"results": [
				{
					"fsq_id": "abc123",
					"name": "Tiong Bahru Bakery",
					"rating": 8.9,
					"geocodes": {"main": {"latitude": 1.2847, "longitude": 103.8303}},
					"categories": [{"name": "Bakery"}, {"name": "Cafe"}]
				},
				{
					"fsq_id": "def456",
					"name": "Unrated Corner",
					"geocodes": {"main": {"latitude": 1.2850, "longitude": 103.8310}},
					"categories": []
				}
			]
		}`))
	}))
	defer server.Close()

	client := NewWithBaseURL("fsq-key", server.URL)
	venues, err := client.FindNear(context.Background(),
		domain.GeoPoint{Lat: 1.2847, Lng: 103.8303}, 500, []string{"restaurant", "cafe"}, 10)
	if err != nil {
		t.Fatalf("FindNear: %v", err)
	}

	if gotAuth != "fsq-key" {
		t.Errorf("authorization header = %q", gotAuth)
	}
	if gotQuery["radius"] != "500" || gotQuery["limit"] != "10" {
		t.Errorf("query params = %+v", gotQuery)
	}
	if gotQuery["query"] != "restaurant,cafe" {
		t.Errorf("category query = %q", gotQuery["query"])
	}

	if len(venues) != 2 {
		t.Fatalf("expected 2 venues, got %d", len(venues))
	}
	first := venues[0]
	if first.ID != "abc123" || first.Name != "Tiong Bahru Bakery" {
		t.Errorf("unexpected first venue: %+v", first)
	}
	if first.Rating == nil || *first.Rating != 8.9 {
		t.Errorf("rating = %v, want 8.9", first.Rating)
	}
	if first.Category != "Bakery" {
		t.Errorf("category = %q, want Bakery", first.Category)
	}
	if venues[1].Rating != nil {
		t.Errorf("missing rating should stay nil, got %v", *venues[1].Rating)
	}
	if venues[1].Category != "" {
		t.Errorf("empty categories should yield empty string, got %q", venues[1].Category)
	}
}

func TestFindNear_EmptyResultIsNotError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"results":[]}`))
	}))
	defer server.Close()

	client := NewWithBaseURL("fsq-key", server.URL)
	venues, err := client.FindNear(context.Background(),
		domain.GeoPoint{Lat: 1.35, Lng: 103.82}, 500, nil, 10)
	if err != nil {
		t.Fatalf("FindNear: %v", err)
	}
	if len(venues) != 0 {
		t.Errorf("expected no venues, got %d", len(venues))
	}
}

func TestFindNear_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"message":"invalid key"}`))
	}))
	defer server.Close()

	client := NewWithBaseURL("bad-key", server.URL)
	_, err := client.FindNear(context.Background(),
		domain.GeoPoint{Lat: 1.35, Lng: 103.82}, 500, nil, 10)
	if err == nil {
		t.Fatal("expected error on 401")
	}
}

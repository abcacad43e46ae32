package usecases

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/thihaagset01/midwhereah/internal/core/domain"
	"github.com/thihaagset01/midwhereah/internal/core/ports"
	"github.com/thihaagset01/midwhereah/internal/pkg/metrics"
)

// assumedSpeedsKmh drive the local fallback estimate when the oracle cannot
// answer for a participant.
var assumedSpeedsKmh = map[domain.TransportMode]float64{
	domain.ModeDriving: 60.0,
	domain.ModeTransit: 30.0,
	domain.ModeWalking: 5.0,
	domain.ModeCycling: 15.0,
}

// modeFactors adjust raw oracle durations for real-world friction: driving
// pays for congestion and parking, walking for climate, transit is near
// face value. Factors apply before caching, so cache hits return final
// minutes.
var modeFactors = map[domain.TransportMode]float64{
	domain.ModeDriving: 1.3,
	domain.ModeTransit: 1.05,
	domain.ModeWalking: 1.15,
	domain.ModeCycling: 1.1,
}

// travelTimeEntry is the cached value for one (origin, destination, mode)
// key. ComputedAt is retained for debugging; freshness is enforced by the
// cache's own TTL.
type travelTimeEntry struct {
	Minutes    float64   `json:"minutes"`
	ComputedAt time.Time `json:"computed_at"`
}

// TravelTimeService answers travel-time queries for a whole participant set
// against one destination. Lookups go cache → throttled oracle → local
// estimate, and a failure for one participant never affects the others.
type TravelTimeService struct {
	oracle     ports.TravelTimeOracle
	cache      ports.CacheService
	throttler  *Throttler
	ttlSeconds int
}

// NewTravelTimeService wires the provider. cache and throttler must be
// non-nil; oracle may be nil, in which case every lookup uses the local
// estimate.
func NewTravelTimeService(oracle ports.TravelTimeOracle, cache ports.CacheService, throttler *Throttler, ttl time.Duration) *TravelTimeService {
	return &TravelTimeService{
		oracle:     oracle,
		cache:      cache,
		throttler:  throttler,
		ttlSeconds: int(ttl.Seconds()),
	}
}

// Times returns one travel time per participant, index-aligned with the
// input. Per-participant lookups run concurrently; the throttler, not an
// arbitrary cap, bounds oracle pressure. Times never fails: any lookup that
// errors or outlives ctx degrades to the haversine estimate for that
// participant alone.
func (s *TravelTimeService) Times(ctx context.Context, participants []domain.Participant, destination domain.GeoPoint) []float64 {
	times := make([]float64, len(participants))

	var wg sync.WaitGroup
	for i, p := range participants {
		wg.Add(1)
		go func(i int, p domain.Participant) {
			defer wg.Done()
			times[i] = s.timeFor(ctx, p, destination)
		}(i, p)
	}
	wg.Wait()

	return times
}

func (s *TravelTimeService) timeFor(ctx context.Context, p domain.Participant, destination domain.GeoPoint) float64 {
	key := travelTimeKey(p.Location, destination, p.Mode)

	if cached, err := s.cacheGet(ctx, key); err == nil {
		metrics.TravelTimeCacheHits.Inc()
		return cached
	}
	metrics.TravelTimeCacheMisses.Inc()

	if s.oracle == nil {
		return s.Estimate(p, destination)
	}

	var (
		minutes   float64
		lookupErr error
	)
	queuedAt := time.Now()
	err := s.throttler.Do(ctx, func() {
		minutes, lookupErr = s.oracle.Lookup(ctx, p.Location, destination, p.Mode)
	})
	metrics.OracleQueueWait.Observe(time.Since(queuedAt).Seconds())

	if err != nil {
		// Deadline hit while queued; never block the pipeline on the oracle.
		metrics.OracleRequests.WithLabelValues(string(p.Mode), "timeout").Inc()
		return s.Estimate(p, destination)
	}
	if lookupErr != nil {
		if errors.Is(lookupErr, ports.ErrNoRoute) {
			metrics.OracleRequests.WithLabelValues(string(p.Mode), "no_route").Inc()
			slog.Debug("no route, using local estimate",
				"participant", p.ID, "mode", p.Mode)
		} else {
			metrics.OracleRequests.WithLabelValues(string(p.Mode), "error").Inc()
			slog.Warn("travel time lookup failed, using local estimate",
				"participant", p.ID, "mode", p.Mode, "error", lookupErr)
		}
		return s.Estimate(p, destination)
	}
	metrics.OracleRequests.WithLabelValues(string(p.Mode), "ok").Inc()

	adjusted := minutes * modeFactor(p.Mode)
	s.cacheSet(ctx, key, adjusted)
	return adjusted
}

// Estimate computes the local fallback: great-circle distance at the mode's
// assumed speed, with the mode factor applied.
func (s *TravelTimeService) Estimate(p domain.Participant, destination domain.GeoPoint) float64 {
	metrics.OracleFallbacks.Inc()
	distanceKm := p.Location.DistanceKm(destination)
	speed := assumedSpeedsKmh[p.Mode]
	if speed <= 0 {
		speed = assumedSpeedsKmh[domain.ModeTransit]
	}
	return distanceKm / speed * 60 * modeFactor(p.Mode)
}

func (s *TravelTimeService) cacheGet(ctx context.Context, key string) (float64, error) {
	if s.cache == nil {
		return 0, ports.ErrCacheMiss
	}
	data, err := s.cache.Get(ctx, key)
	if err != nil {
		return 0, err
	}
	var entry travelTimeEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		// A corrupt entry behaves like a miss; it gets overwritten below.
		return 0, ports.ErrCacheMiss
	}
	return entry.Minutes, nil
}

func (s *TravelTimeService) cacheSet(ctx context.Context, key string, minutes float64) {
	if s.cache == nil {
		return
	}
	data, err := json.Marshal(travelTimeEntry{Minutes: minutes, ComputedAt: time.Now().UTC()})
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, key, data, s.ttlSeconds); err != nil {
		slog.Warn("travel time cache write failed", "error", err)
	}
}

func modeFactor(mode domain.TransportMode) float64 {
	if f, ok := modeFactors[mode]; ok {
		return f
	}
	return 1.0
}

// travelTimeKey quantizes coordinates to 4 decimal places (~11 m) so that
// jittered inputs for the same physical pair share a cache row and warm
// reruns are bit-identical.
func travelTimeKey(origin, destination domain.GeoPoint, mode domain.TransportMode) string {
	return fmt.Sprintf("tt:%.4f,%.4f:%.4f,%.4f:%s",
		origin.Lat, origin.Lng, destination.Lat, destination.Lng, mode)
}

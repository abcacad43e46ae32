package usecases

import (
	"context"
	"log/slog"
	"runtime/debug"
	"sort"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/thihaagset01/midwhereah/internal/core/domain"
	"github.com/thihaagset01/midwhereah/internal/core/ports"
	"github.com/thihaagset01/midwhereah/internal/pkg/geospatial"
	"github.com/thihaagset01/midwhereah/internal/pkg/metrics"
)

// OptimizerConfig holds the process-level defaults for the search pipeline.
type OptimizerConfig struct {
	MaxTimeMinutes            float64
	MaxRangeMinutes           float64
	ClusterThresholdKm        float64
	VenueRadiusMeters         int
	ExpandedVenueRadiusMeters int
	VenueCategories           []string
	VenueLimit                int
	TopCandidates             int
}

func (c OptimizerConfig) withDefaults() OptimizerConfig {
	if c.MaxTimeMinutes <= 0 {
		c.MaxTimeMinutes = 60
	}
	if c.MaxRangeMinutes <= 0 {
		c.MaxRangeMinutes = 30
	}
	if c.ClusterThresholdKm <= 0 {
		c.ClusterThresholdKm = 2.0
	}
	if c.VenueRadiusMeters <= 0 {
		c.VenueRadiusMeters = 500
	}
	if c.ExpandedVenueRadiusMeters <= c.VenueRadiusMeters {
		c.ExpandedVenueRadiusMeters = c.VenueRadiusMeters * 2
	}
	if len(c.VenueCategories) == 0 {
		c.VenueCategories = []string{"restaurant", "cafe"}
	}
	if c.VenueLimit <= 0 {
		c.VenueLimit = 10
	}
	if c.TopCandidates <= 0 {
		c.TopCandidates = 8
	}
	return c
}

// RequestConfig carries the per-request knobs a caller may override. Zero
// values fall back to the process defaults. The oracle request rate is
// process-owned and cannot be overridden per request.
type RequestConfig struct {
	GroupKey           string
	MaxTimeMinutes     float64
	MaxRangeMinutes    float64
	ClusterThresholdKm float64
	VenueRadiusMeters  int
	VenueCategories    []string
}

// OptimizerService orchestrates one optimization request: clustering,
// candidate generation, the coarse constraint-and-ranking pass, and the fine
// venue-validation pass with its fallback chain. For any input of at least
// two valid participants it returns a result; degraded paths set
// FallbackUsed rather than failing.
type OptimizerService struct {
	candidates *CandidateService
	travel     *TravelTimeService
	venues     ports.VenueDiscovery
	events     ports.EventPublisher
	cfg        OptimizerConfig
	tracer     trace.Tracer
}

// NewOptimizerService wires the pipeline. venues and events may be nil:
// without venue discovery every result carries an empty venue list, and
// without an event publisher lifecycle events are skipped.
func NewOptimizerService(
	candidates *CandidateService,
	travel *TravelTimeService,
	venues ports.VenueDiscovery,
	events ports.EventPublisher,
	cfg OptimizerConfig,
) *OptimizerService {
	return &OptimizerService{
		candidates: candidates,
		travel:     travel,
		venues:     venues,
		events:     events,
		cfg:        cfg.withDefaults(),
		tracer:     otel.Tracer("midwhereah/optimizer"),
	}
}

// Optimize computes the fair meeting point for the participants. The only
// error it returns is input validation; everything past validation recovers
// through the fallback chain down to the weighted centroid.
func (s *OptimizerService) Optimize(ctx context.Context, participants []domain.Participant, req RequestConfig) (result *domain.OptimizationResult, err error) {
	if verr := domain.ValidateParticipants(participants); verr != nil {
		metrics.Optimizations.WithLabelValues("input_error").Inc()
		return nil, verr
	}

	cfg := s.merge(req)
	start := time.Now()

	ctx, span := s.tracer.Start(ctx, "optimize",
		trace.WithAttributes(attribute.Int("participants", len(participants))))
	defer span.End()

	// The optimizer contract guarantees a result for valid input. A panic
	// anywhere in generation or search degrades to the terminal fallback
	// instead of surfacing. clusterCount stays 0 if the panic hit before
	// clustering ran.
	var clusterCount int
	defer func() {
		if r := recover(); r != nil {
			slog.Error("optimization panicked, using terminal fallback",
				"panic", r, "stack", string(debug.Stack()))
			result = s.terminalFallback(ctx, participants, cfg, nil, clusterCount, start)
			err = nil
			s.finish(ctx, req.GroupKey, result)
		}
	}()

	if s.events != nil {
		_ = s.events.PublishOptimizationStarted(ctx, req.GroupKey, len(participants))
	}

	clusters := IdentifyClusters(participants, cfg.ClusterThresholdKm)
	clusterCount = clusters.Count()
	gen := s.candidates.Generate(participants, clusters)

	evaluated := s.coarse(ctx, participants, gen.Candidates, cfg)
	if len(evaluated) == 0 {
		slog.Info("no candidate satisfied hard constraints, using terminal fallback",
			"candidates", len(gen.Candidates),
			"max_time_minutes", cfg.MaxTimeMinutes,
			"max_range_minutes", cfg.MaxRangeMinutes)
		result = s.terminalFallback(ctx, participants, cfg, gen.Sources, clusterCount, start)
		s.finish(ctx, req.GroupKey, result)
		return result, nil
	}

	sort.SliceStable(evaluated, func(a, b int) bool {
		return evaluated[a].WeightedScore() < evaluated[b].WeightedScore()
	})
	if len(evaluated) > cfg.TopCandidates {
		evaluated = evaluated[:cfg.TopCandidates]
	}

	best, venues, fallbackUsed := s.fine(ctx, evaluated, cfg)

	result = buildResult(best, venues, fallbackUsed, participants, gen.Sources, clusters, start)
	s.finish(ctx, req.GroupKey, result)
	return result, nil
}

// TravelTimes exposes the provider's per-participant estimates for a fixed
// destination, for callers previewing a spot outside the search pipeline.
func (s *OptimizerService) TravelTimes(ctx context.Context, participants []domain.Participant, destination domain.GeoPoint) []float64 {
	return s.travel.Times(ctx, participants, destination)
}

func (s *OptimizerService) merge(req RequestConfig) OptimizerConfig {
	cfg := s.cfg
	if req.MaxTimeMinutes > 0 {
		cfg.MaxTimeMinutes = req.MaxTimeMinutes
	}
	if req.MaxRangeMinutes > 0 {
		cfg.MaxRangeMinutes = req.MaxRangeMinutes
	}
	if req.ClusterThresholdKm > 0 {
		cfg.ClusterThresholdKm = req.ClusterThresholdKm
	}
	if req.VenueRadiusMeters > 0 {
		cfg.VenueRadiusMeters = req.VenueRadiusMeters
		cfg.ExpandedVenueRadiusMeters = req.VenueRadiusMeters * 2
	}
	if len(req.VenueCategories) > 0 {
		cfg.VenueCategories = req.VenueCategories
	}
	return cfg
}

// coarse evaluates every candidate concurrently: fetch travel times, apply
// the hard time and range constraints, and score the survivors. Candidate
// evaluations are independent of each other; the oracle throttler, not a
// concurrency cap, bounds external pressure.
func (s *OptimizerService) coarse(ctx context.Context, participants []domain.Participant, candidates []domain.Candidate, cfg OptimizerConfig) []domain.EvaluatedCandidate {
	ctx, span := s.tracer.Start(ctx, "coarse",
		trace.WithAttributes(attribute.Int("candidates", len(candidates))))
	defer span.End()

	metrics.CandidatesEvaluated.Observe(float64(len(candidates)))

	slots := make([]*domain.EvaluatedCandidate, len(candidates))
	var wg sync.WaitGroup
	for i, cand := range candidates {
		wg.Add(1)
		go func(i int, cand domain.Candidate) {
			defer wg.Done()
			slots[i] = s.evaluate(ctx, participants, cand, cfg)
		}(i, cand)
	}
	wg.Wait()

	evaluated := make([]domain.EvaluatedCandidate, 0, len(candidates))
	for _, e := range slots {
		if e != nil {
			evaluated = append(evaluated, *e)
		}
	}
	return evaluated
}

// evaluate scores one candidate, or returns nil when it violates a hard
// constraint.
func (s *OptimizerService) evaluate(ctx context.Context, participants []domain.Participant, cand domain.Candidate, cfg OptimizerConfig) *domain.EvaluatedCandidate {
	times := s.travel.Times(ctx, participants, cand.Location)

	avg, min, max := timeStats(times)
	timeRange := max - min
	if max > cfg.MaxTimeMinutes || timeRange > cfg.MaxRangeMinutes {
		return nil
	}

	return &domain.EvaluatedCandidate{
		Location:    cand.Location,
		TravelTimes: times,
		JainsIndex:  JainsFairnessIndex(times),
		EquityScore: EquityScore(times),
		AvgTime:     avg,
		TimeRange:   timeRange,
		Source:      cand.Source,
		Priority:    cand.Priority,
	}
}

// fine walks the ranked candidates strictly in order and stops at the first
// one with a nearby venue; trying them concurrently would waste external
// calls the first success makes unnecessary. When the default radius finds
// nothing it retries the same set at the expanded radius, and failing that
// returns the best-ranked candidate with no venues.
func (s *OptimizerService) fine(ctx context.Context, ranked []domain.EvaluatedCandidate, cfg OptimizerConfig) (domain.EvaluatedCandidate, []domain.Venue, bool) {
	ctx, span := s.tracer.Start(ctx, "fine",
		trace.WithAttributes(attribute.Int("candidates", len(ranked))))
	defer span.End()

	if s.venues == nil {
		return ranked[0], nil, false
	}

	for _, radius := range []int{cfg.VenueRadiusMeters, cfg.ExpandedVenueRadiusMeters} {
		for _, cand := range ranked {
			venues := s.findVenues(ctx, cand.Location, radius, cfg)
			if len(venues) > 0 {
				return cand, venues, radius != cfg.VenueRadiusMeters
			}
		}
	}

	// No venue anywhere near the top set; the point still stands.
	return ranked[0], nil, true
}

func (s *OptimizerService) findVenues(ctx context.Context, point domain.GeoPoint, radius int, cfg OptimizerConfig) []domain.Venue {
	venues, err := s.venues.FindNear(ctx, point, radius, cfg.VenueCategories, cfg.VenueLimit)
	if err != nil {
		metrics.VenueLookups.WithLabelValues("error").Inc()
		slog.Warn("venue lookup failed", "error", err, "radius_m", radius)
		return nil
	}
	if len(venues) == 0 {
		metrics.VenueLookups.WithLabelValues("empty").Inc()
		return nil
	}
	metrics.VenueLookups.WithLabelValues("found").Inc()
	return venues
}

// terminalFallback is the always-succeeds path: the weighted centroid with
// whatever travel times and venues can still be obtained, returned
// regardless of constraint satisfaction.
func (s *OptimizerService) terminalFallback(ctx context.Context, participants []domain.Participant, cfg OptimizerConfig, sources []string, clusterCount int, start time.Time) *domain.OptimizationResult {
	points := make([]geospatial.Point, len(participants))
	weights := make([]float64, len(participants))
	for i, p := range participants {
		points[i] = geospatial.Point(p.Location)
		weights[i] = p.EffectiveWeight()
	}
	center := domain.GeoPoint(geospatial.WeightedCentroid(points, weights))

	times := s.travel.Times(ctx, participants, center)

	// Clients key off venues.length, so the list is never null.
	venues := []domain.Venue{}
	if s.venues != nil {
		venues = append(venues, s.findVenues(ctx, center, cfg.VenueRadiusMeters, cfg)...)
	}

	avg, min, max := timeStats(times)
	return &domain.OptimizationResult{
		Point:        center,
		TravelTimes:  times,
		Venues:       venues,
		EquityScore:  EquityScore(times),
		JainsIndex:   JainsFairnessIndex(times),
		AvgTime:      avg,
		TimeRange:    max - min,
		Source:       domain.SourceTerminalFallback,
		FallbackUsed: true,
		Metadata: domain.ResultMetadata{
			ParticipantCount: len(participants),
			DurationMs:       time.Since(start).Milliseconds(),
			StrategicSources: sources,
			Clusters:         clusterCount,
		},
	}
}

func buildResult(best domain.EvaluatedCandidate, venues []domain.Venue, fallbackUsed bool, participants []domain.Participant, sources []string, clusters domain.ClusterSet, start time.Time) *domain.OptimizationResult {
	if venues == nil {
		venues = []domain.Venue{}
	}
	return &domain.OptimizationResult{
		Point:        best.Location,
		TravelTimes:  best.TravelTimes,
		Venues:       venues,
		EquityScore:  best.EquityScore,
		JainsIndex:   best.JainsIndex,
		AvgTime:      best.AvgTime,
		TimeRange:    best.TimeRange,
		Source:       best.Source,
		FallbackUsed: fallbackUsed,
		Metadata: domain.ResultMetadata{
			ParticipantCount: len(participants),
			DurationMs:       time.Since(start).Milliseconds(),
			StrategicSources: sources,
			Clusters:         clusters.Count(),
		},
	}
}

// finish records run metrics and publishes the completion event.
func (s *OptimizerService) finish(ctx context.Context, groupKey string, result *domain.OptimizationResult) {
	outcome := "ok"
	if result.FallbackUsed {
		outcome = "fallback"
	}
	metrics.Optimizations.WithLabelValues(outcome).Inc()
	metrics.OptimizationDuration.Observe(float64(result.Metadata.DurationMs) / 1000)

	slog.Info("optimization complete",
		"participants", result.Metadata.ParticipantCount,
		"source", result.Source,
		"equity_score", result.EquityScore,
		"jains_index", result.JainsIndex,
		"venues", len(result.Venues),
		"fallback_used", result.FallbackUsed,
		"duration_ms", result.Metadata.DurationMs)

	if s.events != nil {
		_ = s.events.PublishOptimizationCompleted(ctx, groupKey, result)
	}
}

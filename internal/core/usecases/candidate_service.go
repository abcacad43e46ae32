package usecases

import (
	"math"

	"github.com/thihaagset01/midwhereah/internal/core/domain"
	"github.com/thihaagset01/midwhereah/internal/pkg/geospatial"
)

// Strategic center priorities. The geometric centroid is deliberately
// deprioritized: it is the source most prone to dense-subgroup bias.
const (
	priorityGeometricCentroid = 0.8
	priorityWeightedCentroid  = 1.0
	priorityMedianCenter      = 1.2
	priorityBalancedCenter    = 1.3
	priorityMainCluster       = 1.5
	prioritySecondaryCluster  = 1.1
	priorityParticipant       = 1.0
	priorityTransitHub        = 1.0
	priorityOutlierBridge     = 0.8

	// A weighted centroid closer than this to the geometric centroid adds
	// no information and is skipped.
	centroidDistinctKm = 0.1

	// Ring grids around strategic centers never reach past this radius.
	maxRingRadiusKm = 3.0

	// Grid points rank slightly below the center that seeded them.
	gridPriorityFactor = 0.8

	bridgePointsPerOutlier = 3
)

// CandidateService produces the prioritized candidate set for one
// optimization run from multiple strategic sources.
type CandidateService struct {
	hubs        []domain.TransitHub
	hubRadiusKm float64
}

// NewCandidateService creates a CandidateService. hubs is the configured
// transit hub reference list; hubRadiusKm bounds hub relevance.
func NewCandidateService(hubs []domain.TransitHub, hubRadiusKm float64) *CandidateService {
	if hubRadiusKm <= 0 {
		hubRadiusKm = 15
	}
	return &CandidateService{hubs: hubs, hubRadiusKm: hubRadiusKm}
}

// GenerationResult carries the candidates of one run plus the strategic
// source tags that contributed, for result metadata.
type GenerationResult struct {
	Candidates []domain.Candidate
	Sources    []string
}

// Generate builds candidates from strategic centers, their surrounding ring
// grids, participant locations, nearby transit hubs, and outlier bridging
// lines. Near-duplicates are not deduplicated; downstream ranking tolerates
// them.
func (s *CandidateService) Generate(participants []domain.Participant, clusters domain.ClusterSet) GenerationResult {
	var result GenerationResult

	points := make([]geospatial.Point, len(participants))
	weights := make([]float64, len(participants))
	for i, p := range participants {
		points[i] = geospatial.Point(p.Location)
		weights[i] = p.EffectiveWeight()
	}

	// Strategic centers, each seeding a priority-scaled ring grid.
	geometric := geospatial.Centroid(points)
	result.add(domain.Candidate{
		Location: domain.GeoPoint(geometric),
		Source:   domain.SourceGeometricCentroid,
		Priority: priorityGeometricCentroid,
	})

	weighted := geospatial.WeightedCentroid(points, weights)
	if geospatial.DistanceKm(weighted, geometric) > centroidDistinctKm {
		result.add(domain.Candidate{
			Location: domain.GeoPoint(weighted),
			Source:   domain.SourceWeightedCentroid,
			Priority: priorityWeightedCentroid,
		})
	}

	result.add(domain.Candidate{
		Location: domain.GeoPoint(geospatial.MedianCenter(points)),
		Source:   domain.SourceMedianCenter,
		Priority: priorityMedianCenter,
	})

	if clusters.Main != nil {
		result.add(domain.Candidate{
			Location: clusters.Main.Center,
			Source:   domain.SourceMainCluster,
			Priority: priorityMainCluster,
		})
	}
	for _, c := range clusters.Secondary {
		result.add(domain.Candidate{
			Location: c.Center,
			Source:   domain.SourceSecondaryCluster,
			Priority: prioritySecondaryCluster,
		})
	}

	result.add(domain.Candidate{
		Location: domain.GeoPoint(geospatial.BalancedCenter(points)),
		Source:   domain.SourceBalancedCenter,
		Priority: priorityBalancedCenter,
	})

	// Ring grids are generated after all centers are known so grid points
	// never seed further grids.
	centers := make([]domain.Candidate, len(result.Candidates))
	copy(centers, result.Candidates)
	for _, center := range centers {
		for _, g := range ringGrid(center) {
			result.add(g)
		}
	}

	// The optimal meeting point is sometimes literally where one
	// participant already is.
	for _, p := range participants {
		result.add(domain.Candidate{
			Location: p.Location,
			Source:   domain.SourceParticipantLocation,
			Priority: priorityParticipant,
		})
	}

	// Transit hubs qualify by proximity to any single participant, never to
	// an aggregate center that could itself be biased.
	for _, hub := range s.hubs {
		if s.hubNearAnyParticipant(hub, participants) {
			result.add(domain.Candidate{
				Location: hub.Location,
				Source:   domain.SourceTransitHub,
				Priority: priorityTransitHub,
			})
		}
	}

	// Bridge the main cluster toward each outlier: points along the
	// connecting line often beat both endpoints on fairness.
	if clusters.Main != nil {
		for _, outlier := range clusters.Outliers {
			line := geospatial.LinePoints(
				geospatial.Point(clusters.Main.Center),
				geospatial.Point(outlier.Location),
				bridgePointsPerOutlier,
			)
			for _, p := range line {
				result.add(domain.Candidate{
					Location: domain.GeoPoint(p),
					Source:   domain.SourceOutlierBridge,
					Priority: priorityOutlierBridge,
				})
			}
		}
	}

	return result
}

func (s *CandidateService) hubNearAnyParticipant(hub domain.TransitHub, participants []domain.Participant) bool {
	for _, p := range participants {
		if hub.Location.DistanceKm(p.Location) <= s.hubRadiusKm {
			return true
		}
	}
	return false
}

// ringGrid surrounds a strategic center with concentric rings of grid
// candidates. Higher-priority centers get more rings and more points per
// ring; the outermost ring radius grows with priority but is capped.
func ringGrid(center domain.Candidate) []domain.Candidate {
	rings := int(math.Round(center.Priority * 2))
	if rings < 1 {
		rings = 1
	}
	if rings > 3 {
		rings = 3
	}
	pointsPerRing := 4 + int(center.Priority*4)
	if pointsPerRing > 12 {
		pointsPerRing = 12
	}
	outerRadius := math.Min(maxRingRadiusKm, 2*center.Priority)

	grid := make([]domain.Candidate, 0, rings*pointsPerRing)
	for r := 1; r <= rings; r++ {
		radius := outerRadius * float64(r) / float64(rings)
		for i := 0; i < pointsPerRing; i++ {
			bearing := 360 * float64(i) / float64(pointsPerRing)
			p := geospatial.Destination(geospatial.Point(center.Location), bearing, radius)
			grid = append(grid, domain.Candidate{
				Location: domain.GeoPoint(p),
				Source:   domain.SourceGrid,
				Priority: center.Priority * gridPriorityFactor,
			})
		}
	}
	return grid
}

// add appends a candidate and records its source tag once.
func (r *GenerationResult) add(c domain.Candidate) {
	r.Candidates = append(r.Candidates, c)
	tag := string(c.Source)
	for _, s := range r.Sources {
		if s == tag {
			return
		}
	}
	r.Sources = append(r.Sources, tag)
}

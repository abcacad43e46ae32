package domain

// CandidateSource tags which generation strategy produced a candidate. The
// tag travels all the way into the final result so callers and tests can see
// why a point was chosen.
type CandidateSource string

const (
	SourceGeometricCentroid   CandidateSource = "geometric_centroid"
	SourceWeightedCentroid    CandidateSource = "weighted_centroid"
	SourceMedianCenter        CandidateSource = "median_center"
	SourceBalancedCenter      CandidateSource = "balanced_center"
	SourceMainCluster         CandidateSource = "main_cluster_center"
	SourceSecondaryCluster    CandidateSource = "secondary_cluster_center"
	SourceGrid                CandidateSource = "grid"
	SourceParticipantLocation CandidateSource = "participant_location"
	SourceTransitHub          CandidateSource = "transit_hub"
	SourceOutlierBridge       CandidateSource = "outlier_bridge"
	SourceTerminalFallback    CandidateSource = "weighted_centroid_fallback"
)

// Candidate is a geographic point under consideration as the meeting
// location. Priority scales both the density of the surrounding search grid
// and how the candidate ranks: a higher priority divides its equity score,
// so equally fair candidates from stronger strategies win.
type Candidate struct {
	Location GeoPoint        `json:"location"`
	Source   CandidateSource `json:"source"`
	Priority float64         `json:"priority"`
}

// Cluster is a group of participants within the clustering threshold of a
// shared seed member. Derived and read-only; recomputed every run.
type Cluster struct {
	Members []Participant `json:"members"`
	Center  GeoPoint      `json:"center"`
	Size    int           `json:"size"`
}

// ClusterSet partitions the participants of one run. Every participant
// belongs to exactly one of Main, Secondary, or Outliers. Main is nil when
// no cluster reached 2 members.
type ClusterSet struct {
	Main      *Cluster      `json:"main,omitempty"`
	Secondary []Cluster     `json:"secondary,omitempty"`
	Outliers  []Participant `json:"outliers,omitempty"`
}

// Count returns the number of clusters with 2 or more members.
func (cs ClusterSet) Count() int {
	n := len(cs.Secondary)
	if cs.Main != nil {
		n++
	}
	return n
}

// EvaluatedCandidate is a candidate after the coarse scoring pass.
// TravelTimes is index-aligned with the participants of the run.
type EvaluatedCandidate struct {
	Location    GeoPoint        `json:"location"`
	TravelTimes []float64       `json:"travel_times"`
	JainsIndex  float64         `json:"jains_index"`
	EquityScore float64         `json:"equity_score"`
	AvgTime     float64         `json:"avg_time"`
	TimeRange   float64         `json:"time_range"`
	Source      CandidateSource `json:"source"`
	Priority    float64         `json:"priority"`
}

// WeightedScore is the coarse ranking key: the equity score divided by the
// candidate's priority, so higher-priority strategies rank better at equal
// fairness. Lower is better.
func (e EvaluatedCandidate) WeightedScore() float64 {
	if e.Priority <= 0 {
		return e.EquityScore
	}
	return e.EquityScore / e.Priority
}

// Venue is a point of interest near a candidate meeting point, supplied by
// the venue discovery collaborator.
type Venue struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Rating   *float64 `json:"rating,omitempty"`
	Location GeoPoint `json:"location"`
	Category string   `json:"category"`
}

// TransitHub is a reference interchange from configuration, used as a
// candidate source when close enough to at least one participant.
type TransitHub struct {
	Name     string   `json:"name"`
	Location GeoPoint `json:"location"`
}

// ResultMetadata records how a result was produced, for observability and
// for tests that assert why a particular point was chosen.
type ResultMetadata struct {
	ParticipantCount int      `json:"participant_count"`
	DurationMs       int64    `json:"duration_ms"`
	StrategicSources []string `json:"strategic_sources"`
	Clusters         int      `json:"clusters"`
}

// OptimizationResult is the sole externally visible artifact of a run. It is
// constructed once per request and immutable thereafter. TravelTimes is
// index-aligned with the request's participants. FallbackUsed signals that a
// degraded path produced the point; an empty Venues slice is a normal
// outcome, not an error.
type OptimizationResult struct {
	Point        GeoPoint        `json:"point"`
	TravelTimes  []float64       `json:"travel_times"`
	Venues       []Venue         `json:"venues"`
	EquityScore  float64         `json:"equity_score"`
	JainsIndex   float64         `json:"jains_index"`
	AvgTime      float64         `json:"avg_time"`
	TimeRange    float64         `json:"time_range"`
	Source       CandidateSource `json:"source"`
	FallbackUsed bool            `json:"fallback_used"`
	Metadata     ResultMetadata  `json:"metadata"`
}

package usecases

import "math"

// Equity score weights: fairness dominates, but absolute duration and spread
// still break ties between equally-fair candidates.
const (
	equityFairnessWeight = 0.7
	equityRangeWeight    = 0.2
	equityAvgWeight      = 0.1
)

// JainsFairnessIndex measures how equal a set of travel times is:
// (Σt)² / (n × Σt²), in (0, 1] with 1.0 meaning perfectly equal. The
// degenerate all-zero vector counts as perfectly fair.
func JainsFairnessIndex(times []float64) float64 {
	if len(times) == 0 {
		return 1.0
	}
	var sum, sumSquares float64
	for _, t := range times {
		sum += t
		sumSquares += t * t
	}
	if sumSquares == 0 {
		return 1.0
	}
	return (sum * sum) / (float64(len(times)) * sumSquares)
}

// EquityScore is the composite, lower-is-better ranking metric:
// 0.7×(1−JFI) + 0.2×(range/60) + 0.1×(avg/60).
func EquityScore(times []float64) float64 {
	jfi := JainsFairnessIndex(times)
	avg, min, max := timeStats(times)
	return equityFairnessWeight*(1-jfi) +
		equityRangeWeight*((max-min)/60) +
		equityAvgWeight*(avg/60)
}

// timeStats returns the mean, minimum, and maximum of a time vector.
func timeStats(times []float64) (avg, min, max float64) {
	if len(times) == 0 {
		return 0, 0, 0
	}
	min = math.Inf(1)
	max = math.Inf(-1)
	var sum float64
	for _, t := range times {
		sum += t
		if t < min {
			min = t
		}
		if t > max {
			max = t
		}
	}
	return sum / float64(len(times)), min, max
}

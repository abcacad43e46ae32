// Package geospatial provides the pure coordinate math used by the meeting
// point optimizer: great-circle distances, centroid variants, and point
// construction along lines and bearings. All functions are deterministic and
// side-effect free.
package geospatial

import "math"

const earthRadiusKm = 6371.0

// Point is a WGS 84 coordinate pair.
type Point struct {
	Lat float64
	Lng float64
}

// Valid reports whether p is a finite coordinate within WGS 84 bounds.
func Valid(p Point) bool {
	if math.IsNaN(p.Lat) || math.IsInf(p.Lat, 0) || math.IsNaN(p.Lng) || math.IsInf(p.Lng, 0) {
		return false
	}
	return p.Lat >= -90 && p.Lat <= 90 && p.Lng >= -180 && p.Lng <= 180
}

// DistanceKm calculates the great-circle distance in kilometres between two
// points using the Haversine formula.
func DistanceKm(a, b Point) float64 {
	dLat := toRad(b.Lat - a.Lat)
	dLng := toRad(b.Lng - a.Lng)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(a.Lat))*math.Cos(toRad(b.Lat))*
			math.Sin(dLng/2)*math.Sin(dLng/2)

	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
	return earthRadiusKm * c
}

// Centroid returns the arithmetic mean of the given points. It is biased
// toward dense sub-groups, which is why callers treat it as one candidate
// source among several rather than the answer.
func Centroid(points []Point) Point {
	if len(points) == 0 {
		return Point{}
	}
	var lat, lng float64
	for _, p := range points {
		lat += p.Lat
		lng += p.Lng
	}
	n := float64(len(points))
	return Point{Lat: lat / n, Lng: lng / n}
}

// WeightedCentroid returns the mean of points weighted by the parallel
// weights slice. Non-positive weights count as 1.
func WeightedCentroid(points []Point, weights []float64) Point {
	if len(points) == 0 {
		return Point{}
	}
	var lat, lng, total float64
	for i, p := range points {
		w := 1.0
		if i < len(weights) && weights[i] > 0 {
			w = weights[i]
		}
		lat += p.Lat * w
		lng += p.Lng * w
		total += w
	}
	return Point{Lat: lat / total, Lng: lng / total}
}

// MedianCenter returns the per-axis median of the points. Unlike the mean it
// is robust to a single far outlier.
func MedianCenter(points []Point) Point {
	if len(points) == 0 {
		return Point{}
	}
	lats := make([]float64, len(points))
	lngs := make([]float64, len(points))
	for i, p := range points {
		lats[i] = p.Lat
		lngs[i] = p.Lng
	}
	return Point{Lat: median(lats), Lng: median(lngs)}
}

func median(values []float64) float64 {
	sorted := make([]float64, len(values))
	copy(sorted, values)
	for i := 1; i < len(sorted); i++ {
		for j := i; j > 0 && sorted[j] < sorted[j-1]; j-- {
			sorted[j], sorted[j-1] = sorted[j-1], sorted[j]
		}
	}
	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		return (sorted[mid-1] + sorted[mid]) / 2
	}
	return sorted[mid]
}

// balancedCenterPasses bounds the hill climb; the step shrinks each pass so
// late passes only fine-tune.
const (
	balancedCenterPasses = 10
	balancedInitialStep  = 0.005 // degrees, roughly 550 m of latitude
)

// BalancedCenter starts at the centroid and hill-climbs toward the point
// minimizing the maximum distance to any input. The search tries eight
// compass offsets per pass with a shrinking step and stops early when no
// offset improves the maximum. It is a bounded local search, not a true
// 1-center optimum, but it is deterministic for a given input.
func BalancedCenter(points []Point) Point {
	if len(points) == 0 {
		return Point{}
	}
	center := Centroid(points)
	best := maxDistanceKm(center, points)
	step := balancedInitialStep

	for pass := 0; pass < balancedCenterPasses; pass++ {
		improved := false
		for _, dir := range compassOffsets {
			next := Point{Lat: center.Lat + dir.Lat*step, Lng: center.Lng + dir.Lng*step}
			if d := maxDistanceKm(next, points); d < best {
				best = d
				center = next
				improved = true
			}
		}
		if !improved {
			step /= 2
		}
	}
	return center
}

var compassOffsets = []Point{
	{1, 0}, {1, 1}, {0, 1}, {-1, 1},
	{-1, 0}, {-1, -1}, {0, -1}, {1, -1},
}

func maxDistanceKm(center Point, points []Point) float64 {
	var max float64
	for _, p := range points {
		if d := DistanceKm(center, p); d > max {
			max = d
		}
	}
	return max
}

// LinePoints returns n points evenly spaced strictly between start and end.
// Linear interpolation is adequate at the distances involved here (tens of
// kilometres at most).
func LinePoints(start, end Point, n int) []Point {
	if n <= 0 {
		return nil
	}
	points := make([]Point, 0, n)
	for i := 1; i <= n; i++ {
		t := float64(i) / float64(n+1)
		points = append(points, Point{
			Lat: start.Lat + t*(end.Lat-start.Lat),
			Lng: start.Lng + t*(end.Lng-start.Lng),
		})
	}
	return points
}

// Destination returns the point reached by travelling distanceKm from origin
// along the given initial bearing (degrees clockwise from north).
func Destination(origin Point, bearingDeg, distanceKm float64) Point {
	lat1 := toRad(origin.Lat)
	lng1 := toRad(origin.Lng)
	bearing := toRad(bearingDeg)
	delta := distanceKm / earthRadiusKm

	lat2 := math.Asin(math.Sin(lat1)*math.Cos(delta) +
		math.Cos(lat1)*math.Sin(delta)*math.Cos(bearing))
	lng2 := lng1 + math.Atan2(
		math.Sin(bearing)*math.Sin(delta)*math.Cos(lat1),
		math.Cos(delta)-math.Sin(lat1)*math.Sin(lat2),
	)

	return Point{Lat: toDeg(lat2), Lng: normalizeLng(toDeg(lng2))}
}

// BoundingBox returns a bounding box around a point with the given radius in
// meters.
func BoundingBox(lat, lng, radiusMeters float64) (minLat, minLng, maxLat, maxLng float64) {
	latDelta := radiusMeters / 111320.0
	lngDelta := radiusMeters / (111320.0 * math.Cos(toRad(lat)))

	return lat - latDelta, lng - lngDelta, lat + latDelta, lng + lngDelta
}

func toRad(deg float64) float64 { return deg * math.Pi / 180 }
func toDeg(rad float64) float64 { return rad * 180 / math.Pi }

func normalizeLng(lng float64) float64 {
	for lng > 180 {
		lng -= 360
	}
	for lng < -180 {
		lng += 360
	}
	return lng
}

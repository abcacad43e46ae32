package usecases

import (
	"sort"

	"github.com/thihaagset01/midwhereah/internal/core/domain"
	"github.com/thihaagset01/midwhereah/internal/pkg/geospatial"
)

// IdentifyClusters partitions participants into a dominant cluster,
// secondary clusters, and outliers by haversine distance.
//
// Grouping is seed-linkage: each unvisited participant seeds a cluster and
// absorbs every other unvisited participant within thresholdKm of that seed.
// Membership is judged against the seed only, never against later members,
// so a chain of pairwise-close participants can split across clusters and a
// cluster's diameter never exceeds twice the threshold. Ranking callers rely
// on this shape; do not replace it with transitive closure.
//
// Clusters sort by descending size. The largest with ≥2 members becomes
// Main, the rest with ≥2 members become Secondary, and singletons become
// Outliers. The three sets partition the input exactly.
func IdentifyClusters(participants []domain.Participant, thresholdKm float64) domain.ClusterSet {
	visited := make([]bool, len(participants))
	var clusters []domain.Cluster

	for i, seed := range participants {
		if visited[i] {
			continue
		}
		visited[i] = true
		members := []domain.Participant{seed}

		for j := i + 1; j < len(participants); j++ {
			if visited[j] {
				continue
			}
			if seed.Location.DistanceKm(participants[j].Location) <= thresholdKm {
				visited[j] = true
				members = append(members, participants[j])
			}
		}

		clusters = append(clusters, domain.Cluster{
			Members: members,
			Center:  clusterCenter(members),
			Size:    len(members),
		})
	}

	sort.SliceStable(clusters, func(a, b int) bool {
		return clusters[a].Size > clusters[b].Size
	})

	var set domain.ClusterSet
	for _, c := range clusters {
		if c.Size < 2 {
			set.Outliers = append(set.Outliers, c.Members...)
			continue
		}
		if set.Main == nil {
			main := c
			set.Main = &main
			continue
		}
		set.Secondary = append(set.Secondary, c)
	}
	return set
}

func clusterCenter(members []domain.Participant) domain.GeoPoint {
	points := make([]geospatial.Point, len(members))
	for i, m := range members {
		points[i] = geospatial.Point(m.Location)
	}
	return domain.GeoPoint(geospatial.Centroid(points))
}

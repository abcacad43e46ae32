package ports

import (
	"context"
	"errors"

	"github.com/thihaagset01/midwhereah/internal/core/domain"
)

// ErrNoRoute is returned by a TravelTimeOracle when no route exists between
// origin and destination for the given mode. The provider treats it as a
// failure like any other, but logs it differently from transport errors.
var ErrNoRoute = errors.New("no route between origin and destination")

// ErrCacheMiss is returned by a CacheService when the key is absent or its
// entry has expired.
var ErrCacheMiss = errors.New("cache: key not found")

// TravelTimeOracle answers point-to-point travel duration queries, typically
// backed by an external routing API. Implementations must honor ctx
// cancellation; callers rate-limit and cache above this interface.
type TravelTimeOracle interface {
	Lookup(ctx context.Context, origin, destination domain.GeoPoint, mode domain.TransportMode) (minutes float64, err error)
}

// VenueDiscovery returns points of interest near a coordinate. An empty
// result is a normal, non-error outcome.
type VenueDiscovery interface {
	FindNear(ctx context.Context, point domain.GeoPoint, radiusMeters int, categories []string, limit int) ([]domain.Venue, error)
}

// CacheService provides read-through caching with per-entry TTL.
type CacheService interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttlSeconds int) error
	Delete(ctx context.Context, key string) error
}

// EventPublisher publishes optimization lifecycle events to a message
// broker for the presentation layer's realtime channel.
type EventPublisher interface {
	PublishOptimizationStarted(ctx context.Context, groupKey string, participantCount int) error
	PublishOptimizationCompleted(ctx context.Context, groupKey string, result *domain.OptimizationResult) error
	PublishBroadcast(ctx context.Context, data []byte) error
}

package http

import (
	"context"

	"github.com/nats-io/nats.go"

	"github.com/thihaagset01/midwhereah/internal/core/domain"
	"github.com/thihaagset01/midwhereah/internal/core/ports"
	"github.com/thihaagset01/midwhereah/internal/core/usecases"
)

// Dependencies holds all services needed by HTTP handlers.
type Dependencies struct {
	Optimizer *usecases.OptimizerService
	Hubs      []domain.TransitHub
	NATS      *nats.Conn
	Cache     ports.CacheService

	// CachePing checks cache backend connectivity for readiness. Nil for
	// the in-process cache, which cannot be down.
	CachePing func(ctx context.Context) error

	// OracleConfigured reports whether a routing API key is present. Without
	// one the service still works on local estimates.
	OracleConfigured bool
}

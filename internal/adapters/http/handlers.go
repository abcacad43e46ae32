package http

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/thihaagset01/midwhereah/internal/core/domain"
	"github.com/thihaagset01/midwhereah/internal/core/usecases"
)

// ParticipantInput is one member of the group in an optimize request.
type ParticipantInput struct {
	ID     string  `json:"id"`
	Lat    float64 `json:"lat"`
	Lng    float64 `json:"lng"`
	Mode   string  `json:"mode"`
	Weight float64 `json:"weight,omitempty"`
}

// OptimizeRequest is the POST /v1/optimize body.
type OptimizeRequest struct {
	GroupKey     string             `json:"group_key,omitempty"`
	Participants []ParticipantInput `json:"participants"`
	Config       *OptimizeConfig    `json:"config,omitempty"`
}

// OptimizeConfig carries optional per-request overrides.
type OptimizeConfig struct {
	MaxTimeMinutes     float64  `json:"max_time_minutes,omitempty"`
	MaxRangeMinutes    float64  `json:"max_range_minutes,omitempty"`
	ClusterThresholdKm float64  `json:"cluster_threshold_km,omitempty"`
	VenueRadiusMeters  int      `json:"venue_radius_meters,omitempty"`
	VenueCategories    []string `json:"venue_categories,omitempty"`
	DeadlineMs         int64    `json:"deadline_ms,omitempty"`
}

// maxOptimizeDeadline caps the per-request deadline_ms override. Matches the
// route-level timeout on /v1/optimize.
const maxOptimizeDeadline = 30 * time.Second

func toParticipants(inputs []ParticipantInput) ([]domain.Participant, error) {
	participants := make([]domain.Participant, 0, len(inputs))
	for _, in := range inputs {
		mode, err := domain.ParseTransportMode(in.Mode)
		if err != nil {
			return nil, err
		}
		participants = append(participants, domain.Participant{
			ID:       in.ID,
			Location: domain.GeoPoint{Lat: in.Lat, Lng: in.Lng},
			Mode:     mode,
			Weight:   in.Weight,
		})
	}
	return participants, nil
}

// OptimizeHandler computes the fair meeting point for a group.
// POST /v1/optimize
func OptimizeHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req OptimizeRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}

		participants, err := toParticipants(req.Participants)
		if err != nil {
			return errUnprocessable(c, err.Error())
		}

		ctx := c.UserContext()
		reqCfg := usecases.RequestConfig{GroupKey: req.GroupKey}
		if req.Config != nil {
			reqCfg.MaxTimeMinutes = req.Config.MaxTimeMinutes
			reqCfg.MaxRangeMinutes = req.Config.MaxRangeMinutes
			reqCfg.ClusterThresholdKm = req.Config.ClusterThresholdKm
			reqCfg.VenueRadiusMeters = req.Config.VenueRadiusMeters
			reqCfg.VenueCategories = normalizeCategories(req.Config.VenueCategories)

			if req.Config.DeadlineMs > 0 {
				d := time.Duration(req.Config.DeadlineMs) * time.Millisecond
				if d > maxOptimizeDeadline {
					d = maxOptimizeDeadline
				}
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, d)
				defer cancel()
			}
		}

		result, err := deps.Optimizer.Optimize(ctx, participants, reqCfg)
		if err != nil {
			// The optimizer only errors on invalid input.
			return errUnprocessable(c, err.Error())
		}

		return c.JSON(result)
	}
}

// ListHubsHandler returns the configured transit interchanges, optionally
// sorted by distance from a point.
// GET /v1/hubs?lat=&lng=&offset=&limit=
func ListHubsHandler(deps *Dependencies) fiber.Handler {
	type hubResp struct {
		Name       string          `json:"name"`
		Location   domain.GeoPoint `json:"location"`
		DistanceKm *float64        `json:"distance_km,omitempty"`
	}

	return func(c *fiber.Ctx) error {
		lat := c.QueryFloat("lat", 0)
		lng := c.QueryFloat("lng", 0)
		hasPoint := c.Query("lat") != "" && c.Query("lng") != ""
		if hasPoint && !(domain.GeoPoint{Lat: lat, Lng: lng}).Valid() {
			return errBadRequest(c, "lat and lng must be valid coordinates")
		}

		hubs := make([]hubResp, 0, len(deps.Hubs))
		for _, h := range deps.Hubs {
			r := hubResp{Name: h.Name, Location: h.Location}
			if hasPoint {
				d := h.Location.DistanceKm(domain.GeoPoint{Lat: lat, Lng: lng})
				r.DistanceKm = &d
			}
			hubs = append(hubs, r)
		}
		if hasPoint {
			sort.Slice(hubs, func(a, b int) bool {
				return *hubs[a].DistanceKm < *hubs[b].DistanceKm
			})
		}

		offset := c.QueryInt("offset", 0)
		limit := c.QueryInt("limit", 100)
		if offset < 0 {
			offset = 0
		}
		if limit <= 0 || limit > 200 {
			limit = 100
		}

		total := len(hubs)
		if offset >= total {
			hubs = nil
		} else {
			end := offset + limit
			if end > total {
				end = total
			}
			hubs = hubs[offset:end]
		}

		pg := Pagination{Offset: offset, Limit: limit, Total: total}
		SetLinkHeaders(c, pg)
		c.Set("Cache-Control", "public, max-age=3600")
		return c.JSON(PaginatedResponse{Data: hubs, Pagination: pg})
	}
}

// EstimateHandler returns per-participant travel estimates to an explicit
// destination without running the full search. Useful for previewing a
// manually chosen spot.
// POST /v1/estimate
func EstimateHandler(deps *Dependencies) fiber.Handler {
	type estimateRequest struct {
		Participants []ParticipantInput `json:"participants"`
		Destination  domain.GeoPoint    `json:"destination"`
	}

	return func(c *fiber.Ctx) error {
		var req estimateRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		if !req.Destination.Valid() {
			return errUnprocessable(c, "destination must be a valid coordinate")
		}

		participants, err := toParticipants(req.Participants)
		if err != nil {
			return errUnprocessable(c, err.Error())
		}
		if len(participants) == 0 {
			return errUnprocessable(c, "at least one participant is required")
		}
		// A single participant is fine for a preview.
		for _, p := range participants {
			if verr := p.Validate(); verr != nil {
				return errUnprocessable(c, verr.Error())
			}
		}

		times := deps.Optimizer.TravelTimes(c.UserContext(), participants, req.Destination)
		return c.JSON(fiber.Map{
			"destination":  req.Destination,
			"travel_times": times,
		})
	}
}

// normalizeCategories trims and lowercases the venue category list.
func normalizeCategories(categories []string) []string {
	out := categories[:0]
	for _, cat := range categories {
		if trimmed := strings.TrimSpace(cat); trimmed != "" {
			out = append(out, strings.ToLower(trimmed))
		}
	}
	return out
}

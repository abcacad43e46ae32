package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/graphql-go/graphql"

	"github.com/thihaagset01/midwhereah/internal/core/domain"
	"github.com/thihaagset01/midwhereah/internal/core/usecases"
)

// buildSchema creates the GraphQL schema wired to our services.
func buildSchema(deps *Dependencies) (graphql.Schema, error) {
	geoPointType := graphql.NewObject(graphql.ObjectConfig{
		Name: "GeoPoint",
		Fields: graphql.Fields{
			"lat": &graphql.Field{Type: graphql.Float},
			"lng": &graphql.Field{Type: graphql.Float},
		},
	})

	hubType := graphql.NewObject(graphql.ObjectConfig{
		Name: "TransitHub",
		Fields: graphql.Fields{
			"name":     &graphql.Field{Type: graphql.String},
			"location": &graphql.Field{Type: geoPointType},
		},
	})

	venueType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Venue",
		Fields: graphql.Fields{
			"id":       &graphql.Field{Type: graphql.String},
			"name":     &graphql.Field{Type: graphql.String},
			"rating":   &graphql.Field{Type: graphql.Float},
			"location": &graphql.Field{Type: geoPointType},
			"category": &graphql.Field{Type: graphql.String},
		},
	})

	metadataType := graphql.NewObject(graphql.ObjectConfig{
		Name: "ResultMetadata",
		Fields: graphql.Fields{
			"participant_count": &graphql.Field{Type: graphql.Int},
			"duration_ms":       &graphql.Field{Type: graphql.Int},
			"strategic_sources": &graphql.Field{Type: graphql.NewList(graphql.String)},
			"clusters":          &graphql.Field{Type: graphql.Int},
		},
	})

	resultType := graphql.NewObject(graphql.ObjectConfig{
		Name: "OptimizationResult",
		Fields: graphql.Fields{
			"point":         &graphql.Field{Type: geoPointType},
			"travel_times":  &graphql.Field{Type: graphql.NewList(graphql.Float)},
			"venues":        &graphql.Field{Type: graphql.NewList(venueType)},
			"equity_score":  &graphql.Field{Type: graphql.Float},
			"jains_index":   &graphql.Field{Type: graphql.Float},
			"avg_time":      &graphql.Field{Type: graphql.Float},
			"time_range":    &graphql.Field{Type: graphql.Float},
			"source":        &graphql.Field{Type: graphql.String},
			"fallback_used": &graphql.Field{Type: graphql.Boolean},
			"metadata":      &graphql.Field{Type: metadataType},
		},
	})

	participantInput := graphql.NewInputObject(graphql.InputObjectConfig{
		Name: "ParticipantInput",
		Fields: graphql.InputObjectConfigFieldMap{
			"id":     &graphql.InputObjectFieldConfig{Type: graphql.String},
			"lat":    &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.Float)},
			"lng":    &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.Float)},
			"mode":   &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.String)},
			"weight": &graphql.InputObjectFieldConfig{Type: graphql.Float, DefaultValue: 1.0},
		},
	})

	queryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"transitHubs": &graphql.Field{
				Type:        graphql.NewList(hubType),
				Description: "List the configured transit interchanges",
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return deps.Hubs, nil
				},
			},
		},
	})

	mutationType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Mutation",
		Fields: graphql.Fields{
			"optimize": &graphql.Field{
				Type:        resultType,
				Description: "Compute the fair meeting point for a group",
				Args: graphql.FieldConfigArgument{
					"participants": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.NewList(graphql.NewNonNull(participantInput)))},
					"groupKey":     &graphql.ArgumentConfig{Type: graphql.String, DefaultValue: ""},
					"maxTime":      &graphql.ArgumentConfig{Type: graphql.Float, DefaultValue: 0.0},
					"maxRange":     &graphql.ArgumentConfig{Type: graphql.Float, DefaultValue: 0.0},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					raw := p.Args["participants"].([]interface{})
					participants := make([]domain.Participant, 0, len(raw))
					for _, r := range raw {
						m := r.(map[string]interface{})
						mode, err := domain.ParseTransportMode(m["mode"].(string))
						if err != nil {
							return nil, err
						}
						part := domain.Participant{
							Location: domain.GeoPoint{
								Lat: m["lat"].(float64),
								Lng: m["lng"].(float64),
							},
							Mode: mode,
						}
						if id, ok := m["id"].(string); ok {
							part.ID = id
						}
						if w, ok := m["weight"].(float64); ok {
							part.Weight = w
						}
						participants = append(participants, part)
					}

					return deps.Optimizer.Optimize(p.Context, participants, usecases.RequestConfig{
						GroupKey:        p.Args["groupKey"].(string),
						MaxTimeMinutes:  p.Args["maxTime"].(float64),
						MaxRangeMinutes: p.Args["maxRange"].(float64),
					})
				},
			},
		},
	})

	return graphql.NewSchema(graphql.SchemaConfig{
		Query:    queryType,
		Mutation: mutationType,
	})
}

// GraphQLHandler serves the GraphQL endpoint.
func GraphQLHandler(deps *Dependencies) fiber.Handler {
	schema, err := buildSchema(deps)
	if err != nil {
		// This would be a programming error in the schema definition
		panic("graphql schema build: " + err.Error())
	}

	type gqlRequest struct {
		Query         string                 `json:"query"`
		OperationName string                 `json:"operationName"`
		Variables     map[string]interface{} `json:"variables"`
	}

	return func(c *fiber.Ctx) error {
		var req gqlRequest
		if err := c.BodyParser(&req); err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "invalid request body"})
		}

		result := graphql.Do(graphql.Params{
			Schema:         schema,
			RequestString:  req.Query,
			VariableValues: req.Variables,
			OperationName:  req.OperationName,
			Context:        c.UserContext(),
		})

		return c.JSON(result)
	}
}

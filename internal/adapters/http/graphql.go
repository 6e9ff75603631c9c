package http

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/graphql-go/graphql"

	"github.com/samirrijal/earthwork/internal/core/domain"
)

// gqlError exposes a domain error's kind and reason as GraphQL extensions.
type gqlError struct{ e *domain.Error }

func (g gqlError) Error() string { return g.e.Error() }

func (g gqlError) Extensions() map[string]interface{} {
	ext := map[string]interface{}{"code": string(g.e.Kind)}
	if g.e.Reason != "" {
		ext["reason"] = g.e.Reason
	}
	return ext
}

func gqlErr(err error) error {
	if e, ok := domain.AsError(err); ok {
		return gqlError{e}
	}
	return err
}

// buildSchema creates the GraphQL schema over the earthwork service.
func buildSchema(deps *Dependencies) (graphql.Schema, error) {
	coordinateInput := graphql.NewInputObject(graphql.InputObjectConfig{
		Name: "CoordinateInput",
		Fields: graphql.InputObjectConfigFieldMap{
			"longitude": &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.Float)},
			"latitude":  &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.Float)},
		},
	})

	sampleInput := graphql.NewInputObject(graphql.InputObjectConfig{
		Name: "SampleInput",
		Fields: graphql.InputObjectConfigFieldMap{
			"longitude":       &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.Float)},
			"latitude":        &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.Float)},
			"original_height": &graphql.InputObjectFieldConfig{Type: graphql.Float},
			"target_height":   &graphql.InputObjectFieldConfig{Type: graphql.Float},
		},
	})

	validationType := graphql.NewObject(graphql.ObjectConfig{
		Name: "PolygonValidation",
		Fields: graphql.Fields{
			"valid":   &graphql.Field{Type: graphql.Boolean},
			"reason":  &graphql.Field{Type: graphql.String},
			"message": &graphql.Field{Type: graphql.String},
			"area":    &graphql.Field{Type: graphql.Float},
			"unit":    &graphql.Field{Type: graphql.String},
		},
	})

	volumeType := graphql.NewObject(graphql.ObjectConfig{
		Name: "VolumeResult",
		Fields: graphql.Fields{
			"cut_volume":  &graphql.Field{Type: graphql.Float},
			"fill_volume": &graphql.Field{Type: graphql.Float},
			"net_volume":  &graphql.Field{Type: graphql.Float},
			"area":        &graphql.Field{Type: graphql.Float},
			"method":      &graphql.Field{Type: graphql.String},
			"cell_count":  &graphql.Field{Type: graphql.Int},
			"unit":        &graphql.Field{Type: graphql.String},
		},
	})

	samplePointType := graphql.NewObject(graphql.ObjectConfig{
		Name: "SamplePoint",
		Fields: graphql.Fields{
			"longitude":       &graphql.Field{Type: graphql.Float},
			"latitude":        &graphql.Field{Type: graphql.Float},
			"original_height": &graphql.Field{Type: graphql.Float},
			"target_height":   &graphql.Field{Type: graphql.Float},
		},
	})

	polygonArg := &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.NewList(graphql.NewNonNull(coordinateInput)))}

	queryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"validatePolygon": &graphql.Field{
				Type:        validationType,
				Description: "Validate a polygon and report its area",
				Args:        graphql.FieldConfigArgument{"polygon": polygonArg},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					res, err := deps.Earthwork.Validate(p.Context, geoPointsArg(p.Args["polygon"]))
					return res, gqlErr(err)
				},
			},
			"calculate": &graphql.Field{
				Type:        volumeType,
				Description: "Cut and fill for uniform original and target heights",
				Args: graphql.FieldConfigArgument{
					"polygon":        polygonArg,
					"originalHeight": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"targetHeight":   &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"gridSize":       &graphql.ArgumentConfig{Type: graphql.Float, DefaultValue: 0.0},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					orig, _ := p.Args["originalHeight"].(float64)
					target, _ := p.Args["targetHeight"].(float64)
					grid, _ := p.Args["gridSize"].(float64)
					res, err := deps.Earthwork.Calculate(p.Context, domain.UniformRequest{
						Polygon:        geoPointsArg(p.Args["polygon"]),
						OriginalHeight: &orig,
						TargetHeight:   &target,
						GridSize:       grid,
					})
					return res, gqlErr(err)
				},
			},
			"calculateSurface": &graphql.Field{
				Type:        volumeType,
				Description: "Cut and fill over interpolated surfaces (method grid or tin)",
				Args: graphql.FieldConfigArgument{
					"polygon":        polygonArg,
					"method":         &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"samplePoints":   &graphql.ArgumentConfig{Type: graphql.NewList(graphql.NewNonNull(sampleInput))},
					"gridSize":       &graphql.ArgumentConfig{Type: graphql.Float, DefaultValue: 0.0},
					"originalHeight": &graphql.ArgumentConfig{Type: graphql.Float, DefaultValue: 0.0},
					"targetHeight":   &graphql.ArgumentConfig{Type: graphql.Float, DefaultValue: 0.0},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					method, _ := p.Args["method"].(string)
					grid, _ := p.Args["gridSize"].(float64)
					orig, _ := p.Args["originalHeight"].(float64)
					target, _ := p.Args["targetHeight"].(float64)
					res, err := deps.Earthwork.CalculateTIN(p.Context, domain.SurfaceRequest{
						Polygon:        geoPointsArg(p.Args["polygon"]),
						SamplePoints:   samplesArg(p.Args["samplePoints"]),
						Method:         domain.Method(method),
						GridSize:       grid,
						OriginalHeight: orig,
						TargetHeight:   target,
					})
					return res, gqlErr(err)
				},
			},
			"samplePoints": &graphql.Field{
				Type:        graphql.NewList(samplePointType),
				Description: "Sample lattice inside a polygon",
				Args: graphql.FieldConfigArgument{
					"polygon":        polygonArg,
					"gridSize":       &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"originalHeight": &graphql.ArgumentConfig{Type: graphql.Float, DefaultValue: 0.0},
					"targetHeight":   &graphql.ArgumentConfig{Type: graphql.Float, DefaultValue: 0.0},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					grid, _ := p.Args["gridSize"].(float64)
					orig, _ := p.Args["originalHeight"].(float64)
					target, _ := p.Args["targetHeight"].(float64)
					res, err := deps.Earthwork.GenerateSamplePoints(p.Context, domain.SampleRequest{
						Polygon:        geoPointsArg(p.Args["polygon"]),
						GridSize:       grid,
						OriginalHeight: orig,
						TargetHeight:   target,
					})
					return res, gqlErr(err)
				},
			},
		},
	})

	return graphql.NewSchema(graphql.SchemaConfig{
		Query: queryType,
	})
}

func geoPointsArg(v interface{}) []domain.GeoPoint {
	list, _ := v.([]interface{})
	out := make([]domain.GeoPoint, 0, len(list))
	for _, item := range list {
		m, _ := item.(map[string]interface{})
		out = append(out, domain.GeoPoint{Longitude: floatField(m, "longitude"), Latitude: floatField(m, "latitude")})
	}
	return out
}

func samplesArg(v interface{}) []domain.SampleInput {
	list, _ := v.([]interface{})
	out := make([]domain.SampleInput, 0, len(list))
	for _, item := range list {
		m, _ := item.(map[string]interface{})
		s := domain.SampleInput{Longitude: floatField(m, "longitude"), Latitude: floatField(m, "latitude")}
		if h, ok := m["original_height"].(float64); ok {
			s.OriginalHeight = &h
		}
		if h, ok := m["target_height"].(float64); ok {
			s.TargetHeight = &h
		}
		out = append(out, s)
	}
	return out
}

func floatField(m map[string]interface{}, key string) float64 {
	switch v := m[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	}
	return 0
}

// GraphQLHandler serves the GraphQL endpoint.
func GraphQLHandler(deps *Dependencies) fiber.Handler {
	schema, err := buildSchema(deps)
	if err != nil {
		panic(fmt.Sprintf("graphql schema build: %v", err))
	}

	type gqlRequest struct {
		Query         string                 `json:"query"`
		OperationName string                 `json:"operationName"`
		Variables     map[string]interface{} `json:"variables"`
	}

	return func(c *fiber.Ctx) error {
		var req gqlRequest
		if err := parseBody(c, &req); err != nil {
			return errBadRequest(c, err.Error())
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

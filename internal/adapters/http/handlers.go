package http

import (
	"bytes"
	"encoding/json"
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/samirrijal/earthwork/internal/core/domain"
)

// ValidatePolygonHandler checks a polygon. The body is the raw coordinate
// list; an object with polygon_coordinates is accepted as well. Invalid
// polygons are a 200 with valid=false and the reason.
func ValidatePolygonHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		points, err := decodePolygon(c.Body())
		if err != nil {
			return errBadRequest(c, err.Error())
		}
		res, err := deps.Earthwork.Validate(c.UserContext(), points)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(res)
	}
}

// CalculateHandler computes cut and fill with one uniform original and
// target height.
func CalculateHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req domain.UniformRequest
		if err := parseBody(c, &req); err != nil {
			return errBadRequest(c, err.Error())
		}
		res, err := deps.Earthwork.Calculate(c.UserContext(), req)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(res)
	}
}

// CalculateTINHandler computes cut and fill over interpolated surfaces.
func CalculateTINHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req domain.SurfaceRequest
		if err := parseBody(c, &req); err != nil {
			return errBadRequest(c, err.Error())
		}
		res, err := deps.Earthwork.CalculateTIN(c.UserContext(), req)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(res)
	}
}

// GenerateSamplePointsHandler returns the sample lattice for a polygon.
// Passing ?limit= switches to a paginated envelope with Link headers.
func GenerateSamplePointsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req domain.SampleRequest
		if err := parseBody(c, &req); err != nil {
			return errBadRequest(c, err.Error())
		}
		points, err := deps.Earthwork.GenerateSamplePoints(c.UserContext(), req)
		if err != nil {
			return respondError(c, err)
		}

		if c.Query("limit") == "" {
			return c.JSON(points)
		}
		page, pg := paginate(points, c.QueryInt("offset", 0), c.QueryInt("limit", 0), 5000)
		SetLinkHeaders(c, pg)
		return c.JSON(PaginatedResponse{Data: page, Pagination: pg})
	}
}

// ElevationHandler evaluates the surfaces built from sample_points at the
// requested points.
func ElevationHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req domain.ElevationRequest
		if err := parseBody(c, &req); err != nil {
			return errBadRequest(c, err.Error())
		}
		out, err := deps.Earthwork.Elevations(c.UserContext(), req)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(out)
	}
}

// parseBody decodes a JSON body regardless of the Content-Type header.
func parseBody(c *fiber.Ctx, v any) error {
	body := c.Body()
	if len(bytes.TrimSpace(body)) == 0 {
		return errEmptyBody
	}
	if err := json.Unmarshal(body, v); err != nil {
		return &bodyError{err}
	}
	return nil
}

func decodePolygon(body []byte) ([]domain.GeoPoint, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return nil, errEmptyBody
	}
	var points []domain.GeoPoint
	if body[0] == '{' {
		var wrapped struct {
			Polygon []domain.GeoPoint `json:"polygon_coordinates"`
		}
		if err := json.Unmarshal(body, &wrapped); err != nil {
			return nil, &bodyError{err}
		}
		points = wrapped.Polygon
	} else if err := json.Unmarshal(body, &points); err != nil {
		return nil, &bodyError{err}
	}
	return points, nil
}

type bodyError struct{ err error }

func (e *bodyError) Error() string { return "invalid request body: " + e.err.Error() }
func (e *bodyError) Unwrap() error { return e.err }

var errEmptyBody = errors.New("request body is empty")

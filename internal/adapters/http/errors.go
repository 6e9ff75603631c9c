package http

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/samirrijal/earthwork/internal/core/domain"
)

// APIError is a structured error response.
type APIError struct {
	Status    int    `json:"status"`
	Code      string `json:"code"`             // malformed_request, invalid_polygon, internal_error, ...
	Reason    string `json:"reason,omitempty"` // sub-reason, e.g. self_intersecting
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

// newError builds a JSON error response with a request ID.
func newError(c *fiber.Ctx, status int, code, reason, message string) error {
	reqID, _ := c.Locals("requestid").(string)
	return c.Status(status).JSON(APIError{
		Status:    status,
		Code:      code,
		Reason:    reason,
		Message:   message,
		RequestID: reqID,
	})
}

func errBadRequest(c *fiber.Ctx, msg string) error {
	return newError(c, fiber.StatusBadRequest, string(domain.KindMalformedRequest), "", msg)
}

func errInternal(c *fiber.Ctx, msg string) error {
	return newError(c, fiber.StatusInternalServerError, "internal_error", "", msg)
}

// statusFor maps a domain error kind to an HTTP status.
func statusFor(kind domain.Kind) int {
	switch kind {
	case domain.KindMalformedRequest:
		return fiber.StatusBadRequest
	case domain.KindSampleSetTooLarge:
		return fiber.StatusRequestEntityTooLarge
	default:
		return fiber.StatusUnprocessableEntity
	}
}

// respondError writes err as an APIError. Deadline errors are returned
// unchanged so the timeout middleware can answer 408.
func respondError(c *fiber.Ctx, err error) error {
	if e, ok := domain.AsError(err); ok {
		msg := e.Message
		if msg == "" {
			msg = e.Error()
		}
		return newError(c, statusFor(e.Kind), string(e.Kind), e.Reason, msg)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	LoggerFromCtx(c.UserContext()).Error("unhandled calculation error", "error", err)
	return errInternal(c, "internal error")
}

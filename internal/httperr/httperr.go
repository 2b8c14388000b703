// Package httperr carries transport-level failures from handlers to the
// fiber error handler, which renders them as {"error": reason, "message": msg}.
package httperr

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"
)

const internalMessage = "internal server error"

// Error is a failure with the status and machine readable reason the client
// should see. Cause is logged for 5xx responses and never rendered.
type Error struct {
	Status  int
	Reason  string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Cause }

// Response is the JSON body of every error response.
type Response struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func New(status int, reason, message string) *Error {
	return &Error{Status: status, Reason: reason, Message: message}
}

func BadRequest(reason, message string) *Error {
	return New(fiber.StatusBadRequest, reason, message)
}

func Unauthorized(reason, message string) *Error {
	return New(fiber.StatusUnauthorized, reason, message)
}

func Forbidden(reason, message string) *Error {
	return New(fiber.StatusForbidden, reason, message)
}

func NotFound(reason, message string) *Error {
	return New(fiber.StatusNotFound, reason, message)
}

func Conflict(reason, message string) *Error {
	return New(fiber.StatusConflict, reason, message)
}

// BadGateway reports a failing upstream dependency.
func BadGateway(reason string, cause error) *Error {
	return &Error{Status: fiber.StatusBadGateway, Reason: reason, Message: "upstream service failed", Cause: cause}
}

// Internal hides cause behind a generic message.
func Internal(cause error) *Error {
	return &Error{Status: fiber.StatusInternalServerError, Reason: "internal_error", Message: internalMessage, Cause: cause}
}

// Handler returns the fiber.ErrorHandler used by the gateway. Client errors
// are rendered as is; server errors are logged with the request id and the
// client only sees a generic message.
func Handler(logger *slog.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		status, body := Resolve(err)
		if status >= fiber.StatusInternalServerError && logger != nil {
			logger.Error("request failed",
				slog.String("method", c.Method()),
				slog.String("path", c.Path()),
				slog.String("request_id", c.GetRespHeader(fiber.HeaderXRequestID)),
				slog.Int("status", status),
				slog.Any("error", err),
			)
		}
		return c.Status(status).JSON(body)
	}
}

// Resolve maps err to a status code and response body.
func Resolve(err error) (int, Response) {
	var httpErr *Error
	if errors.As(err, &httpErr) {
		if httpErr.Status >= fiber.StatusInternalServerError {
			return httpErr.Status, Response{Error: httpErr.Reason, Message: publicMessage(httpErr)}
		}
		return httpErr.Status, Response{Error: httpErr.Reason, Message: httpErr.Message}
	}

	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		msg := fiberErr.Message
		if fiberErr.Code >= fiber.StatusInternalServerError {
			msg = internalMessage
		}
		return fiberErr.Code, Response{Error: reasonFor(fiberErr.Code), Message: msg}
	}

	return fiber.StatusInternalServerError, Response{Error: "internal_error", Message: internalMessage}
}

func publicMessage(e *Error) string {
	if e.Message == "" {
		return internalMessage
	}
	return e.Message
}

func reasonFor(status int) string {
	text := http.StatusText(status)
	if text == "" {
		return "error"
	}
	return strings.ReplaceAll(strings.ToLower(text), " ", "_")
}

package api

import (
	"errors"
	"io"
	"net/http"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/labstack/echo/v5"

	"github.com/samcharles93/subword/internal/encoding"
	"github.com/samcharles93/subword/internal/models"
	"github.com/samcharles93/subword/internal/pretokenize"
	"github.com/samcharles93/subword/internal/processor"
)

func writeBadRequest(c *echo.Context, msg string) error {
	return writeError(c, http.StatusBadRequest, "invalid_request_error", msg, "", "")
}

func writeNotFound(c *echo.Context, msg string) error {
	return writeError(c, http.StatusNotFound, "not_found_error", msg, "", "")
}

func writeError(c *echo.Context, status int, errType, msg, param, code string) error {
	return c.JSON(status, map[string]any{
		"error": ResponseError{
			Message: msg,
			Type:    errType,
			Code:    code,
			Param:   param,
		},
	})
}

// errorStatus maps pipeline errors onto an HTTP status and error type.
// Anything it does not recognise is a server error.
func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, ErrTokenizerNotFound):
		return http.StatusNotFound, "not_found_error"
	case errors.Is(err, models.ErrUnsupported), errors.Is(err, pretokenize.ErrUnsupported):
		return http.StatusBadRequest, "unsupported_error"
	case errors.Is(err, ErrInvalidRequest),
		errors.Is(err, models.ErrInvalidConfig),
		errors.Is(err, processor.ErrInvalidTemplate),
		errors.Is(err, processor.ErrInvalidInput),
		errors.Is(err, encoding.ErrInvalidTruncation):
		return http.StatusBadRequest, "invalid_request_error"
	default:
		return http.StatusInternalServerError, "server_error"
	}
}

func decodeJSON[T any](r io.Reader) (T, error) {
	var out T
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&out); err != nil {
		return out, err
	}
	return out, nil
}

func newID(prefix string) string {
	return prefix + "-" + uuid.NewString()
}

package pkg

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/goccy/go-json"

	"github.com/vignesh0909/adbond.net-sub002/pkg/logger"
)

// APIResponse is the envelope of every API response.
type APIResponse struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// JSON writes a success envelope.
func JSON(w http.ResponseWriter, status int, data any) {
	write(w, status, APIResponse{Success: true, Data: data})
}

// Error writes an error envelope. Domain errors are mapped to their HTTP
// status; anything unrecognised becomes a 500 whose detail stays in the log.
func Error(w http.ResponseWriter, err error) {
	status := StatusFor(err)

	msg := err.Error()
	if status == http.StatusInternalServerError {
		log := logger.Component("http")
		log.Error().Err(err).Msg("internal error")
		msg = "internal server error"
	}

	write(w, status, APIResponse{Success: false, Error: msg})
}

// ErrorWithMessage writes an error envelope with a fixed status and message.
func ErrorWithMessage(w http.ResponseWriter, status int, message string) {
	write(w, status, APIResponse{Success: false, Error: message})
}

// DecodeJSON decodes the request body into v. A malformed body is reported
// as ErrBadRequest.
func DecodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("%w: invalid request body", ErrBadRequest)
	}
	return nil
}

func write(w http.ResponseWriter, status int, resp APIResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(resp); err != nil {
		log := logger.Component("http")
		log.Error().Err(err).Msg("failed to encode response")
	}
}

// StatusFor maps a domain error chain to an HTTP status code.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrAlreadyExists), errors.Is(err, ErrConflict):
		return http.StatusConflict
	case errors.Is(err, ErrBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, ErrTooManyRequests):
		return http.StatusTooManyRequests
	case errors.Is(err, ErrPayloadTooLarge):
		return http.StatusRequestEntityTooLarge
	default:
		return http.StatusInternalServerError
	}
}

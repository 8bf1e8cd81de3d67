package web

// errors.go turns pipeline errors into JSON responses.
//
// The technical error is logged with the request and run ids; the client
// gets the coded user message from core.MapError and a status derived from
// the code.

import (
	"errors"
	"net/http"
	"strings"

	"github.com/JonMunkholm/ledgeraudit/internal/core"
	"github.com/JonMunkholm/ledgeraudit/internal/logging"
)

// ErrorResponse is the JSON body of every error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Action  string `json:"action,omitempty"`
	Code    string `json:"code"`
}

// respondError logs err and writes its user message.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	msg := core.MapError(err)
	status := statusFor(msg.Code)

	logger := logging.FromContext(r.Context())
	attrs := []any{
		"path", r.URL.Path,
		"method", r.Method,
		"status", status,
		"code", msg.Code,
		"error", err.Error(),
	}
	if status >= http.StatusInternalServerError {
		logger.Error("request failed", attrs...)
	} else {
		logger.Warn("request rejected", attrs...)
	}

	if msg.Code == "RUN001" {
		w.Header().Set("Retry-After", "30")
	}
	writeJSON(w, status, ErrorResponse{
		Error:   msg.Message,
		Message: msg.Message,
		Action:  msg.Action,
		Code:    msg.Code,
	})
}

// statusFor maps an error code to an HTTP status.
func statusFor(code string) int {
	switch {
	case strings.HasPrefix(code, "IN"):
		return http.StatusBadRequest
	case code == "FILE003":
		return http.StatusRequestEntityTooLarge
	case code == "FILE004":
		return http.StatusBadRequest
	case strings.HasPrefix(code, "FILE"):
		return http.StatusUnprocessableEntity
	case code == "RUN001":
		return http.StatusServiceUnavailable
	case code == "RUN002":
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// formError classifies multipart parsing failures.
func formError(err error) error {
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		return errors.Join(core.ErrFileTooLarge, err)
	case errors.Is(err, http.ErrMissingFile), errors.Is(err, http.ErrNotMultipart):
		return errors.Join(core.ErrNoFile, err)
	default:
		return err
	}
}

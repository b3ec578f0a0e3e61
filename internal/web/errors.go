package web

// errors.go maps failures to HTTP responses. The technical error is logged
// with the request id; the client gets the catalog message and code in the
// format it asked for (HTMX fragment, JSON or plain text).

import (
	"archive/zip"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/JonMunkholm/gtfsload/internal/feed"
	"github.com/JonMunkholm/gtfsload/internal/logging"
	"github.com/JonMunkholm/gtfsload/internal/service"
	"github.com/JonMunkholm/gtfsload/internal/source"
	"github.com/JonMunkholm/gtfsload/internal/store"
	"github.com/JonMunkholm/gtfsload/internal/web/templates"
)

// ErrorResponse represents the JSON structure for API error responses.
// Includes both machine-readable (Code) and human-readable (Message, Action) fields.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Action  string `json:"action,omitempty"`
	Code    string `json:"code"`
}

// errBadRequest marks client input errors whose text is safe to return.
type errBadRequest struct{ msg string }

func (e errBadRequest) Error() string { return e.msg }

func badRequest(msg string) error { return errBadRequest{msg: msg} }

// statusFor picks the HTTP status for err.
func statusFor(err error) int {
	var bad errBadRequest
	var tooBig *http.MaxBytesError
	switch {
	case errors.As(err, &bad):
		return http.StatusBadRequest
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrHistoryDisabled):
		return http.StatusNotImplemented
	case errors.Is(err, service.ErrTooManyValidations):
		return http.StatusServiceUnavailable
	case errors.Is(err, source.ErrArchiveTooLarge), errors.As(err, &tooBig):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, zip.ErrFormat):
		return http.StatusBadRequest
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, context.Canceled):
		// nginx's "client closed request"
		return 499
	}
	return http.StatusInternalServerError
}

// respondError logs err and writes the mapped user message.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	msg := feed.MapError(err)

	var bad errBadRequest
	if errors.As(err, &bad) {
		msg = feed.UserMessage{Message: bad.msg, Code: "REQ001"}
	}
	if status == http.StatusServiceUnavailable {
		w.Header().Set("Retry-After", "5")
	}

	level := slog.LevelWarn
	if status >= http.StatusInternalServerError {
		level = slog.LevelError
	}
	logging.FromContext(r.Context()).Log(r.Context(), level, "request error",
		"path", r.URL.Path,
		"method", r.Method,
		"status", status,
		"error", err.Error(),
		"code", msg.Code,
	)

	writeMessage(w, r, status, msg)
}

// writeError writes a fixed message without going through the catalog.
func writeError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	slog.Warn("request rejected",
		"path", r.URL.Path,
		"status", status,
		"code", code,
		"request_id", chimw.GetReqID(r.Context()),
	)
	writeMessage(w, r, status, feed.UserMessage{Message: message, Code: code})
}

func writeMessage(w http.ResponseWriter, r *http.Request, status int, msg feed.UserMessage) {
	switch {
	case isHTMX(r):
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(status)
		if err := templates.ErrorAlert(msg.Message, msg.Action, msg.Code).Render(r.Context(), w); err != nil {
			slog.ErrorContext(r.Context(), "render error alert", "error", err)
		}
	case wantsJSON(r):
		writeJSON(w, r, status, ErrorResponse{
			Error:   msg.Message,
			Message: msg.Message,
			Action:  msg.Action,
			Code:    msg.Code,
		})
	default:
		http.Error(w, msg.Message+" ("+msg.Code+")", status)
	}
}

// isHTMX checks if the request is an HTMX request.
func isHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}

// wantsJSON checks if the client prefers a JSON response. API routes default
// to JSON.
func wantsJSON(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "application/json") ||
		strings.HasPrefix(r.URL.Path, "/api/")
}

// Package utils provides common helpers for HTTP payload handling on both
// sides of the wire: request ID propagation through context, JSON responses
// for the local debug server, and decoding of backend responses.
package utils

import (
	"context"
	"encoding/json"
	"mime"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"
)

// contextKey is a custom type for context keys to avoid collisions
type contextKey string

// requestIDKey is the context key for request ID
const requestIDKey contextKey = "request_id"

// GetRequestID retrieves the request ID from the context.
// Returns an empty string if the context is nil or no request ID is present.
func GetRequestID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if requestID, ok := ctx.Value(requestIDKey).(string); ok {
		return requestID
	}
	return ""
}

// WithRequestID adds a request ID to the context. Outbound backend calls
// forward it in the X-Request-ID header so client and server logs correlate.
//
// Example:
//
//	ctx := utils.WithRequestID(ctx, uuid.New().String())
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

// MessageResponse is the envelope the backend uses for outcomes that carry
// a human-readable message, e.g. {"message": "Invalid credentials!"}.
type MessageResponse struct {
	Message string              `json:"message"`
	Errors  map[string][]string `json:"errors,omitempty"` // Per-field form errors on 400
}

// ErrorResponse represents a standard error response structure served by
// the debug server.
type ErrorResponse struct {
	Error     string `json:"error"`                // HTTP status text (e.g., "Service Unavailable")
	Message   string `json:"message,omitempty"`    // Detailed error message
	RequestID string `json:"request_id,omitempty"` // Request ID for tracing
}

// IsJSONContentType reports whether a Content-Type header value denotes a
// JSON body. Parameters such as charset are ignored.
//
// Example:
//
//	utils.IsJSONContentType("application/json; charset=utf-8") // true
//	utils.IsJSONContentType("text/html")                       // false
func IsJSONContentType(contentType string) bool {
	if contentType == "" {
		return false
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return strings.Contains(contentType, "application/json")
	}
	return mediaType == "application/json" || strings.HasSuffix(mediaType, "+json")
}

// ExtractMessage returns the "message" field of a backend JSON body, or an
// empty string when the body is not a message envelope.
func ExtractMessage(body []byte) string {
	var envelope MessageResponse
	if err := json.Unmarshal(body, &envelope); err != nil {
		return ""
	}
	return envelope.Message
}

// RespondWithError sends a JSON error response with automatic request ID extraction.
func RespondWithError(w http.ResponseWriter, r *http.Request, statusCode int, message string) {
	requestID := GetRequestID(r.Context())
	response := ErrorResponse{
		Error:     http.StatusText(statusCode),
		Message:   message,
		RequestID: requestID,
	}
	RespondWithJSON(w, r, statusCode, response)
}

// RespondWithJSON sends a JSON response with the given status code and data.
//
// Example:
//
//	utils.RespondWithJSON(w, r, http.StatusOK, map[string]string{
//	    "status": "ok",
//	})
func RespondWithJSON(w http.ResponseWriter, r *http.Request, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Error().
			Err(err).
			Str("request_id", GetRequestID(r.Context())).
			Msg("Failed to encode JSON response")
	}
}

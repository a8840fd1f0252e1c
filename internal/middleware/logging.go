package middleware

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/ieraasyl/SavorViews/pkg/utils"
	"github.com/rs/zerolog/log"
)

// RoundTripperFunc adapts a function to http.RoundTripper.
type RoundTripperFunc func(*http.Request) (*http.Response, error)

// RoundTrip implements http.RoundTripper.
func (f RoundTripperFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

// LoggingTransport logs every outbound backend call with request ID
// correlation. It is the client-side counterpart of Logger.
//
// Request ID flow:
//  1. Use the request ID already in the context, when a caller set one with
//     utils.WithRequestID to correlate several calls
//  2. Generate a new UUID if not present
//  3. Send it in X-Request-ID so backend logs can be joined with ours; the
//     api client reads it back from the sent request into Response.RequestID
//
// Failures are logged at warn level; they are still returned to the caller
// untouched, which decides whether the user sees them.
func LoggingTransport(next http.RoundTripper) http.RoundTripper {
	return RoundTripperFunc(func(r *http.Request) (*http.Response, error) {
		start := time.Now()

		requestID := utils.GetRequestID(r.Context())
		if requestID == "" {
			requestID = uuid.New().String()
		}
		r = r.Clone(utils.WithRequestID(r.Context(), requestID))
		r.Header.Set("X-Request-ID", requestID)

		log.Debug().
			Str("request_id", requestID).
			Str("method", r.Method).
			Str("url", r.URL.String()).
			Msg("Backend request started")

		resp, err := next.RoundTrip(r)
		duration := time.Since(start)
		if err != nil {
			log.Warn().
				Err(err).
				Str("request_id", requestID).
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Dur("duration_ms", duration).
				Msg("Backend request failed")
			return nil, err
		}

		log.Info().
			Str("request_id", requestID).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", resp.StatusCode).
			Str("content_type", resp.Header.Get("Content-Type")).
			Dur("duration_ms", duration).
			Msg("Backend request completed")

		return resp, nil
	})
}

// Logger creates structured logging middleware for the debug server.
// Generates or reuses X-Request-ID and logs each request with status,
// bytes and duration.
//
// Usage:
//
//	r.Use(middleware.Logger())
func Logger() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			requestID := r.Header.Get("X-Request-ID")
			if requestID == "" {
				requestID = uuid.New().String()
			}

			ctx := utils.WithRequestID(r.Context(), requestID)
			r = r.WithContext(ctx)

			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			ww.Header().Set("X-Request-ID", requestID)

			next.ServeHTTP(ww, r)

			log.Debug().
				Str("request_id", requestID).
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", ww.Status()).
				Int("bytes", ww.BytesWritten()).
				Dur("duration_ms", time.Since(start)).
				Msg("Request completed")
		})
	}
}

// Recoverer recovers from panics in debug server handlers and logs the error.
// The panic details are logged but not exposed to the client.
//
// Usage (should be early in middleware chain):
//
//	r.Use(middleware.Recoverer())
//	r.Use(middleware.Logger())
func Recoverer() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					log.Error().
						Interface("error", err).
						Str("method", r.Method).
						Str("path", r.URL.Path).
						Msg("Panic recovered")

					http.Error(w, "Internal Server Error", http.StatusInternalServerError)
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}

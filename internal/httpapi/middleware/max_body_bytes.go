// Package middleware holds chi-compatible middleware for internal/httpapi,
// adapted from the teacher's internal/infrastructure/http/middleware package.
package middleware

import (
	"bytes"
	"io"
	"log/slog"
	"net/http"
)

const payloadTooLargeJSON = `{"error":{"code":"PAYLOAD_TOO_LARGE","message":"request body exceeds size limit","details":[]}}`

// MaxBodyBytes limits request body size, rejecting oversized bodies with
// 413 before a handler ever decodes them. Checks Content-Length first for
// cheap early rejection, then enforces the limit during the actual read to
// catch chunked encoding and spoofed headers.
func MaxBodyBytes(maxBytes int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.ContentLength > 0 && r.ContentLength > maxBytes {
				writeTooLarge(w, r)
				return
			}

			body := http.MaxBytesReader(w, r.Body, maxBytes)
			buf, err := io.ReadAll(body)
			if err != nil {
				slog.WarnContext(r.Context(), "httpapi: request body size limit exceeded",
					"method", r.Method, "path", r.URL.Path, "content_length", r.ContentLength, "limit", maxBytes, "error", err)
				writeTooLarge(w, r)
				return
			}

			r.Body = io.NopCloser(bytes.NewReader(buf))
			next.ServeHTTP(w, r)
		})
	}
}

func writeTooLarge(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusRequestEntityTooLarge)
	if _, err := w.Write([]byte(payloadTooLargeJSON)); err != nil {
		slog.ErrorContext(r.Context(), "httpapi: failed to write payload-too-large response", "error", err)
	}
}

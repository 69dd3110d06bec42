// Package api implements the docseek HTTP API using chi.
package api

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

type credentialKey struct{}

// CredentialMiddleware takes the repository credential from the
// "Authorization: Bearer <token>" header, falling back to defaultToken.
// Requests without either are rejected.
func CredentialMiddleware(defaultToken string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tok := defaultToken
			if auth := r.Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
				tok = strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
			}
			if tok == "" {
				writeJSON(w, http.StatusUnauthorized, errorBody("missing bearer token"))
				return
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), credentialKey{}, tok)))
		})
	}
}

func credential(r *http.Request) string {
	tok, _ := r.Context().Value(credentialKey{}).(string)
	return tok
}

// RequestLogger logs one line per request at debug level.
func RequestLogger(log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			log.Debug("request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("elapsed", time.Since(start)),
				zap.String("request_id", middleware.GetReqID(r.Context())),
			)
		})
	}
}

// Package rest exposes interview sessions over HTTP and websockets.
package rest

import (
	"net/http"
	"os"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/spigell/interview-coach/internal/session"
)

// DefaultSession is used by voice-agent calls that carry no call id.
const DefaultSession = "demo_session_final"

// Container holds the dependencies of the router.
type Container struct {
	Sessions       *session.Manager
	DefaultSession string
	Logger         *zap.Logger
}

// NewRouter creates the API router with all endpoints.
func NewRouter(c *Container) http.Handler {
	h := newHandler(c)
	r := mux.NewRouter()

	r.Use(corsMiddleware)

	r.HandleFunc("/health", h.Health).Methods("GET")

	// Voice agent tool endpoint and the polling endpoint of the web page.
	r.HandleFunc("/webhook", h.Webhook).Methods("POST", "OPTIONS")
	r.HandleFunc("/get-latest-feedback", h.LatestFeedback).Methods("GET", "OPTIONS")

	v1 := r.PathPrefix("/v1").Subrouter()
	v1.HandleFunc("/sessions", h.CreateSession).Methods("POST", "OPTIONS")
	v1.HandleFunc("/sessions/{id}", h.GetSession).Methods("GET", "OPTIONS")
	v1.HandleFunc("/sessions/{id}", h.DeleteSession).Methods("DELETE", "OPTIONS")
	v1.HandleFunc("/sessions/{id}/turns", h.Turn).Methods("POST", "OPTIONS")
	v1.HandleFunc("/sessions/{id}/report", h.Report).Methods("GET", "OPTIONS")
	v1.HandleFunc("/sessions/{id}/ws", h.Stream).Methods("GET")

	return r
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		allowedOrigins := os.Getenv("CORS_ALLOWED_ORIGINS")
		if allowedOrigins == "" {
			allowedOrigins = "*"
		}

		allowedMethods := os.Getenv("CORS_ALLOWED_METHODS")
		if allowedMethods == "" {
			allowedMethods = "GET, POST, DELETE, OPTIONS"
		}

		allowedHeaders := os.Getenv("CORS_ALLOWED_HEADERS")
		if allowedHeaders == "" {
			allowedHeaders = "Content-Type, Authorization"
		}

		w.Header().Set("Access-Control-Allow-Origin", allowedOrigins)
		w.Header().Set("Access-Control-Allow-Methods", allowedMethods)
		w.Header().Set("Access-Control-Allow-Headers", allowedHeaders)

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

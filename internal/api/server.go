// internal/api/server.go
package api

import (
	"encoding/json"
	"net/http"

	"airtable-gateway/internal/common/config"
	"airtable-gateway/internal/common/database"
	apperrors "airtable-gateway/internal/common/errors"
	"airtable-gateway/internal/common/logger"
	"airtable-gateway/internal/schema"
	"airtable-gateway/internal/service"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Server owns the HTTP surface of the gateway: routing, middleware, and the
// translation of service results and errors into response envelopes.
type Server struct {
	cfg          *config.Config
	svc          *service.Service
	registry     *schema.Registry
	redis        *database.RedisClient
	errorHandler *apperrors.ErrorHandler
	logger       logger.Logger
	handler      http.Handler
}

// NewServer wires the routes and middleware. redisClient may be nil when
// caching is disabled; the readiness endpoint reports it accordingly.
func NewServer(cfg *config.Config, svc *service.Service, registry *schema.Registry, redisClient *database.RedisClient, log logger.Logger) *Server {
	s := &Server{
		cfg:          cfg,
		svc:          svc,
		registry:     registry,
		redis:        redisClient,
		errorHandler: apperrors.NewErrorHandler(log),
		logger:       log,
	}

	r := mux.NewRouter()
	r.Use(s.requestIDMiddleware, s.loggingMiddleware, s.metricsMiddleware)

	r.HandleFunc("/", s.handle(s.healthCheck)).Methods(http.MethodGet)
	r.HandleFunc("/health", s.handle(s.healthCheck)).Methods(http.MethodGet)
	r.HandleFunc("/ready", s.handle(s.readyCheck)).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	r.HandleFunc("/schemas", s.handle(s.getSchemas)).Methods(http.MethodGet)
	r.HandleFunc("/config", s.handle(s.getConfig)).Methods(http.MethodGet)

	airtable := r.PathPrefix("/airtable").Subrouter()
	airtable.HandleFunc("/create-record", s.handle(s.createRecord)).Methods(http.MethodPost)
	airtable.HandleFunc("/record/{table_name}/{record_id}", s.handle(s.getRecord)).Methods(http.MethodGet)
	airtable.HandleFunc("/records/{table_name}", s.handle(s.getAllRecords)).Methods(http.MethodGet)
	airtable.HandleFunc("/update-record", s.handle(s.updateRecord)).Methods(http.MethodPut)
	airtable.HandleFunc("/delete-record", s.handle(s.deleteRecord)).Methods(http.MethodDelete)
	airtable.HandleFunc("/search-records", s.handle(s.searchRecords)).Methods(http.MethodPost)
	airtable.HandleFunc("/leads/by-phone/{phone}", s.handle(s.getLeadByPhone)).Methods(http.MethodGet)
	airtable.HandleFunc("/leads/create", s.handle(s.createLead)).Methods(http.MethodPost)
	airtable.HandleFunc("/leads/{record_id}/status", s.handle(s.updateLeadStatus)).Methods(http.MethodPut)
	airtable.HandleFunc("/calls/create", s.handle(s.createCall)).Methods(http.MethodPost)

	r.NotFoundHandler = http.HandlerFunc(s.notFound)
	r.MethodNotAllowedHandler = http.HandlerFunc(s.methodNotAllowed)

	// CORS and panic recovery wrap the router itself so preflight requests
	// and unrouted paths get the same treatment as matched ones
	s.handler = s.recoveryMiddleware(s.corsMiddleware(r))

	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

// handle adapts a handler returning an error into an http.HandlerFunc. Any
// returned error goes through the shared error responder.
func (s *Server) handle(fn func(http.ResponseWriter, *http.Request) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := fn(w, r); err != nil {
			s.errorHandler.WriteHTTP(w, r, err)
		}
	}
}

// writeJSON writes a success envelope.
func writeJSON(w http.ResponseWriter, status int, body interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(body)
}

func (s *Server) notFound(w http.ResponseWriter, r *http.Request) {
	_ = writeJSON(w, http.StatusNotFound, apperrors.ErrorResponse{
		Success:   false,
		Message:   "Endpoint not found",
		ErrorCode: "NOT_FOUND",
	})
}

func (s *Server) methodNotAllowed(w http.ResponseWriter, r *http.Request) {
	_ = writeJSON(w, http.StatusMethodNotAllowed, apperrors.ErrorResponse{
		Success:   false,
		Message:   "Method not allowed",
		ErrorCode: "METHOD_NOT_ALLOWED",
	})
}

package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// setupRoutes configures all HTTP routes for the API server
func (s *Server) setupRoutes() *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	if s.gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{})).Methods(http.MethodGet)
	}

	v1 := r.PathPrefix("/api/v1").Subrouter()
	v1.HandleFunc("/messages/{hash}", s.handleMessage).Methods(http.MethodGet)
	v1.HandleFunc("/messages/{hash}/request", s.handleMessageRequest).Methods(http.MethodGet)
	v1.HandleFunc("/anchors/{ga}", s.handleAnchor).Methods(http.MethodGet)
	v1.HandleFunc("/gateways/{ga}", s.handleGateway).Methods(http.MethodGet)
	v1.HandleFunc("/requests/{hash}", s.handleRequest).Methods(http.MethodGet)
	v1.HandleFunc("/transactions/{id:[0-9]+}", s.handleTransaction).Methods(http.MethodGet)

	return r
}

package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/spf13/cast"
)

// handleHealth handles GET /health
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

// handleMessage handles GET /api/v1/messages/{hash}
func (s *Server) handleMessage(w http.ResponseWriter, r *http.Request) {
	hash := pathKey(r, "hash")
	msg, err := s.reader.GetMessage(r.Context(), hash)
	s.respond(w, "message", hash, msg, msg == nil, err)
}

// handleMessageRequest handles GET /api/v1/messages/{hash}/request
func (s *Server) handleMessageRequest(w http.ResponseWriter, r *http.Request) {
	hash := pathKey(r, "hash")
	req, err := s.reader.GetRequestByMessageHash(r.Context(), hash)
	s.respond(w, "request for message", hash, req, req == nil, err)
}

// handleAnchor handles GET /api/v1/anchors/{ga}
func (s *Server) handleAnchor(w http.ResponseWriter, r *http.Request) {
	ga := pathKey(r, "ga")
	anchor, err := s.reader.GetAnchor(r.Context(), ga)
	s.respond(w, "anchor", ga, anchor, anchor == nil, err)
}

// handleGateway handles GET /api/v1/gateways/{ga}
func (s *Server) handleGateway(w http.ResponseWriter, r *http.Request) {
	ga := pathKey(r, "ga")
	gw, err := s.reader.GetGateway(r.Context(), ga)
	s.respond(w, "gateway", ga, gw, gw == nil, err)
}

// handleRequest handles GET /api/v1/requests/{hash}
func (s *Server) handleRequest(w http.ResponseWriter, r *http.Request) {
	hash := pathKey(r, "hash")
	req, err := s.reader.GetRequest(r.Context(), hash)
	s.respond(w, "request", hash, req, req == nil, err)
}

// handleTransaction handles GET /api/v1/transactions/{id}
func (s *Server) handleTransaction(w http.ResponseWriter, r *http.Request) {
	raw := mux.Vars(r)["id"]
	id, err := cast.ToUint64E(raw)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: fmt.Sprintf("invalid transaction id %s", raw)})
		return
	}
	tx, err := s.reader.GetTransaction(r.Context(), id)
	s.respond(w, "transaction", raw, tx, tx == nil, err)
}

// pathKey returns a path variable lower-cased; stored addresses and hashes
// are lower-case hex.
func pathKey(r *http.Request, name string) string {
	return strings.ToLower(mux.Vars(r)[name])
}

func (s *Server) respond(w http.ResponseWriter, kind, key string, data interface{}, missing bool, err error) {
	if err != nil {
		s.logger.Error().Err(err).Str("kind", kind).Str("key", key).Msg("lookup failed")
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
		return
	}
	if missing {
		writeJSON(w, http.StatusNotFound, ErrorResponse{Error: fmt.Sprintf("%s not found for %s", kind, key)})
		return
	}
	writeJSON(w, http.StatusOK, QueryResponse{Data: data, FetchedAt: time.Now().UTC()})
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

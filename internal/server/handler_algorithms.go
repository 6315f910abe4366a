package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

func (s *Server) handleListAlgorithms(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())

	algos, err := s.schemas.ListAlgorithms(r.Context())
	if err != nil {
		s.logger.Warn("list algorithms failed", "error", err)
		respondBackendError(w, reqID, "", err)
		return
	}
	respondOK(w, reqID, algos)
}

func (s *Server) handleGetAlgorithm(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())
	name := chi.URLParam(r, "name")

	def, err := s.schemas.GetAlgorithm(r.Context(), name)
	if err != nil {
		respondBackendError(w, reqID, name, err)
		return
	}
	respondOK(w, reqID, def)
}

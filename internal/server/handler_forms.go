package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/me/schedlab/internal/form"
	"github.com/me/schedlab/pkg/model"
)

// toFormView converts a snapshot into its JSON representation.
func toFormView(snap form.Snapshot) model.FormView {
	return model.FormView{
		ID:        snap.ID,
		Algorithm: snap.Algorithm(),
		State:     snap.State,
		Values:    snap.Values,
		Errors:    snap.Errors,
		LastError: snap.LastError,
		Result:    snap.Result,
	}
}

// submitResponse is returned by POST /forms/{id}/submit.
type submitResponse struct {
	Run     *model.Run     `json:"run"`
	Message string         `json:"message,omitempty"`
	Form    model.FormView `json:"form"`
}

// lookupForm resolves {id} or writes a 404.
func (s *Server) lookupForm(w http.ResponseWriter, r *http.Request) (*form.Store, bool) {
	id := chi.URLParam(r, "id")
	st, ok := s.forms.Get(id)
	if !ok {
		respondError(w, RequestIDFromContext(r.Context()), http.StatusNotFound, model.NewNotFoundError("form", id))
		return nil, false
	}
	return st, true
}

// loadInto fetches the named definition and resets st onto it.
func (s *Server) loadInto(w http.ResponseWriter, r *http.Request, st *form.Store, name string) bool {
	reqID := RequestIDFromContext(r.Context())
	def, err := s.schemas.GetAlgorithm(r.Context(), name)
	if err != nil {
		respondBackendError(w, reqID, name, err)
		return false
	}
	if err := st.Load(def); err != nil {
		respondFormError(w, reqID, "", err)
		return false
	}
	return true
}

func (s *Server) handleCreateForm(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())

	var req struct {
		Algorithm string         `json:"algorithm"`
		Values    map[string]any `json:"values"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		respondBadJSON(w, reqID, err)
		return
	}
	if req.Algorithm == "" && len(req.Values) > 0 {
		respondError(w, reqID, http.StatusBadRequest,
			model.NewValidationError("missing required field",
				model.FieldError{Field: "algorithm", Message: "algorithm is required when values are given"}))
		return
	}

	st := s.forms.Create()
	if req.Algorithm != "" {
		if !s.loadInto(w, r, st, req.Algorithm) {
			s.forms.Delete(st.ID())
			return
		}
		if err := st.SetValues(req.Values); err != nil {
			s.forms.Delete(st.ID())
			respondFormError(w, reqID, "", err)
			return
		}
	}

	s.logger.Info("form created", "form_id", st.ID(), "algorithm", req.Algorithm)
	respondCreated(w, reqID, toFormView(st.Snapshot()))
}

func (s *Server) handleGetForm(w http.ResponseWriter, r *http.Request) {
	st, ok := s.lookupForm(w, r)
	if !ok {
		return
	}
	respondOK(w, RequestIDFromContext(r.Context()), toFormView(st.Snapshot()))
}

func (s *Server) handleDeleteForm(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())
	id := chi.URLParam(r, "id")
	if !s.forms.Delete(id) {
		respondError(w, reqID, http.StatusNotFound, model.NewNotFoundError("form", id))
		return
	}
	respondOK(w, reqID, map[string]string{"id": id, "status": "deleted"})
}

func (s *Server) handleLoadAlgorithm(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())
	st, ok := s.lookupForm(w, r)
	if !ok {
		return
	}

	var req struct {
		Algorithm string `json:"algorithm"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondBadJSON(w, reqID, err)
		return
	}
	if req.Algorithm == "" {
		respondError(w, reqID, http.StatusBadRequest,
			model.NewValidationError("missing required field",
				model.FieldError{Field: "algorithm", Message: "algorithm is required"}))
		return
	}
	if !s.loadInto(w, r, st, req.Algorithm) {
		return
	}
	respondOK(w, reqID, toFormView(st.Snapshot()))
}

func (s *Server) handleSetValues(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())
	st, ok := s.lookupForm(w, r)
	if !ok {
		return
	}

	var req struct {
		Values map[string]any `json:"values"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondBadJSON(w, reqID, err)
		return
	}
	if err := st.SetValues(req.Values); err != nil {
		respondFormError(w, reqID, "", err)
		return
	}
	respondOK(w, reqID, toFormView(st.Snapshot()))
}

func (s *Server) handleSetValue(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())
	st, ok := s.lookupForm(w, r)
	if !ok {
		return
	}
	name := chi.URLParam(r, "name")

	var req struct {
		Value any `json:"value"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondBadJSON(w, reqID, err)
		return
	}
	if err := st.Set(name, req.Value); err != nil {
		respondFormError(w, reqID, name, err)
		return
	}
	respondOK(w, reqID, toFormView(st.Snapshot()))
}

func (s *Server) handleSetCell(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())
	st, ok := s.lookupForm(w, r)
	if !ok {
		return
	}
	name := chi.URLParam(r, "name")

	var req struct {
		Row   *int `json:"row"`
		Col   *int `json:"col"`
		Value any  `json:"value"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondBadJSON(w, reqID, err)
		return
	}
	if req.Row == nil || req.Col == nil {
		respondError(w, reqID, http.StatusBadRequest,
			model.NewValidationError("missing required field",
				model.FieldError{Field: name, Message: "row and col are required"}))
		return
	}
	if err := st.SetCell(name, *req.Row, *req.Col, req.Value); err != nil {
		respondFormError(w, reqID, name, err)
		return
	}
	respondOK(w, reqID, toFormView(st.Snapshot()))
}

func (s *Server) handleSubmitForm(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())
	st, ok := s.lookupForm(w, r)
	if !ok {
		return
	}

	out, err := s.submitter.Submit(r.Context(), st)
	if err != nil {
		var verr *form.ValidationError
		if errors.As(err, &verr) || errors.Is(err, form.ErrNotLoaded) || errors.Is(err, form.ErrSubmissionInFlight) {
			respondFormError(w, reqID, "", err)
			return
		}
		respondInternal(w, reqID, err)
		return
	}
	respondOK(w, reqID, submitResponse{
		Run:     out.Run,
		Message: out.Message,
		Form:    toFormView(st.Snapshot()),
	})
}

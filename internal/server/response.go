package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/me/schedlab/internal/backend"
	"github.com/me/schedlab/internal/form"
	"github.com/me/schedlab/pkg/model"
)

// requestID generates a unique request identifier.
func requestID() string {
	return "req_" + uuid.New().String()[:8]
}

// respondOK writes a success response with the standard envelope.
func respondOK(w http.ResponseWriter, reqID string, data any) {
	respondJSON(w, http.StatusOK, reqID, data, nil, nil)
}

// respondCreated writes a 201 response with the standard envelope.
func respondCreated(w http.ResponseWriter, reqID string, data any) {
	respondJSON(w, http.StatusCreated, reqID, data, nil, nil)
}

// respondList writes a success response with pagination.
func respondList(w http.ResponseWriter, reqID string, data any, pg *model.Pagination) {
	respondJSON(w, http.StatusOK, reqID, data, pg, nil)
}

// respondError writes an error response with the standard envelope.
func respondError(w http.ResponseWriter, reqID string, status int, apiErr *model.APIError) {
	respondJSON(w, status, reqID, nil, nil, apiErr)
}

func respondJSON(w http.ResponseWriter, status int, reqID string, data any, pg *model.Pagination, apiErr *model.APIError) {
	resp := model.Response{
		RequestID:  reqID,
		Timestamp:  time.Now().UTC(),
		Data:       data,
		Pagination: pg,
		Error:      apiErr,
	}
	if apiErr != nil {
		resp.Status = "error"
	} else {
		resp.Status = "ok"
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(resp)
}

// respondInternal writes a 500 response.
func respondInternal(w http.ResponseWriter, reqID string, err error) {
	respondError(w, reqID, http.StatusInternalServerError,
		&model.APIError{Code: model.ErrInternal, Message: err.Error()})
}

// respondBadJSON writes a 400 response for an undecodable request body.
func respondBadJSON(w http.ResponseWriter, reqID string, err error) {
	respondError(w, reqID, http.StatusBadRequest, &model.APIError{
		Code:    model.ErrValidation,
		Message: "Invalid JSON body: " + err.Error(),
	})
}

// respondBackendError maps schema provider failures onto API errors.
func respondBackendError(w http.ResponseWriter, reqID, name string, err error) {
	if errors.Is(err, backend.ErrAlgorithmNotFound) {
		respondError(w, reqID, http.StatusNotFound, model.NewNotFoundError("algorithm", name))
		return
	}
	respondError(w, reqID, http.StatusBadGateway,
		&model.APIError{Code: model.ErrUpstream, Message: backend.UserMessage(err)})
}

// respondFormError maps form store errors onto API errors.
func respondFormError(w http.ResponseWriter, reqID, field string, err error) {
	var verr *form.ValidationError
	var serr *form.SchemaError
	switch {
	case errors.As(err, &verr):
		respondError(w, reqID, http.StatusUnprocessableEntity,
			model.NewValidationError("form has errors", verr.Fields...))
	case errors.As(err, &serr):
		respondError(w, reqID, http.StatusBadGateway,
			&model.APIError{Code: model.ErrUpstream, Message: serr.Error()})
	case errors.Is(err, form.ErrUnknownField):
		respondError(w, reqID, http.StatusNotFound, model.NewNotFoundError("field", field))
	case errors.Is(err, form.ErrNotLoaded),
		errors.Is(err, form.ErrNotEditable),
		errors.Is(err, form.ErrSubmissionInFlight):
		respondError(w, reqID, http.StatusConflict,
			&model.APIError{Code: model.ErrConflict, Message: err.Error()})
	default:
		respondError(w, reqID, http.StatusBadRequest,
			model.NewValidationError(err.Error(), model.FieldError{Field: field, Message: err.Error()}))
	}
}

package server

import "net/http"

type endpointInfo struct {
	Path        string   `json:"path"`
	Methods     []string `json:"methods"`
	Description string   `json:"description"`
}

type discoveryResponse struct {
	Name        string         `json:"name"`
	Version     string         `json:"version"`
	Description string         `json:"description"`
	Endpoints   []endpointInfo `json:"endpoints"`
}

func (s *Server) handleDiscovery(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())
	respondOK(w, reqID, discoveryResponse{
		Name:        "schedlab API",
		Version:     "v1",
		Description: "Schema-driven forms for scheduling algorithms",
		Endpoints: []endpointInfo{
			{"/api/v1/algorithms", []string{"GET"}, "List available algorithms"},
			{"/api/v1/algorithms/{name}", []string{"GET"}, "Algorithm definition with parameter schema"},
			{"/api/v1/forms", []string{"POST"}, "Create a form, optionally loading an algorithm and values"},
			{"/api/v1/forms/{id}", []string{"GET", "DELETE"}, "Form state, values and validation errors"},
			{"/api/v1/forms/{id}/algorithm", []string{"PUT"}, "Load another algorithm, resetting all values"},
			{"/api/v1/forms/{id}/values", []string{"PUT"}, "Set several values at once"},
			{"/api/v1/forms/{id}/values/{name}", []string{"PUT"}, "Set one value; dependent matrices are reshaped"},
			{"/api/v1/forms/{id}/cells/{name}", []string{"PUT"}, "Set one matrix cell"},
			{"/api/v1/forms/{id}/submit", []string{"POST"}, "Run the algorithm with the current values"},
			{"/api/v1/runs", []string{"GET"}, "Run history"},
			{"/api/v1/runs/{id}", []string{"GET"}, "Single run with inputs and result"},
			{"/api/v1/health", []string{"GET"}, "Server health and version"},
		},
	})
}

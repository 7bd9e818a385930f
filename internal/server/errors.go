package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/ppiankov/gbdrill/internal/hierarchy"
	"github.com/ppiankov/gbdrill/internal/query"
)

// errorResponse is the JSON body of every failed request
type errorResponse struct {
	Error       string `json:"error"`
	Description string `json:"error_description,omitempty"`
}

// classify maps an error to a status code and a public error code.
// Internal errors carry no description.
func classify(err error) (int, errorResponse) {
	switch {
	case errors.Is(err, query.ErrInvalidParameter):
		return http.StatusBadRequest, errorResponse{Error: "bad_request", Description: err.Error()}
	case errors.Is(err, hierarchy.ErrNotFound):
		return http.StatusNotFound, errorResponse{Error: "not_found", Description: err.Error()}
	default:
		return http.StatusInternalServerError, errorResponse{Error: "internal_error"}
	}
}

func writeJSON(w http.ResponseWriter, status int, body []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

func writeError(w http.ResponseWriter, status int, resp errorResponse) {
	body, _ := json.Marshal(resp)
	writeJSON(w, status, body)
}

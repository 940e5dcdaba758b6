package utils

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/EmpoweredVote/news-portal/internal/apperr"
)

// Result is the envelope admin write endpoints answer with.
type Result struct {
	Success     bool              `json:"success"`
	RedirectURL string            `json:"redirect_url,omitempty"`
	ID          int64             `json:"id,omitempty"`
	Error       string            `json:"error,omitempty"`
	Fields      map[string]string `json:"fields,omitempty"`
}

func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("[http] encode response: %v", err)
	}
}

// FieldErrors is implemented by validation errors that know which form
// fields were rejected.
type FieldErrors interface {
	FieldErrors() map[string]string
}

// WriteError maps err to a status code and a failed Result. Storage details
// are logged, not sent to the client.
func WriteError(w http.ResponseWriter, err error) {
	status := apperr.HTTPStatus(err)
	res := Result{Success: false, Error: apperr.Message(err)}

	var fe FieldErrors
	if errors.As(err, &fe) {
		res.Fields = fe.FieldErrors()
	}
	if status >= http.StatusInternalServerError {
		log.Printf("[http] %v", err)
	}
	WriteJSON(w, status, res)
}

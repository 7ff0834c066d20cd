package handlers

import (
	"encoding/json"
	"log"
	"net/http"

	"elitetransport-backend/internal/apperr"
)

// writeJSON encodes v as the response body with the given status.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("handlers: failed to encode response: %v", err)
	}
}

// writeError translates err into the status/message its apperr.Kind maps to
// and writes it as a JSON error body.
func writeError(w http.ResponseWriter, err error) {
	status, message := apperr.StatusAndMessage(err)
	writeJSON(w, status, map[string]string{"error": message})
}

// decodeJSON decodes the request body into v, returning an apperr.InputInvalid
// on malformed JSON.
func decodeJSON(r *http.Request, v interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return apperr.Wrap(apperr.InputInvalid, "invalid JSON payload", err)
	}
	return nil
}

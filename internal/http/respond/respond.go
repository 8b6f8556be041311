package respond

import (
	"encoding/json"
	"log"
	"net/http"
)

// AuthEnvelope is the response wrapper used by the register and login
// endpoints. The status flag and field-error map mirror what API clients
// already parse.
type AuthEnvelope struct {
	Status  bool                `json:"status"`
	Message string              `json:"message"`
	Errors  map[string][]string `json:"errors,omitempty"`
	Token   string              `json:"token,omitempty"`
}

// Auth writes an auth-flavored response.
func Auth(w http.ResponseWriter, status int, envelope AuthEnvelope) {
	JSON(w, status, envelope)
}

// Message writes a bare {"message": ...} body, the shape every expense
// endpoint and error path uses.
func Message(w http.ResponseWriter, status int, message string) {
	JSON(w, status, map[string]string{"message": message})
}

// Invalid writes a 422 with a field-error map for rejected expense payloads.
func Invalid(w http.ResponseWriter, errs map[string][]string) {
	JSON(w, http.StatusUnprocessableEntity, map[string]any{
		"message": "The given data was invalid.",
		"errors":  errs,
	})
}

// JSON writes an arbitrary payload with the given status code.
func JSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("respond: encode payload failed: %v", err)
	}
}

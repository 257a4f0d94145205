package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/halaqah-app/halaqah/internal/validation"
)

const maxBodyBytes = 1 << 20

// envelope is the response body of every mutating endpoint.
type envelope struct {
	Success bool              `json:"success"`
	Message string            `json:"message,omitempty"`
	Fields  map[string]string `json:"fields,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("encode response", "error", err)
	}
}

func writeMessage(w http.ResponseWriter, r *http.Request, status int, ok bool, key string, args ...any) {
	writeJSON(w, status, envelope{Success: ok, Message: localize(r, key, args...)})
}

// writeDenied is the auth rejection body: {"error": "<localized>"}.
func writeDenied(w http.ResponseWriter, r *http.Request, status int, _ error) {
	key := msgUnauthorized
	if status == http.StatusForbidden {
		key = msgForbidden
	}
	writeJSON(w, status, map[string]string{"error": localize(r, key)})
}

// writeValidation reports a 400 with per-field details.
func writeValidation(w http.ResponseWriter, r *http.Request, err error) {
	var ve *validation.Error
	env := envelope{Message: localize(r, msgInvalidRequest)}
	if errors.As(err, &ve) {
		env.Fields = ve.Fields
	}
	writeJSON(w, http.StatusBadRequest, env)
}

// internalError logs the real error and returns a generic message to the client.
func internalError(w http.ResponseWriter, r *http.Request, err error) {
	slog.Error("internal_error", "method", r.Method, "path", r.URL.Path, "error", err)
	writeMessage(w, r, http.StatusInternalServerError, false, msgInternal)
}

// strictDecode decodes a JSON body into v, rejecting unknown fields and trailing data.
func strictDecode(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return validation.Field("body", fmt.Sprintf("malformed JSON: %v", err))
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return validation.Field("body", "unexpected data after JSON object")
	}
	return nil
}

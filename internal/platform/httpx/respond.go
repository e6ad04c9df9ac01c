// Package httpx writes the uniform JSON envelope used by every API route.
package httpx

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

const maxBodyBytes = 1 << 20

// Response is the success envelope.
type Response struct {
	Data      any       `json:"data"`
	Success   bool      `json:"success"`
	Message   string    `json:"message,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// ErrorBody describes a failure.
type ErrorBody struct {
	Message string         `json:"message"`
	Code    string         `json:"code"`
	Details map[string]any `json:"details,omitempty"`
}

// ErrorResponse is the failure envelope.
type ErrorResponse struct {
	Error     ErrorBody `json:"error"`
	Success   bool      `json:"success"`
	Timestamp time.Time `json:"timestamp"`
}

var now = func() time.Time { return time.Now().UTC() }

// JSON sends a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// Success wraps data in the success envelope.
func Success(w http.ResponseWriter, status int, data any, message string) {
	JSON(w, status, Response{
		Data:      data,
		Success:   true,
		Message:   message,
		Timestamp: now(),
	})
}

// Error sends the failure envelope.
func Error(w http.ResponseWriter, status int, code, message string, details map[string]any) {
	JSON(w, status, ErrorResponse{
		Error:     ErrorBody{Message: message, Code: code, Details: details},
		Success:   false,
		Timestamp: now(),
	})
}

// DecodeJSON decodes the request body into target. Trailing data is
// rejected.
func DecodeJSON(r *http.Request, target any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(target); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: corps de requête vide", ErrBadRequest)
		}
		return fmt.Errorf("%w: JSON invalide: %v", ErrBadRequest, err)
	}
	if dec.More() {
		return fmt.Errorf("%w: JSON invalide: données en trop", ErrBadRequest)
	}
	return nil
}

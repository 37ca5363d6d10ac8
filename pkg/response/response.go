// Package response writes the JSON envelope every backend endpoint uses.
// The api client on the other side decodes the same shape.
package response

import (
	"encoding/json"
	"net/http"
)

type envelope struct {
	Status  int         `json:"status"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

func write(w http.ResponseWriter, status int, body envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body) //nolint:errcheck
}

// Success sends a 200 JSON response with data.
func Success(w http.ResponseWriter, data interface{}) {
	write(w, http.StatusOK, envelope{Status: http.StatusOK, Data: data})
}

// Created sends a 201 JSON response with data.
func Created(w http.ResponseWriter, data interface{}) {
	write(w, http.StatusCreated, envelope{Status: http.StatusCreated, Data: data})
}

// NoContent sends an empty 204.
func NoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

// Error sends a JSON error response.
func Error(w http.ResponseWriter, status int, message string) {
	write(w, status, envelope{Status: status, Message: message})
}

// Unauthorized sends a 401.
func Unauthorized(w http.ResponseWriter) {
	Error(w, http.StatusUnauthorized, "Unauthorized")
}

// NotFound sends a 404.
func NotFound(w http.ResponseWriter) {
	Error(w, http.StatusNotFound, "Not found")
}

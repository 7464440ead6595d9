package web

import (
	"encoding/json"
	"net/http"
)

type messageResponse struct {
	Message string `json:"message"`
	Details []any  `json:"details,omitempty"`
}

type errorResponse struct {
	Message string `json:"message"`
	Error   string `json:"error"`
	Kind    string `json:"kind,omitempty"`
	Details []any  `json:"details,omitempty"`
}

func Message(w http.ResponseWriter, status int, message string, details ...any) {
	JSON(w, status, messageResponse{
		Message: message,
		Details: details,
	})
}

func Error(w http.ResponseWriter, status int, message string, err error, details ...any) {
	JSON(w, status, errorResponse{
		Message: message,
		Error:   err.Error(),
		Details: details,
	})
}

func JSON(w http.ResponseWriter, status int, body any) {
	data, err := json.Marshal(body)
	if err != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"message":"could not marshal response"}`))

		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

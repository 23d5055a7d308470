package fakeapi

import (
	"encoding/json"
	"net/http"
)

// apiError is an error response in the shape the ordering API sends.
type apiError struct {
	Description string
	StatusCode  int
}

func (e *apiError) Error() string {
	return e.Description
}

func (e *apiError) send(w http.ResponseWriter) {
	sendJSON(w, e.StatusCode, map[string]string{"error": e.Description})
}

func errApplication() *apiError {
	return &apiError{Description: "internal error", StatusCode: http.StatusInternalServerError}
}

func errUnauthorized(desc ...string) *apiError {
	s := "unauthorized"
	if len(desc) > 0 {
		s = desc[0]
	}
	return &apiError{Description: s, StatusCode: http.StatusUnauthorized}
}

func errInvalidRequest(desc string) *apiError {
	return &apiError{Description: desc, StatusCode: http.StatusBadRequest}
}

// sendJSON writes msg with statusCode. A []byte msg is sent as is when it is valid JSON.
func sendJSON(w http.ResponseWriter, statusCode int, msg any) {
	var body []byte
	if b, ok := msg.([]byte); ok && json.Valid(b) {
		body = b
	} else {
		var err error
		if body, err = json.Marshal(msg); err != nil {
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte("unable to marshal response"))
			return
		}
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	w.Write(body)
}

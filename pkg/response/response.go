package response

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
)

// ErrorBody is the JSON shape of every error response.
type ErrorBody struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
	Stack   string `json:"stack,omitempty"`
}

func JSON(w http.ResponseWriter, code int, payload interface{}) {
	body, err := json.Marshal(payload)
	if err != nil {
		log.Printf("response: marshal failed: %v", err)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":"Internal server error"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(body)
}

func Error(w http.ResponseWriter, code int, message string) {
	JSON(w, code, ErrorBody{Error: message})
}

// Internal writes a 500 with the cause. Outside production the body also carries
// the stack recorded by github.com/pkg/errors, when the error has one.
func Internal(w http.ResponseWriter, message string, err error, production bool) {
	body := ErrorBody{Error: message}
	if err != nil {
		body.Details = err.Error()
		if !production {
			if stack := fmt.Sprintf("%+v", err); stack != body.Details {
				body.Stack = stack
			}
		}
	}
	JSON(w, http.StatusInternalServerError, body)
}

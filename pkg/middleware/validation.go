// pkg/middleware/validation.go

package middleware

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/Deehands24/laymen-terms/pkg/response"
)

const maxBodySize = 1 << 20

// ValidateRequest rejects non-JSON or empty bodies on POST/PUT and caps the body size.
func ValidateRequest(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost || r.Method == http.MethodPut {
			contentType := r.Header.Get("Content-Type")
			if contentType != "" && !strings.Contains(contentType, "application/json") {
				response.Error(w, http.StatusBadRequest, "Invalid Content-Type, expected application/json")
				return
			}

			if r.ContentLength == 0 {
				response.Error(w, http.StatusBadRequest, "Request body cannot be empty")
				return
			}
		}

		r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)

		next.ServeHTTP(w, r)
	})
}

// HandleValidationError turns validator errors into a 400 naming the first bad field.
func HandleValidationError(w http.ResponseWriter, err error) {
	log.Printf("Validation error: %v", err)

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		response.JSON(w, http.StatusBadRequest, response.ErrorBody{
			Error:   "Invalid request",
			Details: fmt.Sprintf("field %s failed on %s", fe.Field(), fe.Tag()),
		})
		return
	}

	response.JSON(w, http.StatusBadRequest, response.ErrorBody{Error: "Invalid request", Details: err.Error()})
}

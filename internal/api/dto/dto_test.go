package dto

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAuthRequestValidation(t *testing.T) {
	tests := []struct {
		name    string
		req     AuthRequest
		wantErr bool
	}{
		{"login ok", AuthRequest{Action: "login", Username: "alice", Password: "secret1"}, false},
		{"register ok", AuthRequest{Action: "register", Username: "bob", Password: "secret1"}, false},
		{"unknown action", AuthRequest{Action: "delete", Username: "alice", Password: "secret1"}, true},
		{"short username", AuthRequest{Action: "login", Username: "al", Password: "secret1"}, true},
		{"short password", AuthRequest{Action: "login", Username: "alice", Password: "123"}, true},
		{"long password", AuthRequest{Action: "login", Username: "alice", Password: strings.Repeat("x", 73)}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate.Struct(tt.req)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestTranslateRequestValidation(t *testing.T) {
	assert.NoError(t, Validate.Struct(TranslateRequest{UserID: 1, MedicalText: "Hypertension"}))
	assert.Error(t, Validate.Struct(TranslateRequest{UserID: 0, MedicalText: "Hypertension"}))
	assert.Error(t, Validate.Struct(TranslateRequest{UserID: 1}))
}

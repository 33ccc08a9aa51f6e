package dto

import "github.com/go-playground/validator/v10"

const (
	ActionLogin    = "login"
	ActionRegister = "register"
)

type AuthRequest struct {
	Action   string `json:"action" validate:"required,oneof=login register"`
	Username string `json:"username" validate:"required,min=3,max=64"`
	Password string `json:"password" validate:"required,min=6,max=72"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refreshToken" validate:"required"`
}

type TranslateRequest struct {
	UserID      int64  `json:"userId" validate:"required,gt=0"`
	MedicalText string `json:"medicalText" validate:"required,max=20000"`
	Model       string `json:"model,omitempty"`
}

type CheckoutRequest struct {
	PlanID int64 `json:"planId" validate:"required,gt=0"`
	UserID int64 `json:"userId" validate:"required,gt=0"`
}

var Validate = validator.New()

package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/Deehands24/laymen-terms/internal/api/dto"
	"github.com/Deehands24/laymen-terms/internal/token"
	"github.com/Deehands24/laymen-terms/internal/user/service"
	"github.com/Deehands24/laymen-terms/pkg/logger"
	"github.com/Deehands24/laymen-terms/pkg/middleware"
	"github.com/Deehands24/laymen-terms/pkg/response"
)

type Handler struct {
	UserService *service.UserService
	Production  bool
	Log         *slog.Logger
}

func NewHandler(us *service.UserService, production bool, log *slog.Logger) *Handler {
	if log == nil {
		log = logger.Discard()
	}
	return &Handler{UserService: us, Production: production, Log: log}
}

// Auth serves both login and registration, selected by the action field.
func (h *Handler) Auth(w http.ResponseWriter, r *http.Request) {
	var req dto.AuthRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if req.Action != dto.ActionLogin && req.Action != dto.ActionRegister {
		response.Error(w, http.StatusBadRequest, "Invalid action")
		return
	}
	if err := dto.Validate.Struct(req); err != nil {
		middleware.HandleValidationError(w, err)
		return
	}

	if req.Action == dto.ActionRegister {
		h.register(w, r, req)
		return
	}
	h.login(w, r, req)
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request, req dto.AuthRequest) {
	u, err := h.UserService.Register(r.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrUserExists) {
			response.Error(w, http.StatusConflict, "Username already exists")
			return
		}
		h.Log.Error("register failed", "username", req.Username, "error", err)
		response.Internal(w, "Registration failed", err, h.Production)
		return
	}

	response.JSON(w, http.StatusCreated, map[string]interface{}{
		"success": true,
		"data":    map[string]interface{}{"userId": u.ID, "username": u.Username},
	})
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request, req dto.AuthRequest) {
	sess, err := h.UserService.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCreds) {
			response.Error(w, http.StatusUnauthorized, "Invalid username or password")
			return
		}
		h.Log.Error("login failed", "username", req.Username, "error", err)
		response.Internal(w, "Login failed", err, h.Production)
		return
	}

	response.JSON(w, http.StatusOK, map[string]interface{}{"success": true, "data": sess})
}

func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req dto.RefreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if err := dto.Validate.Struct(req); err != nil {
		middleware.HandleValidationError(w, err)
		return
	}

	sess, err := h.UserService.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		if errors.Is(err, token.ErrInvalidToken) || errors.Is(err, token.ErrExpiredToken) {
			response.Error(w, http.StatusUnauthorized, "Invalid or expired refresh token")
			return
		}
		response.Internal(w, "Token refresh failed", err, h.Production)
		return
	}

	response.JSON(w, http.StatusOK, map[string]interface{}{"success": true, "data": sess})
}

// Me requires JWTAuth.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		response.Error(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	u, err := h.UserService.GetByID(r.Context(), userID)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			response.Error(w, http.StatusNotFound, "User not found")
			return
		}
		response.Internal(w, "Failed to load user", err, h.Production)
		return
	}

	response.JSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    map[string]interface{}{"userId": u.ID, "username": u.Username},
	})
}

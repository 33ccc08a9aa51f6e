package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/Deehands24/laymen-terms/internal/api/dto"
	"github.com/Deehands24/laymen-terms/internal/quota"
	"github.com/Deehands24/laymen-terms/internal/translation/service"
	"github.com/Deehands24/laymen-terms/pkg/logger"
	"github.com/Deehands24/laymen-terms/pkg/middleware"
	"github.com/Deehands24/laymen-terms/pkg/response"
)

type Handler struct {
	TranslationService *service.Service
	Production         bool
	Log                *slog.Logger
}

func NewHandler(ts *service.Service, production bool, log *slog.Logger) *Handler {
	if log == nil {
		log = logger.Discard()
	}
	return &Handler{TranslationService: ts, Production: production, Log: log}
}

func (h *Handler) Translate(w http.ResponseWriter, r *http.Request) {
	var req dto.TranslateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if err := dto.Validate.Struct(req); err != nil {
		middleware.HandleValidationError(w, err)
		return
	}
	if !middleware.SameUser(r.Context(), req.UserID) {
		response.Error(w, http.StatusForbidden, "Token does not match userId")
		return
	}

	res, err := h.TranslationService.Translate(r.Context(), req.UserID, req.MedicalText, req.Model)
	switch {
	case err == nil:
		response.JSON(w, http.StatusOK, map[string]interface{}{"success": true, "data": res})
	case errors.Is(err, service.ErrUnknownModel):
		response.Error(w, http.StatusBadRequest, "Unsupported model")
	case errors.Is(err, service.ErrQuotaExceeded):
		response.JSON(w, http.StatusForbidden, map[string]interface{}{
			"error":        "Translation limit reached. Please upgrade your subscription.",
			"subscription": map[string]int{"remaining": 0, "limit": res.Subscription.Limit},
		})
	case errors.Is(err, quota.ErrUnavailable):
		response.Error(w, http.StatusServiceUnavailable, "Subscription service unavailable")
	default:
		h.Log.Error("translate failed", "user_id", req.UserID, "error", err)
		response.Internal(w, "Failed to process translation", err, h.Production)
	}
}

func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.ParseInt(r.URL.Query().Get("userId"), 10, 64)
	if err != nil || userID <= 0 {
		response.Error(w, http.StatusBadRequest, "Invalid or missing userId")
		return
	}
	if !middleware.SameUser(r.Context(), userID) {
		response.Error(w, http.StatusForbidden, "Token does not match userId")
		return
	}

	entries, err := h.TranslationService.History(r.Context(), userID)
	if err != nil {
		h.Log.Error("history failed", "user_id", userID, "error", err)
		response.Internal(w, "Failed to load history", err, h.Production)
		return
	}
	response.JSON(w, http.StatusOK, map[string]interface{}{"success": true, "data": entries})
}

func (h *Handler) Models(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, http.StatusOK, map[string]interface{}{"success": true, "data": h.TranslationService.Models()})
}

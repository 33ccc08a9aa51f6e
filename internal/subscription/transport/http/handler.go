package http

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/Deehands24/laymen-terms/internal/api/dto"
	"github.com/Deehands24/laymen-terms/internal/quota"
	"github.com/Deehands24/laymen-terms/internal/subscription/service"
	"github.com/Deehands24/laymen-terms/pkg/logger"
	"github.com/Deehands24/laymen-terms/pkg/middleware"
	"github.com/Deehands24/laymen-terms/pkg/response"
)

const maxWebhookBody = int64(65536)

type Handler struct {
	SubscriptionService *service.Service
	FrontendURL         string
	Production          bool
	Log                 *slog.Logger
}

func NewSubscriptionHandler(ss *service.Service, frontendURL string, production bool, log *slog.Logger) *Handler {
	if log == nil {
		log = logger.Discard()
	}
	return &Handler{SubscriptionService: ss, FrontendURL: frontendURL, Production: production, Log: log}
}

func (h *Handler) ListPlans(w http.ResponseWriter, r *http.Request) {
	plans, err := h.SubscriptionService.ListPlans(r.Context())
	if err != nil {
		h.Log.Error("list plans failed", "error", err)
		response.Internal(w, "Failed to load plans", err, h.Production)
		return
	}
	response.JSON(w, http.StatusOK, map[string]interface{}{"success": true, "data": plans})
}

// Current requires JWTAuth.
func (h *Handler) Current(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		response.Error(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	cur, err := h.SubscriptionService.GetCurrent(r.Context(), userID)
	if err != nil {
		if errors.Is(err, quota.ErrUnavailable) {
			response.Error(w, http.StatusServiceUnavailable, "Subscription service unavailable")
			return
		}
		response.Internal(w, "Failed to load subscription", err, h.Production)
		return
	}
	response.JSON(w, http.StatusOK, map[string]interface{}{"success": true, "data": cur})
}

func (h *Handler) CreateCheckoutSession(w http.ResponseWriter, r *http.Request) {
	var req dto.CheckoutRequest
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

	baseURL := r.Header.Get("Origin")
	if baseURL == "" {
		baseURL = h.FrontendURL
	}

	sess, err := h.SubscriptionService.CreateCheckout(r.Context(), req.PlanID, req.UserID, baseURL)
	switch {
	case err == nil:
		response.JSON(w, http.StatusOK, sess)
	case errors.Is(err, service.ErrPlanNotFound):
		response.Error(w, http.StatusBadRequest, "Invalid plan")
	case errors.Is(err, service.ErrFreePlan):
		response.Error(w, http.StatusBadRequest, "Free plan does not require payment")
	case errors.Is(err, service.ErrUserNotFound):
		response.Error(w, http.StatusNotFound, "User not found")
	case errors.Is(err, service.ErrBillingNotConfigured):
		response.Error(w, http.StatusInternalServerError, "Billing not configured")
	default:
		h.Log.Error("checkout session failed", "user_id", req.UserID, "plan_id", req.PlanID, "error", err)
		response.Internal(w, "Failed to create checkout session", err, h.Production)
	}
}

func (h *Handler) StripeWebhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid payload")
		return
	}

	signature := r.Header.Get("Stripe-Signature")
	if signature == "" {
		response.Error(w, http.StatusBadRequest, "No signature")
		return
	}

	event, err := h.SubscriptionService.ConstructEvent(body, signature)
	if err != nil {
		if errors.Is(err, service.ErrWebhookNotConfigured) {
			h.Log.Error("stripe webhook secret missing")
			response.Error(w, http.StatusInternalServerError, "Webhook not configured")
			return
		}
		h.Log.Warn("stripe webhook signature failed", "error", err)
		response.Error(w, http.StatusBadRequest, "Invalid signature")
		return
	}

	if err := h.SubscriptionService.HandleEvent(r.Context(), event); err != nil {
		if errors.Is(err, service.ErrInvalidWebhookPayload) {
			response.Error(w, http.StatusBadRequest, "Invalid event payload")
			return
		}
		h.Log.Error("stripe webhook handling failed", "event_id", event.ID, "type", string(event.Type), "error", err)
		response.Error(w, http.StatusInternalServerError, "Webhook handler failed")
		return
	}

	response.JSON(w, http.StatusOK, map[string]bool{"received": true})
}

// cmd/server/main.go
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Deehands24/laymen-terms/internal/config"
	"github.com/Deehands24/laymen-terms/internal/metrics"
	"github.com/Deehands24/laymen-terms/internal/quota"
	quotaservice "github.com/Deehands24/laymen-terms/internal/quota/service"
	subscriptionservice "github.com/Deehands24/laymen-terms/internal/subscription/service"
	subscriptionhttp "github.com/Deehands24/laymen-terms/internal/subscription/transport/http"
	"github.com/Deehands24/laymen-terms/internal/translation/gateway"
	translationservice "github.com/Deehands24/laymen-terms/internal/translation/service"
	translationhttp "github.com/Deehands24/laymen-terms/internal/translation/transport/http"
	userservice "github.com/Deehands24/laymen-terms/internal/user/service"
	userhttp "github.com/Deehands24/laymen-terms/internal/user/transport/http"
	"github.com/Deehands24/laymen-terms/pkg/logger"
	"github.com/Deehands24/laymen-terms/pkg/middleware"
	"github.com/Deehands24/laymen-terms/pkg/response"
)

func main() {
	cfg := config.Load()
	logg := logger.New(cfg.Env)
	logg.Info("laymen-terms API starting", "env", cfg.Env)

	metrics.InitMetrics()

	st, err := openStores(cfg, logg)
	if err != nil {
		log.Fatalf("Storage setup failed: %v", err)
	}
	defer st.Close()
	logg.Info("storage ready", "postgres", st.Live)

	// --- services ---
	quotaSvc := quotaservice.NewService(st.Subscriptions, st.Plans, st.Translations,
		quotaservice.WithPolicy(quota.Policy(cfg.QuotaFailurePolicy)),
		quotaservice.WithLogger(logg.With("component", "quota")))

	var translator gateway.Translator = gateway.Offline{}
	if cfg.InferenceAPIKey != "" {
		translator = gateway.NewOpenAI(cfg.InferenceAPIKey, cfg.InferenceBaseURL)
	} else {
		logg.Warn("INFERENCE_API_KEY not set, translations will return partial results")
	}

	translationSvc := translationservice.NewService(st.Translations, quotaSvc, translator, translationservice.Config{
		DefaultModel:      cfg.DefaultModel,
		FallbackModel:     cfg.FallbackModel,
		Models:            cfg.Models,
		RemainingStrategy: cfg.RemainingStrategy,
		Timeout:           cfg.TranslationTimeout,
		Logger:            logg.With("component", "translation"),
	})

	userSvc := userservice.NewUserService(st.Users, st.Tokens, st.Subscriptions, cfg.JWTSecret, cfg.JWTTTL,
		logg.With("component", "user"))

	var checkout subscriptionservice.CheckoutCreator
	if cfg.StripeSecretKey != "" {
		checkout = subscriptionservice.NewStripeCheckout(cfg.StripeSecretKey)
	} else {
		logg.Warn("STRIPE_SECRET_KEY not set, checkout is disabled")
	}
	subSvc := subscriptionservice.NewService(st.Plans, st.Subscriptions, st.Users, quotaSvc, subscriptionservice.Config{
		Checkout:      checkout,
		WebhookSecret: cfg.StripeWebhookSecret,
		Logger:        logg.With("component", "billing"),
	})

	userHandler := userhttp.NewHandler(userSvc, cfg.IsProduction(), logg)
	translationHandler := translationhttp.NewHandler(translationSvc, cfg.IsProduction(), logg)
	subHandler := subscriptionhttp.NewSubscriptionHandler(subSvc, cfg.FrontendURL, cfg.IsProduction(), logg)

	// --- router ---
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.Metrics)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSAllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Stripe-Signature"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	limiter := middleware.NewRateLimiter(cfg.RateLimitPerMinute, time.Minute)

	r.Group(func(pr chi.Router) {
		pr.Use(limiter.Middleware)
		pr.Use(middleware.ValidateRequest)
		pr.Post("/auth", userHandler.Auth)
		pr.Post("/auth/refresh", userHandler.Refresh)
	})

	r.Group(func(pr chi.Router) {
		pr.Use(middleware.OptionalJWTAuth(cfg.JWTSecret))
		pr.With(limiter.Middleware, middleware.ValidateRequest).Post("/translate", translationHandler.Translate)
		pr.With(middleware.ValidateRequest).Post("/create-checkout-session", subHandler.CreateCheckoutSession)
	})

	// Anonymous history reads trust ?userId= unless HISTORY_REQUIRE_AUTH is set.
	r.With(historyAuth(cfg)).Get("/history", translationHandler.History)

	r.Group(func(pr chi.Router) {
		pr.Use(middleware.JWTAuth(cfg.JWTSecret))
		pr.Get("/auth/me", userHandler.Me)
		pr.Get("/subscription", subHandler.Current)
	})

	r.Get("/models", translationHandler.Models)
	r.Get("/plans", subHandler.ListPlans)
	r.Post("/stripe-webhook", subHandler.StripeWebhook)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		response.JSON(w, http.StatusOK, map[string]interface{}{"status": "ok", "database": st.Live})
	})

	if cfg.MetricsUsername != "" && cfg.MetricsPassword != "" {
		r.With(middleware.BasicAuth(cfg.MetricsUsername, cfg.MetricsPassword)).Handle("/metrics", promhttp.Handler())
	} else {
		r.Handle("/metrics", promhttp.Handler())
	}

	if !cfg.HistoryRequiresAuth {
		logg.Warn("/history accepts anonymous reads by userId; set HISTORY_REQUIRE_AUTH=true to require a token")
	}

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      cfg.TranslationTimeout*2 + 10*time.Second,
	}

	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
		<-sig

		logg.Info("shutdown signal received")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			logg.Error("server shutdown failed", "error", err)
		}
	}()

	logg.Info("server listening", "addr", cfg.HTTPAddr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal(err)
	}
	logg.Info("server stopped")
}

func historyAuth(cfg *config.Config) func(http.Handler) http.Handler {
	if cfg.HistoryRequiresAuth {
		return middleware.JWTAuth(cfg.JWTSecret)
	}
	return middleware.OptionalJWTAuth(cfg.JWTSecret)
}

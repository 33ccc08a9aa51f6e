package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/Deehands24/laymen-terms/internal/quota"
	translationservice "github.com/Deehands24/laymen-terms/internal/translation/service"
)

const EnvProduction = "production"

type Config struct {
	Env      string
	HTTPAddr string

	DatabaseURL      string
	MockDataFallback bool

	JWTSecret string
	JWTTTL    time.Duration

	InferenceAPIKey    string
	InferenceBaseURL   string
	DefaultModel       string
	FallbackModel      string
	Models             []string
	TranslationTimeout time.Duration

	QuotaFailurePolicy  string
	RemainingStrategy   string
	// HistoryRequiresAuth rejects anonymous /history reads instead of
	// trusting the userId query parameter.
	HistoryRequiresAuth bool

	StripeSecretKey     string
	StripeWebhookSecret string
	FrontendURL         string
	PlanCatalogPath     string

	CORSAllowedOrigins []string
	RateLimitPerMinute int

	MetricsUsername string
	MetricsPassword string
}

func (c *Config) IsProduction() bool {
	return c.Env == EnvProduction
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found")
	}

	cfg := &Config{
		Env:      getEnv("APP_ENV", "development"),
		HTTPAddr: getEnv("HTTP_ADDR", ":8080"),

		DatabaseURL:      os.Getenv("DATABASE_URL"),
		MockDataFallback: getBool("MOCK_DATA_FALLBACK", true),

		JWTSecret: os.Getenv("JWT_SECRET"),
		JWTTTL:    time.Duration(getInt("JWT_TTL_HOURS", 24)) * time.Hour,

		InferenceAPIKey:    os.Getenv("INFERENCE_API_KEY"),
		InferenceBaseURL:   getEnv("INFERENCE_BASE_URL", "https://api.groq.com/openai/v1"),
		DefaultModel:       getEnv("DEFAULT_MODEL", "llama3-70b-8192"),
		FallbackModel:      getEnv("FALLBACK_MODEL", "llama3-8b-8192"),
		Models:             getList("TRANSLATION_MODELS", []string{"llama3-70b-8192", "llama3-8b-8192", "mixtral-8x7b-32768", "gemma-7b-it"}),
		TranslationTimeout: time.Duration(getInt("TRANSLATION_TIMEOUT_SECONDS", 30)) * time.Second,

		QuotaFailurePolicy:  oneOf("QUOTA_FAILURE_POLICY", string(quota.FailOpen), string(quota.FailOpen), string(quota.FailClosed)),
		RemainingStrategy:   oneOf("REMAINING_STRATEGY", translationservice.RemainingLocal, translationservice.RemainingLocal, translationservice.RemainingStrong),
		HistoryRequiresAuth: getBool("HISTORY_REQUIRE_AUTH", false),

		StripeSecretKey:     os.Getenv("STRIPE_SECRET_KEY"),
		StripeWebhookSecret: os.Getenv("STRIPE_WEBHOOK_SECRET"),
		FrontendURL:         getEnv("FRONTEND_URL", "http://localhost:3000"),
		PlanCatalogPath:     os.Getenv("PLAN_CATALOG_PATH"),

		CORSAllowedOrigins: getList("CORS_ALLOWED_ORIGINS", []string{"*"}),
		RateLimitPerMinute: getInt("RATE_LIMIT_PER_MINUTE", 30),

		MetricsUsername: os.Getenv("METRICS_USERNAME"),
		MetricsPassword: os.Getenv("METRICS_PASSWORD"),
	}

	if cfg.JWTSecret == "" {
		if cfg.IsProduction() {
			log.Fatal("JWT_SECRET is required in production")
		}
		log.Println("Warning: JWT_SECRET not set, using an insecure development secret")
		cfg.JWTSecret = "dev-secret-change-me"
	}

	return cfg
}

func getEnv(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return def
}

func getInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("Warning: %s=%q is not an integer, using %d", key, v, def)
		return def
	}
	return n
}

func getBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		log.Printf("Warning: %s=%q is not a boolean, using %t", key, v, def)
		return def
	}
	return b
}

func getList(key string, def []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	if len(out) == 0 {
		return def
	}
	return out
}

func oneOf(key, def string, allowed ...string) string {
	v := strings.ToLower(getEnv(key, def))
	for _, a := range allowed {
		if v == a {
			return v
		}
	}
	log.Printf("Warning: %s=%q is not one of %v, using %q", key, v, allowed, def)
	return def
}

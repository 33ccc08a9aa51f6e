package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Deehands24/laymen-terms/internal/metrics"
	"github.com/Deehands24/laymen-terms/internal/quota"
	"github.com/Deehands24/laymen-terms/internal/translation"
	"github.com/Deehands24/laymen-terms/internal/translation/gateway"
	"github.com/Deehands24/laymen-terms/pkg/logger"
)

var (
	ErrQuotaExceeded = errors.New("translation limit reached")
	ErrUnknownModel  = errors.New("unknown model")
)

const (
	RemainingLocal  = "local"
	RemainingStrong = "strong"
)

type Repository interface {
	SaveSubmission(ctx context.Context, userID int64, text string) (int64, error)
	SaveLaymenTerm(ctx context.Context, submissionID int64, explanation string) (int64, error)
	History(ctx context.Context, userID int64) ([]translation.HistoryEntry, error)
}

type QuotaService interface {
	CheckLimit(ctx context.Context, userID int64) (quota.Limit, error)
	IncrementUsage(ctx context.Context, userID int64) error
}

type Config struct {
	DefaultModel  string
	FallbackModel string
	Models        []string
	// RemainingStrategy is RemainingLocal (arithmetic on the pre-request figures)
	// or RemainingStrong (re-read the store after the increment).
	RemainingStrategy string
	Timeout           time.Duration
	Logger            *slog.Logger
}

type Service struct {
	repo       Repository
	quota      QuotaService
	translator gateway.Translator
	cfg        Config
	models     map[string]bool
	log        *slog.Logger
}

func NewService(repo Repository, q QuotaService, tr gateway.Translator, cfg Config) *Service {
	if cfg.DefaultModel == "" {
		cfg.DefaultModel = gateway.DefaultModel
	}
	if cfg.FallbackModel == "" {
		cfg.FallbackModel = gateway.FallbackModel
	}
	if len(cfg.Models) == 0 {
		cfg.Models = gateway.DefaultModels
	}
	if cfg.RemainingStrategy == "" {
		cfg.RemainingStrategy = RemainingLocal
	}
	log := cfg.Logger
	if log == nil {
		log = logger.Discard()
	}

	models := make(map[string]bool, len(cfg.Models))
	for _, m := range cfg.Models {
		models[m] = true
	}
	return &Service{repo: repo, quota: q, translator: tr, cfg: cfg, models: models, log: log}
}

type Result struct {
	SubmissionID int64       `json:"submissionId"`
	LaymenTermID int64       `json:"laymenTermId"`
	Explanation  string      `json:"explanation"`
	Model        string      `json:"model"`
	Partial      bool        `json:"partial"`
	Subscription quota.Limit `json:"subscription"`
}

func (s *Service) Models() []string {
	out := make([]string, len(s.cfg.Models))
	copy(out, s.cfg.Models)
	return out
}

func (s *Service) History(ctx context.Context, userID int64) ([]translation.HistoryEntry, error) {
	return s.repo.History(ctx, userID)
}

// Translate runs one metered translation. Quota rejections return ErrQuotaExceeded
// together with the current figures. Failures after the quota check never
// surface as errors; they produce a partial result instead, except a failed
// usage increment, which returns the stored result with degraded figures.
func (s *Service) Translate(ctx context.Context, userID int64, text, model string) (*Result, error) {
	if model == "" {
		model = s.cfg.DefaultModel
	} else if !s.models[model] {
		return nil, fmt.Errorf("%w: %s", ErrUnknownModel, model)
	}

	limit, err := s.quota.CheckLimit(ctx, userID)
	if err != nil {
		metrics.TranslationsTotal.WithLabelValues("quota_unavailable").Inc()
		return nil, err
	}
	if !limit.CanTranslate {
		metrics.TranslationsTotal.WithLabelValues("quota_exceeded").Inc()
		return &Result{Subscription: limit}, ErrQuotaExceeded
	}

	res, err := s.run(ctx, userID, text, model, limit)
	if err != nil {
		s.log.Error("translation pipeline failed", "user_id", userID, "model", model, "error", err)
		metrics.TranslationsTotal.WithLabelValues("partial").Inc()
		return s.partial(ctx, text, limit), nil
	}

	metrics.TranslationsTotal.WithLabelValues("success").Inc()
	return res, nil
}

func (s *Service) run(ctx context.Context, userID int64, text, model string, limit quota.Limit) (*Result, error) {
	var (
		submissionID int64
		explanation  string
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		id, err := s.repo.SaveSubmission(gctx, userID, text)
		if err != nil {
			return err
		}
		submissionID = id
		return nil
	})
	g.Go(func() error {
		tctx, cancel := s.withTimeout(gctx)
		defer cancel()

		out, err := s.translator.Translate(tctx, text, gateway.Options{Model: model, Temperature: gateway.DefaultTemperature})
		if err != nil {
			return err
		}
		explanation = out
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var (
		termID      int64
		meteringErr error
	)
	g, gctx = errgroup.WithContext(ctx)
	g.Go(func() error {
		id, err := s.repo.SaveLaymenTerm(gctx, submissionID, explanation)
		if err != nil {
			return err
		}
		termID = id
		return nil
	})
	// Metering failures keep the stored explanation and mark the figures degraded.
	g.Go(func() error {
		meteringErr = s.quota.IncrementUsage(gctx, userID)
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	res := &Result{
		SubmissionID: submissionID,
		LaymenTermID: termID,
		Explanation:  explanation,
		Model:        model,
	}
	if meteringErr != nil {
		s.log.Error("usage not recorded", "user_id", userID, "submission_id", submissionID, "error", meteringErr)
		res.Subscription = limit
		res.Subscription.Degraded = true
		return res, nil
	}
	res.Subscription = s.remaining(ctx, userID, limit)
	return res, nil
}

func (s *Service) remaining(ctx context.Context, userID int64, before quota.Limit) quota.Limit {
	local := before.AfterUse()
	if s.cfg.RemainingStrategy != RemainingStrong {
		return local
	}

	after, err := s.quota.CheckLimit(ctx, userID)
	if err != nil {
		s.log.Warn("remaining re-read failed, using local estimate", "user_id", userID, "error", err)
		return local
	}
	return after
}

// partial answers with a best-effort explanation and the pre-request figures.
func (s *Service) partial(ctx context.Context, text string, limit quota.Limit) *Result {
	res := &Result{
		SubmissionID: translation.NoID,
		LaymenTermID: translation.NoID,
		Model:        s.cfg.FallbackModel,
		Partial:      true,
		Subscription: limit,
	}

	tctx, cancel := s.withTimeout(ctx)
	defer cancel()

	out, err := s.translator.Translate(tctx, text, gateway.Options{Model: s.cfg.FallbackModel, Temperature: gateway.DefaultTemperature})
	if err != nil {
		s.log.Error("fallback translation failed", "model", s.cfg.FallbackModel, "error", err)
		res.Explanation = Placeholder(text)
		res.Model = ""
		return res
	}
	res.Explanation = out
	return res
}

// Placeholder echoes the input when no model produced an explanation.
func Placeholder(text string) string {
	return fmt.Sprintf("We couldn't process your request fully, but here's the original text: \"%s\"", text)
}

func (s *Service) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.cfg.Timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.cfg.Timeout)
}

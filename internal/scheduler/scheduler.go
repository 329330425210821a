package scheduler

import (
	"context"
	"errors"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Abolude524-collab/iSchkul-sub000/internal/clock"
	"github.com/Abolude524-collab/iSchkul-sub000/internal/config"
	obsmetrics "github.com/Abolude524-collab/iSchkul-sub000/internal/observability/metrics"
	"github.com/Abolude524-collab/iSchkul-sub000/internal/ratelimit"
	reconciledomain "github.com/Abolude524-collab/iSchkul-sub000/internal/reconcile/domain"
	sotwdomain "github.com/Abolude524-collab/iSchkul-sub000/internal/sotw/domain"
)

var ErrInvalidConfig = errors.New("scheduler: invalid configuration")

type Params struct {
	fx.In

	Log          *zap.Logger
	Clock        clock.Clock
	Config       config.Config
	ReconcileSvc reconciledomain.Service
	SOTWSvc      sotwdomain.Service
	Limiter      *ratelimit.AwardLimiter `optional:"true"`
	Metrics      *obsmetrics.Metrics     `optional:"true"`
}

// Scheduler drives the background sweeps: the full reconciliation pass
// and the weekly winner warm-up. Each job runs under a distributed lock
// when redis is configured, so overlapping instances do the work once.
type Scheduler struct {
	log   *zap.Logger
	clock clock.Clock
	cfg   config.SchedulerConfig

	reconcileSvc reconciledomain.Service
	sotwSvc      sotwdomain.Service
	limiter      *ratelimit.AwardLimiter
	metrics      *obsmetrics.Metrics
}

func New(p Params) (*Scheduler, error) {
	if p.Log == nil || p.Clock == nil || p.ReconcileSvc == nil || p.SOTWSvc == nil {
		return nil, ErrInvalidConfig
	}
	cfg := p.Config.Scheduler
	if cfg.RunInterval <= 0 {
		cfg.RunInterval = time.Hour
	}
	if cfg.JobTimeout <= 0 {
		cfg.JobTimeout = 10 * time.Minute
	}
	return &Scheduler{
		log:          p.Log.Named("scheduler").With(zap.String("component", "scheduler")),
		clock:        p.Clock,
		cfg:          cfg,
		reconcileSvc: p.ReconcileSvc,
		sotwSvc:      p.SOTWSvc,
		limiter:      p.Limiter,
		metrics:      p.Metrics,
	}, nil
}

func (s *Scheduler) runJob(
	parent context.Context,
	name string,
	timeout time.Duration,
	fn func(ctx context.Context) error,
) error {
	token, acquired, err := s.limiter.TryLockJob(parent, name)
	if err != nil {
		s.log.Warn("job lock unavailable, running unguarded", zap.String("job", name), zap.Error(err))
	} else if !acquired {
		s.log.Debug("job held elsewhere, skipping", zap.String("job", name))
		return nil
	}
	if token != "" {
		defer func() {
			if err := s.limiter.ReleaseJob(parent, name, token); err != nil {
				s.log.Warn("job lock release failed", zap.String("job", name), zap.Error(err))
			}
		}()
	}

	start := s.clock.Now()
	ctx, cancel := context.WithTimeout(parent, timeout)
	defer cancel()

	log := s.log.With(zap.String("job", name))
	err = fn(ctx)
	s.metrics.ObserveJobDuration(parent, name, time.Since(start))
	if err == nil {
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		log.Warn("job timed out", zap.Duration("timeout", timeout), zap.Error(err))
		return nil
	}
	log.Error("job failed", zap.Error(err))
	return err
}

func (s *Scheduler) RunOnce(parent context.Context) error {
	var err error

	err = errors.Join(err, s.runJob(parent, "reconcile_all", s.cfg.JobTimeout, s.ReconcileAllJob))
	err = errors.Join(err, s.runJob(parent, "weekly_winner", s.cfg.JobTimeout, s.WeeklyWinnerJob))

	return err
}

func (s *Scheduler) RunForever(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.RunInterval)
	defer ticker.Stop()

	for {
		if err := s.RunOnce(ctx); err != nil {
			s.log.Warn("scheduler run failed", zap.Error(err))
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// ReconcileAllJob sweeps every profile back onto its ledger total.
func (s *Scheduler) ReconcileAllJob(ctx context.Context) error {
	summary, err := s.reconcileSvc.ReconcileAll(ctx)
	if err != nil {
		return err
	}
	s.log.Info("reconcile sweep finished",
		zap.Int("scanned", summary.Scanned),
		zap.Int("corrected", summary.Corrected),
	)
	return nil
}

// WeeklyWinnerJob warms the current window's snapshot so the first
// reader after a week rollover never pays the election.
func (s *Scheduler) WeeklyWinnerJob(ctx context.Context) error {
	winner, err := s.sotwSvc.CurrentWinner(ctx)
	if err != nil {
		if errors.Is(err, sotwdomain.ErrNoWinner) {
			s.log.Info("no weekly winner: window has no activity")
			return nil
		}
		return err
	}
	s.log.Info("weekly winner snapshot warm",
		zap.String("week_start", winner.WeekStart),
		zap.String("user_id", winner.UserID),
	)
	return nil
}

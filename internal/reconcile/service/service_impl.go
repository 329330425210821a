package service

import (
	"context"
	"strings"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Abolude524-collab/iSchkul-sub000/internal/config"
	obsmetrics "github.com/Abolude524-collab/iSchkul-sub000/internal/observability/metrics"
	profiledomain "github.com/Abolude524-collab/iSchkul-sub000/internal/profile/domain"
	reconciledomain "github.com/Abolude524-collab/iSchkul-sub000/internal/reconcile/domain"
	xpdomain "github.com/Abolude524-collab/iSchkul-sub000/internal/xp/domain"
)

type ServiceParam struct {
	fx.In

	Log      *zap.Logger
	Config   config.Config
	Events   xpdomain.Repository
	Profiles profiledomain.Repository
	Metrics  *obsmetrics.Metrics `optional:"true"`
}

type Service struct {
	log       *zap.Logger
	batchSize int

	events   xpdomain.Repository
	profiles profiledomain.Repository
	metrics  *obsmetrics.Metrics
}

func NewService(p ServiceParam) reconciledomain.Service {
	batch := p.Config.Scheduler.ReconcileBatchSize
	if batch <= 0 {
		batch = 200
	}
	return &Service{
		log:       p.Log.Named("reconcile.service"),
		batchSize: batch,
		events:    p.Events,
		profiles:  p.Profiles,
		metrics:   p.Metrics,
	}
}

func (s *Service) Reconcile(ctx context.Context, userID string) (*reconciledomain.Result, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, xpdomain.ErrInvalidUser
	}
	profile, err := s.profiles.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if profile == nil {
		return nil, xpdomain.ErrUserNotFound
	}

	trueXP, err := s.events.SumByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	result := &reconciledomain.Result{
		UserID:     userID,
		WasDrifted: trueXP != profile.TotalXP,
		StoredXP:   profile.TotalXP,
		TrueXP:     trueXP,
		Level:      xpdomain.LevelForXP(trueXP),
	}
	if !result.WasDrifted {
		s.metrics.IncReconcile(ctx, false)
		return result, nil
	}

	if err := s.profiles.OverwriteTotals(ctx, userID, trueXP, result.Level); err != nil {
		return nil, err
	}
	s.metrics.IncReconcile(ctx, true)
	s.log.Info("reconciled drifted aggregate",
		zap.String("user_id", userID),
		zap.Int64("stored_xp", result.StoredXP),
		zap.Int64("true_xp", trueXP),
	)
	return result, nil
}

// ReconcileAll walks every profile in stable user_id order, batch by
// batch. Per-user failures are logged and skipped so one bad row cannot
// stall the sweep.
func (s *Service) ReconcileAll(ctx context.Context) (*reconciledomain.Summary, error) {
	summary := &reconciledomain.Summary{}
	offset := 0
	for {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		ids, err := s.profiles.ListUserIDs(ctx, offset, s.batchSize)
		if err != nil {
			return summary, err
		}
		if len(ids) == 0 {
			return summary, nil
		}
		for _, id := range ids {
			result, err := s.Reconcile(ctx, id)
			if err != nil {
				s.log.Warn("reconcile failed", zap.String("user_id", id), zap.Error(err))
				continue
			}
			summary.Scanned++
			if result.WasDrifted {
				summary.Corrected++
			}
		}
		offset += len(ids)
	}
}

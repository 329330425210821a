package service

import (
	"context"
	"strings"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Abolude524-collab/iSchkul-sub000/internal/cache"
	"github.com/Abolude524-collab/iSchkul-sub000/internal/clock"
	"github.com/Abolude524-collab/iSchkul-sub000/internal/config"
	leaderboarddomain "github.com/Abolude524-collab/iSchkul-sub000/internal/leaderboard/domain"
	profiledomain "github.com/Abolude524-collab/iSchkul-sub000/internal/profile/domain"
	xpdomain "github.com/Abolude524-collab/iSchkul-sub000/internal/xp/domain"
)

const cacheKey = "top"

type ServiceParam struct {
	fx.In

	Log      *zap.Logger
	Clock    clock.Clock
	Config   config.Config
	Profiles profiledomain.Repository
}

type Service struct {
	log   *zap.Logger
	clock clock.Clock

	defaultLimit int
	maxLimit     int

	profiles profiledomain.Repository
	top      *cache.TTLCache[*leaderboarddomain.Result]
}

func NewService(p ServiceParam) leaderboarddomain.Service {
	return &Service{
		log:          p.Log.Named("leaderboard.service"),
		clock:        p.Clock,
		defaultLimit: p.Config.Leaderboard.DefaultLimit,
		maxLimit:     p.Config.Leaderboard.MaxLimit,
		profiles:     p.Profiles,
		top:          cache.NewTTL[*leaderboarddomain.Result](p.Config.Leaderboard.CacheTTL),
	}
}

// Top serves a ranked slice of the board. The full max-limit projection
// is cached read-through and trimmed per request, so a burst of reads
// costs one aggregate query per TTL window. Staleness within the TTL is
// acceptable for a leaderboard.
func (s *Service) Top(ctx context.Context, limit int) (*leaderboarddomain.Result, error) {
	if limit <= 0 {
		limit = s.defaultLimit
	}
	if limit > s.maxLimit {
		limit = s.maxLimit
	}

	full, ok := s.top.Get(cacheKey)
	if !ok {
		profiles, err := s.profiles.Top(ctx, s.maxLimit)
		if err != nil {
			return nil, err
		}
		entries := make([]leaderboarddomain.Entry, 0, len(profiles))
		for i, p := range profiles {
			entries = append(entries, leaderboarddomain.Entry{
				Rank:          i + 1,
				UserID:        p.UserID,
				DisplayName:   p.DisplayName,
				Institution:   p.Institution,
				TotalXP:       p.TotalXP,
				Level:         p.Level,
				CurrentStreak: p.CurrentStreak,
				SOTWWinCount:  p.SOTWWinCount,
			})
		}
		full = &leaderboarddomain.Result{
			Entries:     entries,
			GeneratedAt: s.clock.Now().UTC(),
		}
		s.top.Set(cacheKey, full)
	}

	entries := full.Entries
	if len(entries) > limit {
		entries = entries[:limit]
	}
	return &leaderboarddomain.Result{
		Entries:     entries,
		GeneratedAt: full.GeneratedAt,
	}, nil
}

func (s *Service) Join(ctx context.Context, userID string) error {
	return s.setVisible(ctx, userID, true)
}

func (s *Service) Leave(ctx context.Context, userID string) error {
	return s.setVisible(ctx, userID, false)
}

func (s *Service) setVisible(ctx context.Context, userID string, visible bool) error {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return xpdomain.ErrInvalidUser
	}
	if err := s.profiles.SetLeaderboardVisible(ctx, userID, visible); err != nil {
		return err
	}
	s.top.Delete(cacheKey)
	return nil
}

package service

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	badgedomain "github.com/Abolude524-collab/iSchkul-sub000/internal/badge/domain"
	"github.com/Abolude524-collab/iSchkul-sub000/internal/cache"
	"github.com/Abolude524-collab/iSchkul-sub000/internal/clock"
	obsmetrics "github.com/Abolude524-collab/iSchkul-sub000/internal/observability/metrics"
	profiledomain "github.com/Abolude524-collab/iSchkul-sub000/internal/profile/domain"
	sotwdomain "github.com/Abolude524-collab/iSchkul-sub000/internal/sotw/domain"
	xpdomain "github.com/Abolude524-collab/iSchkul-sub000/internal/xp/domain"
)

// BadgeStreakWeekWinner marks a winner who was active all seven days of
// the winning week.
const BadgeStreakWeekWinner = "StreakWeekWinner"

const (
	fullWeekDays  = 7
	electionDepth = 25
	maxQuoteRunes = 280
	snapshotTTL   = 10 * time.Minute
)

type ServiceParam struct {
	fx.In

	Log      *zap.Logger
	Clock    clock.Clock
	GenID    *snowflake.Node
	Winners  sotwdomain.Repository
	Events   xpdomain.Repository
	Profiles profiledomain.Repository
	Badges   badgedomain.Repository
	Metrics  *obsmetrics.Metrics `optional:"true"`
}

type Service struct {
	log   *zap.Logger
	clock clock.Clock
	genID *snowflake.Node

	winners  sotwdomain.Repository
	events   xpdomain.Repository
	profiles profiledomain.Repository
	badges   badgedomain.Repository
	metrics  *obsmetrics.Metrics

	snapshots *cache.TTLCache[*sotwdomain.WeeklyWinner]
}

func NewService(p ServiceParam) sotwdomain.Service {
	return &Service{
		log:       p.Log.Named("sotw.service"),
		clock:     p.Clock,
		genID:     p.GenID,
		winners:   p.Winners,
		events:    p.Events,
		profiles:  p.Profiles,
		badges:    p.Badges,
		metrics:   p.Metrics,
		snapshots: cache.NewTTL[*sotwdomain.WeeklyWinner](snapshotTTL),
	}
}

// CurrentWinner serves the winner of the last full week, electing it
// lazily on the first call for a window. The snapshot insert is the
// arbiter under races: side effects run only on the call that won it, so
// the win counter and the full-week badge fire exactly once per window.
func (s *Service) CurrentWinner(ctx context.Context) (*sotwdomain.WeeklyWinner, error) {
	start, end := sotwdomain.LastFullWeek(s.clock.Now())
	weekStart := xpdomain.DayKeyFor(start)

	if cached, ok := s.snapshots.Get(weekStart); ok {
		return cached, nil
	}
	if existing, err := s.winners.FindByWeekStart(ctx, weekStart); err != nil {
		return nil, err
	} else if existing != nil {
		s.snapshots.Set(weekStart, existing)
		return existing, nil
	}

	winner, err := s.elect(ctx, start, end)
	if err != nil {
		return nil, err
	}

	inserted, err := s.winners.InsertIfAbsent(ctx, winner)
	if err != nil {
		return nil, err
	}
	if !inserted {
		existing, err := s.winners.FindByWeekStart(ctx, weekStart)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			s.snapshots.Set(weekStart, existing)
		}
		return existing, nil
	}

	s.applyWinSideEffects(ctx, winner, start, end)
	s.metrics.IncSOTWElection(ctx)
	s.snapshots.Set(weekStart, winner)
	return winner, nil
}

// elect picks the highest-scoring eligible student over [start, end).
// Privileged and deleted users are skipped; the grouped query already
// breaks score ties by user_id.
func (s *Service) elect(ctx context.Context, start, end time.Time) (*sotwdomain.WeeklyWinner, error) {
	scores, err := s.events.WeeklyScores(ctx, start, end, electionDepth)
	if err != nil {
		return nil, err
	}
	for _, score := range scores {
		if score.Score <= 0 {
			break
		}
		profile, err := s.profiles.Get(ctx, score.UserID)
		if err != nil {
			return nil, err
		}
		if profile == nil || profile.Privileged() {
			continue
		}
		return &sotwdomain.WeeklyWinner{
			ID:          s.genID.Generate(),
			WeekStart:   xpdomain.DayKeyFor(start),
			WeekEnd:     xpdomain.DayKeyFor(end.AddDate(0, 0, -1)),
			UserID:      profile.UserID,
			DisplayName: profile.DisplayName,
			Score:       score.Score,
			CreatedAt:   s.clock.Now().UTC(),
		}, nil
	}
	return nil, sotwdomain.ErrNoWinner
}

func (s *Service) applyWinSideEffects(ctx context.Context, winner *sotwdomain.WeeklyWinner, start, end time.Time) {
	if err := s.profiles.IncrementSOTWWins(ctx, winner.UserID); err != nil {
		s.log.Warn("win counter update failed", zap.String("user_id", winner.UserID), zap.Error(err))
	}

	activeDays, err := s.events.ActiveDayCount(ctx, winner.UserID, start, end)
	if err != nil {
		s.log.Warn("active day count failed", zap.String("user_id", winner.UserID), zap.Error(err))
		return
	}
	if activeDays < fullWeekDays {
		return
	}
	if _, err := s.badges.Award(ctx, &badgedomain.Badge{
		ID:     s.genID.Generate(),
		UserID: winner.UserID,
		Type:   badgedomain.TypeSOTW,
		Name:   BadgeStreakWeekWinner,
		Metadata: datatypes.JSONMap{
			"week_start": winner.WeekStart,
		},
	}); err != nil {
		s.log.Warn("badge award failed", zap.String("user_id", winner.UserID), zap.Error(err))
	}
}

func (s *Service) Archive(ctx context.Context, offset, limit int) ([]sotwdomain.WeeklyWinner, int64, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	return s.winners.ListArchive(ctx, offset, limit)
}

func (s *Service) SubmitQuote(ctx context.Context, userID, quote string) (*sotwdomain.WeeklyWinner, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, xpdomain.ErrInvalidUser
	}
	quote = strings.TrimSpace(quote)
	if quote == "" || utf8.RuneCountInString(quote) > maxQuoteRunes {
		return nil, sotwdomain.ErrInvalidQuote
	}

	current, err := s.CurrentWinner(ctx)
	if err != nil {
		return nil, err
	}
	if current == nil || current.UserID != userID {
		return nil, sotwdomain.ErrNotWinner
	}

	if err := s.winners.SetQuote(ctx, current.WeekStart, userID, quote); err != nil {
		return nil, err
	}
	s.snapshots.Delete(current.WeekStart)

	updated := *current
	updated.Quote = &quote
	return &updated, nil
}

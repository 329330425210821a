package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	badgedomain "github.com/Abolude524-collab/iSchkul-sub000/internal/badge/domain"
	"github.com/Abolude524-collab/iSchkul-sub000/internal/clock"
	"github.com/Abolude524-collab/iSchkul-sub000/internal/config"
	obsmetrics "github.com/Abolude524-collab/iSchkul-sub000/internal/observability/metrics"
	profiledomain "github.com/Abolude524-collab/iSchkul-sub000/internal/profile/domain"
	xpdomain "github.com/Abolude524-collab/iSchkul-sub000/internal/xp/domain"
)

type ServiceParam struct {
	fx.In

	Log      *zap.Logger
	Clock    clock.Clock
	GenID    *snowflake.Node
	Config   config.Config
	Events   xpdomain.Repository
	Profiles profiledomain.Repository
	Badges   badgedomain.Repository
	Metrics  *obsmetrics.Metrics `optional:"true"`
}

type Service struct {
	log   *zap.Logger
	clock clock.Clock
	genID *snowflake.Node

	dailyBaseCap   int64
	driftThreshold int64

	events   xpdomain.Repository
	profiles profiledomain.Repository
	badges   badgedomain.Repository
	metrics  *obsmetrics.Metrics
}

func NewService(p ServiceParam) xpdomain.Service {
	return &Service{
		log:   p.Log.Named("xp.service"),
		clock: p.Clock,
		genID: p.GenID,

		dailyBaseCap:   p.Config.XP.DailyBaseCap,
		driftThreshold: p.Config.XP.DriftThreshold,

		events:   p.Events,
		profiles: p.Profiles,
		badges:   p.Badges,
		metrics:  p.Metrics,
	}
}

// Award applies one activity to the ledger and the aggregate. The ledger
// writes come first and are the source of truth; the aggregate update is
// best-effort and any failure there is logged and left for the
// reconciler, never surfaced to the caller.
func (s *Service) Award(ctx context.Context, req xpdomain.AwardRequest) (*xpdomain.AwardResult, error) {
	userID := strings.TrimSpace(req.UserID)
	if userID == "" {
		return nil, xpdomain.ErrInvalidUser
	}
	if req.Amount != nil && *req.Amount < 0 {
		return nil, xpdomain.ErrInvalidAmount
	}

	activity, class, err := xpdomain.NormalizeActivity(req.ActivityType)
	if err != nil {
		return nil, err
	}
	if class == xpdomain.ClassSystem {
		// streak_tick / streak_bonus are written only by the streak
		// protocol below, never accepted from callers.
		return nil, xpdomain.ErrInvalidActivityType
	}

	profile, err := s.profiles.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if profile == nil {
		return nil, xpdomain.ErrUserNotFound
	}
	if profile.Privileged() {
		// Moderators and admins never accrue XP.
		return &xpdomain.AwardResult{
			GrantedAmount: 0,
			TotalXP:       profile.TotalXP,
			Level:         profile.Level,
			CurrentStreak: profile.CurrentStreak,
			Badges:        []string{},
		}, nil
	}

	now := s.clock.Now().UTC()
	day := xpdomain.DayKeyFor(now)

	granted, err := s.grantBase(ctx, userID, activity, class, req, now, day)
	if err != nil {
		return nil, err
	}

	streakXP, streak, err := s.tickStreak(ctx, profile, now, day)
	if err != nil {
		return nil, err
	}

	update := profiledomain.AwardUpdate{
		XPDelta:        granted + streakXP,
		LastActiveDate: day,
		Streak:         streak,
	}
	newTotal := profile.TotalXP + update.XPDelta
	if err := s.profiles.ApplyAward(ctx, userID, update); err != nil {
		// Ledger already holds the truth; the reconciler will converge
		// the aggregate.
		s.log.Error("aggregate update failed, leaving drift for reconciler",
			zap.String("user_id", userID),
			zap.Int64("xp_delta", update.XPDelta),
			zap.Error(err),
		)
	} else if fresh, err := s.profiles.Get(ctx, userID); err == nil && fresh != nil {
		newTotal = fresh.TotalXP
	}

	level := xpdomain.LevelForXP(newTotal)
	if level > profile.Level {
		if err := s.profiles.SetLevelIfHigher(ctx, userID, level); err != nil {
			s.log.Warn("level update failed", zap.String("user_id", userID), zap.Error(err))
		}
	}

	currentStreak := profile.CurrentStreak
	if streak != nil {
		currentStreak = *streak
	}
	newBadges := s.awardBadges(ctx, userID, newTotal, currentStreak)

	s.metrics.IncAward(ctx, string(activity), granted+streakXP)

	return &xpdomain.AwardResult{
		GrantedAmount: granted + streakXP,
		TotalXP:       newTotal,
		Level:         level,
		CurrentStreak: currentStreak,
		Badges:        newBadges,
	}, nil
}

// grantBase writes the base-XP ledger entry for the activity according
// to its gating class and returns the amount actually granted.
func (s *Service) grantBase(
	ctx context.Context,
	userID string,
	activity xpdomain.ActivityType,
	class xpdomain.ActivityClass,
	req xpdomain.AwardRequest,
	now time.Time,
	day string,
) (int64, error) {
	amount := xpdomain.BaseXP[activity]
	if req.Amount != nil {
		amount = *req.Amount
	}

	switch class {
	case xpdomain.ClassUnknown:
		// Unknown activity types earn nothing but still count as
		// activity for the streak.
		return 0, nil

	case xpdomain.ClassDailyLogin:
		key := xpdomain.DailyLoginDedupeKey(userID, day)
		event := s.newEvent(userID, activity, amount, day, &key, req.Metadata, now)
		inserted, err := s.events.InsertEventIfAbsent(ctx, event)
		if err != nil {
			return 0, err
		}
		if !inserted {
			return 0, nil
		}
		s.metrics.IncLedgerEvent(ctx, string(activity))
		return amount, nil

	case xpdomain.ClassMinor:
		spent, err := s.events.SumMinorClassForDay(ctx, userID, day)
		if err != nil {
			return 0, err
		}
		remaining := s.dailyBaseCap - spent
		if remaining <= 0 {
			s.metrics.IncCappedGrant(ctx)
			return 0, nil
		}
		if amount > remaining {
			amount = remaining
			s.metrics.IncCappedGrant(ctx)
		}
		if amount == 0 {
			return 0, nil
		}
		event := s.newEvent(userID, activity, amount, day, nil, req.Metadata, now)
		if err := s.events.InsertEvent(ctx, event); err != nil {
			return 0, err
		}
		s.metrics.IncLedgerEvent(ctx, string(activity))
		return amount, nil

	default: // ClassHighValue
		if amount == 0 {
			return 0, nil
		}
		event := s.newEvent(userID, activity, amount, day, nil, req.Metadata, now)
		if err := s.events.InsertEvent(ctx, event); err != nil {
			return 0, err
		}
		s.metrics.IncLedgerEvent(ctx, string(activity))
		return amount, nil
	}
}

// tickStreak runs the once-per-day streak protocol. The conditional
// ledger insert is the arbiter: only the call that wins it advances the
// streak counter and may pay a milestone bonus, so N racing calls
// advance the streak exactly once.
func (s *Service) tickStreak(
	ctx context.Context,
	profile *profiledomain.UserProfile,
	now time.Time,
	day string,
) (int64, *int, error) {
	key := xpdomain.StreakTickDedupeKey(profile.UserID, day)
	tick := s.newEvent(profile.UserID, xpdomain.ActivityStreakTick, xpdomain.StreakTickXP, day, &key, nil, now)
	inserted, err := s.events.InsertEventIfAbsent(ctx, tick)
	if err != nil {
		return 0, nil, err
	}
	if !inserted {
		return 0, nil, nil
	}
	s.metrics.IncLedgerEvent(ctx, string(xpdomain.ActivityStreakTick))

	yesterday := xpdomain.DayKeyFor(now.AddDate(0, 0, -1))
	streak := 1
	if profile.LastActiveDate == yesterday {
		streak = profile.CurrentStreak + 1
	}

	total := int64(xpdomain.StreakTickXP)
	if bonus, ok := xpdomain.StreakMilestoneBonuses[streak]; ok {
		bonusKey := xpdomain.StreakBonusDedupeKey(profile.UserID, bonus, day)
		event := s.newEvent(profile.UserID, xpdomain.ActivityStreakBonus, bonus, day, &bonusKey, map[string]any{
			"streak": streak,
		}, now)
		bonusInserted, err := s.events.InsertEventIfAbsent(ctx, event)
		if err != nil {
			return 0, nil, err
		}
		if bonusInserted {
			s.metrics.IncLedgerEvent(ctx, string(xpdomain.ActivityStreakBonus))
			total += bonus
		}
	}

	return total, &streak, nil
}

func (s *Service) awardBadges(ctx context.Context, userID string, totalXP int64, streak int) []string {
	awarded := []string{}
	for name, threshold := range xpdomain.XPBadgeThresholds {
		if totalXP < threshold {
			continue
		}
		ok, err := s.badges.Award(ctx, &badgedomain.Badge{
			ID:     s.genID.Generate(),
			UserID: userID,
			Type:   badgedomain.TypeXP,
			Name:   name,
			Metadata: datatypes.JSONMap{
				"threshold": threshold,
			},
		})
		if err != nil {
			s.log.Warn("badge award failed", zap.String("user_id", userID), zap.String("badge", name), zap.Error(err))
			continue
		}
		if ok {
			awarded = append(awarded, name)
		}
	}
	if streak >= xpdomain.WeekWarriorStreak {
		ok, err := s.badges.Award(ctx, &badgedomain.Badge{
			ID:     s.genID.Generate(),
			UserID: userID,
			Type:   badgedomain.TypeStreak,
			Name:   xpdomain.BadgeWeekWarrior,
			Metadata: datatypes.JSONMap{
				"streak": streak,
			},
		})
		if err != nil {
			s.log.Warn("badge award failed", zap.String("user_id", userID), zap.String("badge", xpdomain.BadgeWeekWarrior), zap.Error(err))
		} else if ok {
			awarded = append(awarded, xpdomain.BadgeWeekWarrior)
		}
	}
	return awarded
}

func (s *Service) newEvent(
	userID string,
	activity xpdomain.ActivityType,
	amount int64,
	day string,
	dedupeKey *string,
	metadata map[string]any,
	now time.Time,
) *xpdomain.XPEvent {
	return &xpdomain.XPEvent{
		ID:           s.genID.Generate(),
		UserID:       userID,
		Amount:       amount,
		ActivityType: string(activity),
		DayKey:       day,
		DedupeKey:    dedupeKey,
		Metadata:     datatypes.JSONMap(metadata),
		OccurredAt:   now,
		CreatedAt:    now,
	}
}

func (s *Service) History(ctx context.Context, req xpdomain.HistoryRequest) (*xpdomain.HistoryResult, error) {
	req.UserID = strings.TrimSpace(req.UserID)
	if req.UserID == "" {
		return nil, xpdomain.ErrInvalidUser
	}
	if req.Limit <= 0 {
		req.Limit = 20
	}
	if req.Limit > 100 {
		req.Limit = 100
	}
	if req.Offset < 0 {
		req.Offset = 0
	}
	if req.ActivityType != "" {
		activity, _, err := xpdomain.NormalizeActivity(req.ActivityType)
		if err != nil {
			return nil, err
		}
		req.ActivityType = string(activity)
	}

	profile, err := s.profiles.Get(ctx, req.UserID)
	if err != nil {
		return nil, err
	}
	if profile == nil {
		return nil, xpdomain.ErrUserNotFound
	}

	events, total, err := s.events.ListByUser(ctx, req)
	if err != nil {
		return nil, err
	}

	entries := make([]xpdomain.HistoryEntry, 0, len(events))
	for _, e := range events {
		entries = append(entries, xpdomain.HistoryEntry{
			ID:           e.ID.String(),
			Amount:       e.Amount,
			ActivityType: e.ActivityType,
			Metadata:     e.Metadata,
			Timestamp:    e.OccurredAt,
		})
	}

	go s.selfHeal(req.UserID, profile.TotalXP)

	return &xpdomain.HistoryResult{
		Entries: entries,
		Total:   total,
		HasMore: int64(req.Offset+len(entries)) < total,
		TotalXP: profile.TotalXP,
		Level:   profile.Level,
	}, nil
}

// selfHeal re-derives the ledger total and, past the drift threshold,
// overwrites the aggregate. Runs off the request path.
func (s *Service) selfHeal(userID string, storedXP int64) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	trueXP, err := s.events.SumByUser(ctx, userID)
	if err != nil {
		s.log.Warn("self-heal sum failed", zap.String("user_id", userID), zap.Error(err))
		return
	}
	drift := trueXP - storedXP
	if drift < 0 {
		drift = -drift
	}
	if drift < s.driftThreshold {
		return
	}
	level := xpdomain.LevelForXP(trueXP)
	if err := s.profiles.OverwriteTotals(ctx, userID, trueXP, level); err != nil {
		s.log.Warn("self-heal overwrite failed", zap.String("user_id", userID), zap.Error(err))
		return
	}
	s.log.Info("self-healed drifted aggregate",
		zap.String("user_id", userID),
		zap.Int64("stored_xp", storedXP),
		zap.Int64("true_xp", trueXP),
	)
}

func (s *Service) Stats(ctx context.Context, req xpdomain.StatsRequest) (*xpdomain.StatsResult, error) {
	req.UserID = strings.TrimSpace(req.UserID)
	if req.UserID == "" {
		return nil, xpdomain.ErrInvalidUser
	}

	var since time.Time
	now := s.clock.Now().UTC()
	switch req.TimeRange {
	case "", "all":
		req.TimeRange = "all"
	case "7d":
		since = now.AddDate(0, 0, -7)
	case "30d":
		since = now.AddDate(0, 0, -30)
	case "90d":
		since = now.AddDate(0, 0, -90)
	default:
		req.TimeRange = "all"
	}

	byType, err := s.events.StatsByType(ctx, req.UserID, since)
	if err != nil {
		return nil, err
	}
	byDay, err := s.events.StatsByDay(ctx, req.UserID, since)
	if err != nil {
		return nil, err
	}

	var totalXP, totalActivities int64
	for _, stat := range byType {
		totalXP += stat.TotalXP
		totalActivities += stat.Count
	}

	return &xpdomain.StatsResult{
		TimeRange:       req.TimeRange,
		TotalXP:         totalXP,
		TotalActivities: totalActivities,
		ByActivityType:  byType,
		DailyBreakdown:  byDay,
	}, nil
}

package service

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	badgedomain "github.com/Abolude524-collab/iSchkul-sub000/internal/badge/domain"
	badgerepo "github.com/Abolude524-collab/iSchkul-sub000/internal/badge/repository"
	"github.com/Abolude524-collab/iSchkul-sub000/internal/clock"
	"github.com/Abolude524-collab/iSchkul-sub000/internal/config"
	profiledomain "github.com/Abolude524-collab/iSchkul-sub000/internal/profile/domain"
	profilerepo "github.com/Abolude524-collab/iSchkul-sub000/internal/profile/repository"
	xpdomain "github.com/Abolude524-collab/iSchkul-sub000/internal/xp/domain"
	xprepo "github.com/Abolude524-collab/iSchkul-sub000/internal/xp/repository"
)

type testEnv struct {
	svc      xpdomain.Service
	db       *gorm.DB
	clock    *clock.FakeClock
	events   xpdomain.Repository
	profiles profiledomain.Repository
	badges   badgedomain.Repository
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	dsn := "file:" + strings.ReplaceAll(t.Name(), "/", "_") + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// A single connection keeps the shared in-memory database free of
	// lock contention under the concurrency tests.
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&xpdomain.XPEvent{},
		&profiledomain.UserProfile{},
		&badgedomain.Badge{},
	))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	fakeClock := clock.NewFakeClock(time.Date(2026, 3, 4, 9, 0, 0, 0, time.UTC))

	events := xprepo.Provide(db)
	profiles := profilerepo.Provide(db)
	badges := badgerepo.Provide(db)

	svc := NewService(ServiceParam{
		Log:   zap.NewNop(),
		Clock: fakeClock,
		GenID: node,
		Config: config.Config{
			XP: config.XPConfig{DailyBaseCap: 50, DriftThreshold: 30},
		},
		Events:   events,
		Profiles: profiles,
		Badges:   badges,
	})

	return &testEnv{
		svc:      svc,
		db:       db,
		clock:    fakeClock,
		events:   events,
		profiles: profiles,
		badges:   badges,
	}
}

func (e *testEnv) seedStudent(t *testing.T, userID string) {
	t.Helper()
	require.NoError(t, e.profiles.Ensure(context.Background(), &profiledomain.UserProfile{
		UserID:      userID,
		DisplayName: "Student " + userID,
		Role:        profiledomain.RoleStudent,
	}))
}

func (e *testEnv) countEvents(t *testing.T, userID, activityType string) int64 {
	t.Helper()
	var count int64
	err := e.db.Model(&xpdomain.XPEvent{}).
		Where("user_id = ? AND activity_type = ?", userID, activityType).
		Count(&count).Error
	require.NoError(t, err)
	return count
}

func (e *testEnv) profile(t *testing.T, userID string) *profiledomain.UserProfile {
	t.Helper()
	profile, err := e.profiles.Get(context.Background(), userID)
	require.NoError(t, err)
	require.NotNil(t, profile)
	return profile
}

func awardOf(activity string) xpdomain.AwardRequest {
	return xpdomain.AwardRequest{UserID: "u1", ActivityType: activity}
}

func TestAwardHighValueGrantsBaseAndStreakTick(t *testing.T) {
	env := newTestEnv(t)
	env.seedStudent(t, "u1")

	result, err := env.svc.Award(context.Background(), awardOf("quiz_completed"))
	require.NoError(t, err)

	assert.Equal(t, int64(25), result.GrantedAmount) // 20 base + 5 first activity of the day
	assert.Equal(t, int64(25), result.TotalXP)
	assert.Equal(t, 1, result.CurrentStreak)

	assert.Equal(t, int64(1), env.countEvents(t, "u1", "quiz_completed"))
	assert.Equal(t, int64(1), env.countEvents(t, "u1", "streak_tick"))
}

func TestAwardHighValueRepeatsUncapped(t *testing.T) {
	env := newTestEnv(t)
	env.seedStudent(t, "u1")

	var total int64
	for i := 0; i < 5; i++ {
		result, err := env.svc.Award(context.Background(), awardOf("quiz_completed"))
		require.NoError(t, err)
		total = result.TotalXP
	}

	assert.Equal(t, int64(5*20+5), total)
	assert.Equal(t, int64(5), env.countEvents(t, "u1", "quiz_completed"))
	assert.Equal(t, int64(1), env.countEvents(t, "u1", "streak_tick"))
}

func TestAwardDailyLoginOncePerDay(t *testing.T) {
	env := newTestEnv(t)
	env.seedStudent(t, "u1")

	first, err := env.svc.Award(context.Background(), awardOf("daily_login"))
	require.NoError(t, err)
	assert.Equal(t, int64(15), first.GrantedAmount)

	second, err := env.svc.Award(context.Background(), awardOf("daily_login"))
	require.NoError(t, err)
	assert.Equal(t, int64(0), second.GrantedAmount)
	assert.Equal(t, int64(15), second.TotalXP)

	assert.Equal(t, int64(1), env.countEvents(t, "u1", "daily_login"))

	// Next day the grant opens up again.
	env.clock.Advance(24 * time.Hour)
	third, err := env.svc.Award(context.Background(), awardOf("daily_login"))
	require.NoError(t, err)
	assert.Equal(t, int64(15), third.GrantedAmount)
	assert.Equal(t, 2, third.CurrentStreak)
}

func TestAwardLegacyAliasNormalized(t *testing.T) {
	env := newTestEnv(t)
	env.seedStudent(t, "u1")

	_, err := env.svc.Award(context.Background(), awardOf("QUIZ_COMPLETE"))
	require.NoError(t, err)

	assert.Equal(t, int64(1), env.countEvents(t, "u1", "quiz_completed"))
	assert.Equal(t, int64(0), env.countEvents(t, "u1", "QUIZ_COMPLETE"))
}

func TestAwardMinorClassClippedAtDailyCap(t *testing.T) {
	env := newTestEnv(t)
	env.seedStudent(t, "u1")
	ctx := context.Background()

	// 15 XP each; the first call also carries the 5 XP streak tick.
	granted := make([]int64, 0, 5)
	for i := 0; i < 5; i++ {
		result, err := env.svc.Award(ctx, awardOf("file_upload"))
		require.NoError(t, err)
		granted = append(granted, result.GrantedAmount)
	}

	assert.Equal(t, []int64{20, 15, 15, 5, 0}, granted)
	assert.Equal(t, int64(55), env.profile(t, "u1").TotalXP)

	// The cap is per day; tomorrow the class opens up again.
	env.clock.Advance(24 * time.Hour)
	result, err := env.svc.Award(ctx, awardOf("file_upload"))
	require.NoError(t, err)
	assert.Equal(t, int64(20), result.GrantedAmount)
}

func TestAwardUnknownTypeTicksStreakOnly(t *testing.T) {
	env := newTestEnv(t)
	env.seedStudent(t, "u1")

	result, err := env.svc.Award(context.Background(), awardOf("mystery_event"))
	require.NoError(t, err)

	assert.Equal(t, int64(5), result.GrantedAmount)
	assert.Equal(t, 1, result.CurrentStreak)
	assert.Equal(t, int64(0), env.countEvents(t, "u1", "mystery_event"))
	assert.Equal(t, int64(1), env.countEvents(t, "u1", "streak_tick"))
}

func TestAwardValidation(t *testing.T) {
	env := newTestEnv(t)
	env.seedStudent(t, "u1")
	ctx := context.Background()

	_, err := env.svc.Award(ctx, xpdomain.AwardRequest{UserID: "", ActivityType: "quiz_completed"})
	assert.ErrorIs(t, err, xpdomain.ErrInvalidUser)

	negative := int64(-5)
	_, err = env.svc.Award(ctx, xpdomain.AwardRequest{UserID: "u1", ActivityType: "quiz_completed", Amount: &negative})
	assert.ErrorIs(t, err, xpdomain.ErrInvalidAmount)

	_, err = env.svc.Award(ctx, xpdomain.AwardRequest{UserID: "u1", ActivityType: "  "})
	assert.ErrorIs(t, err, xpdomain.ErrInvalidActivityType)

	_, err = env.svc.Award(ctx, awardOf("streak_tick"))
	assert.ErrorIs(t, err, xpdomain.ErrInvalidActivityType)

	_, err = env.svc.Award(ctx, xpdomain.AwardRequest{UserID: "ghost", ActivityType: "quiz_completed"})
	assert.ErrorIs(t, err, xpdomain.ErrUserNotFound)
}

func TestAwardPrivilegedAccountsNoOp(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, env.profiles.Ensure(context.Background(), &profiledomain.UserProfile{
		UserID: "admin1",
		Role:   profiledomain.RoleAdmin,
	}))

	result, err := env.svc.Award(context.Background(), xpdomain.AwardRequest{
		UserID:       "admin1",
		ActivityType: "quiz_completed",
	})
	require.NoError(t, err)

	assert.Equal(t, int64(0), result.GrantedAmount)
	assert.Equal(t, int64(0), result.TotalXP)
	assert.Equal(t, int64(0), env.countEvents(t, "admin1", "quiz_completed"))
	assert.Equal(t, int64(0), env.countEvents(t, "admin1", "streak_tick"))
}

func TestStreakProgressionAndMilestones(t *testing.T) {
	env := newTestEnv(t)
	env.seedStudent(t, "u1")
	ctx := context.Background()

	day1, err := env.svc.Award(ctx, awardOf("daily_login"))
	require.NoError(t, err)
	assert.Equal(t, 1, day1.CurrentStreak)

	env.clock.Advance(24 * time.Hour)
	day2, err := env.svc.Award(ctx, awardOf("daily_login"))
	require.NoError(t, err)
	assert.Equal(t, 2, day2.CurrentStreak)

	// Day three pays the 10 XP milestone on top of base and tick.
	env.clock.Advance(24 * time.Hour)
	day3, err := env.svc.Award(ctx, awardOf("daily_login"))
	require.NoError(t, err)
	assert.Equal(t, 3, day3.CurrentStreak)
	assert.Equal(t, int64(25), day3.GrantedAmount)
	assert.Equal(t, int64(1), env.countEvents(t, "u1", "streak_bonus"))

	// A same-day replay cannot double-pay the milestone.
	replay, err := env.svc.Award(ctx, awardOf("quiz_completed"))
	require.NoError(t, err)
	assert.Equal(t, int64(20), replay.GrantedAmount)
	assert.Equal(t, int64(1), env.countEvents(t, "u1", "streak_bonus"))

	// Skipping a day resets the streak to one.
	env.clock.Advance(48 * time.Hour)
	reset, err := env.svc.Award(ctx, awardOf("daily_login"))
	require.NoError(t, err)
	assert.Equal(t, 1, reset.CurrentStreak)
}

func TestStreakWeekMilestoneAwardsBadge(t *testing.T) {
	env := newTestEnv(t)
	env.seedStudent(t, "u1")
	ctx := context.Background()

	var last *xpdomain.AwardResult
	for day := 0; day < 7; day++ {
		if day > 0 {
			env.clock.Advance(24 * time.Hour)
		}
		result, err := env.svc.Award(ctx, awardOf("daily_login"))
		require.NoError(t, err)
		last = result
	}

	assert.Equal(t, 7, last.CurrentStreak)
	assert.Contains(t, last.Badges, xpdomain.BadgeWeekWarrior)

	names, err := env.badges.NamesByUser(ctx, "u1")
	require.NoError(t, err)
	assert.Contains(t, names, xpdomain.BadgeWeekWarrior)

	// Day seven pays the 100 XP milestone.
	var bonuses []xpdomain.XPEvent
	require.NoError(t, env.db.Where("user_id = ? AND activity_type = ?", "u1", "streak_bonus").Find(&bonuses).Error)
	require.Len(t, bonuses, 2)
	amounts := []int64{bonuses[0].Amount, bonuses[1].Amount}
	assert.ElementsMatch(t, []int64{10, 100}, amounts)
}

func TestAwardConcurrentDailyLoginGrantsOnce(t *testing.T) {
	env := newTestEnv(t)
	env.seedStudent(t, "u1")

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := env.svc.Award(context.Background(), awardOf("daily_login"))
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(1), env.countEvents(t, "u1", "daily_login"))
	assert.Equal(t, int64(1), env.countEvents(t, "u1", "streak_tick"))

	profile := env.profile(t, "u1")
	assert.Equal(t, int64(15), profile.TotalXP)
	assert.Equal(t, 1, profile.CurrentStreak)
}

func TestAwardConcurrentHighValueAllLand(t *testing.T) {
	env := newTestEnv(t)
	env.seedStudent(t, "u1")

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := env.svc.Award(context.Background(), awardOf("quiz_completed"))
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(50), env.countEvents(t, "u1", "quiz_completed"))
	assert.Equal(t, int64(1), env.countEvents(t, "u1", "streak_tick"))
	assert.Equal(t, int64(50*20+5), env.profile(t, "u1").TotalXP)
}

func TestAwardConcurrentMinorClassNeverExceedsDailyCap(t *testing.T) {
	env := newTestEnv(t)
	env.seedStudent(t, "u1")

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := env.svc.Award(context.Background(), awardOf("group_message"))
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	// The cap bounds the minor-class day sum no matter how the 100
	// awards interleave.
	var minorSum int64
	require.NoError(t, env.db.Model(&xpdomain.XPEvent{}).
		Where("user_id = ? AND day_key = ? AND activity_type IN ?", "u1", "2026-03-04", xpdomain.MinorActivities).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&minorSum).Error)
	assert.LessOrEqual(t, minorSum, int64(50))
	assert.Equal(t, int64(1), env.countEvents(t, "u1", "streak_tick"))
}

func TestAwardBadgeThresholds(t *testing.T) {
	env := newTestEnv(t)
	env.seedStudent(t, "u1")
	ctx := context.Background()

	// Totals run 25, 45, 65, 85, 105 across five calls.
	first, err := env.svc.Award(ctx, awardOf("quiz_completed"))
	require.NoError(t, err)
	assert.NotContains(t, first.Badges, xpdomain.BadgeActiveLearner)

	second, err := env.svc.Award(ctx, awardOf("quiz_completed"))
	require.NoError(t, err)
	assert.NotContains(t, second.Badges, xpdomain.BadgeActiveLearner)

	third, err := env.svc.Award(ctx, awardOf("quiz_completed"))
	require.NoError(t, err)
	assert.Contains(t, third.Badges, xpdomain.BadgeActiveLearner)

	// Crossing 100 adds CenturyClub without re-awarding ActiveLearner.
	fourth, err := env.svc.Award(ctx, awardOf("quiz_completed"))
	require.NoError(t, err)
	assert.Empty(t, fourth.Badges)

	fifth, err := env.svc.Award(ctx, awardOf("quiz_completed"))
	require.NoError(t, err)
	assert.Contains(t, fifth.Badges, xpdomain.BadgeCenturyClub)
	assert.NotContains(t, fifth.Badges, xpdomain.BadgeActiveLearner)

	names, err := env.badges.NamesByUser(ctx, "u1")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{xpdomain.BadgeActiveLearner, xpdomain.BadgeCenturyClub}, names)
}

func TestAwardLevelDerivedFromTotal(t *testing.T) {
	env := newTestEnv(t)
	env.seedStudent(t, "u1")

	amount := int64(500)
	result, err := env.svc.Award(context.Background(), xpdomain.AwardRequest{
		UserID:       "u1",
		ActivityType: "quiz_completed",
		Amount:       &amount,
	})
	require.NoError(t, err)

	assert.Equal(t, int64(505), result.TotalXP)
	assert.Equal(t, xpdomain.LevelForXP(505), result.Level)
	assert.Equal(t, 3, result.Level)
	assert.Equal(t, 3, env.profile(t, "u1").Level)
}

func TestHistoryPaginationAndFilter(t *testing.T) {
	env := newTestEnv(t)
	env.seedStudent(t, "u1")
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := env.svc.Award(ctx, awardOf("quiz_completed"))
		require.NoError(t, err)
	}
	_, err := env.svc.Award(ctx, awardOf("daily_login"))
	require.NoError(t, err)

	page, err := env.svc.History(ctx, xpdomain.HistoryRequest{UserID: "u1", Limit: 2})
	require.NoError(t, err)
	assert.Len(t, page.Entries, 2)
	assert.True(t, page.HasMore)
	assert.Equal(t, int64(5), page.Total) // 3 quiz + 1 login + 1 tick

	filtered, err := env.svc.History(ctx, xpdomain.HistoryRequest{UserID: "u1", ActivityType: "QUIZ_COMPLETE", Limit: 10})
	require.NoError(t, err)
	assert.Len(t, filtered.Entries, 3)
	for _, entry := range filtered.Entries {
		assert.Equal(t, "quiz_completed", entry.ActivityType)
	}

	_, err = env.svc.History(ctx, xpdomain.HistoryRequest{UserID: "ghost"})
	assert.ErrorIs(t, err, xpdomain.ErrUserNotFound)
}

func TestHistorySelfHealsDriftedAggregate(t *testing.T) {
	env := newTestEnv(t)
	env.seedStudent(t, "u1")
	ctx := context.Background()

	_, err := env.svc.Award(ctx, awardOf("quiz_completed"))
	require.NoError(t, err)

	// Force the aggregate far below the ledger truth.
	require.NoError(t, env.profiles.OverwriteTotals(ctx, "u1", 0, 1))

	_, err = env.svc.History(ctx, xpdomain.HistoryRequest{UserID: "u1", Limit: 10})
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		profile, err := env.profiles.Get(context.Background(), "u1")
		return err == nil && profile != nil && profile.TotalXP == 25
	}, 2*time.Second, 10*time.Millisecond)
}

func TestStatsRollups(t *testing.T) {
	env := newTestEnv(t)
	env.seedStudent(t, "u1")
	ctx := context.Background()

	_, err := env.svc.Award(ctx, awardOf("quiz_completed"))
	require.NoError(t, err)
	env.clock.Advance(24 * time.Hour)
	_, err = env.svc.Award(ctx, awardOf("file_upload"))
	require.NoError(t, err)

	stats, err := env.svc.Stats(ctx, xpdomain.StatsRequest{UserID: "u1", TimeRange: "7d"})
	require.NoError(t, err)

	assert.Equal(t, "7d", stats.TimeRange)
	assert.Equal(t, int64(45), stats.TotalXP) // 20+5 day one, 15+5 day two
	assert.Equal(t, int64(4), stats.TotalActivities)
	assert.Len(t, stats.DailyBreakdown, 2)

	byType := map[string]int64{}
	for _, row := range stats.ByActivityType {
		byType[row.ActivityType] = row.TotalXP
	}
	assert.Equal(t, int64(20), byType["quiz_completed"])
	assert.Equal(t, int64(15), byType["file_upload"])
	assert.Equal(t, int64(10), byType["streak_tick"])
}

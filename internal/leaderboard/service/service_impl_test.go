package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Abolude524-collab/iSchkul-sub000/internal/clock"
	"github.com/Abolude524-collab/iSchkul-sub000/internal/config"
	leaderboarddomain "github.com/Abolude524-collab/iSchkul-sub000/internal/leaderboard/domain"
	profiledomain "github.com/Abolude524-collab/iSchkul-sub000/internal/profile/domain"
	profilerepo "github.com/Abolude524-collab/iSchkul-sub000/internal/profile/repository"
	xpdomain "github.com/Abolude524-collab/iSchkul-sub000/internal/xp/domain"
)

type testEnv struct {
	svc      leaderboarddomain.Service
	profiles profiledomain.Repository
}

func newTestEnv(t *testing.T, ttl time.Duration) *testEnv {
	t.Helper()

	dsn := "file:" + strings.ReplaceAll(t.Name(), "/", "_") + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(&profiledomain.UserProfile{}))

	profiles := profilerepo.Provide(db)
	svc := NewService(ServiceParam{
		Log:   zap.NewNop(),
		Clock: clock.NewSystemClock(),
		Config: config.Config{
			Leaderboard: config.LeaderboardConfig{
				CacheTTL:     ttl,
				DefaultLimit: 3,
				MaxLimit:     5,
			},
		},
		Profiles: profiles,
	})
	return &testEnv{svc: svc, profiles: profiles}
}

func (e *testEnv) seed(t *testing.T, userID string, role profiledomain.Role, totalXP int64) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, e.profiles.Ensure(ctx, &profiledomain.UserProfile{
		UserID:      userID,
		DisplayName: "User " + userID,
		Role:        role,
	}))
	require.NoError(t, e.profiles.OverwriteTotals(ctx, userID, totalXP, xpdomain.LevelForXP(totalXP)))
}

func TestTopRanksVisibleStudents(t *testing.T) {
	env := newTestEnv(t, time.Minute)
	env.seed(t, "u1", profiledomain.RoleStudent, 300)
	env.seed(t, "u2", profiledomain.RoleStudent, 500)
	env.seed(t, "u3", profiledomain.RoleStudent, 100)
	env.seed(t, "admin1", profiledomain.RoleAdmin, 9000)

	result, err := env.svc.Top(context.Background(), 10)
	require.NoError(t, err)

	require.Len(t, result.Entries, 3)
	assert.Equal(t, "u2", result.Entries[0].UserID)
	assert.Equal(t, 1, result.Entries[0].Rank)
	assert.Equal(t, "u1", result.Entries[1].UserID)
	assert.Equal(t, 2, result.Entries[1].Rank)
	assert.Equal(t, "u3", result.Entries[2].UserID)
	assert.Equal(t, 3, result.Entries[2].Rank)
}

func TestTopTieBreaksByUserID(t *testing.T) {
	env := newTestEnv(t, time.Minute)
	env.seed(t, "bbb", profiledomain.RoleStudent, 200)
	env.seed(t, "aaa", profiledomain.RoleStudent, 200)

	result, err := env.svc.Top(context.Background(), 10)
	require.NoError(t, err)

	require.Len(t, result.Entries, 2)
	assert.Equal(t, "aaa", result.Entries[0].UserID)
	assert.Equal(t, "bbb", result.Entries[1].UserID)
}

func TestTopLimitDefaultsAndClamps(t *testing.T) {
	env := newTestEnv(t, time.Minute)
	for _, id := range []string{"u1", "u2", "u3", "u4", "u5", "u6", "u7"} {
		env.seed(t, id, profiledomain.RoleStudent, 100)
	}

	byDefault, err := env.svc.Top(context.Background(), 0)
	require.NoError(t, err)
	assert.Len(t, byDefault.Entries, 3)

	clamped, err := env.svc.Top(context.Background(), 50)
	require.NoError(t, err)
	assert.Len(t, clamped.Entries, 5)
}

func TestTopServedFromCacheWithinTTL(t *testing.T) {
	env := newTestEnv(t, time.Hour)
	env.seed(t, "u1", profiledomain.RoleStudent, 100)

	first, err := env.svc.Top(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, first.Entries, 1)

	// A write after the projection was cached is not visible yet.
	env.seed(t, "u2", profiledomain.RoleStudent, 900)
	second, err := env.svc.Top(context.Background(), 10)
	require.NoError(t, err)
	assert.Len(t, second.Entries, 1)
	assert.Equal(t, first.GeneratedAt, second.GeneratedAt)
}

func TestLeaveAndJoinToggleVisibility(t *testing.T) {
	env := newTestEnv(t, time.Hour)
	env.seed(t, "u1", profiledomain.RoleStudent, 100)
	env.seed(t, "u2", profiledomain.RoleStudent, 200)
	ctx := context.Background()

	_, err := env.svc.Top(ctx, 10)
	require.NoError(t, err)

	// Leaving invalidates the cached projection immediately.
	require.NoError(t, env.svc.Leave(ctx, "u2"))
	hidden, err := env.svc.Top(ctx, 10)
	require.NoError(t, err)
	require.Len(t, hidden.Entries, 1)
	assert.Equal(t, "u1", hidden.Entries[0].UserID)

	require.NoError(t, env.svc.Join(ctx, "u2"))
	back, err := env.svc.Top(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, back.Entries, 2)

	assert.ErrorIs(t, env.svc.Leave(ctx, "ghost"), profiledomain.ErrNotFound)
	assert.ErrorIs(t, env.svc.Join(ctx, ""), xpdomain.ErrInvalidUser)
}

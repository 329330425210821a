package repository

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	profiledomain "github.com/Abolude524-collab/iSchkul-sub000/internal/profile/domain"
)

func newTestRepo(t *testing.T) profiledomain.Repository {
	t.Helper()

	dsn := "file:" + strings.ReplaceAll(t.Name(), "/", "_") + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(&profiledomain.UserProfile{}))
	return Provide(db)
}

func TestEnsureIsIdempotent(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Ensure(ctx, &profiledomain.UserProfile{UserID: "u1", DisplayName: "First"}))
	require.NoError(t, repo.ApplyAward(ctx, "u1", profiledomain.AwardUpdate{XPDelta: 40, LastActiveDate: "2026-03-04"}))

	// A replayed registration must not reset accumulated state.
	require.NoError(t, repo.Ensure(ctx, &profiledomain.UserProfile{UserID: "u1", DisplayName: "Second"}))

	profile, err := repo.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "First", profile.DisplayName)
	assert.Equal(t, int64(40), profile.TotalXP)
	assert.Equal(t, 1, profile.Level)
	assert.True(t, profile.LeaderboardVisible)
}

func TestApplyAwardIncrementsAtomically(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	require.NoError(t, repo.Ensure(ctx, &profiledomain.UserProfile{UserID: "u1"}))

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, repo.ApplyAward(context.Background(), "u1", profiledomain.AwardUpdate{
				XPDelta:        10,
				LastActiveDate: "2026-03-04",
			}))
		}()
	}
	wg.Wait()

	profile, err := repo.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(500), profile.TotalXP)
}

func TestSetLevelIfHigherNeverLowers(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	require.NoError(t, repo.Ensure(ctx, &profiledomain.UserProfile{UserID: "u1"}))

	require.NoError(t, repo.SetLevelIfHigher(ctx, "u1", 4))
	require.NoError(t, repo.SetLevelIfHigher(ctx, "u1", 2))

	profile, err := repo.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 4, profile.Level)
}

func TestSetLeaderboardVisibleUnknownUser(t *testing.T) {
	repo := newTestRepo(t)
	err := repo.SetLeaderboardVisible(context.Background(), "ghost", false)
	assert.ErrorIs(t, err, profiledomain.ErrNotFound)
}

func TestGetMissingReturnsNil(t *testing.T) {
	repo := newTestRepo(t)
	profile, err := repo.Get(context.Background(), "ghost")
	require.NoError(t, err)
	assert.Nil(t, profile)
}

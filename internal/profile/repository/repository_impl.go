package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	profiledomain "github.com/Abolude524-collab/iSchkul-sub000/internal/profile/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type repo struct {
	db *gorm.DB
}

func Provide(db *gorm.DB) profiledomain.Repository {
	return &repo{db: db}
}

func (r *repo) Ensure(ctx context.Context, profile *profiledomain.UserProfile) error {
	if profile == nil || strings.TrimSpace(profile.UserID) == "" {
		return profiledomain.ErrInvalidUser
	}
	now := time.Now().UTC()
	if profile.CreatedAt.IsZero() {
		profile.CreatedAt = now
	}
	profile.UpdatedAt = now
	if profile.Role == "" {
		profile.Role = profiledomain.RoleStudent
	}
	if profile.Level == 0 {
		profile.Level = 1
	}
	profile.LeaderboardVisible = true

	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(profile).Error
}

func (r *repo) Get(ctx context.Context, userID string) (*profiledomain.UserProfile, error) {
	var profile profiledomain.UserProfile
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		First(&profile).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &profile, nil
}

func (r *repo) ApplyAward(ctx context.Context, userID string, update profiledomain.AwardUpdate) error {
	values := map[string]any{
		"total_xp":         gorm.Expr("total_xp + ?", update.XPDelta),
		"last_active_date": update.LastActiveDate,
		"updated_at":       time.Now().UTC(),
	}
	if update.Streak != nil {
		values["current_streak"] = *update.Streak
	}
	return r.db.WithContext(ctx).
		Model(&profiledomain.UserProfile{}).
		Where("user_id = ?", userID).
		Updates(values).Error
}

func (r *repo) SetLevelIfHigher(ctx context.Context, userID string, level int) error {
	return r.db.WithContext(ctx).
		Model(&profiledomain.UserProfile{}).
		Where("user_id = ? AND level < ?", userID, level).
		Updates(map[string]any{
			"level":      level,
			"updated_at": time.Now().UTC(),
		}).Error
}

func (r *repo) OverwriteTotals(ctx context.Context, userID string, totalXP int64, level int) error {
	return r.db.WithContext(ctx).
		Model(&profiledomain.UserProfile{}).
		Where("user_id = ?", userID).
		Updates(map[string]any{
			"total_xp":   totalXP,
			"level":      level,
			"updated_at": time.Now().UTC(),
		}).Error
}

func (r *repo) IncrementSOTWWins(ctx context.Context, userID string) error {
	return r.db.WithContext(ctx).
		Model(&profiledomain.UserProfile{}).
		Where("user_id = ?", userID).
		Updates(map[string]any{
			"sotw_win_count": gorm.Expr("sotw_win_count + 1"),
			"updated_at":     time.Now().UTC(),
		}).Error
}

func (r *repo) SetLeaderboardVisible(ctx context.Context, userID string, visible bool) error {
	result := r.db.WithContext(ctx).
		Model(&profiledomain.UserProfile{}).
		Where("user_id = ?", userID).
		Updates(map[string]any{
			"leaderboard_visible": visible,
			"updated_at":          time.Now().UTC(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return profiledomain.ErrNotFound
	}
	return nil
}

func (r *repo) Top(ctx context.Context, limit int) ([]profiledomain.UserProfile, error) {
	var profiles []profiledomain.UserProfile
	err := r.db.WithContext(ctx).
		Where("role = ? AND leaderboard_visible = ?", profiledomain.RoleStudent, true).
		Order("total_xp DESC").
		Order("user_id ASC").
		Limit(limit).
		Find(&profiles).Error
	return profiles, err
}

func (r *repo) ListUserIDs(ctx context.Context, offset, limit int) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).
		Model(&profiledomain.UserProfile{}).
		Order("user_id ASC").
		Offset(offset).
		Limit(limit).
		Pluck("user_id", &ids).Error
	return ids, err
}

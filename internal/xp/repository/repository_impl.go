package repository

import (
	"context"
	"time"

	xpdomain "github.com/Abolude524-collab/iSchkul-sub000/internal/xp/domain"
	"github.com/Abolude524-collab/iSchkul-sub000/pkg/db"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type repo struct {
	db *gorm.DB
}

func Provide(conn *gorm.DB) xpdomain.Repository {
	return &repo{db: conn}
}

func (r *repo) InsertEvent(ctx context.Context, event *xpdomain.XPEvent) error {
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now().UTC()
	}
	return r.db.WithContext(ctx).Create(event).Error
}

// InsertEventIfAbsent relies on the unique index over dedupe_key: the
// losing side of a race sees RowsAffected == 0 (or a duplicate-key error
// on engines that surface it) and reports inserted=false.
func (r *repo) InsertEventIfAbsent(ctx context.Context, event *xpdomain.XPEvent) (bool, error) {
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now().UTC()
	}
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(event)
	if result.Error != nil {
		if db.IsDuplicateKeyErr(result.Error) {
			return false, nil
		}
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *repo) SumByUser(ctx context.Context, userID string) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).
		Model(&xpdomain.XPEvent{}).
		Where("user_id = ?", userID).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&total).Error
	return total, err
}

func (r *repo) SumMinorClassForDay(ctx context.Context, userID, dayKey string) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).
		Model(&xpdomain.XPEvent{}).
		Where("user_id = ? AND day_key = ? AND activity_type IN ?", userID, dayKey, xpdomain.MinorActivities).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&total).Error
	return total, err
}

func (r *repo) WeeklyScores(ctx context.Context, start, end time.Time, limit int) ([]xpdomain.WeeklyScore, error) {
	var scores []xpdomain.WeeklyScore
	err := r.db.WithContext(ctx).
		Model(&xpdomain.XPEvent{}).
		Select("user_id, COALESCE(SUM(amount), 0) AS score").
		Where("occurred_at >= ? AND occurred_at < ?", start, end).
		Group("user_id").
		Order("score DESC").
		Order("user_id ASC").
		Limit(limit).
		Scan(&scores).Error
	return scores, err
}

func (r *repo) ActiveDayCount(ctx context.Context, userID string, start, end time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&xpdomain.XPEvent{}).
		Where("user_id = ? AND occurred_at >= ? AND occurred_at < ?", userID, start, end).
		Select("COUNT(DISTINCT day_key)").
		Scan(&count).Error
	return count, err
}

func (r *repo) ListByUser(ctx context.Context, req xpdomain.HistoryRequest) ([]xpdomain.XPEvent, int64, error) {
	query := r.db.WithContext(ctx).
		Model(&xpdomain.XPEvent{}).
		Where("user_id = ?", req.UserID)
	if req.ActivityType != "" {
		query = query.Where("activity_type = ?", req.ActivityType)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var events []xpdomain.XPEvent
	err := query.
		Order("occurred_at DESC").
		Order("id DESC").
		Offset(req.Offset).
		Limit(req.Limit).
		Find(&events).Error
	return events, total, err
}

func (r *repo) StatsByType(ctx context.Context, userID string, since time.Time) ([]xpdomain.TypeStat, error) {
	var stats []xpdomain.TypeStat
	query := r.db.WithContext(ctx).
		Model(&xpdomain.XPEvent{}).
		Select("activity_type, COALESCE(SUM(amount), 0) AS total_xp, COUNT(*) AS count").
		Where("user_id = ?", userID)
	if !since.IsZero() {
		query = query.Where("occurred_at >= ?", since)
	}
	err := query.
		Group("activity_type").
		Order("total_xp DESC").
		Scan(&stats).Error
	return stats, err
}

func (r *repo) StatsByDay(ctx context.Context, userID string, since time.Time) ([]xpdomain.DayStat, error) {
	var stats []xpdomain.DayStat
	query := r.db.WithContext(ctx).
		Model(&xpdomain.XPEvent{}).
		Select("day_key, COALESCE(SUM(amount), 0) AS total_xp, COUNT(*) AS activities").
		Where("user_id = ?", userID)
	if !since.IsZero() {
		query = query.Where("occurred_at >= ?", since)
	}
	err := query.
		Group("day_key").
		Order("day_key ASC").
		Scan(&stats).Error
	return stats, err
}

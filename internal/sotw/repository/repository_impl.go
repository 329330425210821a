package repository

import (
	"context"
	"errors"
	"time"

	sotwdomain "github.com/Abolude524-collab/iSchkul-sub000/internal/sotw/domain"
	"github.com/Abolude524-collab/iSchkul-sub000/pkg/db"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type repo struct {
	db *gorm.DB
}

func Provide(conn *gorm.DB) sotwdomain.Repository {
	return &repo{db: conn}
}

func (r *repo) FindByWeekStart(ctx context.Context, weekStart string) (*sotwdomain.WeeklyWinner, error) {
	var winner sotwdomain.WeeklyWinner
	err := r.db.WithContext(ctx).
		Where("week_start = ?", weekStart).
		First(&winner).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &winner, nil
}

func (r *repo) InsertIfAbsent(ctx context.Context, winner *sotwdomain.WeeklyWinner) (bool, error) {
	if winner.CreatedAt.IsZero() {
		winner.CreatedAt = time.Now().UTC()
	}
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(winner)
	if result.Error != nil {
		if db.IsDuplicateKeyErr(result.Error) {
			return false, nil
		}
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *repo) ListArchive(ctx context.Context, offset, limit int) ([]sotwdomain.WeeklyWinner, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).
		Model(&sotwdomain.WeeklyWinner{}).
		Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var winners []sotwdomain.WeeklyWinner
	err := r.db.WithContext(ctx).
		Order("week_start DESC").
		Offset(offset).
		Limit(limit).
		Find(&winners).Error
	return winners, total, err
}

func (r *repo) SetQuote(ctx context.Context, weekStart, userID, quote string) error {
	result := r.db.WithContext(ctx).
		Model(&sotwdomain.WeeklyWinner{}).
		Where("week_start = ? AND user_id = ?", weekStart, userID).
		Update("quote", quote)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return sotwdomain.ErrNotWinner
	}
	return nil
}

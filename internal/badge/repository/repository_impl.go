package repository

import (
	"context"
	"time"

	badgedomain "github.com/Abolude524-collab/iSchkul-sub000/internal/badge/domain"
	"github.com/Abolude524-collab/iSchkul-sub000/pkg/db"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type repo struct {
	db *gorm.DB
}

func Provide(conn *gorm.DB) badgedomain.Repository {
	return &repo{db: conn}
}

func (r *repo) Award(ctx context.Context, badge *badgedomain.Badge) (bool, error) {
	if badge.AwardedAt.IsZero() {
		badge.AwardedAt = time.Now().UTC()
	}
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(badge)
	if result.Error != nil {
		if db.IsDuplicateKeyErr(result.Error) {
			return false, nil
		}
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *repo) ListByUser(ctx context.Context, userID string) ([]badgedomain.Badge, error) {
	var badges []badgedomain.Badge
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("awarded_at DESC").
		Find(&badges).Error
	return badges, err
}

func (r *repo) NamesByUser(ctx context.Context, userID string) ([]string, error) {
	var names []string
	err := r.db.WithContext(ctx).
		Model(&badgedomain.Badge{}).
		Where("user_id = ?", userID).
		Order("awarded_at ASC").
		Pluck("name", &names).Error
	return names, err
}

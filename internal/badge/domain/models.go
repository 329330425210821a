package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// BadgeType groups badges by how they are earned.
type BadgeType string

const (
	TypeXP     BadgeType = "xp"
	TypeStreak BadgeType = "streak"
	TypeSOTW   BadgeType = "sotw"
)

// Badge is a side-effect record of a threshold crossing. The unique
// (user_id, name) pair makes the badge set idempotent: re-awarding is a
// no-op, which is exactly what retries and races need.
type Badge struct {
	ID        snowflake.ID      `json:"id" gorm:"primaryKey"`
	UserID    string            `json:"user_id" gorm:"type:text;not null;uniqueIndex:ux_badges_user_name,priority:1"`
	Type      BadgeType         `json:"type" gorm:"type:text;not null"`
	Name      string            `json:"name" gorm:"type:text;not null;uniqueIndex:ux_badges_user_name,priority:2"`
	Metadata  datatypes.JSONMap `json:"metadata,omitempty"`
	AwardedAt time.Time         `json:"awarded_date" gorm:"not null"`
}

func (Badge) TableName() string { return "badges" }

// Repository is the idempotent badge set.
type Repository interface {
	// Award inserts the badge if the user does not already hold it.
	Award(ctx context.Context, badge *Badge) (awarded bool, err error)
	ListByUser(ctx context.Context, userID string) ([]Badge, error)
	NamesByUser(ctx context.Context, userID string) ([]string, error)
}

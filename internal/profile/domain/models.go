package domain

import (
	"errors"
	"time"
)

// Role mirrors the identity layer's role flag. Privileged accounts
// never earn XP and never appear on the leaderboard.
type Role string

const (
	RoleStudent   Role = "student"
	RoleModerator Role = "moderator"
	RoleAdmin     Role = "admin"
)

// UserProfile is the denormalized per-user rollup of the XP ledger: a
// read-optimized cache, mutated only through atomic increments and sets
// by the award processor and the reconciler.
type UserProfile struct {
	UserID             string    `json:"user_id" gorm:"primaryKey;type:text"`
	DisplayName        string    `json:"display_name" gorm:"type:text"`
	Institution        string    `json:"institution" gorm:"type:text"`
	Role               Role      `json:"role" gorm:"type:text;not null;default:student;index"`
	TotalXP            int64     `json:"total_xp" gorm:"not null;default:0;index"`
	Level              int       `json:"level" gorm:"not null;default:1"`
	CurrentStreak      int       `json:"current_streak" gorm:"not null;default:0"`
	LastActiveDate     string    `json:"last_active_date" gorm:"type:text"`
	SOTWWinCount       int       `json:"sotw_win_count" gorm:"column:sotw_win_count;not null;default:0"`
	LeaderboardVisible bool      `json:"leaderboard_visible" gorm:"not null;default:true"`
	CreatedAt          time.Time `json:"created_at" gorm:"not null"`
	UpdatedAt          time.Time `json:"updated_at" gorm:"not null"`
}

func (UserProfile) TableName() string { return "user_profiles" }

// Privileged reports whether the account is excluded from gamification.
func (p *UserProfile) Privileged() bool {
	return p.Role == RoleAdmin || p.Role == RoleModerator
}

var (
	ErrNotFound    = errors.New("profile_not_found")
	ErrInvalidUser = errors.New("invalid_user_id")
	ErrInvalidRole = errors.New("invalid_role")
)

// ParseRole normalizes a raw role string, defaulting to student.
func ParseRole(raw string) (Role, error) {
	switch Role(raw) {
	case RoleAdmin:
		return RoleAdmin, nil
	case RoleModerator:
		return RoleModerator, nil
	case RoleStudent, "":
		return RoleStudent, nil
	default:
		return "", ErrInvalidRole
	}
}

package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLevelForXP(t *testing.T) {
	cases := []struct {
		xp    int64
		level int
	}{
		{-10, 1},
		{0, 1},
		{50, 1},
		{99, 1},
		{100, 2},
		{399, 2},
		{400, 3},
		{505, 3},
		{900, 4},
		{10000, 11},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.level, LevelForXP(tc.xp), "xp=%d", tc.xp)
	}
}

func TestNormalizeActivity(t *testing.T) {
	cases := []struct {
		raw   string
		want  ActivityType
		class ActivityClass
	}{
		{"quiz_completed", ActivityQuizCompleted, ClassHighValue},
		{"QUIZ_COMPLETE", ActivityQuizCompleted, ClassHighValue},
		{"APP_ENTRY", ActivityDailyLogin, ClassDailyLogin},
		{"flashcard_reviewed", ActivityFlashcardCompleted, ClassHighValue},
		{"COMMUNITY_PARTICIPATION", ActivityGroupMessage, ClassMinor},
		{"DOCUMENT_UPLOAD", ActivityFileUpload, ClassMinor},
		{"File_Upload", ActivityFileUpload, ClassMinor},
		{"DAILY_STREAK", ActivityStreakTick, ClassSystem},
	}
	for _, tc := range cases {
		got, class, err := NormalizeActivity(tc.raw)
		assert.NoError(t, err, tc.raw)
		assert.Equal(t, tc.want, got, tc.raw)
		assert.Equal(t, tc.class, class, tc.raw)
	}
}

func TestNormalizeActivityUnknownPreserved(t *testing.T) {
	got, class, err := NormalizeActivity("pet_the_mascot")
	assert.NoError(t, err)
	assert.Equal(t, ActivityType("pet_the_mascot"), got)
	assert.Equal(t, ClassUnknown, class)
}

func TestNormalizeActivityEmptyRejected(t *testing.T) {
	_, _, err := NormalizeActivity("   ")
	assert.ErrorIs(t, err, ErrInvalidActivityType)
}

func TestDayKeyBucketsInUTC(t *testing.T) {
	late := time.Date(2026, 3, 4, 23, 30, 0, 0, time.FixedZone("UTC+2", 2*3600))
	assert.Equal(t, "2026-03-04", DayKeyFor(late))

	utc := time.Date(2026, 3, 4, 21, 30, 0, 0, time.UTC)
	assert.Equal(t, DayKeyFor(utc), DayKeyFor(late))
}

func TestDedupeKeyShapes(t *testing.T) {
	assert.Equal(t, "u1:daily_login:2026-03-04", DailyLoginDedupeKey("u1", "2026-03-04"))
	assert.Equal(t, "u1:streak_tick:2026-03-04", StreakTickDedupeKey("u1", "2026-03-04"))
	assert.Equal(t, "u1:streak_bonus:100:2026-03-04", StreakBonusDedupeKey("u1", 100, "2026-03-04"))
}

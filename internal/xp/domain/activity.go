package domain

import "strings"

// ActivityType is the canonical activity enum. Call sites historically
// used a mix of casings ('QUIZ_COMPLETE', 'quiz_completed'); everything
// is normalized here at the boundary and only canonical values reach
// the ledger.
type ActivityType string

const (
	ActivityDailyLogin         ActivityType = "daily_login"
	ActivityQuizCompleted      ActivityType = "quiz_completed"
	ActivityFlashcardCompleted ActivityType = "flashcard_completed"
	ActivityNoteSummary        ActivityType = "note_summary"
	ActivityGroupMessage       ActivityType = "group_message"
	ActivityFileUpload         ActivityType = "file_upload"
	ActivityAITutorUsage       ActivityType = "ai_tutor_usage"

	// System types written only by the streak sub-protocol.
	ActivityStreakTick  ActivityType = "streak_tick"
	ActivityStreakBonus ActivityType = "streak_bonus"
)

// ActivityClass decides how an award is gated.
type ActivityClass string

const (
	// ClassDailyLogin grants at most once per calendar day.
	ClassDailyLogin ActivityClass = "daily_login"
	// ClassHighValue grants in full on every call, uncapped.
	ClassHighValue ActivityClass = "high_value"
	// ClassMinor is clipped to the remaining daily base cap.
	ClassMinor ActivityClass = "minor"
	// ClassSystem covers internal streak events.
	ClassSystem ActivityClass = "system"
	// ClassUnknown earns no base XP but still ticks the streak.
	ClassUnknown ActivityClass = "unknown"
)

// BaseXP is the default grant per canonical activity.
var BaseXP = map[ActivityType]int64{
	ActivityDailyLogin:         10,
	ActivityQuizCompleted:      20,
	ActivityFlashcardCompleted: 5,
	ActivityNoteSummary:        5,
	ActivityGroupMessage:       2,
	ActivityFileUpload:         15,
	ActivityAITutorUsage:       5,
}

var classes = map[ActivityType]ActivityClass{
	ActivityDailyLogin:         ClassDailyLogin,
	ActivityQuizCompleted:      ClassHighValue,
	ActivityFlashcardCompleted: ClassHighValue,
	ActivityNoteSummary:        ClassMinor,
	ActivityGroupMessage:       ClassMinor,
	ActivityFileUpload:         ClassMinor,
	ActivityAITutorUsage:       ClassMinor,
	ActivityStreakTick:         ClassSystem,
	ActivityStreakBonus:        ClassSystem,
}

// legacyAliases maps every activity string observed in older call sites
// to its canonical type.
var legacyAliases = map[string]ActivityType{
	"DAILY_LOGIN":             ActivityDailyLogin,
	"APP_ENTRY":               ActivityDailyLogin,
	"QUIZ_COMPLETE":           ActivityQuizCompleted,
	"FLASHCARD_COMPLETE":      ActivityFlashcardCompleted,
	"flashcard_reviewed":      ActivityFlashcardCompleted,
	"NOTE_SUMMARY":            ActivityNoteSummary,
	"COMMUNITY_PARTICIPATION": ActivityGroupMessage,
	"DOCUMENT_UPLOAD":         ActivityFileUpload,
	"AI_TUTOR_USAGE":          ActivityAITutorUsage,
	"DAILY_STREAK":            ActivityStreakTick,
	"STREAK_BONUS":            ActivityStreakBonus,
}

// MinorActivities enumerates the cap-bounded class, used when summing a
// user's already-granted XP for the day.
var MinorActivities = []ActivityType{
	ActivityNoteSummary,
	ActivityGroupMessage,
	ActivityFileUpload,
	ActivityAITutorUsage,
}

// NormalizeActivity resolves a raw activity string to its canonical
// type. Unknown non-empty strings are preserved verbatim with
// ClassUnknown: they earn no base XP but still count as activity for
// the streak protocol.
func NormalizeActivity(raw string) (ActivityType, ActivityClass, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", ClassUnknown, ErrInvalidActivityType
	}
	if canonical, ok := legacyAliases[trimmed]; ok {
		return canonical, classes[canonical], nil
	}
	at := ActivityType(strings.ToLower(trimmed))
	if class, ok := classes[at]; ok {
		return at, class, nil
	}
	return ActivityType(trimmed), ClassUnknown, nil
}

// Class returns the gating class of a canonical activity type.
func (a ActivityType) Class() ActivityClass {
	if class, ok := classes[a]; ok {
		return class
	}
	return ClassUnknown
}

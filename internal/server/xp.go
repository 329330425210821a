package server

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	xpdomain "github.com/Abolude524-collab/iSchkul-sub000/internal/xp/domain"
)

type awardRequest struct {
	ActivityType string         `json:"activity_type"`
	Amount       *int64         `json:"amount,omitempty"`
	Metadata     map[string]any `json:"metadata,omitempty"`
}

// HandleAward is the single write entry point for XP. Feature services
// call it after their own action has already succeeded.
func (s *Server) HandleAward(c *gin.Context) {
	var req awardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, newValidationError("body", "invalid_json", "request body must be valid JSON"))
		return
	}

	result, err := s.xpSvc.Award(c.Request.Context(), xpdomain.AwardRequest{
		UserID:       currentUserID(c),
		ActivityType: req.ActivityType,
		Amount:       req.Amount,
		Metadata:     req.Metadata,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// HandleEnter records the daily app entry: a daily-login award, which
// also ticks the streak.
func (s *Server) HandleEnter(c *gin.Context) {
	result, err := s.xpSvc.Award(c.Request.Context(), xpdomain.AwardRequest{
		UserID:       currentUserID(c),
		ActivityType: string(xpdomain.ActivityDailyLogin),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (s *Server) HandleHistory(c *gin.Context) {
	result, err := s.xpSvc.History(c.Request.Context(), xpdomain.HistoryRequest{
		UserID:       currentUserID(c),
		ActivityType: c.Query("activity_type"),
		Limit:        intQuery(c, "limit", 0),
		Offset:       intQuery(c, "offset", 0),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (s *Server) HandleStats(c *gin.Context) {
	result, err := s.xpSvc.Stats(c.Request.Context(), xpdomain.StatsRequest{
		UserID:    currentUserID(c),
		TimeRange: c.DefaultQuery("range", "all"),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// HandleActivityCatalog lists the canonical activity types and their
// base grants so clients never hardcode them.
func (s *Server) HandleActivityCatalog(c *gin.Context) {
	type activityInfo struct {
		ActivityType string `json:"activity_type"`
		BaseXP       int64  `json:"base_xp"`
		Class        string `json:"class"`
	}
	catalog := make([]activityInfo, 0, len(xpdomain.BaseXP))
	for _, at := range []xpdomain.ActivityType{
		xpdomain.ActivityDailyLogin,
		xpdomain.ActivityQuizCompleted,
		xpdomain.ActivityFlashcardCompleted,
		xpdomain.ActivityNoteSummary,
		xpdomain.ActivityGroupMessage,
		xpdomain.ActivityFileUpload,
		xpdomain.ActivityAITutorUsage,
	} {
		catalog = append(catalog, activityInfo{
			ActivityType: string(at),
			BaseXP:       xpdomain.BaseXP[at],
			Class:        string(at.Class()),
		})
	}
	c.JSON(http.StatusOK, gin.H{
		"activities":     catalog,
		"daily_base_cap": s.cfg.XP.DailyBaseCap,
	})
}

// HandleMyBadges lists the caller's earned badges.
func (s *Server) HandleMyBadges(c *gin.Context) {
	badges, err := s.badges.ListByUser(c.Request.Context(), currentUserID(c))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"badges": badges})
}

// HandleMyProfile returns the caller's aggregate view plus badges.
func (s *Server) HandleMyProfile(c *gin.Context) {
	userID := currentUserID(c)
	profile, err := s.profiles.Get(c.Request.Context(), userID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	if profile == nil {
		AbortWithError(c, xpdomain.ErrUserNotFound)
		return
	}
	badges, err := s.badges.ListByUser(c.Request.Context(), userID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"profile": profile,
		"badges":  badges,
	})
}

func intQuery(c *gin.Context, key string, def int) int {
	raw := c.Query(key)
	if raw == "" {
		return def
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return parsed
}

package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (s *Server) HandleLeaderboard(c *gin.Context) {
	result, err := s.leaderboardSvc.Top(c.Request.Context(), intQuery(c, "limit", 0))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (s *Server) HandleLeaderboardJoin(c *gin.Context) {
	if err := s.leaderboardSvc.Join(c.Request.Context(), currentUserID(c)); err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"leaderboard_visible": true})
}

func (s *Server) HandleLeaderboardLeave(c *gin.Context) {
	if err := s.leaderboardSvc.Leave(c.Request.Context(), currentUserID(c)); err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"leaderboard_visible": false})
}

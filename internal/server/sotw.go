package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (s *Server) HandleSOTWCurrent(c *gin.Context) {
	winner, err := s.sotwSvc.CurrentWinner(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, winner)
}

func (s *Server) HandleSOTWArchive(c *gin.Context) {
	winners, total, err := s.sotwSvc.Archive(c.Request.Context(), intQuery(c, "offset", 0), intQuery(c, "limit", 0))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"winners": winners,
		"total":   total,
	})
}

type quoteRequest struct {
	Quote string `json:"quote"`
}

func (s *Server) HandleSOTWQuote(c *gin.Context) {
	var req quoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, newValidationError("body", "invalid_json", "request body must be valid JSON"))
		return
	}
	winner, err := s.sotwSvc.SubmitQuote(c.Request.Context(), currentUserID(c), req.Quote)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, winner)
}

package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	profiledomain "github.com/Abolude524-collab/iSchkul-sub000/internal/profile/domain"
)

type registerProfileRequest struct {
	UserID      string `json:"user_id"`
	DisplayName string `json:"display_name"`
	Institution string `json:"institution,omitempty"`
	Role        string `json:"role,omitempty"`
}

// HandleRegisterProfile is the registration hook: the platform calls it
// when a user account is created so the aggregate row exists before the
// first award. Idempotent on replays.
func (s *Server) HandleRegisterProfile(c *gin.Context) {
	var req registerProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, newValidationError("body", "invalid_json", "request body must be valid JSON"))
		return
	}
	req.UserID = strings.TrimSpace(req.UserID)
	if req.UserID == "" {
		AbortWithError(c, profiledomain.ErrInvalidUser)
		return
	}

	role := profiledomain.RoleStudent
	if req.Role != "" {
		parsed, err := profiledomain.ParseRole(req.Role)
		if err != nil {
			AbortWithError(c, err)
			return
		}
		role = parsed
	}

	profile := &profiledomain.UserProfile{
		UserID:      req.UserID,
		DisplayName: strings.TrimSpace(req.DisplayName),
		Institution: strings.TrimSpace(req.Institution),
		Role:        role,
	}
	if err := s.profiles.Ensure(c.Request.Context(), profile); err != nil {
		AbortWithError(c, err)
		return
	}

	stored, err := s.profiles.Get(c.Request.Context(), req.UserID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, stored)
}

func (s *Server) HandleReconcileUser(c *gin.Context) {
	result, err := s.reconcileSvc.Reconcile(c.Request.Context(), c.Param("user_id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (s *Server) HandleReconcileAll(c *gin.Context) {
	summary, err := s.reconcileSvc.ReconcileAll(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

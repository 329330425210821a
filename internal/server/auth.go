package server

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	obscontext "github.com/Abolude524-collab/iSchkul-sub000/internal/observability/context"
)

const (
	ctxKeyUserID = "auth.user_id"
	ctxKeyRole   = "auth.role"
)

type authClaims struct {
	Role string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// authMiddleware authenticates the platform's HS256 bearer tokens. The
// subject claim is the platform user id; the optional role claim is
// only a routing hint, authorization decisions re-read the profile.
// With no secret configured (local development), identity comes from
// the X-User-ID / X-User-Role headers instead.
func (s *Server) authMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.cfg.AuthJWTSecret == "" {
			userID := strings.TrimSpace(c.GetHeader("X-User-ID"))
			if userID == "" {
				AbortWithError(c, ErrUnauthorized)
				return
			}
			s.setIdentity(c, userID, strings.TrimSpace(c.GetHeader("X-User-Role")))
			c.Next()
			return
		}

		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(token) == "" {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		claims := &authClaims{}
		parsed, err := jwt.ParseWithClaims(strings.TrimSpace(token), claims, func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, ErrUnauthorized
			}
			return []byte(s.cfg.AuthJWTSecret), nil
		})
		if err != nil || !parsed.Valid || claims.Subject == "" {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		s.setIdentity(c, claims.Subject, claims.Role)
		c.Next()
	}
}

func (s *Server) setIdentity(c *gin.Context, userID, role string) {
	c.Set(ctxKeyUserID, userID)
	c.Set(ctxKeyRole, role)
	c.Request = c.Request.WithContext(obscontext.WithUserID(c.Request.Context(), userID))
}

func currentUserID(c *gin.Context) string {
	return c.GetString(ctxKeyUserID)
}

// requirePrivileged gates admin routes on the stored profile role, not
// the token claim.
func (s *Server) requirePrivileged() gin.HandlerFunc {
	return func(c *gin.Context) {
		profile, err := s.profiles.Get(c.Request.Context(), currentUserID(c))
		if err != nil {
			AbortWithError(c, err)
			return
		}
		if profile == nil || !profile.Privileged() {
			AbortWithError(c, ErrForbidden)
			return
		}
		c.Set(ctxKeyRole, string(profile.Role))
		c.Next()
	}
}

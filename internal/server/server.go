package server

import (
	"context"
	"net/http"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"

	"github.com/Abolude524-collab/iSchkul-sub000/internal/badge"
	badgedomain "github.com/Abolude524-collab/iSchkul-sub000/internal/badge/domain"
	"github.com/Abolude524-collab/iSchkul-sub000/internal/config"
	"github.com/Abolude524-collab/iSchkul-sub000/internal/leaderboard"
	leaderboarddomain "github.com/Abolude524-collab/iSchkul-sub000/internal/leaderboard/domain"
	"github.com/Abolude524-collab/iSchkul-sub000/internal/observability"
	obsmiddleware "github.com/Abolude524-collab/iSchkul-sub000/internal/observability/logger"
	obsmetrics "github.com/Abolude524-collab/iSchkul-sub000/internal/observability/metrics"
	obstracing "github.com/Abolude524-collab/iSchkul-sub000/internal/observability/tracing"
	"github.com/Abolude524-collab/iSchkul-sub000/internal/profile"
	profiledomain "github.com/Abolude524-collab/iSchkul-sub000/internal/profile/domain"
	"github.com/Abolude524-collab/iSchkul-sub000/internal/ratelimit"
	"github.com/Abolude524-collab/iSchkul-sub000/internal/reconcile"
	reconciledomain "github.com/Abolude524-collab/iSchkul-sub000/internal/reconcile/domain"
	"github.com/Abolude524-collab/iSchkul-sub000/internal/sotw"
	sotwdomain "github.com/Abolude524-collab/iSchkul-sub000/internal/sotw/domain"
	"github.com/Abolude524-collab/iSchkul-sub000/internal/xp"
	xpdomain "github.com/Abolude524-collab/iSchkul-sub000/internal/xp/domain"
)

var Module = fx.Module("http.server",
	xp.Module,
	profile.Module,
	badge.Module,
	reconcile.Module,
	sotw.Module,
	leaderboard.Module,
	ratelimit.Module,
	fx.Provide(registerGin),
	fx.Provide(NewServer),
	fx.Invoke(registerRoutes),
	fx.Invoke(run),
)

func NewEngine(obsCfg observability.Config) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obsmiddleware.GinMiddleware(obsmiddleware.MiddlewareConfig{
		Debug:           obsCfg.Debug(),
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(obstracing.GinMiddleware())
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(obsCfg observability.Config) *gin.Engine {
	return NewEngine(obsCfg)
}

type Server struct {
	engine *gin.Engine
	cfg    config.Config
	genID  *snowflake.Node

	xpSvc          xpdomain.Service
	profiles       profiledomain.Repository
	badges         badgedomain.Repository
	reconcileSvc   reconciledomain.Service
	sotwSvc        sotwdomain.Service
	leaderboardSvc leaderboarddomain.Service
	limiter        *ratelimit.AwardLimiter
	metrics        *obsmetrics.Metrics
}

type ServerParams struct {
	fx.In

	Gin            *gin.Engine
	Cfg            config.Config
	GenID          *snowflake.Node
	XPSvc          xpdomain.Service
	Profiles       profiledomain.Repository
	Badges         badgedomain.Repository
	ReconcileSvc   reconciledomain.Service
	SOTWSvc        sotwdomain.Service
	LeaderboardSvc leaderboarddomain.Service
	Limiter        *ratelimit.AwardLimiter `optional:"true"`
	Metrics        *obsmetrics.Metrics     `optional:"true"`
}

func NewServer(p ServerParams) *Server {
	return &Server{
		engine:         p.Gin,
		cfg:            p.Cfg,
		genID:          p.GenID,
		xpSvc:          p.XPSvc,
		profiles:       p.Profiles,
		badges:         p.Badges,
		reconcileSvc:   p.ReconcileSvc,
		sotwSvc:        p.SOTWSvc,
		leaderboardSvc: p.LeaderboardSvc,
		limiter:        p.Limiter,
		metrics:        p.Metrics,
	}
}

func registerRoutes(s *Server) {
	s.RegisterAPIRoutes()
	s.RegisterAdminRoutes()
}

// RegisterAPIRoutes mounts the authenticated student-facing surface.
func (s *Server) RegisterAPIRoutes() {
	v1 := s.engine.Group("/v1", s.authMiddleware())

	xpGroup := v1.Group("/xp")
	xpGroup.POST("/award", s.awardRateLimit(), s.HandleAward)
	xpGroup.POST("/enter", s.awardRateLimit(), s.HandleEnter)
	xpGroup.GET("/history", s.HandleHistory)
	xpGroup.GET("/stats", s.HandleStats)
	xpGroup.GET("/activities", s.HandleActivityCatalog)

	v1.GET("/profiles/me", s.HandleMyProfile)
	v1.GET("/badges", s.HandleMyBadges)
	// Route kept for clients written against the pre-v1 mobile API.
	v1.GET("/awards", s.HandleHistory)

	lb := v1.Group("/leaderboard")
	lb.GET("", s.HandleLeaderboard)
	lb.POST("/join", s.HandleLeaderboardJoin)
	lb.POST("/leave", s.HandleLeaderboardLeave)

	sotwGroup := v1.Group("/sotw")
	sotwGroup.GET("/current", s.HandleSOTWCurrent)
	sotwGroup.GET("/archive", s.HandleSOTWArchive)
	sotwGroup.POST("/quote", s.HandleSOTWQuote)
}

// RegisterAdminRoutes mounts the privileged operations surface.
func (s *Server) RegisterAdminRoutes() {
	admin := s.engine.Group("/v1/admin", s.authMiddleware(), s.requirePrivileged())
	admin.POST("/profiles", s.HandleRegisterProfile)
	admin.POST("/reconcile", s.HandleReconcileAll)
	admin.POST("/reconcile/:user_id", s.HandleReconcileUser)
}

func (s *Server) awardRateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		allowed, err := s.limiter.AllowAward(c.Request.Context(), currentUserID(c))
		if err != nil {
			// Redis trouble must not take awards down with it.
			c.Next()
			return
		}
		if !allowed {
			AbortWithError(c, ErrRateLimited)
			return
		}
		c.Next()
	}
}

func run(lc fx.Lifecycle, cfg config.Config, r *gin.Engine) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					panic(err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

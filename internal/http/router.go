// Package httpapi assembles the Gin engine: cross-cutting middleware in a
// fixed order, operational endpoints (health, metrics, swagger) and the
// versioned public API. All dependencies are injected; the package holds no
// state of its own.
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"gorm.io/gorm"

	_ "github.com/skillswap/swap-backend/docs"
	"github.com/skillswap/swap-backend/internal/config"
	"github.com/skillswap/swap-backend/internal/http/handlers"
	"github.com/skillswap/swap-backend/internal/http/middleware"
	"github.com/skillswap/swap-backend/internal/notify"
	"github.com/skillswap/swap-backend/internal/repo"
	"github.com/skillswap/swap-backend/internal/services"
)

// maxBodyBytes caps request bodies across every endpoint.
const maxBodyBytes = 1 << 20

// RegisterRoutes attaches middleware and endpoints to the engine.
//
// Middleware ordering is load-bearing: tracing wraps everything, the request
// id must exist before the logger, and the logger must exist before recovery
// so panics are logged with correlation. Rate limiting runs after metrics so
// 429s are counted.
func RegisterRoutes(r *gin.Engine, db *gorm.DB, emitter *notify.Emitter, cfg config.Config) {
	r.HandleMethodNotAllowed = true

	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(limitBody(maxBodyBytes))
	r.Use(gzip.Gzip(gzip.DefaultCompression))
	r.Use(middleware.Metrics())

	rl := middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyByUserOrIP())
	r.Use(rl.Handler())

	installCORS(r, cfg.CORS.AllowedOrigins)

	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS:   cfg.Security.EnableHSTS,
		HSTSMaxAge:   cfg.Security.HSTSMaxAge,
		NoStore:      false,
		EnablePolicy: true,
	}))

	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.ErrCodeMethodNotAllowed, "method not allowed")
	})

	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	if cfg.SwaggerEnabled {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	reqSvc, sessSvc, revSvc := buildServices(db, emitter, cfg)
	h := handlers.New(reqSvc, sessSvc, revSvc, func(ctx context.Context, userID string) (int64, *time.Time, error) {
		return repo.SessionsStats(ctx, db, userID)
	})

	api := groupWithPrefix(r, cfg.APIBasePath)
	{
		api.POST("/requests", h.CreateRequest)
		api.GET("/requests", h.ListRequests)
		api.GET("/requests/:id", h.GetRequest)
		api.POST("/requests/:id/respond", h.RespondRequestHandler)
		api.POST("/requests/:id/cancel", h.CancelRequest)
		api.POST("/requests/:id/approve", h.ApproveRequest)
		api.POST("/requests/:id/schedule", h.ScheduleSession)

		api.GET("/sessions", h.ListSessions)
		api.GET("/sessions/:id", h.GetSession)
		api.PUT("/sessions/:id", h.RescheduleSession)
		api.POST("/sessions/:id/start", h.StartSession)
		api.POST("/sessions/:id/end", h.EndSession)
		api.POST("/sessions/:id/cancel", h.CancelSession)
		api.GET("/schedule", h.ScheduleOverview)

		api.POST("/sessions/:id/review", h.CreateReview)
		api.PUT("/reviews/:id", h.UpdateReview)
		api.GET("/users/:id/reviews", h.ListUserReviews)
	}
}

// buildServices constructs the service layer with the scheduling knobs from
// configuration applied.
func buildServices(db *gorm.DB, emitter *notify.Emitter, cfg config.Config) (*services.RequestService, *services.SessionService, *services.ReviewService) {
	sched := services.NewScheduler()
	sched.Lookback = cfg.ConflictLookback
	sched.Step = cfg.AutoScheduleStep

	reqSvc := services.NewRequestService(db, emitter)
	reqSvc.MinDuration = cfg.MinSessionMinutes
	reqSvc.MaxDuration = cfg.MaxSessionMinutes

	sessSvc := services.NewSessionService(db, sched, emitter)
	sessSvc.StartEarlyMargin = cfg.StartEarlyMargin
	sessSvc.AutoLead = cfg.AutoScheduleLead
	sessSvc.MaxAttempts = cfg.MaxScheduleAttempts
	sessSvc.MinDuration = cfg.MinSessionMinutes
	sessSvc.MaxDuration = cfg.MaxSessionMinutes

	revSvc := services.NewReviewService(db, emitter)

	return reqSvc, sessSvc, revSvc
}

var corsAllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization", "X-User-ID"}
var corsExposeHeaders = []string{"X-Request-ID", "Content-Length", "ETag"}

// installCORS mounts the CORS layer. With no configured origins the API is
// open (development posture); otherwise only the allowlist is echoed back.
// Credentials stay disabled in both modes.
func installCORS(r *gin.Engine, origins []string) {
	base := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     corsAllowHeaders,
		ExposeHeaders:    corsExposeHeaders,
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}

	if len(origins) == 0 {
		// Set ACAO even for requests that carry no Origin header, so plain
		// health checks and tests see the permissive posture too.
		r.Use(func(c *gin.Context) {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
			c.Next()
		})
		base.AllowAllOrigins = true
		r.Use(cors.New(base))
		return
	}

	allowed := make(map[string]struct{}, len(origins))
	for _, o := range origins {
		allowed[o] = struct{}{}
	}
	r.Use(func(c *gin.Context) {
		if origin := c.GetHeader("Origin"); origin != "" {
			if _, ok := allowed[origin]; ok {
				h := c.Writer.Header()
				h.Set("Access-Control-Allow-Origin", origin)
				h.Add("Vary", "Origin")
			}
		}
		c.Next()
	})
	base.AllowOrigins = origins
	r.Use(cors.New(base))
}

// limitBody rejects oversized bodies via http.MaxBytesReader; reads past the
// cap fail inside the handler's bind call.
func limitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

// groupWithPrefix treats "/" and "" as the engine root.
func groupWithPrefix(r *gin.Engine, prefix string) *gin.RouterGroup {
	if prefix == "" || prefix == "/" {
		return r.Group("")
	}
	return r.Group(prefix)
}

package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/yungbote/interview-brief-backend/internal/http/handlers"
	httpMW "github.com/yungbote/interview-brief-backend/internal/http/middleware"
	"github.com/yungbote/interview-brief-backend/internal/observability"
	"github.com/yungbote/interview-brief-backend/internal/platform/logger"
)

type RouterConfig struct {
	Log            *logger.Logger
	Metrics        *observability.Metrics
	ServiceName    string
	AllowedOrigins []string

	AuthMiddleware *httpMW.AuthMiddleware
	SessionHandler *httpH.SessionHandler
	HealthHandler  *httpH.HealthHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.ServiceName != "" {
		r.Use(otelgin.Middleware(cfg.ServiceName))
	}
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.Metrics(cfg.Metrics))
	r.Use(httpMW.CORS(cfg.AllowedOrigins...))

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
	}
	if cfg.Metrics != nil {
		r.GET("/metrics", gin.WrapH(cfg.Metrics.Handler()))
	}

	api := r.Group("/api")

	// Interviewee feedback (public; the session id is the credential)
	if cfg.SessionHandler != nil {
		api.POST("/sessions/:id/corrections", cfg.SessionHandler.SubmitCorrections)
	}

	protected := api.Group("/")
	{
		if cfg.AuthMiddleware != nil {
			protected.Use(cfg.AuthMiddleware.RequireAuth())
		}

		// Sessions
		if cfg.SessionHandler != nil {
			protected.POST("/sessions", cfg.SessionHandler.CreateSession)
			protected.GET("/sessions", cfg.SessionHandler.ListSessions)
			protected.GET("/sessions/:id", cfg.SessionHandler.GetSession)
			protected.POST("/sessions/:id/pipeline", cfg.SessionHandler.StartPipeline)
			protected.POST("/sessions/:id/send-packet", cfg.SessionHandler.SendPacket)
			protected.POST("/sessions/:id/update-brief", cfg.SessionHandler.UpdateBrief)
			protected.POST("/sessions/:id/synthesis", cfg.SessionHandler.Synthesize)
			protected.POST("/sessions/:id/abort", cfg.SessionHandler.Abort)
		}
	}

	return r
}

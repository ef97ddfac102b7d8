package app

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/interview-brief-backend/internal/http"
	httpH "github.com/yungbote/interview-brief-backend/internal/http/handlers"
	httpMW "github.com/yungbote/interview-brief-backend/internal/http/middleware"
	"github.com/yungbote/interview-brief-backend/internal/observability"
	"github.com/yungbote/interview-brief-backend/internal/platform/envutil"
	"github.com/yungbote/interview-brief-backend/internal/platform/logger"
)

type Middleware struct {
	Auth *httpMW.AuthMiddleware
}

type Handlers struct {
	Health  *httpH.HealthHandler
	Session *httpH.SessionHandler
}

func wireHandlers(log *logger.Logger, clients Clients, services Services) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Health:  httpH.NewHealthHandler(clients.DB.Ping),
		Session: httpH.NewSessionHandler(log, services.Sessions),
	}
}

func wireMiddleware(log *logger.Logger, services Services) Middleware {
	log.Info("Wiring middleware...")
	return Middleware{
		Auth: httpMW.NewAuthMiddleware(log, services.Auth),
	}
}

func wireRouter(log *logger.Logger, cfg Config, handlers Handlers, middleware Middleware) *gin.Engine {
	return http.NewRouter(http.RouterConfig{
		Log:            log,
		Metrics:        observability.Current(),
		ServiceName:    cfg.ServiceName,
		AllowedOrigins: []string{envutil.String("FRONTEND_BASE_URL", "")},
		AuthMiddleware: middleware.Auth,
		SessionHandler: handlers.Session,
		HealthHandler:  handlers.Health,
	})
}

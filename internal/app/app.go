package app

import (
	"context"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"

	apphttp "github.com/yungbote/interview-brief-backend/internal/http"
	"github.com/yungbote/interview-brief-backend/internal/observability"
	"github.com/yungbote/interview-brief-backend/internal/platform/logger"
	"github.com/yungbote/interview-brief-backend/internal/services"
)

type App struct {
	Log      *logger.Logger
	Router   *gin.Engine
	Server   *apphttp.Server
	Cfg      Config
	Clients  Clients
	Services Services

	otelShutdown func(context.Context) error
	cancel       context.CancelFunc
}

func New() (*App, error) {
	cfg := LoadConfig()
	log, err := logger.New(cfg.LogMode)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	if cfg.LogMode == "prod" || cfg.LogMode == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	observability.Init(log)
	otelShutdown := observability.InitOTel(context.Background(), log,
		observability.OtelConfigFromEnv(cfg.ServiceName, cfg.Environment, cfg.Version))

	clients, err := wireClients(log, cfg)
	if err != nil {
		log.Sync()
		return nil, err
	}
	serviceset, err := wireServices(log, cfg, clients)
	if err != nil {
		clients.Close()
		log.Sync()
		return nil, err
	}

	handlerset := wireHandlers(log, clients, serviceset)
	middleware := wireMiddleware(log, serviceset)
	router := wireRouter(log, cfg, handlerset, middleware)

	return &App{
		Log:          log,
		Router:       router,
		Server:       apphttp.NewServer(router, ":"+cfg.Port),
		Cfg:          cfg,
		Clients:      clients,
		Services:     serviceset,
		otelShutdown: otelShutdown,
	}, nil
}

// Start launches background work: the Temporal worker (when configured) and
// the audit retention schedule.
func (a *App) Start() error {
	if a == nil || a.cancel != nil {
		return nil
	}
	ctx, cancel := context.WithCancel(context.Background())
	a.cancel = cancel

	if a.Services.TemporalWorker != nil {
		if err := a.Services.TemporalWorker.Start(ctx); err != nil {
			return fmt.Errorf("start temporal worker: %w", err)
		}
	}
	if a.Services.Retention != nil {
		if err := a.Services.Retention.Start(); err != nil {
			return err
		}
	}
	return nil
}

func (a *App) Run() error {
	if a == nil || a.Server == nil {
		return fmt.Errorf("app not initialized")
	}
	a.Log.Info("Listening", "addr", a.Server.Addr())
	return a.Server.Run()
}

// Shutdown drains the HTTP server; background work stops in Close.
func (a *App) Shutdown(ctx context.Context) error {
	if a == nil || a.Server == nil {
		return nil
	}
	return a.Server.Shutdown(ctx)
}

func (a *App) Close() {
	if a == nil {
		return
	}
	if a.cancel != nil {
		a.cancel()
		a.cancel = nil
	}
	if a.Services.Retention != nil {
		a.Services.Retention.Stop()
	}
	if r, ok := a.Services.Runner.(*services.LocalRunner); ok {
		r.Wait()
	}
	a.Clients.Close()
	if a.otelShutdown != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		_ = a.otelShutdown(ctx)
		cancel()
	}
	if a.Log != nil {
		a.Log.Sync()
	}
}

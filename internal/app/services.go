package app

import (
	"fmt"

	"github.com/yungbote/interview-brief-backend/internal/data/graph"
	"github.com/yungbote/interview-brief-backend/internal/data/repos"
	"github.com/yungbote/interview-brief-backend/internal/extraction"
	"github.com/yungbote/interview-brief-backend/internal/jobs"
	"github.com/yungbote/interview-brief-backend/internal/modules/briefing/generation"
	"github.com/yungbote/interview-brief-backend/internal/modules/briefing/ingestion"
	"github.com/yungbote/interview-brief-backend/internal/modules/briefing/prompts"
	"github.com/yungbote/interview-brief-backend/internal/modules/briefing/synthesis"
	"github.com/yungbote/interview-brief-backend/internal/platform/logger"
	"github.com/yungbote/interview-brief-backend/internal/services"
	"github.com/yungbote/interview-brief-backend/internal/temporalx"
	"github.com/yungbote/interview-brief-backend/internal/temporalx/briefrun"
	"github.com/yungbote/interview-brief-backend/internal/temporalx/temporalworker"
)

type Services struct {
	Store    repos.RecordStore
	Auth     services.AuthService
	Sessions services.SessionService
	Pipeline services.BriefPipeline
	Runner   services.PipelineRunner

	// TemporalWorker is nil when Temporal is not configured or the worker
	// runs in its own process.
	TemporalWorker *temporalworker.Runner
	Retention      *jobs.RetentionJob
}

func wireServices(log *logger.Logger, cfg Config, clients Clients) (Services, error) {
	log.Info("Wiring services...")

	auth, err := services.NewAuthService(log, services.AuthConfigFromEnv())
	if err != nil {
		return Services{}, fmt.Errorf("init auth: %w", err)
	}
	catalog, err := prompts.Default()
	if err != nil {
		return Services{}, fmt.Errorf("load prompt catalog: %w", err)
	}

	store := repos.NewRecordStore(clients.DB.DB(), log)
	audit := services.NewAuditTrail(store, log)
	locker := services.NewSessionLocker(clients.Redis, log)

	entities := extraction.NewModelEntityExtractor(clients.LLM, log)
	var documents extraction.DocumentExtractor
	if clients.Document != nil {
		documents = extraction.NewDocumentExtractor(clients.Blob, clients.Document, log)
	}
	gen := generation.New(clients.LLM, catalog, clients.Blob, log)

	pipeline := services.NewBriefPipeline(services.PipelineDeps{
		Store:      store,
		Blob:       clients.Blob,
		Ingestion:  ingestion.New(ingestion.NewHTTPFetcher(log), entities, documents, clients.Blob, log),
		Generation: gen,
		Locker:     locker,
		Audit:      audit,
		Log:        log,
	})

	out := Services{
		Store:     store,
		Auth:      auth,
		Pipeline:  pipeline,
		Retention: jobs.NewRetentionJob(log, store, jobs.RetentionConfigFromEnv()),
	}

	if clients.Temporal != nil {
		starter, err := briefrun.NewStarter(clients.Temporal, temporalx.LoadConfig().TaskQueue, log)
		if err != nil {
			return Services{}, fmt.Errorf("init temporal starter: %w", err)
		}
		out.Runner = starter
		if cfg.RunWorker {
			if out.TemporalWorker, err = temporalworker.NewRunner(log, clients.Temporal, store, pipeline); err != nil {
				return Services{}, fmt.Errorf("init temporal worker: %w", err)
			}
		}
	} else {
		out.Runner = services.NewLocalRunner(pipeline, log)
	}

	var notifier services.Notifier
	if clients.SendGrid != nil {
		notifier = services.NewSendGridNotifier(clients.SendGrid, log)
	} else {
		notifier = services.NewLogNotifier(log)
	}
	var insights graph.InsightsGraph
	if clients.Neo4j != nil {
		insights = graph.NewInsightsGraph(clients.Neo4j, log)
	}

	out.Sessions = services.NewSessionService(services.SessionServiceDeps{
		Store:      store,
		Blob:       clients.Blob,
		Generation: gen,
		Synthesis:  synthesis.New(clients.LLM, catalog, clients.Blob, log),
		Graph:      insights,
		Notifier:   notifier,
		Runner:     out.Runner,
		Locker:     locker,
		Audit:      audit,
		Log:        log,
		Config:     services.SessionConfigFromEnv(),
	})
	return out, nil
}

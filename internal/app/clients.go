package app

import (
	"context"
	"fmt"

	goredis "github.com/redis/go-redis/v9"
	temporalsdkclient "go.temporal.io/sdk/client"

	"github.com/yungbote/interview-brief-backend/internal/data/blob"
	"github.com/yungbote/interview-brief-backend/internal/data/db"
	"github.com/yungbote/interview-brief-backend/internal/llm"
	"github.com/yungbote/interview-brief-backend/internal/platform/gcp"
	"github.com/yungbote/interview-brief-backend/internal/platform/logger"
	"github.com/yungbote/interview-brief-backend/internal/platform/neo4jdb"
	"github.com/yungbote/interview-brief-backend/internal/platform/redis"
	"github.com/yungbote/interview-brief-backend/internal/platform/sendgrid"
	"github.com/yungbote/interview-brief-backend/internal/temporalx"
)

// Clients holds every external connection. Optional clients are nil when
// their env configuration is absent.
type Clients struct {
	DB       *db.Service
	Blob     blob.Store
	LLM      llm.Backend
	Document gcp.Document
	Redis    *goredis.Client
	Neo4j    *neo4jdb.Client
	SendGrid sendgrid.Client
	Temporal temporalsdkclient.Client
}

func wireClients(log *logger.Logger, cfg Config) (clients Clients, err error) {
	log.Info("Wiring clients...")
	defer func() {
		if err != nil {
			clients.Close()
		}
	}()

	// Database
	if clients.DB, err = db.NewFromEnv(log); err != nil {
		return clients, fmt.Errorf("init database: %w", err)
	}
	if err = clients.DB.Migrate(); err != nil {
		return clients, fmt.Errorf("automigrate: %w", err)
	}

	// Artifacts
	if clients.Blob, err = resolveBlobStore(log, cfg); err != nil {
		return clients, err
	}

	// Generative model
	if clients.LLM, err = llm.NewFromEnv(log); err != nil {
		return clients, fmt.Errorf("init llm backend: %w", err)
	}

	// Document AI (optional)
	if clients.Document, err = gcp.NewDocumentFromEnv(log); err != nil {
		return clients, fmt.Errorf("init document client: %w", err)
	}

	// Redis (optional)
	if clients.Redis, err = redis.NewFromEnv(log); err != nil {
		return clients, fmt.Errorf("init redis: %w", err)
	}

	// Neo4j (optional)
	if clients.Neo4j, err = neo4jdb.NewFromEnv(log); err != nil {
		return clients, fmt.Errorf("init neo4j: %w", err)
	}

	// SendGrid (optional)
	if sendgrid.ConfigFromEnv().APIKey != "" {
		if clients.SendGrid, err = sendgrid.NewFromEnv(log); err != nil {
			return clients, fmt.Errorf("init sendgrid: %w", err)
		}
	}

	// Temporal (optional)
	if clients.Temporal, err = temporalx.NewClient(log); err != nil {
		return clients, fmt.Errorf("init temporal: %w", err)
	}
	return clients, nil
}

func (c *Clients) Close() {
	if c == nil {
		return
	}
	if c.Temporal != nil {
		c.Temporal.Close()
	}
	if c.Neo4j != nil {
		_ = c.Neo4j.Close(context.Background())
	}
	if c.Redis != nil {
		_ = c.Redis.Close()
	}
	if c.Document != nil {
		_ = c.Document.Close()
	}
	if c.DB != nil {
		_ = c.DB.Close()
	}
}

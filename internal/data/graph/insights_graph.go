package graph

import (
	"context"
	"strings"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/yungbote/interview-brief-backend/internal/domain"
	"github.com/yungbote/interview-brief-backend/internal/platform/logger"
	"github.com/yungbote/interview-brief-backend/internal/platform/neo4jdb"
)

// InsightsGraph mirrors company insights into the knowledge graph.
type InsightsGraph interface {
	UpsertCompanyInsights(ctx context.Context, sessionID string, syn *domain.Synthesis) error
}

type insightsGraph struct {
	client *neo4jdb.Client
	log    *logger.Logger
}

// NewInsightsGraph returns nil when client is nil so callers can skip the mirror.
func NewInsightsGraph(client *neo4jdb.Client, baseLog *logger.Logger) InsightsGraph {
	if client == nil {
		return nil
	}
	return &insightsGraph{client: client, log: baseLog.With("service", "InsightsGraph")}
}

func (g *insightsGraph) UpsertCompanyInsights(ctx context.Context, sessionID string, syn *domain.Synthesis) error {
	return UpsertCompanyInsightsGraph(ctx, g.client, g.log, sessionID, syn)
}

// insightsParams flattens a synthesis into MERGE parameters. Empty tag values
// are dropped and names are trimmed.
func insightsParams(sessionID string, syn *domain.Synthesis, now time.Time) map[string]any {
	p := syn.CompanyProfile
	tags := syn.KnowledgeGraphTags

	constraints := make([]map[string]any, 0, len(syn.ConstraintMap.Top3Constraints))
	for _, c := range syn.ConstraintMap.Top3Constraints {
		text := strings.TrimSpace(c.Constraint)
		if text == "" {
			continue
		}
		constraints = append(constraints, map[string]any{
			"text":      text,
			"type":      strings.TrimSpace(c.Type),
			"confirmed": c.Confirmed,
		})
	}
	return map[string]any{
		"company": map[string]any{
			"name":           strings.TrimSpace(p.Name),
			"industry":       strings.TrimSpace(p.Industry),
			"region":         strings.TrimSpace(p.Region),
			"stage":          strings.TrimSpace(p.Stage),
			"employee_range": strings.TrimSpace(p.EmployeeRange),
			"revenue_range":  strings.TrimSpace(p.RevenueRange),
			"ownership_type": strings.TrimSpace(p.OwnershipType),
			"session_id":     sessionID,
			"synced_at":      now.UTC().Format(time.RFC3339Nano),
		},
		"cluster":     strings.TrimSpace(tags.IndustryCluster),
		"risks":       cleanNames(tags.RiskFlags),
		"signals":     cleanNames(tags.GrowthSignals),
		"related":     cleanNames(tags.RelatedCompanies),
		"constraints": constraints,
	}
}

func cleanNames(in []string) []string {
	out := make([]string, 0, len(in))
	seen := map[string]bool{}
	for _, s := range in {
		s = strings.TrimSpace(s)
		if s == "" || seen[strings.ToLower(s)] {
			continue
		}
		seen[strings.ToLower(s)] = true
		out = append(out, s)
	}
	return out
}

func UpsertCompanyInsightsGraph(ctx context.Context, client *neo4jdb.Client, log *logger.Logger, sessionID string, syn *domain.Synthesis) error {
	if client == nil || client.Driver == nil || syn == nil {
		return nil
	}
	if strings.TrimSpace(syn.CompanyProfile.Name) == "" {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}
	params := insightsParams(sessionID, syn, time.Now())

	session := client.WriteSession(ctx)
	defer session.Close(ctx)

	// Best-effort schema init.
	for _, q := range []string{
		`CREATE CONSTRAINT company_name_unique IF NOT EXISTS FOR (c:Company) REQUIRE c.name IS UNIQUE`,
		`CREATE CONSTRAINT industry_cluster_name_unique IF NOT EXISTS FOR (i:IndustryCluster) REQUIRE i.name IS UNIQUE`,
	} {
		if res, err := session.Run(ctx, q, nil); err != nil {
			if log != nil {
				log.Warn("neo4j schema init failed (continuing)", "error", err)
			}
		} else {
			_, _ = res.Consume(ctx)
		}
	}

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		stmts := []string{
			`
MERGE (c:Company {name: $company.name})
SET c += $company
`,
			`
MATCH (c:Company {name: $company.name})
WITH c WHERE $cluster <> ''
MERGE (i:IndustryCluster {name: $cluster})
MERGE (c)-[:IN_CLUSTER]->(i)
`,
			`
MATCH (c:Company {name: $company.name})
OPTIONAL MATCH (c)-[old:HAS_RISK|SHOWS_SIGNAL|CONSTRAINED_BY]->()
DELETE old
`,
			`
MATCH (c:Company {name: $company.name})
UNWIND $risks AS r
MERGE (rf:RiskFlag {name: r})
MERGE (c)-[:HAS_RISK]->(rf)
`,
			`
MATCH (c:Company {name: $company.name})
UNWIND $signals AS s
MERGE (gs:GrowthSignal {name: s})
MERGE (c)-[:SHOWS_SIGNAL]->(gs)
`,
			`
MATCH (c:Company {name: $company.name})
UNWIND $related AS r
MERGE (o:Company {name: r})
MERGE (c)-[:RELATED_TO]->(o)
`,
			`
MATCH (c:Company {name: $company.name})
UNWIND $constraints AS k
MERGE (ct:Constraint {text: k.text})
SET ct.type = k.type
MERGE (c)-[e:CONSTRAINED_BY]->(ct)
SET e.confirmed = k.confirmed
`,
		}
		for _, q := range stmts {
			res, err := tx.Run(ctx, q, params)
			if err != nil {
				return nil, err
			}
			if _, err := res.Consume(ctx); err != nil {
				return nil, err
			}
		}
		return nil, nil
	})
	if err != nil {
		return err
	}
	if log != nil {
		log.Debug("Company insights mirrored to graph", "company", syn.CompanyProfile.Name)
	}
	return nil
}

package graph

import (
	"context"
	"testing"
	"time"

	"github.com/yungbote/interview-brief-backend/internal/domain"
)

func TestInsightsParamsDropsBlanksAndDuplicates(t *testing.T) {
	syn := &domain.Synthesis{
		CompanyProfile: domain.SynthesisProfile{Name: " Acme ", Industry: "Logistics"},
		ConstraintMap: domain.ConstraintMap{Top3Constraints: []domain.Constraint{
			{Constraint: "Working capital", Type: "capital", Confirmed: true},
			{Constraint: "  "},
		}},
		KnowledgeGraphTags: domain.KnowledgeGraphTags{
			IndustryCluster: "freight",
			RiskFlags:       []string{"fx", "FX", ""},
			GrowthSignals:   []string{"new depot"},
		},
	}
	p := insightsParams("s1", syn, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))

	company := p["company"].(map[string]any)
	if company["name"] != "Acme" || company["session_id"] != "s1" {
		t.Fatalf("company params: got=%v", company)
	}
	if risks := p["risks"].([]string); len(risks) != 1 || risks[0] != "fx" {
		t.Fatalf("risks: want=[fx] got=%v", risks)
	}
	if cs := p["constraints"].([]map[string]any); len(cs) != 1 || cs[0]["confirmed"] != true {
		t.Fatalf("constraints: got=%v", cs)
	}
	if related := p["related"].([]string); len(related) != 0 {
		t.Fatalf("related: want empty got=%v", related)
	}
}

func TestUpsertWithoutClientIsNoop(t *testing.T) {
	if err := UpsertCompanyInsightsGraph(context.Background(), nil, nil, "s1", &domain.Synthesis{}); err != nil {
		t.Fatalf("nil client: %v", err)
	}
	if NewInsightsGraph(nil, nil) != nil {
		t.Fatalf("NewInsightsGraph(nil): want nil")
	}
}

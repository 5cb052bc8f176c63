package planner

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/kalambet/reqmine/internal/mining"
	"github.com/kalambet/reqmine/internal/ollama"
)

// mockChatter implements Chatter and records the last prompt it saw.
type mockChatter struct {
	response string
	err      error
	lastUser string
}

func (m *mockChatter) Chat(ctx context.Context, model string, messages []ollama.Message, jsonSchema *ollama.Schema) (string, error) {
	for _, msg := range messages {
		if msg.Role == "user" {
			m.lastUser = msg.Content
		}
	}
	return m.response, m.err
}

func TestSimpleStrategy(t *testing.T) {
	mock := &mockChatter{
		response: `{"approach":"Query the warehouse directly","steps":["Pull Q2 revenue","Compute growth","Chart the result"],"deliverable":"growth summary"}`,
	}
	p := New(mock, Config{Model: "mistral-nemo"})

	got, err := p.SimpleStrategy(context.Background(), "Analyze Q2 revenue growth", &mining.IntentAnalysis{
		Categories: []string{"analyze"},
		Complexity: "low",
	}, mining.Context{})
	if err != nil {
		t.Fatalf("SimpleStrategy() error = %v", err)
	}

	if got.Approach == "" || len(got.Steps) != 3 {
		t.Errorf("strategy = %+v, want approach and 3 steps", got)
	}
	if !strings.Contains(mock.lastUser, "categories: analyze") {
		t.Errorf("prompt did not carry the intent analysis: %q", mock.lastUser)
	}
}

func TestSimpleStrategy_ErrorPropagates(t *testing.T) {
	p := New(&mockChatter{err: errors.New("model offline")}, Config{Model: "mistral-nemo"})

	_, err := p.SimpleStrategy(context.Background(), "anything", nil, mining.Context{})
	if err == nil {
		t.Fatal("expected error, got nil")
	}
}

func TestSimpleStrategy_EmptyResultIsError(t *testing.T) {
	p := New(&mockChatter{response: `{"approach":"","steps":[],"deliverable":""}`}, Config{Model: "mistral-nemo"})

	_, err := p.SimpleStrategy(context.Background(), "anything", nil, mining.Context{})
	if err == nil {
		t.Fatal("expected error for empty strategy, got nil")
	}
}

func TestPlan(t *testing.T) {
	mock := &mockChatter{
		response: `{"architecture":"Three-stage ETL with a reporting layer","modules":["ingest: pull raw revenue data","warehouse: normalized storage","report: growth dashboards"],"risks":["data quality"]}`,
	}
	p := New(mock, Config{Model: "mistral-nemo"})

	got, err := p.Plan(context.Background(), "Build a revenue analytics platform",
		[]string{"quarterly granularity", "EU market only"}, mining.Context{})
	if err != nil {
		t.Fatalf("Plan() error = %v", err)
	}

	if len(got.Modules) != 3 {
		t.Fatalf("Modules = %+v, want 3", got.Modules)
	}
	if got.Modules[0].Name != "ingest" || got.Modules[0].Purpose != "pull raw revenue data" {
		t.Errorf("Modules[0] = %+v, want name/purpose split on colon", got.Modules[0])
	}
	if !strings.Contains(mock.lastUser, "- EU market only") {
		t.Errorf("prompt did not carry requirements: %q", mock.lastUser)
	}
}

func TestPlan_MalformedJSONIsError(t *testing.T) {
	p := New(&mockChatter{response: "no json here"}, Config{Model: "mistral-nemo"})

	_, err := p.Plan(context.Background(), "anything", nil, mining.Context{})
	if err == nil {
		t.Fatal("expected error, got nil")
	}
}

func TestGenerateRoadmap(t *testing.T) {
	mock := &mockChatter{
		response: `{"phases":[{"name":"Foundations","goal":"Stand up ingestion","steps":["schema","loaders"]},{"name":"Delivery","goal":"Ship dashboards","steps":["charts","review"]}]}`,
	}
	p := New(mock, Config{Model: "mistral-nemo"})

	bp := &mining.Blueprint{
		Architecture: "Three-stage ETL",
		Modules:      []mining.BlueprintModule{{Name: "ingest", Purpose: "pull data"}},
	}
	got, err := p.GenerateRoadmap(context.Background(), bp, mining.Context{})
	if err != nil {
		t.Fatalf("GenerateRoadmap() error = %v", err)
	}

	if len(got.Phases) != 2 {
		t.Fatalf("Phases = %+v, want 2", got.Phases)
	}
	if got.Phases[0].Name != "Foundations" || len(got.Phases[0].Steps) != 2 {
		t.Errorf("Phases[0] = %+v", got.Phases[0])
	}
	if !strings.Contains(mock.lastUser, "ingest: pull data") {
		t.Errorf("prompt did not carry the blueprint modules: %q", mock.lastUser)
	}
}

func TestGenerateRoadmap_NilBlueprint(t *testing.T) {
	p := New(&mockChatter{}, Config{Model: "mistral-nemo"})

	_, err := p.GenerateRoadmap(context.Background(), nil, mining.Context{})
	if err == nil {
		t.Fatal("expected error for nil blueprint, got nil")
	}
}

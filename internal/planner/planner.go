// Package planner generates actionable plans for validated requests: a
// lightweight strategy for simple work, and a blueprint plus execution
// roadmap for complex work. Unlike classification, planning has no
// meaningful fallback, so failures propagate to the workflow engine.
package planner

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/kalambet/reqmine/internal/mining"
	"github.com/kalambet/reqmine/internal/ollama"
)

const planTimeout = 60 * time.Second

// Chatter is the interface for chat completion via Ollama.
type Chatter interface {
	Chat(ctx context.Context, model string, messages []ollama.Message, jsonSchema *ollama.Schema) (string, error)
}

// Config holds explicit planner settings. Model should be the deep
// model: planning is the slowest, heaviest call in the workflow.
type Config struct {
	Model   string
	Timeout time.Duration
}

// Planner calls the deep local LLM for strategy and blueprint generation.
type Planner struct {
	client  Chatter
	model   string
	timeout time.Duration
}

// New creates a Planner from the given client and config.
func New(client Chatter, cfg Config) *Planner {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = planTimeout
	}
	return &Planner{client: client, model: cfg.Model, timeout: timeout}
}

// SimpleStrategy produces a direct execution strategy for a simple request.
func (p *Planner) SimpleStrategy(ctx context.Context, problem string, intent *mining.IntentAnalysis, mctx mining.Context) (*mining.SimpleStrategy, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	raw, err := p.client.Chat(ctx, p.model, simpleStrategyPrompt(problem, intent, mctx), simpleStrategySchema())
	if err != nil {
		return nil, fmt.Errorf("generating simple strategy: %w", err)
	}

	var s mining.SimpleStrategy
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		return nil, fmt.Errorf("parsing simple strategy: %w", err)
	}
	if s.Approach == "" && len(s.Steps) == 0 {
		return nil, fmt.Errorf("planner returned an empty strategy")
	}
	return &s, nil
}

// Plan produces a strategic blueprint for a complex request.
func (p *Planner) Plan(ctx context.Context, problem string, requirements []string, mctx mining.Context) (*mining.Blueprint, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	raw, err := p.client.Chat(ctx, p.model, blueprintPrompt(problem, requirements, mctx), blueprintSchema())
	if err != nil {
		return nil, fmt.Errorf("generating blueprint: %w", err)
	}

	var out blueprintOutput
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil, fmt.Errorf("parsing blueprint: %w", err)
	}

	bp := out.toBlueprint()
	if bp.Architecture == "" && len(bp.Modules) == 0 {
		return nil, fmt.Errorf("planner returned an empty blueprint")
	}
	return bp, nil
}

// GenerateRoadmap derives a phased execution roadmap from a confirmed blueprint.
func (p *Planner) GenerateRoadmap(ctx context.Context, bp *mining.Blueprint, mctx mining.Context) (*mining.Roadmap, error) {
	if bp == nil {
		return nil, fmt.Errorf("no blueprint to derive a roadmap from")
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	raw, err := p.client.Chat(ctx, p.model, roadmapPrompt(bp, mctx), roadmapSchema())
	if err != nil {
		return nil, fmt.Errorf("generating roadmap: %w", err)
	}

	var out roadmapOutput
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil, fmt.Errorf("parsing roadmap: %w", err)
	}

	rm := out.toRoadmap()
	if len(rm.Phases) == 0 {
		return nil, fmt.Errorf("planner returned an empty roadmap")
	}
	return rm, nil
}

// blueprintOutput tolerates the flattened module encoding the model
// sometimes produces ("name: purpose" strings instead of objects).
type blueprintOutput struct {
	Architecture string   `json:"architecture"`
	Modules      []string `json:"modules"`
	Risks        []string `json:"risks"`
}

func (o blueprintOutput) toBlueprint() *mining.Blueprint {
	bp := &mining.Blueprint{
		Architecture: o.Architecture,
		Risks:        o.Risks,
	}
	for _, m := range o.Modules {
		name, purpose, found := strings.Cut(m, ":")
		if !found {
			purpose = ""
		}
		bp.Modules = append(bp.Modules, mining.BlueprintModule{
			Name:    strings.TrimSpace(name),
			Purpose: strings.TrimSpace(purpose),
		})
	}
	return bp
}

type roadmapOutput struct {
	Phases []struct {
		Name  string   `json:"name"`
		Goal  string   `json:"goal"`
		Steps []string `json:"steps"`
	} `json:"phases"`
}

func (o roadmapOutput) toRoadmap() *mining.Roadmap {
	rm := &mining.Roadmap{}
	for _, ph := range o.Phases {
		rm.Phases = append(rm.Phases, mining.RoadmapPhase{
			Name:  ph.Name,
			Goal:  ph.Goal,
			Steps: ph.Steps,
		})
	}
	return rm
}

// Package classifier scores a user request against SMART-style criteria
// and decides how well-specified it is. A demand state is always
// produced: when the model's answer is missing or malformed the adapter
// falls back to the model's own criteria analysis, then to lexical
// heuristics over the raw input, then to a fixed default.
package classifier

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/kalambet/reqmine/internal/mining"
	"github.com/kalambet/reqmine/internal/ollama"
)

const classifyTimeout = 10 * time.Second

// Chatter is the interface for chat completion via Ollama.
type Chatter interface {
	Chat(ctx context.Context, model string, messages []ollama.Message, jsonSchema *ollama.Schema) (string, error)
}

// Config holds explicit classifier settings; no ambient state.
type Config struct {
	Model   string
	Timeout time.Duration
}

// Classifier calls a fast local LLM to classify demand specificity.
type Classifier struct {
	client  Chatter
	model   string
	timeout time.Duration
}

// New creates a Classifier from the given client and config.
func New(client Chatter, cfg Config) *Classifier {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = classifyTimeout
	}
	return &Classifier{client: client, model: cfg.Model, timeout: timeout}
}

// modelOutput mirrors the JSON the model is asked to produce.
type modelOutput struct {
	DemandState         string   `json:"demand_state"`
	CriteriaMet         int      `json:"criteria_met"`
	Scope               string   `json:"scope"`
	ClarificationNeeded []string `json:"clarification_needed"`
	Reasoning           string   `json:"reasoning"`
}

// Classify analyses the input and returns a classification whose
// DemandState is guaranteed to be set. Model failures are logged and
// absorbed by the fallback chain, never propagated.
func (c *Classifier) Classify(ctx context.Context, text string, mctx mining.Context) mining.Classification {
	out, ok := c.callModel(ctx, text, mctx)

	result := mining.Classification{
		Criteria: mining.CriteriaAnalysis{
			CriteriaMet: out.CriteriaMet,
			Scope:       out.Scope,
		},
		ClarificationNeeded: out.ClarificationNeeded,
		Reasoning:           out.Reasoning,
	}

	// Tier 0: the model named a valid state directly.
	if ok {
		if ds := mining.DemandState(out.DemandState); ds.Valid() {
			result.DemandState = ds
			result.Source = "model"
			return result
		}
	}

	// Tier 1: infer from the model's own criteria analysis.
	if ok {
		if ds, inferred := stateFromCriteria(out.CriteriaMet, out.Scope); inferred {
			result.DemandState = ds
			result.Source = "criteria"
			return result
		}
	}

	// Tier 2: lexical heuristics over the raw input.
	if ds, inferred := stateFromHeuristics(text); inferred {
		result.DemandState = ds
		result.Source = "heuristic"
		if len(result.ClarificationNeeded) == 0 && ds == mining.DemandVagueUnclear {
			result.ClarificationNeeded = defaultClarifications()
		}
		return result
	}

	// Tier 3: fixed default.
	result.DemandState = mining.DemandSmartLargeScope
	result.Source = "default"
	return result
}

// callModel invokes the model and parses its JSON. ok is false when the
// call failed or the response was unusable.
func (c *Classifier) callModel(ctx context.Context, text string, mctx mining.Context) (modelOutput, bool) {
	if text == "" {
		return modelOutput{}, false
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	raw, err := c.client.Chat(ctx, c.model, buildPrompt(text, mctx), classificationSchema())
	if err != nil {
		slog.Warn("demand classification chat failed", "session_id", mctx.SessionID, "error", err)
		return modelOutput{}, false
	}

	var out modelOutput
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		slog.Warn("failed to unmarshal classification from LLM response", "error", err, "response", raw)
		return modelOutput{}, false
	}
	return out, true
}

// stateFromCriteria maps the SMART criteria count and scope assessment to
// a demand state. Reported=false when the auxiliary fields are absent too.
func stateFromCriteria(criteriaMet int, scope string) (mining.DemandState, bool) {
	if criteriaMet <= 0 && scope == "" {
		return "", false
	}
	if criteriaMet < 3 {
		return mining.DemandVagueUnclear, true
	}
	if scope == "broad" {
		return mining.DemandSmartLargeScope, true
	}
	return mining.DemandSmartCompliant, true
}

func defaultClarifications() []string {
	return []string{
		"What specific outcome are you looking for?",
		"What timeframe or deadline applies?",
		"What data or resources are available?",
	}
}

// Package intent determines what kind of work a compliant request asks
// for: which of the four task categories it touches and how complex it
// is. The answer decides whether the workflow takes the simple-strategy
// path or the meta-architect path.
package intent

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"github.com/kalambet/reqmine/internal/mining"
	"github.com/kalambet/reqmine/internal/ollama"
)

const analyzeTimeout = 10 * time.Second

// Categories the analyzer is allowed to report.
var knownCategories = []string{"collect", "process", "analyze", "generate"}

// Chatter is the interface for chat completion via Ollama.
type Chatter interface {
	Chat(ctx context.Context, model string, messages []ollama.Message, jsonSchema *ollama.Schema) (string, error)
}

// Config holds explicit analyzer settings.
type Config struct {
	Model   string
	Timeout time.Duration
}

// Analyzer uses a fast local LLM to categorize a request, degrading to
// keyword heuristics when the model is unavailable.
type Analyzer struct {
	client  Chatter
	model   string
	timeout time.Duration
}

// New creates an Analyzer from the given client and config.
func New(client Chatter, cfg Config) *Analyzer {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = analyzeTimeout
	}
	return &Analyzer{client: client, model: cfg.Model, timeout: timeout}
}

// Analyze returns the task categories and complexity of the request.
// On any model failure it falls back to keyword heuristics, so a usable
// analysis is always produced.
func (a *Analyzer) Analyze(ctx context.Context, text string, mctx mining.Context) mining.IntentAnalysis {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	raw, err := a.client.Chat(ctx, a.model, buildPrompt(text, mctx), intentSchema())
	if err != nil {
		slog.Warn("intent analysis chat failed", "session_id", mctx.SessionID, "error", err)
		return heuristicAnalysis(text)
	}

	var result mining.IntentAnalysis
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		slog.Warn("failed to unmarshal intent analysis from LLM response", "error", err, "response", raw)
		return heuristicAnalysis(text)
	}

	result.Categories = normalizeCategories(result.Categories)
	if len(result.Categories) == 0 || !validComplexity(result.Complexity) {
		fallback := heuristicAnalysis(text)
		if len(result.Categories) == 0 {
			result.Categories = fallback.Categories
		}
		if !validComplexity(result.Complexity) {
			result.Complexity = fallback.Complexity
		}
	}
	return result
}

// normalizeCategories keeps only known categories, lowercased, first
// occurrence wins.
func normalizeCategories(cats []string) []string {
	seen := make(map[string]bool, len(cats))
	var out []string
	for _, c := range cats {
		c = strings.ToLower(strings.TrimSpace(c))
		if seen[c] {
			continue
		}
		for _, known := range knownCategories {
			if c == known {
				seen[c] = true
				out = append(out, c)
				break
			}
		}
	}
	return out
}

func validComplexity(c string) bool {
	switch c {
	case "low", "medium", "high":
		return true
	}
	return false
}

var categoryKeywords = map[string][]string{
	"collect":  {"collect", "gather", "fetch", "scrape", "survey", "source", "pull"},
	"process":  {"process", "clean", "transform", "organize", "normalize", "merge", "dedupe"},
	"analyze":  {"analyze", "analyse", "compare", "evaluate", "assess", "measure", "benchmark", "investigate"},
	"generate": {"generate", "create", "write", "produce", "build", "draft", "design", "report"},
}

// heuristicAnalysis derives categories from keywords and complexity from
// how many categories the request spans and how long it is.
func heuristicAnalysis(text string) mining.IntentAnalysis {
	lower := strings.ToLower(text)

	var cats []string
	for _, name := range knownCategories {
		for _, kw := range categoryKeywords[name] {
			if strings.Contains(lower, kw) {
				cats = append(cats, name)
				break
			}
		}
	}
	if len(cats) == 0 {
		cats = []string{"analyze"}
	}

	words := len(strings.Fields(text))
	complexity := "low"
	switch {
	case len(cats) >= 3 || words > 60:
		complexity = "high"
	case len(cats) == 2 || words > 25:
		complexity = "medium"
	}

	return mining.IntentAnalysis{
		Categories: cats,
		Complexity: complexity,
		Summary:    "keyword-derived analysis",
	}
}

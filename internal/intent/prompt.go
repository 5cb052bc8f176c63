package intent

import (
	"fmt"
	"strings"

	"github.com/kalambet/reqmine/internal/mining"
	"github.com/kalambet/reqmine/internal/ollama"
)

const systemPromptTemplate = `You are an intent analysis engine. Determine what kind of work the user's request requires. Your output must be ONLY a single valid JSON object that conforms to the provided schema. Do not include any other text, prose, or markdown.

Task categories (report every one that applies):
- "collect": acquiring data or source material
- "process": cleaning, transforming, or organizing data
- "analyze": examining, comparing, or evaluating information
- "generate": producing a new artifact (report, design, content, code)

Rules:
- complexity is "low", "medium", or "high" based on breadth, dependencies, and effort.
- summary is one sentence describing the work in plain terms.`

// buildPrompt constructs the chat messages for intent analysis.
func buildPrompt(text string, mctx mining.Context) []ollama.Message {
	var sb strings.Builder
	sb.WriteString(systemPromptTemplate)

	if mctx.Domain != "" {
		fmt.Fprintf(&sb, "\n\n[Domain]\n%s", mctx.Domain)
	}

	return []ollama.Message{
		{Role: "system", Content: sb.String()},
		{Role: "user", Content: text},
	}
}

// intentSchema returns the JSON schema for structured analyzer output.
func intentSchema() *ollama.Schema {
	return &ollama.Schema{
		Type: "object",
		Properties: map[string]ollama.SchemaProperty{
			"categories": {Type: "array", Description: "Subset of: collect, process, analyze, generate"},
			"complexity": {Type: "string", Description: "One of: low, medium, high"},
			"summary":    {Type: "string", Description: "One-sentence description of the work"},
		},
		Required: []string{"categories", "complexity", "summary"},
	}
}

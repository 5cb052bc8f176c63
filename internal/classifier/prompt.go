package classifier

import (
	"fmt"
	"strings"

	"github.com/kalambet/reqmine/internal/mining"
	"github.com/kalambet/reqmine/internal/ollama"
)

const systemPromptTemplate = `You are a requirement analyst. Score the user's request against SMART criteria (Specific, Measurable, Achievable, Relevant, Time-bound). Your output must be ONLY a single valid JSON object that conforms to the provided schema. Do not include any other text, prose, or markdown.

Demand states:
- "vague_unclear": the request is under-specified and needs clarification before work can start
- "smart_compliant": the request is specific, bounded, and actionable as stated
- "smart_large_scope": the request is well-formed but too broad for a single deliverable

Rules:
- criteria_met is how many of the five SMART criteria the request satisfies (0-5).
- scope is "narrow", "moderate", or "broad".
- When the request is vague, list 2-4 concrete clarification questions that would unblock it.
- Keep reasoning to one or two sentences.`

// buildPrompt constructs the chat messages for demand classification.
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

// classificationSchema returns the JSON schema for structured classifier output.
func classificationSchema() *ollama.Schema {
	return &ollama.Schema{
		Type: "object",
		Properties: map[string]ollama.SchemaProperty{
			"demand_state":         {Type: "string", Description: "One of: vague_unclear, smart_compliant, smart_large_scope"},
			"criteria_met":         {Type: "integer", Description: "How many of the five SMART criteria the request satisfies"},
			"scope":                {Type: "string", Description: "One of: narrow, moderate, broad"},
			"clarification_needed": {Type: "array", Description: "Clarification questions to ask if the request is vague"},
			"reasoning":            {Type: "string", Description: "Short justification for the classification"},
		},
		Required: []string{"demand_state", "criteria_met", "scope", "clarification_needed", "reasoning"},
	}
}

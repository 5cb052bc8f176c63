package planner

import (
	"fmt"
	"strings"

	"github.com/kalambet/reqmine/internal/mining"
	"github.com/kalambet/reqmine/internal/ollama"
)

const simpleStrategySystem = `You are an execution strategist. The user's request is well-specified and modest in scope. Produce a direct strategy to fulfil it. Your output must be ONLY a single valid JSON object that conforms to the provided schema.

Rules:
- approach is one or two sentences describing how to tackle the request.
- steps is an ordered list of 3-6 concrete actions.
- deliverable names the single artifact the user will receive.`

const blueprintSystem = `You are a solution architect. The user's request is complex: design a strategic blueprint for it. Your output must be ONLY a single valid JSON object that conforms to the provided schema.

Rules:
- architecture is a short paragraph describing the overall solution shape.
- modules is a list of "name: purpose" strings, one per component of the solution.
- risks lists the main things that could derail execution.`

const roadmapSystem = `You are a delivery planner. Turn the confirmed blueprint into a phased execution roadmap. Your output must be ONLY a single valid JSON object that conforms to the provided schema.

Rules:
- phases is an ordered list; each phase has a name, a goal, and 2-5 steps.
- earlier phases must not depend on later ones.`

func simpleStrategyPrompt(problem string, intent *mining.IntentAnalysis, mctx mining.Context) []ollama.Message {
	var sb strings.Builder
	sb.WriteString(problem)
	if intent != nil {
		fmt.Fprintf(&sb, "\n\n[Intent]\ncategories: %s\ncomplexity: %s",
			strings.Join(intent.Categories, ", "), intent.Complexity)
	}
	return withDomain([]ollama.Message{
		{Role: "system", Content: simpleStrategySystem},
		{Role: "user", Content: sb.String()},
	}, mctx)
}

func blueprintPrompt(problem string, requirements []string, mctx mining.Context) []ollama.Message {
	var sb strings.Builder
	sb.WriteString(problem)
	if len(requirements) > 0 {
		sb.WriteString("\n\n[Requirements]")
		for _, r := range requirements {
			fmt.Fprintf(&sb, "\n- %s", r)
		}
	}
	return withDomain([]ollama.Message{
		{Role: "system", Content: blueprintSystem},
		{Role: "user", Content: sb.String()},
	}, mctx)
}

func roadmapPrompt(bp *mining.Blueprint, mctx mining.Context) []ollama.Message {
	var sb strings.Builder
	fmt.Fprintf(&sb, "[Blueprint]\n%s", bp.Architecture)
	if len(bp.Modules) > 0 {
		sb.WriteString("\n\n[Modules]")
		for _, m := range bp.Modules {
			fmt.Fprintf(&sb, "\n- %s: %s", m.Name, m.Purpose)
		}
	}
	if len(bp.Risks) > 0 {
		sb.WriteString("\n\n[Risks]")
		for _, r := range bp.Risks {
			fmt.Fprintf(&sb, "\n- %s", r)
		}
	}
	return withDomain([]ollama.Message{
		{Role: "system", Content: roadmapSystem},
		{Role: "user", Content: sb.String()},
	}, mctx)
}

// withDomain appends the session domain to the system message when set.
func withDomain(messages []ollama.Message, mctx mining.Context) []ollama.Message {
	if mctx.Domain != "" && len(messages) > 0 && messages[0].Role == "system" {
		messages[0].Content += fmt.Sprintf("\n\n[Domain]\n%s", mctx.Domain)
	}
	return messages
}

func simpleStrategySchema() *ollama.Schema {
	return &ollama.Schema{
		Type: "object",
		Properties: map[string]ollama.SchemaProperty{
			"approach":    {Type: "string", Description: "How to tackle the request, in one or two sentences"},
			"steps":       {Type: "array", Description: "Ordered list of concrete actions"},
			"deliverable": {Type: "string", Description: "The single artifact the user receives"},
		},
		Required: []string{"approach", "steps", "deliverable"},
	}
}

func blueprintSchema() *ollama.Schema {
	return &ollama.Schema{
		Type: "object",
		Properties: map[string]ollama.SchemaProperty{
			"architecture": {Type: "string", Description: "Overall solution shape"},
			"modules":      {Type: "array", Description: "Components as 'name: purpose' strings"},
			"risks":        {Type: "array", Description: "Main execution risks"},
		},
		Required: []string{"architecture", "modules", "risks"},
	}
}

func roadmapSchema() *ollama.Schema {
	return &ollama.Schema{
		Type: "object",
		Properties: map[string]ollama.SchemaProperty{
			"phases": {Type: "array", Description: "Ordered phases, each with name, goal, and steps"},
		},
		Required: []string{"phases"},
	}
}

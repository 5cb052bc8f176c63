package main

import (
	"fmt"
	"os"

	"github.com/kalambet/reqmine/internal/mining"
)

const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorCyan   = "\033[36m"
	colorBold   = "\033[1m"
)

func colorize(color, text string) string {
	if noColor {
		return text
	}
	return color + text + colorReset
}

func printSuccess(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintln(os.Stderr, colorize(colorGreen, "✓ "+msg))
}

func printError(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintln(os.Stderr, colorize(colorRed, "✗ "+msg))
}

func printStatus(label string, format string, args ...any) {
	val := fmt.Sprintf(format, args...)
	l := colorize(colorBold, label+":")
	fmt.Fprintf(os.Stderr, "  %s %s\n", l, val)
}

// printResult renders a mining result for terminal use: either the
// pending questions for a paused session or the final artifacts.
func printResult(r *mining.MiningResult) {
	printStatus("Session", "%s", r.SessionID)
	printStatus("Status", "%s", string(r.Status))
	if r.DemandState != "" {
		printStatus("Demand state", "%s", string(r.DemandState))
	}

	switch r.Status {
	case mining.StatusWaitingForFeedback:
		switch r.FeedbackType {
		case mining.FeedbackClarification:
			fmt.Println()
			fmt.Println(colorize(colorBold, "The request needs clarification:"))
			for i, q := range r.PendingQuestions {
				fmt.Printf("  %d. %s\n", i+1, q)
			}
			fmt.Println()
			fmt.Printf("Answer with: reqmine resume %s --answer \"...\"\n", r.SessionID)
		case mining.FeedbackSimpleStrategy:
			if r.SimpleStrategyResult != nil {
				printStrategy(r.SimpleStrategyResult)
			}
			fmt.Println()
			fmt.Printf("Accept with: reqmine resume %s --confirm\n", r.SessionID)
		case mining.FeedbackMetaArchitect:
			if r.MetaArchitectResult != nil {
				printBlueprint(r.MetaArchitectResult)
			}
			fmt.Println()
			fmt.Printf("Accept with: reqmine resume %s --confirm\n", r.SessionID)
		}

	case mining.StatusCompleted:
		if len(r.FinalRequirements) > 0 {
			fmt.Println()
			fmt.Println(colorize(colorBold, "Requirements:"))
			for _, req := range r.FinalRequirements {
				fmt.Printf("  - %s\n", req)
			}
		}
		if r.SimpleStrategyResult != nil {
			printStrategy(r.SimpleStrategyResult)
		}
		if r.MetaArchitectResult != nil {
			printBlueprint(r.MetaArchitectResult)
		}
		if r.Roadmap != nil {
			printRoadmap(r.Roadmap)
		}
		if r.Summary != "" {
			fmt.Println()
			fmt.Println(r.Summary)
		}

	case mining.StatusError:
		printError("session failed: %s", r.Error)
	}
}

func printStrategy(s *mining.SimpleStrategy) {
	fmt.Println()
	fmt.Println(colorize(colorBold, "Strategy: ") + s.Approach)
	for i, step := range s.Steps {
		fmt.Printf("  %d. %s\n", i+1, step)
	}
	if s.Deliverable != "" {
		fmt.Printf("  Deliverable: %s\n", s.Deliverable)
	}
}

func printBlueprint(b *mining.Blueprint) {
	fmt.Println()
	fmt.Println(colorize(colorBold, "Blueprint: ") + b.Architecture)
	for _, m := range b.Modules {
		fmt.Printf("  %s %s\n", colorize(colorCyan, m.Name+":"), m.Purpose)
	}
	for _, risk := range b.Risks {
		fmt.Printf("  %s %s\n", colorize(colorYellow, "risk:"), risk)
	}
}

func printRoadmap(rm *mining.Roadmap) {
	fmt.Println()
	fmt.Println(colorize(colorBold, "Roadmap:"))
	for i, phase := range rm.Phases {
		fmt.Printf("  Phase %d: %s (%s)\n", i+1, phase.Name, phase.Goal)
		for _, step := range phase.Steps {
			fmt.Printf("    - %s\n", step)
		}
	}
}

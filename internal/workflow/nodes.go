// Package workflow drives a mining session through a fixed graph of
// named nodes with conditional edges. Execution stops at a terminal node
// or at the pause node, where the full state is checkpointed; a resumed
// call re-enters the graph through the feedback dispatcher.
package workflow

import (
	"context"

	"github.com/kalambet/reqmine/internal/mining"
)

// Node identifies one processing step in the workflow graph.
type Node string

const (
	NodeAnalyzeDemand        Node = "analyze_demand"
	NodeClarifyRequirements  Node = "clarify_requirements"
	NodeIntentAnalysis       Node = "intent_analysis"
	NodeSimpleStrategy       Node = "simple_strategy_flow"
	NodeMetaArchitect        Node = "meta_architect_flow"
	NodeGenerateRoadmap      Node = "generate_roadmap"
	NodeWaitForFeedback      Node = "wait_for_user_feedback"
	NodeProcessClarification Node = "process_clarification"
	NodeProcessAdjustment    Node = "process_adjustment"
	NodePackageResults       Node = "package_results"
	NodeFinalizeResult       Node = "finalize_result"

	// nodeErrorTerminal is where a failed run ends up. It has no handler:
	// the engine records the failure and stops instead of dispatching.
	nodeErrorTerminal Node = "error"

	// nodeEnd is the sentinel a handler returns to stop the run.
	nodeEnd Node = ""
)

// handlerFunc executes one node against the state and names the next node.
type handlerFunc func(ctx context.Context, st *mining.MiningState) (Node, error)

// DemandClassifier scores a request against SMART criteria. A demand
// state is always produced; classification never fails.
type DemandClassifier interface {
	Classify(ctx context.Context, text string, mctx mining.Context) mining.Classification
}

// IntentAnalyzer determines task categories and complexity for a
// compliant request.
type IntentAnalyzer interface {
	Analyze(ctx context.Context, text string, mctx mining.Context) mining.IntentAnalysis
}

// StrategicPlanner produces plans for validated requests. Planner errors
// surface as node failures.
type StrategicPlanner interface {
	SimpleStrategy(ctx context.Context, problem string, intent *mining.IntentAnalysis, mctx mining.Context) (*mining.SimpleStrategy, error)
	Plan(ctx context.Context, problem string, requirements []string, mctx mining.Context) (*mining.Blueprint, error)
	GenerateRoadmap(ctx context.Context, bp *mining.Blueprint, mctx mining.Context) (*mining.Roadmap, error)
}

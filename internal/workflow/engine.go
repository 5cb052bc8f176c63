package workflow

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/kalambet/reqmine/internal/checkpoint"
	"github.com/kalambet/reqmine/internal/mining"
)

// maxSteps bounds one engine invocation. The graph has no cycles that
// survive the round limiter, so hitting this indicates a routing bug.
const maxSteps = 20

// NodeError is a workflow failure with enough context to retry from the
// last checkpoint.
type NodeError struct {
	Node      Node
	SessionID string
	Err       error
}

func (e *NodeError) Error() string {
	return fmt.Sprintf("node %s failed for session %s: %v", e.Node, e.SessionID, e.Err)
}

func (e *NodeError) Unwrap() error { return e.Err }

// Engine executes the workflow graph against a MiningState. It holds no
// per-session state and is safe for concurrent use across sessions.
type Engine struct {
	classifier DemandClassifier
	analyzer   IntentAnalyzer
	planner    StrategicPlanner
	store      checkpoint.Store
	limiter    *roundLimiter
	logger     *slog.Logger
	handlers   map[Node]handlerFunc
}

// NewEngine wires the collaborators into an engine. maxRounds <= 0 uses
// the default clarification bound.
func NewEngine(cl DemandClassifier, an IntentAnalyzer, pl StrategicPlanner, store checkpoint.Store, maxRounds int) *Engine {
	e := &Engine{
		classifier: cl,
		analyzer:   an,
		planner:    pl,
		store:      store,
		limiter:    newRoundLimiter(maxRounds),
		logger:     slog.Default(),
	}
	e.handlers = map[Node]handlerFunc{
		NodeAnalyzeDemand:        e.analyzeDemand,
		NodeClarifyRequirements:  e.clarifyRequirements,
		NodeIntentAnalysis:       e.intentAnalysis,
		NodeSimpleStrategy:       e.simpleStrategyFlow,
		NodeMetaArchitect:        e.metaArchitectFlow,
		NodeGenerateRoadmap:      e.generateRoadmap,
		NodeWaitForFeedback:      e.waitForFeedback,
		NodeProcessClarification: e.processClarification,
		NodeProcessAdjustment:    e.processAdjustment,
		NodePackageResults:       e.packageResults,
		NodeFinalizeResult:       e.finalizeResult,
	}
	return e
}

// Run traverses the graph from the entry router until a handler returns
// the end sentinel. A handler error is recorded into the state, routed
// through the error terminal, and returned as a *NodeError.
func (e *Engine) Run(ctx context.Context, st *mining.MiningState) error {
	node := e.entryNode(st)

	for step := 0; node != nodeEnd; step++ {
		if step >= maxSteps {
			err := fmt.Errorf("exceeded %d steps, aborting", maxSteps)
			e.failState(st, node, err)
			return &NodeError{Node: node, SessionID: st.Context.SessionID, Err: err}
		}

		handler, ok := e.handlers[node]
		if !ok {
			err := fmt.Errorf("unknown node %q", node)
			e.failState(st, node, err)
			return &NodeError{Node: node, SessionID: st.Context.SessionID, Err: err}
		}

		e.logger.Debug("executing node", "node", node, "session_id", st.Context.SessionID, "round", st.Context.CurrentRound)

		next, err := handler(ctx, st)
		if err != nil {
			e.logger.Error("node failed", "node", node, "session_id", st.Context.SessionID, "error", err)
			e.failState(st, node, err)
			return &NodeError{Node: node, SessionID: st.Context.SessionID, Err: err}
		}
		node = next
	}

	return nil
}

// entryNode routes an invocation into the graph: resumed sessions go
// through the feedback dispatcher, fresh ones start at demand analysis.
func (e *Engine) entryNode(st *mining.MiningState) Node {
	if st.LastFeedback != nil || st.Status == mining.StatusProcessingFeedback {
		return dispatchFeedback(st)
	}
	return NodeAnalyzeDemand
}

// failState is the error terminal: it records the failure and marks the
// session so the caller can retry from the last checkpoint.
func (e *Engine) failState(st *mining.MiningState, node Node, err error) {
	st.Err = err.Error()
	st.Status = mining.StatusError
	st.AddMessage("system", fmt.Sprintf("workflow failed at %s: %v", node, err))
}

func (e *Engine) analyzeDemand(ctx context.Context, st *mining.MiningState) (Node, error) {
	cls := e.classifier.Classify(ctx, st.UserInput, st.Context)
	st.Classification = &cls
	st.DemandState = cls.DemandState

	if cls.DemandState == mining.DemandSmartCompliant {
		return NodeIntentAnalysis, nil
	}
	return NodeClarifyRequirements, nil
}

func (e *Engine) clarifyRequirements(_ context.Context, st *mining.MiningState) (Node, error) {
	if e.limiter.shouldForce(st) {
		st.DemandState = mining.DemandSmartCompliant
		st.ForcedCompliant = true
		st.AddMessage("system", fmt.Sprintf(
			"clarification limit of %d rounds reached; proceeding with the current understanding", e.limiter.max))
		return NodeIntentAnalysis, nil
	}

	round := e.limiter.advance(st)

	var incoming []string
	if st.Classification != nil {
		incoming = st.Classification.ClarificationNeeded
	}
	fresh := dedupeQuestions(st.ClarificationQuestions, incoming)
	st.ClarificationQuestions = append(st.ClarificationQuestions, fresh...)
	for _, q := range fresh {
		st.Clarifications = append(st.Clarifications, mining.ClarificationRecord{Round: round, Question: q})
	}

	st.FeedbackType = mining.FeedbackClarification
	st.AddMessage("system", fmt.Sprintf("clarification round %d: %s", round, strings.Join(fresh, " | ")))
	return NodeWaitForFeedback, nil
}

func (e *Engine) intentAnalysis(ctx context.Context, st *mining.MiningState) (Node, error) {
	ia := e.analyzer.Analyze(ctx, st.UserInput, st.Context)
	st.Intent = &ia

	if isComplex(ia) {
		return NodeMetaArchitect, nil
	}
	return NodeSimpleStrategy, nil
}

// isComplex routes to the meta-architect path when the request spans at
// least two task categories and is not trivial.
func isComplex(ia mining.IntentAnalysis) bool {
	if len(ia.Categories) < 2 {
		return false
	}
	return ia.Complexity == "medium" || ia.Complexity == "high"
}

func (e *Engine) simpleStrategyFlow(ctx context.Context, st *mining.MiningState) (Node, error) {
	if st.SimpleStrategy == nil {
		s, err := e.planner.SimpleStrategy(ctx, st.UserInput, st.Intent, st.Context)
		if err != nil {
			return nodeEnd, err
		}
		st.SimpleStrategy = s
	}

	st.FeedbackType = mining.FeedbackSimpleStrategy
	st.AddMessage("system", "simple strategy ready; awaiting confirmation")
	return NodeWaitForFeedback, nil
}

func (e *Engine) metaArchitectFlow(ctx context.Context, st *mining.MiningState) (Node, error) {
	if st.Blueprint == nil {
		bp, err := e.planner.Plan(ctx, st.UserInput, st.UserResponses, st.Context)
		if err != nil {
			return nodeEnd, err
		}
		st.Blueprint = bp
	}

	st.FeedbackType = mining.FeedbackMetaArchitect
	st.AddMessage("system", "strategic blueprint ready; awaiting confirmation")
	return NodeWaitForFeedback, nil
}

func (e *Engine) generateRoadmap(ctx context.Context, st *mining.MiningState) (Node, error) {
	if st.Roadmap == nil {
		rm, err := e.planner.GenerateRoadmap(ctx, st.Blueprint, st.Context)
		if err != nil {
			return nodeEnd, err
		}
		st.Roadmap = rm
	}
	return NodePackageResults, nil
}

// waitForFeedback is the pause node: the only place a checkpoint is
// written. It always ends the invocation.
func (e *Engine) waitForFeedback(ctx context.Context, st *mining.MiningState) (Node, error) {
	st.Status = mining.StatusWaitingForFeedback
	st.LastFeedback = nil

	if err := e.store.Save(ctx, st.Context.SessionID, st); err != nil {
		return nodeEnd, fmt.Errorf("saving checkpoint: %w", err)
	}
	e.logger.Info("session paused", "session_id", st.Context.SessionID, "feedback_type", st.FeedbackType)
	return nodeEnd, nil
}

func (e *Engine) processClarification(_ context.Context, st *mining.MiningState) (Node, error) {
	fb := st.LastFeedback
	if fb != nil && len(fb.Responses) > 0 {
		st.UserInput = enrichWithResponses(st.UserInput, fb.Responses)
		st.UserResponses = append(st.UserResponses, fb.Responses...)
		fillResponses(st, fb.Responses)
	}

	st.FeedbackType = ""
	st.LastFeedback = nil
	return NodeAnalyzeDemand, nil
}

func (e *Engine) processAdjustment(_ context.Context, st *mining.MiningState) (Node, error) {
	fb := st.LastFeedback

	typ := st.FeedbackType
	if fb != nil {
		if fb.Type != "" {
			typ = fb.Type
		}
		if fb.Adjustments != "" {
			st.UserInput = enrichWithAdjustments(st.UserInput, fb.Adjustments)
			st.UserResponses = append(st.UserResponses, fb.Adjustments)
		}
	}

	st.FeedbackType = ""
	st.LastFeedback = nil

	switch typ {
	case mining.FeedbackMetaArchitect:
		// The branch decision already stands: regenerate the blueprint
		// with the adjusted input, skipping re-classification.
		st.Blueprint = nil
		st.Roadmap = nil
		return NodeMetaArchitect, nil
	default:
		st.SimpleStrategy = nil
		return NodeIntentAnalysis, nil
	}
}

func (e *Engine) packageResults(_ context.Context, st *mining.MiningState) (Node, error) {
	st.FinalRequirements = buildRequirements(st)
	st.Summary = buildSummary(st)
	st.AddMessage("system", "results packaged")
	return NodeFinalizeResult, nil
}

func (e *Engine) finalizeResult(_ context.Context, st *mining.MiningState) (Node, error) {
	st.Status = mining.StatusCompleted
	st.FeedbackType = ""
	st.LastFeedback = nil
	e.logger.Info("session completed", "session_id", st.Context.SessionID, "demand_state", st.DemandState)
	return nodeEnd, nil
}

// enrichWithResponses folds clarification answers into the working input
// so re-classification sees them.
func enrichWithResponses(input string, responses []string) string {
	var sb strings.Builder
	sb.WriteString(input)
	sb.WriteString("\n\nAdditional clarifications:")
	for _, r := range responses {
		sb.WriteString("\n- ")
		sb.WriteString(r)
	}
	return sb.String()
}

func enrichWithAdjustments(input, adjustments string) string {
	return input + "\n\nRequested adjustments:\n- " + adjustments
}

// fillResponses pairs incoming answers with the oldest unanswered
// clarification questions, in order. Extra answers are kept as records
// without a question.
func fillResponses(st *mining.MiningState, responses []string) {
	i := 0
	for idx := range st.Clarifications {
		if i >= len(responses) {
			return
		}
		if st.Clarifications[idx].Response == "" {
			st.Clarifications[idx].Response = responses[i]
			i++
		}
	}
	for ; i < len(responses); i++ {
		st.Clarifications = append(st.Clarifications, mining.ClarificationRecord{
			Round:    st.Context.CurrentRound,
			Response: responses[i],
		})
	}
}

func buildRequirements(st *mining.MiningState) []string {
	reqs := []string{st.OriginalInput}
	reqs = append(reqs, st.UserResponses...)
	return reqs
}

func buildSummary(st *mining.MiningState) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "demand: %s", st.DemandState)
	if st.ForcedCompliant {
		sb.WriteString(" (forced after clarification limit)")
	}
	if st.Intent != nil {
		fmt.Fprintf(&sb, "; intent: %s (%s)", strings.Join(st.Intent.Categories, "+"), st.Intent.Complexity)
	}
	switch {
	case st.Roadmap != nil:
		fmt.Fprintf(&sb, "; roadmap with %d phases", len(st.Roadmap.Phases))
	case st.SimpleStrategy != nil:
		fmt.Fprintf(&sb, "; simple strategy with %d steps", len(st.SimpleStrategy.Steps))
	}
	return sb.String()
}

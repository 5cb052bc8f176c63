package workflow

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/kalambet/reqmine/internal/checkpoint"
	"github.com/kalambet/reqmine/internal/mining"
)

// stubClassifier returns a canned classification, or runs fn when set.
type stubClassifier struct {
	result mining.Classification
	fn     func(text string) mining.Classification
	calls  int
}

func (s *stubClassifier) Classify(_ context.Context, text string, _ mining.Context) mining.Classification {
	s.calls++
	if s.fn != nil {
		return s.fn(text)
	}
	return s.result
}

type stubAnalyzer struct {
	result mining.IntentAnalysis
	calls  int
}

func (s *stubAnalyzer) Analyze(_ context.Context, _ string, _ mining.Context) mining.IntentAnalysis {
	s.calls++
	return s.result
}

type stubPlanner struct {
	strategyCalls, planCalls, roadmapCalls int
	strategyErr, planErr, roadmapErr       error
	lastProblem                            string
}

func (s *stubPlanner) SimpleStrategy(_ context.Context, problem string, _ *mining.IntentAnalysis, _ mining.Context) (*mining.SimpleStrategy, error) {
	s.strategyCalls++
	s.lastProblem = problem
	if s.strategyErr != nil {
		return nil, s.strategyErr
	}
	return &mining.SimpleStrategy{Approach: "direct", Steps: []string{"step one", "step two"}}, nil
}

func (s *stubPlanner) Plan(_ context.Context, problem string, _ []string, _ mining.Context) (*mining.Blueprint, error) {
	s.planCalls++
	s.lastProblem = problem
	if s.planErr != nil {
		return nil, s.planErr
	}
	return &mining.Blueprint{
		Architecture: "layered",
		Modules:      []mining.BlueprintModule{{Name: "ingest", Purpose: "pull data"}},
	}, nil
}

func (s *stubPlanner) GenerateRoadmap(_ context.Context, bp *mining.Blueprint, _ mining.Context) (*mining.Roadmap, error) {
	s.roadmapCalls++
	if s.roadmapErr != nil {
		return nil, s.roadmapErr
	}
	return &mining.Roadmap{Phases: []mining.RoadmapPhase{{Name: "build", Goal: "ship it", Steps: []string{"do"}}}}, nil
}

func compliant() mining.Classification {
	return mining.Classification{DemandState: mining.DemandSmartCompliant, Source: "model"}
}

func vague(questions ...string) mining.Classification {
	return mining.Classification{
		DemandState:         mining.DemandVagueUnclear,
		ClarificationNeeded: questions,
		Source:              "model",
	}
}

func simpleIntent() mining.IntentAnalysis {
	return mining.IntentAnalysis{Categories: []string{"analyze"}, Complexity: "low"}
}

func complexIntent() mining.IntentAnalysis {
	return mining.IntentAnalysis{Categories: []string{"collect", "analyze"}, Complexity: "medium"}
}

func newState(input string) *mining.MiningState {
	return &mining.MiningState{
		OriginalInput: input,
		UserInput:     input,
		Context:       mining.Context{SessionID: "sess-1", TaskID: "task-1"},
	}
}

func TestRun_VagueInputPausesForClarification(t *testing.T) {
	store := checkpoint.NewMemoryStore()
	cl := &stubClassifier{result: vague("What is the budget?", "What is the deadline?")}
	e := NewEngine(cl, &stubAnalyzer{}, &stubPlanner{}, store, 0)

	st := newState("help me")
	if err := e.Run(context.Background(), st); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if st.Status != mining.StatusWaitingForFeedback {
		t.Errorf("Status = %q, want %q", st.Status, mining.StatusWaitingForFeedback)
	}
	if st.FeedbackType != mining.FeedbackClarification {
		t.Errorf("FeedbackType = %q, want %q", st.FeedbackType, mining.FeedbackClarification)
	}
	if st.Context.CurrentRound != 1 {
		t.Errorf("CurrentRound = %d, want 1", st.Context.CurrentRound)
	}
	if len(st.ClarificationQuestions) != 2 {
		t.Errorf("ClarificationQuestions = %v, want 2 questions", st.ClarificationQuestions)
	}

	// Pausing must have checkpointed the full state.
	saved, err := store.Load(context.Background(), "sess-1")
	if err != nil {
		t.Fatalf("no checkpoint written at pause: %v", err)
	}
	if saved.OriginalInput != "help me" {
		t.Errorf("checkpointed OriginalInput = %q", saved.OriginalInput)
	}
}

func TestRun_CompliantSimplePathPausesForConfirmation(t *testing.T) {
	store := checkpoint.NewMemoryStore()
	pl := &stubPlanner{}
	e := NewEngine(&stubClassifier{result: compliant()}, &stubAnalyzer{result: simpleIntent()}, pl, store, 0)

	st := newState("Analyze Q2 2024 revenue growth for our SaaS product")
	if err := e.Run(context.Background(), st); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if st.FeedbackType != mining.FeedbackSimpleStrategy {
		t.Errorf("FeedbackType = %q, want %q", st.FeedbackType, mining.FeedbackSimpleStrategy)
	}
	if st.SimpleStrategy == nil {
		t.Fatal("SimpleStrategy not generated")
	}
	if pl.strategyCalls != 1 || pl.planCalls != 0 {
		t.Errorf("planner calls = %d strategy / %d plan, want 1 / 0", pl.strategyCalls, pl.planCalls)
	}
	if st.Context.CurrentRound != 0 {
		t.Errorf("CurrentRound = %d, want 0 (no clarification needed)", st.Context.CurrentRound)
	}
}

func TestRun_ComplexPathTakesMetaArchitect(t *testing.T) {
	store := checkpoint.NewMemoryStore()
	pl := &stubPlanner{}
	e := NewEngine(&stubClassifier{result: compliant()}, &stubAnalyzer{result: complexIntent()}, pl, store, 0)

	st := newState("Collect competitor data and analyze pricing trends for 2025")
	if err := e.Run(context.Background(), st); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if st.FeedbackType != mining.FeedbackMetaArchitect {
		t.Errorf("FeedbackType = %q, want %q", st.FeedbackType, mining.FeedbackMetaArchitect)
	}
	if st.Blueprint == nil {
		t.Fatal("Blueprint not generated")
	}
	if pl.planCalls != 1 || pl.strategyCalls != 0 {
		t.Errorf("planner calls = %d plan / %d strategy, want 1 / 0", pl.planCalls, pl.strategyCalls)
	}
}

func TestRun_RoundLimiterForcesProgressOnFourthAttempt(t *testing.T) {
	store := checkpoint.NewMemoryStore()
	cl := &stubClassifier{result: vague("Q?")}
	an := &stubAnalyzer{result: simpleIntent()}
	e := NewEngine(cl, an, &stubPlanner{}, store, 0)

	st := newState("vague request")

	// Three clarification rounds, each pausing.
	for round := 1; round <= 3; round++ {
		if err := e.Run(context.Background(), st); err != nil {
			t.Fatalf("Run() round %d error = %v", round, err)
		}
		if st.Context.CurrentRound != round {
			t.Fatalf("CurrentRound = %d, want %d", st.Context.CurrentRound, round)
		}
		if st.Status != mining.StatusWaitingForFeedback {
			t.Fatalf("round %d: Status = %q, want waiting", round, st.Status)
		}
		// Resume with no useful answers; classification stays vague.
		st.Status = mining.StatusProcessingFeedback
		st.LastFeedback = &mining.FeedbackPayload{Type: mining.FeedbackClarification}
	}

	// Fourth attempt: the limiter forces compliance instead of pausing again.
	if err := e.Run(context.Background(), st); err != nil {
		t.Fatalf("Run() forced round error = %v", err)
	}
	if st.Context.CurrentRound != 3 {
		t.Errorf("CurrentRound = %d, want 3 (never exceeds the bound)", st.Context.CurrentRound)
	}
	if !st.ForcedCompliant {
		t.Error("ForcedCompliant = false, want true")
	}
	if st.DemandState != mining.DemandSmartCompliant {
		t.Errorf("DemandState = %q, want forced %q", st.DemandState, mining.DemandSmartCompliant)
	}
	// It progressed past clarification into the planning path.
	if st.FeedbackType != mining.FeedbackSimpleStrategy {
		t.Errorf("FeedbackType = %q, want %q", st.FeedbackType, mining.FeedbackSimpleStrategy)
	}
	if an.calls != 1 {
		t.Errorf("analyzer calls = %d, want 1", an.calls)
	}
}

func TestRun_ClarificationResumeEnrichesInputAndReclassifies(t *testing.T) {
	store := checkpoint.NewMemoryStore()
	cl := &stubClassifier{fn: func(text string) mining.Classification {
		if strings.Contains(text, "budget is $10k") {
			return compliant()
		}
		return vague("Q1 what is the budget?")
	}}
	e := NewEngine(cl, &stubAnalyzer{result: simpleIntent()}, &stubPlanner{}, store, 0)

	st := newState("help me with a report")
	if err := e.Run(context.Background(), st); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if st.FeedbackType != mining.FeedbackClarification {
		t.Fatalf("expected clarification pause, got %q", st.FeedbackType)
	}

	st.Status = mining.StatusProcessingFeedback
	st.LastFeedback = &mining.FeedbackPayload{
		Type:      mining.FeedbackClarification,
		Responses: []string{"Q1 budget is $10k"},
	}
	if err := e.Run(context.Background(), st); err != nil {
		t.Fatalf("Run(resume) error = %v", err)
	}

	if !strings.Contains(st.UserInput, "help me with a report") {
		t.Errorf("enriched input lost the original text: %q", st.UserInput)
	}
	if !strings.Contains(st.UserInput, "Q1 budget is $10k") {
		t.Errorf("enriched input lost the response: %q", st.UserInput)
	}
	if cl.calls != 2 {
		t.Errorf("classifier calls = %d, want 2 (re-classification after enrichment)", cl.calls)
	}
	// The clarification record carries the paired answer.
	if len(st.Clarifications) == 0 || st.Clarifications[0].Response != "Q1 budget is $10k" {
		t.Errorf("Clarifications = %+v, want paired response", st.Clarifications)
	}
}

func TestRun_SimpleConfirmationSkipsPlanner(t *testing.T) {
	store := checkpoint.NewMemoryStore()
	pl := &stubPlanner{}
	e := NewEngine(&stubClassifier{result: compliant()}, &stubAnalyzer{result: simpleIntent()}, pl, store, 0)

	st := newState("Analyze Q2 revenue")
	if err := e.Run(context.Background(), st); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	st.Status = mining.StatusProcessingFeedback
	st.LastFeedback = &mining.FeedbackPayload{Type: mining.FeedbackSimpleStrategy, Confirmation: true}
	if err := e.Run(context.Background(), st); err != nil {
		t.Fatalf("Run(resume) error = %v", err)
	}

	if st.Status != mining.StatusCompleted {
		t.Errorf("Status = %q, want %q", st.Status, mining.StatusCompleted)
	}
	if pl.strategyCalls != 1 {
		t.Errorf("strategy calls = %d, want 1 (not re-invoked on confirmation)", pl.strategyCalls)
	}
	if len(st.FinalRequirements) == 0 || st.FinalRequirements[0] != "Analyze Q2 revenue" {
		t.Errorf("FinalRequirements = %v", st.FinalRequirements)
	}
}

func TestRun_MetaRejectionReentersArchitectDirectly(t *testing.T) {
	store := checkpoint.NewMemoryStore()
	cl := &stubClassifier{result: compliant()}
	pl := &stubPlanner{}
	e := NewEngine(cl, &stubAnalyzer{result: complexIntent()}, pl, store, 0)

	st := newState("Collect and analyze market data")
	if err := e.Run(context.Background(), st); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if pl.planCalls != 1 {
		t.Fatalf("plan calls = %d, want 1", pl.planCalls)
	}

	st.Status = mining.StatusProcessingFeedback
	st.LastFeedback = &mining.FeedbackPayload{
		Type:         mining.FeedbackMetaArchitect,
		Confirmation: false,
		Adjustments:  "narrow scope to EU market",
	}
	if err := e.Run(context.Background(), st); err != nil {
		t.Fatalf("Run(resume) error = %v", err)
	}

	// Re-planning happened with the adjusted input, without re-classification.
	if pl.planCalls != 2 {
		t.Errorf("plan calls = %d, want 2", pl.planCalls)
	}
	if pl.strategyCalls != 0 {
		t.Errorf("strategy calls = %d, want 0 (complex branch stands)", pl.strategyCalls)
	}
	if cl.calls != 1 {
		t.Errorf("classifier calls = %d, want 1 (no re-classification)", cl.calls)
	}
	if !strings.Contains(pl.lastProblem, "narrow scope to EU market") {
		t.Errorf("re-plan input missing adjustments: %q", pl.lastProblem)
	}
	if st.FeedbackType != mining.FeedbackMetaArchitect {
		t.Errorf("FeedbackType = %q, want another meta confirmation pause", st.FeedbackType)
	}
}

func TestRun_MetaConfirmationGeneratesRoadmapAndCompletes(t *testing.T) {
	store := checkpoint.NewMemoryStore()
	pl := &stubPlanner{}
	e := NewEngine(&stubClassifier{result: compliant()}, &stubAnalyzer{result: complexIntent()}, pl, store, 0)

	st := newState("Collect and analyze market data")
	if err := e.Run(context.Background(), st); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	st.Status = mining.StatusProcessingFeedback
	st.LastFeedback = &mining.FeedbackPayload{Type: mining.FeedbackMetaArchitect, Confirmation: true}
	if err := e.Run(context.Background(), st); err != nil {
		t.Fatalf("Run(resume) error = %v", err)
	}

	if st.Status != mining.StatusCompleted {
		t.Errorf("Status = %q, want %q", st.Status, mining.StatusCompleted)
	}
	if st.Roadmap == nil || len(st.Roadmap.Phases) == 0 {
		t.Fatal("Roadmap not generated")
	}
	if pl.roadmapCalls != 1 || pl.planCalls != 1 {
		t.Errorf("planner calls = %d roadmap / %d plan, want 1 / 1", pl.roadmapCalls, pl.planCalls)
	}
}

func TestRun_UnknownFeedbackTypeFallsBackToPackaging(t *testing.T) {
	store := checkpoint.NewMemoryStore()
	e := NewEngine(&stubClassifier{result: compliant()}, &stubAnalyzer{result: simpleIntent()}, &stubPlanner{}, store, 0)

	st := newState("Analyze Q2 revenue")
	if err := e.Run(context.Background(), st); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	st.Status = mining.StatusProcessingFeedback
	st.LastFeedback = &mining.FeedbackPayload{Type: "mystery_type", Confirmation: true}
	if err := e.Run(context.Background(), st); err != nil {
		t.Fatalf("Run(resume) error = %v", err)
	}

	if st.Status != mining.StatusCompleted {
		t.Errorf("Status = %q, want %q (unknown type packages rather than failing)", st.Status, mining.StatusCompleted)
	}
}

func TestRun_PlannerFailureBecomesNodeError(t *testing.T) {
	store := checkpoint.NewMemoryStore()
	pl := &stubPlanner{strategyErr: errors.New("model offline")}
	e := NewEngine(&stubClassifier{result: compliant()}, &stubAnalyzer{result: simpleIntent()}, pl, store, 0)

	st := newState("Analyze Q2 revenue")
	err := e.Run(context.Background(), st)
	if err == nil {
		t.Fatal("expected error, got nil")
	}

	var nodeErr *NodeError
	if !errors.As(err, &nodeErr) {
		t.Fatalf("error type = %T, want *NodeError", err)
	}
	if nodeErr.Node != NodeSimpleStrategy {
		t.Errorf("failing node = %q, want %q", nodeErr.Node, NodeSimpleStrategy)
	}
	if nodeErr.SessionID != "sess-1" {
		t.Errorf("SessionID = %q, want sess-1", nodeErr.SessionID)
	}
	if st.Status != mining.StatusError {
		t.Errorf("Status = %q, want %q", st.Status, mining.StatusError)
	}
	if st.Err == "" {
		t.Error("state error not recorded")
	}
}

func TestEveryRoutingNodeHasHandler(t *testing.T) {
	e := NewEngine(&stubClassifier{}, &stubAnalyzer{}, &stubPlanner{}, checkpoint.NewMemoryStore(), 0)

	routing := []Node{
		NodeAnalyzeDemand,
		NodeClarifyRequirements,
		NodeIntentAnalysis,
		NodeSimpleStrategy,
		NodeMetaArchitect,
		NodeGenerateRoadmap,
		NodeWaitForFeedback,
		NodeProcessClarification,
		NodeProcessAdjustment,
		NodePackageResults,
		NodeFinalizeResult,
	}
	for _, n := range routing {
		if _, ok := e.handlers[n]; !ok {
			t.Errorf("node %q has no handler", n)
		}
	}

	// The error terminal is not dispatchable: failures are recorded by
	// the engine itself, never routed to a handler.
	if _, ok := e.handlers[nodeErrorTerminal]; ok {
		t.Errorf("node %q must not have a handler", nodeErrorTerminal)
	}
}

func TestRun_DemandStateNeverEmpty(t *testing.T) {
	// Even a classifier that reports nothing useful must leave a state,
	// because the adapter's fallback chain always fills one in. At the
	// engine level we assert the value that was reported is kept.
	store := checkpoint.NewMemoryStore()
	cl := &stubClassifier{result: mining.Classification{DemandState: mining.DemandSmartLargeScope, Source: "default"}}
	e := NewEngine(cl, &stubAnalyzer{result: simpleIntent()}, &stubPlanner{}, store, 0)

	st := newState("???")
	if err := e.Run(context.Background(), st); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if st.DemandState == "" {
		t.Error("DemandState is empty")
	}
}

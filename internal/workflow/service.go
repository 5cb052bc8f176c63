package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kalambet/reqmine/internal/checkpoint"
	"github.com/kalambet/reqmine/internal/mining"
)

// Service is the public facade over the engine. It owns session id
// assignment and serializes all calls for one session id, so concurrent
// resumes of the same session cannot interleave.
type Service struct {
	engine *Engine
	store  checkpoint.Store
	logger *slog.Logger

	mu       sync.Mutex
	sessions map[string]*sync.Mutex
}

// NewService creates a Service around the given engine and store. The
// store must be the same one the engine checkpoints into.
func NewService(engine *Engine, store checkpoint.Store) *Service {
	return &Service{
		engine:   engine,
		store:    store,
		logger:   slog.Default(),
		sessions: make(map[string]*sync.Mutex),
	}
}

// lockSession acquires the per-session mutex, creating it on first use.
func (s *Service) lockSession(id string) func() {
	s.mu.Lock()
	m, ok := s.sessions[id]
	if !ok {
		m = &sync.Mutex{}
		s.sessions[id] = m
	}
	s.mu.Unlock()

	m.Lock()
	return m.Unlock
}

// MineRequirements starts a new session for userInput. The returned
// result is either paused awaiting feedback or completed outright.
func (s *Service) MineRequirements(ctx context.Context, userInput string, mctx mining.Context) (*mining.MiningResult, error) {
	if strings.TrimSpace(userInput) == "" {
		return nil, mining.ErrEmptyInput
	}

	start := time.Now()
	if mctx.SessionID == "" {
		mctx.SessionID = uuid.NewString()
	}
	if mctx.TaskID == "" {
		mctx.TaskID = uuid.NewString()
	}
	if mctx.Timestamp.IsZero() {
		mctx.Timestamp = time.Now().UTC()
	}

	unlock := s.lockSession(mctx.SessionID)
	defer unlock()

	st := &mining.MiningState{
		OriginalInput: userInput,
		UserInput:     userInput,
		Context:       mctx,
	}
	st.AddMessage("user", userInput)

	s.logger.Info("mining started", "session_id", mctx.SessionID, "task_id", mctx.TaskID)

	if err := s.engine.Run(ctx, st); err != nil {
		return nil, err
	}
	return buildResult(st, time.Since(start)), nil
}

// ResumeWorkflow loads the last checkpoint for sessionID, overlays the
// feedback, and re-enters the graph through the dispatcher.
func (s *Service) ResumeWorkflow(ctx context.Context, sessionID string, fb mining.FeedbackPayload) (*mining.MiningResult, error) {
	if strings.TrimSpace(sessionID) == "" {
		return nil, fmt.Errorf("%w: empty session id", mining.ErrSessionNotFound)
	}

	start := time.Now()

	unlock := s.lockSession(sessionID)
	defer unlock()

	st, err := s.store.Load(ctx, sessionID)
	if errors.Is(err, checkpoint.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", mining.ErrSessionNotFound, sessionID)
	}
	if err != nil {
		return nil, fmt.Errorf("loading session %s: %w", sessionID, err)
	}

	st.Status = mining.StatusProcessingFeedback
	st.LastFeedback = &fb
	switch {
	case len(fb.Responses) > 0:
		st.AddMessage("user", strings.Join(fb.Responses, "\n"))
	case fb.Adjustments != "":
		st.AddMessage("user", fb.Adjustments)
	}

	s.logger.Info("session resumed", "session_id", sessionID, "feedback_type", fb.Type, "confirmation", fb.Confirmation)

	if err := s.engine.Run(ctx, st); err != nil {
		return nil, err
	}
	return buildResult(st, time.Since(start)), nil
}

// Sessions lists checkpointed session ids, most recently updated first.
// Stores without listing support yield an empty list.
func (s *Service) Sessions(ctx context.Context) ([]string, error) {
	lister, ok := s.store.(interface {
		Sessions(ctx context.Context) ([]string, error)
	})
	if !ok {
		return nil, nil
	}
	return lister.Sessions(ctx)
}

// Inspect returns the result view of a paused session without advancing it.
func (s *Service) Inspect(ctx context.Context, sessionID string) (*mining.MiningResult, error) {
	st, err := s.store.Load(ctx, sessionID)
	if errors.Is(err, checkpoint.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", mining.ErrSessionNotFound, sessionID)
	}
	if err != nil {
		return nil, fmt.Errorf("loading session %s: %w", sessionID, err)
	}
	return buildResult(st, 0), nil
}

func buildResult(st *mining.MiningState, elapsed time.Duration) *mining.MiningResult {
	return &mining.MiningResult{
		SessionID:            st.Context.SessionID,
		TaskID:               st.Context.TaskID,
		OriginalInput:        st.OriginalInput,
		FinalRequirements:    st.FinalRequirements,
		DemandState:          st.DemandState,
		SmartAnalysis:        st.Classification,
		ClarificationHistory: st.Clarifications,
		ProcessingTimeMs:     elapsed.Milliseconds(),
		IntentAnalysis:       st.Intent,
		SimpleStrategyResult: st.SimpleStrategy,
		MetaArchitectResult:  st.Blueprint,
		Roadmap:              st.Roadmap,
		Messages:             st.Messages,
		Status:               st.Status,
		Error:                st.Err,
		Summary:              st.Summary,
		PendingQuestions:     pendingQuestions(st),
		FeedbackType:         st.FeedbackType,
	}
}

// pendingQuestions lists the unanswered questions a paused clarification
// round is waiting on.
func pendingQuestions(st *mining.MiningState) []string {
	if st.Status != mining.StatusWaitingForFeedback || st.FeedbackType != mining.FeedbackClarification {
		return nil
	}
	var out []string
	for _, rec := range st.Clarifications {
		if rec.Question != "" && rec.Response == "" {
			out = append(out, rec.Question)
		}
	}
	return out
}

package mining

import (
	"errors"
	"time"
)

// ErrEmptyInput is returned when a mining request carries no user input.
var ErrEmptyInput = errors.New("user input is empty")

// ErrSessionNotFound is returned when a resume targets a session with no
// stored checkpoint (unknown id, or expired and cleaned up externally).
var ErrSessionNotFound = errors.New("session not found")

// DemandState classifies how well-specified a user request is.
type DemandState string

const (
	DemandVagueUnclear    DemandState = "vague_unclear"
	DemandSmartCompliant  DemandState = "smart_compliant"
	DemandSmartLargeScope DemandState = "smart_large_scope"
)

// Valid reports whether d is one of the three known demand states.
func (d DemandState) Valid() bool {
	switch d {
	case DemandVagueUnclear, DemandSmartCompliant, DemandSmartLargeScope:
		return true
	}
	return false
}

// ServiceStatus is the lifecycle status of a mining session.
type ServiceStatus string

const (
	StatusCompleted          ServiceStatus = "completed"
	StatusWaitingForFeedback ServiceStatus = "waiting_for_user_feedback"
	StatusProcessingFeedback ServiceStatus = "processing_feedback"
	StatusError              ServiceStatus = "error"
)

// FeedbackType names the pending decision a paused session is waiting on.
type FeedbackType string

const (
	FeedbackClarification  FeedbackType = "clarification"
	FeedbackSimpleStrategy FeedbackType = "simple_strategy_confirmation"
	FeedbackMetaArchitect  FeedbackType = "meta_architect_confirmation"
)

// Context is per-call metadata threaded through every workflow node.
// All fields except CurrentRound are set once at session creation.
type Context struct {
	SessionID    string    `json:"session_id"`
	TaskID       string    `json:"task_id"`
	Domain       string    `json:"domain,omitempty"`
	UserID       string    `json:"user_id,omitempty"`
	Timestamp    time.Time `json:"timestamp"`
	CurrentRound int       `json:"current_round"`
}

// Message is one entry in the session transcript.
type Message struct {
	Role    string    `json:"role"` // "system" or "user"
	Content string    `json:"content"`
	At      time.Time `json:"at"`
}

// ClarificationRecord pairs a clarification question with the user's answer.
type ClarificationRecord struct {
	Round    int    `json:"round"`
	Question string `json:"question"`
	Response string `json:"response,omitempty"`
}

// CriteriaAnalysis is the classifier's SMART-criteria breakdown.
type CriteriaAnalysis struct {
	CriteriaMet int    `json:"criteria_met"` // how many of the five SMART criteria hold
	Scope       string `json:"scope"`        // "narrow", "moderate", or "broad"
}

// Classification is the demand classifier's full output. Source records
// which tier produced the demand state: "model", "criteria", "heuristic",
// or "default".
type Classification struct {
	DemandState         DemandState      `json:"demand_state"`
	Criteria            CriteriaAnalysis `json:"criteria"`
	ClarificationNeeded []string         `json:"clarification_needed,omitempty"`
	Reasoning           string           `json:"reasoning,omitempty"`
	Source              string           `json:"source"`
}

// IntentAnalysis describes what kind of work the request asks for.
// Categories is a subset of {collect, process, analyze, generate}.
type IntentAnalysis struct {
	Categories []string `json:"categories"`
	Complexity string   `json:"complexity"` // "low", "medium", or "high"
	Summary    string   `json:"summary,omitempty"`
}

// SimpleStrategy is the planner's lightweight result for simple requests.
type SimpleStrategy struct {
	Approach    string   `json:"approach"`
	Steps       []string `json:"steps"`
	Deliverable string   `json:"deliverable,omitempty"`
}

// BlueprintModule is one component of a strategic blueprint.
type BlueprintModule struct {
	Name    string `json:"name"`
	Purpose string `json:"purpose"`
}

// Blueprint is the strategic planner's solution design for complex requests.
type Blueprint struct {
	Architecture string            `json:"architecture"`
	Modules      []BlueprintModule `json:"modules"`
	Risks        []string          `json:"risks,omitempty"`
}

// RoadmapPhase is one phase of an execution roadmap.
type RoadmapPhase struct {
	Name  string   `json:"name"`
	Goal  string   `json:"goal"`
	Steps []string `json:"steps"`
}

// Roadmap is the step-by-step execution plan derived from a blueprint.
type Roadmap struct {
	Phases []RoadmapPhase `json:"phases"`
}

// FeedbackPayload is the caller-supplied answer to a paused session.
type FeedbackPayload struct {
	Type         FeedbackType `json:"type"`
	Confirmation bool         `json:"confirmation"`
	Responses    []string     `json:"responses,omitempty"`
	Adjustments  string       `json:"adjustments,omitempty"`
}

// MiningState is the full mutable workflow record for one session. It is
// the unit of checkpointing: serialized as-is at every pause and restored
// whole on resume.
type MiningState struct {
	OriginalInput string  `json:"original_input"`
	UserInput     string  `json:"user_input"` // possibly clarification-enriched
	Context       Context `json:"context"`

	DemandState    DemandState     `json:"demand_state,omitempty"`
	Classification *Classification `json:"classification,omitempty"`

	ClarificationQuestions []string              `json:"clarification_questions,omitempty"`
	Clarifications         []ClarificationRecord `json:"clarifications,omitempty"`
	ForcedCompliant        bool                  `json:"forced_compliant,omitempty"`

	Messages []Message `json:"messages,omitempty"`

	FeedbackType  FeedbackType     `json:"feedback_type,omitempty"`
	LastFeedback  *FeedbackPayload `json:"last_feedback,omitempty"`
	UserResponses []string         `json:"user_responses,omitempty"`

	Status ServiceStatus `json:"status"`
	Err    string        `json:"error,omitempty"`

	Intent         *IntentAnalysis `json:"intent,omitempty"`
	SimpleStrategy *SimpleStrategy `json:"simple_strategy,omitempty"`
	Blueprint      *Blueprint      `json:"blueprint,omitempty"`
	Roadmap        *Roadmap        `json:"roadmap,omitempty"`

	FinalRequirements []string `json:"final_requirements,omitempty"`
	Summary           string   `json:"summary,omitempty"`
}

// AddMessage appends a transcript entry.
func (s *MiningState) AddMessage(role, content string) {
	s.Messages = append(s.Messages, Message{Role: role, Content: content, At: time.Now().UTC()})
}

// MiningResult is the caller-facing view of a session after an invocation
// returns, whether paused, completed, or failed.
type MiningResult struct {
	SessionID            string                `json:"session_id"`
	TaskID               string                `json:"task_id"`
	OriginalInput        string                `json:"original_input"`
	FinalRequirements    []string              `json:"final_requirements,omitempty"`
	DemandState          DemandState           `json:"demand_state"`
	SmartAnalysis        *Classification       `json:"smart_analysis,omitempty"`
	ClarificationHistory []ClarificationRecord `json:"clarification_history,omitempty"`
	ProcessingTimeMs     int64                 `json:"processing_time_ms"`
	IntentAnalysis       *IntentAnalysis       `json:"intent_analysis,omitempty"`
	SimpleStrategyResult *SimpleStrategy       `json:"simple_strategy_result,omitempty"`
	MetaArchitectResult  *Blueprint            `json:"meta_architect_result,omitempty"`
	Roadmap              *Roadmap              `json:"roadmap,omitempty"`
	Messages             []Message             `json:"messages,omitempty"`
	Status               ServiceStatus         `json:"status"`
	Error                string                `json:"error,omitempty"`
	Summary              string                `json:"summary,omitempty"`
	PendingQuestions     []string              `json:"pending_questions,omitempty"`
	FeedbackType         FeedbackType          `json:"feedback_type,omitempty"`
}

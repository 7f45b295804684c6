package conversation

// Role identifies the author of a conversation message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// Message is a single entry in the conversation history.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Interpretation is the structured proposal produced by the upstream
// interpreter for the current question. Confidence is in [0, 1]; a missing
// interpretation is treated as confidence 0.
type Interpretation struct {
	Tables       []string `json:"tables,omitempty"`
	Columns      []string `json:"columns,omitempty"`
	Filters      []string `json:"filters,omitempty"`
	Aggregations []string `json:"aggregations,omitempty"`
	Joins        []string `json:"joins,omitempty"`
	Confidence   float64  `json:"confidence"`
}

// RequestKind discriminates the pause payload returned to the caller.
type RequestKind string

const (
	ChoiceSelection      RequestKind = "CHOICE_SELECTION"
	Confirmation         RequestKind = "CONFIRMATION"
	GeneralClarification RequestKind = "GENERAL_CLARIFICATION"
)

// Option is one selectable answer offered in a pause payload.
type Option struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	Description string `json:"description,omitempty"`
}

// PendingRequest is the last interrupt payload issued for a thread. It is
// returned to the caller verbatim and stored on the state until a human
// response is applied.
type PendingRequest struct {
	Source            string      `json:"source"`
	Kind              RequestKind `json:"kind"`
	Prompt            string      `json:"prompt_text"`
	Options           []Option    `json:"options,omitempty"`
	MultipleSelection bool        `json:"multiple_selection"`
}

// State is the single mutable record threaded through every pipeline stage.
// Identity is ThreadID; everything else is per-turn working data that is
// checkpointed whenever the pipeline pauses.
type State struct {
	ThreadID     string    `json:"thread_id"`
	UserQuestion string    `json:"user_question,omitempty"`
	History      []Message `json:"conversation_history,omitempty"`

	Interpretation *Interpretation `json:"interpretation,omitempty"`

	DomainCheckFailed     bool `json:"domain_check_failed"`
	HumanApprovalNeeded   bool `json:"human_approval_needed"`
	IntentApproved        bool `json:"intent_approved"`
	ClarificationNeeded   bool `json:"clarification_needed"`
	ClarificationResolved bool `json:"clarification_resolved"`

	PendingRequest           *PendingRequest `json:"pending_request,omitempty"`
	LastStageBeforeInterrupt string          `json:"last_stage_before_interrupt,omitempty"`

	// ContextWindow is the clipped view of History that downstream
	// formatters may see. Rebuilt every turn by the context-clip stage;
	// never persisted.
	ContextWindow []Message `json:"-"`

	// Downstream query pipeline scratch. The core only sequences these
	// stages; the transforms themselves are injected collaborators.
	Query       string `json:"query,omitempty"`
	QueryResult string `json:"query_result,omitempty"`
	FinalAnswer string `json:"final_answer,omitempty"`

	Error string `json:"error,omitempty"`
}

// New creates the state for a thread's first turn.
func New(threadID string) *State {
	return &State{ThreadID: threadID}
}

// AppendMessage appends a turn to the conversation history. History is
// append-only; it never shrinks across turns.
func (s *State) AppendMessage(role Role, content string) {
	s.History = append(s.History, Message{Role: role, Content: content})
}

// RecentHistory returns the last n messages without mutating the full
// history. Formatters and model-facing collaborators should only ever see
// this window.
func (s *State) RecentHistory(n int) []Message {
	if n <= 0 || len(s.History) <= n {
		return s.History
	}
	return s.History[len(s.History)-n:]
}

// Paused reports whether the pipeline is suspended awaiting a human
// response. Exactly one of the two pause flags may be set at a pause.
func (s *State) Paused() bool {
	return s.HumanApprovalNeeded || s.ClarificationNeeded
}

// Confidence returns the interpretation confidence, treating a missing
// interpretation as 0.
func (s *State) Confidence() float64 {
	if s.Interpretation == nil {
		return 0
	}
	return s.Interpretation.Confidence
}

// ClearPause drops both pause flags and the pending request. Called when a
// human response has been applied and the graph is about to resume.
func (s *State) ClearPause() {
	s.HumanApprovalNeeded = false
	s.ClarificationNeeded = false
	s.PendingRequest = nil
}

// BeginTurn resets the per-turn working fields for a fresh question while
// keeping thread identity and accumulated history.
func (s *State) BeginTurn(question string) {
	s.UserQuestion = question
	s.Interpretation = nil
	s.DomainCheckFailed = false
	s.IntentApproved = false
	s.ClarificationResolved = false
	s.Query = ""
	s.QueryResult = ""
	s.FinalAnswer = ""
	s.Error = ""
	s.ClearPause()
	s.LastStageBeforeInterrupt = ""
	s.AppendMessage(RoleUser, question)
}

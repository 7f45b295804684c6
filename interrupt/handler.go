package interrupt

import (
	"github.com/smallnest/queryflow/conversation"
	"github.com/smallnest/queryflow/log"
)

// Handler applies a human response back into a paused conversation state.
// After Apply returns, the state is either unpaused and ready to resume, or
// re-armed with a fresh pending request (confirmation denial).
type Handler struct {
	logger log.Logger
}

// NewHandler creates a response handler.
func NewHandler() *Handler {
	return &Handler{logger: log.GetDefaultLogger()}
}

// NewHandlerWithLogger creates a response handler with an explicit logger.
func NewHandlerWithLogger(l log.Logger) *Handler {
	return &Handler{logger: l}
}

// Apply merges a human response into the state. Unrecognized or malformed
// responses fail open: the pause is cleared and the intent approved, so a
// garbled answer can never strand the conversation. Apply never returns an
// error for the same reason.
func (h *Handler) Apply(s *conversation.State, resp *Response) {
	defer func() {
		if p := recover(); p != nil {
			h.logger.Warn("response handling panicked, failing open: %v", p)
			h.failOpen(s)
		}
	}()

	if resp == nil {
		h.logger.Warn("nil human response, failing open")
		h.failOpen(s)
		return
	}

	switch resp.Type {
	case TypeChoiceSelection:
		if resp.Data.SelectedOption == "" {
			h.logger.Warn("choice selection without a selected option, failing open")
			h.failOpen(s)
			return
		}
		if s.Interpretation == nil {
			s.Interpretation = &conversation.Interpretation{}
		}
		s.Interpretation.Columns = []string{resp.Data.SelectedOption}
		s.ClarificationResolved = true
		s.ClearPause()
		s.IntentApproved = true

	case TypeConfirmation:
		if resp.Data.Confirmed {
			s.ClearPause()
			s.IntentApproved = true
			return
		}
		// The user rejected the proposed interpretation. Re-arm the pause
		// with an open question instead of terminating the turn.
		s.PendingRequest = &conversation.PendingRequest{
			Source: "response_handler",
			Kind:   conversation.GeneralClarification,
			Prompt: "Understood. What did I get wrong about your question?",
		}
		s.HumanApprovalNeeded = true
		s.ClarificationNeeded = false
		s.IntentApproved = false

	default:
		h.logger.Warn("unrecognized response type %q, failing open", resp.Type)
		h.failOpen(s)
	}
}

func (h *Handler) failOpen(s *conversation.State) {
	s.ClearPause()
	s.IntentApproved = true
}

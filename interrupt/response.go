package interrupt

// ResponseType discriminates a human response to a pause.
type ResponseType string

const (
	TypeChoiceSelection ResponseType = "choice_selection"
	TypeConfirmation    ResponseType = "confirmation"
	TypeOther           ResponseType = "other"
)

// ResponseData carries the payload of a human response. Which fields are
// meaningful depends on the response type.
type ResponseData struct {
	// SelectedOption is the chosen option id for a choice selection.
	SelectedOption string `json:"selected_option,omitempty"`

	// Confirmed answers a confirmation request.
	Confirmed bool `json:"confirmed"`

	// Text is free-form input, used for general clarification answers.
	Text string `json:"text,omitempty"`
}

// Response is a human answer to a previously issued pause payload.
type Response struct {
	Type ResponseType `json:"type"`
	Data ResponseData `json:"response_data"`
}

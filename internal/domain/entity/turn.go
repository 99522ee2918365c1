package entity

// IntentSource names where the actions of a turn came from.
type IntentSource string

const (
	SourceNone    IntentSource = "none"
	SourceModel   IntentSource = "model"
	SourceMessage IntentSource = "message"
)

const DefaultMode = "companion"

// Turn is one user message handed to the agent loop.
type Turn struct {
	ID      string
	Message string
	Mode    string
}

type TurnResult struct {
	TurnID  string       `json:"turn_id"`
	Reply   string       `json:"response"`
	Mode    string       `json:"mode"`
	Source  IntentSource `json:"source"`
	Skipped int          `json:"skipped_segments,omitempty"`
	Blocked []Action     `json:"blocked,omitempty"`
	Steps   []StepResult `json:"actions"`
}

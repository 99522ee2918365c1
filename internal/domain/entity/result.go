package entity

import "time"

// ActionResult is the uniform envelope returned for every dispatched action.
type ActionResult struct {
	Success bool           `json:"success"`
	Data    map[string]any `json:"data,omitempty"`
	Error   string         `json:"error,omitempty"`
}

func Succeeded(data map[string]any) ActionResult {
	return ActionResult{Success: true, Data: data}
}

func Failed(err error) ActionResult {
	if err == nil {
		return ActionResult{}
	}
	return ActionResult{Error: err.Error()}
}

// StepResult pairs an action of a batch with its outcome.
type StepResult struct {
	Action Action       `json:"action"`
	Result ActionResult `json:"result"`
	// Elapsed covers the dispatch only, not the pause before it.
	Elapsed time.Duration `json:"-"`
}

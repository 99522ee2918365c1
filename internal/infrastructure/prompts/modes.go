package prompts

const (
	ModeCompanion = "companion"
	ModeAdvisor   = "advisor"
	ModeGuardian  = "guardian"
)

var modeDescriptions = map[string]string{
	ModeCompanion: "You are in companion mode: warm, casual, supportive. Use friendly language.",
	ModeAdvisor:   "You are in advisor mode: analytical, structured, always cite sources when stating facts.",
	ModeGuardian:  "You are in guardian mode: protective, safety-first. Refuse unsafe requests clearly.",
}

// ModeDescription falls back to companion for unknown modes.
func ModeDescription(mode string) string {
	if d, ok := modeDescriptions[mode]; ok {
		return d
	}
	return modeDescriptions[ModeCompanion]
}

func KnownMode(mode string) bool {
	_, ok := modeDescriptions[mode]
	return ok
}

package intent

import "strings"

var triggerKeywords = []string{
	// navigation verbs
	"go to", "open", "visit", "navigate", "search", "look up", "find", "click", "scroll",
	// site names
	"youtube", "google", "duckduckgo", "twitter", "facebook", "stackoverflow", "reddit", "website",
	// page inspection
	"this page", "the page", "on screen", "what do you see", "screenshot",
}

// ShouldTriggerAutomation is a cheap surface check for messages that probably
// want the browser. False positives are fine: resolution still needs a match.
func ShouldTriggerAutomation(message string) bool {
	lower := strings.ToLower(message)
	for _, kw := range triggerKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// AsksAboutPage reports whether the message refers to what is on the page,
// which is when the caller should feed perception into the prompt.
func AsksAboutPage(message string) bool {
	lower := strings.ToLower(message)
	return strings.Contains(lower, "see") || strings.Contains(lower, "page")
}

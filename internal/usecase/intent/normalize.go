package intent

import "strings"

type knownSite struct {
	name string
	url  string
}

// knownSites is checked in order; the first name found as a substring wins.
var knownSites = []knownSite{
	{"youtube", "https://youtube.com"},
	{"duckduckgo", "https://duckduckgo.com"},
	{"google", "https://google.com"},
	{"twitter", "https://twitter.com"},
	{"facebook", "https://facebook.com"},
	{"stackoverflow", "https://stackoverflow.com"},
	{"reddit", "https://reddit.com"},
}

// NormalizeURL turns a loosely written destination into an https URL. It is a
// best-effort heuristic, not a validator.
func NormalizeURL(raw string) string {
	target := cleanCapture(raw)
	if target == "" {
		return ""
	}

	lower := strings.ToLower(target)
	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") {
		return target
	}

	for _, site := range knownSites {
		if strings.Contains(lower, site.name) {
			return site.url
		}
	}

	return "https://" + target
}

// cleanCapture trims whitespace and trailing sentence punctuation.
func cleanCapture(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimRight(s, "?.,!")
	return strings.TrimSpace(s)
}

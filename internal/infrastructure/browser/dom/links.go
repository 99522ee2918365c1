// Package dom reads page HTML without a browser round trip.
package dom

import (
	"fmt"
	"net/url"
	"strings"

	"golang.org/x/net/html"

	"browser-pilot/internal/application/port/output"
	"browser-pilot/internal/domain/entity"
)

var _ output.LinkExtractor = (*LinkExtractor)(nil)

const maxLinkText = 120

// skipTags are never searched for anchors.
var skipTags = []string{"script", "style", "noscript", "svg", "template", "head"}

type LinkExtractor struct{}

func NewLinkExtractor() *LinkExtractor {
	return &LinkExtractor{}
}

// ExtractLinks returns anchors in document order with absolute hrefs.
// Duplicate hrefs, fragment-only links and non-http schemes are skipped.
func (e *LinkExtractor) ExtractLinks(rawHTML, base string, limit int) ([]entity.Link, error) {
	doc, err := html.Parse(strings.NewReader(rawHTML))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	var baseURL *url.URL
	if base != "" {
		if baseURL, err = url.Parse(base); err != nil {
			return nil, fmt.Errorf("parse base url: %w", err)
		}
	}

	root := findBodyNode(doc)
	if root == nil {
		root = doc
	}

	var (
		links []entity.Link
		seen  = make(map[string]bool)
	)

	var walk func(n *html.Node) bool
	walk = func(n *html.Node) bool {
		if limit > 0 && len(links) >= limit {
			return false
		}
		if n.Type == html.ElementNode {
			if isOneOf(n.Data, skipTags...) {
				return true
			}
			if n.Data == "a" {
				if href, ok := resolve(attr(n, "href"), baseURL); ok && !seen[href] {
					seen[href] = true
					text := linkText(n)
					if text == "" {
						text = attr(n, "aria-label")
					}
					links = append(links, entity.Link{Text: text, Href: href})
				}
				return true
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if !walk(c) {
				return false
			}
		}
		return true
	}
	walk(root)

	return links, nil
}

func resolve(href string, base *url.URL) (string, bool) {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "#") {
		return "", false
	}

	u, err := url.Parse(href)
	if err != nil {
		return "", false
	}
	if base != nil {
		u = base.ResolveReference(u)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", false
	}
	u.Fragment = ""
	return u.String(), true
}

func linkText(n *html.Node) string {
	var sb strings.Builder
	var collect func(*html.Node)
	collect = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
			sb.WriteByte(' ')
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			collect(c)
		}
	}
	collect(n)

	text := strings.Join(strings.Fields(sb.String()), " ")
	if r := []rune(text); len(r) > maxLinkText {
		text = string(r[:maxLinkText]) + "…"
	}
	return text
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

// findBodyNode looks for <body> anywhere in the tree.
func findBodyNode(n *html.Node) *html.Node {
	if n.Type == html.ElementNode && n.Data == "body" {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if b := findBodyNode(c); b != nil {
			return b
		}
	}
	return nil
}

func isOneOf(s string, candidates ...string) bool {
	for _, c := range candidates {
		if s == c {
			return true
		}
	}
	return false
}

package extract

import (
	"regexp"
	"slices"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

const (
	minPropertyLen = 2
	maxPropertyLen = 80
)

// propertyPattern accepts snake_case, dot.path, kebab-case and camelCase
// identifiers. Matching is case-insensitive, which also covers camelCase.
var propertyPattern = regexp.MustCompile(`(?i)^[a-z_][a-z0-9_.-]*$`)

// ExtractProperties returns the inline code tokens in nodes that look like
// configuration option names, lower-cased, deduplicated and sorted.
// Code inside <pre> blocks is ignored.
func ExtractProperties(nodes []*html.Node) []string {
	seen := make(map[string]struct{})

	var walk func(n *html.Node, inPre bool)
	walk = func(n *html.Node, inPre bool) {
		if n.Type == html.ElementNode {
			switch n.DataAtom {
			case atom.Pre:
				inPre = true
			case atom.Code:
				if !inPre {
					if p, ok := propertyToken(CollapseText(n)); ok {
						seen[p] = struct{}{}
					}
				}
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c, inPre)
		}
	}
	for _, n := range nodes {
		walk(n, false)
	}

	if len(seen) == 0 {
		return nil
	}
	out := make([]string, 0, len(seen))
	for p := range seen {
		out = append(out, p)
	}
	slices.Sort(out)
	return out
}

func propertyToken(text string) (string, bool) {
	text = strings.TrimSpace(text)
	if len(text) < minPropertyLen || len(text) > maxPropertyLen {
		return "", false
	}
	if !propertyPattern.MatchString(text) {
		return "", false
	}
	return strings.ToLower(text), true
}

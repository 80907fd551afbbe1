// Package extract partitions rendered documentation pages into an intro
// segment and one segment per linkable heading.
//
// Pages are parsed once with golang.org/x/net/html. The children of each
// container are then classified into a typed Block list, and segment
// boundaries are found by a forward scan over that list (see SegmentEnd),
// so the algorithm is testable without any DOM shim.
package extract

import (
	"io"
	"strings"

	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// DefaultMainSelectors is the fallback chain used to locate the main
// content container. The first selector with a match wins.
var DefaultMainSelectors = []string{"main article", "article", "main", "body"}

var (
	selCanonical     = cascadia.MustCompile(`link[rel="canonical"]`)
	selOGTitle       = cascadia.MustCompile(`meta[property="og:title"]`)
	selTitle         = cascadia.MustCompile(`title`)
	selDescription   = cascadia.MustCompile(`meta[name="description"]`)
	selOGDescription = cascadia.MustCompile(`meta[property="og:description"]`)
	selOGSiteName    = cascadia.MustCompile(`meta[property="og:site_name"]`)
)

// Document is one parsed page plus the metadata the record builder needs.
type Document struct {
	Root *html.Node

	// Canonical is the href of <link rel="canonical">, if any.
	Canonical string
	// Title is og:title, falling back to <title>.
	Title string
	// Description is the meta description, falling back to og:description.
	Description string
	// SiteName is og:site_name.
	SiteName string
}

// Parse reads a full HTML document.
func Parse(r io.Reader) (*Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, err
	}

	doc := &Document{Root: root}
	doc.Canonical = attrOf(cascadia.Query(root, selCanonical), "href")
	doc.Title = strings.TrimSpace(attrOf(cascadia.Query(root, selOGTitle), "content"))
	if doc.Title == "" {
		if t := cascadia.Query(root, selTitle); t != nil {
			doc.Title = CollapseText(t)
		}
	}
	doc.Description = strings.TrimSpace(attrOf(cascadia.Query(root, selDescription), "content"))
	if doc.Description == "" {
		doc.Description = strings.TrimSpace(attrOf(cascadia.Query(root, selOGDescription), "content"))
	}
	doc.SiteName = strings.TrimSpace(attrOf(cascadia.Query(root, selOGSiteName), "content"))

	return doc, nil
}

// ParseString is Parse over an in-memory string.
func ParseString(s string) (*Document, error) {
	return Parse(strings.NewReader(s))
}

// MainContent returns the first element matched by selectors, tried in
// order. Invalid selectors are ignored. When nothing matches, the whole
// document is treated as content.
func (d *Document) MainContent(selectors []string) *html.Node {
	if len(selectors) == 0 {
		selectors = DefaultMainSelectors
	}
	for _, s := range selectors {
		sel, err := cascadia.Parse(s)
		if err != nil {
			continue
		}
		if n := cascadia.Query(d.Root, sel); n != nil {
			return n
		}
	}
	return d.Root
}

func attrOf(n *html.Node, key string) string {
	if n == nil {
		return ""
	}
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func hasClass(n *html.Node, class string) bool {
	for _, c := range strings.Fields(attrOf(n, "class")) {
		if c == class {
			return true
		}
	}
	return false
}

// headingLevel returns 1-6 for h1-h6 elements and 0 otherwise.
func headingLevel(n *html.Node) int {
	if n == nil || n.Type != html.ElementNode {
		return 0
	}
	switch n.DataAtom {
	case atom.H1:
		return 1
	case atom.H2:
		return 2
	case atom.H3:
		return 3
	case atom.H4:
		return 4
	case atom.H5:
		return 5
	case atom.H6:
		return 6
	}
	return 0
}

// RenderNodes serializes nodes as HTML, one per line.
func RenderNodes(nodes []*html.Node) string {
	var sb strings.Builder
	for i, n := range nodes {
		if i > 0 {
			sb.WriteByte('\n')
		}
		_ = html.Render(&sb, n)
	}
	return sb.String()
}

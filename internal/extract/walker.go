package extract

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// ReservedHeadingID is the id of the generated "On this page" heading,
// which is never indexed.
const ReservedHeadingID = "on-this-page-heading"

// Indexed heading levels. h2-h4 map to logical levels 1-3.
const (
	minIndexedLevel = 2
	maxIndexedLevel = 4
)

// Options tunes section extraction.
type Options struct {
	// MainSelectors is the main content fallback chain.
	// DefaultMainSelectors is used when empty.
	MainSelectors []string
	// FlatSections ends every section at the next indexed heading of any
	// level, so each paragraph belongs to exactly one record. By default a
	// section runs on through its sub-sections up to the next heading of
	// equal or higher rank.
	FlatSections bool
}

// Intro is the content of a page before its first heading.
type Intro struct {
	Nodes []*html.Node
	HTML  string
	Text  string
}

// Empty reports whether the intro carries no text.
func (in Intro) Empty() bool { return in.Text == "" }

// Segment is one heading and the sibling content it owns.
type Segment struct {
	Anchor  string
	Heading string
	// Level is the logical level: 1 for h2, 2 for h3, 3 for h4.
	Level int
	// HeadingPath lists the ancestor heading texts, outermost first,
	// ending with Heading itself.
	HeadingPath []string
	Nodes       []*html.Node
	HTML        string
	Text        string
}

// ExtractIntro collects the content of main that precedes the first
// indexed heading (h2-h4, bare or wrapped). Other headings, such as the
// page h1, are passed over rather than ending the intro. A container that
// holds the first indexed heading contributes only the children before it.
func ExtractIntro(main *html.Node) Intro {
	var in Intro
	in.Nodes, _ = introNodes(main, nil)
	in.HTML = RenderNodes(in.Nodes)
	in.Text = ProseText(in.Nodes)
	return in
}

// introNodes appends the intro blocks under parent to nodes and reports
// whether an indexed heading was reached.
func introNodes(parent *html.Node, nodes []*html.Node) ([]*html.Node, bool) {
	for _, b := range Blocks(parent) {
		if b.Kind != KindContent {
			if b.Level >= minIndexedLevel && b.Level <= maxIndexedLevel {
				return nodes, true
			}
			continue
		}
		if len(indexedHeadings(b.Node)) > 0 {
			nodes, _ = introNodes(b.Node, nodes)
			return nodes, true
		}
		if introElement(b.Node) {
			nodes = append(nodes, b.Node)
		}
	}
	return nodes, false
}

func introElement(n *html.Node) bool {
	switch n.DataAtom {
	case atom.P, atom.Ul, atom.Ol, atom.Pre, atom.Blockquote, atom.Div, atom.Section, atom.Table, atom.Dl:
		return true
	}
	return false
}

type stackEntry struct {
	text  string
	level int
}

// ExtractSections returns one segment per linkable h2-h4 under main, in
// document order. Headings without an id, with the reserved id, or with
// no text are skipped, though they still end the segment before them.
func ExtractSections(main *html.Node, opts Options) []Segment {
	var (
		sections []Segment
		stack    []stackEntry
		blocksOf = make(map[*html.Node][]Block)
	)

	for _, h := range indexedHeadings(main) {
		id := attrOf(h, "id")
		if id == "" || id == ReservedHeadingID {
			continue
		}
		text := CollapseText(h)
		if text == "" {
			continue
		}
		level := headingLevel(h)

		for len(stack) > 0 && stack[len(stack)-1].level >= level {
			stack = stack[:len(stack)-1]
		}
		stack = append(stack, stackEntry{text: text, level: level})

		start := h
		if p := h.Parent; p != nil && p != main && hasClass(p, WrapperClass) {
			start = p
		}

		parent := start.Parent
		blocks, ok := blocksOf[parent]
		if !ok {
			blocks = Blocks(parent)
			blocksOf[parent] = blocks
		}

		var nodes []*html.Node
		if i := IndexOf(blocks, start); i >= 0 {
			stop := level
			if opts.FlatSections {
				stop = maxIndexedLevel
			}
			end := SegmentEnd(blocks, i, stop)
			for _, b := range blocks[i:end] {
				nodes = append(nodes, b.Node)
			}
		} else {
			nodes = []*html.Node{start}
		}

		path := make([]string, len(stack))
		for i, e := range stack {
			path[i] = e.text
		}

		body := ProseText(nodes[1:])
		sections = append(sections, Segment{
			Anchor:      id,
			Heading:     text,
			Level:       level - 1,
			HeadingPath: path,
			Nodes:       nodes,
			HTML:        RenderNodes(nodes),
			Text:        strings.TrimSpace(text + " " + body),
		})
	}

	return sections
}

// indexedHeadings lists h2-h4 descendants of root in document order.
func indexedHeadings(root *html.Node) []*html.Node {
	var out []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if lvl := headingLevel(c); lvl >= minIndexedLevel && lvl <= maxIndexedLevel {
				out = append(out, c)
				continue
			}
			walk(c)
		}
	}
	if root != nil {
		walk(root)
	}
	return out
}

// SectionHTML extracts the HTML of one section from a full page, using
// the same boundary rules as ExtractSections. An empty anchor selects the
// intro. ok is false when the anchor does not exist or the intro is empty.
func SectionHTML(doc *Document, anchor string, opts Options) (string, bool) {
	main := doc.MainContent(opts.MainSelectors)
	if anchor == "" {
		in := ExtractIntro(main)
		return in.HTML, in.HTML != ""
	}
	for _, s := range ExtractSections(main, opts) {
		if s.Anchor == anchor {
			return s.HTML, true
		}
	}
	return "", false
}

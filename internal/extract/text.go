package extract

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// CollapseText returns the visible text of n with every run of whitespace
// reduced to a single space. Block-level elements are treated as word
// boundaries so that "<li>a</li><li>b</li>" reads "a b".
func CollapseText(n *html.Node) string {
	if n == nil {
		return ""
	}
	var sb strings.Builder
	collectText(&sb, n)
	return strings.Join(strings.Fields(sb.String()), " ")
}

func collectText(sb *strings.Builder, n *html.Node) {
	switch n.Type {
	case html.TextNode:
		sb.WriteString(n.Data)
		return
	case html.ElementNode:
		switch n.DataAtom {
		case atom.Script, atom.Style, atom.Template, atom.Noscript:
			return
		}
	}
	block := isBlockElement(n)
	if block {
		sb.WriteByte(' ')
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectText(sb, c)
	}
	if block {
		sb.WriteByte(' ')
	}
}

func isBlockElement(n *html.Node) bool {
	if n.Type != html.ElementNode {
		return false
	}
	switch n.DataAtom {
	case atom.P, atom.Div, atom.Section, atom.Article, atom.Li, atom.Ul, atom.Ol,
		atom.Dl, atom.Dt, atom.Dd, atom.Table, atom.Tr, atom.Td, atom.Th,
		atom.Pre, atom.Blockquote, atom.Br, atom.H1, atom.H2, atom.H3,
		atom.H4, atom.H5, atom.H6, atom.Header, atom.Footer, atom.Aside:
		return true
	}
	return false
}

// isProse reports whether n is one of the elements whose text feeds a
// record: paragraphs, lists, definition lists, tables and quotes.
func isProse(n *html.Node) bool {
	if n.Type != html.ElementNode {
		return false
	}
	switch n.DataAtom {
	case atom.P, atom.Ul, atom.Ol, atom.Dl, atom.Table, atom.Blockquote:
		return true
	}
	return false
}

// ProseText joins the collapsed text of the outermost prose elements found
// in nodes (the nodes themselves or their descendants) with single spaces.
// Code blocks, headings and bare wrappers contribute nothing.
func ProseText(nodes []*html.Node) string {
	var parts []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch {
			case isProse(n):
				if t := CollapseText(n); t != "" {
					parts = append(parts, t)
				}
				return
			case n.DataAtom == atom.Pre, headingLevel(n) > 0:
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for _, n := range nodes {
		walk(n)
	}
	return strings.Join(parts, " ")
}

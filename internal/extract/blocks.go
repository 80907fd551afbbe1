package extract

import (
	"golang.org/x/net/html"
)

// WrapperClass marks a styling container around a heading. The wrapper
// takes the place of the heading when walking siblings.
const WrapperClass = "heading-wrapper"

// Kind classifies one element child of a container.
type Kind int

const (
	// KindContent is any element that is neither a heading nor a wrapper.
	KindContent Kind = iota
	// KindHeading is an h1-h6 element.
	KindHeading
	// KindWrapper is a heading wrapper container.
	KindWrapper
)

func (k Kind) String() string {
	switch k {
	case KindHeading:
		return "heading"
	case KindWrapper:
		return "wrapper"
	default:
		return "content"
	}
}

// Block is one element child of a container, tagged for boundary detection.
type Block struct {
	Node *html.Node
	Kind Kind
	// Level is the heading level (1-6) for KindHeading, and the highest
	// rank (smallest level) of any heading inside a KindWrapper. Zero
	// means no heading.
	Level int
}

// Blocks classifies the element children of parent. Text and comment
// nodes between elements are not blocks.
func Blocks(parent *html.Node) []Block {
	if parent == nil {
		return nil
	}
	var blocks []Block
	for c := parent.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode {
			continue
		}
		blocks = append(blocks, classify(c))
	}
	return blocks
}

func classify(n *html.Node) Block {
	if lvl := headingLevel(n); lvl > 0 {
		return Block{Node: n, Kind: KindHeading, Level: lvl}
	}
	if hasClass(n, WrapperClass) {
		return Block{Node: n, Kind: KindWrapper, Level: topHeadingLevel(n)}
	}
	return Block{Node: n, Kind: KindContent}
}

// topHeadingLevel returns the smallest heading level among n's descendants.
func topHeadingLevel(n *html.Node) int {
	best := 0
	var walk func(*html.Node)
	walk = func(c *html.Node) {
		for ; c != nil; c = c.NextSibling {
			if lvl := headingLevel(c); lvl > 0 && (best == 0 || lvl < best) {
				best = lvl
			}
			walk(c.FirstChild)
		}
	}
	walk(n.FirstChild)
	return best
}

// stops reports whether b terminates a segment opened by a heading of
// the given level: a heading of equal or higher rank, or a wrapper that
// holds one.
func (b Block) stops(level int) bool {
	switch b.Kind {
	case KindHeading, KindWrapper:
		return b.Level > 0 && b.Level <= level
	}
	return false
}

// SegmentEnd returns the exclusive end index of the segment that starts
// at blocks[start] for a heading of the given level. The scan is a single
// forward pass with no backtracking.
func SegmentEnd(blocks []Block, start, level int) int {
	end := start + 1
	for end < len(blocks) && !blocks[end].stops(level) {
		end++
	}
	return end
}

// IndexOf returns the position of n in blocks, or -1.
func IndexOf(blocks []Block, n *html.Node) int {
	for i, b := range blocks {
		if b.Node == n {
			return i
		}
	}
	return -1
}

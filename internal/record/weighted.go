package record

import (
	"html"
	"strings"
)

// Field weights of the local static index. Title text ranks highest,
// property tokens next, then body text; demoted pages carry their body
// at half weight so they rank below primary docs for the same terms.
const (
	WeightTitle       = 7.0
	WeightProperties  = 5.0
	WeightBody        = 1.0
	WeightDemotedBody = 0.5
)

// HeadingPathSeparator joins heading path entries in index metadata.
const HeadingPathSeparator = " > "

// WeightedDoc is the minimal synthetic document a local engine indexes for
// one record. Exactly one of Body and DemotedBody is set.
type WeightedDoc struct {
	ID          string
	URL         string
	Title       string
	Properties  string
	Body        string
	DemotedBody string

	// Meta is carried through to search results untouched.
	PageTitle   string
	HeadingPath string
	Excerpt     string
}

// ExcerptLen bounds the stored excerpt.
const ExcerptLen = 240

// Weighted builds the synthetic document for r.
func Weighted(r *SearchRecord) WeightedDoc {
	d := WeightedDoc{
		ID:          r.ObjectID,
		URL:         r.URL,
		Title:       r.Title,
		Properties:  strings.Join(r.Properties, " "),
		HeadingPath: strings.Join(r.HeadingPath, HeadingPathSeparator),
		Excerpt:     Excerpt(r.Text, ExcerptLen),
	}
	// Heading records carry the page title as meta; the page record is
	// already titled by it.
	if !r.IsPage() {
		d.PageTitle = r.PageTitle
	}
	if r.Demoted {
		d.DemotedBody = r.Text
	} else {
		d.Body = r.Text
	}
	return d
}

// HTML renders d as a standalone weighted HTML document, the form in which
// records are written to the static index artifact set.
func (d WeightedDoc) HTML() string {
	var meta []string
	if d.PageTitle != "" {
		meta = append(meta, "pageTitle:"+d.PageTitle)
	}
	if d.HeadingPath != "" {
		meta = append(meta, "headingPath:"+d.HeadingPath)
	}

	var sb strings.Builder
	sb.WriteString(`<html lang="en"><body`)
	if len(meta) > 0 {
		sb.WriteString(` data-meta="`)
		sb.WriteString(html.EscapeString(strings.Join(meta, ", ")))
		sb.WriteString(`"`)
	}
	sb.WriteString(`><h1 data-weight="7">`)
	sb.WriteString(html.EscapeString(d.Title))
	sb.WriteString(`</h1>`)
	if d.Properties != "" {
		sb.WriteString(`<p data-weight="5">`)
		sb.WriteString(html.EscapeString(d.Properties))
		sb.WriteString(`</p>`)
	}
	if d.DemotedBody != "" {
		sb.WriteString(`<div data-weight="0.5">`)
		sb.WriteString(html.EscapeString(d.DemotedBody))
	} else {
		sb.WriteString(`<div data-weight="1">`)
		sb.WriteString(html.EscapeString(d.Body))
	}
	sb.WriteString(`</div></body></html>`)
	return sb.String()
}

// Excerpt cuts text to at most n bytes on a word boundary, appending an
// ellipsis when anything was dropped.
func Excerpt(text string, n int) string {
	if len(text) <= n {
		return text
	}
	cut := strings.LastIndexByte(text[:n], ' ')
	if cut <= 0 {
		cut = n
		// Back off to a rune boundary.
		for cut > 0 && !isRuneStart(text[cut]) {
			cut--
		}
	}
	return strings.TrimSpace(text[:cut]) + "…"
}

func isRuneStart(b byte) bool { return b&0xC0 != 0x80 }

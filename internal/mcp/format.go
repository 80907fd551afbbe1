package mcp

import (
	"fmt"
	"strings"

	"github.com/Aman-CERP/docindex/internal/query"
)

// maxExcerptRunes bounds excerpts in markdown output.
const maxExcerptRunes = 300

// FormatDocsResults formats search results as markdown, one heading per page.
func FormatDocsResults(q string, results []DocResult) string {
	if len(results) == 0 {
		return fmt.Sprintf("No documentation found for \"%s\"", q)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "## Documentation Results for \"%s\"\n\n", q)
	fmt.Fprintf(&sb, "Found %d result", len(results))
	if len(results) != 1 {
		sb.WriteString("s")
	}
	sb.WriteString("\n\n")

	for i, r := range results {
		formatDocResult(&sb, i+1, r)
	}
	return sb.String()
}

func formatDocResult(sb *strings.Builder, num int, r DocResult) {
	fmt.Fprintf(sb, "### %d. %s\n", num, r.Title)
	fmt.Fprintf(sb, "`%s`", r.URL)
	if r.Breadcrumb != "" {
		fmt.Fprintf(sb, " (%s)", r.Breadcrumb)
	}
	sb.WriteString("\n\n")
	if r.Excerpt != "" {
		sb.WriteString(shorten(r.Excerpt, maxExcerptRunes))
		sb.WriteString("\n\n")
	}
}

// FormatSection formats a section read as markdown.
func FormatSection(out ReadSectionOutput) string {
	text := strings.TrimSpace(out.Text)
	if text == "" {
		text = "(empty section)"
	}
	return fmt.Sprintf("## %s\n\n%s\n", out.URL, text)
}

// FormatIndexStatus formats the index manifest as markdown.
func FormatIndexStatus(out IndexStatusOutput) string {
	var sb strings.Builder
	sb.WriteString("## Index Status\n\n")
	fmt.Fprintf(&sb, "- **Engine:** %s\n", out.Engine)
	fmt.Fprintf(&sb, "- **Records:** %d\n", out.Records)
	fmt.Fprintf(&sb, "- **Pages:** %d\n", out.Pages)
	fmt.Fprintf(&sb, "- **Built:** %s\n", out.BuiltAt)
	if out.BuildID != "" {
		fmt.Fprintf(&sb, "- **Build:** %s\n", out.BuildID)
	}
	fmt.Fprintf(&sb, "- **Location:** %s\n", out.IndexDir)
	return sb.String()
}

// ToDocResult converts a query entry to the tool output format.
func ToDocResult(e query.Entry) DocResult {
	return DocResult{
		URL:        query.NavigationTarget(e.URL),
		Title:      e.Title,
		PageTitle:  e.PageTitle,
		Breadcrumb: e.Breadcrumb,
		Excerpt:    e.Excerpt,
	}
}

// clampLimit ensures limit is within bounds.
func clampLimit(limit, defaultVal, min, max int) int {
	if limit <= 0 {
		return defaultVal
	}
	if limit < min {
		return min
	}
	if limit > max {
		return max
	}
	return limit
}

func shorten(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return strings.TrimSpace(string(r[:n])) + "..."
}

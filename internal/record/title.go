package record

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// acronyms stay upper-cased in breadcrumbs and categories.
var acronyms = map[string]struct{}{
	"api":  {},
	"ci":   {},
	"ui":   {},
	"url":  {},
	"html": {},
	"css":  {},
	"js":   {},
}

// FormatSlugToTitle turns "merge-queue-api" into "Merge Queue API".
func FormatSlugToTitle(slug string) string {
	words := strings.Split(slug, "-")
	for i, w := range words {
		if _, ok := acronyms[strings.ToLower(w)]; ok {
			words[i] = strings.ToUpper(w)
			continue
		}
		r, size := utf8.DecodeRuneInString(w)
		if size > 0 {
			words[i] = string(unicode.ToUpper(r)) + w[size:]
		}
	}
	return strings.Join(words, " ")
}

// PathSegments splits a page ID into its non-empty path segments.
func PathSegments(pageID string) []string {
	return strings.FieldsFunc(pageID, func(r rune) bool { return r == '/' })
}

// BuildHierarchy derives the breadcrumb levels for a record. The heading
// path keeps only its two most specific entries.
func BuildHierarchy(pageID string, headingPath []string) Hierarchy {
	var h Hierarchy

	segs := PathSegments(pageID)
	if len(segs) > 0 {
		h.Lvl0 = FormatSlugToTitle(segs[0])
	}
	if len(segs) > 1 {
		h.Lvl1 = FormatSlugToTitle(segs[1])
	}

	if n := len(headingPath); n > 2 {
		headingPath = headingPath[n-2:]
	}
	if len(headingPath) > 0 {
		h.Lvl2 = headingPath[0]
	}
	if len(headingPath) > 1 {
		h.Lvl3 = headingPath[1]
	}
	return h
}

// Category prefers a site name that differs from the default, then the
// formatted first URL segment, then the default site name.
func Category(siteName, defaultSiteName, pageID string) string {
	if siteName != "" && siteName != defaultSiteName {
		return siteName
	}
	if segs := PathSegments(pageID); len(segs) > 0 {
		return FormatSlugToTitle(segs[0])
	}
	return defaultSiteName
}

// Package objectid derives the stable identifier of a documentation page.
//
// A page ID is the site-relative path of the page with no leading or
// trailing slash and no trailing index.html. The canonical link wins
// when present; otherwise the path of the generated file relative to the
// dist root is used. Heading records append "#<anchor>" to the page ID.
package objectid

import (
	"errors"
	"net/url"
	"path/filepath"
	"strings"
)

const indexFile = "index.html"

// RootID stands in for the empty page ID of the site root wherever an
// object ID must be non-empty. Page IDs never start or end with a slash,
// so no page can claim it.
const RootID = "/"

// FromCanonical derives a page ID from a canonical link href.
// It returns false when the href is empty or cannot be parsed, so the
// caller can fall back to FromPath.
func FromCanonical(href string) (string, bool) {
	href = strings.TrimSpace(href)
	if href == "" {
		return "", false
	}

	u, err := url.Parse(href)
	if err != nil {
		return "", false
	}
	// A bare host-less relative reference ("foo/bar") is not canonical.
	if u.Scheme == "" && !strings.HasPrefix(u.Path, "/") {
		return "", false
	}

	return normalize(u.Path), true
}

// FromPath derives a page ID from the location of a generated file.
func FromPath(root, file string) (string, error) {
	rel, err := filepath.Rel(root, file)
	if err != nil {
		return "", err
	}
	rel = filepath.ToSlash(rel)
	if rel == ".." || strings.HasPrefix(rel, "../") {
		return "", errors.New("file is outside the dist root: " + file)
	}
	return normalize(rel), nil
}

// Resolve returns the canonical-derived ID when available and the
// path-derived ID otherwise. A malformed canonical falls back silently.
func Resolve(canonical, root, file string) (string, error) {
	if id, ok := FromCanonical(canonical); ok {
		return id, nil
	}
	return FromPath(root, file)
}

func normalize(p string) string {
	p = strings.TrimPrefix(p, "/")
	p = strings.TrimSuffix(p, indexFile)
	p = strings.TrimSuffix(p, "/")
	// "a//index.html" style paths can leave a second slash behind.
	return strings.Trim(p, "/")
}

// IsHidden reports whether id equals one of prefixes or sits below one.
func IsHidden(id string, prefixes []string) bool {
	for _, p := range prefixes {
		p = strings.Trim(p, "/")
		if p == "" {
			continue
		}
		if id == p || strings.HasPrefix(id, p+"/") {
			return true
		}
	}
	return false
}

// HasAnyPrefix reports whether id starts with any of prefixes. Unlike
// IsHidden this is a plain string prefix, so "changelog" also matches
// "changelog-2024".
func HasAnyPrefix(id string, prefixes []string) bool {
	for _, p := range prefixes {
		if p != "" && strings.HasPrefix(id, p) {
			return true
		}
	}
	return false
}

// RecordID is the object ID of a page record.
func RecordID(pageID string) string {
	if pageID == "" {
		return RootID
	}
	return pageID
}

// SectionID is the object ID of a heading record.
func SectionID(pageID, anchor string) string {
	return RecordID(pageID) + "#" + anchor
}

// PageURL is the site-relative URL of a page.
func PageURL(pageID string) string {
	if pageID == "" {
		return "/"
	}
	return "/" + pageID + "/"
}

// SectionURL is the site-relative URL of a heading within a page.
func SectionURL(pageID, anchor string) string {
	return PageURL(pageID) + "#" + anchor
}

// StripFragment drops everything from the first '#'.
func StripFragment(u string) string {
	if i := strings.IndexByte(u, '#'); i >= 0 {
		return u[:i]
	}
	return u
}

// Fragment returns the part after the first '#', or "".
func Fragment(u string) string {
	if i := strings.IndexByte(u, '#'); i >= 0 {
		return u[i+1:]
	}
	return ""
}

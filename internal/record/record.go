// Package record turns extracted page segments into search records.
//
// A build produces one optional page record (the intro) and one heading
// record per linkable h2-h4 for every indexed page. Records are rebuilt
// from scratch on every run and handed to a publisher as a whole.
package record

// Type is the record kind.
type Type string

const (
	TypePage Type = "page"
	TypeH1   Type = "H1"
	TypeH2   Type = "H2"
	TypeH3   Type = "H3"
)

// TypeForLevel maps a logical heading level (1-3) to a record type.
func TypeForLevel(level int) Type {
	switch level {
	case 1:
		return TypeH1
	case 2:
		return TypeH2
	default:
		return TypeH3
	}
}

// Hierarchy holds the breadcrumb levels of a record. Lvl0 and Lvl1 come
// from the URL path, Lvl2 and Lvl3 from the heading path.
type Hierarchy struct {
	Lvl0 string `json:"lvl0"`
	Lvl1 string `json:"lvl1,omitempty"`
	Lvl2 string `json:"lvl2,omitempty"`
	Lvl3 string `json:"lvl3,omitempty"`
}

// SearchRecord is the unit stored in and returned by a search backend.
type SearchRecord struct {
	ObjectID        string    `json:"objectID"`
	URL             string    `json:"url"`
	Type            Type      `json:"type"`
	Title           string    `json:"title"`
	Hierarchy       Hierarchy `json:"hierarchy"`
	HTML            string    `json:"html"`
	Text            string    `json:"text"`
	Properties      []string  `json:"properties"`
	Category        string    `json:"category"`
	PageTitle       string    `json:"pageTitle"`
	PageDescription string    `json:"pageDescription,omitempty"`
	HeadingPath     []string  `json:"headingPath,omitempty"`
	Demoted         bool      `json:"demoted,omitempty"`

	// Anchor is the heading id, empty for page records.
	Anchor string `json:"-"`
}

// IsPage reports whether r is a page-level (intro) record.
func (r *SearchRecord) IsPage() bool {
	return r.Type == TypePage
}

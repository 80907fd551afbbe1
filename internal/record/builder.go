package record

import (
	"strings"

	"github.com/Aman-CERP/docindex/internal/extract"
	"github.com/Aman-CERP/docindex/internal/objectid"
)

// BuilderOptions configures record building.
type BuilderOptions struct {
	// DefaultSiteName is ignored as a category so that the URL section
	// names the category instead.
	DefaultSiteName string
	// DemotedPrefixes mark pages (such as changelog entries) that should
	// rank below primary docs for the same terms.
	DemotedPrefixes []string
	// Extract tunes the HTML walker.
	Extract extract.Options
}

// Page is one parsed document together with its resolved ID.
type Page struct {
	ID  string
	Doc *extract.Document
}

// Builder converts pages into search records.
type Builder struct {
	opts BuilderOptions
}

// NewBuilder creates a Builder.
func NewBuilder(opts BuilderOptions) *Builder {
	return &Builder{opts: opts}
}

// Build returns the records of one page: the intro record first, when the
// page has intro content, then one record per section in document order.
func (b *Builder) Build(p Page) []*SearchRecord {
	doc := p.Doc
	main := doc.MainContent(b.opts.Extract.MainSelectors)

	demoted := objectid.HasAnyPrefix(p.ID, b.opts.DemotedPrefixes)
	category := Category(doc.SiteName, b.opts.DefaultSiteName, p.ID)

	var records []*SearchRecord

	if intro := extract.ExtractIntro(main); !intro.Empty() {
		records = append(records, &SearchRecord{
			ObjectID:        objectid.RecordID(p.ID),
			URL:             objectid.PageURL(p.ID),
			Type:            TypePage,
			Title:           doc.Title,
			Hierarchy:       BuildHierarchy(p.ID, nil),
			HTML:            intro.HTML,
			Text:            joinNonEmpty(intro.Text, doc.Description),
			Properties:      extract.ExtractProperties(intro.Nodes),
			Category:        category,
			PageTitle:       doc.Title,
			PageDescription: doc.Description,
			Demoted:         demoted,
		})
	}

	for _, s := range extract.ExtractSections(main, b.opts.Extract) {
		records = append(records, &SearchRecord{
			ObjectID:        objectid.SectionID(p.ID, s.Anchor),
			URL:             objectid.SectionURL(p.ID, s.Anchor),
			Type:            TypeForLevel(s.Level),
			Title:           s.Heading,
			Hierarchy:       BuildHierarchy(p.ID, s.HeadingPath),
			HTML:            s.HTML,
			Text:            s.Text,
			Properties:      extract.ExtractProperties(s.Nodes),
			Category:        category,
			PageTitle:       doc.Title,
			PageDescription: doc.Description,
			HeadingPath:     s.HeadingPath,
			Demoted:         demoted,
			Anchor:          s.Anchor,
		})
	}

	return records
}

func joinNonEmpty(parts ...string) string {
	kept := parts[:0:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, " ")
}

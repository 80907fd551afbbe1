package mcp

// Tool names.
const (
	ToolSearchDocs  = "search_docs"
	ToolReadSection = "read_section"
	ToolIndexStatus = "index_status"
)

// Limits for search_docs.
const (
	DefaultLimit = 10
	MaxLimit     = 50
)

// SearchDocsInput defines the input schema for the search_docs tool.
type SearchDocsInput struct {
	Query string `json:"query" jsonschema:"the documentation search query to execute"`
	Limit int    `json:"limit,omitempty" jsonschema:"maximum number of results, default 10"`
}

// SearchDocsOutput defines the output schema for the search_docs tool.
type SearchDocsOutput struct {
	Results []DocResult `json:"results" jsonschema:"one result per page, best first"`
}

// DocResult is a single search_docs result.
type DocResult struct {
	URL        string `json:"url" jsonschema:"site-absolute URL of the matching section"`
	Title      string `json:"title" jsonschema:"section title"`
	PageTitle  string `json:"page_title,omitempty" jsonschema:"title of the page the section belongs to"`
	Breadcrumb string `json:"breadcrumb,omitempty" jsonschema:"where the section sits in the site"`
	Excerpt    string `json:"excerpt,omitempty" jsonschema:"indexed text of the section"`
}

// ReadSectionInput defines the input schema for the read_section tool.
type ReadSectionInput struct {
	URL string `json:"url" jsonschema:"a result URL from search_docs, e.g. /workflow/rebase/#setup"`
}

// ReadSectionOutput defines the output schema for the read_section tool.
type ReadSectionOutput struct {
	URL  string `json:"url"`
	Text string `json:"text" jsonschema:"plain text of the section"`
	HTML string `json:"html,omitempty" jsonschema:"section markup as rendered on the site"`
}

// IndexStatusInput defines the input schema for the index_status tool (no parameters).
type IndexStatusInput struct{}

// IndexStatusOutput defines the output schema for the index_status tool.
type IndexStatusOutput struct {
	IndexDir string `json:"index_dir"`
	Engine   string `json:"engine"`
	Records  int    `json:"records"`
	Pages    int    `json:"pages"`
	BuiltAt  string `json:"built_at"`
	BuildID  string `json:"build_id,omitempty"`
}

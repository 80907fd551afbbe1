package record

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatSlugToTitle(t *testing.T) {
	tests := []struct {
		slug string
		want string
	}{
		{"merge-queue", "Merge Queue"},
		{"ci-insights", "CI Insights"},
		{"api", "API"},
		{"rest-api-url", "Rest API URL"},
		{"html-and-css-js", "HTML And CSS JS"},
		{"workflow", "Workflow"},
		{"", ""},
		{"ümlaut", "Ümlaut"},
	}

	for _, tt := range tests {
		t.Run(tt.slug, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatSlugToTitle(tt.slug))
		})
	}
}

func TestBuildHierarchy(t *testing.T) {
	tests := []struct {
		name string
		id   string
		path []string
		want Hierarchy
	}{
		{"page", "workflow/rebase", nil, Hierarchy{Lvl0: "Workflow", Lvl1: "Rebase"}},
		{"single segment", "ci-insights", []string{"Setup"}, Hierarchy{Lvl0: "CI Insights", Lvl2: "Setup"}},
		{"two levels", "a/b/c", []string{"Setup", "Requirements"}, Hierarchy{Lvl0: "A", Lvl1: "B", Lvl2: "Setup", Lvl3: "Requirements"}},
		{"deep path keeps most specific two", "a", []string{"One", "Two", "Three"}, Hierarchy{Lvl0: "A", Lvl2: "Two", Lvl3: "Three"}},
		{"root", "", []string{"X"}, Hierarchy{Lvl2: "X"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, BuildHierarchy(tt.id, tt.path))
		})
	}
}

func TestCategory(t *testing.T) {
	assert.Equal(t, "Mergify", Category("Mergify", "Docs", "merge-queue/setup"))
	assert.Equal(t, "Merge Queue", Category("Docs", "Docs", "merge-queue/setup"))
	assert.Equal(t, "Merge Queue", Category("", "Docs", "merge-queue"))
	assert.Equal(t, "Docs", Category("", "Docs", ""))
}

package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// isolate points HOME and the config dir at t-owned temp dirs and clears
// every environment override.
func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(home, ".config"))
	for _, key := range []string{
		"PUBLIC_ALGOLIA_APP_ID", "PUBLIC_ALGOLIA_INDEX_NAME", "PUBLIC_ALGOLIA_SEARCH_KEY", "ALGOLIA_WRITE_KEY",
		"DOCINDEX_DIST_DIR", "DOCINDEX_BACKEND", "DOCINDEX_ENGINE", "DOCINDEX_OUTPUT_DIR",
		"DOCINDEX_WORKERS", "DOCINDEX_SEARCH_BACKEND", "DOCINDEX_LOG_LEVEL",
	} {
		t.Setenv(key, "")
	}
	return home
}

// run executes the root command with args and returns combined output.
func run(t *testing.T, home string, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs(append([]string{"--log-file", filepath.Join(home, "docindex.log")}, args...))
	err := cmd.Execute()
	if loggingCleanup != nil {
		loggingCleanup()
		loggingCleanup = nil
	}
	return buf.String(), err
}

func writePage(t *testing.T, root, rel, title, body string) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	html := "<!doctype html><html><head><title>" + title + "</title></head><body><main>" +
		body + "</main></body></html>"
	require.NoError(t, os.WriteFile(path, []byte(html), 0o644))
}

// newProject writes a project dir holding a small built site under dist/.
func newProject(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	dist := filepath.Join(dir, "dist")
	writePage(t, dist, "index.html", "Home", "<h1>Home</h1><p>Welcome to the docs.</p>")
	writePage(t, dist, "workflow/rebase/index.html", "Rebase",
		`<h1>Rebase</h1><p>Rebasing rewrites history.</p>`+
			`<h2 id="onto">Rebase onto</h2><p>Move a branch onto another base.</p>`)
	return dir
}

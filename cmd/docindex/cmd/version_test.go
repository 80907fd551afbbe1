package cmd

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/docindex/pkg/version"
)

func TestVersionCmd(t *testing.T) {
	home := isolate(t)

	t.Run("default", func(t *testing.T) {
		out, err := run(t, home, "version")
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(out, "docindex "))
		assert.Contains(t, out, "commit:")
	})

	t.Run("short", func(t *testing.T) {
		out, err := run(t, home, "version", "--short")
		require.NoError(t, err)
		assert.Equal(t, version.Version+"\n", out)
	})

	t.Run("json", func(t *testing.T) {
		out, err := run(t, home, "version", "--json")
		require.NoError(t, err)

		var info version.BuildInfo
		require.NoError(t, json.Unmarshal([]byte(out), &info))
		assert.Equal(t, version.Version, info.Version)
		assert.NotEmpty(t, info.GoVersion)
	})
}

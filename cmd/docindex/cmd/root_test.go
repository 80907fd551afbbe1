package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRootCmd_RegistersSubcommands(t *testing.T) {
	cmd := NewRootCmd()

	names := make(map[string]bool)
	for _, c := range cmd.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"index", "publish", "search", "watch", "serve", "config", "logs", "version"} {
		assert.True(t, names[want], "missing subcommand %s", want)
	}
}

func TestNewRootCmd_PersistentFlags(t *testing.T) {
	cmd := NewRootCmd()

	for _, name := range []string{"dir", "debug", "log-file", "metrics-file"} {
		assert.NotNil(t, cmd.PersistentFlags().Lookup(name), "missing flag --%s", name)
	}
	assert.Equal(t, "C", cmd.PersistentFlags().Lookup("dir").Shorthand)
}

func TestTerminalOwningCommands_AreAnnotated(t *testing.T) {
	cmd := NewRootCmd()

	tests := []struct {
		name string
		owns bool
	}{
		{"search", true},
		{"serve", true},
		{"index", false},
		{"watch", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sub, _, err := cmd.Find([]string{tt.name})
			require.NoError(t, err)
			assert.Equal(t, tt.owns, sub.Annotations[annotationOwnsTerminal] != "")
		})
	}
}

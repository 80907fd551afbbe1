package ui

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStage_StringAndIcon(t *testing.T) {
	tests := []struct {
		stage Stage
		name  string
		icon  string
	}{
		{StageScanning, "Scanning", "SCAN"},
		{StageParsing, "Parsing", "PARSE"},
		{StagePublishing, "Publishing", "PUBLISH"},
		{StageComplete, "Complete", "DONE"},
		{Stage(99), "Unknown", "???"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.name, tt.stage.String())
			assert.Equal(t, tt.icon, tt.stage.Icon())
		})
	}
}

func TestIsTTY(t *testing.T) {
	assert.False(t, IsTTY(&bytes.Buffer{}))
	assert.False(t, IsTTY(nil))
}

func TestNewConfig_Options(t *testing.T) {
	buf := &bytes.Buffer{}

	cfg := NewConfig(buf, WithForcePlain(true), WithNoColor(true), WithSiteDir("dist"))

	assert.Same(t, buf, cfg.Output)
	assert.True(t, cfg.ForcePlain)
	assert.True(t, cfg.NoColor)
	assert.Equal(t, "dist", cfg.SiteDir)
}

func TestNewRenderer_FallsBackToPlain(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{"force plain", NewConfig(&bytes.Buffer{}, WithForcePlain(true))},
		{"non tty", NewConfig(&bytes.Buffer{})},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ok := NewRenderer(tt.cfg).(*PlainRenderer)
			assert.True(t, ok)
		})
	}
}

func TestDetectNoColor(t *testing.T) {
	t.Setenv("NO_COLOR", "1")
	assert.True(t, DetectNoColor())
}

func TestDetectCI(t *testing.T) {
	t.Setenv("GITHUB_ACTIONS", "true")
	assert.True(t, DetectCI())
}

func TestNopRenderer(t *testing.T) {
	var r Renderer = NopRenderer{}

	require.NoError(t, r.Start(context.Background()))
	r.UpdateProgress(ProgressEvent{Stage: StageParsing, Current: 1, Total: 2})
	r.AddError(ErrorEvent{Err: assert.AnError})
	r.Complete(CompletionStats{})
	require.NoError(t, r.Stop())
}

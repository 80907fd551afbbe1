package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/natefinch/atomic"
)

// ManifestFile is the artifact directory's description of its index.
const ManifestFile = "manifest.json"

// ManifestVersion is bumped when the artifact layout changes.
const ManifestVersion = 1

// Manifest describes a built artifact directory.
type Manifest struct {
	Version   int       `json:"version"`
	Engine    Engine    `json:"engine"`
	Records   int       `json:"records"`
	Pages     int       `json:"pages"`
	BuiltAt   time.Time `json:"builtAt"`
	Generator string    `json:"generator,omitempty"`
	// BuildID changes with every build, so readers can tell two builds
	// with equal counts apart.
	BuildID string `json:"buildId,omitempty"`
}

// WriteManifest atomically writes m into dir.
func WriteManifest(dir string, m Manifest) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode manifest: %w", err)
	}
	if err := atomic.WriteFile(filepath.Join(dir, ManifestFile), bytes.NewReader(data)); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}
	return nil
}

// ReadManifest reads the manifest in dir.
func ReadManifest(dir string) (*Manifest, error) {
	data, err := os.ReadFile(filepath.Join(dir, ManifestFile))
	if err != nil {
		return nil, err
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to decode manifest: %w", err)
	}
	return &m, nil
}

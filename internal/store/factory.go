package store

import (
	"fmt"
	"os"
	"path/filepath"
)

// IndexPath returns the engine's index location within an artifact
// directory: index.bleve (a directory) or index.db (a file).
func IndexPath(dir string, engine Engine) string {
	switch engine {
	case EngineBleve:
		return filepath.Join(dir, "index.bleve")
	default:
		return filepath.Join(dir, "index.db")
	}
}

// ParseEngine validates an engine name. The empty string selects SQLite.
func ParseEngine(name string) (Engine, error) {
	switch Engine(name) {
	case EngineSQLite, "":
		return EngineSQLite, nil
	case EngineBleve:
		return EngineBleve, nil
	default:
		return "", fmt.Errorf("unknown engine: %s (valid options: sqlite, bleve)", name)
	}
}

// Create builds a new, empty index for engine in dir.
func Create(dir string, engine Engine) (RecordIndex, error) {
	switch engine {
	case EngineSQLite, "":
		return NewSQLiteIndex(IndexPath(dir, EngineSQLite), DefaultConfig())
	case EngineBleve:
		return NewBleveIndex(IndexPath(dir, EngineBleve), DefaultConfig())
	default:
		return nil, fmt.Errorf("unknown engine: %s (valid options: sqlite, bleve)", engine)
	}
}

// Open opens the index for engine in dir. An empty engine is detected from
// the files present.
func Open(dir string, engine Engine) (RecordIndex, error) {
	if engine == "" {
		engine = DetectEngine(dir)
	}
	switch engine {
	case EngineSQLite, "":
		return OpenSQLiteIndex(IndexPath(dir, EngineSQLite), DefaultConfig())
	case EngineBleve:
		return OpenBleveIndex(IndexPath(dir, EngineBleve))
	default:
		return nil, fmt.Errorf("unknown engine: %s (valid options: sqlite, bleve)", engine)
	}
}

// DetectEngine reports which engine's index exists in dir, preferring the
// manifest, or "" when none does.
func DetectEngine(dir string) Engine {
	if m, err := ReadManifest(dir); err == nil && m.Engine != "" {
		return m.Engine
	}
	if fileExists(IndexPath(dir, EngineSQLite)) {
		return EngineSQLite
	}
	if dirExists(IndexPath(dir, EngineBleve)) {
		return EngineBleve
	}
	return ""
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func dirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestBackup(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, ".docindex.yaml")

	t.Run("no config exists", func(t *testing.T) {
		backupPath, err := Backup(configPath)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if backupPath != "" {
			t.Errorf("expected empty backup path for non-existent config, got %s", backupPath)
		}
	})

	t.Run("backup existing config", func(t *testing.T) {
		testContent := "version: 1\nindex:\n  engine: bleve\n"
		if err := os.WriteFile(configPath, []byte(testContent), 0o644); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		backupPath, err := Backup(configPath)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if backupPath == "" {
			t.Fatal("expected non-empty backup path")
		}

		backupContent, err := os.ReadFile(backupPath)
		if err != nil {
			t.Fatalf("failed to read backup: %v", err)
		}
		if string(backupContent) != testContent {
			t.Errorf("backup content mismatch:\ngot: %s\nwant: %s", backupContent, testContent)
		}
		if filepath.Dir(backupPath) != tmpDir {
			t.Errorf("backup should sit next to the config, got %s", backupPath)
		}
	})
}

func TestListBackups_NewestFirstAndPruned(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, ".docindex.yaml")
	if err := os.WriteFile(configPath, []byte("version: 1\n"), 0o644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	// Older backups from earlier runs
	for _, stamp := range []string{"20240101-000000.000", "20240102-000000.000", "20240103-000000.000", "20240104-000000.000"} {
		p := configPath + BackupSuffix + "." + stamp
		if err := os.WriteFile(p, []byte("old"), 0o644); err != nil {
			t.Fatalf("failed to write backup: %v", err)
		}
	}
	// Unrelated file is ignored
	if err := os.WriteFile(filepath.Join(tmpDir, "other.bak.1"), []byte("x"), 0o644); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}

	newest, err := Backup(configPath)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	backups, err := ListBackups(configPath)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(backups) != MaxBackups {
		t.Fatalf("expected %d backups after pruning, got %d: %v", MaxBackups, len(backups), backups)
	}
	if backups[0] != newest {
		t.Errorf("expected newest backup first, got %s", backups[0])
	}
	if filepath.Base(backups[2]) != ".docindex.yaml.bak.20240103-000000.000" {
		t.Errorf("unexpected oldest kept backup: %s", backups[2])
	}
}

func TestListBackups_MissingDir(t *testing.T) {
	backups, err := ListBackups(filepath.Join(t.TempDir(), "missing", "config.yaml"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(backups) != 0 {
		t.Errorf("expected no backups, got %v", backups)
	}
}

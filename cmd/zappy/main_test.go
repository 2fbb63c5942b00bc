package main

import (
	"path/filepath"
	"testing"
)

func TestResolveDSNPrefersDatabaseURL(t *testing.T) {
	config := Config{DatabaseURL: "postgres://u:p@localhost/zappy", StateDir: "/tmp/zappy"}
	if got := resolveDSN(config); got != config.DatabaseURL {
		t.Errorf("resolveDSN = %q, want %q", got, config.DatabaseURL)
	}
}

func TestResolveDSNDefaultsToSQLite(t *testing.T) {
	config := Config{StateDir: "/tmp/zappy-state"}
	want := filepath.Join("/tmp/zappy-state", DefaultDBFileName)
	if got := resolveDSN(config); got != want {
		t.Errorf("resolveDSN = %q, want %q", got, want)
	}
}

func TestEnsureDirectoriesExistSkipsPostgres(t *testing.T) {
	if err := ensureDirectoriesExist("postgres://u:p@localhost/zappy"); err != nil {
		t.Errorf("postgres DSN should not touch the filesystem: %v", err)
	}
	if err := ensureDirectoriesExist(""); err != nil {
		t.Errorf("empty DSN should be a no-op: %v", err)
	}
}

func TestEnsureDirectoriesExistCreatesStateDir(t *testing.T) {
	dir := t.TempDir()
	dsn := filepath.Join(dir, "nested", "zappy.db")
	if err := ensureDirectoriesExist(dsn); err != nil {
		t.Fatalf("ensureDirectoriesExist: %v", err)
	}
}

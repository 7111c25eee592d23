package config

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

func write(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, FileName)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := write(t, dir, `
api_level = 33
data_dir = "/opt/android"
workers = 4

[neo4j]
password = "secret"
`)
	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if !c.Translate {
		t.Error("translate should keep its default when absent")
	}
	if c.Neo4j.URI != "neo4j://localhost:7687" || c.Neo4j.Password != "secret" {
		t.Errorf("neo4j = %+v", c.Neo4j)
	}
	if got, want := c.FrameworkPath(), filepath.Join("/opt/android", "android-33.dex"); got != want {
		t.Errorf("FrameworkPath() = %q, want %q", got, want)
	}
	if c.WorkerLimit() != 4 {
		t.Errorf("WorkerLimit() = %d, want 4", c.WorkerLimit())
	}
	if c.Path != path {
		t.Errorf("Path = %q, want %q", c.Path, path)
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"syntax", "translate = "},
		{"type", `workers = "many"`},
		{"negative workers", "workers = -1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Load(write(t, t.TempDir(), tt.body)); err == nil {
				t.Error("Load() succeeded, want error")
			}
		})
	}
	if _, err := Load(filepath.Join(t.TempDir(), "absent.toml")); err == nil {
		t.Error("Load() of a missing file succeeded")
	}
}

func TestFind(t *testing.T) {
	dir := t.TempDir()
	c, err := Find("", dir)
	if err != nil {
		t.Fatalf("Find() error = %v", err)
	}
	if c.Path != "" || !c.Translate {
		t.Errorf("expected defaults, got %+v", c)
	}
	if c.WorkerLimit() != runtime.GOMAXPROCS(0) {
		t.Errorf("WorkerLimit() = %d", c.WorkerLimit())
	}

	write(t, dir, `translate = false
framework = "fw.dex"`)
	c, err = Find("", dir)
	if err != nil {
		t.Fatalf("Find() error = %v", err)
	}
	if c.Translate || c.FrameworkPath() != "fw.dex" {
		t.Errorf("got %+v", c)
	}

	other := filepath.Join(t.TempDir(), "custom.toml")
	if err := os.WriteFile(other, []byte("debug = true"), 0o644); err != nil {
		t.Fatal(err)
	}
	c, err = Find(other, dir)
	if err != nil || !c.Debug || !c.Translate {
		t.Errorf("Find(explicit) = %+v, %v", c, err)
	}
}

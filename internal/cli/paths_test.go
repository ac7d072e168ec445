package cli

import (
	"os"
	"path/filepath"
	"testing"
)

func TestCacheDir(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", "")

	dir, err := cacheDir()
	if err != nil {
		t.Fatalf("cacheDir() error: %v", err)
	}

	home, _ := os.UserHomeDir()
	expected := filepath.Join(home, ".cache", appName)
	if dir != expected {
		t.Errorf("cacheDir() = %q, want %q", dir, expected)
	}
}

func TestCacheDirXDG(t *testing.T) {
	customCache := t.TempDir()
	t.Setenv("XDG_CACHE_HOME", customCache)

	dir, err := cacheDir()
	if err != nil {
		t.Fatalf("cacheDir() error: %v", err)
	}

	expected := filepath.Join(customCache, appName)
	if dir != expected {
		t.Errorf("cacheDir() with XDG_CACHE_HOME = %q, want %q", dir, expected)
	}
}

func TestOutputBase(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"graph.json", "graph"},
		{"runs/graph.layout.json", filepath.Join("runs", "graph")},
		{"runs/export/", filepath.Join("runs", "export")},
		{"tree", "tree"},
	}

	for _, tt := range tests {
		if got := outputBase(tt.input); got != tt.want {
			t.Errorf("outputBase(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestArtifactPath(t *testing.T) {
	tests := []struct {
		format string
		want   string
	}{
		{"json", "out/g.layout.json"},
		{"dot", "out/g.dot"},
		{"svg", "out/g.svg"},
		{"png", "out/g.png"},
	}

	for _, tt := range tests {
		if got := artifactPath("out/g", tt.format); got != tt.want {
			t.Errorf("artifactPath(%q) = %q, want %q", tt.format, got, tt.want)
		}
	}
}

package util

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestValidateOutputDir(t *testing.T) {
	tempDir := t.TempDir()
	file := filepath.Join(tempDir, "file_path")
	if err := os.WriteFile(file, nil, 0o644); err != nil {
		t.Fatalf("Failed to create file: %v", err)
	}

	tests := []struct {
		name        string
		dir         string
		want        string
		expectError bool
	}{
		{name: "existing directory", dir: tempDir, want: tempDir},
		{name: "missing directory below existing one", dir: filepath.Join(tempDir, "movies", "new"), want: filepath.Join(tempDir, "movies", "new")},
		{name: "trailing slash is cleaned", dir: tempDir + "/movies/", want: filepath.Join(tempDir, "movies")},
		{name: "surrounding spaces", dir: "  " + tempDir + "  ", want: tempDir},
		{name: "empty", dir: "", expectError: true},
		{name: "blank", dir: "   ", expectError: true},
		{name: "relative path", dir: "media/movies", expectError: true},
		{name: "directory traversal", dir: tempDir + "/../etc", expectError: true},
		{name: "traversal with backslashes", dir: tempDir + `\..\etc`, expectError: true},
		{name: "path is a file", dir: file, expectError: true},
		{name: "parent is a file", dir: filepath.Join(file, "child"), expectError: true},
		{name: "dots inside a name are fine", dir: filepath.Join(tempDir, "a..b"), want: filepath.Join(tempDir, "a..b")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ValidateOutputDir(tt.dir)
			if tt.expectError {
				if err == nil {
					t.Errorf("Expected error but got none (cleaned %q)", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("Expected no error but got: %v", err)
			}
			if got != tt.want {
				t.Errorf("ValidateOutputDir(%q) = %q, want %q", tt.dir, got, tt.want)
			}
		})
	}
}

func TestValidateOutputDirLeavesNoTrace(t *testing.T) {
	tempDir := t.TempDir()
	if _, err := ValidateOutputDir(tempDir); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	entries, err := os.ReadDir(tempDir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Errorf("expected write check to clean up, found %d entries", len(entries))
	}

	missing := filepath.Join(tempDir, "deep", "nested")
	if _, err := ValidateOutputDir(missing); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := os.Stat(missing); !os.IsNotExist(err) {
		t.Errorf("validation must not create %s", missing)
	}
}

func TestValidateOutputDirLongName(t *testing.T) {
	dir := filepath.Join(t.TempDir(), strings.Repeat("a", 200), "unicode 测试")
	if _, err := ValidateOutputDir(dir); err != nil {
		t.Errorf("Expected no error for long path, got: %v", err)
	}
}

package preflight

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"stagehand/internal/config"
	"stagehand/internal/services"
	"stagehand/internal/settings"
)

func TestCheckDirectoryAccess_OK(t *testing.T) {
	dir := t.TempDir()
	result := CheckDirectoryAccess("test", dir)
	if !result.Passed {
		t.Fatalf("expected pass for temp dir, got: %s", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotExist(t *testing.T) {
	result := CheckDirectoryAccess("test", filepath.Join(t.TempDir(), "nope"))
	if result.Passed {
		t.Fatal("expected failure for missing dir")
	}
	if result.Detail == "" {
		t.Fatal("expected non-empty detail")
	}
}

func TestCheckDirectoryAccess_NotDir(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	result := CheckDirectoryAccess("test", f)
	if result.Passed {
		t.Fatal("expected failure for file path")
	}
}

func TestCheckEnvironment(t *testing.T) {
	root := t.TempDir()
	input := filepath.Join(root, "in")
	if err := os.Mkdir(input, 0o755); err != nil {
		t.Fatal(err)
	}
	plainFile := filepath.Join(root, "file.txt")
	if err := os.WriteFile(plainFile, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	cases := []struct {
		name   string
		global settings.Global
		reason string
	}{
		{"existing output", settings.Global{InputDir: input, OutputDir: root}, ""},
		{"creatable output", settings.Global{InputDir: input, OutputDir: filepath.Join(root, "out")}, ""},
		{"missing input", settings.Global{InputDir: filepath.Join(root, "missing"), OutputDir: root}, "does not exist"},
		{"unset input", settings.Global{OutputDir: root}, "not set"},
		{"unset output", settings.Global{InputDir: input}, "not set"},
		{"missing parent", settings.Global{InputDir: input, OutputDir: filepath.Join(root, "a", "b")}, "Parent does not exist"},
		{"output is a file", settings.Global{InputDir: input, OutputDir: plainFile}, "not a directory"},
	}
	for _, tc := range cases {
		err := CheckEnvironment(tc.global)
		if tc.reason == "" {
			if err != nil {
				t.Fatalf("%s: unexpected error %v", tc.name, err)
			}
			continue
		}
		if err == nil || !strings.Contains(err.Error(), tc.reason) {
			t.Fatalf("%s: expected %q, got %v", tc.name, tc.reason, err)
		}
		if !errors.Is(err, services.ErrValidation) {
			t.Fatalf("%s: expected validation marker, got %v", tc.name, err)
		}
	}
}

func TestCheckEnvironmentReadOnlyOutput(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("root bypasses permission checks")
	}
	root := t.TempDir()
	locked := filepath.Join(root, "locked")
	if err := os.Mkdir(locked, 0o555); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chmod(locked, 0o755) })

	err := CheckEnvironment(settings.Global{InputDir: root, OutputDir: locked})
	if err == nil || !strings.Contains(err.Error(), "not writable") {
		t.Fatalf("expected not writable error, got %v", err)
	}
	err = CheckEnvironment(settings.Global{InputDir: root, OutputDir: filepath.Join(locked, "child")})
	if err == nil || !strings.Contains(err.Error(), "Parent not writable") {
		t.Fatalf("expected parent not writable error, got %v", err)
	}
}

func TestRunAll_NilConfig(t *testing.T) {
	if results := RunAll(nil, settings.Global{}); results != nil {
		t.Fatal("expected nil results for nil config")
	}
}

func TestRunAll_MinimalConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.StateDir = t.TempDir()
	cfg.Paths.LogDir = t.TempDir()
	cfg.Paths.ScriptsDir = t.TempDir()

	results := RunAll(&cfg, settings.Global{})
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	for _, r := range results {
		if !r.Passed {
			t.Errorf("check %q failed: %s", r.Name, r.Detail)
		}
	}

	results = RunAll(&cfg, settings.Global{InputDir: filepath.Join(cfg.Paths.StateDir, "nope"), OutputDir: cfg.Paths.LogDir})
	last := results[len(results)-1]
	if last.Name != "Run environment" || last.Passed {
		t.Fatalf("expected failing run environment check, got %+v", last)
	}
}

func TestCheckSystemDeps(t *testing.T) {
	cfg := config.Default()
	cfg.Tools.Python = "/bin/sh"
	cfg.Tools.Colmap = "clearly-not-present-colmap"
	statuses := CheckSystemDeps(&cfg)
	if len(statuses) != 3 {
		t.Fatalf("expected 3 statuses, got %d", len(statuses))
	}
	if !statuses[0].Available || statuses[1].Available {
		t.Fatalf("unexpected availability: %+v", statuses)
	}
	if !statuses[2].Optional {
		t.Fatal("GLOMAP should be optional")
	}
}

package deps

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestCheckExecutables(t *testing.T) {
	binDir := t.TempDir()
	present := filepath.Join(binDir, "present")
	if err := os.WriteFile(present, []byte("#!/bin/sh\nexit 0\n"), 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}

	results := Check(
		Tool{Name: "Present", Path: present},
		Tool{Name: "Missing", Path: "clearly-not-present-binary", Setting: "tools.colmap or STAGEHAND_COLMAP"},
	)
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if !results[0].Available || results[0].Resolved != present || results[0].Detail != "" {
		t.Fatalf("expected first tool to resolve, got %#v", results[0])
	}
	if results[1].Available {
		t.Fatal("expected missing binary to be unavailable")
	}
	want := `"clearly-not-present-binary" not found on PATH (set tools.colmap or STAGEHAND_COLMAP)`
	if results[1].Detail != want {
		t.Fatalf("detail = %q, want %q", results[1].Detail, want)
	}
}

func TestCheckScripts(t *testing.T) {
	dir := t.TempDir()
	script := filepath.Join(dir, "train.py")

	status := Check(Tool{Name: "train", Path: script, Kind: Script, Setting: "paths.scripts_dir"})[0]
	if status.Available || !strings.Contains(status.Detail, "paths.scripts_dir") {
		t.Fatalf("expected missing script naming its setting, got %#v", status)
	}

	if err := os.WriteFile(script, []byte("print()\n"), 0o644); err != nil {
		t.Fatalf("write script: %v", err)
	}
	status = Check(Tool{Name: "train", Path: script, Kind: Script})[0]
	if !status.Available || status.Resolved != script {
		t.Fatalf("expected script to resolve, got %#v", status)
	}

	if status := Check(Tool{Name: "dir", Path: dir, Kind: Script})[0]; status.Available {
		t.Fatal("a directory is not a script")
	}
}

func TestCheckUnconfigured(t *testing.T) {
	status := Check(Tool{Name: "GLOMAP", Path: "  ", Optional: true})[0]
	if status.Available || status.Detail != "not configured" || !status.Optional {
		t.Fatalf("unexpected status %#v", status)
	}
}

func TestProblemsSkipsOptionalTools(t *testing.T) {
	statuses := Check(
		Tool{Name: "sh", Path: "/bin/sh"},
		Tool{Name: "glomap", Path: "clearly-not-present-glomap", Optional: true},
		Tool{Name: "colmap", Path: "clearly-not-present-colmap"},
	)
	want := []string{`"clearly-not-present-colmap" not found on PATH`}
	if diff := cmp.Diff(want, Problems(statuses)); diff != "" {
		t.Fatalf("problems mismatch (-want +got):\n%s", diff)
	}
}

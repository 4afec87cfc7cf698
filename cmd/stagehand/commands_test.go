package main

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"stagehand/internal/history"
	"stagehand/internal/settings"
	"stagehand/internal/staging"
	"stagehand/internal/workflow"
)

func loadStaged(t *testing.T, env *cliTestEnv) settings.Project {
	t.Helper()
	project, err := settings.LoadProject(env.projectPath)
	if err != nil {
		t.Fatalf("LoadProject: %v", err)
	}
	return project
}

func TestConfigInit(t *testing.T) {
	env := setupCLITestEnv(t)
	target := filepath.Join(env.baseDir, "new", "config.toml")

	out := mustRunCLI(t, env, "config", "init", "--path", target)
	requireContains(t, out, "Wrote sample configuration")
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected config file at %s: %v", target, err)
	}
	if _, err := runCLI(t, env, "config", "init", "--path", target); err == nil {
		t.Fatal("expected error when config already exists")
	}

	out = mustRunCLI(t, env, "config", "validate")
	requireContains(t, out, "Configuration valid")
}

func TestStageAddMoveRemovePersists(t *testing.T) {
	env := setupCLITestEnv(t)

	mustRunCLI(t, env, "stage", "add", "frame extraction", "Deduplicate Frames", "BLUR FILTER")
	if diff := cmp.Diff([]string{"Frame Extraction", "Deduplicate Frames", "Blur Filter"}, loadStaged(t, env).Staged); diff != "" {
		t.Fatalf("staged mismatch (-want +got):\n%s", diff)
	}

	mustRunCLI(t, env, "stage", "move", "3", "up")
	if diff := cmp.Diff([]string{"Frame Extraction", "Blur Filter", "Deduplicate Frames"}, loadStaged(t, env).Staged); diff != "" {
		t.Fatalf("staged after move mismatch (-want +got):\n%s", diff)
	}

	mustRunCLI(t, env, "stage", "add", "Standard 3DGS")
	if _, err := runCLI(t, env, "stage", "move", "3", "down"); !errors.Is(err, staging.ErrCrossCategory) {
		t.Fatalf("cross-category move error = %v, want ErrCrossCategory", err)
	}
	if _, err := runCLI(t, env, "stage", "move", "1", "up"); !errors.Is(err, staging.ErrOutOfBounds) {
		t.Fatalf("out-of-bounds move error = %v, want ErrOutOfBounds", err)
	}

	mustRunCLI(t, env, "stage", "remove", "blur filter")
	out := mustRunCLI(t, env, "stage", "list")
	requireContains(t, out, "Deduplicate Frames")
	if diff := cmp.Diff([]string{"Frame Extraction", "Deduplicate Frames", "Standard 3DGS"}, loadStaged(t, env).Staged); diff != "" {
		t.Fatalf("staged after remove mismatch (-want +got):\n%s", diff)
	}
}

func TestStageAddSingleSelectEvicts(t *testing.T) {
	env := setupCLITestEnv(t)

	mustRunCLI(t, env, "stage", "add", "Standard 3DGS", "COLMAP")
	mustRunCLI(t, env, "stage", "add", "glomap (global)")
	if diff := cmp.Diff([]string{"GLOMAP (Global)", "Standard 3DGS"}, loadStaged(t, env).Staged); diff != "" {
		t.Fatalf("staged mismatch (-want +got):\n%s", diff)
	}

	if _, err := runCLI(t, env, "stage", "add", "no such stage"); !errors.Is(err, staging.ErrUnknownStage) {
		t.Fatalf("unknown stage error = %v, want ErrUnknownStage", err)
	}
}

func TestSetStoresTypedValues(t *testing.T) {
	env := setupCLITestEnv(t)

	mustRunCLI(t, env, "set", "blur filter", "target_count=40", "dry_run=true", "label=sharp")
	bag := loadStaged(t, env).Sections["Blur Filter"]
	want := map[string]any{"target_count": int64(40), "dry_run": true, "label": "sharp"}
	if diff := cmp.Diff(want, bag); diff != "" {
		t.Fatalf("settings mismatch (-want +got):\n%s", diff)
	}

	mustRunCLI(t, env, "set", "blur filter", "--unset", "label")
	if _, ok := loadStaged(t, env).Sections["Blur Filter"]["label"]; ok {
		t.Fatal("expected label to be removed")
	}

	out := mustRunCLI(t, env, "stage", "show", "Blur Filter")
	requireContains(t, out, "target_count")

	if _, err := runCLI(t, env, "set", "blur filter", "novalue"); err == nil {
		t.Fatal("expected error for malformed assignment")
	}
}

func TestRunWithNothingStaged(t *testing.T) {
	env := setupCLITestEnv(t)

	out, err := runCLI(t, env, "run")
	if !errors.Is(err, workflow.ErrNothingStaged) {
		t.Fatalf("run error = %v, want ErrNothingStaged", err)
	}
	requireContains(t, out, "[Manager Error]: No steps staged!")
}

func TestRunExecutesAndRecordsHistory(t *testing.T) {
	env := setupCLITestEnv(t)
	env.writeScript(t, "extract_frames.py", "echo \"extracting $*\"\n")
	env.writeScript(t, "deduplicate.py", "echo dedup done\n")

	input := filepath.Join(env.baseDir, "input")
	if err := os.MkdirAll(input, 0o755); err != nil {
		t.Fatalf("mkdir input: %v", err)
	}
	output := filepath.Join(env.baseDir, "output")

	mustRunCLI(t, env, "global", "--input", input, "--output", output)
	mustRunCLI(t, env, "stage", "add", "Frame Extraction", "Deduplicate Frames")

	out := mustRunCLI(t, env, "run")
	requireContains(t, out, "[Manager]: Starting Step 1: Frame Extraction")
	requireContains(t, out, "extracting --input_dir "+input)
	requireContains(t, out, "dedup done")
	requireContains(t, out, "[Manager]: Sequence Complete.")

	if _, err := os.Stat(staging.IntermediatePath(output, "Frame Extraction")); err != nil {
		t.Fatalf("expected intermediate directory: %v", err)
	}

	store, err := history.Open(filepath.Join(env.stateDir, "history.db"))
	if err != nil {
		t.Fatalf("history.Open: %v", err)
	}
	defer store.Close()
	runs, err := store.ListRuns(context.Background(), 5)
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	if len(runs) != 1 || runs[0].State != string(workflow.StateCompleted) {
		t.Fatalf("runs = %+v", runs)
	}
	steps, err := store.RunSteps(context.Background(), runs[0].ID)
	if err != nil {
		t.Fatalf("RunSteps: %v", err)
	}
	if len(steps) != 2 || steps[1].Status != workflow.StatusCompleted {
		t.Fatalf("steps = %+v", steps)
	}

	transcript := filepath.Join(env.logDir, "runs", runs[0].ID+".log")
	data, err := os.ReadFile(transcript)
	if err != nil {
		t.Fatalf("read transcript: %v", err)
	}
	requireContains(t, string(data), "dedup done")

	out = mustRunCLI(t, env, "transcript", "-n", "3")
	requireContains(t, out, "Sequence Complete.")

	out = mustRunCLI(t, env, "history", "--run", runs[0].ID)
	requireContains(t, out, "Deduplicate Frames")

	out = mustRunCLI(t, env, "intermediate", "list")
	requireContains(t, out, "Frame Extraction")
}

func TestRunFailingStepReturnsError(t *testing.T) {
	env := setupCLITestEnv(t)
	env.writeScript(t, "extract_frames.py", "echo broken >&2\nexit 3\n")

	input := filepath.Join(env.baseDir, "input")
	if err := os.MkdirAll(input, 0o755); err != nil {
		t.Fatalf("mkdir input: %v", err)
	}
	mustRunCLI(t, env, "global", "--input", input, "--output", filepath.Join(env.baseDir, "output"))
	mustRunCLI(t, env, "stage", "add", "Frame Extraction")

	out, err := runCLI(t, env, "run")
	if !errors.Is(err, workflow.ErrStepFailed) {
		t.Fatalf("run error = %v, want ErrStepFailed", err)
	}
	requireContains(t, out, "broken")
	requireContains(t, out, "[System]: Process finished with return code 3")
	requireContains(t, out, "[Manager Error]: Aborted due to failed step")
}

func TestDoctorPassesWithStubbedTools(t *testing.T) {
	env := setupCLITestEnv(t)

	out := mustRunCLI(t, env, "doctor")
	requireContains(t, out, "Python:")
	requireContains(t, out, "[OK]")
}

func TestDoctorNamesOverrideForMissingTool(t *testing.T) {
	env := setupCLITestEnv(t)
	t.Setenv("STAGEHAND_COLMAP", "clearly-not-present-colmap")

	out, err := runCLI(t, env, "doctor")
	if err == nil {
		t.Fatalf("expected doctor to fail with a missing tool\noutput:\n%s", out)
	}
	requireContains(t, out, "clearly-not-present-colmap")
	requireContains(t, out, "tools.colmap or STAGEHAND_COLMAP")
}

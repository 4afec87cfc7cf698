package history_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"stagehand/internal/history"
	"stagehand/internal/logging"
	"stagehand/internal/services"
	"stagehand/internal/workflow"
)

func openStore(t *testing.T) *history.Store {
	t.Helper()
	store, err := history.Open(filepath.Join(t.TempDir(), "state", "history.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestOpenIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	for i := 0; i < 2; i++ {
		store, err := history.Open(path)
		if err != nil {
			t.Fatalf("Open #%d: %v", i+1, err)
		}
		if store.Path() != path {
			t.Fatalf("Path = %q, want %q", store.Path(), path)
		}
		if err := store.Close(); err != nil {
			t.Fatalf("Close: %v", err)
		}
	}
}

func TestRunLifecycle(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()
	started := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	if err := store.CreateRun(ctx, history.Run{
		ID:        "run-1",
		State:     "running",
		InputDir:  "/data/in",
		OutputDir: "/data/out",
		Stages:    []string{"Frame Extraction", "COLMAP"},
		Started:   started,
	}); err != nil {
		t.Fatalf("CreateRun: %v", err)
	}

	code := 0
	stepStart := started.Add(time.Second)
	step := history.Step{RunID: "run-1", Index: 0, Name: "Frame Extraction", Status: "Running", Input: "/data/in", Output: "/data/out/intermediate/Frame Extraction", Command: "python extract_frames.py", Started: &stepStart}
	if err := store.UpsertStep(ctx, step); err != nil {
		t.Fatalf("UpsertStep running: %v", err)
	}
	stepEnd := stepStart.Add(time.Minute)
	step.Status = "Completed"
	step.ExitCode = &code
	step.Finished = &stepEnd
	if err := store.UpsertStep(ctx, step); err != nil {
		t.Fatalf("UpsertStep completed: %v", err)
	}

	finished := started.Add(2 * time.Minute)
	if err := store.FinishRun(ctx, "run-1", "completed", "", finished); err != nil {
		t.Fatalf("FinishRun: %v", err)
	}

	run, err := store.GetRun(ctx, "run-1")
	if err != nil {
		t.Fatalf("GetRun: %v", err)
	}
	want := history.Run{
		ID:        "run-1",
		State:     "completed",
		InputDir:  "/data/in",
		OutputDir: "/data/out",
		Stages:    []string{"Frame Extraction", "COLMAP"},
		Started:   started,
		Finished:  &finished,
	}
	if diff := cmp.Diff(want, run); diff != "" {
		t.Fatalf("run mismatch (-want +got):\n%s", diff)
	}

	steps, err := store.RunSteps(ctx, "run-1")
	if err != nil {
		t.Fatalf("RunSteps: %v", err)
	}
	if diff := cmp.Diff([]history.Step{step}, steps); diff != "" {
		t.Fatalf("steps mismatch (-want +got):\n%s", diff)
	}
}

func TestListRunsNewestFirst(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	for i, id := range []string{"a", "b", "c"} {
		if err := store.CreateRun(ctx, history.Run{ID: id, State: "running", Started: base.Add(time.Duration(i) * time.Hour)}); err != nil {
			t.Fatalf("CreateRun %s: %v", id, err)
		}
	}

	runs, err := store.ListRuns(ctx, 2)
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	var ids []string
	for _, run := range runs {
		ids = append(ids, run.ID)
	}
	if diff := cmp.Diff([]string{"c", "b"}, ids); diff != "" {
		t.Fatalf("ids mismatch (-want +got):\n%s", diff)
	}

	removed, err := store.DeleteBefore(ctx, base.Add(90*time.Minute))
	if err != nil {
		t.Fatalf("DeleteBefore: %v", err)
	}
	if removed != 2 {
		t.Fatalf("removed = %d, want 2", removed)
	}
}

func TestUnknownRun(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	if _, err := store.GetRun(ctx, "missing"); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("GetRun error = %v, want ErrNotFound", err)
	}
	if err := store.FinishRun(ctx, "missing", "failed", "boom", time.Now()); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("FinishRun error = %v, want ErrNotFound", err)
	}
}

func TestRecorderPersistsObserverEvents(t *testing.T) {
	store := openStore(t)
	rec := history.NewRecorder(store, logging.NewNop())
	started := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)

	rec.RunStarted(workflow.RunInfo{RunID: "r", InputDir: "/in", OutputDir: "/out", Stages: []string{"A", "B"}, Started: started})
	rec.StepChanged("r", workflow.Step{Index: 0, Name: "A", Status: workflow.StatusPending})
	rec.StepChanged("r", workflow.Step{Index: 1, Name: "B", Status: workflow.StatusPending})

	code := 3
	rec.StepChanged("r", workflow.Step{
		Index:    0,
		Name:     "A",
		Status:   workflow.StatusFailed,
		Command:  []string{"/bin/false", "x"},
		ExitCode: &code,
		Started:  started,
		Finished: started.Add(time.Second),
	})
	rec.RunFinished(workflow.Result{RunID: "r", State: workflow.StateFailed, Err: workflow.ErrStepFailed, Finished: started.Add(2 * time.Second)})
	rec.RunFinished(workflow.Result{State: workflow.StateFailed, Err: workflow.ErrNothingStaged})

	ctx := context.Background()
	run, err := store.GetRun(ctx, "r")
	if err != nil {
		t.Fatalf("GetRun: %v", err)
	}
	if run.State != "failed" || run.Error != workflow.ErrStepFailed.Error() {
		t.Fatalf("run = %+v", run)
	}
	steps, err := store.RunSteps(ctx, "r")
	if err != nil {
		t.Fatalf("RunSteps: %v", err)
	}
	if len(steps) != 2 {
		t.Fatalf("steps = %d, want 2", len(steps))
	}
	first := steps[0]
	if first.Status != workflow.StatusFailed || first.Command != "/bin/false x" || first.ExitCode == nil || *first.ExitCode != 3 {
		t.Fatalf("first step = %+v", first)
	}
	if steps[1].Status != workflow.StatusPending || steps[1].Started != nil {
		t.Fatalf("second step = %+v", steps[1])
	}
}

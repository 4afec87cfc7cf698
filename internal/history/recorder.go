package history

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"stagehand/internal/logging"
	"stagehand/internal/workflow"
)

const recordTimeout = 5 * time.Second

// Recorder persists sequencer lifecycle events. Write failures are logged and
// never interrupt the run.
type Recorder struct {
	store  *Store
	logger *slog.Logger
}

// NewRecorder wraps store as a workflow observer.
func NewRecorder(store *Store, logger *slog.Logger) *Recorder {
	return &Recorder{store: store, logger: logging.NewComponentLogger(logger, "history")}
}

var _ workflow.Observer = (*Recorder)(nil)

func (r *Recorder) RunStarted(info workflow.RunInfo) {
	ctx, cancel := context.WithTimeout(context.Background(), recordTimeout)
	defer cancel()
	err := r.store.CreateRun(ctx, Run{
		ID:        info.RunID,
		State:     string(workflow.StateRunning),
		InputDir:  info.InputDir,
		OutputDir: info.OutputDir,
		Stages:    info.Stages,
		Started:   info.Started,
	})
	r.report(err, "record run start", info.RunID)
}

func (r *Recorder) StepChanged(runID string, step workflow.Step) {
	ctx, cancel := context.WithTimeout(context.Background(), recordTimeout)
	defer cancel()
	err := r.store.UpsertStep(ctx, Step{
		RunID:    runID,
		Index:    step.Index,
		Name:     step.Name,
		Status:   step.Status,
		Input:    step.Input,
		Output:   step.Output,
		Command:  strings.Join(step.Command, " "),
		ExitCode: step.ExitCode,
		Started:  optionalTime(step.Started),
		Finished: optionalTime(step.Finished),
	})
	r.report(err, "record step", runID)
}

func (r *Recorder) RunFinished(result workflow.Result) {
	if result.RunID == "" {
		// Rejected before a run identifier was assigned.
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), recordTimeout)
	defer cancel()
	message := ""
	if result.Err != nil {
		message = result.Err.Error()
	}
	finished := result.Finished
	if finished.IsZero() {
		finished = time.Now()
	}
	err := r.store.FinishRun(ctx, result.RunID, string(result.State), message, finished)
	r.report(err, "record run finish", result.RunID)
}

func (r *Recorder) report(err error, action, runID string) {
	if err == nil {
		return
	}
	logging.WarnWithContext(r.logger, "history write failed", "history_write_failed",
		logging.String("action", action),
		logging.String(logging.FieldRunID, runID),
		logging.Error(err),
		logging.String(logging.FieldImpact, "run history will be incomplete"),
	)
}

func optionalTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

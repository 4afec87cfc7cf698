package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"stagehand/internal/logging"
	"stagehand/internal/output"
	"stagehand/internal/services"
	"stagehand/internal/settings"
	"stagehand/internal/stage"
	"stagehand/internal/staging"
)

// control runs on the run's goroutine and owns every state transition.
func (s *Sequencer) control(ctx context.Context, r *run, global settings.Global, stages []stage.Stage) {
	logger := logging.WithContext(ctx, s.logger)

	for i, st := range stages {
		if s.aborted(r) {
			break
		}
		if ctx.Err() != nil {
			s.stopRun(r)
			break
		}
		stepCtx := services.WithStepIndex(services.WithStage(ctx, st.Name()), i)
		if err := s.runStep(stepCtx, r, i, global, stages); err != nil {
			result := s.finish(r, StateFailed, err)
			s.logFinished(logger, result)
			return
		}
	}

	if s.aborted(r) {
		s.out.Publishf("%s Sequence stopped.", output.PrefixManager)
		result := s.finish(r, StateAborted, ErrStopped)
		s.logFinished(logger, result)
		return
	}
	s.out.Publishf("%s Sequence Complete.", output.PrefixManager)
	result := s.finish(r, StateCompleted, nil)
	s.logFinished(logger, result)
}

// runStep executes stage i to completion. A nil error means the step exited
// zero (or the run was stopped, which the caller detects separately).
func (s *Sequencer) runStep(ctx context.Context, r *run, i int, global settings.Global, stages []stage.Stage) error {
	logger := logging.WithContext(ctx, s.logger)
	st := stages[i]
	name := st.Name()

	s.out.Publishf("\n%s Starting Step %d: %s", output.PrefixManager, i+1, name)

	input := global.InputDir
	if i > 0 {
		input = stages[i-1].OutputPath()
	}
	out := global.OutputDir
	if i < len(stages)-1 {
		out = staging.IntermediatePath(global.OutputDir, name)
	}
	if err := os.MkdirAll(out, 0o755); err != nil {
		s.out.Publishf("%s Failed to create output dir %s: %v", output.PrefixManagerWarning, out, err)
		logger.Warn("output directory creation failed; stage may fail",
			logging.String("path", out),
			logging.Error(err),
			logging.String(logging.FieldEventType, "step_output_dir_failed"),
			logging.String(logging.FieldImpact, "the stage will likely fail writing its output"),
		)
	}

	if err := st.Validate(); err != nil {
		s.out.Publishf("%s Step '%s' validation failed: %v", output.PrefixManagerError, name, err)
		s.setStep(r, i, func(step *Step) { step.Status = StatusError })
		logger.Error("step validation failed",
			logging.Error(err),
			logging.String(logging.FieldEventType, "step_invalid"),
			logging.String(logging.FieldErrorHint, "adjust the stage settings with `stagehand set`"),
			logging.String(logging.FieldImpact, "remaining stages skipped"),
		)
		return fmt.Errorf("%w: %s: %w", ErrStepFailed, name, err)
	}

	st.SetPaths(input, out)
	s.out.Publishf("   -> Input: %s", input)
	s.out.Publishf("   -> Output: %s", out)

	cmd, err := st.BuildCommand()
	if err == nil && len(cmd) == 0 {
		err = services.Wrap(services.ErrConfiguration, name, "build command", "empty command", nil)
	}
	if err != nil {
		s.out.Publishf("%s Step '%s' could not build its command: %v", output.PrefixManagerError, name, err)
		s.setStep(r, i, func(step *Step) {
			step.Status = StatusError
			step.Input, step.Output = input, out
		})
		logger.Error("step command construction failed",
			logging.Error(err),
			logging.String(logging.FieldEventType, "step_invalid"),
			logging.String(logging.FieldImpact, "remaining stages skipped"),
		)
		return fmt.Errorf("%w: %s: %w", ErrStepFailed, name, err)
	}

	started := time.Now().UTC()
	s.setStep(r, i, func(step *Step) {
		step.Status = StatusRunning
		step.Input, step.Output = input, out
		step.Command = cmd
		step.Started = started
	})
	logger.Info("step started",
		logging.String(logging.FieldEventType, "step_start"),
		logging.String("input_dir", input),
		logging.String("output_dir", out),
		logging.String("command", strings.Join(cmd, " ")),
	)

	// The runner calls back from its worker goroutine; the buffered channel
	// hands the exit code to this goroutine without blocking the worker.
	completions := make(chan int, 1)
	if !s.runner.Start(cmd, func(code int) { completions <- code }) {
		s.setStep(r, i, func(step *Step) {
			step.Status = StatusFailed
			step.Finished = time.Now().UTC()
		})
		s.out.Publishf("%s Aborted due to failed step", output.PrefixManagerError)
		logger.Error("step rejected by process runner",
			logging.String(logging.FieldEventType, "step_failed"),
			logging.String(logging.FieldErrorHint, "another process is active; wait for it to finish"),
		)
		return fmt.Errorf("%w: %s: %w", ErrStepFailed, name, services.ErrBusy)
	}

	var code int
	select {
	case code = <-completions:
	case <-ctx.Done():
		s.stopRun(r)
		code = <-completions
	}

	status := StatusCompleted
	if code != 0 {
		status = StatusFailed
	}
	s.setStep(r, i, func(step *Step) {
		step.Status = status
		step.ExitCode = &code
		step.Finished = time.Now().UTC()
	})

	if code == 0 {
		logger.Info("step completed",
			logging.String(logging.FieldEventType, "step_complete"),
			logging.Duration("duration", time.Since(started)),
		)
		return nil
	}
	if s.aborted(r) {
		logger.Info("step ended after stop",
			logging.Int("exit_code", code),
			logging.String(logging.FieldEventType, "step_stopped"),
		)
		return nil
	}
	s.out.Publishf("%s Aborted due to failed step", output.PrefixManagerError)
	logger.Error("step failed",
		logging.Int("exit_code", code),
		logging.String(logging.FieldEventType, "step_failed"),
		logging.String(logging.FieldErrorHint, "inspect the step output above for the tool's error"),
		logging.String(logging.FieldImpact, "remaining stages skipped"),
	)
	return fmt.Errorf("%w: %s exited with code %d", ErrStepFailed, name, code)
}

func (s *Sequencer) logFinished(logger *slog.Logger, result Result) {
	attrs := []logging.Attr{
		logging.String(logging.FieldEventType, "run_complete"),
		logging.String("state", string(result.State)),
		logging.Duration("duration", result.Finished.Sub(result.Started)),
	}
	switch {
	case result.Err == nil:
		logger.Info("sequence finished", logging.Args(attrs...)...)
	case errors.Is(result.Err, ErrStopped):
		logger.Warn("sequence stopped", logging.Args(append(attrs,
			logging.String(logging.FieldImpact, "remaining stages skipped"))...)...)
	default:
		logger.Error("sequence failed", logging.Args(append(attrs, logging.Error(result.Err))...)...)
	}
}

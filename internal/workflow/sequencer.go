package workflow

import (
	"context"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"stagehand/internal/logging"
	"stagehand/internal/output"
	"stagehand/internal/preflight"
	"stagehand/internal/services"
	"stagehand/internal/settings"
	"stagehand/internal/staging"
)

// Sequencer drives the staging list through the process runner.
type Sequencer struct {
	list   *staging.List
	store  *settings.Store
	runner ProcessRunner
	out    *output.Channel
	logger *slog.Logger

	mu        sync.Mutex
	state     State
	current   *run
	last      Result
	listeners []StatusFunc
	observers []Observer
}

// run holds the records of one Run call. A stop is recorded on the run
// itself so a later Run cannot clear it.
type run struct {
	id      string
	steps   []Step
	started time.Time
	stopped bool
	done    chan struct{}
}

func (r *run) finished() bool {
	select {
	case <-r.done:
		return true
	default:
		return false
	}
}

// New constructs a Sequencer. The settings store supplies the global context
// read at the start of every run.
func New(list *staging.List, store *settings.Store, runner ProcessRunner, out *output.Channel, logger *slog.Logger) *Sequencer {
	return &Sequencer{
		list:   list,
		store:  store,
		runner: runner,
		out:    out,
		logger: logging.NewComponentLogger(logger, "sequencer"),
		state:  StateIdle,
	}
}

// OnStatus registers a status listener.
func (s *Sequencer) OnStatus(fn StatusFunc) {
	if fn == nil {
		return
	}
	s.mu.Lock()
	s.listeners = append(s.listeners, fn)
	s.mu.Unlock()
}

// Observe registers a lifecycle observer.
func (s *Sequencer) Observe(o Observer) {
	if o == nil {
		return
	}
	s.mu.Lock()
	s.observers = append(s.observers, o)
	s.mu.Unlock()
}

// State returns the current run state.
func (s *Sequencer) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Steps returns a copy of the current (or last) run's step records.
func (s *Sequencer) Steps() []Step {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return nil
	}
	return slices.Clone(s.current.steps)
}

// Run validates the staging list and environment, then starts executing the
// staged stages in the background. It returns once the run has started or a
// pre-run check has failed; use Wait for the outcome. A stopped run still
// counts as active until its in-flight process has exited.
func (s *Sequencer) Run(ctx context.Context) error {
	s.mu.Lock()
	if s.current != nil && !s.current.finished() {
		s.mu.Unlock()
		s.out.Publishf("%s A sequence is already running.", output.PrefixManagerError)
		s.logger.Warn("run rejected; sequence already active",
			logging.String(logging.FieldEventType, "run_rejected"),
			logging.String(logging.FieldImpact, "the active run continues unaffected"),
		)
		return ErrAlreadyRunning
	}
	r := &run{done: make(chan struct{})}
	s.state = StateValidating
	s.current = r
	s.mu.Unlock()

	stages := s.list.Stages()
	if len(stages) == 0 {
		s.out.Publishf("%s No steps staged!", output.PrefixManagerError)
		return s.rejectRun(r, ErrNothingStaged, "add stages before running", "nothing to run")
	}

	if !s.list.ValidateOrder() {
		s.out.Publishf("%s Pipeline appears out of order. Running anyway...", output.PrefixManagerWarning)
		s.logger.Warn("staging order violates category ranks; continuing",
			logging.Strings("stages", s.list.Names()),
			logging.String(logging.FieldEventType, "run_order_warning"),
			logging.String(logging.FieldImpact, "stages may receive unexpected inputs"),
		)
	}

	global := s.store.Global()
	if err := preflight.CheckEnvironment(global); err != nil {
		s.out.Publishf("%s %v", output.PrefixManagerError, err)
		s.out.Publishf("%s Dataset Validation Failed. Aborting", output.PrefixManagerError)
		return s.rejectRun(r, err, "fix the global input/output directories and rerun", "run not started")
	}

	release := s.list.Freeze()
	runID := uuid.NewString()
	started := time.Now().UTC()
	steps := make([]Step, len(stages))
	names := make([]string, len(stages))
	for i, st := range stages {
		steps[i] = Step{Index: i, Name: st.Name(), Status: StatusPending}
		names[i] = st.Name()
	}

	s.mu.Lock()
	if r.stopped {
		s.mu.Unlock()
		release()
		return s.finishRejected(r, ErrStopped)
	}
	s.state = StateRunning
	r.id = runID
	r.steps = steps
	r.started = started
	observers := slices.Clone(s.observers)
	s.mu.Unlock()

	info := RunInfo{RunID: runID, InputDir: global.InputDir, OutputDir: global.OutputDir, Stages: names, Started: started}
	for _, o := range observers {
		o.RunStarted(info)
	}

	runCtx := services.WithRunID(ctx, runID)
	logging.WithContext(runCtx, s.logger).Info("sequence started",
		logging.String(logging.FieldEventType, "run_start"),
		logging.Strings("stages", names),
		logging.String("input_dir", global.InputDir),
		logging.String("output_dir", global.OutputDir),
	)

	go func() {
		defer close(r.done)
		defer release()
		s.control(runCtx, r, global, stages)
	}()
	return nil
}

// Stop marks the run aborted and asks the runner to terminate the in-flight
// process. It does not wait.
func (s *Sequencer) Stop() {
	s.mu.Lock()
	r := s.current
	s.mu.Unlock()
	s.stopRun(r)
}

func (s *Sequencer) stopRun(r *run) {
	s.mu.Lock()
	active := r != nil && r == s.current && !r.stopped && !r.finished()
	runID := ""
	if active {
		r.stopped = true
		s.state = StateAborted
		runID = r.id
	}
	s.mu.Unlock()

	if active {
		s.logger.Info("stop requested",
			logging.String(logging.FieldRunID, runID),
			logging.String(logging.FieldEventType, "run_stop_requested"),
		)
	}
	s.runner.Stop()
}

// Wait blocks until the current run finishes or ctx ends, then returns the
// run's result.
func (s *Sequencer) Wait(ctx context.Context) (Result, error) {
	s.mu.Lock()
	r := s.current
	s.mu.Unlock()
	if r == nil {
		return Result{State: StateIdle}, nil
	}

	select {
	case <-r.done:
	case <-ctx.Done():
		return Result{}, ctx.Err()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last, nil
}

func (s *Sequencer) rejectRun(r *run, err error, hint, impact string) error {
	s.logger.Error("sequence not started",
		logging.Error(err),
		logging.String(logging.FieldEventType, "run_rejected"),
		logging.String(logging.FieldErrorHint, hint),
		logging.String(logging.FieldImpact, impact),
	)
	return s.finishRejected(r, err)
}

func (s *Sequencer) finishRejected(r *run, err error) error {
	s.mu.Lock()
	state := StateFailed
	if r.stopped {
		state = StateAborted
	}
	s.state = state
	now := time.Now().UTC()
	s.last = Result{State: state, Err: err, Started: now, Finished: now}
	s.mu.Unlock()
	close(r.done)
	return err
}

// finish records the terminal state unless Stop already claimed it.
func (s *Sequencer) finish(r *run, state State, err error) Result {
	s.mu.Lock()
	if r.stopped {
		state = StateAborted
		err = ErrStopped
	}
	s.state = state
	s.last = Result{
		RunID:    r.id,
		State:    state,
		Steps:    slices.Clone(r.steps),
		Err:      err,
		Started:  r.started,
		Finished: time.Now().UTC(),
	}
	result := s.last
	observers := slices.Clone(s.observers)
	s.mu.Unlock()

	for _, o := range observers {
		o.RunFinished(result)
	}
	return result
}

func (s *Sequencer) aborted(r *run) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return r.stopped
}

// setStep applies mutate to the indexed step and notifies listeners.
func (s *Sequencer) setStep(r *run, index int, mutate func(*Step)) {
	s.mu.Lock()
	if index < 0 || index >= len(r.steps) {
		s.mu.Unlock()
		return
	}
	before := r.steps[index].Status
	mutate(&r.steps[index])
	step := r.steps[index]
	runID := r.id
	listeners := slices.Clone(s.listeners)
	observers := slices.Clone(s.observers)
	s.mu.Unlock()

	if step.Status != before {
		for _, fn := range listeners {
			fn(index, step.Status)
		}
	}
	for _, o := range observers {
		o.StepChanged(runID, step)
	}
}

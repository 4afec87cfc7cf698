package executor

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"sync"
	"syscall"

	"golang.org/x/sys/unix"

	"stagehand/internal/logging"
	"stagehand/internal/output"
)

// SpawnFailed is the exit code reported when a process could not be started.
const SpawnFailed = -1

// Options configures an Executor.
type Options struct {
	Logger *slog.Logger
	// Env is appended to the parent environment for every process.
	Env []string
	// Dir is the working directory for spawned processes.
	Dir string
}

// Executor owns the single active external process.
type Executor struct {
	out    *output.Channel
	logger *slog.Logger
	env    []string
	dir    string

	mu       sync.Mutex
	cmd      *exec.Cmd
	canceled bool
	spawned  int
}

// New constructs an Executor publishing to out.
func New(out *output.Channel, opts Options) *Executor {
	return &Executor{
		out:    out,
		logger: logging.NewComponentLogger(opts.Logger, "executor"),
		env:    append([]string(nil), opts.Env...),
		dir:    opts.Dir,
	}
}

// Start spawns args[0] with args[1:]. When a process is already active the
// call publishes a notice and returns false without spawning. Otherwise it
// returns true and onComplete is later invoked exactly once, from the worker
// goroutine, with the exit code (SpawnFailed when the process never started).
func (e *Executor) Start(args []string, onComplete func(int)) bool {
	if onComplete == nil {
		onComplete = func(int) {}
	}

	e.mu.Lock()
	if e.cmd != nil {
		e.mu.Unlock()
		e.out.Publishf("%s A process is already running.", output.PrefixSystem)
		e.logger.Warn("start rejected; process already active",
			logging.String(logging.FieldEventType, "process_rejected"),
			logging.String(logging.FieldImpact, "requested command was not run"),
		)
		return false
	}
	e.canceled = false

	if len(args) == 0 || strings.TrimSpace(args[0]) == "" {
		e.mu.Unlock()
		e.spawnFailed(args, errors.New("empty command"), onComplete)
		return true
	}

	e.out.Publishf("%s Starting command: %s", output.PrefixSystem, strings.Join(args, " "))

	reader, writer, err := os.Pipe()
	if err != nil {
		e.mu.Unlock()
		e.spawnFailed(args, fmt.Errorf("output pipe: %w", err), onComplete)
		return true
	}

	cmd := exec.Command(args[0], args[1:]...) //nolint:gosec
	cmd.Stdout = writer
	cmd.Stderr = writer
	cmd.Dir = e.dir
	if len(e.env) > 0 {
		cmd.Env = append(os.Environ(), e.env...)
	}
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	if err := cmd.Start(); err != nil {
		_ = reader.Close()
		_ = writer.Close()
		e.mu.Unlock()
		e.spawnFailed(args, err, onComplete)
		return true
	}
	// The child holds its own copy; closing ours lets the reader see EOF.
	_ = writer.Close()
	e.cmd = cmd
	e.spawned++
	e.mu.Unlock()

	e.logger.Info("process started",
		logging.String(logging.FieldEventType, "process_start"),
		logging.String("command", args[0]),
		logging.Int("pid", cmd.Process.Pid),
	)

	go e.drain(cmd, reader, onComplete)
	return true
}

func (e *Executor) drain(cmd *exec.Cmd, reader *os.File, onComplete func(int)) {
	defer reader.Close()

	buffered := bufio.NewReader(reader)
	for {
		line, err := buffered.ReadString('\n')
		if line != "" {
			e.out.Publish(line)
		}
		if err != nil {
			if !errors.Is(err, io.EOF) && !errors.Is(err, os.ErrClosed) {
				e.logger.Warn("process output read failed",
					logging.Error(err),
					logging.String(logging.FieldEventType, "process_output_error"),
					logging.String(logging.FieldImpact, "remaining process output may be missing"),
				)
			}
			break
		}
	}

	code := exitCode(cmd.Wait())

	e.mu.Lock()
	canceled := e.canceled
	e.cmd = nil
	e.canceled = false
	e.mu.Unlock()

	e.out.Publishf("%s Process finished with return code %d", output.PrefixSystem, code)
	e.logger.Info("process finished",
		logging.String(logging.FieldEventType, "process_complete"),
		logging.Int("exit_code", code),
		logging.Bool("canceled", canceled),
	)
	onComplete(code)
}

func (e *Executor) spawnFailed(args []string, err error, onComplete func(int)) {
	e.out.Publishf("%s Error executing command: %v", output.PrefixSystem, err)
	name := ""
	if len(args) > 0 {
		name = args[0]
	}
	e.logger.Error("process spawn failed",
		logging.String(logging.FieldEventType, "process_spawn_failed"),
		logging.String("command", name),
		logging.Error(err),
		logging.String(logging.FieldErrorHint, "check the tool path in config or the STAGEHAND_* environment overrides"),
	)
	go onComplete(SpawnFailed)
}

// Stop requests graceful termination of the active process. It does not wait
// for the process to exit.
func (e *Executor) Stop() {
	e.mu.Lock()
	cmd := e.cmd
	if cmd == nil {
		e.mu.Unlock()
		e.out.Publishf("%s No process is running.", output.PrefixSystem)
		e.logger.Debug("stop requested with no active process",
			logging.String(logging.FieldEventType, "process_stop_noop"),
		)
		return
	}
	e.canceled = true
	e.mu.Unlock()

	e.out.Publishf("%s Terminating process...", output.PrefixSystem)
	pid := cmd.Process.Pid
	if err := unix.Kill(-pid, unix.SIGTERM); err != nil {
		if sigErr := cmd.Process.Signal(syscall.SIGTERM); sigErr != nil && !errors.Is(sigErr, os.ErrProcessDone) {
			e.logger.Warn("terminate signal failed",
				logging.Int("pid", pid),
				logging.Error(sigErr),
				logging.String(logging.FieldEventType, "process_stop_failed"),
				logging.String(logging.FieldImpact, "process may keep running until it exits on its own"),
			)
			return
		}
	}
	e.logger.Info("terminate signal sent",
		logging.Int("pid", pid),
		logging.String(logging.FieldEventType, "process_stop"),
	)
}

// Active reports whether a process is running.
func (e *Executor) Active() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cmd != nil
}

// Spawned reports how many processes this executor has started.
func (e *Executor) Spawned() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.spawned
}

// exitCode maps a Wait result to a return code. A process killed by a signal
// reports the negated signal number.
func exitCode(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		if status, ok := exitErr.Sys().(syscall.WaitStatus); ok && status.Signaled() {
			return -int(status.Signal())
		}
		return exitErr.ExitCode()
	}
	return SpawnFailed
}

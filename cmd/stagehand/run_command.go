package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"stagehand/internal/config"
	"stagehand/internal/executor"
	"stagehand/internal/history"
	"stagehand/internal/logging"
	"stagehand/internal/output"
	"stagehand/internal/runlock"
	"stagehand/internal/transcript"
	"stagehand/internal/workflow"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	var input, outputDir string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Execute the staged stages in order",
		Long: `Execute the staged stages in order, streaming tool output.

--input and --output override the project's global directories for this run
only. Interrupt (Ctrl+C) terminates the running tool and stops the sequence.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			sess, err := ctx.openSession()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("input") {
				path, err := expandOptional(input)
				if err != nil {
					return err
				}
				sess.store.SetInputDir(path)
			}
			if cmd.Flags().Changed("output") {
				path, err := expandOptional(outputDir)
				if err != nil {
					return err
				}
				sess.store.SetOutputDir(path)
			}

			lock, err := runlock.Acquire(cfg.LockPath())
			if err != nil {
				return err
			}
			defer func() {
				if err := lock.Release(); err != nil {
					logger.Warn("run lock release failed", logging.Error(err))
				}
			}()

			logging.CleanupOldLogs(logger, cfg.Logging.RetentionDays, logging.RetentionTarget{
				Dir:     cfg.TranscriptDir(),
				Pattern: "*.log",
			})

			hist, err := history.Open(cfg.HistoryPath())
			if err != nil {
				return err
			}
			defer hist.Close()

			out := output.NewChannel()
			ex := executor.New(out, executor.Options{Logger: logger})
			seq := workflow.New(sess.list, sess.store, ex, out, logger)
			seq.Observe(history.NewRecorder(hist, logger))
			transcripts := &transcriptObserver{dir: cfg.TranscriptDir(), out: out, logger: logger}
			seq.Observe(transcripts)
			defer transcripts.close()

			printer := linePrinter{w: cmd.OutOrStdout(), colorize: resolveColor(cfg.Console.Color, cmd.OutOrStdout())}
			result, err := drive(cmd.Context(), cfg, seq, out, printer)
			if err != nil {
				return err
			}
			printRunSummary(cmd.OutOrStdout(), result)
			if path := transcripts.path(); path != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "Transcript: %s\n", path)
			}
			if result.State != workflow.StateCompleted {
				if result.RunID == "" {
					return result.Err
				}
				return fmt.Errorf("run %s %s: %w", result.RunID, result.State, result.Err)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&input, "input", "i", "", "Override the global input directory")
	cmd.Flags().StringVarP(&outputDir, "output", "o", "", "Override the global output directory")
	return cmd
}

// drive starts the run and prints the output channel at the configured
// cadence until the run ends. SIGINT and SIGTERM stop the sequence.
func drive(parent context.Context, cfg *config.Config, seq *workflow.Sequencer, out *output.Channel, printer linePrinter) (workflow.Result, error) {
	if parent == nil {
		parent = context.Background()
	}
	sigCtx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := seq.Run(sigCtx); err != nil {
		printer.print(out.Drain())
		if errors.Is(err, workflow.ErrAlreadyRunning) {
			return workflow.Result{}, err
		}
		result, _ := seq.Wait(context.Background())
		return result, nil
	}

	done := make(chan struct{})
	var result workflow.Result
	g, gctx := errgroup.WithContext(context.Background())
	g.Go(func() error {
		defer close(done)
		var err error
		result, err = seq.Wait(gctx)
		return err
	})
	g.Go(func() error {
		ticker := time.NewTicker(cfg.PollInterval())
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				printer.print(out.Drain())
			case <-done:
				printer.print(out.Drain())
				return nil
			}
		}
	})
	if err := g.Wait(); err != nil {
		return workflow.Result{}, err
	}
	return result, nil
}

func printRunSummary(w io.Writer, result workflow.Result) {
	if len(result.Steps) == 0 {
		return
	}
	rows := make([][]string, 0, len(result.Steps))
	for _, step := range result.Steps {
		code := ""
		if step.ExitCode != nil {
			code = strconv.Itoa(*step.ExitCode)
		}
		elapsed := ""
		if !step.Started.IsZero() && !step.Finished.IsZero() {
			elapsed = step.Finished.Sub(step.Started).Truncate(time.Second).String()
		}
		rows = append(rows, []string{strconv.Itoa(step.Index + 1), step.Name, step.Status, code, elapsed})
	}
	fmt.Fprintln(w)
	fmt.Fprint(w, renderTable(
		[]string{"#", "Stage", "Status", "Exit", "Elapsed"},
		rows,
		[]columnAlignment{alignRight, alignLeft, alignLeft, alignRight, alignRight},
	))
	fmt.Fprintf(w, "Run %s: %s\n", result.RunID, result.State)
}

// transcriptObserver opens a per-run transcript file once the run has an
// identifier and attaches it to the output channel.
type transcriptObserver struct {
	dir    string
	out    *output.Channel
	logger *slog.Logger

	mu   sync.Mutex
	sink *output.FileSink
}

func (t *transcriptObserver) RunStarted(info workflow.RunInfo) {
	sink, err := output.OpenFileSink(transcript.Path(t.dir, info.RunID))
	if err != nil {
		logging.WarnWithContext(t.logger, "transcript unavailable", "transcript_open_failed",
			logging.String(logging.FieldRunID, info.RunID),
			logging.Error(err),
			logging.String(logging.FieldImpact, "run output is only shown on the terminal"),
		)
		return
	}
	t.mu.Lock()
	t.sink = sink
	t.mu.Unlock()
	t.out.AddSink(sink)
}

func (t *transcriptObserver) StepChanged(string, workflow.Step) {}

func (t *transcriptObserver) RunFinished(workflow.Result) {}

func (t *transcriptObserver) path() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.sink == nil {
		return ""
	}
	return t.sink.Path()
}

func (t *transcriptObserver) close() {
	t.mu.Lock()
	sink := t.sink
	t.mu.Unlock()
	if sink == nil {
		return
	}
	if err := sink.Close(); err != nil {
		logging.WarnWithContext(t.logger, "transcript write failed", "transcript_write_failed",
			logging.String("path", sink.Path()),
			logging.Error(err),
		)
	}
}

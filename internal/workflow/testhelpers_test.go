package workflow

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"stagehand/internal/executor"
	"stagehand/internal/output"
	"stagehand/internal/registry"
	"stagehand/internal/settings"
	"stagehand/internal/stage"
	"stagehand/internal/staging"
)

// shellStage runs script with $1 = input and $2 = output.
type shellStage struct {
	*stage.Base
	script      string
	validateErr error
	command     []string
}

func (s *shellStage) Validate() error { return s.validateErr }

func (s *shellStage) BuildCommand() ([]string, error) {
	if s.command != nil {
		return s.command, nil
	}
	return []string{"/bin/sh", "-c", s.script, s.Name(), s.InputPath(), s.OutputPath()}, nil
}

func (s *shellStage) Options() []stage.Option { return nil }

type harness struct {
	t      *testing.T
	store  *settings.Store
	list   *staging.List
	exec   *executor.Executor
	out    *output.Channel
	seq    *Sequencer
	input  string
	output string

	mu       sync.Mutex
	statuses []statusEvent
}

type statusEvent struct {
	Index  int
	Status string
}

func newHarness(t *testing.T, stages ...*shellStage) *harness {
	t.Helper()
	root := t.TempDir()
	h := &harness{
		t:      t,
		store:  settings.NewStore(),
		out:    output.NewChannel(),
		input:  filepath.Join(root, "in"),
		output: filepath.Join(root, "out"),
	}
	if err := os.Mkdir(h.input, 0o755); err != nil {
		t.Fatalf("create input: %v", err)
	}
	h.store.SetGlobal(settings.Global{InputDir: h.input, OutputDir: h.output})

	members := make([]stage.Stage, len(stages))
	for i, st := range stages {
		members[i] = st
	}
	reg := registry.New()
	if err := reg.Add(&registry.Category{Name: "Test", Mode: registry.Multi, Rank: 1, Stages: members}); err != nil {
		t.Fatalf("register: %v", err)
	}
	h.list = staging.NewList(reg)
	for _, st := range stages {
		if err := h.list.Toggle(st, true); err != nil {
			t.Fatalf("stage %s: %v", st.Name(), err)
		}
	}
	h.exec = executor.New(h.out, executor.Options{})
	h.seq = New(h.list, h.store, h.exec, h.out, nil)
	h.seq.OnStatus(func(index int, status string) {
		h.mu.Lock()
		h.statuses = append(h.statuses, statusEvent{index, status})
		h.mu.Unlock()
	})
	return h
}

func newShellStage(name, script string) *shellStage {
	return &shellStage{Base: stage.NewBase(name, nil), script: script}
}

func (h *harness) wait() Result {
	h.t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()
	result, err := h.seq.Wait(ctx)
	if err != nil {
		h.t.Fatalf("wait: %v", err)
	}
	return result
}

func (h *harness) lines() []string {
	return output.Texts(h.out.Drain())
}

func (h *harness) statusLog() []statusEvent {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]statusEvent(nil), h.statuses...)
}

func containsText(lines []string, want string) bool {
	for _, line := range lines {
		if line == want {
			return true
		}
	}
	return false
}

func countKind(lines []string, kind output.Kind) int {
	n := 0
	for _, line := range lines {
		if output.Classify(line) == kind {
			n++
		}
	}
	return n
}

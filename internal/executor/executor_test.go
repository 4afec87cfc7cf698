package executor

import (
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"stagehand/internal/output"
)

func startAndWait(t *testing.T, e *Executor, args []string) int {
	t.Helper()
	done := make(chan int, 1)
	if !e.Start(args, func(code int) { done <- code }) {
		t.Fatalf("start rejected for %v", args)
	}
	select {
	case code := <-done:
		return code
	case <-time.After(10 * time.Second):
		t.Fatalf("process %v did not complete", args)
		return 0
	}
}

func TestStartStreamsMergedOutputInOrder(t *testing.T) {
	ch := output.NewChannel()
	e := New(ch, Options{})

	code := startAndWait(t, e, []string{"/bin/sh", "-c", "echo one; echo two >&2; printf three"})
	if code != 0 {
		t.Fatalf("expected exit 0, got %d", code)
	}
	want := []string{
		"[System]: Starting command: /bin/sh -c echo one; echo two >&2; printf three\n",
		"one\n",
		"two\n",
		"three",
		"[System]: Process finished with return code 0\n",
	}
	if diff := cmp.Diff(want, output.Texts(ch.Drain())); diff != "" {
		t.Fatalf("output mismatch (-want +got):\n%s", diff)
	}
	if e.Active() {
		t.Fatal("executor should be idle after completion")
	}
}

func TestNonZeroExitCode(t *testing.T) {
	e := New(output.NewChannel(), Options{})
	if code := startAndWait(t, e, []string{"/bin/sh", "-c", "exit 3"}); code != 3 {
		t.Fatalf("expected exit 3, got %d", code)
	}
}

func TestSpawnFailureReportsSentinel(t *testing.T) {
	ch := output.NewChannel()
	e := New(ch, Options{})
	code := startAndWait(t, e, []string{"/nonexistent/stagehand-tool"})
	if code != SpawnFailed {
		t.Fatalf("expected %d, got %d", SpawnFailed, code)
	}
	texts := output.Texts(ch.Drain())
	found := false
	for _, text := range texts {
		if strings.HasPrefix(text, "[System]: Error executing command:") {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected spawn failure line, got %q", texts)
	}
	if e.Active() || e.Spawned() != 0 {
		t.Fatalf("spawn failure must leave executor idle, active=%v spawned=%d", e.Active(), e.Spawned())
	}

	if code := startAndWait(t, e, nil); code != SpawnFailed {
		t.Fatalf("empty command: expected %d, got %d", SpawnFailed, code)
	}
}

func TestSecondStartIsRejected(t *testing.T) {
	ch := output.NewChannel()
	e := New(ch, Options{})
	done := make(chan int, 1)
	if !e.Start([]string{"/bin/sh", "-c", "sleep 5"}, func(code int) { done <- code }) {
		t.Fatal("first start rejected")
	}

	called := make(chan int, 1)
	if e.Start([]string{"/bin/sh", "-c", "echo second"}, func(code int) { called <- code }) {
		t.Fatal("second start should be rejected")
	}
	if e.Spawned() != 1 {
		t.Fatalf("expected exactly one spawned process, got %d", e.Spawned())
	}

	e.Stop()
	select {
	case <-done:
	case <-time.After(10 * time.Second):
		t.Fatal("stopped process did not complete")
	}
	select {
	case <-called:
		t.Fatal("rejected start must not invoke its continuation")
	default:
	}

	texts := output.Texts(ch.Drain())
	if !containsLine(texts, "[System]: A process is already running.\n") {
		t.Fatalf("missing rejection notice in %q", texts)
	}
}

func TestStopTerminatesProcessGroup(t *testing.T) {
	ch := output.NewChannel()
	e := New(ch, Options{})
	done := make(chan int, 1)
	script := "echo ready; sleep 30 & wait"
	if !e.Start([]string{"/bin/sh", "-c", script}, func(code int) { done <- code }) {
		t.Fatal("start rejected")
	}

	deadline := time.Now().Add(5 * time.Second)
	for !containsLine(output.Texts(ch.Drain()), "ready\n") {
		if time.Now().After(deadline) {
			t.Fatal("process never reported ready")
		}
		time.Sleep(10 * time.Millisecond)
	}

	e.Stop()
	select {
	case code := <-done:
		if code == 0 {
			t.Fatal("terminated process should not report success")
		}
	case <-time.After(10 * time.Second):
		t.Fatal("stop did not terminate the process group")
	}
	if e.Active() {
		t.Fatal("executor should be idle after stop")
	}
}

func TestStopWithoutProcessPublishesNotice(t *testing.T) {
	ch := output.NewChannel()
	New(ch, Options{}).Stop()
	if diff := cmp.Diff([]string{"[System]: No process is running.\n"}, output.Texts(ch.Drain())); diff != "" {
		t.Fatalf("unexpected output:\n%s", diff)
	}
}

func TestEnvIsPassedToProcess(t *testing.T) {
	ch := output.NewChannel()
	e := New(ch, Options{Env: []string{"STAGEHAND_TEST_VALUE=42"}, Dir: t.TempDir()})
	if code := startAndWait(t, e, []string{"/bin/sh", "-c", "echo $STAGEHAND_TEST_VALUE"}); code != 0 {
		t.Fatalf("unexpected exit %d", code)
	}
	if !containsLine(output.Texts(ch.Drain()), "42\n") {
		t.Fatal("expected env value in output")
	}
}

func containsLine(texts []string, want string) bool {
	for _, text := range texts {
		if text == want {
			return true
		}
	}
	return false
}

package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

type cliTestEnv struct {
	baseDir     string
	configPath  string
	projectPath string
	scriptsDir  string
	logDir      string
	stateDir    string
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	base := t.TempDir()
	homeDir := filepath.Join(base, "home")
	if err := os.MkdirAll(homeDir, 0o755); err != nil {
		t.Fatalf("mkdir home: %v", err)
	}
	t.Setenv("HOME", homeDir)
	for _, key := range []string{"STAGEHAND_PYTHON", "STAGEHAND_COLMAP", "STAGEHAND_GLOMAP", "STAGEHAND_FASTGS_SCRIPT"} {
		t.Setenv(key, "")
	}

	env := &cliTestEnv{
		baseDir:     base,
		configPath:  filepath.Join(base, "config.toml"),
		projectPath: filepath.Join(base, "project.toml"),
		scriptsDir:  filepath.Join(base, "scripts"),
		logDir:      filepath.Join(base, "logs"),
		stateDir:    filepath.Join(base, "state"),
	}
	if err := os.MkdirAll(env.scriptsDir, 0o755); err != nil {
		t.Fatalf("mkdir scripts: %v", err)
	}

	content := fmt.Sprintf(`[paths]
state_dir = %q
log_dir = %q
scripts_dir = %q

[tools]
python = "/bin/sh"
colmap = "/bin/sh"
glomap = "/bin/sh"
fastgs_script = %q

[console]
poll_interval_ms = 10
color = "never"

[logging]
level = "error"
`, env.stateDir, env.logDir, env.scriptsDir, filepath.Join(env.scriptsDir, "train.py"))
	if err := os.WriteFile(env.configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return env
}

// writeScript installs a shell script under the scripts directory; the
// configured python is /bin/sh so stage commands run it directly.
func (e *cliTestEnv) writeScript(t *testing.T, name, body string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(e.scriptsDir, name), []byte(body), 0o644); err != nil {
		t.Fatalf("write script %s: %v", name, err)
	}
}

func runCLI(t *testing.T, env *cliTestEnv, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	flags := []string{"--config", env.configPath, "--project", env.projectPath}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), err
}

func mustRunCLI(t *testing.T, env *cliTestEnv, args ...string) string {
	t.Helper()
	out, err := runCLI(t, env, args...)
	if err != nil {
		t.Fatalf("stagehand %s: %v\noutput:\n%s", strings.Join(args, " "), err, out)
	}
	return out
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}

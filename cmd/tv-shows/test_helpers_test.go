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
	baseDir    string
	showsDir   string
	stateDir   string
	configPath string
}

// setupCLITestEnv writes a config rooted in a temp dir. extra is appended
// verbatim so tests can add [[shows]], [plex], or [tvmaze] settings.
func setupCLITestEnv(t *testing.T, extra string) *cliTestEnv {
	t.Helper()
	for _, key := range []string{"TVSHOWS_SHOWS_DIR", "PLEX_URL", "NTFY_TOPIC"} {
		t.Setenv(key, "")
	}

	base := t.TempDir()
	env := &cliTestEnv{
		baseDir:    base,
		showsDir:   filepath.Join(base, "shows"),
		stateDir:   filepath.Join(base, "state"),
		configPath: filepath.Join(base, "config", "config.toml"),
	}
	if err := os.MkdirAll(env.showsDir, 0o755); err != nil {
		t.Fatalf("mkdir shows dir: %v", err)
	}
	if err := os.MkdirAll(filepath.Dir(env.configPath), 0o755); err != nil {
		t.Fatalf("mkdir config dir: %v", err)
	}

	content := fmt.Sprintf(`shows_dir = %q
state_dir = %q
max_items = 5

[plex]
state_path = %q

[logging]
level = "error"

`, env.showsDir, env.stateDir, filepath.Join(env.stateDir, "plex_auth.json"))
	writeConfig(t, env.configPath, content+extra)
	return env
}

func writeConfig(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func (e *cliTestEnv) writeFile(t *testing.T, rel, content string) string {
	t.Helper()
	path := filepath.Join(e.showsDir, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

func (e *cliTestEnv) writePlexToken(t *testing.T, token string) {
	t.Helper()
	path := filepath.Join(e.stateDir, "plex_auth.json")
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir state dir: %v", err)
	}
	state := fmt.Sprintf(`{"authorization_token":%q,"client_identifier":"cli-test"}`, token)
	if err := os.WriteFile(path, []byte(state), 0o600); err != nil {
		t.Fatalf("write plex state: %v", err)
	}
}

func runCLI(t *testing.T, configPath string, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func assertExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected %s to exist: %v", path, err)
	}
}

func assertMissing(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("expected %s to be gone, stat err=%v", path, err)
	}
}

func assertContains(t *testing.T, output, want string) {
	t.Helper()
	if !strings.Contains(output, want) {
		t.Fatalf("expected output to contain %q, got:\n%s", want, output)
	}
}

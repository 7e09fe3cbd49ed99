package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
)

const sampleSubtitle = "1\n00:00:01,000 --> 00:00:02,000\nHello.\n"

func seedShows(t *testing.T, env *cliTestEnv) {
	t.Helper()
	env.writeFile(t, "showA.s01e01/showA.s01e01.hdtv.mp4", "video-a")
	env.writeFile(t, "showB.s01e02/showB.s01e02.hdtv.mp4.part", "video-b")
	env.writeFile(t, "showA.s01e01.hdtv.srt", sampleSubtitle)
	env.writeFile(t, "showB.s01e02.hdtv.srt", sampleSubtitle)
}

func TestOrganizeMovesSubtitlesAndRecordsHistory(t *testing.T) {
	env := setupCLITestEnv(t, "")
	seedShows(t, env)

	stdout, _, err := runCLI(t, env.configPath, "organize", "--no-plex")
	if err != nil {
		t.Fatalf("organize: %v", err)
	}
	assertContains(t, stdout, "Moved 2 subtitle(s)")

	assertExists(t, filepath.Join(env.showsDir, "showA.s01e01", "showA.s01e01.hdtv.srt"))
	assertExists(t, filepath.Join(env.showsDir, "showB.s01e02", "showB.s01e02.hdtv.srt"))
	assertMissing(t, filepath.Join(env.showsDir, "showA.s01e01.hdtv.srt"))
	assertMissing(t, filepath.Join(env.showsDir, "showB.s01e02.hdtv.srt"))

	stdout, _, err = runCLI(t, env.configPath, "history", "--json")
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	var runs []runView
	if err := json.Unmarshal([]byte(stdout), &runs); err != nil {
		t.Fatalf("decode history: %v\n%s", err, stdout)
	}
	if len(runs) != 1 {
		t.Fatalf("expected 1 recorded run, got %d", len(runs))
	}
	if runs[0].Moved != 2 || runs[0].FailedDeletes != 0 || runs[0].Error != "" {
		t.Fatalf("unexpected run summary: %+v", runs[0])
	}
	if len(runs[0].Relocations) != 2 {
		t.Fatalf("expected 2 relocations, got %d", len(runs[0].Relocations))
	}
	for _, r := range runs[0].Relocations {
		if !r.Removed {
			t.Fatalf("expected original removed for %s", r.Input)
		}
	}
}

func TestOrganizeDryRunLeavesFilesInPlace(t *testing.T) {
	env := setupCLITestEnv(t, "")
	seedShows(t, env)
	env.writeFile(t, "unrelated.documentary.srt", sampleSubtitle)

	stdout, _, err := runCLI(t, env.configPath, "organize", "--dry-run")
	if err != nil {
		t.Fatalf("organize --dry-run: %v", err)
	}
	assertContains(t, stdout, "Would move 2 subtitle(s)")
	assertContains(t, stdout, "No matching video: unrelated.documentary.srt")
	assertExists(t, filepath.Join(env.showsDir, "showA.s01e01.hdtv.srt"))
	assertMissing(t, filepath.Join(env.showsDir, "showA.s01e01", "showA.s01e01.hdtv.srt"))
}

func TestOrganizeNothingToMove(t *testing.T) {
	env := setupCLITestEnv(t, "")

	stdout, _, err := runCLI(t, env.configPath, "organize", "--no-plex")
	if err != nil {
		t.Fatalf("organize: %v", err)
	}
	assertContains(t, stdout, "Moved 0 subtitle(s)")
}

func TestOrganizeRefreshesAndPrunesPlex(t *testing.T) {
	var (
		mu        sync.Mutex
		refreshed bool
		deleted   []string
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-Plex-Token") != "cli-token" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		mu.Lock()
		defer mu.Unlock()
		switch {
		case r.URL.Path == "/library/sections":
			_, _ = w.Write([]byte(`<MediaContainer><Directory key="2" title="TV Shows" type="show"/></MediaContainer>`))
		case r.URL.Path == "/library/sections/2/refresh":
			refreshed = true
		case r.URL.Path == "/library/sections/2/all":
			_, _ = w.Write([]byte(`<MediaContainer>
  <Video ratingKey="101" title="Pilot" grandparentTitle="Belle" viewCount="1"/>
  <Video ratingKey="102" title="Second" grandparentTitle="Belle"/>
</MediaContainer>`))
		case r.Method == http.MethodDelete:
			deleted = append(deleted, r.URL.Path)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	env := setupCLITestEnv(t, "")
	rewritePlexSection(t, env, server.URL)
	env.writePlexToken(t, "cli-token")
	seedShows(t, env)

	stdout, _, err := runCLI(t, env.configPath, "organize")
	if err != nil {
		t.Fatalf("organize: %v", err)
	}
	assertContains(t, stdout, "Moved 2 subtitle(s)")
	assertContains(t, stdout, "Plex library refresh requested")
	assertContains(t, stdout, "Removed 1 episode(s)")
	assertContains(t, stdout, "Belle - Pilot")

	mu.Lock()
	defer mu.Unlock()
	if !refreshed {
		t.Fatal("expected plex section refresh")
	}
	if len(deleted) != 1 || deleted[0] != "/library/metadata/101" {
		t.Fatalf("unexpected deletes: %v", deleted)
	}
}

func TestOrganizeReportsUnlinkedPlex(t *testing.T) {
	env := setupCLITestEnv(t, "")
	rewritePlexSection(t, env, "http://127.0.0.1:9")
	seedShows(t, env)

	stdout, _, err := runCLI(t, env.configPath, "organize")
	if err == nil {
		t.Fatal("expected error when plex is not linked")
	}
	assertContains(t, stdout, "Moved 2 subtitle(s)")
}

func TestOrganizeWatchRequiresSchedule(t *testing.T) {
	env := setupCLITestEnv(t, "")

	_, _, err := runCLI(t, env.configPath, "organize", "--watch")
	if err == nil {
		t.Fatal("expected error without organize.schedule")
	}
	assertContains(t, err.Error(), "organize.schedule is empty")
}

// rewritePlexSection replaces the generated [plex] table with one pointing at
// url and enabling both follow-ups.
func rewritePlexSection(t *testing.T, env *cliTestEnv, url string) {
	t.Helper()
	content := `shows_dir = "` + filepath.ToSlash(env.showsDir) + `"
state_dir = "` + filepath.ToSlash(env.stateDir) + `"

[plex]
url = "` + url + `"
refresh_library = true
remove_watched_episodes = true
state_path = "` + filepath.ToSlash(filepath.Join(env.stateDir, "plex_auth.json")) + `"

[logging]
level = "error"
`
	writeConfig(t, env.configPath, content)
}

func TestOrganizeLogsRunIDOnce(t *testing.T) {
	env := setupCLITestEnv(t, "")
	logPath := filepath.Join(env.baseDir, "tv-shows.log")
	writeConfig(t, env.configPath, `shows_dir = "`+filepath.ToSlash(env.showsDir)+`"
state_dir = "`+filepath.ToSlash(env.stateDir)+`"

[logging]
level = "info"
format = "json"
file = "`+filepath.ToSlash(logPath)+`"
`)
	seedShows(t, env)

	if _, _, err := runCLI(t, env.configPath, "organize", "--no-plex"); err != nil {
		t.Fatalf("organize: %v", err)
	}

	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	tagged := 0
	for _, line := range strings.Split(strings.TrimSpace(string(data)), "\n") {
		switch n := strings.Count(line, `"run_id"`); {
		case n > 1:
			t.Fatalf("run_id repeated in log line: %s", line)
		case n == 1:
			tagged++
		}
	}
	if tagged == 0 {
		t.Fatalf("expected organize log lines tagged with run_id, got:\n%s", data)
	}
}

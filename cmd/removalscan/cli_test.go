package main

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// testEnv is an isolated workspace for running the CLI end to end.
type testEnv struct {
	dir        string
	store      string
	historyDir string
	configPath string
}

func newTestEnv(t *testing.T, serverURL string) *testEnv {
	t.Helper()

	dir := t.TempDir()
	env := &testEnv{
		dir:        dir,
		store:      filepath.Join(dir, "removals.json"),
		historyDir: filepath.Join(dir, "history"),
		configPath: filepath.Join(dir, "sources.yaml"),
	}

	sources := fmt.Sprintf(`sources:
  - name: hard_g_history
    enabled: false
  - name: amnesty_usa
    enabled: false
  - name: deportation_data
    enabled: false
  - name: dhs_ohss
    enabled: false
  - name: ice_statistics
    enabled: false
  - name: test_news
    endpoint: %s
    patterns:
      - '(?P<count>\d+) people to (?P<place>[A-Z][a-z]+)'
`, serverURL)
	if err := os.WriteFile(env.configPath, []byte(sources), 0600); err != nil {
		t.Fatal(err)
	}
	return env
}

// run executes the root command with the workspace flags appended.
func (e *testEnv) run(t *testing.T, args ...string) (string, error) {
	t.Helper()

	args = append(args,
		"--store", e.store,
		"--history-dir", e.historyDir,
		"--config", e.configPath,
		"--env-file", filepath.Join(e.dir, "missing.env"),
	)

	var stdout, stderr bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), err
}

func newsServer(t *testing.T) *httptest.Server {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, `<html><body>
<p>Officials sent 12 people to Ghana on Friday.</p>
<p>Another flight took 7 people to Eswatini.</p>
</body></html>`)
	}))
	t.Cleanup(srv.Close)
	return srv
}

// TestUpdateWorkflow runs update twice, then inspects the dataset with the
// other commands.
func TestUpdateWorkflow(t *testing.T) {
	srv := newsServer(t)
	env := newTestEnv(t, srv.URL)

	out, err := env.run(t, "update", "--delay", "0")
	if err != nil {
		t.Fatalf("first update failed: %v\n%s", err, out)
	}
	for _, want := range []string{
		"Collecting 1 sources",
		"test_news",
		"Added 2 new records; dataset now has 2 records",
		"Recorded as run #1",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("expected first update output to contain %q, got:\n%s", want, out)
		}
	}

	out, err = env.run(t, "update", "--delay", "0")
	if err != nil {
		t.Fatalf("second update failed: %v\n%s", err, out)
	}
	if !strings.Contains(out, "Added 0 new records; dataset now has 2 records") {
		t.Errorf("expected second update to add nothing, got:\n%s", out)
	}

	t.Run("validate", func(t *testing.T) {
		out, err := env.run(t, "validate")
		if err != nil {
			t.Fatalf("validate failed: %v\n%s", err, out)
		}
		if !strings.Contains(out, "2 entries, valid") {
			t.Errorf("got %q, expected a valid report", out)
		}
	})

	t.Run("export csv to stdout", func(t *testing.T) {
		out, err := env.run(t, "export", "--format", "csv", "--output", "-")
		if err != nil {
			t.Fatalf("export failed: %v", err)
		}
		lines := strings.Split(strings.TrimSpace(out), "\n")
		if len(lines) != 3 {
			t.Fatalf("got %d lines, expected header and 2 rows:\n%s", len(lines), out)
		}
		if !strings.HasPrefix(lines[0], "destination_country,") {
			t.Errorf("got header %q", lines[0])
		}
		if !strings.HasPrefix(lines[1], "GHANA,") || !strings.HasPrefix(lines[2], "ESWATINI,") {
			t.Errorf("got rows %q, expected GHANA then ESWATINI", lines[1:])
		}
	})

	t.Run("export all", func(t *testing.T) {
		exportDir := filepath.Join(env.dir, "exports")
		out, err := env.run(t, "export", "--dir", exportDir)
		if err != nil {
			t.Fatalf("export failed: %v", err)
		}
		if got := strings.Count(out, "Exported "); got != 4 {
			t.Errorf("got %d exported files, expected 4:\n%s", got, out)
		}
		entries, err := os.ReadDir(exportDir)
		if err != nil {
			t.Fatal(err)
		}
		if len(entries) != 4 {
			t.Errorf("got %d files in %s, expected 4", len(entries), exportDir)
		}
	})

	t.Run("history", func(t *testing.T) {
		out, err := env.run(t, "history")
		if err != nil {
			t.Fatalf("history failed: %v", err)
		}
		if !strings.Contains(out, "ID") || strings.Count(out, "\n") != 3 {
			t.Errorf("expected header and two runs, got:\n%s", out)
		}

		out, err = env.run(t, "history", "1")
		if err != nil {
			t.Fatalf("history 1 failed: %v", err)
		}
		if !strings.Contains(out, "Run #1") || !strings.Contains(out, "test_news") {
			t.Errorf("unexpected run details:\n%s", out)
		}
	})

	t.Run("sources", func(t *testing.T) {
		out, err := env.run(t, "sources")
		if err != nil {
			t.Fatalf("sources failed: %v", err)
		}
		for _, want := range []string{"hard_g_history", "test_news", srv.URL} {
			if !strings.Contains(out, want) {
				t.Errorf("expected sources output to contain %q, got:\n%s", want, out)
			}
		}
	})
}

// TestUpdateSourceFailure checks that a failing source is reported without
// failing the command.
func TestUpdateSourceFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "gone", http.StatusInternalServerError)
	}))
	t.Cleanup(srv.Close)
	env := newTestEnv(t, srv.URL)

	out, err := env.run(t, "update", "--delay", "0", "--no-history")
	if err != nil {
		t.Fatalf("update failed: %v\n%s", err, out)
	}
	if !strings.Contains(out, "FAILED") {
		t.Errorf("expected the source to be reported as failed, got:\n%s", out)
	}
	if !strings.Contains(out, "(1 failed)") || !strings.Contains(out, "Added 0 new records") {
		t.Errorf("unexpected summary:\n%s", out)
	}
	if strings.Contains(out, "Recorded as run") {
		t.Error("expected no history with --no-history")
	}
}

// TestValidateInvalidDataset checks the non-zero result for a bad dataset.
func TestValidateInvalidDataset(t *testing.T) {
	env := newTestEnv(t, "http://127.0.0.1:1")

	bad := `[{"destination_country":"GHANA","date":"2025-02-30","number_removed":3,"origin_nationalities":[]}]`
	if err := os.WriteFile(env.store, []byte(bad), 0600); err != nil {
		t.Fatal(err)
	}

	out, err := env.run(t, "validate")
	if !errors.Is(err, errInvalidDataset) {
		t.Fatalf("got %v, expected errInvalidDataset", err)
	}
	if !strings.Contains(out, "entry 0: date") {
		t.Errorf("expected a date issue, got:\n%s", out)
	}
}

// TestMissingConfigFile checks that an explicit sources file must exist.
func TestMissingConfigFile(t *testing.T) {
	dir := t.TempDir()

	cmd := NewRootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"sources", "--config", filepath.Join(dir, "nope.yaml"),
		"--env-file", filepath.Join(dir, "missing.env")})

	if err := cmd.Execute(); err == nil || !strings.Contains(err.Error(), "not found") {
		t.Errorf("got %v, expected a not found error", err)
	}
}

package main

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/handiism/feed-downloader/internal/download"
)

func newFeedServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/episodes":
			w.Header().Set("Content-Type", "text/html")
			w.Write([]byte(`<html><head><title>Episodes</title></head><body>
				<a href="/a.mp3">Episode 1</a>
				<a href="/b.mp3">Episode 2</a>
			</body></html>`))
		case "/a.mp3":
			w.Write([]byte("one"))
		default:
			http.Error(w, "gone", http.StatusGone)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func baseArgs(dir string) []string {
	return []string{
		"--output", filepath.Join(dir, "media"),
		"--progress-file", filepath.Join(dir, "progress.json"),
		"--failure-log", filepath.Join(dir, "log.txt"),
		"--backoff", "1ms",
		"--no-tags",
	}
}

func TestExecute_ItemFailuresExitZero(t *testing.T) {
	srv := newFeedServer(t)
	dir := t.TempDir()

	var stdout, stderr bytes.Buffer
	code := execute(append(baseArgs(dir), srv.URL+"/episodes"), &stdout, &stderr)

	if code != codeOK {
		t.Fatalf("exit code = %d, stderr = %s", code, stderr.String())
	}
	if !strings.Contains(stdout.String(), "1 downloaded, 1 failed") {
		t.Errorf("stdout = %s", stdout.String())
	}

	log, err := os.ReadFile(filepath.Join(dir, "log.txt"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(log), "Failed to download: Episode 2 - ") {
		t.Errorf("failure log = %q", log)
	}
}

func TestExecute_DryRun(t *testing.T) {
	srv := newFeedServer(t)
	dir := t.TempDir()

	var stdout, stderr bytes.Buffer
	code := execute(append(baseArgs(dir), "--dry-run", srv.URL+"/episodes"), &stdout, &stderr)

	if code != codeOK {
		t.Fatalf("exit code = %d, stderr = %s", code, stderr.String())
	}
	if !strings.Contains(stdout.String(), "2 items, 2 to download") {
		t.Errorf("stdout = %s", stdout.String())
	}
	if _, err := os.Stat(filepath.Join(dir, "media")); !os.IsNotExist(err) {
		t.Error("dry run must not create the output directory")
	}
}

func TestExecute_Errors(t *testing.T) {
	srv := newFeedServer(t)

	tests := []struct {
		name string
		args []string
	}{
		{"missing url", nil},
		{"unreachable feed", []string{srv.URL + "/nothing"}},
		{"invalid parallel", []string{"--parallel", "0", srv.URL + "/episodes"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stdout, stderr bytes.Buffer
			args := append(baseArgs(t.TempDir()), tt.args...)
			if code := execute(args, &stdout, &stderr); code != codeError {
				t.Errorf("exit code = %d, want %d", code, codeError)
			}
			if !strings.Contains(stderr.String(), "Error:") {
				t.Errorf("stderr = %q", stderr.String())
			}
		})
	}
}

func TestProgressLine(t *testing.T) {
	tests := []struct {
		name string
		p    download.Progress
		want string
	}{
		{"one failure of two", download.Progress{Completed: 2, Total: 2, Succeeded: 1, Failed: 1}, "   [2/2 done] 1 downloaded, 1 failed"},
		{"in progress", download.Progress{Completed: 1, Total: 3, Succeeded: 1}, "   [1/3 done] 1 downloaded, 0 failed"},
		{"interrupted", download.Progress{Completed: 2, Total: 4, Succeeded: 1, Aborted: 1}, "   [2/4 done] 1 downloaded, 0 failed, 1 interrupted"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := progressLine(tt.p); got != tt.want {
				t.Errorf("progressLine() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestExecute_ProgressOutput(t *testing.T) {
	srv := newFeedServer(t)
	dir := t.TempDir()

	var stdout, stderr bytes.Buffer
	if code := execute(append(baseArgs(dir), srv.URL+"/episodes"), &stdout, &stderr); code != codeOK {
		t.Fatalf("exit code = %d, stderr = %s", code, stderr.String())
	}
	if !strings.Contains(stdout.String(), "[2/2 done] 1 downloaded, 1 failed") {
		t.Errorf("stdout = %s", stdout.String())
	}
}

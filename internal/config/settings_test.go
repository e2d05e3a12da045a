package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/handiism/feed-downloader/internal/download"
	"github.com/handiism/feed-downloader/internal/model"
	"github.com/handiism/feed-downloader/internal/progress"
	"github.com/spf13/pflag"
)

func TestLoad_Defaults(t *testing.T) {
	s, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if s.Download.MaxParallel != 4 || s.Download.MaxRetries != 3 {
		t.Errorf("parallel/retries = %d/%d, want 4/3", s.Download.MaxParallel, s.Download.MaxRetries)
	}
	if s.Download.BackoffUnit != time.Second {
		t.Errorf("BackoffUnit = %v", s.Download.BackoffUnit)
	}
	if s.Progress.Path != "download_progress.json" || s.FailureLog.Path != "log.txt" {
		t.Errorf("paths = %q, %q", s.Progress.Path, s.FailureLog.Path)
	}
	if s.Progress.OnCorrupt != OnCorruptAbort {
		t.Errorf("OnCorrupt = %q", s.Progress.OnCorrupt)
	}
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	s, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if s.Download.OutputRoot != "media" {
		t.Errorf("OutputRoot = %q", s.Download.OutputRoot)
	}
}

func TestLoad_Layering(t *testing.T) {
	path := filepath.Join(t.TempDir(), "feed-dl.yaml")
	yaml := strings.Join([]string{
		"download:",
		"  output_root: /srv/media",
		"  max_parallel: 2",
		"  backoff_unit: 250ms",
		"progress:",
		"  backend: sqlite",
		"  path: state.db",
	}, "\n")
	if err := os.WriteFile(path, []byte(yaml), 0644); err != nil {
		t.Fatal(err)
	}

	t.Setenv("FEEDDL_DOWNLOAD_MAX_RETRIES", "5")

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.Int("parallel", 4, "")
	fs.String("output", "media", "")
	if err := fs.Parse([]string{"--parallel", "8"}); err != nil {
		t.Fatal(err)
	}

	s, err := Load(path, WithFlags(fs, map[string]string{
		"download.max_parallel": "parallel",
		"download.output_root":  "output",
	}))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	tests := []struct {
		name string
		got  any
		want any
	}{
		{"flag beats file", s.Download.MaxParallel, 8},
		{"unset flag keeps file", s.Download.OutputRoot, "/srv/media"},
		{"env beats default", s.Download.MaxRetries, 5},
		{"duration from file", s.Download.BackoffUnit, 250 * time.Millisecond},
		{"backend from file", s.Progress.Backend, BackendSQLite},
		{"default kept", s.Playlist.Format, "m3u"},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("%s: got %v, want %v", tt.name, tt.got, tt.want)
		}
	}

	if _, ok := s.NewStore().(*progress.SQLiteStore); !ok {
		t.Errorf("NewStore() = %T, want *progress.SQLiteStore", s.NewStore())
	}
}

func TestLoad_UnknownFlag(t *testing.T) {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	if _, err := Load("", WithFlags(fs, map[string]string{"download.max_parallel": "nope"})); err == nil {
		t.Error("expected error for unknown flag")
	}
}

func TestSettings_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(s *Settings)
		wantErr string
	}{
		{"defaults are valid", func(s *Settings) {}, ""},
		{"zero parallel", func(s *Settings) { s.Download.MaxParallel = 0 }, "max_parallel"},
		{"zero retries", func(s *Settings) { s.Download.MaxRetries = 0 }, "max_retries"},
		{"negative backoff", func(s *Settings) { s.Download.BackoffUnit = -time.Second }, "backoff_unit"},
		{"unknown backend", func(s *Settings) { s.Progress.Backend = "redis" }, "progress.backend"},
		{"unknown corrupt policy", func(s *Settings) { s.Progress.OnCorrupt = "ignore" }, "on_corrupt"},
		{"empty output root", func(s *Settings) { s.Download.OutputRoot = "" }, "output_root"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := DefaultSettings()
			tt.mutate(s)
			err := s.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("err = %v, want mention of %q", err, tt.wantErr)
			}
		})
	}
}

func TestSettings_Conversions(t *testing.T) {
	s := DefaultSettings()
	s.Progress.OnCorrupt = OnCorruptReset
	s.Progress.Incremental = true
	s.Playlist.Format = "pls"

	mc := s.ManagerConfig()
	if mc.OnCorrupt != download.CorruptReset || !mc.Incremental || mc.MaxParallel != 4 {
		t.Errorf("ManagerConfig() = %+v", mc)
	}
	if wc := s.WorkerConfig(); wc.MaxRetries != 3 || wc.BackoffUnit != time.Second {
		t.Errorf("WorkerConfig() = %+v", wc)
	}
	if s.PlaylistFormat() != model.PlaylistFormatPLS {
		t.Errorf("PlaylistFormat() = %v", s.PlaylistFormat())
	}
	if _, ok := s.NewStore().(*progress.JSONStore); !ok {
		t.Errorf("NewStore() = %T, want *progress.JSONStore", s.NewStore())
	}
}

func TestSettings_SaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "feed-dl.yaml")
	s := DefaultSettings()
	s.Download.MaxParallel = 6
	s.Download.RequestTimeout = 90 * time.Second
	s.Playlist.Create = true

	if err := s.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.Download.MaxParallel != 6 || loaded.Download.RequestTimeout != 90*time.Second || !loaded.Playlist.Create {
		t.Errorf("loaded = %+v", loaded.Download)
	}
}

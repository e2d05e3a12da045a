package logging

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/handiism/feed-downloader/internal/config"
	"github.com/sirupsen/logrus"
)

func TestNew_Levels(t *testing.T) {
	tests := []struct {
		level   string
		want    logrus.Level
		wantErr bool
	}{
		{"", logrus.InfoLevel, false},
		{"debug", logrus.DebugLevel, false},
		{"WARN", logrus.WarnLevel, false},
		{"chatty", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			logger, closer, err := New(config.LogSettings{Level: tt.level}, io.Discard)
			if tt.wantErr {
				if err == nil {
					t.Error("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("New: %v", err)
			}
			defer closer.Close()
			if logger.GetLevel() != tt.want {
				t.Errorf("level = %v, want %v", logger.GetLevel(), tt.want)
			}
		})
	}
}

func TestNew_FileOutputJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "feed-dl.log")
	logger, closer, err := New(config.LogSettings{Level: "info", Path: path, JSON: true}, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	logger.WithField("run_id", "abc").Info("Run started")
	if err := closer.Close(); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `"run_id":"abc"`) || !strings.Contains(string(data), `"msg":"Run started"`) {
		t.Errorf("log file = %s", data)
	}
}

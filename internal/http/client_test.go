package http

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestClient_DownloadFile_TruncatesExisting(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("User-Agent") != "test-agent" {
			t.Errorf("User-Agent = %q", r.Header.Get("User-Agent"))
		}
		w.Write([]byte("fresh"))
	}))
	defer srv.Close()

	dest := filepath.Join(t.TempDir(), "file.bin")
	if err := os.WriteFile(dest, []byte("stale partial content"), 0644); err != nil {
		t.Fatal(err)
	}

	client := NewClient(Options{UserAgent: "test-agent"})

	var lastWritten int64
	n, err := client.DownloadFile(context.Background(), srv.URL, dest, func(written, total int64) {
		lastWritten = written
	})
	if err != nil {
		t.Fatalf("DownloadFile: %v", err)
	}
	if n != 5 || lastWritten != 5 {
		t.Errorf("written = %d (progress %d), want 5", n, lastWritten)
	}

	data, _ := os.ReadFile(dest)
	if string(data) != "fresh" {
		t.Errorf("content = %q, want %q", data, "fresh")
	}
}

func TestClient_StatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	client := NewClient(Options{})
	dest := filepath.Join(t.TempDir(), "file.bin")

	_, err := client.DownloadFile(context.Background(), srv.URL, dest, nil)

	var statusErr *StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("expected *StatusError, got %v", err)
	}
	if statusErr.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("StatusCode = %d", statusErr.StatusCode)
	}
	if _, err := os.Stat(dest); !os.IsNotExist(err) {
		t.Error("destination must not be created for a rejected response")
	}
}

func TestClient_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(2 * time.Second):
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()

	client := NewClient(Options{Timeout: 50 * time.Millisecond})
	start := time.Now()
	if _, err := client.Get(context.Background(), srv.URL); err == nil {
		t.Fatal("expected timeout error")
	}
	if time.Since(start) > time.Second {
		t.Error("request was not bounded by the timeout")
	}
}

func TestClient_GetDocument(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		w.Write([]byte("<rss/>"))
	}))
	defer srv.Close()

	doc, err := NewClient(Options{}).GetDocument(context.Background(), srv.URL+"/feed")
	if err != nil {
		t.Fatalf("GetDocument: %v", err)
	}
	if !strings.Contains(doc.ContentType, "rss") || string(doc.Body) != "<rss/>" {
		t.Errorf("unexpected document: %+v", doc)
	}
	if !strings.HasSuffix(doc.URL, "/feed") {
		t.Errorf("URL = %q", doc.URL)
	}
}

func TestClient_FileError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("data"))
	}))
	defer srv.Close()

	dest := filepath.Join(t.TempDir(), "missing", "dir", "file.bin")
	_, err := NewClient(Options{}).DownloadFile(context.Background(), srv.URL, dest, nil)

	var fileErr *FileError
	if !errors.As(err, &fileErr) {
		t.Fatalf("expected *FileError, got %v", err)
	}
}

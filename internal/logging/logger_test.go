package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestNewWritesConsoleAndFile(t *testing.T) {
	dir := t.TempDir()
	var console bytes.Buffer

	runLog, err := New("sapauto", WithDirectory(dir), WithConsole(&console))
	if err != nil {
		t.Fatalf("new run logger: %v", err)
	}
	runLog.Logger.Info("phase complete", "phase", "connect")
	if err := runLog.Close(); err != nil {
		t.Fatalf("close run logger: %v", err)
	}

	if !strings.Contains(console.String(), "phase complete") {
		t.Fatalf("console output missing record: %s", console.String())
	}

	content, err := os.ReadFile(runLog.Path())
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(content), "phase complete") {
		t.Fatalf("log file missing record: %s", content)
	}
}

func TestNewFileNameCarriesRunNameAndTimestamp(t *testing.T) {
	dir := t.TempDir()
	fixed := time.Date(2026, 8, 29, 14, 30, 5, 0, time.UTC)

	runLog, err := New("nightly-login", WithDirectory(dir),
		WithConsole(&bytes.Buffer{}), WithClock(func() time.Time { return fixed }))
	if err != nil {
		t.Fatalf("new run logger: %v", err)
	}
	defer runLog.Close()

	want := filepath.Join(dir, "nightly-login_2026-08-29_14-30-05.log")
	if runLog.Path() != want {
		t.Fatalf("log path = %q, want %q", runLog.Path(), want)
	}
}

func TestNewCreatesLogDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "Logs")

	runLog, err := New("sapauto", WithDirectory(dir), WithConsole(&bytes.Buffer{}))
	if err != nil {
		t.Fatalf("new run logger: %v", err)
	}
	defer runLog.Close()

	if _, err := os.Stat(dir); err != nil {
		t.Fatalf("log directory not created: %v", err)
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	runLog, err := New("sapauto", WithDirectory(t.TempDir()), WithConsole(&bytes.Buffer{}))
	if err != nil {
		t.Fatalf("new run logger: %v", err)
	}
	if err := runLog.Close(); err != nil {
		t.Fatalf("first close: %v", err)
	}
	if err := runLog.Close(); err != nil {
		t.Fatalf("second close: %v", err)
	}
}

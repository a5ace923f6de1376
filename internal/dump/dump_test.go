package dump

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
)

func newTestLogger() *logrus.Logger {
	l := logrus.New()
	l.Out = os.Stderr
	return l
}

func TestDumper_WritesFrameToDisk(t *testing.T) {
	dir := t.TempDir()

	d, err := New(dir, newTestLogger())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer d.Close()

	d.Send("abc-123", Outbound, 7, 0x04, []byte{1, 2, 3})

	path := filepath.Join(dir, "out", "abc-123_00000000000000000007-04.bin")
	if !waitForFile(t, path) {
		t.Fatalf("expected file at %s", path)
	}

	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if string(got) != "\x01\x02\x03" {
		t.Errorf("file contents = %v, want [1 2 3]", got)
	}
}

func TestDumper_ClearsDirectoriesOnStartup(t *testing.T) {
	dir := t.TempDir()
	stale := filepath.Join(dir, "in", "stale.bin")
	if err := os.MkdirAll(filepath.Dir(stale), 0755); err != nil {
		t.Fatalf("MkdirAll() error = %v", err)
	}
	if err := os.WriteFile(stale, []byte("x"), 0644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	d, err := New(dir, newTestLogger())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer d.Close()

	if _, err := os.Stat(stale); !os.IsNotExist(err) {
		t.Errorf("stale file still exists after New(): err = %v", err)
	}
}

func waitForFile(t *testing.T, path string) bool {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if _, err := os.Stat(path); err == nil {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return false
}

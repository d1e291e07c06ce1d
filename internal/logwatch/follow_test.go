package logwatch

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"
)

// syncBuffer is a bytes.Buffer safe for one writer and one reader.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func waitFor(t *testing.T, buf *syncBuffer, want string) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if strings.Contains(buf.String(), want) {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %q, got %q", want, buf.String())
}

func appendLine(t *testing.T, path, line string) {
	t.Helper()
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if _, err := f.WriteString(line + "\n"); err != nil {
		t.Fatal(err)
	}
}

func TestTail(t *testing.T) {
	path := filepath.Join(t.TempDir(), "install.log")
	for _, l := range []string{"a", "b", "c", "d"} {
		appendLine(t, path, l)
	}

	got, err := Tail(path, 2)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(got, []string{"c", "d"}) {
		t.Errorf("Tail(2) = %v", got)
	}

	got, err = Tail(path, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 4 {
		t.Errorf("Tail(0) = %v", got)
	}
}

func TestTail_Missing(t *testing.T) {
	if _, err := Tail(filepath.Join(t.TempDir(), "nope.log"), 10); !os.IsNotExist(err) {
		t.Errorf("err = %v, want not-exist", err)
	}
}

func TestFollow_AppendsAndCreation(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "install.log")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	buf := &syncBuffer{}
	done := make(chan error, 1)
	go func() { done <- Follow(ctx, path, buf) }()

	// Created after Follow started.
	time.Sleep(100 * time.Millisecond)
	appendLine(t, path, "first")
	waitFor(t, buf, "first")

	appendLine(t, path, "second")
	waitFor(t, buf, "second")

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Follow returned %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Follow did not return after cancel")
	}

	if got := buf.String(); got != "first\nsecond\n" {
		t.Errorf("output = %q", got)
	}
}

func TestFollow_ExistingContentFirst(t *testing.T) {
	path := filepath.Join(t.TempDir(), "install.log")
	appendLine(t, path, "old")

	ctx, cancel := context.WithCancel(context.Background())
	buf := &syncBuffer{}
	done := make(chan error, 1)
	go func() { done <- Follow(ctx, path, buf) }()

	waitFor(t, buf, "old")
	cancel()
	<-done
}

package fetch

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"modelenv/internal/common/fsutil"
)

func newTestDownloader() *Downloader {
	d := New(nil, zerolog.Nop())
	d.initialBackoff = time.Millisecond
	d.maxBackoff = 2 * time.Millisecond
	return d
}

func TestFetchSuccess(t *testing.T) {
	body := []byte("model archive bytes")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(body)
	}))
	defer srv.Close()

	dest := filepath.Join(t.TempDir(), "archives", "m-1.0.tar.gz")
	d := newTestDownloader()
	if err := d.Fetch(context.Background(), Job{URL: srv.URL + "/m-1.0.tar.gz", Dest: dest}); err != nil {
		t.Fatalf("fetch: %v", err)
	}
	got, err := os.ReadFile(dest)
	if err != nil {
		t.Fatalf("read dest: %v", err)
	}
	if string(got) != string(body) {
		t.Fatalf("content mismatch: %q", got)
	}
	if n := leftoverPartials(t, dest); n != 0 {
		t.Fatalf("%d partial files left behind", n)
	}
}

// leftoverPartials counts temp files still sitting next to dest.
func leftoverPartials(t *testing.T, dest string) int {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join(filepath.Dir(dest), "*.partial-*"))
	if err != nil {
		t.Fatalf("glob: %v", err)
	}
	return len(matches)
}

func TestFetchChecksum(t *testing.T) {
	body := []byte("pinned content")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(body)
	}))
	defer srv.Close()

	sum := sha256.Sum256(body)
	dest := filepath.Join(t.TempDir(), "m.tar.gz")
	d := newTestDownloader()

	if err := d.Fetch(context.Background(), Job{URL: srv.URL, Dest: dest, SHA256: hex.EncodeToString(sum[:])}); err != nil {
		t.Fatalf("fetch with matching digest: %v", err)
	}

	bad := filepath.Join(t.TempDir(), "bad.tar.gz")
	err := d.Fetch(context.Background(), Job{URL: srv.URL, Dest: bad, SHA256: "deadbeef"})
	if !errors.Is(err, ErrChecksumMismatch) {
		t.Fatalf("expected ErrChecksumMismatch, got %v", err)
	}
	if fsutil.PathExists(bad) || leftoverPartials(t, bad) != 0 {
		t.Fatalf("mismatched download left files behind")
	}
}

func TestFetchRetriesServerErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	dest := filepath.Join(t.TempDir(), "m.tar.gz")
	d := newTestDownloader()
	if err := d.Fetch(context.Background(), Job{URL: srv.URL, Dest: dest}); err != nil {
		t.Fatalf("fetch after retries: %v", err)
	}
	if got := atomic.LoadInt32(&calls); got != 3 {
		t.Fatalf("expected 3 attempts, got %d", got)
	}
}

func TestFetchDoesNotRetryClientErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	d := newTestDownloader()
	err := d.Fetch(context.Background(), Job{URL: srv.URL, Dest: filepath.Join(t.TempDir(), "m")})
	if !errors.Is(err, ErrBadStatus) {
		t.Fatalf("expected ErrBadStatus, got %v", err)
	}
	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Fatalf("404 retried: %d attempts", got)
	}
}

func TestFetchAll(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("content for " + r.URL.Path))
	}))
	defer srv.Close()

	dir := t.TempDir()
	jobs := []Job{
		{URL: srv.URL + "/a.tar.gz", Dest: filepath.Join(dir, "a.tar.gz")},
		{URL: srv.URL + "/b.tar.gz", Dest: filepath.Join(dir, "b.tar.gz")},
		{URL: srv.URL + "/c.tar.gz", Dest: filepath.Join(dir, "c.tar.gz")},
	}
	d := newTestDownloader()
	if err := d.FetchAll(context.Background(), jobs, 2); err != nil {
		t.Fatalf("fetch all: %v", err)
	}
	for _, j := range jobs {
		if !fsutil.PathExists(j.Dest) {
			t.Fatalf("missing %s", j.Dest)
		}
	}
}

func TestFetchAllSameDestStaysIntact(t *testing.T) {
	bodyA := []byte("aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")
	bodyB := []byte("bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/a.tar.gz" {
			w.Write(bodyA)
			return
		}
		w.Write(bodyB)
	}))
	defer srv.Close()

	// two concurrent jobs racing for the same destination: whichever wins,
	// the published file must be one complete body, never a mix
	dest := filepath.Join(t.TempDir(), "m.tar.gz")
	jobs := []Job{
		{URL: srv.URL + "/a.tar.gz", Dest: dest},
		{URL: srv.URL + "/b.tar.gz", Dest: dest},
	}
	d := newTestDownloader()
	if err := d.FetchAll(context.Background(), jobs, 2); err != nil {
		t.Fatalf("fetch all: %v", err)
	}
	got, err := os.ReadFile(dest)
	if err != nil {
		t.Fatalf("read dest: %v", err)
	}
	if string(got) != string(bodyA) && string(got) != string(bodyB) {
		t.Fatalf("mixed body published: %q", got)
	}
	if n := leftoverPartials(t, dest); n != 0 {
		t.Fatalf("%d partial files left behind", n)
	}
}

func TestFetchAllFirstErrorWins(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing.tar.gz" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	dir := t.TempDir()
	jobs := []Job{
		{URL: srv.URL + "/ok.tar.gz", Dest: filepath.Join(dir, "ok.tar.gz")},
		{URL: srv.URL + "/missing.tar.gz", Dest: filepath.Join(dir, "missing.tar.gz")},
	}
	d := newTestDownloader()
	if err := d.FetchAll(context.Background(), jobs, 2); !errors.Is(err, ErrBadStatus) {
		t.Fatalf("expected ErrBadStatus, got %v", err)
	}
}

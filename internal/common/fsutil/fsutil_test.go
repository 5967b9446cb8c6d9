package fsutil

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

func TestExpandHome(t *testing.T) {
	// Set a deterministic HOME for the duration of this test so we never skip.
	origHome, hadHome := os.LookupEnv("HOME")
	origUserProfile, hadUserProfile := os.LookupEnv("USERPROFILE")
	t.Cleanup(func() {
		if hadHome {
			_ = os.Setenv("HOME", origHome)
		} else {
			_ = os.Unsetenv("HOME")
		}
		if hadUserProfile {
			_ = os.Setenv("USERPROFILE", origUserProfile)
		} else {
			_ = os.Unsetenv("USERPROFILE")
		}
	})

	home := t.TempDir()
	_ = os.Setenv("HOME", home)
	if runtime.GOOS == "windows" {
		_ = os.Setenv("USERPROFILE", home)
	}
	if got, err := ExpandHome("/tmp"); err != nil || got != "/tmp" {
		t.Fatalf("got %q err=%v", got, err)
	}
	if got, err := ExpandHome(""); err != nil || got != "" {
		t.Fatalf("got %q err=%v", got, err)
	}
	p, err := ExpandHome("~")
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if p != home {
		t.Fatalf("expected %q, got %q", home, p)
	}
	exp, err := ExpandHome("~/test-sub")
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if runtime.GOOS == "windows" {
		if filepath.Base(exp) != "test-sub" {
			t.Fatalf("unexpected expanded path: %q", exp)
		}
	} else if exp != filepath.Join(home, "test-sub") {
		t.Fatalf("unexpected expanded path: %q", exp)
	}
}

func TestAtomicWrite(t *testing.T) {
	d := t.TempDir()
	p := filepath.Join(d, "sub", "file.json")
	if err := AtomicWrite(p, []byte(`{"ok":true}`)); err != nil {
		t.Fatalf("atomic write: %v", err)
	}
	b, err := os.ReadFile(p)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if string(b) != `{"ok":true}` {
		t.Fatalf("unexpected content: %s", b)
	}
	// no temp file left behind
	if PathExists(p + ".tmp") {
		t.Fatalf("temp file not cleaned up")
	}
	// overwrite keeps newest content
	if err := AtomicWrite(p, []byte("v2")); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	b, _ = os.ReadFile(p)
	if string(b) != "v2" {
		t.Fatalf("overwrite content: %s", b)
	}
}

func TestEnsureDirAndPathExists(t *testing.T) {
	d := t.TempDir()
	p := filepath.Join(d, "a", "b", "c")
	if PathExists(p) {
		t.Fatalf("path should not exist yet")
	}
	if err := EnsureDir(p); err != nil {
		t.Fatalf("ensure dir: %v", err)
	}
	if !PathExists(p) {
		t.Fatalf("path should exist")
	}
	// idempotent
	if err := EnsureDir(p); err != nil {
		t.Fatalf("ensure dir twice: %v", err)
	}
}

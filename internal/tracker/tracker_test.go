package tracker

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadMissingFile(t *testing.T) {
	tr, err := Load(filepath.Join(t.TempDir(), "processed_emails.txt"))
	if err != nil {
		t.Fatalf("Load() on missing file should succeed, got %v", err)
	}
	if tr.Len() != 0 {
		t.Errorf("Len() = %d; want 0", tr.Len())
	}
	if tr.IsProcessed("anything") {
		t.Error("fresh tracker should report nothing processed")
	}
}

func TestMarkAndCheck(t *testing.T) {
	path := filepath.Join(t.TempDir(), "processed_emails.txt")
	tr, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}

	if err := tr.MarkProcessed("msg-001"); err != nil {
		t.Fatalf("MarkProcessed() error: %v", err)
	}
	if !tr.IsProcessed("msg-001") {
		t.Error("msg-001 should be processed")
	}
	if tr.IsProcessed("msg-002") {
		t.Error("msg-002 should not be processed")
	}
}

func TestMarkIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "processed_emails.txt")
	tr, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 3; i++ {
		if err := tr.MarkProcessed("msg-001"); err != nil {
			t.Fatalf("MarkProcessed() call %d error: %v", i, err)
		}
	}
	if tr.Len() != 1 {
		t.Errorf("Len() = %d; want 1", tr.Len())
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if got := strings.Count(string(data), "msg-001"); got != 1 {
		t.Errorf("id appended %d times; want 1", got)
	}
}

func TestPersistsAcrossReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "processed_emails.txt")

	tr, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	for _, id := range []string{"a", "b", "c"} {
		if err := tr.MarkProcessed(id); err != nil {
			t.Fatal(err)
		}
	}

	reloaded, err := Load(path)
	if err != nil {
		t.Fatalf("reload error: %v", err)
	}
	if reloaded.Len() != 3 {
		t.Errorf("reloaded Len() = %d; want 3", reloaded.Len())
	}
	for _, id := range []string{"a", "b", "c"} {
		if !reloaded.IsProcessed(id) {
			t.Errorf("reloaded tracker lost %q", id)
		}
	}
}

func TestLoadIgnoresBlankLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "processed_emails.txt")
	if err := os.WriteFile(path, []byte("a\n\n  \nb\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	tr, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if tr.Len() != 2 {
		t.Errorf("Len() = %d; want 2", tr.Len())
	}
}

func TestMarkEmptyIDRejected(t *testing.T) {
	tr, err := Load(filepath.Join(t.TempDir(), "processed_emails.txt"))
	if err != nil {
		t.Fatal(err)
	}
	if err := tr.MarkProcessed(""); err == nil {
		t.Error("MarkProcessed(\"\") should fail")
	}
}

func TestMarkCreatesParentDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "processed_emails.txt")
	tr, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := tr.MarkProcessed("msg-001"); err != nil {
		t.Fatalf("MarkProcessed() error: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("tracker file not created: %v", err)
	}
}

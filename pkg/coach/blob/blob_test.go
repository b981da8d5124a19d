package blob

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDir_SaveReturnsLocator(t *testing.T) {
	d := Dir{Root: t.TempDir()}

	locator, err := d.Save("sess_abc", "audio_1.webm", []byte("bytes"))
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if locator != "/uploads/sess_abc/audio_1.webm" {
		t.Fatalf("locator=%q", locator)
	}

	data, err := os.ReadFile(filepath.Join(d.Root, "sess_abc", "audio_1.webm"))
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if string(data) != "bytes" {
		t.Fatalf("data=%q", data)
	}
}

func TestDir_SaveStripsPathSegments(t *testing.T) {
	d := Dir{Root: t.TempDir()}

	locator, err := d.Save("../escape", "../../etc/passwd", []byte("x"))
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if locator != "/uploads/escape/passwd" {
		t.Fatalf("locator=%q", locator)
	}
	if _, err := os.Stat(filepath.Join(d.Root, "escape", "passwd")); err != nil {
		t.Fatalf("expected file inside root: %v", err)
	}
}

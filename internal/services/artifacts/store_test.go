package artifacts

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"citywatch-worker/internal/config"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(&config.Config{
		ArtifactDir: filepath.Join(t.TempDir(), "artifacts"),
		PublicBase:  "http://worker.example/",
	})
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	return store
}

func TestUploadWritesFileAndReturnsURL(t *testing.T) {
	store := newTestStore(t)
	frame := []byte{0xff, 0xd8, 0xff, 0xe0}

	url, err := store.Upload(frame, "fire_20250601_120000.jpg")
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if url != "http://worker.example/artifacts/fire_20250601_120000.jpg" {
		t.Errorf("url = %q, want trimmed base with /artifacts/ path", url)
	}

	written, err := os.ReadFile(filepath.Join(store.Dir(), "fire_20250601_120000.jpg"))
	if err != nil {
		t.Fatalf("read artifact: %v", err)
	}
	if !bytes.Equal(written, frame) {
		t.Error("artifact bytes do not match uploaded frame")
	}
}

func TestUploadStripsPathComponents(t *testing.T) {
	store := newTestStore(t)

	url, err := store.Upload([]byte("x"), "../../etc/passwd.jpg")
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if url != "http://worker.example/artifacts/passwd.jpg" {
		t.Errorf("url = %q, want base name only", url)
	}
	if _, err := os.Stat(filepath.Join(store.Dir(), "passwd.jpg")); err != nil {
		t.Errorf("artifact not written inside store dir: %v", err)
	}
}

func TestUploadOverwritesExistingKey(t *testing.T) {
	store := newTestStore(t)

	if _, err := store.Upload([]byte("old"), "snap.jpg"); err != nil {
		t.Fatalf("first upload: %v", err)
	}
	if _, err := store.Upload([]byte("new"), "snap.jpg"); err != nil {
		t.Fatalf("second upload: %v", err)
	}

	written, err := os.ReadFile(filepath.Join(store.Dir(), "snap.jpg"))
	if err != nil {
		t.Fatalf("read artifact: %v", err)
	}
	if string(written) != "new" {
		t.Errorf("artifact = %q, want latest upload", written)
	}
}

func TestNewStoreCreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "artifacts")

	store, err := NewStore(&config.Config{ArtifactDir: dir, PublicBase: "http://worker.example"})
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	info, err := os.Stat(store.Dir())
	if err != nil || !info.IsDir() {
		t.Fatalf("artifact dir not created: %v", err)
	}
}

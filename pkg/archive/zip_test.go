package archive

import (
	"archive/zip"
	"bytes"
	"io"
	"testing"
)

func TestZipBuilderRoundTrip(t *testing.T) {
	b := NewZipBuilder()

	entries := map[string][]byte{
		"MTI12345.jpg": []byte("first badge"),
		"MTI67890.jpg": []byte("second badge"),
	}
	for name, data := range entries {
		if err := b.Add(name, data); err != nil {
			t.Fatalf("Add(%q) failed: %v", name, err)
		}
	}

	blob, err := b.Close()
	if err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	r, err := zip.NewReader(bytes.NewReader(blob), int64(len(blob)))
	if err != nil {
		t.Fatalf("output is not a readable zip: %v", err)
	}

	if len(r.File) != len(entries) {
		t.Fatalf("archive has %d entries, expected %d", len(r.File), len(entries))
	}

	for _, f := range r.File {
		want, ok := entries[f.Name]
		if !ok {
			t.Errorf("unexpected entry %q", f.Name)
			continue
		}

		rc, err := f.Open()
		if err != nil {
			t.Fatalf("failed to open entry %q: %v", f.Name, err)
		}
		got, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			t.Fatalf("failed to read entry %q: %v", f.Name, err)
		}

		if !bytes.Equal(got, want) {
			t.Errorf("entry %q = %q, expected %q", f.Name, got, want)
		}
	}
}

func TestZipBuilderEmpty(t *testing.T) {
	b := NewZipBuilder()

	blob, err := b.Close()
	if err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	r, err := zip.NewReader(bytes.NewReader(blob), int64(len(blob)))
	if err != nil {
		t.Fatalf("empty archive is not readable: %v", err)
	}
	if len(r.File) != 0 {
		t.Errorf("empty archive has %d entries", len(r.File))
	}
}

func TestZipBuilderUseAfterClose(t *testing.T) {
	b := NewZipBuilder()

	if _, err := b.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	if err := b.Add("late.jpg", []byte("data")); err == nil {
		t.Error("Add after Close should fail")
	}
	if _, err := b.Close(); err == nil {
		t.Error("second Close should fail")
	}
}

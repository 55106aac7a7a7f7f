package utils

import (
	"os"
	"path/filepath"
	"testing"
)

func TestExtension(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"photo.JPG", "jpg"},
		{"photo.jpeg", "jpeg"},
		{"archive.tar.gz", "gz"},
		{"noext", ""},
	}

	for _, test := range tests {
		if got := Extension(test.input); got != test.expected {
			t.Errorf("Extension(%q) = %q, expected %q", test.input, got, test.expected)
		}
	}
}

func TestStem(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"MTI12345 - John Doe.jpg", "MTI12345 - John Doe"},
		{"dir/sub/MTI1.png", "MTI1"},
		{"plain", "plain"},
	}

	for _, test := range tests {
		if got := Stem(test.input); got != test.expected {
			t.Errorf("Stem(%q) = %q, expected %q", test.input, got, test.expected)
		}
	}
}

func TestIsImageFile(t *testing.T) {
	for _, name := range []string{"a.jpg", "b.JPEG", "c.png", "d.webp", "e.bmp", "f.gif"} {
		if !IsImageFile(name) {
			t.Errorf("IsImageFile(%q) = false, expected true", name)
		}
	}
	for _, name := range []string{"a.txt", "b.pdf", "c", "d.jpg.zip"} {
		if IsImageFile(name) {
			t.Errorf("IsImageFile(%q) = true, expected false", name)
		}
	}
}

func TestListImageFiles(t *testing.T) {
	dir := t.TempDir()

	files := []string{"MTI1.jpg", "notes.txt", "sub/MTI2.png"}
	for _, f := range files {
		path := filepath.Join(dir, f)
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte("x"), 0644); err != nil {
			t.Fatal(err)
		}
	}

	found, err := ListImageFiles(dir)
	if err != nil {
		t.Fatalf("ListImageFiles failed: %v", err)
	}
	if len(found) != 2 {
		t.Errorf("found %d image files, expected 2: %v", len(found), found)
	}
}

func TestFormatFileSize(t *testing.T) {
	tests := []struct {
		size     int64
		expected string
	}{
		{512, "512 B"},
		{2048, "2.0 KB"},
		{5 * 1024 * 1024, "5.0 MB"},
	}

	for _, test := range tests {
		if got := FormatFileSize(test.size); got != test.expected {
			t.Errorf("FormatFileSize(%d) = %q, expected %q", test.size, got, test.expected)
		}
	}
}

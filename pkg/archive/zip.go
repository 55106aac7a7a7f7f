package archive

import (
	"archive/zip"
	"bytes"
	"fmt"
)

// ZipBuilder collects named entries into an in-memory ZIP archive. It is not
// safe for concurrent use; callers serialize Add calls.
type ZipBuilder struct {
	buf    bytes.Buffer
	writer *zip.Writer
	closed bool
}

// NewZipBuilder creates an empty archive builder
func NewZipBuilder() *ZipBuilder {
	b := &ZipBuilder{}
	b.writer = zip.NewWriter(&b.buf)
	return b
}

// Add writes one named entry to the archive
func (b *ZipBuilder) Add(name string, data []byte) error {
	if b.closed {
		return fmt.Errorf("archive already finalized")
	}

	w, err := b.writer.Create(name)
	if err != nil {
		return fmt.Errorf("failed to create archive entry %s: %v", name, err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("failed to write archive entry %s: %v", name, err)
	}
	return nil
}

// Close finalizes the archive and returns its bytes. The builder cannot be
// reused afterwards.
func (b *ZipBuilder) Close() ([]byte, error) {
	if b.closed {
		return nil, fmt.Errorf("archive already finalized")
	}
	b.closed = true

	if err := b.writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize archive: %v", err)
	}
	return b.buf.Bytes(), nil
}

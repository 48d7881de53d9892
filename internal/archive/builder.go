// Package archive bundles generated documents into a single zip file.
package archive

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"io"
	"time"
)

// ErrFinished is returned when a Builder is used after Finish.
var ErrFinished = errors.New("archive already finished")

// Builder accumulates entries in insertion order. Names are written exactly
// as given, duplicates included.
type Builder struct {
	buf      bytes.Buffer
	zw       *zip.Writer
	modified time.Time
	count    int
	finished bool
}

// NewBuilder starts an empty archive whose entries carry the given
// modification time.
func NewBuilder(modified time.Time) *Builder {
	b := &Builder{modified: modified}
	b.zw = zip.NewWriter(&b.buf)
	return b
}

// Add compresses data into a new entry called name.
func (b *Builder) Add(name string, data []byte) error {
	if b.finished {
		return ErrFinished
	}
	w, err := b.zw.CreateHeader(&zip.FileHeader{
		Name:     name,
		Method:   zip.Deflate,
		Modified: b.modified,
	})
	if err != nil {
		return fmt.Errorf("failed to create archive entry %q: %w", name, err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("failed to write archive entry %q: %w", name, err)
	}
	b.count++
	return nil
}

// Len returns the number of entries added so far.
func (b *Builder) Len() int {
	return b.count
}

// Finish writes the central directory and returns the archive. It may be
// called only once.
func (b *Builder) Finish() ([]byte, error) {
	if b.finished {
		return nil, ErrFinished
	}
	b.finished = true
	if err := b.zw.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize archive: %w", err)
	}
	return b.buf.Bytes(), nil
}

// File is one decompressed archive entry.
type File struct {
	Name string
	Data []byte
}

// Read returns every entry of a zip archive in stored order.
func Read(data []byte) ([]File, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("failed to open archive: %w", err)
	}
	files := make([]File, 0, len(zr.File))
	for _, zf := range zr.File {
		content, err := readEntry(zf)
		if err != nil {
			return nil, err
		}
		files = append(files, File{Name: zf.Name, Data: content})
	}
	return files, nil
}

func readEntry(zf *zip.File) ([]byte, error) {
	rc, err := zf.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open archive entry %q: %w", zf.Name, err)
	}
	defer rc.Close()
	content, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("failed to read archive entry %q: %w", zf.Name, err)
	}
	return content, nil
}

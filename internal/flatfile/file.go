// Package flatfile persists records as a CSV text file: one header line, then
// one record per line. Loads read the whole file; saves rewrite it atomically.
package flatfile

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/natefinch/atomic"
)

// ErrMalformed is returned by Load when a line cannot be decoded. Nothing of
// the file is returned in that case.
var ErrMalformed = errors.New("malformed record file")

// Codec maps a record to CSV fields and back.
type Codec[R any] interface {
	Header() []string
	Encode(r R) []string
	Decode(fields []string) (R, error)
}

// File persists records as CSV lines under a header line.
type File[R any] struct {
	path  string
	codec Codec[R]
}

// New returns a File for path. The file is created on the first write.
func New[R any](path string, codec Codec[R]) *File[R] {
	return &File[R]{path: path, codec: codec}
}

func (f *File[R]) Path() string { return f.path }

// Load reads every record. A missing or empty file yields no records.
func (f *File[R]) Load(ctx context.Context) ([]R, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	file, err := os.Open(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", f.path, err)
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = len(f.codec.Header())
	r.TrimLeadingSpace = true

	// header line
	if _, err := r.Read(); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("%s: %w: %v", f.path, ErrMalformed, err)
	}

	var records []R
	for {
		fields, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%s: %w: %v", f.path, ErrMalformed, err)
		}
		rec, err := f.codec.Decode(fields)
		if err != nil {
			line, _ := r.FieldPos(0)
			return nil, fmt.Errorf("%s line %d: %w: %v", f.path, line, ErrMalformed, err)
		}
		records = append(records, rec)
	}
	return records, nil
}

// SaveAll replaces the file content with the header and the given records.
// Readers never observe a partially written file.
func (f *File[R]) SaveAll(ctx context.Context, records []R) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(f.codec.Header()); err != nil {
		return fmt.Errorf("failed to encode header: %w", err)
	}
	for _, rec := range records {
		if err := w.Write(f.codec.Encode(rec)); err != nil {
			return fmt.Errorf("failed to encode record: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("failed to encode records: %w", err)
	}

	if err := atomic.WriteFile(f.path, &buf); err != nil {
		return fmt.Errorf("failed to write %s: %w", f.path, err)
	}
	return nil
}

// Append adds one record to the end of the file, writing the header first
// when the file is new or empty.
func (f *File[R]) Append(ctx context.Context, rec R) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	file, err := os.OpenFile(f.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", f.path, err)
	}

	info, err := file.Stat()
	if err != nil {
		_ = file.Close()
		return fmt.Errorf("failed to stat %s: %w", f.path, err)
	}

	w := csv.NewWriter(file)
	if info.Size() == 0 {
		if err := w.Write(f.codec.Header()); err != nil {
			_ = file.Close()
			return fmt.Errorf("failed to write header: %w", err)
		}
	}
	if err := w.Write(f.codec.Encode(rec)); err != nil {
		_ = file.Close()
		return fmt.Errorf("failed to write record: %w", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		_ = file.Close()
		return fmt.Errorf("failed to write record: %w", err)
	}
	if err := file.Sync(); err != nil {
		_ = file.Close()
		return fmt.Errorf("failed to sync %s: %w", f.path, err)
	}
	return file.Close()
}

// Quarantine moves the file aside so a later SaveAll cannot overwrite it.
// It returns the new path.
func (f *File[R]) Quarantine() (string, error) {
	dst := fmt.Sprintf("%s.bad-%d", f.path, time.Now().Unix())
	if err := os.Rename(f.path, dst); err != nil {
		return "", fmt.Errorf("failed to quarantine %s: %w", f.path, err)
	}
	return dst, nil
}

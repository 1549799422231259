// Package csvio writes inventory extracts and import summaries as CSV files.
//
// Files are replaced atomically: data is written to a uniquely named
// temporary file in the target directory and renamed into place, so a
// reader polling the path never observes a truncated file. This matters for
// the connections extract, which is written twice per run (once after the
// sweep, once after enrichment) and must be a valid CSV at both points.
package csvio

import (
	"encoding/csv"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/oictools/oictl/pkg/errors"
)

// Write writes the header row followed by rows to w.
func Write(w io.Writer, header []string, rows [][]string) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "write csv header")
	}
	if err := cw.WriteAll(rows); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "write csv rows")
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "flush csv")
	}
	return nil
}

// WriteFile atomically replaces path with a CSV of header and rows.
// The parent directory is created if missing. The temporary file lives in
// the same directory as path so the final rename never crosses filesystems.
func WriteFile(path string, header []string, rows [][]string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidPath, err, "create directory %s", dir)
	}

	tmp := filepath.Join(dir, "."+uuid.NewString()+".tmp")
	f, err := os.Create(tmp)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidPath, err, "create %s", tmp)
	}

	if err := Write(f, header, rows); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return errors.Wrap(errors.ErrCodeInternal, err, "close %s", tmp)
	}

	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return errors.Wrap(errors.ErrCodeInvalidPath, err, "rename %s to %s", tmp, path)
	}
	return nil
}

// ReadFile reads a CSV file written by WriteFile, returning the header row
// and the data rows separately. An empty file yields a nil header.
func ReadFile(path string) (header []string, rows [][]string, err error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "open %s", path)
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "parse %s", path)
	}
	if len(records) == 0 {
		return nil, nil, nil
	}
	return records[0], records[1:], nil
}

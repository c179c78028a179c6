// Package sheet reads comma-delimited files as a lazy sequence of rows.
//
// Scan owns the file handle for the duration of a callback and always
// releases it, whatever the callback returns.
package sheet

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"iter"
)

// Rows is a single-pass sequence of CSV records.
type Rows struct {
	r     *csv.Reader
	used  bool
	count int
	err   error
}

func newRows(r io.Reader) *Rows {
	cr := csv.NewReader(r)
	cr.Comma = ','
	// Records may differ in length; a header row is just another row.
	cr.FieldsPerRecord = -1
	return &Rows{r: cr}
}

// All yields the remaining rows. The sequence is finite and cannot be
// restarted: only the first call reads the file, later calls yield nothing.
func (rs *Rows) All() iter.Seq[[]string] {
	return func(yield func([]string) bool) {
		if rs.used {
			return
		}
		rs.used = true
		for {
			rec, err := rs.r.Read()
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				rs.err = fmt.Errorf("%w: %w", ErrParse, err)
				return
			}
			rs.count++
			if !yield(rec) {
				return
			}
		}
	}
}

// Err returns the parse error that stopped iteration, if any.
func (rs *Rows) Err() error { return rs.err }

// Count returns the number of rows yielded so far.
func (rs *Rows) Count() int { return rs.count }

// Scan opens name in fsys, hands fn a Rows over its contents, and closes the
// file before returning. A parse error met during iteration is returned when
// fn itself succeeds.
func Scan(ctx context.Context, fsys fs.FS, name string, fn func(*Rows) error) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}

	f, err := fsys.Open(name)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrOpen, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close %s: %w", name, cerr)
		}
	}()

	rows := newRows(f)
	if err := fn(rows); err != nil {
		return err
	}
	return rows.Err()
}

// Collect reads every row of name into memory.
func Collect(ctx context.Context, fsys fs.FS, name string) ([][]string, error) {
	var out [][]string
	err := Scan(ctx, fsys, name, func(rows *Rows) error {
		for rec := range rows.All() {
			out = append(out, rec)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

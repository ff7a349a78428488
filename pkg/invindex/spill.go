package invindex

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/google/uuid"
)

// tuple is one (token, name_entry_id, tf) fact produced while tokenizing a
// NameEntry, the unit stage 1 spills to disk.
type tuple struct {
	token string
	id    uint64
	tf    uint32
}

func less(a, b tuple) bool {
	if a.token != b.token {
		return a.token < b.token
	}
	return a.id < b.id
}

// spillWriter buffers tuples in memory up to approxBudget bytes, then
// flushes a sorted run to a fresh file in dir, named with a uuid so
// concurrent builders (there are none per §5, but the pattern survives
// future fan-out) never collide.
type spillWriter struct {
	dir          string
	approxBudget int
	buf          []tuple
	bufBytes     int
	paths        []string
}

func newSpillWriter(dir string, approxBudget int) *spillWriter {
	return &spillWriter{dir: dir, approxBudget: approxBudget}
}

// add appends one tuple, flushing a spill file if the in-memory budget is
// exceeded.
func (w *spillWriter) add(t tuple) error {
	w.buf = append(w.buf, t)
	w.bufBytes += len(t.token) + 16
	if w.bufBytes >= w.approxBudget {
		return w.flush()
	}
	return nil
}

func (w *spillWriter) flush() error {
	if len(w.buf) == 0 {
		return nil
	}
	sort.Slice(w.buf, func(i, j int) bool { return less(w.buf[i], w.buf[j]) })

	path := filepath.Join(w.dir, fmt.Sprintf("spill-%s.tmp", uuid.NewString()))
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("invindex: create spill: %w", err)
	}
	bw := bufio.NewWriterSize(f, 1<<20)
	for _, t := range w.buf {
		if err := writeTuple(bw, t); err != nil {
			f.Close()
			return err
		}
	}
	if err := bw.Flush(); err != nil {
		f.Close()
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}

	w.paths = append(w.paths, path)
	w.buf = w.buf[:0]
	w.bufBytes = 0
	return nil
}

// finish flushes any remaining buffered tuples and returns the spill
// file paths written so far, in creation order.
func (w *spillWriter) finish() ([]string, error) {
	if err := w.flush(); err != nil {
		return nil, err
	}
	return w.paths, nil
}

func writeTuple(w io.Writer, t tuple) error {
	var lenBuf [2]byte
	binary.LittleEndian.PutUint16(lenBuf[:], uint16(len(t.token)))
	if _, err := w.Write(lenBuf[:]); err != nil {
		return err
	}
	if _, err := io.WriteString(w, t.token); err != nil {
		return err
	}
	var rest [12]byte
	binary.LittleEndian.PutUint64(rest[:8], t.id)
	binary.LittleEndian.PutUint32(rest[8:], t.tf)
	_, err := w.Write(rest[:])
	return err
}

// spillReader streams tuples back out of a spill file in the order they
// were written (i.e. sorted).
type spillReader struct {
	f *os.File
	r *bufio.Reader
}

func openSpillReader(path string) (*spillReader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("invindex: open spill: %w", err)
	}
	return &spillReader{f: f, r: bufio.NewReaderSize(f, 1<<20)}, nil
}

// next returns the next tuple, or io.EOF when exhausted.
func (r *spillReader) next() (tuple, error) {
	var lenBuf [2]byte
	if _, err := io.ReadFull(r.r, lenBuf[:]); err != nil {
		return tuple{}, err
	}
	n := binary.LittleEndian.Uint16(lenBuf[:])
	tokBuf := make([]byte, n)
	if _, err := io.ReadFull(r.r, tokBuf); err != nil {
		return tuple{}, io.ErrUnexpectedEOF
	}
	var rest [12]byte
	if _, err := io.ReadFull(r.r, rest[:]); err != nil {
		return tuple{}, io.ErrUnexpectedEOF
	}
	return tuple{
		token: string(tokBuf),
		id:    binary.LittleEndian.Uint64(rest[:8]),
		tf:    binary.LittleEndian.Uint32(rest[8:]),
	}, nil
}

func (r *spillReader) close() error {
	return r.f.Close()
}

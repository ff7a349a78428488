package store

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"iter"
	"os"

	"golang.org/x/exp/mmap"
)

// recordFileWriter appends length-prefixed encoded records to a file,
// returning the byte offset assigned to each one so callers can build an
// id index alongside it.
type recordFileWriter struct {
	f   *os.File
	bw  *bufio.Writer
	off uint64
}

func createRecordFile(path string, magic [4]byte) (*recordFileWriter, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("store: create %s: %w", path, err)
	}
	if err := writeHeader(f, magic); err != nil {
		f.Close()
		return nil, err
	}
	return &recordFileWriter{f: f, bw: bufio.NewWriterSize(f, 1<<20), off: headerSize}, nil
}

// append writes one encoded record and returns the offset it was written at.
func (w *recordFileWriter) append(payload []byte) (uint64, error) {
	off := w.off
	var lenBuf [4]byte
	binary.LittleEndian.PutUint32(lenBuf[:], uint32(len(payload)))
	if _, err := w.bw.Write(lenBuf[:]); err != nil {
		return 0, err
	}
	if _, err := w.bw.Write(payload); err != nil {
		return 0, err
	}
	w.off += uint64(4 + len(payload))
	return off, nil
}

func (w *recordFileWriter) close() error {
	if err := w.bw.Flush(); err != nil {
		return err
	}
	if err := w.f.Sync(); err != nil {
		return err
	}
	return w.f.Close()
}

// recordFile is a memory-mapped reader over a file written by
// recordFileWriter.
type recordFile struct {
	r *mmap.ReaderAt
}

func openRecordFile(path string, magic [4]byte) (*recordFile, error) {
	r, err := mmap.Open(path)
	if err != nil {
		return nil, fmt.Errorf("store: open %s: %w", path, err)
	}
	if err := checkHeader(r, path, magic); err != nil {
		r.Close()
		return nil, err
	}
	return &recordFile{r: r}, nil
}

// readAt decodes the payload stored at off.
func (f *recordFile) readAt(off uint64) ([]byte, error) {
	var lenBuf [4]byte
	if _, err := f.r.ReadAt(lenBuf[:], int64(off)); err != nil {
		return nil, err
	}
	n := binary.LittleEndian.Uint32(lenBuf[:])
	buf := make([]byte, n)
	if _, err := f.r.ReadAt(buf, int64(off)+4); err != nil && err != io.EOF {
		return nil, err
	}
	return buf, nil
}

// all iterates every record in ingest order, yielding its byte offset and
// encoded payload.
func (f *recordFile) all() iter.Seq2[uint64, []byte] {
	return func(yield func(uint64, []byte) bool) {
		size := int64(f.r.Len())
		off := int64(headerSize)
		for off < size {
			var lenBuf [4]byte
			if _, err := f.r.ReadAt(lenBuf[:], off); err != nil {
				return
			}
			n := binary.LittleEndian.Uint32(lenBuf[:])
			buf := make([]byte, n)
			if n > 0 {
				if _, err := f.r.ReadAt(buf, off+4); err != nil && err != io.EOF {
					return
				}
			}
			if !yield(uint64(off), buf) {
				return
			}
			off += 4 + int64(n)
		}
	}
}

func (f *recordFile) close() error { return f.r.Close() }

package store

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/kasuboski/imdbidx/pkg/record"
)

// writer accumulates a single record's serialized form. The layout is
// little-endian throughout, matching the index directory's file headers
// (spec §6).
type writer struct {
	buf []byte
}

func newWriter() *writer { return &writer{buf: make([]byte, 0, 128)} }

func (w *writer) bytes() []byte { return w.buf }

func (w *writer) putBool(v bool) {
	if v {
		w.buf = append(w.buf, 1)
	} else {
		w.buf = append(w.buf, 0)
	}
}

func (w *writer) putUint32(v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	w.buf = append(w.buf, b[:]...)
}

func (w *writer) putFloat32(v float32) {
	w.putUint32(math.Float32bits(v))
}

func (w *writer) putOptU16(v *uint16) {
	if v == nil {
		w.putUint32(0)
		return
	}
	w.putUint32(1)
	w.putUint32(uint32(*v))
}

func (w *writer) putOptU32(v *uint32) {
	if v == nil {
		w.putUint32(0)
		return
	}
	w.putUint32(1)
	w.putUint32(*v)
}

func (w *writer) putString(s string) {
	w.putUint32(uint32(len(s)))
	w.buf = append(w.buf, s...)
}

func (w *writer) putStringSlice(ss []string) {
	w.putUint32(uint32(len(ss)))
	for _, s := range ss {
		w.putString(s)
	}
}

func (w *writer) putID(id record.ID) {
	w.buf = append(w.buf, id[:]...)
}

// reader decodes a record from a byte slice previously produced by writer.
type reader struct {
	buf []byte
	off int
}

func newReader(b []byte) *reader { return &reader{buf: b} }

func (r *reader) remaining() bool { return r.off < len(r.buf) }

func (r *reader) getBool() (bool, error) {
	if r.off+1 > len(r.buf) {
		return false, errShortRecord
	}
	v := r.buf[r.off] != 0
	r.off++
	return v, nil
}

func (r *reader) getUint32() (uint32, error) {
	if r.off+4 > len(r.buf) {
		return 0, errShortRecord
	}
	v := binary.LittleEndian.Uint32(r.buf[r.off:])
	r.off += 4
	return v, nil
}

func (r *reader) getFloat32() (float32, error) {
	v, err := r.getUint32()
	if err != nil {
		return 0, err
	}
	return math.Float32frombits(v), nil
}

func (r *reader) getOptU16() (*uint16, error) {
	present, err := r.getUint32()
	if err != nil {
		return nil, err
	}
	v, err := r.getUint32()
	if err != nil {
		return nil, err
	}
	if present == 0 {
		return nil, nil
	}
	u := uint16(v)
	return &u, nil
}

func (r *reader) getOptU32() (*uint32, error) {
	present, err := r.getUint32()
	if err != nil {
		return nil, err
	}
	v, err := r.getUint32()
	if err != nil {
		return nil, err
	}
	if present == 0 {
		return nil, nil
	}
	return &v, nil
}

func (r *reader) getString() (string, error) {
	n, err := r.getUint32()
	if err != nil {
		return "", err
	}
	if r.off+int(n) > len(r.buf) {
		return "", errShortRecord
	}
	s := string(r.buf[r.off : r.off+int(n)])
	r.off += int(n)
	return s, nil
}

func (r *reader) getStringSlice() ([]string, error) {
	n, err := r.getUint32()
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, nil
	}
	out := make([]string, 0, n)
	for i := uint32(0); i < n; i++ {
		s, err := r.getString()
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

func (r *reader) getID() (record.ID, error) {
	var id record.ID
	if r.off+record.IDLen > len(r.buf) {
		return id, errShortRecord
	}
	copy(id[:], r.buf[r.off:r.off+record.IDLen])
	r.off += record.IDLen
	return id, nil
}

var errShortRecord = fmt.Errorf("store: truncated record")

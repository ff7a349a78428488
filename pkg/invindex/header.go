package invindex

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
)

const headerSize = 8
const formatVersion uint32 = 1

var (
	magicTerms    = [4]byte{'T', 'R', 'M', 'S'}
	magicPostings = [4]byte{'P', 'S', 'T', 'G'}
	magicLengths  = [4]byte{'L', 'E', 'N', 'G'}
)

// ErrIndexFormat reports a bad magic or unsupported version on an
// index-directory file.
var ErrIndexFormat = fmt.Errorf("invindex: index format")

// ErrIndexIncomplete reports a directory missing its READY marker.
var ErrIndexIncomplete = fmt.Errorf("invindex: index incomplete")

func writeHeader(f *os.File, magic [4]byte) error {
	var buf [headerSize]byte
	copy(buf[:4], magic[:])
	binary.LittleEndian.PutUint32(buf[4:], formatVersion)
	_, err := f.Write(buf[:])
	return err
}

func checkHeader(r io.ReaderAt, path string, want [4]byte) error {
	var buf [headerSize]byte
	if _, err := r.ReadAt(buf[:], 0); err != nil {
		return fmt.Errorf("invindex: read header of %s: %w", path, err)
	}
	if [4]byte(buf[:4]) != want {
		return fmt.Errorf("%w: %s: bad magic", ErrIndexFormat, path)
	}
	if v := binary.LittleEndian.Uint32(buf[4:]); v != formatVersion {
		return fmt.Errorf("%w: %s: version %d, want %d", ErrIndexFormat, path, v, formatVersion)
	}
	return nil
}

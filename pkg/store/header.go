package store

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
)

// headerSize is the width of the {magic[4], version:u32} header every
// index-directory file carries, guarding readers against format skew.
const headerSize = 8

const formatVersion uint32 = 1

// File magics, one per index-directory file (§6 layout).
var (
	magicTitlesBin   = [4]byte{'T', 'T', 'L', 'B'}
	magicTitlesIdx   = [4]byte{'T', 'T', 'L', 'X'}
	magicEpisodesBin = [4]byte{'E', 'P', 'S', 'B'}
	magicEpisodesIdx = [4]byte{'E', 'P', 'S', 'X'}
	magicByShowIdx   = [4]byte{'E', 'P', 'S', 'S'}
	magicAkasBin     = [4]byte{'A', 'K', 'A', 'B'}
	magicAkasIdx     = [4]byte{'A', 'K', 'A', 'X'}
	magicRatingsBin  = [4]byte{'R', 'A', 'T', 'B'}
	magicRatingsIdx  = [4]byte{'R', 'A', 'T', 'X'}
	magicNamesBin    = [4]byte{'N', 'A', 'M', 'B'}
	magicNamesIdx    = [4]byte{'N', 'A', 'M', 'X'}
)

// ErrIndexFormat reports a bad magic or an unsupported version on an
// index-directory file.
var ErrIndexFormat = fmt.Errorf("store: index format")

func writeHeader(f *os.File, magic [4]byte) error {
	var buf [headerSize]byte
	copy(buf[:4], magic[:])
	binary.LittleEndian.PutUint32(buf[4:], formatVersion)
	_, err := f.Write(buf[:])
	return err
}

// checkHeader verifies the magic and version at the start of r; the
// payload begins at headerSize.
func checkHeader(r io.ReaderAt, path string, want [4]byte) error {
	var buf [headerSize]byte
	if _, err := r.ReadAt(buf[:], 0); err != nil {
		return fmt.Errorf("store: read header of %s: %w", path, err)
	}
	if [4]byte(buf[:4]) != want {
		return fmt.Errorf("%w: %s: bad magic", ErrIndexFormat, path)
	}
	if v := binary.LittleEndian.Uint32(buf[4:]); v != formatVersion {
		return fmt.Errorf("%w: %s: version %d, want %d", ErrIndexFormat, path, v, formatVersion)
	}
	return nil
}

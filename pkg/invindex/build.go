package invindex

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"

	"github.com/kasuboski/imdbidx/pkg/store"
	"github.com/kasuboski/imdbidx/pkg/token"
)

// BuildConfig configures one inverted-index build.
type BuildConfig struct {
	NGramSize   int
	SpillBudget int // approximate in-memory bytes per spill run
}

// DefaultSpillBudget matches the 128 MiB default the external sort bounds
// itself to.
const DefaultSpillBudget = 128 << 20

// BuildResult summarizes one Build call, the numbers an ingest front-end
// reports back to its operator.
type BuildResult struct {
	NameEntries   int
	TokensEmitted int
	SpillFiles    int
	DistinctTerms int
}

// Build tokenizes every NameEntry in names, external-sorts the resulting
// (token, id, tf) facts, and writes terms.bin, postings.bin, and
// lengths.bin into dir. It takes dir's LOCK for its duration; callers are
// responsible for writing the READY marker once the rest of the index
// directory (the record stores) is also complete.
func Build(dir string, names *store.NameStore, cfg BuildConfig) (BuildResult, error) {
	var result BuildResult

	if cfg.SpillBudget <= 0 {
		cfg.SpillBudget = DefaultSpillBudget
	}

	lock, err := acquireLock(dir)
	if err != nil {
		return result, err
	}
	defer lock.release()

	spillDir, err := os.MkdirTemp(dir, "spill-")
	if err != nil {
		return result, fmt.Errorf("invindex: create spill dir: %w", err)
	}
	defer os.RemoveAll(spillDir)

	sw := newSpillWriter(spillDir, cfg.SpillBudget)
	var lengths []uint32

	for entry := range names.All() {
		tokens := token.Tokenize(entry.Name, cfg.NGramSize)
		result.NameEntries++
		result.TokensEmitted += len(tokens)
		lengths = append(lengths, uint32(len(tokens)))
		for tok, tf := range token.Frequencies(tokens) {
			if err := sw.add(tuple{token: tok, id: entry.ID, tf: tf}); err != nil {
				return result, fmt.Errorf("invindex: spill: %w", err)
			}
		}
	}

	paths, err := sw.finish()
	if err != nil {
		return result, fmt.Errorf("invindex: finalize spills: %w", err)
	}
	result.SpillFiles = len(paths)

	if err := writeLengths(dir, lengths); err != nil {
		return result, err
	}
	distinctTerms, err := writeTermsAndPostings(dir, paths)
	if err != nil {
		return result, err
	}
	result.DistinctTerms = distinctTerms
	return result, nil
}

func writeLengths(dir string, lengths []uint32) error {
	tmpPath := filepath.Join(dir, "lengths.bin.tmp")
	f, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("invindex: create lengths.bin: %w", err)
	}
	if err := writeHeader(f, magicLengths); err != nil {
		f.Close()
		return err
	}
	bw := bufio.NewWriterSize(f, 1<<20)
	var buf [4]byte
	for _, l := range lengths {
		binary.LittleEndian.PutUint32(buf[:], l)
		if _, err := bw.Write(buf[:]); err != nil {
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
	return os.Rename(tmpPath, filepath.Join(dir, "lengths.bin"))
}

// termDictEntry is the in-memory form of one terms.bin directory row.
type termDictEntry struct {
	term     string
	offset   uint64
	length   uint32
	docFreq  uint32
}

const maxTermBytes = 62

// termEntryWidth: 2-byte actual length + maxTermBytes padding + 8 (offset)
// + 4 (postings byte length) + 4 (doc freq).
const termEntryWidth = 2 + maxTermBytes + 8 + 4 + 4

func writeTermsAndPostings(dir string, spillPaths []string) (int, error) {
	postingsTmp := filepath.Join(dir, "postings.bin.tmp")
	pf, err := os.Create(postingsTmp)
	if err != nil {
		return 0, fmt.Errorf("invindex: create postings.bin: %w", err)
	}
	if err := writeHeader(pf, magicPostings); err != nil {
		pf.Close()
		return 0, err
	}
	pbw := bufio.NewWriterSize(pf, 4<<20)

	var dict []termDictEntry
	var off uint64 = headerSize

	mergeErr := mergeSpills(spillPaths, func(tp termPostings) error {
		if len(tp.term) > maxTermBytes {
			return fmt.Errorf("invindex: term %q exceeds %d bytes", tp.term, maxTermBytes)
		}
		encoded := encodePostings(tp.postings)
		if _, err := pbw.Write(encoded); err != nil {
			return err
		}
		dict = append(dict, termDictEntry{
			term:    tp.term,
			offset:  off,
			length:  uint32(len(encoded)),
			docFreq: uint32(len(tp.postings)),
		})
		off += uint64(len(encoded))
		return nil
	})
	if mergeErr != nil {
		pf.Close()
		return 0, fmt.Errorf("invindex: merge spills: %w", mergeErr)
	}

	if err := pbw.Flush(); err != nil {
		pf.Close()
		return 0, err
	}
	if err := pf.Sync(); err != nil {
		pf.Close()
		return 0, err
	}
	if err := pf.Close(); err != nil {
		return 0, err
	}

	termsTmp := filepath.Join(dir, "terms.bin.tmp")
	tf, err := os.Create(termsTmp)
	if err != nil {
		return 0, fmt.Errorf("invindex: create terms.bin: %w", err)
	}
	if err := writeHeader(tf, magicTerms); err != nil {
		tf.Close()
		return 0, err
	}
	tbw := bufio.NewWriterSize(tf, 1<<20)
	buf := make([]byte, termEntryWidth)
	for _, e := range dict {
		for i := range buf {
			buf[i] = 0
		}
		binary.LittleEndian.PutUint16(buf[0:2], uint16(len(e.term)))
		copy(buf[2:2+maxTermBytes], e.term)
		binary.LittleEndian.PutUint64(buf[2+maxTermBytes:], e.offset)
		binary.LittleEndian.PutUint32(buf[2+maxTermBytes+8:], e.length)
		binary.LittleEndian.PutUint32(buf[2+maxTermBytes+12:], e.docFreq)
		if _, err := tbw.Write(buf); err != nil {
			tf.Close()
			return 0, err
		}
	}
	if err := tbw.Flush(); err != nil {
		tf.Close()
		return 0, err
	}
	if err := tf.Sync(); err != nil {
		tf.Close()
		return 0, err
	}
	if err := tf.Close(); err != nil {
		return 0, err
	}

	// Fixed rename order: postings before terms, so a reader that only
	// sees terms.bin (impossible under a single rename syscall, but kept
	// for defense in depth) never finds dangling offsets.
	if err := os.Rename(postingsTmp, filepath.Join(dir, "postings.bin")); err != nil {
		return 0, err
	}
	if err := os.Rename(termsTmp, filepath.Join(dir, "terms.bin")); err != nil {
		return 0, err
	}
	return len(dict), nil
}

// WriteReady writes dir's READY marker. Callers call this only after every
// other file in the directory — record stores and the inverted index — is
// durably on disk.
func WriteReady(dir string) error {
	tmp := filepath.Join(dir, "READY.tmp")
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("invindex: create READY: %w", err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(tmp, filepath.Join(dir, "READY"))
}

// IsReady reports whether dir carries a READY marker.
func IsReady(dir string) bool {
	_, err := os.Stat(filepath.Join(dir, "READY"))
	return err == nil
}

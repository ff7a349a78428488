package invindex

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"iter"
	"path/filepath"

	"golang.org/x/exp/mmap"
)

// Index is a read-only, memory-mapped view over a built inverted index.
type Index struct {
	terms    *mmap.ReaderAt
	postings *mmap.ReaderAt
	lengths  *mmap.ReaderAt

	numTerms int
	numDocs  int
	totalLen uint64
}

// Open memory-maps terms.bin, postings.bin, and lengths.bin in dir. It
// refuses to open a directory lacking the READY marker.
func Open(dir string) (*Index, error) {
	if !IsReady(dir) {
		return nil, ErrIndexIncomplete
	}

	terms, err := mmap.Open(filepath.Join(dir, "terms.bin"))
	if err != nil {
		return nil, fmt.Errorf("invindex: open terms.bin: %w", err)
	}
	if err := checkHeader(terms, "terms.bin", magicTerms); err != nil {
		terms.Close()
		return nil, err
	}

	postings, err := mmap.Open(filepath.Join(dir, "postings.bin"))
	if err != nil {
		terms.Close()
		return nil, fmt.Errorf("invindex: open postings.bin: %w", err)
	}
	if err := checkHeader(postings, "postings.bin", magicPostings); err != nil {
		terms.Close()
		postings.Close()
		return nil, err
	}

	lengths, err := mmap.Open(filepath.Join(dir, "lengths.bin"))
	if err != nil {
		terms.Close()
		postings.Close()
		return nil, fmt.Errorf("invindex: open lengths.bin: %w", err)
	}
	if err := checkHeader(lengths, "lengths.bin", magicLengths); err != nil {
		terms.Close()
		postings.Close()
		lengths.Close()
		return nil, err
	}

	numTerms := (terms.Len() - headerSize) / termEntryWidth
	numDocs := (lengths.Len() - headerSize) / 4

	idx := &Index{terms: terms, postings: postings, lengths: lengths, numTerms: numTerms, numDocs: numDocs}
	for i := 0; i < numDocs; i++ {
		idx.totalLen += uint64(idx.docLenAt(i))
	}
	return idx, nil
}

// Close releases the index's memory mappings.
func (ix *Index) Close() error {
	err1 := ix.terms.Close()
	err2 := ix.postings.Close()
	err3 := ix.lengths.Close()
	for _, err := range []error{err1, err2, err3} {
		if err != nil {
			return err
		}
	}
	return nil
}

type termEntry struct {
	term    string
	offset  uint64
	length  uint32
	docFreq uint32
}

func (ix *Index) termAt(i int) (termEntry, error) {
	buf := make([]byte, termEntryWidth)
	if _, err := ix.terms.ReadAt(buf, headerSize+int64(i)*termEntryWidth); err != nil {
		return termEntry{}, err
	}
	n := binary.LittleEndian.Uint16(buf[:2])
	term := string(buf[2 : 2+n])
	offset := binary.LittleEndian.Uint64(buf[2+maxTermBytes:])
	length := binary.LittleEndian.Uint32(buf[2+maxTermBytes+8:])
	docFreq := binary.LittleEndian.Uint32(buf[2+maxTermBytes+12:])
	return termEntry{term: term, offset: offset, length: length, docFreq: docFreq}, nil
}

func (ix *Index) find(token string) (termEntry, bool) {
	lo, hi := 0, ix.numTerms
	for lo < hi {
		mid := (lo + hi) / 2
		e, err := ix.termAt(mid)
		if err != nil {
			return termEntry{}, false
		}
		switch bytes.Compare([]byte(e.term), []byte(token)) {
		case 0:
			return e, true
		case -1:
			lo = mid + 1
		default:
			hi = mid
		}
	}
	return termEntry{}, false
}

// Postings streams the (name_entry_id, tf) pairs for token in ascending id
// order. A missing token silently yields an empty sequence.
func (ix *Index) Postings(token string) iter.Seq2[uint64, uint32] {
	return func(yield func(uint64, uint32) bool) {
		e, ok := ix.find(token)
		if !ok {
			return
		}
		buf := make([]byte, e.length)
		if _, err := ix.postings.ReadAt(buf, int64(e.offset)); err != nil {
			return
		}
		for _, p := range decodePostings(buf, int(e.docFreq)) {
			if !yield(p.ID, p.TF) {
				return
			}
		}
	}
}

// DocFreq returns the number of documents containing token, 0 if absent.
func (ix *Index) DocFreq(token string) uint32 {
	e, ok := ix.find(token)
	if !ok {
		return 0
	}
	return e.docFreq
}

func (ix *Index) docLenAt(id int) uint32 {
	var buf [4]byte
	if _, err := ix.lengths.ReadAt(buf[:], headerSize+int64(id)*4); err != nil {
		return 0
	}
	return binary.LittleEndian.Uint32(buf[:])
}

// DocLen returns the token-count length of the document with the given
// name_entry_id.
func (ix *Index) DocLen(id uint64) uint32 {
	if int(id) >= ix.numDocs {
		return 0
	}
	return ix.docLenAt(int(id))
}

// CollectionStats returns the document count and average document length
// BM25 needs.
func (ix *Index) CollectionStats() (numDocs int, avgDocLen float64) {
	if ix.numDocs == 0 {
		return 0, 0
	}
	return ix.numDocs, float64(ix.totalLen) / float64(ix.numDocs)
}

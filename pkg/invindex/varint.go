package invindex

import "encoding/binary"

// posting is one (name_entry_id, term_frequency) pair in a term's posting
// list, stored on disk as a gap-coded, variable-byte pair: the id delta
// from the previous entry (or the absolute id for the first), then the tf.
type posting struct {
	ID uint64
	TF uint32
}

// encodePostings writes a posting list in ascending id order as a run of
// variable-byte (delta, tf) pairs, grounded on the same gap+varint coding
// google-codesearch uses for its trigram postings.
func encodePostings(postings []posting) []byte {
	buf := make([]byte, 0, len(postings)*4)
	var prev uint64
	var tmp [binary.MaxVarintLen64]byte
	for _, p := range postings {
		delta := p.ID - prev
		prev = p.ID
		n := binary.PutUvarint(tmp[:], delta)
		buf = append(buf, tmp[:n]...)
		n = binary.PutUvarint(tmp[:], uint64(p.TF))
		buf = append(buf, tmp[:n]...)
	}
	return buf
}

// decodePostings reverses encodePostings.
func decodePostings(buf []byte, n int) []posting {
	out := make([]posting, 0, n)
	var id uint64
	var off int
	for i := 0; i < n; i++ {
		delta, w := binary.Uvarint(buf[off:])
		off += w
		tf, w2 := binary.Uvarint(buf[off:])
		off += w2
		id += delta
		out = append(out, posting{ID: id, TF: uint32(tf)})
	}
	return out
}

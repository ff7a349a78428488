package scorer

import (
	"container/heap"
	"iter"
	"math"

	"github.com/kasuboski/imdbidx/pkg/token"
)

// index is the minimal view scorer needs from an opened inverted index,
// kept narrow so this package does not import invindex directly.
type index interface {
	Postings(token string) iter.Seq2[uint64, uint32]
	DocFreq(token string) uint32
	DocLen(id uint64) uint32
	CollectionStats() (numDocs int, avgDocLen float64)
}

// Candidate is one name_entry_id surviving the overlap cutoff, with its
// per-token matches already resolved for the scoring kernel.
type Candidate struct {
	NameEntryID uint64
	matches     map[string]tokenMatch
	docLen      uint32
}

// MinTokenOverlap is the default minimum-overlap threshold t (§4.6).
const MinTokenOverlap = 0.3

// shortQueryTokens is the threshold below which the overlap cutoff is
// skipped entirely (§9 Open Question (a), resolved in this repo).
const shortQueryTokens = 3

// postingCursor pulls one query token's posting list in ascending id
// order, lazily, via iter.Pull2.
type postingCursor struct {
	token string
	next  func() (uint64, uint32, bool)
	stop  func()
	id    uint64
	tf    uint32
	done  bool
}

func newPostingCursor(ix index, tok string) *postingCursor {
	next, stop := iter.Pull2(ix.Postings(tok))
	c := &postingCursor{token: tok, next: next, stop: stop}
	c.advance()
	return c
}

func (c *postingCursor) advance() {
	id, tf, ok := c.next()
	if !ok {
		c.done = true
		c.stop()
		return
	}
	c.id, c.tf = id, tf
}

type cursorHeap []*postingCursor

func (h cursorHeap) Len() int            { return len(h) }
func (h cursorHeap) Less(i, j int) bool  { return h[i].id < h[j].id }
func (h cursorHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *cursorHeap) Push(x any)         { *h = append(*h, x.(*postingCursor)) }
func (h *cursorHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// Generate tokenizes query, unions the matched posting lists via a
// priority-queue merge (§4.6), and applies the minimum-overlap cutoff.
// minOverlap is the configured threshold t; queries tokenizing to fewer
// than shortQueryTokens tokens skip the cutoff (§9 Open Question (a)).
func Generate(ix index, query string, ngramSize int, minOverlap float64) []Candidate {
	tokens := token.Tokenize(query, ngramSize)
	if len(tokens) == 0 {
		return nil
	}
	queryFreq := token.Frequencies(tokens)

	var h cursorHeap
	for tok := range queryFreq {
		c := newPostingCursor(ix, tok)
		if !c.done {
			h = append(h, c)
		}
	}
	heap.Init(&h)

	perDoc := make(map[uint64]map[string]tokenMatch)
	for h.Len() > 0 {
		c := h[0]
		id, tok := c.id, c.token
		tf := c.tf

		m, ok := perDoc[id]
		if !ok {
			m = make(map[string]tokenMatch)
			perDoc[id] = m
		}
		m[tok] = tokenMatch{tf: tf, df: ix.DocFreq(tok)}

		c.advance()
		if c.done {
			heap.Pop(&h)
		} else {
			heap.Fix(&h, 0)
		}
	}

	q := len(tokens)
	threshold := 0
	if q >= shortQueryTokens {
		threshold = int(math.Ceil(float64(q) * minOverlap))
	}

	candidates := make([]Candidate, 0, len(perDoc))
	for id, matches := range perDoc {
		overlap := overlapCount(matches, queryFreq)
		if overlap < threshold {
			continue
		}
		candidates = append(candidates, Candidate{
			NameEntryID: id,
			matches:     matches,
			docLen:      ix.DocLen(id),
		})
	}
	return candidates
}

// overlapCount sums, for each query token that matched, how much of the
// query's occurrences of it were satisfied, bounded by the document's own
// term frequency.
func overlapCount(matches map[string]tokenMatch, queryFreq map[string]uint32) int {
	var n int
	for tok, qf := range queryFreq {
		m, ok := matches[tok]
		if !ok {
			continue
		}
		if uint32(m.tf) < qf {
			n += int(m.tf)
		} else {
			n += int(qf)
		}
	}
	return n
}

// Score applies fn to every candidate, returning relevance scores in the
// same order as candidates.
func Score(fn Func, candidates []Candidate, queryFreq map[string]uint32, stats CollectionStats) []float64 {
	out := make([]float64, len(candidates))
	for i, c := range candidates {
		out[i] = fn(c.matches, c.docLen, queryFreq, stats)
	}
	return out
}

// QueryFrequencies tokenizes query the same way Generate does, for
// callers (e.g. the jaccard/qgram kernels) that need the query's token
// multiset directly.
func QueryFrequencies(query string, ngramSize int) map[string]uint32 {
	return token.Frequencies(token.Tokenize(query, ngramSize))
}

// Package scorer ranks candidate NameEntries for a tokenized query: it
// unions their posting lists to find candidates, applies a minimum-overlap
// cutoff, then assigns a relevance score using one of four selectable
// kernels (BM25, TF-IDF, Jaccard, Q-gram). Scorer choice is a tagged
// variant resolved once per query, not dispatched per posting.
package scorer

import (
	"fmt"
	"math"
)

// Name identifies a relevance-scoring kernel.
type Name string

const (
	BM25    Name = "okapi-bm25"
	TFIDF   Name = "tf-idf"
	Jaccard Name = "jaccard"
	QGram   Name = "qgram"
)

const (
	bm25K1 = 1.2
	bm25B  = 0.75
)

// CollectionStats carries the corpus-wide numbers BM25 and IDF need.
type CollectionStats struct {
	NumDocs    int
	AvgDocLen  float64
}

// tokenMatch is one query token's posting-list hit against a candidate.
type tokenMatch struct {
	tf uint32
	df uint32
}

// Func scores one candidate given its matched query tokens, keyed by
// token, its document length, and the collection-wide statistics.
type Func func(matches map[string]tokenMatch, docLen uint32, queryFreq map[string]uint32, stats CollectionStats) float64

// ByName resolves a configured scorer name to its Func, as selected once
// at query entry (§4.6).
func ByName(name Name) (Func, error) {
	switch name {
	case BM25, "":
		return scoreBM25, nil
	case TFIDF:
		return scoreTFIDF, nil
	case Jaccard:
		return scoreJaccard, nil
	case QGram:
		return scoreQGram, nil
	default:
		return nil, fmt.Errorf("scorer: unknown scorer %q", name)
	}
}

// idf implements log((N - df + 0.5) / (df + 0.5) + 1).
func idf(numDocs int, df uint32) float64 {
	n := float64(numDocs)
	d := float64(df)
	return math.Log1p((n - d + 0.5) / (d + 0.5))
}

func scoreBM25(matches map[string]tokenMatch, docLen uint32, _ map[string]uint32, stats CollectionStats) float64 {
	var score float64
	dl := float64(docLen)
	for _, m := range matches {
		w := idf(stats.NumDocs, m.df)
		tf := float64(m.tf)
		denom := tf + bm25K1*(1-bm25B+bm25B*dl/stats.AvgDocLen)
		score += w * (tf * (bm25K1 + 1)) / denom
	}
	return score
}

func scoreTFIDF(matches map[string]tokenMatch, _ uint32, _ map[string]uint32, stats CollectionStats) float64 {
	var score float64
	for _, m := range matches {
		score += float64(m.tf) * idf(stats.NumDocs, m.df)
	}
	return score
}

// scoreJaccard and scoreQGram treat the query and document as token sets.
// The index has no per-document distinct-token count on disk (lengths.bin
// stores the multiset total BM25 needs), so |D| is approximated by the
// document's stored length. This is documented as an approximation, not
// an exact set cardinality.
func scoreJaccard(matches map[string]tokenMatch, docLen uint32, queryFreq map[string]uint32, _ CollectionStats) float64 {
	overlap := float64(len(matches))
	q := float64(len(queryFreq))
	d := float64(docLen)
	union := q + d - overlap
	if union <= 0 {
		return 0
	}
	return overlap / union
}

func scoreQGram(matches map[string]tokenMatch, docLen uint32, queryFreq map[string]uint32, _ CollectionStats) float64 {
	overlap := float64(len(matches))
	q := float64(len(queryFreq))
	d := float64(docLen)
	if q+d <= 0 {
		return 0
	}
	return 2 * overlap / (q + d)
}

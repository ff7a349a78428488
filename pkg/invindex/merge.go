package invindex

import (
	"container/heap"
	"io"
)

// mergeCursor tracks one spill reader's current head tuple.
type mergeCursor struct {
	r    *spillReader
	head tuple
	done bool
}

type cursorHeap []*mergeCursor

func (h cursorHeap) Len() int { return len(h) }
func (h cursorHeap) Less(i, j int) bool {
	return less(h[i].head, h[j].head)
}
func (h cursorHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *cursorHeap) Push(x any)        { *h = append(*h, x.(*mergeCursor)) }
func (h *cursorHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// termPostings is one fully merged term's posting list, emitted in
// ascending token order by mergeSpills.
type termPostings struct {
	term     string
	postings []posting
}

// mergeSpills k-way merges the sorted spill files, collapsing duplicate
// (token, id) pairs by summing tf, and calls emit once per distinct token
// with its complete posting list in ascending id order. Spill readers are
// closed before returning.
func mergeSpills(paths []string, emit func(termPostings) error) error {
	var h cursorHeap
	defer func() {
		for _, c := range h {
			c.r.close()
		}
	}()
	for _, p := range paths {
		r, err := openSpillReader(p)
		if err != nil {
			return err
		}
		c := &mergeCursor{r: r}
		if err := c.advance(); err != nil && err != io.EOF {
			r.close()
			return err
		}
		if !c.done {
			h = append(h, c)
		} else {
			r.close()
		}
	}
	heap.Init(&h)

	var curTerm string
	var curPostings []posting
	haveCur := false

	flush := func() error {
		if !haveCur {
			return nil
		}
		return emit(termPostings{term: curTerm, postings: curPostings})
	}

	for h.Len() > 0 {
		c := heap.Pop(&h).(*mergeCursor)
		t := c.head

		if !haveCur || t.token != curTerm {
			if err := flush(); err != nil {
				return err
			}
			curTerm = t.token
			curPostings = curPostings[:0]
			haveCur = true
		}

		if n := len(curPostings); n > 0 && curPostings[n-1].ID == t.id {
			curPostings[n-1].TF += t.tf
		} else {
			curPostings = append(curPostings, posting{ID: t.id, TF: t.tf})
		}

		if err := c.advance(); err != nil && err != io.EOF {
			c.r.close()
			return err
		}
		if !c.done {
			heap.Push(&h, c)
		} else {
			c.r.close()
		}
	}

	return flush()
}

func (c *mergeCursor) advance() error {
	t, err := c.r.next()
	if err != nil {
		c.done = true
		return err
	}
	c.head = t
	return nil
}

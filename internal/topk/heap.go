// Package topk selects the k nearest candidates from a scored
// candidate stream using a bounded max-heap, so memory stays O(k)
// regardless of how many candidates are scored.
package topk

import (
	"container/heap"
	"sort"
)

// Candidate is one scored entry: its position in the collection and
// its distance to the query.
type Candidate struct {
	Position int
	Distance float32
}

// maxHeap keeps the current worst (largest-distance) candidate at the
// root so a better candidate can displace it in O(log k).
type maxHeap []Candidate

func (h maxHeap) Len() int { return len(h) }
func (h maxHeap) Less(i, j int) bool {
	if h[i].Distance != h[j].Distance {
		return h[i].Distance > h[j].Distance
	}
	return h[i].Position > h[j].Position
}
func (h maxHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }
func (h *maxHeap) Push(x interface{}) {
	*h = append(*h, x.(Candidate))
}
func (h *maxHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// Selector accumulates scored candidates and retains only the k with
// the smallest distance, breaking ties by ascending position.
type Selector struct {
	k int
	h maxHeap
}

// NewSelector creates a selector that will retain at most k results.
func NewSelector(k int) *Selector {
	return &Selector{k: k, h: make(maxHeap, 0, k)}
}

// Offer records a candidate, discarding it immediately if it cannot
// possibly make the final top-k.
func (s *Selector) Offer(position int, distance float32) {
	if s.k <= 0 {
		return
	}
	c := Candidate{Position: position, Distance: distance}
	if len(s.h) < s.k {
		heap.Push(&s.h, c)
		return
	}
	worst := s.h[0]
	if c.Distance < worst.Distance || (c.Distance == worst.Distance && c.Position < worst.Position) {
		s.h[0] = c
		heap.Fix(&s.h, 0)
	}
}

// Results drains the selector, returning candidates sorted by
// ascending distance with ties broken by ascending position.
func (s *Selector) Results() []Candidate {
	out := make([]Candidate, len(s.h))
	copy(out, s.h)
	sort.Slice(out, func(i, j int) bool {
		if out[i].Distance != out[j].Distance {
			return out[i].Distance < out[j].Distance
		}
		return out[i].Position < out[j].Position
	})
	return out
}

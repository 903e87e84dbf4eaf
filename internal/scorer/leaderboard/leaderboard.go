package leaderboard

import "container/heap"

// Entry is one scored pair eligible for the leaderboard.
type Entry struct {
	ID        string  `json:"id"`
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1        float64 `json:"f1"`
}

// Top returns the k highest-F1 entries in descending order. Ties are broken
// by ID so the ordering is deterministic.
func Top(entries []Entry, k int) []Entry {
	if k <= 0 {
		k = 10
	}
	h := &entryHeap{}
	heap.Init(h)
	for _, entry := range entries {
		heap.Push(h, entry)
		if h.Len() > k {
			heap.Pop(h)
		}
	}
	result := make([]Entry, h.Len())
	for i := len(result) - 1; i >= 0; i-- {
		result[i] = heap.Pop(h).(Entry)
	}
	return result
}

type entryHeap []Entry

func (h entryHeap) Len() int { return len(h) }

func (h entryHeap) Less(i, j int) bool {
	if h[i].F1 != h[j].F1 {
		return h[i].F1 < h[j].F1
	}
	return h[i].ID > h[j].ID
}

func (h entryHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *entryHeap) Push(x interface{}) {
	*h = append(*h, x.(Entry))
}

func (h *entryHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

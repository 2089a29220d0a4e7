// Package crawl — FIFO page queue with a converted set.
// A page enters the converted set when its conversion starts, so links
// back to it (or to any ancestor) are ignored from then on.
package crawl

// Queue is a FIFO of pending page identifiers plus the converted set.
// Pending entries may repeat; entries already converted are skipped.
type Queue struct {
	items []string
	done  map[string]bool
	idx   int // current read position
}

// NewQueue creates an empty Queue.
func NewQueue() *Queue {
	return &Queue{
		done: make(map[string]bool),
	}
}

// Add enqueues a page unless it is already converted.
func (q *Queue) Add(id string) {
	if q.done[id] {
		return
	}
	q.items = append(q.items, id)
}

// MarkDone adds a page to the converted set. Pages that turned out to be
// missing are marked as well so they are reported only once.
func (q *Queue) MarkDone(id string) {
	q.done[id] = true
}

// IsDone reports whether a page is in the converted set.
func (q *Queue) IsDone(id string) bool {
	return q.done[id]
}

// HasNext returns true if there are pending pages not yet converted.
func (q *Queue) HasNext() bool {
	for q.idx < len(q.items) && q.done[q.items[q.idx]] {
		q.idx++
	}
	return q.idx < len(q.items)
}

// Next returns the next pending page and advances the pointer.
// Call HasNext first.
func (q *Queue) Next() string {
	id := q.items[q.idx]
	q.idx++
	return id
}

// Pending returns the number of queued entries not yet read.
func (q *Queue) Pending() int {
	return len(q.items) - q.idx
}

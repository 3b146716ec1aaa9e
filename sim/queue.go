// Implements the Buffer, the FIFO input queue of one production center.
// Details are enqueued when routed to the center and dequeued by the center's workers.

package sim

import (
	"fmt"
	"strings"
	"sync"

	"github.com/gammazero/deque"
)

// Buffer is a concurrent FIFO of details waiting at one center.
// It is safe for multiple producers and consumers; the zero value is an empty buffer.
type Buffer struct {
	mu    sync.Mutex
	queue deque.Deque[Detail]
}

// Enqueue adds a detail to the back of the buffer.
func (b *Buffer) Enqueue(d Detail) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.queue.PushBack(d)
}

// Dequeue removes the detail at the front of the buffer.
// Returns false if the buffer is empty.
func (b *Buffer) Dequeue() (Detail, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.queue.Len() == 0 {
		return "", false
	}
	return b.queue.PopFront(), true
}

// DequeueUpTo removes at most n details from the front of the buffer in FIFO order.
// Fewer are returned if the buffer empties first.
func (b *Buffer) DequeueUpTo(n int) []Detail {
	b.mu.Lock()
	defer b.mu.Unlock()
	n = min(n, b.queue.Len())
	if n <= 0 {
		return nil
	}
	out := make([]Detail, n)
	for i := range out {
		out[i] = b.queue.PopFront()
	}
	return out
}

// PrependFront inserts details at the front of the buffer, keeping their relative order:
// after the call ds[0] is the next detail to be dequeued.
// Used when processing is cancelled so that the detail keeps its place in line.
func (b *Buffer) PrependFront(ds ...Detail) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i := len(ds) - 1; i >= 0; i-- {
		b.queue.PushFront(ds[i])
	}
}

// Len returns the number of details in the buffer.
func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.queue.Len()
}

// Items returns a copy of the buffer contents, front first.
func (b *Buffer) Items() []Detail {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]Detail, b.queue.Len())
	for i := range out {
		out[i] = b.queue.At(i)
	}
	return out
}

func (b *Buffer) String() string {
	items := b.Items()
	var sb strings.Builder
	sb.WriteString("[")
	for i, val := range items {
		sb.WriteString(fmt.Sprint(val))
		if i < len(items)-1 {
			sb.WriteString(" ")
		}
	}
	sb.WriteString("]")
	return sb.String()
}

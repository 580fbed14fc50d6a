package supervisor

import (
	"sync"

	"github.com/cuemby/flowrunner/internal/model"
)

// DefaultWindowCapacity is the default number of output chunks retained
// per running task.
const DefaultWindowCapacity = 256

// DefaultReadBufferSize is the default size of one PTY read.
const DefaultReadBufferSize = 4096

// Window is a bounded sliding FIFO of output chunks for the currently
// running task. It drops the oldest chunk when full.
type Window struct {
	mu       sync.Mutex
	capacity int
	chunks   []model.Chunk
}

// NewWindow returns a Window holding at most capacity chunks. A
// non-positive capacity is replaced with DefaultWindowCapacity.
func NewWindow(capacity int) *Window {
	if capacity <= 0 {
		capacity = DefaultWindowCapacity
	}
	return &Window{capacity: capacity}
}

// Push appends chunk to the back of the window, dropping the oldest
// chunk first if the window is at capacity.
func (w *Window) Push(chunk model.Chunk) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if len(w.chunks) >= w.capacity {
		w.chunks = w.chunks[1:]
	}
	w.chunks = append(w.chunks, chunk)
}

// Drain returns every chunk currently held, oldest first, and empties
// the window. Each call returns only chunks pushed since the previous
// Drain (or since the window was created/Reset).
func (w *Window) Drain() []model.Chunk {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := w.chunks
	w.chunks = nil
	return out
}

// Reset empties the window.
func (w *Window) Reset() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.chunks = nil
}

// Len reports how many chunks the window currently holds.
func (w *Window) Len() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.chunks)
}

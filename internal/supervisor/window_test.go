package supervisor

import (
	"testing"

	"github.com/cuemby/flowrunner/internal/model"
	"github.com/stretchr/testify/assert"
)

func TestWindowDropsOldestWhenFull(t *testing.T) {
	w := NewWindow(2)
	w.Push(model.Chunk("a"))
	w.Push(model.Chunk("b"))
	w.Push(model.Chunk("c"))

	assert.Equal(t, 2, w.Len())
	assert.Equal(t, []model.Chunk{model.Chunk("b"), model.Chunk("c")}, w.Drain())
}

func TestWindowDrainEmptiesWindow(t *testing.T) {
	w := NewWindow(4)
	w.Push(model.Chunk("a"))

	first := w.Drain()
	assert.Equal(t, []model.Chunk{model.Chunk("a")}, first)
	assert.Zero(t, w.Len())

	second := w.Drain()
	assert.Empty(t, second)
}

func TestWindowReset(t *testing.T) {
	w := NewWindow(4)
	w.Push(model.Chunk("a"))
	w.Reset()
	assert.Zero(t, w.Len())
	assert.Empty(t, w.Drain())
}

func TestNewWindowNonPositiveCapacityUsesDefault(t *testing.T) {
	w := NewWindow(0)
	assert.Equal(t, DefaultWindowCapacity, w.capacity)
}

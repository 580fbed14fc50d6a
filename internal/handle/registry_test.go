package handle

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateAndGet(t *testing.T) {
	r := New()
	h := r.Create(KindQueue, VariantLocal, "payload", nil)

	require.True(t, r.IsValid(h))

	got, ok := Get[string](r, h, KindQueue)
	require.True(t, ok)
	assert.Equal(t, "payload", got)

	kind, err := r.ParentKind(h)
	require.NoError(t, err)
	assert.Equal(t, KindQueue, kind)

	variant, err := r.Variant(h)
	require.NoError(t, err)
	assert.Equal(t, VariantLocal, variant)
}

func TestGetWrongKind(t *testing.T) {
	r := New()
	h := r.Create(KindQueue, VariantLocal, "payload", nil)

	_, ok := Get[string](r, h, KindConnection)
	assert.False(t, ok)
}

func TestGetWrongType(t *testing.T) {
	r := New()
	h := r.Create(KindQueue, VariantLocal, 42, nil)

	_, ok := Get[string](r, h, KindQueue)
	assert.False(t, ok)
}

func TestRemoveInvalidatesHandle(t *testing.T) {
	r := New()
	destroyed := false
	h := r.Create(KindQueue, VariantLocal, "payload", func() { destroyed = true })

	r.Remove(h)

	assert.False(t, r.IsValid(h))
	assert.True(t, destroyed)

	// Removing twice is a no-op, not a panic.
	r.Remove(h)
}

func TestTakeSuppressesDestroy(t *testing.T) {
	r := New()
	destroyed := false
	h := r.Create(KindQueue, VariantLocal, "payload", func() { destroyed = true })

	obj, ok := Take[string](r, h, KindQueue)
	require.True(t, ok)
	assert.Equal(t, "payload", obj)
	assert.False(t, destroyed)
	assert.False(t, r.IsValid(h))
}

func TestGenerationRecycledIndexInvalidatesOldHandle(t *testing.T) {
	r := New()
	h1 := r.Create(KindQueue, VariantLocal, "first", nil)
	r.Remove(h1)

	h2 := r.Create(KindQueue, VariantLocal, "second", nil)
	require.Equal(t, h1.Index, h2.Index)
	assert.NotEqual(t, h1.Generation, h2.Generation)

	assert.False(t, r.IsValid(h1))
	assert.True(t, r.IsValid(h2))

	got, ok := Get[string](r, h2, KindQueue)
	require.True(t, ok)
	assert.Equal(t, "second", got)
}

func TestZeroHandleIsAlwaysInvalid(t *testing.T) {
	r := New()
	assert.False(t, r.IsValid(Zero))
}

func TestGenerationRollsOverSkippingZero(t *testing.T) {
	r := New()
	var h Handle
	for i := 0; i < maxGeneration+2; i++ {
		h = r.Create(KindQueue, VariantLocal, i, nil)
		r.Remove(h)
	}
	assert.NotZero(t, h.Generation)
}

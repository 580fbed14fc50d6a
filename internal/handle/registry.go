// Package handle implements the registry that stands behind flowrunner's
// opaque handle surface: a dense table of entries, each carrying an
// owned object, a generation counter, and kind/variant tags, so that the
// same in-process API surface backs both the local and remote variants
// of connection, queue-list, and queue objects.
//
// The registry is not internally synchronised: callers must not
// operate on the same handle from multiple goroutines concurrently.
package handle

import "github.com/cuemby/flowrunner/pkg/ferr"

// Kind identifies which of the three object families a handle refers
// to.
type Kind int

const (
	KindConnection Kind = iota
	KindQueueList
	KindQueue
)

// Variant identifies which backend implements the object behind a
// handle.
type Variant int

const (
	VariantLocal Variant = iota
	VariantRemote
)

// maxGeneration is the highest generation value issued before rollover.
// Generation 0 is reserved as "never issued" so a zero-value Handle is
// always statically invalid.
const maxGeneration = 0xFFF // 12 bits

// Handle is an opaque reference to an entry in a Registry: an index
// paired with a generation counter, as a struct rather than a packed
// integer.
type Handle struct {
	Index      uint32
	Generation uint16
}

// Zero is the handle value that can never be issued by Create.
var Zero = Handle{}

type entry struct {
	object     any
	generation uint16
	kind       Kind
	variant    Variant
	alive      bool
	destroy    func()
}

// Registry is a dense table of handle entries. The zero value is a
// usable, empty registry.
type Registry struct {
	entries []entry
	free    []uint32
}

// New returns an empty registry.
func New() *Registry {
	return &Registry{}
}

// Create allocates a new handle for object, tagged with kind and
// variant. destroy, if non-nil, is invoked by Remove (unless the handle
// was previously released via Take). Indices are recycled from removed
// entries, bumping that slot's generation.
func (r *Registry) Create(kind Kind, variant Variant, object any, destroy func()) Handle {
	var idx uint32
	if n := len(r.free); n > 0 {
		idx = r.free[n-1]
		r.free = r.free[:n-1]
	} else {
		idx = uint32(len(r.entries))
		r.entries = append(r.entries, entry{})
	}

	e := &r.entries[idx]
	gen := e.generation + 1
	if gen > maxGeneration {
		gen = 1
	}

	*e = entry{
		object:     object,
		generation: gen,
		kind:       kind,
		variant:    variant,
		alive:      true,
		destroy:    destroy,
	}

	return Handle{Index: idx, Generation: gen}
}

func (r *Registry) lookup(h Handle) *entry {
	if h.Generation == 0 || int(h.Index) >= len(r.entries) {
		return nil
	}
	e := &r.entries[h.Index]
	if !e.alive || e.generation != h.Generation {
		return nil
	}
	return e
}

// IsValid reports whether h refers to a live entry.
func (r *Registry) IsValid(h Handle) bool {
	return r.lookup(h) != nil
}

// ParentKind returns the kind tag for h, or an error if h is stale/dead.
func (r *Registry) ParentKind(h Handle) (Kind, error) {
	e := r.lookup(h)
	if e == nil {
		return 0, ferr.ErrInvalidArgument
	}
	return e.kind, nil
}

// Variant returns the variant tag for h, or an error if h is stale/dead.
func (r *Registry) Variant(h Handle) (Variant, error) {
	e := r.lookup(h)
	if e == nil {
		return 0, ferr.ErrInvalidArgument
	}
	return e.variant, nil
}

// Get returns the object behind h as a T if h is alive, has kind k, and
// holds a T; otherwise it returns the zero T and false.
func Get[T any](r *Registry, h Handle, k Kind) (T, bool) {
	var zero T
	e := r.lookup(h)
	if e == nil || e.kind != k {
		return zero, false
	}
	obj, ok := e.object.(T)
	if !ok {
		return zero, false
	}
	return obj, true
}

// Take returns the object behind h and suppresses the registry's
// destructor for it, transferring ownership to the caller. The entry
// itself is still removed (the handle becomes invalid). Returns ok=false
// if h is stale/dead.
func Take[T any](r *Registry, h Handle, k Kind) (T, bool) {
	var zero T
	e := r.lookup(h)
	if e == nil || e.kind != k {
		return zero, false
	}
	obj, ok := e.object.(T)
	if !ok {
		return zero, false
	}
	e.destroy = nil
	r.remove(h)
	return obj, true
}

// Remove runs the entry's destructor (if still set), marks it dead, and
// recycles its index. It is a no-op if h is already stale/dead.
func (r *Registry) Remove(h Handle) {
	r.remove(h)
}

func (r *Registry) remove(h Handle) {
	e := r.lookup(h)
	if e == nil {
		return
	}
	if e.destroy != nil {
		e.destroy()
	}
	e.object = nil
	e.destroy = nil
	e.alive = false
	r.free = append(r.free, h.Index)
}

package containers

// Ring is a fixed-size round robin over its elements. The size never changes
// after construction and the cursor wraps around.
type Ring[T any] struct {
	items   []T
	current int
}

func NewRing[T any](items []T) *Ring[T] {
	if len(items) == 0 {
		panic("containers: ring needs at least one element")
	}
	return &Ring[T]{items: items}
}

func (r *Ring[T]) Len() int {
	return len(r.items)
}

// Index of the current element.
func (r *Ring[T]) Index() int {
	return r.current
}

func (r *Ring[T]) Current() T {
	return r.items[r.current]
}

func (r *Ring[T]) At(i int) T {
	return r.items[i]
}

// Advance moves the cursor to the next element and returns its index.
func (r *Ring[T]) Advance() int {
	r.current = (r.current + 1) % len(r.items)
	return r.current
}

// Each visits every element in storage order.
func (r *Ring[T]) Each(fn func(i int, item T)) {
	for i, it := range r.items {
		fn(i, it)
	}
}

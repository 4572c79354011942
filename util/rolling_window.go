package util

import (
	"cmp"
	"slices"
)

// RollingWindow is a bounded buffer that evicts its oldest element once it holds capacity elements.
// It is not safe for concurrent use.
type RollingWindow[T any] struct {
	items    []T
	capacity int
}

// NewRollingWindow returns an empty window. A capacity below 1 is treated as 1.
func NewRollingWindow[T any](capacity int) *RollingWindow[T] {
	if capacity < 1 {
		capacity = 1
	}

	return &RollingWindow[T]{
		items:    make([]T, 0, capacity),
		capacity: capacity,
	}
}

// PushBack appends item, evicting the front element first when the window is full.
func (w *RollingWindow[T]) PushBack(item T) {
	if len(w.items) >= w.capacity {
		w.popFront()
	}

	w.items = append(w.items, item)
}

// InsertSortedFunc evicts the front element when the window is full, then inserts item before the
// first element for which cmpFn(element, item) >= 0, or appends it when there is none.
func (w *RollingWindow[T]) InsertSortedFunc(item T, cmpFn func(a, b T) int) {
	if len(w.items) >= w.capacity {
		w.popFront()
	}

	idx := slices.IndexFunc(w.items, func(existing T) bool {
		return cmpFn(existing, item) >= 0
	})

	if idx < 0 {
		w.items = append(w.items, item)
		return
	}

	w.items = slices.Insert(w.items, idx, item)
}

// InsertSorted is InsertSortedFunc using the natural ordering of T.
func InsertSorted[T cmp.Ordered](w *RollingWindow[T], item T) {
	w.InsertSortedFunc(item, cmp.Compare[T])
}

func (w *RollingWindow[T]) popFront() {
	var zero T

	w.items[0] = zero
	w.items = slices.Delete(w.items, 0, 1)
}

func (w *RollingWindow[T]) Len() int {
	return len(w.items)
}

func (w *RollingWindow[T]) Capacity() int {
	return w.capacity
}

func (w *RollingWindow[T]) IsEmpty() bool {
	return len(w.items) == 0
}

func (w *RollingWindow[T]) IsFull() bool {
	return len(w.items) >= w.capacity
}

// Get returns the element at index i, counted from the oldest.
func (w *RollingWindow[T]) Get(i int) (T, bool) {
	if i < 0 || i >= len(w.items) {
		var zero T
		return zero, false
	}

	return w.items[i], true
}

// Items returns a copy of the window contents, oldest first.
func (w *RollingWindow[T]) Items() []T {
	return slices.Clone(w.items)
}

// Clone returns an independent copy of the window with the same capacity.
func (w *RollingWindow[T]) Clone() *RollingWindow[T] {
	return w.Resize(w.capacity)
}

// Resize returns an independent copy of the window with the given capacity. When shrinking, the
// front elements are dropped first.
func (w *RollingWindow[T]) Resize(capacity int) *RollingWindow[T] {
	if capacity < 1 {
		capacity = 1
	}

	keep := w.items
	if len(keep) > capacity {
		keep = keep[len(keep)-capacity:]
	}

	items := make([]T, len(keep), capacity)
	copy(items, keep)

	return &RollingWindow[T]{items: items, capacity: capacity}
}

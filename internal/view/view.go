// Package view provides typed, stride-aware, bounds-padded access to
// flat buffers.
//
// A View replaces raw offset arithmetic over a shared slice with an
// explicit object carrying the element offset, the logical length and
// the trailing slack the backing allocation provides past the logical
// end. Block reads may extend into the slack; this is how the scatter
// engine fetches one aligned 8-element coordinate block instead of
// four narrow reads. Sizing the backing allocation with enough slack
// is the caller's documented precondition, checked once at
// construction and never per access.
package view

import "fmt"

// View is a typed window over a region of a flat buffer.
//
// The zero View is empty and safe to read (length 0).
type View[T any] struct {
	// data spans the logical region plus its trailing slack.
	data []T

	// length is the logical element count; Get and Set accept
	// indices in [0, length).
	length int
}

// Slice constructs a view over base starting at element offset, with
// the given logical length and trailing slack. The backing slice must
// provide offset+length+slack elements; this is the only bounds
// arithmetic the view performs.
func Slice[T any](base []T, offset, length, slack int) (View[T], error) {
	if offset < 0 || length < 0 || slack < 0 {
		return View[T]{}, fmt.Errorf("view: negative dimension (offset=%d length=%d slack=%d)",
			offset, length, slack)
	}
	need := offset + length + slack
	if need > len(base) {
		return View[T]{}, fmt.Errorf("view: backing slice holds %d elements, need %d (offset=%d length=%d slack=%d)",
			len(base), need, offset, length, slack)
	}
	return View[T]{
		data:   base[offset : offset+length+slack],
		length: length,
	}, nil
}

// Len returns the logical element count.
func (v View[T]) Len() int { return v.length }

// Get returns element i. i must be in [0, Len()).
func (v View[T]) Get(i int) T { return v.data[i] }

// Set stores element i. i must be in [0, Len()).
func (v View[T]) Set(i int, x T) { v.data[i] = x }

// Block returns the n elements starting at i as a slice aliasing the
// underlying buffer. The block may extend past the logical length into
// the slack region; it must not extend past length+slack.
func (v View[T]) Block(i, n int) []T {
	return v.data[i : i+n]
}

// CopyIn bulk-copies src into the view starting at element i.
func (v View[T]) CopyIn(i int, src []T) {
	copy(v.data[i:i+len(src)], src)
}

// CopyOut bulk-copies n elements starting at i into dst.
func (v View[T]) CopyOut(dst []T, i, n int) {
	copy(dst, v.data[i:i+n])
}

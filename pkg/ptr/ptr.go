// Package ptr provides utility functions for working with pointers.
package ptr

// Deref returns the value pointed to, or the zero value for a nil pointer.
// yt-dlp metadata fields are pointer-typed throughout, so this shows up on
// every read.
func Deref[T any](p *T) T {
	if p == nil {
		var zero T

		return zero
	}

	return *p
}

// Of returns a pointer to the given value.
func Of[T any](v T) *T { return &v }

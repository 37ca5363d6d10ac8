// Package collection provides generic, functional-style helpers for slices.
//
// Usage:
//
//	total := collection.Sum(lines, func(l models.CartLine) float64 { return l.Price * float64(l.Quantity) })
//	line, ok := collection.First(lines, func(l models.CartLine) bool { return l.ID == id })
package collection

// Map transforms each element of slice s using fn.
func Map[T, R any](s []T, fn func(T) R) []R {
	out := make([]R, len(s))
	for i, v := range s {
		out[i] = fn(v)
	}
	return out
}

// Filter returns elements of s for which fn returns true.
func Filter[T any](s []T, fn func(T) bool) []T {
	var out []T
	for _, v := range s {
		if fn(v) {
			out = append(out, v)
		}
	}
	return out
}

// Reject returns elements of s for which fn returns false (inverse of Filter).
func Reject[T any](s []T, fn func(T) bool) []T {
	return Filter(s, func(v T) bool { return !fn(v) })
}

// First returns the first element matching fn, or (zero, false).
func First[T any](s []T, fn func(T) bool) (T, bool) {
	for _, v := range s {
		if fn(v) {
			return v, true
		}
	}
	var zero T
	return zero, false
}

// IndexOf returns the index of the first element matching fn, or -1.
func IndexOf[T any](s []T, fn func(T) bool) int {
	for i, v := range s {
		if fn(v) {
			return i
		}
	}
	return -1
}

// Contains reports whether any element of s satisfies fn.
func Contains[T any](s []T, fn func(T) bool) bool {
	_, ok := First(s, fn)
	return ok
}

// Reduce folds s into a single value using fn, starting with initial.
func Reduce[T, R any](s []T, initial R, fn func(carry R, item T) R) R {
	carry := initial
	for _, v := range s {
		carry = fn(carry, v)
	}
	return carry
}

// Sum sums numeric values extracted by fn.
func Sum[T any](s []T, fn func(T) float64) float64 {
	return Reduce(s, 0.0, func(acc float64, v T) float64 { return acc + fn(v) })
}

// SumInt sums integer values extracted by fn.
func SumInt[T any](s []T, fn func(T) int) int {
	return Reduce(s, 0, func(acc int, v T) int { return acc + fn(v) })
}

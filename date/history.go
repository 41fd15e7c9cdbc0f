package date

import (
	"iter"
	"slices"
	"sort"
)

// History stores a chronological series of values, each associated with a specific date.
// It ensures that dates are unique and the series is always sorted.
type History[T any] struct {
	days   []Date
	values []T
}

// Latest returns the latest date and value in the history.
// If the history is empty, it returns zero value.
func (h *History[T]) Latest() (day Date, value T) {
	last := len(h.days) - 1
	if last < 0 {
		return Date{}, *new(T)
	}
	return h.days[last], h.values[last]
}

// First returns the earliest date and value in the history.
func (h *History[T]) First() (day Date, value T, ok bool) {
	if len(h.days) == 0 {
		return Date{}, *new(T), false
	}
	return h.days[0], h.values[0], true
}

// Clear removes all items from the history.
func (h *History[T]) Clear() {
	h.days = h.days[:0]
	h.values = h.values[:0]
}

// Len returns the number of items in the history.
func (h *History[T]) Len() int { return len(h.days) }

// chronological is a private implementation to make this history chronologically sorted.
type chronological[T any] struct{ *History[T] }

func (s chronological[T]) Less(i, j int) bool { return s.days[i].Before(s.days[j]) }

func (s chronological[T]) Swap(i, j int) {
	s.days[i], s.days[j] = s.days[j], s.days[i]
	s.values[i], s.values[j] = s.values[j], s.values[i]
}

// sort sorts the history in chronological order.
func (h *History[T]) sort() { sort.Stable(chronological[T]{h}) }

// index returns the position of day, or where it would be inserted.
func (h *History[T]) index(day Date) (int, bool) {
	return slices.BinarySearchFunc(h.days, day, Date.Compare)
}

// Append adds a point to the history.
//
// Existing value at that date are overwritten.
func (h *History[T]) Append(on Date, q T) *History[T] {
	if n := len(h.days); n == 0 || h.days[n-1].Before(on) {
		// chronological feed, the common case.
		h.days, h.values = append(h.days, on), append(h.values, q)
		return h
	}
	if i, found := h.index(on); found {
		// We choose to replace, because it will give higher priority to the last data
		h.values[i] = q
		return h
	}
	h.days, h.values = append(h.days, on), append(h.values, q)
	h.sort()
	return h
}

// Values returns an iterator over all date/value pairs in the history, in chronological order.
func (h *History[T]) Values() iter.Seq2[Date, T] {
	return func(yield func(Date, T) bool) {
		for i, on := range h.days {
			if !yield(on, h.values[i]) {
				return
			}
		}
	}
}

// Days returns the dates of the history, in chronological order.
func (h *History[T]) Days() []Date { return slices.Clone(h.days) }

// Get returns the value at 'day' and true or zero value and false.
func (h *History[T]) Get(day Date) (T, bool) {
	if i, found := h.index(day); found {
		return h.values[i], true
	}
	var zero T
	return zero, false
}

// ValueAsOf returns the value on a given day, or the most recent value before it.
// It returns the value and true if found, otherwise it returns the zero value and false.
func (h *History[T]) ValueAsOf(day Date) (T, bool) {
	i, found := h.index(day)
	if found {
		return h.values[i], true
	}
	// `i` is where `day` would be inserted, the value we want is the one just before.
	if i == 0 {
		var zero T
		return zero, false
	}
	return h.values[i-1], true
}

// Since returns a new History restricted to dates on or after day.
func (h *History[T]) Since(day Date) *History[T] {
	i, _ := h.index(day)
	return &History[T]{days: slices.Clone(h.days[i:]), values: slices.Clone(h.values[i:])}
}

// Map returns a new History whose values are f(day, value). Points for which
// f returns false are dropped.
func Map[T, U any](h *History[T], f func(Date, T) (U, bool)) *History[U] {
	res := &History[U]{days: make([]Date, 0, h.Len()), values: make([]U, 0, h.Len())}
	for i, on := range h.days {
		if v, ok := f(on, h.values[i]); ok {
			res.days, res.values = append(res.days, on), append(res.values, v)
		}
	}
	return res
}

// FillForward returns one value per day of r. Days without a point reuse the
// most recent prior point of h, days before any point get zero.
//
// Only points inside r are considered, so a value before r.From never leaks in.
func FillForward[T any](h *History[T], r Range) []T {
	res := make([]T, 0, r.Len())
	i, _ := h.index(r.From)
	var last T
	for day := range r.Days() {
		for i < len(h.days) && !h.days[i].After(day) {
			last = h.values[i]
			i++
		}
		res = append(res, last)
	}
	return res
}

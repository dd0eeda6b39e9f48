package discourse

import (
	"context"
	"iter"
)

// Iterator walks the items of a list across pages. It fetches the next page
// only once the current one is used up, and cannot be restarted.
type Iterator[T any] struct {
	page    *Page[T]
	index   int
	current T
	err     error
	done    bool
}

// Iterate returns an iterator starting at the first item of p.
func (p *Page[T]) Iterate() *Iterator[T] {
	return &Iterator[T]{page: p, done: p == nil}
}

// Next advances to the next item, fetching a page if needed. It returns false
// at the end of the list or on error; check Err afterwards.
func (it *Iterator[T]) Next(ctx context.Context) bool {
	for !it.done {
		if it.index < len(it.page.Items) {
			it.current = it.page.Items[it.index]
			it.index++
			return true
		}
		if len(it.page.Items) == 0 {
			break
		}

		next, err := it.page.Next(ctx)
		if err != nil {
			it.err = err
			break
		}
		if next == nil {
			break
		}
		it.page = next
		it.index = 0
	}

	it.done = true
	var zero T
	it.current = zero
	return false
}

// Value returns the current item.
func (it *Iterator[T]) Value() T {
	return it.current
}

// Err returns the error that stopped the iteration, if any.
func (it *Iterator[T]) Err() error {
	return it.err
}

// Page returns the page the current item belongs to.
func (it *Iterator[T]) Page() *Page[T] {
	return it.page
}

// All returns the items of the list starting at p. A fetch error is yielded
// once, with the zero item, and ends the sequence.
func (p *Page[T]) All(ctx context.Context) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		it := p.Iterate()
		for it.Next(ctx) {
			if !yield(it.Value(), nil) {
				return
			}
		}
		if err := it.Err(); err != nil {
			var zero T
			yield(zero, err)
		}
	}
}

// Collect reads the remaining pages and returns all items.
func (p *Page[T]) Collect(ctx context.Context) ([]T, error) {
	var items []T
	for item, err := range p.All(ctx) {
		if err != nil {
			return items, err
		}
		items = append(items, item)
	}
	return items, nil
}

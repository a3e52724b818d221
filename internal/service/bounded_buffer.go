package service

// BoundedBuffer keeps the first limit items appended and counts the rest.
// A limit of zero or less keeps nothing.
type BoundedBuffer[T any] struct {
	items   []T
	limit   int
	dropped int
}

func NewBoundedBuffer[T any](limit int) *BoundedBuffer[T] {
	capacity := limit
	if capacity < 0 {
		capacity = 0
	}
	if capacity > 1024 {
		capacity = 1024
	}
	return &BoundedBuffer[T]{items: make([]T, 0, capacity), limit: limit}
}

func (b *BoundedBuffer[T]) Add(item T) {
	if len(b.items) >= b.limit {
		b.dropped++
		return
	}
	b.items = append(b.items, item)
}

func (b *BoundedBuffer[T]) Items() []T { return b.items }

func (b *BoundedBuffer[T]) Len() int { return len(b.items) }

// Dropped is the number of items refused after the buffer filled.
func (b *BoundedBuffer[T]) Dropped() int { return b.dropped }

// Total is every item offered, kept or not.
func (b *BoundedBuffer[T]) Total() int { return len(b.items) + b.dropped }

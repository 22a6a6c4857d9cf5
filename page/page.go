// Copyright 2022 Stock Parfait

// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at

//     http://www.apache.org/licenses/LICENSE-2.0

// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package page holds one page of decoded records together with the paging
// metadata reported by the data source.
package page

import (
	"github.com/stockparfait/iterator"

	"github.com/stockparfait/tushare/table"
)

// List is a read-only page of records. The invariant Count() >= Len() always
// holds.
type List[T any] struct {
	items   []T
	hasMore bool
	count   int64
}

// New creates a page of items. A negative count means the source did not
// report a total, in which case the count is the number of items and there are
// no more pages. A count smaller than the number of items is rejected with a
// PaginationInvariantViolation error.
//
// The page takes ownership of items.
func New[T any](items []T, hasMore bool, count int64) (*List[T], error) {
	if count < 0 {
		return FromItems(items), nil
	}
	if count < int64(len(items)) {
		e := table.NewError(table.PaginationInvariantViolation,
			"reported total is smaller than the page")
		e.Count = count
		e.Items = len(items)
		return nil, e
	}
	return &List[T]{items: items, hasMore: hasMore, count: count}, nil
}

// FromItems creates a complete page for a source which doesn't report totals.
func FromItems[T any](items []T) *List[T] {
	return &List[T]{items: items, count: int64(len(items))}
}

// Len is the number of records on this page.
func (l *List[T]) Len() int { return len(l.items) }

// IsEmpty checks whether the page has no records.
func (l *List[T]) IsEmpty() bool { return len(l.items) == 0 }

// At returns the i-th record, or false if i is out of range.
func (l *List[T]) At(i int) (T, bool) {
	if i < 0 || i >= len(l.items) {
		var zero T
		return zero, false
	}
	return l.items[i], true
}

// Items returns a copy of the records.
func (l *List[T]) Items() []T {
	return append([]T(nil), l.items...)
}

// Iter iterates over the records in order.
func (l *List[T]) Iter() iterator.Iterator[T] {
	return iterator.FromSlice(l.items)
}

// HasMore is true when the source has more pages.
func (l *List[T]) HasMore() bool { return l.hasMore }

// Count is the total number of records across all pages.
func (l *List[T]) Count() int64 { return l.count }

// Remaining is the number of records on the other pages.
func (l *List[T]) Remaining() int64 { return l.count - int64(len(l.items)) }

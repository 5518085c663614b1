package batch

import (
	"fmt"
	"iter"
)

// MaxBulkSize is the maximum number of requests the Bulk API accepts per call.
const MaxBulkSize = 100

// Split lazily groups seq into chunks of size elements. The last chunk holds
// the remainder and is never empty. Every chunk is a fresh slice.
//
// Split panics if size is not positive.
func Split[T any](seq iter.Seq[T], size int) iter.Seq[[]T] {
	if size <= 0 {
		panic(fmt.Sprintf("batch: size must be positive (got %d)", size))
	}

	return func(yield func([]T) bool) {
		buf := make([]T, 0, size)
		for el := range seq {
			buf = append(buf, el)
			if len(buf) == size {
				if !yield(buf) {
					return
				}
				buf = make([]T, 0, size)
			}
		}
		if len(buf) > 0 {
			yield(buf)
		}
	}
}

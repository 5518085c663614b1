// Package batch splits a lazy sequence into fixed-size chunks for the Bulk API.
//
// The Bulk API accepts at most MaxBulkSize sub-requests per call. Split groups
// any iter.Seq into chunks of that size (or any other positive size) without
// materialising the input, so an unbounded stream of identifiers can be
// crawled in constant memory.
//
// Example usage:
//
//	for chunk := range batch.Split(requests, batch.MaxBulkSize) {
//		resp, err := bulkClient.Submit(ctx, chunk)
//		...
//	}
//
// The splitter:
//   - Preserves input order exactly
//   - Yields full chunks, then one partial chunk holding the remainder
//   - Yields nothing for empty input
//   - Panics on a non-positive size
package batch

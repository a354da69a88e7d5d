package apcloudy

import (
	"context"
	"errors"
)

// ErrIteratorClosed is returned by Err after iterating past an explicit
// Close.
var ErrIteratorClosed = errors.New("apcloudy: item iterator closed")

// ItemIterator streams a job's scraped items, fetching pages lazily as the
// consumer advances. It follows the bufio.Scanner idiom:
//
//	it := client.Jobs.IterItems("job-1", 100)
//	defer it.Close()
//	for it.Next(ctx) {
//	    handle(it.Item())
//	}
//	if err := it.Err(); err != nil {
//	    return err
//	}
//
// The iterator is not restartable: once exhausted or closed, a fresh call
// to IterItems is required. It is not safe for concurrent use.
type ItemIterator struct {
	jobs   *JobsService
	jobID  string
	batch  int
	offset int

	buf    []Item
	idx    int
	done   bool
	closed bool
	err    error
}

// IterItems returns a lazy iterator over all items of a job. batchSize
// controls the underlying page size; values out of range fall back to
// DefaultPageSize.
func (s *JobsService) IterItems(jobID string, batchSize int) *ItemIterator {
	if batchSize <= 0 || batchSize > MaxPageSize {
		batchSize = DefaultPageSize
	}
	it := &ItemIterator{jobs: s, jobID: jobID, batch: batchSize, idx: -1}
	if err := requireID("job id", jobID); err != nil {
		it.err = err
		it.done = true
	}
	return it
}

// Next advances to the following item, fetching the next page when the
// current one is drained. It returns false at the end of the stream, on
// error, or after Close; consult Err to distinguish exhaustion from
// failure.
func (it *ItemIterator) Next(ctx context.Context) bool {
	if it.done {
		return false
	}

	it.idx++
	if it.idx < len(it.buf) {
		return true
	}

	// A page shorter than the batch size marks the end of the stream, so
	// a trailing short page never costs an extra fetch.
	if it.buf != nil && len(it.buf) < it.batch {
		it.done = true
		return false
	}

	page, err := it.jobs.Items(ctx, it.jobID, it.offset, it.batch)
	if err != nil {
		it.err = err
		it.done = true
		return false
	}
	if len(page) == 0 {
		it.done = true
		return false
	}

	it.offset += len(page)
	it.buf = page
	it.idx = 0
	return true
}

// Item returns the current item. Only valid after a true Next.
func (it *ItemIterator) Item() Item {
	if it.idx < 0 || it.idx >= len(it.buf) {
		return nil
	}
	return it.buf[it.idx]
}

// Err returns the first error encountered during iteration, or nil if the
// stream ended normally.
func (it *ItemIterator) Err() error {
	if it.err == ErrIteratorClosed {
		return nil
	}
	return it.err
}

// Close releases the iterator. It is safe to call on any exit path,
// including early termination, and is idempotent. Next returns false after
// Close.
func (it *ItemIterator) Close() error {
	if it.closed {
		return nil
	}
	it.closed = true
	it.done = true
	it.buf = nil
	if it.err == nil {
		it.err = ErrIteratorClosed
	}
	return nil
}

package ftl

import "errors"

// ErrAllocationExhausted is returned by a strategy when no block on the
// device currently has spare capacity. The write path recovers from it by
// forcing one garbage-collection pass.
var ErrAllocationExhausted = errors.New("no block has spare capacity")

// ErrStorageExhausted is returned by Write when allocation still fails
// after one forced garbage-collection pass. It is fatal for that call; the
// caller decides whether to abort the run or skip the write.
var ErrStorageExhausted = errors.New(
	"storage exhausted even after garbage collection")

// ErrNotMapped is returned by Read when the logical address has never been
// written.
var ErrNotMapped = errors.New("logical address is not mapped")

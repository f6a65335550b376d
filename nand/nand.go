// Package nand models the state machine of a NAND flash device. It knows
// about pages, blocks, and the block-level operations (program, invalidate,
// erase), but carries no placement or garbage-collection policy. The policy
// layer lives in the ftl package.
package nand

import "errors"

// ErrBlockFull is returned when a write is attempted on a block whose write
// cursor has reached the end of the block.
var ErrBlockFull = errors.New("block is full")

// A PageState describes the lifecycle stage of a single page.
type PageState int

// The three states a page can be in. A page starts Free, becomes Valid when
// programmed, becomes Invalid when its logical address is overwritten or
// migrated elsewhere, and only returns to Free when the whole block is
// erased.
const (
	PageFree PageState = iota
	PageValid
	PageInvalid
)

// String returns the name of the state.
func (s PageState) String() string {
	switch s {
	case PageFree:
		return "free"
	case PageValid:
		return "valid"
	case PageInvalid:
		return "invalid"
	default:
		return "unknown"
	}
}

// A Page is one programmable unit inside a block. LogicalAddr is only
// meaningful while the page is Valid.
type Page struct {
	State       PageState
	LogicalAddr uint64
}

// A PageAddr identifies one physical page location on the device.
type PageAddr struct {
	Block int
	Page  int
}

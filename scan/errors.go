package scan

import "fmt"

// ShieldedProtocol distinguishes which commitment tree/nullifier set a
// tree-size error pertains to.
type ShieldedProtocol uint8

const (
	Sapling ShieldedProtocol = iota
	Orchard
)

func (p ShieldedProtocol) String() string {
	switch p {
	case Sapling:
		return "Sapling"
	case Orchard:
		return "Orchard"
	default:
		return "unknown"
	}
}

// ScanError is the closed error taxonomy returned by ScanBlock. Every
// variant carries the height at which the failure was detected.
type ScanError interface {
	error
	AtHeight() uint64
}

// PrevHashMismatchError is returned when the new block's declared
// prev-hash does not match the hash of the prior block.
type PrevHashMismatchError struct {
	At uint64
}

func (e *PrevHashMismatchError) AtHeight() uint64 { return e.At }

func (e *PrevHashMismatchError) Error() string {
	return fmt.Sprintf("the parent hash of the proposed block does not correspond to the block hash at height %d", e.At)
}

// BlockHeightDiscontinuityError is returned when the new block's height is
// not exactly one more than the prior block's height.
type BlockHeightDiscontinuityError struct {
	Prev uint64
	New  uint64
}

func (e *BlockHeightDiscontinuityError) AtHeight() uint64 { return e.New }

func (e *BlockHeightDiscontinuityError) Error() string {
	return fmt.Sprintf("block height discontinuity at height %d; previous height was %d", e.New, e.Prev)
}

// TreeSizeMismatchError is returned when the block's declared end-of-block
// commitment tree size does not match what the scanner computed.
type TreeSizeMismatchError struct {
	Protocol ShieldedProtocol
	At       uint64
	Given    uint32
	Computed uint32
}

func (e *TreeSizeMismatchError) AtHeight() uint64 { return e.At }

func (e *TreeSizeMismatchError) Error() string {
	return fmt.Sprintf("%s note commitment tree size provided by the compact block did not match the expected size at height %d; given %d, expected %d",
		e.Protocol, e.At, e.Given, e.Computed)
}

// TreeSizeUnknownError is returned when there is no way to determine the
// starting commitment tree size: no prior metadata, no chain metadata, and
// the block is at or past the protocol's activation height.
type TreeSizeUnknownError struct {
	Protocol ShieldedProtocol
	At       uint64
}

func (e *TreeSizeUnknownError) AtHeight() uint64 { return e.At }

func (e *TreeSizeUnknownError) Error() string {
	return fmt.Sprintf("unable to determine %s note commitment tree size at height %d", e.Protocol, e.At)
}

// TreeSizeInvalidError is returned when the block's chain metadata declares
// an end-of-block tree size smaller than the number of outputs in the block,
// which can only be explained by bad or default-valued metadata.
type TreeSizeInvalidError struct {
	Protocol ShieldedProtocol
	At       uint64
}

func (e *TreeSizeInvalidError) AtHeight() uint64 { return e.At }

func (e *TreeSizeInvalidError) Error() string {
	return fmt.Sprintf("received invalid (potentially default) %s note commitment tree size metadata at height %d", e.Protocol, e.At)
}

// IsContinuityError reports whether err represents a failure that a caller
// should treat as a reason to roll back and re-scan, as opposed to a
// transient metadata-availability problem. PrevHashMismatchError,
// BlockHeightDiscontinuityError, and TreeSizeMismatchError are continuity
// errors; TreeSizeUnknownError and TreeSizeInvalidError are not.
func IsContinuityError(err error) bool {
	switch err.(type) {
	case *PrevHashMismatchError, *BlockHeightDiscontinuityError, *TreeSizeMismatchError:
		return true
	default:
		return false
	}
}

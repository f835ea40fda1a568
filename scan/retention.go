package scan

// RetentionKind is the tag of a Retention value.
type RetentionKind uint8

const (
	// Ephemeral commitments may be discarded by the incremental tree once
	// they are no longer needed to compute subsequent roots.
	Ephemeral RetentionKind = iota
	// Marked commitments belong to the wallet and must be individually
	// witnessed so a future spend can be proven.
	Marked
	// CheckpointKind commitments snapshot the tree state as of a block
	// boundary, regardless of whether they are marked.
	CheckpointKind
)

// Retention is the incremental-tree retention hint emitted alongside every
// commitment in a scanned block (spec.md §6). Exactly one commitment per
// block carries CheckpointKind, and it is always the last.
type Retention struct {
	Kind RetentionKind
	// CheckpointID and IsMarked are only meaningful when Kind ==
	// CheckpointKind.
	CheckpointID uint64
	IsMarked     bool
}

// classifyRetention implements §4.3 step 4: the last output of the last
// transaction in a block is always a checkpoint (marked according to
// whether it decrypted); every other decrypted output is Marked, and every
// other non-decrypted output is Ephemeral.
func classifyRetention(height uint64, outputIdx, outputsInTx int, txIdx, txsInBlock int, decrypted bool) Retention {
	isLastOutputOfBlock := outputIdx+1 == outputsInTx && txIdx+1 == txsInBlock
	if isLastOutputOfBlock {
		return Retention{Kind: CheckpointKind, CheckpointID: height, IsMarked: decrypted}
	}
	if decrypted {
		return Retention{Kind: Marked}
	}
	return Retention{Kind: Ephemeral}
}

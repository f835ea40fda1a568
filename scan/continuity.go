package scan

// checkContinuity implements §4.1: if there is no prior block, there is
// nothing to validate. Otherwise the new block's height must be exactly the
// prior height plus one, and its declared prev-hash must match the prior
// block's hash. The height check is performed before the hash check.
func checkContinuity(block *CompactBlock, prior *BlockMetadata) ScanError {
	if prior == nil {
		return nil
	}

	if block.Height != prior.Height+1 {
		return &BlockHeightDiscontinuityError{Prev: prior.Height, New: block.Height}
	}

	if block.PrevHash != prior.Hash {
		return &PrevHashMismatchError{At: block.Height}
	}

	return nil
}

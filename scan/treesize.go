package scan

// resolveStartTreeSize implements §4.2's priority order for determining the
// commitment-tree size at the start of a block, for a single shielded
// protocol:
//
//  1. If the prior block's metadata carries a tree size, use it.
//  2. Else if the block carries chain metadata, reverse the server's
//     cumulative counter: start = declared_end - outputs_in_block. If that
//     underflows, the server sent invalid (likely default-zero) metadata.
//  3. Else if we're strictly below the protocol's activation height (or it
//     has none configured), the tree is empty: start = 0.
//  4. Else there is no way to know the starting size.
func resolveStartTreeSize(
	protocol ShieldedProtocol,
	height uint64,
	priorSize *uint32,
	declaredEndSize *uint32,
	outputsInBlock uint32,
	activation ActivationHeights,
) (uint32, ScanError) {
	if priorSize != nil {
		return *priorSize, nil
	}

	if declaredEndSize != nil {
		if *declaredEndSize < outputsInBlock {
			return 0, &TreeSizeInvalidError{Protocol: protocol, At: height}
		}
		return *declaredEndSize - outputsInBlock, nil
	}

	var activationHeight uint64
	var hasActivation bool
	switch protocol {
	case Sapling:
		activationHeight, hasActivation = activation.SaplingActivation()
	case Orchard:
		activationHeight, hasActivation = activation.OrchardActivation()
	}

	if !hasActivation || height < activationHeight {
		return 0, nil
	}

	return 0, &TreeSizeUnknownError{Protocol: protocol, At: height}
}

// auditFinalTreeSize implements the end-of-§4.3 post-block check: when the
// block carries chain metadata, the declared end-of-block tree size must
// equal what the scanner actually computed by walking the block's outputs.
func auditFinalTreeSize(protocol ShieldedProtocol, height uint64, declared, computed uint32) ScanError {
	if declared != computed {
		return &TreeSizeMismatchError{Protocol: protocol, At: height, Given: declared, Computed: computed}
	}
	return nil
}

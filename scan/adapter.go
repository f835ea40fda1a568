package scan

import "obsidian-core/wire"

// CompactBlockFromMsgBlock builds the bandwidth-minimized summary a light
// client would have received over the wire out of a full node's own block,
// so a node can drive its own shielded pool through the same scanning path
// a remote light client uses. Transparent transactions and data the scanner
// never touches (signatures, proofs, value commitments) are dropped.
func CompactBlockFromMsgBlock(block *wire.MsgBlock, height int32) *CompactBlock {
	cb := &CompactBlock{
		Height:   uint64(height),
		Hash:     block.BlockHash(),
		PrevHash: block.Header.PrevBlock,
		Time:     uint32(block.Header.Timestamp.Unix()),
	}

	for txIdx, tx := range block.Transactions {
		if !tx.IsShielded() {
			continue
		}
		ctx := CompactTx{
			Hash:  tx.TxHash(),
			Index: uint64(txIdx),
		}
		for _, spend := range tx.ShieldedSpends {
			var nf [32]byte
			copy(nf[:], spend.Nullifier)
			ctx.Spends = append(ctx.Spends, CompactSpend{Nf: nf})
		}
		for _, out := range tx.ShieldedOutputs {
			ctx.Outputs = append(ctx.Outputs, compactOutputFrom(out))
		}
		cb.Vtx = append(cb.Vtx, ctx)
	}

	return cb
}

// compactOutputFrom truncates a full shielded output down to the compact
// fields a trial decryption needs: the commitment, the ephemeral key, and
// the leading window of the encrypted note ciphertext.
func compactOutputFrom(out *wire.ShieldedOutput) CompactOutput {
	var o CompactOutput
	copy(o.Cmu[:], out.Cmu)
	copy(o.EphemeralKey[:], out.EphemeralKey)
	copy(o.Ciphertext[:], out.EncCiphertext)
	return o
}

package blockchain

import (
	"obsidian-core/scan"
	"obsidian-core/wire"
	"testing"
)

func TestShieldedPoolApplyScannedBlock_RecordsOwnedValue(t *testing.T) {
	sp := NewShieldedPool()

	var cmu wire.Hash
	copy(cmu[:], []byte("owned-output-commitment-12345678"))
	var otherCmu wire.Hash
	copy(otherCmu[:], []byte("other-wallets-commitment-1234567"))

	block := &scan.ScannedBlock{
		Height: 10,
		Sapling: scan.ScannedBundles{
			FinalTreeSize: 2,
			Commitments: []scan.CommitmentNode{
				{Node: cmu},
				{Node: otherCmu},
			},
		},
		WalletTxs: []scan.WalletTx{
			{
				SaplingOutputs: []scan.WalletSaplingOutput{
					{Cmu: [32]byte(cmu), Note: scan.Note{Value: 5000}},
				},
			},
		},
	}

	if err := sp.ApplyScannedBlock(block); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !sp.HasCommitment(cmu[:]) || !sp.HasCommitment(otherCmu[:]) {
		t.Fatalf("expected both commitments to be recorded")
	}
	if got := sp.GetTotalShieldedValue(); got != 5000 {
		t.Errorf("expected total shielded value 5000, got %d", got)
	}
}

func TestShieldedPoolApplyScannedBlock_MarksSpendsAndUnlinked(t *testing.T) {
	sp := NewShieldedPool()

	ownNf := [32]byte{1, 2, 3}
	foreignNf := [32]byte{4, 5, 6}

	block := &scan.ScannedBlock{
		Height: 11,
		Sapling: scan.ScannedBundles{
			NullifierMap: []scan.TxNullifiers{
				{Unlinked: [][32]byte{foreignNf}},
			},
		},
		WalletTxs: []scan.WalletTx{
			{
				SaplingSpends: []scan.WalletSaplingSpend{
					{Nullifier: ownNf, Account: scan.AccountZero},
				},
			},
		},
	}

	if err := sp.ApplyScannedBlock(block); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !sp.HasNullifier(ownNf[:]) {
		t.Errorf("expected wallet-owned nullifier to be recorded spent")
	}
	if !sp.HasNullifier(foreignNf[:]) {
		t.Errorf("expected unlinked nullifier to still be recorded spent")
	}
}

package scan

import (
	"obsidian-core/wire"
)

// ChainMetadata carries the server's notion of the commitment tree sizes as
// of the end of a block, per the compact-block wire format in §6.
type ChainMetadata struct {
	SaplingCommitmentTreeSize uint32
	OrchardCommitmentTreeSize uint32
}

// CompactSpend is the compact representation of a shielded spend: just
// enough to match against tracked nullifiers.
type CompactSpend struct {
	Nf [32]byte
}

// CompactOutput is the compact representation of a shielded output: enough
// for compact trial decryption, but not a full note-encryption ciphertext.
type CompactOutput struct {
	Cmu          [32]byte
	EphemeralKey [32]byte
	Ciphertext   [52]byte
}

// CompactAction is the Orchard analogue of a combined spend+output. Orchard
// collection is not wired up by this scanner; see ScannedBlock.Orchard.
type CompactAction struct {
	Nullifier    [32]byte
	Cmx          [32]byte
	EphemeralKey [32]byte
	Ciphertext   [52]byte
}

// CompactTx is one transaction's worth of compact spends and outputs.
type CompactTx struct {
	Hash    wire.Hash
	Index   uint64
	Spends  []CompactSpend
	Outputs []CompactOutput
	Actions []CompactAction
}

// CompactBlock is a bandwidth-minimized block summary: just the data a light
// client needs to scan for owned notes and spent nullifiers.
type CompactBlock struct {
	Height        uint64
	Hash          wire.Hash
	PrevHash      wire.Hash
	Time          uint32
	Vtx           []CompactTx
	ChainMetadata *ChainMetadata
}

// BlockMetadata is the prior-block carry the caller threads from one
// ScanBlock call to the next: enough to validate continuity and seed the
// tree-size counters without rescanning history.
type BlockMetadata struct {
	Height          uint64
	Hash            wire.Hash
	SaplingTreeSize *uint32
	OrchardTreeSize *uint32
}

// NewBlockMetadata constructs the BlockMetadata a caller should carry forward
// from a ScannedBlock to seed the next ScanBlock call.
func NewBlockMetadata(b *ScannedBlock) *BlockMetadata {
	saplingSize := b.Sapling.FinalTreeSize
	md := &BlockMetadata{
		Height:          b.Height,
		Hash:            b.Hash,
		SaplingTreeSize: &saplingSize,
	}
	if b.Orchard != nil {
		orchardSize := b.Orchard.FinalTreeSize
		md.OrchardTreeSize = &orchardSize
	}
	return md
}

// Scope tags which HD derivation path an output's key belongs to,
// distinguishing user-facing addresses from internal change addresses.
// External and Internal are the two scopes produced by a full viewing key;
// NoScope is used by incoming-viewing-key-only scanning keys, which cannot
// distinguish scope.
type Scope uint8

const (
	NoScope Scope = iota
	External
	Internal
)

func (s Scope) String() string {
	switch s {
	case External:
		return "external"
	case Internal:
		return "internal"
	default:
		return "none"
	}
}

// Note is the plaintext content recovered from a successful trial
// decryption. The real note-encryption scheme's recipient/value/rseed
// structure is out of scope for this package (see the NoteDecryptor
// interface); this is the minimal shape the scanner itself touches.
type Note struct {
	Value     uint64
	Recipient [32]byte
	Rseed     [32]byte
}

// NullifierResult holds the outcome of deriving a nullifier for a decrypted
// output. ScanningKey implementations that cannot derive nullifiers (i.e.
// incoming-viewing-key-only keys) set Known to false; the zero value is then
// the "unit" result described in spec.md §3.
type NullifierResult struct {
	Nullifier [32]byte
	Known     bool
}

// Account identifies which wallet account a spend or output belongs to. The
// zero value must be the "default"/neutral account: the constant-time
// nullifier matcher (see nullifier.go) relies on AccountZero as its
// accumulator's initial, "nothing matched yet" value.
type Account uint32

// AccountZero is the neutral account value used to seed the constant-time
// nullifier-matching accumulator.
const AccountZero Account = 0

// TrackedNullifier is a single entry in the wallet's set of nullifiers it
// already expects to see spent, along with the account that owns the note.
type TrackedNullifier struct {
	Account   Account
	Nullifier [32]byte
}

// WalletSaplingSpend is a shielded spend recognized as spending a note the
// wallet tracks.
type WalletSaplingSpend struct {
	Index     int
	Nullifier [32]byte
	Account   Account
}

// WalletSaplingOutput is a shielded output recognized as belonging to the
// wallet via successful trial decryption.
type WalletSaplingOutput struct {
	Index        int
	Cmu          [32]byte
	EphemeralKey [32]byte
	Account      Account
	Note         Note
	IsChange     bool
	Position     uint64
	Nf           NullifierResult
	Scope        Scope
}

// WalletTx collects all spends and outputs in a single transaction that are
// relevant to the wallet. A WalletTx is only ever emitted when it has at
// least one spend or output (invariant 5 in spec.md §3).
type WalletTx struct {
	Txid           wire.Hash
	Index          int
	SaplingSpends  []WalletSaplingSpend
	SaplingOutputs []WalletSaplingOutput
}

// CommitmentNode is a single note-commitment tree leaf plus the retention
// hint the incremental tree should apply to it.
type CommitmentNode struct {
	Node      wire.Hash
	Retention Retention
}

// TxNullifiers records, for one transaction, the nullifiers that appeared in
// its spends but did not match any tracked nullifier at scan time.
type TxNullifiers struct {
	Txid     wire.Hash
	TxIndex  uint16
	Unlinked [][32]byte
}

// ScannedBundles is the per-shielded-protocol result of a block scan: how
// large the commitment tree grew to, what to feed the incremental tree, and
// which spend nullifiers remain unlinked.
type ScannedBundles struct {
	FinalTreeSize uint32
	Commitments   []CommitmentNode
	NullifierMap  []TxNullifiers
}

// ScannedBlock is the result of successfully scanning one CompactBlock.
type ScannedBlock struct {
	Height    uint64
	Hash      wire.Hash
	Time      uint32
	WalletTxs []WalletTx
	Sapling   ScannedBundles
	Orchard   *ScannedBundles
}

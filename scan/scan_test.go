package scan

import (
	"reflect"
	"testing"

	"obsidian-core/wire"
)

func testKeyEntry(account Account, extSeed, intSeed byte) KeyEntry {
	ext := preparedKey(extSeed)
	inter := preparedKey(intSeed)
	return KeyEntry{
		Account: account,
		Key: FullViewingKey{
			ExternalIVK: ext,
			InternalIVK: inter,
			DeriveNf: func(scope Scope, note Note, position uint64) [32]byte {
				var nf [32]byte
				nf[0] = byte(position)
				nf[1] = byte(scope)
				return nf
			},
		},
	}
}

func newScannerForTest() *Scanner {
	return NewScanner(NeverActive{}, DefaultConfig())
}

// S1 — own output only.
func TestScanBlock_OwnOutputOnly(t *testing.T) {
	key := testKeyEntry(1, 0x01, 0x02)
	keys := []KeyEntry{key}

	notOurs := randomOutput()
	ours := sealCompactOutput(key.Key.(FullViewingKey).ExternalIVK, randomHash200(), 5, [16]byte{})

	block := &CompactBlock{
		Height:   1,
		Hash:     randomHash(),
		PrevHash: wire.Hash{},
		Vtx: []CompactTx{
			{Hash: randomHash(), Index: 0, Spends: []CompactSpend{{Nf: randomNullifier()}}, Outputs: []CompactOutput{notOurs}},
			{Hash: randomHash(), Index: 1, Outputs: []CompactOutput{ours}},
		},
	}

	priorSize := uint32(0)
	prior := &BlockMetadata{Height: 0, Hash: wire.Hash{}, SaplingTreeSize: &priorSize}

	s := newScannerForTest()
	result, scanErr := s.ScanBlock(block, keys, nil, prior)
	if scanErr != nil {
		t.Fatalf("unexpected scan error: %v", scanErr)
	}

	if len(result.WalletTxs) != 1 {
		t.Fatalf("expected 1 wallet tx, got %d", len(result.WalletTxs))
	}
	wtx := result.WalletTxs[0]
	if wtx.Index != 1 {
		t.Errorf("expected wallet tx at index 1, got %d", wtx.Index)
	}
	if len(wtx.SaplingOutputs) != 1 {
		t.Fatalf("expected 1 wallet output, got %d", len(wtx.SaplingOutputs))
	}
	out := wtx.SaplingOutputs[0]
	if out.Note.Value != 5 {
		t.Errorf("expected value 5, got %d", out.Note.Value)
	}
	if out.Position != 1 {
		t.Errorf("expected position 1, got %d", out.Position)
	}

	if len(result.Sapling.Commitments) != 2 {
		t.Fatalf("expected 2 commitments, got %d", len(result.Sapling.Commitments))
	}
	if result.Sapling.Commitments[0].Retention.Kind != Ephemeral {
		t.Errorf("expected first commitment Ephemeral, got %+v", result.Sapling.Commitments[0].Retention)
	}
	last := result.Sapling.Commitments[1].Retention
	if last.Kind != CheckpointKind || !last.IsMarked || last.CheckpointID != 1 {
		t.Errorf("expected marked checkpoint at height 1, got %+v", last)
	}

	if result.Sapling.FinalTreeSize != 2 {
		t.Errorf("expected final tree size 2, got %d", result.Sapling.FinalTreeSize)
	}
}

// S2 — own output with a trailing unrelated tx, and chain metadata present.
func TestScanBlock_OwnOutputWithTrailingTx(t *testing.T) {
	key := testKeyEntry(1, 0x03, 0x04)
	keys := []KeyEntry{key}

	notOurs := randomOutput()
	ours := sealCompactOutput(key.Key.(FullViewingKey).ExternalIVK, randomHash200(), 5, [16]byte{})
	trailing := randomOutput()

	block := &CompactBlock{
		Height:   1,
		Hash:     randomHash(),
		PrevHash: wire.Hash{},
		Vtx: []CompactTx{
			{Hash: randomHash(), Index: 0, Spends: []CompactSpend{{Nf: randomNullifier()}}, Outputs: []CompactOutput{notOurs}},
			{Hash: randomHash(), Index: 1, Outputs: []CompactOutput{ours}},
			{Hash: randomHash(), Index: 2, Outputs: []CompactOutput{trailing}},
		},
		ChainMetadata: &ChainMetadata{SaplingCommitmentTreeSize: 3},
	}

	priorSize := uint32(0)
	prior := &BlockMetadata{Height: 0, Hash: wire.Hash{}, SaplingTreeSize: &priorSize}

	s := newScannerForTest()
	result, scanErr := s.ScanBlock(block, keys, nil, prior)
	if scanErr != nil {
		t.Fatalf("unexpected scan error: %v", scanErr)
	}

	if len(result.WalletTxs) != 1 || result.WalletTxs[0].Index != 1 {
		t.Fatalf("expected single wallet tx at index 1, got %+v", result.WalletTxs)
	}

	wantKinds := []RetentionKind{Ephemeral, Marked, CheckpointKind}
	if len(result.Sapling.Commitments) != len(wantKinds) {
		t.Fatalf("expected %d commitments, got %d", len(wantKinds), len(result.Sapling.Commitments))
	}
	for i, want := range wantKinds {
		if got := result.Sapling.Commitments[i].Retention.Kind; got != want {
			t.Errorf("commitment %d: expected kind %v, got %v", i, want, got)
		}
	}
	last := result.Sapling.Commitments[2].Retention
	if last.IsMarked {
		t.Errorf("expected final checkpoint not marked, got %+v", last)
	}
}

// S3 — own spend only, no wallet outputs.
func TestScanBlock_OwnSpendOnly(t *testing.T) {
	nf := [32]byte{}
	for i := range nf {
		nf[i] = 0x07
	}
	tracked := []TrackedNullifier{{Account: 12, Nullifier: nf}}

	block := &CompactBlock{
		Height:   1,
		Hash:     randomHash(),
		PrevHash: wire.Hash{},
		Vtx: []CompactTx{
			{Hash: randomHash(), Index: 0, Spends: []CompactSpend{{Nf: nf}}, Outputs: []CompactOutput{randomOutput()}},
		},
	}

	priorSize := uint32(0)
	prior := &BlockMetadata{Height: 0, Hash: wire.Hash{}, SaplingTreeSize: &priorSize}

	s := newScannerForTest()
	result, scanErr := s.ScanBlock(block, nil, tracked, prior)
	if scanErr != nil {
		t.Fatalf("unexpected scan error: %v", scanErr)
	}

	if len(result.WalletTxs) != 1 {
		t.Fatalf("expected 1 wallet tx, got %d", len(result.WalletTxs))
	}
	wtx := result.WalletTxs[0]
	if len(wtx.SaplingSpends) != 1 || wtx.SaplingSpends[0].Account != 12 {
		t.Fatalf("expected 1 spend with account 12, got %+v", wtx.SaplingSpends)
	}
	if len(wtx.SaplingOutputs) != 0 {
		t.Fatalf("expected 0 outputs, got %d", len(wtx.SaplingOutputs))
	}

	last := result.Sapling.Commitments[len(result.Sapling.Commitments)-1].Retention
	if last.Kind != CheckpointKind || last.IsMarked {
		t.Errorf("expected unmarked checkpoint, got %+v", last)
	}
}

// S4 — continuity failure via hash mismatch.
func TestScanBlock_PrevHashMismatch(t *testing.T) {
	block := &CompactBlock{
		Height:   1,
		Hash:     randomHash(),
		PrevHash: wire.Hash{},
		Vtx:      []CompactTx{{Hash: randomHash(), Index: 0, Outputs: []CompactOutput{randomOutput()}}},
	}

	badHash := wire.Hash{}
	badHash[0] = 0x01
	priorSize := uint32(0)
	prior := &BlockMetadata{Height: 0, Hash: badHash, SaplingTreeSize: &priorSize}

	s := newScannerForTest()
	_, scanErr := s.ScanBlock(block, nil, nil, prior)
	if scanErr == nil {
		t.Fatal("expected a scan error")
	}
	mismatch, ok := scanErr.(*PrevHashMismatchError)
	if !ok {
		t.Fatalf("expected *PrevHashMismatchError, got %T", scanErr)
	}
	if mismatch.At != 1 {
		t.Errorf("expected at_height 1, got %d", mismatch.At)
	}
	if !IsContinuityError(scanErr) {
		t.Error("expected PrevHashMismatchError to be a continuity error")
	}
}

// S5 — continuity failure via tree size mismatch.
func TestScanBlock_TreeSizeMismatch(t *testing.T) {
	block := &CompactBlock{
		Height:   1,
		Hash:     randomHash(),
		PrevHash: wire.Hash{},
		Vtx: []CompactTx{
			{Hash: randomHash(), Index: 0, Outputs: []CompactOutput{randomOutput(), randomOutput()}},
		},
		ChainMetadata: &ChainMetadata{SaplingCommitmentTreeSize: 100},
	}

	priorSize := uint32(0)
	prior := &BlockMetadata{Height: 0, Hash: wire.Hash{}, SaplingTreeSize: &priorSize}

	s := newScannerForTest()
	_, scanErr := s.ScanBlock(block, nil, nil, prior)
	if scanErr == nil {
		t.Fatal("expected a scan error")
	}
	mismatch, ok := scanErr.(*TreeSizeMismatchError)
	if !ok {
		t.Fatalf("expected *TreeSizeMismatchError, got %T", scanErr)
	}
	if mismatch.Given != 100 || mismatch.Computed != 2 {
		t.Errorf("expected given=100 computed=2, got given=%d computed=%d", mismatch.Given, mismatch.Computed)
	}
	if !IsContinuityError(scanErr) {
		t.Error("expected TreeSizeMismatchError to be a continuity error")
	}
}

// S6 — TreeSizeInvalid from underflowing declared metadata.
func TestScanBlock_TreeSizeInvalid(t *testing.T) {
	block := &CompactBlock{
		Height:   1,
		Hash:     randomHash(),
		PrevHash: wire.Hash{},
		Vtx: []CompactTx{
			{Hash: randomHash(), Index: 0, Outputs: []CompactOutput{randomOutput(), randomOutput(), randomOutput()}},
		},
		ChainMetadata: &ChainMetadata{SaplingCommitmentTreeSize: 1},
	}

	s := newScannerForTest()
	_, scanErr := s.ScanBlock(block, nil, nil, nil)
	if scanErr == nil {
		t.Fatal("expected a scan error")
	}
	if _, ok := scanErr.(*TreeSizeInvalidError); !ok {
		t.Fatalf("expected *TreeSizeInvalidError, got %T", scanErr)
	}
	if IsContinuityError(scanErr) {
		t.Error("expected TreeSizeInvalidError to not be a continuity error")
	}
}

// Property 5: scanning inline must be structurally equal to scanning via a
// flushed batch runner.
func TestScanBlock_InlineBatchEquivalence(t *testing.T) {
	key := testKeyEntry(1, 0x05, 0x06)
	keys := []KeyEntry{key}

	ours := sealCompactOutput(key.Key.(FullViewingKey).ExternalIVK, randomHash200(), 9, [16]byte{})
	notOurs := randomOutput()

	block := &CompactBlock{
		Height:   1,
		Hash:     randomHash(),
		PrevHash: wire.Hash{},
		Vtx: []CompactTx{
			{Hash: randomHash(), Index: 0, Outputs: []CompactOutput{notOurs, ours}},
		},
	}

	priorSize := uint32(0)
	prior := &BlockMetadata{Height: 0, Hash: wire.Hash{}, SaplingTreeSize: &priorSize}

	inlineScanner := newScannerForTest()
	inlineResult, scanErr := inlineScanner.ScanBlock(block, keys, nil, prior)
	if scanErr != nil {
		t.Fatalf("inline scan failed: %v", scanErr)
	}

	runner := NewWorkerPoolRunner(ChaChaPolyDecryptor{}, 2, 8)
	defer runner.Close()
	batchScanner := NewScanner(NeverActive{}, DefaultConfig(), WithBatchRunner(runner))
	batchScanner.AddBlockToRunner(block, keys)
	runner.Flush()

	batchResult, scanErr := batchScanner.ScanBlock(block, keys, nil, prior)
	if scanErr != nil {
		t.Fatalf("batch scan failed: %v", scanErr)
	}

	if !reflect.DeepEqual(inlineResult, batchResult) {
		t.Errorf("inline and batch results differ:\ninline: %+v\nbatch:  %+v", inlineResult, batchResult)
	}
}

// Property 6: unlinked nullifiers never appear in the tracked set.
func TestScanBlock_UnlinkedNullifiersNotTracked(t *testing.T) {
	tracked := []TrackedNullifier{{Account: 1, Nullifier: randomNullifier()}}
	spendNf := randomNullifier()

	block := &CompactBlock{
		Height:   1,
		Hash:     randomHash(),
		PrevHash: wire.Hash{},
		Vtx: []CompactTx{
			{Hash: randomHash(), Index: 0, Spends: []CompactSpend{{Nf: spendNf}}, Outputs: []CompactOutput{randomOutput()}},
		},
	}
	priorSize := uint32(0)
	prior := &BlockMetadata{Height: 0, Hash: wire.Hash{}, SaplingTreeSize: &priorSize}

	s := newScannerForTest()
	result, scanErr := s.ScanBlock(block, nil, tracked, prior)
	if scanErr != nil {
		t.Fatalf("unexpected scan error: %v", scanErr)
	}

	for _, entry := range result.Sapling.NullifierMap {
		for _, unlinked := range entry.Unlinked {
			for _, tr := range tracked {
				if unlinked == tr.Nullifier {
					t.Errorf("unlinked nullifier %x unexpectedly matches tracked set", unlinked)
				}
			}
		}
	}
}

// randomHash200 is a small helper returning a random 32-byte array usable as
// a commitment; named distinctly from randomHash (wire.Hash) purely so test
// call sites read clearly about which byte array they're building.
func randomHash200() [32]byte {
	h := randomHash()
	var out [32]byte
	copy(out[:], h[:])
	return out
}

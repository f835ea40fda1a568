package scan

import "testing"

func TestClassifyRetention_LastOutputOfBlockIsCheckpoint(t *testing.T) {
	r := classifyRetention(42, 1, 2, 0, 1, false)
	if r.Kind != CheckpointKind || r.CheckpointID != 42 || r.IsMarked {
		t.Errorf("unexpected retention: %+v", r)
	}
}

func TestClassifyRetention_LastOutputMarkedWhenDecrypted(t *testing.T) {
	r := classifyRetention(42, 0, 1, 2, 3, true)
	if r.Kind != CheckpointKind || !r.IsMarked {
		t.Errorf("expected marked checkpoint, got %+v", r)
	}
}

func TestClassifyRetention_MiddleDecryptedIsMarked(t *testing.T) {
	r := classifyRetention(42, 0, 3, 0, 2, true)
	if r.Kind != Marked {
		t.Errorf("expected Marked, got %+v", r)
	}
}

func TestClassifyRetention_MiddleUndecryptedIsEphemeral(t *testing.T) {
	r := classifyRetention(42, 0, 3, 0, 2, false)
	if r.Kind != Ephemeral {
		t.Errorf("expected Ephemeral, got %+v", r)
	}
}

func TestClassifyRetention_LastOutputOfTxButNotBlockIsNotCheckpoint(t *testing.T) {
	// Last output of tx 0 out of 2 total txs: not the block's last tx, so
	// even though it's the last output of its own tx it must not be a
	// checkpoint.
	r := classifyRetention(42, 0, 1, 0, 2, false)
	if r.Kind == CheckpointKind {
		t.Errorf("did not expect a checkpoint here, got %+v", r)
	}
}

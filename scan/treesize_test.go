package scan

import "testing"

func TestResolveStartTreeSize_PriorWins(t *testing.T) {
	prior := uint32(42)
	size, err := resolveStartTreeSize(Sapling, 100, &prior, nil, 5, NeverActive{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if size != 42 {
		t.Errorf("expected 42, got %d", size)
	}
}

func TestResolveStartTreeSize_ChainMetadataReversesCounter(t *testing.T) {
	declared := uint32(10)
	size, err := resolveStartTreeSize(Sapling, 100, nil, &declared, 4, NeverActive{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if size != 6 {
		t.Errorf("expected 6, got %d", size)
	}
}

func TestResolveStartTreeSize_ChainMetadataUnderflow(t *testing.T) {
	declared := uint32(1)
	_, err := resolveStartTreeSize(Sapling, 100, nil, &declared, 3, NeverActive{})
	if _, ok := err.(*TreeSizeInvalidError); !ok {
		t.Fatalf("expected TreeSizeInvalidError, got %T (%v)", err, err)
	}
}

func TestResolveStartTreeSize_BelowActivationIsZero(t *testing.T) {
	size, err := resolveStartTreeSize(Sapling, 50, nil, nil, 0, fixedActivation{sapling: 100, ok: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if size != 0 {
		t.Errorf("expected 0 below activation, got %d", size)
	}
}

func TestResolveStartTreeSize_NoActivationConfiguredIsZero(t *testing.T) {
	size, err := resolveStartTreeSize(Sapling, 50, nil, nil, 0, NeverActive{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if size != 0 {
		t.Errorf("expected 0 with no activation configured, got %d", size)
	}
}

func TestResolveStartTreeSize_PostActivationUnknown(t *testing.T) {
	_, err := resolveStartTreeSize(Sapling, 150, nil, nil, 0, fixedActivation{sapling: 100, ok: true})
	if _, ok := err.(*TreeSizeUnknownError); !ok {
		t.Fatalf("expected TreeSizeUnknownError, got %T (%v)", err, err)
	}
}

func TestAuditFinalTreeSize(t *testing.T) {
	if err := auditFinalTreeSize(Sapling, 10, 5, 5); err != nil {
		t.Fatalf("expected no error on match, got %v", err)
	}
	err := auditFinalTreeSize(Sapling, 10, 5, 6)
	mismatch, ok := err.(*TreeSizeMismatchError)
	if !ok {
		t.Fatalf("expected TreeSizeMismatchError, got %T", err)
	}
	if mismatch.Given != 5 || mismatch.Computed != 6 {
		t.Errorf("unexpected fields: %+v", mismatch)
	}
}

type fixedActivation struct {
	sapling uint64
	orchard uint64
	ok      bool
}

func (f fixedActivation) SaplingActivation() (uint64, bool) { return f.sapling, f.ok }
func (f fixedActivation) OrchardActivation() (uint64, bool) { return f.orchard, f.ok }

package scan

import (
	"reflect"
	"testing"
)

func TestEncodeDecodeCompactBlock_RoundTrip(t *testing.T) {
	block := &CompactBlock{
		Height:   12345,
		Hash:     randomHash(),
		PrevHash: randomHash(),
		Time:     1700000000,
		Vtx: []CompactTx{
			{
				Hash:  randomHash(),
				Index: 0,
				Spends: []CompactSpend{
					{Nf: randomNullifier()},
				},
				Outputs: []CompactOutput{
					randomOutput(),
					randomOutput(),
				},
			},
			{
				Hash:    randomHash(),
				Index:   1,
				Outputs: []CompactOutput{randomOutput()},
			},
		},
		ChainMetadata: &ChainMetadata{
			SaplingCommitmentTreeSize: 7,
			OrchardCommitmentTreeSize: 0,
		},
	}

	encoded := EncodeCompactBlock(block)
	decoded, err := DecodeCompactBlock(encoded)
	if err != nil {
		t.Fatalf("unexpected decode error: %v", err)
	}

	if !reflect.DeepEqual(block, decoded) {
		t.Fatalf("round trip mismatch:\nwant: %+v\ngot:  %+v", block, decoded)
	}
}

func TestDecodeCompactBlock_NoChainMetadata(t *testing.T) {
	block := &CompactBlock{
		Height: 1,
		Hash:   randomHash(),
	}
	encoded := EncodeCompactBlock(block)
	decoded, err := DecodeCompactBlock(encoded)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if decoded.ChainMetadata != nil {
		t.Errorf("expected nil chain metadata, got %+v", decoded.ChainMetadata)
	}
}

func TestDecodeCompactBlock_TruncatedVarint(t *testing.T) {
	_, err := DecodeCompactBlock([]byte{0x08, 0x80})
	if err != ErrMalformedWire {
		t.Fatalf("expected ErrMalformedWire, got %v", err)
	}
}

func TestDecodeCompactBlock_TruncatedLengthDelimited(t *testing.T) {
	// Field 1 (hash), wire type 2, length 32, but only 2 bytes follow.
	data := []byte{0x0A, 0x20, 0x01, 0x02}
	_, err := DecodeCompactBlock(data)
	if err != ErrMalformedWire {
		t.Fatalf("expected ErrMalformedWire, got %v", err)
	}
}

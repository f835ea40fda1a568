package scan

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// ErrMalformedWire is returned by DecodeCompactBlock when the input bytes do
// not parse as a well-formed protobuf message at all (truncated varint,
// truncated length-delimited field, or an unsupported wire type). Fixed-size
// fields inside spends, outputs and actions that parse but have the wrong
// length (a 31-byte "32-byte" cmu, say) are a "cannot happen" condition per
// spec.md §7 and panic instead, since they can only originate from a decoder
// bug upstream of an already-validated block. Block and transaction hashes
// are copied as given, with no length check.
var ErrMalformedWire = errors.New("scan: malformed compact block wire data")

// DecodeCompactBlock parses the protobuf wire encoding documented in
// scan/scanpb/compact.proto (and spec.md §6) into a *CompactBlock. This is a
// minimal hand-written decoder rather than protoc-generated bindings: no
// code generator runs in this environment, and the scanner only ever needs
// to read this one message family, not provide general protobuf
// interoperability.
func DecodeCompactBlock(data []byte) (*CompactBlock, error) {
	block := &CompactBlock{}

	err := forEachField(data, func(fieldNum int, wireType int, raw []byte) error {
		switch fieldNum {
		case 1: // hash
			copy(block.Hash[:], raw)
		case 2: // prev_hash
			copy(block.PrevHash[:], raw)
		case 3: // height (wire type must be varint; raw holds decoded value encoded back as 8 bytes)
			block.Height = binary.LittleEndian.Uint64(raw)
		case 4: // time
			block.Time = uint32(binary.LittleEndian.Uint64(raw))
		case 5: // vtx (repeated, length-delimited)
			tx, err := decodeCompactTx(raw)
			if err != nil {
				return err
			}
			block.Vtx = append(block.Vtx, *tx)
		case 6: // chain_metadata
			cm, err := decodeChainMetadata(raw)
			if err != nil {
				return err
			}
			block.ChainMetadata = cm
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return block, nil
}

func decodeChainMetadata(data []byte) (*ChainMetadata, error) {
	cm := &ChainMetadata{}
	err := forEachField(data, func(fieldNum int, wireType int, raw []byte) error {
		switch fieldNum {
		case 1:
			cm.SaplingCommitmentTreeSize = uint32(binary.LittleEndian.Uint64(raw))
		case 2:
			cm.OrchardCommitmentTreeSize = uint32(binary.LittleEndian.Uint64(raw))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return cm, nil
}

func decodeCompactTx(data []byte) (*CompactTx, error) {
	tx := &CompactTx{}
	err := forEachField(data, func(fieldNum int, wireType int, raw []byte) error {
		switch fieldNum {
		case 1:
			copy(tx.Hash[:], raw)
		case 2:
			tx.Index = binary.LittleEndian.Uint64(raw)
		case 3:
			spend := CompactSpend{}
			if err := decodeBytesField(raw, 1, spend.Nf[:]); err != nil {
				return err
			}
			tx.Spends = append(tx.Spends, spend)
		case 4:
			output := CompactOutput{}
			if err := decodeBytesField(raw, 1, output.Cmu[:]); err != nil {
				return err
			}
			if err := decodeBytesField(raw, 2, output.EphemeralKey[:]); err != nil {
				return err
			}
			if err := decodeBytesField(raw, 3, output.Ciphertext[:]); err != nil {
				return err
			}
			tx.Outputs = append(tx.Outputs, output)
		case 5:
			action := CompactAction{}
			if err := decodeBytesField(raw, 1, action.Nullifier[:]); err != nil {
				return err
			}
			if err := decodeBytesField(raw, 2, action.Cmx[:]); err != nil {
				return err
			}
			if err := decodeBytesField(raw, 3, action.EphemeralKey[:]); err != nil {
				return err
			}
			if err := decodeBytesField(raw, 4, action.Ciphertext[:]); err != nil {
				return err
			}
			tx.Actions = append(tx.Actions, action)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return tx, nil
}

// decodeBytesField scans a nested message's bytes for one specific
// length-delimited field number and copies its content into dst, panicking
// if the lengths don't line up — a malformed output from an
// already-validated block decoder is a programmer error, not a recoverable
// ScanError, per spec.md §7.
func decodeBytesField(data []byte, wantField int, dst []byte) error {
	found := false
	err := forEachField(data, func(fieldNum int, wireType int, raw []byte) error {
		if fieldNum == wantField {
			if len(raw) != len(dst) {
				panic(fmt.Sprintf("scan: field %d has length %d, expected %d", wantField, len(raw), len(dst)))
			}
			copy(dst, raw)
			found = true
		}
		return nil
	})
	if err != nil {
		return err
	}
	if !found {
		// A zero-valued field is legal in proto3 (it's simply omitted on
		// the wire); leave dst as its zero value.
		return nil
	}
	return nil
}

// forEachField walks a protobuf wire-format message, invoking fn once per
// field with the field number, wire type, and the field's raw payload.
// Varint payloads are normalized to little-endian 8-byte slices so callers
// can treat them uniformly with binary.LittleEndian; length-delimited
// payloads are passed through unchanged.
func forEachField(data []byte, fn func(fieldNum, wireType int, raw []byte) error) error {
	i := 0
	for i < len(data) {
		tag, n, err := readVarint(data[i:])
		if err != nil {
			return err
		}
		i += n

		fieldNum := int(tag >> 3)
		wireType := int(tag & 0x7)

		switch wireType {
		case 0: // varint
			val, n, err := readVarint(data[i:])
			if err != nil {
				return err
			}
			i += n
			var buf [8]byte
			binary.LittleEndian.PutUint64(buf[:], val)
			if err := fn(fieldNum, wireType, buf[:]); err != nil {
				return err
			}
		case 2: // length-delimited
			length, n, err := readVarint(data[i:])
			if err != nil {
				return err
			}
			i += n
			if uint64(i)+length > uint64(len(data)) {
				return ErrMalformedWire
			}
			raw := data[i : uint64(i)+length]
			i += int(length)
			if err := fn(fieldNum, wireType, raw); err != nil {
				return err
			}
		default:
			return ErrMalformedWire
		}
	}
	return nil
}

func readVarint(data []byte) (uint64, int, error) {
	var result uint64
	var shift uint
	for i := 0; i < len(data); i++ {
		b := data[i]
		result |= uint64(b&0x7F) << shift
		if b&0x80 == 0 {
			return result, i + 1, nil
		}
		shift += 7
		if shift >= 64 {
			return 0, 0, ErrMalformedWire
		}
	}
	return 0, 0, ErrMalformedWire
}

// EncodeCompactBlock is the inverse of DecodeCompactBlock, used by tests to
// build synthetic wire bytes without a real indexer. Production callers
// receive blocks already decoded by the network layer (out of scope here);
// this is exercised only from scan/decode_test.go.
func EncodeCompactBlock(block *CompactBlock) []byte {
	var buf []byte
	buf = appendBytesField(buf, 1, block.Hash[:])
	buf = appendBytesField(buf, 2, block.PrevHash[:])
	buf = appendVarintField(buf, 3, block.Height)
	buf = appendVarintField(buf, 4, uint64(block.Time))
	for _, tx := range block.Vtx {
		buf = appendBytesField(buf, 5, encodeCompactTx(tx))
	}
	if block.ChainMetadata != nil {
		buf = appendBytesField(buf, 6, encodeChainMetadata(*block.ChainMetadata))
	}
	return buf
}

func encodeChainMetadata(cm ChainMetadata) []byte {
	var buf []byte
	buf = appendVarintField(buf, 1, uint64(cm.SaplingCommitmentTreeSize))
	buf = appendVarintField(buf, 2, uint64(cm.OrchardCommitmentTreeSize))
	return buf
}

func encodeCompactTx(tx CompactTx) []byte {
	var buf []byte
	buf = appendBytesField(buf, 1, tx.Hash[:])
	buf = appendVarintField(buf, 2, tx.Index)
	for _, spend := range tx.Spends {
		var s []byte
		s = appendBytesField(s, 1, spend.Nf[:])
		buf = appendBytesField(buf, 3, s)
	}
	for _, output := range tx.Outputs {
		var o []byte
		o = appendBytesField(o, 1, output.Cmu[:])
		o = appendBytesField(o, 2, output.EphemeralKey[:])
		o = appendBytesField(o, 3, output.Ciphertext[:])
		buf = appendBytesField(buf, 4, o)
	}
	for _, action := range tx.Actions {
		var a []byte
		a = appendBytesField(a, 1, action.Nullifier[:])
		a = appendBytesField(a, 2, action.Cmx[:])
		a = appendBytesField(a, 3, action.EphemeralKey[:])
		a = appendBytesField(a, 4, action.Ciphertext[:])
		buf = appendBytesField(buf, 5, a)
	}
	return buf
}

func appendVarint(buf []byte, v uint64) []byte {
	for v >= 0x80 {
		buf = append(buf, byte(v)|0x80)
		v >>= 7
	}
	return append(buf, byte(v))
}

func appendVarintField(buf []byte, fieldNum int, v uint64) []byte {
	buf = appendVarint(buf, uint64(fieldNum<<3|0))
	return appendVarint(buf, v)
}

func appendBytesField(buf []byte, fieldNum int, data []byte) []byte {
	buf = appendVarint(buf, uint64(fieldNum<<3|2))
	buf = appendVarint(buf, uint64(len(data)))
	return append(buf, data...)
}

package scan

import (
	"crypto/cipher"
	"crypto/sha256"
	"io"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"
)

// DecryptedOutput is what a successful trial decryption yields: enough to
// reconstruct a WalletSaplingOutput once the caller knows which account and
// scope the IVK belonged to.
type DecryptedOutput struct {
	Note   Note
	IvkTag KeyTag
}

// NoteDecryptor is the opaque "batch trial decryption" collaborator named in
// spec.md §6. It must be deterministic, and must take the same amount of
// time whether or not a given (ivk, output) pair decrypts — the real
// note-encryption scheme achieves this by always running the full AEAD open
// and only checking the result afterward, which is exactly what
// ChaChaPolyDecryptor below does.
type NoteDecryptor interface {
	// TryDecrypt attempts every (ivk, output) pair and returns, for each
	// output index, the first IVK that successfully opens it (nil if none
	// did). The real Sapling/Orchard note-encryption domain construction is
	// out of scope; this package only needs *some* AEAD with the right
	// shape to exercise the rest of the scanner end to end.
	TryDecrypt(ivks []PreparedIVK, outputs []CompactOutput) []*DecryptedOutput
}

// ChaChaPolyDecryptor implements NoteDecryptor using
// ChaCha20-Poly1305 as a stand-in AEAD for the real note-encryption scheme.
// Each output's 52-byte ciphertext is treated as a 12-byte nonce prefix
// followed by a 40-byte sealed box (24 bytes of plaintext note material +
// 16-byte Poly1305 tag). PreparedIVK.Key is used directly as the AEAD key
// (DeriveOutputKey produces such keys via HKDF); TryDecrypt builds one AEAD
// per IVK per call, not one per output, so the cost of trial decryption is
// dominated by the Open calls the way the real batch primitive is.
type ChaChaPolyDecryptor struct{}

const (
	compactNonceSize     = chacha20poly1305.NonceSize // 12
	compactPlaintextSize = 24
)

// DeriveOutputKey expands a raw 32-byte IVK into the AEAD key used for
// compact trial decryption. Exported so callers constructing PreparedIVK
// values (e.g. from an HD wallet's derived key material) can produce
// consistent keys without duplicating the HKDF parameters here.
func DeriveOutputKey(ivk [32]byte) ([32]byte, error) {
	var out [32]byte
	kdf := hkdf.New(sha256.New, ivk[:], nil, []byte("obsidian-core/scan/compact-note"))
	if _, err := io.ReadFull(kdf, out[:]); err != nil {
		return out, err
	}
	return out, nil
}

func (ChaChaPolyDecryptor) TryDecrypt(ivks []PreparedIVK, outputs []CompactOutput) []*DecryptedOutput {
	aeads := make([]cipher.AEAD, len(ivks))
	for i, ivk := range ivks {
		aead, err := chacha20poly1305.New(ivk.Key[:])
		if err != nil {
			// A key that's the wrong length is a programmer error: every
			// PreparedIVK.Key is fixed at 32 bytes by construction.
			panic("scan: invalid prepared IVK length: " + err.Error())
		}
		aeads[i] = aead
	}

	results := make([]*DecryptedOutput, len(outputs))
	for outIdx, output := range outputs {
		nonce := output.Ciphertext[:compactNonceSize]
		sealed := output.Ciphertext[compactNonceSize:]

		// Always attempt every IVK against every output, even after a
		// match, so that the time taken does not reveal which IVK (if any)
		// succeeded first.
		var matched *DecryptedOutput
		for i, aead := range aeads {
			plaintext, err := aead.Open(nil, nonce, sealed, nil)
			if err == nil && matched == nil {
				note := decodeCompactNote(plaintext, output.Cmu)
				matched = &DecryptedOutput{Note: note, IvkTag: ivks[i].Tag}
			}
		}
		results[outIdx] = matched
	}
	return results
}

// decodeCompactNote reconstructs the minimal Note fields this package cares
// about from the recovered compact plaintext. The real wire layout (rseed
// selection, note version, memo handling) is out of scope per spec.md's
// note-encryption non-goal.
func decodeCompactNote(plaintext []byte, cmu [32]byte) Note {
	var n Note
	if len(plaintext) < compactPlaintextSize {
		return n
	}
	for i := 0; i < 8; i++ {
		n.Value |= uint64(plaintext[i]) << (8 * i)
	}
	copy(n.Rseed[:], plaintext[8:24])
	n.Recipient = cmu
	return n
}

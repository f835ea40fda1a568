package scan

import (
	"crypto/rand"

	"golang.org/x/crypto/chacha20poly1305"

	"obsidian-core/wire"
)

// sealCompactOutput builds a CompactOutput whose ciphertext decrypts
// successfully under aeadKey via ChaChaPolyDecryptor, encoding value and
// rseed the way decodeCompactNote expects to read them back.
func sealCompactOutput(aeadKey [32]byte, cmu [32]byte, value uint64, rseed [16]byte) CompactOutput {
	aead, err := chacha20poly1305.New(aeadKey[:])
	if err != nil {
		panic(err)
	}

	plaintext := make([]byte, compactPlaintextSize)
	for i := 0; i < 8; i++ {
		plaintext[i] = byte(value >> (8 * i))
	}
	copy(plaintext[8:24], rseed[:])

	nonce := make([]byte, compactNonceSize)
	if _, err := rand.Read(nonce); err != nil {
		panic(err)
	}

	sealed := aead.Seal(nil, nonce, plaintext, nil)

	var ciphertext [52]byte
	copy(ciphertext[:compactNonceSize], nonce)
	copy(ciphertext[compactNonceSize:], sealed)

	return CompactOutput{
		Cmu:        cmu,
		Ciphertext: ciphertext,
	}
}

// randomOutput builds a CompactOutput that will not decrypt under any of
// the keys used in a test: it is sealed under an unrelated random key.
func randomOutput() CompactOutput {
	var key [32]byte
	if _, err := rand.Read(key[:]); err != nil {
		panic(err)
	}
	var cmu [32]byte
	if _, err := rand.Read(cmu[:]); err != nil {
		panic(err)
	}
	var rseed [16]byte
	rand.Read(rseed[:])
	return sealCompactOutput(key, cmu, 0, rseed)
}

func randomHash() wire.Hash {
	var h wire.Hash
	rand.Read(h[:])
	return h
}

func randomNullifier() [32]byte {
	var nf [32]byte
	rand.Read(nf[:])
	return nf
}

// preparedKey derives an AEAD-ready key from an arbitrary seed, the way a
// real wallet would derive a SaplingIvk into its prepared decryption key.
func preparedKey(seed byte) [32]byte {
	var raw [32]byte
	for i := range raw {
		raw[i] = seed
	}
	key, err := DeriveOutputKey(raw)
	if err != nil {
		panic(err)
	}
	return key
}

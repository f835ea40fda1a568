package scan

// PreparedIVK is an incoming viewing key in the form the NoteDecryptor
// expects: already expanded into whatever key material the AEAD trial
// decryption step needs. The scanner treats this as an opaque handle; the
// ScanningKey implementations build them in ToIVKs, and DeriveOutputKey (see
// decrypt.go) expands a raw IVK into a suitable Key.
type PreparedIVK struct {
	Tag KeyTag
	Key [32]byte
}

// KeyTag identifies which (account, scope) pair a prepared IVK belongs to,
// exactly the "ivk_tag" carried through the batch runner in §4.4 so that a
// successful decryption, however it was produced, can be attributed back to
// its owning account and scope.
type KeyTag struct {
	Account Account
	Scope   Scope
}

// ScanningKey abstracts over the two kinds of wallet key the scanner can be
// given: a full viewing key, which can derive nullifiers for its own notes,
// and an incoming-viewing-key-only key, which can detect ownership but not
// compute nullifiers. See spec.md §9's Design Notes.
type ScanningKey interface {
	// ToIVKs returns one (scope, prepared IVK) pair per scope this key
	// covers — two for a full viewing key (external/internal change), one
	// for an incoming-only key.
	ToIVKs(account Account) []ScopedIVK
	// DeriveNullifier computes the nullifier for a note at the given tree
	// position, if this kind of key supports it. Incoming-viewing-key-only
	// keys return NullifierResult{Known: false}.
	DeriveNullifier(scope Scope, note Note, position uint64) NullifierResult
}

// ScopedIVK pairs a scope with the prepared incoming viewing key for that
// scope.
type ScopedIVK struct {
	Scope Scope
	IVK   PreparedIVK
}

// FullViewingKey is a ScanningKey backed by both halves of a full viewing
// key: it yields one IVK per scope and derives nullifiers through DeriveNf
// (NullifierResult{Known: false} when DeriveNf is nil).
type FullViewingKey struct {
	ExternalIVK [32]byte
	InternalIVK [32]byte
	// nk derives nullifiers; kept opaque to the rest of the package beyond
	// this closure so alternate nullifier-derivation schemes can be swapped
	// in without touching the scan loop.
	DeriveNf func(scope Scope, note Note, position uint64) [32]byte
}

func (k FullViewingKey) ToIVKs(account Account) []ScopedIVK {
	return []ScopedIVK{
		{Scope: External, IVK: PreparedIVK{Tag: KeyTag{Account: account, Scope: External}, Key: k.ExternalIVK}},
		{Scope: Internal, IVK: PreparedIVK{Tag: KeyTag{Account: account, Scope: Internal}, Key: k.InternalIVK}},
	}
}

func (k FullViewingKey) DeriveNullifier(scope Scope, note Note, position uint64) NullifierResult {
	if k.DeriveNf == nil {
		return NullifierResult{Known: false}
	}
	return NullifierResult{Nullifier: k.DeriveNf(scope, note, position), Known: true}
}

// IncomingViewingKey is a ScanningKey backed by only an incoming viewing
// key: it can detect ownership but never derive a nullifier, so its outputs
// always carry NullifierResult{Known: false} per spec.md §9.
type IncomingViewingKey struct {
	IVK [32]byte
}

func (k IncomingViewingKey) ToIVKs(account Account) []ScopedIVK {
	return []ScopedIVK{
		{Scope: NoScope, IVK: PreparedIVK{Tag: KeyTag{Account: account, Scope: NoScope}, Key: k.IVK}},
	}
}

func (k IncomingViewingKey) DeriveNullifier(Scope, Note, uint64) NullifierResult {
	return NullifierResult{Known: false}
}

// Package scan implements the compact-block scanner for the Obsidian
// shielded-pool light client: trial decryption of shielded outputs against a
// set of wallet keys, nullifier matching against previously tracked spends,
// and the bookkeeping needed to grow a note-commitment Merkle tree with
// checkpointing and witness retention.
//
// The scanner is a pure, synchronous transformation. It does not persist
// anything, does not fetch blocks from the network, and does not perform any
// key derivation; those are the caller's responsibility. See ScanBlock.
package scan

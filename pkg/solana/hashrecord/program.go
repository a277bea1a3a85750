// Package hashrecord implements the hash record program, which anchors a
// document hash against a (hospital, report) identifier pair in an account
// whose address is derived from that pair.
package hashrecord

const (
	// HashSize is the size of a document hash, which is stored as 64 bytes of
	// text (ie. a hex encoded sha256 digest).
	HashSize = 64

	// HashAccountSize is the size of the data region of a hash account.
	HashAccountSize = HashSize
)

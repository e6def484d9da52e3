package graph

import (
	"crypto/sha256"
	"encoding/hex"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// SyntheticPrefix starts every identifier the converter derives for an
// element without a natural id.
const SyntheticPrefix = "syn_"

// IDFunc derives a synthetic node id from the parent node id, the element
// qname, the element's ordinal path and the per-document salt. It must be
// a pure function of its inputs.
type IDFunc func(parentID, qname, ordinal, salt string) string

// HashID is the default IDFunc: a truncated SHA-256 over the inputs.
func HashID(parentID, qname, ordinal, salt string) string {
	h := sha256.New()
	for _, part := range []string{parentID, qname, ordinal, salt} {
		h.Write([]byte(part))
		h.Write([]byte{0})
	}
	return SyntheticPrefix + hex.EncodeToString(h.Sum(nil)[:12])
}

// NewSalt returns a random per-document salt.
func NewSalt() (string, error) {
	return gonanoid.New()
}

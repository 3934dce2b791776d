// Package id generates short random identifiers for expectations and
// other engine-internal objects.
package id

import (
	"crypto/rand"
	"encoding/hex"
)

// Short returns a 16-character random hex ID.
func Short() string {
	b := make([]byte, 8)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}

// New returns a prefixed random ID, e.g. New("exp") -> "exp-1a2b3c4d5e6f7a8b".
func New(prefix string) string {
	if prefix == "" {
		return Short()
	}
	return prefix + "-" + Short()
}

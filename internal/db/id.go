package db

import (
	"crypto/rand"
	"encoding/hex"
)

// pairCodeAlphabet avoids easily-confused characters (no I/O/0/1).
// 32 characters, so indexing by a random byte mod 32 is unbiased.
const pairCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// NewEntityID returns a prefixed random identifier, e.g. "cpl_9f2c...".
// Prefixes in use: usr_ (users), cpl_ (couples), itv_ (intimacy events).
func NewEntityID(prefix string) string {
	buf := make([]byte, 10)
	_, _ = rand.Read(buf)
	return prefix + hex.EncodeToString(buf)
}

// NewPairCode returns a 6-character code a partner types to join a couple.
// Uniqueness is enforced by the couples table; callers retry on conflict.
func NewPairCode() string {
	buf := make([]byte, 6)
	_, _ = rand.Read(buf)
	code := make([]byte, 6)
	for i, b := range buf {
		code[i] = pairCodeAlphabet[int(b)%len(pairCodeAlphabet)]
	}
	return string(code)
}

package utils

import (
	"crypto/subtle"
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/blake2b"
)

// SignPayload returns a hex blake2b-256 tag of payload keyed with key.
func SignPayload(key []byte, payload string) (string, error) {
	h, err := blake2b.New256(key)
	if err != nil {
		return "", fmt.Errorf("failed to init payload hash: %w", err)
	}
	h.Write([]byte(payload))
	return hex.EncodeToString(h.Sum(nil)), nil
}

// VerifyPayload reports whether tag was produced by SignPayload for payload.
func VerifyPayload(key []byte, payload, tag string) bool {
	expected, err := SignPayload(key, payload)
	if err != nil {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(expected), []byte(tag)) == 1
}

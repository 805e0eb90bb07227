// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package draw

import (
	"crypto/md5"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"hash"
	"strings"
	"unicode/utf8"

	"github.com/zeebo/blake3"
	"golang.org/x/crypto/sha3"
)

// Algorithm names the digest function used for seeds and participants.
// Every party verifying a draw must use the same one.
type Algorithm string

const (
	MD5      Algorithm = "md5"
	SHA256   Algorithm = "sha256"
	SHA3_256 Algorithm = "sha3-256"
	BLAKE3   Algorithm = "blake3"
)

// DefaultAlgorithm matches the digests of results published before the
// algorithm became configurable.
const DefaultAlgorithm = MD5

var constructors = map[Algorithm]func() hash.Hash{
	MD5:      md5.New,
	SHA256:   sha256.New,
	SHA3_256: sha3.New256,
	BLAKE3:   func() hash.Hash { return blake3.New() },
}

// Algorithms lists the supported algorithms in a stable order.
func Algorithms() []Algorithm {
	return []Algorithm{MD5, SHA256, SHA3_256, BLAKE3}
}

// ParseAlgorithm resolves a case-insensitive algorithm name.
// An empty name selects DefaultAlgorithm.
func ParseAlgorithm(name string) (Algorithm, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return DefaultAlgorithm, nil
	}
	a := Algorithm(name)
	if _, ok := constructors[a]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownAlgorithm, name)
	}
	return a, nil
}

// Digest hashes the UTF-8 bytes of text and returns lowercase hex.
func (a Algorithm) Digest(text string) (string, error) {
	newHash, ok := constructors[a]
	if !ok {
		return "", fmt.Errorf("%w: %w: %q", ErrDigest, ErrUnknownAlgorithm, string(a))
	}
	if !utf8.ValidString(text) {
		return "", fmt.Errorf("%w: input is not valid UTF-8", ErrDigest)
	}

	h := newHash()
	h.Write([]byte(text))
	return hex.EncodeToString(h.Sum(nil)), nil
}

// DigestLen is the length in hex characters of a digest.
func (a Algorithm) DigestLen() int {
	newHash, ok := constructors[a]
	if !ok {
		return 0
	}
	return newHash().Size() * 2
}

func (a Algorithm) String() string { return string(a) }

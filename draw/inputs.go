// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package draw

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"strconv"
	"strings"
)

// ParseParticipants splits raw text on runs of whitespace, including
// newlines. Order and duplicates are kept.
func ParseParticipants(text string) []string {
	return strings.Fields(text)
}

// InputsHash fingerprints everything a draw result depends on. Each field is
// length-prefixed so that no two distinct inputs serialize the same way.
func InputsHash(a Algorithm, seed string, participants []string, count int) string {
	h := sha256.New()
	var prefix [8]byte

	writeField := func(s string) {
		binary.BigEndian.PutUint64(prefix[:], uint64(len(s)))
		h.Write(prefix[:])
		h.Write([]byte(s))
	}

	writeField(string(a))
	writeField(seed)
	writeField(strconv.Itoa(count))
	writeField(strconv.Itoa(len(participants)))
	for _, p := range participants {
		writeField(p)
	}

	return hex.EncodeToString(h.Sum(nil))
}

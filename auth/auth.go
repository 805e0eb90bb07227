// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package auth

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidAdminKey    = errors.New("invalid admin key")
	ErrInvalidToken       = errors.New("invalid token format")
	ErrInvalidCommitment  = errors.New("invalid seed commitment")
	ErrCommitmentMismatch = errors.New("seed does not match commitment")
)

// keyedHash is HMAC-SHA256 of msg under salt.
func keyedHash(salt, msg string) []byte {
	h := hmac.New(sha256.New, []byte(salt))
	h.Write([]byte(msg))
	return h.Sum(nil)
}

// GenerateID creates a random hex ID of the specified byte length
func GenerateID(byteLen int) (string, error) {
	b := make([]byte, byteLen)
	_, err := rand.Read(b)
	if err != nil {
		return "", fmt.Errorf("failed to generate random ID: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// GenerateAdminKey creates an HMAC-based admin key for a draw
// This is deterministic and verifiable
func GenerateAdminKey(drawID, salt string) string {
	return base64.RawURLEncoding.EncodeToString(keyedHash(salt, drawID))
}

// ValidateAdminKey checks if the provided admin key is valid for the draw
func ValidateAdminKey(drawID, adminKey, salt string) error {
	expected := GenerateAdminKey(drawID, salt)
	if !hmac.Equal([]byte(adminKey), []byte(expected)) {
		return ErrInvalidAdminKey
	}
	return nil
}

// GenerateEntryToken creates a random secure token for a self-service entry.
// The holder can look their entry up later.
func GenerateEntryToken() (string, error) {
	b := make([]byte, 24) // 24 bytes = 192 bits of entropy
	_, err := rand.Read(b)
	if err != nil {
		return "", fmt.Errorf("failed to generate entry token: %w", err)
	}
	return strings.TrimRight(base64.URLEncoding.EncodeToString(b), "="), nil
}

// ValidateEntryToken checks the shape of a token produced by GenerateEntryToken.
func ValidateEntryToken(token string) error {
	if len(token) != 32 {
		return ErrInvalidToken
	}
	if _, err := base64.RawURLEncoding.DecodeString(token); err != nil {
		return ErrInvalidToken
	}
	return nil
}

// GenerateShareSlug creates a short, deterministic URL slug for a draw
// Uses HMAC for determinism and base62 encoding for URL-friendliness
func GenerateShareSlug(drawID, salt string) string {
	return base62Encode(keyedHash(salt, drawID)[:8])
}

// base62Encode converts bytes to base62 (0-9, a-z, A-Z)
func base62Encode(data []byte) string {
	const base62Chars = "0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"

	var num uint64
	for i := 0; i < len(data) && i < 8; i++ {
		num = num<<8 | uint64(data[i])
	}

	if num == 0 {
		return "0"
	}

	result := make([]byte, 0, 11) // max length for uint64
	for num > 0 {
		result = append(result, base62Chars[num%62])
		num /= 62
	}

	for i, j := 0, len(result)-1; i < j; i, j = i+1, j-1 {
		result[i], result[j] = result[j], result[i]
	}

	return string(result)
}

// HashIP creates a one-way hash of an IP address for privacy
// Includes salt to prevent rainbow table attacks
func HashIP(ip, salt string) string {
	return hex.EncodeToString(keyedHash(salt, ip)[:8])
}

// NormalizeCommitment lowercases a hex seed commitment and checks it is
// digestLen hex characters long.
func NormalizeCommitment(commitment string, digestLen int) (string, error) {
	c := strings.ToLower(strings.TrimSpace(commitment))
	if len(c) != digestLen {
		return "", ErrInvalidCommitment
	}
	if _, err := hex.DecodeString(c); err != nil {
		return "", ErrInvalidCommitment
	}
	return c, nil
}

// VerifyCommitment reports whether seedDigest is the digest committed to at publish.
func VerifyCommitment(commitment, seedDigest string) error {
	if !hmac.Equal([]byte(strings.ToLower(commitment)), []byte(strings.ToLower(seedDigest))) {
		return ErrCommitmentMismatch
	}
	return nil
}

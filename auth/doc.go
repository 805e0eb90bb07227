// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package auth provides authentication and token generation utilities.

# Admin Keys

Admin keys are HMAC-SHA256 of the draw ID, so they never need to be stored:

	adminKey := auth.GenerateAdminKey(drawID, salt)
	err := auth.ValidateAdminKey(drawID, adminKey, salt)

# Entry Tokens

Self-service entrants receive a random 192-bit token, URL-safe base64
without padding (32 characters):

	token, err := auth.GenerateEntryToken()

# Share Slugs

Published draws get a short base62 slug derived from the draw ID:

	slug := auth.GenerateShareSlug(drawID, salt)

# IP Hashing

Entries record a salted, truncated HMAC of the client IP instead of the IP:

	hash := auth.HashIP(ipAddress, salt)
*/
package auth

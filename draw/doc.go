// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package draw implements the hash-distance lottery.

A draw ranks participants by how close their digest is to the digest of a
seed. The seed is chosen so nobody can know it in advance (tomorrow's top
headline, the next block hash, the last message in a group chat). Once it is
published, anyone holding the same seed and participant list can recompute
the exact same ranking.

# Digests

Every participant name and the seed are hashed with the same Algorithm and
hex encoded:

	d, err := draw.MD5.Digest("alice")

MD5 is the default so that results published with earlier versions of the
tool stay reproducible. It is not collision resistant; use SHA256, SHA3_256
or BLAKE3 when participants may try to grind names.

# Distance

Distance walks both digests position by position over the shorter length and
adds up the absolute difference of the character codes. It is not an edit
distance and a length mismatch only compares the common prefix.

# Drawing

	eng := draw.NewEngine(draw.WithAlgorithm(draw.SHA256))
	res, err := eng.Draw(ctx, "2024-01-01-lottery", []string{"Alice", "Bob", "Carol"}, 2)

res.Winners holds the first min(count, len(participants)) entries of
res.Ranking. The ranking is sorted ascending by distance and ties keep input
order. Precondition failures wrap ErrPrecondition.
*/
package draw

// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package draw

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func md5Hex(s string) string {
	sum := md5.Sum([]byte(s))
	return hex.EncodeToString(sum[:])
}

func TestDistance(t *testing.T) {
	testCases := []struct {
		name string
		a, b string
		want int
	}{
		{"identical", "abc", "abc", 0},
		{"one position", "abc", "abd", 1},
		{"every position", "a0", "f9", 14},
		{"swapped", "ab", "ba", 2},
		{"longer tail ignored", "abc", "abcxyz", 0},
		{"shorter prefix", "af", "a", 0},
		{"empty", "", "d41d8cd98f00b204e9800998ecf8427e", 0},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Distance(tc.a, tc.b))
		})
	}
}

func TestDistance_SymmetricAndZeroOnIdentity(t *testing.T) {
	names := []string{"alice", "bob", "carol", "dave", "2024-01-01-lottery"}
	for _, a := range names {
		da := md5Hex(a)
		assert.Zero(t, Distance(da, da), "distance of %s to itself", a)
		for _, b := range names {
			db := md5Hex(b)
			assert.Equal(t, Distance(da, db), Distance(db, da), "%s vs %s", a, b)
		}
	}
}

func TestDraw_MatchesReference(t *testing.T) {
	eng := NewEngine()

	res, err := eng.Draw(context.Background(), "2024-01-01-lottery", []string{"Alice", "Bob", "Carol"}, 2)
	require.NoError(t, err)

	// Digests and char-code distances as published by the web tool
	assert.Equal(t, "c74c32183f337e668b9a6bbb02926c03", res.SeedDigest)
	expected := []Entry{
		{Name: "Alice", Digest: "64489c85dc2fe0787b85cd87214b3810", Distance: 646, Position: 0},
		{Name: "Carol", Digest: "150c16d9d096e70af3596111d7402397", Distance: 780, Position: 2},
		{Name: "Bob", Digest: "2fc1c0beb992cd7096975cfebf9d5c3b", Distance: 787, Position: 1},
	}
	assert.Equal(t, expected, res.Ranking)
	assert.Equal(t, expected[:2], res.Winners)
	assert.Equal(t, []string{"Alice", "Carol"}, res.WinnerNames())
}

func TestDraw_Deterministic(t *testing.T) {
	eng := NewEngine()
	participants := strings.Fields("ann ben cid dee eve fay gus hal ivy jon kim lou")

	first, err := eng.Draw(context.Background(), "seed", participants, 5)
	require.NoError(t, err)
	second, err := eng.Draw(context.Background(), "seed", participants, 5)
	require.NoError(t, err)

	assert.Equal(t, first, second)

	other, err := eng.Draw(context.Background(), "seed2", participants, 5)
	require.NoError(t, err)
	assert.NotEqual(t, first.SeedDigest, other.SeedDigest)
}

func TestDraw_DuplicatesKeepInputOrder(t *testing.T) {
	res, err := NewEngine().Draw(context.Background(), "seed", []string{"Alice", "Alice", "Bob"}, 3)
	require.NoError(t, err)
	require.Len(t, res.Ranking, 3)

	var alices []Entry
	for _, e := range res.Ranking {
		if e.Name == "Alice" {
			alices = append(alices, e)
		}
	}
	require.Len(t, alices, 2)
	assert.Equal(t, alices[0].Digest, alices[1].Digest)
	assert.Equal(t, alices[0].Distance, alices[1].Distance)
	assert.Equal(t, 0, alices[0].Position)
	assert.Equal(t, 1, alices[1].Position)
}

func TestDraw_TiesAreStable(t *testing.T) {
	participants := []string{"x", "y", "x", "y", "x", "y"}
	res, err := NewEngine().Draw(context.Background(), "tie", participants, 1)
	require.NoError(t, err)

	last := map[string]int{"x": -1, "y": -1}
	for i, e := range res.Ranking {
		if i > 0 {
			assert.LessOrEqual(t, res.Ranking[i-1].Distance, e.Distance)
		}
		assert.Greater(t, e.Position, last[e.Name], "entries for %s out of input order", e.Name)
		last[e.Name] = e.Position
	}
}

func TestDraw_CountClamps(t *testing.T) {
	res, err := NewEngine().Draw(context.Background(), "seed", []string{"a", "b", "c"}, 10)
	require.NoError(t, err)
	assert.Len(t, res.Winners, 3)
	assert.Equal(t, res.Ranking, res.Winners)
	assert.Equal(t, 10, res.Count)
}

func TestDraw_Preconditions(t *testing.T) {
	eng := NewEngine(WithMaxParticipants(3))

	testCases := []struct {
		name         string
		seed         string
		participants []string
		count        int
		want         error
	}{
		{"empty seed", "", []string{"a"}, 1, ErrEmptySeed},
		{"blank seed", "  \n", []string{"a"}, 1, ErrEmptySeed},
		{"no participants", "s", nil, 1, ErrNoParticipants},
		{"empty participant", "s", []string{"a", ""}, 1, ErrEmptyParticipant},
		{"zero count", "s", []string{"a"}, 0, ErrInvalidCount},
		{"negative count", "s", []string{"a"}, -2, ErrInvalidCount},
		{"over ceiling", "s", []string{"a", "b", "c", "d"}, 1, ErrTooManyParticipants},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			res, err := eng.Draw(context.Background(), tc.seed, tc.participants, tc.count)
			assert.Nil(t, res)
			assert.ErrorIs(t, err, tc.want)
			assert.ErrorIs(t, err, ErrPrecondition)
		})
	}
}

func TestDraw_InvalidUTF8IsDigestError(t *testing.T) {
	_, err := NewEngine().Draw(context.Background(), "seed", []string{"ok", "\xff\xfe"}, 1)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDigest)
	assert.NotErrorIs(t, err, ErrPrecondition)
}

func TestDraw_SeedIsHashedVerbatim(t *testing.T) {
	res, err := NewEngine().Draw(context.Background(), " padded ", []string{"a"}, 1)
	require.NoError(t, err)
	assert.Equal(t, md5Hex(" padded "), res.SeedDigest)
}

func TestDraw_ParallelMatchesSequential(t *testing.T) {
	participants := make([]string, 5000)
	for i := range participants {
		participants[i] = fmt.Sprintf("user-%d", i%1700)
	}

	sequential := NewEngine(WithParallelThreshold(0))
	parallel := NewEngine(WithParallelThreshold(1), WithWorkers(7))

	for _, algo := range Algorithms() {
		t.Run(string(algo), func(t *testing.T) {
			want, err := NewEngine(WithAlgorithm(algo), WithParallelThreshold(0)).Draw(context.Background(), "seed", participants, 25)
			require.NoError(t, err)
			got, err := NewEngine(WithAlgorithm(algo), WithParallelThreshold(1), WithWorkers(7)).Draw(context.Background(), "seed", participants, 25)
			require.NoError(t, err)
			assert.Equal(t, want, got)
		})
	}

	want, err := sequential.Draw(context.Background(), "seed", participants, 3)
	require.NoError(t, err)
	got, err := parallel.Draw(context.Background(), "seed", participants, 3)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestDraw_ParallelHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	eng := NewEngine(WithParallelThreshold(1), WithWorkers(2))
	_, err := eng.Draw(ctx, "seed", []string{"a", "b", "c", "d"}, 1)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestResult_Window(t *testing.T) {
	participants := strings.Fields("a b c d e")
	res, err := NewEngine().Draw(context.Background(), "seed", participants, 1)
	require.NoError(t, err)

	assert.Len(t, res.Window(2), 2)
	assert.Len(t, res.Window(0), 5)
	assert.Len(t, res.Window(-1), 5)
	assert.Len(t, res.Window(100), 5)
	assert.Equal(t, res.Ranking[:2], res.Window(2))
}

func TestNewEngine_Defaults(t *testing.T) {
	eng := NewEngine()
	assert.Equal(t, MD5, eng.Algorithm())
	assert.Equal(t, DefaultDisplayCap, eng.DisplayCap())
	assert.Zero(t, eng.MaxParticipants())

	d, err := eng.ComputeDigest("abc")
	require.NoError(t, err)
	assert.Equal(t, "900150983cd24fb0d6963f7d28e17f72", d)
}

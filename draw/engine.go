// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package draw

import (
	"cmp"
	"context"
	"fmt"
	"runtime"
	"slices"
	"strings"

	"golang.org/x/sync/errgroup"
)

const (
	// DefaultDisplayCap limits how much of a ranking is rendered. The
	// ranking itself is never truncated.
	DefaultDisplayCap = 1000

	// DefaultParallelThreshold is the participant count from which digests
	// are computed concurrently.
	DefaultParallelThreshold = 4096
)

// Entry is one participant in a ranking.
type Entry struct {
	Name     string `json:"name"`
	Digest   string `json:"digest"`
	Distance int    `json:"distance"`
	// Position is the zero-based index of the participant in the input list.
	Position int `json:"position"`
}

// Result is the outcome of a draw.
type Result struct {
	Algorithm  Algorithm `json:"algorithm"`
	Seed       string    `json:"seed"`
	SeedDigest string    `json:"seed_digest"`
	Count      int       `json:"count"`
	Winners    []Entry   `json:"winners"`
	Ranking    []Entry   `json:"ranking"`
	InputsHash string    `json:"inputs_hash"`
}

// Window returns at most limit entries from the top of the ranking.
// A limit of zero or less returns the whole ranking.
func (r *Result) Window(limit int) []Entry {
	if limit <= 0 || limit >= len(r.Ranking) {
		return r.Ranking
	}
	return r.Ranking[:limit]
}

// WinnerNames returns the names of the winners in rank order.
func (r *Result) WinnerNames() []string {
	names := make([]string, len(r.Winners))
	for i, e := range r.Winners {
		names[i] = e.Name
	}
	return names
}

// Engine computes draws. It holds configuration only and is safe for
// concurrent use.
type Engine struct {
	algorithm         Algorithm
	displayCap        int
	maxParticipants   int
	parallelThreshold int
	workers           int
}

type Option func(*Engine)

func WithAlgorithm(a Algorithm) Option {
	return func(e *Engine) { e.algorithm = a }
}

// WithDisplayCap sets the number of ranked entries callers should render.
func WithDisplayCap(n int) Option {
	return func(e *Engine) { e.displayCap = n }
}

// WithMaxParticipants rejects draws over n participants. Zero disables the check.
func WithMaxParticipants(n int) Option {
	return func(e *Engine) { e.maxParticipants = n }
}

func WithParallelThreshold(n int) Option {
	return func(e *Engine) { e.parallelThreshold = n }
}

func WithWorkers(n int) Option {
	return func(e *Engine) { e.workers = n }
}

func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		algorithm:         DefaultAlgorithm,
		displayCap:        DefaultDisplayCap,
		parallelThreshold: DefaultParallelThreshold,
		workers:           runtime.GOMAXPROCS(0),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.workers < 1 {
		e.workers = 1
	}
	return e
}

func (e *Engine) Algorithm() Algorithm { return e.algorithm }

func (e *Engine) DisplayCap() int { return e.displayCap }

func (e *Engine) MaxParticipants() int { return e.maxParticipants }

// ComputeDigest hashes text with the engine's algorithm.
func (e *Engine) ComputeDigest(text string) (string, error) {
	return e.algorithm.Digest(text)
}

// Distance sums the absolute character code differences of a and b over
// their common prefix. Digests are ASCII hex, so bytes are characters.
func Distance(a, b string) int {
	n := min(len(a), len(b))
	d := 0
	for i := 0; i < n; i++ {
		if a[i] == b[i] {
			continue
		}
		if a[i] > b[i] {
			d += int(a[i] - b[i])
		} else {
			d += int(b[i] - a[i])
		}
	}
	return d
}

// Validate checks the draw preconditions without hashing anything.
func (e *Engine) Validate(seed string, participants []string, count int) error {
	if strings.TrimSpace(seed) == "" {
		return ErrEmptySeed
	}
	if len(participants) == 0 {
		return ErrNoParticipants
	}
	if e.maxParticipants > 0 && len(participants) > e.maxParticipants {
		return fmt.Errorf("%w: %d exceeds the limit of %d", ErrTooManyParticipants, len(participants), e.maxParticipants)
	}
	for i, p := range participants {
		if p == "" {
			return fmt.Errorf("%w (position %d)", ErrEmptyParticipant, i)
		}
	}
	if count < 1 {
		return ErrInvalidCount
	}
	return nil
}

// Draw ranks participants by distance to the seed digest and returns the
// first count entries as winners. A count above the number of participants
// returns everyone. The context is only consulted while digests are
// computed in parallel.
func (e *Engine) Draw(ctx context.Context, seed string, participants []string, count int) (*Result, error) {
	if err := e.Validate(seed, participants, count); err != nil {
		return nil, err
	}

	seedDigest, err := e.algorithm.Digest(seed)
	if err != nil {
		return nil, fmt.Errorf("seed: %w", err)
	}

	ranking, err := e.rank(ctx, seedDigest, participants)
	if err != nil {
		return nil, err
	}

	return &Result{
		Algorithm:  e.algorithm,
		Seed:       seed,
		SeedDigest: seedDigest,
		Count:      count,
		Winners:    slices.Clone(ranking[:min(count, len(ranking))]),
		Ranking:    ranking,
		InputsHash: InputsHash(e.algorithm, seed, participants, count),
	}, nil
}

func (e *Engine) rank(ctx context.Context, seedDigest string, participants []string) ([]Entry, error) {
	entries := make([]Entry, len(participants))

	var err error
	if len(participants) >= e.parallelThreshold && e.parallelThreshold > 0 && e.workers > 1 {
		err = e.digestParallel(ctx, seedDigest, participants, entries)
	} else {
		err = e.digestRange(seedDigest, participants, entries, 0, len(participants))
	}
	if err != nil {
		return nil, err
	}

	slices.SortStableFunc(entries, func(a, b Entry) int {
		return cmp.Compare(a.Distance, b.Distance)
	})
	return entries, nil
}

// digestRange fills entries[lo:hi]. It never touches indices outside the range.
func (e *Engine) digestRange(seedDigest string, participants []string, entries []Entry, lo, hi int) error {
	for i := lo; i < hi; i++ {
		d, err := e.algorithm.Digest(participants[i])
		if err != nil {
			return fmt.Errorf("participant %d: %w", i, err)
		}
		entries[i] = Entry{
			Name:     participants[i],
			Digest:   d,
			Distance: Distance(seedDigest, d),
			Position: i,
		}
	}
	return nil
}

func (e *Engine) digestParallel(ctx context.Context, seedDigest string, participants []string, entries []Entry) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)

	chunk := (len(participants) + e.workers - 1) / e.workers
	for lo := 0; lo < len(participants); lo += chunk {
		hi := min(lo+chunk, len(participants))
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			return e.digestRange(seedDigest, participants, entries, lo, hi)
		})
	}
	return g.Wait()
}

// Package partition splits a collection into N balanced groups.
//
// Two strategies are offered:
//   - Balanced (default): Fisher-Yates shuffle, then contiguous chunks where
//     the first M mod N groups receive one extra member
//   - Stripe: deterministic round-robin in input order
//
// Both guarantee every item lands in exactly one group and group sizes
// differ by at most one. Randomness is injected by the caller so results are
// reproducible from a seed.
package partition

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"slices"
)

// Strategy names a partitioning strategy.
type Strategy string

const (
	// Balanced shuffles then chunks. This is the default.
	Balanced Strategy = "balanced"

	// Stripe assigns item i to group i mod N without shuffling.
	Stripe Strategy = "stripe"
)

// ErrInvalidGroupCount is returned unless 1 <= n <= len(items).
var ErrInvalidGroupCount = errors.New("group count must be between 1 and the number of items")

// ErrUnknownStrategy is returned for unrecognized strategy names.
var ErrUnknownStrategy = errors.New("unknown partition strategy")

// ParseStrategy maps a name to a Strategy. Empty means Balanced.
func ParseStrategy(name string) (Strategy, error) {
	switch Strategy(name) {
	case "", Balanced:
		return Balanced, nil
	case Stripe:
		return Stripe, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownStrategy, name)
	}
}

// NewRand returns a PCG-backed source seeded from seed.
func NewRand(seed int64) *rand.Rand {
	return rand.New(rand.NewPCG(uint64(seed), uint64(seed)^0x9e3779b97f4a7c15))
}

// Split partitions items with the given strategy. r is only used by Balanced
// and may be nil for Stripe.
func Split[T any](items []T, n int, strategy Strategy, r *rand.Rand) ([][]T, error) {
	switch strategy {
	case "", Balanced:
		return BalancedSplit(items, n, r)
	case Stripe:
		return StripeSplit(items, n)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownStrategy, strategy)
	}
}

// Shuffle returns a uniformly random permutation of items (Fisher-Yates).
// The input is not modified.
func Shuffle[T any](items []T, r *rand.Rand) []T {
	out := slices.Clone(items)
	for i := len(out) - 1; i > 0; i-- {
		j := r.IntN(i + 1)
		out[i], out[j] = out[j], out[i]
	}
	return out
}

// BalancedSplit shuffles items and deals them into n contiguous groups.
// With base = M/N and rem = M%N, groups 0..rem-1 hold base+1 items and the
// rest hold base.
func BalancedSplit[T any](items []T, n int, r *rand.Rand) ([][]T, error) {
	if n < 1 || n > len(items) {
		return nil, fmt.Errorf("%w: n=%d, items=%d", ErrInvalidGroupCount, n, len(items))
	}
	if r == nil {
		return nil, errors.New("balanced split requires a random source")
	}

	shuffled := Shuffle(items, r)
	base, rem := len(shuffled)/n, len(shuffled)%n

	groups := make([][]T, n)
	start := 0
	for g := range groups {
		size := base
		if g < rem {
			size++
		}
		groups[g] = shuffled[start : start+size : start+size]
		start += size
	}
	return groups, nil
}

// StripeSplit deals items round-robin into n groups in input order.
func StripeSplit[T any](items []T, n int) ([][]T, error) {
	if n < 1 || n > len(items) {
		return nil, fmt.Errorf("%w: n=%d, items=%d", ErrInvalidGroupCount, n, len(items))
	}

	groups := make([][]T, n)
	for i, item := range items {
		groups[i%n] = append(groups[i%n], item)
	}
	return groups, nil
}

// Sizes returns the size of each group.
func Sizes[T any](groups [][]T) []int {
	out := make([]int, len(groups))
	for i, g := range groups {
		out[i] = len(g)
	}
	return out
}

// IsBalanced reports whether group sizes differ by at most one.
func IsBalanced[T any](groups [][]T) bool {
	if len(groups) == 0 {
		return true
	}
	sizes := Sizes(groups)
	return slices.Max(sizes)-slices.Min(sizes) <= 1
}

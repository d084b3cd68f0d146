// Package shortcode generates the random codes behind recipe short links.
//
// A Generator draws codes uniformly from an alphabet and asks an ExistsFunc
// whether each candidate is already taken. The loop is bounded: once the
// retry ceiling is reached Generate returns ErrCodeSpaceExhausted.
//
// The probability that a single draw collides is existing/len(alphabet)^length,
// so retries grow quickly as the code space fills up. Pick the length with the
// expected number of recipes in mind.
//
// Generate does not reserve the code. Two concurrent callers can receive the
// same candidate, so the caller must persist it under a uniqueness constraint
// and retry the generate-and-save step on conflict.
package shortcode

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
)

const (
	// DefaultAlphabet contains ASCII letters and digits.
	DefaultAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"
	// DefaultLength is the code length used when none is configured.
	DefaultLength = 6
	// DefaultMaxAttempts is the retry ceiling used when none is configured.
	DefaultMaxAttempts = 10000
)

var (
	// ErrCodeSpaceExhausted is returned when no unused code was found within
	// the retry ceiling.
	ErrCodeSpaceExhausted = errors.New("short code space exhausted")
	// ErrInvalidConfig is returned by New for an unusable length or alphabet.
	ErrInvalidConfig = errors.New("invalid short code configuration")
)

// ExistsFunc reports whether a code is already assigned to a recipe.
type ExistsFunc func(ctx context.Context, code string) (bool, error)

// Generator produces random codes of a fixed length.
type Generator struct {
	length      int
	alphabet    []byte
	maxAttempts int
	intn        func(n int) (int, error)
	observe     func(attempts int, exhausted bool)
}

// Option customizes a Generator.
type Option func(*Generator)

// WithLength sets the code length.
func WithLength(n int) Option {
	return func(g *Generator) { g.length = n }
}

// WithAlphabet sets the candidate characters.
func WithAlphabet(alphabet string) Option {
	return func(g *Generator) { g.alphabet = []byte(alphabet) }
}

// WithMaxAttempts sets the retry ceiling.
func WithMaxAttempts(n int) Option {
	return func(g *Generator) { g.maxAttempts = n }
}

// WithObserver registers a callback invoked once per Generate call with the
// number of candidates drawn and whether the ceiling was hit.
func WithObserver(fn func(attempts int, exhausted bool)) Option {
	return func(g *Generator) { g.observe = fn }
}

// withSource replaces the random source. Used by tests.
func withSource(intn func(n int) (int, error)) Option {
	return func(g *Generator) { g.intn = intn }
}

// New creates a Generator. Defaults are DefaultLength, DefaultAlphabet and
// DefaultMaxAttempts.
func New(opts ...Option) (*Generator, error) {
	g := &Generator{
		length:      DefaultLength,
		alphabet:    []byte(DefaultAlphabet),
		maxAttempts: DefaultMaxAttempts,
		intn:        cryptoIntn,
	}
	for _, opt := range opts {
		opt(g)
	}

	if g.length <= 0 {
		return nil, fmt.Errorf("%w: length must be positive, got %d", ErrInvalidConfig, g.length)
	}
	if g.maxAttempts <= 0 {
		return nil, fmt.Errorf("%w: max attempts must be positive, got %d", ErrInvalidConfig, g.maxAttempts)
	}
	if len(g.alphabet) == 0 {
		return nil, fmt.Errorf("%w: alphabet is empty", ErrInvalidConfig)
	}
	seen := make(map[byte]bool, len(g.alphabet))
	for _, c := range g.alphabet {
		if seen[c] {
			return nil, fmt.Errorf("%w: duplicate character %q in alphabet", ErrInvalidConfig, c)
		}
		seen[c] = true
	}

	return g, nil
}

// Length returns the configured code length.
func (g *Generator) Length() int {
	return g.length
}

// Generate returns a code for which exists reports false.
func (g *Generator) Generate(ctx context.Context, exists ExistsFunc) (string, error) {
	for attempt := 1; attempt <= g.maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		candidate, err := g.draw()
		if err != nil {
			return "", err
		}

		taken, err := exists(ctx, candidate)
		if err != nil {
			return "", fmt.Errorf("failed to check short code: %w", err)
		}
		if !taken {
			g.report(attempt, false)
			return candidate, nil
		}
	}

	g.report(g.maxAttempts, true)
	return "", fmt.Errorf("%w after %d attempts", ErrCodeSpaceExhausted, g.maxAttempts)
}

func (g *Generator) draw() (string, error) {
	buf := make([]byte, g.length)
	for i := range buf {
		idx, err := g.intn(len(g.alphabet))
		if err != nil {
			return "", fmt.Errorf("failed to read random source: %w", err)
		}
		buf[i] = g.alphabet[idx]
	}
	return string(buf), nil
}

func (g *Generator) report(attempts int, exhausted bool) {
	if g.observe != nil {
		g.observe(attempts, exhausted)
	}
}

func cryptoIntn(n int) (int, error) {
	v, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		return 0, err
	}
	return int(v.Int64()), nil
}

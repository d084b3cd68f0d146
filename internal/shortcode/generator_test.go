package shortcode

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestNewValidatesConfig(t *testing.T) {
	tests := []struct {
		name string
		opts []Option
	}{
		{name: "zero length", opts: []Option{WithLength(0)}},
		{name: "negative length", opts: []Option{WithLength(-3)}},
		{name: "empty alphabet", opts: []Option{WithAlphabet("")}},
		{name: "duplicate characters", opts: []Option{WithAlphabet("abca")}},
		{name: "zero attempts", opts: []Option{WithMaxAttempts(0)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.opts...)
			if !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("expected ErrInvalidConfig, got %v", err)
			}
		})
	}
}

func TestGenerateLengthAndAlphabet(t *testing.T) {
	for _, length := range []int{4, 6, 10} {
		g, err := New(WithLength(length))
		if err != nil {
			t.Fatalf("New failed: %v", err)
		}
		if g.Length() != length {
			t.Fatalf("Length() = %d, want %d", g.Length(), length)
		}
		for i := 0; i < 200; i++ {
			code, err := g.Generate(context.Background(), neverTaken)
			if err != nil {
				t.Fatalf("Generate failed: %v", err)
			}
			if len(code) != length {
				t.Fatalf("code %q: expected length %d, got %d", code, length, len(code))
			}
			for _, c := range code {
				if !strings.ContainsRune(DefaultAlphabet, c) {
					t.Fatalf("code %q contains %q outside the alphabet", code, c)
				}
			}
		}
	}
}

func TestGenerateCustomAlphabet(t *testing.T) {
	g, err := New(WithLength(8), WithAlphabet("xy"))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	code, err := g.Generate(context.Background(), neverTaken)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if strings.Trim(code, "xy") != "" {
		t.Errorf("code %q uses characters outside %q", code, "xy")
	}
}

func TestGenerateSequentialCodesAreDistinct(t *testing.T) {
	g, err := New(WithLength(4))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	used := make(map[string]bool)
	exists := func(_ context.Context, code string) (bool, error) {
		return used[code], nil
	}

	for i := 0; i < 2000; i++ {
		code, err := g.Generate(context.Background(), exists)
		if err != nil {
			t.Fatalf("Generate failed at %d: %v", i, err)
		}
		if used[code] {
			t.Fatalf("duplicate code %q at iteration %d", code, i)
		}
		used[code] = true
	}
}

func TestGenerateRetriesOnCollision(t *testing.T) {
	// Source cycles through indexes 0,1,2,... so candidates are "aa", "bb", "cc".
	next := 0
	source := func(n int) (int, error) {
		v := (next / 2) % n
		next++
		return v, nil
	}

	var observed int
	g, err := New(
		WithLength(2),
		WithAlphabet("abc"),
		withSource(source),
		WithObserver(func(attempts int, exhausted bool) { observed = attempts }),
	)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	taken := map[string]bool{"aa": true, "bb": true}
	code, err := g.Generate(context.Background(), func(_ context.Context, c string) (bool, error) {
		return taken[c], nil
	})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if code != "cc" {
		t.Errorf("expected cc, got %q", code)
	}
	if observed != 3 {
		t.Errorf("expected 3 attempts, got %d", observed)
	}
}

func TestGenerateExhausted(t *testing.T) {
	var exhaustedReported bool
	g, err := New(
		WithLength(1),
		WithAlphabet("ab"),
		WithMaxAttempts(50),
		WithObserver(func(_ int, exhausted bool) { exhaustedReported = exhausted }),
	)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	calls := 0
	_, err = g.Generate(context.Background(), func(context.Context, string) (bool, error) {
		calls++
		return true, nil
	})
	if !errors.Is(err, ErrCodeSpaceExhausted) {
		t.Fatalf("expected ErrCodeSpaceExhausted, got %v", err)
	}
	if calls != 50 {
		t.Errorf("expected 50 oracle calls, got %d", calls)
	}
	if !exhaustedReported {
		t.Error("expected observer to report exhaustion")
	}
}

func TestGenerateOracleError(t *testing.T) {
	g, err := New()
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	boom := errors.New("database is locked")
	_, err = g.Generate(context.Background(), func(context.Context, string) (bool, error) {
		return false, boom
	})
	if !errors.Is(err, boom) {
		t.Errorf("expected wrapped oracle error, got %v", err)
	}
}

func TestGenerateCancelledContext(t *testing.T) {
	g, err := New()
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = g.Generate(ctx, neverTaken)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func neverTaken(context.Context, string) (bool, error) {
	return false, nil
}

// Package seqid allocates zero-padded sequential document codes such as
// CUST003 or QUO120.
package seqid

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/duamedical/medserve/internal/shared"
)

const (
	minDigits   = 3
	maxAttempts = 5
	lockTTL     = 5 * time.Second
)

// Next returns the code following last for prefix. last is the greatest
// existing code; when it is empty or does not match ^prefix(\d+)$ the
// sequence starts at prefix001.
func Next(prefix, last string) string {
	n, ok := Parse(prefix, last)
	if !ok {
		return Format(prefix, 1)
	}
	return Format(prefix, n+1)
}

// Parse extracts the numeric suffix of code for prefix, case-insensitively.
func Parse(prefix, code string) (uint64, bool) {
	if prefix == "" || code == "" {
		return 0, false
	}
	m := pattern(prefix).FindStringSubmatch(strings.TrimSpace(code))
	if m == nil {
		return 0, false
	}
	n, err := strconv.ParseUint(m[1], 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// Format renders prefix and n padded to at least three digits.
func Format(prefix string, n uint64) string {
	return fmt.Sprintf("%s%0*d", strings.ToUpper(prefix), minDigits, n)
}

// Pattern returns the anchored, case-insensitive SQL regex for prefix codes.
func Pattern(prefix string) string {
	return "^" + regexp.QuoteMeta(prefix) + "[0-9]+$"
}

func pattern(prefix string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)^` + regexp.QuoteMeta(prefix) + `(\d+)$`)
}

// Source reports the greatest existing code for a prefix.
type Source interface {
	LatestCode(ctx context.Context, prefix string) (string, error)
}

// SourceFunc adapts a function to Source.
type SourceFunc func(ctx context.Context, prefix string) (string, error)

// LatestCode implements Source.
func (f SourceFunc) LatestCode(ctx context.Context, prefix string) (string, error) {
	return f(ctx, prefix)
}

// Observer receives allocation retry notifications.
type Observer interface {
	SequenceRetry(prefix string)
}

// Generator allocates codes and retries when the insert loses a race on
// the unique code index.
type Generator struct {
	locker   shared.Locker
	logger   *slog.Logger
	observer Observer
}

// NewGenerator builds a Generator. locker and observer may be nil.
func NewGenerator(locker shared.Locker, logger *slog.Logger, observer Observer) *Generator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Generator{locker: locker, logger: logger, observer: observer}
}

// Peek returns the next code without reserving it.
func (g *Generator) Peek(ctx context.Context, prefix string, src Source) (string, error) {
	last, err := src.LatestCode(ctx, prefix)
	if err != nil {
		return "", fmt.Errorf("latest %s code: %w", prefix, err)
	}
	return Next(prefix, last), nil
}

// Allocate computes the next code and hands it to insert. A DuplicateKey from
// insert triggers a fresh computation, up to five attempts.
func (g *Generator) Allocate(ctx context.Context, prefix string, src Source, insert func(ctx context.Context, code string) error) (string, error) {
	if g != nil && g.locker != nil {
		release, err := g.locker.Acquire(ctx, shared.SequenceLockKey(prefix), lockTTL)
		if err != nil {
			g.logger.Debug("sequence lock unavailable", slog.String("prefix", prefix), slog.Any("error", err))
		}
		defer release()
	}

	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		code, err := g.Peek(ctx, prefix, src)
		if err != nil {
			return "", err
		}
		err = insert(ctx, code)
		if err == nil {
			return code, nil
		}
		if !errors.Is(err, shared.ErrDuplicate) {
			return "", err
		}
		lastErr = err
		if g != nil && g.observer != nil {
			g.observer.SequenceRetry(prefix)
		}
	}
	return "", lastErr
}

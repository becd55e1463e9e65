package llm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/lorenzotomasdiez/stance-arbiter/internal/debate"
)

// FallbackMode selects how the combinator drives its two providers.
type FallbackMode string

const (
	// Sequential tries the secondary only after the primary failed.
	Sequential FallbackMode = "sequential"
	// Hedged starts the secondary after a short delay and returns the first
	// success.
	Hedged FallbackMode = "hedged"
)

// Fallback combines two ReplyGenerators with per-provider timeouts.
type Fallback struct {
	primary    debate.ReplyGenerator
	secondary  debate.ReplyGenerator
	timeout    time.Duration
	mode       FallbackMode
	hedgeDelay time.Duration
}

// NewFallback creates a sequential fallback with a 15s per-provider timeout.
func NewFallback(primary, secondary debate.ReplyGenerator) *Fallback {
	return &Fallback{
		primary:    primary,
		secondary:  secondary,
		timeout:    15 * time.Second,
		mode:       Sequential,
		hedgeDelay: 2 * time.Second,
	}
}

// SetMode switches between sequential and hedged dispatch.
func (f *Fallback) SetMode(mode FallbackMode) { f.mode = mode }

// SetTimeout overrides the per-provider timeout.
func (f *Fallback) SetTimeout(d time.Duration) { f.timeout = d }

// ContinueDebate implements debate.ReplyGenerator.
func (f *Fallback) ContinueDebate(ctx context.Context, transcript []debate.Turn, state *debate.State) (string, error) {
	return f.invoke(ctx, func(ctx context.Context, g debate.ReplyGenerator) (string, error) {
		return g.ContinueDebate(ctx, transcript, state)
	})
}

// RenderEnd implements debate.ReplyGenerator.
func (f *Fallback) RenderEnd(ctx context.Context, transcript []debate.Turn, vars map[string]string) (string, error) {
	return f.invoke(ctx, func(ctx context.Context, g debate.ReplyGenerator) (string, error) {
		return g.RenderEnd(ctx, transcript, vars)
	})
}

type generatorCall func(ctx context.Context, g debate.ReplyGenerator) (string, error)

func (f *Fallback) invoke(ctx context.Context, call generatorCall) (string, error) {
	if f.mode == Hedged {
		return f.hedged(ctx, call)
	}
	return f.sequential(ctx, call)
}

func (f *Fallback) try(ctx context.Context, label string, g debate.ReplyGenerator, call generatorCall) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	out, err := call(ctx, g)
	if err == nil {
		return out, nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return "", fmt.Errorf("%w: %s after %s", ErrTimeout, label, f.timeout)
	}
	return "", fmt.Errorf("%w: %s: %v", ErrService, label, err)
}

func (f *Fallback) sequential(ctx context.Context, call generatorCall) (string, error) {
	out, err1 := f.try(ctx, "primary", f.primary, call)
	if err1 == nil {
		return out, nil
	}
	out, err2 := f.try(ctx, "secondary", f.secondary, call)
	if err2 == nil {
		return out, nil
	}
	return "", combined(err1, err2)
}

func (f *Fallback) hedged(ctx context.Context, call generatorCall) (string, error) {
	type result struct {
		out string
		err error
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	results := make(chan result, 2)
	go func() {
		out, err := f.try(ctx, "primary", f.primary, call)
		results <- result{out, err}
	}()
	go func() {
		select {
		case <-ctx.Done():
			results <- result{"", fmt.Errorf("%w: secondary never started", ErrService)}
			return
		case <-time.After(f.hedgeDelay):
		}
		out, err := f.try(ctx, "secondary", f.secondary, call)
		results <- result{out, err}
	}()

	var errs []error
	for i := 0; i < 2; i++ {
		r := <-results
		if r.err == nil {
			return r.out, nil
		}
		errs = append(errs, r.err)
	}
	return "", combined(errs...)
}

// combined prefers service errors over plain timeouts when surfacing a
// both-failed outcome.
func combined(errs ...error) error {
	for _, err := range errs {
		if err != nil && !errors.Is(err, ErrTimeout) {
			return fmt.Errorf("llm: both providers failed: %w", errors.Join(errs...))
		}
	}
	return fmt.Errorf("%w: both providers timed out: %v", ErrTimeout, errors.Join(errs...))
}

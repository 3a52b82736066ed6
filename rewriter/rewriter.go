// Package rewriter restyles a raw transcript with a cloud LLM. The
// controller never aborts on rewrite problems; a failed rewrite is a
// tagged Result and the raw transcript is used instead.
package rewriter

import (
	"context"

	"murmur/style"
)

// Result carries the rewrite outcome. Err is diagnostic only; callers
// branch on Ok.
type Result struct {
	Text string
	Ok   bool
	Err  error
}

type Rewriter interface {
	Name() string
	Rewrite(ctx context.Context, transcript string, st style.Style) Result
}

// Disabled is used when no API key is configured. Every session falls
// back to the raw transcript.
type Disabled struct{}

func (Disabled) Name() string { return "disabled" }

func (Disabled) Rewrite(_ context.Context, _ string, _ style.Style) Result {
	return Result{Ok: false}
}

// ABOUTME: Ordered model fallback over a Completer
// ABOUTME: Walks the candidate list once and aggregates every failure into ExhaustedError

package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
)

// ErrExhausted matches any ExhaustedError
var ErrExhausted = errors.New("exhausted all models")

// ErrNoCandidates is returned when the policy is empty or start is past its end
var ErrNoCandidates = errors.New("no candidate models")

// Policy lists candidate models in the order they are tried.
// Each candidate is attempted at most once.
type Policy struct {
	Candidates []Model
}

// Result is a successful generation
type Result struct {
	Text     string
	Model    Model
	Attempts int
}

// Attempt records one failed candidate
type Attempt struct {
	Model Model
	Err   error
}

// ExhaustedError reports that every candidate failed
type ExhaustedError struct {
	Attempts []Attempt
}

func (e *ExhaustedError) Error() string {
	parts := make([]string, 0, len(e.Attempts))
	for _, a := range e.Attempts {
		parts = append(parts, fmt.Sprintf("%s: %v", a.Model, a.Err))
	}
	return fmt.Sprintf("%s (%d attempts): %s", ErrExhausted, len(e.Attempts), strings.Join(parts, "; "))
}

// Is lets errors.Is(err, ErrExhausted) match
func (e *ExhaustedError) Is(target error) bool {
	return target == ErrExhausted
}

// Unwrap exposes the per-attempt errors
func (e *ExhaustedError) Unwrap() []error {
	errs := make([]error, 0, len(e.Attempts))
	for _, a := range e.Attempts {
		errs = append(errs, a.Err)
	}
	return errs
}

// Fallback generates text by walking a Policy over a Completer
type Fallback struct {
	completer Completer
	policy    Policy
	logger    *slog.Logger
}

// NewFallback creates a Fallback.
func NewFallback(completer Completer, policy Policy) *Fallback {
	return &Fallback{
		completer: completer,
		policy:    policy,
		logger:    slog.Default().With("component", "llm"),
	}
}

// Policy returns the candidate list in use
func (f *Fallback) Policy() Policy { return f.policy }

// Generate tries every candidate from the first
func (f *Fallback) Generate(ctx context.Context, req Request) (Result, error) {
	return f.GenerateFrom(ctx, req, 0)
}

// GenerateFrom tries candidates starting at index start.
// Every attempt sends the same prompt and system instruction.
func (f *Fallback) GenerateFrom(ctx context.Context, req Request, start int) (Result, error) {
	if start < 0 || start >= len(f.policy.Candidates) {
		return Result{}, ErrNoCandidates
	}

	exhausted := &ExhaustedError{}
	for _, model := range f.policy.Candidates[start:] {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}

		text, err := f.completer.Complete(ctx, model, req)
		if err == nil {
			return Result{Text: text, Model: model, Attempts: len(exhausted.Attempts) + 1}, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Result{}, fmt.Errorf("%w: %w", ctxErr, err)
		}

		f.logger.Warn("model attempt failed",
			"model", model.String(),
			"session_id", req.SessionID,
			"error", err,
		)
		exhausted.Attempts = append(exhausted.Attempts, Attempt{Model: model, Err: err})
	}
	return Result{}, exhausted
}

// NewSessionID returns a fresh session id for one generation task
func NewSessionID(task string) string {
	return "content-gen-" + task + "-" + uuid.New().String()
}

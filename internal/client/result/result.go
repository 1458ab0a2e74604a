// Package result is the uniform success/failure signal of the reconciling
// operations. Each operation produces exactly one terminal Outcome, delivered
// through a single-shot Pending and, optionally, to a Sink for user-visible
// feedback.
package result

import (
	"context"
	"sync"

	"github.com/dmitrijs2005/flixkeeper/internal/common"
)

type Kind int

const (
	Success Kind = iota + 1
	Failure
)

func (k Kind) String() string {
	switch k {
	case Success:
		return "success"
	case Failure:
		return "failure"
	default:
		return "unknown"
	}
}

// Outcome is the terminal result of one operation. Err is set only for
// failures; Message is what the user should see.
type Outcome struct {
	Kind    Kind
	Message string
	Err     error
}

func Succeeded(message string) Outcome {
	return Outcome{Kind: Success, Message: message}
}

func Failed(err error) Outcome {
	return Outcome{Kind: Failure, Message: common.Message(err), Err: err}
}

func (o Outcome) OK() bool {
	return o.Kind == Success
}

// Sink receives every terminal outcome once.
type Sink interface {
	Notify(ctx context.Context, op string, o Outcome)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, op string, o Outcome)

func (f SinkFunc) Notify(ctx context.Context, op string, o Outcome) {
	f(ctx, op, o)
}

// Discard is a Sink that drops outcomes.
var Discard Sink = SinkFunc(func(context.Context, string, Outcome) {})

// Pending holds the single outcome of an in-flight operation. Only the first
// Resolve takes effect.
type Pending struct {
	once    sync.Once
	done    chan struct{}
	outcome Outcome
}

func NewPending() *Pending {
	return &Pending{done: make(chan struct{})}
}

// Resolved returns a Pending that already holds o.
func Resolved(o Outcome) *Pending {
	p := NewPending()
	p.Resolve(o)
	return p
}

// Resolve records o and reports whether it was the first call.
func (p *Pending) Resolve(o Outcome) bool {
	first := false
	p.once.Do(func() {
		p.outcome = o
		close(p.done)
		first = true
	})
	return first
}

// Done is closed once the outcome is available.
func (p *Pending) Done() <-chan struct{} {
	return p.done
}

// Outcome returns the outcome without blocking; ok is false while pending.
func (p *Pending) Outcome() (Outcome, bool) {
	select {
	case <-p.done:
		return p.outcome, true
	default:
		return Outcome{}, false
	}
}

// Wait blocks until the outcome is available or ctx ends. Abandoning the
// wait does not cancel the operation.
func (p *Pending) Wait(ctx context.Context) (Outcome, error) {
	select {
	case <-p.done:
		return p.outcome, nil
	case <-ctx.Done():
		return Outcome{}, ctx.Err()
	}
}

package action

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/tonkeeper/tongo/boc"
	"github.com/tonkeeper/tongo/ton"

	"github.com/suspectuso/ton-staking-console/internal/confirm"
	"github.com/suspectuso/ton-staking-console/internal/failure"
	"github.com/suspectuso/ton-staking-console/internal/staking"
)

// State is the position of a single action in its lifecycle.
type State int

const (
	StateCollecting State = iota
	StateAwaitingConfirmation
	StateSubmitted
	StateAborted
)

func (s State) String() string {
	switch s {
	case StateCollecting:
		return "collecting"
	case StateAwaitingConfirmation:
		return "awaiting_confirmation"
	case StateSubmitted:
		return "submitted"
	case StateAborted:
		return "aborted"
	default:
		return "unknown"
	}
}

// Status is how an action ended.
type Status int

const (
	StatusSucceeded Status = iota + 1
	StatusTimedOut
	StatusMismatch
	StatusAborted
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusSucceeded:
		return "succeeded"
	case StatusTimedOut:
		return "timed_out"
	case StatusMismatch:
		return "postcondition_mismatch"
	case StatusAborted:
		return "aborted"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Outcome is the report of one finished action. It is a value, never a panic.
type Outcome struct {
	Action   string
	Kind     staking.Kind // zero for read-only actions
	Contract ton.AccountID
	Status   Status
	Message  string
	Err      error

	// Set once a message has been handed to the engine.
	Submitted bool
	BodyHash  string
	Value     uint64
	Baseline  uint64
	Attempts  int

	// Trace lists the states visited, in order.
	Trace []State
}

// Plan is what Collecting produces: an intent plus how to check its effect.
type Plan struct {
	Intent staking.Intent
	// To overrides the destination; the contract is always the watched account.
	To      *ton.AccountID
	Value   uint64
	Summary string
	// Before captures the pre-state right before submission.
	Before func(ctx context.Context) error
	// Verify re-reads the snapshot after confirmation. A failure.KindPostcondition
	// error means the transaction landed without the expected effect.
	Verify func(ctx context.Context) (string, error)
}

// Action is one menu entry.
type Action struct {
	Name  string
	Kind  staking.Kind
	Admin bool

	collect func(ctx context.Context, s *Session) (*Plan, error)
	show    func(ctx context.Context, s *Session) error
}

// ReadOnly reports whether the action never submits a message.
func (a Action) ReadOnly() bool {
	return a.show != nil
}

// Run drives a through Collecting -> AwaitingConfirmation -> {Submitted | Aborted}.
func Run(ctx context.Context, s *Session, a Action) Outcome {
	out := Outcome{Action: a.Name, Kind: a.Kind, Contract: s.Contract.Address}
	log := s.log().With("action", a.Name)

	if a.show != nil {
		if err := a.show(ctx, s); err != nil {
			return finish(out, err)
		}
		out.Status = StatusSucceeded
		return out
	}

	var plan *Plan
	state := StateCollecting
	for {
		out.Trace = append(out.Trace, state)
		log.Debug("action state", "state", state.String())

		switch state {
		case StateCollecting:
			p, err := a.collect(ctx, s)
			if err != nil {
				return finish(out, err)
			}
			plan = p
			state = StateAwaitingConfirmation

		case StateAwaitingConfirmation:
			s.Prompt.Say("%s", plan.Summary)
			ok, err := s.Prompt.Bool(ctx, "Is it ok?")
			if err != nil {
				return finish(out, err)
			}
			if ok {
				state = StateSubmitted
			} else {
				state = StateCollecting
			}

		case StateSubmitted:
			return submit(ctx, s, plan, out)
		}
	}
}

func submit(ctx context.Context, s *Session, plan *Plan, out Outcome) Outcome {
	log := s.log().With("action", out.Action)

	body, err := staking.Encode(plan.Intent)
	if err != nil {
		return finish(out, fmt.Errorf("encode: %w", err))
	}
	out.BodyHash = bodyHash(body)
	out.Value = plan.Value

	if plan.Before != nil {
		if err := plan.Before(ctx); err != nil {
			return finish(out, err)
		}
	}

	res, err := s.Engine.SubmitAndConfirm(ctx, confirm.Submission{
		Watch:   s.Contract.Address,
		To:      plan.To,
		Build:   func() (*boc.Cell, error) { return body, nil },
		Value:   plan.Value,
		Timeout: s.Timeout,
	})
	out.Baseline = res.Baseline
	out.Attempts = res.Attempts
	out.Submitted = res.Sent
	if err != nil {
		return finish(out, err)
	}

	if !res.Observed {
		log.Warn("no transaction observed", "attempts", res.Attempts)
		return finish(out, failure.Timeout(out.Action, "failed to confirm within %s, check the contract manually", s.Timeout))
	}

	msg, err := plan.Verify(ctx)
	if err != nil {
		return finish(out, err)
	}
	out.Status = StatusSucceeded
	out.Message = msg
	log.Info("action confirmed", "lt", res.Lt, "attempts", res.Attempts)
	return out
}

func finish(out Outcome, err error) Outcome {
	out.Err = err
	switch {
	case errors.Is(err, ErrAborted), errors.Is(err, context.Canceled):
		out.Status = StatusAborted
		out.Trace = append(out.Trace, StateAborted)
		out.Message = "aborted"
		return out
	case failure.Is(err, failure.KindTimeout):
		out.Status = StatusTimedOut
	case failure.Is(err, failure.KindPostcondition):
		out.Status = StatusMismatch
	default:
		out.Status = StatusFailed
	}
	out.Message = err.Error()
	return out
}

func bodyHash(c *boc.Cell) string {
	h, err := c.Hash()
	if err != nil {
		return ""
	}
	return hex.EncodeToString(h)
}

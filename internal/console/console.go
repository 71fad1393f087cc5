// Package console is the top-level operator loop: authorize once, then run one
// action at a time until the operator quits.
package console

import (
	"context"
	"errors"
	"log/slog"

	"github.com/tonkeeper/tongo/ton"

	"github.com/suspectuso/ton-staking-console/internal/action"
	"github.com/suspectuso/ton-staking-console/internal/failure"
	"github.com/suspectuso/ton-staking-console/internal/ledger"
)

// Phase is the console's position in its lifecycle.
type Phase int

const (
	PhaseUnauthenticated Phase = iota
	PhaseAuthorized
	PhaseActionLoop
	PhaseTerminated
)

func (p Phase) String() string {
	switch p {
	case PhaseUnauthenticated:
		return "unauthenticated"
	case PhaseAuthorized:
		return "authorized"
	case PhaseActionLoop:
		return "action_loop"
	case PhaseTerminated:
		return "terminated"
	default:
		return "unknown"
	}
}

// Role selects the permitted action set.
type Role int

const (
	RoleRestricted Role = iota
	RoleAdmin
)

func (r Role) String() string {
	if r == RoleAdmin {
		return "admin"
	}
	return "restricted"
}

const quitOption = "Quit"

// Reporter receives every finished action.
type Reporter interface {
	Report(ctx context.Context, out action.Outcome)
}

// Console drives a single operator session against one contract.
type Console struct {
	session  *action.Session
	reporter Reporter
	log      *slog.Logger

	phase Phase
	role  Role
	trace []Phase
}

// New creates a console; reporter may be nil.
func New(s *action.Session, reporter Reporter, log *slog.Logger) *Console {
	return &Console{
		session:  s,
		reporter: reporter,
		log:      log,
		phase:    PhaseUnauthenticated,
		trace:    []Phase{PhaseUnauthenticated},
	}
}

func (c *Console) enter(p Phase) {
	c.phase = p
	c.trace = append(c.trace, p)
	c.log.Debug("console phase", "phase", p.String())
}

// Authorize compares the operator with the recorded admin. It runs once per
// session; a later admin change is not noticed until restart. Without an
// operator wallet the full menu is shown, since nothing can be sent anyway.
func (c *Console) Authorize(ctx context.Context) error {
	jd, err := c.session.Contract.JettonData(ctx)
	if err != nil {
		return err
	}

	op := c.session.Operator
	switch {
	case op == nil:
		c.role = RoleAdmin
	case jd.Admin != nil && *jd.Admin == *op:
		c.role = RoleAdmin
	default:
		c.role = RoleRestricted
	}
	c.log.Info("operator authorized", "role", c.role.String())
	c.enter(PhaseAuthorized)
	return nil
}

// Actions is the permitted action set for the authorized role.
func (c *Console) Actions() []action.Action {
	acts := action.UserActions()
	if c.role == RoleAdmin {
		acts = append(acts, action.AdminActions()...)
	}
	return acts
}

// Run loops over the permitted actions until Quit or end of input. Actions run
// strictly one after another.
func (c *Console) Run(ctx context.Context) error {
	if c.phase == PhaseUnauthenticated {
		if err := c.Authorize(ctx); err != nil {
			c.enter(PhaseTerminated)
			return err
		}
	}
	c.enter(PhaseActionLoop)

	acts := c.Actions()
	options := make([]string, 0, len(acts)+1)
	for _, a := range acts {
		options = append(options, a.Name)
	}
	options = append(options, quitOption)

	for {
		if err := ctx.Err(); err != nil {
			c.enter(PhaseTerminated)
			return err
		}

		i, err := c.session.Prompt.Choose(ctx, "Choose action", options)
		if errors.Is(err, action.ErrAborted) || (err == nil && i == len(acts)) {
			c.enter(PhaseTerminated)
			return nil
		}
		if err != nil {
			c.enter(PhaseTerminated)
			return err
		}

		out := action.Run(ctx, c.session, acts[i])
		c.finish(ctx, out)
	}
}

func (c *Console) finish(ctx context.Context, out action.Outcome) {
	attrs := []any{
		"action", out.Action,
		"status", out.Status.String(),
		"submitted", out.Submitted,
		"attempts", out.Attempts,
	}
	if out.Err != nil && out.Status != action.StatusAborted {
		attrs = append(attrs, "failure", failure.KindOf(out.Err).String(), "error", out.Err)
	}
	c.log.Info("action finished", attrs...)

	switch out.Status {
	case action.StatusSucceeded:
		if out.Message != "" {
			c.session.Prompt.Say("%s", out.Message)
		}
	case action.StatusAborted:
		c.session.Prompt.Say("Aborted")
	default:
		c.session.Prompt.Say("%s: %s", out.Status.String(), out.Message)
	}

	if c.reporter != nil {
		c.reporter.Report(ctx, out)
	}
}

// SelectContract returns configured when it is an active account, otherwise
// prompts until the operator names one.
func SelectContract(ctx context.Context, p action.Prompter, reader ledger.Reader, configured *ton.AccountID, testnet bool) (ton.AccountID, error) {
	next := configured
	for {
		var addr ton.AccountID
		if next != nil {
			addr, next = *next, nil
		} else {
			var err error
			addr, err = p.Address(ctx, "Staking contract address", nil)
			if err != nil {
				return ton.AccountID{}, err
			}
		}

		st, err := reader.AccountState(ctx, addr)
		if err != nil {
			if ctx.Err() != nil {
				return ton.AccountID{}, ctx.Err()
			}
			p.Say("Failed to read %s: %v", addr.ToHuman(true, testnet), err)
			continue
		}
		if st.Status != "active" {
			p.Say("Account %s is %s, expected a deployed contract", addr.ToHuman(true, testnet), st.Status)
			continue
		}
		return addr, nil
	}
}

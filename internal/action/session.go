// Package action runs one operator action at a time against a staking contract.
package action

import (
	"context"
	"errors"
	"log/slog"
	"math/big"
	"time"

	"github.com/tonkeeper/tongo/ton"

	"github.com/suspectuso/ton-staking-console/internal/confirm"
	"github.com/suspectuso/ton-staking-console/internal/failure"
	"github.com/suspectuso/ton-staking-console/internal/ledger"
	"github.com/suspectuso/ton-staking-console/internal/staking"
)

// ErrAborted is returned by a Prompter when the operator cancels input.
var ErrAborted = errors.New("aborted by operator")

// Prompter is the operator-facing side of an action. Implementations return
// already parsed values and handle malformed input themselves.
type Prompter interface {
	Address(ctx context.Context, label string, fallback *ton.AccountID) (ton.AccountID, error)
	Amount(ctx context.Context, label string) (*big.Int, error)
	Bool(ctx context.Context, label string) (bool, error)
	URL(ctx context.Context, label string) (string, error)
	Choose(ctx context.Context, label string, options []string) (int, error)
	Say(format string, args ...any)
}

// Session holds everything an action needs. It replaces any package-level
// "current contract" handle and is passed into every Run.
type Session struct {
	Contract *staking.Contract
	// Operator is the sending wallet; nil when running without one.
	Operator *ton.AccountID
	Ledger   ledger.Client
	Engine   *confirm.Engine
	Prompt   Prompter
	Timeout  time.Duration
	Testnet  bool
	Log      *slog.Logger
}

func (s *Session) log() *slog.Logger {
	if s.Log == nil {
		return slog.Default()
	}
	return s.Log
}

func (s *Session) human(id ton.AccountID) string {
	return id.ToHuman(true, s.Testnet)
}

func (s *Session) humanPtr(id *ton.AccountID) string {
	if id == nil {
		return "none"
	}
	return s.human(*id)
}

// ask repeats get until check accepts the value. Validation failures are shown
// to the operator and re-prompted; any other error ends the loop.
func ask[T any](ctx context.Context, s *Session, get func() (T, error), check func(T) error) (T, error) {
	for {
		v, err := get()
		if err != nil {
			return v, err
		}
		if check == nil {
			return v, nil
		}
		err = check(v)
		if err == nil {
			return v, nil
		}
		if !failure.Is(err, failure.KindValidation) {
			return v, err
		}
		s.Prompt.Say("%s", validationText(err))
		if ctx.Err() != nil {
			return v, ctx.Err()
		}
	}
}

func validationText(err error) string {
	var fe *failure.Error
	if errors.As(err, &fe) {
		return fe.Message
	}
	return err.Error()
}

// Package confirm submits a message and waits for the target account to record a new transaction.
package confirm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/tonkeeper/tongo/boc"
	"github.com/tonkeeper/tongo/ton"

	"github.com/suspectuso/ton-staking-console/internal/failure"
	"github.com/suspectuso/ton-staking-console/internal/ledger"
)

const DefaultInterval = time.Second

// Submission describes one message to send and the account whose activity confirms it.
type Submission struct {
	// Watch is the account whose last transaction lt is the confirmation signal.
	Watch ton.AccountID
	// To is the message destination; nil means Watch.
	To      *ton.AccountID
	Build   func() (*boc.Cell, error)
	Value   uint64
	Timeout time.Duration
}

// Result is discarded once the caller has acted on it.
type Result struct {
	// Sent is true once the message was handed to the broadcaster.
	Sent     bool
	Observed bool
	Attempts int
	Baseline uint64
	Lt       uint64 // lt seen on the confirming poll
}

// Engine drives submit-then-poll confirmations. Calls share no state and may run concurrently.
type Engine struct {
	client   ledger.Client
	interval time.Duration
	log      *slog.Logger
}

// New creates an Engine polling at interval (DefaultInterval when <= 0).
func New(client ledger.Client, interval time.Duration, log *slog.Logger) *Engine {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if log == nil {
		log = slog.Default()
	}
	return &Engine{client: client, interval: interval, log: log}
}

// Baseline reads the watched account's current activity marker.
func (e *Engine) Baseline(ctx context.Context, account ton.AccountID) (uint64, error) {
	if _, err := e.client.LatestBlock(ctx); err != nil {
		return 0, fmt.Errorf("latest block: %w", err)
	}
	st, err := e.client.AccountState(ctx, account)
	if err != nil {
		return 0, fmt.Errorf("account state: %w", err)
	}
	if !st.HasHistory() {
		return 0, failure.Precondition("baseline", "account %s has no transactions", account.ToHuman(true, false))
	}
	return st.LastTxLt, nil
}

// SubmitAndConfirm broadcasts the message and polls until the watched account's
// lt exceeds the baseline or the timeout elapses. Running out of time is not an
// error: the result has Observed false. Cancelling ctx returns ctx.Err().
func (e *Engine) SubmitAndConfirm(ctx context.Context, sub Submission) (Result, error) {
	if sub.Timeout <= 0 {
		return Result{}, failure.Validation("submit", "timeout must be positive")
	}
	baseline, err := e.Baseline(ctx, sub.Watch)
	if err != nil {
		return Result{}, err
	}

	body, err := sub.Build()
	if err != nil {
		return Result{}, fmt.Errorf("build message: %w", err)
	}
	to := sub.Watch
	if sub.To != nil {
		to = *sub.To
	}
	err = e.client.Broadcast(ctx, ledger.Message{
		To:    to,
		Body:  body,
		Value: sub.Value,
		Mode:  ledger.ModePayGasSeparately,
	})
	if errors.Is(err, ledger.ErrNoSender) {
		return Result{Baseline: baseline}, failure.Wrap(err, failure.KindPrecondition, "broadcast", "missing sender")
	}
	if err != nil {
		return Result{Baseline: baseline}, fmt.Errorf("broadcast: %w", err)
	}
	e.log.Debug("message sent", "to", to.String(), "value", sub.Value, "baseline_lt", baseline)

	return e.poll(ctx, sub.Watch, baseline, sub.Timeout)
}

func (e *Engine) poll(ctx context.Context, account ton.AccountID, baseline uint64, timeout time.Duration) (Result, error) {
	res := Result{Baseline: baseline, Sent: true}

	deadline, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()

	for {
		select {
		case <-deadline.Done():
			if err := ctx.Err(); err != nil {
				return res, err
			}
			e.log.Info("confirmation timed out", "account", account.String(), "attempts", res.Attempts)
			return res, nil
		case <-ticker.C:
		}

		res.Attempts++
		st, err := e.client.AccountState(deadline, account)
		if err != nil {
			if deadline.Err() == nil {
				e.log.Warn("poll account state", "attempt", res.Attempts, "error", err)
			}
			continue
		}
		if st.LastTxLt > baseline {
			res.Observed = true
			res.Lt = st.LastTxLt
			e.log.Debug("transaction observed", "account", account.String(), "lt", st.LastTxLt, "attempts", res.Attempts)
			return res, nil
		}
	}
}

package confirm

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tonkeeper/tongo/boc"
	"github.com/tonkeeper/tongo/ton"

	"github.com/suspectuso/ton-staking-console/internal/failure"
	"github.com/suspectuso/ton-staking-console/internal/ledger"
	"github.com/suspectuso/ton-staking-console/internal/ledger/ledgertest"
)

var target = ledgertest.AccountID(0x77)

func quietLog() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func emptyBody() (*boc.Cell, error) {
	return boc.NewCell(), nil
}

// advanceAfter makes the target record a transaction once it has been polled n times after a broadcast.
func advanceAfter(sim *ledgertest.Sim, n int) {
	sim.OnBroadcast = func(s *ledgertest.Sim, msg ledger.Message) {
		s.AfterPolls(target, n, func(s *ledgertest.Sim) { s.Transact(target, 0) })
	}
}

func newSim(baseline uint64) *ledgertest.Sim {
	sim := ledgertest.New()
	sim.SetAccount(target, ledger.AccountState{Balance: 1, LastTxLt: baseline, Status: "active"})
	return sim
}

func TestObservedAfterAdvance(t *testing.T) {
	for _, polls := range []int{1, 2, 5} {
		sim := newSim(100)
		advanceAfter(sim, polls)
		e := New(sim, 5*time.Millisecond, quietLog())

		res, err := e.SubmitAndConfirm(context.Background(), Submission{Watch: target, Build: emptyBody, Value: 7, Timeout: time.Second})
		require.NoError(t, err)
		assert.True(t, res.Observed)
		assert.Equal(t, polls, res.Attempts)
		assert.Equal(t, uint64(100), res.Baseline)
		assert.Equal(t, uint64(101), res.Lt)

		require.Len(t, sim.Sent, 1)
		assert.Equal(t, target, sim.Sent[0].To)
		assert.Equal(t, uint64(7), sim.Sent[0].Value)
		assert.Equal(t, ledger.ModePayGasSeparately, sim.Sent[0].Mode)
	}
}

func TestMarkerEqualToBaselineIsNotConfirmation(t *testing.T) {
	sim := newSim(100)
	sim.OnBroadcast = func(s *ledgertest.Sim, msg ledger.Message) {
		s.AfterPolls(target, 1, func(s *ledgertest.Sim) {
			st := s.Account(target)
			st.Balance += 5
			s.SetAccount(target, st)
		})
	}
	e := New(sim, 2*time.Millisecond, quietLog())

	res, err := e.SubmitAndConfirm(context.Background(), Submission{Watch: target, Build: emptyBody, Timeout: 40 * time.Millisecond})
	require.NoError(t, err)
	assert.False(t, res.Observed)
	assert.Greater(t, res.Attempts, 1)
}

func TestTimeoutBound(t *testing.T) {
	for _, timeout := range []time.Duration{10 * time.Millisecond, 50 * time.Millisecond, 120 * time.Millisecond} {
		sim := newSim(100)
		interval := 7 * time.Millisecond
		e := New(sim, interval, quietLog())

		start := time.Now()
		res, err := e.SubmitAndConfirm(context.Background(), Submission{Watch: target, Build: emptyBody, Timeout: timeout})
		elapsed := time.Since(start)

		require.NoError(t, err)
		assert.False(t, res.Observed)
		assert.GreaterOrEqual(t, elapsed, timeout)
		assert.Less(t, elapsed, timeout+interval+50*time.Millisecond)
	}
}

func TestTransientPollErrors(t *testing.T) {
	sim := newSim(100)
	advanceAfter(sim, 4)
	// call 1 is the baseline read; polls 1-3 fail.
	sim.StateErr = func(_ ton.AccountID, n int) error {
		if n >= 2 && n <= 4 {
			return errors.New("connection reset")
		}
		return nil
	}
	e := New(sim, 2*time.Millisecond, quietLog())

	res, err := e.SubmitAndConfirm(context.Background(), Submission{Watch: target, Build: emptyBody, Timeout: time.Second})
	require.NoError(t, err)
	assert.True(t, res.Observed)
	assert.Equal(t, 4, res.Attempts)
}

func TestNoHistoryIsPrecondition(t *testing.T) {
	sim := newSim(0)
	built := false
	e := New(sim, time.Millisecond, quietLog())

	_, err := e.SubmitAndConfirm(context.Background(), Submission{
		Watch:   target,
		Build:   func() (*boc.Cell, error) { built = true; return boc.NewCell(), nil },
		Timeout: time.Second,
	})
	require.Error(t, err)
	assert.True(t, failure.Is(err, failure.KindPrecondition))
	assert.False(t, built)
	assert.Empty(t, sim.Sent)
}

func TestMissingSenderIsPrecondition(t *testing.T) {
	sim := newSim(100)
	e := New(ledger.Combine(sim, nil), time.Millisecond, quietLog())

	_, err := e.SubmitAndConfirm(context.Background(), Submission{Watch: target, Build: emptyBody, Timeout: time.Second})
	require.Error(t, err)
	assert.True(t, failure.Is(err, failure.KindPrecondition))
	assert.ErrorIs(t, err, ledger.ErrNoSender)
}

func TestBuildErrorStopsBeforeBroadcast(t *testing.T) {
	sim := newSim(100)
	e := New(sim, time.Millisecond, quietLog())

	_, err := e.SubmitAndConfirm(context.Background(), Submission{
		Watch:   target,
		Build:   func() (*boc.Cell, error) { return nil, errors.New("bad intent") },
		Timeout: time.Second,
	})
	assert.Error(t, err)
	assert.Empty(t, sim.Sent)
}

func TestDestinationDiffersFromWatched(t *testing.T) {
	sim := newSim(100)
	advanceAfter(sim, 1)
	wallet := ledgertest.AccountID(0x78)
	e := New(sim, time.Millisecond, quietLog())

	res, err := e.SubmitAndConfirm(context.Background(), Submission{Watch: target, To: &wallet, Build: emptyBody, Timeout: time.Second})
	require.NoError(t, err)
	assert.True(t, res.Observed)
	require.Len(t, sim.Sent, 1)
	assert.Equal(t, wallet, sim.Sent[0].To)
}

func TestCancelStopsPolling(t *testing.T) {
	sim := newSim(100)
	e := New(sim, 2*time.Millisecond, quietLog())

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(20*time.Millisecond, cancel)

	_, err := e.SubmitAndConfirm(ctx, Submission{Watch: target, Build: emptyBody, Timeout: time.Minute})
	assert.ErrorIs(t, err, context.Canceled)

	calls := sim.StateCalls(target)
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, calls, sim.StateCalls(target), "no queries after cancellation")
}

func TestInvalidTimeout(t *testing.T) {
	e := New(newSim(100), time.Millisecond, quietLog())
	_, err := e.SubmitAndConfirm(context.Background(), Submission{Watch: target, Build: emptyBody})
	assert.True(t, failure.Is(err, failure.KindValidation))
}

func TestScenarioAdvanceWithinTwoSeconds(t *testing.T) {
	if testing.Short() {
		t.Skip("real-time scenario")
	}
	sim := newSim(100)
	advanceAfter(sim, 2)
	e := New(sim, time.Second, quietLog())

	start := time.Now()
	res, err := e.SubmitAndConfirm(context.Background(), Submission{Watch: target, Build: emptyBody, Timeout: 30 * time.Second})
	elapsed := time.Since(start)

	require.NoError(t, err)
	assert.True(t, res.Observed)
	assert.Equal(t, uint64(101), res.Lt)
	assert.GreaterOrEqual(t, elapsed, 2*time.Second)
	assert.Less(t, elapsed, 2500*time.Millisecond)
}

func TestScenarioNeverAdvances(t *testing.T) {
	if testing.Short() {
		t.Skip("real-time scenario")
	}
	sim := newSim(100)
	e := New(sim, time.Second, quietLog())

	start := time.Now()
	res, err := e.SubmitAndConfirm(context.Background(), Submission{Watch: target, Build: emptyBody, Timeout: 5 * time.Second})
	elapsed := time.Since(start)

	require.NoError(t, err)
	assert.False(t, res.Observed)
	assert.GreaterOrEqual(t, elapsed, 5*time.Second)
	assert.Less(t, elapsed, 6500*time.Millisecond)
}

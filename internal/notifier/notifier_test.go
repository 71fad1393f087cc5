package notifier

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tonkeeper/tongo/ton"

	"github.com/suspectuso/ton-staking-console/internal/action"
	"github.com/suspectuso/ton-staking-console/internal/staking"
	"github.com/suspectuso/ton-staking-console/internal/storage"
)

type fakeJournal struct {
	recs []*storage.ActionRecord
	err  error
}

func (f *fakeJournal) RecordAction(rec *storage.ActionRecord) error {
	f.recs = append(f.recs, rec)
	return f.err
}

type fakeSender struct {
	texts []string
	err   error
}

func (f *fakeSender) SendNotification(_ context.Context, text string) error {
	f.texts = append(f.texts, text)
	return f.err
}

func contractID() ton.AccountID {
	var id ton.AccountID
	for i := range id.Address {
		id.Address[i] = 0x55
	}
	return id
}

func outcome(status action.Status, submitted bool) action.Outcome {
	return action.Outcome{
		Action:    "Change state",
		Kind:      staking.KindChangeState,
		Contract:  contractID(),
		Status:    status,
		Message:   "Staking state changed <successfully>",
		Submitted: submitted,
		BodyHash:  "beef",
		Value:     staking.ValueLarge,
		Baseline:  48_000_001,
		Attempts:  2,
	}
}

func quiet() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestReportSubmitted(t *testing.T) {
	j, s := &fakeJournal{}, &fakeSender{}
	n := New(j, s, false, quiet())

	n.Report(context.Background(), outcome(action.StatusSucceeded, true))

	require.Len(t, j.recs, 1)
	rec := j.recs[0]
	assert.Equal(t, contractID().String(), rec.Contract)
	assert.Equal(t, "succeeded", rec.Status)
	assert.Equal(t, staking.KindChangeState.String(), rec.Kind)
	assert.Equal(t, staking.KindChangeState.Tag(), rec.OpTag)
	assert.Equal(t, uint64(48_000_001), rec.BaselineLt)
	assert.Equal(t, 2, rec.Attempts)

	require.Len(t, s.texts, 1)
	assert.Contains(t, s.texts[0], "✅ <b>Change state</b> confirmed")
	assert.Contains(t, s.texts[0], "https://tonviewer.com/")
	assert.Contains(t, s.texts[0], "&lt;successfully&gt;")
}

func TestReportSkipsUnsubmitted(t *testing.T) {
	j, s := &fakeJournal{}, &fakeSender{}
	n := New(j, s, false, quiet())

	n.Report(context.Background(), outcome(action.StatusAborted, false))
	n.Report(context.Background(), outcome(action.StatusFailed, false))

	assert.Empty(t, j.recs)
	assert.Empty(t, s.texts)
}

func TestReportSinkErrorsDoNotStopDelivery(t *testing.T) {
	j := &fakeJournal{err: errors.New("disk full")}
	s := &fakeSender{err: errors.New("chat not found")}
	n := New(j, s, true, quiet())

	n.Report(context.Background(), outcome(action.StatusTimedOut, true))
	assert.Len(t, j.recs, 1)
	require.Len(t, s.texts, 1)
	assert.Contains(t, s.texts[0], "testnet.tonviewer.com")
	assert.Contains(t, s.texts[0], "⏳")
}

func TestReportWithoutSinks(t *testing.T) {
	n := New(nil, nil, false, quiet())
	assert.NotPanics(t, func() {
		n.Report(context.Background(), outcome(action.StatusMismatch, true))
	})
}

func TestFormatHistory(t *testing.T) {
	assert.Contains(t, FormatHistory(nil), "No actions")

	text := FormatHistory([]storage.ActionRecord{
		{Action: "Mint", Status: "postcondition_mismatch", CreatedAt: time.Date(2026, 3, 1, 12, 30, 0, 0, time.UTC)},
		{Action: "Stake", Status: "succeeded", CreatedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)},
	})
	assert.Contains(t, text, "⚠️ 2026-03-01 12:30 <b>Mint</b> postcondition_mismatch")
	assert.Contains(t, text, "✅ 2026-03-01 12:00 <b>Stake</b> succeeded")
}

func TestFormatInfo(t *testing.T) {
	snap := &staking.Snapshot{
		Jetton:  staking.JettonData{TotalSupply: big.NewInt(5_000_000_000), Mintable: true},
		Staking: staking.StakingData{Paused: true, Price: 1_000_000_000},
		Balance: 2_500_000_000,
	}
	text := FormatInfo(contractID(), snap, false)
	assert.Contains(t, text, "<pre>")
	assert.Contains(t, text, "Total supply: 5")
	assert.Contains(t, text, "Admin: none")
	assert.Contains(t, text, "...")
}

package storage

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTemp(t *testing.T) *Storage {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "journal.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestRecordAndGet(t *testing.T) {
	s := openTemp(t)
	rec := &ActionRecord{
		Contract:   "0:5555",
		Action:     "Change state",
		Kind:       "change_state",
		OpTag:      0x58ca5361,
		BodyHash:   "abcd",
		ValueNano:  200_000_000,
		BaselineLt: 48_000_001,
		Status:     "succeeded",
		Attempts:   2,
		Message:    "Staking state changed successfully",
	}
	require.NoError(t, s.RecordAction(rec))
	assert.NotEmpty(t, rec.ID)
	assert.False(t, rec.CreatedAt.IsZero())

	got, err := s.GetAction(rec.ID)
	require.NoError(t, err)
	assert.Equal(t, rec.OpTag, got.OpTag)
	assert.Equal(t, rec.ValueNano, got.ValueNano)
	assert.Equal(t, rec.BaselineLt, got.BaselineLt)
	assert.Equal(t, rec.Message, got.Message)
	assert.Equal(t, rec.CreatedAt.UnixMilli(), got.CreatedAt.UnixMilli())

	_, err = s.GetAction("missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListActionsNewestFirst(t *testing.T) {
	s := openTemp(t)
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	for i, status := range []string{"succeeded", "timed_out", "postcondition_mismatch"} {
		require.NoError(t, s.RecordAction(&ActionRecord{
			Contract:  "0:aa",
			Action:    "Mint",
			Kind:      "mint",
			Status:    status,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}))
	}
	require.NoError(t, s.RecordAction(&ActionRecord{Contract: "0:bb", Action: "Stake", Kind: "stake", Status: "succeeded"}))

	list, err := s.ListActions("0:aa", 10)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "postcondition_mismatch", list[0].Status)
	assert.Equal(t, "succeeded", list[2].Status)

	list, err = s.ListActions("", 2)
	require.NoError(t, err)
	assert.Len(t, list, 2)

	counts, err := s.CountByStatus("0:aa")
	require.NoError(t, err)
	assert.Equal(t, []StatusCount{
		{Status: "postcondition_mismatch", Count: 1},
		{Status: "succeeded", Count: 1},
		{Status: "timed_out", Count: 1},
	}, counts)

	counts, err = s.CountByStatus("")
	require.NoError(t, err)
	assert.Contains(t, counts, StatusCount{Status: "succeeded", Count: 2})
}

func TestRecordRejectsOversizedValue(t *testing.T) {
	s := openTemp(t)
	err := s.RecordAction(&ActionRecord{Contract: "0:aa", ValueNano: 1 << 63})
	assert.Error(t, err)
}

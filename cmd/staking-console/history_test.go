package main

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suspectuso/ton-staking-console/internal/staking"
	"github.com/suspectuso/ton-staking-console/internal/storage"
)

func TestPrintHistoryWithSummary(t *testing.T) {
	store, err := storage.New(filepath.Join(t.TempDir(), "journal.db"))
	require.NoError(t, err)
	defer store.Close()

	contract := account(0x55).String()
	for _, status := range []string{"succeeded", "succeeded", "timed_out"} {
		require.NoError(t, store.RecordAction(&storage.ActionRecord{
			Contract:  contract,
			Action:    "Change state",
			Kind:      staking.KindChangeState.String(),
			OpTag:     staking.OpChangeState,
			ValueNano: staking.ValueLarge,
			Status:    status,
		}))
	}

	recs, err := store.ListActions(contract, 10)
	require.NoError(t, err)
	counts, err := store.CountByStatus(contract)
	require.NoError(t, err)

	var out bytes.Buffer
	require.NoError(t, printHistory(&out, recs, counts))
	assert.Contains(t, out.String(), "Change state")
	assert.Contains(t, out.String(), "0.2")
	assert.Contains(t, out.String(), "3 recorded: succeeded 2, timed_out 1")

	out.Reset()
	rec, err := store.GetAction(recs[0].ID)
	require.NoError(t, err)
	require.NoError(t, printAction(&out, rec))
	assert.Contains(t, out.String(), "change_state (0x58ca5361)")
	assert.Contains(t, out.String(), contract)
}

func TestPrintHistoryEmpty(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, printHistory(&out, nil, nil))
	assert.Equal(t, "No actions recorded\n", out.String())
}

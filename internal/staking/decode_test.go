package staking_test

import (
	"context"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tonkeeper/tongo/boc"
	"github.com/tonkeeper/tongo/ton"

	"github.com/suspectuso/ton-staking-console/internal/failure"
	"github.com/suspectuso/ton-staking-console/internal/ledger"
	"github.com/suspectuso/ton-staking-console/internal/ledger/ledgertest"
	"github.com/suspectuso/ton-staking-console/internal/staking"
)

func TestDecodeJettonData(t *testing.T) {
	content, err := staking.ContentCell("https://example.org/j.json")
	require.NoError(t, err)
	stack := ledger.Stack{
		ledgertest.Uint(1_500_000_000),
		ledgertest.Bool(true),
		ledgertest.Address(&alice),
		ledgertest.Cell(content),
		ledgertest.Cell(boc.NewCell()),
	}
	d, err := staking.DecodeJettonData(stack)
	require.NoError(t, err)
	assert.Equal(t, "1500000000", d.TotalSupply.String())
	assert.True(t, d.Mintable)
	require.NotNil(t, d.Admin)
	assert.Equal(t, alice, *d.Admin)
	uri, err := staking.ContentURI(d.Content)
	require.NoError(t, err)
	assert.Equal(t, "https://example.org/j.json", uri)
}

func TestDecodeJettonDataSupplyAboveUint64(t *testing.T) {
	supply := nano("20000000000000000000")
	stack := ledger.Stack{
		ledgertest.Big(supply),
		ledgertest.Bool(true),
		ledgertest.Address(&alice),
		ledgertest.Cell(boc.NewCell()),
		ledgertest.Cell(boc.NewCell()),
	}
	d, err := staking.DecodeJettonData(stack)
	require.NoError(t, err)
	assert.Zero(t, supply.Cmp(d.TotalSupply), "got %s", d.TotalSupply)
	assert.Equal(t, "20000000000", staking.FormatCoins(d.TotalSupply))
}

func TestDecodePriceMustFit64Bits(t *testing.T) {
	_, err := staking.DecodeStakingData(ledger.Stack{ledgertest.Bool(false), ledgertest.Big(nano("18446744073709551616"))})
	require.Error(t, err)
	assert.True(t, failure.Is(err, failure.KindDecode))
}

func TestDecodeRejectsWrongShape(t *testing.T) {
	tests := []struct {
		name   string
		decode func(ledger.Stack) error
		stack  ledger.Stack
	}{
		{
			name:   "jetton data too short",
			decode: func(s ledger.Stack) error { _, err := staking.DecodeJettonData(s); return err },
			stack:  ledger.Stack{ledgertest.Uint(1)},
		},
		{
			name:   "staking data price is a cell",
			decode: func(s ledger.Stack) error { _, err := staking.DecodeStakingData(s); return err },
			stack:  ledger.Stack{ledgertest.Bool(false), ledgertest.Cell(boc.NewCell())},
		},
		{
			name:   "withdraw data address is an int",
			decode: func(s ledger.Stack) error { _, err := staking.DecodeWithdrawData(s); return err },
			stack:  ledger.Stack{ledgertest.Int(5), ledgertest.Uint(1)},
		},
		{
			name:   "negative balance",
			decode: func(s ledger.Stack) error { _, err := staking.DecodeUpstreamBalance(s); return err },
			stack:  ledger.Stack{ledgertest.Int(-1)},
		},
		{
			name:   "wallet address none",
			decode: func(s ledger.Stack) error { _, err := staking.DecodeWalletAddress(s); return err },
			stack:  ledger.Stack{ledgertest.Address(nil)},
		},
		{
			name:   "null entry",
			decode: func(s ledger.Stack) error { _, err := staking.DecodeUpstreamBalance(s); return err },
			stack:  ledger.Stack{{Kind: ledger.KindNull}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.decode(tt.stack)
			require.Error(t, err)
			assert.True(t, failure.Is(err, failure.KindDecode), "got %v", err)
		})
	}
}

func TestDecodeUpstreamInfoWithoutWallet(t *testing.T) {
	d, err := staking.DecodeUpstreamInfo(ledger.Stack{ledgertest.Address(&minter), ledgertest.Address(nil)})
	require.NoError(t, err)
	require.NotNil(t, d.Minter)
	assert.Equal(t, minter, *d.Minter)
	assert.Nil(t, d.Wallet)
}

func TestContractSnapshot(t *testing.T) {
	sim := ledgertest.New()
	contractAddr := ledgertest.AccountID(0x55)
	wallet := ledgertest.AccountID(0x66)
	fake := &ledgertest.StakingContract{
		Address:          contractAddr,
		Admin:            alice,
		TotalSupply:      big.NewInt(100),
		Mintable:         true,
		Paused:           true,
		Price:            2_000_000_000,
		WithdrawAddress:  bob,
		MinWithdraw:      big.NewInt(3),
		UpstreamMinter:   minter,
		UpstreamWallet:   &wallet,
		KnownBalance:     big.NewInt(40),
		UpstreamBalances: map[ton.AccountID]*big.Int{wallet: big.NewInt(41)},
	}
	fake.Install(sim, 100, 5_000_000_000)

	snap, err := staking.NewContract(sim, contractAddr).Snapshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "100", snap.Jetton.TotalSupply.String())
	assert.True(t, snap.Staking.Paused)
	assert.Equal(t, uint64(2_000_000_000), snap.Staking.Price)
	assert.Equal(t, bob, *snap.Withdraw.Address)
	assert.Equal(t, "3", snap.Withdraw.MinWithdraw.String())
	assert.Equal(t, wallet, *snap.Upstream.Wallet)
	assert.Equal(t, "40", snap.KnownUpstream.String())
	require.NotNil(t, snap.LiveUpstream)
	assert.Equal(t, "41", snap.LiveUpstream.String())
	assert.Equal(t, uint64(5_000_000_000), snap.Balance)
}

func TestWalletAddressDerivation(t *testing.T) {
	sim := ledgertest.New()
	fake := &ledgertest.StakingContract{Address: ledgertest.AccountID(0x55), UpstreamMinter: minter}
	fake.Install(sim, 1, 0)

	got, err := staking.WalletAddress(context.Background(), sim, minter, alice)
	require.NoError(t, err)
	assert.Equal(t, ledgertest.UpstreamWalletOf(alice), got)
}

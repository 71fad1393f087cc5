package staking

import (
	"context"
	"fmt"
	"math/big"

	"github.com/tonkeeper/tongo/ton"

	"github.com/suspectuso/ton-staking-console/internal/ledger"
)

// Message values in nanoton, as the deployed contract expects them.
var (
	ValueSmall     = MustParseNano("0.1")
	ValueLarge     = MustParseNano("0.2")
	ValueStake     = MustParseNano("0.25")
	MintForwardTON = MustParseNano("0.05")
	MintTotalTON   = MustParseNano("0.1")
	StakeForward   = MustParseNano("0.2")
)

// Contract runs read-only queries against a staking minter. Every call hits the ledger.
type Contract struct {
	client  ledger.Reader
	Address ton.AccountID
}

// NewContract creates a Contract reading addr through client.
func NewContract(client ledger.Reader, addr ton.AccountID) *Contract {
	return &Contract{client: client, Address: addr}
}

// JettonData runs get_jetton_data.
func (c *Contract) JettonData(ctx context.Context) (JettonData, error) {
	stack, err := c.client.RunGetMethod(ctx, c.Address, "get_jetton_data")
	if err != nil {
		return JettonData{}, fmt.Errorf("get_jetton_data: %w", err)
	}
	return DecodeJettonData(stack)
}

// StakingData runs get_staking_data.
func (c *Contract) StakingData(ctx context.Context) (StakingData, error) {
	stack, err := c.client.RunGetMethod(ctx, c.Address, "get_staking_data")
	if err != nil {
		return StakingData{}, fmt.Errorf("get_staking_data: %w", err)
	}
	return DecodeStakingData(stack)
}

// WithdrawData runs get_withdraw_data.
func (c *Contract) WithdrawData(ctx context.Context) (WithdrawData, error) {
	stack, err := c.client.RunGetMethod(ctx, c.Address, "get_withdraw_data")
	if err != nil {
		return WithdrawData{}, fmt.Errorf("get_withdraw_data: %w", err)
	}
	return DecodeWithdrawData(stack)
}

// UpstreamInfo runs get_in_jetton_info.
func (c *Contract) UpstreamInfo(ctx context.Context) (UpstreamInfo, error) {
	stack, err := c.client.RunGetMethod(ctx, c.Address, "get_in_jetton_info")
	if err != nil {
		return UpstreamInfo{}, fmt.Errorf("get_in_jetton_info: %w", err)
	}
	return DecodeUpstreamInfo(stack)
}

// KnownUpstreamBalance is the upstream balance as last recorded by the contract.
func (c *Contract) KnownUpstreamBalance(ctx context.Context) (*big.Int, error) {
	stack, err := c.client.RunGetMethod(ctx, c.Address, "get_in_jetton_balance")
	if err != nil {
		return nil, fmt.Errorf("get_in_jetton_balance: %w", err)
	}
	return DecodeUpstreamBalance(stack)
}

// Balance returns the contract's own TON balance.
func (c *Contract) Balance(ctx context.Context) (uint64, error) {
	st, err := c.client.AccountState(ctx, c.Address)
	if err != nil {
		return 0, fmt.Errorf("account state: %w", err)
	}
	return st.Balance, nil
}

// WalletAddress asks a jetton minter for owner's wallet address.
func WalletAddress(ctx context.Context, client ledger.Reader, minter, owner ton.AccountID) (ton.AccountID, error) {
	stack, err := client.RunGetMethod(ctx, minter, "get_wallet_address", owner)
	if err != nil {
		return ton.AccountID{}, fmt.Errorf("get_wallet_address: %w", err)
	}
	return DecodeWalletAddress(stack)
}

// WalletBalance reads the live balance of a jetton wallet.
func WalletBalance(ctx context.Context, client ledger.Reader, wallet ton.AccountID) (*big.Int, error) {
	stack, err := client.RunGetMethod(ctx, wallet, "get_wallet_data")
	if err != nil {
		return nil, fmt.Errorf("get_wallet_data: %w", err)
	}
	d, err := DecodeWalletData(stack)
	if err != nil {
		return nil, err
	}
	return d.Balance, nil
}

// Snapshot is a point-in-time read of the whole contract state.
type Snapshot struct {
	Jetton        JettonData
	Staking       StakingData
	Withdraw      WithdrawData
	Upstream      UpstreamInfo
	KnownUpstream *big.Int
	LiveUpstream  *big.Int // nil when the upstream wallet is not set
	Balance       uint64   // nanoton
}

// Snapshot fetches every query. It is never cached.
func (c *Contract) Snapshot(ctx context.Context) (*Snapshot, error) {
	var (
		s   Snapshot
		err error
	)
	if s.Jetton, err = c.JettonData(ctx); err != nil {
		return nil, err
	}
	if s.Staking, err = c.StakingData(ctx); err != nil {
		return nil, err
	}
	if s.Withdraw, err = c.WithdrawData(ctx); err != nil {
		return nil, err
	}
	if s.Upstream, err = c.UpstreamInfo(ctx); err != nil {
		return nil, err
	}
	if s.KnownUpstream, err = c.KnownUpstreamBalance(ctx); err != nil {
		return nil, err
	}
	if s.Upstream.Wallet != nil {
		if s.LiveUpstream, err = WalletBalance(ctx, c.client, *s.Upstream.Wallet); err != nil {
			return nil, err
		}
	}
	if s.Balance, err = c.Balance(ctx); err != nil {
		return nil, err
	}
	return &s, nil
}

package action

import (
	"context"
	"fmt"
	"math/big"

	"github.com/tonkeeper/tongo/ton"

	"github.com/suspectuso/ton-staking-console/internal/failure"
	"github.com/suspectuso/ton-staking-console/internal/staking"
)

// Stake transfers upstream jettons from the operator's wallet into the contract.
func Stake() Action {
	return Action{Name: "Stake", Kind: staking.KindStake, collect: collectStake}
}

// collectStake resolves the operator's upstream jetton wallet before asking
// for anything; the transfer is sent there and confirmed on the contract.
func collectStake(ctx context.Context, s *Session) (*Plan, error) {
	if s.Operator == nil {
		return nil, failure.Precondition("stake", "no sender wallet configured")
	}
	info, err := s.Contract.UpstreamInfo(ctx)
	if err != nil {
		return nil, err
	}
	if info.Minter == nil {
		return nil, failure.Precondition("stake", "contract has no upstream minter")
	}
	wallet, err := staking.WalletAddress(ctx, s.Ledger, *info.Minter, *s.Operator)
	if err != nil {
		return nil, failure.Wrap(err, failure.KindPrecondition, "stake", "resolve operator jetton wallet")
	}

	amount, err := ask(ctx, s, func() (*big.Int, error) {
		return s.Prompt.Amount(ctx, "Jetton amount to stake")
	}, positive("stake amount"))
	if err != nil {
		return nil, err
	}

	var supplyBefore *big.Int
	return &Plan{
		Intent: staking.Stake{
			Amount:     amount,
			Contract:   s.Contract.Address,
			ResponseTo: s.Contract.Address,
			ForwardTON: staking.StakeForward,
		},
		To:      &wallet,
		Value:   staking.ValueStake,
		Summary: fmt.Sprintf("Staking %s jettons from %s", staking.FormatCoins(amount), s.human(wallet)),
		Before: func(ctx context.Context) error {
			jd, err := s.Contract.JettonData(ctx)
			if err != nil {
				return err
			}
			supplyBefore = jd.TotalSupply
			return nil
		},
		Verify: func(ctx context.Context) (string, error) {
			jd, err := s.Contract.JettonData(ctx)
			if err != nil {
				return "", err
			}
			if jd.TotalSupply.Cmp(supplyBefore) <= 0 {
				return "", failure.Postcondition("stake", "total supply did not increase (%s)", staking.FormatCoins(jd.TotalSupply))
			}
			return "Staking successful, you have received " + staking.FormatCoins(new(big.Int).Sub(jd.TotalSupply, supplyBefore)), nil
		},
	}, nil
}

// Info prints a snapshot of the contract. It sends nothing.
func Info() Action {
	return Action{Name: "Info", show: showInfo}
}

func showInfo(ctx context.Context, s *Session) error {
	snap, err := s.Contract.Snapshot(ctx)
	if err != nil {
		return err
	}
	for _, line := range InfoLines(snap, s.Testnet) {
		s.Prompt.Say("%s", line)
	}
	return nil
}

// InfoLines renders a snapshot for display.
func InfoLines(snap *staking.Snapshot, testnet bool) []string {
	addr := func(id *ton.AccountID) string {
		if id == nil {
			return "none"
		}
		return id.ToHuman(true, testnet)
	}

	lines := []string{
		"Jetton info:",
		"Admin: " + addr(snap.Jetton.Admin),
		"Total supply: " + staking.FormatCoins(snap.Jetton.TotalSupply),
		fmt.Sprintf("Mintable: %t", snap.Jetton.Mintable),
		"State: " + pausedText(snap.Staking.Paused),
		"Price: " + staking.FormatNano(snap.Staking.Price),
		"Contract balance: " + staking.FormatNano(snap.Balance) + " TON",
	}
	if uri, err := staking.ContentURI(snap.Jetton.Content); err == nil && uri != "" {
		lines = append(lines, "Content: "+uri)
	}
	lines = append(lines,
		"___________",
		"Withdraw info:",
		"Withdraw address: "+addr(snap.Withdraw.Address),
		"Withdraw minimum: "+staking.FormatCoins(snap.Withdraw.MinWithdraw),
		"___________",
		"In jetton info:",
		"In jetton minter address: "+addr(snap.Upstream.Minter),
		"In jetton wallet address: "+addr(snap.Upstream.Wallet),
		"Known in jetton balance: "+staking.FormatCoins(snap.KnownUpstream),
	)
	if snap.LiveUpstream != nil {
		lines = append(lines, "In jetton balance: "+staking.FormatCoins(snap.LiveUpstream))
	}
	return lines
}

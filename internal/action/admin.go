package action

import (
	"context"
	"fmt"
	"math/big"

	"github.com/tonkeeper/tongo/ton"

	"github.com/suspectuso/ton-staking-console/internal/failure"
	"github.com/suspectuso/ton-staking-console/internal/staking"
)

// Mint issues new staking jettons to an address of the operator's choice.
func Mint() Action {
	return Action{Name: "Mint", Kind: staking.KindMint, Admin: true, collect: collectMint}
}

func collectMint(ctx context.Context, s *Session) (*Plan, error) {
	fallback := s.Operator
	if fallback == nil {
		jd, err := s.Contract.JettonData(ctx)
		if err != nil {
			return nil, err
		}
		fallback = jd.Admin
	}
	to, err := s.Prompt.Address(ctx, "Address to mint to", fallback)
	if err != nil {
		return nil, err
	}
	amount, err := ask(ctx, s, func() (*big.Int, error) {
		return s.Prompt.Amount(ctx, "Mint amount")
	}, positive("mint amount"))
	if err != nil {
		return nil, err
	}

	var expected *big.Int
	return &Plan{
		Intent:  staking.Mint{To: to, Amount: amount, ForwardTON: staking.MintForwardTON, TotalTON: staking.MintTotalTON},
		Value:   staking.MintTotalTON + staking.ValueSmall,
		Summary: fmt.Sprintf("Mint %s tokens to %s", staking.FormatCoins(amount), s.human(to)),
		Before: func(ctx context.Context) error {
			jd, err := s.Contract.JettonData(ctx)
			if err != nil {
				return err
			}
			expected = new(big.Int).Add(jd.TotalSupply, amount)
			return nil
		},
		Verify: func(ctx context.Context) (string, error) {
			jd, err := s.Contract.JettonData(ctx)
			if err != nil {
				return "", err
			}
			if jd.TotalSupply.Cmp(expected) != 0 {
				return "", failure.Postcondition("mint", "total supply is %s, expected %s",
					staking.FormatCoins(jd.TotalSupply), staking.FormatCoins(expected))
			}
			return "Mint successful, current supply " + staking.FormatCoins(jd.TotalSupply), nil
		},
	}, nil
}

// ChangeAdmin hands the minter over to a new admin address.
func ChangeAdmin() Action {
	return Action{Name: "Change admin", Kind: staking.KindChangeAdmin, Admin: true, collect: collectChangeAdmin}
}

func collectChangeAdmin(ctx context.Context, s *Session) (*Plan, error) {
	jd, err := s.Contract.JettonData(ctx)
	if err != nil {
		return nil, err
	}
	newAdmin, err := ask(ctx, s, func() (ton.AccountID, error) {
		return s.Prompt.Address(ctx, "New admin address", nil)
	}, differsFrom(jd.Admin, "current admin address"))
	if err != nil {
		return nil, err
	}

	return &Plan{
		Intent:  staking.ChangeAdmin{NewAdmin: newAdmin},
		Value:   staking.ValueSmall,
		Summary: fmt.Sprintf("New admin address is going to be %s\nKindly double check it!", s.human(newAdmin)),
		Verify: func(ctx context.Context) (string, error) {
			jd, err := s.Contract.JettonData(ctx)
			if err != nil {
				return "", err
			}
			if jd.Admin == nil || *jd.Admin != newAdmin {
				return "", failure.Postcondition("change admin", "admin is %s", s.humanPtr(jd.Admin))
			}
			return "Admin changed successfully", nil
		},
	}, nil
}

// ChangeContent points the jetton metadata at a new off-chain URI.
func ChangeContent() Action {
	return Action{Name: "Change content", Kind: staking.KindChangeContent, Admin: true, collect: collectChangeContent}
}

func collectChangeContent(ctx context.Context, s *Session) (*Plan, error) {
	jd, err := s.Contract.JettonData(ctx)
	if err != nil {
		return nil, err
	}
	uri, err := ask(ctx, s, func() (string, error) {
		return s.Prompt.URL(ctx, "New content URI")
	}, func(uri string) error {
		same, err := contentMatches(jd, uri)
		if err != nil {
			return err
		}
		if same {
			return failure.Validation("change content", "URI matches the current content, pick another one")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &Plan{
		Intent:  staking.ChangeContent{URI: uri},
		Value:   staking.ValueSmall,
		Summary: fmt.Sprintf("New content is going to be %s\nKindly double check it!", uri),
		Verify: func(ctx context.Context) (string, error) {
			jd, err := s.Contract.JettonData(ctx)
			if err != nil {
				return "", err
			}
			same, err := contentMatches(jd, uri)
			if err != nil {
				return "", err
			}
			if !same {
				return "", failure.Postcondition("change content", "content was not replaced")
			}
			return "Content changed successfully", nil
		},
	}, nil
}

func contentMatches(jd staking.JettonData, uri string) (bool, error) {
	if jd.Content == nil {
		return false, nil
	}
	want, err := staking.ContentCell(uri)
	if err != nil {
		return false, err
	}
	return staking.SameCell(jd.Content, want)
}

// ChangeState pauses or resumes staking.
func ChangeState() Action {
	return Action{Name: "Change state", Kind: staking.KindChangeState, Admin: true, collect: collectChangeState}
}

func collectChangeState(ctx context.Context, s *Session) (*Plan, error) {
	sd, err := s.Contract.StakingData(ctx)
	if err != nil {
		return nil, err
	}
	paused, err := ask(ctx, s, func() (bool, error) {
		return s.Prompt.Bool(ctx, "New state, yes - pause, no - resume")
	}, func(v bool) error {
		if v == sd.Paused {
			return failure.Validation("change state", "state matches the current state, pick another one")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &Plan{
		Intent:  staking.ChangeState{Paused: paused},
		Value:   staking.ValueLarge,
		Summary: fmt.Sprintf("Staking is going to be %s", pausedText(paused)),
		Verify: func(ctx context.Context) (string, error) {
			sd, err := s.Contract.StakingData(ctx)
			if err != nil {
				return "", err
			}
			if sd.Paused != paused {
				return "", failure.Postcondition("change state", "staking is still %s", pausedText(sd.Paused))
			}
			return "Staking state changed successfully", nil
		},
	}, nil
}

func pausedText(paused bool) string {
	if paused {
		return "paused"
	}
	return "active"
}

// ChangePrice sets the staking price.
func ChangePrice() Action {
	return Action{Name: "Change price", Kind: staking.KindChangePrice, Admin: true, collect: collectChangePrice}
}

func collectChangePrice(ctx context.Context, s *Session) (*Plan, error) {
	sd, err := s.Contract.StakingData(ctx)
	if err != nil {
		return nil, err
	}
	v, err := ask(ctx, s, func() (*big.Int, error) {
		return s.Prompt.Amount(ctx, "New price")
	}, func(v *big.Int) error {
		if !v.IsUint64() {
			return failure.Validation("change price", "price %s does not fit 64 bits", staking.FormatCoins(v))
		}
		if v.Uint64() == sd.Price {
			return failure.Validation("amount", "value matches the current price, pick another one")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	price := v.Uint64()

	return &Plan{
		Intent:  staking.ChangePrice{Price: price},
		Value:   staking.ValueLarge,
		Summary: fmt.Sprintf("Change price to %s", staking.FormatNano(price)),
		Verify: func(ctx context.Context) (string, error) {
			sd, err := s.Contract.StakingData(ctx)
			if err != nil {
				return "", err
			}
			if sd.Price != price {
				return "", failure.Postcondition("change price", "price is %s", staking.FormatNano(sd.Price))
			}
			return "Change successful, current price " + staking.FormatNano(sd.Price), nil
		},
	}, nil
}

// ChangeWithdrawAddress sets where withdrawn jettons are sent.
func ChangeWithdrawAddress() Action {
	return Action{Name: "Change withdraw address", Kind: staking.KindChangeWithdrawAddress, Admin: true, collect: collectChangeWithdrawAddress}
}

func collectChangeWithdrawAddress(ctx context.Context, s *Session) (*Plan, error) {
	wd, err := s.Contract.WithdrawData(ctx)
	if err != nil {
		return nil, err
	}
	addr, err := ask(ctx, s, func() (ton.AccountID, error) {
		return s.Prompt.Address(ctx, "New withdraw address", nil)
	}, differsFrom(wd.Address, "current withdraw address"))
	if err != nil {
		return nil, err
	}

	return &Plan{
		Intent:  staking.ChangeWithdrawAddress{Address: addr},
		Value:   staking.ValueSmall,
		Summary: fmt.Sprintf("New withdraw address is going to be %s\nKindly double check it!", s.human(addr)),
		Verify: func(ctx context.Context) (string, error) {
			wd, err := s.Contract.WithdrawData(ctx)
			if err != nil {
				return "", err
			}
			if wd.Address == nil || *wd.Address != addr {
				return "", failure.Postcondition("change withdraw address", "withdraw address is %s", s.humanPtr(wd.Address))
			}
			return "Withdraw address changed successfully", nil
		},
	}, nil
}

// ChangeMinWithdraw sets the minimum auto-withdraw amount.
func ChangeMinWithdraw() Action {
	return Action{Name: "Change minimum withdraw", Kind: staking.KindChangeMinWithdraw, Admin: true, collect: collectChangeMinWithdraw}
}

func collectChangeMinWithdraw(ctx context.Context, s *Session) (*Plan, error) {
	wd, err := s.Contract.WithdrawData(ctx)
	if err != nil {
		return nil, err
	}
	amount, err := ask(ctx, s, func() (*big.Int, error) {
		return s.Prompt.Amount(ctx, "Minimum withdraw amount")
	}, differentAmount(wd.MinWithdraw, "current minimum withdraw"))
	if err != nil {
		return nil, err
	}

	return &Plan{
		Intent:  staking.ChangeMinWithdraw{Amount: amount},
		Value:   staking.ValueLarge,
		Summary: fmt.Sprintf("Change minimum withdraw to %s", staking.FormatCoins(amount)),
		Verify: func(ctx context.Context) (string, error) {
			wd, err := s.Contract.WithdrawData(ctx)
			if err != nil {
				return "", err
			}
			if wd.MinWithdraw.Cmp(amount) != 0 {
				return "", failure.Postcondition("change minimum withdraw", "minimum withdraw is %s", staking.FormatCoins(wd.MinWithdraw))
			}
			return "Change successful, current minimum auto-withdraw " + staking.FormatCoins(wd.MinWithdraw), nil
		},
	}, nil
}

// SetUpstreamWallet tells the contract its own upstream jetton wallet.
func SetUpstreamWallet() Action {
	return Action{Name: "Set jetton wallet address", Kind: staking.KindSetUpstreamWallet, Admin: true, collect: collectSetUpstreamWallet}
}

// collectSetUpstreamWallet needs no operator input: the wallet is derived from
// the upstream minter for the contract itself.
func collectSetUpstreamWallet(ctx context.Context, s *Session) (*Plan, error) {
	if s.Operator == nil {
		return nil, failure.Precondition("set jetton wallet", "no sender wallet configured")
	}
	info, err := s.Contract.UpstreamInfo(ctx)
	if err != nil {
		return nil, err
	}
	if info.Minter == nil {
		return nil, failure.Precondition("set jetton wallet", "contract has no upstream minter")
	}
	wallet, err := staking.WalletAddress(ctx, s.Ledger, *info.Minter, s.Contract.Address)
	if err != nil {
		return nil, failure.Wrap(err, failure.KindPrecondition, "set jetton wallet", "resolve contract jetton wallet")
	}

	return &Plan{
		Intent:  staking.SetUpstreamWallet{Wallet: wallet},
		Value:   staking.ValueSmall,
		Summary: fmt.Sprintf("Set jetton wallet address to %s (currently %s)", s.human(wallet), s.humanPtr(info.Wallet)),
		Verify: func(ctx context.Context) (string, error) {
			info, err := s.Contract.UpstreamInfo(ctx)
			if err != nil {
				return "", err
			}
			if info.Wallet == nil || *info.Wallet != wallet {
				return "", failure.Postcondition("set jetton wallet", "jetton wallet is %s", s.humanPtr(info.Wallet))
			}
			return "Change successful, current jetton wallet address " + s.human(wallet), nil
		},
	}, nil
}

// Withdraw moves upstream jettons out of the contract to its withdraw address.
func Withdraw() Action {
	return Action{Name: "Withdrawal", Kind: staking.KindWithdraw, Admin: true, collect: collectWithdraw}
}

func collectWithdraw(ctx context.Context, s *Session) (*Plan, error) {
	info, err := s.Contract.UpstreamInfo(ctx)
	if err != nil {
		return nil, err
	}
	if info.Wallet == nil {
		return nil, failure.Precondition("withdraw", "contract jetton wallet is not set")
	}
	live, err := staking.WalletBalance(ctx, s.Ledger, *info.Wallet)
	if err != nil {
		return nil, err
	}
	if live.Sign() == 0 {
		return nil, failure.Precondition("withdraw", "current contract jetton balance is 0, there is nothing to withdraw")
	}
	known, err := s.Contract.KnownUpstreamBalance(ctx)
	if err != nil {
		return nil, err
	}
	s.Prompt.Say("Current jetton wallet balance: %s", staking.FormatCoins(live))
	s.Prompt.Say("Current known jetton wallet balance: %s", staking.FormatCoins(known))

	amount, err := ask(ctx, s, func() (*big.Int, error) {
		return s.Prompt.Amount(ctx, "Amount to withdraw, 0 withdraws all known jettons")
	}, func(v *big.Int) error {
		if v.Cmp(known) > 0 {
			return failure.Validation("withdraw", "amount exceeds the known balance %s", staking.FormatCoins(known))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	summary := fmt.Sprintf("Withdrawing %s", staking.FormatCoins(amount))
	if amount.Sign() == 0 {
		summary = fmt.Sprintf("Withdrawing all known jettons (%s)", staking.FormatCoins(known))
	}

	var balanceBefore uint64
	return &Plan{
		// Zero goes out as is; the contract substitutes its known balance.
		Intent:  staking.Withdraw{Amount: amount},
		Value:   staking.ValueSmall,
		Summary: summary,
		Before: func(ctx context.Context) error {
			b, err := s.Contract.Balance(ctx)
			balanceBefore = b
			return err
		},
		Verify: func(ctx context.Context) (string, error) {
			after, err := s.Contract.Balance(ctx)
			if err != nil {
				return "", err
			}
			if after >= balanceBefore {
				return "", failure.Postcondition("withdraw", "contract balance did not decrease (%s TON)", staking.FormatNano(after))
			}
			return "Withdrawal successful, contract balance decreased by " + staking.FormatNano(balanceBefore-after) + " TON", nil
		},
	}, nil
}

func positive(field string) func(*big.Int) error {
	return func(v *big.Int) error {
		if v.Sign() <= 0 {
			return failure.Validation(field, "%s must be greater than zero", field)
		}
		return nil
	}
}

func differentAmount(current *big.Int, what string) func(*big.Int) error {
	return func(v *big.Int) error {
		if current != nil && v.Cmp(current) == 0 {
			return failure.Validation("amount", "value matches the %s, pick another one", what)
		}
		return nil
	}
}

func differsFrom(current *ton.AccountID, what string) func(ton.AccountID) error {
	return func(a ton.AccountID) error {
		if current != nil && a == *current {
			return failure.Validation("address", "address matches the %s, pick another one", what)
		}
		return nil
	}
}

package ledgertest

import (
	"fmt"
	"math/big"
	"sync"

	"github.com/tonkeeper/tongo/boc"
	"github.com/tonkeeper/tongo/tlb"
	"github.com/tonkeeper/tongo/ton"

	"github.com/suspectuso/ton-staking-console/internal/ledger"
)

// Behavior controls how the fake contract reacts to a delivered message.
type Behavior int

const (
	// Apply executes the message and records a transaction.
	Apply Behavior = iota
	// Reject records a transaction without changing state.
	Reject
	// Drop never produces a transaction.
	Drop
)

// StakingContract is a ledger-side fake of the staking minter and its upstream jetton.
type StakingContract struct {
	mu sync.Mutex

	Address         ton.AccountID
	Admin           ton.AccountID
	TotalSupply     *big.Int
	Mintable        bool
	Content         *boc.Cell
	Paused          bool
	Price           uint64
	WithdrawAddress ton.AccountID
	MinWithdraw     *big.Int
	UpstreamMinter  ton.AccountID
	UpstreamWallet  *ton.AccountID
	KnownBalance    *big.Int

	// UpstreamBalances holds live balances of upstream jetton wallets by wallet address.
	UpstreamBalances map[ton.AccountID]*big.Int

	// Delay is the number of polls of the contract account before a message lands.
	Delay    int
	Behavior Behavior

	Applied []uint32
}

const (
	opMint                  = 0x4fda1e51
	opChangeAdmin           = 0x4840664f
	opChangeContent         = 0x11067aba
	opChangeState           = 0x58ca5361
	opChangePrice           = 0xf4463799
	opChangeWithdrawAddress = 0x4f9d828b
	opChangeMinWithdraw     = 0x6f45070e
	opSetUpstreamWallet     = 0xd1735401
	opWithdraw              = 0x46ed2e94
	opJettonTransfer        = 0x0f8a7ea5
)

// UpstreamWalletOf derives the upstream jetton wallet address of owner.
func UpstreamWalletOf(owner ton.AccountID) ton.AccountID {
	w := owner
	for i := range w.Address {
		w.Address[i] ^= 0xA5
	}
	return w
}

// Install registers the contract's accounts and get-methods on sim and hooks broadcasts.
func (c *StakingContract) Install(sim *Sim, baseline uint64, balance uint64) {
	sim.SetAccount(c.Address, ledger.AccountState{Balance: balance, LastTxLt: baseline, Status: "active"})
	if c.UpstreamBalances == nil {
		c.UpstreamBalances = make(map[ton.AccountID]*big.Int)
	}

	sim.Handle(c.Address, "get_jetton_data", func([]ton.AccountID) (ledger.Stack, error) {
		c.mu.Lock()
		defer c.mu.Unlock()
		admin := c.Admin
		content := c.Content
		if content == nil {
			content = boc.NewCell()
		}
		return ledger.Stack{Big(c.TotalSupply), Bool(c.Mintable), Address(&admin), Cell(content), Cell(boc.NewCell())}, nil
	})
	sim.Handle(c.Address, "get_staking_data", func([]ton.AccountID) (ledger.Stack, error) {
		c.mu.Lock()
		defer c.mu.Unlock()
		return ledger.Stack{Bool(c.Paused), Uint(c.Price)}, nil
	})
	sim.Handle(c.Address, "get_withdraw_data", func([]ton.AccountID) (ledger.Stack, error) {
		c.mu.Lock()
		defer c.mu.Unlock()
		addr := c.WithdrawAddress
		return ledger.Stack{Address(&addr), Big(c.MinWithdraw)}, nil
	})
	sim.Handle(c.Address, "get_in_jetton_info", func([]ton.AccountID) (ledger.Stack, error) {
		c.mu.Lock()
		defer c.mu.Unlock()
		minter := c.UpstreamMinter
		return ledger.Stack{Address(&minter), Address(c.UpstreamWallet)}, nil
	})
	sim.Handle(c.Address, "get_in_jetton_balance", func([]ton.AccountID) (ledger.Stack, error) {
		c.mu.Lock()
		defer c.mu.Unlock()
		return ledger.Stack{Big(c.KnownBalance)}, nil
	})
	sim.Handle(c.UpstreamMinter, "get_wallet_address", func(args []ton.AccountID) (ledger.Stack, error) {
		if len(args) != 1 {
			return nil, fmt.Errorf("get_wallet_address: want 1 arg, got %d", len(args))
		}
		w := UpstreamWalletOf(args[0])
		c.installWallet(sim, w)
		return ledger.Stack{Address(&w)}, nil
	})
	if c.UpstreamWallet != nil {
		c.installWallet(sim, *c.UpstreamWallet)
	}

	sim.OnBroadcast = func(s *Sim, msg ledger.Message) {
		if c.Behavior == Drop {
			return
		}
		s.AfterPolls(c.Address, c.Delay, func(s *Sim) {
			var delta int64
			if c.Behavior == Apply {
				delta = c.apply(msg)
			}
			s.Transact(c.Address, delta)
		})
	}
}

func (c *StakingContract) installWallet(sim *Sim, w ton.AccountID) {
	sim.Handle(w, "get_wallet_data", func([]ton.AccountID) (ledger.Stack, error) {
		c.mu.Lock()
		defer c.mu.Unlock()
		minter := c.UpstreamMinter
		return ledger.Stack{Big(c.UpstreamBalances[w]), Address(nil), Address(&minter), Cell(boc.NewCell())}, nil
	})
}

func readAddress(body *boc.Cell) (ton.AccountID, error) {
	var addr tlb.MsgAddress
	if err := tlb.Unmarshal(body, &addr); err != nil {
		return ton.AccountID{}, err
	}
	id, err := ton.AccountIDFromTlb(addr)
	if err != nil {
		return ton.AccountID{}, err
	}
	if id == nil {
		return ton.AccountID{}, fmt.Errorf("addr_none")
	}
	return *id, nil
}

func readCoins(body *boc.Cell) (*big.Int, error) {
	var v tlb.VarUInteger16
	if err := tlb.Unmarshal(body, &v); err != nil {
		return nil, err
	}
	n := big.Int(v)
	return &n, nil
}

func add(a, b *big.Int) *big.Int {
	return new(big.Int).Add(orZero(a), b)
}

func orZero(v *big.Int) *big.Int {
	if v == nil {
		return new(big.Int)
	}
	return v
}

// apply executes msg and returns the contract's TON balance change.
func (c *StakingContract) apply(msg ledger.Message) int64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	body := msg.Body
	body.ResetCounters()
	op, err := body.ReadUint(32)
	if err != nil {
		return 0
	}
	if _, err := body.ReadUint(64); err != nil {
		return 0
	}
	c.Applied = append(c.Applied, uint32(op))

	switch op {
	case opMint:
		if _, err := readAddress(body); err != nil {
			return 0
		}
		amount, err := readCoins(body)
		if err != nil {
			return 0
		}
		c.TotalSupply = add(c.TotalSupply, amount)
	case opChangeAdmin:
		if a, err := readAddress(body); err == nil {
			c.Admin = a
		}
	case opChangeContent:
		if ref, err := body.NextRef(); err == nil {
			c.Content = ref
		}
	case opChangeState:
		if v, err := body.ReadBit(); err == nil {
			c.Paused = v
		}
	case opChangePrice:
		if v, err := body.ReadUint(64); err == nil {
			c.Price = v
		}
	case opChangeWithdrawAddress:
		if a, err := readAddress(body); err == nil {
			c.WithdrawAddress = a
		}
	case opChangeMinWithdraw:
		if v, err := readCoins(body); err == nil {
			c.MinWithdraw = v
		}
	case opSetUpstreamWallet:
		if a, err := readAddress(body); err == nil {
			c.UpstreamWallet = &a
		}
	case opWithdraw:
		amount, err := readCoins(body)
		if err != nil {
			return 0
		}
		known := orZero(c.KnownBalance)
		if amount.Sign() == 0 {
			amount = known
		}
		if amount.Cmp(known) > 0 {
			return 0
		}
		c.KnownBalance = new(big.Int).Sub(known, amount)
		return -50_000_000
	case opJettonTransfer:
		amount, err := readCoins(body)
		if err != nil {
			return 0
		}
		c.KnownBalance = add(c.KnownBalance, amount)
		c.TotalSupply = add(c.TotalSupply, amount)
	}
	return 0
}

// Package ledgertest provides an in-memory ledger for tests.
package ledgertest

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"

	"github.com/tonkeeper/tongo/boc"
	"github.com/tonkeeper/tongo/tlb"
	"github.com/tonkeeper/tongo/ton"

	"github.com/suspectuso/ton-staking-console/internal/ledger"
)

var ErrUnknownMethod = errors.New("get-method not registered")

// MethodFunc answers one get-method call.
type MethodFunc func(args []ton.AccountID) (ledger.Stack, error)

type scheduled struct {
	account ton.AccountID
	polls   int
	apply   func(s *Sim)
}

// Sim is a controllable ledger. The zero value is not usable; call New.
type Sim struct {
	mu       sync.Mutex
	head     uint32
	accounts map[ton.AccountID]ledger.AccountState
	methods  map[ton.AccountID]map[string]MethodFunc
	pending  []scheduled
	calls    map[ton.AccountID]int

	// OnBroadcast runs (without the lock held) after a message is recorded.
	OnBroadcast func(s *Sim, msg ledger.Message)
	// StateErr, when set, can fail the n-th AccountState call for an account.
	StateErr func(account ton.AccountID, n int) error

	Sent []ledger.Message
}

func New() *Sim {
	return &Sim{
		head:     1000,
		accounts: make(map[ton.AccountID]ledger.AccountState),
		methods:  make(map[ton.AccountID]map[string]MethodFunc),
		calls:    make(map[ton.AccountID]int),
	}
}

// SetAccount replaces the stored state of an account.
func (s *Sim) SetAccount(id ton.AccountID, st ledger.AccountState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accounts[id] = st
}

// Account returns the stored state of an account.
func (s *Sim) Account(id ton.AccountID) ledger.AccountState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.accounts[id]
}

// Transact advances the account's last transaction lt by one and adjusts its balance.
func (s *Sim) Transact(id ton.AccountID, balanceDelta int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.accounts[id]
	st.LastTxLt++
	st.Balance = uint64(int64(st.Balance) + balanceDelta)
	s.accounts[id] = st
	s.head++
}

// Handle registers a get-method on an account.
func (s *Sim) Handle(id ton.AccountID, method string, fn MethodFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.methods[id] == nil {
		s.methods[id] = make(map[string]MethodFunc)
	}
	s.methods[id][method] = fn
}

// AfterPolls runs apply once the account has been queried polls more times.
func (s *Sim) AfterPolls(id ton.AccountID, polls int, apply func(s *Sim)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = append(s.pending, scheduled{account: id, polls: polls, apply: apply})
}

// StateCalls reports how many times AccountState was called for id.
func (s *Sim) StateCalls(id ton.AccountID) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[id]
}

func (s *Sim) LatestBlock(ctx context.Context) (uint32, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.head, nil
}

func (s *Sim) AccountState(ctx context.Context, id ton.AccountID) (ledger.AccountState, error) {
	if err := ctx.Err(); err != nil {
		return ledger.AccountState{}, err
	}
	s.mu.Lock()
	s.calls[id]++
	n := s.calls[id]
	var due []func(*Sim)
	rest := s.pending[:0]
	for _, p := range s.pending {
		if p.account == id {
			p.polls--
			if p.polls <= 0 {
				due = append(due, p.apply)
				continue
			}
		}
		rest = append(rest, p)
	}
	s.pending = rest
	hook := s.StateErr
	s.mu.Unlock()

	for _, apply := range due {
		apply(s)
	}
	if hook != nil {
		if err := hook(id, n); err != nil {
			return ledger.AccountState{}, err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.accounts[id]
	if !ok {
		return ledger.AccountState{Status: "nonexist"}, nil
	}
	return st, nil
}

func (s *Sim) RunGetMethod(ctx context.Context, id ton.AccountID, method string, args ...ton.AccountID) (ledger.Stack, error) {
	s.mu.Lock()
	fn := s.methods[id][method]
	s.mu.Unlock()
	if fn == nil {
		return nil, fmt.Errorf("%s on %s: %w", method, id.String(), ErrUnknownMethod)
	}
	return fn(args)
}

func (s *Sim) Broadcast(ctx context.Context, msg ledger.Message) error {
	s.mu.Lock()
	s.Sent = append(s.Sent, msg)
	hook := s.OnBroadcast
	s.mu.Unlock()
	if hook != nil {
		hook(s, msg)
	}
	return nil
}

// Int builds an integer stack entry.
func Int(v int64) ledger.Value {
	return ledger.IntValue(big.NewInt(v))
}

// Uint builds an integer stack entry from an unsigned value.
func Uint(v uint64) ledger.Value {
	return ledger.IntValue(new(big.Int).SetUint64(v))
}

// Big builds an integer stack entry from a copy of v; nil gives zero.
func Big(v *big.Int) ledger.Value {
	if v == nil {
		return Int(0)
	}
	return ledger.IntValue(new(big.Int).Set(v))
}

// Bool builds a TVM boolean (-1 or 0).
func Bool(v bool) ledger.Value {
	if v {
		return Int(-1)
	}
	return Int(0)
}

// Address builds a slice entry holding a MsgAddress; nil gives addr_none.
func Address(id *ton.AccountID) ledger.Value {
	c := boc.NewCell()
	if id == nil {
		_ = c.WriteUint(0, 2)
		return ledger.SliceValue(c)
	}
	if err := tlb.Marshal(c, id.ToMsgAddress()); err != nil {
		panic(err)
	}
	return ledger.SliceValue(c)
}

// Cell builds a cell entry.
func Cell(c *boc.Cell) ledger.Value {
	return ledger.CellValue(c)
}

// AccountID derives a deterministic test address from a seed byte.
func AccountID(seed byte) ton.AccountID {
	var id ton.AccountID
	id.Workchain = 0
	for i := range id.Address {
		id.Address[i] = seed
	}
	return id
}

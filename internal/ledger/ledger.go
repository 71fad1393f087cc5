package ledger

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/tonkeeper/tongo/boc"
	"github.com/tonkeeper/tongo/ton"
)

var ErrNoSender = errors.New("no operator wallet configured")

// ModePayGasSeparately is the send mode used for every operator message.
const ModePayGasSeparately uint8 = 1

// AccountState is the part of an account the console cares about.
type AccountState struct {
	Balance  uint64 // nanoton
	LastTxLt uint64 // 0 when the account never transacted
	Status   string // active, uninit, frozen, nonexist
}

// HasHistory reports whether the account has at least one transaction.
func (s AccountState) HasHistory() bool {
	return s.LastTxLt != 0
}

// Message is an internal message the operator wallet should deliver.
type Message struct {
	To    ton.AccountID
	Body  *boc.Cell
	Value uint64 // nanoton
	Mode  uint8
}

// Reader is the read-only half of the ledger surface.
type Reader interface {
	LatestBlock(ctx context.Context) (uint32, error)
	AccountState(ctx context.Context, account ton.AccountID) (AccountState, error)
	RunGetMethod(ctx context.Context, account ton.AccountID, method string, args ...ton.AccountID) (Stack, error)
}

// Broadcaster delivers a message without waiting for its execution.
type Broadcaster interface {
	Broadcast(ctx context.Context, msg Message) error
}

// Client is the full ledger surface consumed by the console.
type Client interface {
	Reader
	Broadcaster
}

type combined struct {
	Reader
	sender Broadcaster
}

// Combine joins a read backend with a sender. sender may be nil for read-only sessions.
func Combine(r Reader, sender Broadcaster) Client {
	return &combined{Reader: r, sender: sender}
}

func (c *combined) Broadcast(ctx context.Context, msg Message) error {
	if c.sender == nil {
		return ErrNoSender
	}
	return c.sender.Broadcast(ctx, msg)
}

// ValueKind tags a get-method stack entry.
type ValueKind int

const (
	KindNull ValueKind = iota
	KindInt
	KindCell
	KindSlice
)

func (k ValueKind) String() string {
	switch k {
	case KindInt:
		return "int"
	case KindCell:
		return "cell"
	case KindSlice:
		return "slice"
	default:
		return "null"
	}
}

// Value is one entry of a get-method result stack.
type Value struct {
	Kind ValueKind
	Int  *big.Int
	Cell *boc.Cell // also set for slices
}

func IntValue(v *big.Int) Value {
	return Value{Kind: KindInt, Int: v}
}

func CellValue(c *boc.Cell) Value {
	return Value{Kind: KindCell, Cell: c}
}

func SliceValue(c *boc.Cell) Value {
	return Value{Kind: KindSlice, Cell: c}
}

// Stack is a get-method result, top of stack last as returned by the ledger.
type Stack []Value

// Expect checks the stack length.
func (s Stack) Expect(n int) error {
	if len(s) != n {
		return fmt.Errorf("stack has %d entries, want %d", len(s), n)
	}
	return nil
}

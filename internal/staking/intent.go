package staking

import (
	"fmt"
	"math/big"

	"github.com/tonkeeper/tongo/boc"
	"github.com/tonkeeper/tongo/tlb"
	"github.com/tonkeeper/tongo/ton"
)

// Intent describes one desired state change before encoding.
type Intent interface {
	Kind() Kind
	writePayload(c *boc.Cell) error
}

type Mint struct {
	To         ton.AccountID
	Amount     *big.Int // jetton units
	ForwardTON uint64   // nanoton forwarded to the receiver's wallet
	TotalTON   uint64   // nanoton attached to the internal transfer
}

type ChangeAdmin struct {
	NewAdmin ton.AccountID
}

type ChangeContent struct {
	URI string
}

type ChangeState struct {
	Paused bool
}

type ChangePrice struct {
	Price uint64
}

type ChangeWithdrawAddress struct {
	Address ton.AccountID
}

type ChangeMinWithdraw struct {
	Amount *big.Int
}

type SetUpstreamWallet struct {
	Wallet ton.AccountID
}

// Withdraw with a zero or nil Amount asks the contract to withdraw everything it knows about.
type Withdraw struct {
	Amount *big.Int
}

// Stake is a jetton transfer from the operator's upstream wallet into the contract.
type Stake struct {
	Amount     *big.Int // upstream jetton units
	Contract   ton.AccountID
	ResponseTo ton.AccountID
	ForwardTON uint64
}

func (Mint) Kind() Kind                  { return KindMint }
func (ChangeAdmin) Kind() Kind           { return KindChangeAdmin }
func (ChangeContent) Kind() Kind         { return KindChangeContent }
func (ChangeState) Kind() Kind           { return KindChangeState }
func (ChangePrice) Kind() Kind           { return KindChangePrice }
func (ChangeWithdrawAddress) Kind() Kind { return KindChangeWithdrawAddress }
func (ChangeMinWithdraw) Kind() Kind     { return KindChangeMinWithdraw }
func (SetUpstreamWallet) Kind() Kind     { return KindSetUpstreamWallet }
func (Withdraw) Kind() Kind              { return KindWithdraw }
func (Stake) Kind() Kind                 { return KindStake }

// Encode builds the message body for intent: op tag, zero query id, then the payload.
func Encode(intent Intent) (*boc.Cell, error) {
	c := boc.NewCell()
	if err := c.WriteUint(uint64(intent.Kind().Tag()), 32); err != nil {
		return nil, fmt.Errorf("write op: %w", err)
	}
	if err := c.WriteUint(0, 64); err != nil {
		return nil, fmt.Errorf("write query id: %w", err)
	}
	if err := intent.writePayload(c); err != nil {
		return nil, fmt.Errorf("encode %s: %w", intent.Kind(), err)
	}
	return c, nil
}

func writeAddress(c *boc.Cell, a ton.AccountID) error {
	return tlb.Marshal(c, a.ToMsgAddress())
}

// writeCoins stores v as VarUInteger 16; nil is zero.
func writeCoins(c *boc.Cell, v *big.Int) error {
	if v == nil {
		v = new(big.Int)
	}
	if v.Sign() < 0 || v.BitLen() > maxCoinsBits {
		return fmt.Errorf("coins value %s out of range", v)
	}
	n := tlb.VarUInteger16(*v)
	return tlb.Marshal(c, &n)
}

func writeNano(c *boc.Cell, v uint64) error {
	return tlb.Marshal(c, tlb.Grams(v))
}

func (m Mint) writePayload(c *boc.Cell) error {
	if err := writeAddress(c, m.To); err != nil {
		return err
	}
	if err := writeCoins(c, m.Amount); err != nil {
		return err
	}
	if err := writeNano(c, m.ForwardTON); err != nil {
		return err
	}
	return writeNano(c, m.TotalTON)
}

func (m ChangeAdmin) writePayload(c *boc.Cell) error {
	return writeAddress(c, m.NewAdmin)
}

func (m ChangeContent) writePayload(c *boc.Cell) error {
	content, err := ContentCell(m.URI)
	if err != nil {
		return err
	}
	return c.AddRef(content)
}

func (m ChangeState) writePayload(c *boc.Cell) error {
	return c.WriteBit(m.Paused)
}

func (m ChangePrice) writePayload(c *boc.Cell) error {
	return c.WriteUint(m.Price, 64)
}

func (m ChangeWithdrawAddress) writePayload(c *boc.Cell) error {
	return writeAddress(c, m.Address)
}

func (m ChangeMinWithdraw) writePayload(c *boc.Cell) error {
	return writeCoins(c, m.Amount)
}

func (m SetUpstreamWallet) writePayload(c *boc.Cell) error {
	return writeAddress(c, m.Wallet)
}

func (m Withdraw) writePayload(c *boc.Cell) error {
	return writeCoins(c, m.Amount)
}

func (m Stake) writePayload(c *boc.Cell) error {
	if err := writeCoins(c, m.Amount); err != nil {
		return err
	}
	if err := writeAddress(c, m.Contract); err != nil {
		return err
	}
	if err := writeAddress(c, m.ResponseTo); err != nil {
		return err
	}
	// custom_payload: present, empty cell
	if err := c.WriteBit(true); err != nil {
		return err
	}
	if err := c.AddRef(boc.NewCell()); err != nil {
		return err
	}
	if err := writeNano(c, m.ForwardTON); err != nil {
		return err
	}
	notify := boc.NewCell()
	if err := notify.WriteUint(uint64(OpStakeNotification), 32); err != nil {
		return err
	}
	if err := c.WriteBit(true); err != nil {
		return err
	}
	return c.AddRef(notify)
}

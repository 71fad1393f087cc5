package staking

import (
	"math/big"

	"github.com/tonkeeper/tongo/boc"
	"github.com/tonkeeper/tongo/tlb"
	"github.com/tonkeeper/tongo/ton"

	"github.com/suspectuso/ton-staking-console/internal/failure"
	"github.com/suspectuso/ton-staking-console/internal/ledger"
)

// JettonData is the result of get_jetton_data.
type JettonData struct {
	TotalSupply *big.Int
	Mintable    bool
	Admin       *ton.AccountID
	Content     *boc.Cell
	WalletCode  *boc.Cell
}

// StakingData is the result of get_staking_data.
type StakingData struct {
	Paused bool
	Price  uint64
}

// WithdrawData is the result of get_withdraw_data.
type WithdrawData struct {
	Address     *ton.AccountID
	MinWithdraw *big.Int
}

// UpstreamInfo is the result of get_in_jetton_info. Wallet is nil until the
// contract has been told its own upstream wallet.
type UpstreamInfo struct {
	Minter *ton.AccountID
	Wallet *ton.AccountID
}

// WalletData is the result of get_wallet_data on a jetton wallet.
type WalletData struct {
	Balance *big.Int
	Owner   *ton.AccountID
	Master  *ton.AccountID
}

type stackReader struct {
	method string
	stack  ledger.Stack
}

func newStackReader(method string, stack ledger.Stack, want int) (*stackReader, error) {
	if err := stack.Expect(want); err != nil {
		return nil, failure.Wrap(err, failure.KindDecode, method, "unexpected stack shape")
	}
	return &stackReader{method: method, stack: stack}, nil
}

func (r *stackReader) entry(i int, field string, kinds ...ledger.ValueKind) (ledger.Value, error) {
	v := r.stack[i]
	for _, k := range kinds {
		if v.Kind == k {
			return v, nil
		}
	}
	return ledger.Value{}, failure.Decode(r.method, "%s: got %s, want %s", field, v.Kind, kinds[0])
}

func (r *stackReader) bigInt(i int, field string) (*big.Int, error) {
	v, err := r.entry(i, field, ledger.KindInt)
	if err != nil {
		return nil, err
	}
	if v.Int == nil {
		return nil, failure.Decode(r.method, "%s: empty integer", field)
	}
	return v.Int, nil
}

// number reads a non-negative integer of any width.
func (r *stackReader) number(i int, field string) (*big.Int, error) {
	n, err := r.bigInt(i, field)
	if err != nil {
		return nil, err
	}
	if n.Sign() < 0 {
		return nil, failure.Decode(r.method, "%s: %s is negative", field, n)
	}
	return n, nil
}

// fixed64 reads a field stored as uint64 in the contract data.
func (r *stackReader) fixed64(i int, field string) (uint64, error) {
	n, err := r.number(i, field)
	if err != nil {
		return 0, err
	}
	if !n.IsUint64() {
		return 0, failure.Decode(r.method, "%s: %s out of range", field, n)
	}
	return n.Uint64(), nil
}

func (r *stackReader) flag(i int, field string) (bool, error) {
	n, err := r.bigInt(i, field)
	if err != nil {
		return false, err
	}
	return n.Sign() != 0, nil
}

func (r *stackReader) cell(i int, field string) (*boc.Cell, error) {
	v, err := r.entry(i, field, ledger.KindCell, ledger.KindSlice)
	if err != nil {
		return nil, err
	}
	if v.Cell == nil {
		return nil, failure.Decode(r.method, "%s: empty cell", field)
	}
	return v.Cell, nil
}

// address reads a slice holding a MsgAddress; addr_none yields nil.
func (r *stackReader) address(i int, field string) (*ton.AccountID, error) {
	v, err := r.entry(i, field, ledger.KindSlice, ledger.KindCell)
	if err != nil {
		return nil, err
	}
	if v.Cell == nil {
		return nil, failure.Decode(r.method, "%s: empty slice", field)
	}
	v.Cell.ResetCounters()
	var addr tlb.MsgAddress
	if err := tlb.Unmarshal(v.Cell, &addr); err != nil {
		return nil, failure.Wrap(err, failure.KindDecode, r.method, field)
	}
	id, err := ton.AccountIDFromTlb(addr)
	if err != nil {
		return nil, failure.Wrap(err, failure.KindDecode, r.method, field)
	}
	return id, nil
}

// DecodeJettonData decodes the get_jetton_data stack.
func DecodeJettonData(stack ledger.Stack) (JettonData, error) {
	r, err := newStackReader("get_jetton_data", stack, 5)
	if err != nil {
		return JettonData{}, err
	}
	var d JettonData
	if d.TotalSupply, err = r.number(0, "total_supply"); err != nil {
		return JettonData{}, err
	}
	if d.Mintable, err = r.flag(1, "mintable"); err != nil {
		return JettonData{}, err
	}
	if d.Admin, err = r.address(2, "admin"); err != nil {
		return JettonData{}, err
	}
	if d.Content, err = r.cell(3, "content"); err != nil {
		return JettonData{}, err
	}
	if d.WalletCode, err = r.cell(4, "wallet_code"); err != nil {
		return JettonData{}, err
	}
	return d, nil
}

// DecodeStakingData decodes the get_staking_data stack. A non-zero state means paused.
func DecodeStakingData(stack ledger.Stack) (StakingData, error) {
	r, err := newStackReader("get_staking_data", stack, 2)
	if err != nil {
		return StakingData{}, err
	}
	var d StakingData
	if d.Paused, err = r.flag(0, "state"); err != nil {
		return StakingData{}, err
	}
	if d.Price, err = r.fixed64(1, "price"); err != nil {
		return StakingData{}, err
	}
	return d, nil
}

// DecodeWithdrawData decodes the get_withdraw_data stack.
func DecodeWithdrawData(stack ledger.Stack) (WithdrawData, error) {
	r, err := newStackReader("get_withdraw_data", stack, 2)
	if err != nil {
		return WithdrawData{}, err
	}
	var d WithdrawData
	if d.Address, err = r.address(0, "withdraw_address"); err != nil {
		return WithdrawData{}, err
	}
	if d.MinWithdraw, err = r.number(1, "min_withdraw"); err != nil {
		return WithdrawData{}, err
	}
	return d, nil
}

// DecodeUpstreamInfo decodes the get_in_jetton_info stack.
func DecodeUpstreamInfo(stack ledger.Stack) (UpstreamInfo, error) {
	r, err := newStackReader("get_in_jetton_info", stack, 2)
	if err != nil {
		return UpstreamInfo{}, err
	}
	var d UpstreamInfo
	if d.Minter, err = r.address(0, "minter"); err != nil {
		return UpstreamInfo{}, err
	}
	if d.Wallet, err = r.address(1, "wallet"); err != nil {
		return UpstreamInfo{}, err
	}
	return d, nil
}

// DecodeUpstreamBalance decodes the get_in_jetton_balance stack.
func DecodeUpstreamBalance(stack ledger.Stack) (*big.Int, error) {
	r, err := newStackReader("get_in_jetton_balance", stack, 1)
	if err != nil {
		return nil, err
	}
	return r.number(0, "balance")
}

// DecodeWalletAddress decodes the get_wallet_address stack. addr_none is an error.
func DecodeWalletAddress(stack ledger.Stack) (ton.AccountID, error) {
	r, err := newStackReader("get_wallet_address", stack, 1)
	if err != nil {
		return ton.AccountID{}, err
	}
	addr, err := r.address(0, "wallet")
	if err != nil {
		return ton.AccountID{}, err
	}
	if addr == nil {
		return ton.AccountID{}, failure.Decode(r.method, "wallet: addr_none")
	}
	return *addr, nil
}

// DecodeWalletData decodes the get_wallet_data stack of a jetton wallet.
func DecodeWalletData(stack ledger.Stack) (WalletData, error) {
	r, err := newStackReader("get_wallet_data", stack, 4)
	if err != nil {
		return WalletData{}, err
	}
	var d WalletData
	if d.Balance, err = r.number(0, "balance"); err != nil {
		return WalletData{}, err
	}
	if d.Owner, err = r.address(1, "owner"); err != nil {
		return WalletData{}, err
	}
	if d.Master, err = r.address(2, "master"); err != nil {
		return WalletData{}, err
	}
	if _, err = r.cell(3, "wallet_code"); err != nil {
		return WalletData{}, err
	}
	return d, nil
}

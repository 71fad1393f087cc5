package staking

import "fmt"

// Op tags understood by the staking minter and the upstream jetton wallet.
// Tags are wire constants: never renumber or reuse one.
const (
	OpMint                  uint32 = 0x4fda1e51
	OpChangeAdmin           uint32 = 0x4840664f
	OpChangeContent         uint32 = 0x11067aba
	OpChangeState           uint32 = 0x58ca5361
	OpChangePrice           uint32 = 0xf4463799
	OpChangeWithdrawAddress uint32 = 0x4f9d828b
	OpChangeMinWithdraw     uint32 = 0x6f45070e
	OpSetUpstreamWallet     uint32 = 0xd1735401
	OpWithdraw              uint32 = 0x46ed2e94
	OpJettonTransfer        uint32 = 0x0f8a7ea5

	// OpStakeNotification travels in the forward payload of a stake transfer.
	OpStakeNotification uint32 = 0xc89a3ee4
)

// Kind identifies one administrative or user operation.
type Kind int

const (
	KindMint Kind = iota + 1
	KindChangeAdmin
	KindChangeContent
	KindChangeState
	KindChangePrice
	KindChangeWithdrawAddress
	KindChangeMinWithdraw
	KindSetUpstreamWallet
	KindWithdraw
	KindStake
)

type opInfo struct {
	tag  uint32
	name string
}

// catalog is the single authoritative kind -> tag mapping.
var catalog = map[Kind]opInfo{
	KindMint:                  {OpMint, "mint"},
	KindChangeAdmin:           {OpChangeAdmin, "change_admin"},
	KindChangeContent:         {OpChangeContent, "change_content"},
	KindChangeState:           {OpChangeState, "change_state"},
	KindChangePrice:           {OpChangePrice, "change_price"},
	KindChangeWithdrawAddress: {OpChangeWithdrawAddress, "change_withdraw_address"},
	KindChangeMinWithdraw:     {OpChangeMinWithdraw, "change_min_withdraw"},
	KindSetUpstreamWallet:     {OpSetUpstreamWallet, "set_upstream_wallet"},
	KindWithdraw:              {OpWithdraw, "withdraw"},
	KindStake:                 {OpJettonTransfer, "stake"},
}

// Kinds returns every known kind in declaration order.
func Kinds() []Kind {
	kinds := make([]Kind, 0, len(catalog))
	for k := KindMint; k <= KindStake; k++ {
		kinds = append(kinds, k)
	}
	return kinds
}

// Tag returns the wire op code of k.
func (k Kind) Tag() uint32 {
	return catalog[k].tag
}

func (k Kind) String() string {
	if info, ok := catalog[k]; ok {
		return info.name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// ParseKind resolves a kind by its snake_case name.
func ParseKind(name string) (Kind, error) {
	for k, info := range catalog {
		if info.name == name {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown operation %q", name)
}

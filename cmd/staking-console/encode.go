package main

import (
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/tonkeeper/tongo/ton"

	"github.com/suspectuso/ton-staking-console/internal/staking"
)

const encodeUsage = `Print the message body of an operation as a base64 BoC.

Operations and arguments (amounts in coins, up to 9 decimals):
  mint <to> <amount>
  change_admin <address>
  change_content <uri>
  change_state <paused: true|false>
  change_price <price>
  change_withdraw_address <address>
  change_min_withdraw <amount>
  set_upstream_wallet <address>
  withdraw <amount>            0 withdraws everything known
  stake <amount> <contract>`

func runEncode(cmd *cobra.Command, args []string) error {
	kind, err := staking.ParseKind(args[0])
	if err != nil {
		kinds := staking.Kinds()
		names := make([]string, 0, len(kinds))
		for _, k := range kinds {
			names = append(names, k.String())
		}
		return fmt.Errorf("%w, expected one of: %s", err, strings.Join(names, ", "))
	}
	intent, err := intentFromArgs(kind, args[1:])
	if err != nil {
		return err
	}

	body, err := staking.Encode(intent)
	if err != nil {
		return err
	}
	raw, err := body.ToBoc()
	if err != nil {
		return fmt.Errorf("serialize: %w", err)
	}
	hash, err := body.Hash()
	if err != nil {
		return fmt.Errorf("hash: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "op:   %s (0x%08x)\n", kind, kind.Tag())
	fmt.Fprintf(out, "hash: %s\n", hex.EncodeToString(hash))
	fmt.Fprintf(out, "boc:  %s\n", base64.StdEncoding.EncodeToString(raw))
	return nil
}

func intentFromArgs(kind staking.Kind, args []string) (staking.Intent, error) {
	want := map[staking.Kind]int{
		staking.KindMint:  2,
		staking.KindStake: 2,
	}[kind]
	if want == 0 {
		want = 1
	}
	if len(args) != want {
		return nil, fmt.Errorf("%s takes %d argument(s), got %d", kind, want, len(args))
	}

	switch kind {
	case staking.KindMint:
		to, err := parseAddress(args[0])
		if err != nil {
			return nil, err
		}
		amount, err := staking.ParseCoins(args[1])
		if err != nil {
			return nil, err
		}
		return staking.Mint{To: to, Amount: amount, ForwardTON: staking.MintForwardTON, TotalTON: staking.MintTotalTON}, nil
	case staking.KindChangeAdmin:
		a, err := parseAddress(args[0])
		return staking.ChangeAdmin{NewAdmin: a}, err
	case staking.KindChangeContent:
		return staking.ChangeContent{URI: args[0]}, nil
	case staking.KindChangeState:
		paused, err := strconv.ParseBool(args[0])
		if err != nil {
			return nil, fmt.Errorf("parse state: %w", err)
		}
		return staking.ChangeState{Paused: paused}, nil
	case staking.KindChangePrice:
		v, err := staking.ParseNano(args[0])
		return staking.ChangePrice{Price: v}, err
	case staking.KindChangeWithdrawAddress:
		a, err := parseAddress(args[0])
		return staking.ChangeWithdrawAddress{Address: a}, err
	case staking.KindChangeMinWithdraw:
		v, err := staking.ParseCoins(args[0])
		return staking.ChangeMinWithdraw{Amount: v}, err
	case staking.KindSetUpstreamWallet:
		a, err := parseAddress(args[0])
		return staking.SetUpstreamWallet{Wallet: a}, err
	case staking.KindWithdraw:
		v, err := staking.ParseCoins(args[0])
		return staking.Withdraw{Amount: v}, err
	case staking.KindStake:
		amount, err := staking.ParseCoins(args[0])
		if err != nil {
			return nil, err
		}
		contract, err := parseAddress(args[1])
		if err != nil {
			return nil, err
		}
		return staking.Stake{Amount: amount, Contract: contract, ResponseTo: contract, ForwardTON: staking.StakeForward}, nil
	}
	return nil, fmt.Errorf("unsupported operation %s", kind)
}

func parseAddress(s string) (ton.AccountID, error) {
	id, err := ton.ParseAccountID(s)
	if err != nil {
		return ton.AccountID{}, fmt.Errorf("parse address %q: %w", s, err)
	}
	return id, nil
}

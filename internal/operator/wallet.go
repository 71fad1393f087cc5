package operator

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/tonkeeper/tongo/liteapi"
	"github.com/tonkeeper/tongo/tlb"
	"github.com/tonkeeper/tongo/ton"
	"github.com/tonkeeper/tongo/wallet"

	"github.com/suspectuso/ton-staking-console/internal/ledger"
)

type sender interface {
	Send(ctx context.Context, messages ...wallet.Sendable) error
	GetAddress() ton.AccountID
}

// Wallet signs and broadcasts operator messages through a liteserver.
type Wallet struct {
	w   sender
	log *slog.Logger
}

var _ ledger.Broadcaster = (*Wallet)(nil)

// ParseVersion maps a configured wallet version to tongo's.
func ParseVersion(v string) (wallet.Version, error) {
	switch strings.ToLower(v) {
	case "v3r2":
		return wallet.V3R2, nil
	case "v4r2":
		return wallet.V4R2, nil
	default:
		return 0, fmt.Errorf("unsupported wallet version %q", v)
	}
}

// Open derives the wallet from words and connects to the public liteservers.
func Open(words []string, version string, testnet bool, log *slog.Logger) (*Wallet, error) {
	ver, err := ParseVersion(version)
	if err != nil {
		return nil, err
	}
	pk, err := wallet.SeedToPrivateKey(strings.Join(words, " "))
	if err != nil {
		return nil, fmt.Errorf("private key: %w", err)
	}

	var client *liteapi.Client
	if testnet {
		client, err = liteapi.NewClientWithDefaultTestnet()
	} else {
		client, err = liteapi.NewClientWithDefaultMainnet()
	}
	if err != nil {
		return nil, fmt.Errorf("connect liteserver: %w", err)
	}

	w, err := wallet.New(pk, ver, client)
	if err != nil {
		return nil, fmt.Errorf("open wallet: %w", err)
	}
	return &Wallet{w: &w, log: log}, nil
}

// Address is the operator's account.
func (w *Wallet) Address() ton.AccountID {
	return w.w.GetAddress()
}

// Broadcast sends msg as an internal message from the operator wallet.
func (w *Wallet) Broadcast(ctx context.Context, msg ledger.Message) error {
	err := w.w.Send(ctx, wallet.Message{
		Amount:  tlb.Grams(msg.Value),
		Address: msg.To,
		Body:    msg.Body,
		Bounce:  true,
		Mode:    msg.Mode,
	})
	if err != nil {
		return fmt.Errorf("send from %s: %w", w.Address().String(), err)
	}
	w.log.Info("message broadcast", "to", msg.To.String(), "value", msg.Value)
	return nil
}

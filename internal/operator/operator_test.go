package operator

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tonkeeper/tongo/boc"
	"github.com/tonkeeper/tongo/ton"
	"github.com/tonkeeper/tongo/wallet"

	"github.com/suspectuso/ton-staking-console/internal/ledger"
)

var mnemonic = strings.TrimSpace(strings.Repeat("abandon ", 23) + "art")

func source(configured string, terminal bool, typed string, readErr error) (*MnemonicSource, *int) {
	reads := 0
	return &MnemonicSource{
		configured: configured,
		isTerminal: func() bool { return terminal },
		readSecret: func() ([]byte, error) {
			reads++
			return []byte(typed), readErr
		},
		prompt: io.Discard,
	}, &reads
}

func TestMnemonicFromConfig(t *testing.T) {
	s, reads := source(mnemonic, true, "", nil)
	words, err := s.Get()
	require.NoError(t, err)
	assert.Len(t, words, 24)
	assert.Zero(t, *reads)
}

func TestMnemonicPromptedOnce(t *testing.T) {
	s, reads := source("", true, "  "+mnemonic+"\n", nil)
	for i := 0; i < 3; i++ {
		words, err := s.Get()
		require.NoError(t, err)
		assert.Equal(t, "art", words[23])
	}
	assert.Equal(t, 1, *reads)
}

func TestMnemonicMissing(t *testing.T) {
	s, _ := source("", false, "", nil)
	_, err := s.Get()
	assert.ErrorIs(t, err, ErrNoWallet)

	s, _ = source("", true, "", nil)
	_, err = s.Get()
	assert.ErrorIs(t, err, ErrNoWallet, "empty input means read-only")
}

func TestMnemonicInvalid(t *testing.T) {
	s, _ := source("one two three", false, "", nil)
	_, err := s.Get()
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNoWallet)

	s, _ = source("", true, "", errors.New("tty gone"))
	_, err = s.Get()
	assert.ErrorContains(t, err, "tty gone")
}

func TestParseVersion(t *testing.T) {
	v, err := ParseVersion("V4R2")
	require.NoError(t, err)
	assert.Equal(t, wallet.V4R2, v)
	v, err = ParseVersion("v3r2")
	require.NoError(t, err)
	assert.Equal(t, wallet.V3R2, v)
	_, err = ParseVersion("v5r1")
	assert.Error(t, err)
}

type recordingSender struct {
	addr ton.AccountID
	sent []wallet.Sendable
	err  error
}

func (r *recordingSender) Send(_ context.Context, messages ...wallet.Sendable) error {
	r.sent = append(r.sent, messages...)
	return r.err
}

func (r *recordingSender) GetAddress() ton.AccountID {
	return r.addr
}

func TestBroadcastMapsMessage(t *testing.T) {
	var buf bytes.Buffer
	rec := &recordingSender{}
	w := &Wallet{w: rec, log: slog.New(slog.NewTextHandler(&buf, nil))}

	var to ton.AccountID
	to.Address[0] = 9
	body := boc.NewCell()
	require.NoError(t, body.WriteUint(0x58ca5361, 32))

	err := w.Broadcast(context.Background(), ledger.Message{To: to, Body: body, Value: 200_000_000, Mode: ledger.ModePayGasSeparately})
	require.NoError(t, err)
	require.Len(t, rec.sent, 1)

	msg, ok := rec.sent[0].(wallet.Message)
	require.True(t, ok)
	assert.Equal(t, to, msg.Address)
	assert.Equal(t, uint64(200_000_000), uint64(msg.Amount))
	assert.Equal(t, ledger.ModePayGasSeparately, msg.Mode)
	assert.True(t, msg.Bounce)
	assert.Same(t, body, msg.Body)
	assert.Contains(t, buf.String(), "message broadcast")
}

func TestBroadcastError(t *testing.T) {
	rec := &recordingSender{err: errors.New("liteserver down")}
	w := &Wallet{w: rec, log: slog.New(slog.NewTextHandler(io.Discard, nil))}

	err := w.Broadcast(context.Background(), ledger.Message{Body: boc.NewCell()})
	assert.ErrorContains(t, err, "liteserver down")
}

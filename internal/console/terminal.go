package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"math/big"
	"net/url"
	"strconv"
	"strings"

	"github.com/tonkeeper/tongo/ton"

	"github.com/suspectuso/ton-staking-console/internal/action"
	"github.com/suspectuso/ton-staking-console/internal/staking"
)

// cancelWord aborts the current prompt.
const cancelWord = "cancel"

// Terminal is a line-oriented Prompter. Malformed input is re-prompted here,
// so actions only ever see parsed values.
type Terminal struct {
	in      *bufio.Reader
	out     io.Writer
	testnet bool
}

var _ action.Prompter = (*Terminal)(nil)

func NewTerminal(in io.Reader, out io.Writer, testnet bool) *Terminal {
	return &Terminal{in: bufio.NewReader(in), out: out, testnet: testnet}
}

// readLine prints label and returns the trimmed answer. End of input and the
// cancel word abort.
func (t *Terminal) readLine(ctx context.Context, label string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	fmt.Fprintf(t.out, "%s: ", label)
	line, err := t.in.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		fmt.Fprintln(t.out)
		if errors.Is(err, io.EOF) {
			return "", action.ErrAborted
		}
		return "", fmt.Errorf("read input: %w", err)
	}
	line = strings.TrimSpace(line)
	if strings.EqualFold(line, cancelWord) {
		return "", action.ErrAborted
	}
	return line, nil
}

func (t *Terminal) Address(ctx context.Context, label string, fallback *ton.AccountID) (ton.AccountID, error) {
	if fallback != nil {
		label = fmt.Sprintf("%s [%s]", label, fallback.ToHuman(true, t.testnet))
	}
	for {
		line, err := t.readLine(ctx, label)
		if err != nil {
			return ton.AccountID{}, err
		}
		if line == "" && fallback != nil {
			return *fallback, nil
		}
		id, err := ton.ParseAccountID(line)
		if err != nil {
			t.Say("Invalid address, try again")
			continue
		}
		return id, nil
	}
}

func (t *Terminal) Amount(ctx context.Context, label string) (*big.Int, error) {
	for {
		line, err := t.readLine(ctx, label)
		if err != nil {
			return nil, err
		}
		v, err := staking.ParseCoins(line)
		if err != nil {
			t.Say("Invalid amount, expected a number with up to 9 decimals")
			continue
		}
		return v, nil
	}
}

func (t *Terminal) Bool(ctx context.Context, label string) (bool, error) {
	for {
		line, err := t.readLine(ctx, label+" (yes/no)")
		if err != nil {
			return false, err
		}
		switch strings.ToLower(line) {
		case "y", "yes":
			return true, nil
		case "n", "no":
			return false, nil
		}
		t.Say("Please answer yes or no")
	}
}

func (t *Terminal) URL(ctx context.Context, label string) (string, error) {
	for {
		line, err := t.readLine(ctx, label)
		if err != nil {
			return "", err
		}
		u, err := url.ParseRequestURI(line)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			t.Say("Invalid URL, expected http(s)://...")
			continue
		}
		return line, nil
	}
}

func (t *Terminal) Choose(ctx context.Context, label string, options []string) (int, error) {
	fmt.Fprintln(t.out)
	for i, o := range options {
		fmt.Fprintf(t.out, "  %d. %s\n", i+1, o)
	}
	for {
		line, err := t.readLine(ctx, label)
		if err != nil {
			return 0, err
		}
		n, err := strconv.Atoi(line)
		if err != nil || n < 1 || n > len(options) {
			t.Say("Pick a number from 1 to %d", len(options))
			continue
		}
		return n - 1, nil
	}
}

func (t *Terminal) Say(format string, args ...any) {
	fmt.Fprintf(t.out, format+"\n", args...)
}

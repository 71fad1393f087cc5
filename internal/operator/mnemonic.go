// Package operator resolves the operator's wallet and sends messages from it.
package operator

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"golang.org/x/term"
)

// ErrNoWallet means the session runs without a sending wallet.
var ErrNoWallet = errors.New("no operator wallet")

const mnemonicWords = 24

// MnemonicSource lazily resolves the wallet mnemonic from configuration or by
// prompting the operator. The result is cached after the first call.
type MnemonicSource struct {
	configured string

	isTerminal func() bool
	readSecret func() ([]byte, error)
	prompt     io.Writer

	once  sync.Once
	words []string
	err   error
}

// NewMnemonicSource uses configured when it is not empty and otherwise asks on
// the terminal, echo disabled.
func NewMnemonicSource(configured string) *MnemonicSource {
	fd := int(os.Stdin.Fd())
	return &MnemonicSource{
		configured: configured,
		isTerminal: func() bool { return term.IsTerminal(fd) },
		readSecret: func() ([]byte, error) { return term.ReadPassword(fd) },
		prompt:     os.Stderr,
	}
}

// Get returns the mnemonic words, or ErrNoWallet when none was supplied.
func (s *MnemonicSource) Get() ([]string, error) {
	s.once.Do(func() {
		value := s.configured
		if strings.TrimSpace(value) == "" {
			if !s.isTerminal() {
				s.err = ErrNoWallet
				return
			}
			fmt.Fprint(s.prompt, "Enter wallet mnemonic (empty for read-only): ")
			secret, err := s.readSecret()
			fmt.Fprintln(s.prompt)
			if err != nil {
				s.err = fmt.Errorf("read mnemonic: %w", err)
				return
			}
			value = string(secret)
		}

		words := strings.Fields(value)
		if len(words) == 0 {
			s.err = ErrNoWallet
			return
		}
		if len(words) != mnemonicWords {
			s.err = fmt.Errorf("mnemonic has %d words, want %d", len(words), mnemonicWords)
			return
		}
		s.words = words
	})

	return s.words, s.err
}

package wallet

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"golang.org/x/term"
)

var ErrNoTerminal = errors.New("passphrase prompt needs a terminal; use a password file instead")

// TerminalPassphrase prompts on out and reads the passphrase from in without echo.
func TerminalPassphrase(in *os.File, out io.Writer) PassphraseFunc {
	return func(_ context.Context, account common.Address) (string, error) {
		fd := int(in.Fd())
		if !term.IsTerminal(fd) {
			return "", ErrNoTerminal
		}

		fmt.Fprintf(out, "Passphrase for %s: ", account.Hex())
		passphrase, err := term.ReadPassword(fd)
		fmt.Fprintln(out)
		if err != nil {
			return "", fmt.Errorf("read passphrase: %w", err)
		}
		return string(passphrase), nil
	}
}

// FilePassphrase uses the first line of the file at path for every account.
func FilePassphrase(path string) PassphraseFunc {
	return func(context.Context, common.Address) (string, error) {
		f, err := os.Open(path)
		if err != nil {
			return "", fmt.Errorf("open password file: %w", err)
		}
		defer f.Close()

		line, err := bufio.NewReader(f).ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return "", fmt.Errorf("read password file: %w", err)
		}
		return strings.TrimRight(line, "\r\n"), nil
	}
}

package cli

import (
	"fmt"
	"io"
	"os"

	"golang.org/x/term"
)

// PasswordFunc asks the user for a password
type PasswordFunc func(prompt string) (string, error)

// TerminalPassword reads a password from the terminal on stdin without echo
func TerminalPassword(w io.Writer) PasswordFunc {
	return func(prompt string) (string, error) {
		if _, err := fmt.Fprint(w, prompt); err != nil {
			return "", err
		}
		pw, err := term.ReadPassword(int(os.Stdin.Fd()))
		_, _ = fmt.Fprintln(w)
		if err != nil {
			return "", fmt.Errorf("can't read password: %w", err)
		}
		return string(pw), nil
	}
}

package token

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"papertrader/src/security"
)

// Generator derives the bcrypt hash the API expects in API_TOKEN_HASH.
// The plaintext token is taken from the argument, or read from In when the
// argument is empty so the plaintext stays out of shell history.
type Generator struct {
	In  io.Reader
	Out io.Writer
}

func (g *Generator) Run(arg string) error {
	token := strings.TrimSpace(arg)

	if token == "" {
		if _, err := fmt.Fprint(g.Out, "token> "); err != nil {
			return err
		}

		scanner := bufio.NewScanner(g.In)
		if !scanner.Scan() {
			return errors.New("no token provided")
		}
		token = strings.TrimSpace(scanner.Text())
	}

	if token == "" {
		return errors.New("no token provided")
	}

	hash, err := security.HashToken(token)
	if err != nil {
		return fmt.Errorf("failed to hash token: %w", err)
	}

	if _, err := fmt.Fprintln(g.Out, hash); err != nil {
		return err
	}

	return nil
}

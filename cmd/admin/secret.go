package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	pkgauth "github.com/BradenHooton/accountdesk/pkg/auth"
)

var skipStrengthCheck bool

var hashSecretCmd = &cobra.Command{
	Use:   "hash-secret",
	Short: "Hash a new shared access secret",
	Long: `Read a shared secret from the terminal (or stdin) and print the bcrypt hash
to store as ACCESS_SECRET_HASH. Replaces the deprecated plain-text ACCESS_SECRET.

Examples:
  accountdesk-admin hash-secret
  printf '%s\n' "$NEW_SECRET" | accountdesk-admin hash-secret`,
	Args: cobra.NoArgs,
	RunE: runHashSecret,
}

var sessionSecretCmd = &cobra.Command{
	Use:   "session-secret",
	Short: "Generate a random SESSION_SECRET",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		key, err := pkgauth.GenerateTokenKey()
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), key)
		return nil
	},
}

func init() {
	hashSecretCmd.Flags().BoolVar(&skipStrengthCheck, "skip-strength-check", false, "Hash the secret even if it is weak")
	rootCmd.AddCommand(hashSecretCmd)
	rootCmd.AddCommand(sessionSecretCmd)
}

func runHashSecret(cmd *cobra.Command, args []string) error {
	secret, err := readSecret(cmd)
	if err != nil {
		return err
	}

	if !skipStrengthCheck {
		if err := pkgauth.ValidateSecret(secret); err != nil {
			return err
		}
	}

	hash, err := pkgauth.HashSecret(secret)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), hash)
	return nil
}

// readSecret prompts without echo on a terminal, otherwise reads one line
func readSecret(cmd *cobra.Command) (string, error) {
	in := cmd.InOrStdin()
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fmt.Fprint(cmd.ErrOrStderr(), "Shared secret: ")
		first, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(cmd.ErrOrStderr())
		if err != nil {
			return "", err
		}
		fmt.Fprint(cmd.ErrOrStderr(), "Repeat: ")
		second, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(cmd.ErrOrStderr())
		if err != nil {
			return "", err
		}
		if string(first) != string(second) {
			return "", errors.New("secrets do not match")
		}
		return string(first), nil
	}

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	secret := strings.TrimRight(line, "\r\n")
	if secret == "" {
		return "", errors.New("no secret given on stdin")
	}
	return secret, nil
}

package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/coop-arena/internal/gateway"
)

var flagTokenTTL time.Duration

var tokenCmd = &cobra.Command{
	Use:   "token <player>",
	Short: "Mint a client token",
	Long: `Print a signed token for a player id. Clients pass it as a bearer token
or as the token query parameter of /ws. The server must run with the same
--token-secret.

Examples:
  arena token alice --token-secret dev
  arena token bob --ttl 1h`,
	Args: cobra.ExactArgs(1),
	RunE: runToken,
}

func init() {
	tokenCmd.Flags().DurationVar(&flagTokenTTL, "ttl", 24*time.Hour, "Token lifetime")
}

func runToken(_ *cobra.Command, args []string) error {
	if flagTokenSecret == "" {
		return errors.New("a token secret is required (--token-secret or ARENA_TOKEN_SECRET)")
	}
	token, err := gateway.NewHMACValidator([]byte(flagTokenSecret)).Issue(args[0], flagTokenTTL)
	if err != nil {
		return err
	}
	fmt.Println(token)
	return nil
}

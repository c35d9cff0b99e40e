// arena is a server-authoritative co-op action server.
//
// Usage:
//
//	arena serve              - Run the game server (websocket + HTTP API)
//	arena sections           - List configured sections and checkpoints
//	arena profile <player>   - Show a stored player profile
//	arena token <player>     - Mint a client token for a player
//	arena results            - Show recent session results
//
// Global flags:
//
//	--db <path>            - Set database path (default: ~/.arena/arena.db)
//	--world <path>         - Set world config file
//	--token-secret <key>   - HMAC secret for client tokens
//	--log-level <level>    - debug, info, warn or error
//
// Unset flags fall back to ARENA_* environment variables, read from .env
// when present.
package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/vovakirdan/coop-arena/internal/config"
)

var (
	// Global flags
	flagDBPath      string
	flagWorld       string
	flagTokenSecret string
	flagLogLevel    string
)

// envFlags maps flag names to the environment variables that default them.
var envFlags = map[string]string{
	"addr":         "ARENA_ADDR",
	"ssh":          "ARENA_SSH_ADDR",
	"db":           "ARENA_DB",
	"token-secret": "ARENA_TOKEN_SECRET",
	"tick-rate":    "ARENA_TICK_RATE",
	"world":        "ARENA_WORLD",
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "arena",
	Short: "Co-op arena - server-authoritative multiplayer action server",
	Long: `Co-op arena runs shared action sessions: players join over websocket,
stream inputs, and receive world snapshots every tick while the server
resolves combat, enemy AI, respawns and section progression.

Available commands:
  serve     - Run the game server
  sections  - List configured sections
  profile   - Show a stored player profile
  token     - Mint a client token
  results   - Show recent session results

Examples:
  arena serve --addr :8080 --token-secret dev
  arena serve --ssh :23234
  arena token alice --token-secret dev
  arena profile alice`,
	SilenceUsage:      true,
	PersistentPreRunE: applyEnv,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagDBPath, "db", "~/.arena/arena.db", "Path to the profile database")
	rootCmd.PersistentFlags().StringVar(&flagWorld, "world", "", "Path to world config (default: search ~/.arena, ./configs, built-in)")
	rootCmd.PersistentFlags().StringVar(&flagTokenSecret, "token-secret", "", "HMAC secret used to sign client tokens")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "info", "Log level (debug, info, warn, error)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(sectionsCmd)
	rootCmd.AddCommand(profileCmd)
	rootCmd.AddCommand(tokenCmd)
	rootCmd.AddCommand(resultsCmd)
}

// applyEnv loads .env and fills every flag the user did not set from its
// environment variable.
func applyEnv(cmd *cobra.Command, _ []string) error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("cannot load .env: %w", err)
	}

	var setErr error
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		env, ok := envFlags[f.Name]
		if !ok || f.Changed || setErr != nil {
			return
		}
		if v, ok := os.LookupEnv(env); ok {
			if err := f.Value.Set(v); err != nil {
				setErr = fmt.Errorf("invalid %s: %w", env, err)
			}
		}
	})
	return setErr
}

func newLogger() (*log.Logger, error) {
	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		Prefix:          "arena",
	})
	level, err := log.ParseLevel(flagLogLevel)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", flagLogLevel, err)
	}
	logger.SetLevel(level)
	return logger, nil
}

func loadWorld() (config.WorldConfig, error) {
	wc, err := config.LoadWorld(flagWorld)
	if err != nil {
		return wc, fmt.Errorf("cannot load world config: %w", err)
	}
	return wc, nil
}

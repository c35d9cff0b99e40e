package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/coop-arena/internal/storage"
)

var profileCmd = &cobra.Command{
	Use:   "profile <player>",
	Short: "Show a stored player profile",
	Long: `Display the level, experience, gold and skills stored for a player,
followed by the last sessions the player took part in.

Examples:
  arena profile alice
  arena profile alice --db ./arena.db`,
	Args: cobra.ExactArgs(1),
	RunE: runProfile,
}

func runProfile(_ *cobra.Command, args []string) error {
	playerID := args[0]

	store, err := storage.Open(flagDBPath)
	if err != nil {
		return fmt.Errorf("cannot open database: %w", err)
	}
	defer store.Close()

	p, err := store.ProfileByID(playerID)
	if err != nil {
		return err
	}
	if p == nil {
		fmt.Printf("No profile stored for %q.\n", playerID)
		return nil
	}

	fmt.Printf("%s (%s)\n", p.Name, p.PlayerID)
	fmt.Printf("  Level %d, %d exp, %d gold\n", p.Level, p.Exp, p.Gold)
	fmt.Printf("  Updated %s\n", p.UpdatedAt.Format("2006-01-02 15:04"))

	if len(p.Skills) > 0 {
		ids := make([]string, 0, len(p.Skills))
		for id := range p.Skills {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		parts := make([]string, len(ids))
		for i, id := range ids {
			parts[i] = fmt.Sprintf("%s %d", id, p.Skills[id])
		}
		fmt.Printf("  Skills: %s\n", strings.Join(parts, ", "))
	}

	results, err := store.PlayerResults(playerID, 5)
	if err != nil {
		return err
	}
	if len(results) > 0 {
		fmt.Println()
		fmt.Println("Recent sessions:")
		printResults(results)
	}
	return nil
}

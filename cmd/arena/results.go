package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/coop-arena/internal/storage"
)

var flagResultsLimit int

var resultsCmd = &cobra.Command{
	Use:   "results",
	Short: "Show recent session results",
	Long: `Display the most recently finished sessions and overall statistics.

Examples:
  arena results
  arena results --limit 50`,
	RunE: runResults,
}

func init() {
	resultsCmd.Flags().IntVar(&flagResultsLimit, "limit", 10, "Number of results to show")
}

func runResults(_ *cobra.Command, _ []string) error {
	store, err := storage.Open(flagDBPath)
	if err != nil {
		return fmt.Errorf("cannot open database: %w", err)
	}
	defer store.Close()

	results, err := store.RecentResults(flagResultsLimit)
	if err != nil {
		return err
	}
	if len(results) == 0 {
		fmt.Println("No finished sessions recorded yet.")
		return nil
	}

	fmt.Println("Recent sessions")
	fmt.Println()
	printResults(results)

	stats, err := store.GetResultStats()
	if err == nil && stats.Sessions > 0 {
		fmt.Println()
		fmt.Printf("Total: %d sessions, %d completed, %d failed, %.1f sections on average\n",
			stats.Sessions, stats.Completed, stats.Failed, stats.AvgSections)
	}
	return nil
}

func printResults(results []storage.SessionResult) {
	fmt.Printf("  %-8s  %-9s  %-8s  %-7s  %-16s  %s\n", "Session", "Status", "Sections", "Time", "Ended", "Players")
	fmt.Printf("  %-8s  %-9s  %-8s  %-7s  %-16s  %s\n", "-------", "------", "--------", "----", "-----", "-------")
	for _, r := range results {
		id := r.SessionID
		if len(id) > 8 {
			id = id[:8]
		}
		fmt.Printf("  %-8s  %-9s  %-8d  %-7s  %-16s  %s\n",
			id, r.Status, r.SectionsCleared,
			fmt.Sprintf("%dm%02ds", r.Duration/60, r.Duration%60),
			r.CreatedAt.Format("2006-01-02 15:04"),
			strings.Join(r.Players, ","))
	}
}

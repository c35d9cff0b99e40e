package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var sectionsCmd = &cobra.Command{
	Use:   "sections",
	Short: "List configured sections",
	Long: `Shows the sections of the loaded world config in play order, with their
checkpoints, enemy pools and bosses.`,
	RunE: runSections,
}

func runSections(_ *cobra.Command, _ []string) error {
	wc, err := loadWorld()
	if err != nil {
		return err
	}

	if len(wc.Sections) == 0 {
		fmt.Println("No sections configured.")
		return nil
	}

	fmt.Printf("World %.0fx%.0f, %d sections:\n", wc.World.Width, wc.World.Height, len(wc.Sections))
	for i, s := range wc.Sections {
		fmt.Println()
		fmt.Printf("%d. %s (%s)  enemy level %d, spawn rate %.2f\n", i+1, s.Name, s.ID, s.EnemyLevel, s.SpawnRate)

		fmt.Printf("  %-12s  %-6s  %-6s  %s\n", "Checkpoint", "Alive", "Total", "Enemies")
		fmt.Printf("  %-12s  %-6s  %-6s  %s\n", "----------", "-----", "-----", "-------")
		for _, cp := range s.Checkpoints {
			fmt.Printf("  %-12s  %-6d  %-6d  %s\n", cp.ID, cp.MaxEnemies, cp.TotalEnemies, strings.Join(cp.EnemyTypes, ", "))
		}
		if s.Boss != nil {
			name := s.Boss.TypeID
			if t, ok := wc.EnemyType(s.Boss.TypeID); ok {
				name = t.Name
			}
			fmt.Printf("  Boss: %s at (%.0f, %.0f)\n", name, s.Boss.Position.X, s.Boss.Position.Y)
		}
	}
	return nil
}

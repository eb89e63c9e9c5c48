package main

import (
	"fmt"

	"github.com/GhostKellz/nvshader/internal/nvshader"
	"github.com/spf13/cobra"
)

var cmdStats = &cobra.Command{
	Use:   "stats",
	Short: "Show aggregate cache statistics",
	Long: `
The "stats" command scans the system and prints aggregate totals per cache
kind, plus the age range of the artifacts.
`,
	DisableAutoGenTag: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runStats()
	},
}

func init() {
	cmdRoot.AddCommand(cmdStats)
}

func runStats() error {
	mgr, err := newScannedManager()
	if err != nil {
		return err
	}

	stats := mgr.Stats()

	fmt.Printf("total:      %d bytes in %d entries (%d with games)\n",
		stats.TotalSizeBytes, stats.FileCount, stats.GameCount)
	for _, kind := range nvshader.AllKinds {
		fmt.Printf("%-11s %d bytes\n", kind.Short()+":", stats.KindSize(kind))
	}
	if !stats.Oldest.IsZero() {
		fmt.Printf("oldest:     %v\nnewest:     %v\n",
			stats.Oldest.Format("2006-01-02"), stats.Newest.Format("2006-01-02"))
	}
	return nil
}

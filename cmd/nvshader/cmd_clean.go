package main

import (
	"fmt"

	"github.com/GhostKellz/nvshader/internal/nvshader"
	"github.com/spf13/cobra"
)

var cmdClean = &cobra.Command{
	Use:   "clean",
	Short: "Apply retention policies to the cache set",
	Long: `
The "clean" command removes cache artifacts by age (--older-than) or shrinks
the total footprint to a size limit (--max-size, e.g. '10G').
`,
	DisableAutoGenTag: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runClean(cmd, cleanOptions)
	},
}

// CleanOptions bundles all options for the clean command.
type CleanOptions struct {
	OlderThanDays uint32
	MaxSize       string
	GameID        string
}

var cleanOptions CleanOptions

func init() {
	cmdRoot.AddCommand(cmdClean)

	f := cmdClean.Flags()
	f.Uint32Var(&cleanOptions.OlderThanDays, "older-than", 0, "remove caches older than `days`")
	f.StringVar(&cleanOptions.MaxSize, "max-size", "", "shrink total cache size to this limit, e.g. '10G'")
	f.StringVar(&cleanOptions.GameID, "game", "", "remove all caches of one game id, e.g. 'steam:570'")
}

func runClean(cmd *cobra.Command, opts CleanOptions) error {
	mgr, err := newScannedManager()
	if err != nil {
		return err
	}

	removed := 0

	if opts.GameID != "" {
		n, err := mgr.ClearGameCache(opts.GameID)
		if err != nil {
			return err
		}
		removed += n
	}

	if cmd.Flags().Changed("older-than") {
		n, err := mgr.CleanOlderThan(opts.OlderThanDays)
		if err != nil {
			return err
		}
		removed += n
	}

	if opts.MaxSize != "" {
		limit, err := nvshader.ParseByteSize(opts.MaxSize)
		if err != nil {
			return err
		}
		n, err := mgr.ShrinkToSize(limit)
		if err != nil {
			return err
		}
		removed += n
	}

	fmt.Printf("removed %d cache entries\n", removed)
	return nil
}

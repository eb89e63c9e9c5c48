package main

import (
	"fmt"
	"strings"

	"github.com/GhostKellz/nvshader/internal/bundle"
	"github.com/GhostKellz/nvshader/internal/nvshader"
	"github.com/spf13/cobra"
)

var cmdPackage = &cobra.Command{
	Use:   "package DEST",
	Short: "Create or restore a shareable .nvcache package",
	Long: `
The "package" command creates a .nvcache package stamped with the local GPU
profile, or restores one with --restore. On restore, a package produced on
an incompatible GPU is imported with a warning.
`,
	Args:              cobra.ExactArgs(1),
	DisableAutoGenTag: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPackage(args[0], packageOptions)
	},
}

// PackageOptions bundles all options for the package command.
type PackageOptions struct {
	GameID  string
	Restore bool
	Dest    string
}

var packageOptions PackageOptions

func init() {
	cmdRoot.AddCommand(cmdPackage)

	f := cmdPackage.Flags()
	f.StringVar(&packageOptions.GameID, "game", "", "package only this game's caches")
	f.BoolVar(&packageOptions.Restore, "restore", false, "restore the package instead of creating it")
	f.StringVar(&packageOptions.Dest, "dest", "", "on restore, unpack below this directory")
}

func runPackage(path string, opts PackageOptions) error {
	gpu := nvshader.DetectGPU()

	if opts.Restore {
		manifest, err := bundle.ImportPackage(path, opts.Dest, gpu)
		if err != nil {
			return err
		}
		fmt.Printf("restored %d entries\n", len(manifest.Entries))
		return nil
	}

	mgr, err := newScannedManager()
	if err != nil {
		return err
	}

	entries := mgr.Entries()
	label := ""
	if opts.GameID != "" {
		var matched []*nvshader.CacheEntry
		for _, e := range entries {
			if e.GameID == opts.GameID {
				matched = append(matched, e)
			}
		}
		if len(matched) == 0 {
			return nvshader.ErrGameNotFound
		}
		entries = matched
		label = opts.GameID
	}

	if !strings.HasSuffix(path, bundle.PackageExt) {
		path += bundle.PackageExt
	}

	manifest, err := bundle.ExportPackage(path, label, gpu, entries)
	if err != nil {
		return err
	}

	fmt.Printf("packaged %d entries to %s\n", len(manifest.Entries), path)
	return nil
}

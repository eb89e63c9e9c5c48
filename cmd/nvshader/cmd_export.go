package main

import (
	"fmt"
	"strings"

	"github.com/GhostKellz/nvshader/internal/bundle"
	"github.com/GhostKellz/nvshader/internal/nvshader"
	"github.com/spf13/cobra"
)

var cmdExport = &cobra.Command{
	Use:   "export DEST",
	Short: "Export caches into a portable bundle",
	Long: `
The "export" command copies cache artifacts into a bundle directory with a
manifest, optionally restricted to one game. With --tar the bundle becomes a
single zstd-compressed file.
`,
	Args:              cobra.ExactArgs(1),
	DisableAutoGenTag: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runExport(args[0], exportOptions)
	},
}

// ExportOptions bundles all options for the export command.
type ExportOptions struct {
	GameID string
	Tar    bool
}

var exportOptions ExportOptions

func init() {
	cmdRoot.AddCommand(cmdExport)

	f := cmdExport.Flags()
	f.StringVar(&exportOptions.GameID, "game", "", "export only this game's caches")
	f.BoolVar(&exportOptions.Tar, "tar", false, "write a single .tar.zst file instead of a directory")
}

func runExport(dest string, opts ExportOptions) error {
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

	var manifest *bundle.Manifest
	if opts.Tar {
		if !strings.HasSuffix(dest, ".tar.zst") {
			dest += ".tar.zst"
		}
		manifest, err = bundle.ExportTar(dest, label, entries)
	} else {
		manifest, err = bundle.Export(dest, label, entries)
	}
	if err != nil {
		return err
	}

	fmt.Printf("exported %d entries to %s\n", len(manifest.Entries), dest)
	return nil
}

package main

import (
	"fmt"
	"strings"

	"github.com/GhostKellz/nvshader/internal/bundle"
	"github.com/spf13/cobra"
)

var cmdImport = &cobra.Command{
	Use:   "import BUNDLE",
	Short: "Restore caches from a bundle",
	Long: `
The "import" command restores every artifact of a bundle to its original
location, or below --dest when given. Both bundle directories and .tar.zst
files are accepted.
`,
	Args:              cobra.ExactArgs(1),
	DisableAutoGenTag: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runImport(args[0], importOptions)
	},
}

// ImportOptions bundles all options for the import command.
type ImportOptions struct {
	Dest string
}

var importOptions ImportOptions

func init() {
	cmdRoot.AddCommand(cmdImport)

	f := cmdImport.Flags()
	f.StringVar(&importOptions.Dest, "dest", "", "restore below this directory instead of the original paths")
}

func runImport(path string, opts ImportOptions) error {
	var (
		manifest *bundle.Manifest
		err      error
	)

	if strings.HasSuffix(path, ".tar.zst") {
		manifest, err = bundle.ImportTar(path, opts.Dest)
	} else {
		manifest, err = bundle.Import(path, opts.Dest)
	}
	if err != nil {
		return err
	}

	fmt.Printf("restored %d entries\n", len(manifest.Entries))
	return nil
}

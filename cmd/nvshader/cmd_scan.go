package main

import (
	"fmt"

	"github.com/GhostKellz/nvshader/internal/catalog"
	"github.com/GhostKellz/nvshader/internal/manager"
	"github.com/spf13/cobra"
)

var cmdScan = &cobra.Command{
	Use:   "scan",
	Short: "Scan the system for shader caches",
	Long: `
The "scan" command enumerates every known cache location, associates the
found artifacts with installed games and lists them.
`,
	DisableAutoGenTag: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runScan()
	},
}

func init() {
	cmdRoot.AddCommand(cmdScan)
}

// newScannedManager builds a manager with a fresh scan and game
// associations applied.
func newScannedManager() (*manager.Manager, error) {
	mgr, err := manager.New(manager.Options{})
	if err != nil {
		return nil, err
	}

	mgr.Scan()

	games, err := catalog.Detect()
	if err != nil {
		return nil, err
	}
	mgr.Associate(games)

	return mgr, nil
}

func runScan() error {
	mgr, err := newScannedManager()
	if err != nil {
		return err
	}

	for _, e := range mgr.Entries() {
		name := e.GameName
		if name == "" {
			name = "-"
		}
		fmt.Printf("%-10s %12d  %-40s %s\n", e.Kind.Short(), e.SizeBytes, name, e.Path)
	}
	fmt.Printf("%d entries\n", len(mgr.Entries()))
	return nil
}

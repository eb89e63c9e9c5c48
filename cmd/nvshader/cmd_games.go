package main

import (
	"fmt"
	"os"

	"github.com/GhostKellz/nvshader/internal/catalog"
	"github.com/GhostKellz/nvshader/internal/nvshader"
	"github.com/spf13/cobra"
)

var cmdGames = &cobra.Command{
	Use:   "games",
	Short: "List installed games from all sources",
	Long: `
The "games" command merges the Steam, Lutris, Heroic and manual catalogs
into one list.
`,
	DisableAutoGenTag: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runGames()
	},
}

var cmdGamesAdd = &cobra.Command{
	Use:   "add NAME INSTALL_PATH [CACHE_PATH...]",
	Short: "Add a game to the manual catalog",
	Args:  cobra.MinimumNArgs(2),
	DisableAutoGenTag: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runGamesAdd(args[0], args[1], args[2:])
	},
}

func init() {
	cmdRoot.AddCommand(cmdGames)
	cmdGames.AddCommand(cmdGamesAdd)
}

func runGames() error {
	games, err := catalog.Detect()
	if err != nil {
		return err
	}

	for _, g := range games {
		fmt.Printf("%-8s %-30s %s\n", g.Source, g.ID, g.Name)
	}
	fmt.Printf("%d games\n", len(games))
	return nil
}

func runGamesAdd(name, installPath string, cachePaths []string) error {
	home := os.Getenv("HOME")
	if home == "" {
		return nvshader.ErrNoHomeDir
	}

	d := &catalog.ManualDetector{Home: home}
	existing, err := d.Detect()
	if err != nil {
		return err
	}

	existing = append(existing, nvshader.Game{
		Source:      nvshader.SourceManual,
		Name:        name,
		InstallPath: installPath,
		CacheHints:  cachePaths,
	})

	return catalog.SaveManualGames(home, existing)
}

package main

import (
	"fmt"

	"github.com/GhostKellz/nvshader/internal/paths"
	"github.com/GhostKellz/nvshader/internal/watcher"
	"github.com/spf13/cobra"
)

var cmdWatch = &cobra.Command{
	Use:   "watch",
	Short: "Watch cache directories for live compilation",
	Long: `
The "watch" command observes the cache directories through inotify and
prints every create, modify, delete and compilation-end event until
interrupted.
`,
	DisableAutoGenTag: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runWatch(cmd)
	},
}

func init() {
	cmdRoot.AddCommand(cmdWatch)
}

func runWatch(cmd *cobra.Command) error {
	p, err := paths.Resolve(paths.Config{})
	if err != nil {
		return err
	}

	w, err := watcher.New(p)
	if err != nil {
		return err
	}

	w.OnEvent(func(ev watcher.Event) {
		fmt.Printf("%s  %-16s %s\n", ev.Time.Format("15:04:05"), ev.Type, ev.Path)
	})

	go func() {
		<-cmd.Context().Done()
		w.Stop()
	}()

	w.Run()

	c := w.Counters()
	fmt.Printf("session: %d created, %d modified, %d deleted, %d compilations\n",
		c.Created, c.Modified, c.Deleted, c.CompilationEnds)
	return nil
}

package main

import (
	"github.com/GhostKellz/nvshader/internal/ipc"
	"github.com/GhostKellz/nvshader/internal/nvshader"
	"github.com/GhostKellz/nvshader/internal/p2p"
	"github.com/GhostKellz/nvshader/internal/paths"
	"github.com/GhostKellz/nvshader/internal/watcher"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var cmdDaemon = &cobra.Command{
	Use:   "daemon",
	Short: "Run the watcher, P2P node and IPC socket together",
	Long: `
The "daemon" command runs the long-lived services: the cache watcher, the
P2P discovery node and the local IPC socket for GUI consumers. Each service
owns its own state; they only share the initial scan.
`,
	DisableAutoGenTag: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runDaemon(cmd)
	},
}

func init() {
	cmdRoot.AddCommand(cmdDaemon)
}

func runDaemon(cmd *cobra.Command) error {
	gpu := nvshader.DetectGPU()

	mgr, err := newScannedManager()
	if err != nil {
		return err
	}

	p, err := paths.Resolve(paths.Config{})
	if err != nil {
		return err
	}

	w, err := watcher.New(p)
	if err != nil {
		return err
	}

	node, err := p2p.NewNode(gpu, p2p.Options{})
	if err != nil {
		w.Stop()
		return err
	}
	for _, e := range mgr.Entries() {
		node.AddCache(e)
	}

	srv, err := ipc.New(mgr, gpu)
	if err != nil {
		w.Stop()
		node.Stop()
		return err
	}

	wg, ctx := errgroup.WithContext(cmd.Context())

	wg.Go(func() error { w.Run(); return nil })
	wg.Go(func() error { node.Run(); return nil })
	wg.Go(func() error { srv.Run(); return nil })
	wg.Go(func() error {
		<-ctx.Done()
		w.Stop()
		node.Stop()
		srv.Stop()
		return nil
	})

	return wg.Wait()
}

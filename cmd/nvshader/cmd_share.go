package main

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/GhostKellz/nvshader/internal/nvshader"
	"github.com/GhostKellz/nvshader/internal/p2p"
	"github.com/spf13/cobra"
)

var cmdShare = &cobra.Command{
	Use:   "share",
	Short: "Share caches with peers on the local network",
	Long: `
The "share" command announces the local caches to the multicast group and
serves transfer requests from compatible peers. With --fetch it instead
queries the group for a game's cache and downloads the first offer.
`,
	DisableAutoGenTag: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runShare(shareOptions)
	},
}

// ShareOptions bundles all options for the share command.
type ShareOptions struct {
	Fetch   string
	DestDir string
}

var shareOptions ShareOptions

func init() {
	cmdRoot.AddCommand(cmdShare)

	f := cmdShare.Flags()
	f.StringVar(&shareOptions.Fetch, "fetch", "", "query the network for this game id and download the cache")
	f.StringVar(&shareOptions.DestDir, "dest", ".", "directory for fetched caches")
}

func runShare(opts ShareOptions) error {
	gpu := nvshader.DetectGPU()

	node, err := p2p.NewNode(gpu, p2p.Options{})
	if err != nil {
		return err
	}
	defer node.Stop()

	mgr, err := newScannedManager()
	if err != nil {
		return err
	}
	for _, e := range mgr.Entries() {
		node.AddCache(e)
	}

	if opts.Fetch != "" {
		return fetchGame(node, opts.Fetch, opts.DestDir)
	}

	fmt.Println("sharing caches, ctrl-c to stop")
	node.Run()
	return nil
}

// fetchGame queries for one game and downloads the first matching offer.
func fetchGame(node *p2p.Node, gameID, destDir string) error {
	if err := node.QueryGame(gameID); err != nil {
		return err
	}

	deadline := time.Now().Add(10 * time.Second)
	for time.Now().Before(deadline) {
		node.Poll()

		for _, peer := range node.Peers() {
			for _, offer := range peer.Caches {
				if offer.GameID != gameID {
					continue
				}
				dest := filepath.Join(destDir, filepath.Base(offer.GameID)+".foz")
				header, err := p2p.FetchCache(peer.Address, peer.Port, dest)
				if err != nil {
					return err
				}
				fmt.Printf("fetched %s (%d bytes) from %s\n", header.GameID, header.SizeBytes, peer.Hostname)
				return nil
			}
		}

		time.Sleep(100 * time.Millisecond)
	}

	return fmt.Errorf("no peer offered %s", gameID)
}

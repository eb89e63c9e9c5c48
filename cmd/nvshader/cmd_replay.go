package main

import (
	"context"
	"fmt"
	"time"

	"github.com/GhostKellz/nvshader/internal/replay"
	"github.com/spf13/cobra"
)

var cmdReplay = &cobra.Command{
	Use:   "replay",
	Short: "Pre-warm shader caches through fossilize_replay",
	Long: `
The "replay" command feeds Fossilize caches to the external fossilize_replay
tool so the driver compiles every recorded pipeline ahead of time. With
--game only that game's caches are replayed.
`,
	DisableAutoGenTag: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runReplay(cmd.Context(), replayOptions)
	},
}

// ReplayOptions bundles all options for the replay command.
type ReplayOptions struct {
	Binary     string
	Threads    int
	CacheDir   string
	TimeoutSec int
	GameID     string
}

var replayOptions ReplayOptions

func init() {
	cmdRoot.AddCommand(cmdReplay)

	f := cmdReplay.Flags()
	f.StringVar(&replayOptions.Binary, "binary", "", "fossilize_replay binary (default: probe standard locations)")
	f.IntVar(&replayOptions.Threads, "threads", 4, "replay worker threads in the child process")
	f.StringVar(&replayOptions.CacheDir, "pipeline-cache", "", "Vulkan pipeline cache directory")
	f.IntVar(&replayOptions.TimeoutSec, "timeout", 30, "per-file timeout in seconds")
	f.StringVar(&replayOptions.GameID, "game", "", "replay only this game id, e.g. 'steam:570'")
}

func runReplay(ctx context.Context, opts ReplayOptions) error {
	mgr, err := newScannedManager()
	if err != nil {
		return err
	}

	r, err := replay.New(replay.Options{
		Binary:           opts.Binary,
		NumThreads:       opts.Threads,
		PipelineCacheDir: opts.CacheDir,
		Timeout:          time.Duration(opts.TimeoutSec) * time.Second,
		SkipValidation:   true,
	})
	if err != nil {
		return err
	}

	progress := func(p replay.Progress) {
		if p.CurrentFile != "" {
			fmt.Printf("[%d/%d] %s %s\n", p.Completed+p.Failed, p.Total, p.Status, p.CurrentFile)
		}
	}

	var res replay.Result
	if opts.GameID != "" {
		res, err = r.ReplayGame(ctx, mgr.Entries(), opts.GameID, progress)
		if err != nil {
			return err
		}
	} else {
		res = r.ReplayEntries(ctx, mgr.Entries(), progress)
	}

	fmt.Printf("completed %d, failed %d, skipped %d of %d\n",
		res.Completed, res.Failed, res.Skipped, res.Total)
	return nil
}

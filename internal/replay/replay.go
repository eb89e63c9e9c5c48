// Package replay drives the external fossilize_replay tool to compile the
// pipelines recorded in .foz caches ahead of time.
package replay

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/GhostKellz/nvshader/internal/fs"
	"github.com/GhostKellz/nvshader/internal/nvshader"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// Options configures the replay orchestrator.
type Options struct {
	// Binary overrides the fossilize_replay location. When empty the
	// standard locations are probed.
	Binary string

	// NumThreads is passed to the replay tool; parallelism lives entirely
	// in the child process.
	NumThreads int

	// PipelineCacheDir, when set, is handed to the tool as the Vulkan
	// pipeline cache location.
	PipelineCacheDir string

	// Timeout bounds one replay invocation. The child is killed on expiry.
	Timeout time.Duration

	// SkipValidation disables SPIR-V validation in the replay tool.
	SkipValidation bool
}

// DefaultOptions returns the standard replay configuration.
func DefaultOptions() Options {
	return Options{
		NumThreads:     4,
		Timeout:        30 * time.Second,
		SkipValidation: true,
	}
}

// Result aggregates one replay batch.
type Result struct {
	Completed uint32
	Failed    uint32
	Skipped   uint32
	Total     uint32
}

// Progress is handed to the caller's callback at the start and end of each
// replayed file.
type Progress struct {
	Total       int
	Completed   int
	Failed      int
	CurrentFile string
	Status      string
}

// ProgressFunc receives replay progress. It may be nil.
type ProgressFunc func(Progress)

// Replayer invokes fossilize_replay.
type Replayer struct {
	opts   Options
	binary string
}

// New locates the replay binary and returns a ready Replayer. It returns
// ErrFossilizeNotFound when no binary exists at the override or any probed
// location.
func New(opts Options) (*Replayer, error) {
	if opts.NumThreads <= 0 {
		opts.NumThreads = 4
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}

	binary, err := FindBinary(opts.Binary)
	if err != nil {
		return nil, err
	}

	return &Replayer{opts: opts, binary: binary}, nil
}

// Binary returns the resolved fossilize_replay path.
func (r *Replayer) Binary() string {
	return r.binary
}

// FindBinary resolves the fossilize_replay executable: the explicit override
// first, then the system directories, then the Steam runtime copies.
func FindBinary(override string) (string, error) {
	if override != "" {
		if fs.Exists(override) {
			return override, nil
		}
		return "", errors.Wrapf(nvshader.ErrFossilizeNotFound, "no binary at %v", override)
	}

	candidates := []string{
		"/usr/bin/fossilize_replay",
		"/usr/local/bin/fossilize_replay",
		"/opt/fossilize/fossilize_replay",
	}
	if home := os.Getenv("HOME"); home != "" {
		candidates = append(candidates,
			filepath.Join(home, ".local/share/Steam/ubuntu12_64/fossilize_replay"),
			filepath.Join(home, ".steam/root/ubuntu12_64/fossilize_replay"),
		)
	}

	for _, c := range candidates {
		if fs.Exists(c) {
			return c, nil
		}
	}

	return "", nvshader.ErrFossilizeNotFound
}

// Available reports whether a replay binary can be located.
func Available() bool {
	_, err := FindBinary("")
	return err == nil
}

// ReplayFile replays a single .foz file. The returned bool is true when the
// child exited with status zero.
func (r *Replayer) ReplayFile(ctx context.Context, path string, progress ProgressFunc) bool {
	report(progress, Progress{Total: 1, CurrentFile: path, Status: "running"})

	args := []string{}
	if r.opts.SkipValidation {
		args = append(args, "--spirv-val", "0")
	}
	args = append(args, "--num-threads", strconv.Itoa(r.opts.NumThreads))
	if r.opts.PipelineCacheDir != "" {
		args = append(args, "--pipeline-cache", r.opts.PipelineCacheDir)
	}
	args = append(args, path)

	ctx, cancel := context.WithTimeout(ctx, r.opts.Timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, r.binary, args...)
	cmd.Stdout = nil
	cmd.Stderr = nil

	err := cmd.Run()
	if err != nil {
		log.Debugf("replay %v: %v", path, err)
		report(progress, Progress{Total: 1, Failed: 1, CurrentFile: path, Status: "failed"})
		return false
	}

	report(progress, Progress{Total: 1, Completed: 1, CurrentFile: path, Status: "completed"})
	return true
}

// ReplayDir replays every .foz file directly inside dir, sequentially.
func (r *Replayer) ReplayDir(ctx context.Context, dir string, progress ProgressFunc) Result {
	var res Result

	items, err := os.ReadDir(dir)
	if err != nil {
		log.Warnf("replay dir %v: %v", dir, err)
		return res
	}

	for _, d := range items {
		if d.IsDir() || !strings.HasSuffix(d.Name(), ".foz") {
			continue
		}
		res.Total++
		if r.ReplayFile(ctx, filepath.Join(dir, d.Name()), progress) {
			res.Completed++
		} else {
			res.Failed++
		}
	}

	return res
}

// ReplayEntries replays every Fossilize entry of a scanned set. Entries of
// other kinds count as skipped. The progress callback fires once per entry
// start and end.
func (r *Replayer) ReplayEntries(ctx context.Context, entries []*nvshader.CacheEntry, progress ProgressFunc) Result {
	var res Result
	res.Total = uint32(len(entries))

	for _, e := range entries {
		if e.Kind != nvshader.KindFossilize {
			res.Skipped++
			continue
		}

		report(progress, Progress{
			Total:       len(entries),
			Completed:   int(res.Completed),
			Failed:      int(res.Failed),
			CurrentFile: e.Path,
			Status:      "running",
		})

		if e.IsDirectory {
			sub := r.ReplayDir(ctx, e.Path, nil)
			res.Completed += sub.Completed
			res.Failed += sub.Failed
		} else if r.ReplayFile(ctx, e.Path, nil) {
			res.Completed++
		} else {
			res.Failed++
		}

		report(progress, Progress{
			Total:       len(entries),
			Completed:   int(res.Completed),
			Failed:      int(res.Failed),
			CurrentFile: e.Path,
			Status:      "done",
		})
	}

	return res
}

// ReplayGame replays the entries bound to one game id. It returns
// ErrGameNotFound when no entry of the set is bound to the game; bound
// entries of kinds other than Fossilize count as skipped.
func (r *Replayer) ReplayGame(ctx context.Context, entries []*nvshader.CacheEntry, gameID string, progress ProgressFunc) (Result, error) {
	var matched []*nvshader.CacheEntry
	for _, e := range entries {
		if e.GameID == gameID {
			matched = append(matched, e)
		}
	}
	if len(matched) == 0 {
		return Result{}, nvshader.ErrGameNotFound
	}

	return r.ReplayEntries(ctx, matched, progress), nil
}

func report(progress ProgressFunc, p Progress) {
	if progress != nil {
		progress(p)
	}
}

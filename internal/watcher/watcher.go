// Package watcher observes cache directories for live shader compilation
// through inotify. The kernel descriptor is non-blocking; Run polls it on a
// ~100 ms cadence so Stop can interrupt between reads.
package watcher

import (
	"strings"
	"sync/atomic"
	"time"
	"unsafe"

	"github.com/GhostKellz/nvshader/internal/paths"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sys/unix"
)

// EventType classifies a raw inotify event.
type EventType int

const (
	// Created fires when a cache file appears.
	Created EventType = iota

	// Modified fires on a plain write.
	Modified

	// Deleted fires when a cache file is removed.
	Deleted

	// CompilationEnd fires when a writer closes a cache file, which is how
	// drivers and translation layers finish a compilation burst.
	CompilationEnd
)

func (t EventType) String() string {
	switch t {
	case Created:
		return "created"
	case Modified:
		return "modified"
	case Deleted:
		return "deleted"
	case CompilationEnd:
		return "compilation_end"
	}
	return "unknown"
}

// Event is one classified cache-directory event.
type Event struct {
	Path string
	Type EventType
	Time time.Time
}

// EventFunc receives classified events. The watcher holds a single callback.
type EventFunc func(Event)

// Counters accumulate per-session event totals.
type Counters struct {
	Created         uint64
	Modified        uint64
	Deleted         uint64
	CompilationEnds uint64
}

const watchMask = unix.IN_CREATE | unix.IN_MODIFY | unix.IN_DELETE | unix.IN_CLOSE_WRITE

// pollInterval is the sleep between non-blocking reads of the inotify
// descriptor.
const pollInterval = 100 * time.Millisecond

// Watcher owns one inotify descriptor and its watch table.
type Watcher struct {
	fd       int
	watches  map[int32]string
	callback EventFunc
	counters Counters
	running  atomic.Bool
}

// New creates a watcher over the resolved cache roots. Up to five
// directories are registered: NVIDIA, Mesa, DXVK, vkd3d and one existing
// Fossilize location. Roots that do not exist are skipped.
func New(p *paths.CachePaths) (*Watcher, error) {
	fd, err := unix.InotifyInit1(unix.IN_NONBLOCK | unix.IN_CLOEXEC)
	if err != nil {
		return nil, errors.Wrap(err, "InotifyInit1")
	}

	w := &Watcher{fd: fd, watches: make(map[int32]string)}

	fossilize := p.Fossilize
	if fossilize == "" {
		fossilize = p.Steam
	}

	for _, dir := range []string{p.Nvidia, p.Mesa, p.Dxvk, p.Vkd3d, fossilize} {
		if dir == "" {
			continue
		}
		wd, err := unix.InotifyAddWatch(fd, dir, watchMask)
		if err != nil {
			log.Warnf("watch %v: %v", dir, err)
			continue
		}
		w.watches[int32(wd)] = dir
	}

	if len(w.watches) == 0 {
		_ = unix.Close(fd)
		return nil, errors.New("no cache directories to watch")
	}

	log.Debugf("watching %d cache directories", len(w.watches))
	return w, nil
}

// OnEvent registers the event callback, replacing any previous one.
func (w *Watcher) OnEvent(fn EventFunc) {
	w.callback = fn
}

// Counters returns the session totals accumulated so far.
func (w *Watcher) Counters() Counters {
	return w.counters
}

// Run polls for events until Stop is called. It never returns an error for
// transient read failures; the loop simply retries on the next tick.
func (w *Watcher) Run() {
	w.running.Store(true)

	for w.running.Load() {
		if !w.Poll() {
			time.Sleep(pollInterval)
		}
	}
}

// Poll drains pending events without blocking. It reports whether any event
// was delivered.
func (w *Watcher) Poll() bool {
	var buf [4096]byte

	n, err := unix.Read(w.fd, buf[:])
	if n <= 0 || err != nil {
		return false
	}

	delivered := false
	offset := 0
	for offset+unix.SizeofInotifyEvent <= n {
		raw := (*unix.InotifyEvent)(unsafe.Pointer(&buf[offset]))
		nameLen := int(raw.Len)

		name := ""
		if nameLen > 0 {
			b := buf[offset+unix.SizeofInotifyEvent : offset+unix.SizeofInotifyEvent+nameLen]
			name = strings.TrimRight(string(b), "\x00")
		}

		if dir, ok := w.watches[raw.Wd]; ok {
			w.dispatch(dir, name, raw.Mask)
			delivered = true
		}

		offset += unix.SizeofInotifyEvent + nameLen
	}

	return delivered
}

// dispatch classifies one raw event and hands it to the callback. A
// close-on-write takes precedence over the modify bit set by the same burst.
func (w *Watcher) dispatch(dir, name string, mask uint32) {
	var t EventType
	switch {
	case mask&unix.IN_CREATE != 0:
		t = Created
		w.counters.Created++
	case mask&unix.IN_DELETE != 0:
		t = Deleted
		w.counters.Deleted++
	case mask&unix.IN_CLOSE_WRITE != 0:
		t = CompilationEnd
		w.counters.CompilationEnds++
	case mask&unix.IN_MODIFY != 0:
		t = Modified
		w.counters.Modified++
	default:
		return
	}

	path := dir
	if name != "" {
		path = dir + "/" + name
	}

	if w.callback != nil {
		w.callback(Event{Path: path, Type: t, Time: time.Now()})
	}
}

// Stop ends the Run loop, releases every watch descriptor and closes the
// inotify descriptor.
func (w *Watcher) Stop() {
	w.running.Store(false)

	for wd := range w.watches {
		_, _ = unix.InotifyRmWatch(w.fd, uint32(wd))
	}
	w.watches = map[int32]string{}
	_ = unix.Close(w.fd)
}

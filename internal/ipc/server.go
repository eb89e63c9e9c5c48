// Package ipc answers local GUI consumers over a unix stream socket with
// one-byte request frames and JSON-line replies.
package ipc

import (
	"encoding/json"
	"net"
	"os"
	"sync/atomic"
	"time"

	"github.com/GhostKellz/nvshader/internal/catalog"
	"github.com/GhostKellz/nvshader/internal/manager"
	"github.com/GhostKellz/nvshader/internal/nvshader"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// SocketPath is where GUI consumers expect the daemon.
const SocketPath = "/tmp/nvshader.sock"

// Request frame bytes.
const (
	ReqStatus    = 0x01
	ReqSteamInfo = 0x04
	ReqGpuInfo   = 0x05
)

// Server answers status requests from the manager's current state.
type Server struct {
	mgr      *manager.Manager
	gpu      *nvshader.GpuProfile
	listener *net.UnixListener
	running  atomic.Bool
}

// New binds the IPC socket, replacing a stale one from a dead daemon.
func New(mgr *manager.Manager, gpu *nvshader.GpuProfile) (*Server, error) {
	_ = os.Remove(SocketPath)

	addr := &net.UnixAddr{Name: SocketPath, Net: "unix"}
	l, err := net.ListenUnix("unix", addr)
	if err != nil {
		return nil, errors.Wrap(nvshader.ErrListenFailed, err.Error())
	}

	return &Server{mgr: mgr, gpu: gpu, listener: l}, nil
}

// Run accepts requests until Stop, polling so the loop stays interruptible.
func (s *Server) Run() {
	s.running.Store(true)

	for s.running.Load() {
		_ = s.listener.SetDeadline(time.Now().Add(100 * time.Millisecond))

		conn, err := s.listener.Accept()
		if err != nil {
			continue
		}
		s.handle(conn)
	}
}

// Stop ends the accept loop and removes the socket.
func (s *Server) Stop() {
	s.running.Store(false)
	_ = s.listener.Close()
	_ = os.Remove(SocketPath)
}

func (s *Server) handle(conn net.Conn) {
	defer func() { _ = conn.Close() }()
	_ = conn.SetDeadline(time.Now().Add(time.Second))

	var req [1]byte
	if _, err := conn.Read(req[:]); err != nil {
		return
	}

	var reply any
	switch req[0] {
	case ReqStatus:
		reply = s.mgr.Stats()
	case ReqSteamInfo:
		reply = map[string]string{"steam_root": catalog.FindSteamRoot(os.Getenv("HOME"))}
	case ReqGpuInfo:
		reply = s.gpu
	default:
		reply = map[string]string{"error": "unknown request"}
	}

	buf, err := json.Marshal(reply)
	if err != nil {
		log.Warnf("ipc reply: %v", err)
		return
	}
	_, _ = conn.Write(append(buf, '\n'))
}

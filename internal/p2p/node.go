package p2p

import (
	"encoding/json"
	"net"
	"os"
	"sync/atomic"
	"time"

	"github.com/GhostKellz/nvshader/internal/nvshader"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sys/unix"
)

// PeerInfo is what this node knows about another announcing node.
type PeerInfo struct {
	Address  string
	Port     int
	Hostname string
	Arch     string
	Driver   string
	Caches   []CacheOffer
	LastSeen time.Time
}

// localCache binds an advertised offer to its on-disk artifact.
type localCache struct {
	offer CacheOffer
	path  string
	isDir bool
}

// Options configures a Node.
type Options struct {
	// Hostname in announces. Defaults to os.Hostname.
	Hostname string

	// DiscoveryPort and TransferPort override the protocol defaults,
	// mainly for tests.
	DiscoveryPort int
	TransferPort  int
}

// Node owns the discovery socket and the transfer listener. All methods are
// driven from a single goroutine; Run is the cooperative loop.
type Node struct {
	gpu  *nvshader.GpuProfile
	opts Options

	fd       int
	group    [4]byte
	listener *net.TCPListener

	caches      []localCache
	peers       map[string]*PeerInfo
	lastOffered *localCache

	running      atomic.Bool
	lastAnnounce time.Time
}

// NewNode creates the discovery socket (bound with address reuse, joined to
// the multicast group on the default interface) and the transfer listener.
func NewNode(gpu *nvshader.GpuProfile, opts Options) (*Node, error) {
	if opts.Hostname == "" {
		opts.Hostname, _ = os.Hostname()
	}
	if opts.DiscoveryPort == 0 {
		opts.DiscoveryPort = DiscoveryPort
	}
	if opts.TransferPort == 0 {
		opts.TransferPort = TransferPort
	}

	group, err := parseIPv4(MulticastGroup)
	if err != nil {
		return nil, err
	}

	fd, err := unix.Socket(unix.AF_INET, unix.SOCK_DGRAM|unix.SOCK_NONBLOCK|unix.SOCK_CLOEXEC, 0)
	if err != nil {
		return nil, errors.Wrap(nvshader.ErrSocketCreateFailed, err.Error())
	}

	if err := unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_REUSEADDR, 1); err != nil {
		_ = unix.Close(fd)
		return nil, errors.Wrap(nvshader.ErrSocketCreateFailed, err.Error())
	}

	sa := &unix.SockaddrInet4{Port: opts.DiscoveryPort}
	if err := unix.Bind(fd, sa); err != nil {
		_ = unix.Close(fd)
		return nil, errors.Wrap(nvshader.ErrBindFailed, err.Error())
	}

	mreq := &unix.IPMreq{Multiaddr: group}
	if err := unix.SetsockoptIPMreq(fd, unix.IPPROTO_IP, unix.IP_ADD_MEMBERSHIP, mreq); err != nil {
		_ = unix.Close(fd)
		return nil, errors.Wrap(nvshader.ErrSocketCreateFailed, err.Error())
	}

	lc := net.ListenConfig{Control: reusePort}
	listener, err := listenTCP(lc, opts.TransferPort)
	if err != nil {
		_ = unix.Close(fd)
		return nil, err
	}

	return &Node{
		gpu:      gpu,
		opts:     opts,
		fd:       fd,
		group:    group,
		listener: listener,
		peers:    make(map[string]*PeerInfo),
	}, nil
}

// AddCache registers a local cache entry for sharing.
func (n *Node) AddCache(e *nvshader.CacheEntry) {
	if e.GameID == "" {
		return
	}
	n.caches = append(n.caches, localCache{
		offer: CacheOffer{
			GameID:   e.GameID,
			GameName: e.GameName,
			Kind:     e.Kind.Short(),
			Size:     e.SizeBytes,
		},
		path:  e.Path,
		isDir: e.IsDirectory,
	})
}

// Peers returns a snapshot of the currently known peers.
func (n *Node) Peers() []PeerInfo {
	out := make([]PeerInfo, 0, len(n.peers))
	for _, p := range n.peers {
		out = append(out, *p)
	}
	return out
}

// Announce multicasts this node's advertisement.
func (n *Node) Announce() error {
	offers := make([]CacheOffer, 0, len(n.caches))
	for _, c := range n.caches {
		offers = append(offers, c.offer)
	}

	msg := Announce{
		Type:     "announce",
		Hostname: n.opts.Hostname,
		Port:     n.opts.TransferPort,
		Arch:     n.gpu.Architecture,
		Driver:   n.gpu.DriverVersion,
		Caches:   offers,
	}

	return n.send(MsgAnnounce, msg)
}

// QueryGame multicasts a request for a game's cache.
func (n *Node) QueryGame(gameID string) error {
	return n.send(MsgQuery, Query{Type: "query", GameID: gameID, Arch: n.gpu.Architecture})
}

// send frames and multicasts one message to the group.
func (n *Node) send(t MsgType, payload any) error {
	buf, err := encodeMessage(t, payload)
	if err != nil {
		return err
	}

	dst := &unix.SockaddrInet4{Port: n.opts.DiscoveryPort, Addr: n.group}
	if err := unix.Sendto(n.fd, buf, 0, dst); err != nil {
		return errors.Wrap(nvshader.ErrSendFailed, err.Error())
	}
	return nil
}

// Poll drains pending datagrams without blocking. Malformed datagrams are
// discarded; a bad message never terminates the node.
func (n *Node) Poll() {
	var buf [8192]byte

	for {
		size, from, err := unix.Recvfrom(n.fd, buf[:], 0)
		if err != nil || size <= 0 {
			return
		}

		sender := ""
		if sa, ok := from.(*unix.SockaddrInet4); ok {
			sender = net.IP(sa.Addr[:]).String()
		}

		n.handleDatagram(buf[:size], sender)
	}
}

func (n *Node) handleDatagram(buf []byte, sender string) {
	t, body, ok := decodeMessage(buf)
	if !ok {
		return
	}

	switch t {
	case MsgAnnounce:
		var msg Announce
		if json.Unmarshal(body, &msg) != nil {
			return
		}
		if msg.Hostname == n.opts.Hostname {
			return
		}
		n.peers[sender] = &PeerInfo{
			Address:  sender,
			Port:     msg.Port,
			Hostname: msg.Hostname,
			Arch:     msg.Arch,
			Driver:   msg.Driver,
			Caches:   msg.Caches,
			LastSeen: time.Now(),
		}
		log.Debugf("peer %v (%v, %v) announced %d caches", msg.Hostname, sender, msg.Arch, len(msg.Caches))

	case MsgQuery:
		var msg Query
		if json.Unmarshal(body, &msg) != nil {
			return
		}
		n.handleQuery(&msg)

	case MsgOffer:
		var msg Offer
		if json.Unmarshal(body, &msg) != nil {
			return
		}
		log.Infof("offer from %v: %v (%d bytes) on port %d", sender, msg.GameID, msg.Size, msg.Port)

	default:
		// Reserved or unknown types are dropped.
	}
}

// handleQuery answers with an offer iff this node owns a cache for the
// queried game and the querier's architecture matches ours. A foreign
// architecture gets silence, not a refusal.
func (n *Node) handleQuery(q *Query) {
	offer, cache := n.offerFor(q)
	if offer == nil {
		return
	}

	n.lastOffered = cache
	if err := n.send(MsgOffer, *offer); err != nil {
		log.Warnf("offer for %v: %v", q.GameID, err)
	}
}

// offerFor applies the offer policy to one query: the game must be owned
// locally and the querier's architecture must equal ours.
func (n *Node) offerFor(q *Query) (*Offer, *localCache) {
	if q.Arch != n.gpu.Architecture {
		return nil, nil
	}

	for i := range n.caches {
		c := &n.caches[i]
		if c.offer.GameID != q.GameID {
			continue
		}
		return &Offer{
			Type:     "offer",
			GameID:   c.offer.GameID,
			GameName: c.offer.GameName,
			Size:     c.offer.Size,
			Port:     n.opts.TransferPort,
		}, c
	}

	return nil, nil
}

// Run is the cooperative loop: poll the discovery socket, re-announce every
// minute, serve transfer connections, sleep ~100 ms between rounds. It
// returns after Stop.
func (n *Node) Run() {
	n.running.Store(true)

	for n.running.Load() {
		n.Poll()

		if time.Since(n.lastAnnounce) >= AnnounceInterval*time.Second {
			if err := n.Announce(); err != nil {
				log.Warnf("announce: %v", err)
			}
			n.lastAnnounce = time.Now()
		}

		n.acceptTransfer()
		time.Sleep(100 * time.Millisecond)
	}
}

// Stop ends the Run loop and closes both sockets.
func (n *Node) Stop() {
	n.running.Store(false)
	_ = unix.Close(n.fd)
	_ = n.listener.Close()
}

package p2p

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net"
	"os"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/GhostKellz/nvshader/internal/nvshader"
	"github.com/cenkalti/backoff/v4"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sys/unix"
)

// transferMagic is the first line of every transfer stream.
const transferMagic = "NVCACHE_TRANSFER"

// transferChunkSize is the streaming buffer size.
const transferChunkSize = 64 * 1024

// TransferHeader is the decoded four-line ASCII preamble of a transfer
// stream.
type TransferHeader struct {
	GameID    string
	GameName  string
	SizeBytes uint64
}

// listenTCP opens the transfer listener on the given port with address
// reuse.
func listenTCP(lc net.ListenConfig, port int) (*net.TCPListener, error) {
	l, err := lc.Listen(context.Background(), "tcp4", fmt.Sprintf(":%d", port))
	if err != nil {
		return nil, errors.Wrap(nvshader.ErrListenFailed, err.Error())
	}
	return l.(*net.TCPListener), nil
}

// reusePort sets SO_REUSEADDR on the listener socket before bind.
func reusePort(network, address string, c syscall.RawConn) error {
	var soerr error
	err := c.Control(func(fd uintptr) {
		soerr = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEADDR, 1)
	})
	if err != nil {
		return err
	}
	return soerr
}

// acceptTransfer serves at most one pending transfer connection without
// blocking the cooperative loop.
func (n *Node) acceptTransfer() {
	_ = n.listener.SetDeadline(time.Now().Add(time.Millisecond))

	conn, err := n.listener.Accept()
	if err != nil {
		return
	}
	defer func() { _ = conn.Close() }()

	if n.lastOffered == nil {
		log.Warnf("transfer connection from %v with nothing offered", conn.RemoteAddr())
		return
	}
	if n.lastOffered.isDir {
		log.Warnf("offered cache %v is a directory; streaming unsupported", n.lastOffered.offer.GameID)
		return
	}

	if err := writeTransfer(conn, n.lastOffered.offer.GameID, n.lastOffered.offer.GameName, n.lastOffered.path); err != nil {
		log.Warnf("transfer to %v: %v", conn.RemoteAddr(), err)
		return
	}
	log.Infof("served %v to %v", n.lastOffered.offer.GameID, conn.RemoteAddr())
}

// writeTransfer emits the four-line header and streams the file in fixed
// chunks until EOF.
func writeTransfer(conn net.Conn, gameID, gameName, path string) error {
	if strings.ContainsAny(gameID+gameName, "\n") {
		return errors.Errorf("transfer metadata must not contain newlines")
	}

	f, err := os.Open(path)
	if err != nil {
		return errors.Wrap(err, "Open")
	}
	defer func() { _ = f.Close() }()

	fi, err := f.Stat()
	if err != nil {
		return errors.Wrap(err, "Stat")
	}

	header := fmt.Sprintf("%s\n%s\n%s\n%d\n", transferMagic, gameID, gameName, fi.Size())
	if _, err := io.WriteString(conn, header); err != nil {
		return errors.Wrap(nvshader.ErrSendFailed, err.Error())
	}

	buf := make([]byte, transferChunkSize)
	if _, err := io.CopyBuffer(conn, f, buf); err != nil {
		return errors.Wrap(nvshader.ErrSendFailed, err.Error())
	}

	return nil
}

// SendCache pushes one cache file to addr:port: connect, header, stream.
func SendCache(addr string, port int, gameID, gameName, path string) error {
	if _, err := parseIPv4(addr); err != nil {
		return err
	}

	conn, err := dialWithRetry(fmt.Sprintf("%s:%d", addr, port))
	if err != nil {
		return err
	}
	defer func() { _ = conn.Close() }()

	return writeTransfer(conn, gameID, gameName, path)
}

// FetchCache connects to a peer that offered a cache, reads the transfer
// header and writes exactly the announced number of payload bytes to
// destPath. It returns the decoded header.
func FetchCache(addr string, port int, destPath string) (*TransferHeader, error) {
	if _, err := parseIPv4(addr); err != nil {
		return nil, err
	}

	conn, err := dialWithRetry(fmt.Sprintf("%s:%d", addr, port))
	if err != nil {
		return nil, err
	}
	defer func() { _ = conn.Close() }()

	r := bufio.NewReaderSize(conn, transferChunkSize)
	header, err := readTransferHeader(r)
	if err != nil {
		return nil, err
	}

	out, err := os.OpenFile(destPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return nil, errors.Wrap(err, "OpenFile")
	}

	_, err = io.CopyN(out, r, int64(header.SizeBytes))
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return nil, errors.Wrap(err, "payload")
	}

	return header, nil
}

// readTransferHeader parses header lines until four have been seen.
func readTransferHeader(r *bufio.Reader) (*TransferHeader, error) {
	lines := make([]string, 0, 4)
	for len(lines) < 4 {
		line, err := r.ReadString('\n')
		if err != nil {
			return nil, errors.Wrap(err, "header")
		}
		lines = append(lines, strings.TrimSuffix(line, "\n"))
	}

	if lines[0] != transferMagic {
		return nil, errors.Errorf("bad transfer magic %q", lines[0])
	}

	size, err := strconv.ParseUint(lines[3], 10, 64)
	if err != nil {
		return nil, errors.Errorf("bad transfer size %q", lines[3])
	}

	return &TransferHeader{GameID: lines[1], GameName: lines[2], SizeBytes: size}, nil
}

// dialWithRetry connects with capped exponential backoff; peers are often
// mid-poll when the offer arrives.
func dialWithRetry(addr string) (net.Conn, error) {
	var conn net.Conn

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = 100 * time.Millisecond
	policy.MaxElapsedTime = 5 * time.Second

	err := backoff.Retry(func() error {
		var derr error
		conn, derr = net.DialTimeout("tcp4", addr, time.Second)
		return derr
	}, policy)
	if err != nil {
		return nil, errors.Wrap(nvshader.ErrConnectFailed, err.Error())
	}

	return conn, nil
}

package p2p

import (
	"encoding/json"
	"testing"

	"github.com/GhostKellz/nvshader/internal/nvshader"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMessageFraming(t *testing.T) {
	buf, err := encodeMessage(MsgQuery, Query{Type: "query", GameID: "steam:570", Arch: "Ada Lovelace"})
	require.NoError(t, err)

	assert.Equal(t, []byte("NVCACHE"), buf[:7])
	assert.Equal(t, byte(0x02), buf[7])

	typ, body, ok := decodeMessage(buf)
	require.True(t, ok)
	assert.Equal(t, MsgQuery, typ)

	var q Query
	require.NoError(t, json.Unmarshal(body, &q))
	assert.Equal(t, "steam:570", q.GameID)
	assert.Equal(t, "Ada Lovelace", q.Arch)
}

func TestDecodeRejectsForeignDatagrams(t *testing.T) {
	_, _, ok := decodeMessage([]byte("SSDP"))
	assert.False(t, ok)

	_, _, ok = decodeMessage([]byte("NOTNVCACHE{}"))
	assert.False(t, ok)

	_, _, ok = decodeMessage(nil)
	assert.False(t, ok)

	// Prefix alone, no type octet.
	_, _, ok = decodeMessage([]byte("NVCACHE"))
	assert.False(t, ok)
}

func TestParseIPv4(t *testing.T) {
	addr, err := parseIPv4("239.255.42.99")
	require.NoError(t, err)
	assert.Equal(t, [4]byte{239, 255, 42, 99}, addr)

	for _, bad := range []string{"", "1.2.3", "1.2.3.4.5", "256.0.0.1", "a.b.c.d", "1..2.3", "-1.0.0.0"} {
		_, err := parseIPv4(bad)
		assert.ErrorIs(t, err, nvshader.ErrInvalidAddress, bad)
	}
}

func TestOfferPolicy(t *testing.T) {
	node := &Node{
		gpu:  &nvshader.GpuProfile{VendorID: nvshader.VendorNvidia, Architecture: "Ada Lovelace"},
		opts: Options{TransferPort: TransferPort},
		caches: []localCache{{
			offer: CacheOffer{GameID: "steam:1086940", GameName: "Baldur's Gate 3", Kind: "fossilize", Size: 4096},
			path:  "/x/1086940.foz",
		}},
	}

	// Matching game and architecture: an offer.
	offer, cache := node.offerFor(&Query{GameID: "steam:1086940", Arch: "Ada Lovelace"})
	require.NotNil(t, offer)
	require.NotNil(t, cache)
	assert.Equal(t, "steam:1086940", offer.GameID)
	assert.Equal(t, "Baldur's Gate 3", offer.GameName)
	assert.Equal(t, uint64(4096), offer.Size)
	assert.Equal(t, TransferPort, offer.Port)

	// Foreign architecture: silence.
	offer, _ = node.offerFor(&Query{GameID: "steam:1086940", Arch: "Ampere"})
	assert.Nil(t, offer)

	// Unknown game: silence.
	offer, _ = node.offerFor(&Query{GameID: "steam:570", Arch: "Ada Lovelace"})
	assert.Nil(t, offer)
}

func TestHandleDatagramTracksPeers(t *testing.T) {
	node := &Node{
		gpu:   &nvshader.GpuProfile{Architecture: "Ada Lovelace"},
		opts:  Options{Hostname: "self"},
		peers: make(map[string]*PeerInfo),
	}

	msg, err := encodeMessage(MsgAnnounce, Announce{
		Type:     "announce",
		Hostname: "gamingrig",
		Port:     TransferPort,
		Arch:     "Ada Lovelace",
		Driver:   "565.77",
		Caches:   []CacheOffer{{GameID: "steam:570", GameName: "Dota 2", Kind: "fossilize", Size: 128}},
	})
	require.NoError(t, err)

	node.handleDatagram(msg, "192.168.1.20")
	require.Len(t, node.peers, 1)
	peer := node.peers["192.168.1.20"]
	assert.Equal(t, "gamingrig", peer.Hostname)
	require.Len(t, peer.Caches, 1)

	// A node's own announce is ignored.
	own, err := encodeMessage(MsgAnnounce, Announce{Type: "announce", Hostname: "self"})
	require.NoError(t, err)
	node.handleDatagram(own, "192.168.1.21")
	assert.Len(t, node.peers, 1)

	// Malformed JSON is silently discarded.
	node.handleDatagram(append([]byte("NVCACHE\x01"), []byte("{broken")...), "192.168.1.22")
	assert.Len(t, node.peers, 1)

	// Reserved types are dropped.
	node.handleDatagram([]byte("NVCACHE\x04{}"), "192.168.1.23")
	node.handleDatagram([]byte("NVCACHE\x05{}"), "192.168.1.23")
	assert.Len(t, node.peers, 1)
}

// Package p2p exchanges shader caches between compatible hosts on the local
// network. Discovery rides UDP multicast datagrams; the caches themselves
// move over plain TCP streams.
package p2p

import (
	"bytes"
	"encoding/json"

	"github.com/pkg/errors"
)

// Wire constants. Every discovery datagram starts with the 7-byte ASCII
// prefix followed by one message-type octet.
const (
	MulticastGroup = "239.255.42.99"
	DiscoveryPort  = 34789
	TransferPort   = 34790

	// AnnounceInterval is how often a node re-advertises itself.
	AnnounceInterval = 60 // seconds
)

var wirePrefix = []byte("NVCACHE")

// MsgType is the message-type octet following the wire prefix.
type MsgType byte

const (
	MsgAnnounce MsgType = 0x01
	MsgQuery    MsgType = 0x02
	MsgOffer    MsgType = 0x03

	// MsgRequest and MsgAck are reserved. They are never emitted and are
	// discarded on receipt like any other unhandled type.
	MsgRequest MsgType = 0x04
	MsgAck     MsgType = 0x05
)

// CacheOffer advertises one local cache in announce messages.
type CacheOffer struct {
	GameID   string `json:"game_id"`
	GameName string `json:"game_name"`
	Kind     string `json:"kind"`
	Size     uint64 `json:"size"`
}

// Announce is the periodic self-advertisement payload.
type Announce struct {
	Type     string       `json:"type"`
	Hostname string       `json:"hostname"`
	Port     int          `json:"port"`
	Arch     string       `json:"arch"`
	Driver   string       `json:"driver"`
	Caches   []CacheOffer `json:"caches"`
}

// Query asks the group for a specific game's cache.
type Query struct {
	Type   string `json:"type"`
	GameID string `json:"game_id"`
	Arch   string `json:"arch"`
}

// Offer answers a query the node can serve.
type Offer struct {
	Type     string `json:"type"`
	GameID   string `json:"game_id"`
	GameName string `json:"game_name"`
	Size     uint64 `json:"size"`
	Port     int    `json:"port"`
}

// encodeMessage frames a payload: prefix, type octet, JSON body.
func encodeMessage(t MsgType, payload any) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, errors.Wrap(err, "Marshal")
	}

	buf := make([]byte, 0, len(wirePrefix)+1+len(body))
	buf = append(buf, wirePrefix...)
	buf = append(buf, byte(t))
	buf = append(buf, body...)
	return buf, nil
}

// decodeMessage strips and checks the wire prefix, returning the type octet
// and the JSON body. ok is false for short or foreign datagrams.
func decodeMessage(buf []byte) (t MsgType, body []byte, ok bool) {
	if len(buf) < len(wirePrefix)+1 {
		return 0, nil, false
	}
	if !bytes.Equal(buf[:len(wirePrefix)], wirePrefix) {
		return 0, nil, false
	}
	return MsgType(buf[len(wirePrefix)]), buf[len(wirePrefix)+1:], true
}

package netpeer

import "encoding/json"

// envelopeKind mirrors the peered.peerMsgKind switch, but as a wire-stable
// string rather than an iota, since the iota value only has to survive a
// single process's lifetime while this has to survive a protocol version.
type envelopeKind string

const (
	kindAnnouncePeer    envelopeKind = "announce_peer"
	kindRequestPeers    envelopeKind = "request_peers"
	kindReplyPeers      envelopeKind = "reply_peers"
	kindRequestBackfill envelopeKind = "request_backfill"
	kindReplyBackfill   envelopeKind = "reply_backfill"
	kindAnnounce        envelopeKind = "announce"
	kindPeerSizeRequest envelopeKind = "peer_size_request"
	kindPeerSizeReply   envelopeKind = "peer_size_reply"
)

// envelope is the JSON frame exchanged between Endpoints. Every peered.PeerLink
// method has a matching Kind; Req/Page/Payload are carried pre-encoded as raw
// JSON since their concrete Go type is only known to the Endpoint's type
// parameters (Req, Page) or to the caller's AnnounceCodec, never to envelope
// itself.
type envelope struct {
	Kind    envelopeKind `json:"kind"`
	Version string       `json:"version"`
	From    string       `json:"from"`

	Peers []string `json:"peers,omitempty"`

	Req  json.RawMessage `json:"req,omitempty"`
	Page json.RawMessage `json:"page,omitempty"`

	PayloadTag string          `json:"payload_tag,omitempty"`
	Payload    json.RawMessage `json:"payload,omitempty"`

	// RequestID/Size back the one request-reply exchange this protocol
	// needs (PeerSize), correlating a reply to its request across an
	// otherwise fire-and-forget transport.
	RequestID string `json:"request_id,omitempty"`
	Size      int    `json:"size,omitempty"`
}

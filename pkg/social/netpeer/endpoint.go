// Package netpeer is the cross-process peered.PeerLink, the "production
// deployment would introduce an RPC transport behind the PeeredShard
// contract" of spec.md §6. Grounded directly on the teacher's
// core.ReliableTransport (pkg/mcast/core/transport.go): a relt.Relt instance
// per replica, a poll goroutine draining relt.Consume() onto a typed
// dispatch, and JSON envelopes over relt's group-addressed Broadcast
// primitive. Where the teacher had one concrete Message type to marshal,
// every peered.Inner here has a closed union of request/page/announce
// shapes, so the envelope carries a Kind tag and leaves Req/Page/Payload as
// raw JSON until the matching peered.PeerLink method decodes them.
package netpeer

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/jabolina/go-social/pkg/social/peered"
	"github.com/jabolina/go-social/pkg/social/types"
	"github.com/jabolina/relt/pkg/relt"
	"github.com/pkg/errors"
	"github.com/prometheus/common/log"
)

// peerSizeTimeout bounds how long a remote PeerSize() call blocks before
// giving up and reporting zero known peers.
const peerSizeTimeout = 2 * time.Second

// Endpoint is one replica's network identity: it owns the relt transport,
// forwards inbound envelopes to the local peered.PeerLink (normally a shard
// wrapper such as *posts.Shard, the identity peered.Start advertises), and
// hands out RemoteLink handles other replicas are
// reached through. Req and Page must match the local shard's Inner exactly,
// the same way peered.PeeredShard is parameterized by them.
type Endpoint[Req any, Page any] struct {
	addr  string
	local peered.PeerLink
	codec peered.AnnounceCodec
	log   types.Logger

	relt *relt.Relt

	mu      sync.Mutex
	peers   map[string]*RemoteLink[Req, Page]
	pending map[string]chan int

	ctx    context.Context
	cancel context.CancelFunc
}

// NewEndpoint starts a relt transport named name on exchange, and spawns the
// poll loop that applies inbound envelopes to local. local may be nil if the
// owning PeeredShard can't be constructed yet — the shard's own initialPeers
// is usually built from this Endpoint's RemoteLinks, so SetLocal lets the
// two be wired up in either order (the same two-phase pattern
// users.Shard.SetDispatch uses for its own construction cycle). Inbound
// envelopes received before SetLocal is called are logged and dropped.
func NewEndpoint[Req any, Page any](
	name string,
	exchange string,
	local peered.PeerLink,
	codec peered.AnnounceCodec,
	logger types.Logger,
	invoker types.Invoker,
) (*Endpoint[Req, Page], error) {
	conf := relt.DefaultReltConfiguration()
	conf.Name = name
	conf.Exchange = relt.GroupAddress(exchange)
	r, err := relt.NewRelt(*conf)
	if err != nil {
		return nil, errors.Wrap(err, "netpeer: failed starting transport")
	}

	ctx, cancel := context.WithCancel(context.Background())
	e := &Endpoint[Req, Page]{
		addr:    name,
		local:   local,
		codec:   codec,
		log:     logger,
		relt:    r,
		peers:   make(map[string]*RemoteLink[Req, Page]),
		pending: make(map[string]chan int),
		ctx:     ctx,
		cancel:  cancel,
	}
	invoker.Spawn(e.poll)
	return e, nil
}

// SetLocal wires (or rewires) the local PeerLink envelopes are applied
// against. Safe to call concurrently with poll.
func (e *Endpoint[Req, Page]) SetLocal(local peered.PeerLink) {
	e.mu.Lock()
	e.local = local
	e.mu.Unlock()
}

func (e *Endpoint[Req, Page]) getLocal() peered.PeerLink {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.local
}

// Link returns the PeerLink for addr, creating one the first time it's
// asked for. Callers seed a PeeredShard's initialPeers with this, e.g.
// peered.New[...]("posts", inner, []peered.PeerLink{endpoint.Link("host-b:posts")}, ...).
func (e *Endpoint[Req, Page]) Link(addr string) *RemoteLink[Req, Page] {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.linkLocked(addr)
}

func (e *Endpoint[Req, Page]) linkLocked(addr string) *RemoteLink[Req, Page] {
	if rl, ok := e.peers[addr]; ok {
		return rl
	}
	rl := &RemoteLink[Req, Page]{endpoint: e, addr: addr}
	e.peers[addr] = rl
	return rl
}

// Close stops the poll loop and the underlying transport.
func (e *Endpoint[Req, Page]) Close() {
	e.cancel()
	if err := e.relt.Close(); err != nil {
		e.log.Errorf("netpeer %s: failed closing transport: %v", e.addr, err)
	}
}

func (e *Endpoint[Req, Page]) poll() {
	listener, err := e.relt.Consume()
	if err != nil {
		e.log.Errorf("netpeer %s: failed starting consume: %v", e.addr, err)
		return
	}
	for {
		select {
		case <-e.ctx.Done():
			return
		case recv, ok := <-listener:
			if !ok {
				return
			}
			e.consume(recv.Origin, relt.Recv{Data: recv.Data, Error: recv.Error})
		}
	}
}

func (e *Endpoint[Req, Page]) consume(origin string, recv relt.Recv) {
	if recv.Error != nil {
		e.log.Errorf("netpeer %s: failed consuming from %s: %v", e.addr, origin, recv.Error)
		return
	}
	if recv.Data == nil {
		return
	}

	var env envelope
	if err := json.Unmarshal(recv.Data, &env); err != nil {
		e.log.Errorf("netpeer %s: malformed envelope from %s: %v", e.addr, origin, err)
		return
	}

	remoteVersion, err := types.ParseProtocolVersion(env.Version)
	if err != nil || !types.CurrentProtocolVersion.Compatible(remoteVersion) {
		e.log.Warnf("netpeer %s: dropping envelope kind=%s from %s with incompatible protocol version %q", e.addr, env.Kind, origin, env.Version)
		return
	}

	e.apply(env)
}

func (e *Endpoint[Req, Page]) apply(env envelope) {
	local := e.getLocal()
	if local == nil {
		e.log.Warnf("netpeer %s: dropping envelope kind=%s from %s, no local shard wired yet", e.addr, env.Kind, env.From)
		return
	}

	switch env.Kind {
	case kindAnnouncePeer:
		local.AnnouncePeer(e.Link(env.From))

	case kindRequestPeers:
		local.RequestPeers(e.Link(env.From))

	case kindReplyPeers:
		links := make([]peered.PeerLink, 0, len(env.Peers))
		for _, addr := range env.Peers {
			links = append(links, e.Link(addr))
		}
		local.ReplyPeers(links)

	case kindRequestBackfill:
		var req Req
		if err := json.Unmarshal(env.Req, &req); err != nil {
			e.log.Errorf("netpeer %s: failed decoding backfill request from %s: %v", e.addr, env.From, err)
			return
		}
		local.RequestBackfill(e.Link(env.From), req)

	case kindReplyBackfill:
		var page Page
		if err := json.Unmarshal(env.Page, &page); err != nil {
			e.log.Errorf("netpeer %s: failed decoding backfill page from %s: %v", e.addr, env.From, err)
			return
		}
		local.ReplyBackfill(page)

	case kindAnnounce:
		payload, err := e.codec.DecodeAnnounce(env.PayloadTag, env.Payload)
		if err != nil {
			e.log.Errorf("netpeer %s: failed decoding announce %q from %s: %v", e.addr, env.PayloadTag, env.From, err)
			return
		}
		local.Announce(payload)

	case kindPeerSizeRequest:
		e.sendTell(env.From, envelope{Kind: kindPeerSizeReply, From: e.addr, Version: types.CurrentProtocolVersion.String(), RequestID: env.RequestID, Size: local.PeerSize()})

	case kindPeerSizeReply:
		e.mu.Lock()
		ch, ok := e.pending[env.RequestID]
		e.mu.Unlock()
		if ok {
			select {
			case ch <- env.Size:
			default:
			}
		}
	}
}

// addrOf resolves a peered.PeerLink back to a wire address: e.local's own
// address if peer is the local shard, or the remote address already bound to
// a RemoteLink.
func (e *Endpoint[Req, Page]) addrOf(peer peered.PeerLink) string {
	if peer == e.getLocal() {
		return e.addr
	}
	if rl, ok := peer.(*RemoteLink[Req, Page]); ok {
		return rl.addr
	}
	return ""
}

// sendTell is fire-and-forget, matching every peered.PeerLink method except
// PeerSize: errors are logged, never returned, since nothing upstream is
// waiting on the result.
func (e *Endpoint[Req, Page]) sendTell(addr string, env envelope) {
	data, err := json.Marshal(env)
	if err != nil {
		log.Errorf("netpeer %s: failed marshalling envelope kind=%s for %s: %v", e.addr, env.Kind, addr, err)
		return
	}
	m := relt.Send{Address: relt.GroupAddress(addr), Data: data}
	if err := e.relt.Broadcast(e.ctx, m); err != nil {
		e.log.Errorf("netpeer %s: failed sending envelope kind=%s to %s: %v", e.addr, env.Kind, addr, err)
	}
}

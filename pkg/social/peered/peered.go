// Package peered implements the generic replication wrapper described in
// spec.md §4.1: a PeeredShard owns an inner state, a peer list, and the
// join/gossip/backfill protocol that keeps replicas of that inner state
// converging. It is grounded on the teacher's actor shape
// (pkg/mcast/core/peer.go: a single mailbox goroutine draining a command
// channel and a peer-message channel, shutdown via context.CancelFunc) and
// its RPC-style dispatch (pkg/mcast/protocol.go: Unity.process switching on
// message kind).
package peered

import (
	"context"
	"time"

	"github.com/jabolina/go-social/pkg/social/types"
	"github.com/jpillora/backoff"
	"github.com/pkg/errors"
)

// DefaultPageSize is the backfill page size of spec.md §4.1. The shard
// records it but does not pass it to its Inner: each Inner (Posts, Users,
// Blocklists) pages with its own constant of the same value.
const DefaultPageSize = 100

// Inner is implemented by the state a PeeredShard replicates. Req is the
// backfill cursor type; Page is the paged chunk type returned by Backfill
// and consumed by HandleBackfill.
type Inner[Req any, Page any] interface {
	// BackfillInit produces the cursor a freshly joining replica starts
	// paging from.
	BackfillInit() Req

	// Backfill returns the page of entries starting at req.
	Backfill(req Req) Page

	// HandleBackfill applies a received page to local state and reports
	// whether the page was full (more to fetch) along with the next cursor.
	HandleBackfill(page Page) (next Req, more bool)

	// HandleAnnounce applies a broadcast mutation payload idempotently.
	HandleAnnounce(payload interface{}) error
}

// AskFunc runs against the inner state from inside the shard's own mailbox
// goroutine. It returns the caller-visible response, an optional broadcast
// payload to fan out to peers (nil for none), and an error.
type AskFunc[T any] func(inner *T) (response interface{}, broadcast interface{}, err error)

type command[T any] struct {
	fn    AskFunc[T]
	reply chan askResult
}

type askResult struct {
	response interface{}
	err      error
}

// PeerLink is the non-owning handle one PeeredShard replica holds to
// another. It is implemented directly by *PeeredShard for same-process
// peers, and by netpeer.RemoteLink for peers reached over the wire (spec.md
// §6: "a production deployment would introduce an RPC transport behind the
// PeeredShard contract").
type PeerLink interface {
	AnnouncePeer(peer PeerLink)
	RequestPeers(from PeerLink)
	ReplyPeers(peers []PeerLink)
	RequestBackfill(from PeerLink, req interface{})
	ReplyBackfill(page interface{})
	Announce(payload interface{})
	PeerSize() int
}

type peerMsgKind int

const (
	kindAnnouncePeer peerMsgKind = iota
	kindRequestPeers
	kindReplyPeers
	kindRequestBackfill
	kindReplyBackfill
	kindAnnounce
)

type peerMessage struct {
	kind  peerMsgKind
	peer  PeerLink
	peers []PeerLink
	req   interface{}
	page  interface{}
	payload interface{}
}

// PeeredShard is the generic replication wrapper of spec.md §4.1.
type PeeredShard[T Inner[Req, Page], Req any, Page any] struct {
	name     string
	inner    T
	peers    []PeerLink // owned exclusively by the run() goroutine
	self     PeerLink   // the canonical identity this replica advertises itself as
	pageSize int
	version  types.ProtocolVersion
	log      types.Logger
	invoker  types.Invoker

	cmdCh  chan command[T]
	peerCh chan peerMessage
	sizeCh chan chan int

	ctx    context.Context
	cancel context.CancelFunc
}

// New builds a PeeredShard around inner, seeds initialPeers as its starting
// peer set (spec.md §4.1: "Configuration passes each replica an initial
// ordered peer list before it starts" — original_source/src/actors/peered/
// mod.rs adds the leader to its own peer list before starting), and spawns
// its mailbox goroutine. The join protocol itself is started by Start, once
// the caller has a stable PeerLink to advertise as self.
func New[T Inner[Req, Page], Req any, Page any](
	name string,
	inner T,
	initialPeers []PeerLink,
	log types.Logger,
	invoker types.Invoker,
) *PeeredShard[T, Req, Page] {
	ctx, cancel := context.WithCancel(context.Background())
	p := &PeeredShard[T, Req, Page]{
		name:     name,
		inner:    inner,
		peers:    append([]PeerLink{}, initialPeers...),
		pageSize: DefaultPageSize,
		version:  types.CurrentProtocolVersion,
		log:      log,
		invoker:  invoker,
		cmdCh:    make(chan command[T], 32),
		peerCh:   make(chan peerMessage, 256),
		sizeCh:   make(chan chan int, 8),
		ctx:      ctx,
		cancel:   cancel,
	}
	p.self = p
	invoker.Spawn(p.run)
	return p
}

// Start sets the PeerLink this replica advertises to peers as self, and — if
// initialPeers was non-empty — begins the join protocol against peers[0]
// (spec.md §4.1 "Join protocol"). Callers that wrap a PeeredShard behind
// another type (every Shard in this module does) must call Start(self) with
// that wrapper once, synchronously, right after construction: clients build
// initialPeers out of the wrapper (e.g. *posts.Shard), so the wrapper — not
// the bare *PeeredShard — must be the single identity this replica is known
// under everywhere, or the same logical peer can end up stored under two
// different pointer identities across the cluster and dedup/equality checks
// (addPeer, netpeer's addrOf) silently stop matching it.
func (p *PeeredShard[T, Req, Page]) Start(self PeerLink) {
	p.self = self
	if len(p.peers) > 0 {
		p.join(p.peers[0])
	}
}

// join kicks off RequestPeers and RequestBackfill against the configured
// leader. Both are Tell sends; tellPeer (used internally by the leader's own
// PeerLink methods) already retries a momentarily-full mailbox with backoff,
// so join itself is a single fire-and-forget pair — the leader being gone
// entirely just means the join never completes, matching spec.md §1's
// "crashed replica restarts empty".
func (p *PeeredShard[T, Req, Page]) join(leader PeerLink) {
	p.invoker.Spawn(func() {
		leader.RequestPeers(p.self)
		leader.RequestBackfill(p.self, p.inner.BackfillInit())
	})
}

// Ask mutates or queries the shard locally. If the handler produces a
// broadcast payload, it is fanned out to every known peer as an Announce
// after the local response is ready (spec.md §4.1 "Contract exposed to
// clients").
func (p *PeeredShard[T, Req, Page]) Ask(fn AskFunc[T]) (interface{}, error) {
	reply := make(chan askResult, 1)
	select {
	case p.cmdCh <- command[T]{fn: fn, reply: reply}:
	case <-p.ctx.Done():
		return nil, errors.Wrap(types.ErrTransportFailure, "shard closed")
	}
	select {
	case res := <-reply:
		return res.response, res.err
	case <-p.ctx.Done():
		return nil, errors.Wrap(types.ErrTransportFailure, "shard closed")
	}
}

// PeerSize implements PeerLink; it returns the current count of known peers.
func (p *PeeredShard[T, Req, Page]) PeerSize() int {
	reply := make(chan int, 1)
	select {
	case p.sizeCh <- reply:
	case <-p.ctx.Done():
		return 0
	}
	select {
	case n := <-reply:
		return n
	case <-p.ctx.Done():
		return 0
	}
}

func (p *PeeredShard[T, Req, Page]) AnnouncePeer(peer PeerLink) {
	p.tellPeer(peerMessage{kind: kindAnnouncePeer, peer: peer})
}

func (p *PeeredShard[T, Req, Page]) RequestPeers(from PeerLink) {
	p.tellPeer(peerMessage{kind: kindRequestPeers, peer: from})
}

func (p *PeeredShard[T, Req, Page]) ReplyPeers(peers []PeerLink) {
	p.tellPeer(peerMessage{kind: kindReplyPeers, peers: peers})
}

func (p *PeeredShard[T, Req, Page]) RequestBackfill(from PeerLink, req interface{}) {
	p.tellPeer(peerMessage{kind: kindRequestBackfill, peer: from, req: req})
}

func (p *PeeredShard[T, Req, Page]) ReplyBackfill(page interface{}) {
	p.tellPeer(peerMessage{kind: kindReplyBackfill, page: page})
}

func (p *PeeredShard[T, Req, Page]) Announce(payload interface{}) {
	p.tellPeer(peerMessage{kind: kindAnnounce, payload: payload})
}

// tellPeer is fire-and-forget (Tell, never suspends the caller) but, if the
// mailbox is momentarily full, retries with jittered exponential backoff
// instead of blocking the sender's own mailbox goroutine indefinitely.
func (p *PeeredShard[T, Req, Page]) tellPeer(m peerMessage) {
	select {
	case p.peerCh <- m:
		return
	case <-p.ctx.Done():
		return
	default:
	}

	b := &backoff.Backoff{Min: 5 * time.Millisecond, Max: 200 * time.Millisecond, Factor: 2, Jitter: true}
	for {
		select {
		case p.peerCh <- m:
			return
		case <-p.ctx.Done():
			return
		case <-time.After(b.Duration()):
		}
		if b.Attempt() > 5 {
			p.log.Warnf("shard %s dropping peer message %v after repeated backoff", p.name, m.kind)
			return
		}
	}
}

// Stop cancels the shard's context; its mailbox goroutine exits on the next
// select iteration and in-flight Asks fail with ErrTransportFailure.
func (p *PeeredShard[T, Req, Page]) Stop() {
	p.cancel()
}

func (p *PeeredShard[T, Req, Page]) run() {
	defer p.log.Debugf("peered shard %s shutting down", p.name)
	for {
		select {
		case <-p.ctx.Done():
			return
		case cmd := <-p.cmdCh:
			p.handleAsk(cmd)
		case reply := <-p.sizeCh:
			reply <- len(p.peers)
		case pm := <-p.peerCh:
			p.handlePeerMessage(pm)
		}
	}
}

func (p *PeeredShard[T, Req, Page]) handleAsk(cmd command[T]) {
	response, broadcast, err := cmd.fn(&p.inner)
	if broadcast != nil {
		p.broadcast(broadcast)
	}
	cmd.reply <- askResult{response: response, err: err}
}

// broadcast fans Announce(payload) out to every peer. Each send runs on its
// own goroutine so a slow or gone peer can't stall the mailbox; the result
// is discarded per spec.md §4.1.
func (p *PeeredShard[T, Req, Page]) broadcast(payload interface{}) {
	for _, peer := range p.peers {
		peer := peer
		p.invoker.Spawn(func() {
			peer.Announce(payload)
		})
	}
}

func (p *PeeredShard[T, Req, Page]) handlePeerMessage(pm peerMessage) {
	switch pm.kind {
	case kindAnnouncePeer:
		p.addPeer(pm.peer)

	case kindRequestPeers:
		pm.peer.ReplyPeers(append([]PeerLink{}, p.peers...))
		p.addPeer(pm.peer)

	case kindReplyPeers:
		for _, peer := range pm.peers {
			peer := peer
			p.invoker.Spawn(func() {
				peer.AnnouncePeer(p.self)
			})
			p.addPeer(peer)
		}

	case kindRequestBackfill:
		req, _ := pm.req.(Req)
		page := p.inner.Backfill(req)
		pm.peer.ReplyBackfill(page)

	case kindReplyBackfill:
		page, _ := pm.page.(Page)
		next, more := p.inner.HandleBackfill(page)
		if more && len(p.peers) > 0 {
			p.peers[0].RequestBackfill(p.self, next)
		}

	case kindAnnounce:
		if err := p.inner.HandleAnnounce(pm.payload); err != nil {
			p.log.Errorf("shard %s failed applying announce %#v: %v", p.name, pm.payload, err)
		}
	}
}

func (p *PeeredShard[T, Req, Page]) addPeer(peer PeerLink) {
	if peer == p.self {
		return
	}
	for _, existing := range p.peers {
		if existing == peer {
			return
		}
	}
	p.peers = append(p.peers, peer)
}

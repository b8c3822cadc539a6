package netpeer

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/jabolina/go-social/pkg/social/peered"
	"github.com/jabolina/go-social/pkg/social/types"
)

// RemoteLink implements peered.PeerLink for a peer reached over an Endpoint's
// transport instead of directly in-process. Every method except PeerSize is
// a Tell: it encodes an envelope and sends it, never blocking the caller.
type RemoteLink[Req any, Page any] struct {
	endpoint *Endpoint[Req, Page]
	addr     string
}

func (r *RemoteLink[Req, Page]) version() string {
	return types.CurrentProtocolVersion.String()
}

func (r *RemoteLink[Req, Page]) AnnouncePeer(peer peered.PeerLink) {
	r.endpoint.sendTell(r.addr, envelope{
		Kind:    kindAnnouncePeer,
		Version: r.version(),
		From:    r.endpoint.addrOf(peer),
	})
}

func (r *RemoteLink[Req, Page]) RequestPeers(from peered.PeerLink) {
	r.endpoint.sendTell(r.addr, envelope{
		Kind:    kindRequestPeers,
		Version: r.version(),
		From:    r.endpoint.addrOf(from),
	})
}

func (r *RemoteLink[Req, Page]) ReplyPeers(peers []peered.PeerLink) {
	addrs := make([]string, 0, len(peers))
	for _, peer := range peers {
		addrs = append(addrs, r.endpoint.addrOf(peer))
	}
	r.endpoint.sendTell(r.addr, envelope{
		Kind:    kindReplyPeers,
		Version: r.version(),
		From:    r.endpoint.addr,
		Peers:   addrs,
	})
}

func (r *RemoteLink[Req, Page]) RequestBackfill(from peered.PeerLink, req interface{}) {
	typed, _ := req.(Req)
	data, err := json.Marshal(typed)
	if err != nil {
		r.endpoint.log.Errorf("netpeer %s: failed marshalling backfill request for %s: %v", r.endpoint.addr, r.addr, err)
		return
	}
	r.endpoint.sendTell(r.addr, envelope{
		Kind:    kindRequestBackfill,
		Version: r.version(),
		From:    r.endpoint.addrOf(from),
		Req:     data,
	})
}

func (r *RemoteLink[Req, Page]) ReplyBackfill(page interface{}) {
	typed, _ := page.(Page)
	data, err := json.Marshal(typed)
	if err != nil {
		r.endpoint.log.Errorf("netpeer %s: failed marshalling backfill page for %s: %v", r.endpoint.addr, r.addr, err)
		return
	}
	r.endpoint.sendTell(r.addr, envelope{
		Kind:    kindReplyBackfill,
		Version: r.version(),
		From:    r.endpoint.addr,
		Page:    data,
	})
}

func (r *RemoteLink[Req, Page]) Announce(payload interface{}) {
	tag, data, err := r.endpoint.codec.EncodeAnnounce(payload)
	if err != nil {
		r.endpoint.log.Errorf("netpeer %s: failed encoding announce for %s: %v", r.endpoint.addr, r.addr, err)
		return
	}
	r.endpoint.sendTell(r.addr, envelope{
		Kind:       kindAnnounce,
		Version:    r.version(),
		From:       r.endpoint.addr,
		PayloadTag: tag,
		Payload:    data,
	})
}

// PeerSize is the one request-reply exchange on this transport: it blocks
// for a peer_size_reply correlated by a uuid request id, giving up and
// reporting zero after peerSizeTimeout.
func (r *RemoteLink[Req, Page]) PeerSize() int {
	id := uuid.New().String()
	reply := make(chan int, 1)

	r.endpoint.mu.Lock()
	r.endpoint.pending[id] = reply
	r.endpoint.mu.Unlock()
	defer func() {
		r.endpoint.mu.Lock()
		delete(r.endpoint.pending, id)
		r.endpoint.mu.Unlock()
	}()

	r.endpoint.sendTell(r.addr, envelope{
		Kind:      kindPeerSizeRequest,
		Version:   r.version(),
		From:      r.endpoint.addr,
		RequestID: id,
	})

	select {
	case n := <-reply:
		return n
	case <-time.After(peerSizeTimeout):
		return 0
	case <-r.endpoint.ctx.Done():
		return 0
	}
}

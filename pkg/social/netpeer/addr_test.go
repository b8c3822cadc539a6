package netpeer

import (
	"testing"

	"github.com/jabolina/go-social/pkg/social/peered"
	"github.com/stretchr/testify/require"
)

// stubPeerLink is a minimal peered.PeerLink so addrOf can be exercised
// without standing up a real relt transport.
type stubPeerLink struct{ peered.PeerLink }

func newTestEndpoint(local peered.PeerLink) *Endpoint[int, int] {
	return &Endpoint[int, int]{
		addr:    "host-a:posts",
		local:   local,
		peers:   make(map[string]*RemoteLink[int, int]),
		pending: make(map[string]chan int),
	}
}

func TestAddrOfResolvesLocal(t *testing.T) {
	local := &stubPeerLink{}
	e := newTestEndpoint(local)
	require.Equal(t, "host-a:posts", e.addrOf(local))
}

func TestAddrOfResolvesRemoteLink(t *testing.T) {
	e := newTestEndpoint(&stubPeerLink{})
	rl := e.Link("host-b:posts")
	require.Equal(t, "host-b:posts", e.addrOf(rl))
}

func TestLinkIsMemoized(t *testing.T) {
	e := newTestEndpoint(&stubPeerLink{})
	a := e.Link("host-b:posts")
	b := e.Link("host-b:posts")
	require.Same(t, a, b)
}

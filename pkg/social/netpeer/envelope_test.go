package netpeer

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEnvelopeRoundTripsAnnounce(t *testing.T) {
	env := envelope{
		Kind:       kindAnnounce,
		Version:    "1.0.0",
		From:       "host-a:posts",
		PayloadTag: "posts.new_post_full",
		Payload:    json.RawMessage(`{"Id":{"Shard":0,"Local":1,"Timestamp":5}}`),
	}

	data, err := json.Marshal(env)
	require.NoError(t, err)

	var decoded envelope
	require.NoError(t, json.Unmarshal(data, &decoded))
	require.Equal(t, env, decoded)
}

func TestEnvelopeRoundTripsReplyPeers(t *testing.T) {
	env := envelope{
		Kind:    kindReplyPeers,
		Version: "1.0.0",
		From:    "host-a:posts",
		Peers:   []string{"host-b:posts", "host-c:posts"},
	}

	data, err := json.Marshal(env)
	require.NoError(t, err)

	var decoded envelope
	require.NoError(t, json.Unmarshal(data, &decoded))
	require.Equal(t, env.Peers, decoded.Peers)
}

func TestEnvelopeRoundTripsPeerSize(t *testing.T) {
	env := envelope{
		Kind:      kindPeerSizeReply,
		Version:   "1.0.0",
		From:      "host-a:posts",
		RequestID: "abc-123",
		Size:      3,
	}

	data, err := json.Marshal(env)
	require.NoError(t, err)

	var decoded envelope
	require.NoError(t, json.Unmarshal(data, &decoded))
	require.Equal(t, 3, decoded.Size)
	require.Equal(t, "abc-123", decoded.RequestID)
}

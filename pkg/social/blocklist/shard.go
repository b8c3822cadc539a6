package blocklist

import (
	"encoding/json"

	"github.com/jabolina/go-social/pkg/social/peered"
	"github.com/jabolina/go-social/pkg/social/types"
)

// Shard is the client-facing handle to a Blocklists replica.
type Shard struct {
	*peered.PeeredShard[*Blocklists, int, Page]
}

func NewShard(initialPeers []peered.PeerLink, log types.Logger, invoker types.Invoker) *Shard {
	inner := New()
	s := &Shard{PeeredShard: peered.New[*Blocklists, int, Page]("blocklist", inner, initialPeers, log, invoker)}
	s.Start(s)
	return s
}

func (s *Shard) Block(actor, blocked types.UserId) error {
	_, err := s.Ask(func(inner **Blocklists) (interface{}, interface{}, error) {
		(*inner).Block(actor, blocked)
		return nil, Block{Actor: actor, Blocked: blocked}, nil
	})
	return err
}

func (s *Shard) Unblock(actor, unblocked types.UserId) error {
	_, err := s.Ask(func(inner **Blocklists) (interface{}, interface{}, error) {
		(*inner).Unblock(actor, unblocked)
		return nil, Unblock{Actor: actor, Unblocked: unblocked}, nil
	})
	return err
}

func (s *Shard) GetBlocklist(actor types.UserId) (map[types.UserId]struct{}, error) {
	resp, err := s.Ask(func(inner **Blocklists) (interface{}, interface{}, error) {
		return (*inner).GetBlocklist(actor), nil, nil
	})
	if err != nil {
		return nil, err
	}
	return resp.(map[types.UserId]struct{}), nil
}

func (s *Shard) GetBlockedBy(actor types.UserId) (map[types.UserId]struct{}, error) {
	resp, err := s.Ask(func(inner **Blocklists) (interface{}, interface{}, error) {
		return (*inner).GetBlockedBy(actor), nil, nil
	})
	if err != nil {
		return nil, err
	}
	return resp.(map[types.UserId]struct{}), nil
}

func (s *Shard) CanSpeak(a, b types.UserId) (bool, error) {
	resp, err := s.Ask(func(inner **Blocklists) (interface{}, interface{}, error) {
		return (*inner).CanSpeak(a, b), nil, nil
	})
	if err != nil {
		return false, err
	}
	return resp.(bool), nil
}

// AnnounceCodec implements peered.AnnounceCodec for netpeer.
type AnnounceCodec struct{}

const (
	tagBlock   = "blocklist.block"
	tagUnblock = "blocklist.unblock"
)

func (AnnounceCodec) EncodeAnnounce(payload interface{}) (string, []byte, error) {
	switch msg := payload.(type) {
	case Block:
		data, err := json.Marshal(msg)
		return tagBlock, data, err
	case Unblock:
		data, err := json.Marshal(msg)
		return tagUnblock, data, err
	default:
		return "", nil, types.ErrUnsupportedProtocol
	}
}

func (AnnounceCodec) DecodeAnnounce(tag string, data []byte) (interface{}, error) {
	switch tag {
	case tagBlock:
		var msg Block
		if err := json.Unmarshal(data, &msg); err != nil {
			return nil, err
		}
		return msg, nil
	case tagUnblock:
		var msg Unblock
		if err := json.Unmarshal(data, &msg); err != nil {
			return nil, err
		}
		return msg, nil
	default:
		return nil, types.ErrUnsupportedProtocol
	}
}

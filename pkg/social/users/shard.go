package users

import (
	"github.com/jabolina/go-social/pkg/social/blocklist"
	"github.com/jabolina/go-social/pkg/social/peered"
	"github.com/jabolina/go-social/pkg/social/posts"
	"github.com/jabolina/go-social/pkg/social/types"
)

// Shard is the client-facing handle to a Users replica.
type Shard struct {
	*peered.PeeredShard[*Users, int, Page]
}

func NewShard(
	shardID types.ShardId,
	postsShard *posts.Shard,
	blocklistsShard *blocklist.Shard,
	initialPeers []peered.PeerLink,
	log types.Logger,
	invoker types.Invoker,
) *Shard {
	inner := New(shardID, postsShard, blocklistsShard, log, invoker)
	s := &Shard{PeeredShard: peered.New[*Users, int, Page]("users", inner, initialPeers, log, invoker)}
	s.Start(s)
	return s
}

// SetDispatch wires in the Dispatch coordinator; see Users.SetDispatch.
// Runs through Ask so it's sequenced with any in-flight NewUser calls.
func (s *Shard) SetDispatch(d Dispatcher) error {
	_, err := s.Ask(func(inner **Users) (interface{}, interface{}, error) {
		(*inner).SetDispatch(d)
		return nil, nil, nil
	})
	return err
}

func (s *Shard) NewUser() (types.UserId, error) {
	resp, err := s.Ask(func(inner **Users) (interface{}, interface{}, error) {
		id, broadcast := (*inner).NewUser()
		return id, broadcast, nil
	})
	if err != nil {
		return types.UserId{}, err
	}
	return resp.(types.UserId), nil
}

func (s *Shard) Lookup(id types.UserId) (UserHandle, error) {
	resp, err := s.Ask(func(inner **Users) (interface{}, interface{}, error) {
		handle, lookupErr := (*inner).Lookup(id)
		return handle, nil, lookupErr
	})
	if err != nil {
		return UserHandle{}, err
	}
	return resp.(UserHandle), nil
}

type lookupManyResult struct {
	found   []UserHandle
	missing []types.UserId
}

func (s *Shard) LookupMany(ids []types.UserId) ([]UserHandle, []types.UserId, error) {
	resp, err := s.Ask(func(inner **Users) (interface{}, interface{}, error) {
		found, missing := (*inner).LookupMany(ids)
		return lookupManyResult{found: found, missing: missing}, nil, nil
	})
	if err != nil {
		return nil, nil, err
	}
	r := resp.(lookupManyResult)
	return r.found, r.missing, nil
}

func (s *Shard) DeleteUser(id types.UserId) error {
	_, err := s.Ask(func(inner **Users) (interface{}, interface{}, error) {
		(*inner).DeleteUser(id)
		return nil, DeleteUser{Id: id}, nil
	})
	return err
}

func (s *Shard) UserSize() (int, error) {
	resp, err := s.Ask(func(inner **Users) (interface{}, interface{}, error) {
		return (*inner).UserSize(), nil, nil
	})
	if err != nil {
		return 0, err
	}
	return resp.(int), nil
}

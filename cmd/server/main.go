// Command server is the HTTP front end of one replica set, grounded on
// original_source/src/bin/server.rs: it wires one Posts shard, one
// Blocklists shard and one Users shard together behind three routes
// (/new_user, /new_post/{shard}/{id}, /get_posts/{shard}/{id}), and binds
// 127.0.0.1:8080 by default just like the original. Flags are parsed with
// kingpin, matching this build's CLI tooling choice elsewhere in the module.
//
// Posts and Blocklists can additionally be peered with replicas running in
// other processes over netpeer by passing --peer; Users stays process-local
// (see the UserHandle doc in pkg/social/users for why it has no netpeer
// codec).
package main

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/jabolina/go-social/pkg/social/blocklist"
	"github.com/jabolina/go-social/pkg/social/definition"
	"github.com/jabolina/go-social/pkg/social/dispatch"
	"github.com/jabolina/go-social/pkg/social/netpeer"
	"github.com/jabolina/go-social/pkg/social/peered"
	"github.com/jabolina/go-social/pkg/social/posts"
	"github.com/jabolina/go-social/pkg/social/types"
	"github.com/jabolina/go-social/pkg/social/users"
	"gopkg.in/alecthomas/kingpin.v2"
)

var (
	bindAddr  = kingpin.Flag("bind", "address to listen on").Default("127.0.0.1:8080").String()
	nodeName  = kingpin.Flag("name", "this replica's address on the netpeer transport").Default("127.0.0.1:8080").String()
	shardID   = kingpin.Flag("shard", "this replica's shard id").Default("0").Uint64()
	peerAddrs = kingpin.Flag("peer", "netpeer address of an existing replica to join (repeatable)").Strings()
	debug     = kingpin.Flag("debug", "enable debug logging").Default("false").Bool()
)

type server struct {
	users *users.Shard
	log   types.Logger
}

func main() {
	kingpin.Parse()

	log := definition.NewDefaultLogger()
	log.ToggleDebug(*debug)
	invoker := types.DefaultInvoker{}

	postsEndpoint, err := netpeer.NewEndpoint[int, posts.Page](*nodeName+":posts", "go-social-posts", nil, posts.AnnounceCodec{}, log, invoker)
	if err != nil {
		log.Fatalf("failed starting posts netpeer endpoint: %v", err)
	}
	blocklistEndpoint, err := netpeer.NewEndpoint[int, blocklist.Page](*nodeName+":blocklist", "go-social-blocklist", nil, blocklist.AnnounceCodec{}, log, invoker)
	if err != nil {
		log.Fatalf("failed starting blocklist netpeer endpoint: %v", err)
	}

	var postsPeers, blocklistPeers []peered.PeerLink
	for _, addr := range *peerAddrs {
		postsPeers = append(postsPeers, postsEndpoint.Link(addr+":posts"))
		blocklistPeers = append(blocklistPeers, blocklistEndpoint.Link(addr+":blocklist"))
	}

	postsShard := posts.NewShard(types.ShardId(*shardID), postsPeers, log, invoker)
	blocklistsShard := blocklist.NewShard(blocklistPeers, log, invoker)
	postsEndpoint.SetLocal(postsShard)
	blocklistEndpoint.SetLocal(blocklistsShard)

	usersShard := users.NewShard(types.ShardId(*shardID), postsShard, blocklistsShard, nil, log, invoker)
	d := dispatch.New(usersShard, blocklistsShard, log)
	if err := usersShard.SetDispatch(d); err != nil {
		log.Fatalf("failed wiring dispatch: %v", err)
	}

	s := &server{users: usersShard, log: log}

	mux := http.NewServeMux()
	mux.HandleFunc("/new_user", s.newUser)
	mux.HandleFunc("/new_post/", s.newPost)
	mux.HandleFunc("/get_posts/", s.getPosts)

	log.Infof("listening on %s (shard %d)", *bindAddr, *shardID)
	log.Fatalf("server exited: %v", http.ListenAndServe(*bindAddr, mux))
}

func (s *server) newUser(w http.ResponseWriter, r *http.Request) {
	id, err := s.users.NewUser()
	if err != nil {
		s.fail(w, http.StatusServiceUnavailable, err)
		return
	}
	fmt.Fprint(w, id.String())
}

func (s *server) newPost(w http.ResponseWriter, r *http.Request) {
	id, err := parseUserID(strings.TrimPrefix(r.URL.Path, "/new_post/"))
	if err != nil {
		s.fail(w, http.StatusBadRequest, err)
		return
	}

	handle, err := s.users.Lookup(id)
	if err != nil {
		s.fail(w, http.StatusNotFound, err)
		return
	}
	handle.Outbox.NewPostOut(nil)
	fmt.Fprint(w, "created")
}

func (s *server) getPosts(w http.ResponseWriter, r *http.Request) {
	id, err := parseUserID(strings.TrimPrefix(r.URL.Path, "/get_posts/"))
	if err != nil {
		s.fail(w, http.StatusBadRequest, err)
		return
	}

	handle, err := s.users.Lookup(id)
	if err != nil {
		s.fail(w, http.StatusNotFound, err)
		return
	}
	ids, err := handle.User.GetUserPostIds()
	if err != nil {
		s.fail(w, http.StatusServiceUnavailable, err)
		return
	}

	// spec.md §6 pins a textual rendering of the post ids, not JSON.
	texts := make([]string, len(ids))
	for i, id := range ids {
		texts[i] = id.String()
	}
	fmt.Fprint(w, strings.Join(texts, "\n"))
}

func (s *server) fail(w http.ResponseWriter, code int, err error) {
	http.Error(w, err.Error(), code)
}

// parseUserID reads a "{shard}/{id}" path segment into a types.UserId, the
// Go rendering of the original's two chained {usid}/{uid} route params.
func parseUserID(path string) (types.UserId, error) {
	parts := strings.SplitN(strings.Trim(path, "/"), "/", 2)
	if len(parts) != 2 {
		return types.UserId{}, fmt.Errorf("expected {shard}/{id}, got %q", path)
	}
	shard, err := strconv.ParseUint(parts[0], 10, 64)
	if err != nil {
		return types.UserId{}, fmt.Errorf("invalid shard %q: %w", parts[0], err)
	}
	local, err := strconv.ParseUint(parts[1], 10, 64)
	if err != nil {
		return types.UserId{}, fmt.Errorf("invalid id %q: %w", parts[1], err)
	}
	return types.NewUserId(types.ShardId(shard), types.Id(local)), nil
}

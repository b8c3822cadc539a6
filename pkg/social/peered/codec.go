package peered

// AnnounceCodec lets a transport that leaves the process (netpeer) turn the
// interface{} broadcast payload an Inner hands to Announce into bytes and
// back. The teacher's single transport.go could json.Marshal its one
// concrete Message type directly; our Inner types each have a small closed
// union of broadcast payloads (Posts: NewPostFull|DeletePost, Users:
// NewUserFull|DeleteUser, Blocklists: Block|Unblock), so a tag is needed to
// pick the right concrete type back out on decode.
type AnnounceCodec interface {
	EncodeAnnounce(payload interface{}) (tag string, data []byte, err error)
	DecodeAnnounce(tag string, data []byte) (interface{}, error)
}

package types

import "errors"

// Package-scope sentinel errors. NotFound and TransportFailure are two of
// the error kinds of spec.md §7; the third, InvariantViolation, has no
// sentinel: User logs the dropped post and returns nothing.
var (
	// ErrNotFound is returned by Lookup on an unknown UserId.
	ErrNotFound = errors.New("social: not found")

	// ErrTransportFailure means a message send or Ask failed because the
	// target actor has been stopped. Ask-style calls return it (wrapped);
	// actors that receive it log it and drop the operation.
	ErrTransportFailure = errors.New("social: transport failure")

	// ErrUnsupportedProtocol is returned by an Inner's HandleAnnounce and by
	// an AnnounceCodec for a payload type or tag they don't recognize.
	ErrUnsupportedProtocol = errors.New("social: unsupported protocol version")

	// ErrSelfReference is raised at the Outbox boundary for follow/block
	// requests that target the acting user itself; spec.md §9 leaves
	// self-follow/self-block undefined upstream and asks a port to reject it.
	ErrSelfReference = errors.New("social: cannot target self")
)

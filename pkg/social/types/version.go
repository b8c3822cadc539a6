package types

import (
	"fmt"

	hcversion "github.com/hashicorp/go-version"
)

// ProtocolVersion wraps hashicorp/go-version so PeeredShard envelopes carry
// a real semantic version instead of a bare integer, generalizing the
// teacher's ErrUnsupportedProtocol check (pkg/mcast/protocol.go) to allow
// minor-version skew between replicas while still rejecting major-version
// mismatches.
type ProtocolVersion struct {
	v *hcversion.Version
}

// CurrentProtocolVersion is the version this build of the replication
// substrate speaks.
var CurrentProtocolVersion = MustParseProtocolVersion("1.0.0")

func MustParseProtocolVersion(raw string) ProtocolVersion {
	v, err := ParseProtocolVersion(raw)
	if err != nil {
		panic(fmt.Sprintf("types: invalid protocol version %q: %v", raw, err))
	}
	return v
}

// ParseProtocolVersion is the non-panicking form, used when the version
// string comes from the wire (netpeer) rather than a build-time constant.
func ParseProtocolVersion(raw string) (ProtocolVersion, error) {
	v, err := hcversion.NewVersion(raw)
	if err != nil {
		return ProtocolVersion{}, err
	}
	return ProtocolVersion{v: v}, nil
}

// Compatible reports whether a message stamped with other can be processed
// by a replica running pv. Replicas on the same major version are
// compatible; a major-version bump is a breaking wire change.
func (pv ProtocolVersion) Compatible(other ProtocolVersion) bool {
	if pv.v == nil || other.v == nil {
		return false
	}
	return pv.v.Segments()[0] == other.v.Segments()[0]
}

func (pv ProtocolVersion) String() string {
	if pv.v == nil {
		return "0.0.0"
	}
	return pv.v.String()
}

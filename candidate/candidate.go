// Package candidate contains common types for ice candidate.
package candidate

import "bytes"

// Type encodes the type of candidate. RFC 5245
// defines the values "host", "srflx", "prflx", and "relay" for host,
// server reflexive, peer reflexive, and relayed candidates,
// respectively. The set of candidate types is extensible for the
// future, any other token is represented as TypeToken.
type Type byte

// MarshalText implements TextMarshaler.
func (t Type) MarshalText() (text []byte, err error) {
	return []byte(t.String()), nil
}

// Set of possible candidate types.
const (
	// Host is a candidate obtained by binding to a specific port
	// from an IP address on the host.  This includes IP addresses on
	// physical interfaces and logical ones, such as ones obtained
	// through VPNs.
	Host Type = iota
	// ServerReflexive is a candidate whose IP address and port
	// are a binding allocated by a NAT for an ICE agent after it sends a
	// packet through the NAT to a server, such as a STUN server.
	ServerReflexive
	// PeerReflexive is a candidate whose IP address and port are
	// a binding allocated by a NAT for an ICE agent after it sends a
	// packet through the NAT to its peer.
	PeerReflexive
	// Relayed is a candidate obtained from a relay server, such as
	// a TURN server.
	Relayed
	// TypeToken is any candidate type not reserved above.
	TypeToken
)

var candidateTypeToStr = map[Type]string{
	Host:            "host",
	ServerReflexive: "srflx",
	PeerReflexive:   "prflx",
	Relayed:         "relay",
	TypeToken:       "token",
}

// TypeFromToken returns the reserved type for b or TypeToken.
// Matching is case-sensitive, "HOST" is a token.
func TypeFromToken(b []byte) Type {
	switch string(b) {
	case "host":
		return Host
	case "srflx":
		return ServerReflexive
	case "prflx":
		return PeerReflexive
	case "relay":
		return Relayed
	default:
		return TypeToken
	}
}

func strOrUnknown(str string) string {
	if str == "" {
		return "unknown"
	}
	return str
}

func (t Type) String() string {
	return strOrUnknown(candidateTypeToStr[t])
}

// Protocol is protocol for address.
type Protocol byte

// MarshalText implements TextMarshaler.
func (t Protocol) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// Supported protocols.
const (
	UDP Protocol = iota
	ProtocolExtension
)

var udp = []byte("udp")

// ProtocolFromToken returns UDP if b is "udp" in any capitalization,
// otherwise ProtocolExtension.
func ProtocolFromToken(b []byte) Protocol {
	if bytes.EqualFold(b, udp) {
		return UDP
	}
	return ProtocolExtension
}

func (t Protocol) String() string {
	switch t {
	case UDP:
		return "udp"
	case ProtocolExtension:
		return "extension"
	default:
		return "unknown"
	}
}

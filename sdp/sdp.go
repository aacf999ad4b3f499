// Package sdp implements parsing of the ICE candidate SDP attribute.
//
// RFC 5245 Section 15.1:
//
//	candidate-attribute   = "candidate" ":" foundation SP component-id SP
//	                        transport SP
//	                        priority SP
//	                        connection-address SP     ;from RFC 4566
//	                        port         ;port from RFC 4566
//	                        SP cand-type
//	                        [SP rel-addr]
//	                        [SP rel-port]
//	                        *(SP extension-att-name SP
//	                             extension-att-value)
package sdp

import (
	"bytes"
	"maps"
	"net/netip"
	"slices"

	"github.com/pkg/errors"

	ct "github.com/gortc/icecandidate/candidate"
)

// ErrInvalidCandidate is returned for any input that is not exactly one
// well-formed candidate attribute.
var ErrInvalidCandidate = errors.New("sdp: invalid candidate attribute")

// Extensions holds extension attributes that follow the standard candidate
// fields. Names and values are raw bytes; names are stored as string keys,
// so a name is not required to be valid UTF-8.
type Extensions map[string][]byte

// Value returns value of extension k or nil if none found.
func (e Extensions) Value(k []byte) []byte {
	return e[string(k)]
}

// Keys returns extension names in sorted order.
func (e Extensions) Keys() []string {
	return slices.Sorted(maps.Keys(e))
}

// Equal returns true if e equals b.
func (e Extensions) Equal(b Extensions) bool {
	if len(e) != len(b) {
		return false
	}
	for k, v := range e {
		bv, ok := b[k]
		if !ok || !bytes.Equal(v, bv) {
			return false
		}
	}
	return true
}

// Candidate is parsed ICE candidate from SDP.
//
// This attribute is used with Interactive Connectivity
// Establishment (ICE), and provides one of many possible candidate
// addresses for communication. These addresses are validated with
// an end-to-end connectivity check using Session Traversal Utilities
// for NAT (STUN)).
//
// Candidate is only produced by a successful parse of the whole input and
// must be treated as read-only afterwards.
type Candidate struct {
	Foundation        string
	ComponentID       uint32
	Transport         ct.Protocol
	TransportValue    string // set if Transport is ct.ProtocolExtension
	Priority          uint64
	ConnectionAddress netip.Addr
	Port              uint16
	Type              ct.Type
	TypeValue         string // set if Type is ct.TypeToken

	// RelatedAddress is zero Addr if "raddr" is not present.
	RelatedAddress netip.Addr
	RelatedPort    uint16
	HasRelatedPort bool

	// Extensions is nil if no extension attributes were present.
	Extensions Extensions
}

// TransportString returns "udp" or the transport extension token.
func (c *Candidate) TransportString() string {
	if c.Transport == ct.ProtocolExtension {
		return c.TransportValue
	}
	return c.Transport.String()
}

// TypeString returns candidate type token as it appears in SDP.
func (c *Candidate) TypeString() string {
	if c.Type == ct.TypeToken {
		return c.TypeValue
	}
	return c.Type.String()
}

// Equal returns true if b candidate is equal to c.
func (c *Candidate) Equal(b *Candidate) bool {
	if c.Foundation != b.Foundation {
		return false
	}
	if c.ComponentID != b.ComponentID {
		return false
	}
	if c.Transport != b.Transport || c.TransportValue != b.TransportValue {
		return false
	}
	if c.Priority != b.Priority {
		return false
	}
	if c.ConnectionAddress != b.ConnectionAddress || c.Port != b.Port {
		return false
	}
	if c.Type != b.Type || c.TypeValue != b.TypeValue {
		return false
	}
	if c.RelatedAddress != b.RelatedAddress {
		return false
	}
	if c.HasRelatedPort != b.HasRelatedPort || c.RelatedPort != b.RelatedPort {
		return false
	}
	if (c.Extensions == nil) != (b.Extensions == nil) {
		return false
	}
	return c.Extensions.Equal(b.Extensions)
}

// Parse parses v as a single candidate attribute value, like
//
//	candidate:842163049 1 udp 1686052607 1.2.3.4 46154 typ srflx raddr 10.0.0.17 rport 46154 generation 0
//
// The whole v must be consumed, so trailing spaces or line endings are
// rejected. Any violation results in ErrInvalidCandidate.
func Parse(v []byte) (*Candidate, error) {
	p := candidateParser{
		buf: v,
		c:   new(Candidate),
	}
	if !p.parse() {
		return nil, ErrInvalidCandidate
	}
	return p.c, nil
}

var attributePrefix = []byte("a=")

// ParseAttribute is like Parse, but also accepts full SDP attribute line
// value with the "a=" prefix.
func ParseAttribute(v []byte) (*Candidate, error) {
	return Parse(bytes.TrimPrefix(v, attributePrefix))
}

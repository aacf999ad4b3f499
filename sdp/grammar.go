package sdp

import (
	"net/netip"
	"strconv"
	"unsafe"

	"github.com/valyala/fasthttp"

	ct "github.com/gortc/icecandidate/candidate"
)

// candidateParser parses buf into Candidate.
//
//	candidate:3862931549 1 udp 2113937151 192.168.1.2 56032 typ host generation 0
//	     foundation ---┘ | |   |          |           |     |        |
//	     component id ---┘ |   |          |           |     |        |
//	          transport ---┘   |          |           |     |        |
//	               priority ---┘          |           |     |        |
//	                     conn. address ---┘           |     |        |
//	                                          port ---┘     |        |
//	                                           cand-type ---┘        |
//	                                                    extension ---┘
//
// Every rule either advances buf and returns true or fails. Mandatory rules
// may leave buf in any state on failure, because the whole parse fails.
// Optional rules restore buf on failure.
type candidateParser struct {
	buf []byte
	c   *Candidate
}

type rule func() bool

const sp = ' '

const (
	candidatePrefix = "candidate:"
	typPrefix       = "typ"
	raddrPrefix     = "raddr"
	rportPrefix     = "rport"
)

const (
	maxFoundationLen  = 32
	maxComponentIDLen = 5
	maxPriorityLen    = 10
	maxPortLen        = 5
	maxPort           = 65535
)

func isDigit(b byte) bool {
	return '0' <= b && b <= '9'
}

func isAlpha(b byte) bool {
	return ('a' <= b && b <= 'z') || ('A' <= b && b <= 'Z')
}

func isHexDigit(b byte) bool {
	return isDigit(b) || ('a' <= b && b <= 'f') || ('A' <= b && b <= 'F')
}

// ice-char = ALPHA / DIGIT / "+" / "/"
func isIceChar(b byte) bool {
	return isAlpha(b) || isDigit(b) || b == '+' || b == '/'
}

func isIPChar(b byte) bool {
	return isHexDigit(b) || b == '.' || b == ':'
}

func isSpace(b byte) bool {
	return b == sp
}

// isTokenChar reports whether b can be part of extension name or value.
//
// RFC 4566 byte-string allows SP, which makes the extension grammar
// ambiguous. Space is treated as terminator, so names and values with
// embedded spaces can't be represented.
func isTokenChar(b byte) bool {
	return b != 0x00 && b != '\n' && b != '\r' && b != sp
}

// b2s converts byte slice to a string without memory allocation.
// Result must not outlive b.
func b2s(b []byte) string {
	return unsafe.String(unsafe.SliceData(b), len(b)) // #nosec
}

// take consumes the longest prefix of buf that satisfies fn.
func (p *candidateParser) take(fn func(byte) bool) []byte {
	i := 0
	for i < len(p.buf) && fn(p.buf[i]) {
		i++
	}
	v := p.buf[:i]
	p.buf = p.buf[i:]
	return v
}

// tag consumes literal s.
func (p *candidateParser) tag(s string) bool {
	if len(p.buf) < len(s) || b2s(p.buf[:len(s)]) != s {
		return false
	}
	p.buf = p.buf[len(s):]
	return true
}

// space consumes exactly one SP.
func (p *candidateParser) space() bool {
	if len(p.buf) == 0 || p.buf[0] != sp {
		return false
	}
	p.buf = p.buf[1:]
	return true
}

// digits consumes 1 to n decimal digits. Longer run is an error and
// is not truncated.
func (p *candidateParser) digits(n int) ([]byte, bool) {
	v := p.take(isDigit)
	if len(v) == 0 || len(v) > n {
		return nil, false
	}
	return v, true
}

func (p *candidateParser) prefix() bool {
	return p.tag(candidatePrefix)
}

// foundation = 1*32ice-char
func (p *candidateParser) foundation() bool {
	v := p.take(isIceChar)
	if len(v) == 0 || len(v) > maxFoundationLen {
		return false
	}
	p.c.Foundation = string(v)
	return true
}

// component-id = 1*5DIGIT
func (p *candidateParser) componentID() bool {
	v, ok := p.digits(maxComponentIDLen)
	if !ok {
		return false
	}
	i, err := fasthttp.ParseUint(v)
	if err != nil {
		return false
	}
	p.c.ComponentID = uint32(i)
	return true
}

// transport           = "UDP" / transport-extension
// transport-extension = token
func (p *candidateParser) transport() bool {
	v := p.take(isAlpha)
	if len(v) == 0 {
		return false
	}
	p.c.Transport = ct.ProtocolFromToken(v)
	if p.c.Transport == ct.ProtocolExtension {
		p.c.TransportValue = string(v)
	}
	return true
}

// priority = 1*10DIGIT
//
// Ten digits may overflow int on 32-bit platforms.
func (p *candidateParser) priority() bool {
	v, ok := p.digits(maxPriorityLen)
	if !ok {
		return false
	}
	i, err := strconv.ParseUint(b2s(v), 10, 64)
	if err != nil {
		return false
	}
	p.c.Priority = i
	return true
}

func (p *candidateParser) address() (netip.Addr, bool) {
	v := p.take(isIPChar)
	if len(v) == 0 {
		return netip.Addr{}, false
	}
	addr, err := netip.ParseAddr(b2s(v))
	if err != nil {
		return netip.Addr{}, false
	}
	return addr, true
}

func (p *candidateParser) connectionAddress() bool {
	addr, ok := p.address()
	if !ok {
		return false
	}
	p.c.ConnectionAddress = addr
	return true
}

func (p *candidateParser) portValue() (uint16, bool) {
	v, ok := p.digits(maxPortLen)
	if !ok {
		return 0, false
	}
	i, err := fasthttp.ParseUint(v)
	if err != nil || i > maxPort {
		return 0, false
	}
	return uint16(i), true
}

func (p *candidateParser) port() bool {
	port, ok := p.portValue()
	if !ok {
		return false
	}
	p.c.Port = port
	return true
}

// cand-type       = "typ" SP candidate-types
// candidate-types = "host" / "srflx" / "prflx" / "relay" / token
//
// One or more spaces are accepted after "typ".
func (p *candidateParser) candidateType() bool {
	if !p.tag(typPrefix) {
		return false
	}
	if len(p.take(isSpace)) == 0 {
		return false
	}
	v := p.take(isAlpha)
	if len(v) == 0 {
		return false
	}
	p.c.Type = ct.TypeFromToken(v)
	if p.c.Type == ct.TypeToken {
		p.c.TypeValue = string(v)
	}
	return true
}

// [SP rel-addr], rel-addr = "raddr" SP connection-address
//
// The leading SP is shared with rel-port and extensions, so nothing
// is consumed unless the whole clause matches.
func (p *candidateParser) relatedAddress() {
	start := p.buf
	if p.space() && p.tag(raddrPrefix) && p.space() {
		if addr, ok := p.address(); ok {
			p.c.RelatedAddress = addr
			return
		}
	}
	p.buf = start
}

// [SP rel-port], rel-port = "rport" SP port
func (p *candidateParser) relatedPort() {
	start := p.buf
	if p.space() && p.tag(rportPrefix) && p.space() {
		if port, ok := p.portValue(); ok {
			p.c.RelatedPort = port
			p.c.HasRelatedPort = true
			return
		}
	}
	p.buf = start
}

// SP extension-att-name SP extension-att-value
func (p *candidateParser) extension() bool {
	start := p.buf
	if p.space() {
		if k := p.take(isTokenChar); len(k) > 0 && p.space() {
			if v := p.take(isTokenChar); len(v) > 0 {
				if p.c.Extensions == nil {
					p.c.Extensions = make(Extensions)
				}
				p.c.Extensions[string(k)] = append([]byte(nil), v...)
				return true
			}
		}
	}
	p.buf = start
	return false
}

// parse populates internal Candidate from buffer and reports whether
// the whole buffer was consumed.
func (p *candidateParser) parse() bool {
	rules := [...]rule{
		p.prefix,
		p.foundation, p.space,
		p.componentID, p.space,
		p.transport, p.space,
		p.priority, p.space,
		p.connectionAddress, p.space,
		p.port, p.space,
		p.candidateType,
	}
	for _, r := range rules {
		if !r() {
			return false
		}
	}
	p.relatedAddress()
	p.relatedPort()
	for p.extension() {
	}
	return len(p.buf) == 0
}

// Package ffi converts parsed candidates to flat records that contain only
// text and integer fields, as seen by foreign callers of the C library and
// by JSON or YAML consumers.
package ffi

import (
	"encoding/base64"
	"encoding/json"
	"strings"
	"unicode/utf8"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/gortc/icecandidate/sdp"
)

// Marshalling errors. They never indicate a grammar violation, which is
// always sdp.ErrInvalidCandidate.
var (
	ErrNilCandidate = errors.New("ffi: nil candidate")
	ErrNoAddress    = errors.New("ffi: connection address is not set")
	ErrNUL          = errors.New("ffi: text contains NUL byte")
)

// Extension is single extension attribute. Key and Value hold raw bytes
// of the attribute and are not necessarily valid UTF-8.
//
// In JSON and YAML, an extension that is not valid UTF-8 is written with
// base64 key and value and "encoding": "base64".
type Extension struct {
	Key   string
	Value string
}

const encodingBase64 = "base64"

// extensionText is JSON and YAML form of Extension.
type extensionText struct {
	Key      string `json:"key" yaml:"key"`
	Value    string `json:"value" yaml:"value"`
	Encoding string `json:"encoding,omitempty" yaml:"encoding,omitempty"`
}

func (e Extension) text() extensionText {
	if utf8.ValidString(e.Key) && utf8.ValidString(e.Value) {
		return extensionText{Key: e.Key, Value: e.Value}
	}
	return extensionText{
		Key:      base64.StdEncoding.EncodeToString([]byte(e.Key)),
		Value:    base64.StdEncoding.EncodeToString([]byte(e.Value)),
		Encoding: encodingBase64,
	}
}

func (e *Extension) setText(t extensionText) error {
	switch t.Encoding {
	case "":
		e.Key, e.Value = t.Key, t.Value
		return nil
	case encodingBase64:
		k, err := base64.StdEncoding.DecodeString(t.Key)
		if err != nil {
			return errors.Wrap(err, "ffi: bad extension key")
		}
		v, err := base64.StdEncoding.DecodeString(t.Value)
		if err != nil {
			return errors.Wrap(err, "ffi: bad extension value")
		}
		e.Key, e.Value = string(k), string(v)
		return nil
	default:
		return errors.Errorf("ffi: unknown extension encoding %q", t.Encoding)
	}
}

// MarshalJSON implements json.Marshaler.
func (e Extension) MarshalJSON() ([]byte, error) {
	return json.Marshal(e.text())
}

// UnmarshalJSON implements json.Unmarshaler.
func (e *Extension) UnmarshalJSON(b []byte) error {
	var t extensionText
	if err := json.Unmarshal(b, &t); err != nil {
		return err
	}
	return e.setText(t)
}

// MarshalYAML implements yaml.Marshaler.
func (e Extension) MarshalYAML() (interface{}, error) {
	return e.text(), nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (e *Extension) UnmarshalYAML(n *yaml.Node) error {
	var t extensionText
	if err := n.Decode(&t); err != nil {
		return err
	}
	return e.setText(t)
}

// Record is flat representation of sdp.Candidate.
//
// Transport and CandidateType hold the lowercase SDP token ("udp", "host",
// "srflx", "prflx", "relay") or the literal extension token. Absent
// RelatedAddress is empty string. RelatedPort is 0 when absent; since "rport 0"
// is valid, use HasRelatedPort to tell the cases apart.
type Record struct {
	Foundation        string      `json:"foundation" yaml:"foundation"`
	ComponentID       uint32      `json:"component_id" yaml:"component_id"`
	Transport         string      `json:"transport" yaml:"transport"`
	Priority          uint64      `json:"priority" yaml:"priority"`
	ConnectionAddress string      `json:"connection_address" yaml:"connection_address"`
	Port              uint16      `json:"port" yaml:"port"`
	CandidateType     string      `json:"candidate_type" yaml:"candidate_type"`
	RelatedAddress    string      `json:"rel_addr,omitempty" yaml:"rel_addr,omitempty"`
	RelatedPort       uint16      `json:"rel_port" yaml:"rel_port"`
	HasRelatedPort    bool        `json:"has_rel_port" yaml:"has_rel_port"`
	Extensions        []Extension `json:"extensions,omitempty" yaml:"extensions,omitempty"`
}

// cText returns s if it can be represented as C string.
func cText(field, s string) (string, error) {
	if strings.IndexByte(s, 0) >= 0 {
		return "", errors.Wrapf(ErrNUL, "field %s", field)
	}
	return s, nil
}

// Marshal converts c to Record. Extensions are sorted by key.
func Marshal(c *sdp.Candidate) (*Record, error) {
	if c == nil {
		return nil, ErrNilCandidate
	}
	if !c.ConnectionAddress.IsValid() {
		return nil, ErrNoAddress
	}
	r := &Record{
		ComponentID:       c.ComponentID,
		Priority:          c.Priority,
		ConnectionAddress: c.ConnectionAddress.String(),
		Port:              c.Port,
		HasRelatedPort:    c.HasRelatedPort,
	}
	var err error
	if r.Foundation, err = cText("foundation", c.Foundation); err != nil {
		return nil, err
	}
	if r.Transport, err = cText("transport", c.TransportString()); err != nil {
		return nil, err
	}
	if r.CandidateType, err = cText("candidate_type", c.TypeString()); err != nil {
		return nil, err
	}
	if c.RelatedAddress.IsValid() {
		r.RelatedAddress = c.RelatedAddress.String()
	}
	if c.HasRelatedPort {
		r.RelatedPort = c.RelatedPort
	}
	if len(c.Extensions) == 0 {
		return r, nil
	}
	r.Extensions = make([]Extension, 0, len(c.Extensions))
	for _, k := range c.Extensions.Keys() {
		e := Extension{}
		if e.Key, err = cText("extension key", k); err != nil {
			return nil, err
		}
		if e.Value, err = cText("extension "+k, string(c.Extensions[k])); err != nil {
			return nil, err
		}
		r.Extensions = append(r.Extensions, e)
	}
	return r, nil
}

// Parse parses v with sdp.Parse and marshals the result.
//
// Grammar violations are returned as sdp.ErrInvalidCandidate as is.
func Parse(v []byte) (*Record, error) {
	c, err := sdp.Parse(v)
	if err != nil {
		return nil, err
	}
	r, err := Marshal(c)
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal candidate")
	}
	return r, nil
}

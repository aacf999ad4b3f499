package ffi

import (
	"bytes"
	"encoding/json"
	"net/netip"
	"reflect"
	"testing"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	ct "github.com/gortc/icecandidate/candidate"
	"github.com/gortc/icecandidate/sdp"
)

func TestMarshal(t *testing.T) {
	c := &sdp.Candidate{
		Foundation:        "842163049",
		ComponentID:       1,
		Transport:         ct.UDP,
		Priority:          1686052607,
		ConnectionAddress: netip.MustParseAddr("1.2.3.4"),
		Port:              46154,
		Type:              ct.ServerReflexive,
		RelatedAddress:    netip.MustParseAddr("10.0.0.17"),
		RelatedPort:       46154,
		HasRelatedPort:    true,
		Extensions: sdp.Extensions{
			"ufrag":      []byte("EEtu"),
			"generation": []byte("0"),
		},
	}
	r, err := Marshal(c)
	if err != nil {
		t.Fatal(err)
	}
	expected := Record{
		Foundation:        "842163049",
		ComponentID:       1,
		Transport:         "udp",
		Priority:          1686052607,
		ConnectionAddress: "1.2.3.4",
		Port:              46154,
		CandidateType:     "srflx",
		RelatedAddress:    "10.0.0.17",
		RelatedPort:       46154,
		HasRelatedPort:    true,
	}
	exts := r.Extensions
	r.Extensions = nil
	if !reflect.DeepEqual(*r, expected) {
		t.Errorf("%+v != %+v (exp)", r, expected)
	}
	if len(exts) != 2 {
		t.Fatalf("unexpected extensions %v", exts)
	}
	if exts[0] != (Extension{Key: "generation", Value: "0"}) {
		t.Errorf("[0]: %v", exts[0])
	}
	if exts[1] != (Extension{Key: "ufrag", Value: "EEtu"}) {
		t.Errorf("[1]: %v", exts[1])
	}
}

func TestMarshal_Tokens(t *testing.T) {
	r, err := Marshal(&sdp.Candidate{
		Foundation:        "1",
		Transport:         ct.ProtocolExtension,
		TransportValue:    "yolo",
		ConnectionAddress: netip.MustParseAddr("::1"),
		Type:              ct.TypeToken,
		TypeValue:         "Yolo",
	})
	if err != nil {
		t.Fatal(err)
	}
	if r.Transport != "yolo" || r.CandidateType != "Yolo" {
		t.Errorf("got %q %q", r.Transport, r.CandidateType)
	}
	if r.ConnectionAddress != "::1" {
		t.Errorf("got %q", r.ConnectionAddress)
	}
	if r.RelatedAddress != "" || r.RelatedPort != 0 || r.HasRelatedPort {
		t.Errorf("unexpected related %+v", r)
	}
	if r.Extensions != nil {
		t.Error("extensions should be nil")
	}
}

func TestMarshal_CandidateTypes(t *testing.T) {
	for _, tt := range []struct {
		in  ct.Type
		out string
	}{
		{in: ct.Host, out: "host"},
		{in: ct.ServerReflexive, out: "srflx"},
		{in: ct.PeerReflexive, out: "prflx"},
		{in: ct.Relayed, out: "relay"},
	} {
		t.Run(tt.out, func(t *testing.T) {
			r, err := Marshal(&sdp.Candidate{
				Foundation:        "1",
				ConnectionAddress: netip.MustParseAddr("1.2.3.4"),
				Type:              tt.in,
			})
			if err != nil {
				t.Fatal(err)
			}
			if r.CandidateType != tt.out {
				t.Errorf("%q", r.CandidateType)
			}
		})
	}
}

func TestMarshal_RelatedPortIgnoredWhenAbsent(t *testing.T) {
	r, err := Marshal(&sdp.Candidate{
		Foundation:        "1",
		ConnectionAddress: netip.MustParseAddr("1.2.3.4"),
		RelatedPort:       10,
	})
	if err != nil {
		t.Fatal(err)
	}
	if r.RelatedPort != 0 {
		t.Errorf("got %d", r.RelatedPort)
	}
}

func TestMarshal_Errors(t *testing.T) {
	addr := netip.MustParseAddr("1.2.3.4")
	for _, tt := range []struct {
		name string
		in   *sdp.Candidate
		err  error
	}{
		{name: "Nil", err: ErrNilCandidate},
		{name: "NoAddress", in: &sdp.Candidate{Foundation: "1"}, err: ErrNoAddress},
		{
			name: "Foundation",
			in:   &sdp.Candidate{Foundation: "a\x00b", ConnectionAddress: addr},
			err:  ErrNUL,
		},
		{
			name: "Transport",
			in: &sdp.Candidate{
				Foundation:        "1",
				ConnectionAddress: addr,
				Transport:         ct.ProtocolExtension,
				TransportValue:    "\x00",
			},
			err: ErrNUL,
		},
		{
			name: "Type",
			in: &sdp.Candidate{
				Foundation:        "1",
				ConnectionAddress: addr,
				Type:              ct.TypeToken,
				TypeValue:         "\x00",
			},
			err: ErrNUL,
		},
		{
			name: "ExtensionKey",
			in: &sdp.Candidate{
				Foundation:        "1",
				ConnectionAddress: addr,
				Extensions:        sdp.Extensions{"\x00": []byte("v")},
			},
			err: ErrNUL,
		},
		{
			name: "ExtensionValue",
			in: &sdp.Candidate{
				Foundation:        "1",
				ConnectionAddress: addr,
				Extensions:        sdp.Extensions{"k": []byte("\x00")},
			},
			err: ErrNUL,
		},
	} {
		t.Run(tt.name, func(t *testing.T) {
			r, err := Marshal(tt.in)
			if !errors.Is(err, tt.err) {
				t.Errorf("%v != %v (exp)", err, tt.err)
			}
			if r != nil {
				t.Error("unexpected record")
			}
		})
	}
}

func TestParse(t *testing.T) {
	r, err := Parse([]byte("candidate:1 1 udp 1 1.2.3.4 1 typ host rport 0"))
	if err != nil {
		t.Fatal(err)
	}
	if !r.HasRelatedPort || r.RelatedPort != 0 {
		t.Errorf("unexpected related port %+v", r)
	}
	if _, err = Parse([]byte("candidate:1 1 udp 1 1.2.3.4 1 typ host ")); !errors.Is(err, sdp.ErrInvalidCandidate) {
		t.Errorf("unexpected error %v", err)
	}
}

func TestExtension_JSON(t *testing.T) {
	for _, tt := range []struct {
		name string
		in   Extension
		out  string
	}{
		{
			name: "Text",
			in:   Extension{Key: "ufrag", Value: "EEtu"},
			out:  `{"key":"ufrag","value":"EEtu"}`,
		},
		{
			name: "BinaryValue",
			in:   Extension{Key: "k", Value: "\xff\xfe"},
			out:  `{"key":"aw==","value":"//4=","encoding":"base64"}`,
		},
		{
			name: "BinaryKey",
			in:   Extension{Key: "\xc3", Value: "v"},
			out:  `{"key":"ww==","value":"dg==","encoding":"base64"}`,
		},
	} {
		t.Run(tt.name, func(t *testing.T) {
			b, err := json.Marshal(tt.in)
			if err != nil {
				t.Fatal(err)
			}
			if string(b) != tt.out {
				t.Errorf("%s != %s (exp)", b, tt.out)
			}
			var e Extension
			if err = json.Unmarshal(b, &e); err != nil {
				t.Fatal(err)
			}
			if e != tt.in {
				t.Errorf("%q != %q (exp)", e, tt.in)
			}
		})
	}
}

func TestExtension_UnmarshalErrors(t *testing.T) {
	for _, in := range []string{
		`{"key":"k","value":"v","encoding":"hex"}`,
		`{"key":"!","value":"dg==","encoding":"base64"}`,
		`{"key":"aw==","value":"!","encoding":"base64"}`,
		`{"key":1}`,
	} {
		var e Extension
		if err := json.Unmarshal([]byte(in), &e); err == nil {
			t.Errorf("%s: expected error", in)
		}
	}
}

func TestRecord_BinaryExtension(t *testing.T) {
	r, err := Parse([]byte("candidate:1 1 udp 1 1.2.3.4 1 typ host a 1 k \xff\xfe"))
	if err != nil {
		t.Fatal(err)
	}
	expected := []Extension{{Key: "a", Value: "1"}, {Key: "k", Value: "\xff\xfe"}}
	if !reflect.DeepEqual(r.Extensions, expected) {
		t.Fatalf("%q != %q (exp)", r.Extensions, expected)
	}
	t.Run("JSON", func(t *testing.T) {
		b, err := json.Marshal(r)
		if err != nil {
			t.Fatal(err)
		}
		if bytes.Contains(b, []byte(`\ufffd`)) {
			t.Errorf("replacement character in %s", b)
		}
		got := new(Record)
		if err = json.Unmarshal(b, got); err != nil {
			t.Fatal(err)
		}
		if !reflect.DeepEqual(got, r) {
			t.Errorf("%+v != %+v (exp)", got, r)
		}
	})
	t.Run("YAML", func(t *testing.T) {
		b, err := yaml.Marshal(r)
		if err != nil {
			t.Fatal(err)
		}
		if !bytes.Contains(b, []byte("encoding: base64")) {
			t.Errorf("no encoding in:\n%s", b)
		}
		got := new(Record)
		if err = yaml.Unmarshal(b, got); err != nil {
			t.Fatal(err)
		}
		if !reflect.DeepEqual(got, r) {
			t.Errorf("%+v != %+v (exp)", got, r)
		}
	})
}

// Command candidateparser-ffi is C shared library that exposes candidate
// parsing to C callers. Build with
//
//	go build -buildmode=c-shared -o libcandidateparser.so ./cmd/candidateparser-ffi
//
// which also produces libcandidateparser.h with the declarations below.
//
// Every successful parse_ice_candidate_sdp call must be paired with exactly
// one free_ice_candidate call.
package main

/*
#include <stdbool.h>
#include <stdint.h>
#include <stdlib.h>
#include <string.h>

// Extension attribute of the candidate.
typedef struct {
	const char *key;
	const char *value;
} IceCandidateExtensionFFI;

// Parsed candidate. rel_addr is NULL if absent. rel_port is 0 if absent,
// has_rel_port distinguishes it from "rport 0".
typedef struct {
	const char *foundation;
	uint32_t component_id;
	const char *transport;
	uint64_t priority;
	const char *connection_address;
	uint16_t port;
	const char *candidate_type;
	const char *rel_addr;
	uint16_t rel_port;
	bool has_rel_port;
	const IceCandidateExtensionFFI *extensions;
	size_t extensions_len;
} IceCandidateFFI;
*/
import "C"

import (
	"unsafe"

	"github.com/gortc/icecandidate/ffi"
)

//export parse_ice_candidate_sdp
func parse_ice_candidate_sdp(sdp *C.char) *C.IceCandidateFFI {
	if sdp == nil {
		return nil
	}
	// Parser does not retain input, so C memory is read in place.
	v := unsafe.Slice((*byte)(unsafe.Pointer(sdp)), int(C.strlen(sdp)))
	r, err := ffi.Parse(v)
	if err != nil {
		return nil
	}
	return newCandidate(r)
}

func newCandidate(r *ffi.Record) *C.IceCandidateFFI {
	p := (*C.IceCandidateFFI)(C.calloc(1, C.size_t(unsafe.Sizeof(C.IceCandidateFFI{}))))
	if p == nil {
		return nil
	}
	p.foundation = C.CString(r.Foundation)
	p.component_id = C.uint32_t(r.ComponentID)
	p.transport = C.CString(r.Transport)
	p.priority = C.uint64_t(r.Priority)
	p.connection_address = C.CString(r.ConnectionAddress)
	p.port = C.uint16_t(r.Port)
	p.candidate_type = C.CString(r.CandidateType)
	if r.RelatedAddress != "" {
		p.rel_addr = C.CString(r.RelatedAddress)
	}
	p.rel_port = C.uint16_t(r.RelatedPort)
	p.has_rel_port = C.bool(r.HasRelatedPort)
	if len(r.Extensions) == 0 {
		return p
	}
	exts := (*C.IceCandidateExtensionFFI)(C.calloc(
		C.size_t(len(r.Extensions)), C.size_t(unsafe.Sizeof(C.IceCandidateExtensionFFI{})),
	))
	if exts == nil {
		free_ice_candidate(p)
		return nil
	}
	dst := unsafe.Slice(exts, len(r.Extensions))
	for i, e := range r.Extensions {
		dst[i].key = C.CString(e.Key)
		dst[i].value = C.CString(e.Value)
	}
	p.extensions = exts
	p.extensions_len = C.size_t(len(r.Extensions))
	return p
}

//export free_ice_candidate
func free_ice_candidate(p *C.IceCandidateFFI) {
	if p == nil {
		return
	}
	C.free(unsafe.Pointer(p.foundation))
	C.free(unsafe.Pointer(p.transport))
	C.free(unsafe.Pointer(p.connection_address))
	C.free(unsafe.Pointer(p.candidate_type))
	if p.rel_addr != nil {
		C.free(unsafe.Pointer(p.rel_addr))
	}
	if p.extensions != nil {
		for _, e := range unsafe.Slice(p.extensions, int(p.extensions_len)) {
			C.free(unsafe.Pointer(e.key))
			C.free(unsafe.Pointer(e.value))
		}
		C.free(unsafe.Pointer(p.extensions))
	}
	C.free(unsafe.Pointer(p))
}

func cString(s string) *C.char {
	return C.CString(s)
}

func freeCString(s *C.char) {
	C.free(unsafe.Pointer(s))
}

// candidateView is a Go copy of IceCandidateFFI.
type candidateView struct {
	ffi.Record
	RelAddrNull bool
}

func viewCandidate(p *C.IceCandidateFFI) *candidateView {
	if p == nil {
		return nil
	}
	v := &candidateView{
		Record: ffi.Record{
			Foundation:        C.GoString(p.foundation),
			ComponentID:       uint32(p.component_id),
			Transport:         C.GoString(p.transport),
			Priority:          uint64(p.priority),
			ConnectionAddress: C.GoString(p.connection_address),
			Port:              uint16(p.port),
			CandidateType:     C.GoString(p.candidate_type),
			RelatedPort:       uint16(p.rel_port),
			HasRelatedPort:    bool(p.has_rel_port),
		},
		RelAddrNull: p.rel_addr == nil,
	}
	if p.rel_addr != nil {
		v.RelatedAddress = C.GoString(p.rel_addr)
	}
	if p.extensions != nil {
		for _, e := range unsafe.Slice(p.extensions, int(p.extensions_len)) {
			v.Extensions = append(v.Extensions, ffi.Extension{
				Key:   C.GoString(e.key),
				Value: C.GoString(e.value),
			})
		}
	}
	return v
}

func main() {}

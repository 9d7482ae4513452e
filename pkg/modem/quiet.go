//go:build quiet

// ABOUTME: libquiet decoder binding
// ABOUTME: Builds a quiet decoder from a profile document and streams samples into it
package modem

/*
#cgo LDFLAGS: -lquiet
#include <stdlib.h>
#include <quiet.h>
*/
import "C"

import (
	"fmt"
	"sync"
	"unsafe"
)

type quietDecoder struct {
	mu  sync.Mutex
	dec *C.quiet_decoder
}

// NewQuietDecoder creates a libquiet decoder for profile at sampleRate
func NewQuietDecoder(profile Profile, sampleRate int) (Decoder, error) {
	doc, err := profile.Document()
	if err != nil {
		return nil, &ConfigError{Kind: KindStoreInvalid, Path: profile.Path, Profile: profile.Name, Err: err}
	}

	cdoc := C.CString(string(doc))
	defer C.free(unsafe.Pointer(cdoc))
	cname := C.CString(profile.Name)
	defer C.free(unsafe.Pointer(cname))

	opts := C.quiet_decoder_profile_str(cdoc, cname)
	if opts == nil {
		return nil, &ConfigError{Kind: KindProfileNotFound, Path: profile.Path, Profile: profile.Name,
			Err: fmt.Errorf("libquiet rejected profile")}
	}
	defer C.free(unsafe.Pointer(opts))

	dec := C.quiet_decoder_create(opts, C.float(sampleRate))
	if dec == nil {
		return nil, &ConfigError{Kind: KindDecoderCreate, Path: profile.Path, Profile: profile.Name,
			Err: fmt.Errorf("quiet_decoder_create failed at %d Hz", sampleRate)}
	}
	return &quietDecoder{dec: dec}, nil
}

func (q *quietDecoder) Consume(samples []float32) {
	if len(samples) == 0 {
		return
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.dec == nil {
		return
	}
	C.quiet_decoder_consume(q.dec, (*C.quiet_sample_t)(unsafe.Pointer(&samples[0])), C.size_t(len(samples)))
}

func (q *quietDecoder) Receive(buf []byte) int {
	if len(buf) == 0 {
		return -1
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.dec == nil {
		return -1
	}
	n := C.quiet_decoder_recv(q.dec, (*C.uint8_t)(unsafe.Pointer(&buf[0])), C.size_t(len(buf)))
	return int(n)
}

func (q *quietDecoder) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.dec != nil {
		C.quiet_decoder_destroy(q.dec)
		q.dec = nil
	}
	return nil
}

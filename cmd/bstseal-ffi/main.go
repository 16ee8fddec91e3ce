// Copyright 2026 The BSTSEAL Authors
// SPDX-License-Identifier: Apache-2.0

// Package main exposes the sealing engine to C callers. Build it as a
// shared library:
//
//	go build -buildmode=c-shared -o libbstseal.so ./cmd/bstseal-ffi
//
// The generated header declares bstseal_encode, bstseal_decode, and
// bstseal_free. Output buffers come from the C allocator and belong to
// the caller; release them with bstseal_free. Status codes are the
// fixed values of [bridge.Status].
package main

/*
#include <stdint.h>
#include <stdlib.h>
#include <string.h>
*/
import "C"

import (
	"unsafe"

	"github.com/bstseal/bstseal/lib/bridge"
)

// copyOut places result in a freshly malloc'd C buffer and stores the
// pointer and length through the out parameters. A zero-length result
// stores a null pointer and zero length — there is nothing to free,
// though passing the null to bstseal_free is harmless.
func copyOut(result []byte, outPtr **C.uint8_t, outLen *C.size_t) bridge.Status {
	if len(result) == 0 {
		*outPtr = nil
		*outLen = 0
		return bridge.StatusOk
	}
	buffer := C.malloc(C.size_t(len(result)))
	if buffer == nil {
		return bridge.StatusAllocFail
	}
	C.memcpy(buffer, unsafe.Pointer(&result[0]), C.size_t(len(result)))
	*outPtr = (*C.uint8_t)(buffer)
	*outLen = C.size_t(len(result))
	return bridge.StatusOk
}

// input converts a C pointer/length pair to a Go slice without
// copying. A null pointer with zero length is the empty input.
func input(ptr *C.uint8_t, length C.size_t) []byte {
	if ptr == nil || length == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(ptr)), int(length))
}

//export bstseal_encode
func bstseal_encode(inputPtr *C.uint8_t, inputLen C.size_t, outPtr **C.uint8_t, outLen *C.size_t) C.int32_t {
	if outPtr == nil || outLen == nil {
		return C.int32_t(bridge.StatusNullPointer)
	}
	// A null input with a nonzero length is a caller bug; a null input
	// with zero length is the empty buffer, which seals fine.
	if inputPtr == nil && inputLen != 0 {
		return C.int32_t(bridge.StatusNullPointer)
	}

	sealed, status := bridge.Encode(input(inputPtr, inputLen))
	if status != bridge.StatusOk {
		return C.int32_t(status)
	}
	return C.int32_t(copyOut(sealed, outPtr, outLen))
}

//export bstseal_decode
func bstseal_decode(inputPtr *C.uint8_t, inputLen C.size_t, outPtr **C.uint8_t, outLen *C.size_t) C.int32_t {
	if outPtr == nil || outLen == nil {
		return C.int32_t(bridge.StatusNullPointer)
	}
	if inputPtr == nil && inputLen != 0 {
		return C.int32_t(bridge.StatusNullPointer)
	}

	data, status := bridge.Decode(input(inputPtr, inputLen))
	if status != bridge.StatusOk {
		return C.int32_t(status)
	}
	return C.int32_t(copyOut(data, outPtr, outLen))
}

//export bstseal_free
func bstseal_free(ptr unsafe.Pointer) {
	// free(NULL) is defined as a no-op; keep that contract.
	C.free(ptr)
}

func main() {}

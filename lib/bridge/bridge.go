// Copyright 2026 The BSTSEAL Authors
// SPDX-License-Identifier: Apache-2.0

package bridge

import (
	"fmt"

	"github.com/bstseal/bstseal/lib/seal"
)

// Status is the outcome of a bridge operation. The numeric values are
// part of the C ABI and must never change.
type Status int32

const (
	// StatusOk means the operation succeeded.
	StatusOk Status = 0

	// StatusNullPointer means a required pointer argument was null
	// while its declared length was nonzero. Only the C entry points
	// produce it; Go callers cannot express that state.
	StatusNullPointer Status = 1

	// StatusEncodeFail means encoding failed. With the current
	// compressor this is reserved for allocation exhaustion — no input
	// byte sequence is itself unencodable.
	StatusEncodeFail Status = 2

	// StatusDecodeFail means the input was not a structurally valid
	// sealed buffer: bad magic, truncation, or length fields that
	// disagree with the data. Checked before the integrity digest.
	StatusDecodeFail Status = 3

	// StatusIntegrityFail means the buffer parsed cleanly but its
	// payload digest did not match: the data was corrupted in flight.
	StatusIntegrityFail Status = 4

	// StatusAllocFail means the C allocator could not provide the
	// output buffer. Only the C entry points produce it.
	StatusAllocFail Status = 5
)

// String returns the symbolic name of a status.
func (s Status) String() string {
	switch s {
	case StatusOk:
		return "ok"
	case StatusNullPointer:
		return "null_pointer"
	case StatusEncodeFail:
		return "encode_fail"
	case StatusDecodeFail:
		return "decode_fail"
	case StatusIntegrityFail:
		return "integrity_fail"
	case StatusAllocFail:
		return "alloc_fail"
	default:
		return fmt.Sprintf("unknown(%d)", int32(s))
	}
}

// Encode seals data and returns the sealed buffer. Empty input is
// valid and produces a bare header. The returned slice is freshly
// allocated and owned by the caller; on any status other than
// [StatusOk] it is nil.
func Encode(data []byte) ([]byte, Status) {
	sealed, err := seal.Seal(data)
	if err != nil {
		return nil, StatusEncodeFail
	}
	return sealed, StatusOk
}

// Decode verifies and unseals a sealed buffer, returning the original
// bytes. Structural failures report [StatusDecodeFail]; a structurally
// valid buffer whose digest does not match reports
// [StatusIntegrityFail]. The two never overlap for a given input. On
// any status other than [StatusOk] the returned slice is nil.
func Decode(sealed []byte) ([]byte, Status) {
	data, err := seal.Unseal(sealed)
	if err != nil {
		if seal.IsIntegrityMismatch(err) {
			return nil, StatusIntegrityFail
		}
		return nil, StatusDecodeFail
	}
	return data, StatusOk
}

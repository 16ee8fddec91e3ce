// Copyright 2026 The BSTSEAL Authors
// SPDX-License-Identifier: Apache-2.0

package seal

import (
	"bytes"
	"crypto/subtle"
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/zeebo/blake3"

	"github.com/bstseal/bstseal/lib/compress"
)

// Wire format constants. Changing any of these invalidates every
// previously sealed buffer.
const (
	// HeaderSize is the fixed size of the sealed-buffer header: magic,
	// original length, compressed length, digest.
	HeaderSize = 8 + 8 + 8 + DigestSize

	// DigestSize is the size of the BLAKE3 integrity digest.
	DigestSize = 32

	// formatVersion is the last magic byte. Bumped on any incompatible
	// format change; decoders reject versions they do not know.
	formatVersion = 1
)

// magic identifies a sealed buffer. The final byte is the format
// version.
var magic = [8]byte{'B', 'S', 'T', 'S', 'E', 'A', 'L', formatVersion}

// payloadDomainKey is the BLAKE3 keyed-hash key for payload digests.
// The byte values are the ASCII encoding of the domain name,
// zero-padded to 32 bytes: readable in hex dumps, and an opaque
// 32-byte value as far as BLAKE3 keyed mode is concerned.
var payloadDomainKey = [32]byte{
	'b', 's', 't', 's', 'e', 'a', 'l', '.', 'p', 'a', 'y', 'l', 'o', 'a', 'd',
}

// errMalformed is wrapped by every structural decode failure: short
// buffers, bad magic, unknown versions, length fields that disagree
// with the buffer. Detected before the digest is ever examined.
var errMalformed = errors.New("malformed sealed buffer")

// errIntegrity is wrapped when the buffer parses cleanly but the
// stored digest does not match the payload.
var errIntegrity = errors.New("sealed buffer integrity mismatch")

// IsMalformed reports whether err indicates a structurally invalid
// sealed buffer (as opposed to an intact structure with a bad digest).
func IsMalformed(err error) bool {
	return errors.Is(err, errMalformed)
}

// IsIntegrityMismatch reports whether err indicates a digest mismatch
// on a structurally valid sealed buffer.
func IsIntegrityMismatch(err error) bool {
	return errors.Is(err, errIntegrity)
}

// Header is the parsed fixed-size prefix of a sealed buffer.
type Header struct {
	// OriginalLen is the byte length of the data before compression.
	OriginalLen uint64

	// CompressedLen is the byte length of the compressed payload that
	// follows the header.
	CompressedLen uint64

	// Digest is the BLAKE3 keyed hash of the compressed payload.
	Digest [DigestSize]byte
}

// Seal compresses data and frames it as a self-describing sealed
// buffer: fixed header, then the compressed payload. Sealing is
// deterministic — identical input always produces identical output —
// and treats empty input as a first-class value (the result is a bare
// header over an empty payload).
func Seal(data []byte) ([]byte, error) {
	payload, err := compress.Compress(data)
	if err != nil {
		return nil, fmt.Errorf("compressing payload: %w", err)
	}

	out := make([]byte, HeaderSize+len(payload))
	copy(out, magic[:])
	binary.LittleEndian.PutUint64(out[8:], uint64(len(data)))
	binary.LittleEndian.PutUint64(out[16:], uint64(len(payload)))
	digest := payloadDigest(payload)
	copy(out[24:], digest[:])
	copy(out[HeaderSize:], payload)
	return out, nil
}

// Unseal verifies and decompresses a sealed buffer, returning the
// original bytes. Structural checks run first and fail with an error
// satisfying [IsMalformed]; only a buffer that parses cleanly has its
// digest compared, failing with [IsIntegrityMismatch]. On any error no
// partial data is returned.
func Unseal(sealed []byte) ([]byte, error) {
	header, payload, err := parse(sealed)
	if err != nil {
		return nil, err
	}

	digest := payloadDigest(payload)
	if subtle.ConstantTimeCompare(digest[:], header.Digest[:]) != 1 {
		return nil, errIntegrity
	}

	data, err := compress.Decompress(payload, int(header.OriginalLen))
	if err != nil {
		// The digest matched, so the payload is exactly what was
		// sealed; a decompression failure means the buffer was never a
		// valid seal to begin with.
		return nil, fmt.Errorf("%w: %w", errMalformed, err)
	}
	return data, nil
}

// Verify checks a sealed buffer's structure and digest without
// decompressing the payload. A nil return means Unseal would get past
// the digest check.
func Verify(sealed []byte) error {
	header, payload, err := parse(sealed)
	if err != nil {
		return err
	}
	digest := payloadDigest(payload)
	if subtle.ConstantTimeCompare(digest[:], header.Digest[:]) != 1 {
		return errIntegrity
	}
	return nil
}

// ParseHeader parses and structurally validates the header of a sealed
// buffer without touching the digest. Useful for inspection tools that
// report sizes before deciding whether to verify.
func ParseHeader(sealed []byte) (Header, error) {
	header, _, err := parse(sealed)
	return header, err
}

// parse validates the structure of a sealed buffer and returns its
// header and payload. All failures wrap errMalformed.
func parse(sealed []byte) (Header, []byte, error) {
	var header Header
	if len(sealed) < HeaderSize {
		return header, nil, fmt.Errorf("%w: %d bytes, header needs %d", errMalformed, len(sealed), HeaderSize)
	}
	if !bytes.Equal(sealed[:7], magic[:7]) {
		return header, nil, fmt.Errorf("%w: bad magic", errMalformed)
	}
	if sealed[7] != formatVersion {
		return header, nil, fmt.Errorf("%w: unknown format version %d", errMalformed, sealed[7])
	}

	header.OriginalLen = binary.LittleEndian.Uint64(sealed[8:])
	header.CompressedLen = binary.LittleEndian.Uint64(sealed[16:])
	copy(header.Digest[:], sealed[24:HeaderSize])

	if header.OriginalLen > math.MaxInt {
		return header, nil, fmt.Errorf("%w: original length %d overflows", errMalformed, header.OriginalLen)
	}
	if header.CompressedLen != uint64(len(sealed)-HeaderSize) {
		return header, nil, fmt.Errorf("%w: header declares %d payload bytes, buffer carries %d",
			errMalformed, header.CompressedLen, len(sealed)-HeaderSize)
	}
	return header, sealed[HeaderSize:], nil
}

// payloadDigest computes the payload-domain BLAKE3 keyed hash.
func payloadDigest(payload []byte) [DigestSize]byte {
	// NewKeyed only fails for a wrong key length, which the fixed-size
	// key rules out.
	hasher, err := blake3.NewKeyed(payloadDomainKey[:])
	if err != nil {
		panic("seal: BLAKE3 keyed hash initialization failed: " + err.Error())
	}
	hasher.Write(payload)
	var digest [DigestSize]byte
	copy(digest[:], hasher.Sum(nil))
	return digest
}

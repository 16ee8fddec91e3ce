// Copyright 2026 The BSTSEAL Authors
// SPDX-License-Identifier: Apache-2.0

// Package seal frames compressed data as self-describing sealed
// buffers that travel safely across process and machine boundaries.
//
// A sealed buffer is a fixed 56-byte header followed by the compressed
// payload:
//
//	magic          8 bytes   "BSTSEAL" plus a format version byte
//	original_len   8 bytes   little-endian, pre-compression size
//	compressed_len 8 bytes   little-endian, payload size
//	digest        32 bytes   BLAKE3 keyed hash of the payload
//
// The digest uses BLAKE3 in keyed mode with a fixed payload-domain
// key, so a sealed payload never collides with hashes computed in
// other contexts. It detects corruption, not tampering: anyone can
// recompute it.
//
// Decoding distinguishes two failure classes, checked in a fixed
// order. Structural defects — short buffers, bad magic, length fields
// that disagree with the buffer — fail first and satisfy
// [IsMalformed]. Only a structurally valid buffer has its digest
// compared; a mismatch satisfies [IsIntegrityMismatch]. The two are
// mutually exclusive for any given input.
//
// The package holds no state; all functions are safe for concurrent
// use.
package seal

// Copyright 2026 The BSTSEAL Authors
// SPDX-License-Identifier: Apache-2.0

// Package archive bundles sealed files into a single container with a
// random-access index.
//
// Layout:
//
//	magic      8 bytes   "BSTSARC" plus a format version byte
//	index_len  4 bytes   little-endian
//	index      CBOR array of members (path, offset, size, original_size)
//	members    concatenated sealed buffers
//
// Each member is an independent sealed buffer, so corruption in one
// member never prevents extracting the others, and single-member
// extraction needs only one ReadAt. Member offsets are relative to the
// end of the index.
//
// Archives are reproducible: members are sorted by path and the index
// uses deterministic CBOR, so packing the same tree twice yields
// byte-identical output. [Unpack] validates every member path against
// directory escape before writing anything.
package archive

// Copyright 2026 The BSTSEAL Authors
// SPDX-License-Identifier: Apache-2.0

// Package codec provides BSTSEAL's standard CBOR encoding
// configuration.
//
// BSTSEAL uses two serialization formats with a clear boundary:
//
//   - CBOR for on-disk structures: the archive member index and any
//     future metadata embedded in sealed containers.
//   - JSON for CLI --json output, consumed by scripts and humans.
//
// This package provides the shared CBOR modes so every package encodes
// identically without duplicating configuration. The encoder uses Core
// Deterministic Encoding (RFC 8949 §4.2): sorted map keys, smallest
// integer encoding, no indefinite-length items. Same logical data
// always produces identical bytes, which keeps archives reproducible —
// packing the same file tree twice yields byte-identical output.
//
// For buffer-oriented operations:
//
//	data, err := codec.Marshal(value)
//	err = codec.Unmarshal(data, &value)
//
// For stream-oriented operations:
//
//	encoder := codec.NewEncoder(w)
//	decoder := codec.NewDecoder(r)
package codec

// Copyright 2026 The BSTSEAL Authors
// SPDX-License-Identifier: Apache-2.0

// Package compress implements the BSTSEAL block compressor: a
// deterministic, lossless transform over arbitrary byte sequences with
// no framing knowledge of its own.
//
// Input is split into 64 KiB blocks. Each block is encoded with every
// candidate codec — the in-package canonical Huffman coder, LZ4 block
// mode, and zstd — and the smallest payload wins; blocks that no codec
// can shrink are stored raw, so pathological input never inflates by
// more than the per-block framing. Blocks are independent, which lets
// both [Compress] and [Decompress] fan out one block per worker.
//
// Stream layout:
//
//	repeat: uvarint(encodedBlockLen) || encodedBlock
//
// where encodedBlock is tag(1) || uvarint(originalLen) || payload for
// compressed tags, or tag(1) || bytes for [BlockRaw].
//
// [Decompress] verifies the declared sizes at every level and fails on
// any structural defect: invalid varints, blocks overrunning the
// stream, unknown tags, malformed Huffman tables or bitstreams, and
// output length mismatches. It never returns partially decoded data.
//
// The package holds no mutable state between calls; the shared zstd
// encoder and decoder are concurrency-safe and configured so output
// depends only on input bytes.
package compress

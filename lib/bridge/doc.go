// Copyright 2026 The BSTSEAL Authors
// SPDX-License-Identifier: Apache-2.0

// Package bridge is the language-neutral surface of the sealing
// engine: byte-slice in, byte-slice out, with every outcome reduced to
// a [Status] code instead of an error value. The C entry points in
// cmd/bstseal-ffi are thin wrappers over this package; keeping the
// logic here keeps it testable as ordinary Go.
//
// Status values are fixed ABI constants shared with foreign callers.
// [StatusNullPointer] and [StatusAllocFail] concern pointer and
// allocator handling that only the C layer can encounter; pure Go
// callers see the remaining four.
//
// The package holds no state. Both operations are safe for unbounded
// concurrent use, and a failed operation returns nothing the caller
// must release.
package bridge

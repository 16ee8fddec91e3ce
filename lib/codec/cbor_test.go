// Copyright 2026 The BSTSEAL Authors
// SPDX-License-Identifier: Apache-2.0

package codec

import (
	"bytes"
	"strings"
	"testing"
)

// sampleEntry mirrors the shape of an archive index entry: string
// path, integer offsets and sizes, with cbor struct tags (the
// convention for purely on-disk types).
type sampleEntry struct {
	Path   string `cbor:"path"`
	Offset uint64 `cbor:"offset"`
	Size   uint64 `cbor:"size,omitempty"`
}

func TestMarshalUnmarshalRoundtrip(t *testing.T) {
	original := sampleEntry{
		Path:   "docs/readme.md",
		Offset: 4096,
		Size:   1234,
	}

	data, err := Marshal(original)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if len(data) == 0 {
		t.Fatal("Marshal produced empty output")
	}

	var decoded sampleEntry
	if err := Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if decoded != original {
		t.Errorf("roundtrip mismatch: got %+v, want %+v", decoded, original)
	}
}

func TestMarshalDeterministic(t *testing.T) {
	// Map iteration order must not leak into the encoding; archives
	// rely on this for reproducible output.
	value := map[string]any{
		"zebra":  1,
		"alpha":  2,
		"middle": []string{"a", "b"},
	}

	first, err := Marshal(value)
	if err != nil {
		t.Fatalf("first Marshal: %v", err)
	}
	second, err := Marshal(value)
	if err != nil {
		t.Fatalf("second Marshal: %v", err)
	}
	if !bytes.Equal(first, second) {
		t.Errorf("deterministic encoding violated: %x != %x", first, second)
	}
}

func TestEncoderDecoderStreamRoundtrip(t *testing.T) {
	entries := []sampleEntry{
		{Path: "a.txt", Offset: 0, Size: 10},
		{Path: "b/c.txt", Offset: 10, Size: 20},
		{Path: "empty", Offset: 30},
	}

	var buffer bytes.Buffer
	encoder := NewEncoder(&buffer)
	for _, entry := range entries {
		if err := encoder.Encode(entry); err != nil {
			t.Fatalf("Encode: %v", err)
		}
	}

	decoder := NewDecoder(&buffer)
	for i, want := range entries {
		var got sampleEntry
		if err := decoder.Decode(&got); err != nil {
			t.Fatalf("Decode entry %d: %v", i, err)
		}
		if got != want {
			t.Errorf("entry %d: got %+v, want %+v", i, got, want)
		}
	}
}

func TestOmitemptyRespected(t *testing.T) {
	withSize := sampleEntry{Path: "a", Offset: 1, Size: 9}
	withoutSize := sampleEntry{Path: "a", Offset: 1}

	dataWith, err := Marshal(withSize)
	if err != nil {
		t.Fatal(err)
	}
	dataWithout, err := Marshal(withoutSize)
	if err != nil {
		t.Fatal(err)
	}

	if len(dataWithout) >= len(dataWith) {
		t.Errorf("omitempty not effective: without=%d bytes, with=%d bytes",
			len(dataWithout), len(dataWith))
	}
}

func TestUnmarshalInvalidCBOR(t *testing.T) {
	var entry sampleEntry
	if err := Unmarshal([]byte{0xFF, 0xFE, 0xFD}, &entry); err == nil {
		t.Error("Unmarshal should reject invalid CBOR")
	}
}

func TestByteStringRoundtrip(t *testing.T) {
	// []byte fields must encode as CBOR byte strings (major type 2),
	// not text strings — they carry digests and binary payloads.
	type envelope struct {
		Digest []byte `cbor:"digest"`
	}

	original := envelope{Digest: []byte{0xDE, 0xAD, 0xBE, 0xEF, 0x00}}

	data, err := Marshal(original)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	var decoded envelope
	if err := Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if !bytes.Equal(decoded.Digest, original.Digest) {
		t.Errorf("byte string roundtrip: got %x, want %x", decoded.Digest, original.Digest)
	}
}

func TestDiagnose(t *testing.T) {
	data, err := Marshal(map[string]any{"path": "a.txt"})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	notation, err := Diagnose(data)
	if err != nil {
		t.Fatalf("Diagnose: %v", err)
	}
	if !strings.Contains(notation, `"path"`) {
		t.Errorf("notation %q does not contain \"path\"", notation)
	}
	if !strings.Contains(notation, `"a.txt"`) {
		t.Errorf("notation %q does not contain \"a.txt\"", notation)
	}
}

func BenchmarkMarshal(b *testing.B) {
	entry := sampleEntry{
		Path:   "docs/readme.md",
		Offset: 4096,
		Size:   1234,
	}

	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		Marshal(entry)
	}
}

func BenchmarkUnmarshal(b *testing.B) {
	entry := sampleEntry{
		Path:   "docs/readme.md",
		Offset: 4096,
		Size:   1234,
	}
	data, err := Marshal(entry)
	if err != nil {
		b.Fatal(err)
	}

	b.SetBytes(int64(len(data)))
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		var decoded sampleEntry
		Unmarshal(data, &decoded)
	}
}

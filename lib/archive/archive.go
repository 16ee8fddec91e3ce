// Copyright 2026 The BSTSEAL Authors
// SPDX-License-Identifier: Apache-2.0

package archive

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bstseal/bstseal/lib/codec"
	"github.com/bstseal/bstseal/lib/seal"
)

// magic identifies a BSTSEAL archive. The final byte is the format
// version.
var magic = [8]byte{'B', 'S', 'T', 'S', 'A', 'R', 'C', 1}

// headerSize is the fixed prefix before the index: magic plus the
// little-endian uint32 index length.
const headerSize = 8 + 4

// maxIndexSize bounds the index a reader will load. An index this
// large would describe tens of millions of members; anything bigger is
// a malformed or hostile file, not an archive.
const maxIndexSize = 1 << 30

// Member describes one file in an archive. Offset is relative to the
// start of the member region (the byte after the index), so the index
// never needs to know its own encoded size.
type Member struct {
	// Path is the slash-separated archive path of the member.
	Path string `cbor:"path"`

	// Offset is the member's position within the member region.
	Offset uint64 `cbor:"offset"`

	// Size is the sealed size of the member as stored.
	Size uint64 `cbor:"size"`

	// OriginalSize is the member's size before sealing, duplicated
	// from the seal header so listing does not touch member bytes.
	OriginalSize uint64 `cbor:"original_size"`
}

// Pack seals every input file into a new archive at archivePath.
// Directory inputs are walked recursively; a directory's members are
// stored under its base name, a plain file under its own base name.
// Members are sorted by path and the index uses deterministic CBOR, so
// packing the same tree twice produces byte-identical archives.
func Pack(archivePath string, inputs []string) error {
	paths, err := collectInputs(inputs)
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		return fmt.Errorf("no input files")
	}

	type pending struct {
		archivePath string
		sealed      []byte
		originalLen uint64
	}
	members := make([]pending, 0, len(paths))
	seen := make(map[string]string, len(paths))
	for _, p := range paths {
		if previous, ok := seen[p.archivePath]; ok {
			return fmt.Errorf("archive path %q claimed by both %s and %s", p.archivePath, previous, p.filePath)
		}
		seen[p.archivePath] = p.filePath

		data, err := os.ReadFile(p.filePath)
		if err != nil {
			return fmt.Errorf("reading %s: %w", p.filePath, err)
		}
		sealed, err := seal.Seal(data)
		if err != nil {
			return fmt.Errorf("sealing %s: %w", p.filePath, err)
		}
		members = append(members, pending{
			archivePath: p.archivePath,
			sealed:      sealed,
			originalLen: uint64(len(data)),
		})
	}

	sort.Slice(members, func(i, j int) bool {
		return members[i].archivePath < members[j].archivePath
	})

	index := make([]Member, len(members))
	offset := uint64(0)
	for i, m := range members {
		index[i] = Member{
			Path:         m.archivePath,
			Offset:       offset,
			Size:         uint64(len(m.sealed)),
			OriginalSize: m.originalLen,
		}
		offset += uint64(len(m.sealed))
	}
	indexBytes, err := codec.Marshal(index)
	if err != nil {
		return fmt.Errorf("encoding archive index: %w", err)
	}

	out, err := os.Create(archivePath)
	if err != nil {
		return fmt.Errorf("creating archive: %w", err)
	}
	defer out.Close()

	var header [headerSize]byte
	copy(header[:], magic[:])
	binary.LittleEndian.PutUint32(header[8:], uint32(len(indexBytes)))
	if _, err := out.Write(header[:]); err != nil {
		return fmt.Errorf("writing archive header: %w", err)
	}
	if _, err := out.Write(indexBytes); err != nil {
		return fmt.Errorf("writing archive index: %w", err)
	}
	for _, m := range members {
		if _, err := out.Write(m.sealed); err != nil {
			return fmt.Errorf("writing member %s: %w", m.archivePath, err)
		}
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("closing archive: %w", err)
	}
	return nil
}

// List returns the archive's members in index order without reading
// any member bytes.
func List(archivePath string) ([]Member, error) {
	file, err := os.Open(archivePath)
	if err != nil {
		return nil, fmt.Errorf("opening archive: %w", err)
	}
	defer file.Close()

	members, _, err := readIndex(file)
	return members, err
}

// Extract verifies and unseals a single member by archive path.
// Missing members report an error satisfying errors.Is(err,
// fs.ErrNotExist).
func Extract(archivePath, memberPath string) ([]byte, error) {
	file, err := os.Open(archivePath)
	if err != nil {
		return nil, fmt.Errorf("opening archive: %w", err)
	}
	defer file.Close()

	members, memberBase, err := readIndex(file)
	if err != nil {
		return nil, err
	}
	for _, member := range members {
		if member.Path == memberPath {
			return readMember(file, memberBase, member)
		}
	}
	return nil, fmt.Errorf("member %q: %w", memberPath, fs.ErrNotExist)
}

// Unpack extracts every member of an archive into outDir, creating
// parent directories as needed. Member paths that would escape outDir
// are rejected before anything is written.
func Unpack(archivePath, outDir string) error {
	file, err := os.Open(archivePath)
	if err != nil {
		return fmt.Errorf("opening archive: %w", err)
	}
	defer file.Close()

	members, memberBase, err := readIndex(file)
	if err != nil {
		return err
	}

	// Validate every path before writing anything: a half-unpacked
	// tree from a hostile archive is worse than no tree.
	for _, member := range members {
		if !fs.ValidPath(member.Path) || strings.Contains(member.Path, `\`) {
			return fmt.Errorf("member path %q escapes the output directory", member.Path)
		}
	}

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}
	for _, member := range members {
		data, err := readMember(file, memberBase, member)
		if err != nil {
			return err
		}
		target := filepath.Join(outDir, filepath.FromSlash(member.Path))
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return fmt.Errorf("creating directory for %s: %w", member.Path, err)
		}
		if err := os.WriteFile(target, data, 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", member.Path, err)
		}
	}
	return nil
}

// collected pairs a filesystem path with its path inside the archive.
type collected struct {
	filePath    string
	archivePath string
}

func collectInputs(inputs []string) ([]collected, error) {
	var paths []collected
	for _, input := range inputs {
		info, err := os.Stat(input)
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", input, err)
		}
		if !info.IsDir() {
			paths = append(paths, collected{filePath: input, archivePath: filepath.Base(input)})
			continue
		}
		root := filepath.Clean(input)
		err = filepath.WalkDir(root, func(path string, entry fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if entry.IsDir() || !entry.Type().IsRegular() {
				return nil
			}
			rel, err := filepath.Rel(root, path)
			if err != nil {
				return err
			}
			paths = append(paths, collected{
				filePath:    path,
				archivePath: filepath.ToSlash(filepath.Join(filepath.Base(root), rel)),
			})
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("walking %s: %w", input, err)
		}
	}
	return paths, nil
}

// readIndex parses the archive header and index, returning the members
// and the file offset where the member region begins.
func readIndex(file *os.File) ([]Member, int64, error) {
	var header [headerSize]byte
	if _, err := io.ReadFull(file, header[:]); err != nil {
		return nil, 0, fmt.Errorf("reading archive header: %w", err)
	}
	if !bytes.Equal(header[:8], magic[:]) {
		return nil, 0, fmt.Errorf("not a BSTSEAL archive")
	}
	indexLen := binary.LittleEndian.Uint32(header[8:])
	if indexLen == 0 || indexLen > maxIndexSize {
		return nil, 0, fmt.Errorf("archive index length %d out of range", indexLen)
	}

	indexBytes := make([]byte, indexLen)
	if _, err := io.ReadFull(file, indexBytes); err != nil {
		return nil, 0, fmt.Errorf("reading archive index: %w", err)
	}
	var members []Member
	if err := codec.Unmarshal(indexBytes, &members); err != nil {
		return nil, 0, fmt.Errorf("decoding archive index: %w", err)
	}
	return members, int64(headerSize) + int64(indexLen), nil
}

// readMember reads, verifies, and unseals one member's bytes.
func readMember(file *os.File, memberBase int64, member Member) ([]byte, error) {
	if member.Size > maxIndexSize*4 {
		return nil, fmt.Errorf("member %s declares implausible size %d", member.Path, member.Size)
	}
	sealed := make([]byte, member.Size)
	if _, err := file.ReadAt(sealed, memberBase+int64(member.Offset)); err != nil {
		return nil, fmt.Errorf("reading member %s: %w", member.Path, err)
	}
	data, err := seal.Unseal(sealed)
	if err != nil {
		return nil, fmt.Errorf("unsealing member %s: %w", member.Path, err)
	}
	return data, nil
}

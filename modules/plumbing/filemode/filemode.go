// Copyright 2018 Sourced Technologies, S.L.
// SPDX-License-Identifier: Apache-2.0

// Package filemode defines the different types of modes a tree entry can
// assume, mirroring the small set of values git itself stores in a tree.
package filemode

import (
	"encoding/binary"
	"fmt"
	"io/fs"
	"strconv"
)

// A FileMode represents the mode of a tree entry, following the reduced
// set of Unix permission bits that git records (it is not a full POSIX
// mode). Fragments is an extra bit this project adds on top of the base
// git modes to flag an entry whose content lives in a fragments object
// rather than a blob; it never appears in an encoded tree.
type FileMode uint32

const (
	Empty      FileMode = 0
	Dir        FileMode = 0040000
	Regular    FileMode = 0100644
	Deprecated FileMode = 0100000
	Executable FileMode = 0100755
	Symlink    FileMode = 0120000
	Submodule  FileMode = 0160000

	// Fragments is an out-of-band flag bit (never part of an on-disk mode
	// value, which fits in 16 bits) marking an entry whose payload is a
	// fragments object.
	Fragments FileMode = 1 << 16
)

// baseMask isolates the git mode bits from the Fragments flag.
const baseMask FileMode = 0xffff

func (m FileMode) base() FileMode {
	return m & baseMask
}

// IsMalformed returns if the FileMode doesn't have a valid value, excluding
// the Fragments flag.
func (m FileMode) IsMalformed() bool {
	switch m.base() {
	case Empty, Dir, Regular, Deprecated, Executable, Symlink, Submodule:
		return false
	default:
		return true
	}
}

// IsFile returns true when the base mode is one of the "file" types:
// regular, deprecated, executable or symlink.
func (m FileMode) IsFile() bool {
	switch m.base() {
	case Regular, Deprecated, Executable, Symlink:
		return true
	default:
		return false
	}
}

// IsRegular returns if the base mode represents a regular file.
func (m FileMode) IsRegular() bool {
	return m.base() == Regular
}

// Bytes returns the mode as a big-endian 4-byte slice, the on-disk
// encoding used by tree entries (the Fragments flag is stripped before
// encoding, since it is never stored).
func (m FileMode) Bytes() []byte {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], uint32(m.base()))
	return b[:]
}

// NewFileModeFromBytes decodes a 4-byte big-endian mode as produced by Bytes.
func NewFileModeFromBytes(b []byte) (FileMode, error) {
	if len(b) != 4 {
		return Empty, fmt.Errorf("filemode: invalid mode length %d", len(b))
	}
	return FileMode(binary.BigEndian.Uint32(b)), nil
}

// New parses the octal string representation of a mode, as found in a tree
// entry's text form (e.g. "100644").
func New(s string) (FileMode, error) {
	n, err := strconv.ParseUint(s, 8, 32)
	if err != nil {
		return Empty, fmt.Errorf("filemode: invalid mode %q: %w", s, err)
	}
	return FileMode(n), nil
}

// NewFromOSFileMode converts a fs.FileMode into the corresponding git mode.
func NewFromOSFileMode(m fs.FileMode) (FileMode, error) {
	switch {
	case m.IsDir():
		return Dir, nil
	case m&fs.ModeSymlink != 0:
		return Symlink, nil
	case m&0111 != 0:
		return Executable, nil
	case m.IsRegular():
		return Regular, nil
	default:
		return Empty, fmt.Errorf("filemode: unsupported file mode %v", m)
	}
}

// ToOSFileMode converts a git mode into the closest fs.FileMode.
func (m FileMode) ToOSFileMode() (fs.FileMode, error) {
	switch m.base() {
	case Dir, Submodule:
		return fs.ModeDir | 0755, nil
	case Symlink:
		return fs.ModeSymlink, nil
	case Executable:
		return 0755, nil
	case Regular, Deprecated:
		return 0644, nil
	case Empty:
		return 0, nil
	default:
		return 0, fmt.Errorf("filemode: malformed mode %o", uint32(m))
	}
}

func (m FileMode) String() string {
	s := fmt.Sprintf("%06o", uint32(m.base()))
	if m&Fragments != 0 {
		s += "+fragments"
	}
	return s
}

func (m FileMode) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(fmt.Sprintf("%o", uint32(m)))), nil
}

func (m *FileMode) UnmarshalJSON(b []byte) error {
	s, err := strconv.Unquote(string(b))
	if err != nil {
		return err
	}
	n, err := strconv.ParseUint(s, 8, 32)
	if err != nil {
		return err
	}
	*m = FileMode(n)
	return nil
}

// Copyright ©️ Ant Group. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

// Package store implements a small content-addressed loose-object store for
// the zeta-blame object database: commits, trees, tags, fragments and blobs
// are written to disk sharded by their hash, compressed with zstd the same
// way the original backend package does for "loose" objects. Packfiles,
// LRU caching and remote-sharing roots are out of scope; this store only
// ever needs to serve reads for an already-fetched set of objects plus the
// writes a local `zeta init`/ingestion performs.
package store

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/antgroup/hugescm/modules/plumbing"
	"github.com/antgroup/hugescm/modules/streamio"
	"github.com/antgroup/hugescm/modules/strengthen"
	"github.com/antgroup/hugescm/modules/zeta/object"
)

// Store is a loose-object, content-addressed backend rooted at <zetaDir>/objects.
type Store struct {
	root     string
	incoming string
	mu       sync.RWMutex
	closed   bool
}

var _ object.Backend = (*Store)(nil)

// NewStore opens (creating if necessary) the loose-object store rooted at
// filepath.Join(zetaDir, "objects").
func NewStore(zetaDir string) (*Store, error) {
	root := filepath.Join(zetaDir, "objects")
	incoming := filepath.Join(zetaDir, "incoming")
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(incoming, 0755); err != nil {
		return nil, err
	}
	return &Store{root: root, incoming: incoming}, nil
}

func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (s *Store) path(oid plumbing.Hash) string {
	encoded := oid.String()
	return filepath.Join(s.root, encoded[:2], encoded[2:4], encoded)
}

// exists reports whether oid is present in the store.
func (s *Store) exists(oid plumbing.Hash) error {
	if _, err := os.Stat(s.path(oid)); err != nil {
		if os.IsNotExist(err) {
			return plumbing.NoSuchObject(oid)
		}
		return err
	}
	return nil
}

// Exists reports whether oid is present in the store. The metadata flag is
// accepted for source compatibility with backends that keep separate
// metadata/blob namespaces; this store keeps a single namespace and ignores it.
func (s *Store) Exists(oid plumbing.Hash, _ bool) bool {
	return s.exists(oid) == nil
}

// open returns a reader over the raw (possibly zstd-compressed) bytes at oid.
func (s *Store) open(oid plumbing.Hash) (io.ReadCloser, error) {
	f, err := os.Open(s.path(oid))
	if os.IsNotExist(err) {
		return nil, plumbing.NoSuchObject(oid)
	}
	return f, err
}

func (s *Store) finalize(incomingPath string, oid plumbing.Hash) error {
	objectPath := s.path(oid)
	if err := os.MkdirAll(filepath.Dir(objectPath), 0755); err != nil {
		_ = os.Remove(incomingPath)
		return err
	}
	if err := strengthen.FinalizeObject(incomingPath, objectPath); err != nil {
		_ = os.Remove(incomingPath)
		return err
	}
	_ = os.Chmod(objectPath, 0444)
	return nil
}

// putEncoded zstd-compresses e's encoded form and writes it under the hash
// of the *uncompressed* bytes, matching the way object.Decode transparently
// unwraps a leading zstd frame.
func (s *Store) putEncoded(e object.Encoder) (plumbing.Hash, error) {
	oid := object.Hash(e)
	if oid.IsZero() {
		return oid, fmt.Errorf("store: unable to hash object")
	}
	if s.exists(oid) == nil {
		return oid, nil
	}
	fd, err := os.CreateTemp(s.incoming, "obj")
	if err != nil {
		return oid, err
	}
	incomingPath := fd.Name()
	zw := streamio.GetZstdWriter(fd)
	encErr := e.Encode(zw)
	streamio.PutZstdWriter(zw)
	if encErr != nil {
		_ = fd.Close()
		_ = os.Remove(incomingPath)
		return oid, encErr
	}
	_ = fd.Sync()
	_ = fd.Close()
	if err := s.finalize(incomingPath, oid); err != nil {
		return oid, err
	}
	return oid, nil
}

// PutCommit encodes and stores a commit, returning its hash.
func (s *Store) PutCommit(c *object.Commit) (plumbing.Hash, error) {
	return s.putEncoded(c)
}

// PutTree encodes and stores a tree, returning its hash.
func (s *Store) PutTree(t *object.Tree) (plumbing.Hash, error) {
	return s.putEncoded(t)
}

// PutTag encodes and stores a tag, returning its hash.
func (s *Store) PutTag(t *object.Tag) (plumbing.Hash, error) {
	return s.putEncoded(t)
}

// PutFragments encodes and stores a fragments record, returning its hash.
func (s *Store) PutFragments(f *object.Fragments) (plumbing.Hash, error) {
	return s.putEncoded(f)
}

// PutBlob reads r fully, hashing and zstd-compressing its content behind the
// object package's BLOB_MAGIC envelope, and returns the resulting hash.
func (s *Store) PutBlob(r io.Reader) (oid plumbing.Hash, err error) {
	fd, err := os.CreateTemp(s.incoming, "blob")
	if err != nil {
		return oid, err
	}
	incomingPath := fd.Name()
	defer func() {
		if err != nil {
			_ = fd.Close()
			_ = os.Remove(incomingPath)
		}
	}()
	hasher := plumbing.NewHasher()
	tee := io.TeeReader(r, hasher)
	var payload []byte
	if payload, err = io.ReadAll(tee); err != nil {
		return oid, err
	}
	if _, err = fd.Write(object.BLOB_MAGIC[:]); err != nil {
		return oid, err
	}
	hdr := [12]byte{}
	// version(2) + method(2) + size(8), big-endian, matching object.NewBlob's layout.
	hdr[1] = byte(object.BLOB_CURRENT_VERSION)
	hdr[3] = byte(object.ZSTD)
	size := uint64(len(payload))
	for i := range 8 {
		hdr[11-i] = byte(size >> (8 * i))
	}
	if _, err = fd.Write(hdr[:]); err != nil {
		return oid, err
	}
	zw := streamio.GetZstdWriter(fd)
	_, werr := zw.Write(payload)
	streamio.PutZstdWriter(zw)
	if werr != nil {
		err = werr
		return oid, err
	}
	_ = fd.Sync()
	_ = fd.Close()
	oid = hasher.Sum()
	if err = s.finalize(incomingPath, oid); err != nil {
		return oid, err
	}
	return oid, nil
}

func (s *Store) object(ctx context.Context, oid plumbing.Hash) (any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rc, err := s.open(oid)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return object.Decode(rc, oid, s)
}

// Object decodes oid without knowing its type in advance, returning one of
// *object.Commit, *object.Tree, *object.Tag or *object.Fragments.
func (s *Store) Object(ctx context.Context, oid plumbing.Hash) (any, error) {
	return s.object(ctx, oid)
}

// ErrMismatchedObjectType is returned when an object of an unexpected type
// is found where a specific type (e.g. a commit) was required.
type ErrMismatchedObjectType struct {
	Oid      plumbing.Hash
	Expected string
}

func (e *ErrMismatchedObjectType) Error() string {
	return fmt.Sprintf("object %s is not a %s", e.Oid, e.Expected)
}

// NewErrMismatchedObjectType builds an ErrMismatchedObjectType.
func NewErrMismatchedObjectType(oid plumbing.Hash, expected string) error {
	return &ErrMismatchedObjectType{Oid: oid, Expected: expected}
}

// ParseRevExhaustive resolves oid to a commit, dereferencing any chain of
// annotated tags that point at it.
func (s *Store) ParseRevExhaustive(ctx context.Context, oid plumbing.Hash) (*object.Commit, error) {
	cur := oid
	for range 10 {
		a, err := s.object(ctx, cur)
		if err != nil {
			return nil, err
		}
		switch v := a.(type) {
		case *object.Commit:
			return v, nil
		case *object.Tag:
			cur = v.Object
			continue
		default:
			return nil, NewErrMismatchedObjectType(oid, "commit")
		}
	}
	return nil, NewErrMismatchedObjectType(oid, "commit")
}

// Search resolves a short hex prefix (at least 6 characters) to the single
// matching object hash in the store. It returns plumbing.NoSuchObject if no
// object matches, or an "ambiguous object prefix" error if more than one does.
func (s *Store) Search(prefix string) (plumbing.Hash, error) {
	if len(prefix) < 6 || len(prefix) > plumbing.HASH_HEX_SIZE || !isHexPrefix(prefix) {
		return plumbing.ZeroHash, plumbing.NoSuchObject(plumbing.ZeroHash)
	}
	dir1 := filepath.Join(s.root, prefix[:2])
	entries2, err := os.ReadDir(dir1)
	if err != nil {
		if os.IsNotExist(err) {
			return plumbing.ZeroHash, plumbing.NoSuchObject(plumbing.ZeroHash)
		}
		return plumbing.ZeroHash, err
	}
	var found plumbing.Hash
	matches := 0
	for _, d2 := range entries2 {
		if !d2.IsDir() {
			continue
		}
		entries3, err := os.ReadDir(filepath.Join(dir1, d2.Name()))
		if err != nil {
			continue
		}
		for _, d3 := range entries3 {
			name := d3.Name()
			if len(name) == 64 && strings.HasPrefix(name, prefix) {
				matches++
				found = plumbing.NewHash(name)
			}
		}
	}
	switch matches {
	case 0:
		return plumbing.ZeroHash, plumbing.NoSuchObject(plumbing.ZeroHash)
	case 1:
		return found, nil
	default:
		return plumbing.ZeroHash, fmt.Errorf("ambiguous object prefix %q", prefix)
	}
}

func (s *Store) Commit(ctx context.Context, oid plumbing.Hash) (*object.Commit, error) {
	a, err := s.object(ctx, oid)
	if err != nil {
		return nil, err
	}
	c, ok := a.(*object.Commit)
	if !ok {
		return nil, fmt.Errorf("store: %s is not a commit", oid)
	}
	return c, nil
}

func (s *Store) Tree(ctx context.Context, oid plumbing.Hash) (*object.Tree, error) {
	a, err := s.object(ctx, oid)
	if err != nil {
		return nil, err
	}
	t, ok := a.(*object.Tree)
	if !ok {
		return nil, fmt.Errorf("store: %s is not a tree", oid)
	}
	return t, nil
}

func (s *Store) Fragments(ctx context.Context, oid plumbing.Hash) (*object.Fragments, error) {
	a, err := s.object(ctx, oid)
	if err != nil {
		return nil, err
	}
	f, ok := a.(*object.Fragments)
	if !ok {
		return nil, fmt.Errorf("store: %s is not a fragments object", oid)
	}
	return f, nil
}

func (s *Store) Tag(ctx context.Context, oid plumbing.Hash) (*object.Tag, error) {
	a, err := s.object(ctx, oid)
	if err != nil {
		return nil, err
	}
	t, ok := a.(*object.Tag)
	if !ok {
		return nil, fmt.Errorf("store: %s is not a tag", oid)
	}
	return t, nil
}

func (s *Store) Blob(_ context.Context, oid plumbing.Hash) (*object.Blob, error) {
	rc, err := s.open(oid)
	if err != nil {
		return nil, err
	}
	b, err := object.NewBlob(rc)
	if err != nil {
		_ = rc.Close()
		return nil, err
	}
	return b, nil
}

func isHexPrefix(s string) bool {
	for _, c := range s {
		switch {
		case c >= '0' && c <= '9':
		case c >= 'a' && c <= 'f':
		case c >= 'A' && c <= 'F':
		default:
			return false
		}
	}
	return true
}

var ignoreDir = map[string]bool{"pack": true}

// Walk visits every loose object hash in the store.
func (s *Store) Walk(fn func(plumbing.Hash) error) error {
	return filepath.WalkDir(s.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if ignoreDir[d.Name()] {
				return filepath.SkipDir
			}
			return nil
		}
		name := d.Name()
		if !plumbing.ValidateHashHex(name) {
			return nil
		}
		return fn(plumbing.NewHash(name))
	})
}

// Root returns the on-disk objects directory.
func (s *Store) Root() string {
	return s.root
}

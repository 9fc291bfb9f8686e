// Copyright ©️ Ant Group. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package zeta

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/antgroup/hugescm/modules/plumbing"
	"github.com/antgroup/hugescm/modules/zeta/config"
	"github.com/antgroup/hugescm/modules/zeta/object"
	"github.com/antgroup/hugescm/modules/zeta/refs"
	"github.com/antgroup/hugescm/modules/zeta/store"
)

const (
	// ZetaDirName is the special directory where all zeta metadata lives.
	ZetaDirName = ".zeta"
)

type StringArray []string

func valuesMapArray(values []string) map[string]StringArray {
	m := make(map[string]StringArray)
	for _, v := range values {
		i := strings.IndexByte(v, '=')
		if i == -1 {
			continue
		}
		k := strings.ToLower(v[:i])
		v := v[i+1:]
		if _, ok := m[k]; ok {
			m[k] = append(m[k], v)
			continue
		}
		m[k] = []string{v}
	}
	return m
}

func getStringFromValues(k string, values map[string]StringArray) (string, bool) {
	if len(values) == 0 {
		return "", false
	}
	sa, ok := values[strings.ToLower(k)]
	if !ok {
		return "", false
	}
	if len(sa) == 0 {
		return "", true
	}
	return sa[len(sa)-1], true
}

func getFromValueOrEnv(k, e string, values map[string]StringArray) (string, bool) {
	if s, ok := getStringFromValues(k, values); ok {
		return s, true
	}
	return os.LookupEnv(e)
}

// Repository is an opened zeta metadata directory: object store, references
// and configuration, rooted at a worktree. Unlike the full zeta client this
// package only ever needs read access to history for attribution purposes;
// there is no working tree checkout, index, or remote transport here.
type Repository struct {
	*config.Config
	refs.Backend
	odb     *store.Store
	baseDir string // worktree
	zetaDir string
	values  map[string]StringArray
	quiet   bool
	verbose bool
}

type OpenOptions struct {
	Worktree string
	Quiet    bool
	Verbose  bool
	Values   []string
}

// Open locates and opens an existing zeta repository starting the search at
// opts.Worktree (or the current directory).
func Open(ctx context.Context, opts *OpenOptions) (*Repository, error) {
	worktree, zetaDir, err := FindZetaDir(opts.Worktree)
	if err != nil {
		die_error("%v", err)
		return nil, err
	}
	cfg, err := config.Load(zetaDir)
	if err != nil {
		die_error("%v", err)
		return nil, err
	}
	odb, err := store.NewStore(zetaDir)
	if err != nil {
		die("open object store: %v", err)
		return nil, err
	}
	r := &Repository{
		Config:  cfg,
		zetaDir: zetaDir,
		baseDir: worktree,
		odb:     odb,
		Backend: refs.NewBackend(zetaDir),
		values:  valuesMapArray(opts.Values),
		quiet:   opts.Quiet,
		verbose: opts.Verbose,
	}
	return r, nil
}

type InitOptions struct {
	Branch    string
	Worktree  string
	MustEmpty bool
	Quiet     bool
	Verbose   bool
	Values    []string
}

// Init creates a brand-new, empty zeta repository.
func Init(ctx context.Context, opts *InitOptions) (*Repository, error) {
	destination, _, err := checkDestination("", opts.Worktree, opts.MustEmpty)
	if err != nil {
		return nil, err
	}
	zetaDir := filepath.Join(destination, ZetaDirName)
	cfg, err := config.LoadBaseline()
	if err != nil {
		die("local config: %v", err)
		return nil, err
	}
	newConfig := &config.Config{}
	if err := config.Encode(zetaDir, newConfig); err != nil {
		die("encode config: %v", err)
		return nil, err
	}
	odb, err := store.NewStore(zetaDir)
	if err != nil {
		die("new object store: %v", err)
		return nil, err
	}
	branchName := opts.Branch
	if len(branchName) == 0 {
		branchName = "master"
	}
	r := &Repository{
		Config:  cfg,
		odb:     odb,
		Backend: refs.NewBackend(zetaDir),
		zetaDir: zetaDir,
		values:  valuesMapArray(opts.Values),
		baseDir: destination,
		quiet:   opts.Quiet,
		verbose: opts.Verbose,
	}
	// HEAD marks the directory as a zeta metadata dir (see isZetaDir) and
	// points at the initial branch, mirroring the way a fresh repository
	// has no commits on it yet.
	head := plumbing.NewSymbolicReference(plumbing.HEAD, plumbing.NewBranchReferenceName(branchName))
	if err := r.ReferenceUpdate(head, nil); err != nil {
		die_error("write HEAD: %v", err)
		return nil, err
	}
	return r, nil
}

func (r *Repository) getFromValueOrEnv(k, e string) (string, bool) {
	return getFromValueOrEnv(k, e, r.values)
}

func (r *Repository) authorName() string {
	if s, ok := r.getFromValueOrEnv("user.name", ENV_ZETA_AUTHOR_NAME); ok && len(s) > 0 {
		return s
	}
	return r.User.Name
}

func (r *Repository) authorEmail() string {
	if s, ok := r.getFromValueOrEnv("user.email", ENV_ZETA_AUTHOR_EMAIL); ok && len(s) > 0 {
		return s
	}
	return r.User.Email
}

func (r *Repository) NewCommitter() *object.Signature {
	return &object.Signature{
		Name:  r.authorName(),
		Email: r.authorEmail(),
		When:  time.Now(),
	}
}

func (r *Repository) BaseDir() string {
	return r.baseDir
}

func (r *Repository) ZetaDir() string {
	return r.zetaDir
}

func (r *Repository) Current() (*plumbing.Reference, error) {
	ref, err := r.HEAD()
	if err != nil {
		return nil, err
	}
	if ref == nil {
		return nil, plumbing.ErrReferenceNotFound
	}
	if ref.Type() == plumbing.HashReference {
		return ref, nil
	}
	return r.Reference(ref.Target())
}

func (r *Repository) ODB() *store.Store {
	return r.odb
}

func (r *Repository) RDB() refs.Backend {
	return r.Backend
}

func (r *Repository) ReferenceResolve(name plumbing.ReferenceName) (ref *plumbing.Reference, err error) {
	return refs.ReferenceResolve(r.Backend, name)
}

func (r *Repository) Close() error {
	if r.odb == nil {
		return nil
	}
	return r.odb.Close()
}

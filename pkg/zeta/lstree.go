// Copyright ©️ Ant Group. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package zeta

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"sort"
	"strconv"
	"strings"

	"github.com/antgroup/hugescm/modules/plumbing"
	"github.com/antgroup/hugescm/modules/plumbing/filemode"
	"github.com/antgroup/hugescm/modules/zeta/object"
)

type LsTreeOptions struct {
	OnlyTrees bool
	Recurse   bool
	Tree      bool
	NewLine   byte
	Long      bool
	NameOnly  bool
	Abbrev    int
	Revision  string
	Paths     []string
	JSON      bool
}

func sizePadding(e *object.TreeEntry, padding int) string {
	switch e.Type() {
	case object.TreeObject:
		return strings.Repeat(" ", padding-1) + "-"
	case object.FragmentsObject:
		return strings.Repeat(" ", max(0, padding-1-5)) + "L"
	default:
	}
	ss := strconv.FormatInt(e.Size, 10)
	if len(ss) >= padding {
		return ss
	}
	return strings.Repeat(" ", padding-len(ss)) + ss
}

func spacePadding(e *object.TreeEntry, padding int) string {
	if e.Type() == object.FragmentsObject {
		return strings.Repeat(" ", max(0, padding-5))
	}
	return strings.Repeat(" ", padding)
}

func (opts *LsTreeOptions) ShortName(oid plumbing.Hash) string {
	s := oid.String()
	if opts.Abbrev > 0 && opts.Abbrev < len(s) {
		return s[0:opts.Abbrev]
	}
	return s
}

func (opts *LsTreeOptions) ShowTree(w io.Writer, t *object.Tree) {
	if opts.NameOnly {
		if opts.JSON {
			names := make([]string, 0, len(t.Entries))
			for _, e := range t.Entries {
				names = append(names, e.Name)
			}
			_ = json.NewEncoder(w).Encode(names)
			return
		}
		for _, e := range t.Entries {
			fmt.Fprintf(w, "%s%c", e.Name, opts.NewLine)
		}
		return
	}
	if opts.JSON {
		_ = json.NewEncoder(w).Encode(t.Entries)
		return
	}
	if opts.Long {
		padding := t.SizePadding()
		for _, e := range t.Entries {
			fmt.Fprintf(w, "%s %s %s %s %s\n", e.Mode, e.Type(), opts.ShortName(e.Hash), sizePadding(e, padding), e.Name)
		}
		return
	}
	padding := t.SpacePadding()
	for _, e := range t.Entries {
		fmt.Fprintf(w, "%s %s %s %s %s\n", e.Mode, e.Type(), opts.ShortName(e.Hash), spacePadding(e, padding), e.Name)
	}
}

func (opts *LsTreeOptions) Rev() string {
	if len(opts.Revision) == 0 {
		return string(plumbing.HEAD)
	}
	return opts.Revision
}

func (r *Repository) resolveTree0(ctx context.Context, branchOrTag string) (t *object.Tree, err error) {
	var oid plumbing.Hash
	if oid, err = r.Revision(ctx, branchOrTag); err != nil {
		return nil, err
	}
	r.DbgPrint("resolve object '%s'", oid)
	o, err := r.odb.Object(ctx, oid)
	if err != nil {
		return nil, err
	}
	switch a := o.(type) {
	case *object.Tree:
		return a, nil
	case *object.Commit:
		return r.odb.Tree(ctx, a.Tree)
	}
	return nil, errors.New("not a tree object")
}

func (r *Repository) resolveTree(ctx context.Context, revisionPair string) (*object.Tree, error) {
	k, v, ok := strings.Cut(revisionPair, ":")
	if !ok {
		return r.resolveTree0(ctx, k)
	}
	if len(k) == 0 {
		k = string(plumbing.HEAD)
	}
	oid, err := r.Revision(ctx, k)
	if err != nil {
		return nil, err
	}
	return r.readTree(ctx, oid, v)
}

// treeEntry pairs a tree entry with its full path from the ls-tree root,
// the way a recursive listing reports nested entries.
type treeEntry struct {
	Path string `json:"path"`
	*object.TreeEntry
}

type lsTreeEntries struct {
	entries      []*treeEntry
	sizeMax      int64
	hasFragments bool
}

type JsonTreeEntry struct {
	Name string            `json:"name"`
	Size int64             `json:"size"`
	Mode filemode.FileMode `json:"mode"`
	Hash plumbing.Hash     `json:"hash"`
}

func (g *lsTreeEntries) JsonTreeEntries() []*JsonTreeEntry {
	entries := make([]*JsonTreeEntry, 0, len(g.entries))
	for _, e := range g.entries {
		entries = append(entries, &JsonTreeEntry{
			Name: e.Path,
			Size: e.Size,
			Mode: e.Mode,
			Hash: e.Hash,
		})
	}
	return entries
}

func (g *lsTreeEntries) SizePadding() int {
	sizeMax := len(strconv.FormatInt(g.sizeMax, 10))
	if g.hasFragments {
		return max(5, sizeMax)
	}
	return sizeMax
}

func (g *lsTreeEntries) add(parent string, e *object.TreeEntry) {
	g.entries = append(g.entries, &treeEntry{Path: path.Join(parent, e.Name), TreeEntry: e})
	if e.Type() != object.TreeObject {
		g.sizeMax = max(g.sizeMax, e.Size)
	}
	if e.Type() == object.FragmentsObject {
		g.hasFragments = true
	}
}

func (r *Repository) lsTreeRecurse1(ctx context.Context, opts *LsTreeOptions, oid plumbing.Hash, parent string, g *lsTreeEntries) error {
	t, err := r.odb.Tree(ctx, oid)
	if plumbing.IsNoSuchObject(err) {
		return nil
	}
	if err != nil {
		return err
	}
	for _, e := range t.Entries {
		name := path.Join(parent, e.Name)
		switch e.Type() {
		case object.TreeObject:
			if opts.Tree {
				g.add(parent, e)
			}
			if err := r.lsTreeRecurse1(ctx, opts, e.Hash, name, g); err != nil {
				return err
			}
		default:
			if !opts.OnlyTrees {
				g.add(parent, e)
			}
		}
	}
	return nil
}

func (r *Repository) lsTreeRecurse0(ctx context.Context, opts *LsTreeOptions, t *object.Tree, m *Matcher, parent string, g *lsTreeEntries) error {
	for _, e := range t.Entries {
		name := path.Join(parent, e.Name)
		if m.Match(name) {
			switch e.Type() {
			case object.TreeObject:
				if opts.Tree {
					g.add(parent, e)
				}
				if err := r.lsTreeRecurse1(ctx, opts, e.Hash, name, g); err != nil {
					return err
				}
			default:
				if !opts.OnlyTrees {
					g.add(parent, e)
				}
			}
			continue
		}
		if e.Type() != object.TreeObject {
			continue
		}
		tree, err := r.odb.Tree(ctx, e.Hash)
		if plumbing.IsNoSuchObject(err) {
			continue
		}
		if err != nil {
			return err
		}
		if err := r.lsTreeRecurse0(ctx, opts, tree, m, name, g); err != nil {
			return err
		}
	}
	return nil
}

func (r *Repository) LsTreeRecurse(ctx context.Context, opts *LsTreeOptions, t *object.Tree, m *Matcher) error {
	g := &lsTreeEntries{entries: make([]*treeEntry, 0, 100)}
	if err := r.lsTreeRecurse0(ctx, opts, t, m, "", g); err != nil {
		return err
	}
	if opts.NameOnly {
		if opts.JSON {
			names := make([]string, 0, len(g.entries))
			for _, e := range g.entries {
				names = append(names, e.Path)
			}
			return json.NewEncoder(os.Stdout).Encode(names)
		}
		for _, e := range g.entries {
			fmt.Fprintf(os.Stdout, "%s%c", e.Path, opts.NewLine)
		}
		return nil
	}
	if opts.JSON {
		return json.NewEncoder(os.Stdout).Encode(g.JsonTreeEntries())
	}
	if opts.Long {
		padding := g.SizePadding()
		for _, e := range g.entries {
			fmt.Fprintf(os.Stdout, "%s %s %s %s %s\n", e.Mode, e.Type(), opts.ShortName(e.Hash), sizePadding(e.TreeEntry, padding), e.Path)
		}
		return nil
	}
	padding := 0
	if g.hasFragments {
		padding = 5
	}
	for _, e := range g.entries {
		fmt.Fprintf(os.Stdout, "%s %s %s %s %s\n", e.Mode, e.Type(), opts.ShortName(e.Hash), spacePadding(e.TreeEntry, padding), e.Path)
	}
	return nil
}

func (r *Repository) LsTree(ctx context.Context, opts *LsTreeOptions) error {
	rev := opts.Rev()
	t, err := r.resolveTree(ctx, rev)
	if err != nil {
		return err
	}
	m := NewMatcher(opts.Paths)
	if opts.Recurse {
		return r.LsTreeRecurse(ctx, opts, t, m)
	}
	if len(opts.Paths) == 0 {
		opts.ShowTree(os.Stdout, t)
		return nil
	}
	g := make(map[string]*object.TreeEntry)
	for _, p := range opts.Paths {
		if strings.HasSuffix(p, "/") {
			treeName := p[:len(p)-1]
			if tree, err := t.Tree(ctx, treeName); err == nil {
				for _, e := range tree.Entries {
					g[path.Join(treeName, e.Name)] = e
				}
			}
			continue
		}
		if e, err := t.FindEntry(ctx, p); err == nil {
			g[p] = e
		}
	}
	entries := make([]*object.TreeEntry, 0, len(g))
	for k, e := range g {
		entries = append(entries, &object.TreeEntry{Name: k, Size: e.Size, Hash: e.Hash, Mode: e.Mode})
	}
	sort.Sort(object.SubtreeOrder(entries))
	opts.ShowTree(os.Stdout, &object.Tree{Entries: entries})
	return nil
}

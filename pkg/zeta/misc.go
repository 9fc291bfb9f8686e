// Copyright ©️ Ant Group. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package zeta

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/antgroup/hugescm/modules/plumbing"
	"github.com/antgroup/hugescm/modules/wildmatch"
	"github.com/antgroup/hugescm/pkg/tr"
	"github.com/mattn/go-isatty"
)

const escapeChars = "*?[]\\"

// Matcher matches worktree-relative paths against a set of pathspecs: plain
// path prefixes are compared directly, anything containing a glob
// metacharacter is handed to wildmatch.
type Matcher struct {
	prefix     []string
	wildmatchs []*wildmatch.Wildmatch
}

// NewMatcher builds a Matcher from a set of pathspec patterns.
func NewMatcher(patterns []string) *Matcher {
	m := &Matcher{}
	for _, pattern := range patterns {
		if len(pattern) == 0 {
			continue
		}
		if !strings.ContainsAny(pattern, escapeChars) {
			m.prefix = append(m.prefix, strings.TrimSuffix(pattern, "/"))
			continue
		}
		m.wildmatchs = append(m.wildmatchs, wildmatch.NewWildmatch(pattern, wildmatch.SystemCase, wildmatch.Contents))
	}
	return m
}

var caseInsensitive = runtime.GOOS == "windows" || runtime.GOOS == "darwin"

func systemCaseEqual(a, b string) bool {
	if caseInsensitive {
		return strings.EqualFold(a, b)
	}
	return a == b
}

// Match reports whether name satisfies any pattern in m. An empty Matcher
// matches everything.
func (m *Matcher) Match(name string) bool {
	if len(m.wildmatchs) == 0 && len(m.prefix) == 0 {
		return true
	}
	for _, p := range m.prefix {
		prefixLen := len(p)
		if len(name) >= prefixLen && systemCaseEqual(name[0:prefixLen], p) && (len(name) == prefixLen || name[prefixLen] == '/') {
			return true
		}
	}
	for _, w := range m.wildmatchs {
		if w.Match(name) {
			return true
		}
	}
	return false
}

var ErrWorktreeNotEmpty = errors.New("worktree already exists and is not empty")

const (
	ENV_ZETA_AUTHOR_NAME      = "ZETA_AUTHOR_NAME"
	ENV_ZETA_AUTHOR_EMAIL     = "ZETA_AUTHOR_EMAIL"
	ENV_ZETA_AUTHOR_DATE      = "ZETA_AUTHOR_DATE"
	ENV_ZETA_COMMITTER_NAME   = "ZETA_COMMITTER_NAME"
	ENV_ZETA_COMMITTER_EMAIL  = "ZETA_COMMITTER_EMAIL"
	ENV_ZETA_CORE_PAGER       = "ZETA_PAGER"
	ENV_ZETA_CORE_MAX_PARENTS = "ZETA_BLAME_MAX_PARENTS"
)

var (
	is256ColorSupported  bool
	isTrueColorSupported bool
	W                    = tr.W // translate func wrap
)

func IsTerminal(fd uintptr) bool {
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func init() {
	stdout := os.Stdout.Fd()
	if !isatty.IsTerminal(stdout) && !isatty.IsCygwinTerminal(stdout) {
		return
	}
	if _, ok := os.LookupEnv("WT_SESSION"); ok {
		is256ColorSupported = true
		isTrueColorSupported = true
		return
	}
	colorTermEnv := os.Getenv("COLORTERM")
	termEnv := os.Getenv("TERM")
	isTrueColorSupported = strings.Contains(termEnv, "24bit") ||
		strings.Contains(termEnv, "truecolor") ||
		strings.Contains(colorTermEnv, "24bit") ||
		strings.Contains(colorTermEnv, "truecolor")
	is256ColorSupported = isTrueColorSupported || strings.Contains(termEnv, "256") || strings.Contains(colorTermEnv, "256")
}

// ErrNotZetaDir is returned when no .zeta directory can be found above cwd.
type ErrNotZetaDir struct {
	cwd string
}

func (err *ErrNotZetaDir) Error() string {
	return fmt.Sprintf("'%s' %s", err.cwd, W("not zeta repository"))
}

func IsErrNotZetaDir(err error) bool {
	if err == nil {
		return false
	}
	_, ok := err.(*ErrNotZetaDir)
	return ok
}

func checkDestination(repoName, destination string, mustEmpty bool) (string, bool, error) {
	if len(destination) == 0 {
		destination = repoName
	}
	if !filepath.IsAbs(destination) {
		cwd, err := os.Getwd()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Get current workdir error: %v\n", err)
			return "", false, err
		}
		destination = filepath.Join(cwd, destination)
	}
	dirs, err := os.ReadDir(destination)
	if err != nil {
		if os.IsNotExist(err) {
			return destination, false, nil
		}
		fmt.Fprintf(os.Stderr, "readdir %s error: %v\n", destination, err)
		return "", false, err
	}
	if len(dirs) != 0 && mustEmpty {
		die_error("destination path '%s' already exists and is not an empty directory.", filepath.Base(destination))
		return "", false, ErrWorktreeNotEmpty
	}
	return destination, true, nil
}

// isZetaDir reports whether dir looks like a zeta metadata directory: it
// must contain an "objects" subdirectory and a HEAD file.
func isZetaDir(dir string) bool {
	if si, err := os.Stat(filepath.Join(dir, "objects")); err != nil || !si.IsDir() {
		return false
	}
	if _, err := os.Stat(filepath.Join(dir, "HEAD")); err != nil {
		return false
	}
	return true
}

// FindZetaDir walks upward from cwd looking for a ".zeta" metadata
// directory, returning (worktree root, zeta dir, error).
func FindZetaDir(cwd string) (string, string, error) {
	var err error
	if len(cwd) == 0 {
		if cwd, err = os.Getwd(); err != nil {
			return "", "", err
		}
	}
	current, err := filepath.Abs(cwd)
	if err != nil {
		return "", "", err
	}
	for {
		if isZetaDir(current) {
			return filepath.Dir(current), current, nil
		}
		currentZetaDir := filepath.Join(current, ZetaDirName)
		if isZetaDir(currentZetaDir) {
			return current, currentZetaDir, nil
		}
		parent := filepath.Dir(current)
		if current == parent {
			return "", "", &ErrNotZetaDir{cwd: cwd}
		}
		current = parent
	}
}

func (r *Repository) DbgPrint(format string, args ...any) {
	if !r.verbose {
		return
	}
	message := fmt.Sprintf(format, args...)
	var buffer bytes.Buffer
	for _, s := range strings.Split(message, "\n") {
		_, _ = buffer.WriteString("\x1b[33m* ")
		_, _ = buffer.WriteString(s)
		_, _ = buffer.WriteString("\x1b[0m\n")
	}
	_, _ = os.Stderr.Write(buffer.Bytes())
}

func (r *Repository) Debug(format string, args ...any) {
	if r.quiet {
		return
	}
	fmt.Fprintf(os.Stderr, format, args...)
}

func shortHash(h plumbing.Hash) string {
	return h.String()[0:8]
}

func die(format string, a ...any) {
	var b bytes.Buffer
	_, _ = b.WriteString(W("fatal: "))
	fmt.Fprintf(&b, W(format), a...)
	_ = b.WriteByte('\n')
	_, _ = os.Stderr.Write(b.Bytes())
}

func die_error(format string, a ...any) {
	var b bytes.Buffer
	_, _ = b.WriteString(W("error: "))
	fmt.Fprintf(&b, W(format), a...)
	_ = b.WriteByte('\n')
	_, _ = os.Stderr.Write(b.Bytes())
}

func warn(format string, a ...any) {
	var b bytes.Buffer
	_, _ = b.WriteString(W("warning: "))
	fmt.Fprintf(&b, W(format), a...)
	_ = b.WriteByte('\n')
	_, _ = os.Stderr.Write(b.Bytes())
}

type ErrExitCode struct {
	ExitCode int
	Message  string
}

func IsExitCode(err error, i int) bool {
	if err == nil {
		return false
	}
	if e, ok := err.(*ErrExitCode); ok {
		return e.ExitCode == i
	}
	return false
}

func (e *ErrExitCode) Error() string {
	return e.Message
}

// Package output stages generated files in a scratch directory and publishes
// them into place only once a build has succeeded.
package output

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"
)

// ErrPathTraversal is returned for paths that would escape the output root.
var ErrPathTraversal = errors.New("path traversal detected")

// Writer writes files below a staging directory next to its target. Commit
// swaps each staged top-level entry into the target; entries the build did
// not produce are left alone. The previous entries are kept aside until the
// commit is finalized so a failed publish can be rolled back.
type Writer struct {
	root     string
	staging  string
	swapped  []swapped
	prepared bool
	done     bool
}

// swapped records one published entry and where its predecessor was moved.
type swapped struct {
	target string
	backup string // empty when nothing was there before
}

// NewWriter creates a writer publishing into root.
func NewWriter(root string) (*Writer, error) {
	root = filepath.Clean(root)
	if ContainsPathTraversal(root) {
		return nil, fmt.Errorf("%w: %s", ErrPathTraversal, root)
	}

	parent := filepath.Dir(root)
	if err := os.MkdirAll(parent, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output parent: %w", err)
	}

	staging := filepath.Join(parent, fmt.Sprintf(".%s.staging-%s", filepath.Base(root), uuid.NewString()))
	if err := os.MkdirAll(staging, 0755); err != nil {
		return nil, fmt.Errorf("failed to create staging directory: %w", err)
	}

	return &Writer{root: root, staging: staging}, nil
}

// Root returns the directory files are published into.
func (w *Writer) Root() string {
	return w.root
}

// StagingDir returns the scratch directory.
func (w *Writer) StagingDir() string {
	return w.staging
}

func (w *Writer) path(rel string) (string, error) {
	if w.done {
		return "", fmt.Errorf("writer for %s already finished", w.root)
	}
	if filepath.IsAbs(rel) || ContainsPathTraversal(rel) {
		return "", fmt.Errorf("%w: %s", ErrPathTraversal, rel)
	}
	return filepath.Join(w.staging, filepath.FromSlash(rel)), nil
}

// WriteFile stages data at the slash-separated path rel.
func (w *Writer) WriteFile(rel string, data []byte) error {
	p, err := w.path(rel)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", rel, err)
	}
	if err := os.WriteFile(p, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", rel, err)
	}
	return nil
}

// WriteJSON stages v as compact JSON at rel.
func (w *Writer) WriteJSON(rel string, v any) error {
	data, err := MarshalJSON(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", rel, err)
	}
	return w.WriteFile(rel, data)
}

// MkdirAll stages an empty directory at rel.
func (w *Writer) MkdirAll(rel string) error {
	p, err := w.path(rel)
	if err != nil {
		return err
	}
	return os.MkdirAll(p, 0755)
}

// Commit publishes every staged top-level entry, replacing what was there.
// On failure the target is restored to its previous state.
func (w *Writer) Commit() error {
	return CommitAll(w)
}

// CommitAll publishes several writers as one unit. Every writer is prepared
// first; if any of them fails, all of them are rolled back and the previous
// output of every target is restored.
func CommitAll(writers ...*Writer) error {
	for i, w := range writers {
		if err := w.prepare(); err != nil {
			for j := i; j >= 0; j-- {
				if rerr := writers[j].rollback(); rerr != nil {
					err = errors.Join(err, rerr)
				}
			}
			return err
		}
	}

	var errs []error
	for _, w := range writers {
		if err := w.finalize(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// prepare moves the current entries aside and the staged ones into place.
func (w *Writer) prepare() error {
	if w.done || w.prepared {
		return fmt.Errorf("writer for %s already finished", w.root)
	}
	w.prepared = true

	entries, err := os.ReadDir(w.staging)
	if err != nil {
		return fmt.Errorf("failed to read staging directory: %w", err)
	}
	if err := os.MkdirAll(w.root, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	names := make([]string, len(entries))
	for i, e := range entries {
		names[i] = e.Name()
	}
	sort.Strings(names)

	for _, name := range names {
		if err := w.swap(name); err != nil {
			return err
		}
	}
	return nil
}

func (w *Writer) swap(name string) error {
	staged := filepath.Join(w.staging, name)
	target := filepath.Join(w.root, name)
	backup := filepath.Join(w.staging, ".previous-"+name)

	if err := os.Rename(target, backup); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to move aside %s: %w", target, err)
		}
		backup = ""
	}

	if err := os.Rename(staged, target); err != nil {
		if backup != "" {
			_ = os.Rename(backup, target)
		}
		return fmt.Errorf("failed to publish %s: %w", target, err)
	}

	w.swapped = append(w.swapped, swapped{target: target, backup: backup})
	return nil
}

// rollback undoes every swap of a prepared writer, newest first.
func (w *Writer) rollback() error {
	var errs []error
	for i := len(w.swapped) - 1; i >= 0; i-- {
		s := w.swapped[i]
		if err := os.RemoveAll(s.target); err != nil {
			errs = append(errs, fmt.Errorf("failed to remove %s: %w", s.target, err))
			continue
		}
		if s.backup == "" {
			continue
		}
		if err := os.Rename(s.backup, s.target); err != nil {
			errs = append(errs, fmt.Errorf("failed to restore %s: %w", s.target, err))
		}
	}
	w.swapped = nil
	return errors.Join(errs...)
}

// finalize drops the previous entries along with the staging directory.
func (w *Writer) finalize() error {
	w.done = true
	w.swapped = nil
	return os.RemoveAll(w.staging)
}

// Abort discards everything staged, restoring the previous output if the
// writer was prepared but not finalized. It is safe to call after Commit.
func (w *Writer) Abort() error {
	if w.done {
		return nil
	}
	w.done = true
	err := w.rollback()
	return errors.Join(err, os.RemoveAll(w.staging))
}

// MarshalJSON encodes v compactly without HTML escaping.
func MarshalJSON(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// ContainsPathTraversal reports whether path has a ".." component.
func ContainsPathTraversal(path string) bool {
	for _, part := range strings.FieldsFunc(path, func(r rune) bool { return r == '/' || r == '\\' }) {
		if part == ".." {
			return true
		}
	}
	return false
}

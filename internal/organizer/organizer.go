// Package organizer relocates classified downloads into the destination tree.
package organizer

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabrielmr/notaflow/internal/common"
	"github.com/gabrielmr/notaflow/internal/model"
)

// GeneralBucket is the fallback folder for files no rule claimed and for
// files whose text could not be read.
const GeneralBucket = "arquivos gerais"

// DatedRoot appends the run date to a destination base so every run keeps
// its own tree, e.g. "Notas_Organizadas_24-10-2025".
func DatedRoot(base string, now time.Time) string {
	return fmt.Sprintf("%s_%s", base, now.Format("02-01-2006"))
}

// Organizer moves staged files under a destination root. The root is mutated
// only through create-directory-if-absent plus move; nothing is ever deleted
// before its destination write has succeeded.
type Organizer struct {
	root string
}

// New creates an organizer rooted at root.
func New(root string) *Organizer {
	return &Organizer{root: root}
}

// Root returns the destination root.
func (o *Organizer) Root() string {
	return o.root
}

// Relocate moves a classified file to root/segments..., renaming it to carry
// the matched label: "1234.pdf" classified as MKT-REG_1 becomes
// "1234_MKT-REG_1.pdf". An unmatched result falls through to the general
// bucket with the name untouched.
func (o *Organizer) Relocate(path string, result model.ClassificationResult) (string, error) {
	if !result.Matched() {
		return o.RelocateUnclassified(path)
	}

	destDir := filepath.Join(append([]string{o.root}, result.Segments...)...)
	if err := os.MkdirAll(destDir, 0o750); err != nil {
		return "", fmt.Errorf("%w: creating %s: %v", common.ErrRelocationFailed, destDir, err)
	}

	base := filepath.Base(path)
	ext := filepath.Ext(base)
	name := strings.TrimSuffix(base, ext)
	dest := filepath.Join(destDir, fmt.Sprintf("%s_%s%s", name, result.Label(), ext))

	if err := o.move(path, dest); err != nil {
		return "", err
	}
	return dest, nil
}

// RelocateUnclassified moves a file into the general bucket unchanged.
func (o *Organizer) RelocateUnclassified(path string) (string, error) {
	destDir := filepath.Join(o.root, GeneralBucket)
	if err := os.MkdirAll(destDir, 0o750); err != nil {
		return "", fmt.Errorf("%w: creating %s: %v", common.ErrRelocationFailed, destDir, err)
	}

	dest := filepath.Join(destDir, filepath.Base(path))
	if err := o.move(path, dest); err != nil {
		return "", err
	}
	return dest, nil
}

// move renames src to dest, refusing to overwrite. Staging and destination
// may sit on different filesystems, so a failed rename falls back to
// copy-then-remove; the source only goes away after the copy has synced.
func (o *Organizer) move(src, dest string) error {
	if _, err := os.Stat(dest); err == nil {
		return fmt.Errorf("%w: destination %s already exists", common.ErrRelocationFailed, dest)
	} else if !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%w: checking %s: %v", common.ErrRelocationFailed, dest, err)
	}

	if err := os.Rename(src, dest); err == nil {
		return nil
	}

	if err := copyFile(src, dest); err != nil {
		return fmt.Errorf("%w: copying %s to %s: %v", common.ErrRelocationFailed, src, dest, err)
	}
	if err := os.Remove(src); err != nil {
		return fmt.Errorf("%w: removing staged copy %s: %v", common.ErrRelocationFailed, src, err)
	}
	return nil
}

func copyFile(src, dest string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() { _ = in.Close() }()

	out, err := os.OpenFile(dest, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o640)
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		_ = os.Remove(dest)
		return err
	}
	if err := out.Sync(); err != nil {
		_ = out.Close()
		_ = os.Remove(dest)
		return err
	}
	return out.Close()
}

package scribe

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/kbukum/scribe/util"
)

// Workspace is the directory uploads are staged in while a provider reads
// them. Staged names are random, so concurrent requests never collide and
// client file names never reach the file system.
type Workspace struct {
	dir string
}

// StagedFile is one upload on disk.
type StagedFile struct {
	// Name is "<uuid><ext>", also the stem of the audit key.
	Name string
	Path string
	Size int64
}

// NewWorkspace creates dir if needed.
func NewWorkspace(dir string) (*Workspace, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("workspace %s: %w", dir, err)
	}
	return &Workspace{dir: dir}, nil
}

func (w *Workspace) Dir() string { return w.dir }

// Stage copies body into a new file named after fileName's extension. A
// partial file is removed when the copy fails.
func (w *Workspace) Stage(body io.Reader, fileName string) (*StagedFile, error) {
	name := uuid.NewString() + util.SafeExt(fileName)
	path := filepath.Join(w.dir, name)

	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, fmt.Errorf("stage upload: %w", err)
	}
	n, copyErr := io.Copy(f, body)
	closeErr := f.Close()
	if err := errors.Join(copyErr, closeErr); err != nil {
		_ = os.Remove(path)
		return nil, fmt.Errorf("stage upload: %w", err)
	}
	return &StagedFile{Name: name, Path: path, Size: n}, nil
}

// Remove deletes a staged file. A file that is already gone is not an error.
func (w *Workspace) Remove(f *StagedFile) error {
	if err := os.Remove(f.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

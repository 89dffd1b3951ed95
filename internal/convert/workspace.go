package convert

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// Workspace is a temporary on-disk directory owned by a single
// in-flight conversion. It is never shared or reused across requests.
type Workspace struct {
	Dir string
}

// NewWorkspace creates a fresh workspace directory.
func NewWorkspace() (*Workspace, error) {
	dir := filepath.Join(os.TempDir(), "mediamorph-"+uuid.NewString())
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create workspace: %w", err)
	}
	return &Workspace{Dir: dir}, nil
}

// Path returns the path of a file inside the workspace.
func (w *Workspace) Path(name string) string {
	return filepath.Join(w.Dir, name)
}

// WriteFile writes a file into the workspace.
func (w *Workspace) WriteFile(name string, data []byte) (string, error) {
	path := w.Path(name)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return "", fmt.Errorf("write %s: %w", name, err)
	}
	return path, nil
}

// Close removes the workspace. External tools may have left extra
// files behind, so entries are removed individually before the
// directory itself.
func (w *Workspace) Close() error {
	entries, err := os.ReadDir(w.Dir)
	if err == nil {
		for _, e := range entries {
			_ = os.RemoveAll(filepath.Join(w.Dir, e.Name()))
		}
	}
	return os.Remove(w.Dir)
}

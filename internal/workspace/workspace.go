package workspace

import (
	"fmt"
	"os"
	"path/filepath"

	"go-field-delineator/internal/logger"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Workspace is the ephemeral directory tree backing one request: raster
// input, engine scratch files and the output vector dataset. It is created
// at request start and removed unconditionally at request end.
type Workspace struct {
	ID      string
	Root    string
	Input   string
	Scratch string
	Output  string
}

// Manager allocates and tears down job workspaces under a fixed root.
type Manager struct {
	root string
}

// NewManager creates a workspace manager. The root must be writable.
func NewManager(root string) *Manager {
	if root == "" {
		root = os.TempDir()
	}
	return &Manager{root: root}
}

// Acquire creates a uniquely named workspace with input, scratch and output
// subdirectories. Callers must pair every Acquire with a deferred Release.
func (m *Manager) Acquire() (*Workspace, error) {
	id := uuid.NewString()
	root := filepath.Join(m.root, "dajob-"+id)

	ws := &Workspace{
		ID:      id,
		Root:    root,
		Input:   filepath.Join(root, "input"),
		Scratch: filepath.Join(root, "scratch"),
		Output:  filepath.Join(root, "output"),
	}

	for _, dir := range []string{ws.Input, ws.Scratch, ws.Output} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			// Partial trees from a failed acquire are cleaned up too.
			m.Release(ws)
			return nil, fmt.Errorf("create workspace dir %s: %w", dir, err)
		}
	}

	logger.WithFields(logrus.Fields{
		"job_id": ws.ID,
		"root":   ws.Root,
	}).Debug("Workspace acquired")

	return ws, nil
}

// Release removes the workspace tree. Removal failures are logged, never
// returned: teardown must not mask the request's real outcome, and a tree
// that is already gone or was altered by another process is not an error.
func (m *Manager) Release(ws *Workspace) {
	if ws == nil {
		return
	}
	if err := os.RemoveAll(ws.Root); err != nil {
		logger.WithError(err).WithFields(logrus.Fields{
			"job_id": ws.ID,
			"root":   ws.Root,
		}).Warn("Failed to remove workspace")
		return
	}
	logger.WithField("job_id", ws.ID).Debug("Workspace released")
}

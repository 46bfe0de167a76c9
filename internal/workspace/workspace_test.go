package workspace

import (
	"os"
	"testing"
)

func TestAcquire_CreatesDirectoryTree(t *testing.T) {
	m := NewManager(t.TempDir())

	ws, err := m.Acquire()
	if err != nil {
		t.Fatalf("acquire failed: %v", err)
	}
	defer m.Release(ws)

	for _, dir := range []string{ws.Input, ws.Scratch, ws.Output} {
		info, err := os.Stat(dir)
		if err != nil {
			t.Errorf("expected directory %s: %v", dir, err)
			continue
		}
		if !info.IsDir() {
			t.Errorf("%s is not a directory", dir)
		}
	}
}

func TestAcquire_UniqueRoots(t *testing.T) {
	m := NewManager(t.TempDir())

	first, err := m.Acquire()
	if err != nil {
		t.Fatalf("acquire failed: %v", err)
	}
	defer m.Release(first)

	second, err := m.Acquire()
	if err != nil {
		t.Fatalf("acquire failed: %v", err)
	}
	defer m.Release(second)

	if first.Root == second.Root {
		t.Errorf("expected unique workspace roots, both were %s", first.Root)
	}
}

func TestRelease_RemovesTree(t *testing.T) {
	m := NewManager(t.TempDir())

	ws, err := m.Acquire()
	if err != nil {
		t.Fatalf("acquire failed: %v", err)
	}
	if err := os.WriteFile(ws.Input+"/input.png", []byte("pixels"), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}

	m.Release(ws)

	if _, err := os.Stat(ws.Root); !os.IsNotExist(err) {
		t.Errorf("expected workspace root to be removed, stat err: %v", err)
	}
}

func TestRelease_ToleratesMissingTree(t *testing.T) {
	m := NewManager(t.TempDir())

	ws, err := m.Acquire()
	if err != nil {
		t.Fatalf("acquire failed: %v", err)
	}

	// Alien removal before release must not panic or propagate.
	if err := os.RemoveAll(ws.Root); err != nil {
		t.Fatalf("remove tree: %v", err)
	}
	m.Release(ws)
	m.Release(ws)
	m.Release(nil)
}

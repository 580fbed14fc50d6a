// Package queuelist implements the local queue-list manager: discovers
// queues by scanning a data directory at init, and creates, renames, and
// deletes their backing files.
package queuelist

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/cuemby/flowrunner/internal/queue"
	"github.com/cuemby/flowrunner/internal/storage"
	"github.com/cuemby/flowrunner/internal/supervisor"
	"github.com/cuemby/flowrunner/pkg/ferr"
	"github.com/cuemby/flowrunner/pkg/flowlog"
)

// storeExt is the extension of a queue's backing-store file.
const storeExt = ".db"

// Manager is the local queue-list: a name→queue map backed by one file
// per queue in dataDir.
type Manager struct {
	dataDir string
	supCfg  supervisor.Config

	mu     sync.Mutex
	queues map[string]*queue.Engine
}

// Open scans dataDir for existing "*.db" files, opening and registering
// each as a queue named after its filename stem. Non-regular entries
// and entries with the wrong extension are skipped.
func Open(dataDir string, supCfg supervisor.Config) (*Manager, error) {
	if dataDir == "" {
		return nil, fmt.Errorf("%w: empty data directory", ferr.ErrInvalidArgument)
	}
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("%w: create data directory: %v", ferr.ErrOSError, err)
	}

	m := &Manager{
		dataDir: dataDir,
		supCfg:  supCfg,
		queues:  make(map[string]*queue.Engine),
	}

	entries, err := os.ReadDir(dataDir)
	if err != nil {
		return nil, fmt.Errorf("%w: scan data directory: %v", ferr.ErrOSError, err)
	}

	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		if filepath.Ext(entry.Name()) != storeExt {
			continue
		}
		name := strings.TrimSuffix(entry.Name(), storeExt)

		store, err := storage.Open(m.path(name))
		if err != nil {
			// Warn and skip: a corrupt or unreadable queue file must
			// not prevent the rest of the queue-list from loading.
			flowlog.Logger.Warn().Err(err).Str("file", entry.Name()).Msg("queuelist: skipping unreadable queue file")
			continue
		}
		eng, err := queue.Open(name, store, supCfg)
		if err != nil {
			store.Close()
			continue
		}
		m.queues[name] = eng
	}

	return m, nil
}

func (m *Manager) path(name string) string {
	return filepath.Join(m.dataDir, name+storeExt)
}

// validateName rejects empty names and path separators; uniqueness is
// enforced by the caller against the live queue map.
func validateName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: empty queue name", ferr.ErrInvalidArgument)
	}
	if strings.ContainsAny(name, `/\`) {
		return fmt.Errorf("%w: queue name must not contain path separators", ferr.ErrInvalidArgument)
	}
	return nil
}

// Create creates a fresh backing store and registers a new queue named
// name. Fails with already-exists if the name is taken.
func (m *Manager) Create(name string) error {
	if err := validateName(name); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.queues[name]; exists {
		return ferr.ErrAlreadyExists
	}

	store, err := storage.Open(m.path(name))
	if err != nil {
		return err
	}
	eng, err := queue.Open(name, store, m.supCfg)
	if err != nil {
		store.Close()
		return err
	}

	m.queues[name] = eng
	return nil
}

// Delete removes queue name from the map and unlinks its backing file.
func (m *Manager) Delete(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	eng, exists := m.queues[name]
	if !exists {
		return ferr.ErrNotFound
	}

	eng.Close()
	delete(m.queues, name)

	if err := os.Remove(m.path(name)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("%w: unlink backing file: %v", ferr.ErrOSError, err)
	}
	return nil
}

// Rename renames queue oldName to newName: reopens its backing store
// under the new path and swaps the map entry atomically. Fails if
// newName already exists.
func (m *Manager) Rename(oldName, newName string) error {
	if err := validateName(newName); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.queues[newName]; exists {
		return ferr.ErrAlreadyExists
	}
	eng, exists := m.queues[oldName]
	if !exists {
		return ferr.ErrNotFound
	}

	eng.Close()
	if err := os.Rename(m.path(oldName), m.path(newName)); err != nil {
		// Reopen under the old name so the manager's state stays
		// consistent with what is actually on disk.
		reopened, reopenErr := m.reopen(oldName)
		if reopenErr == nil {
			m.queues[oldName] = reopened
		}
		return fmt.Errorf("%w: rename backing file: %v", ferr.ErrOSError, err)
	}

	reopened, err := m.reopen(newName)
	if err != nil {
		return err
	}
	delete(m.queues, oldName)
	m.queues[newName] = reopened
	return nil
}

func (m *Manager) reopen(name string) (*queue.Engine, error) {
	store, err := storage.Open(m.path(name))
	if err != nil {
		return nil, err
	}
	eng, err := queue.Open(name, store, m.supCfg)
	if err != nil {
		store.Close()
		return nil, err
	}
	return eng, nil
}

// Get returns a reference to queue name. Its lifetime is bounded by a
// matching Return; on the local backend Return is a no-op since the
// manager retains ownership.
func (m *Manager) Get(name string) (*queue.Engine, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	eng, exists := m.queues[name]
	if !exists {
		return nil, ferr.ErrNotFound
	}
	return eng, nil
}

// Return releases a reference obtained from Get. A no-op on the local
// backend.
func (m *Manager) Return(string) {}

// List returns every registered queue name, sorted for determinism.
func (m *Manager) List() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	names := make([]string, 0, len(m.queues))
	for name := range m.queues {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Close closes every registered queue's backing store.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, eng := range m.queues {
		eng.Close()
	}
}

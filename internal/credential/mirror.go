// internal/credential/mirror.go
package credential

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"
)

// Production and development runs mirror to separate files so a dev
// session can never clobber the real one.
const (
	mirrorFile    = "credentials.json"
	mirrorFileDev = "credentials.dev.json"
)

// fileMirror is the durable half of the store. It is strictly best-effort:
// the first write failure disables it for the rest of the process life so
// credential writes stay infallible.
type fileMirror struct {
	path     string
	logger   *zap.Logger
	mu       sync.Mutex
	disabled bool
}

func newFileMirror(stateDir string, production bool, logger *zap.Logger) *fileMirror {
	name := mirrorFile
	if !production {
		name = mirrorFileDev
	}
	return &fileMirror{
		path:   filepath.Join(stateDir, name),
		logger: logger,
	}
}

func (m *fileMirror) save(entries map[Key]entry) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.disabled {
		return
	}
	data, err := json.Marshal(entries)
	if err != nil {
		m.disable(err)
		return
	}
	if err := os.MkdirAll(filepath.Dir(m.path), 0o700); err != nil {
		m.disable(err)
		return
	}
	if err := os.WriteFile(m.path, data, 0o600); err != nil {
		m.disable(err)
	}
}

func (m *fileMirror) load() (map[Key]entry, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	data, err := os.ReadFile(m.path)
	if err != nil {
		return nil, false
	}
	var entries map[Key]entry
	if err := json.Unmarshal(data, &entries); err != nil {
		m.logger.Warn("credential mirror corrupt, ignoring", zap.Error(err))
		return nil, false
	}
	return entries, true
}

func (m *fileMirror) remove() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := os.Remove(m.path); err != nil && !os.IsNotExist(err) {
		m.logger.Warn("failed to remove credential mirror", zap.Error(err))
	}
}

func (m *fileMirror) disable(err error) {
	m.disabled = true
	m.logger.Warn("credential mirror disabled, continuing in-memory only", zap.Error(err))
}

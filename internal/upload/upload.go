// Package upload manages the two résumé upload widgets (match and ats).
// A widget's file can arrive from the file picker or from a drop; both
// paths converge on the same selection handler, so everything downstream
// behaves identically. Selecting a file issues a revocable preview
// reference, the server-side analog of a blob URL.
package upload

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"resumelens/internal/errors"
)

// Widget identifiers. Each is an independent instance: selecting in one
// never touches the other.
const (
	WidgetMatch = "match"
	WidgetATS   = "ats"
)

// Selection is a widget's currently selected file.
type Selection struct {
	Filename     string `json:"filename"`
	PreviewToken string `json:"previewToken"`

	path    string
	touched time.Time
}

// Path returns the spooled file's location on disk.
func (s Selection) Path() string { return s.path }

type widgetKey struct {
	session string
	widget  string
}

type previewRef struct {
	path    string
	created time.Time
}

// Manager owns widget selections and preview references for all sessions.
type Manager struct {
	mu       sync.Mutex
	spoolDir string
	selected map[widgetKey]*Selection
	previews map[string]previewRef
	done     chan struct{}
	logger   *errors.Logger
}

// NewManager creates a manager spooling files under dir. An empty dir
// means a fresh temporary directory per process.
func NewManager(dir string, logger *errors.Logger) (*Manager, error) {
	if dir == "" {
		tmp, err := os.MkdirTemp("", "resumelens-spool-")
		if err != nil {
			return nil, errors.NewStorageError("SPOOL_DIR_FAILED",
				"Cannot create spool directory", err)
		}
		dir = tmp
	}
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, errors.NewStorageError("SPOOL_DIR_FAILED",
			"Cannot create spool directory: "+dir, err)
	}
	return &Manager{
		spoolDir: dir,
		selected: make(map[widgetKey]*Selection),
		previews: make(map[string]previewRef),
		done:     make(chan struct{}),
		logger:   logger,
	}, nil
}

// ValidWidget reports whether id names one of the two widget instances.
func ValidWidget(id string) bool {
	return id == WidgetMatch || id == WidgetATS
}

// Select stores the file as the widget's selection, replacing any previous
// one, and issues a fresh preview reference. This is the single converge
// point for picker uploads and drops. No file type or size checks happen
// here.
func (m *Manager) Select(sessionID, widgetID, filename string, content io.Reader) (Selection, error) {
	if !ValidWidget(widgetID) {
		return Selection{}, errors.NewValidationError("UNKNOWN_WIDGET",
			fmt.Sprintf("Unknown upload widget: %s", widgetID), nil)
	}

	spooled, err := os.CreateTemp(m.spoolDir, "resume-*")
	if err != nil {
		return Selection{}, errors.NewStorageError("SPOOL_FAILED",
			"Cannot spool uploaded file", err)
	}
	if _, err := io.Copy(spooled, content); err != nil {
		_ = spooled.Close()
		_ = os.Remove(spooled.Name())
		return Selection{}, errors.NewStorageError("SPOOL_FAILED",
			"Cannot spool uploaded file", err)
	}
	if err := spooled.Close(); err != nil {
		_ = os.Remove(spooled.Name())
		return Selection{}, errors.NewStorageError("SPOOL_FAILED",
			"Cannot spool uploaded file", err)
	}

	token, err := newPreviewToken()
	if err != nil {
		_ = os.Remove(spooled.Name())
		return Selection{}, err
	}

	sel := &Selection{
		Filename:     filename,
		PreviewToken: token,
		path:         spooled.Name(),
		touched:      time.Now(),
	}

	m.mu.Lock()
	key := widgetKey{session: sessionID, widget: widgetID}
	if prev, ok := m.selected[key]; ok {
		m.dropSelectionLocked(prev)
	}
	m.selected[key] = sel
	m.previews[token] = previewRef{path: spooled.Name(), created: time.Now()}
	m.mu.Unlock()

	m.logger.Debug("File selected",
		"widget", widgetID,
		"filename", filename)
	return *sel, nil
}

// Current returns the widget's selection, if any. Reading a selection
// refreshes its idle clock.
func (m *Manager) Current(sessionID, widgetID string) (Selection, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sel, ok := m.selected[widgetKey{session: sessionID, widget: widgetID}]
	if !ok {
		return Selection{}, false
	}
	sel.touched = time.Now()
	return *sel, true
}

// Clear drops the widget's selection and revokes its preview reference.
// Clearing an empty widget succeeds.
func (m *Manager) Clear(sessionID, widgetID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := widgetKey{session: sessionID, widget: widgetID}
	if sel, ok := m.selected[key]; ok {
		m.dropSelectionLocked(sel)
		delete(m.selected, key)
	}
}

// Preview resolves a preview token to the spooled file path. Revoked or
// expired tokens are gone.
func (m *Manager) Preview(token string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ref, ok := m.previews[token]
	if !ok {
		return "", false
	}
	return ref.path, true
}

// dropSelectionLocked revokes a selection's preview and removes its spooled
// file. Caller holds the mutex.
func (m *Manager) dropSelectionLocked(sel *Selection) {
	delete(m.previews, sel.PreviewToken)
	if err := os.Remove(sel.path); err != nil && !os.IsNotExist(err) {
		m.logger.Warn("Failed to remove spooled file",
			"path", sel.path, "error", err)
	}
}

// StartSweeper expires preview references older than previewTTL and evicts
// selections untouched for idleTTL. The browser original never revoked its
// blob URLs and kept widget state per open tab; a server cannot afford
// either, so stale state is reclaimed here. An idleTTL of 0 disables
// selection eviction.
func (m *Manager) StartSweeper(interval, previewTTL, idleTTL time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				m.sweep(previewTTL, idleTTL)
			case <-m.done:
				return
			}
		}
	}()
}

// sweep evicts idle selections, then removes expired previews that no live
// selection still references.
func (m *Manager) sweep(previewTTL, idleTTL time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	evicted := 0
	if idleTTL > 0 {
		for key, sel := range m.selected {
			if now.Sub(sel.touched) > idleTTL {
				m.dropSelectionLocked(sel)
				delete(m.selected, key)
				evicted++
			}
		}
	}

	live := make(map[string]bool, len(m.selected))
	for _, sel := range m.selected {
		live[sel.PreviewToken] = true
	}

	removed := 0
	for token, ref := range m.previews {
		if live[token] {
			continue
		}
		if now.Sub(ref.created) > previewTTL {
			delete(m.previews, token)
			if err := os.Remove(ref.path); err != nil && !os.IsNotExist(err) {
				m.logger.Warn("Failed to remove expired preview file",
					"path", ref.path, "error", err)
			}
			removed++
		}
	}

	if evicted > 0 || removed > 0 {
		m.logger.Debug("Sweep completed", "selections", evicted, "previews", removed)
	}
}

// Close stops the sweeper and removes all spooled files.
func (m *Manager) Close() {
	close(m.done)

	m.mu.Lock()
	defer m.mu.Unlock()
	for _, sel := range m.selected {
		m.dropSelectionLocked(sel)
	}
	m.selected = make(map[widgetKey]*Selection)
	for token, ref := range m.previews {
		delete(m.previews, token)
		_ = os.Remove(ref.path)
	}
}

// SpoolDir returns the spool directory.
func (m *Manager) SpoolDir() string { return m.spoolDir }

func newPreviewToken() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", errors.NewInternalError("TOKEN_FAILED",
			"Cannot generate preview token", err)
	}
	return hex.EncodeToString(b), nil
}

// CleanFilename strips any path components a client may have sent along
// with the filename.
func CleanFilename(name string) string {
	return filepath.Base(filepath.Clean("/" + name))
}

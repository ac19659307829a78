package checkpoint

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"locimages/pkg/logger"
)

// Checkpoint represents the resumable state of one crawl
type Checkpoint struct {
	// Query is the seed URL the crawl was started with
	Query string `json:"query"`
	// NextURL is the page URL the crawl should resume from
	NextURL string `json:"next_url"`
	// EffectivePageSize is the page size after any splits. A server-side
	// limit, once hit, is assumed to still apply on resume.
	EffectivePageSize int `json:"effective_page_size"`
	// EmittedIDs are the result IDs already written to the manifest
	EmittedIDs map[string]bool `json:"emitted_ids"`
	// Completed marks a crawl that reached exhaustion
	Completed    bool      `json:"completed"`
	TotalEmitted int       `json:"total_emitted"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	Version      int       `json:"version"`
}

// Manager handles checkpoint operations for one query
type Manager struct {
	checkpointPath string
	logger         logger.Logger
}

// NewManager creates a checkpoint manager keyed by the seed URL
func NewManager(seedURL string) (*Manager, error) {
	dataDir, err := getDataDirectory()
	if err != nil {
		return nil, fmt.Errorf("failed to get data directory: %w", err)
	}

	checkpointsDir := filepath.Join(dataDir, "checkpoints")
	if err := os.MkdirAll(checkpointsDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create checkpoints directory: %w", err)
	}

	// The seed URL contains characters that make a bad filename; key the
	// file by its digest instead
	digest := sha256.Sum256([]byte(seedURL))
	name := hex.EncodeToString(digest[:8])
	checkpointPath := filepath.Join(checkpointsDir, fmt.Sprintf("%s.checkpoint.json", name))

	return &Manager{
		checkpointPath: checkpointPath,
		logger:         logger.GetLogger(),
	}, nil
}

// Create creates a new checkpoint for a fresh crawl
func (m *Manager) Create(seedURL, startURL string, pageSize int) (*Checkpoint, error) {
	cp := &Checkpoint{
		Query:             seedURL,
		NextURL:           startURL,
		EffectivePageSize: pageSize,
		EmittedIDs:        make(map[string]bool),
		CreatedAt:         time.Now(),
		UpdatedAt:         time.Now(),
		Version:           1,
	}

	if err := m.Save(cp); err != nil {
		return nil, fmt.Errorf("failed to save initial checkpoint: %w", err)
	}

	m.logger.InfoWithFields("checkpoint created", map[string]interface{}{
		"query": seedURL,
		"path":  m.checkpointPath,
	})

	return cp, nil
}

// Load loads an existing checkpoint, nil if none exists
func (m *Manager) Load() (*Checkpoint, error) {
	file, err := os.Open(m.checkpointPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to open checkpoint file: %w", err)
	}
	defer file.Close()

	var cp Checkpoint
	if err := json.NewDecoder(file).Decode(&cp); err != nil {
		return nil, fmt.Errorf("failed to decode checkpoint: %w", err)
	}
	if cp.EmittedIDs == nil {
		cp.EmittedIDs = make(map[string]bool)
	}

	m.logger.InfoWithFields("checkpoint loaded", map[string]interface{}{
		"query":         cp.Query,
		"total_emitted": cp.TotalEmitted,
		"next_url":      cp.NextURL,
		"updated_at":    cp.UpdatedAt,
	})

	return &cp, nil
}

// Save saves the checkpoint to disk atomically
func (m *Manager) Save(cp *Checkpoint) error {
	cp.UpdatedAt = time.Now()

	tempPath := m.checkpointPath + ".tmp"
	file, err := os.Create(tempPath)
	if err != nil {
		return fmt.Errorf("failed to create temporary checkpoint file: %w", err)
	}

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(cp); err != nil {
		file.Close()
		os.Remove(tempPath)
		return fmt.Errorf("failed to encode checkpoint: %w", err)
	}

	if err := file.Sync(); err != nil {
		file.Close()
		os.Remove(tempPath)
		return fmt.Errorf("failed to sync checkpoint file: %w", err)
	}

	if err := file.Close(); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to close checkpoint file: %w", err)
	}

	// Atomically replace the old checkpoint file
	if err := os.Rename(tempPath, m.checkpointPath); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to replace checkpoint file: %w", err)
	}

	return nil
}

// Delete removes the checkpoint file
func (m *Manager) Delete() error {
	if err := os.Remove(m.checkpointPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete checkpoint: %w", err)
	}
	return nil
}

// Exists checks if a checkpoint file exists
func (m *Manager) Exists() bool {
	_, err := os.Stat(m.checkpointPath)
	return err == nil
}

// RecordPage updates the checkpoint after one handled page: the cursor to
// resume from, the current page size, and the IDs the page added to the
// manifest
func (m *Manager) RecordPage(cp *Checkpoint, nextURL string, pageSize int, emittedIDs []string) error {
	cp.NextURL = nextURL
	if pageSize > 0 {
		cp.EffectivePageSize = pageSize
	}
	for _, id := range emittedIDs {
		if !cp.EmittedIDs[id] {
			cp.EmittedIDs[id] = true
			cp.TotalEmitted++
		}
	}
	return m.Save(cp)
}

// MarkCompleted records that the crawl reached exhaustion
func (m *Manager) MarkCompleted(cp *Checkpoint) error {
	cp.Completed = true
	return m.Save(cp)
}

// IsEmitted checks if a result ID is already in the manifest
func (cp *Checkpoint) IsEmitted(id string) bool {
	return cp.EmittedIDs[id]
}

// getDataDirectory returns the platform data directory for checkpoints
func getDataDirectory() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to determine home directory: %w", err)
	}

	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(home, "Library", "Application Support", "locimages"), nil
	case "windows":
		if appData := os.Getenv("APPDATA"); appData != "" {
			return filepath.Join(appData, "locimages"), nil
		}
		return filepath.Join(home, "locimages"), nil
	default:
		if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
			return filepath.Join(xdg, "locimages"), nil
		}
		return filepath.Join(home, ".local", "share", "locimages"), nil
	}
}

// internal/directory/directory.go

// Package directory is a JSON-file-backed registry of agent endpoints.
package directory

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/user/inkwell/internal/types"
)

// Directory resolves agent IDs to endpoint configuration. Lookups are pure
// reads; retry and error handling belong to the invocation client.
type Directory struct {
	path string
	mu   sync.RWMutex
}

// New creates a Directory backed by the given file path.
func New(path string) *Directory {
	return &Directory{path: path}
}

// Path returns the file path used by this directory.
func (d *Directory) Path() string {
	return d.path
}

// Lookup resolves an agent ID. Returns an error if the agent is unknown.
// Callers must check Active themselves: a disabled agent is still listed.
func (d *Directory) Lookup(id types.AgentID) (*types.AgentConfig, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	agents, err := d.load()
	if err != nil {
		return nil, err
	}
	for _, agent := range agents {
		if agent.ID == id {
			return agent, nil
		}
	}
	return nil, fmt.Errorf("agent not found: %s", id)
}

// List returns all registered agents. Returns an empty slice if the file
// doesn't exist.
func (d *Directory) List() ([]*types.AgentConfig, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	agents, err := d.load()
	if err != nil {
		return nil, err
	}
	if agents == nil {
		return []*types.AgentConfig{}, nil
	}
	return agents, nil
}

// Add registers an agent. Returns an error if the ID is already taken.
func (d *Directory) Add(agent *types.AgentConfig) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	agents, err := d.load()
	if err != nil {
		return err
	}
	for _, existing := range agents {
		if existing.ID == agent.ID {
			return fmt.Errorf("agent already exists: %s", agent.ID)
		}
	}
	agents = append(agents, agent)
	return d.save(agents)
}

// Remove deletes an agent by ID. Returns an error if not found.
func (d *Directory) Remove(id types.AgentID) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	agents, err := d.load()
	if err != nil {
		return err
	}
	for i, agent := range agents {
		if agent.ID == id {
			agents = append(agents[:i], agents[i+1:]...)
			return d.save(agents)
		}
	}
	return fmt.Errorf("agent not found: %s", id)
}

// SetActive toggles the active flag for an agent. Returns an error if not found.
func (d *Directory) SetActive(id types.AgentID, active bool) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	agents, err := d.load()
	if err != nil {
		return err
	}
	for _, agent := range agents {
		if agent.ID == id {
			agent.Active = active
			return d.save(agents)
		}
	}
	return fmt.Errorf("agent not found: %s", id)
}

// load reads the JSON file. Returns nil if the file doesn't exist.
func (d *Directory) load() ([]*types.AgentConfig, error) {
	data, err := os.ReadFile(d.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read agents file: %w", err)
	}
	var agents []*types.AgentConfig
	if err := json.Unmarshal(data, &agents); err != nil {
		return nil, fmt.Errorf("unmarshal agents: %w", err)
	}
	return agents, nil
}

// save writes the agent list to disk using atomic write (temp file + rename).
func (d *Directory) save(agents []*types.AgentConfig) error {
	data, err := json.MarshalIndent(agents, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal agents: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(d.path), 0o755); err != nil {
		return fmt.Errorf("create agents dir: %w", err)
	}
	tmp := d.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write temp agents file: %w", err)
	}
	if err := os.Rename(tmp, d.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("rename temp agents file: %w", err)
	}
	return nil
}

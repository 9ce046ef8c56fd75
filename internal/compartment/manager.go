package compartment

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"

	"github.com/biostage/biostage/internal/descriptor"
	"github.com/biostage/biostage/pkg/types"
)

// Manager tracks live compartments by access identifier. Compartments are
// otherwise independent of one another; each carries its own mutex, so two
// different compartments can be operated on concurrently.
type Manager struct {
	mu           sync.Mutex
	compartments map[string]*Compartment
	dataDir      string
	cfg          types.Config
	desc         *descriptor.Graph
	logger       *zap.Logger
}

// NewManager constructs a Manager rooted at dataDir, applying cfg to every
// compartment it opens and desc (which may be nil) as the shared type-graph
// description.
func NewManager(dataDir string, cfg types.Config, desc *descriptor.Graph, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		compartments: make(map[string]*Compartment),
		dataDir:      dataDir,
		cfg:          cfg,
		desc:         desc,
		logger:       logger,
	}
}

// Stage routes to the compartment named by id, opening it on first use.
func (m *Manager) Stage(ctx context.Context, id string, payload any) (types.StageResult, error) {
	c, err := m.getOrOpen(ctx, id)
	if err != nil {
		return types.StageResult{Success: false, Message: err.Error()}, err
	}
	return c.Stage(ctx, payload)
}

// Query routes to an existing compartment named by id.
func (m *Manager) Query(ctx context.Context, id, sql string) (types.QueryResult, error) {
	c, err := m.require(ctx, id)
	if err != nil {
		return types.QueryResult{Success: false, Error: err.Error()}, err
	}
	return c.Query(ctx, sql)
}

// Introspect routes to an existing compartment named by id.
func (m *Manager) Introspect(ctx context.Context, id string) (types.IntrospectResult, error) {
	c, err := m.require(ctx, id)
	if err != nil {
		return types.IntrospectResult{}, err
	}
	return c.Introspect(ctx)
}

// TableColumns routes to an existing compartment named by id.
func (m *Manager) TableColumns(ctx context.Context, id, table string) (types.TableColumnsResult, error) {
	c, err := m.require(ctx, id)
	if err != nil {
		return types.TableColumnsResult{}, err
	}
	return c.TableColumns(ctx, table)
}

// ChunkingStats routes to an existing compartment named by id.
func (m *Manager) ChunkingStats(ctx context.Context, id string) (types.ChunkingStatsResult, error) {
	c, err := m.require(ctx, id)
	if err != nil {
		return types.ChunkingStatsResult{}, err
	}
	return c.ChunkingStats(ctx)
}

// Delete removes the compartment named by id, closing its database handle
// and deleting its SQLite file from disk, whether it was opened earlier in
// this process or by a prior one. Returns types.ErrCompartmentNotFound if no
// compartment with that identifier exists either way.
func (m *Manager) Delete(id string) error {
	m.mu.Lock()
	c, ok := m.compartments[id]
	if ok {
		delete(m.compartments, id)
	}
	m.mu.Unlock()

	if ok {
		return c.Delete()
	}

	path := filepath.Join(m.dataDir, dbFileName(id))
	if _, err := os.Stat(path); err != nil {
		return types.ErrCompartmentNotFound
	}
	if err := os.Remove(path); err != nil {
		return fmt.Errorf("removing compartment file: %w", err)
	}
	return nil
}

// CloseAll closes every open compartment's database handle without
// removing any compartment's data from disk. Intended for CLI shutdown,
// where a compartment's data should outlive the process.
func (m *Manager) CloseAll() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var firstErr error
	for id, c := range m.compartments {
		if err := c.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("closing compartment %s: %w", id, err)
		}
	}
	return firstErr
}

// getOrOpen returns the compartment named by id, opening a fresh one (and
// registering it) on first use.
func (m *Manager) getOrOpen(ctx context.Context, id string) (*Compartment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if c, ok := m.compartments[id]; ok {
		return c, nil
	}

	c, err := open(ctx, id, m.dataDir, m.cfg, m.desc, m.logger.With(zap.String("compartment", id)))
	if err != nil {
		return nil, fmt.Errorf("opening compartment %s: %w", id, err)
	}
	m.compartments[id] = c
	return c, nil
}

// require returns the compartment named by id: the already-open one when
// this Manager staged it earlier in the process, or one reattached from its
// on-disk SQLite file when a prior process staged it. Returns
// types.ErrCompartmentNotFound when neither exists.
func (m *Manager) require(ctx context.Context, id string) (*Compartment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if c, ok := m.compartments[id]; ok {
		return c, nil
	}

	if _, err := os.Stat(filepath.Join(m.dataDir, dbFileName(id))); err != nil {
		return nil, types.ErrCompartmentNotFound
	}

	c, err := open(ctx, id, m.dataDir, m.cfg, m.desc, m.logger.With(zap.String("compartment", id)))
	if err != nil {
		return nil, fmt.Errorf("reattaching compartment %s: %w", id, err)
	}
	m.compartments[id] = c
	return c, nil
}

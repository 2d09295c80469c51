// Package nav owns per-session navigation state: the menu tree, its compiled
// routes and the path index, plus the session registry that serves them.
package nav

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"consolenav/internal/gateway/source"
	"consolenav/internal/httpclient"
	"consolenav/internal/menu"
	"consolenav/internal/route"
	"consolenav/internal/shape"
)

// ErrStaleRefresh is returned by a refresh that finished after a newer refresh
// or a clear had started. Its result is discarded.
var ErrStaleRefresh = errors.New("refresh superseded by newer state")

type State int32

const (
	StateIdle State = iota
	StateLoading
	StateReady
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	case StateFailed:
		return "failed"
	default:
		return "idle"
	}
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Snapshot is one published navigation state. Published snapshots are never
// mutated.
type Snapshot struct {
	State      State              `json:"state"`
	Generation uint64             `json:"generation"`
	Tree       []*menu.Node       `json:"tree"`
	Routes     []route.Definition `json:"routes"`
	Warning    string             `json:"warning,omitempty"`
	Error      string             `json:"error,omitempty"`
	UpdatedAt  time.Time          `json:"updatedAt"`
}

func emptySnapshot(state State, gen uint64) *Snapshot {
	return &Snapshot{
		State:      state,
		Generation: gen,
		Tree:       []*menu.Node{},
		Routes:     []route.Definition{},
		UpdatedAt:  time.Now(),
	}
}

type StoreOptions struct {
	// Selector is an optional JSONPath applied to the raw payload before
	// extraction.
	Selector      string
	PathIndexSize int
	Logger        *zap.Logger
}

// Store is the menu store of one session. Refreshes run without holding the
// lock; only the newest refresh may publish its result.
type Store struct {
	mu       sync.Mutex
	gen      uint64
	current  atomic.Pointer[Snapshot]
	compiler *route.Compiler
	index    *menu.PathIndex
	selector string
	logger   *zap.Logger
}

func NewStore(compiler *route.Compiler, opts StoreOptions) *Store {
	if compiler == nil {
		compiler = route.NewCompiler(nil)
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Store{
		compiler: compiler,
		index:    menu.NewPathIndex(opts.PathIndexSize),
		selector: opts.Selector,
		logger:   logger,
	}
	s.current.Store(emptySnapshot(StateIdle, 0))
	return s
}

func (s *Store) Snapshot() *Snapshot {
	return s.current.Load()
}

func (s *Store) State() State {
	return s.current.Load().State
}

// FindByPath returns the node owning path in the published tree, or nil.
func (s *Store) FindByPath(path string) *menu.Node {
	return s.index.Find(path)
}

// Refresh loads the menu payload from src and publishes the rebuilt tree.
//
// A superseded upstream request leaves the previous snapshot in place. A
// payload whose shape cannot be read publishes an empty ready tree with a
// warning. Any other load failure publishes the failed state with no tree.
func (s *Store) Refresh(ctx context.Context, src source.Source) (*Snapshot, error) {
	gen, prev := s.begin()

	raw, err := src.Load(ctx)
	if err != nil {
		if httpclient.IsCancelled(err) {
			s.revert(gen, prev)
			return prev, err
		}
		snap := emptySnapshot(StateFailed, gen)
		snap.Error = err.Error()
		if !s.commit(gen, snap, nil) {
			return s.Snapshot(), ErrStaleRefresh
		}
		s.logger.Warn("menu refresh failed", zap.Uint64("generation", gen), zap.Error(err))
		return snap, fmt.Errorf("load menus: %w", err)
	}

	snap, tree := s.build(gen, raw)
	if !s.commit(gen, snap, tree) {
		return s.Snapshot(), ErrStaleRefresh
	}
	s.logger.Debug("menu refresh committed",
		zap.Uint64("generation", gen),
		zap.Int("nodes", menu.Count(tree)),
		zap.Int("routes", len(snap.Routes)))
	return snap, nil
}

// Restore publishes a previously persisted tree as ready, recompiling its
// routes with the current registry.
func (s *Store) Restore(tree []*menu.Node) *Snapshot {
	s.mu.Lock()
	s.gen++
	gen := s.gen
	s.mu.Unlock()

	if tree == nil {
		tree = []*menu.Node{}
	}
	snap := emptySnapshot(StateReady, gen)
	snap.Tree = tree
	snap.Routes = s.compiler.Compile(tree)
	s.commit(gen, snap, tree)
	return snap
}

// Recompile rebuilds the routes of the published tree, typically after the
// component registry changed. It does nothing unless the store is ready.
func (s *Store) Recompile() (*Snapshot, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur := s.current.Load()
	if cur.State != StateReady {
		return cur, false
	}
	next := *cur
	next.Routes = s.compiler.Compile(cur.Tree)
	next.UpdatedAt = time.Now()
	s.current.Store(&next)
	return &next, true
}

// Clear drops the tree, routes and path index and returns to idle. Refreshes
// still in flight can no longer commit.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gen++
	s.current.Store(emptySnapshot(StateIdle, s.gen))
	s.index.Clear()
}

func (s *Store) begin() (uint64, *Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gen++
	prev := s.current.Load()
	loading := *prev
	loading.State = StateLoading
	loading.Generation = s.gen
	s.current.Store(&loading)
	return s.gen, prev
}

func (s *Store) revert(gen uint64, prev *Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.gen {
		return
	}
	s.current.Store(prev)
}

func (s *Store) commit(gen uint64, snap *Snapshot, tree []*menu.Node) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.gen {
		return false
	}
	s.current.Store(snap)
	s.index.Reset(tree)
	return true
}

func (s *Store) build(gen uint64, raw any) (*Snapshot, []*menu.Node) {
	snap := emptySnapshot(StateReady, gen)
	payload := raw
	if s.selector != "" {
		selected, err := shape.Select(raw, s.selector)
		if err != nil {
			return s.degraded(snap, err), snap.Tree
		}
		payload = selected
	}
	rows, err := shape.ExtractArray(payload, shape.WithLogger(s.logger))
	if err != nil {
		return s.degraded(snap, err), snap.Tree
	}
	tree := menu.BuildTree(menu.NormalizeAll(rows))
	snap.Tree = tree
	snap.Routes = s.compiler.Compile(tree)
	return snap, tree
}

func (s *Store) degraded(snap *Snapshot, err error) *Snapshot {
	snap.Warning = err.Error()
	s.logger.Warn("menu payload has no usable shape", zap.Error(err))
	return snap
}

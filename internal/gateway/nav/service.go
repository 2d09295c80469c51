package nav

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"consolenav/internal/account"
	"consolenav/internal/cache/disk"
	"consolenav/internal/cache/memory"
	"consolenav/internal/gateway/config"
	"consolenav/internal/gateway/source"
	"consolenav/internal/httpclient"
	"consolenav/internal/menu"
	"consolenav/internal/route"
)

var (
	ErrNoToken  = errors.New("bearer token is required")
	ErrNotFound = errors.New("no menu owns this path")
)

// Persisted key prefixes, one key of each per session.
const (
	menuKeyPrefix  = "menu_"
	routeKeyPrefix = "route_"
	userKeyPrefix  = "user_"
)

type Options struct {
	Upstream      config.UpstreamConfig
	Sources       source.Provider
	Compiler      *route.Compiler
	Persist       *disk.Store
	Selector      string
	SessionTTL    time.Duration
	SessionMax    int
	PathIndexSize int
	HTTP          *http.Client
	Logger        *zap.Logger
}

// Session is the navigation state bound to one bearer token.
type Session struct {
	ID    string
	gate  *httpclient.Gate
	api   *httpclient.API
	store *Store

	mu      sync.RWMutex
	profile *account.Profile
}

func (s *Session) Store() *Store { return s.store }

func (s *Session) Profile() (account.Profile, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.profile == nil {
		return account.Profile{}, false
	}
	return *s.profile, true
}

func (s *Session) setProfile(p *account.Profile) {
	s.mu.Lock()
	s.profile = p
	s.mu.Unlock()
}

// roles is the checker used for navigation filtering. Sessions without a
// profile get the default user role.
func (s *Session) roles() menu.RoleChecker {
	if p, ok := s.Profile(); ok {
		return p.RoleCodes
	}
	return account.RoleSet{"user"}
}

// Service keys sessions by a digest of the bearer token.
type Service struct {
	opts     Options
	sessions *memory.LRUTTL[string, *Session]
	events   *EventBroker
	logger   *zap.Logger
}

func New(opts Options) *Service {
	if opts.Compiler == nil {
		opts.Compiler = route.NewCompiler(nil)
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.SessionMax <= 0 {
		opts.SessionMax = 1024
	}
	if opts.Sources == nil {
		opts.Sources = func(api *httpclient.API) source.Source { return source.NewHTTPSource(api, "") }
	}
	s := &Service{
		opts:   opts,
		events: NewEventBroker(16),
		logger: opts.Logger,
	}
	s.sessions = memory.NewLRUTTL[string, *Session](opts.SessionMax, opts.SessionTTL, s.evicted)
	return s
}

// SessionID derives the session key for token.
func SessionID(token string) string {
	sum := sha256.Sum256([]byte(strings.TrimSpace(token)))
	return hex.EncodeToString(sum[:16])
}

// Session returns the live session for token, creating it on first use. A new
// session is warmed from persisted state when available.
func (s *Service) Session(ctx context.Context, token string) (*Session, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrNoToken
	}
	id := SessionID(token)
	sess, created := s.sessions.GetOrCreate(id, func() *Session { return s.newSession(id, token) })
	if created {
		s.warmStart(ctx, sess)
	}
	return sess, nil
}

func (s *Service) newSession(id, token string) *Session {
	gate := httpclient.NewGate(s.opts.Upstream.DedupExclude...)
	client := httpclient.NewSessionClient(httpclient.Options{
		BaseURL:        s.opts.Upstream.BaseURL,
		Token:          token,
		Timeout:        s.opts.Upstream.Timeout,
		StrictEnvelope: s.opts.Upstream.StrictEnvelope,
		HTTP:           s.opts.HTTP,
		Logger:         s.logger.With(zap.String("session", id)),
	}, gate)
	return &Session{
		ID:   id,
		gate: gate,
		api:  httpclient.NewAPI(client),
		store: NewStore(s.opts.Compiler, StoreOptions{
			Selector:      s.opts.Selector,
			PathIndexSize: s.opts.PathIndexSize,
			Logger:        s.logger.With(zap.String("session", id)),
		}),
	}
}

func (s *Service) warmStart(ctx context.Context, sess *Session) {
	if s.opts.Persist == nil {
		return
	}
	var tree []*menu.Node
	ok, err := s.opts.Persist.GetJSON(ctx, menuKeyPrefix+sess.ID, &tree)
	if err != nil {
		s.logger.Warn("discarding persisted menu", zap.String("session", sess.ID), zap.Error(err))
		return
	}
	if !ok {
		return
	}
	var profile account.Profile
	if found, err := s.opts.Persist.GetJSON(ctx, userKeyPrefix+sess.ID, &profile); err == nil && found {
		sess.setProfile(&profile)
	}
	sess.store.Restore(tree)
	s.logger.Debug("session restored", zap.String("session", sess.ID), zap.Int("nodes", menu.Count(tree)))
}

// Refresh reloads the session's profile and menus. An expired token clears the
// whole session before the error is returned.
func (s *Service) Refresh(ctx context.Context, token string) (*Snapshot, error) {
	sess, err := s.Session(ctx, token)
	if err != nil {
		return nil, err
	}
	if err := s.refreshProfile(ctx, sess); err != nil {
		return sess.store.Snapshot(), s.handleFailure(ctx, sess, err)
	}

	snap, err := sess.store.Refresh(ctx, s.opts.Sources(sess.api))
	if err != nil {
		return snap, s.handleFailure(ctx, sess, err)
	}
	s.persist(ctx, sess, snap)
	s.events.Publish(Event{Type: EventUpdated, Session: sess.ID, Generation: snap.Generation, State: snap.State.String()})
	return snap, nil
}

func (s *Service) refreshProfile(ctx context.Context, sess *Session) error {
	path := strings.TrimSpace(s.opts.Upstream.ProfilePath)
	if path == "" {
		return nil
	}
	raw, err := sess.api.Get(ctx, path, nil)
	if err != nil {
		if httpclient.IsAuthExpired(err) || httpclient.IsCancelled(err) {
			return err
		}
		s.logger.Warn("profile unavailable, keeping previous roles", zap.String("session", sess.ID), zap.Error(err))
		return nil
	}
	p := account.NormalizeProfile(raw, "")
	sess.setProfile(&p)
	return nil
}

func (s *Service) handleFailure(ctx context.Context, sess *Session, err error) error {
	if httpclient.IsAuthExpired(err) {
		s.logger.Info("upstream session expired", zap.String("session", sess.ID))
		s.drop(ctx, sess)
	}
	return err
}

// Snapshot returns the session's navigation state, loading it on first use
// and again on every read after a failed load.
func (s *Service) Snapshot(ctx context.Context, token string) (*Snapshot, error) {
	sess, err := s.Session(ctx, token)
	if err != nil {
		return nil, err
	}
	snap := sess.store.Snapshot()
	if snap.State == StateIdle || snap.State == StateFailed {
		return s.Refresh(ctx, token)
	}
	return snap, nil
}

// Routes returns the compiled routes followed by the catch-all route.
func (s *Service) Routes(ctx context.Context, token string) ([]route.Definition, error) {
	snap, err := s.Snapshot(ctx, token)
	if err != nil {
		return nil, err
	}
	out := make([]route.Definition, 0, len(snap.Routes)+1)
	out = append(out, snap.Routes...)
	return append(out, s.opts.Compiler.CatchAll()), nil
}

// Menus returns the full tree, hidden nodes included.
func (s *Service) Menus(ctx context.Context, token string) ([]*menu.Node, error) {
	snap, err := s.Snapshot(ctx, token)
	if err != nil {
		return nil, err
	}
	return snap.Tree, nil
}

// Navigation returns the tree as the session's user may see it rendered.
func (s *Service) Navigation(ctx context.Context, token string) ([]*menu.Node, error) {
	snap, err := s.Snapshot(ctx, token)
	if err != nil {
		return nil, err
	}
	sess, err := s.Session(ctx, token)
	if err != nil {
		return nil, err
	}
	return menu.Navigation(snap.Tree, sess.roles()), nil
}

// FindByPath resolves path against the session's tree.
func (s *Service) FindByPath(ctx context.Context, token, path string) (*menu.Node, error) {
	if _, err := s.Snapshot(ctx, token); err != nil {
		return nil, err
	}
	sess, err := s.Session(ctx, token)
	if err != nil {
		return nil, err
	}
	n := sess.store.FindByPath(path)
	if n == nil {
		return nil, ErrNotFound
	}
	return n, nil
}

// Profile returns the user behind token, if it has been loaded.
func (s *Service) Profile(ctx context.Context, token string) (account.Profile, bool, error) {
	sess, err := s.Session(ctx, token)
	if err != nil {
		return account.Profile{}, false, err
	}
	p, ok := sess.Profile()
	return p, ok, nil
}

// Logout clears everything held for token: pending requests, the tree, routes,
// path index and persisted state.
func (s *Service) Logout(ctx context.Context, token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return ErrNoToken
	}
	id := SessionID(token)
	if sess, ok := s.sessions.Get(id); ok {
		s.drop(ctx, sess)
		return nil
	}
	return s.forget(ctx, id)
}

func (s *Service) drop(ctx context.Context, sess *Session) {
	s.sessions.Delete(sess.ID)
	sess.gate.Clear()
	sess.store.Clear()
	sess.setProfile(nil)
	if err := s.forget(ctx, sess.ID); err != nil {
		s.logger.Warn("failed to remove persisted session", zap.String("session", sess.ID), zap.Error(err))
	}
	s.events.Publish(Event{Type: EventCleared, Session: sess.ID, State: StateIdle.String()})
}

func (s *Service) forget(ctx context.Context, id string) error {
	if s.opts.Persist == nil {
		return nil
	}
	_, err := s.opts.Persist.DeletePrefix(ctx, menuKeyPrefix+id, routeKeyPrefix+id, userKeyPrefix+id)
	return err
}

func (s *Service) persist(ctx context.Context, sess *Session, snap *Snapshot) {
	if s.opts.Persist == nil || snap.State != StateReady {
		return
	}
	writes := map[string]any{
		menuKeyPrefix + sess.ID:  snap.Tree,
		routeKeyPrefix + sess.ID: snap.Routes,
	}
	if p, ok := sess.Profile(); ok {
		writes[userKeyPrefix+sess.ID] = p
	}
	for key, v := range writes {
		if err := s.opts.Persist.SetJSON(ctx, key, v); err != nil {
			s.logger.Warn("failed to persist session state", zap.String("key", key), zap.Error(err))
		}
	}
}

// Recompile rebuilds every live session's routes, after a registry change.
func (s *Service) Recompile(reg *route.Registry) {
	s.opts.Compiler.SetRegistry(reg)
	for _, sess := range s.sessions.Values() {
		snap, ok := sess.store.Recompile()
		if !ok {
			continue
		}
		s.events.Publish(Event{Type: EventUpdated, Session: sess.ID, Generation: snap.Generation, State: snap.State.String()})
	}
	s.logger.Info("routes recompiled", zap.Int("sessions", s.sessions.Len()))
}

// Subscribe streams the events of token's session.
func (s *Service) Subscribe(ctx context.Context, token string) (string, <-chan Event, func(), error) {
	sess, err := s.Session(ctx, token)
	if err != nil {
		return "", nil, nil, err
	}
	ch, cancel := s.events.Subscribe(sess.ID)
	return sess.ID, ch, cancel, nil
}

// Sweep drops idle sessions. Their persisted state is kept for a warm start.
func (s *Service) Sweep() int {
	return s.sessions.Sweep()
}

// Close releases every live session.
func (s *Service) Close() {
	s.sessions.Clear()
}

func (s *Service) evicted(_ string, sess *Session) {
	sess.gate.Clear()
	sess.store.Clear()
	s.logger.Debug("session evicted", zap.String("session", sess.ID))
}

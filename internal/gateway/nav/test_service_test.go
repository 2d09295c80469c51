package nav

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"consolenav/internal/cache/disk"
	"consolenav/internal/gateway/config"
	"consolenav/internal/gateway/source"
	"consolenav/internal/httpclient"
	"consolenav/internal/util/jsonutil"
	"consolenav/internal/route"
)

type upstream struct {
	srv       *httptest.Server
	menuCalls atomic.Int32
	expired   atomic.Bool
}

func newUpstream(t *testing.T) *upstream {
	t.Helper()
	u := &upstream{}
	u.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if u.expired.Load() {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"message":"token expired"}`))
			return
		}
		switch r.URL.Path {
		case "/api/auth/userinfo":
			_, _ = w.Write([]byte(`{"code":0,"data":{"user":{"id":7,"username":"ann","roles":[{"code":"user","name":"User"}]}}}`))
		case "/api/system/menu/user-menus":
			u.menuCalls.Add(1)
			_, _ = w.Write([]byte(menuPayload))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(u.srv.Close)
	return u
}

func newTestService(t *testing.T, u *upstream, persist *disk.Store) *Service {
	t.Helper()
	return New(Options{
		Upstream: config.UpstreamConfig{
			BaseURL:     u.srv.URL + "/api",
			Timeout:     2 * time.Second,
			ProfilePath: "/auth/userinfo",
		},
		Persist:    persist,
		SessionTTL: time.Minute,
		HTTP:       u.srv.Client(),
	})
}

func newPersist(t *testing.T, root string) *disk.Store {
	t.Helper()
	store, err := disk.NewStore(disk.Config{Root: root, TTL: time.Hour})
	require.NoError(t, err)
	return store
}

func TestServiceRoutesLoadLazily(t *testing.T) {
	u := newUpstream(t)
	svc := newTestService(t, u, nil)
	ctx := context.Background()

	routes, err := svc.Routes(ctx, "tok")
	require.NoError(t, err)
	require.Len(t, routes, 4)
	assert.Equal(t, route.CatchAllPath, routes[3].Path)

	_, err = svc.Menus(ctx, "tok")
	require.NoError(t, err)
	assert.Equal(t, int32(1), u.menuCalls.Load())

	_, err = svc.Routes(ctx, " ")
	assert.ErrorIs(t, err, ErrNoToken)
}

func TestServiceReloadsAfterFailedLoad(t *testing.T) {
	var loads atomic.Int32
	svc := New(Options{
		Sources: source.Shared(source.SourceFunc(func(context.Context) (any, error) {
			if loads.Add(1) == 1 {
				return nil, errors.New("menu backend unavailable")
			}
			return jsonutil.Decode([]byte(menuPayload))
		})),
		SessionTTL: time.Minute,
	})
	ctx := context.Background()

	_, err := svc.Routes(ctx, "tok")
	require.Error(t, err)
	sess, err := svc.Session(ctx, "tok")
	require.NoError(t, err)
	assert.Equal(t, StateFailed, sess.Store().State())

	routes, err := svc.Routes(ctx, "tok")
	require.NoError(t, err)
	assert.Len(t, routes, 4)
	assert.Equal(t, int32(2), loads.Load())
	assert.Equal(t, StateReady, sess.Store().State())

	_, err = svc.Routes(ctx, "tok")
	require.NoError(t, err)
	assert.Equal(t, int32(2), loads.Load())
}

func TestServiceNavigationFiltersByProfileRoles(t *testing.T) {
	u := newUpstream(t)
	svc := newTestService(t, u, nil)
	ctx := context.Background()

	tree, err := svc.Menus(ctx, "tok")
	require.NoError(t, err)
	assert.Len(t, tree, 3)

	nav, err := svc.Navigation(ctx, "tok")
	require.NoError(t, err)
	names := make([]string, 0, len(nav))
	for _, n := range nav {
		names = append(names, n.Name)
	}
	assert.Equal(t, []string{"Dashboard", "System"}, names)

	p, ok, err := svc.Profile(ctx, "tok")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "ann", p.Username)
}

func TestServiceFindByPath(t *testing.T) {
	u := newUpstream(t)
	svc := newTestService(t, u, nil)
	ctx := context.Background()

	n, err := svc.FindByPath(ctx, "tok", "/system/users")
	require.NoError(t, err)
	assert.Equal(t, "Users", n.Name)

	_, err = svc.FindByPath(ctx, "tok", "/nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestServiceLogoutClearsEverything(t *testing.T) {
	u := newUpstream(t)
	persist := newPersist(t, t.TempDir())
	svc := newTestService(t, u, persist)
	ctx := context.Background()

	_, err := svc.Refresh(ctx, "tok")
	require.NoError(t, err)
	id := SessionID("tok")
	assert.ElementsMatch(t, []string{"menu_" + id, "route_" + id, "user_" + id}, persist.Keys())

	_, events, cancel, err := svc.Subscribe(ctx, "tok")
	require.NoError(t, err)
	defer cancel()

	require.NoError(t, svc.Logout(ctx, "tok"))
	assert.Empty(t, persist.Keys())
	select {
	case ev := <-events:
		assert.Equal(t, EventCleared, ev.Type)
	case <-time.After(time.Second):
		t.Fatal("no nav_cleared event")
	}
}

func TestServiceAuthExpiredClearsSession(t *testing.T) {
	u := newUpstream(t)
	persist := newPersist(t, t.TempDir())
	svc := newTestService(t, u, persist)
	ctx := context.Background()

	_, err := svc.Refresh(ctx, "tok")
	require.NoError(t, err)

	u.expired.Store(true)
	_, err = svc.Refresh(ctx, "tok")
	require.Error(t, err)
	assert.True(t, httpclient.IsAuthExpired(err))
	assert.Empty(t, persist.Keys())
	assert.Equal(t, 0, svc.sessions.Len())
}

func TestServiceWarmStartFromPersistence(t *testing.T) {
	u := newUpstream(t)
	root := t.TempDir()
	ctx := context.Background()

	first := newTestService(t, u, newPersist(t, root))
	_, err := first.Refresh(ctx, "tok")
	require.NoError(t, err)
	require.Equal(t, int32(1), u.menuCalls.Load())

	second := newTestService(t, u, newPersist(t, root))
	n, err := second.FindByPath(ctx, "tok", "/system/users")
	require.NoError(t, err)
	assert.Equal(t, "Users", n.Name)
	assert.Equal(t, int32(1), u.menuCalls.Load())

	p, ok, err := second.Profile(ctx, "tok")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "ann", p.Username)
}

func TestServiceRecompilePublishesUpdates(t *testing.T) {
	u := newUpstream(t)
	svc := newTestService(t, u, nil)
	ctx := context.Background()
	_, err := svc.Refresh(ctx, "tok")
	require.NoError(t, err)

	_, events, cancel, err := svc.Subscribe(ctx, "tok")
	require.NoError(t, err)
	defer cancel()

	reg := route.DefaultRegistry()
	reg.Components["dashboard/index"] = "views/dashboard/v2.vue"
	svc.Recompile(reg)

	select {
	case ev := <-events:
		assert.Equal(t, EventUpdated, ev.Type)
	case <-time.After(time.Second):
		t.Fatal("no nav_updated event")
	}
	routes, err := svc.Routes(ctx, "tok")
	require.NoError(t, err)
	assert.Equal(t, "views/dashboard/v2.vue", routes[0].Children[0].Component)
}

func TestEventBrokerDropsForSlowSubscribers(t *testing.T) {
	b := NewEventBroker(1)
	ch, cancel := b.Subscribe("s")
	b.Publish(Event{Type: EventUpdated, Session: "s"})
	b.Publish(Event{Type: EventUpdated, Session: "s"})
	assert.Len(t, ch, 1)
	assert.Equal(t, 1, b.Subscribers("s"))
	cancel()
	cancel()
	assert.Equal(t, 0, b.Subscribers("s"))
}

package route

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"consolenav/internal/menu"
	"consolenav/internal/util/jsonutil"
)

func buildTree(t *testing.T, raw string) []*menu.Node {
	t.Helper()
	v, err := jsonutil.Decode([]byte(raw))
	require.NoError(t, err)
	arr, ok := v.([]any)
	require.True(t, ok)
	return menu.BuildTree(menu.NormalizeAll(arr))
}

func testRegistry() *Registry {
	return &Registry{
		Layout:   "Layout.vue",
		NotFound: "404.vue",
		Components: map[string]string{
			"dashboard/index": "Dashboard.vue",
			"system/users":    "Users.vue",
			"system/roles":    "Roles.vue",
		},
	}
}

func meta(title string, hidden bool, roles ...string) map[string]any {
	return map[string]any{
		"title":      title,
		"icon":       "",
		"breadcrumb": title,
		"hidden":     hidden,
		"roles":      append([]string{}, roles...),
	}
}

func TestCompileTopLevelLeaf(t *testing.T) {
	roots := buildTree(t, `[{"id":1,"name":"Dashboard","title":"Home","path":"/dashboard","component":"dashboard/index","redirect":"/dashboard/main"}]`)
	got := NewCompiler(testRegistry()).Compile(roots)

	want := []Definition{{
		Path:      "/dashboard",
		Name:      "Dashboard",
		Component: "Layout.vue",
		Meta:      meta("Home", false),
		Children: []Definition{{
			Path:      "",
			Name:      "DashboardIndex",
			Redirect:  "/dashboard/main",
			Component: "Dashboard.vue",
			Meta:      meta("Home", false),
		}},
	}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("routes mismatch (-want +got):\n%s", diff)
	}
}

func TestCompileExampleScenario(t *testing.T) {
	roots := buildTree(t, `[{"id":1,"name":"Dashboard","path":"/dashboard"},{"id":2,"parentId":1,"name":"Overview","path":"overview"}]`)
	got := NewCompiler(testRegistry()).Compile(roots)
	require.Len(t, got, 1)
	assert.Equal(t, "/dashboard", got[0].Path)
	assert.Equal(t, "Layout.vue", got[0].Component)
	require.Len(t, got[0].Children, 1)
	assert.Equal(t, "overview", got[0].Children[0].Path)
	assert.Equal(t, "404.vue", got[0].Children[0].Component)
}

func TestCompileBranchFlattensNestedBranches(t *testing.T) {
	roots := buildTree(t, `[
		{"id":1,"name":"System","path":"/system","sort":1},
		{"id":2,"parentId":1,"name":"Users","path":"users","component":"system/users","sort":1},
		{"id":3,"parentId":1,"name":"Access","path":"access","sort":2},
		{"id":4,"parentId":3,"name":"Roles","path":"roles","component":"system/roles","roles":["admin"]},
		{"id":5,"parentId":3,"name":"Perms","path":"perms","component":"Layout","visible":false}
	]`)
	got := NewCompiler(testRegistry()).Compile(roots)

	want := []Definition{{
		Path:      "/system",
		Name:      "System",
		Component: "Layout.vue",
		Meta:      meta("System", false),
		Children: []Definition{
			{Path: "users", Name: "Users", Component: "Users.vue", Meta: meta("Users", false)},
			{Path: "roles", Name: "Roles", Component: "Roles.vue", Meta: meta("Roles", false, "admin")},
			{Path: "perms", Name: "Perms", Component: "404.vue", Meta: meta("Perms", true)},
		},
	}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("routes mismatch (-want +got):\n%s", diff)
	}
}

func TestCompileLeafBranchLaw(t *testing.T) {
	roots := buildTree(t, `[
		{"id":1,"name":"A","path":"/a"},
		{"id":2,"name":"B","path":"/b"},
		{"id":3,"parentId":2,"name":"B1","path":"b1"},
		{"id":4,"parentId":2,"name":"B2","path":"b2"},
		{"id":5,"parentId":2,"name":"B3","path":"b3"}
	]`)
	got := NewCompiler(nil).Compile(roots)
	require.Len(t, got, 2)
	assert.Len(t, got[0].Children, 1)
	assert.Len(t, got[1].Children, 3)
	assert.Equal(t, []string{"b1", "b2", "b3"}, []string{got[1].Children[0].Path, got[1].Children[1].Path, got[1].Children[2].Path})
}

func TestCompileMetaExtrasDoNotOverrideBase(t *testing.T) {
	roots := buildTree(t, `[{"id":1,"name":"A","title":"Alpha","path":"/a","meta":{"title":"other","keepAlive":true}}]`)
	got := NewCompiler(testRegistry()).Compile(roots)
	assert.Equal(t, "Alpha", got[0].Meta["title"])
	assert.Equal(t, true, got[0].Meta["keepAlive"])
}

func TestCompileEmpty(t *testing.T) {
	got := NewCompiler(nil).Compile(nil)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestResolveFallsBackToNotFound(t *testing.T) {
	reg := testRegistry()
	assert.Equal(t, "404.vue", reg.Resolve(""))
	assert.Equal(t, "404.vue", reg.Resolve("Layout"))
	assert.Equal(t, "404.vue", reg.Resolve("unknown/view"))
	assert.Equal(t, "Users.vue", reg.Resolve(" system/users "))
}

func TestCatchAll(t *testing.T) {
	c := NewCompiler(testRegistry())
	r := c.CatchAll()
	assert.Equal(t, CatchAllPath, r.Path)
	assert.Equal(t, "Layout.vue", r.Component)
	require.Len(t, r.Children, 1)
	assert.Equal(t, "404.vue", r.Children[0].Component)
	assert.Equal(t, true, r.Meta["hidden"])
}

func TestParseRegistryDefaults(t *testing.T) {
	reg, err := ParseRegistry([]byte("components:\n  dashboard/index: views/Dash.vue\n"))
	require.NoError(t, err)
	assert.Equal(t, DefaultRegistry().Layout, reg.Layout)
	assert.Equal(t, DefaultRegistry().NotFound, reg.NotFound)
	assert.Equal(t, "views/Dash.vue", reg.Resolve("dashboard/index"))

	_, err = ParseRegistry([]byte("components: [unclosed"))
	assert.Error(t, err)
}

func TestSetRegistryAffectsLaterCompiles(t *testing.T) {
	roots := buildTree(t, `[{"id":1,"name":"A","path":"/a","component":"x/y"}]`)
	c := NewCompiler(testRegistry())
	assert.Equal(t, "404.vue", c.Compile(roots)[0].Children[0].Component)

	reg := testRegistry()
	reg.Components["x/y"] = "XY.vue"
	c.SetRegistry(reg)
	assert.Equal(t, "XY.vue", c.Compile(roots)[0].Children[0].Component)
}

func TestWatcherReloadsRegistry(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "components.yaml")
	require.NoError(t, os.WriteFile(path, []byte("components: {}\n"), 0o644))

	got := make(chan *Registry, 4)
	w, err := NewWatcher(path, func(r *Registry) { got <- r }, zap.NewNop())
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, w.Start(ctx))
	defer w.Stop()

	require.NoError(t, os.WriteFile(path, []byte("components:\n  a/b: AB.vue\n"), 0o644))

	select {
	case reg := <-got:
		assert.Equal(t, "AB.vue", reg.Resolve("a/b"))
	case <-time.After(5 * time.Second):
		t.Fatal("registry was not reloaded")
	}
}

func TestWatcherStopAfterFailedStart(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "components.yaml")
	w, err := NewWatcher(path, nil, zap.NewNop())
	require.NoError(t, err)
	require.Error(t, w.Start(context.Background()))

	stopped := make(chan struct{})
	go func() {
		w.Stop()
		close(stopped)
	}()
	select {
	case <-stopped:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop blocked after a failed Start")
	}
}

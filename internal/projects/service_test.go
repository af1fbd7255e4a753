package projects

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codelaunch/codelaunch/internal/testutil"
)

type fakeLauncher struct {
	launched []string
	err      error
}

func (f *fakeLauncher) Launch(_ context.Context, path string) error {
	if f.err != nil {
		return f.err
	}
	f.launched = append(f.launched, path)
	return nil
}

func newTestService(t *testing.T, hub Broadcaster, historyURIs []string) (*Service, *fakeLauncher) {
	t.Helper()
	store := testutil.WriteHistoryStore(t, t.TempDir(), historyURIs)
	reader := NewHistoryReader([]string{store}, testutil.NopLogger())
	cache := NewCacheStore(filepath.Join(t.TempDir(), "cache.json"), testutil.NopLogger())
	ignores := NewIgnoreList(filepath.Join(t.TempDir(), "ignore.json"), testutil.NopLogger())
	launcher := &fakeLauncher{}
	return NewService(reader, cache, ignores, launcher, hub, testutil.NewTestLogger(t)), launcher
}

func TestService_StartServesCacheThenScan(t *testing.T) {
	root := t.TempDir()
	proj := testutil.MakeProjectDir(t, root, "proj", 1704067200)

	store := testutil.WriteHistoryStore(t, t.TempDir(), []string{"file://" + filepath.ToSlash(proj)})
	reader := NewHistoryReader([]string{store}, testutil.NopLogger())
	cachePath := filepath.Join(t.TempDir(), "cache.json")
	cache := NewCacheStore(cachePath, testutil.NopLogger())

	// Seed the cache with a stale list; startup must serve it instantly.
	stale := []Entry{{Path: "/old/one", DisplayName: "one", LastOpened: time.Unix(1, 0)}}
	require.NoError(t, cache.Save(stale))

	ignores := NewIgnoreList(filepath.Join(t.TempDir(), "ignore.json"), testutil.NopLogger())
	svc := NewService(reader, cache, ignores, &fakeLauncher{}, nil, testutil.NopLogger())

	svc.Start()
	defer svc.Stop()

	assert.True(t, svc.Status().CacheServing)

	// The fresh scan replaces the stale cache snapshot.
	waitFor(t, func() bool {
		list := svc.List("")
		return len(list) == 1 && list[0].DisplayName == "proj"
	})
	assert.False(t, svc.Status().CacheServing)
	assert.NotNil(t, svc.Status().LastScan)
}

func TestService_ListFiltersIgnoredImmediately(t *testing.T) {
	root := t.TempDir()
	keep := testutil.MakeProjectDir(t, root, "keep", 1704067200)
	hide := testutil.MakeProjectDir(t, root, "hide", 1704067300)

	svc, _ := newTestService(t, nil, []string{
		"file://" + filepath.ToSlash(keep),
		"file://" + filepath.ToSlash(hide),
	})
	svc.Start()
	defer svc.Stop()

	waitFor(t, func() bool { return len(svc.List("")) == 2 })

	require.NoError(t, svc.Ignore(hide))

	// Visible immediately after add, no rescan needed.
	list := svc.List("")
	require.Len(t, list, 1)
	assert.Equal(t, "keep", list[0].DisplayName)

	require.NoError(t, svc.Unignore(hide))
	assert.Len(t, svc.List(""), 2)
}

func TestService_ListQueryFilter(t *testing.T) {
	root := t.TempDir()
	api := testutil.MakeProjectDir(t, root, "api-server", 1704067200)
	web := testutil.MakeProjectDir(t, root, "web-client", 1704067300)

	svc, _ := newTestService(t, nil, []string{
		"file://" + filepath.ToSlash(api),
		"file://" + filepath.ToSlash(web),
	})
	svc.Start()
	defer svc.Stop()

	waitFor(t, func() bool { return len(svc.List("")) == 2 })

	list := svc.List("API")
	require.Len(t, list, 1)
	assert.Equal(t, "api-server", list[0].DisplayName)

	assert.Empty(t, svc.List("nothing"))
}

func TestService_Launch(t *testing.T) {
	svc, launcher := newTestService(t, nil, nil)

	require.NoError(t, svc.Launch(context.Background(), "/dev/proj"))
	assert.Equal(t, []string{"/dev/proj"}, launcher.launched)

	assert.Error(t, svc.Launch(context.Background(), ""))
}

func TestService_UpdatePublishesVisibleSnapshot(t *testing.T) {
	hub := &recordingHub{}
	root := t.TempDir()
	proj := testutil.MakeProjectDir(t, root, "proj", 1704067200)

	svc, _ := newTestService(t, hub, []string{"file://" + filepath.ToSlash(proj)})
	svc.Start()
	defer svc.Stop()

	waitFor(t, func() bool { return hub.count(EventProjectsUpdated) >= 1 })
	assert.GreaterOrEqual(t, hub.count(EventScanCompleted), 1)
}

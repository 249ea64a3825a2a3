package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func asset_server(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/big.png":
			w.Write(png_fixture(640, 480))
		case "/dup.png":
			// identical bytes to big.png
			w.Write(png_fixture(640, 480))
		case "/other.png":
			w.Write(png_fixture(800, 600))
		case "/small.gif":
			w.Write(gif_fixture(50, 40))
		case "/page.html":
			w.Write([]byte("<html><body>moved to geocities</body></html>"))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func Test_save_screenshots(t *testing.T) {
	setup_test_state(t)
	srv := asset_server(t)

	cfg := FestivalConfig{Id: "t", Slug: "assetfest"}
	store := new_asset_store(cfg)
	loc := new_locator(cfg)

	candidates := []string{
		srv.URL + "/big.png",
		srv.URL + "/small.gif",
		srv.URL + "/dup.png",
		srv.URL + "/page.html",
		srv.URL + "/other.png",
	}
	saved, report := store.SaveScreenshots(context.Background(), loc, "05", candidates)

	assert.Equal(t, []string{
		"/screenshots/assetfest/05.png",
		"/screenshots/assetfest/05-02.png",
	}, saved)
	assert.Equal(t, 2, report.Saved)

	require.Len(t, report.Skipped, 2)
	assert.Equal(t, SkippedShot{Source: srv.URL + "/small.gif", Reason: "small"}, report.Skipped[0])
	assert.Equal(t, SkippedShot{Source: srv.URL + "/dup.png", Reason: "duplicate"}, report.Skipped[1])

	require.Len(t, report.Failures, 1)
	assert.Equal(t, srv.URL+"/page.html", report.Failures[0].Source)
	assert.Equal(t, "not an image", report.Failures[0].Reason)
}

// rerunning for the same entry purges the previous run's files first,
// so the final file set is identical run over run.
func Test_save_screenshots__idempotent(t *testing.T) {
	setup_test_state(t)
	srv := asset_server(t)

	cfg := FestivalConfig{Id: "t", Slug: "assetfest"}
	store := new_asset_store(cfg)
	loc := new_locator(cfg)

	// leftovers from an imagined previous run with more screenshots
	require.NoError(t, os.MkdirAll(store.screenshots_dir, 0755))
	for _, stale := range []string{"05.jpg", "05-02.png", "05-06.png"} {
		require.NoError(t, os.WriteFile(filepath.Join(store.screenshots_dir, stale), []byte("stale"), 0644))
	}
	// a neighbouring entry's file must survive the purge
	require.NoError(t, os.WriteFile(filepath.Join(store.screenshots_dir, "06.png"), []byte("keep"), 0644))

	candidates := []string{srv.URL + "/big.png"}
	first, _ := store.SaveScreenshots(context.Background(), loc, "05", candidates)
	second, _ := store.SaveScreenshots(context.Background(), loc, "05", candidates)
	assert.Equal(t, first, second)

	entries, err := os.ReadDir(store.screenshots_dir)
	require.NoError(t, err)
	names := []string{}
	for _, entry := range entries {
		names = append(names, entry.Name())
	}
	assert.Equal(t, []string{"05.png", "06.png"}, sorted(names))
}

func Test_save_screenshots__cap(t *testing.T) {
	setup_test_state(t)
	srv := asset_server(t)

	cfg := FestivalConfig{Id: "t", Slug: "assetfest", MaxScreenshots: 1}
	store := new_asset_store(cfg)
	loc := new_locator(cfg)

	saved, report := store.SaveScreenshots(context.Background(), loc, "01", []string{
		srv.URL + "/big.png",
		srv.URL + "/other.png",
	})
	assert.Len(t, saved, 1)
	assert.Equal(t, 1, report.Saved)
}

func Test_save_icon(t *testing.T) {
	setup_test_state(t)
	srv := asset_server(t)

	cfg := FestivalConfig{Id: "t", Slug: "assetfest"}
	store := new_asset_store(cfg)
	loc := new_locator(cfg)
	ctx := context.Background()

	// the listing's own icon is taken as-is, whatever its size
	path, err := store.SaveIcon(ctx, loc, "01", srv.URL+"/big.png", nil)
	require.NoError(t, err)
	assert.Equal(t, "/icons/assetfest/01.png", path)

	// with no listing icon, only small (icon-like) fallbacks qualify
	path, err = store.SaveIcon(ctx, loc, "02", "", []string{srv.URL + "/other.png", srv.URL + "/small.gif"})
	require.NoError(t, err)
	assert.Equal(t, "/icons/assetfest/02.gif", path)

	// nothing usable at all
	_, err = store.SaveIcon(ctx, loc, "03", "", []string{srv.URL + "/page.html"})
	assert.Error(t, err)
}

func Test_save_banner(t *testing.T) {
	setup_test_state(t)
	srv := asset_server(t)

	cfg := FestivalConfig{Id: "t", Slug: "assetfest", BannerURL: srv.URL + "/big.png"}
	store := new_asset_store(cfg)
	loc := new_locator(cfg)

	path, err := store.SaveBanner(context.Background(), loc)
	require.NoError(t, err)
	assert.Equal(t, "/banners/assetfest.png", path)
	assert.True(t, path_exists(filepath.Join(STATE.OutDir, "public", "banners", "assetfest.png")))
}

package main

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

const (
	DEFAULT_SMALL_THRESHOLD = 100 // px
	DEFAULT_MAX_SCREENSHOTS = 6
)

// persists accepted media under the web-servable public/ tree with a
// deterministic per-festival/per-index naming scheme, so reruns replace
// rather than accumulate.
type AssetStore struct {
	cfg             FestivalConfig
	screenshots_dir string
	icons_dir       string
	banners_dir     string
}

func new_asset_store(cfg FestivalConfig) *AssetStore {
	public := filepath.Join(STATE.OutDir, "public")
	return &AssetStore{
		cfg:             cfg,
		screenshots_dir: filepath.Join(public, "screenshots", cfg.Slug),
		icons_dir:       filepath.Join(public, "icons", cfg.Slug),
		banners_dir:     filepath.Join(public, "banners"),
	}
}

// deletes previously written files for this entry: "<index>.<ext>" and
// "<index>-NN.<ext>". run before writing so a rerun that accepts fewer
// images doesn't leave stale ones from the last run lingering.
func purge_entry_files(dir, index string) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return
	}
	for _, entry := range entries {
		name := entry.Name()
		bare := strings.TrimSuffix(name, filepath.Ext(name))
		if bare == index || strings.HasPrefix(name, index+"-") {
			err := os.Remove(filepath.Join(dir, name))
			if err != nil {
				slog.Warn("failed to remove stale asset", "file", name, "error", err)
			}
		}
	}
}

func write_asset(dir, name string, body []byte) error {
	err := os.MkdirAll(dir, 0755)
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, name), body, 0644)
}

func content_hash(body []byte) string {
	sum := md5.Sum(body)
	return hex.EncodeToString(sum[:])
}

// downloads each candidate, keeps the ones that are real, big enough
// and not already seen, and returns their site-relative paths plus a
// diagnostic report. a failed candidate never stops the rest.
func (s *AssetStore) SaveScreenshots(ctx context.Context, loc *Locator, index string, candidates []string) ([]string, *ScreenshotReport) {
	report := &ScreenshotReport{}
	purge_entry_files(s.screenshots_dir, index)

	threshold := s.cfg.small_threshold()
	cap_at := s.cfg.max_screenshots()
	seen := map[string]bool{}
	saved := []string{}

	for _, candidate := range candidates {
		if len(saved) >= cap_at {
			break
		}

		body, err := loc.FetchBytes(ctx, candidate)
		if err != nil {
			report.Failures = append(report.Failures, ShotFailure{Source: candidate, Reason: err.Error()})
			continue
		}

		info, ok := sniff_image(body)
		if !ok {
			report.Failures = append(report.Failures, ShotFailure{Source: candidate, Reason: "not an image"})
			continue
		}
		if info.Small(threshold) {
			report.Skipped = append(report.Skipped, SkippedShot{Source: candidate, Reason: "small"})
			continue
		}
		hash := content_hash(body)
		if seen[hash] {
			report.Skipped = append(report.Skipped, SkippedShot{Source: candidate, Reason: "duplicate"})
			continue
		}
		seen[hash] = true

		name := index + info.Ext()
		if len(saved) > 0 {
			name = fmt.Sprintf("%s-%02d%s", index, len(saved)+1, info.Ext())
		}
		err = write_asset(s.screenshots_dir, name, body)
		if err != nil {
			report.Failures = append(report.Failures, ShotFailure{Source: candidate, Reason: err.Error()})
			continue
		}
		saved = append(saved, fmt.Sprintf("/screenshots/%s/%s", s.cfg.Slug, name))
	}

	report.Saved = len(saved)
	return saved, report
}

// unlike screenshots, icon-hunting *prefers* small images. tries the
// listing's icon first, then any candidate whose sniffed dimensions are
// under the small threshold.
func (s *AssetStore) SaveIcon(ctx context.Context, loc *Locator, index string, icon_url string, fallbacks []string) (string, error) {
	purge_entry_files(s.icons_dir, index)

	try := func(candidate string, want_small bool) (string, bool) {
		body, err := loc.FetchBytes(ctx, candidate)
		if err != nil {
			return "", false
		}
		info, ok := sniff_image(body)
		if !ok {
			return "", false
		}
		if want_small && !info.Small(s.cfg.small_threshold()) {
			return "", false
		}
		name := index + info.Ext()
		err = write_asset(s.icons_dir, name, body)
		if err != nil {
			slog.Warn("failed to persist icon", "index", index, "error", err)
			return "", false
		}
		return fmt.Sprintf("/icons/%s/%s", s.cfg.Slug, name), true
	}

	if icon_url != "" {
		path, ok := try(icon_url, false)
		if ok {
			return path, nil
		}
	}
	for _, candidate := range fallbacks {
		path, ok := try(candidate, true)
		if ok {
			return path, nil
		}
	}
	return "", fmt.Errorf("no usable icon for entry %s", index)
}

// one banner per festival: public/banners/<slug>.<ext>
func (s *AssetStore) SaveBanner(ctx context.Context, loc *Locator) (string, error) {
	if s.cfg.BannerURL == "" {
		return "", nil
	}
	body, err := loc.FetchBytes(ctx, s.cfg.BannerURL)
	if err != nil {
		return "", err
	}
	info, ok := sniff_image(body)
	if !ok {
		return "", fmt.Errorf("banner at '%s' is not an image", s.cfg.BannerURL)
	}
	name := s.cfg.Slug + info.Ext()
	err = write_asset(s.banners_dir, name, body)
	if err != nil {
		return "", err
	}
	return "/banners/" + name, nil
}

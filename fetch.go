package main

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
)

const (
	FETCH_ATTEMPTS   = 3
	FETCH_DELAY_BASE = 350 * time.Millisecond

	// text reader proxy, last resort before the wayback machine.
	// strips scripts/frames but keeps the markup we scan for labels.
	READER_PROXY = "https://r.jina.ai/"
)

// linear backoff: 350ms, 700ms, then give up.
// implements `backoff.BackOff`.
type linear_backoff struct {
	base     time.Duration
	attempts int
	taken    int
}

func new_linear_backoff() *linear_backoff {
	return &linear_backoff{base: FETCH_DELAY_BASE, attempts: FETCH_ATTEMPTS}
}

func (b *linear_backoff) NextBackOff() time.Duration {
	b.taken += 1
	if b.taken >= b.attempts {
		return backoff.Stop
	}
	return b.base * time.Duration(b.taken)
}

func (b *linear_backoff) Reset() {
	b.taken = 0
}

// ---

// finds the best available bytes for a URL, trying transports in order
// until one succeeds. successful text fetches land in `catch/<slug>/`.
type Locator struct {
	cfg       FestivalConfig
	cache_dir string
}

func new_locator(cfg FestivalConfig) *Locator {
	return &Locator{
		cfg:       cfg,
		cache_dir: filepath.Join(STATE.OutDir, "catch", cfg.Slug),
	}
}

// creates a key that is unique to the given URL (including query parameters),
// hashed to an MD5 string. the result can be safely used as a filename.
func make_cache_key(target string) string {
	md5sum := md5.Sum([]byte(target))
	return hex.EncodeToString(md5sum[:])
}

func (l *Locator) cache_path(target string) string {
	return filepath.Join(l.cache_dir, make_cache_key(target))
}

func (l *Locator) read_cache(target string) ([]byte, bool) {
	body, err := os.ReadFile(l.cache_path(target))
	if err != nil {
		return nil, false
	}
	slog.Debug("cache HIT", "url", target)
	return body, true
}

func (l *Locator) write_cache(target string, body []byte) {
	err := os.MkdirAll(l.cache_dir, 0755)
	if err != nil {
		slog.Warn("failed to create cache dir", "dir", l.cache_dir, "error", err)
		return
	}
	err = os.WriteFile(l.cache_path(target), body, 0644)
	if err != nil {
		slog.Warn("failed to write cache file", "url", target, "error", err)
	}
}

// one GET with linear-backoff retries. 404 is permanent, anything
// else non-200 is retried.
func (l *Locator) get_with_retries(ctx context.Context, target string) ([]byte, error) {
	var body []byte
	op := func() error {
		slog.Debug("GET", "url", target)
		resp, err := STATE.Client.R().SetContext(ctx).Get(target)
		if err != nil {
			return err
		}
		if resp.StatusCode() == 404 {
			return backoff.Permanent(errors.New("not found"))
		}
		if resp.StatusCode() != 200 {
			return fmt.Errorf("status %d fetching '%s'", resp.StatusCode(), target)
		}
		body = resp.Body()
		return nil
	}
	err := backoff.Retry(op, backoff.WithContext(new_linear_backoff(), ctx))
	if err != nil {
		return nil, err
	}
	return body, nil
}

// -- transport strategies
// uniform contract, tried in order until the first success.

type fetch_strategy struct {
	name string
	fn   func(ctx context.Context, target string) ([]byte, error)
}

func (l *Locator) fetch_direct(ctx context.Context, target string) ([]byte, error) {
	return l.get_with_retries(ctx, target)
}

// the 2nt/xxxxxxxx hosts dropped their certificates long before they
// dropped their content.
func (l *Locator) fetch_downgrade(ctx context.Context, target string) ([]byte, error) {
	if !strings.HasPrefix(target, "https://") {
		return nil, errors.New("already http, nothing to downgrade")
	}
	return l.get_with_retries(ctx, "http://"+strings.TrimPrefix(target, "https://"))
}

func (l *Locator) fetch_reader_proxy(ctx context.Context, target string) ([]byte, error) {
	return l.get_with_retries(ctx, READER_PROXY+target)
}

func (l *Locator) strategies(binary bool) []fetch_strategy {
	sl := []fetch_strategy{
		{"direct", l.fetch_direct},
		{"http-downgrade", l.fetch_downgrade},
	}
	if !binary {
		// the reader proxy only makes sense for text
		sl = append(sl, fetch_strategy{"reader-proxy", l.fetch_reader_proxy})
	}
	sl = append(sl, fetch_strategy{"wayback", l.fetch_wayback_snapshot})
	return sl
}

func (l *Locator) locate(ctx context.Context, target string, binary bool) ([]byte, error) {
	if !valid_url(target) {
		return nil, fmt.Errorf("not a fetchable url: '%s'", target)
	}

	var errs []error
	for _, strategy := range l.strategies(binary) {
		body, err := strategy.fn(ctx, target)
		if err == nil {
			return body, nil
		}
		slog.Debug("strategy failed, falling through", "strategy", strategy.name, "url", target, "error", err)
		errs = append(errs, fmt.Errorf("%s: %w", strategy.name, err))
	}
	return nil, fmt.Errorf("all transports exhausted for '%s': %w", target, errors.Join(errs...))
}

// -- public face

// fetches a page, preferring the on-disk cache.
// required resources: the caller gets the error back and decides to abort.
func (l *Locator) FetchText(ctx context.Context, target string) ([]byte, error) {
	body, hit := l.read_cache(target)
	if hit {
		return body, nil
	}
	if STATE.Offline {
		return nil, fmt.Errorf("offline and no cached copy of '%s'", target)
	}
	body, err := l.locate(ctx, target, false)
	if err != nil {
		return nil, err
	}
	body, _ = elide_bom(body)
	l.write_cache(target, body)
	return body, nil
}

// fetches an optional page. all failures collapse to nil so the
// pipeline can continue with partial data.
func (l *Locator) FetchTextOptional(ctx context.Context, target string) []byte {
	body, err := l.FetchText(ctx, target)
	if err != nil {
		slog.Warn("optional page unavailable", "url", target, "error", err)
		return nil
	}
	return body
}

// fetches binary bytes (images). never cached: the persisted asset
// under public/ is its own cache.
func (l *Locator) FetchBytes(ctx context.Context, target string) ([]byte, error) {
	if STATE.Offline {
		return nil, errors.New("offline, refusing binary fetch")
	}
	return l.locate(ctx, target, true)
}

// ---

func valid_url(target string) bool {
	u, err := url.Parse(target)
	return err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// resolves `href` against the page it appeared on.
func absolute_url(page_url, href string) string {
	base, err := url.Parse(page_url)
	if err != nil {
		return href
	}
	ref, err := url.Parse(trim(href))
	if err != nil {
		return ""
	}
	return base.ResolveReference(ref).String()
}

package main

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"regexp"
	"slices"
	"strings"

	"github.com/tidwall/gjson"
)

const WAYBACK_TIMEMAP_URL = "https://web.archive.org/web/timemap/json?url=%s&matchType=prefix&collapse=urlkey&output=json&fl=original,mimetype,timestamp,endtimestamp,groupcount,uniqcount&limit=10000"

// one row of the CDX/timemap index. transient, never persisted.
type TimemapRow struct {
	Original     string
	Mimetype     string
	Timestamp    string
	Endtimestamp string
	GroupCount   int
	UniqCount    int
}

// the timemap response is JSON rows-of-cells with a header row:
// [["original","mimetype",...],["http://...","text/html",...],...]
func parse_timemap(body []byte) []TimemapRow {
	rows := []TimemapRow{}
	for i, row := range gjson.ParseBytes(body).Array() {
		if i == 0 {
			// header row
			continue
		}
		cells := row.Array()
		if len(cells) < 6 {
			continue
		}
		rows = append(rows, TimemapRow{
			Original:     cells[0].String(),
			Mimetype:     cells[1].String(),
			Timestamp:    cells[2].String(),
			Endtimestamp: cells[3].String(),
			GroupCount:   int(cells[4].Int()),
			UniqCount:    int(cells[5].Int()),
		})
	}
	return rows
}

// filters timemap rows to those whose original URL matches `path_re`,
// newest capture first.
func filter_snapshots(rows []TimemapRow, path_re *regexp.Regexp) []TimemapRow {
	matches := []TimemapRow{}
	for _, row := range rows {
		if path_re == nil || path_re.MatchString(row.Original) {
			matches = append(matches, row)
		}
	}
	slices.SortFunc(matches, func(a, b TimemapRow) int {
		return strings.Compare(b.Endtimestamp, a.Endtimestamp)
	})
	return matches
}

// snapshots of adult-hosted sites are frequently a capture of the
// age-verification gate rather than the page itself. error pages and
// wayback's own apology page get the same treatment: move to the next
// older snapshot.
func is_interstitial(body []byte) bool {
	if len(body) == 0 {
		return true
	}
	markers := []string{
		"年齢確認",
		"18歳未満",
		"Wayback Machine has not archived that URL",
		"This page is not available on the web",
		"404 Not Found",
	}
	for _, marker := range markers {
		if bytes.Contains(body, []byte(marker)) {
			return true
		}
	}
	return false
}

// ---

func (l *Locator) fetch_timemap(ctx context.Context, prefix string) ([]TimemapRow, error) {
	timemap_url := fmt.Sprintf(WAYBACK_TIMEMAP_URL, url.QueryEscape(prefix))
	body, hit := l.read_cache(timemap_url)
	if !hit {
		if STATE.Offline {
			return nil, fmt.Errorf("offline and no cached timemap for '%s'", prefix)
		}
		var err error
		body, err = l.get_with_retries(ctx, timemap_url)
		if err != nil {
			return nil, fmt.Errorf("timemap query failed: %w", err)
		}
		l.write_cache(timemap_url, body)
	}
	return parse_timemap(body), nil
}

// snapshot URL serving the original bytes without the wayback chrome.
func snapshot_url(row TimemapRow) string {
	ts := row.Endtimestamp
	if ts == "" {
		ts = row.Timestamp
	}
	return fmt.Sprintf("https://web.archive.org/web/%sid_/%s", ts, row.Original)
}

func strip_scheme(target string) string {
	return strings.TrimPrefix(strings.TrimPrefix(target, "https://"), "http://")
}

// when the festival config names a wayback prefix, one timemap query
// covers the whole dead site and individual URLs filter out of the
// shared (cached) result. otherwise each URL gets its own query.
func (l *Locator) snapshot_candidates(ctx context.Context, target string) ([]TimemapRow, error) {
	bare := strip_scheme(target)

	if l.cfg.WaybackPrefix != "" && strings.HasPrefix(bare, l.cfg.WaybackPrefix) {
		rows, err := l.fetch_timemap(ctx, l.cfg.WaybackPrefix)
		if err != nil {
			return nil, err
		}
		matching := []TimemapRow{}
		for _, row := range rows {
			if strip_scheme(row.Original) == bare {
				matching = append(matching, row)
			}
		}
		if len(matching) > 0 {
			return filter_snapshots(matching, nil), nil
		}
		// nothing under the site prefix, fall through to a per-URL query
	}

	rows, err := l.fetch_timemap(ctx, bare)
	if err != nil {
		return nil, err
	}
	return filter_snapshots(rows, nil), nil
}

// last transport in the chain: look the URL up in the wayback machine and
// walk its snapshots newest-to-oldest until one of them is usable.
func (l *Locator) fetch_wayback_snapshot(ctx context.Context, target string) ([]byte, error) {
	candidates, err := l.snapshot_candidates(ctx, target)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return nil, fmt.Errorf("no snapshots of '%s'", target)
	}

	for _, row := range candidates {
		body, err := l.get_with_retries(ctx, snapshot_url(row))
		if err != nil {
			slog.Debug("snapshot fetch failed, trying older", "url", row.Original, "timestamp", row.Endtimestamp, "error", err)
			continue
		}
		if is_interstitial(body) {
			slog.Debug("snapshot is an interstitial, trying older", "url", row.Original, "timestamp", row.Endtimestamp)
			continue
		}
		return body, nil
	}
	return nil, fmt.Errorf("every snapshot of '%s' was unusable", target)
}

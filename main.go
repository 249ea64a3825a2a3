package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/lmittmann/tint"
	flag "github.com/spf13/pflag"
)

const USER_AGENT = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36"

type State struct {
	OutDir         string
	Client         *resty.Client
	Patch          bool
	Offline        bool
	ProbeDownloads bool
	MaxScreenshots int
}

// -- globals

var STATE *State

// ---

func init_state() *State {
	state := &State{OutDir: "."}

	client := resty.New()
	client.SetHeader("User-Agent", USER_AGENT)
	client.SetTimeout(30 * time.Second)
	// retries are the Locator's job, resty just does single shots
	client.SetRetryCount(0)
	state.Client = client

	return state
}

// --- tasks

// scrapes one entry. errors are isolated here: whatever went wrong is
// recorded in the summary record and the loop moves on.
func process_entry(ctx context.Context, cfg FestivalConfig, loc *Locator, store *AssetStore, stub EntryStub) (Work, SummaryEntry) {
	slog.Info("processing entry", "festival", cfg.Slug, "index", stub.Index, "title", stub.Title)

	summary := SummaryEntry{Index: stub.Index, Status: "ok", Title: stub.Title}

	detail := DetailResult{}
	detail_disabled := false
	if stub.DetailURL == "" {
		detail_disabled = true
		summary.Status = "skipped"
		summary.Note = "source has no detail page"
	} else {
		body := loc.FetchTextOptional(ctx, stub.DetailURL)
		if body == nil {
			detail_disabled = true
			summary.Status = "skipped"
			summary.Note = "no usable detail page found"
		} else {
			parsed, err := parse_detail(cfg, body, stub.DetailURL)
			if err != nil {
				summary.Status = "error"
				summary.Error = err.Error()
			} else {
				detail = parsed
			}
		}
	}

	screenshots, report := store.SaveScreenshots(ctx, loc, stub.Index, detail.Screenshots)
	summary.ScreenshotReport = report

	icon, err := store.SaveIcon(ctx, loc, stub.Index, stub.IconURL, detail.Screenshots)
	if err != nil {
		slog.Debug("no icon for entry", "index", stub.Index, "error", err)
	}
	summary.Icon = icon

	work := assemble_work(cfg, stub, detail, icon, screenshots)
	work.DetailDisabled = detail_disabled

	if stub.DownloadURL != "" {
		summary.DownloadSource = []string{stub.DownloadURL}
		if STATE.ProbeDownloads {
			probe := probe_download(stub.DownloadURL)
			summary.DownloadProbe = &probe
			if !probe.Alive && work.Download != nil {
				work.Download.Broken = true
			}
		}
	}

	return work, summary
}

func run_festival(ctx context.Context, cfg FestivalConfig) error {
	slog.Info("scraping festival", "slug", cfg.Slug, "source", cfg.SourceKind)

	loc := new_locator(cfg)
	store := new_asset_store(cfg)

	// the listing page is the one resource we cannot do without
	body, err := loc.FetchText(ctx, cfg.ListingURL)
	if err != nil {
		return fmt.Errorf("failed to fetch listing page: %w", err)
	}
	stubs, err := parse_listing(cfg, body, cfg.ListingURL)
	if err != nil {
		return fmt.Errorf("failed to parse listing page: %w", err)
	}
	slog.Info("parsed listing", "slug", cfg.Slug, "entries", len(stubs))

	works := []Work{}
	summaries := []SummaryEntry{}
	error_count := 0
	for _, stub := range stubs {
		work, summary := process_entry(ctx, cfg, loc, store, stub)
		if summary.Status == "error" {
			error_count += 1
		}
		works = append(works, work)
		summaries = append(summaries, summary)
	}

	banner, err := store.SaveBanner(ctx, loc)
	if err != nil {
		slog.Warn("failed to capture banner", "slug", cfg.Slug, "error", err)
	} else if banner != "" {
		slog.Info("captured banner", "path", banner)
	}

	sort_works(works)
	err = write_works(cfg, works)
	if err != nil {
		return fmt.Errorf("failed to write works file: %w", err)
	}
	err = write_summary(cfg, summaries)
	if err != nil {
		return fmt.Errorf("failed to write scrape summary: %w", err)
	}

	slog.Info(fmt.Sprintf("Captured %d works. Errors: %d", len(works), error_count), "slug", cfg.Slug)
	return nil
}

// --- bootstrap

func init() {
	if is_testing() {
		return
	}
	STATE = init_state()
}

func main() {
	list := flag.Bool("list", false, "print known festival slugs and exit")
	validate := flag.Bool("validate", false, "validate output files against the schema and exit")
	probe := flag.Bool("probe-downloads", false, "range-probe each work's download zip")
	patch := flag.Bool("patch", false, "merge into the existing works file instead of overwriting")
	offline := flag.Bool("offline", false, "serve every fetch from the on-disk cache")
	out_dir := flag.String("out", ".", "repo root holding catch/, public/ and src/data/")
	max_shots := flag.Int("max-screenshots", 0, "override the per-festival screenshot cap")
	verbose := flag.BoolP("verbose", "v", false, "debug logging")
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(tint.NewHandler(os.Stderr, &tint.Options{Level: level})))

	STATE.OutDir = *out_dir
	STATE.Patch = *patch
	STATE.Offline = *offline
	STATE.ProbeDownloads = *probe
	STATE.MaxScreenshots = *max_shots

	if *list {
		for _, slug := range festival_slugs() {
			if *verbose {
				pprint(FESTIVAL_REGISTRY[slug])
			} else {
				fmt.Println(slug)
			}
		}
		return
	}

	if *validate {
		err := task_validate()
		if err != nil {
			slog.Error("validation failed", "error", err)
			fatal()
		}
		return
	}

	slugs := flag.Args()
	die(len(slugs) == 0, "no festival slugs given. try --list")

	ctx := context.Background()
	failed := 0
	for _, slug := range slugs {
		cfg, present := FESTIVAL_REGISTRY[slug]
		if !present {
			slog.Error("unknown festival slug", "slug", slug)
			failed += 1
			continue
		}
		err := run_festival(ctx, cfg)
		if err != nil {
			slog.Error("festival scrape aborted", "slug", slug, "error", err)
			failed += 1
		}
	}
	die(failed > 0, fmt.Sprintf("%d of %d festival scrapes failed", failed, len(slugs)))
}

package main

import (
	"fmt"
	"slices"
	"strings"
)

// a download link attached to a work.
// `Broken` is set when a probe confirmed the URL is dead.
type Download struct {
	URL    string `json:"url"`
	Broken bool   `json:"broken,omitempty"`
}

// what we'll render out.
// one festival entry in its festival's works.json.
type Work struct {
	Id             string    `json:"id"`
	FestivalId     string    `json:"festivalId"`
	No             string    `json:"no,omitempty"`
	Title          string    `json:"title"`
	Author         string    `json:"author"`
	Category       string    `json:"category,omitempty"`
	Engine         string    `json:"engine,omitempty"`
	Streaming      string    `json:"streaming,omitempty"`
	Forum          string    `json:"forum,omitempty"`
	AuthorComment  string    `json:"authorComment,omitempty"`
	HostComment    string    `json:"hostComment,omitempty"`
	Icon           string    `json:"icon,omitempty"`
	Ss             []string  `json:"ss,omitempty"`
	Download       *Download `json:"download,omitempty"`
	DetailDisabled bool      `json:"detailDisabled,omitempty"`
}

// a screenshot candidate we deliberately skipped.
// `Reason` is one of "small" or "duplicate".
type SkippedShot struct {
	Source string `json:"source"`
	Reason string `json:"reason"`
}

type ShotFailure struct {
	Source string `json:"source"`
	Reason string `json:"reason"`
}

type ScreenshotReport struct {
	Saved    int           `json:"saved"`
	Skipped  []SkippedShot `json:"skipped,omitempty"`
	Failures []ShotFailure `json:"failures,omitempty"`
}

// one diagnostic record per source-table row encountered,
// written next to the cache for manual auditing.
type SummaryEntry struct {
	Index            string            `json:"index"`
	Status           string            `json:"status"` // "ok" | "skipped" | "error"
	Title            string            `json:"title,omitempty"`
	Icon             string            `json:"icon,omitempty"`
	Note             string            `json:"note,omitempty"`
	DownloadSource   []string          `json:"downloadSource,omitempty"`
	ScreenshotReport *ScreenshotReport `json:"screenshotReport,omitempty"`
	DownloadProbe    *ProbeResult      `json:"downloadProbe,omitempty"`
	Error            string            `json:"error,omitempty"`
}

// raw entry as pulled from the festival's index/listing page,
// before detail enrichment and asset collection.
type EntryStub struct {
	Index       string // zero-padded, possibly letter-suffixed: "01", "01a"
	No          string // display index verbatim from the source
	Title       string
	Author      string
	Category    string
	Engine      string
	Streaming   string
	IconURL     string
	ForumURL    string
	DownloadURL string
	DetailURL   string
}

// long-form fields scraped off an entry's detail page.
type DetailResult struct {
	AuthorComment string
	HostComment   string
	Category      string
	Engine        string
	Streaming     string
	Screenshots   []string
}

// ---

func make_work_id(festival_id, index string) string {
	return fmt.Sprintf("%s-work-%s", festival_id, index)
}

// merges stub + enrichment + persisted asset paths into the canonical record.
// enrichment only fills fields the listing left empty.
func assemble_work(cfg FestivalConfig, stub EntryStub, detail DetailResult, icon string, screenshots []string) Work {
	work := Work{
		Id:         make_work_id(cfg.Id, stub.Index),
		FestivalId: cfg.Id,
		No:         stub.No,
		Title:      stub.Title,
		Author:     stub.Author,
		Category:   stub.Category,
		Engine:     stub.Engine,
		Streaming:  stub.Streaming,
		Forum:      stub.ForumURL,
	}
	work.AuthorComment = detail.AuthorComment
	work.HostComment = detail.HostComment
	if work.Category == "" {
		work.Category = detail.Category
	}
	if work.Engine == "" {
		work.Engine = detail.Engine
	}
	if work.Streaming == "" {
		work.Streaming = detail.Streaming
	}
	work.Icon = icon
	work.Ss = screenshots
	if stub.DownloadURL != "" {
		work.Download = &Download{URL: stub.DownloadURL}
	}
	return work
}

// stable ordering for diff-friendly output.
func sort_works(works []Work) {
	slices.SortFunc(works, func(a, b Work) int {
		return strings.Compare(a.Id, b.Id)
	})
}

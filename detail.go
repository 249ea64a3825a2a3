package main

import (
	"bytes"
	"fmt"
	"html"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// field labels as they appear on the source sites. none of the sites
// standardize these, so each field knows a few spellings.
var (
	author_comment_labels = []string{"作者コメント", "作者のコメント"}
	host_comment_labels   = []string{"管理人コメント", "管理者コメント"}
	category_labels       = []string{"ジャンル"}
	engine_labels         = []string{"使用ツール", "制作ツール", "使用ツクール"}
	streaming_labels      = []string{"配信・投稿", "配信/投稿", "配信"}
)

// paths that are never screenshots: icons, UI chrome, visit counters.
var screenshot_denylist = []string{
	"icon", "counter", "count.cgi", "banner", "button", "bg.", "spacer",
}

// url-ish substring pointing at an image, as found inside hover-swap
// javascript attributes.
var img_url_re = regexp.MustCompile(`[\w\-./%:~]+\.(?:png|jpe?g|gif|bmp)`)

// fetches and parses one entry's detail page, filling the long-form
// fields the listing table omits. failure here never aborts the run.
func parse_detail(cfg FestivalConfig, body []byte, page_url string) (DetailResult, error) {
	result := DetailResult{}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return result, fmt.Errorf("failed to parse detail markup: %w", err)
	}

	result.AuthorComment = extract_labeled(doc, author_comment_labels)
	result.HostComment = extract_labeled(doc, host_comment_labels)
	result.Category = extract_labeled(doc, category_labels)
	result.Engine = extract_labeled(doc, engine_labels)
	result.Streaming = extract_labeled(doc, streaming_labels)
	result.Screenshots = collect_screenshot_urls(cfg, doc, page_url)

	return result, nil
}

// locates the block holding `labels` by scanning table cells and text
// blocks, then hands its markup to the line-level extractor. first
// match wins.
func extract_labeled(doc *goquery.Document, labels []string) string {
	found := ""
	doc.Find("td, th, dt, dd, li, p").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		text := sel.Text()
		for _, label := range labels {
			if !strings.Contains(text, label) {
				continue
			}
			raw, err := sel.Html()
			if err != nil {
				raw = text
			}
			value, ok := extract_label_text(raw, label)
			if ok {
				found = value
				return false
			}
		}
		return true
	})
	if found != "" {
		return found
	}
	// plain-text fallback: some detail pages are barely markup at all
	return extract_label_lines(doc.Text(), labels)
}

// the line-level rule:
//
//	"作者コメント：foo<br>line two" => "line two"   (label line dropped)
//	"作者コメント：foo"              => "foo"        (label stripped)
//
// content runs to the next labelled line.
func extract_label_text(cell_html, label string) (string, bool) {
	lines := []string{}
	for _, part := range br_re.Split(cell_html, -1) {
		lines = append(lines, trim(html.UnescapeString(tag_re.ReplaceAllString(part, ""))))
	}

	label_at := -1
	for i, line := range lines {
		if strings.Contains(line, label) {
			label_at = i
			break
		}
	}
	if label_at == -1 {
		return "", false
	}

	// collect following lines up to the next labelled line
	following := []string{}
	for _, line := range lines[label_at+1:] {
		if is_label_line(line) {
			break
		}
		if line != "" {
			following = append(following, line)
		}
	}
	if len(following) > 0 {
		return strings.Join(following, "\n"), true
	}

	// single-line form: strip the label and its separator
	value := lines[label_at]
	at := strings.Index(value, label)
	value = value[at+len(label):]
	value = strings.TrimLeft(value, "：: 　")
	value = trim(value)
	if value == "" {
		return "", false
	}
	return value, true
}

func is_label_line(line string) bool {
	all_labels := flatten(
		author_comment_labels, host_comment_labels,
		category_labels, engine_labels, streaming_labels,
	)
	for _, label := range all_labels {
		if strings.HasPrefix(line, label) {
			return true
		}
	}
	return false
}

// plain-text heuristics for pages the cell scan found nothing in.
// only ever fills gaps; the label-anchored pass stays authoritative.
func extract_label_lines(text string, labels []string) string {
	for _, raw_line := range strings.Split(text, "\n") {
		line := trim(raw_line)
		for _, label := range labels {
			if strings.HasPrefix(line, label) {
				value := strings.TrimLeft(line[len(label):], "：: 　")
				if trim(value) != "" {
					return trim(value)
				}
			}
		}
	}
	return ""
}

// every <img> src plus any image URL buried in hover-swap attributes
// (onmouseover/onmouseout/data-*), absolutized and denylisted.
func collect_screenshot_urls(cfg FestivalConfig, doc *goquery.Document, page_url string) []string {
	candidates := []string{}

	doc.Find("img").Each(func(_ int, img *goquery.Selection) {
		src, ok := img.Attr("src")
		if ok {
			candidates = append(candidates, src)
		}
		for _, attr := range img.Get(0).Attr {
			if attr.Key == "onmouseover" || attr.Key == "onmouseout" || strings.HasPrefix(attr.Key, "data-") {
				candidates = append(candidates, img_url_re.FindAllString(attr.Val, -1)...)
			}
		}
	})

	// hover-swaps also hang off anchors wrapping the thumbnails
	doc.Find("a").Each(func(_ int, a *goquery.Selection) {
		for _, attr := range a.Get(0).Attr {
			if attr.Key == "onmouseover" || attr.Key == "onmouseout" {
				candidates = append(candidates, img_url_re.FindAllString(attr.Val, -1)...)
			}
		}
	})

	accepted := []string{}
	for _, candidate := range candidates {
		abs := absolute_url(page_url, candidate)
		if abs == "" || !valid_url(abs) {
			continue
		}
		if denied(cfg, abs) {
			continue
		}
		accepted = append(accepted, abs)
	}
	return unique(accepted)
}

func denied(cfg FestivalConfig, target string) bool {
	lowered := strings.ToLower(target)
	for _, fragment := range flatten(screenshot_denylist, cfg.ExtraDenylist) {
		if strings.Contains(lowered, strings.ToLower(fragment)) {
			return true
		}
	}
	return false
}

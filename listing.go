package main

import (
	"bytes"
	"fmt"
	"html"
	"log/slog"
	"regexp"

	"github.com/PuerkitoBio/goquery"
	"github.com/tidwall/gjson"
)

// transforms one index/listing document into an ordered list of entry
// stubs. the document shape varies per festival: a fixed-column <table>,
// a wiki export with <br>-separated sub-fields, or an itch.io jam JSON.
func parse_listing(cfg FestivalConfig, body []byte, page_url string) ([]EntryStub, error) {
	switch cfg.SourceKind {
	case SOURCE_HTML_TABLE, SOURCE_WIKI_TABLE:
		return parse_table_listing(cfg, body, page_url)
	case SOURCE_ITCH_JSON:
		return parse_itch_listing(cfg, body)
	}
	return nil, fmt.Errorf("unknown source kind: '%s'", cfg.SourceKind)
}

var br_re = regexp.MustCompile(`(?i)<br\s*/?>`)
var tag_re = regexp.MustCompile(`<[^>]*>`)

// splits a cell into its <br>-separated sub-lines, tags stripped.
// the source sites don't standardize these; assignment is positional.
func split_cell_lines(sel *goquery.Selection) []string {
	raw, err := sel.Html()
	if err != nil {
		return []string{trim(sel.Text())}
	}
	lines := []string{}
	for _, part := range br_re.Split(raw, -1) {
		line := trim(html.UnescapeString(tag_re.ReplaceAllString(part, "")))
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

func nth_cell(cells *goquery.Selection, i int) *goquery.Selection {
	if i < 0 || i >= cells.Length() {
		return nil
	}
	return cells.Eq(i)
}

func cell_lines(cells *goquery.Selection, i int) []string {
	cell := nth_cell(cells, i)
	if cell == nil {
		return nil
	}
	return split_cell_lines(cell)
}

func cell_href(cells *goquery.Selection, i int, page_url string) string {
	cell := nth_cell(cells, i)
	if cell == nil {
		return ""
	}
	href, ok := cell.Find("a").First().Attr("href")
	if !ok || trim(href) == "" {
		return ""
	}
	return absolute_url(page_url, href)
}

func line_at(lines []string, i int) string {
	if i >= len(lines) {
		return ""
	}
	return lines[i]
}

func parse_table_listing(cfg FestivalConfig, body []byte, page_url string) ([]EntryStub, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to parse listing markup: %w", err)
	}

	cols := cfg.Columns
	stubs := []EntryStub{}
	// first wins on duplicate indices
	seen := map[string]bool{}

	doc.Find("table tr").Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("td, th")
		no_cell := nth_cell(cells, cols.No)
		if no_cell == nil {
			return
		}
		no, ok := parse_entry_no(no_cell.Text())
		if !ok {
			// header or decoration row
			return
		}

		title_lines := cell_lines(cells, cols.TitleAuthor)
		if len(title_lines) == 0 {
			return
		}
		genre_lines := cell_lines(cells, cols.GenreEngine)
		streaming_lines := cell_lines(cells, cols.Streaming)

		// a row occasionally carries two title/author pairs sharing one
		// display number; those get letter suffixes: "01a", "01b".
		pairs := [][2]string{{line_at(title_lines, 0), line_at(title_lines, 1)}}
		if len(title_lines) >= 4 {
			pairs = [][2]string{
				{title_lines[0], title_lines[1]},
				{title_lines[2], title_lines[3]},
			}
		}

		for pair_i, pair := range pairs {
			index := pad_index(no)
			if len(pairs) > 1 {
				index = fmt.Sprintf("%s%c", index, 'a'+pair_i)
			}
			if seen[index] {
				slog.Warn("duplicate index in listing, keeping the first", "index", index, "title", pair[0])
				continue
			}
			seen[index] = true

			stub := EntryStub{
				Index:       index,
				No:          pad_index(no),
				Title:       pair[0],
				Author:      pair[1],
				Category:    line_at(genre_lines, 0),
				Engine:      line_at(genre_lines, 1),
				Streaming:   line_at(streaming_lines, 0),
				ForumURL:    cell_href(cells, cols.Forum, page_url),
				DownloadURL: cell_href(cells, cols.Download, page_url),
			}

			icon_cell := nth_cell(cells, cols.Icon)
			if icon_cell != nil {
				src, ok := icon_cell.Find("img").First().Attr("src")
				if ok {
					stub.IconURL = absolute_url(page_url, src)
				}
			}

			// prefer an explicit link on the title, fall back to the
			// per-festival template
			title_cell := nth_cell(cells, cols.TitleAuthor)
			if href, ok := title_cell.Find("a").First().Attr("href"); ok {
				stub.DetailURL = absolute_url(page_url, href)
			} else if cfg.DetailURLTemplate != "" {
				stub.DetailURL = fmt.Sprintf(cfg.DetailURLTemplate, stub.No)
			}

			stubs = append(stubs, stub)
		}
	})

	if len(stubs) == 0 {
		return nil, fmt.Errorf("no parseable rows in listing '%s'", page_url)
	}
	return stubs, nil
}

// itch.io jam listings are markup-free: entries.json keyed by order of
// submission.
func parse_itch_listing(cfg FestivalConfig, body []byte) ([]EntryStub, error) {
	games := gjson.GetBytes(body, "jam_games")
	if !games.Exists() {
		return nil, fmt.Errorf("expected field 'jam_games' not found in '%s'", cfg.ListingURL)
	}

	stubs := []EntryStub{}
	i := 0
	games.ForEach(func(_, entry gjson.Result) bool {
		title := trim(entry.Get("game.title").String())
		if title == "" {
			return true
		}
		i += 1
		stubs = append(stubs, EntryStub{
			Index:       pad_index(i),
			No:          pad_index(i),
			Title:       title,
			Author:      trim(entry.Get("game.user.name").String()),
			IconURL:     entry.Get("game.cover").String(),
			DetailURL:   entry.Get("game.url").String(),
			DownloadURL: entry.Get("game.url").String(),
		})
		return true
	})

	if len(stubs) == 0 {
		return nil, fmt.Errorf("no entries in jam listing '%s'", cfg.ListingURL)
	}
	return stubs, nil
}

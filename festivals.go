package main

// how a festival's listing page is shaped.
const (
	SOURCE_HTML_TABLE = "html-table" // fixed-column <table> on the festival site
	SOURCE_WIKI_TABLE = "wiki-table" // wiki export, <br>-separated sub-fields per cell
	SOURCE_ITCH_JSON  = "itch-json"  // itch.io jam entries JSON
)

// which table column carries which field. -1 means "this source has no such column".
type ColumnLayout struct {
	No          int
	Icon        int
	TitleAuthor int
	GenreEngine int
	Download    int
	Streaming   int
	Forum       int
}

// one festival edition. identity, source URLs and thresholds that the
// per-festival scripts used to hard-code at the top of each file.
type FestivalConfig struct {
	Id         string // "2019s"
	Slug       string // "2019-summer"
	Name       string
	SourceKind string
	ListingURL string
	// entry detail page, "%s" replaced with the verbatim display index.
	// empty means the source has no per-entry pages.
	DetailURLTemplate string
	BannerURL         string
	Columns           ColumnLayout
	// prefix handed to the wayback timemap when the site itself is gone.
	WaybackPrefix string
	// candidate URLs matching any of these substrings are never screenshots.
	ExtraDenylist []string

	SmallImageThreshold int // both dimensions under this => icon-like, default 100
	MaxScreenshots      int // default 6
}

func (cfg FestivalConfig) small_threshold() int {
	if cfg.SmallImageThreshold > 0 {
		return cfg.SmallImageThreshold
	}
	return DEFAULT_SMALL_THRESHOLD
}

func (cfg FestivalConfig) max_screenshots() int {
	if STATE.MaxScreenshots > 0 {
		return STATE.MaxScreenshots
	}
	if cfg.MaxScreenshots > 0 {
		return cfg.MaxScreenshots
	}
	return DEFAULT_MAX_SCREENSHOTS
}

// -- registry

var FESTIVAL_REGISTRY = map[string]FestivalConfig{
	"2019-summer": {
		Id:                "2019s",
		Slug:              "2019-summer",
		Name:              "VIPRPG 紅白2019夏の陣",
		SourceKind:        SOURCE_HTML_TABLE,
		ListingURL:        "https://viprpg2019summer.x.2nt.com/index.html",
		DetailURLTemplate: "https://viprpg2019summer.x.2nt.com/entry%s.html",
		BannerURL:         "https://viprpg2019summer.x.2nt.com/img/banner.png",
		Columns:           ColumnLayout{No: 0, Icon: 1, TitleAuthor: 2, GenreEngine: 3, Download: 4, Streaming: 5, Forum: 6},
	},
	"2021-gw": {
		Id:                "2021gw",
		Slug:              "2021-gw",
		Name:              "VIPRPG GWの陣 2021",
		SourceKind:        SOURCE_WIKI_TABLE,
		ListingURL:        "https://wiki.viprpg2021gw.com/list.html",
		DetailURLTemplate: "https://wiki.viprpg2021gw.com/works/%s.html",
		BannerURL:         "https://wiki.viprpg2021gw.com/img/top.png",
		Columns:           ColumnLayout{No: 0, Icon: -1, TitleAuthor: 1, GenreEngine: 2, Download: 3, Streaming: 4, Forum: -1},
		ExtraDenylist:     []string{"/wiki-chrome/"},
	},
	"2022-kouhaku": {
		Id:                "2022k",
		Slug:              "2022-kouhaku",
		Name:              "VIPRPG 紅白2022",
		SourceKind:        SOURCE_HTML_TABLE,
		ListingURL:        "http://viprpg2022.xxxxxxxx.jp/index.html",
		DetailURLTemplate: "http://viprpg2022.xxxxxxxx.jp/w%s.html",
		BannerURL:         "http://viprpg2022.xxxxxxxx.jp/img/kouhaku2022.png",
		Columns:           ColumnLayout{No: 0, Icon: 1, TitleAuthor: 2, GenreEngine: 3, Download: 4, Streaming: 5, Forum: 6},
		// the site is dead; every fetch falls through to the wayback strategy.
		WaybackPrefix: "viprpg2022.xxxxxxxx.jp/",
	},
	"2023-summer": {
		Id:         "2023s",
		Slug:       "2023-summer",
		Name:       "VIPRPG 夏の陣 2023 (itch.io)",
		SourceKind: SOURCE_ITCH_JSON,
		ListingURL: "https://itch.io/jam/382073/entries.json",
		BannerURL:  "https://img.itch.zone/aW1nLzEyMzQ1.png",
	},
}

func festival_slugs() []string {
	slugs := []string{}
	for slug := range FESTIVAL_REGISTRY {
		slugs = append(slugs, slug)
	}
	return sorted(slugs)
}

package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_extract_label_text(t *testing.T) {
	cases := map[string]struct {
		html     string
		label    string
		expected string
		found    bool
	}{
		// label line followed by <br>: the label line itself is dropped
		"br separated":   {"作者コメント：foo<br>line two", "作者コメント", "line two", true},
		"multiple lines": {"作者コメント<br>one<br>two", "作者コメント", "one\ntwo", true},
		// single line: label and separator stripped
		"single line":   {"作者コメント：foo", "作者コメント", "foo", true},
		"colon ascii":   {"ジャンル: RPG", "ジャンル", "RPG", true},
		"no separator":  {"使用ツール２０００", "使用ツール", "２０００", true},
		"inline markup": {"<b>作者コメント</b>：<i>foo</i>", "作者コメント", "foo", true},
		"absent label":  {"ここには何もない", "作者コメント", "", false},
		"label only":    {"作者コメント：", "作者コメント", "", false},
		"stops at next": {"作者コメント<br>mine<br>管理人コメント<br>theirs", "作者コメント", "mine", true},
	}
	for name, c := range cases {
		actual, found := extract_label_text(c.html, c.label)
		assert.Equal(t, c.found, found, name)
		assert.Equal(t, c.expected, actual, name)
	}
}

const detail_fixture = `<html><body>
<table>
<tr><td>ジャンル：RPG</td></tr>
<tr><td>使用ツール：VX Ace</td></tr>
<tr><td>配信・投稿：OK</td></tr>
<tr><td>作者コメント：Hello
World</td></tr>
<tr><td>管理人コメント：great<br>stuff</td></tr>
</table>
<img src="ss/05-1.png">
<img src="ss/05-1.png">
<img src="icon/05.png">
<img src="counter.cgi?page=05">
<a href="#" onmouseover="swap('ss/05-2.png')" onmouseout="swap('ss/05-1.png')">hover</a>
<img src="thumb.png" data-large="ss/05-3.png">
</body></html>`

func Test_parse_detail(t *testing.T) {
	cfg := test_table_cfg
	detail, err := parse_detail(cfg, []byte(detail_fixture), "https://example.com/entry05.html")
	require.NoError(t, err)

	assert.Equal(t, "Hello\nWorld", detail.AuthorComment)
	assert.Equal(t, "stuff", detail.HostComment) // <br> form drops the label line
	assert.Equal(t, "RPG", detail.Category)
	assert.Equal(t, "VX Ace", detail.Engine)
	assert.Equal(t, "OK", detail.Streaming)
}

func Test_parse_detail__screenshot_discovery(t *testing.T) {
	detail, err := parse_detail(test_table_cfg, []byte(detail_fixture), "https://example.com/entry05.html")
	require.NoError(t, err)

	// img src, hover-swap and data-* candidates, absolutized, deduplicated,
	// with icons and counters denied
	assert.Equal(t, []string{
		"https://example.com/ss/05-1.png",
		"https://example.com/thumb.png",
		"https://example.com/ss/05-3.png",
		"https://example.com/ss/05-2.png",
	}, detail.Screenshots)
}

// pages that are barely markup still give up their fields via the
// plain-text fallback.
func Test_parse_detail__plain_text_fallback(t *testing.T) {
	doc := "<html><body><pre>ジャンル：ADV\n作者コメント：短い</pre></body></html>"
	detail, err := parse_detail(test_table_cfg, []byte(doc), "https://example.com/e.html")
	require.NoError(t, err)
	assert.Equal(t, "ADV", detail.Category)
	assert.Equal(t, "短い", detail.AuthorComment)
}

func Test_denied(t *testing.T) {
	cfg := FestivalConfig{ExtraDenylist: []string{"/wiki-chrome/"}}
	cases := map[string]bool{
		"https://example.com/ss/05.png":           false,
		"https://example.com/icon/05.png":         true,
		"https://example.com/counter.cgi?page=05": true,
		"https://example.com/Banner.png":          true,
		"https://example.com/wiki-chrome/bg2.gif": true,
	}
	for target, expected := range cases {
		assert.Equal(t, expected, denied(cfg, target), target)
	}
}

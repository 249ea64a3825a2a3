package main

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
)

func png_fixture(w, h int) []byte {
	b := []byte("\x89PNG\r\n\x1a\n")
	b = append(b, 0, 0, 0, 13)
	b = append(b, []byte("IHDR")...)
	b = binary.BigEndian.AppendUint32(b, uint32(w))
	b = binary.BigEndian.AppendUint32(b, uint32(h))
	b = append(b, 8, 6, 0, 0, 0)
	return b
}

func jpeg_fixture(w, h int) []byte {
	b := []byte{0xFF, 0xD8}
	// APP0, skipped by the SOF scan
	b = append(b, 0xFF, 0xE0, 0x00, 0x10)
	b = append(b, make([]byte, 14)...)
	// SOF0: length, precision, height, width, components
	b = append(b, 0xFF, 0xC0, 0x00, 0x11, 0x08)
	b = binary.BigEndian.AppendUint16(b, uint16(h))
	b = binary.BigEndian.AppendUint16(b, uint16(w))
	b = append(b, 0x03)
	return b
}

func gif_fixture(w, h int) []byte {
	b := []byte("GIF89a")
	b = binary.LittleEndian.AppendUint16(b, uint16(w))
	b = binary.LittleEndian.AppendUint16(b, uint16(h))
	b = append(b, 0, 0, 0)
	return b
}

func bmp_fixture(w, h int) []byte {
	b := []byte("BM")
	b = append(b, make([]byte, 12)...) // file size, reserved, pixel offset
	b = binary.LittleEndian.AppendUint32(b, 40)
	b = binary.LittleEndian.AppendUint32(b, uint32(w))
	b = binary.LittleEndian.AppendUint32(b, uint32(h))
	return b
}

func Test_sniff_image(t *testing.T) {
	cases := map[string]struct {
		data []byte
		info ImageInfo
	}{
		"png":  {png_fixture(200, 150), ImageInfo{"png", 200, 150}},
		"jpeg": {jpeg_fixture(640, 480), ImageInfo{"jpeg", 640, 480}},
		"gif":  {gif_fixture(320, 240), ImageInfo{"gif", 320, 240}},
		"bmp":  {bmp_fixture(200, 150), ImageInfo{"bmp", 200, 150}},
	}
	for name, c := range cases {
		info, ok := sniff_image(c.data)
		assert.True(t, ok, name)
		assert.Equal(t, c.info, info, name)
	}
}

// ancient BMPs use the 12-byte core header with 16-bit dimensions.
func Test_sniff_image__bmp_core_header(t *testing.T) {
	b := []byte("BM")
	b = append(b, make([]byte, 12)...)
	b = binary.LittleEndian.AppendUint32(b, 12)
	b = binary.LittleEndian.AppendUint16(b, 64)
	b = binary.LittleEndian.AppendUint16(b, 48)
	b = append(b, make([]byte, 4)...)

	info, ok := sniff_image(b)
	assert.True(t, ok)
	assert.Equal(t, ImageInfo{"bmp", 64, 48}, info)
}

// top-down BMPs store a negative height.
func Test_sniff_image__bmp_top_down(t *testing.T) {
	info, ok := bmp_dimensions(bmp_fixture(200, -150))
	assert.True(t, ok)
	assert.Equal(t, 150, info.Height)
}

// an archived error page served where an image used to live must not
// pass the magic-byte check, whatever Content-Type claimed.
func Test_is_image__rejects_non_images(t *testing.T) {
	cases := map[string][]byte{
		"empty":     {},
		"html":      []byte("<html><body>404 Not Found</body></html>"),
		"truncated": []byte("\x89PNG\r\n\x1a\n\x00\x00"),
		"text":      []byte("GIF is my favourite format"),
	}
	for name, data := range cases {
		assert.False(t, is_image(data), name)
	}
}

func Test_small_classification(t *testing.T) {
	cases := map[string]struct {
		w, h     int
		expected bool
	}{
		"both under":   {50, 40, true},
		"width under":  {50, 200, false},
		"height under": {200, 40, false},
		"both over":    {200, 150, false},
		"at threshold": {100, 100, false},
		"just under":   {99, 99, true},
	}
	for name, c := range cases {
		info := ImageInfo{Format: "png", Width: c.w, Height: c.h}
		assert.Equal(t, c.expected, info.Small(100), name)
	}
}

func Test_image_ext(t *testing.T) {
	cases := map[string]string{
		"png":  ".png",
		"jpeg": ".jpg",
		"gif":  ".gif",
		"bmp":  ".bmp",
	}
	for format, expected := range cases {
		assert.Equal(t, expected, ImageInfo{Format: format}.Ext())
	}
}

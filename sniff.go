package main

import (
	"bytes"
	"encoding/binary"
)

// archived and proxied responses misreport Content-Type often enough
// that it cannot be trusted; the bytes themselves are the arbiter.
// dimensions are read straight out of each format's header rather
// than through an image decoder.

type ImageInfo struct {
	Format string // "png" | "jpeg" | "gif" | "bmp"
	Width  int
	Height int
}

func (info ImageInfo) Ext() string {
	switch info.Format {
	case "jpeg":
		return ".jpg"
	default:
		return "." + info.Format
	}
}

// both dimensions under `threshold` means icon-like.
func (info ImageInfo) Small(threshold int) bool {
	return info.Width < threshold && info.Height < threshold
}

var (
	png_magic   = []byte("\x89PNG\r\n\x1a\n")
	jpeg_magic  = []byte{0xFF, 0xD8}
	gif87_magic = []byte("GIF87a")
	gif89_magic = []byte("GIF89a")
	bmp_magic   = []byte("BM")
)

func is_image(data []byte) bool {
	_, ok := sniff_image(data)
	return ok
}

// identifies the format by magic bytes and hand-parses the header for
// pixel dimensions. returns false for anything else, HTML error pages
// included.
func sniff_image(data []byte) (ImageInfo, bool) {
	switch {
	case bytes.HasPrefix(data, png_magic):
		return png_dimensions(data)
	case bytes.HasPrefix(data, jpeg_magic):
		return jpeg_dimensions(data)
	case bytes.HasPrefix(data, gif87_magic), bytes.HasPrefix(data, gif89_magic):
		return gif_dimensions(data)
	case bytes.HasPrefix(data, bmp_magic):
		return bmp_dimensions(data)
	}
	return ImageInfo{}, false
}

// IHDR is required to be the first chunk: width and height sit at fixed
// offsets past the signature and chunk length/type.
func png_dimensions(data []byte) (ImageInfo, bool) {
	if len(data) < 24 || !bytes.Equal(data[12:16], []byte("IHDR")) {
		return ImageInfo{}, false
	}
	return ImageInfo{
		Format: "png",
		Width:  int(binary.BigEndian.Uint32(data[16:20])),
		Height: int(binary.BigEndian.Uint32(data[20:24])),
	}, true
}

// walk the JPEG segment chain until a start-of-frame marker.
// C0-CF are SOF markers except C4 (DHT), C8 (JPG) and CC (DAC).
func jpeg_dimensions(data []byte) (ImageInfo, bool) {
	pos := 2
	for pos+4 <= len(data) {
		if data[pos] != 0xFF {
			return ImageInfo{}, false
		}
		marker := data[pos+1]
		if marker == 0xFF {
			// fill byte
			pos += 1
			continue
		}
		if marker == 0xD8 || (marker >= 0xD0 && marker <= 0xD7) {
			// standalone marker, no length field
			pos += 2
			continue
		}
		length := int(binary.BigEndian.Uint16(data[pos+2 : pos+4]))
		if length < 2 {
			return ImageInfo{}, false
		}
		is_sof := marker >= 0xC0 && marker <= 0xCF && marker != 0xC4 && marker != 0xC8 && marker != 0xCC
		if is_sof {
			if pos+9 > len(data) {
				return ImageInfo{}, false
			}
			// segment: length(2) precision(1) height(2) width(2)
			return ImageInfo{
				Format: "jpeg",
				Height: int(binary.BigEndian.Uint16(data[pos+5 : pos+7])),
				Width:  int(binary.BigEndian.Uint16(data[pos+7 : pos+9])),
			}, true
		}
		pos += 2 + length
	}
	return ImageInfo{}, false
}

// logical screen descriptor directly follows the 6-byte signature.
func gif_dimensions(data []byte) (ImageInfo, bool) {
	if len(data) < 10 {
		return ImageInfo{}, false
	}
	return ImageInfo{
		Format: "gif",
		Width:  int(binary.LittleEndian.Uint16(data[6:8])),
		Height: int(binary.LittleEndian.Uint16(data[8:10])),
	}, true
}

// DIB header size at offset 14 decides the layout: the ancient
// BITMAPCOREHEADER stores 16-bit dimensions, everything later 32-bit
// (height signed, negative for top-down rows).
func bmp_dimensions(data []byte) (ImageInfo, bool) {
	if len(data) < 26 {
		return ImageInfo{}, false
	}
	header_size := binary.LittleEndian.Uint32(data[14:18])
	if header_size == 12 {
		if len(data) < 22 {
			return ImageInfo{}, false
		}
		return ImageInfo{
			Format: "bmp",
			Width:  int(binary.LittleEndian.Uint16(data[18:20])),
			Height: int(binary.LittleEndian.Uint16(data[20:22])),
		}, true
	}
	width := int(int32(binary.LittleEndian.Uint32(data[18:22])))
	height := int(int32(binary.LittleEndian.Uint32(data[22:26])))
	if height < 0 {
		height = -height
	}
	return ImageInfo{Format: "bmp", Width: width, Height: height}, true
}

package main

import (
	"archive/zip"
	"net/http"

	bufra "github.com/avvmoto/buf-readerat"
	"github.com/snabb/httpreaderat"
)

// health of a work's download URL, recorded in the scrape summary.
type ProbeResult struct {
	Alive     bool   `json:"alive"`
	FileCount int    `json:"fileCount,omitempty"`
	TotalSize int64  `json:"totalSize,omitempty"`
	Error     string `json:"error,omitempty"`
}

// checks whether a download zip is still alive by reading its central
// directory over HTTP range requests, without downloading the archive.
//
// a 'readerat' is an implementation of the built-in Go interface
// `io.ReaderAt` that provides a means to jump around within the bytes
// of a remote file using HTTP Range requests; the buffered wrapper
// remembers bytes already read.
func probe_download(target string) ProbeResult {
	req, err := http.NewRequest(http.MethodGet, target, nil)
	if err != nil {
		return ProbeResult{Error: err.Error()}
	}

	http_readerat, err := httpreaderat.New(STATE.Client.GetClient(), req, nil)
	if err != nil {
		return ProbeResult{Error: err.Error()}
	}

	buffer_size := 1024 * 1024 // 1MiB
	buffered_readerat := bufra.NewBufReaderAt(http_readerat, buffer_size)
	zip_rdr, err := zip.NewReader(buffered_readerat, http_readerat.Size())
	if err != nil {
		// reachable but not a zip still counts as alive
		return ProbeResult{Alive: true, Error: "not a readable zip: " + err.Error()}
	}

	result := ProbeResult{Alive: true, FileCount: len(zip_rdr.File)}
	for _, zipped_file := range zip_rdr.File {
		result.TotalSize += int64(zipped_file.UncompressedSize64)
	}
	return result
}

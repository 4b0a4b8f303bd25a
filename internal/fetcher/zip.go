package fetcher

import (
	"archive/zip"
	"io"
	"strings"

	"github.com/rotisserie/eris"
)

// MatchSuffix matches entry names ending in suffix, ignoring case.
func MatchSuffix(suffix string) func(string) bool {
	suffix = strings.ToLower(suffix)
	return func(name string) bool {
		return strings.HasSuffix(strings.ToLower(name), suffix)
	}
}

// zipEntryReader closes the entry and its archive together.
type zipEntryReader struct {
	io.ReadCloser
	archive *zip.ReadCloser
}

func (z *zipEntryReader) Close() error {
	entryErr := z.ReadCloser.Close()
	archiveErr := z.archive.Close()
	if entryErr != nil {
		return eris.Wrap(entryErr, "zip: close entry")
	}
	if archiveErr != nil {
		return eris.Wrap(archiveErr, "zip: close archive")
	}
	return nil
}

// OpenZIPEntry opens the first regular file in the archive whose name matches.
// A nil match selects the first regular file.
func OpenZIPEntry(zipPath string, match func(string) bool) (io.ReadCloser, error) {
	r, err := zip.OpenReader(zipPath)
	if err != nil {
		return nil, eris.Wrap(err, "zip: open archive")
	}

	for _, f := range r.File {
		if f.FileInfo().IsDir() {
			continue
		}
		if match != nil && !match(f.Name) {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			_ = r.Close()
			return nil, eris.Wrapf(err, "zip: open entry %s", f.Name)
		}
		return &zipEntryReader{ReadCloser: rc, archive: r}, nil
	}

	_ = r.Close()
	return nil, eris.Errorf("zip: no matching entry in %s", zipPath)
}

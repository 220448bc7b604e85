package ingest

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/wardweistra/parkour-spot-api/internal/domain/entities"
)

// maxKMZSize bounds how much of a KMZ feed is read into memory
const maxKMZSize = 64 << 20 // 64 MiB

// DecodeKMZ decodes a zipped KML archive into spot drafts. Per convention
// the archive's main document is doc.kml; if absent, the first .kml entry
// is used.
func DecodeKMZ(r io.Reader) ([]entities.SpotDraft, error) {
	data, err := io.ReadAll(io.LimitReader(r, maxKMZSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read kmz: %w", err)
	}
	if len(data) > maxKMZSize {
		return nil, fmt.Errorf("kmz feed exceeds %d bytes", maxKMZSize)
	}

	archive, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("failed to open kmz archive: %w", err)
	}

	entry := findKMLEntry(archive)
	if entry == nil {
		return nil, fmt.Errorf("kmz archive contains no kml document")
	}

	file, err := entry.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open kml entry %s: %w", entry.Name, err)
	}
	defer file.Close()

	return DecodeKML(file)
}

func findKMLEntry(archive *zip.Reader) *zip.File {
	var first *zip.File
	for _, file := range archive.File {
		if !strings.HasSuffix(strings.ToLower(file.Name), ".kml") {
			continue
		}
		if strings.EqualFold(file.Name, "doc.kml") {
			return file
		}
		if first == nil {
			first = file
		}
	}
	return first
}

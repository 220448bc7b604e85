package ingest

import (
	"fmt"
	"io"

	"github.com/wardweistra/parkour-spot-api/internal/domain/entities"
)

// Decode dispatches to the decoder for the given feed format
func Decode(format entities.FeedFormat, r io.Reader) ([]entities.SpotDraft, error) {
	switch format {
	case entities.FeedFormatKML:
		return DecodeKML(r)
	case entities.FeedFormatKMZ:
		return DecodeKMZ(r)
	case entities.FeedFormatGeoJSON:
		return DecodeGeoJSON(r)
	default:
		return nil, fmt.Errorf("unsupported feed format: %s", format)
	}
}

// Package ingest decodes external spot feeds into drafts. Supported formats
// are GeoJSON feature collections and KML/KMZ placemark files. Decoders are
// tolerant: entries without a usable point location are skipped, not fatal.
package ingest

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/wardweistra/parkour-spot-api/internal/domain/entities"
)

type geojsonFeatureCollection struct {
	Type     string           `json:"type"`
	Features []geojsonFeature `json:"features"`
}

type geojsonFeature struct {
	Type       string                 `json:"type"`
	ID         json.RawMessage        `json:"id,omitempty"`
	Geometry   *geojsonGeometry       `json:"geometry"`
	Properties map[string]interface{} `json:"properties"`
}

type geojsonGeometry struct {
	Type        string    `json:"type"`
	Coordinates []float64 `json:"coordinates"`
}

// DecodeGeoJSON decodes a GeoJSON feature collection into spot drafts.
// Only Point features survive; polygons and lines have no single location.
func DecodeGeoJSON(r io.Reader) ([]entities.SpotDraft, error) {
	var collection geojsonFeatureCollection
	if err := json.NewDecoder(r).Decode(&collection); err != nil {
		return nil, fmt.Errorf("failed to decode geojson: %w", err)
	}
	if collection.Type != "FeatureCollection" {
		return nil, fmt.Errorf("expected FeatureCollection, got %q", collection.Type)
	}

	drafts := make([]entities.SpotDraft, 0, len(collection.Features))
	for _, feature := range collection.Features {
		if feature.Geometry == nil || feature.Geometry.Type != "Point" {
			continue
		}
		if len(feature.Geometry.Coordinates) < 2 {
			continue
		}

		location := entities.Location{
			Longitude: feature.Geometry.Coordinates[0],
			Latitude:  feature.Geometry.Coordinates[1],
		}
		if !location.Valid() {
			continue
		}

		draft := entities.SpotDraft{
			Name:        propString(feature.Properties, "name", "title"),
			Description: propString(feature.Properties, "description"),
			Location:    location,
			SourceRef:   featureRef(feature),
		}
		if draft.Name == "" {
			continue
		}

		drafts = append(drafts, draft)
	}

	return drafts, nil
}

// featureRef derives a stable per-feature identifier: the feature id when the
// feed carries one, an id property otherwise.
func featureRef(feature geojsonFeature) string {
	if len(feature.ID) > 0 {
		var s string
		if err := json.Unmarshal(feature.ID, &s); err == nil {
			return s
		}
		var n json.Number
		if err := json.Unmarshal(feature.ID, &n); err == nil {
			return n.String()
		}
	}
	return propString(feature.Properties, "id", "ref")
}

func propString(props map[string]interface{}, keys ...string) string {
	for _, key := range keys {
		if value, ok := props[key]; ok {
			if s, ok := value.(string); ok && s != "" {
				return s
			}
		}
	}
	return ""
}

package ingest

import (
	"encoding/xml"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/wardweistra/parkour-spot-api/internal/domain/entities"
)

type kmlRoot struct {
	XMLName  xml.Name       `xml:"kml"`
	Document kmlContainer   `xml:"Document"`
	Folders  []kmlFolder    `xml:"Folder"`
	Marks    []kmlPlacemark `xml:"Placemark"`
}

type kmlContainer struct {
	Folders []kmlFolder    `xml:"Folder"`
	Marks   []kmlPlacemark `xml:"Placemark"`
}

type kmlFolder struct {
	Name    string         `xml:"name"`
	Folders []kmlFolder    `xml:"Folder"`
	Marks   []kmlPlacemark `xml:"Placemark"`
}

type kmlPlacemark struct {
	ID          string   `xml:"id,attr"`
	Name        string   `xml:"name"`
	Description string   `xml:"description"`
	Point       kmlPoint `xml:"Point"`
}

type kmlPoint struct {
	Coordinates string `xml:"coordinates"`
}

// DecodeKML decodes a KML document into spot drafts. Placemarks may sit at
// the top level, inside a Document, or nested arbitrarily deep in Folders.
func DecodeKML(r io.Reader) ([]entities.SpotDraft, error) {
	var root kmlRoot
	if err := xml.NewDecoder(r).Decode(&root); err != nil {
		return nil, fmt.Errorf("failed to decode kml: %w", err)
	}

	marks := append([]kmlPlacemark{}, root.Marks...)
	marks = append(marks, root.Document.Marks...)
	marks = append(marks, collectPlacemarks(root.Folders)...)
	marks = append(marks, collectPlacemarks(root.Document.Folders)...)

	drafts := make([]entities.SpotDraft, 0, len(marks))
	for _, mark := range marks {
		location, ok := parseKMLCoordinates(mark.Point.Coordinates)
		if !ok {
			continue
		}

		name := strings.TrimSpace(mark.Name)
		if name == "" {
			continue
		}

		drafts = append(drafts, entities.SpotDraft{
			Name:        name,
			Description: strings.TrimSpace(mark.Description),
			Location:    location,
			SourceRef:   mark.ID,
		})
	}

	return drafts, nil
}

func collectPlacemarks(folders []kmlFolder) []kmlPlacemark {
	marks := []kmlPlacemark{}
	for _, folder := range folders {
		marks = append(marks, folder.Marks...)
		marks = append(marks, collectPlacemarks(folder.Folders)...)
	}
	return marks
}

// parseKMLCoordinates parses a "lon,lat[,alt]" coordinate tuple
func parseKMLCoordinates(raw string) (entities.Location, bool) {
	parts := strings.Split(strings.TrimSpace(raw), ",")
	if len(parts) < 2 {
		return entities.Location{}, false
	}

	lon, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return entities.Location{}, false
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return entities.Location{}, false
	}

	location := entities.Location{Latitude: lat, Longitude: lon}
	if !location.Valid() {
		return entities.Location{}, false
	}
	return location, true
}

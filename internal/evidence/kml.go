package evidence

import (
	"encoding/xml"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
)

// Timeline KML: Document > Placemark with a TimeSpan and a Point whose
// coordinates are "longitude,latitude,altitude".
type kmlRoot struct {
	Document kmlDocument `xml:"Document"`
}

type kmlDocument struct {
	Placemarks []kmlPlacemark `xml:"Placemark"`
}

type kmlPlacemark struct {
	Name     string      `xml:"name"`
	TimeSpan kmlTimeSpan `xml:"TimeSpan"`
	Point    kmlPoint    `xml:"Point"`
}

type kmlTimeSpan struct {
	Begin string `xml:"begin"`
	End   string `xml:"end"`
}

type kmlPoint struct {
	Coordinates string `xml:"coordinates"`
}

// ParseKML reads a timeline export and returns the place-intervals it
// describes. Placemarks without a point or a time span (movement segments)
// are skipped.
func ParseKML(r io.Reader) ([]PlaceInterval, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading kml: %w", err)
	}

	var root kmlRoot
	if err := xml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("decoding kml: %w", err)
	}

	var intervals []PlaceInterval
	for _, pm := range root.Document.Placemarks {
		coords := strings.TrimSpace(pm.Point.Coordinates)
		if coords == "" || pm.TimeSpan.Begin == "" || pm.TimeSpan.End == "" {
			continue
		}

		long, lat, alt, err := parseCoordinates(coords)
		if err != nil {
			return nil, fmt.Errorf("placemark %q: %w", pm.Name, err)
		}

		begin, err := time.Parse(time.RFC3339, pm.TimeSpan.Begin)
		if err != nil {
			return nil, fmt.Errorf("placemark %q begin: %w", pm.Name, err)
		}
		end, err := time.Parse(time.RFC3339, pm.TimeSpan.End)
		if err != nil {
			return nil, fmt.Errorf("placemark %q end: %w", pm.Name, err)
		}

		intervals = append(intervals, PlaceInterval{
			Lat:   lat,
			Long:  long,
			Alt:   alt,
			Begin: begin,
			End:   end,
		})
	}

	return intervals, nil
}

func parseCoordinates(s string) (long, lat, alt float64, err error) {
	parts := strings.Split(s, ",")
	if len(parts) < 2 {
		return 0, 0, 0, fmt.Errorf("malformed coordinates %q", s)
	}

	long, err = strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("parsing longitude in %q: %w", s, err)
	}
	lat, err = strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("parsing latitude in %q: %w", s, err)
	}
	if len(parts) > 2 {
		alt, err = strconv.ParseFloat(strings.TrimSpace(parts[2]), 64)
		if err != nil {
			return 0, 0, 0, fmt.Errorf("parsing altitude in %q: %w", s, err)
		}
	}
	return long, lat, alt, nil
}

// Package geo fills in coordinates for facilities whose reports never
// supplied any. Placement is deterministic: region centroid plus a jitter
// derived from the facility name, clamped to the country bounding box, so
// the same facility always lands on the same map point.
package geo

import (
	"hash/fnv"
	"strings"

	"github.com/twpayne/go-geom"

	"github.com/beemnet-bee/viplayer/internal/model"
)

// ghanaBounds is the country bounding box in XY (lng, lat) order.
var ghanaBounds = geom.NewBounds(geom.XY).Set(-3.3, 4.5, 1.2, 11.2)

// countryCentroid anchors facilities from unknown regions.
var countryCentroid = geom.Coord{-1.0232, 7.9465}

// regionCentroids maps lowercase region names to centroid points.
var regionCentroids = map[string]geom.Coord{
	"greater accra": {-0.2245, 5.5501},
	"ashanti":       {-1.5209, 6.7470},
	"western":       {-2.1450, 5.3900},
	"western north": {-2.4833, 6.3248},
	"central":       {-1.0586, 5.5608},
	"eastern":       {-0.4502, 6.2374},
	"volta":         {0.4502, 6.5781},
	"oti":           {0.4000, 7.9000},
	"northern":      {-0.8393, 9.4007},
	"savannah":      {-1.8200, 9.0800},
	"north east":    {-0.3600, 10.5200},
	"upper east":    {-0.8493, 10.8907},
	"upper west":    {-2.2500, 10.2500},
	"bono":          {-2.5000, 7.6500},
	"bono east":     {-1.0500, 7.7500},
	"ahafo":         {-2.6000, 6.9000},
}

// maxJitterDeg spreads facilities within a region so they never stack on the
// exact centroid.
const maxJitterDeg = 0.15

// FallbackCoordinates returns a deterministic [lat, lng] for a facility
// without reported coordinates. Unknown regions anchor on the country
// centroid.
func FallbackCoordinates(region, facilityName string) model.Coordinates {
	centroid, ok := regionCentroids[strings.ToLower(strings.TrimSpace(region))]
	if !ok {
		centroid = countryCentroid
	}

	jlng, jlat := jitter(facilityName)
	lng := clamp(centroid.X()+jlng, ghanaBounds.Min(0), ghanaBounds.Max(0))
	lat := clamp(centroid.Y()+jlat, ghanaBounds.Min(1), ghanaBounds.Max(1))
	return model.Coordinates{lat, lng}
}

// jitter maps the facility name onto two offsets in [-maxJitterDeg,
// maxJitterDeg].
func jitter(facilityName string) (dlng, dlat float64) {
	h := fnv.New64a()
	h.Write([]byte(strings.ToLower(strings.TrimSpace(facilityName))))
	sum := h.Sum64()

	lo := sum & 0xffffffff
	hi := sum >> 32
	dlng = (float64(lo)/float64(0xffffffff) - 0.5) * 2 * maxJitterDeg
	dlat = (float64(hi)/float64(0xffffffff) - 0.5) * 2 * maxJitterDeg
	return dlng, dlat
}

func clamp(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

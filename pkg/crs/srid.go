package crs

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/geofold/dxfgeo/pkg/geom"
)

// Hints carries every signal available for SRID determination, in
// decreasing order of authority.
type Hints struct {
	// Explicit is a caller-supplied SRID. Non-zero wins outright.
	Explicit int

	// ProjectionText is companion metadata found next to the drawing
	// (ESRI .prj WKT, a proj4 string, or a bare EPSG reference).
	ProjectionText string

	// Bounds is the drawing extent, used for the magnitude heuristic.
	Bounds geom.BBox

	// Fallback is used when nothing else matches. Zero means
	// DefaultFallbackSRID.
	Fallback int
}

// Determination records which signal decided the SRID, for diagnostics.
type Determination struct {
	SRID   int
	Source string // "explicit", "metadata", "heuristic" or "fallback"
}

var (
	authorityRe = regexp.MustCompile(`AUTHORITY\[\s*"EPSG"\s*,\s*"?(\d+)"?\s*\]`)
	proj4InitRe = regexp.MustCompile(`\+init=epsg:(\d+)`)
	epsgBareRe  = regexp.MustCompile(`(?i)epsg\s*[:=]?\s*(\d+)`)
)

// Determine resolves the SRID for a drawing. Precedence is strict:
// explicit SRID, then companion metadata, then the coordinate-magnitude
// heuristic, then the fallback. The winning source is reported so the
// caller can log why a drawing landed where it did.
func Determine(h Hints) Determination {
	if h.Explicit != 0 {
		return Determination{SRID: h.Explicit, Source: "explicit"}
	}

	if srid := sniffMetadata(h.ProjectionText); srid != 0 {
		return Determination{SRID: srid, Source: "metadata"}
	}

	if srid := boundsHeuristic(h.Bounds); srid != 0 {
		return Determination{SRID: srid, Source: "heuristic"}
	}

	fallback := h.Fallback
	if fallback == 0 {
		fallback = DefaultFallbackSRID
	}
	return Determination{SRID: fallback, Source: "fallback"}
}

// sniffMetadata extracts an SRID from projection metadata text. WKT
// carries nested AUTHORITY clauses; the last one names the whole CRS.
// Named Swiss and global systems are recognized even without an
// authority clause, since older .prj exports often omit it.
func sniffMetadata(text string) int {
	if text == "" {
		return 0
	}

	if ms := authorityRe.FindAllStringSubmatch(text, -1); len(ms) > 0 {
		if srid, err := strconv.Atoi(ms[len(ms)-1][1]); err == nil {
			return srid
		}
	}
	if m := proj4InitRe.FindStringSubmatch(text); m != nil {
		if srid, err := strconv.Atoi(m[1]); err == nil {
			return srid
		}
	}

	upper := strings.ToUpper(text)
	switch {
	case strings.Contains(upper, "LV95") || strings.Contains(upper, "CH1903+"):
		return SRIDLV95
	case strings.Contains(upper, "LV03") || strings.Contains(upper, "CH1903"):
		return SRIDLV03
	case strings.Contains(upper, "PSEUDO-MERCATOR") || strings.Contains(upper, "WEB MERCATOR"):
		return SRIDWebMercator
	case strings.Contains(upper, "WGS 84") || strings.Contains(upper, "WGS84"):
		return SRIDWGS84
	}

	if m := epsgBareRe.FindStringSubmatch(text); m != nil {
		if srid, err := strconv.Atoi(m[1]); err == nil {
			return srid
		}
	}
	return 0
}

// boundsHeuristic guesses the SRID from coordinate magnitudes. Degree
// ranges are unmistakable; the two Swiss grids have disjoint easting
// bands; anything else inside the mercator envelope is taken as 3857.
func boundsHeuristic(b geom.BBox) int {
	if b.IsEmpty() {
		return 0
	}

	maxX := math.Max(math.Abs(b.MinX), math.Abs(b.MaxX))
	maxY := math.Max(math.Abs(b.MinY), math.Abs(b.MaxY))

	switch {
	case maxX <= 180 && maxY <= 90:
		return SRIDWGS84
	case inRange(b.MinX, b.MaxX, 2450000, 2850000) && inRange(b.MinY, b.MaxY, 1050000, 1310000):
		return SRIDLV95
	case inRange(b.MinX, b.MaxX, 450000, 850000) && inRange(b.MinY, b.MaxY, 50000, 310000):
		return SRIDLV03
	case maxX <= 20037509 && maxY <= 20048967:
		return SRIDWebMercator
	default:
		return 0
	}
}

func inRange(lo, hi, min, max float64) bool {
	return lo >= min && hi <= max
}

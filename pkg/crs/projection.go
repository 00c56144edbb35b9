// Package crs determines spatial reference systems and reprojects
// geometry between them.
//
// Supported systems are implemented as closed-form Projection values
// rather than a proj binding: the pipeline only needs WGS84, Web
// Mercator and the Swiss national grids, and the swisstopo approximation
// formulas are accurate to about a metre over the supported area.
package crs

import "math"

// Well-known SRIDs handled by this package.
const (
	SRIDWGS84       = 4326
	SRIDWebMercator = 3857
	SRIDLV95        = 2056 // Swiss CH1903+/LV95 national grid
	SRIDLV03        = 21781
)

// DefaultFallbackSRID is used when every other determination fails. The
// importer's primary corpus is national-grid survey data, so the modern
// Swiss frame is the safest guess.
const DefaultFallbackSRID = SRIDLV95

// Projection converts between a source system and WGS84 degrees.
type Projection interface {
	// ToWGS84 converts source coordinates to longitude/latitude degrees.
	ToWGS84(x, y float64) (lon, lat float64)

	// FromWGS84 converts longitude/latitude degrees to source coordinates.
	FromWGS84(lon, lat float64) (x, y float64)

	// EPSG returns the EPSG code of this projection.
	EPSG() int
}

// ForEPSG returns the Projection for an EPSG code, or nil when the code
// is not supported.
func ForEPSG(epsg int) Projection {
	switch epsg {
	case SRIDWGS84:
		return wgs84Identity{}
	case SRIDWebMercator:
		return webMercator{}
	case SRIDLV95:
		return swissLV95{}
	case SRIDLV03:
		return swissLV03{}
	default:
		return nil
	}
}

// Supported reports whether the package can transform the given SRID.
func Supported(epsg int) bool {
	return ForEPSG(epsg) != nil
}

// wgs84Identity is a no-op projection for data already in EPSG:4326.
type wgs84Identity struct{}

func (wgs84Identity) ToWGS84(x, y float64) (float64, float64)   { return x, y }
func (wgs84Identity) FromWGS84(lon, lat float64) (float64, float64) { return lon, lat }
func (wgs84Identity) EPSG() int                                  { return SRIDWGS84 }

// webMercator implements EPSG:3857 spherical mercator.
type webMercator struct{}

const earthRadius = 6378137.0

// maxMercatorLat is atan(sinh(π)) in degrees, the edge of the square
// spherical-mercator world. Beyond it the projection has no usable
// value; float rounding makes tan(π/2) finite, so the poles must be
// rejected explicitly.
const maxMercatorLat = 85.051128779806604

func (webMercator) ToWGS84(x, y float64) (float64, float64) {
	lon := x / earthRadius * 180 / math.Pi
	lat := (2*math.Atan(math.Exp(y/earthRadius)) - math.Pi/2) * 180 / math.Pi
	return lon, lat
}

func (webMercator) FromWGS84(lon, lat float64) (float64, float64) {
	if math.Abs(lat) > maxMercatorLat {
		return math.NaN(), math.NaN()
	}
	x := lon * math.Pi / 180 * earthRadius
	y := math.Log(math.Tan(math.Pi/4+lat*math.Pi/360)) * earthRadius
	return x, y
}

func (webMercator) EPSG() int { return SRIDWebMercator }

// swissLV95 implements EPSG:2056 with the swisstopo approximation
// formulas (accuracy ~1 m over Switzerland, best near the projection
// center).
type swissLV95 struct{}

func (swissLV95) ToWGS84(e, n float64) (float64, float64) {
	return lv95ToWGS84(e, n)
}

func (swissLV95) FromWGS84(lon, lat float64) (float64, float64) {
	return wgs84ToLV95(lon, lat)
}

func (swissLV95) EPSG() int { return SRIDLV95 }

// swissLV03 implements EPSG:21781, the legacy Swiss grid offset by
// (2 000 000, 1 000 000) from LV95.
type swissLV03 struct{}

func (swissLV03) ToWGS84(y, x float64) (float64, float64) {
	return lv95ToWGS84(y+2000000, x+1000000)
}

func (swissLV03) FromWGS84(lon, lat float64) (float64, float64) {
	e, n := wgs84ToLV95(lon, lat)
	return e - 2000000, n - 1000000
}

func (swissLV03) EPSG() int { return SRIDLV03 }

func lv95ToWGS84(e, n float64) (lon, lat float64) {
	yp := (e - 2600000) / 1e6
	xp := (n - 1200000) / 1e6

	lonU := 2.6779094 +
		4.728982*yp +
		0.791484*yp*xp +
		0.1306*yp*xp*xp -
		0.0436*yp*yp*yp
	latU := 16.9023892 +
		3.238272*xp -
		0.270978*yp*yp -
		0.002528*xp*xp -
		0.0447*yp*yp*xp -
		0.0140*xp*xp*xp

	// Units of 10000" to degrees.
	return lonU * 100 / 36, latU * 100 / 36
}

func wgs84ToLV95(lon, lat float64) (e, n float64) {
	latP := (lat*3600 - 169028.66) / 10000
	lonP := (lon*3600 - 26782.5) / 10000

	e = 2600072.37 +
		211455.93*lonP -
		10938.51*lonP*latP -
		0.36*lonP*latP*latP -
		44.54*lonP*lonP*lonP
	n = 1200147.07 +
		308807.95*latP +
		3745.25*lonP*lonP +
		76.63*latP*latP -
		194.56*lonP*lonP*latP +
		119.79*latP*latP*latP
	return e, n
}

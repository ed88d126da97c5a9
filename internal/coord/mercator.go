// Package coord holds the small amount of ground-to-tile arithmetic the
// dataset collaborator needs. Reprojection itself is out of scope (spec
// §1, §9): callers are expected to hand this engine a raster already
// warped onto a square world of WorldCircumference ground units per
// side, the same convention Web Mercator tiling uses at zoom 0.
package coord

import "math"

// WorldCircumference is the side length, in ground units, of the square
// TMS world at zoom 0. It is the Web Mercator equatorial circumference;
// a dataset in a different flat projection is assumed pre-warped onto a
// world of this size.
const WorldCircumference = 40075016.685578488

// NativeZoom returns the integer zoom at which one source pixel of the
// given ground size covers one tile pixel, for tiles of tileSide pixels.
// Real-world pixel sizes rarely land exactly on a zoom boundary, so the
// result is rounded to the nearest integer zoom.
func NativeZoom(pixelSize float64, tileSide int) int {
	return int(math.Round(math.Log2(WorldCircumference / (float64(tileSide) * pixelSize))))
}

// ResolutionAtZoom returns the ground size of one pixel at the given zoom
// for tiles of tileSide pixels — the inverse of NativeZoom.
func ResolutionAtZoom(zoom, tileSide int) float64 {
	return WorldCircumference / (float64(tileSide) * math.Pow(2, float64(zoom)))
}

// Package geom holds the value types shared by the tile pyramid engine:
// TMS tile addresses, rational offsets, and world extents.
package geom

import "fmt"

// XY is a generic 2-D pair, used both for integer tile coordinates and
// for rational TMS offsets.
type XY struct {
	X, Y float64
}

// Offset expresses the TMS position of the lower-left corner of an image
// in tile units. The fractional part encodes sub-tile alignment; it is
// not coerced to an integer until TMSAlign materialises an image.
type Offset = XY

// Half returns the offset scaled by 1/2, as used when descending one
// pyramid level during downsampling.
func (p XY) Half() XY {
	return XY{X: p.X / 2, Y: p.Y / 2}
}

// Scaled returns the offset scaled by s, as used when ascending levels
// via upsampling.
func (p XY) Scaled(s float64) XY {
	return XY{X: p.X * s, Y: p.Y * s}
}

// Int truncates both components to integers. Callers must only call this
// once the offset is known to be integer-valued (post TMSAlign).
func (p XY) Int() TileAddress2D {
	return TileAddress2D{X: int(p.X), Y: int(p.Y)}
}

// TileAddress2D is an integer (x, y) pair, e.g. a materialised offset.
type TileAddress2D struct {
	X, Y int
}

// TileAddress identifies a single tile in the TMS grid: zoom plus
// integer (x, y) with (0, 0) at the lower-left of the world.
type TileAddress struct {
	Z, X, Y int
}

func (a TileAddress) String() string {
	return fmt.Sprintf("%d/%d-%d", a.Z, a.X, a.Y)
}

// Extent is a world-space bounding box expressed as TMS offsets, used to
// describe a dataset's footprint or the world's own border tiles.
type Extent struct {
	LowerLeft  Offset
	UpperRight Offset
}

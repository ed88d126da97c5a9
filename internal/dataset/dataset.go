// Package dataset defines the Dataset collaborator the tile pyramid
// engine consumes (spec §6): native resolution, world TMS extents, and
// the border tiles surrounding a raster's footprint at a given zoom.
// Raster I/O, reprojection and palette colourisation live entirely
// behind this interface — the pyramid never touches a raster library
// directly.
package dataset

import "github.com/geopyramid/tmspyramid/internal/geom"

// Dataset is the contract the Pyramid orchestrator consumes.
type Dataset interface {
	// NativeResolution returns the zoom at which one source pixel maps
	// to one tile pixel.
	NativeResolution() (int, error)

	// TMSExtents returns the world TMS extents (lower-left, upper-right)
	// of this dataset's footprint, in tile units at native resolution.
	TMSExtents() (geom.Extent, error)

	// WorldTMSBorders returns the (tms_x, tms_y) tiles that lie within
	// the world at the given resolution but outside this dataset's
	// footprint.
	WorldTMSBorders(resolution int) ([]geom.TileAddress2D, error)

	// Close releases any resources held by the dataset.
	Close() error
}

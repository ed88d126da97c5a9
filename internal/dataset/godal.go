package dataset

import (
	"math"

	"github.com/airbusgeo/godal"

	"github.com/geopyramid/tmspyramid/internal/coord"
	"github.com/geopyramid/tmspyramid/internal/errs"
	"github.com/geopyramid/tmspyramid/internal/geom"
)

// GDALDataset backs Dataset with github.com/airbusgeo/godal: GDAL's
// geotransform and raster size tell us the native TMS resolution and
// footprint; everything else (border tiles) is plain grid arithmetic,
// not a geometry-library call.
type GDALDataset struct {
	ds         *godal.Dataset // pointer returned directly by godal.Open
	tileSide   int
	nativeZoom int
	extent     geom.Extent
}

var _ Dataset = (*GDALDataset)(nil)

// Open reads path with GDAL and derives the native resolution and world
// TMS extents once, up front.
func Open(path string, tileSide int) (*GDALDataset, error) {
	ds, err := godal.Open(path, godal.RasterOnly())
	if err != nil {
		return nil, errs.Wrap(errs.EIO, err, "open %s", path)
	}

	gt, err := ds.GeoTransform()
	if err != nil {
		ds.Close()
		return nil, errs.Wrap(errs.EBadInput, err, "%s has no geotransform", path)
	}
	structure := ds.Structure()

	pixelSize := math.Abs(gt[1])
	if pixelSize == 0 {
		ds.Close()
		return nil, errs.New(errs.EBadInput, "%s has a zero-width pixel", path)
	}

	nativeZoom := coord.NativeZoom(pixelSize, tileSide)

	// GDAL's actual pixel size must land close to the TMS resolution at
	// the zoom it rounded to; a raster whose pixels don't line up with
	// any zoom's world division would drift from its nominal ground
	// footprint by more each level the pyramid climbs or descends.
	if want := coord.ResolutionAtZoom(nativeZoom, tileSide); math.Abs(pixelSize-want)/want > 0.01 {
		ds.Close()
		return nil, errs.New(errs.EBadInput,
			"%s pixel size %.6f doesn't align to a TMS zoom (nearest zoom %d implies %.6f)",
			path, pixelSize, nativeZoom, want)
	}

	minX := gt[0]
	maxY := gt[3]
	maxX := minX + float64(structure.SizeX)*gt[1]
	minY := maxY + float64(structure.SizeY)*gt[5] // gt[5] is negative for north-up rasters

	tileWorld := pixelSize * float64(tileSide)
	origin := coord.WorldCircumference / 2

	extent := geom.Extent{
		LowerLeft:  geom.Offset{X: (minX + origin) / tileWorld, Y: (minY + origin) / tileWorld},
		UpperRight: geom.Offset{X: (maxX + origin) / tileWorld, Y: (maxY + origin) / tileWorld},
	}

	return &GDALDataset{
		ds:         ds,
		tileSide:   tileSide,
		nativeZoom: nativeZoom,
		extent:     extent,
	}, nil
}

func (d *GDALDataset) NativeResolution() (int, error) {
	return d.nativeZoom, nil
}

func (d *GDALDataset) TMSExtents() (geom.Extent, error) {
	return d.extent, nil
}

// WorldTMSBorders returns every tile at resolution outside the dataset's
// footprint, scaled from the native-resolution extent.
func (d *GDALDataset) WorldTMSBorders(resolution int) ([]geom.TileAddress2D, error) {
	n := 1 << uint(resolution)
	scale := math.Pow(2, float64(resolution-d.nativeZoom))

	minX := int(math.Floor(d.extent.LowerLeft.X * scale))
	minY := int(math.Floor(d.extent.LowerLeft.Y * scale))
	maxX := int(math.Ceil(d.extent.UpperRight.X*scale)) - 1
	maxY := int(math.Ceil(d.extent.UpperRight.Y*scale)) - 1

	var borders []geom.TileAddress2D
	for y := 0; y < n; y++ {
		for x := 0; x < n; x++ {
			if x >= minX && x <= maxX && y >= minY && y <= maxY {
				continue // inside the footprint
			}
			borders = append(borders, geom.TileAddress2D{X: x, Y: y})
		}
	}
	return borders, nil
}

func (d *GDALDataset) Close() error {
	d.ds.Close()
	return nil
}

// Package imageops implements the corner-aligned resampling chain the
// tile pyramid depends on: shrink, stretch, embed, extract_area and
// tms_align, all built on top of the internal/kernel adaptor. This is
// the part of the system where correctness hinges on sub-pixel affine
// alignment (spec §4.1).
package imageops

import (
	"io"
	"math"

	"github.com/geopyramid/tmspyramid/internal/errs"
	"github.com/geopyramid/tmspyramid/internal/geom"
	"github.com/geopyramid/tmspyramid/internal/kernel"
)

// Ops wraps a kernel.Kernel with the pyramid's geometry-aware operations.
type Ops struct {
	K kernel.Kernel
}

// New returns an Ops backed by k.
func New(k kernel.Kernel) *Ops {
	return &Ops{K: k}
}

// Open decodes an image file.
func (o *Ops) Open(path string) (kernel.Image, error) {
	img, err := o.K.Open(path)
	if err != nil {
		return nil, errs.Wrap(errs.EBadInput, err, "open %s", path)
	}
	return img, nil
}

// scale applies the corner-aligned affine of spec §4.1:
//
//	X = sx*x + (sx-1)/2
//	Y = sy*y + (sy-1)/2
//
// which sends the input corners at (-0.5,-0.5)..(n-0.5,m-0.5) to the
// output corners at (-0.5,-0.5)..(N-0.5,M-0.5), avoiding extrapolation
// at the boundary.
func (o *Ops) scale(img kernel.Image, sx, sy float64) (kernel.Image, error) {
	outW := int(math.Floor(float64(img.Width()) * sx))
	outH := int(math.Floor(float64(img.Height()) * sy))

	offsetX := (sx - 1) / 2
	offsetY := (sy - 1) / 2

	out, err := o.K.Affine(img, sx, 0, 0, sy, offsetX, offsetY, outW, outH)
	if err != nil {
		return nil, errs.Wrap(errs.EInternal, err, "affine scale %vx%v", sx, sy)
	}
	return out, nil
}

// Shrink returns an image scaled down by (sx, sy), both in (0, 1].
func (o *Ops) Shrink(img kernel.Image, sx, sy float64) (kernel.Image, error) {
	if !(sx > 0 && sx <= 1) || !(sy > 0 && sy <= 1) {
		return nil, errs.New(errs.ERangeScale, "shrink scale (%v, %v) must be in (0, 1]", sx, sy)
	}
	return o.scale(img, sx, sy)
}

// Stretch returns an image scaled up by (sx, sy), both >= 1. To avoid
// black borders from interpolation near the edge, the image is first
// embedded in a 1-pixel extend-filled frame, scaled, then cropped back
// to the enlarged inner region (spec §4.1).
func (o *Ops) Stretch(img kernel.Image, sx, sy float64) (kernel.Image, error) {
	if sx < 1 || sy < 1 {
		return nil, errs.New(errs.ERangeScale, "stretch scale (%v, %v) must be >= 1", sx, sy)
	}

	const border = 1
	extended, err := o.Embed(img, kernel.FillExtend, border, border,
		img.Width()+2*border, img.Height()+2*border)
	if err != nil {
		return nil, err
	}

	stretched, err := o.scale(extended, sx, sy)
	if err != nil {
		return nil, err
	}

	left := int(float64(border) * sx)
	top := int(float64(border) * sy)
	width := int(float64(img.Width()) * sx)
	height := int(float64(img.Height()) * sy)

	return o.ExtractArea(stretched, left, top, width, height)
}

// Embed places img on a canvas of the given size at (left, top), filling
// the remainder according to fill.
func (o *Ops) Embed(img kernel.Image, fill kernel.FillMode, left, top, width, height int) (kernel.Image, error) {
	out, err := o.K.Embed(img, fill, left, top, width, height)
	if err != nil {
		return nil, errs.Wrap(errs.EInternal, err, "embed")
	}
	return out, nil
}

// ExtractArea crops a region out of img.
func (o *Ops) ExtractArea(img kernel.Image, left, top, width, height int) (kernel.Image, error) {
	out, err := o.K.ExtractArea(img, left, top, width, height)
	if err != nil {
		return nil, errs.Wrap(errs.EInternal, err, "extract_area")
	}
	return out, nil
}

// TMSAlign pads img so its dimensions are a whole number of T-pixel
// tiles and its lower-left tile aligns with integer TMS coordinates, per
// the formula in spec §4.1. offset is the TMS position (in tile units)
// of the lower-left corner of img; it need not be integer-valued.
func (o *Ops) TMSAlign(img kernel.Image, t int, offset geom.Offset) (kernel.Image, error) {
	x := int(math.Round(offset.X*float64(t))) % t
	if x < 0 {
		x += t
	}
	y := (img.Height() - int(math.Round(offset.Y*float64(t)))) % t
	if y < 0 {
		y += t
	}

	tilesX := int(math.Ceil(float64(img.Width()+x/2) / float64(t)))
	tilesY := int(math.Ceil(float64(img.Height()+y/2) / float64(t)))

	width := tilesX * t
	height := tilesY * t

	if width == img.Width() && height == img.Height() {
		if x != 0 || y != 0 {
			return nil, errs.New(errs.EInternal, "tms_align: unchanged size but nonzero pad (%d, %d)", x, y)
		}
		return img, nil
	}

	return o.Embed(img, kernel.FillBlack, x, y, width, height)
}

// EncodePNG writes img as a PNG to w.
func (o *Ops) EncodePNG(img kernel.Image, w io.Writer) error {
	if err := o.K.EncodePNG(img, w); err != nil {
		return errs.Wrap(errs.EInternal, err, "encode_png")
	}
	return nil
}

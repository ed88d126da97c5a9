package kernel

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"
	"os"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/math/f64"
	_ "golang.org/x/image/tiff" // registers the TIFF decoder for GeoTIFF inputs
)

// XDrawKernel is the default Kernel implementation, backed by the
// standard library's image/draw plus golang.org/x/image/draw for the
// corner-aligned affine resample. Every Image it returns is a *nrgba.
type XDrawKernel struct {
	pool *bufferPool
}

// NewXDrawKernel constructs the default kernel. tileSide is the pyramid's
// tile side in pixels: buffers of exactly tileSide x tileSide — the
// overwhelming majority of allocations in a run — recycle through a
// dedicated pool; other sizes (whole-level images) use a slower fallback. There
// is no process-wide state beyond the pool to initialise: unlike a
// libvips-backed kernel, x/image/draw's transform loop runs on the
// calling goroutine, so there is no global concurrency knob to set once
// at startup (see DESIGN.md).
func NewXDrawKernel(tileSide int) *XDrawKernel {
	return &XDrawKernel{pool: newBufferPool(tileSide)}
}

var _ Kernel = (*XDrawKernel)(nil)

// nrgba wraps *image.NRGBA to satisfy Image.
type nrgba struct {
	img *image.NRGBA
}

func (n *nrgba) Width() int  { return n.img.Rect.Dx() }
func (n *nrgba) Height() int { return n.img.Rect.Dy() }
func (n *nrgba) Bands() int  { return 4 }

func (n *nrgba) PixelsBytes() []byte {
	// Rows may be padded with a Stride larger than width*4 (e.g. after
	// SubImage); copy row-by-row to produce a tightly packed buffer so
	// the content hash only ever sees decoded pixels, never stride slack.
	w, h := n.Width(), n.Height()
	rowBytes := w * 4
	out := make([]byte, rowBytes*h)
	for y := 0; y < h; y++ {
		src := n.img.Pix[y*n.img.Stride : y*n.img.Stride+rowBytes]
		copy(out[y*rowBytes:(y+1)*rowBytes], src)
	}
	return out
}

func asNRGBA(img Image) (*nrgba, error) {
	n, ok := img.(*nrgba)
	if !ok {
		return nil, fmt.Errorf("kernel: image handle %T not produced by XDrawKernel", img)
	}
	return n, nil
}

// Open decodes any stdlib-registered image format and normalizes it to
// NRGBA so downstream ops have a single pixel layout to reason about.
func (k *XDrawKernel) Open(path string) (Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("kernel: open %s: %w", path, err)
	}
	defer f.Close()

	src, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("kernel: decode %s: %w", path, err)
	}

	b := src.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Src)
	return &nrgba{img: dst}, nil
}

// NewRGBA returns a transparent (or ink-filled) canvas.
func (k *XDrawKernel) NewRGBA(width, height int, ink *RGBA) Image {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	if ink != nil {
		c := color.NRGBA{R: ink.R, G: ink.G, B: ink.B, A: ink.A}
		draw.Draw(img, img.Bounds(), &image.Uniform{C: c}, image.Point{}, draw.Src)
	}
	return &nrgba{img: img}
}

// Affine resamples img through the forward mapping
// X = a*x + b*y + tx, Y = c*x + d*y + ty, writing an outW x outH result.
// Bilinear interpolation matches the box-filter expectations of
// ImageOps.Shrink/Stretch (spec §4.1); pixels that fall outside the
// source stay transparent.
func (k *XDrawKernel) Affine(img Image, a, b, c, d, tx, ty float64, outW, outH int) (Image, error) {
	src, err := asNRGBA(img)
	if err != nil {
		return nil, err
	}

	dst := k.pool.get(outW, outH)

	// x/image/draw's Transform takes the matrix mapping *source* space
	// into *destination* space, which is exactly the forward,
	// corner-aligned mapping ImageOps builds.
	m := f64.Aff3{a, b, tx, c, d, ty}
	xdraw.BiLinear.Transform(dst, m, src.img, src.img.Bounds(), xdraw.Src, nil)

	return &nrgba{img: dst}, nil
}

// Embed places img at (left, top) on a width x height canvas, filling the
// remainder according to fill.
func (k *XDrawKernel) Embed(img Image, fill FillMode, left, top, width, height int) (Image, error) {
	src, err := asNRGBA(img)
	if err != nil {
		return nil, err
	}

	dst := k.pool.get(width, height)
	fillCanvas(dst, src.img, fill, left, top)
	draw.Draw(dst, image.Rect(left, top, left+src.Width(), top+src.Height()), src.img, image.Point{}, draw.Src)
	return &nrgba{img: dst}, nil
}

// fillCanvas paints the portion of dst outside the (left,top)-placed
// source rectangle, per fill mode. Black/white are uniform fills;
// extend/mirror/tile sample from src's edges.
func fillCanvas(dst *image.NRGBA, src *image.NRGBA, fill FillMode, left, top int) {
	sw, sh := src.Rect.Dx(), src.Rect.Dy()
	switch fill {
	case FillWhite:
		draw.Draw(dst, dst.Bounds(), &image.Uniform{C: color.NRGBA{255, 255, 255, 255}}, image.Point{}, draw.Src)
		return
	case FillBlack:
		// Zero value is already fully transparent/black; nothing to do.
		return
	}

	// Extend, mirror and tile all need a source pixel for every
	// destination pixel outside the placed rectangle.
	b := dst.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if x >= left && x < left+sw && y >= top && y < top+sh {
				continue // inside the placed rectangle; overwritten by the caller
			}
			sx, sy := x-left, y-top
			switch fill {
			case FillExtend:
				sx = clamp(sx, 0, sw-1)
				sy = clamp(sy, 0, sh-1)
			case FillMirror:
				sx = mirror(sx, sw)
				sy = mirror(sy, sh)
			case FillTile:
				sx = wrap(sx, sw)
				sy = wrap(sy, sh)
			default:
				continue
			}
			dst.SetNRGBA(x, y, src.NRGBAAt(src.Rect.Min.X+sx, src.Rect.Min.Y+sy))
		}
	}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func wrap(v, n int) int {
	v %= n
	if v < 0 {
		v += n
	}
	return v
}

func mirror(v, n int) int {
	if n <= 1 {
		return 0
	}
	period := 2 * n
	v %= period
	if v < 0 {
		v += period
	}
	if v < n {
		return v
	}
	return period - v - 1
}

// ExtractArea crops a left,top,width,height rectangle out of img.
func (k *XDrawKernel) ExtractArea(img Image, left, top, width, height int) (Image, error) {
	src, err := asNRGBA(img)
	if err != nil {
		return nil, err
	}
	r := image.Rect(src.img.Rect.Min.X+left, src.img.Rect.Min.Y+top,
		src.img.Rect.Min.X+left+width, src.img.Rect.Min.Y+top+height)
	if !r.In(src.img.Rect) {
		return nil, fmt.Errorf("kernel: extract_area %v out of bounds %v", r, src.img.Rect)
	}

	dst := k.pool.get(width, height)
	draw.Draw(dst, dst.Bounds(), src.img, r.Min, draw.Src)
	return &nrgba{img: dst}, nil
}

// Release returns img's pixel buffer to the allocation pool.
func (k *XDrawKernel) Release(img Image) {
	n, err := asNRGBA(img)
	if err != nil {
		return
	}
	k.pool.put(n.img)
}

// EncodePNG writes an 8-bit RGBA PNG.
func (k *XDrawKernel) EncodePNG(img Image, w io.Writer) error {
	src, err := asNRGBA(img)
	if err != nil {
		return err
	}
	enc := &png.Encoder{CompressionLevel: png.BestSpeed}
	return enc.Encode(w, src.img)
}

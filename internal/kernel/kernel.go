// Package kernel defines the image-kernel collaborator the tile pyramid
// engine consumes: affine transforms, embedding with edge fills, area
// extraction, and PNG encoding. Callers never reach into a concrete
// image library directly — every core operation in internal/imageops
// goes through this interface, so the backing library can be swapped
// without touching the pyramid logic.
package kernel

import "io"

// FillMode selects how Embed fills the region around a placed image.
type FillMode int

const (
	// FillBlack fills bands with 0 (fully transparent for RGBA).
	FillBlack FillMode = iota
	// FillExtend extends the edge pixels of the source image outward.
	FillExtend
	// FillTile repeats the source image like a tile pattern.
	FillTile
	// FillMirror mirrors the source image at its edges.
	FillMirror
	// FillWhite fills bands with 255.
	FillWhite
)

// Image is an opaque handle returned by every Kernel operation. It
// carries no exported state; callers pass it back into Kernel methods.
type Image interface {
	// Width returns the image width in pixels.
	Width() int
	// Height returns the image height in pixels.
	Height() int
	// Bands returns the number of channels (always 4 for this engine).
	Bands() int
	// PixelsBytes returns the decoded pixel buffer, row-major, tightly
	// packed. Used by the content-addressing hash — never mutated.
	PixelsBytes() []byte
}

// Kernel is the single interface the tile pyramid engine consumes from
// an image library. Every method returns a fresh logical image handle;
// implementations may defer computation.
type Kernel interface {
	// Open decodes an image file from disk.
	Open(path string) (Image, error)

	// NewRGBA creates a transparent width x height RGBA canvas. If ink is
	// non-nil, the whole canvas is filled with that color instead.
	NewRGBA(width, height int, ink *RGBA) Image

	// Affine applies the 2x2 matrix [[a,b],[c,d]] plus translation
	// (tx, ty) to img, producing an outW x outH result. The matrix and
	// translation are interpreted as a forward mapping from input pixel
	// coordinates to output pixel coordinates, exactly as in the
	// corner-aligned affine of spec §4.1.
	Affine(img Image, a, b, c, d, tx, ty float64, outW, outH int) (Image, error)

	// Embed places img inside a canvas of the given size at (left, top),
	// filling the remainder per fill.
	Embed(img Image, fill FillMode, left, top, width, height int) (Image, error)

	// ExtractArea crops a left,top,width,height region out of img.
	ExtractArea(img Image, left, top, width, height int) (Image, error)

	// EncodePNG writes img to w as an 8-bit RGBA PNG.
	EncodePNG(img Image, w io.Writer) error

	// Release returns img's backing buffer to the kernel's allocation
	// pool. Callers must not use img again afterward. Images that are
	// reused across multiple calls (e.g. a shared canonical tile) must
	// never be released.
	Release(img Image)
}

// RGBA is a plain 8-bit-per-channel color, independent of image/color so
// that Kernel's signature does not leak a stdlib image type.
type RGBA struct {
	R, G, B, A uint8
}

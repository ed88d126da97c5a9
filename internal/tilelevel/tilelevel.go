// Package tilelevel implements TileLevel (spec §4.2): an aligned image
// at one TMS resolution, plus the offset of its lower-left corner, that
// knows how to slice itself into per-tile Storage submissions and how to
// derive the next level up or down the pyramid.
package tilelevel

import (
	"github.com/geopyramid/tmspyramid/internal/errs"
	"github.com/geopyramid/tmspyramid/internal/geom"
	"github.com/geopyramid/tmspyramid/internal/imageops"
	"github.com/geopyramid/tmspyramid/internal/kernel"
	"github.com/geopyramid/tmspyramid/internal/storage"
)

// Level is (image, offset, resolution), immutable once created and
// consumed exactly once by Slice.
type Level struct {
	ops      *imageops.Ops
	storage  *storage.Storage
	tileSide int

	Image      kernel.Image
	Offset     geom.Offset
	Resolution int

	// OnTile, if set, is called after each tile is submitted to Storage.
	// Callers use it to drive progress reporting; Slice calls it
	// synchronously, so it should return quickly.
	OnTile func()
}

// New wraps an image as a Level without aligning it. Downsample and
// Upsample align their results via Ops.TMSAlign; for a Level built from
// scratch (the native resolution), Slice rejects an image whose sides are
// not a whole number of tiles.
func New(ops *imageops.Ops, store *storage.Storage, tileSide int, img kernel.Image, offset geom.Offset, resolution int) *Level {
	return &Level{
		ops:      ops,
		storage:  store,
		tileSide: tileSide,
		Image:    img,
		Offset:   offset,
		Resolution: resolution,
	}
}

// Slice extracts every T x T tile from l.Image and submits it to
// Storage, converting the top-left pixel grid into TMS addresses per
// spec §4.2:
//
//	tms_x = x/T + offset.x
//	tms_y = (H-y)/T + offset.y - 1
func (l *Level) Slice() error {
	t := l.tileSide
	w, h := l.Image.Width(), l.Image.Height()

	if w%t != 0 {
		return errs.New(errs.EUnalignedInput, "image width %d is not a whole number of %d-pixel tiles", w, t)
	}
	if h%t != 0 {
		return errs.New(errs.EUnalignedInput, "image height %d is not a whole number of %d-pixel tiles", h, t)
	}

	origin := l.Offset.Int()

	for y := 0; y < h; y += t {
		for x := 0; x < w; x += t {
			tile, err := l.ops.ExtractArea(l.Image, x, y, t, t)
			if err != nil {
				return err
			}

			tmsX := x/t + origin.X
			tmsY := (h-y)/t + origin.Y - 1

			if err := l.storage.Save(l.Resolution, tmsX, tmsY, tile); err != nil {
				return err
			}
			if l.OnTile != nil {
				l.OnTile()
			}
		}
	}
	return nil
}

// TileCount returns the number of tiles Slice will submit, for callers
// that want to size a progress display before calling Slice.
func (l *Level) TileCount() int {
	return (l.Image.Width() / l.tileSide) * (l.Image.Height() / l.tileSide)
}

// FillBorders submits the canonical transparent tile for every address
// in borders, at this level's resolution.
func (l *Level) FillBorders(borders []geom.TileAddress2D) error {
	for _, b := range borders {
		if err := l.storage.SaveBorder(b.X, b.Y, l.Resolution); err != nil {
			return err
		}
	}
	return nil
}

// Downsample halves the image levels times, one resolution at a time.
// The iteration (rather than a single 2^-levels shrink) is essential:
// compounding half-shrinks preserves the box-filter property at each
// step and keeps every intermediate level tile-aligned (spec §4.2).
func (l *Level) Downsample(levels int) (*Level, error) {
	cur := l
	for i := 0; i < levels; i++ {
		offset := cur.Offset.Half()

		shrunk, err := cur.ops.Shrink(cur.Image, 0.5, 0.5)
		if err != nil {
			return nil, err
		}
		aligned, err := cur.ops.TMSAlign(shrunk, cur.tileSide, offset)
		if err != nil {
			return nil, err
		}

		cur = New(cur.ops, cur.storage, cur.tileSide, aligned, offset, cur.Resolution-1)
	}
	return cur, nil
}

// Upsample stretches the image by 2^levels in a single shot. Per-tile
// upsampling is forbidden — it produces visible seams at tile
// boundaries — so the entire level is stretched as one image before
// slicing (spec §4.2).
func (l *Level) Upsample(levels int) (*Level, error) {
	scale := float64(int(1) << uint(levels))

	offset := l.Offset.Scaled(scale)

	stretched, err := l.ops.Stretch(l.Image, scale, scale)
	if err != nil {
		return nil, err
	}
	aligned, err := l.ops.TMSAlign(stretched, l.tileSide, offset)
	if err != nil {
		return nil, err
	}

	return New(l.ops, l.storage, l.tileSide, aligned, offset, l.Resolution+levels), nil
}

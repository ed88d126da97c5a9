package kernel

import (
	"image"
	"sync"
)

// bufferPool recycles *image.NRGBA backing buffers for one XDrawKernel.
// Nearly every allocation in a pyramid run is exactly tileSide x
// tileSide — one full tile's worth of pixels, produced by the ExtractArea
// call Slice makes for every tile. The exceptions are the few whole-level
// images that Affine, Embed and Stretch's crop produce once per level.
// The tile-sized case gets its own sync.Pool with no map indirection;
// anything else falls back to a pool keyed by dimension.
type bufferPool struct {
	tileSide int
	tiles    sync.Pool
	odd      sync.Map // map[oddSize]*sync.Pool
}

type oddSize struct{ w, h int }

func newBufferPool(tileSide int) *bufferPool {
	return &bufferPool{tileSide: tileSide}
}

// get returns a zeroed w x h *image.NRGBA, from the pool if one is
// available, freshly allocated otherwise.
func (p *bufferPool) get(w, h int) *image.NRGBA {
	if w == p.tileSide && h == p.tileSide {
		if v := p.tiles.Get(); v != nil {
			img := v.(*image.NRGBA)
			clear(img.Pix)
			return img
		}
		return image.NewNRGBA(image.Rect(0, 0, w, h))
	}

	key := oddSize{w, h}
	if sp, ok := p.odd.Load(key); ok {
		if v := sp.(*sync.Pool).Get(); v != nil {
			img := v.(*image.NRGBA)
			clear(img.Pix)
			return img
		}
	}
	return image.NewNRGBA(image.Rect(0, 0, w, h))
}

// put returns img for reuse. Callers must not touch img again afterward.
func (p *bufferPool) put(img *image.NRGBA) {
	if img == nil {
		return
	}
	w, h := img.Rect.Dx(), img.Rect.Dy()
	if w == p.tileSide && h == p.tileSide {
		p.tiles.Put(img)
		return
	}
	key := oddSize{w, h}
	sp, _ := p.odd.LoadOrStore(key, &sync.Pool{})
	sp.(*sync.Pool).Put(img)
}

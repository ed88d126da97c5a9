package pyramid

import (
	"io"
	"testing"

	"github.com/geopyramid/tmspyramid/internal/errs"
	"github.com/geopyramid/tmspyramid/internal/geom"
	"github.com/geopyramid/tmspyramid/internal/imageops"
	"github.com/geopyramid/tmspyramid/internal/kernel"
	"github.com/geopyramid/tmspyramid/internal/storage"
)

type fakeImage struct{ w, h int }

func (f *fakeImage) Width() int          { return f.w }
func (f *fakeImage) Height() int         { return f.h }
func (f *fakeImage) Bands() int          { return 4 }
func (f *fakeImage) PixelsBytes() []byte { return []byte{byte(f.w), byte(f.h)} }

type fakeKernel struct{}

func (k *fakeKernel) Open(path string) (kernel.Image, error) { return &fakeImage{w: 8, h: 8}, nil }
func (k *fakeKernel) NewRGBA(width, height int, ink *kernel.RGBA) kernel.Image {
	return &fakeImage{w: width, h: height}
}
func (k *fakeKernel) Affine(img kernel.Image, a, b, c, d, tx, ty float64, outW, outH int) (kernel.Image, error) {
	return &fakeImage{w: outW, h: outH}, nil
}
func (k *fakeKernel) Embed(img kernel.Image, fill kernel.FillMode, left, top, width, height int) (kernel.Image, error) {
	return &fakeImage{w: width, h: height}, nil
}
func (k *fakeKernel) ExtractArea(img kernel.Image, left, top, width, height int) (kernel.Image, error) {
	return &fakeImage{w: width, h: height}, nil
}
func (k *fakeKernel) EncodePNG(img kernel.Image, w io.Writer) error {
	_, err := w.Write(img.PixelsBytes())
	return err
}
func (k *fakeKernel) Release(img kernel.Image) {}

// fakeDataset is a dataset.Dataset that reports no border tiles at any
// zoom, so FillBorders never submits anything.
type fakeDataset struct {
	nativeZoom int
}

func (d *fakeDataset) NativeResolution() (int, error) { return d.nativeZoom, nil }
func (d *fakeDataset) TMSExtents() (geom.Extent, error) {
	return geom.Extent{LowerLeft: geom.Offset{X: 0, Y: 0}, UpperRight: geom.Offset{X: 1, Y: 1}}, nil
}
func (d *fakeDataset) WorldTMSBorders(resolution int) ([]geom.TileAddress2D, error) {
	return nil, nil
}
func (d *fakeDataset) Close() error { return nil }

func newTestPyramid(t *testing.T, nativeZoom int, minRes, maxRes *int) *Pyramid {
	t.Helper()
	dir := t.TempDir()
	ops := imageops.New(&fakeKernel{})
	store := storage.New(storage.Config{OutputDir: dir, TileSide: 4, Concurrency: 2}, ops)
	ds := &fakeDataset{nativeZoom: nativeZoom}
	return New(Config{
		InputFile:     "fake.tif",
		TileSide:      4,
		MinResolution: minRes,
		MaxResolution: maxRes,
	}, ds, ops, store)
}

func intp(v int) *int { return &v }

func TestSliceNativeOnly(t *testing.T) {
	p := newTestPyramid(t, 3, nil, nil)
	if err := p.Slice(); err != nil {
		t.Fatalf("Slice: %v", err)
	}
}

func TestSliceDownsampleAndUpsample(t *testing.T) {
	p := newTestPyramid(t, 3, intp(1), intp(5))
	if err := p.Slice(); err != nil {
		t.Fatalf("Slice: %v", err)
	}
}

func TestValidateResolutionsRejectsMinAboveNative(t *testing.T) {
	p := newTestPyramid(t, 3, intp(3), nil)
	err := p.Slice()
	if !errs.Is(err, errs.EBadResolution) {
		t.Fatalf("expected EBadResolution, got %v", err)
	}
}

func TestValidateResolutionsRejectsMaxBelowNative(t *testing.T) {
	p := newTestPyramid(t, 3, nil, intp(2))
	err := p.Slice()
	if !errs.Is(err, errs.EBadResolution) {
		t.Fatalf("expected EBadResolution, got %v", err)
	}
}

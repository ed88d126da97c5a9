package progress

import (
	"io"
	"testing"
	"time"

	"github.com/geopyramid/tmspyramid/internal/imageops"
	"github.com/geopyramid/tmspyramid/internal/kernel"
	"github.com/geopyramid/tmspyramid/internal/storage"
)

// fakeImage and fakeKernel give the storage instance under test something
// to hash and encode without a real codec.
type fakeImage struct {
	w, h  int
	pixel []byte
}

func (f *fakeImage) Width() int          { return f.w }
func (f *fakeImage) Height() int         { return f.h }
func (f *fakeImage) Bands() int          { return 4 }
func (f *fakeImage) PixelsBytes() []byte { return f.pixel }

type fakeKernel struct{}

func (k *fakeKernel) Open(path string) (kernel.Image, error) { return nil, nil }
func (k *fakeKernel) NewRGBA(width, height int, ink *kernel.RGBA) kernel.Image {
	return &fakeImage{w: width, h: height, pixel: make([]byte, width*height*4)}
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
	f := img.(*fakeImage)
	_, err := w.Write(f.pixel)
	return err
}
func (k *fakeKernel) Release(img kernel.Image) {}

func TestSubmitIsConcurrencySafe(t *testing.T) {
	m := storage.NewMetrics()
	r := NewLevel(3, 100, m)
	defer r.Finish()

	done := make(chan struct{})
	for i := 0; i < 10; i++ {
		go func() {
			for j := 0; j < 10; j++ {
				r.Submit()
			}
			done <- struct{}{}
		}()
	}
	for i := 0; i < 10; i++ {
		<-done
	}

	if got := r.submitted.Load(); got != 100 {
		t.Errorf("submitted = %d, want 100", got)
	}
}

// TestBaselineIsolatesThisLevelsWrites writes one tile before a
// LevelReporter exists (simulating a prior zoom level) and one after,
// and checks the reporter's baseline excludes the first.
func TestBaselineIsolatesThisLevelsWrites(t *testing.T) {
	s := storage.New(storage.Config{OutputDir: t.TempDir(), TileSide: 4, Concurrency: 1}, imageops.New(&fakeKernel{}))

	priorLevel := &fakeImage{w: 4, h: 4, pixel: []byte{1, 1, 1, 1}}
	if err := s.Save(0, 0, 0, priorLevel); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := s.WaitAll(); err != nil {
		t.Fatalf("WaitAll: %v", err)
	}

	r := NewLevel(1, 1, s.Metrics())
	defer r.Finish()
	if r.baseline.Written != 1 {
		t.Fatalf("baseline.Written = %d, want 1 (prior level's write already counted)", r.baseline.Written)
	}

	thisLevel := &fakeImage{w: 4, h: 4, pixel: []byte{2, 2, 2, 2}}
	if err := s.Save(1, 0, 0, thisLevel); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := s.WaitAll(); err != nil {
		t.Fatalf("WaitAll: %v", err)
	}

	if got := s.Metrics().Snapshot().Written - r.baseline.Written; got != 1 {
		t.Fatalf("this level's write delta = %d, want 1", got)
	}
}

func TestFormatDuration(t *testing.T) {
	cases := map[int64]string{
		0:   "0s",
		45:  "45s",
		83:  "1m23s",
		125: "2m05s",
	}
	for secs, want := range cases {
		got := formatDuration(time.Duration(secs) * time.Second)
		if got != want {
			t.Errorf("formatDuration(%ds) = %q, want %q", secs, got, want)
		}
	}
}

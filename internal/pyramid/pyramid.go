// Package pyramid implements the orchestrator (spec §4.4): it reads
// dataset metadata, builds the native-resolution TileLevel, then walks
// downward via iterative half-shrinks and upward via a single stretch
// per zoom, slicing every level through Storage.
package pyramid

import (
	"go.uber.org/zap"

	"github.com/geopyramid/tmspyramid/internal/dataset"
	"github.com/geopyramid/tmspyramid/internal/errs"
	"github.com/geopyramid/tmspyramid/internal/imageops"
	"github.com/geopyramid/tmspyramid/internal/progress"
	"github.com/geopyramid/tmspyramid/internal/storage"
	"github.com/geopyramid/tmspyramid/internal/tilelevel"
)

// Config controls one pyramid run.
type Config struct {
	InputFile     string
	TileSide      int
	MinResolution *int // nil: don't downsample
	MaxResolution *int // nil: don't upsample
	Log           *zap.Logger
	ShowProgress  bool // print a terminal progress bar per level to stderr
}

// Pyramid slices one input raster into a TMS tile pyramid.
type Pyramid struct {
	cfg     Config
	ds      dataset.Dataset
	ops     *imageops.Ops
	storage *storage.Storage
	log     *zap.Logger
}

// New builds a Pyramid. ds, ops and store are the dataset, image-kernel
// and storage collaborators; the dataset and the kernel behind ops are
// reached only through their interfaces.
func New(cfg Config, ds dataset.Dataset, ops *imageops.Ops, store *storage.Storage) *Pyramid {
	log := cfg.Log
	if log == nil {
		log = zap.NewNop()
	}
	return &Pyramid{cfg: cfg, ds: ds, ops: ops, storage: store, log: log}
}

// Slice runs the full algorithm of spec §4.4 and blocks until every tile
// is durable on disk.
func (p *Pyramid) Slice() error {
	nativeZoom, err := p.ds.NativeResolution()
	if err != nil {
		return errs.Wrap(errs.EInternal, err, "native resolution")
	}

	if err := p.validateResolutions(nativeZoom); err != nil {
		return err
	}

	native, err := p.sliceNative(nativeZoom)
	if err != nil {
		return err
	}

	if p.cfg.MinResolution != nil {
		if err := p.sliceDownsample(native, nativeZoom, *p.cfg.MinResolution); err != nil {
			return err
		}
	}

	if p.cfg.MaxResolution != nil {
		if err := p.sliceUpsample(native, nativeZoom, *p.cfg.MaxResolution); err != nil {
			return err
		}
	}

	return p.storage.WaitAll()
}

// sliceNative builds the native-resolution TileLevel, fills its borders
// and slices it.
func (p *Pyramid) sliceNative(nativeZoom int) (*tilelevel.Level, error) {
	img, err := p.ops.Open(p.cfg.InputFile)
	if err != nil {
		return nil, err
	}

	extent, err := p.ds.TMSExtents()
	if err != nil {
		return nil, errs.Wrap(errs.EInternal, err, "tms extents")
	}

	level := tilelevel.New(p.ops, p.storage, p.cfg.TileSide, img, extent.LowerLeft, nativeZoom)

	if level.Image.Width()%p.cfg.TileSide != 0 || level.Image.Height()%p.cfg.TileSide != 0 {
		return nil, errs.New(errs.EUnalignedInput,
			"native image %dx%d is not a whole number of %d-pixel tiles",
			level.Image.Width(), level.Image.Height(), p.cfg.TileSide)
	}

	borders, err := p.ds.WorldTMSBorders(nativeZoom)
	if err != nil {
		return nil, errs.Wrap(errs.EInternal, err, "world tms borders at zoom %d", nativeZoom)
	}
	if err := level.FillBorders(borders); err != nil {
		return nil, err
	}

	if err := p.sliceLevel(level); err != nil {
		return nil, err
	}

	p.log.Info("sliced native resolution", zap.Int("zoom", nativeZoom))
	return level, nil
}

// sliceDownsample walks from nativeZoom-1 down to minResolution, one
// level at a time, downsampling from the previous level each step.
func (p *Pyramid) sliceDownsample(native *tilelevel.Level, nativeZoom, minResolution int) error {
	tiles := native
	for z := nativeZoom - 1; z >= minResolution; z-- {
		down, err := tiles.Downsample(1)
		if err != nil {
			return err
		}
		borders, err := p.ds.WorldTMSBorders(z)
		if err != nil {
			return errs.Wrap(errs.EInternal, err, "world tms borders at zoom %d", z)
		}
		if err := down.FillBorders(borders); err != nil {
			return err
		}
		if err := p.sliceLevel(down); err != nil {
			return err
		}
		p.log.Info("sliced downsampled level", zap.Int("zoom", z))
		tiles = down
	}
	return nil
}

// sliceUpsample builds every zoom above nativeZoom directly from the
// native image — not iteratively from the previous upsample — to
// minimise accumulated interpolation error and avoid per-tile seams
// (spec §4.2, §9).
func (p *Pyramid) sliceUpsample(native *tilelevel.Level, nativeZoom, maxResolution int) error {
	for z := nativeZoom + 1; z <= maxResolution; z++ {
		up, err := native.Upsample(z - nativeZoom)
		if err != nil {
			return err
		}
		borders, err := p.ds.WorldTMSBorders(z)
		if err != nil {
			return errs.Wrap(errs.EInternal, err, "world tms borders at zoom %d", z)
		}
		if err := up.FillBorders(borders); err != nil {
			return err
		}
		if err := p.sliceLevel(up); err != nil {
			return err
		}
		p.log.Info("sliced upsampled level", zap.Int("zoom", z))
	}
	return nil
}

// sliceLevel wires an optional progress reporter onto level, tracking its
// zoom against Storage's running metrics, before calling Slice.
func (p *Pyramid) sliceLevel(level *tilelevel.Level) error {
	if !p.cfg.ShowProgress {
		return level.Slice()
	}
	reporter := progress.NewLevel(level.Resolution, int64(level.TileCount()), p.storage.Metrics())
	level.OnTile = reporter.Submit
	err := level.Slice()
	reporter.Finish()
	return err
}

func (p *Pyramid) validateResolutions(nativeZoom int) error {
	if min := p.cfg.MinResolution; min != nil {
		if !(0 <= *min && *min < nativeZoom) {
			return errs.New(errs.EBadResolution, "min_resolution %d must be between 0 and %d", *min, nativeZoom)
		}
	}
	if max := p.cfg.MaxResolution; max != nil {
		if *max < nativeZoom {
			return errs.New(errs.EBadResolution, "max_resolution %d must be >= %d", *max, nativeZoom)
		}
	}
	return nil
}

// Command tmspyramid slices one georeferenced raster into a pyramid of
// TMS-addressed PNG tiles.
package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/alecthomas/kong"

	"github.com/geopyramid/tmspyramid/internal/config"
	"github.com/geopyramid/tmspyramid/internal/dataset"
	"github.com/geopyramid/tmspyramid/internal/errs"
	"github.com/geopyramid/tmspyramid/internal/imageops"
	"github.com/geopyramid/tmspyramid/internal/kernel"
	"github.com/geopyramid/tmspyramid/internal/logging"
	"github.com/geopyramid/tmspyramid/internal/pyramid"
	"github.com/geopyramid/tmspyramid/internal/storage"
)

const description = `Slices a georeferenced raster into a pyramid of TMS-addressed PNG tiles.`

var cli struct {
	Input     string `arg:"" help:"Input georeferenced raster (e.g. a GeoTIFF)."`
	OutputDir string `arg:"" help:"Directory to write the tile pyramid into."`

	MinZoom *int   `help:"Minimum zoom to downsample to (default: don't downsample)."`
	MaxZoom *int   `help:"Maximum zoom to upsample to (default: don't upsample)."`
	Tile    int    `default:"256" help:"Tile side in pixels."`
	Conc    int    `help:"Worker pool concurrency (default: number of CPUs)."`
	Config   string `help:"Optional YAML config file with defaults."`
	Verbose  bool   `short:"v" help:"Verbose logging."`
	Progress bool   `short:"p" help:"Show a terminal progress bar per zoom level."`
}

func main() {
	kong.Parse(&cli, kong.Name("tmspyramid"), kong.Description(description))

	cfg, err := config.LoadFile(cli.Config)
	if err != nil {
		fatal(err)
	}
	if cli.Tile > 0 {
		cfg.TileSide = cli.Tile
	}
	concurrency := cfg.Concurrency
	if cli.Conc > 0 {
		concurrency = cli.Conc
	} else if concurrency <= 0 {
		concurrency = runtime.NumCPU()
	}

	log, err := logging.New(cli.Verbose)
	if err != nil {
		fatal(err)
	}
	defer log.Sync()

	ds, err := dataset.Open(cli.Input, cfg.TileSide)
	if err != nil {
		fatal(err)
	}
	defer ds.Close()

	k := kernel.NewXDrawKernel(cfg.TileSide)
	ops := imageops.New(k)

	store := storage.New(storage.Config{
		OutputDir:   cli.OutputDir,
		TileSide:    cfg.TileSide,
		Concurrency: concurrency,
		Log:         log,
	}, ops)

	pyr := pyramid.New(pyramid.Config{
		InputFile:     cli.Input,
		TileSide:      cfg.TileSide,
		MinResolution: cli.MinZoom,
		MaxResolution: cli.MaxZoom,
		Log:           log,
		ShowProgress:  cli.Progress,
	}, ds, ops, store)

	if err := pyr.Slice(); err != nil {
		fatal(err)
	}

	snap := store.Metrics().Snapshot()
	fmt.Printf("wrote %d tile(s), %d symlinked, %d border tile(s) -> %s\n",
		snap.Written, snap.Symlinked, snap.BorderTiles, cli.OutputDir)
}

func fatal(err error) {
	var kind errs.Kind
	var e *errs.Error
	if as, ok := err.(*errs.Error); ok {
		e = as
		kind = e.Kind
	}
	if kind != "" {
		fmt.Fprintf(os.Stderr, "tmspyramid: %s\n", err)
	} else {
		fmt.Fprintf(os.Stderr, "tmspyramid: %v\n", err)
	}
	os.Exit(1)
}

// Package storage implements the content-addressed tile writer (spec
// §4.3): tiles are hashed on their decoded pixel content, written to PNG
// exactly once per distinct hash, and every subsequent tile with the
// same hash becomes a relative symlink (falling back to a hard link,
// then a byte copy, per spec §9) pointing at that first file.
package storage

import (
	"bytes"
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	md5simd "github.com/minio/md5-simd"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"github.com/geopyramid/tmspyramid/internal/errs"
	"github.com/geopyramid/tmspyramid/internal/geom"
	"github.com/geopyramid/tmspyramid/internal/imageops"
	"github.com/geopyramid/tmspyramid/internal/kernel"
)

// Storage persists (z, tms_x, tms_y, image) submissions under outputdir,
// deduplicating identical tile content via the in-process HashIndex.
type Storage struct {
	outputdir string
	tileSide  int
	ops       *imageops.Ops
	log       *zap.Logger
	metrics   *Metrics

	hashServer md5simd.Server

	mu        sync.Mutex // guards hashIndex and hashLocks
	hashIndex map[string]string       // hex digest -> first-written path
	hashLocks map[string]*sync.Mutex // per-hash lock, so concurrent submissions of the same hash serialise without blocking distinct hashes

	sem *semaphore.Weighted
	wg  sync.WaitGroup

	errOnce  sync.Once
	firstErr error

	emptyTile kernel.Image // canonical all-transparent tile, built lazily
	emptyOnce sync.Once
}

// Config controls concurrency and logging for a Storage instance.
type Config struct {
	OutputDir   string
	TileSide    int
	Concurrency int
	Log         *zap.Logger
}

// New creates a Storage writing under cfg.OutputDir.
func New(cfg Config, ops *imageops.Ops) *Storage {
	concurrency := cfg.Concurrency
	if concurrency < 1 {
		concurrency = 1
	}
	log := cfg.Log
	if log == nil {
		log = zap.NewNop()
	}
	return &Storage{
		outputdir:  cfg.OutputDir,
		tileSide:   cfg.TileSide,
		ops:        ops,
		log:        log,
		metrics:    NewMetrics(),
		hashServer: md5simd.NewServer(),
		hashIndex:  make(map[string]string),
		hashLocks:  make(map[string]*sync.Mutex),
		sem:        semaphore.NewWeighted(int64(concurrency)),
	}
}

// Metrics exposes the counters accumulated so far.
func (s *Storage) Metrics() *Metrics { return s.metrics }

// Save enqueues a tile for (z, x, y). It blocks if the worker pool's
// bounded queue is full (backpressure per spec §5), but returns before
// the tile is durable; call WaitAll to block until every submission has
// landed on disk.
func (s *Storage) Save(z, x, y int, img kernel.Image) error {
	if err := s.sem.Acquire(context.Background(), 1); err != nil {
		return errs.Wrap(errs.EInternal, err, "acquire worker slot")
	}
	s.wg.Add(1)
	go func() {
		defer s.sem.Release(1)
		defer s.wg.Done()
		if err := s.put(z, x, y, img); err != nil {
			s.recordErr(err)
		}
	}()
	return nil
}

// SaveBorder submits the canonical transparent tile for (x, y, z). All
// border tiles across all zooms share one on-disk file because they hash
// identically (spec §4.2).
func (s *Storage) SaveBorder(x, y, z int) error {
	s.emptyOnce.Do(func() {
		s.emptyTile = s.ops.K.NewRGBA(s.tileSide, s.tileSide, nil)
	})
	s.metrics.borderTiles.Inc()
	return s.Save(z, x, y, s.emptyTile)
}

// WaitAll blocks until every submission is durable on disk, then returns
// the first error encountered (if any).
func (s *Storage) WaitAll() error {
	s.wg.Wait()
	s.hashServer.Close()
	return s.firstErr
}

func (s *Storage) recordErr(err error) {
	s.errOnce.Do(func() {
		s.firstErr = err
	})
}

// put is the dedup algorithm of spec §4.3: hash the decoded pixels,
// then either encode-and-write (first writer for this hash) or link
// to the existing file.
func (s *Storage) put(z, x, y int, img kernel.Image) error {
	// The canonical border tile is reused for every border submission;
	// releasing it back to the kernel's allocation pool would let some
	// other tile's ExtractArea overwrite it out from under us.
	if img != s.emptyTile {
		defer s.ops.K.Release(img)
	}

	digest := s.hash(img)

	dir := filepath.Join(s.outputdir, fmt.Sprint(z))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errs.Wrap(errs.EIO, err, "mkdir %s", dir)
	}
	path := filepath.Join(dir, fmt.Sprintf("%d-%d-%s.png", x, y, digest))

	addr := geom.TileAddress{Z: z, X: x, Y: y}

	lock := s.hashLock(digest)
	lock.Lock()
	defer lock.Unlock()

	s.mu.Lock()
	target, known := s.hashIndex[digest]
	s.mu.Unlock()

	if !known {
		if err := s.writePNG(path, img); err != nil {
			return err
		}
		s.mu.Lock()
		s.hashIndex[digest] = path
		s.mu.Unlock()
		s.metrics.written.Inc()
		s.log.Debug("wrote tile", zap.Stringer("tile", addr), zap.String("digest", digest))
		return nil
	}

	if target == path {
		// Same (z,x,y) submitted twice with identical content: nothing
		// further to do.
		return nil
	}
	s.metrics.symlinked.Inc()
	s.log.Debug("deduplicated tile", zap.Stringer("tile", addr), zap.String("digest", digest))
	return s.link(path, target)
}

// hash computes the content-addressing digest over the decoded pixel
// buffer (row-major, raw bytes) using the SIMD-accelerated MD5
// implementation — the concrete intmd5 referenced in spec §4.3/§8.
func (s *Storage) hash(img kernel.Image) string {
	h := s.hashServer.NewHash()
	defer h.Close()
	h.Write(img.PixelsBytes())
	return hex.EncodeToString(h.Sum(nil))
}

func (s *Storage) hashLock(digest string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.hashLocks[digest]
	if !ok {
		l = &sync.Mutex{}
		s.hashLocks[digest] = l
	}
	return l
}

// writePNG encodes img and writes it atomically (temp file + rename).
func (s *Storage) writePNG(path string, img kernel.Image) error {
	var buf bytes.Buffer
	if err := s.ops.EncodePNG(img, &buf); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-tile-*")
	if err != nil {
		return errs.Wrap(errs.EIO, err, "create temp file for %s", path)
	}
	tmpName := tmp.Name()
	if _, err := io.Copy(tmp, bytes.NewReader(buf.Bytes())); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return errs.Wrap(errs.EIO, err, "write temp file for %s", path)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return errs.Wrap(errs.EIO, err, "close temp file for %s", path)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return errs.Wrap(errs.EIO, err, "rename into place %s", path)
	}
	return nil
}

// link makes path resolve to the same content as target: a relative
// symlink when the platform supports it, a hard link when it doesn't,
// and finally a plain byte copy (spec §9). Only the symlink keeps a single
// regular file per hash; a hard link or a copy leaves path as a regular
// file of its own with the same content.
func (s *Storage) link(path, target string) error {
	rel, err := filepath.Rel(filepath.Dir(path), target)
	if err == nil {
		if err := os.Symlink(rel, path); err == nil {
			return nil
		} else if !errors.Is(err, os.ErrExist) {
			s.log.Debug("symlink failed, falling back to hard link",
				zap.String("path", path), zap.Error(err))
		}
	}

	if err := os.Link(target, path); err == nil {
		return nil
	}
	s.log.Debug("hard link failed, falling back to byte copy", zap.String("path", path))

	src, err := os.Open(target)
	if err != nil {
		return errs.Wrap(errs.EIO, err, "open dedup source %s", target)
	}
	defer src.Close()

	dst, err := os.Create(path)
	if err != nil {
		return errs.Wrap(errs.EIO, err, "create dedup copy %s", path)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return errs.Wrap(errs.EIO, err, "copy dedup content to %s", path)
	}
	return nil
}

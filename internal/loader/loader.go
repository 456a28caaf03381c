// Package loader resolves a path to a combined mesh record, reading and
// writing the on-disk cache around the combiner.
package loader

import (
	"errors"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/Faultbox/meshview/internal/cache"
	"github.com/Faultbox/meshview/internal/combiner"
	"github.com/Faultbox/meshview/internal/logger"
	"github.com/Faultbox/meshview/internal/mesh"
	"github.com/Faultbox/meshview/internal/source"
)

// Options controls cache use.
type Options struct {
	// CacheDir holds cache files; empty places them next to the source.
	CacheDir string
	Format   cache.Format
	// UseCache enables both reading fresh caches and writing new ones.
	UseCache bool
}

// Loader loads records for the viewer and the command-line tools.
type Loader struct {
	opts Options
	log  *zap.Logger
}

// New returns a loader with the given options.
func New(opts Options) *Loader {
	if opts.Format == cache.FormatUnknown {
		opts.Format = cache.FormatCompressed
	}
	return &Loader{opts: opts, log: logger.Named("loader")}
}

// Load returns the combined record for path. Cache files are loaded
// directly. For other sources a cache at least as new as the source is used
// when present; a corrupt cache is logged and rebuilt.
func (l *Loader) Load(path string) (*mesh.Record, error) {
	start := time.Now()

	if cache.IsCache(path) {
		rec, err := cache.Load(path)
		if err != nil {
			return nil, err
		}
		l.log.Info("cache loaded", zap.String("path", path), zap.Int("vertices", rec.VertexCount()),
			zap.Duration("took", time.Since(start)))
		return rec, nil
	}

	cachePath, cacheable := l.cachePath(path)
	if cacheable {
		if rec, ok := l.loadFresh(path, cachePath); ok {
			return rec, nil
		}
	}

	rec, err := combiner.CombineFile(path)
	if err != nil {
		return nil, err
	}
	l.log.Info("mesh loaded",
		zap.String("path", path),
		zap.Int("vertices", rec.VertexCount()),
		zap.Int("faces", rec.FaceCount()),
		zap.Duration("took", time.Since(start)))

	if cacheable {
		if err := cache.SaveAs(cachePath, l.opts.Format, rec); err != nil {
			l.log.Warn("cache write failed", zap.String("cache", cachePath), zap.Error(err))
		} else {
			l.log.Debug("cache written", zap.String("cache", cachePath))
		}
	}
	return rec, nil
}

// cachePath reports where the cache for a source lives, and whether caching
// applies at all. Procedural sources have no file to compare against.
func (l *Loader) cachePath(path string) (string, bool) {
	if !l.opts.UseCache || source.IsProcedural(path) {
		return "", false
	}
	return cache.PathFor(path, l.opts.CacheDir, l.opts.Format), true
}

func (l *Loader) loadFresh(path, cachePath string) (*mesh.Record, bool) {
	src, err := os.Stat(path)
	if err != nil {
		return nil, false
	}
	cached, err := os.Stat(cachePath)
	if err != nil || cached.ModTime().Before(src.ModTime()) {
		return nil, false
	}

	rec, err := cache.Load(cachePath)
	switch {
	case err == nil:
		l.log.Debug("cache hit", zap.String("path", path), zap.String("cache", cachePath))
		return rec, true
	case errors.Is(err, cache.ErrCorrupt):
		l.log.Warn("corrupt cache, rebuilding", zap.String("cache", cachePath), zap.Error(err))
	default:
		l.log.Warn("cache unreadable, rebuilding", zap.String("cache", cachePath), zap.Error(err))
	}
	return nil, false
}

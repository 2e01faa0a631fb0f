package catalog

import (
	"context"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Catalog lists the mp3 files of a music directory. The listing is cached in
// memory and refreshed by Run; a missing directory is treated as an empty
// catalog.
type Catalog struct {
	dir string

	mu    sync.RWMutex
	songs []string
}

func New(dir string) *Catalog {
	c := &Catalog{dir: dir}
	if err := c.Refresh(); err != nil {
		zap.L().Warn("catalog.scan", zap.String("dir", dir), zap.Error(err))
	}
	return c
}

// Songs returns the cached filenames, sorted.
func (c *Catalog) Songs() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]string, len(c.songs))
	copy(out, c.songs)
	return out
}

// Refresh rescans the music directory.
func (c *Catalog) Refresh() error {
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		if os.IsNotExist(err) {
			c.set(nil)
			return nil
		}
		return err
	}

	songs := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if strings.HasSuffix(strings.ToLower(e.Name()), ".mp3") {
			songs = append(songs, e.Name())
		}
	}
	sort.Strings(songs)
	c.set(songs)
	return nil
}

// Run rescans the directory on a fixed interval until ctx is done.
func (c *Catalog) Run(ctx context.Context, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := c.Refresh(); err != nil {
				zap.L().Warn("catalog.refresh", zap.Error(err))
			}
		}
	}
}

func (c *Catalog) set(songs []string) {
	c.mu.Lock()
	c.songs = songs
	c.mu.Unlock()
}

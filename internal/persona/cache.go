package persona

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Cache resolves persona ids to validated personas under a base directory
// and memoises the result. It is safe for concurrent use.
//
// A Cache is constructed explicitly and handed to whoever needs it, so
// independent pipeline runs can use independent caches.
type Cache struct {
	baseDir string

	mu       sync.RWMutex
	personas map[string]Persona
}

// NewCache returns an empty cache rooted at baseDir.
func NewCache(baseDir string) *Cache {
	return &Cache{baseDir: baseDir, personas: make(map[string]Persona)}
}

// BaseDir returns the directory personas are resolved against.
func (c *Cache) BaseDir() string {
	return c.baseDir
}

// Put stores p under p.ID without touching the filesystem.
func (c *Cache) Put(p Persona) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.personas[p.ID] = p
}

// Invalidate drops one id so the next Get re-reads its file.
func (c *Cache) Invalidate(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.personas, id)
}

// Reset drops every cached persona.
func (c *Cache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.personas = make(map[string]Persona)
}

// Len reports how many personas are cached.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.personas)
}

// Resolve returns the file path for id. Both snake_case and kebab-case file
// names are accepted, with .yaml or .yml extensions.
func (c *Cache) Resolve(id string) (string, error) {
	stems := []string{id}
	if kebab := strings.ReplaceAll(id, "_", "-"); kebab != id {
		stems = append(stems, kebab)
	}
	for _, stem := range stems {
		for _, ext := range []string{".yaml", ".yml"} {
			path := filepath.Join(c.baseDir, stem+ext)
			if _, err := os.Stat(path); err == nil {
				return path, nil
			}
		}
	}
	return "", &LoadError{Path: filepath.Join(c.baseDir, id+".yaml"), Err: ErrNotFound}
}

// Get returns the persona for id, loading it on first use.
func (c *Cache) Get(id string) (Persona, error) {
	c.mu.RLock()
	p, ok := c.personas[id]
	c.mu.RUnlock()
	if ok {
		return p, nil
	}

	path, err := c.Resolve(id)
	if err != nil {
		return Persona{}, err
	}
	p, err = LoadFile(path)
	if err != nil {
		return Persona{}, err
	}
	if p.ID != id {
		p.ID = id
	}
	c.Put(p)
	return p, nil
}

// Load returns the personas for ids in the given order. Files are read
// concurrently; the first failure is returned with its path.
func (c *Cache) Load(ctx context.Context, ids ...string) ([]Persona, error) {
	out := make([]Persona, len(ids))
	g, ctx := errgroup.WithContext(ctx)
	for i, id := range ids {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			p, err := c.Get(id)
			if err != nil {
				return err
			}
			out[i] = p
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// IsNotFound reports whether err is a missing persona file.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

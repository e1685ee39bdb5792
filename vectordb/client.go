package vectordb

import (
	"os"
	"path/filepath"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/xDarkicex/vectordb/internal/obs"
	"github.com/xDarkicex/vectordb/internal/storagefmt"
)

// Client multiplexes many named collections behind a bounded LRU
// cache, so a process can address far more collections than it keeps
// hydrated in memory at once. Eviction flushes a dirty collection to
// disk before dropping it, never losing an unpersisted write.
type Client struct {
	mu      sync.Mutex
	config  ClientConfig
	metrics *obs.Metrics

	cache *lru.Cache[string, *Collection]
	known map[string]CollectionConfig
}

// NewClient builds a Client from the given options. With no storage
// path set, collections exist only in memory and Flush/Close are
// no-ops for them.
func NewClient(opts ...Option) (*Client, error) {
	var cfg ClientConfig
	for _, opt := range opts {
		if err := opt(&cfg); err != nil {
			return nil, newErr(InvalidConfig, "%v", err)
		}
	}
	cfg.applyDefaults()

	metrics := obs.NewMetrics(cfg.Registerer)

	client := &Client{
		config:  cfg,
		metrics: metrics,
		known:   make(map[string]CollectionConfig),
	}

	cache, err := lru.NewWithEvict(cfg.CacheCapacity, client.onEvict)
	if err != nil {
		return nil, newErr(InvalidConfig, "cache capacity %d: %v", cfg.CacheCapacity, err)
	}
	client.cache = cache

	if cfg.StoragePath != "" {
		if err := client.discoverExisting(); err != nil {
			return nil, err
		}
	}

	return client, nil
}

// onEvict runs synchronously inside the LRU's own Add/Remove call, so
// by the time Add returns, an evicted collection's dirty state is
// already flushed to disk.
func (c *Client) onEvict(name string, col *Collection) {
	if c.metrics != nil {
		c.metrics.CacheEvictions.Inc()
	}
	if c.config.StoragePath == "" {
		return
	}
	if !col.isDirty() {
		return
	}
	if err := col.persist(c.dataPath(name), c.configPath(name)); err != nil {
		obs.Logger.Warn("failed to flush collection on eviction", "collection", name, "error", err)
		return
	}
}

func (c *Client) dataPath(name string) string {
	return filepath.Join(c.config.StoragePath, name+".data")
}

func (c *Client) configPath(name string) string {
	return filepath.Join(c.config.StoragePath, name+".config")
}

// legacyPath is where a pre-binary-format text snapshot would live
// for a collection, per §6's legacy fallback. A collection loaded
// from here is rewritten in the current binary format on its next
// flush, same as any other dirty collection.
func (c *Client) legacyPath(name string) string {
	return filepath.Join(c.config.StoragePath, name+".json")
}

// discoverExisting scans the storage directory for previously
// persisted collections so List reflects them even before they are
// reopened.
func (c *Client) discoverExisting() error {
	entries, err := os.ReadDir(c.config.StoragePath)
	if os.IsNotExist(err) {
		return os.MkdirAll(c.config.StoragePath, 0o755)
	}
	if err != nil {
		return wrapErr(IoFailure, err, "scan storage path %q", c.config.StoragePath)
	}

	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		const suffix = ".config"
		if len(name) <= len(suffix) || name[len(name)-len(suffix):] != suffix {
			continue
		}
		collName := name[:len(name)-len(suffix)]
		rec, err := storagefmt.ReadConfig(c.configPath(collName))
		if err != nil {
			obs.Logger.Warn("skipping unreadable collection config", "collection", collName, "error", err)
			continue
		}
		c.known[collName] = CollectionConfig{
			Name:      rec.Name,
			Dimension: rec.Dimension,
			UseIVF:    rec.UseIVF,
			NClusters: rec.NClusters,
			NProbe:    rec.NProbe,
		}
	}
	return nil
}

// GetOrCreate returns the named collection, hydrating it from disk or
// creating it fresh according to opts if it does not yet exist (with a
// storage path set, a fresh collection is written to disk at once). A
// second call with conflicting options for an already-known
// collection is an InvalidConfig error.
func (c *Client) GetOrCreate(name string, opts ...CollectionOption) (*Collection, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var cfg CollectionConfig
	cfg.Name = name
	for _, opt := range opts {
		if err := opt(&cfg); err != nil {
			return nil, newErr(InvalidConfig, "%v", err)
		}
	}
	cfg.applyDefaults()

	if col, ok := c.cache.Get(name); ok {
		if cfg.Dimension != 0 && col.config.conflicts(cfg) {
			return nil, newErr(InvalidConfig, "collection %q reopened with conflicting config", name)
		}
		if c.metrics != nil {
			c.metrics.CacheHits.Inc()
		}
		return col, nil
	}

	existing, wasKnown := c.known[name]

	col, err := c.hydrate(name, cfg, wasKnown, existing)
	if err != nil {
		return nil, err
	}

	c.known[name] = col.config
	c.cache.Add(name, col)
	if c.metrics != nil {
		c.metrics.CacheMisses.Inc()
	}
	return col, nil
}

func (c *Client) hydrate(name string, cfg CollectionConfig, wasKnown bool, existing CollectionConfig) (*Collection, error) {
	if c.config.StoragePath != "" {
		rec, err := storagefmt.ReadConfig(c.configPath(name))
		if err == nil {
			loaded := CollectionConfig{
				Name:      rec.Name,
				Dimension: rec.Dimension,
				UseIVF:    rec.UseIVF,
				NClusters: rec.NClusters,
				NProbe:    rec.NProbe,
			}
			if cfg.Dimension != 0 && loaded.conflicts(cfg) {
				return nil, newErr(InvalidConfig, "collection %q reopened with conflicting config", name)
			}
			snap, err := storagefmt.ReadSnapshot(c.dataPath(name))
			if err != nil {
				if !os.IsNotExist(err) {
					return nil, wrapErr(StorageCorrupt, err, "read snapshot for %q", name)
				}
				legacy, legacyErr := storagefmt.ReadLegacyText(c.legacyPath(name))
				if legacyErr != nil {
					return nil, wrapErr(StorageCorrupt, err, "read snapshot for %q", name)
				}
				col, restoreErr := restoreFromSnapshot(loaded, legacy, c.metrics)
				if restoreErr != nil {
					return nil, restoreErr
				}
				col.dirty = true
				return col, nil
			}
			return restoreFromSnapshot(loaded, snap, c.metrics)
		}
	}

	if wasKnown {
		if cfg.Dimension != 0 && existing.conflicts(cfg) {
			return nil, newErr(InvalidConfig, "collection %q reopened with conflicting config", name)
		}
		return newCollection(existing, c.metrics)
	}

	col, err := newCollection(cfg, c.metrics)
	if err != nil {
		return nil, err
	}
	if c.config.StoragePath != "" {
		if err := col.persist(c.dataPath(name), c.configPath(name)); err != nil {
			return nil, err
		}
	}
	return col, nil
}

// Drop evicts the collection and deletes its persisted files, if any.
func (c *Client) Drop(name string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.cache.Remove(name)
	delete(c.known, name)

	if c.config.StoragePath == "" {
		return nil
	}
	if err := os.Remove(c.dataPath(name)); err != nil && !os.IsNotExist(err) {
		return wrapErr(IoFailure, err, "remove data file for %q", name)
	}
	if err := os.Remove(c.configPath(name)); err != nil && !os.IsNotExist(err) {
		return wrapErr(IoFailure, err, "remove config file for %q", name)
	}
	return nil
}

// List returns the names of every collection the client knows about,
// whether currently cached in memory or only persisted on disk.
func (c *Client) List() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	names := make([]string, 0, len(c.known))
	for name := range c.known {
		names = append(names, name)
	}
	return names
}

// Stats reports the client's engine-wide shape, matching spec.md §6's
// "stats" route: total known collections, how many are currently
// hydrated in the LRU cache, the cache's capacity, and per-collection
// Stats for each hydrated collection.
func (c *Client) Stats() ClientStats {
	c.mu.Lock()
	defer c.mu.Unlock()

	keys := c.cache.Keys()
	collections := make([]Stats, 0, len(keys))
	for _, name := range keys {
		if col, ok := c.cache.Peek(name); ok {
			collections = append(collections, col.StatsSnapshot())
		}
	}

	return ClientStats{
		CollectionCount: len(c.known),
		CachedCount:     c.cache.Len(),
		CacheCapacity:   c.config.CacheCapacity,
		Collections:     collections,
	}
}

// Flush persists every dirty cached collection without evicting it.
func (c *Client) Flush() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.config.StoragePath == "" {
		return nil
	}

	var firstErr error
	for _, name := range c.cache.Keys() {
		col, ok := c.cache.Peek(name)
		if !ok || !col.isDirty() {
			continue
		}
		if err := col.persist(c.dataPath(name), c.configPath(name)); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Close flushes every dirty collection and releases the cache.
func (c *Client) Close() error {
	if err := c.Flush(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cache.Purge()
	return nil
}

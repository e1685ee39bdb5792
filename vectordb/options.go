package vectordb

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// Option configures a Client at construction time.
type Option func(*ClientConfig) error

// WithStoragePath sets the directory collections are persisted under.
// An empty client (no storage path) is valid and simply never
// persists; Flush and Close become no-ops for it.
func WithStoragePath(path string) Option {
	return func(c *ClientConfig) error {
		if path == "" {
			return fmt.Errorf("storage path cannot be empty")
		}
		c.StoragePath = path
		return nil
	}
}

// WithCacheCapacity bounds how many collections the client keeps
// hydrated in memory at once before evicting the least recently used.
func WithCacheCapacity(n int) Option {
	return func(c *ClientConfig) error {
		if n <= 0 {
			return fmt.Errorf("cache capacity must be positive")
		}
		c.CacheCapacity = n
		return nil
	}
}

// WithRegisterer points metrics at a caller-supplied Prometheus
// registry. Without it, each Client registers its metrics in a fresh
// private registry of its own, so they are not exposed through the
// process-wide default registry.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(c *ClientConfig) error {
		if reg == nil {
			return fmt.Errorf("registerer cannot be nil")
		}
		c.Registerer = reg
		return nil
	}
}

// CollectionOption configures a CollectionConfig at creation time.
type CollectionOption func(*CollectionConfig) error

// WithDimension sets the vector dimension. Required for every new
// collection.
func WithDimension(dim int) CollectionOption {
	return func(c *CollectionConfig) error {
		if dim <= 0 {
			return fmt.Errorf("dimension must be positive")
		}
		c.Dimension = dim
		return nil
	}
}

// WithIVF enables the IVF index with nClusters centroids, probing
// nProbe of them per query. Passing nProbe==0 applies the suggested
// default of max(1, nClusters/10); a negative nProbe is an error.
func WithIVF(nClusters, nProbe int) CollectionOption {
	return func(c *CollectionConfig) error {
		if nClusters <= 0 {
			return fmt.Errorf("n_clusters must be positive")
		}
		if nProbe < 0 {
			return fmt.Errorf("n_probe cannot be negative")
		}
		c.UseIVF = true
		c.NClusters = nClusters
		c.NProbe = nProbe
		return nil
	}
}

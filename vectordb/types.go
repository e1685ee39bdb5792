package vectordb

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/xDarkicex/vectordb/internal/filter"
)

// ClientConfig configures a Client at construction time.
type ClientConfig struct {
	StoragePath   string
	CacheCapacity int
	Registerer    prometheus.Registerer
}

func (c *ClientConfig) applyDefaults() {
	if c.CacheCapacity == 0 {
		c.CacheCapacity = 20
	}
	if c.Registerer == nil {
		c.Registerer = prometheus.NewRegistry()
	}
}

// CollectionConfig describes a collection's shape at creation time.
// Reopening an existing collection with a mismatched config is an
// InvalidConfig error.
type CollectionConfig struct {
	Name      string
	Dimension int
	UseIVF    bool
	NClusters int
	NProbe    int
}

// applyDefaults applies the suggested default of max(1, nClusters/10)
// when a caller leaves NProbe at zero.
func (c *CollectionConfig) applyDefaults() {
	if c.UseIVF && c.NProbe == 0 {
		np := c.NClusters / 10
		if np < 1 {
			np = 1
		}
		c.NProbe = np
	}
}

func (c CollectionConfig) validate() error {
	if c.Dimension < 1 {
		return newErr(InvalidConfig, "dimension must be >= 1, got %d", c.Dimension)
	}
	if c.UseIVF {
		if c.NClusters < 1 {
			return newErr(InvalidConfig, "n_clusters must be >= 1 when use_ivf is set, got %d", c.NClusters)
		}
		if c.NProbe < 1 || c.NProbe > c.NClusters {
			return newErr(InvalidConfig, "n_probe must be in [1, %d], got %d", c.NClusters, c.NProbe)
		}
	}
	return nil
}

func (c CollectionConfig) conflicts(other CollectionConfig) bool {
	return c.Dimension != other.Dimension ||
		c.UseIVF != other.UseIVF ||
		c.NClusters != other.NClusters ||
		c.NProbe != other.NProbe
}

// VectorEntry is a stored (id, vector, metadata) triple returned by
// get and query. Vector and Metadata are nil unless the caller asked
// for them via the include flags on Get.
type VectorEntry struct {
	ID       string
	Vector   []float32
	Metadata map[string]interface{}
}

// SearchResult is one hit from Query: an id, its cosine distance to
// the query vector, and optionally its metadata.
type SearchResult struct {
	ID       string
	Distance float32
	Metadata map[string]interface{}
}

// Stats reports a single collection's shape for the engine's "stats
// collection" route.
type Stats struct {
	Name         string
	Count        int
	Dimension    int
	UseIVF       bool
	IVFTrained   bool
	NeedsRebuild bool
	MemoryBytes  int64
}

// ClientStats reports a Client's engine-wide shape for the "stats"
// route named in spec.md §6: how many collections it knows about
// (on disk or cached), how many are currently hydrated in the LRU
// cache, and per-collection Stats for each hydrated one. Collections
// known only from disk are not forced to hydrate just to be counted.
type ClientStats struct {
	CollectionCount int
	CachedCount     int
	CacheCapacity   int
	Collections     []Stats
}

// entry is the collection's internal storage representation. Vector
// is always L2-normalized and Metadata always carries tagged Values,
// converted from/to the public interface{} forms at the API boundary.
type entry struct {
	id       string
	vector   []float32
	metadata filter.Metadata
}

package vectordb

import (
	"runtime"
	"sync"
	"time"

	"github.com/xDarkicex/vectordb/internal/filter"
	"github.com/xDarkicex/vectordb/internal/ivf"
	"github.com/xDarkicex/vectordb/internal/obs"
	"github.com/xDarkicex/vectordb/internal/storagefmt"
	"github.com/xDarkicex/vectordb/internal/topk"
	"github.com/xDarkicex/vectordb/internal/vecmath"
)

// thresholdLinear is the entry count below which Query always falls
// back to a linear scan even when an IVF index is present, per the
// suggested default in §4.5.
const thresholdLinear = 1024

const (
	linearParallelCutoff = 100
	ivfParallelCutoff    = 50
)

// Collection is the primary aggregate: an ordered sequence of
// entries, an id->position index kept in lockstep with it, and an
// optional IVF index built over those entries.
type Collection struct {
	mu sync.RWMutex

	config CollectionConfig

	entries  []entry
	idIndex  map[string]int
	ivfIndex *ivf.Index

	needsRebuild bool
	batchMode    bool
	dirty        bool

	rebuildSeed int64
	metrics     *obs.Metrics
}

func newCollection(cfg CollectionConfig, metrics *obs.Metrics) (*Collection, error) {
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &Collection{
		config:      cfg,
		idIndex:     make(map[string]int),
		rebuildSeed: 1,
		metrics:     metrics,
	}, nil
}

// Add validates and appends a batch of entries. All three input
// slices are positional; metadatas may be nil or empty (every entry
// then has no metadata), otherwise its length must match ids exactly.
// A zero vector cannot be normalized and is rejected.
func (c *Collection) Add(ids []string, vectors [][]float32, metadatas []map[string]interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(ids) != len(vectors) {
		return newErr(LengthMismatch, "ids length %d != vectors length %d", len(ids), len(vectors))
	}
	if len(metadatas) != 0 && len(metadatas) != len(ids) {
		return newErr(LengthMismatch, "ids length %d != metadatas length %d", len(ids), len(metadatas))
	}

	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			return newErr(DuplicateId, "id %q duplicated within add batch", id)
		}
		seen[id] = struct{}{}
		if _, exists := c.idIndex[id]; exists {
			return newErr(DuplicateId, "id %q already present in collection", id)
		}
	}

	newEntries := make([]entry, len(ids))
	for i, v := range vectors {
		if len(v) != c.config.Dimension {
			return newErr(DimensionMismatch, "vector %d has dimension %d, expected %d", i, len(v), c.config.Dimension)
		}
		if vecmath.Norm(v) == 0 {
			return newErr(InvalidConfig, "vector %d is a zero vector and cannot be normalized", i)
		}

		var md filter.Metadata
		if len(metadatas) != 0 && metadatas[i] != nil {
			converted, err := toMetadata(metadatas[i])
			if err != nil {
				return err
			}
			md = converted
		}

		newEntries[i] = entry{
			id:       ids[i],
			vector:   vecmath.Normalize(v),
			metadata: md,
		}
	}

	base := len(c.entries)
	for i, e := range newEntries {
		c.entries = append(c.entries, e)
		c.idIndex[e.id] = base + i
	}

	c.needsRebuild = true
	c.dirty = true
	if c.metrics != nil {
		c.metrics.VectorInserts.Add(float64(len(ids)))
	}
	return nil
}

// Get returns entries in the order of ids, skipping unknown ids.
func (c *Collection) Get(ids []string, includeVector, includeMetadata bool) []VectorEntry {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]VectorEntry, 0, len(ids))
	for _, id := range ids {
		pos, ok := c.idIndex[id]
		if !ok {
			continue
		}
		e := c.entries[pos]
		ve := VectorEntry{ID: e.id}
		if includeVector {
			ve.Vector = append([]float32(nil), e.vector...)
		}
		if includeMetadata {
			ve.Metadata = fromMetadata(e.metadata)
		}
		out = append(out, ve)
	}
	return out
}

// Update replaces metadata entry-wise; vectors are never touched.
// Every id must already exist; on an UnknownId error no metadata is
// changed, matching the all-or-nothing validation Add performs.
func (c *Collection) Update(ids []string, metadatas []map[string]interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(ids) != len(metadatas) {
		return newErr(LengthMismatch, "ids length %d != metadatas length %d", len(ids), len(metadatas))
	}

	positions := make([]int, len(ids))
	for i, id := range ids {
		pos, ok := c.idIndex[id]
		if !ok {
			return newErr(UnknownId, "unknown id %q", id)
		}
		positions[i] = pos
	}

	converted := make([]filter.Metadata, len(metadatas))
	for i, m := range metadatas {
		md, err := toMetadata(m)
		if err != nil {
			return err
		}
		converted[i] = md
	}

	for i, pos := range positions {
		c.entries[pos].metadata = converted[i]
	}
	c.dirty = true
	return nil
}

// Delete removes entries by id, compacting positions and keeping
// idIndex in lockstep. Unknown ids are ignored. If an up-to-date IVF
// index exists, each deletion is patched into its posting lists
// incrementally rather than forcing a full rebuild; otherwise the
// collection is marked for rebuild.
func (c *Collection) Delete(ids []string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for _, id := range ids {
		pos, ok := c.idIndex[id]
		if !ok {
			continue
		}
		c.removeAt(pos)
		removed++
	}
	c.dirty = true
	if c.metrics != nil && removed > 0 {
		c.metrics.VectorDeletes.Add(float64(removed))
	}
}

func (c *Collection) removeAt(pos int) {
	removedID := c.entries[pos].id
	c.entries = append(c.entries[:pos], c.entries[pos+1:]...)
	delete(c.idIndex, removedID)
	for id, p := range c.idIndex {
		if p > pos {
			c.idIndex[id] = p - 1
		}
	}

	if c.ivfIndex != nil && !c.needsRebuild {
		c.ivfIndex.Remove(pos)
	} else {
		c.needsRebuild = true
	}
}

// BatchBegin suppresses automatic rebuilds until BatchEnd, letting
// bulk loaders amortize training cost over many inserts.
func (c *Collection) BatchBegin() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.batchMode = true
}

// BatchEnd ends batch mode and forces exactly one rebuild if the
// collection is dirty and configured to use IVF.
func (c *Collection) BatchEnd() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.batchMode = false
	if c.config.UseIVF && c.needsRebuild {
		return c.rebuildLocked()
	}
	return nil
}

// Rebuild forces an IVF rebuild regardless of needsRebuild.
func (c *Collection) Rebuild() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.rebuildLocked()
}

// rebuildLocked must be called with c.mu held for writing.
func (c *Collection) rebuildLocked() error {
	if !c.config.UseIVF {
		c.needsRebuild = false
		return nil
	}

	n := len(c.entries)
	if n <= c.config.NClusters {
		c.ivfIndex = nil
		c.needsRebuild = false
		return nil
	}

	vectors := make([][]float32, n)
	for i, e := range c.entries {
		vectors[i] = e.vector
	}

	c.rebuildSeed++
	idx, err := ivf.Build(vectors, c.config.NClusters, c.rebuildSeed)
	if err != nil {
		if c.metrics != nil {
			c.metrics.RebuildFailed.Inc()
		}
		return wrapErr(RebuildFailed, err, "ivf rebuild failed")
	}

	c.ivfIndex = idx
	c.needsRebuild = false
	if c.metrics != nil {
		c.metrics.Rebuilds.Inc()
	}
	return nil
}

// Query runs a similarity search, optionally restricted by where.
// where may be the zero Predicate, which matches everything.
func (c *Collection) Query(q []float32, k int, where Predicate, nProbe int) ([]SearchResult, error) {
	if len(q) != c.config.Dimension {
		if c.metrics != nil {
			c.metrics.SearchErrors.Inc()
		}
		return nil, newErr(DimensionMismatch, "query dimension %d, expected %d", len(q), c.config.Dimension)
	}

	c.maybeRebuildForQuery()

	c.mu.RLock()
	defer c.mu.RUnlock()

	start := time.Now()
	defer func() {
		if c.metrics != nil {
			c.metrics.SearchQueries.Inc()
			c.metrics.SearchLatency.Observe(time.Since(start).Seconds())
		}
	}()

	if len(c.entries) == 0 {
		if c.metrics != nil {
			c.metrics.SearchErrors.Inc()
		}
		return nil, newErr(EmptyCollection, "query on empty collection")
	}

	query := vecmath.Normalize(q)
	pred := where.p
	if pred == nil {
		pred = filter.True
	}

	useIVF := c.config.UseIVF && c.ivfIndex != nil && len(c.entries) >= thresholdLinear && !c.needsRebuild
	if useIVF {
		probe := nProbe
		if probe <= 0 {
			probe = c.config.NProbe
		}
		return c.queryIVF(query, k, pred, probe), nil
	}
	return c.queryLinear(query, k, pred), nil
}

// maybeRebuildForQuery upgrades to a write lock and rebuilds when the
// index is dirty and the collection is not in batch mode, so readers
// never observe a stale IVF except while deliberately batched.
func (c *Collection) maybeRebuildForQuery() {
	c.mu.RLock()
	needsWork := c.config.UseIVF && c.needsRebuild && !c.batchMode
	c.mu.RUnlock()
	if !needsWork {
		return
	}

	c.mu.Lock()
	if c.config.UseIVF && c.needsRebuild && !c.batchMode {
		if err := c.rebuildLocked(); err != nil {
			obs.Logger.Warn("ivf rebuild failed during query, falling back to linear scan", "error", err)
		}
	}
	c.mu.Unlock()
}

func (c *Collection) queryLinear(query []float32, k int, pred filter.Predicate) []SearchResult {
	n := len(c.entries)
	if n < linearParallelCutoff {
		sel := topk.NewSelector(k)
		for pos, e := range c.entries {
			if !pred.Eval(e.metadata) {
				continue
			}
			sel.Offer(pos, vecmath.CosineDistance(query, e.vector))
		}
		return c.toResults(sel.Results())
	}

	results := parallelScore(n, k, func(pos int, sel *topk.Selector) {
		e := c.entries[pos]
		if !pred.Eval(e.metadata) {
			return
		}
		sel.Offer(pos, vecmath.CosineDistance(query, e.vector))
	})
	return c.toResults(mergeTopK(results, k))
}

func (c *Collection) queryIVF(query []float32, k int, pred filter.Predicate, nProbe int) []SearchResult {
	clusters := c.ivfIndex.ProbeClusters(query, nProbe)
	candidates := c.ivfIndex.Candidates(clusters)

	if len(candidates) < ivfParallelCutoff {
		sel := topk.NewSelector(k)
		for _, pos := range candidates {
			e := c.entries[pos]
			if !pred.Eval(e.metadata) {
				continue
			}
			sel.Offer(pos, vecmath.CosineDistance(query, e.vector))
		}
		return c.toResults(sel.Results())
	}

	results := parallelScoreOver(candidates, k, func(pos int, sel *topk.Selector) {
		e := c.entries[pos]
		if !pred.Eval(e.metadata) {
			return
		}
		sel.Offer(pos, vecmath.CosineDistance(query, e.vector))
	})
	return c.toResults(mergeTopK(results, k))
}

func (c *Collection) toResults(cands []topk.Candidate) []SearchResult {
	out := make([]SearchResult, len(cands))
	for i, cand := range cands {
		e := c.entries[cand.Position]
		out[i] = SearchResult{ID: e.id, Distance: cand.Distance, Metadata: fromMetadata(e.metadata)}
	}
	return out
}

// parallelScore fans a scoring function out across n positions using
// a fixed worker pool, one Selector per worker, merged by the caller.
func parallelScore(n, k int, score func(pos int, sel *topk.Selector)) [][]topk.Candidate {
	workers := runtime.GOMAXPROCS(0)
	if workers > n {
		workers = n
	}
	if workers < 1 {
		workers = 1
	}

	chunk := (n + workers - 1) / workers
	var wg sync.WaitGroup
	results := make([][]topk.Candidate, workers)

	for w := 0; w < workers; w++ {
		lo := w * chunk
		hi := lo + chunk
		if hi > n {
			hi = n
		}
		if lo >= hi {
			continue
		}
		wg.Add(1)
		go func(w, lo, hi int) {
			defer wg.Done()
			sel := topk.NewSelector(k)
			for pos := lo; pos < hi; pos++ {
				score(pos, sel)
			}
			results[w] = sel.Results()
		}(w, lo, hi)
	}
	wg.Wait()
	return results
}

func parallelScoreOver(positions []int, k int, score func(pos int, sel *topk.Selector)) [][]topk.Candidate {
	n := len(positions)
	workers := runtime.GOMAXPROCS(0)
	if workers > n {
		workers = n
	}
	if workers < 1 {
		workers = 1
	}

	chunk := (n + workers - 1) / workers
	var wg sync.WaitGroup
	results := make([][]topk.Candidate, workers)

	for w := 0; w < workers; w++ {
		lo := w * chunk
		hi := lo + chunk
		if hi > n {
			hi = n
		}
		if lo >= hi {
			continue
		}
		wg.Add(1)
		go func(w, lo, hi int) {
			defer wg.Done()
			sel := topk.NewSelector(k)
			for i := lo; i < hi; i++ {
				score(positions[i], sel)
			}
			results[w] = sel.Results()
		}(w, lo, hi)
	}
	wg.Wait()
	return results
}

func mergeTopK(partials [][]topk.Candidate, k int) []topk.Candidate {
	sel := topk.NewSelector(k)
	for _, part := range partials {
		for _, cand := range part {
			sel.Offer(cand.Position, cand.Distance)
		}
	}
	return sel.Results()
}

// Config returns the collection's configuration, serving the engine
// API's "get-config" route (spec.md §6). Config is fixed at creation
// time and never mutated afterward, so no lock is needed to read it.
func (c *Collection) Config() CollectionConfig {
	return c.config
}

// StatsSnapshot reports the collection's current shape.
func (c *Collection) StatsSnapshot() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return Stats{
		Name:         c.config.Name,
		Count:        len(c.entries),
		Dimension:    c.config.Dimension,
		UseIVF:       c.config.UseIVF,
		IVFTrained:   c.ivfIndex != nil,
		NeedsRebuild: c.needsRebuild,
		MemoryBytes:  c.memoryUsageLocked(),
	}
}

func (c *Collection) memoryUsageLocked() int64 {
	var usage int64
	usage += int64(len(c.entries)) * int64(c.config.Dimension) * 4
	usage += int64(len(c.idIndex)) * 32
	if c.ivfIndex != nil {
		usage += int64(len(c.ivfIndex.Centroids)) * int64(c.config.Dimension) * 4
	}
	return usage
}

// snapshot captures the collection's entries and IVF index for
// persistence. Callers must hold at least c.mu.RLock().
func (c *Collection) snapshot() *storagefmt.Snapshot {
	snap := &storagefmt.Snapshot{Entries: make([]storagefmt.EntryRecord, len(c.entries))}
	for i, e := range c.entries {
		rec := storagefmt.EntryRecord{
			ID:     e.id,
			Vector: e.vector,
		}
		if len(e.metadata) > 0 {
			rec.Metadata = make(map[string]storagefmt.ValueRecord, len(e.metadata))
			for k, v := range e.metadata {
				rec.Metadata[k] = valueRecord(v)
			}
		}
		snap.Entries[i] = rec
	}

	if c.ivfIndex != nil {
		snap.IVF = &storagefmt.IVFRecord{
			Centroids:    c.ivfIndex.Centroids,
			Assignments:  c.ivfIndex.Assignments,
			PostingLists: c.ivfIndex.PostingLists,
			TrainedSize:  c.ivfIndex.TrainedSize,
		}
	}
	return snap
}

// configRecord captures the collection's config for persistence.
func (c *Collection) configRecord() *storagefmt.ConfigRecord {
	return &storagefmt.ConfigRecord{
		Name:      c.config.Name,
		Dimension: c.config.Dimension,
		UseIVF:    c.config.UseIVF,
		NClusters: c.config.NClusters,
		NProbe:    c.config.NProbe,
	}
}

// restoreFromSnapshot rebuilds a Collection's in-memory state from a
// persisted snapshot and config record.
func restoreFromSnapshot(cfg CollectionConfig, snap *storagefmt.Snapshot, metrics *obs.Metrics) (*Collection, error) {
	col, err := newCollection(cfg, metrics)
	if err != nil {
		return nil, err
	}

	col.entries = make([]entry, len(snap.Entries))
	for i, rec := range snap.Entries {
		var md filter.Metadata
		if len(rec.Metadata) > 0 {
			md = make(filter.Metadata, len(rec.Metadata))
			for k, v := range rec.Metadata {
				md[k] = valueFromRecord(v)
			}
		}
		col.entries[i] = entry{id: rec.ID, vector: rec.Vector, metadata: md}
		col.idIndex[rec.ID] = i
	}

	if snap.IVF != nil {
		col.ivfIndex = &ivf.Index{
			Centroids:    snap.IVF.Centroids,
			Assignments:  snap.IVF.Assignments,
			PostingLists: snap.IVF.PostingLists,
			TrainedSize:  snap.IVF.TrainedSize,
		}
		col.needsRebuild = false
	} else if cfg.UseIVF {
		col.needsRebuild = true
	}

	return col, nil
}

// persist writes the collection's data and config files atomically.
func (c *Collection) persist(dataPath, configPath string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := storagefmt.WriteSnapshot(dataPath, c.snapshot()); err != nil {
		return wrapErr(IoFailure, err, "write snapshot for %q", c.config.Name)
	}
	if err := storagefmt.WriteConfig(configPath, c.configRecord()); err != nil {
		return wrapErr(IoFailure, err, "write config for %q", c.config.Name)
	}
	c.dirty = false
	return nil
}

// isDirty reports whether the collection has unpersisted changes.
func (c *Collection) isDirty() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.dirty
}

// Package ivf implements the inverted-file index: centroids, an
// assignment vector, and posting lists keyed by cluster id, built on
// top of the k-means++ trainer.
package ivf

import (
	"fmt"
	"sort"

	"github.com/xDarkicex/vectordb/internal/kmeans"
	"github.com/xDarkicex/vectordb/internal/vecmath"
)

// Index is the trained coarse quantizer plus its posting lists. It
// holds no reference to entry vectors or metadata; the collection
// aggregate owns entry storage and passes positions through.
type Index struct {
	Centroids    [][]float32
	Assignments  []int
	PostingLists map[int][]int
	TrainedSize  int
}

// Build trains a fresh index over vectors (assumed already
// L2-normalized), sampling at most 10*nClusters of them per §4.4.
// seed selects the sample and feeds the k-means++ trainer so builds
// are reproducible.
func Build(vectors [][]float32, nClusters int, seed int64) (*Index, error) {
	n := len(vectors)
	sampleSize := n
	if max := 10 * nClusters; n > max {
		sampleSize = max
	}

	sampleVectors, sampleToGlobal := sample(vectors, sampleSize, seed)

	result, err := kmeans.Train(sampleVectors, kmeans.Config{K: nClusters, Seed: seed})
	if err != nil {
		return nil, fmt.Errorf("ivf: training failed: %w", err)
	}

	assignments := make([]int, n)
	if sampleSize == n {
		assignments = result.Assignments
	} else {
		for i, v := range vectors {
			assignments[i] = nearestCentroid(v, result.Centroids)
		}
		_ = sampleToGlobal
	}

	postingLists := make(map[int][]int, nClusters)
	for pos, cluster := range assignments {
		postingLists[cluster] = append(postingLists[cluster], pos)
	}

	return &Index{
		Centroids:    result.Centroids,
		Assignments:  assignments,
		PostingLists: postingLists,
		TrainedSize:  n,
	}, nil
}

func sample(vectors [][]float32, size int, seed int64) ([][]float32, []int) {
	if size >= len(vectors) {
		idx := make([]int, len(vectors))
		for i := range idx {
			idx[i] = i
		}
		return vectors, idx
	}

	r := deterministicPerm(len(vectors), seed)
	idx := r[:size]
	sort.Ints(idx)

	out := make([][]float32, size)
	for i, p := range idx {
		out[i] = vectors[p]
	}
	return out, idx
}

func nearestCentroid(v []float32, centroids [][]float32) int {
	best := 0
	bestDist := vecmath.CosineDistance(v, centroids[0])
	for c := 1; c < len(centroids); c++ {
		d := vecmath.CosineDistance(v, centroids[c])
		if d < bestDist {
			bestDist = d
			best = c
		}
	}
	return best
}

// ProbeClusters returns the ids of the n_probe centroids nearest to
// query, nearest first.
func (idx *Index) ProbeClusters(query []float32, nProbe int) []int {
	type scored struct {
		id   int
		dist float32
	}
	scores := make([]scored, len(idx.Centroids))
	for i, c := range idx.Centroids {
		scores[i] = scored{id: i, dist: vecmath.CosineDistance(query, c)}
	}
	sort.Slice(scores, func(i, j int) bool {
		if scores[i].dist != scores[j].dist {
			return scores[i].dist < scores[j].dist
		}
		return scores[i].id < scores[j].id
	})
	if nProbe > len(scores) {
		nProbe = len(scores)
	}
	out := make([]int, nProbe)
	for i := 0; i < nProbe; i++ {
		out[i] = scores[i].id
	}
	return out
}

// Candidates unions the posting lists of the given clusters into a
// deduplicated set of entry positions. Lists are disjoint by
// construction so the union never needs explicit dedup, but callers
// passing overlapping cluster ids are still handled correctly.
func (idx *Index) Candidates(clusters []int) []int {
	seen := make(map[int]struct{})
	var out []int
	for _, c := range clusters {
		for _, pos := range idx.PostingLists[c] {
			if _, ok := seen[pos]; ok {
				continue
			}
			seen[pos] = struct{}{}
			out = append(out, pos)
		}
	}
	return out
}

// Remove deletes position from its posting list and shifts every
// higher position down by one everywhere it appears, keeping the
// index consistent with a compacting delete on the entries slice.
func (idx *Index) Remove(position int) {
	cluster := idx.Assignments[position]
	list := idx.PostingLists[cluster]
	for i, p := range list {
		if p == position {
			idx.PostingLists[cluster] = append(list[:i], list[i+1:]...)
			break
		}
	}

	idx.Assignments = append(idx.Assignments[:position], idx.Assignments[position+1:]...)
	for c, list := range idx.PostingLists {
		for i, p := range list {
			if p > position {
				idx.PostingLists[c][i] = p - 1
			}
		}
	}
	idx.TrainedSize--
}

func deterministicPerm(n int, seed int64) []int {
	src := pcg(uint64(seed) | 1)
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	for i := n - 1; i > 0; i-- {
		j := int(src.next() % uint64(i+1))
		idx[i], idx[j] = idx[j], idx[i]
	}
	return idx
}

// pcg is a tiny deterministic PRNG local to sampling so the package
// does not need to share state with the trainer's own rand.Rand.
type pcgState struct{ state uint64 }

func pcg(seed uint64) *pcgState { return &pcgState{state: seed} }

func (p *pcgState) next() uint64 {
	p.state = p.state*6364136223846793005 + 1442695040888963407
	x := p.state
	x ^= x >> 33
	x *= 0xff51afd7ed558ccd
	x ^= x >> 33
	return x
}

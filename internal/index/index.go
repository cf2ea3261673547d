// Package index provides an in-memory vector index over ingested
// documents with linear-scan similarity search and file persistence.
package index

import (
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/kailas-cloud/reguwatch/internal/domain"
	"github.com/kailas-cloud/reguwatch/internal/metrics"
)

// Entry pairs a document with its embedding.
type Entry struct {
	Document  domain.Document
	Embedding []float32
}

// Hit is a search result.
type Hit struct {
	Document   domain.Document
	Similarity float64
}

// Stats summarizes index contents.
type Stats struct {
	Size       int            `json:"size"`
	Dimensions int            `json:"dimensions"`
	ByType     map[string]int `json:"by_type"`
	BySource   map[string]int `json:"by_source"`
}

// Index is an append-only vector index. Entries are never removed;
// restarts reload from disk via Load.
type Index struct {
	mu         sync.RWMutex
	entries    []Entry
	dimensions int
}

// New creates an empty index for vectors of the given dimension.
func New(dimensions int) *Index {
	return &Index{dimensions: dimensions}
}

// Insert appends an entry. The vector must match the index dimension.
func (ix *Index) Insert(doc domain.Document, vec []float32) error {
	if len(vec) != ix.dimensions {
		return fmt.Errorf("vector has %d dims, index wants %d: %w",
			len(vec), ix.dimensions, domain.ErrVectorDimMismatch)
	}

	ix.mu.Lock()
	ix.entries = append(ix.entries, Entry{Document: doc, Embedding: vec})
	size := len(ix.entries)
	ix.mu.Unlock()

	metrics.IndexSize.Set(float64(size))
	return nil
}

// Search returns the topK most similar documents by linear scan.
// Similarity is 1/(1+d) for L2 distance d, so identical vectors score
// 1.0 and similarity decays toward zero. An empty index returns an
// empty slice, not an error.
func (ix *Index) Search(query []float32, topK int) ([]Hit, error) {
	if len(query) != ix.dimensions {
		return nil, fmt.Errorf("query has %d dims, index wants %d: %w",
			len(query), ix.dimensions, domain.ErrVectorDimMismatch)
	}
	if topK <= 0 {
		topK = 10
	}

	ix.mu.RLock()
	hits := make([]Hit, 0, len(ix.entries))
	for _, e := range ix.entries {
		hits = append(hits, Hit{
			Document:   e.Document,
			Similarity: similarity(query, e.Embedding),
		})
	}
	ix.mu.RUnlock()

	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].Similarity > hits[j].Similarity
	})

	if len(hits) > topK {
		hits = hits[:topK]
	}
	return hits, nil
}

// RecentByType returns up to limit documents of the given types,
// newest insertion first. Used by the lexical pass of hybrid search.
func (ix *Index) RecentByType(limit int, types ...string) []domain.Document {
	want := make(map[string]struct{}, len(types))
	for _, t := range types {
		want[t] = struct{}{}
	}

	ix.mu.RLock()
	defer ix.mu.RUnlock()

	out := make([]domain.Document, 0)
	for i := len(ix.entries) - 1; i >= 0; i-- {
		doc := ix.entries[i].Document
		if len(want) > 0 {
			if _, ok := want[doc.Type]; !ok {
				continue
			}
		}
		out = append(out, doc)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out
}

// Len reports the number of indexed entries.
func (ix *Index) Len() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.entries)
}

// Dimensions reports the vector size the index accepts.
func (ix *Index) Dimensions() int { return ix.dimensions }

// Stats returns a summary of index contents.
func (ix *Index) Stats() Stats {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	s := Stats{
		Size:       len(ix.entries),
		Dimensions: ix.dimensions,
		ByType:     make(map[string]int),
		BySource:   make(map[string]int),
	}
	for _, e := range ix.entries {
		s.ByType[e.Document.Type]++
		s.BySource[e.Document.Source]++
	}
	return s
}

// similarity converts L2 distance to a score in (0, 1].
func similarity(a, b []float32) float64 {
	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return 1.0 / (1.0 + math.Sqrt(sum))
}

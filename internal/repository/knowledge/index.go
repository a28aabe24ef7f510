// Package knowledge holds the session knowledge base: an in-memory chunk index
// searched by exact cosine similarity. Nothing is persisted.
package knowledge

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/kailas-cloud/moe/internal/domain"
	"github.com/kailas-cloud/moe/internal/domain/chunk"
)

// ErrDimensionMismatch is returned for a chunk whose embedding length differs from the index.
var ErrDimensionMismatch = errors.New("embedding dimension mismatch")

type entry struct {
	chunk chunk.Chunk
	seq   uint64
}

// Index is a mutex-guarded map of chunks. One instance is shared per process;
// construct it in the composition root and inject it where needed.
type Index struct {
	mu      sync.RWMutex
	entries map[string]*entry
	nextSeq uint64
	dims    int
}

// NewIndex creates an empty index.
func NewIndex() *Index {
	return &Index{entries: make(map[string]*entry)}
}

// Add stores c. An existing chunk with the same ID is replaced but keeps its
// original insertion position for tie-breaking.
func (x *Index) Add(c chunk.Chunk) error {
	x.mu.Lock()
	defer x.mu.Unlock()
	if !x.addLocked(c) {
		return fmt.Errorf("chunk %q has %d dimensions, index holds %d: %w",
			c.ID(), c.Dimensions(), x.dims, ErrDimensionMismatch)
	}
	return nil
}

// AddMany stores chunks in order and returns the IDs of chunks rejected for a
// dimension mismatch. The first chunk into an empty index sets its dimensionality.
func (x *Index) AddMany(chunks []chunk.Chunk) []string {
	x.mu.Lock()
	defer x.mu.Unlock()
	var rejected []string
	for _, c := range chunks {
		if !x.addLocked(c) {
			rejected = append(rejected, c.ID())
		}
	}
	return rejected
}

func (x *Index) addLocked(c chunk.Chunk) bool {
	if len(x.entries) == 0 {
		x.dims = c.Dimensions()
	} else if c.Dimensions() != x.dims {
		return false
	}
	if e, ok := x.entries[c.ID()]; ok {
		e.chunk = c
		return true
	}
	x.entries[c.ID()] = &entry{chunk: c, seq: x.nextSeq}
	x.nextSeq++
	return true
}

// Search returns at most k chunks ordered by descending cosine similarity to query.
// Equal scores keep insertion order.
func (x *Index) Search(query []float32, k int) []chunk.SearchResult {
	if k <= 0 {
		return []chunk.SearchResult{}
	}

	x.mu.RLock()
	ordered := x.orderedLocked()
	x.mu.RUnlock()

	results := make([]chunk.SearchResult, 0, len(ordered))
	for _, e := range ordered {
		results = append(results, chunk.SearchResult{
			ID:       e.chunk.ID(),
			Content:  e.chunk.Content(),
			Metadata: e.chunk.Metadata(),
			Score:    CosineSimilarity(query, e.chunk.Embedding()),
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	if len(results) > k {
		results = results[:k]
	}
	return results
}

// Delete removes the chunk with the given ID.
func (x *Index) Delete(id string) error {
	x.mu.Lock()
	defer x.mu.Unlock()
	if _, ok := x.entries[id]; !ok {
		return fmt.Errorf("chunk %q: %w", id, domain.ErrDocumentNotFound)
	}
	delete(x.entries, id)
	if len(x.entries) == 0 {
		x.dims = 0
	}
	return nil
}

// Clear removes every chunk.
func (x *Index) Clear() {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.entries = make(map[string]*entry)
	x.nextSeq = 0
	x.dims = 0
}

// Dimensions returns the embedding length established by the first stored chunk, or 0 when empty.
func (x *Index) Dimensions() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return x.dims
}

// Count returns the number of stored chunks.
func (x *Index) Count() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return len(x.entries)
}

// Sources lists distinct source file names in insertion order with their chunk counts.
func (x *Index) Sources() []Source {
	x.mu.RLock()
	ordered := x.orderedLocked()
	x.mu.RUnlock()

	var out []Source
	pos := make(map[string]int)
	for _, e := range ordered {
		name := e.chunk.Metadata().FileName
		if i, ok := pos[name]; ok {
			out[i].Chunks++
			continue
		}
		pos[name] = len(out)
		out = append(out, Source{FileName: name, Chunks: 1})
	}
	return out
}

// Source summarizes the chunks contributed by one file.
type Source struct {
	FileName string `json:"file_name"`
	Chunks   int    `json:"chunks"`
}

func (x *Index) orderedLocked() []*entry {
	ordered := make([]*entry, 0, len(x.entries))
	for _, e := range x.entries {
		ordered = append(ordered, e)
	}
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].seq < ordered[j].seq })
	return ordered
}

// CosineSimilarity returns dot(a,b)/(|a||b|). Vectors of different length, empty
// vectors and zero vectors have similarity 0.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		av, bv := float64(a[i]), float64(b[i])
		dot += av * bv
		na += av * av
		nb += bv * bv
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

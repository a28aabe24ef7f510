// Package chunk defines the unit stored in the similarity index.
package chunk

import (
	"fmt"
	"strconv"
)

// Metadata describes where a chunk came from. FileName, Index and Total are always set;
// Extra carries the parsed-file summary attached at ingestion.
type Metadata struct {
	FileName string
	Index    int
	Total    int
	Extra    map[string]any
}

// Chunk is a fixed-size slice of a document's text with its embedding (immutable value object).
type Chunk struct {
	id        string
	content   string
	metadata  Metadata
	embedding []float32
}

// ID builds the chunk identifier from the source file name and chunk index.
func ID(fileName string, index int) string {
	return fileName + "_chunk_" + strconv.Itoa(index)
}

// New validates and creates a Chunk.
func New(id, content string, meta Metadata, embedding []float32) (Chunk, error) {
	if id == "" {
		return Chunk{}, fmt.Errorf("chunk ID is required")
	}
	if meta.FileName == "" {
		return Chunk{}, fmt.Errorf("chunk %q: source file name is required", id)
	}
	if meta.Index < 0 || meta.Total <= meta.Index {
		return Chunk{}, fmt.Errorf("chunk %q: index %d out of range for %d chunks", id, meta.Index, meta.Total)
	}
	return Chunk{
		id:        id,
		content:   content,
		metadata:  cloneMetadata(meta),
		embedding: embedding,
	}, nil
}

// ID returns the chunk identifier.
func (c *Chunk) ID() string { return c.id }

// Content returns the chunk text.
func (c *Chunk) Content() string { return c.content }

// Metadata returns the chunk provenance.
func (c *Chunk) Metadata() Metadata { return c.metadata }

// Embedding returns the embedding vector.
func (c *Chunk) Embedding() []float32 { return c.embedding }

// Dimensions returns the embedding length.
func (c *Chunk) Dimensions() int { return len(c.embedding) }

// SearchResult is a single similarity hit. Score is cosine similarity in [-1, 1].
type SearchResult struct {
	ID       string
	Content  string
	Metadata Metadata
	Score    float64
}

func cloneMetadata(m Metadata) Metadata {
	if m.Extra == nil {
		return m
	}
	extra := make(map[string]any, len(m.Extra))
	for k, v := range m.Extra {
		extra[k] = v
	}
	m.Extra = extra
	return m
}

package domain

import "context"

// ChunkType tags which profile section a chunk was derived from.
type ChunkType string

const (
	ChunkPersonal   ChunkType = "personal"
	ChunkExperience ChunkType = "experience"
	ChunkSkills     ChunkType = "skills"
	ChunkProject    ChunkType = "project"
	ChunkGoals      ChunkType = "goals"
)

// Chunk is an independently retrievable unit of profile text.
type Chunk struct {
	ID      string    `json:"id"`
	Title   string    `json:"title"`
	Type    ChunkType `json:"type"`
	Content string    `json:"content"`
}

// EmbedText is the text handed to the similarity backend for embedding.
func (c Chunk) EmbedText() string {
	return c.Title + ": " + c.Content
}

// SearchResult represents a matching chunk with a relevance score.
type SearchResult struct {
	Chunk Chunk
	Score float64
}

// VectorRecord is one upsert unit: an id, the text to embed and the
// metadata returned on query.
type VectorRecord struct {
	ID       string
	Data     string
	Metadata ChunkMetadata
}

// ChunkMetadata is stored alongside each vector so a query hit can be
// rendered without a second lookup.
type ChunkMetadata struct {
	Title   string    `json:"title"`
	Type    ChunkType `json:"type"`
	Content string    `json:"content"`
}

// IndexInfo reports the state of a similarity backend.
type IndexInfo struct {
	VectorCount    int
	EmbeddingModel string
}

// VectorIndex is a similarity search backend that embeds text itself.
// Callers never compute or store raw vectors.
type VectorIndex interface {
	Info(ctx context.Context) (IndexInfo, error)
	Upsert(ctx context.Context, records []VectorRecord) error
	Query(ctx context.Context, text string, topK int) ([]SearchResult, error)
}

// Summarizer produces a brief summary of the provided text.
type Summarizer interface {
	Summarize(text string, maxSentences int) (string, error)
}

// RecordFromChunk builds the upsert unit for a chunk.
func RecordFromChunk(c Chunk) VectorRecord {
	return VectorRecord{
		ID:   c.ID,
		Data: c.EmbedText(),
		Metadata: ChunkMetadata{
			Title:   c.Title,
			Type:    c.Type,
			Content: c.Content,
		},
	}
}

// ChunkFromMetadata rebuilds a chunk from a query hit.
func ChunkFromMetadata(id string, m ChunkMetadata) Chunk {
	return Chunk{ID: id, Title: m.Title, Type: m.Type, Content: m.Content}
}

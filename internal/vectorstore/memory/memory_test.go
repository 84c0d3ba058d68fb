package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"digitaltwin/internal/domain"
)

func records() []domain.VectorRecord {
	return []domain.VectorRecord{
		domain.RecordFromChunk(domain.Chunk{ID: "technical_skills", Title: "Technical Skills", Type: domain.ChunkSkills,
			Content: "Programming languages: Go. Databases: PostgreSQL, Redis."}),
		domain.RecordFromChunk(domain.Chunk{ID: "experience_0", Title: "Experience at Acme", Type: domain.ChunkExperience,
			Content: "Company: Acme. Title: Engineer. Duration: 2020-2022."}),
		domain.RecordFromChunk(domain.Chunk{ID: "career_goals", Title: "Career Goals", Type: domain.ChunkGoals,
			Content: "Short term: lead a platform team."}),
	}
}

func TestStorage_EmptyInfo(t *testing.T) {
	s := NewStorage()
	info, err := s.Info(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, info.VectorCount)
	assert.Equal(t, "tfidf", info.EmbeddingModel)

	res, err := s.Query(context.Background(), "anything", 3)
	require.NoError(t, err)
	assert.Empty(t, res)
}

func TestStorage_UpsertIsIdempotent(t *testing.T) {
	ctx := context.Background()
	s := NewStorage()
	require.NoError(t, s.Upsert(ctx, records()))
	require.NoError(t, s.Upsert(ctx, records()))

	info, err := s.Info(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, info.VectorCount)
}

func TestStorage_QueryRanksAndCarriesMetadata(t *testing.T) {
	ctx := context.Background()
	s := NewStorage()
	require.NoError(t, s.Upsert(ctx, records()))

	res, err := s.Query(ctx, "Which databases do you know?", 3)
	require.NoError(t, err)
	require.NotEmpty(t, res)
	assert.Equal(t, "technical_skills", res[0].Chunk.ID)
	assert.Equal(t, domain.ChunkSkills, res[0].Chunk.Type)
	assert.Equal(t, "Technical Skills", res[0].Chunk.Title)
	assert.Contains(t, res[0].Chunk.Content, "PostgreSQL")
}

func TestStorage_NoMatchReturnsNothing(t *testing.T) {
	ctx := context.Background()
	s := NewStorage()
	require.NoError(t, s.Upsert(ctx, records()))

	res, err := s.Query(ctx, "zebra xylophone", 3)
	require.NoError(t, err)
	assert.Empty(t, res)
}

func TestStorage_TopKLimits(t *testing.T) {
	ctx := context.Background()
	s := NewStorage()
	require.NoError(t, s.Upsert(ctx, records()))

	res, err := s.Query(ctx, "Acme engineer databases short term", 1)
	require.NoError(t, err)
	assert.Len(t, res, 1)
}

func TestStorage_OverwriteReplacesContent(t *testing.T) {
	ctx := context.Background()
	s := NewStorage()
	require.NoError(t, s.Upsert(ctx, records()))
	require.NoError(t, s.Upsert(ctx, []domain.VectorRecord{domain.RecordFromChunk(domain.Chunk{
		ID: "career_goals", Title: "Career Goals", Type: domain.ChunkGoals, Content: "Long term: become a staff engineer.",
	})}))

	res, err := s.Query(ctx, "staff", 3)
	require.NoError(t, err)
	require.Len(t, res, 1)
	assert.Equal(t, "career_goals", res[0].Chunk.ID)
	assert.Contains(t, res[0].Chunk.Content, "staff engineer")
}

package upstash

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"digitaltwin/internal/domain"
)

// fakeIndex mimics the REST surface of an auto-embedding index.
type fakeIndex struct {
	mu      sync.Mutex
	model   string
	data    map[string]upsertItem
	batches int
	hits    string
}

func (f *fakeIndex) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if r.Header.Get("Authorization") != "Bearer tok" {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":"Unauthorized"}`))
		return
	}
	switch r.URL.Path {
	case "/info":
		_, _ = w.Write([]byte(`{"result":{"vectorCount":` + strconv.Itoa(len(f.data)) +
			`,"denseIndex":{"embeddingModel":"` + f.model + `"}}}`))
	case "/upsert-data":
		var items []upsertItem
		_ = json.NewDecoder(r.Body).Decode(&items)
		f.batches++
		for _, it := range items {
			f.data[it.ID] = it
		}
		_, _ = w.Write([]byte(`{"result":"Success"}`))
	case "/query-data":
		var q queryRequest
		_ = json.NewDecoder(r.Body).Decode(&q)
		if !q.IncludeMetadata || q.Data == "" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		_, _ = w.Write([]byte(f.hits))
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func newTestStorage(t *testing.T, token string) (*Storage, *fakeIndex) {
	t.Helper()
	fake := &fakeIndex{model: "BAAI/bge-small-en-v1.5", data: map[string]upsertItem{}, hits: `{"result":[]}`}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)
	s, err := NewStorage(Config{URL: srv.URL, Token: token})
	require.NoError(t, err)
	return s, fake
}

func TestValidateURL(t *testing.T) {
	tests := []struct {
		url  string
		want error
	}{
		{"https://fine-cat-1234-us1-vector.upstash.io", nil},
		{"http://127.0.0.1:8080", nil},
		{"https://fine-cat-1234-us1-search.upstash.io", domain.ErrWrongService},
		{"http://fine-cat-1234-us1-vector.upstash.io", domain.ErrBackendUnavailable},
		{"not a url", domain.ErrBackendUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			err := ValidateURL(tt.url)
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestNewStorage_RequiresCredentials(t *testing.T) {
	_, err := NewStorage(Config{URL: "https://x-vector.upstash.io"})
	assert.ErrorIs(t, err, domain.ErrBackendUnavailable)
}

func TestInfo_ReadsDenseIndexModel(t *testing.T) {
	s, _ := newTestStorage(t, "tok")
	info, err := s.Info(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.IndexInfo{VectorCount: 0, EmbeddingModel: "BAAI/bge-small-en-v1.5"}, info)
}

func TestInfo_NoEmbeddingModel(t *testing.T) {
	s, fake := newTestStorage(t, "tok")
	fake.mu.Lock()
	fake.model = ""
	fake.mu.Unlock()
	info, err := s.Info(context.Background())
	require.NoError(t, err)
	assert.Empty(t, info.EmbeddingModel)
}

func TestInfo_Unauthorized(t *testing.T) {
	s, _ := newTestStorage(t, "wrong")
	_, err := s.Info(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Unauthorized")
}

func TestUpsert_BatchesAndOverwrites(t *testing.T) {
	ctx := context.Background()
	s, fake := newTestStorage(t, "tok")

	var recs []domain.VectorRecord
	for i := 0; i < 12; i++ {
		recs = append(recs, domain.RecordFromChunk(domain.Chunk{
			ID: "project_" + strconv.Itoa(i), Title: "Project", Type: domain.ChunkProject, Content: "Name: P.",
		}))
	}
	require.NoError(t, s.Upsert(ctx, recs))
	fake.mu.Lock()
	assert.Equal(t, 2, fake.batches)
	fake.mu.Unlock()
	require.NoError(t, s.Upsert(ctx, recs))

	info, err := s.Info(ctx)
	require.NoError(t, err)
	assert.Equal(t, 12, info.VectorCount)
	fake.mu.Lock()
	defer fake.mu.Unlock()
	assert.Equal(t, "Project: Name: P.", fake.data["project_0"].Data)
	assert.Equal(t, domain.ChunkProject, fake.data["project_0"].Metadata.Type)
}

func TestQuery_ParsesHits(t *testing.T) {
	s, fake := newTestStorage(t, "tok")
	fake.mu.Lock()
	fake.hits = `{"result":[
		{"id":"technical_skills","score":0.91,"metadata":{"title":"Technical Skills","type":"skills","content":"Databases: PostgreSQL."}},
		{"id":"orphan","score":0.4}
	]}`
	fake.mu.Unlock()

	res, err := s.Query(context.Background(), "databases", 3)
	require.NoError(t, err)
	require.Len(t, res, 2)
	assert.Equal(t, "technical_skills", res[0].Chunk.ID)
	assert.Equal(t, domain.ChunkSkills, res[0].Chunk.Type)
	assert.Equal(t, "Databases: PostgreSQL.", res[0].Chunk.Content)
	assert.Equal(t, 0.91, res[0].Score)
	assert.Empty(t, res[1].Chunk.Content)
}

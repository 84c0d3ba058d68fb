package qdrant

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"digitaltwin/internal/domain"
)

type fakeEmbedder struct{}

func (fakeEmbedder) Name() string                  { return "fake" }
func (fakeEmbedder) Model() string                 { return "fake-embed" }
func (fakeEmbedder) Prepare(corpus []string) error { return nil }
func (fakeEmbedder) Dimension() int                { return 2 }
func (fakeEmbedder) Embed(ctx context.Context, text string) ([]float64, error) {
	return []float64{float64(len(text)), 1}, nil
}

// fakeQdrant keeps points by id like the real server does.
type fakeQdrant struct {
	mu      sync.Mutex
	created bool
	points  map[string]map[string]any
}

func (f *fakeQdrant) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	switch {
	case r.Method == http.MethodGet && r.URL.Path == "/collections/twin":
		if !f.created {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte(`{"result":{"points_count":` + jsonInt(len(f.points)) + `}}`))
	case r.Method == http.MethodPut && r.URL.Path == "/collections/twin":
		f.created = true
		_, _ = w.Write([]byte(`{"result":true}`))
	case r.Method == http.MethodPut && r.URL.Path == "/collections/twin/points":
		var body struct {
			Points []map[string]any `json:"points"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		for _, p := range body.Points {
			f.points[p["id"].(string)] = p
		}
		_, _ = w.Write([]byte(`{"result":{"status":"completed"}}`))
	case r.Method == http.MethodPost && r.URL.Path == "/collections/twin/points/search":
		var hits []map[string]any
		for _, p := range f.points {
			hits = append(hits, map[string]any{"score": 0.9, "payload": p["payload"]})
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"result": hits})
	default:
		w.WriteHeader(http.StatusBadRequest)
	}
}

func jsonInt(n int) string {
	b, _ := json.Marshal(n)
	return string(b)
}

func newTestStorage(t *testing.T) (*Storage, *fakeQdrant) {
	t.Helper()
	fake := &fakeQdrant{points: map[string]map[string]any{}}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)
	return NewStorage(Config{URL: srv.URL, Collection: "twin"}, fakeEmbedder{}), fake
}

func TestStorage_InfoMissingCollectionIsEmpty(t *testing.T) {
	s, _ := newTestStorage(t)
	info, err := s.Info(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, info.VectorCount)
	assert.Equal(t, "fake-embed", info.EmbeddingModel)
}

func TestStorage_UpsertCreatesCollectionAndIsIdempotent(t *testing.T) {
	ctx := context.Background()
	s, fake := newTestStorage(t)
	recs := []domain.VectorRecord{
		domain.RecordFromChunk(domain.Chunk{ID: "personal_info", Title: "Personal Information", Type: domain.ChunkPersonal, Content: "Name: Jordan."}),
		domain.RecordFromChunk(domain.Chunk{ID: "career_goals", Title: "Career Goals", Type: domain.ChunkGoals, Content: "Short term: Lead."}),
	}
	require.NoError(t, s.Upsert(ctx, recs))
	require.NoError(t, s.Upsert(ctx, recs))
	fake.mu.Lock()
	assert.True(t, fake.created)
	fake.mu.Unlock()

	info, err := s.Info(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, info.VectorCount)
}

func TestStorage_QueryRebuildsChunks(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStorage(t)
	require.NoError(t, s.Upsert(ctx, []domain.VectorRecord{domain.RecordFromChunk(domain.Chunk{
		ID: "project_0", Title: "Project: Planner", Type: domain.ChunkProject, Content: "Name: Planner.",
	})}))

	res, err := s.Query(ctx, "planner", 3)
	require.NoError(t, err)
	require.Len(t, res, 1)
	assert.Equal(t, domain.Chunk{ID: "project_0", Title: "Project: Planner", Type: domain.ChunkProject, Content: "Name: Planner."}, res[0].Chunk)
	assert.Equal(t, 0.9, res[0].Score)
}

func TestPointID_Deterministic(t *testing.T) {
	assert.Equal(t, PointID("experience_0"), PointID("experience_0"))
	assert.NotEqual(t, PointID("experience_0"), PointID("experience_1"))
}

func TestStorage_ServerErrorSurfaces(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()
	s := NewStorage(Config{URL: srv.URL, Collection: "twin"}, fakeEmbedder{})
	_, err := s.Info(context.Background())
	assert.Error(t, err)
}

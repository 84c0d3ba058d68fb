package mcpserver

import (
	"context"
	"errors"
	"net"
	"net/http"
	"runtime"
	"testing"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"digitaltwin/internal/domain"
	"digitaltwin/internal/retriever"
	"digitaltwin/internal/service"
)

type fakeTwin struct {
	answer service.Answer
	err    error
	asked  []string
}

func (f *fakeTwin) Ask(_ context.Context, q string) (service.Answer, error) {
	f.asked = append(f.asked, q)
	return f.answer, f.err
}

func TestNew(t *testing.T) {
	s := New(&fakeTwin{}, "Jordan", "test")
	require.NotNil(t, s)
	assert.NotNil(t, s.server)
}

func TestHandleQuery(t *testing.T) {
	twin := &fakeTwin{answer: service.Answer{
		Text:    "I know Go and Python.",
		Mode:    retriever.ModeDegraded,
		Sources: []retriever.Source{{ID: "skills", Title: "skills"}},
	}}
	s := New(twin, "", "test")

	res, out, err := s.handleQuery(context.Background(), nil, QueryInput{Question: "What languages?"})
	require.NoError(t, err)
	require.NotNil(t, res)
	assert.False(t, res.IsError)
	require.Len(t, res.Content, 1)
	text, ok := res.Content[0].(*mcp.TextContent)
	require.True(t, ok)
	assert.Equal(t, "I know Go and Python.", text.Text)

	assert.Equal(t, "I know Go and Python.", out.Answer)
	assert.Equal(t, retriever.ModeDegraded, out.Mode)
	assert.Len(t, out.Sources, 1)
	assert.Equal(t, []string{"What languages?"}, twin.asked)
}

func TestHandleQuery_Errors(t *testing.T) {
	t.Run("blank question", func(t *testing.T) {
		twin := &fakeTwin{}
		_, _, err := New(twin, "", "test").handleQuery(context.Background(), nil, QueryInput{Question: "  "})
		assert.ErrorIs(t, err, domain.ErrEmptyQuestion)
		assert.Empty(t, twin.asked)
	})
	t.Run("terminated twin", func(t *testing.T) {
		_, _, err := New(&fakeTwin{err: domain.ErrTerminated}, "", "test").
			handleQuery(context.Background(), nil, QueryInput{Question: "hi"})
		assert.ErrorIs(t, err, domain.ErrTerminated)
	})
	t.Run("answer carrying an error", func(t *testing.T) {
		twin := &fakeTwin{answer: service.Answer{Text: "Error generating response: x", Err: errors.New("x")}}
		res, out, err := New(twin, "", "test").handleQuery(context.Background(), nil, QueryInput{Question: "hi"})
		require.NoError(t, err)
		assert.True(t, res.IsError)
		assert.Empty(t, out.Sources)
	})
}

func TestRunHTTP_ListenFailureReturns(t *testing.T) {
	busy, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer busy.Close()

	before := runtime.NumGoroutine()
	errCh := make(chan error, 1)
	go func() { errCh <- New(&fakeTwin{}, "", "test").RunHTTP(context.Background(), busy.Addr().String()) }()

	select {
	case err := <-errCh:
		assert.Error(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("RunHTTP did not return on a busy address")
	}
	assert.Eventually(t, func() bool { return runtime.NumGoroutine() <= before }, 2*time.Second, 10*time.Millisecond)
}

func TestRunHTTP_StopsOnCancel(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := l.Addr().String()
	require.NoError(t, l.Close())

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- New(&fakeTwin{}, "", "test").RunHTTP(ctx, addr) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + addr)
		if err != nil {
			return false
		}
		resp.Body.Close()
		return true
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("RunHTTP did not stop after cancel")
	}
}

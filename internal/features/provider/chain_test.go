package provider

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fast = Options{MaxTries: 3, InitialInterval: time.Millisecond}

func TestChainFirstSuccessWins(t *testing.T) {
	var secondCalled bool
	chain := NewChain(fast, zerolog.Nop(),
		Attempt[string]{Name: "primary", Fetch: func(context.Context) (string, error) { return "a", nil }},
		Attempt[string]{Name: "secondary", Fetch: func(context.Context) (string, error) {
			secondCalled = true
			return "b", nil
		}},
	)

	res, err := chain.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Result[string]{Value: "a", Source: "primary"}, res)
	assert.False(t, secondCalled)
}

func TestChainRetriesThenFallsBack(t *testing.T) {
	var primaryCalls int
	chain := NewChain(fast, zerolog.Nop(),
		Attempt[int]{Name: "primary", Fetch: func(context.Context) (int, error) {
			primaryCalls++
			return 0, &StatusError{URL: "primary", Code: 503}
		}},
		Attempt[int]{Name: "secondary", Fetch: func(context.Context) (int, error) { return 7, nil }},
	)

	res, err := chain.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "secondary", res.Source)
	assert.Equal(t, 7, res.Value)
	assert.Equal(t, 3, primaryCalls)
}

func TestChainPermanentErrorsAreNotRetried(t *testing.T) {
	var calls int
	chain := NewChain(fast, zerolog.Nop(),
		Attempt[int]{Name: "a", Fetch: func(context.Context) (int, error) {
			calls++
			return 0, fmt.Errorf("%w: status false", ErrInvalidResponse)
		}},
		Attempt[int]{Name: "b", Fetch: func(context.Context) (int, error) {
			calls++
			return 0, &StatusError{URL: "b", Code: 404}
		}},
	)

	_, err := chain.Run(context.Background())
	require.Error(t, err)
	assert.Equal(t, 2, calls)
	assert.ErrorIs(t, err, ErrInvalidResponse)
	assert.Contains(t, err.Error(), "a: ")
	assert.Contains(t, err.Error(), "b: ")
	assert.False(t, NotFound(err))
}

func TestNotFound(t *testing.T) {
	notFound := &StatusError{URL: "x", Code: 404}
	assert.True(t, NotFound(errors.Join(fmt.Errorf("a: %w", notFound), fmt.Errorf("b: %w", notFound))))
	assert.False(t, NotFound(errors.Join(notFound, errors.New("timeout"))))
	assert.False(t, NotFound(nil))
}

func TestChainEmpty(t *testing.T) {
	_, err := NewChain[int](Options{}, zerolog.Nop()).Run(context.Background())
	assert.Error(t, err)
}

func TestClientGetJSON(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		assert.Equal(t, "k", r.URL.Query().Get("apikey"))
		assert.NotEmpty(t, r.Header.Get("User-Agent"))
		switch r.URL.Path {
		case "/ok":
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"status":true,"result":{"name":"x"}}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	c := NewClient(time.Second)
	var out struct {
		Status bool `json:"status"`
		Result struct {
			Name string `json:"name"`
		} `json:"result"`
	}
	require.NoError(t, c.GetJSON(context.Background(), srv.URL+"/ok", url.Values{"apikey": {"k"}}, &out))
	assert.True(t, out.Status)
	assert.Equal(t, "x", out.Result.Name)

	err := c.GetJSON(context.Background(), srv.URL+"/missing", url.Values{"apikey": {"k"}}, &out)
	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, 404, statusErr.Code)
	assert.NotContains(t, statusErr.Error(), "apikey", "query string is redacted")
	assert.Equal(t, int32(2), hits.Load())
}

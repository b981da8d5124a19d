package problems

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memCache struct {
	mu      sync.Mutex
	entries map[string][]byte
	puts    int
}

func newMemCache() *memCache {
	return &memCache{entries: make(map[string][]byte)}
}

func (c *memCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.entries[key]
	return v, ok, nil
}

func (c *memCache) Put(_ context.Context, key string, value []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = value
	c.puts++
	return nil
}

func newResolver(gqlURL, altURL string, cache Cache) *Resolver {
	return &Resolver{
		GraphQLEndpoint: gqlURL,
		AltBaseURL:      altURL,
		GraphQLTimeout:  2 * time.Second,
		AltTimeout:      2 * time.Second,
		Cache:           cache,
	}
}

func TestResolve_FreeformTextBypassesEverything(t *testing.T) {
	// Any network call would panic the test server-less client.
	r := newResolver("http://127.0.0.1:0", "http://127.0.0.1:0", nil)

	md, ok := r.Resolve(context.Background(), "42", "design a rate limiter")
	require.True(t, ok)
	assert.Equal(t, "Custom Problem", md.Title)
	assert.Equal(t, "design a rate limiter", md.Description)
}

func TestResolve_EmptyIdentifierIsAbsent(t *testing.T) {
	r := newResolver("http://127.0.0.1:0", "http://127.0.0.1:0", nil)

	for _, id := range []string{"", "   ", "000"} {
		_, ok := r.Resolve(context.Background(), id, "")
		assert.False(t, ok, "id=%q", id)
	}
}

func gqlServer(t *testing.T, detailContent string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		var body struct {
			Query     string         `json:"query"`
			Variables map[string]any `json:"variables"`
		}
		require.NoError(t, json.NewDecoder(req.Body).Decode(&body))

		if strings.Contains(body.Query, "questionList") {
			_ = json.NewEncoder(w).Encode(map[string]any{
				"data": map[string]any{
					"problemsetQuestionList": map[string]any{
						"questions": []map[string]any{
							{"frontendQuestionId": "999", "titleSlug": "unrelated-problem"},
							{"frontendQuestionId": "777", "titleSlug": "lucky-numbers"},
						},
					},
				},
			})
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"data": map[string]any{
				"question": map[string]any{
					"title":               "Two Sum",
					"content":             detailContent,
					"difficulty":          "Easy",
					"topicTags":           []map[string]any{{"name": "Array"}, {"name": "Hash Table"}},
					"exampleTestcaseList": []string{"[2,7,11,15]\n9"},
				},
			},
		})
	}))
}

func TestResolve_StructuredTierCachesResult(t *testing.T) {
	srv := gqlServer(t, "<p>Given an array of integers...</p>")
	defer srv.Close()
	cache := newMemCache()
	r := newResolver(srv.URL, "http://127.0.0.1:0", cache)

	md, ok := r.Resolve(context.Background(), "1", "")
	require.True(t, ok)
	assert.Equal(t, "Two Sum", md.Title)
	assert.Equal(t, "Easy", md.Difficulty)
	assert.Equal(t, []string{"Array", "Hash Table"}, md.TopicTags)

	_, cached, err := cache.Get(context.Background(), "1")
	require.NoError(t, err)
	assert.True(t, cached)
}

func TestResolve_LeadingZerosShareOneCacheKey(t *testing.T) {
	srv := gqlServer(t, "<p>desc</p>")
	cache := newMemCache()
	r := newResolver(srv.URL, "http://127.0.0.1:0", cache)

	first, ok := r.Resolve(context.Background(), "007", "")
	require.True(t, ok)
	srv.Close() // force the second resolution off the network

	second, ok := r.Resolve(context.Background(), "7", "")
	require.True(t, ok)
	assert.Equal(t, first.Title, second.Title)
	assert.Equal(t, first.Description, second.Description)
	assert.Equal(t, 1, cache.puts)
}

func TestResolve_SearchMatchesExactIdentifier(t *testing.T) {
	var detailSlug string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		var body struct {
			Query     string         `json:"query"`
			Variables map[string]any `json:"variables"`
		}
		_ = json.NewDecoder(req.Body).Decode(&body)
		if strings.Contains(body.Query, "questionList") {
			_ = json.NewEncoder(w).Encode(map[string]any{
				"data": map[string]any{
					"problemsetQuestionList": map[string]any{
						"questions": []map[string]any{
							{"frontendQuestionId": "7770", "titleSlug": "wrong-match"},
							{"frontendQuestionId": "777", "titleSlug": "right-match"},
						},
					},
				},
			})
			return
		}
		detailSlug, _ = body.Variables["titleSlug"].(string)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"data": map[string]any{
				"question": map[string]any{"title": "Found", "content": "<p>x</p>"},
			},
		})
	}))
	defer srv.Close()

	r := newResolver(srv.URL, "http://127.0.0.1:0", newMemCache())
	// 777 is not in the static table, so the search path is exercised.
	md, ok := r.Resolve(context.Background(), "777", "")
	require.True(t, ok)
	assert.Equal(t, "Found", md.Title)
	assert.Equal(t, "right-match", detailSlug)
}

func TestResolve_UnstructuredTierAfterDetailFailure(t *testing.T) {
	// Structured tier knows the slug but the detail fetch returns no content.
	gql := gqlServer(t, "")
	defer gql.Close()

	alt := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		assert.Equal(t, "two-sum", req.URL.Query().Get("titleSlug"))
		_ = json.NewEncoder(w).Encode(map[string]any{
			"questionTitle": "Two Sum",
			"content":       "<p>alt description</p>",
			"difficulty":    "Easy",
			"topicTags":     []any{"Array"},
		})
	}))
	defer alt.Close()

	cache := newMemCache()
	r := newResolver(gql.URL, alt.URL, cache)

	md, ok := r.Resolve(context.Background(), "1", "")
	require.True(t, ok)
	assert.Equal(t, "Two Sum", md.Title)
	assert.Equal(t, "<p>alt description</p>", md.Description)
	assert.Equal(t, 1, cache.puts)
}

func TestResolve_CacheTierIsLastResort(t *testing.T) {
	cache := newMemCache()
	require.NoError(t, cache.Put(context.Background(), "1", []byte(`{"title":"Two Sum","description":"cached"}`)))

	// Both network tiers are unreachable.
	r := newResolver("http://127.0.0.1:0", "http://127.0.0.1:0", cache)
	r.GraphQLTimeout = 200 * time.Millisecond
	r.AltTimeout = 200 * time.Millisecond

	md, ok := r.Resolve(context.Background(), "1", "")
	require.True(t, ok)
	assert.Equal(t, "cached", md.Description)
}

func TestResolve_CacheTierNormalizesPreSchemaRecords(t *testing.T) {
	cache := newMemCache()
	raw := `{"questionTitle":"Old Shape","content":"<p>legacy</p>","topicTags":[{"name":"Graph"}]}`
	require.NoError(t, cache.Put(context.Background(), "133", []byte(raw)))

	r := newResolver("http://127.0.0.1:0", "http://127.0.0.1:0", cache)
	r.GraphQLTimeout = 200 * time.Millisecond
	r.AltTimeout = 200 * time.Millisecond

	md, ok := r.Resolve(context.Background(), "133", "")
	require.True(t, ok)
	assert.Equal(t, "Old Shape", md.Title)
	assert.Equal(t, "<p>legacy</p>", md.Description)
	assert.Equal(t, []string{"Graph"}, md.TopicTags)
}

func TestResolve_NothingResolvesIsAbsent(t *testing.T) {
	r := newResolver("http://127.0.0.1:0", "http://127.0.0.1:0", newMemCache())
	r.GraphQLTimeout = 200 * time.Millisecond
	r.AltTimeout = 200 * time.Millisecond

	_, ok := r.Resolve(context.Background(), "424242", "")
	assert.False(t, ok)
}

package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/llehouerou/alephplay/internal/protocol"
)

func TestFromPayload_NormalizesFieldNames(t *testing.T) {
	p := &protocol.SongPayload{
		MongoID:  "m1",
		Title:    " Song ",
		CoverURL: "/covers/1.jpg",
		AudioURL: "https://cdn/1.mp3",
		Duration: 200,
	}

	tr := FromPayload(p)

	assert.Equal(t, "m1", tr.ID)
	assert.Equal(t, "Song", tr.Title)
	assert.Equal(t, "/covers/1.jpg", tr.CoverURL)
	assert.Equal(t, 200*time.Second, tr.Duration)
	assert.Equal(t, Track{}, FromPayload(nil))
}

func TestTrack_MissingAndMerge(t *testing.T) {
	tr := Track{ID: "s1", Title: "Kept", AudioURL: "https://cdn/s1.mp3"}
	assert.Equal(t, []string{"artist", "album", "cover", "duration"}, tr.Missing())
	assert.False(t, tr.Complete())

	merged := tr.Merge(Track{
		ID:       "other",
		Title:    "Ignored",
		Artist:   "Artist",
		Album:    "Album",
		CoverURL: "https://img/s1.jpg",
		AudioURL: "https://other.mp3",
		Duration: 3 * time.Minute,
	})

	assert.Equal(t, "s1", merged.ID)
	assert.Equal(t, "Kept", merged.Title)
	assert.Equal(t, "Artist", merged.Artist)
	assert.Equal(t, "https://cdn/s1.mp3", merged.AudioURL)
	assert.Equal(t, 3*time.Minute, merged.Duration)
	assert.True(t, merged.Complete())
}

func TestBackfill(t *testing.T) {
	calls := 0
	lookup := LookupFunc(func(_ context.Context, id string) (Track, error) {
		calls++
		if id == "missing" {
			return Track{}, ErrNotFound
		}
		return Track{ID: id, Title: "T", Artist: "A", Album: "B", CoverURL: "c", Duration: time.Minute}, nil
	})
	ctx := context.Background()

	got, err := Backfill(ctx, lookup, Track{ID: "s1", AudioURL: "u"})
	require.NoError(t, err)
	assert.Equal(t, "A", got.Artist)
	assert.Equal(t, "u", got.AudioURL)

	complete := Track{ID: "s2", Title: "T", Artist: "A", Album: "B", CoverURL: "c", Duration: time.Second}
	got, err = Backfill(ctx, lookup, complete)
	require.NoError(t, err)
	assert.Equal(t, complete, got)
	assert.Equal(t, 1, calls, "complete tracks are not looked up")

	orig := Track{ID: "missing", Title: "Only"}
	got, err = Backfill(ctx, lookup, orig)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, orig, got)

	got, err = Backfill(ctx, nil, orig)
	require.NoError(t, err)
	assert.Equal(t, orig, got)
}

func newGraphQLServer(t *testing.T, handler func(id string) (int, string)) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != graphqlPath || r.Method != http.MethodPost {
			http.NotFound(w, r)
			return
		}
		var req graphqlRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		id, _ := req.Variables["id"].(string)
		status, body := handler(id)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestClient_Lookup(t *testing.T) {
	srv := newGraphQLServer(t, func(id string) (int, string) {
		switch id {
		case "s1":
			return http.StatusOK, `{"data":{"song":{"id":"s1","title":"One","artist":"A","album":"B","image_url":"https://img/1","audio_url":"https://cdn/1.mp3","duration":"2:30"}}}`
		case "gql-error":
			return http.StatusOK, `{"data":{"song":null},"errors":[{"message":"no such song"}]}`
		case "null":
			return http.StatusOK, `{"data":{"song":null}}`
		default:
			return http.StatusInternalServerError, "boom"
		}
	})
	c := NewClient(srv.URL+"/", time.Second)
	ctx := context.Background()

	tr, err := c.Lookup(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, Track{
		ID:       "s1",
		Title:    "One",
		Artist:   "A",
		Album:    "B",
		CoverURL: "https://img/1",
		AudioURL: "https://cdn/1.mp3",
		Duration: 150 * time.Second,
	}, tr)

	_, err = c.Lookup(ctx, "gql-error")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = c.Lookup(ctx, "null")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = c.Lookup(ctx, "other")
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrNotFound))
	assert.Contains(t, err.Error(), "500")
}

func TestRedisCache_FallsThroughWhenRedisIsDown(t *testing.T) {
	rdb := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		MaxRetries:  -1,
		DialTimeout: 100 * time.Millisecond,
	})
	t.Cleanup(func() { _ = rdb.Close() })

	calls := 0
	next := LookupFunc(func(_ context.Context, id string) (Track, error) {
		calls++
		return Track{ID: id, Title: "From catalog"}, nil
	})
	cache := NewRedisCache(rdb, next, time.Minute, nil)

	tr, err := cache.Lookup(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, "From catalog", tr.Title)
	assert.Equal(t, 1, calls)
}

func TestCachedEncoding(t *testing.T) {
	orig := Track{ID: "s1", Title: "T", Duration: 90 * time.Second}
	data, err := encodeCached(orig)
	require.NoError(t, err)

	got, ok := decodeCached(data)
	require.True(t, ok)
	assert.Equal(t, orig, got)

	_, ok = decodeCached([]byte(`{"title":"no id"}`))
	assert.False(t, ok)
	_, ok = decodeCached([]byte(`garbage`))
	assert.False(t, ok)
	assert.Equal(t, "catalog:track:s1", cacheKey("s1"))
}

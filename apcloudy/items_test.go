package apcloudy

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// itemServer serves total sequential items honoring offset/count paging and
// counts page fetches.
func itemServer(t *testing.T, total int, fetches *atomic.Int32) http.Handler {
	t.Helper()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fetches.Add(1)
		offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
		count, _ := strconv.Atoi(r.URL.Query().Get("count"))

		items := []Item{}
		for i := offset; i < total && i < offset+count; i++ {
			items = append(items, Item{"seq": i, "url": fmt.Sprintf("https://example.com/%d", i)})
		}
		json.NewEncoder(w).Encode(map[string]any{"items": items})
	})
}

func TestJobsItemsPage(t *testing.T) {
	var fetches atomic.Int32
	client := newTestClient(t, itemServer(t, 30, &fetches))

	items, err := client.Jobs.Items(context.Background(), "j-1", 10, 5)
	require.NoError(t, err)
	require.Len(t, items, 5)
	assert.Equal(t, float64(10), items[0]["seq"])
	assert.Equal(t, int32(1), fetches.Load())
}

func TestItemIteratorConsumesAllInOrder(t *testing.T) {
	var fetches atomic.Int32
	client := newTestClient(t, itemServer(t, 25, &fetches))

	it := client.Jobs.IterItems("j-1", 10)
	defer it.Close()

	ctx := context.Background()
	var seen []float64
	for it.Next(ctx) {
		seen = append(seen, it.Item()["seq"].(float64))
	}
	require.NoError(t, it.Err())

	require.Len(t, seen, 25)
	for i, seq := range seen {
		assert.Equal(t, float64(i), seq, "items arrive in original order")
	}

	// 25 records in pages of 10: the short final page ends the stream,
	// so exactly ceil(25/10) = 3 fetches.
	assert.Equal(t, int32(3), fetches.Load())
}

func TestItemIteratorEmptyJob(t *testing.T) {
	var fetches atomic.Int32
	client := newTestClient(t, itemServer(t, 0, &fetches))

	it := client.Jobs.IterItems("j-1", 10)
	defer it.Close()

	assert.False(t, it.Next(context.Background()))
	assert.NoError(t, it.Err())
	assert.Equal(t, int32(1), fetches.Load())
}

func TestItemIteratorNotRestartable(t *testing.T) {
	var fetches atomic.Int32
	client := newTestClient(t, itemServer(t, 5, &fetches))

	ctx := context.Background()
	it := client.Jobs.IterItems("j-1", 10)
	for it.Next(ctx) {
	}
	require.NoError(t, it.Err())

	before := fetches.Load()
	assert.False(t, it.Next(ctx), "exhausted iterator stays exhausted")
	assert.Equal(t, before, fetches.Load(), "no further fetches after exhaustion")
}

func TestItemIteratorEarlyClose(t *testing.T) {
	var fetches atomic.Int32
	client := newTestClient(t, itemServer(t, 100, &fetches))

	ctx := context.Background()
	it := client.Jobs.IterItems("j-1", 10)

	require.True(t, it.Next(ctx))
	require.True(t, it.Next(ctx))
	require.NoError(t, it.Close())
	require.NoError(t, it.Close(), "close is idempotent")

	assert.False(t, it.Next(ctx))
	assert.NoError(t, it.Err(), "early termination is not an error")
	assert.Equal(t, int32(1), fetches.Load(), "no fetches after close")
	assert.Nil(t, it.Item())
}

func TestItemIteratorPropagatesErrors(t *testing.T) {
	var fetches atomic.Int32
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if fetches.Add(1) > 1 {
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"message":"job not found"}`))
			return
		}
		items := make([]Item, 10)
		for i := range items {
			items[i] = Item{"seq": i}
		}
		json.NewEncoder(w).Encode(map[string]any{"items": items})
	}))

	ctx := context.Background()
	it := client.Jobs.IterItems("j-1", 10)
	defer it.Close()

	count := 0
	for it.Next(ctx) {
		count++
	}
	assert.Equal(t, 10, count, "first page is delivered before the failure")
	require.Error(t, it.Err())
	assert.ErrorIs(t, it.Err(), ErrNotFound)

	// The error sticks after Close.
	require.NoError(t, it.Close())
	assert.ErrorIs(t, it.Err(), ErrNotFound)
}

func TestItemIteratorEmptyJobID(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no request expected")
	}))

	it := client.Jobs.IterItems("", 10)
	assert.False(t, it.Next(context.Background()))

	var valErr *ValidationError
	require.ErrorAs(t, it.Err(), &valErr)
}

package memory

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tao-shen/CiteTrack-sub002/internal/core/ports/driven"
)

func TestConfigStore_SetAndGet(t *testing.T) {
	store := NewConfigStore()

	require.NoError(t, store.Set("fetch.base_url", "https://scholar.google.com"))
	require.NoError(t, store.Set("fetch.base_url", "http://localhost:8080"))

	val, ok := store.Get("fetch.base_url")
	assert.True(t, ok)
	assert.Equal(t, "http://localhost:8080", val)

	_, ok = store.Get("missing")
	assert.False(t, ok)
}

func TestConfigStore_TypedGetters(t *testing.T) {
	store := NewConfigStore()
	require.NoError(t, store.Set("s", "text"))
	require.NoError(t, store.Set("i", 42))
	require.NoError(t, store.Set("i64", int64(7)))
	require.NoError(t, store.Set("f", 3.0))
	require.NoError(t, store.Set("b", true))

	tests := []struct {
		name string
		got  any
		want any
	}{
		{"string", store.GetString("s"), "text"},
		{"string wrong type", store.GetString("i"), ""},
		{"int", store.GetInt("i"), 42},
		{"int from int64", store.GetInt("i64"), 7},
		{"int from float64", store.GetInt("f"), 3},
		{"int wrong type", store.GetInt("s"), 0},
		{"bool", store.GetBool("b"), true},
		{"bool wrong type", store.GetBool("s"), false},
		{"bool missing", store.GetBool("missing"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.got)
		})
	}
}

func TestConfigStore_GetDuration(t *testing.T) {
	store := NewConfigStore()
	require.NoError(t, store.Set("cache.ttl", "24h"))
	require.NoError(t, store.Set("fetch.min_delay", 2))
	require.NoError(t, store.Set("fetch.max_delay", 3*time.Second))
	require.NoError(t, store.Set("bad", "soon"))

	assert.Equal(t, 24*time.Hour, store.GetDuration("cache.ttl"))
	assert.Equal(t, 2*time.Second, store.GetDuration("fetch.min_delay"))
	assert.Equal(t, 3*time.Second, store.GetDuration("fetch.max_delay"))
	assert.Zero(t, store.GetDuration("bad"))
	assert.Zero(t, store.GetDuration("missing"))

	raw, _ := store.Get("fetch.max_delay")
	assert.Equal(t, "3s", raw, "durations are stored as strings")
}

func TestConfigStore_GetStringSlice(t *testing.T) {
	store := NewConfigStore()
	require.NoError(t, store.Set("scholars.tracked", []string{"a", "b"}))
	require.NoError(t, store.Set("mixed", []any{"x", 1, "y"}))

	tracked := store.GetStringSlice("scholars.tracked")
	assert.Equal(t, []string{"a", "b"}, tracked)
	assert.Equal(t, []string{"x", "y"}, store.GetStringSlice("mixed"))
	assert.Nil(t, store.GetStringSlice("missing"))

	tracked[0] = "changed"
	assert.Equal(t, "a", store.GetStringSlice("scholars.tracked")[0], "callers get a copy")
}

func TestConfigStore_SaveLoadPath(t *testing.T) {
	store := NewConfigStore()
	assert.NoError(t, store.Save())
	assert.NoError(t, store.Load())
	assert.Equal(t, ":memory:", store.Path())
}

func TestConfigStore_Concurrency(t *testing.T) {
	store := NewConfigStore()
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func(n int) {
			defer wg.Done()
			_ = store.Set("scheduler.enabled", n%2 == 0)
		}(i)
		go func() {
			defer wg.Done()
			_ = store.GetBool("scheduler.enabled")
		}()
	}
	wg.Wait()

	_, ok := store.Get("scheduler.enabled")
	assert.True(t, ok)
}

func TestConfigStore_InterfaceCompliance(t *testing.T) {
	var _ driven.ConfigStore = NewConfigStore()
}

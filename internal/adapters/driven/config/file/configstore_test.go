package file

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfigStore_Success(t *testing.T) {
	tmpDir := t.TempDir()

	store, err := NewConfigStore(tmpDir)

	require.NoError(t, err)
	require.NotNil(t, store)
	assert.Equal(t, filepath.Join(tmpDir, "config.toml"), store.Path())
	assert.NoFileExists(t, store.Path(), "nothing is written until a value is set")
}

func TestNewConfigStore_DefaultDir(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	store, err := NewConfigStore("")

	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".citetrack", "config.toml"), store.Path())
}

func TestNewConfigStore_MkdirAllError(t *testing.T) {
	store, err := NewConfigStore("/dev/null/cannot/create/dirs")

	assert.Error(t, err)
	assert.Nil(t, store)
}

func TestNewConfigStore_LoadCorruptedFile(t *testing.T) {
	tmpDir := t.TempDir()
	err := os.WriteFile(filepath.Join(tmpDir, "config.toml"), []byte("this is not valid TOML {{{[["), 0600)
	require.NoError(t, err)

	store, err := NewConfigStore(tmpDir)

	assert.Error(t, err)
	assert.Nil(t, store)
}

func TestConfigStore_TypedGetters(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, store.Set("fetch.base_url", "https://scholar.google.com"))
	require.NoError(t, store.Set("fetch.pages_per_sort", 3))
	require.NoError(t, store.Set("scheduler.enabled", true))
	require.NoError(t, store.Set("scholars.tracked", []string{"abc", "def"}))

	assert.Equal(t, "https://scholar.google.com", store.GetString("fetch.base_url"))
	assert.Equal(t, 3, store.GetInt("fetch.pages_per_sort"))
	assert.True(t, store.GetBool("scheduler.enabled"))
	assert.Equal(t, []string{"abc", "def"}, store.GetStringSlice("scholars.tracked"))

	assert.Empty(t, store.GetString("fetch.pages_per_sort"), "wrong type")
	assert.Zero(t, store.GetInt("fetch.base_url"), "wrong type")
	assert.False(t, store.GetBool("missing"))
	assert.Nil(t, store.GetStringSlice("missing"))
}

func TestConfigStore_GetDuration(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, store.Set("cache.ttl", "24h"))
	require.NoError(t, store.Set("fetch.min_delay", 2))
	require.NoError(t, store.Set("fetch.max_delay", "later"))

	assert.Equal(t, 24*time.Hour, store.GetDuration("cache.ttl"))
	assert.Equal(t, 2*time.Second, store.GetDuration("fetch.min_delay"))
	assert.Zero(t, store.GetDuration("fetch.max_delay"))
	assert.Zero(t, store.GetDuration("missing"))
}

func TestConfigStore_WritesNestedTables(t *testing.T) {
	tmpDir := t.TempDir()
	store, err := NewConfigStore(tmpDir)
	require.NoError(t, err)

	require.NoError(t, store.Set("notifications.smtp.port", 587))
	require.NoError(t, store.Set("notifications.enabled", true))
	require.NoError(t, store.Set("cache.ttl", "12h"))

	data, err := os.ReadFile(store.Path())
	require.NoError(t, err)
	content := string(data)
	assert.Contains(t, content, "[notifications.smtp]")
	assert.Contains(t, content, "[cache]")
	assert.NotContains(t, content, "'notifications.smtp.port'")

	reloaded, err := NewConfigStore(tmpDir)
	require.NoError(t, err)
	assert.Equal(t, 587, reloaded.GetInt("notifications.smtp.port"))
	assert.True(t, reloaded.GetBool("notifications.enabled"))
	assert.Equal(t, 12*time.Hour, reloaded.GetDuration("cache.ttl"))
}

func TestConfigStore_ReadsHandWrittenFile(t *testing.T) {
	tmpDir := t.TempDir()
	content := `
[fetch]
min_delay = "5s"
max_delay = 8

[scholars]
tracked = ["abc"]
`
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "config.toml"), []byte(content), 0600))

	store, err := NewConfigStore(tmpDir)
	require.NoError(t, err)

	assert.Equal(t, 5*time.Second, store.GetDuration("fetch.min_delay"))
	assert.Equal(t, 8*time.Second, store.GetDuration("fetch.max_delay"))
	assert.Equal(t, []string{"abc"}, store.GetStringSlice("scholars.tracked"))
}

func TestConfigStore_Save_Explicit(t *testing.T) {
	tmpDir := t.TempDir()
	store, err := NewConfigStore(tmpDir)
	require.NoError(t, err)

	store.mu.Lock()
	store.data["manual.key"] = "manual_value"
	store.mu.Unlock()

	require.NoError(t, store.Save())

	store2, err := NewConfigStore(tmpDir)
	require.NoError(t, err)
	assert.Equal(t, "manual_value", store2.GetString("manual.key"))
}

func TestConfigStore_FilePermissions(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, store.Set("notifications.smtp.password", "secret"))

	info, err := os.Stat(store.Path())
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	entries, err := os.ReadDir(filepath.Dir(store.Path()))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temporary files left behind")
}

func TestConfigStore_Save_WriteFileError(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, store.Set("test", "value"))

	// A directory in place of the file makes the final rename fail.
	require.NoError(t, os.Remove(store.Path()))
	require.NoError(t, os.Mkdir(store.Path(), 0700))
	require.NoError(t, os.WriteFile(filepath.Join(store.Path(), "child"), nil, 0600))

	assert.Error(t, store.Set("another", "value"))
}

func TestConfigStore_SetWithUnmarshallableValue(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)

	assert.Error(t, store.Set("channel", make(chan int)))
}

func TestConfigStore_Load_MissingFileResets(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, store.Set("k", "v"))
	require.NoError(t, os.Remove(store.Path()))

	require.NoError(t, store.Load())

	_, ok := store.Get("k")
	assert.False(t, ok)
}

func TestConfigStore_Concurrency(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
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

func TestNestMap(t *testing.T) {
	nested := nestMap(map[string]any{
		"a":     1,
		"a.b":   2,
		"c.d.e": "x",
		"f":     true,
	})

	assert.Equal(t, map[string]any{
		"a": map[string]any{"b": 2},
		"c": map[string]any{"d": map[string]any{"e": "x"}},
		"f": true,
	}, nested)
	assert.Equal(t, map[string]any{"c.d.e": "x", "f": true}, flattenMap(map[string]any{
		"c": map[string]any{"d": map[string]any{"e": "x"}},
		"f": true,
	}, ""))
}

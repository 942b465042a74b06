package file

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/screener/internal/common"
	"github.com/ternarybob/screener/internal/interfaces"
)

func newStore(t *testing.T) *CacheStore {
	t.Helper()
	store, err := NewCacheStore(filepath.Join(t.TempDir(), "cache"), common.NewSilentLogger())
	require.NoError(t, err)
	return store
}

func TestPutGetRoundTrip(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()
	written := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, store.Put(ctx, interfaces.CacheRecord{Key: "AAPL", Payload: []byte(`{"ticker":"AAPL"}`), WrittenAt: written}))

	record, err := store.Get(ctx, "AAPL")
	require.NoError(t, err)
	assert.Equal(t, "AAPL", record.Key)
	assert.JSONEq(t, `{"ticker":"AAPL"}`, string(record.Payload))
	assert.True(t, written.Equal(record.WrittenAt))
}

func TestGetMissing(t *testing.T) {
	store := newStore(t)
	_, err := store.Get(context.Background(), "NOPE")
	assert.ErrorIs(t, err, interfaces.ErrCacheMiss)
}

func TestGetCorruptFile(t *testing.T) {
	store := newStore(t)
	require.NoError(t, os.WriteFile(store.Path("BAD"), []byte("{truncated"), 0644))

	_, err := store.Get(context.Background(), "BAD")
	require.Error(t, err)
	assert.NotErrorIs(t, err, interfaces.ErrCacheMiss)
}

func TestPutRejectsInvalidPayload(t *testing.T) {
	store := newStore(t)
	err := store.Put(context.Background(), interfaces.CacheRecord{Key: "AAPL", Payload: []byte("not json")})
	assert.Error(t, err)

	_, err = store.Get(context.Background(), "AAPL")
	assert.ErrorIs(t, err, interfaces.ErrCacheMiss)
}

func TestKeySanitized(t *testing.T) {
	store := newStore(t)
	require.NoError(t, store.Put(context.Background(), interfaces.CacheRecord{Key: "ASX:BHP", Payload: []byte(`{}`)}))

	assert.Equal(t, "ASX_BHP.json", filepath.Base(store.Path("ASX:BHP")))
	_, err := os.Stat(store.Path("ASX:BHP"))
	assert.NoError(t, err)
}

func TestConcurrentWritersLeaveValidEntry(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = store.Put(ctx, interfaces.CacheRecord{Key: "MSFT", Payload: []byte(`{"ticker":"MSFT"}`), WrittenAt: time.Now()})
		}()
	}
	wg.Wait()

	record, err := store.Get(ctx, "MSFT")
	require.NoError(t, err)
	assert.JSONEq(t, `{"ticker":"MSFT"}`, string(record.Payload))

	entries, err := os.ReadDir(store.dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files are cleaned up")
}

func TestCancelledContext(t *testing.T) {
	store := newStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := store.Get(ctx, "AAPL")
	assert.ErrorIs(t, err, context.Canceled)
	assert.ErrorIs(t, store.Put(ctx, interfaces.CacheRecord{Key: "AAPL", Payload: []byte(`{}`)}), context.Canceled)
}

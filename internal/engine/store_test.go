package engine

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMemStore(t *testing.T, maxEntries int) *LimiterStore {
	t.Helper()
	s := NewLimiterStore("", maxEntries, time.Minute)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestLimiterStoreGetSet(t *testing.T) {
	s := newMemStore(t, 100)
	assert.False(t, s.Redis())

	got, err := s.Get("missing")
	require.NoError(t, err)
	assert.Nil(t, got)

	require.NoError(t, s.Set("api:1.2.3.4", []byte("hits"), time.Minute))
	got, err = s.Get("api:1.2.3.4")
	require.NoError(t, err)
	assert.Equal(t, []byte("hits"), got)

	require.NoError(t, s.Delete("api:1.2.3.4"))
	got, err = s.Get("api:1.2.3.4")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestLimiterStoreIgnoresEmpty(t *testing.T) {
	s := newMemStore(t, 100)
	require.NoError(t, s.Set("", []byte("x"), 0))
	require.NoError(t, s.Set("k", nil, 0))
	assert.Equal(t, 0, s.count())
}

func TestLimiterStoreExpiration(t *testing.T) {
	s := newMemStore(t, 100)
	require.NoError(t, s.Set("k", []byte("v"), time.Millisecond))
	time.Sleep(5 * time.Millisecond)

	got, err := s.Get("k")
	require.NoError(t, err)
	assert.Nil(t, got, "expected miss after expiry")
}

func TestLimiterStoreNoExpiration(t *testing.T) {
	s := newMemStore(t, 100)
	require.NoError(t, s.Set("k", []byte("v"), 0))
	time.Sleep(2 * time.Millisecond)

	got, err := s.Get("k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), got)
}

func TestLimiterStoreEviction(t *testing.T) {
	s := newMemStore(t, 3)
	for i := 0; i < 5; i++ {
		require.NoError(t, s.Set(fmt.Sprintf("item-%d", i), []byte("v"), time.Duration(i+1)*time.Minute))
	}
	assert.LessOrEqual(t, s.count(), 3)

	// The most recent write always survives eviction.
	got, err := s.Get("item-4")
	require.NoError(t, err)
	assert.NotNil(t, got)
}

func TestLimiterStoreReset(t *testing.T) {
	s := newMemStore(t, 100)
	require.NoError(t, s.Set("a", []byte("1"), time.Minute))
	require.NoError(t, s.Set("b", []byte("2"), time.Minute))
	require.NoError(t, s.Reset())
	assert.Equal(t, 0, s.count())
}

func TestLimiterStoreCopiesValue(t *testing.T) {
	s := newMemStore(t, 100)
	buf := []byte("abc")
	require.NoError(t, s.Set("k", buf, time.Minute))
	buf[0] = 'z'

	got, err := s.Get("k")
	require.NoError(t, err)
	assert.Equal(t, []byte("abc"), got)
}

func TestLimiterStoreInvalidRedisFallsBack(t *testing.T) {
	s := NewLimiterStore("://not-a-url", 10, time.Minute)
	defer s.Close()
	assert.False(t, s.Redis())
	require.NoError(t, s.Set("k", []byte("v"), time.Minute))
}

func TestLimiterStoreCloseIdempotent(t *testing.T) {
	s := NewLimiterStore("", 10, time.Minute)
	require.NoError(t, s.Close())
	require.NoError(t, s.Close())
}

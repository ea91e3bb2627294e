package redisstore

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/azairamail/EASYAiPOS/internal/snapshot"
)

func TestKeys(t *testing.T) {
	assert.Equal(t, "easypos:restaurants:abc", Key("abc"))
	assert.Equal(t, "easypos:restaurants:abc:updates", Channel("abc"))
}

func testStore(t *testing.T) *Store {
	t.Helper()
	addr := os.Getenv("EASYPOS_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("EASYPOS_TEST_REDIS_ADDR not set")
	}
	rdb, err := NewClient(context.Background(), Options{Addr: addr})
	require.NoError(t, err)
	t.Cleanup(func() { rdb.Close() })
	return New(rdb)
}

func TestStore_SaveLoad(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	account := "test-" + uuid.NewString()
	t.Cleanup(func() { s.rdb.Del(context.Background(), Key(account)) })

	got, err := s.Load(ctx, account)
	require.NoError(t, err)
	assert.Nil(t, got)

	want := snapshot.Default()
	want.Settings.StoreName = "Redis Kitchen"
	require.NoError(t, s.Save(ctx, account, want))

	got, err = s.Load(ctx, account)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Redis Kitchen", got.Settings.StoreName)
	wantHash, err := snapshot.Hash(want)
	require.NoError(t, err)
	gotHash, err := snapshot.Hash(*got)
	require.NoError(t, err)
	assert.Equal(t, wantHash, gotHash)
}

func TestStore_SubscribeStreamsSaves(t *testing.T) {
	s := testStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	account := "test-" + uuid.NewString()
	t.Cleanup(func() { s.rdb.Del(context.Background(), Key(account)) })

	ch, err := s.Subscribe(ctx, account)
	require.NoError(t, err)

	first := <-ch
	assert.Nil(t, first.Snapshot)

	snap := snapshot.Default()
	snap.Settings.StoreName = "Live"
	require.NoError(t, s.Save(context.Background(), account, snap))

	select {
	case p := <-ch:
		require.NoError(t, p.Err)
		require.NotNil(t, p.Snapshot)
		assert.Equal(t, "Live", p.Snapshot.Settings.StoreName)
	case <-time.After(2 * time.Second):
		t.Fatal("no update received")
	}
}

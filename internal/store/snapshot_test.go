package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/azairamail/EASYAiPOS/internal/snapshot"
	"github.com/azairamail/EASYAiPOS/internal/syncer"
)

func TestLoadSnapshot_MissingAccount(t *testing.T) {
	s := createTestStore(t)

	snap, err := s.LoadSnapshot(context.Background(), "nobody")
	require.NoError(t, err)
	assert.Nil(t, snap)

	rev, err := s.Revision(context.Background(), "nobody")
	require.NoError(t, err)
	assert.Zero(t, rev)
}

func TestSaveSnapshot_RoundTrip(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	want := createTestSnapshot()

	rev, err := s.SaveSnapshot(ctx, "acct", want)
	require.NoError(t, err)
	assert.Equal(t, int64(1), rev)

	got, err := s.LoadSnapshot(ctx, "acct")
	require.NoError(t, err)
	require.NotNil(t, got)

	wantHash, err := snapshot.Hash(want)
	require.NoError(t, err)
	gotHash, err := snapshot.Hash(*got)
	require.NoError(t, err)
	assert.Equal(t, wantHash, gotHash)

	assert.Equal(t, "Test Kitchen", got.Settings.StoreName)
	assert.Equal(t, int64(1002), got.Settings.InvoiceStartingNumber)
	assert.True(t, got.Orders["O1"].Timestamp.Equal(testTime))
	assert.Equal(t, "12.5", got.Inventory["I1"].Quantity.String())
}

func TestLoadSnapshot_AfterReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pos.db")
	ctx := context.Background()

	s, err := Open(path)
	require.NoError(t, err)
	_, err = s.SaveSnapshot(ctx, "acct", snapshot.Default())
	require.NoError(t, err)
	require.NoError(t, s.Close())

	again, err := Open(path)
	require.NoError(t, err)
	defer again.Close()

	got, err := again.LoadSnapshot(ctx, "acct")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Len(t, got.TeamMembers, 1)

	subCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	payloads, err := again.Subscribe(subCtx, "acct")
	require.NoError(t, err)
	select {
	case p := <-payloads:
		require.NoError(t, p.Err)
		require.NotNil(t, p.Snapshot)
	case <-time.After(time.Second):
		t.Fatal("no payload for a saved account")
	}
}

func TestSaveSnapshot_ReplacesWholesale(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	first := createTestSnapshot()
	_, err := s.SaveSnapshot(ctx, "acct", first)
	require.NoError(t, err)

	second := createTestSnapshot()
	delete(second.Tables, "T2")
	delete(second.Orders, "O1")
	rev, err := s.SaveSnapshot(ctx, "acct", second)
	require.NoError(t, err)
	assert.Equal(t, int64(2), rev)

	got, err := s.LoadSnapshot(ctx, "acct")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Len(t, got.Tables, 1)
	assert.Empty(t, got.Orders)
	assert.NotNil(t, got.Orders, "empty collections load as empty maps")
}

func TestSaveSnapshot_AccountsAreIsolated(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	_, err := s.SaveSnapshot(ctx, "a", createTestSnapshot())
	require.NoError(t, err)
	_, err = s.SaveSnapshot(ctx, "b", snapshot.Default())
	require.NoError(t, err)

	a, err := s.LoadSnapshot(ctx, "a")
	require.NoError(t, err)
	b, err := s.LoadSnapshot(ctx, "b")
	require.NoError(t, err)
	assert.Len(t, a.Menu, 1)
	assert.Empty(t, b.Menu)

	accounts, err := s.Accounts(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, accounts)
}

func TestLoadSnapshot_MissingSettingsKeysUseDefaults(t *testing.T) {
	s := createTestStore(t)

	_, err := s.db.Exec(`
		INSERT INTO accounts (account, settings, revision, updated_at)
		VALUES ('old', '{"storeName":"Legacy"}', 1, '2023-01-01T00:00:00Z')
	`)
	require.NoError(t, err)

	got, err := s.LoadSnapshot(context.Background(), "old")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Legacy", got.Settings.StoreName)
	assert.Equal(t, "INV-", got.Settings.InvoicePrefix)
	assert.Equal(t, int64(1001), got.Settings.InvoiceStartingNumber)
}

func TestSubscribe_DeliversCurrentThenSaves(t *testing.T) {
	s := createTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch, err := s.Subscribe(ctx, "acct")
	require.NoError(t, err)

	first := receive(t, ch)
	require.NoError(t, first.Err)
	assert.Nil(t, first.Snapshot, "fresh account has no record")

	_, err = s.SaveSnapshot(context.Background(), "acct", createTestSnapshot())
	require.NoError(t, err)

	next := receive(t, ch)
	require.NotNil(t, next.Snapshot)
	assert.Equal(t, "Test Kitchen", next.Snapshot.Settings.StoreName)
}

func TestSubscribe_ExistingRecord(t *testing.T) {
	s := createTestStore(t)
	_, err := s.SaveSnapshot(context.Background(), "acct", createTestSnapshot())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ch, err := s.Subscribe(ctx, "acct")
	require.NoError(t, err)

	p := receive(t, ch)
	require.NotNil(t, p.Snapshot)
	assert.Len(t, p.Snapshot.Tables, 2)
}

func TestSubscribe_OtherAccountNotNotified(t *testing.T) {
	s := createTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch, err := s.Subscribe(ctx, "a")
	require.NoError(t, err)
	receive(t, ch)

	_, err = s.SaveSnapshot(context.Background(), "b", createTestSnapshot())
	require.NoError(t, err)

	select {
	case p := <-ch:
		t.Fatalf("unexpected delivery: %+v", p)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestSubscribe_SlowReaderGetsLatest(t *testing.T) {
	s := createTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch, err := s.Subscribe(ctx, "acct")
	require.NoError(t, err)

	for _, name := range []string{"one", "two", "three"} {
		snap := createTestSnapshot()
		snap.Settings.StoreName = name
		_, err := s.SaveSnapshot(context.Background(), "acct", snap)
		require.NoError(t, err)
	}

	p := receive(t, ch)
	require.NotNil(t, p.Snapshot)
	assert.Equal(t, "three", p.Snapshot.Settings.StoreName)
}

func TestSubscribe_ClosesOnCancel(t *testing.T) {
	s := createTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())

	ch, err := s.Subscribe(ctx, "acct")
	require.NoError(t, err)
	receive(t, ch)

	cancel()
	select {
	case _, ok := <-ch:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("subscription not closed after cancel")
	}
}

func TestStore_IsRemoteStore(t *testing.T) {
	var remote syncer.RemoteStore = createTestStore(t)
	require.NoError(t, remote.Save(context.Background(), "acct", snapshot.Default()))
}

func receive(t *testing.T, ch <-chan syncer.Payload) syncer.Payload {
	t.Helper()
	select {
	case p, ok := <-ch:
		require.True(t, ok, "channel closed")
		return p
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for payload")
	}
	return syncer.Payload{}
}

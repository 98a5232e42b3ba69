package store

import (
	"context"
	"testing"

	config "example.com/photofeed/internal/init"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// exerciseKV runs the same contract checks against any KVStore.
func exerciseKV(t *testing.T, s KVStore) {
	t.Helper()
	ctx := context.Background()

	_, ok, err := s.Get(ctx, "authToken")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Set(ctx, "authToken", "old"))
	require.NoError(t, s.Set(ctx, "authToken", "new"))

	v, ok, err := s.Get(ctx, "authToken")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "new", v)

	require.NoError(t, s.Delete(ctx, "authToken"))
	require.NoError(t, s.Delete(ctx, "authToken"), "delete must be idempotent")

	_, ok, err = s.Get(ctx, "authToken")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSQLiteStore_Contract(t *testing.T) {
	s, err := NewSQLite(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(s.Close)

	exerciseKV(t, s)
}

func TestMockStore_Contract(t *testing.T) {
	exerciseKV(t, NewMock())
}

func TestMockStore_ShouldFail(t *testing.T) {
	m := NewMock()
	m.ShouldFail = true

	_, _, err := m.Get(context.Background(), "k")
	assert.Error(t, err)
	assert.Error(t, m.Set(context.Background(), "k", "v"))
	assert.Error(t, m.Delete(context.Background(), "k"))
}

func TestOpen_Drivers(t *testing.T) {
	s, err := Open(context.Background(), &config.Config{StoreDriver: "memory"})
	require.NoError(t, err)
	assert.IsType(t, &MockStore{}, s)

	s, err = Open(context.Background(), &config.Config{StoreDriver: "sqlite", SQLiteDSN: ":memory:"})
	require.NoError(t, err)
	s.Close()

	_, err = Open(context.Background(), &config.Config{StoreDriver: "etcd"})
	assert.Error(t, err)
}

func TestNewCassandra_RejectsBadKeyspace(t *testing.T) {
	for _, ks := range []string{"", "photo-feed", "feed; DROP KEYSPACE system", "1feed"} {
		_, err := NewCassandra(context.Background(), &config.Config{CassandraKeyspace: ks})
		assert.ErrorContains(t, err, "invalid cassandra keyspace", ks)
	}
}

func TestCassandraMigrations_Embedded(t *testing.T) {
	up, err := cassandraMigrations.ReadFile("migrations/cassandra/000001_create_kv.up.cql")
	require.NoError(t, err)
	assert.Contains(t, string(up), "CREATE TABLE IF NOT EXISTS kv")
}

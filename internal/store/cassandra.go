package store

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"regexp"
	"time"

	config "example.com/photofeed/internal/init"
	"github.com/gocql/gocql"
	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/cassandra"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations/cassandra/*.cql
var cassandraMigrations embed.FS

// keyspace names are interpolated into CQL, so only plain identifiers pass
var keyspaceRe = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_]{0,47}$`)

// SessionInterface is the part of *gocql.Session the store uses.
type SessionInterface interface {
	Query(stmt string, values ...interface{}) *gocql.Query
	Close()
}

// CassandraStore keeps key/value pairs in a single Cassandra table, for
// installations that share state between hosts.
type CassandraStore struct {
	Session SessionInterface
}

// NewCassandra creates the keyspace if needed, applies the embedded
// migrations and connects.
func NewCassandra(ctx context.Context, cfg *config.Config) (*CassandraStore, error) {
	if !keyspaceRe.MatchString(cfg.CassandraKeyspace) {
		return nil, fmt.Errorf("invalid cassandra keyspace %q", cfg.CassandraKeyspace)
	}
	if err := ensureKeyspace(ctx, cfg); err != nil {
		return nil, fmt.Errorf("failed to ensure keyspace: %w", err)
	}
	if err := migrateCassandra(cfg); err != nil {
		return nil, err
	}

	cluster := newCluster(cfg)
	cluster.Keyspace = cfg.CassandraKeyspace
	cluster.Consistency = gocql.Quorum

	sess, err := cluster.CreateSession()
	if err != nil {
		return nil, fmt.Errorf("failed to create Cassandra session: %w", err)
	}

	logg.Info("store", "Cassandra store ready")
	return &CassandraStore{Session: sess}, nil
}

func newCluster(cfg *config.Config) *gocql.ClusterConfig {
	cluster := gocql.NewCluster(cfg.CassandraHost)
	cluster.Timeout = cfg.CassandraTimeout
	cluster.ConnectTimeout = cfg.CassandraTimeout

	if cfg.CassandraUsername != "" && cfg.CassandraPassword != "" {
		cluster.Authenticator = gocql.PasswordAuthenticator{
			Username: cfg.CassandraUsername,
			Password: cfg.CassandraPassword,
		}
	}
	if cfg.CassandraDC != "" {
		cluster.PoolConfig.HostSelectionPolicy = gocql.DCAwareRoundRobinPolicy(cfg.CassandraDC)
		cluster.HostFilter = gocql.DataCentreHostFilter(cfg.CassandraDC)
	}
	return cluster
}

func ensureKeyspace(ctx context.Context, cfg *config.Config) error {
	cluster := newCluster(cfg)
	cluster.Keyspace = "system"
	sess, err := cluster.CreateSession()
	if err != nil {
		return fmt.Errorf("failed to connect to Cassandra system keyspace: %w", err)
	}
	defer sess.Close()

	stmt := fmt.Sprintf(
		`CREATE KEYSPACE IF NOT EXISTS %s WITH replication = {'class': 'SimpleStrategy', 'replication_factor': 1}`,
		cfg.CassandraKeyspace,
	)
	return sess.Query(stmt).WithContext(ctx).Exec()
}

func migrateCassandra(cfg *config.Config) error {
	src, err := iofs.New(cassandraMigrations, "migrations/cassandra")
	if err != nil {
		return fmt.Errorf("failed to read cassandra migrations: %w", err)
	}
	dbURL := fmt.Sprintf(
		"cassandra://%s/%s?x-migrations-table=schema_migrations&x-multi-statement=true",
		cfg.CassandraHost, cfg.CassandraKeyspace,
	)
	if cfg.CassandraUsername != "" {
		dbURL += "&username=" + cfg.CassandraUsername + "&password=" + cfg.CassandraPassword
	}

	m, err := migrate.NewWithSourceInstance("iofs", src, dbURL)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("cassandra migrations failed: %w", err)
	}
	return nil
}

func (s *CassandraStore) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.Session.Query(`SELECT value FROM kv WHERE key = ?`, key).
		WithContext(ctx).
		Scan(&value)
	if errors.Is(err, gocql.ErrNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to get kv[%s]: %w", key, err)
	}
	return value, true, nil
}

func (s *CassandraStore) Set(ctx context.Context, key, value string) error {
	err := s.Session.Query(`INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)`,
		key, value, time.Now().UTC(),
	).WithContext(ctx).Exec()
	if err != nil {
		return fmt.Errorf("failed to set kv[%s]: %w", key, err)
	}
	return nil
}

func (s *CassandraStore) Delete(ctx context.Context, key string) error {
	if err := s.Session.Query(`DELETE FROM kv WHERE key = ?`, key).WithContext(ctx).Exec(); err != nil {
		return fmt.Errorf("failed to delete kv[%s]: %w", key, err)
	}
	return nil
}

func (s *CassandraStore) Close() {
	if s.Session != nil {
		s.Session.Close()
	}
}

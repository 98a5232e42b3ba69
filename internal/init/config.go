package config

import (
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	LogLevel string

	// Dev API server
	ServerAddr string
	JWTSecret  string

	// Remote API
	APIBaseURL string
	APITimeout time.Duration

	// Token storage
	StoreDriver string
	SQLiteDSN   string

	// Kafka
	KafkaEnabled bool
	KafkaBroker  string
	KafkaTopic   string
	KafkaGroupID string
	KafkaReadTO  time.Duration
	KafkaWriteTO time.Duration

	// Cassandra
	CassandraHost     string
	CassandraKeyspace string
	CassandraUsername string
	CassandraPassword string
	CassandraTimeout  time.Duration
	CassandraDC       string
}

var cfg *Config

// Init loads the config using Viper and returns it
func Init() *Config {
	viper.SetDefault("LOG_LEVEL", "")
	viper.SetDefault("SERVER_ADDR", ":3000")
	viper.SetDefault("JWT_SECRET", "dev-secret")

	viper.SetDefault("API_BASE_URL", "http://localhost:3000")
	viper.SetDefault("API_TIMEOUT", "10s")

	viper.SetDefault("STORE_DRIVER", "sqlite")
	viper.SetDefault("SQLITE_DSN", "photofeed.db")

	viper.SetDefault("KAFKA_ENABLED", false)
	viper.SetDefault("KAFKA_BROKER", "localhost:29092")
	viper.SetDefault("KAFKA_TOPIC", "photofeed-activity")
	viper.SetDefault("KAFKA_GROUP_ID", "activity-worker")
	viper.SetDefault("KAFKA_READ_TIMEOUT", "10s")
	viper.SetDefault("KAFKA_WRITE_TIMEOUT", "10s")

	viper.SetDefault("CASSANDRA_HOST", "localhost")
	viper.SetDefault("CASSANDRA_KEYSPACE", "photofeed")
	viper.SetDefault("CASSANDRA_TIMEOUT", "10s")
	// Optional: Cassandra username/password/DC can be empty

	// Load env variables
	viper.AutomaticEnv()

	// Optional config file support
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	_ = viper.ReadInConfig() // ignore error if no file

	cfg = &Config{
		LogLevel:          viper.GetString("LOG_LEVEL"),
		ServerAddr:        viper.GetString("SERVER_ADDR"),
		JWTSecret:         viper.GetString("JWT_SECRET"),
		APIBaseURL:        viper.GetString("API_BASE_URL"),
		APITimeout:        parseDuration(viper.GetString("API_TIMEOUT"), 10*time.Second),
		StoreDriver:       viper.GetString("STORE_DRIVER"),
		SQLiteDSN:         viper.GetString("SQLITE_DSN"),
		KafkaEnabled:      viper.GetBool("KAFKA_ENABLED"),
		KafkaBroker:       viper.GetString("KAFKA_BROKER"),
		KafkaTopic:        viper.GetString("KAFKA_TOPIC"),
		KafkaGroupID:      viper.GetString("KAFKA_GROUP_ID"),
		KafkaReadTO:       parseDuration(viper.GetString("KAFKA_READ_TIMEOUT"), 10*time.Second),
		KafkaWriteTO:      parseDuration(viper.GetString("KAFKA_WRITE_TIMEOUT"), 10*time.Second),
		CassandraHost:     viper.GetString("CASSANDRA_HOST"),
		CassandraKeyspace: viper.GetString("CASSANDRA_KEYSPACE"),
		CassandraUsername: viper.GetString("CASSANDRA_USERNAME"),
		CassandraPassword: viper.GetString("CASSANDRA_PASSWORD"),
		CassandraTimeout:  parseDuration(viper.GetString("CASSANDRA_TIMEOUT"), 10*time.Second),
		CassandraDC:       viper.GetString("CASSANDRA_DC"),
	}

	return cfg
}

func parseDuration(s string, def time.Duration) time.Duration {
	if d, err := time.ParseDuration(s); err == nil {
		return d
	}
	return def
}

// Get returns the loaded config instance, loading it on first use.
func Get() *Config {
	if cfg == nil {
		return Init()
	}
	return cfg
}

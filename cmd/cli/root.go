// Package cli is the photofeed command line front end.
package cli

import (
	"context"
	"fmt"

	"example.com/photofeed/internal/api"
	appkafka "example.com/photofeed/internal/broker"
	config "example.com/photofeed/internal/init"
	"example.com/photofeed/internal/logger"
	"example.com/photofeed/internal/session"
	"example.com/photofeed/internal/store"
	"github.com/spf13/cobra"
)

var logg = logger.New()

var jsonOut bool

var rootCmd = &cobra.Command{
	Use:   "photofeed",
	Short: "Photo feed client",
	Long: `Command line client for the photo feed API.

Examples:
  photofeed serve
  photofeed register nur@example.com secret nur
  photofeed login nur@example.com secret
  photofeed feed
  photofeed like <post-id>
  photofeed notifications`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		applyLogLevel(logger.WarnLevel)
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		closeApp()
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&jsonOut, "json", false, "print JSON output")
}

// Execute runs the command line with ctx as the root context.
func Execute(ctx context.Context) error {
	defer closeApp()
	err := rootCmd.ExecuteContext(ctx)
	if err != nil {
		printError(err)
	}
	return err
}

// applyLogLevel sets LOG_LEVEL, or fallback when it is unset.
func applyLogLevel(fallback logger.LogLevel) {
	level := fallback
	if cfg := config.Get(); cfg != nil && cfg.LogLevel != "" {
		l, err := logger.ParseLevel(cfg.LogLevel)
		if err != nil {
			logg.Warn("cli", "Ignoring LOG_LEVEL", err)
		} else {
			level = l
		}
	}
	logger.SetLevel(level)
}

// app holds the collaborators shared by client commands.
type app struct {
	cfg     *config.Config
	kv      store.KVStore
	session *session.Store
	client  *api.Client
	events  appkafka.Publisher
	closers []func()
}

var current *app

// getApp opens the token store and builds the API client on first use.
func getApp(ctx context.Context) (*app, error) {
	if current != nil {
		return current, nil
	}
	cfg := config.Get()

	kv, err := store.Open(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open token store: %w", err)
	}
	sess := session.New(kv)

	a := &app{
		cfg:     cfg,
		kv:      kv,
		session: sess,
		client:  api.New(cfg.APIBaseURL, api.WithTimeout(cfg.APITimeout), api.WithTokenSource(sess)),
		events:  appkafka.NopPublisher{},
		closers: []func(){kv.Close},
	}

	if cfg.KafkaEnabled {
		w, err := appkafka.NewKafkaWriter(ctx, kafkaConfig(cfg))
		if err != nil {
			// activity is best effort; the command still runs
			logg.Warn("cli", "Kafka writer init failed, activity events disabled", err)
		} else {
			a.events = appkafka.NewActivityPublisher(w)
			a.closers = append(a.closers, func() { _ = w.Close() })
		}
	}

	current = a
	return a, nil
}

func closeApp() {
	if current == nil {
		return
	}
	for i := len(current.closers) - 1; i >= 0; i-- {
		current.closers[i]()
	}
	current = nil
}

func kafkaConfig(cfg *config.Config) appkafka.KafkaConfig {
	return appkafka.KafkaConfig{
		Brokers:      []string{cfg.KafkaBroker},
		Topic:        cfg.KafkaTopic,
		GroupID:      cfg.KafkaGroupID,
		WriteTimeout: cfg.KafkaWriteTO,
		ReadTimeout:  cfg.KafkaReadTO,
	}
}

package cli

import (
	"example.com/photofeed/cmd/server"
	"example.com/photofeed/cmd/worker"
	appkafka "example.com/photofeed/internal/broker"
	config "example.com/photofeed/internal/init"
	"example.com/photofeed/internal/logger"
	"example.com/photofeed/internal/store"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the in-memory development API server",
	Long: `Run an in-memory implementation of the photo feed API on SERVER_ADDR.
State is lost on exit. Tokens are signed with JWT_SECRET.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Consume activity events from Kafka into the store",
	Args:  cobra.NoArgs,
	RunE:  runWorker,
}

func init() {
	serveCmd.Flags().String("addr", "", "listen address (default SERVER_ADDR)")
	workerCmd.Flags().Int("workers", 0, "number of concurrent workers (default NumCPU)")
	workerCmd.Flags().Int("queue", 0, "job queue size (default workers*10)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(workerCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := config.Get()
	applyLogLevel(logger.InfoLevel)
	addr, _ := cmd.Flags().GetString("addr")
	if addr == "" {
		addr = cfg.ServerAddr
	}
	return server.Run(cmd.Context(), addr, []byte(cfg.JWTSecret))
}

func runWorker(cmd *cobra.Command, args []string) error {
	cfg := config.Get()
	applyLogLevel(logger.InfoLevel)
	ctx := cmd.Context()

	st, err := store.Open(ctx, cfg)
	if err != nil {
		return err
	}
	reader := appkafka.NewKafkaReader(kafkaConfig(cfg))

	workers, _ := cmd.Flags().GetInt("workers")
	queue, _ := cmd.Flags().GetInt("queue")
	w := worker.New(st, reader, workers, queue)
	w.Run(ctx)
	return w.Close()
}

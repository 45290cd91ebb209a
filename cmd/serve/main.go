package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/danielpatrickdp/multiseq-learning/internal/config"
	"github.com/danielpatrickdp/multiseq-learning/internal/experiment"
	"github.com/danielpatrickdp/multiseq-learning/internal/server"
	"github.com/joho/godotenv"
)

// #region main
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	configPath := flag.String("config", envOr("MULTISEQ_CONFIG", ""), "path to YAML config (defaults when empty)")
	dataset := flag.String("dataset", envOr("MULTISEQ_DATASET", ""), "power consumption CSV to train on")
	addr := flag.String("addr", envOr("MULTISEQ_ADDR", ""), "listen address (overrides config)")
	dbPath := flag.String("db", envOr("MULTISEQ_DB", ""), "sqlite run store (empty disables persistence)")
	flag.Parse()

	if *dataset == "" {
		fmt.Fprintln(os.Stderr, "usage: serve --dataset path/to/data.csv [--config experiment.yaml] [--addr :50051]")
		os.Exit(2)
	}

	cfg, err := config.LoadOrDefault(*configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if *addr != "" {
		cfg.Server.Addr = *addr
	}
	if *dbPath != "" {
		cfg.Output.DBPath = *dbPath
	}

	srv := server.New(server.ServerConfig{Addr: cfg.Server.Addr})
	lis, err := srv.Listen()
	if err != nil {
		log.Fatalf("failed to listen: %v", err)
	}

	// Health reports NOT_SERVING while training runs.
	errc := make(chan error, 1)
	go func() { errc <- srv.Serve(lis) }()
	fmt.Printf("Prediction service listening on %s, training on %s...\n", lis.Addr(), *dataset)

	res, err := experiment.New(cfg).Run(*dataset)
	if err != nil {
		srv.Stop()
		log.Fatalf("training failed: %v", err)
	}
	srv.Load(res.Engine, res.Encoder)
	if !srv.Predictor().Loaded() {
		srv.Stop()
		log.Fatal("training produced no engine")
	}
	fmt.Printf("Engine loaded (%d cycles, log %s). Serving.\n", len(res.AccuracyHistory), res.LogPath)

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, os.Interrupt, syscall.SIGTERM)
	select {
	case sig := <-sigc:
		log.Printf("received %v, shutting down", sig)
		srv.Stop()
	case err := <-errc:
		if err != nil {
			log.Fatalf("server stopped: %v", err)
		}
	}
}

// #endregion main

// #region helpers
func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// #endregion helpers

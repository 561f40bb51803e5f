package main

import (
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"fxbacktest/api"
	"fxbacktest/cache"
	"fxbacktest/config"
)

var (
	configPath   string
	port         int
	backtestMode bool
	btConfig     string
	btOut        string
	btSummary    bool
)

func main() {
	flag.StringVar(&configPath, "config", "", "server config file path (YAML)")
	flag.IntVar(&port, "port", 0, "HTTP port (overrides config)")
	flag.BoolVar(&backtestMode, "backtest", false, "run a backtest from a run config and exit")
	flag.StringVar(&btConfig, "bt-config", "backtest.yaml", "backtest run config path (YAML)")
	flag.StringVar(&btOut, "bt-out", "", "backtest results JSON output path (default stdout)")
	flag.BoolVar(&btSummary, "bt-summary", false, "print a text summary to stderr after the run")
	flag.Parse()

	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)
	_ = godotenv.Load()

	if backtestMode {
		if err := runBacktest(btConfig, btOut, btSummary); err != nil {
			log.Printf("[ERROR] backtest failed: %v\n", err)
			os.Exit(1)
		}
		return
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Printf("[ERROR] load config: %v\n", err)
		os.Exit(1)
	}
	if port > 0 {
		cfg.Port = port
	}

	store := cache.NewStore()
	server := api.NewServer(store, cfg.Port, cfg.ClickHouse)

	errCh := make(chan error, 1)
	go func() { errCh <- server.Start() }()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil {
			log.Printf("[ERROR] server: %v\n", err)
			os.Exit(1)
		}
	case sig := <-sigCh:
		log.Printf("[INFO] received %v, shutting down\n", sig)
		if err := server.Shutdown(); err != nil {
			log.Printf("[ERROR] shutdown: %v\n", err)
		}
	}
}

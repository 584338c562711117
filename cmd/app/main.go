package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"CoinDash/internal/di"
	"CoinDash/pkg/config"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "config file path")
	checkOnly := flag.Bool("check", false, "validate the config and exit")
	flag.Parse()

	// .env and environment variables override the file
	cfg, err := config.LoadWithEnv(*configPath)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}
	if *checkOnly {
		fmt.Printf("config ok: %s\n", *configPath)
		return
	}

	log.Printf("env=%s port=%d kafka=%v redis=%v", cfg.Environment, cfg.Server.Port, len(cfg.Kafka.Brokers) > 0, cfg.Redis.Enabled)
	log.Printf("credentials: coingecko=%v cryptopanic=%v openrouter=%v reddit=%v",
		cfg.CoinGecko.APIKey != "",
		cfg.CryptoPanic.APIKey != "",
		cfg.OpenRouter.APIKey != "",
		cfg.Reddit.ClientID != "",
	)

	app, err := di.InitializeApp(cfg)
	if err != nil {
		log.Fatalf("app initialization failed: %v", err)
	}

	// Blocks until SIGINT or SIGTERM
	if err := app.Run(); err != nil {
		log.Printf("app error: %v", err)
		os.Exit(1)
	}
}

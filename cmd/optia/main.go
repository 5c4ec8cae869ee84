package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"optia/internal/config"
	"optia/internal/server"
)

var (
	port    = flag.Int("port", 0, "port d'écoute (prioritaire sur config.toml)")
	devMode = flag.Bool("dev", false, "mode développement")
	dataDir = flag.String("dataDir", "", "répertoire de données (remplace la configuration)")
)

func main() {
	flag.Parse()

	fmt.Println("==========================================")
	fmt.Println("  Optia - Échantillonnage des contrôles")
	fmt.Println("==========================================")

	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Printf("configuration illisible, valeurs par défaut utilisées: %v\n", err)
		cfg = config.DefaultConfig()
	}

	if *port > 0 {
		cfg.Server.Port = *port
	}
	if *devMode {
		cfg.Server.DevMode = true
	}
	if *dataDir != "" {
		cfg.Data.DataDir = *dataDir
	}

	logger, err := buildLogger(cfg.Server.DevMode)
	if err != nil {
		fmt.Printf("initialisation du journal impossible: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	srv, err := server.NewServer(cfg, logger)
	if err != nil {
		logger.Fatal("server initialization failed", zap.Error(err))
	}
	defer srv.Close()

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	go func() {
		logger.Info("server starting", zap.Int("port", cfg.Server.Port))
		if err := srv.Run(addr); err != nil {
			logger.Fatal("server stopped", zap.Error(err))
		}
	}()
	fmt.Printf("service disponible sur http://localhost:%d\n", cfg.Server.Port)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down")
}

func buildLogger(dev bool) (*zap.Logger, error) {
	if dev {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

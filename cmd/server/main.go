package main

import (
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/orrery-labs/orrery/backend/internal/infrastructure/config"
	"github.com/orrery-labs/orrery/backend/internal/infrastructure/server"
)

func main() {
	port := flag.String("port", "", "HTTP port (overrides ORRERY_PORT)")
	remote := flag.String("remote", "", "notebook server URL (overrides ORRERY_REMOTE_URL)")
	library := flag.String("library", "", "notebook library root (overrides ORRERY_LIBRARY_ROOT)")
	dev := flag.Bool("dev", false, "development mode: debug logging and console output")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	if *port != "" {
		cfg.Server.Port = *port
	}
	if *remote != "" {
		cfg.Remote.BaseURL = *remote
	}
	if *library != "" {
		cfg.Library.Root = *library
	}
	if *dev {
		cfg.Logging.Development = true
		cfg.Logging.Level = "debug"
	}

	srv, err := server.New(cfg)
	if err != nil {
		log.Fatalf("Failed to create server: %v", err)
	}

	log.Printf("Orrery Workspace Service on %s:%s", cfg.Server.Host, cfg.Server.Port)
	log.Printf("Notebook server: %s", cfg.Remote.BaseURL)
	log.Printf("Library root: %s", cfg.Library.Root)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	errChan := make(chan error, 1)
	go func() {
		if err := srv.Run(); err != nil {
			errChan <- err
		}
	}()

	select {
	case sig := <-sigChan:
		log.Printf("Received %v, shutting down", sig)
		if err := srv.Close(); err != nil {
			log.Printf("Error during shutdown: %v", err)
		}
	case err := <-errChan:
		log.Fatalf("Server error: %v", err)
	}
}

/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the financial simulation server. Handles
  configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Load .env (best effort) and parse command-line flags
  2. Initialize SQLite store
  3. Initialize the event publisher (Kafka if brokers configured)
  4. Create API handler with dependencies
  5. Start server with graceful shutdown

COMMAND-LINE FLAGS:
  -port           HTTP server port (default: 8080)
  -db             SQLite database path (default: finsim.db)
                  Use ":memory:" for an in-memory database
  -kafka-brokers  Comma-separated Kafka brokers. Empty disables
                  event publishing.

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Close publisher and database connection
  4. Exit

EXAMPLES:
  # Run with file database
  ./server -db="./data/finsim.db"

  # Run with in-memory database
  ./server -db=":memory:"

  # Publish run-completed events
  ./server -kafka-brokers="localhost:9092"

SEE ALSO:
  - api/server.go: Router configuration
  - api/handlers.go: HTTP handlers
  - store/sqlite/sqlite.go: Database implementation
*/
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/warp/finsim/api"
	"github.com/warp/finsim/events"
	"github.com/warp/finsim/events/kafka"
	"github.com/warp/finsim/store/sqlite"
)

func main() {
	// Best effort: flags still win over the environment.
	_ = godotenv.Load()

	port := flag.Int("port", envInt("PORT", 8080), "HTTP server port")
	dbPath := flag.String("db", envStr("DB_PATH", "finsim.db"), "SQLite database path")
	kafkaBrokers := flag.String("kafka-brokers", envStr("KAFKA_BROKERS", ""),
		"comma-separated Kafka brokers; empty disables event publishing")
	flag.Parse()

	// Initialize store
	st, err := sqlite.New(*dbPath)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer st.Close()

	// Initialize event publisher
	var publisher events.Publisher = events.Nop{}
	if *kafkaBrokers != "" {
		publisher = kafka.NewPublisher(strings.Split(*kafkaBrokers, ","))
		log.Printf("Publishing run-completed events to %s", *kafkaBrokers)
	}
	defer publisher.Close()

	// Initialize handler and router
	handler := api.NewHandler(st, publisher)
	router := api.NewRouter(handler)

	// Create server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", *port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Printf("Server starting on http://localhost:%d", *port)
		log.Printf("API available at http://localhost:%d/api", *port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server stopped")
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	var n int
	if _, err := fmt.Sscanf(v, "%d", &n); err != nil {
		return fallback
	}
	return n
}

/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the VendiPro ledger server. Handles
  configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Parse command-line flags
  2. Initialize SQLite store
  3. Optionally seed sample machines (empty database only)
  4. Create API handler with dependencies
  5. Configure HTTP router
  6. Start server with graceful shutdown

COMMAND-LINE FLAGS:
  -port    HTTP server port (default: 8080)
  -db      SQLite database path (default: vendipro.db)
           Use ":memory:" for an in-memory database
  -seed    Insert sample machines when the fleet is empty

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Close database connection
  4. Exit

EXAMPLES:
  # Run with file database
  ./server -db="./data/vendipro.db"

  # Run with in-memory database and sample fleet
  ./server -db=":memory:" -seed

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
	"syscall"
	"time"

	"github.com/shopspring/decimal"

	"github.com/warp/vending-ledger/api"
	"github.com/warp/vending-ledger/store/sqlite"
	"github.com/warp/vending-ledger/vending"
)

func main() {
	// Flags
	port := flag.Int("port", 8080, "HTTP server port")
	dbPath := flag.String("db", "vendipro.db", "SQLite database path")
	seed := flag.Bool("seed", false, "Insert sample machines when the fleet is empty")
	flag.Parse()

	// Initialize store
	store, err := sqlite.New(*dbPath)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer store.Close()

	if *seed {
		if err := seedSampleData(context.Background(), store); err != nil {
			log.Printf("Warning: Failed to seed sample data: %v", err)
		}
	}

	// Initialize handler and router
	handler := api.NewHandler(store)
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
		log.Printf("🚀 Server starting on http://localhost:%d", *port)
		log.Printf("📊 API available at http://localhost:%d/api", *port)
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

// seedSampleData inserts a small demo fleet, but only when no machines
// exist yet.
func seedSampleData(ctx context.Context, store vending.EntityStore) error {
	existing, err := store.ListMachines(ctx)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return nil
	}

	ledger := vending.NewLedger(store)
	samples := []vending.Machine{
		{Location: "Auckland Mall", Code: "AKL001", Partner: "Coca Cola", Split: 70, Status: vending.MachineActive, Revenue: decimal.NewFromFloat(2450.30)},
		{Location: "Wellington Station", Code: "WLG002", Partner: "Independent", Split: 15, Status: vending.MachineActive, Revenue: decimal.NewFromFloat(1823.50)},
		{Location: "Christchurch Airport", Code: "CHC003", Partner: "Pepsi", Split: 60, Status: vending.MachineActive, Revenue: decimal.NewFromFloat(3201.80)},
	}
	for _, m := range samples {
		if _, err := ledger.CreateMachine(ctx, m); err != nil {
			return err
		}
		// Machine IDs come from a nanosecond clock; keep them distinct.
		time.Sleep(time.Microsecond)
	}
	log.Printf("Seeded %d sample machines", len(samples))
	return nil
}

package main // Entry point package

import (
	"context"   // shutdown deadline
	"log"       // Logging library
	"net/http"  // http.ErrServerClosed sentinel
	"os"        // signal channel plumbing
	"os/signal" // SIGINT/SIGTERM subscription
	"syscall"   // signal constants
	"time"      // shutdown timeout

	"github.com/joho/godotenv"    // loads .env files in development
	"github.com/labstack/echo/v4" // Echo web framework

	"github.com/tickethub/seat-reservation/internal/config"           // Internal config loader
	"github.com/tickethub/seat-reservation/internal/database"         // MySQL connection and schema
	"github.com/tickethub/seat-reservation/internal/handler"          // HTTP handlers
	"github.com/tickethub/seat-reservation/internal/queue"            // notifier and booking pipeline
	"github.com/tickethub/seat-reservation/internal/repository/mysql" // storage implementation
	"github.com/tickethub/seat-reservation/internal/router"           // Internal router setup
	"github.com/tickethub/seat-reservation/internal/service"          // reservation engine
)

func main() {
	_ = godotenv.Load() // .env is optional; real deployments set the environment directly
	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()
	if err := database.InitSchema(context.Background(), db); err != nil {
		log.Fatalf("database: %v", err)
	}

	// Seat-state fanout over Redis pub/sub.  The channel is advisory:
	// when Redis is down the engine runs without notifications.
	var notifier queue.Notifier = queue.NopNotifier{}
	if rdb := config.NewRedisClient(); rdb != nil {
		notifier = queue.NewRedisNotifier(rdb)
		defer rdb.Close()
	} else {
		log.Printf("redis unavailable, seat-state notifications disabled")
	}

	// Durable booking.created feed for the ticket pipeline.
	var pipeline queue.PipelinePublisher = queue.NopPipeline{}
	if cfg.AMQPURL != "" {
		pipeline = queue.NewAMQPPublisher(cfg.AMQPURL)
	} else {
		log.Printf("RABBITMQ_URL unset, booking pipeline disabled")
	}

	store := mysql.NewStore(db)
	clock := service.SystemClock{}
	locks := service.NewLockManager(store, notifier, clock, cfg.LockTTL())
	bookings := service.NewBookingService(store, notifier, pipeline, clock)
	catalog := service.NewCatalogService(store, clock)

	sweeper := service.NewSweeper(store, clock, cfg.SweepInterval())
	sweeper.Start(context.Background())
	defer sweeper.Stop()

	e := echo.New()
	e.HideBanner = true
	router.RegisterRoutes(e, db,
		handler.NewCatalogHandler(catalog),
		handler.NewLockHandler(locks),
		handler.NewBookingHandler(bookings),
	)

	addr := ":" + cfg.Port
	go func() {
		log.Printf("listening on %s (env=%s)", addr, cfg.Env)
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server: %v", err)
		}
	}()

	// Block until the process is asked to stop, then drain in-flight
	// requests before the deferred sweeper/DB teardown runs.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Printf("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		log.Printf("shutdown: %v", err)
	}
}

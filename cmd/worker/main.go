package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"site-inventory/internal/config"
	"site-inventory/internal/database"
	"site-inventory/internal/utils"
	"site-inventory/internal/worker"
	"syscall"

	"github.com/hibiken/asynq"
	"github.com/sirupsen/logrus"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize database
	db, err := database.NewMySQL(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	logger := utils.GetLogger()

	// Audit tasks are enqueued on "low"
	srv := asynq.NewServer(
		asynq.RedisClientOpt{
			Addr:     cfg.AsynqRedisAddr,
			Password: cfg.AsynqRedisPassword,
			DB:       cfg.AsynqRedisDB,
		},
		asynq.Config{
			Concurrency: cfg.WorkerConcurrency,
			Queues: map[string]int{
				"critical": 6,
				"default":  3,
				"low":      1,
			},
			Logger:   logger,
			LogLevel: asynq.InfoLevel,
			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
				retried, _ := asynq.GetRetryCount(ctx)
				maxRetry, _ := asynq.GetMaxRetry(ctx)
				logger.WithError(err).WithFields(logrus.Fields{
					"task":      task.Type(),
					"retried":   retried,
					"max_retry": maxRetry,
				}).Error("Task failed")
			}),
		},
	)

	// Register task handlers
	mux := asynq.NewServeMux()
	worker.RegisterHandlers(mux, db)

	// Graceful shutdown
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-c
		fmt.Println("\nGracefully shutting down worker...")
		srv.Shutdown()
	}()

	// Start worker
	log.Printf("Worker starting with concurrency: %d", cfg.WorkerConcurrency)
	if err := srv.Run(mux); err != nil {
		log.Fatalf("Failed to start worker: %v", err)
	}

	fmt.Println("Worker exited")
}

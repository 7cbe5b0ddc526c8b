package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/abeer-rozba/vr-therapy-server/core/server"
	"github.com/abeer-rozba/vr-therapy-server/internal/store"
)

func main() {
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	opts := []server.ConfigOption{
		server.WithWorkerConfig(8, 200),
		server.WithPort(port),
	}

	if mongoURI := os.Getenv("MONGO_URI"); mongoURI != "" {
		client, err := store.NewMongoConnection(mongoURI)
		if err != nil {
			log.Fatalf("Failed to connect to MongoDB: %v", err)
		}
		opts = append(opts, server.WithMongoDB(client, "vr_therapy"))
	} else {
		storePath := os.Getenv("STORE_PATH")
		if storePath == "" {
			storePath = "sessions.json"
		}
		opts = append(opts, server.WithFileStore(storePath))
	}

	switch os.Getenv("MESSAGE_QUEUE_TYPE") { // kafka, channels, or empty for none
	case "kafka":
		brokers := os.Getenv("KAFKA_BROKERS")
		if brokers == "" {
			brokers = "localhost:9092"
		}
		opts = append(opts, server.WithKafka(brokers, "encrypted-samples", "sample-ingester"))
	case "channels":
		opts = append(opts, server.WithChannelQueue(200))
	}

	srv, err := server.NewServer(opts...)
	if err != nil {
		log.Fatalf("Failed to create server: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		log.Println("Shutdown signal received...")
		cancel()
	}()

	if err := srv.Start(ctx); err != nil {
		log.Fatalf("Server error: %v", err)
	}

	srv.Close()
	log.Println("Server shutdown complete")
}

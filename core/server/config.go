package server

import (
	"github.com/abeer-rozba/vr-therapy-server/internal/broker"
	"github.com/abeer-rozba/vr-therapy-server/internal/domain"
	"github.com/abeer-rozba/vr-therapy-server/internal/store"
	"go.mongodb.org/mongo-driver/v2/mongo"
)

type ServerConfig struct {
	Store        domain.SessionStore
	MessageQueue broker.MessageQueue
	WorkerCount  int
	QueueDepth   int
	Port         string
}

type ConfigOption func(*ServerConfig) error

// WithFileStore backs the session store with a single JSON document on disk.
func WithFileStore(path string) ConfigOption {
	return func(config *ServerConfig) error {
		config.Store = store.New(store.NewFileResource(path))
		return nil
	}
}

// WithMongoDB backs the session store with a single Mongo document holding
// the whole session map.
func WithMongoDB(client *mongo.Client, database string) ConfigOption {
	return func(config *ServerConfig) error {
		config.Store = store.New(store.NewMongoResource(client, database))
		return nil
	}
}

func WithKafka(brokers, topic, group string) ConfigOption {
	return func(config *ServerConfig) error {
		mq, err := broker.NewKafkaQueue(brokers, topic, group)
		if err != nil {
			return err
		}
		config.MessageQueue = mq
		return nil
	}
}

// WithChannelQueue enables bulk ingestion through an in-process queue.
func WithChannelQueue(size int) ConfigOption {
	return func(config *ServerConfig) error {
		config.MessageQueue = broker.NewChannelQueue(size)
		return nil
	}
}

func WithWorkerConfig(workerCount, queueDepth int) ConfigOption {
	return func(config *ServerConfig) error {
		config.WorkerCount = workerCount
		config.QueueDepth = queueDepth
		return nil
	}
}

func WithPort(port string) ConfigOption {
	return func(config *ServerConfig) error {
		config.Port = port
		return nil
	}
}

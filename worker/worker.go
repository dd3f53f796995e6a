package worker

import (
	"text2phenotype.com/qde/logger"
	"text2phenotype.com/qde/qualification"
	"text2phenotype.com/qde/rmq"
	"text2phenotype.com/qde/s3client"
	"text2phenotype.com/qde/tasks"
	"text2phenotype.com/qde/types"
	"context"
	"fmt"
	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog"
	"github.com/streadway/amqp"
	"sync"
)

type Config struct {
	TaskMaxRetries int `envconfig:"MDL_COMN_RETRY_TASK_COUNT_MAX" default:"3"`
}

type analyzer interface {
	Analyze(ctx context.Context, request qualification.Request) types.AnalysisResponse
}

type closer interface {
	close()
}

type Worker struct {
	config    Config
	redis     redisTransactions
	s3        s3Transactions
	rmq       rmqTransactions
	qdeLogger *zerolog.Logger
	analyzer  analyzer

	// connectRMQ builds the replacement client after a broken channel.
	connectRMQ func() (rmqTransactions, error)
	inFlight   sync.WaitGroup
}

func New(service *qualification.Service) (*Worker, error) {
	qdeLogger := logger.NewLogger("Worker")

	var config Config
	if err := envconfig.Process("", &config); err != nil {
		qdeLogger.Error().Err(err).Msg("Could not read config")
		return nil, err
	}

	worker := &Worker{
		config:     config,
		qdeLogger:  &qdeLogger,
		analyzer:   service,
		connectRMQ: connectRMQ,
	}
	if err := reconnect(worker.qdeLogger, "RMQ", &worker.rmq, connectRMQ); err != nil {
		return nil, err
	}
	if err := reconnect(worker.qdeLogger, "S3", &worker.s3, connectS3); err != nil {
		worker.rmq.close()
		return nil, err
	}
	if err := reconnect(worker.qdeLogger, "Redis", &worker.redis, connectRedis); err != nil {
		worker.rmq.close()
		worker.s3.close()
		return nil, err
	}
	return worker, nil
}

// StartWorker consumes deliveries until ctx is done or the RMQ connection
// cannot be restored. Each delivery runs on its own goroutine and the
// consumer prefetch limit bounds how many run at once. On ctx cancellation
// it waits for the deliveries in flight before closing the clients.
func (worker *Worker) StartWorker(ctx context.Context) error {
	defer worker.Close()
	for {
		var reason string
		var cause *amqp.Error
		select {
		case <-ctx.Done():
			worker.qdeLogger.Info().Msg("Stopping worker, waiting for deliveries in flight")
			worker.inFlight.Wait()
			return nil
		case delivery, ok := <-worker.rmq.getDeliveriesCh():
			if ok {
				worker.inFlight.Add(1)
				go func() {
					defer worker.inFlight.Done()
					worker.processMessage(&delivery)
				}()
				continue
			}
			reason = "deliveries channel closed"
		case rmqErr := <-worker.rmq.getRespChanErrorsCh():
			if rmqErr == nil {
				continue
			}
			reason, cause = "response channel closed", rmqErr
		case rmqErr := <-worker.rmq.getReqChanErrorsCh():
			if rmqErr == nil {
				continue
			}
			reason, cause = "request channel closed", rmqErr
		}

		event := worker.qdeLogger.Warn().Str("reason", reason)
		if cause != nil {
			event = event.Err(cause)
		}
		event.Msg("Restoring RMQ client")
		if err := reconnect(worker.qdeLogger, "RMQ", &worker.rmq, worker.connectRMQ); err != nil {
			return fmt.Errorf("%s and the RMQ client could not be restored: %w", reason, err)
		}
	}
}

func (worker *Worker) Close() {
	for _, client := range []closer{worker.redis, worker.s3, worker.rmq} {
		if client != nil {
			client.close()
		}
	}
}

// reconnect replaces *slot with a client from connect. The previous client
// is closed whether or not the new one could be built.
func reconnect[T closer](qdeLogger *zerolog.Logger, name string, slot *T, connect func() (T, error)) error {
	clientLogger := qdeLogger.With().Str("client", name).Logger()
	clientLogger.Info().Msg("Connecting client")

	previous := *slot
	client, err := connect()
	if any(previous) != nil {
		previous.close()
	}
	if err != nil {
		clientLogger.Err(err).Msg("Failed to connect client")
		var zero T
		*slot = zero
		return err
	}
	*slot = client
	clientLogger.Info().Msg("Connected client")
	return nil
}

func connectRMQ() (rmqTransactions, error) {
	client, err := rmq.NewClient()
	if err != nil {
		return nil, err
	}
	return &rmqClientWrapper{client}, nil
}

func connectS3() (s3Transactions, error) {
	client, err := s3client.New()
	if err != nil {
		return nil, err
	}
	return &s3ClientWrapper{client}, nil
}

func connectRedis() (redisTransactions, error) {
	client, err := tasks.NewClient()
	if err != nil {
		return nil, err
	}
	return &redisClientWrapper{&client}, nil
}

package worker

import (
	"text2phenotype.com/qde/rmq"
	"encoding/json"
	"fmt"
	"github.com/rs/zerolog"
	"github.com/streadway/amqp"
)

type rmqTransactions interface {
	pingSequencer(task *Task, message Message) error
	acknowledgeDelivery(delivery *amqp.Delivery) error
	rejectDelivery(delivery *amqp.Delivery, qdeLogger *zerolog.Logger)
	getDeliveriesCh() <-chan amqp.Delivery
	getReqChanErrorsCh() <-chan *amqp.Error
	getRespChanErrorsCh() <-chan *amqp.Error
	close()
}

type rmqClientWrapper struct {
	*rmq.Client
}

func (wrapper *rmqClientWrapper) close() {
	wrapper.Close()
}

func (wrapper *rmqClientWrapper) getDeliveriesCh() <-chan amqp.Delivery {
	return wrapper.Deliveries
}

func (wrapper *rmqClientWrapper) getReqChanErrorsCh() <-chan *amqp.Error {
	return wrapper.ReqChanErrors
}

func (wrapper *rmqClientWrapper) getRespChanErrorsCh() <-chan *amqp.Error {
	return wrapper.RespChanErrors
}

func (wrapper *rmqClientWrapper) pingSequencer(task *Task, message Message) error {
	publishing, err := sequencerPublishing(task.delivery, message)
	if err != nil {
		return err
	}
	return wrapper.SendMessageToSequencer(publishing)
}

// sequencerPublishing answers delivery with message, signed by this worker
// and correlated with the request.
func sequencerPublishing(delivery *amqp.Delivery, message Message) (amqp.Publishing, error) {
	message.Sender = workerName
	body, err := json.Marshal(message)
	if err != nil {
		return amqp.Publishing{}, fmt.Errorf("failed to encode sequencer message: %w", err)
	}
	return amqp.Publishing{
		ContentType:   delivery.ContentType,
		CorrelationId: delivery.CorrelationId,
		AppId:         workerName,
		Type:          message.WorkType,
		Body:          body,
	}, nil
}

func (wrapper *rmqClientWrapper) acknowledgeDelivery(delivery *amqp.Delivery) error {
	return delivery.Ack(false)
}

func (wrapper *rmqClientWrapper) rejectDelivery(delivery *amqp.Delivery, qdeLogger *zerolog.Logger) {
	rejectOnce(delivery, qdeLogger)
}

// rejectOnce requeues a delivery once; one that was already redelivered
// is dropped.
func rejectOnce(delivery *amqp.Delivery, qdeLogger *zerolog.Logger) {
	requeue := !delivery.Redelivered
	qdeLogger.Info().Bool("requeue", requeue).Msg("Rejecting delivery")
	if err := delivery.Reject(requeue); err != nil {
		qdeLogger.Err(err).Bool("requeue", requeue).Msg("Failed to reject delivery")
	}
}

package worker

import (
	"text2phenotype.com/qde/metrics"
	"text2phenotype.com/qde/qualification"
	"text2phenotype.com/qde/tasks"
	"text2phenotype.com/qde/types"
	"text2phenotype.com/qde/utils"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"github.com/rs/zerolog"
	"github.com/streadway/amqp"
	"time"
)

type Message struct {
	WorkType string `json:"work_type"`
	RedisKey string `json:"redis_key"`
	Sender   string `json:"sender"`
	Version  string `json:"version"`
}

type Task struct {
	delivery  *amqp.Delivery
	docTask   *tasks.DocumentTask
	message   *Message
	redisKey  string
	qdeLogger *zerolog.Logger
	response  *types.AnalysisResponse
	outcome   string
}

func (worker *Worker) processMessage(delivery *amqp.Delivery) {
	task, err := worker.createTask(delivery)
	rejectLogger := worker.qdeLogger.With().Str("message_id", delivery.MessageId).Logger()
	if err != nil {
		worker.qdeLogger.Err(err).
			Str("message_id", delivery.MessageId).
			Str("tid", string(delivery.Body)).
			Msg("Failed to create task for delivery")
		worker.reject(delivery, &rejectLogger)
		return
	}
	if err = worker.processTask(task); err != nil {
		worker.reject(delivery, &rejectLogger)
		return
	}
	if err = worker.rmq.pingSequencer(task, *task.message); err != nil {
		task.qdeLogger.Err(err).Msg("Got error while sending message to sequencer queue")
		worker.reject(delivery, &rejectLogger)
		return
	}
	if err = worker.rmq.acknowledgeDelivery(delivery); err != nil {
		task.qdeLogger.Err(err).Msg("Failed to acknowledge delivery")
	}
	metrics.RecordTask(task.outcome)
	task.qdeLogger.Info().Str("outcome", task.outcome).Msg("Finished processing RMQ message")
}

func (worker *Worker) reject(delivery *amqp.Delivery, rejectLogger *zerolog.Logger) {
	metrics.RecordTask(outcomeRejected)
	worker.rmq.rejectDelivery(delivery, rejectLogger)
}

func (worker *Worker) createTask(delivery *amqp.Delivery) (*Task, error) {
	var message Message
	err := json.Unmarshal(delivery.Body, &message)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal message, got error %w", err)
	}
	docTask, err := worker.redis.getDocumentTask(message.RedisKey)
	if err != nil {
		return nil, fmt.Errorf("failed to query document task for message, got error %w", err)
	}
	taskLogger := worker.qdeLogger.With().Str("tid", message.RedisKey).Logger()
	task := Task{
		delivery:  delivery,
		docTask:   docTask,
		redisKey:  message.RedisKey,
		message:   &message,
		qdeLogger: &taskLogger,
		outcome:   outcomeSkipped,
	}
	return &task, nil
}

// processTask returns an error only when the delivery should go back to the
// queue; analysis failures are recorded on the task document instead.
func (worker *Worker) processTask(task *Task) error {
	shouldPerform, err := worker.shouldPerformTask(task)
	if err != nil {
		task.qdeLogger.Err(err).
			Msg("Got error while trying to decide whether to run task")
		return err
	}
	if !shouldPerform {
		return nil
	}
	if err = worker.redis.onTaskStarted(task); err != nil {
		task.qdeLogger.Err(err).Msg("Failed to update task info")
		return fmt.Errorf("failed to update task info: %w", err)
	}
	if err = worker.runAnalysis(task); err != nil {
		task.qdeLogger.Err(err).Msg("Got error while running analysis")
		task.outcome = outcomeFailed
		if err = worker.redis.onTaskFailedWithError(task, err); err != nil {
			return err
		}
		return nil
	}
	task.qdeLogger.Info().Msg("Saved results, marking task as complete")
	if err = worker.redis.onTaskComplete(task); err != nil {
		task.qdeLogger.Err(err).Msg("Got error while trying to mark task as complete")
		return err
	}
	task.outcome = outcomeCompleted
	return nil
}

func (worker *Worker) runAnalysis(task *Task) (err error) {
	defer utils.RecoverWithError(&err)
	task.qdeLogger.Info().Msgf("Processing message from RMQ, attempt # %d", task.docTask.TaskStatuses.QDE.Attempts)

	request, err := buildRequest(task)
	if err != nil {
		return err
	}
	data, err := worker.s3.getNoteText(task)
	if err != nil {
		task.qdeLogger.Err(err).Caller().Msg("Could not fetch note text from s3")
		return fmt.Errorf("failed fetch data from s3: %w", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return errors.New("note text is empty")
	}
	request.Text = string(data)

	response := worker.analyzer.Analyze(context.Background(), request)
	task.qdeLogger.Info().
		Str("status", string(response.Final.Status)).
		Str("source", response.Source).
		Msg("Finished analysis, saving results to s3")
	result, err := json.Marshal(response)
	if err != nil {
		return fmt.Errorf("failed to encode analysis: %w", err)
	}
	if err = worker.s3.saveResultsFile(task, result); err != nil {
		task.qdeLogger.Err(err).Msg("Got error while trying to save results")
		return err
	}
	task.response = &response
	return nil
}

func buildRequest(task *Task) (qualification.Request, error) {
	request := qualification.Request{
		Tid:        task.redisKey,
		SkipReview: task.docTask.SkipReview,
	}
	if task.docTask.AsOf != nil && *task.docTask.AsOf != "" {
		asOf, err := time.Parse(types.DateLayout, *task.docTask.AsOf)
		if err != nil {
			return request, fmt.Errorf("invalid as_of %q: %w", *task.docTask.AsOf, err)
		}
		request.AsOf = &asOf
	}
	return request, nil
}

func (worker *Worker) shouldPerformTask(task *Task) (bool, error) {
	taskInfo := task.docTask.TaskStatuses.QDE
	taskLogger := task.qdeLogger

	if taskInfo.Status.Complete() {
		taskLogger.Info().Msg("Task is already done. (might indicate issue acking message with RMQ). Sending back to Sequencer.")
		return false, nil
	}
	jobTask, err := worker.redis.getJobTask(task)
	if err != nil {
		taskLogger.Err(err).Msg("Failed to query job task for document task")
		return false, err
	}
	if jobTask.UserCanceled {
		taskLogger.Info().Msg("Job was canceled, no need to perform this task. Sending back to Sequencer.")
		err := worker.redis.onTaskCancelled(task)
		return false, err
	}
	if jobTask.StopDocumentsOnFailure && len(jobTask.FailedDocuments) > 0 {
		failedDocument := jobTask.FailedDocuments[0]
		taskLogger.Info().Msgf("Task is not required because document \"%s\" already completed with failure "+
			"and the job won't be processed successfully. Sending back to Sequencer.", failedDocument)
		err := worker.redis.onTaskCancelled(
			task,
			fmt.Sprintf(
				"Task was marked as \"%s\" because document \"%s\" of the same job has failed.",
				tasks.TaskStatusCanceled,
				failedDocument,
			),
		)
		return false, err
	}
	if taskInfo.Attempts >= worker.config.TaskMaxRetries {
		taskLogger.Info().Msg("Qualification task has exceeded retries. Sending back to Sequencer.")
		err = worker.redis.onTaskExceededRetries(task, worker.config.TaskMaxRetries)
		return false, err
	}
	return true, nil
}

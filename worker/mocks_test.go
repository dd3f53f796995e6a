package worker

import (
	"text2phenotype.com/qde/qualification"
	"text2phenotype.com/qde/tasks"
	"text2phenotype.com/qde/types"
	"context"
	"errors"
	"github.com/rs/zerolog"
	"github.com/streadway/amqp"
)

type failingMethod struct {
	fail bool
}

type withValue struct {
	fail          bool
	returnedValue interface{}
}

type analyzerMock struct {
	config  analyzerMockConfig
	calls   analyzerCall
	request qualification.Request
}

type analyzerMockConfig struct {
	fail bool
}

type analyzerCall struct {
	analyze bool
}

type redisMock struct {
	config redisMockConfig
	calls  redisMockCalls
}

type redisMockConfig struct {
	getDocumentTask       withValue
	getJobTask            withValue
	onTaskCancelled       failingMethod
	onTaskStarted         failingMethod
	onTaskExceededRetries failingMethod
	onTaskFailedWithError failingMethod
	onTaskComplete        failingMethod
}

type redisMockCalls struct {
	getDocumentTask       bool
	getJobTask            bool
	onTaskCancelled       bool
	onTaskStarted         bool
	onTaskExceededRetries bool
	onTaskFailedWithError bool
	onTaskComplete        bool
}

type rmqMock struct {
	config     rmqMockConfig
	calls      rmqMockCalls
	deliveries chan amqp.Delivery
	closes     int
}

type rmqMockConfig struct {
	pingSequencer       failingMethod
	acknowledgeDelivery failingMethod
}

type rmqMockCalls struct {
	pingSequencer       bool
	acknowledgeDelivery bool
	rejectDelivery      bool
}

type s3Mock struct {
	config s3MockConfig
	calls  s3MockCalls
	saved  []byte
}

type s3MockConfig struct {
	getNoteText     withValue
	saveResultsFile failingMethod
}

type s3MockCalls struct {
	getNoteText     bool
	saveResultsFile bool
}

func (mock *s3Mock) close() {}

func (mock *rmqMock) close() {
	mock.closes++
}

func (mock *redisMock) close() {}

func (mock *analyzerMock) Analyze(_ context.Context, request qualification.Request) types.AnalysisResponse {
	mock.calls.analyze = true
	mock.request = request
	if mock.config.fail {
		panic("analysis crashed")
	}
	result := types.QualificationResult{
		Status:             types.StatusQualified,
		SupportingFindings: []string{"Chest Pain", "Dyspnea"},
		Confidence:         types.ConfidenceHigh,
	}
	return types.AnalysisResponse{
		Analysis: types.Analysis{Result: result},
		Final:    result,
		Source:   types.SourceRules,
	}
}

func (mock *redisMock) getDocumentTask(redisKey string) (*tasks.DocumentTask, error) {
	mock.calls.getDocumentTask = true
	if mock.config.getDocumentTask.fail {
		return nil, errors.New("failed to get document task")
	}
	switch value := mock.config.getDocumentTask.returnedValue.(type) {
	case tasks.DocumentTask:
		return &value, nil
	default:
		return &tasks.DocumentTask{DocID: "doc-1", JobID: "job-1", TextFileKey: "notes/doc-1.txt"}, nil
	}
}

func (mock *redisMock) getJobTask(task *Task) (*tasks.JobTask, error) {
	mock.calls.getJobTask = true
	if mock.config.getJobTask.fail {
		return nil, errors.New("failed to get job task")
	}
	switch value := mock.config.getJobTask.returnedValue.(type) {
	case tasks.JobTask:
		return &value, nil
	default:
		return &tasks.JobTask{}, nil
	}
}

func (mock *redisMock) onTaskStarted(task *Task) error {
	mock.calls.onTaskStarted = true
	if mock.config.onTaskStarted.fail {
		return errors.New("failed to update document task on start")
	}
	return nil
}

func (mock *redisMock) onTaskCancelled(task *Task, errorMessages ...string) error {
	mock.calls.onTaskCancelled = true
	if mock.config.onTaskCancelled.fail {
		return errors.New("failed to update document task on cancel")
	}
	return nil
}

func (mock *redisMock) onTaskExceededRetries(task *Task, maxRetries int) error {
	mock.calls.onTaskExceededRetries = true
	if mock.config.onTaskExceededRetries.fail {
		return errors.New("failed to update document task on exceeded retries")
	}
	return nil
}

func (mock *redisMock) onTaskFailedWithError(task *Task, err error) error {
	mock.calls.onTaskFailedWithError = true
	if mock.config.onTaskFailedWithError.fail {
		return errors.New("failed to update document task on fail with error")
	}
	return nil
}

func (mock *redisMock) onTaskComplete(task *Task) error {
	mock.calls.onTaskComplete = true
	if mock.config.onTaskComplete.fail {
		return errors.New("failed to update document task on complete")
	}
	return nil
}

func (mock *rmqMock) rejectDelivery(delivery *amqp.Delivery, qdeLogger *zerolog.Logger) {
	mock.calls.rejectDelivery = true
}

func (mock *rmqMock) getDeliveriesCh() <-chan amqp.Delivery {
	return mock.deliveries
}

func (mock *rmqMock) getReqChanErrorsCh() <-chan *amqp.Error {
	return nil
}

func (mock *rmqMock) getRespChanErrorsCh() <-chan *amqp.Error {
	return nil
}

func (mock *rmqMock) pingSequencer(task *Task, message Message) error {
	mock.calls.pingSequencer = true
	if mock.config.pingSequencer.fail {
		return errors.New("failed to ping sequencer")
	}
	return nil
}

func (mock *rmqMock) acknowledgeDelivery(delivery *amqp.Delivery) error {
	mock.calls.acknowledgeDelivery = true
	if mock.config.acknowledgeDelivery.fail {
		return errors.New("failed to acknowledge delivery")
	}
	return nil
}

func (mock *s3Mock) getNoteText(task *Task) ([]byte, error) {
	mock.calls.getNoteText = true
	if mock.config.getNoteText.fail {
		return nil, errors.New("mock: failed to load from s3")
	}
	switch value := mock.config.getNoteText.returnedValue.(type) {
	case []byte:
		return value, nil
	default:
		return []byte("Cardiology consult 01/05/2024: Patient reports chest pain and dyspnea."), nil
	}
}

func (mock *s3Mock) saveResultsFile(task *Task, result []byte) error {
	mock.calls.saveResultsFile = true
	if mock.config.saveResultsFile.fail {
		return errors.New("failed to upload results")
	}
	mock.saved = result
	return nil
}

// ackRecorder stands in for the broker channel behind a delivery.
type ackRecorder struct {
	rejected bool
	requeued bool
}

func (ack *ackRecorder) Ack(tag uint64, multiple bool) error {
	return nil
}

func (ack *ackRecorder) Nack(tag uint64, multiple bool, requeue bool) error {
	return nil
}

func (ack *ackRecorder) Reject(tag uint64, requeue bool) error {
	ack.rejected, ack.requeued = true, requeue
	return nil
}

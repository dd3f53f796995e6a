package worker

import (
	"text2phenotype.com/qde/tasks"
	"fmt"
)

type redisTransactions interface {
	getDocumentTask(redisKey string) (*tasks.DocumentTask, error)
	getJobTask(task *Task) (*tasks.JobTask, error)
	onTaskStarted(task *Task) error
	onTaskCancelled(task *Task, errorMessages ...string) error
	onTaskExceededRetries(task *Task, maxRetries int) error
	onTaskFailedWithError(task *Task, err error) error
	onTaskComplete(task *Task) error
	close()
}

type redisClientWrapper struct {
	tasksClient *tasks.Client
}

func (wrapper *redisClientWrapper) close() {
	wrapper.tasksClient.Close()
}

func (wrapper *redisClientWrapper) onTaskStarted(task *Task) error {
	return wrapper.tasksClient.Documents.Update(task.redisKey, func(docTask *tasks.DocumentTask) {
		info := &docTask.TaskStatuses.QDE
		info.Status = tasks.TaskStatusStarted
		info.Attempts += 1
		info.StartedAt = getFormattedNow()
		info.CompletedAt = nil
	})
}

func (wrapper *redisClientWrapper) onTaskCancelled(task *Task, errorMessages ...string) error {
	return wrapper.tasksClient.Documents.Update(task.redisKey, func(docTask *tasks.DocumentTask) {
		info := &docTask.TaskStatuses.QDE
		info.Status = tasks.TaskStatusCanceled
		info.StartedAt = getFormattedNow()
		info.CompletedAt = getFormattedNow()
		info.Attempts += 1
		info.ErrorMessages = append(info.ErrorMessages, errorMessages...)
	})
}

func (wrapper *redisClientWrapper) onTaskExceededRetries(task *Task, maxRetries int) error {
	err := wrapper.tasksClient.Jobs.Update(task.docTask.JobID, func(jobTask *tasks.JobTask) {
		jobTask.FailedDocuments = append(jobTask.FailedDocuments, task.docTask.DocID)
	})
	if err != nil {
		return err
	}
	return wrapper.tasksClient.Documents.Update(task.redisKey, func(docTask *tasks.DocumentTask) {
		info := &docTask.TaskStatuses.QDE
		info.Status = tasks.TaskStatusCompletedFailure
		info.StartedAt = getFormattedNow()
		info.CompletedAt = getFormattedNow()
		info.Attempts += 1
		info.ErrorMessages = append(
			info.ErrorMessages,
			fmt.Sprintf(
				"Task has exceeded retries. (Attempts: %d, max retries: %d )",
				info.Attempts,
				maxRetries,
			),
		)
	})
}

func (wrapper *redisClientWrapper) onTaskFailedWithError(task *Task, err error) error {
	return wrapper.tasksClient.Documents.Update(task.redisKey, func(docTask *tasks.DocumentTask) {
		info := &docTask.TaskStatuses.QDE
		info.Status = tasks.TaskStatusFailed
		info.CompletedAt = getFormattedNow()
		info.ErrorMessages = append(info.ErrorMessages, err.Error())
	})
}

func (wrapper *redisClientWrapper) onTaskComplete(task *Task) error {
	return wrapper.tasksClient.Documents.Update(task.redisKey, func(docTask *tasks.DocumentTask) {
		info := &docTask.TaskStatuses.QDE
		if !info.Status.Complete() {
			info.Status = tasks.TaskStatusCompletedSuccess
		}
		info.CompletedAt = getFormattedNow()
		info.ResultsFileKey = getResultsFileKey(task)
		if task.response != nil {
			info.QualificationStatus = string(task.response.Final.Status)
			info.Source = task.response.Source
		}
	})
}

func (wrapper *redisClientWrapper) getDocumentTask(redisKey string) (*tasks.DocumentTask, error) {
	return wrapper.tasksClient.Documents.Get(redisKey)
}

func (wrapper *redisClientWrapper) getJobTask(task *Task) (*tasks.JobTask, error) {
	return wrapper.tasksClient.Jobs.GetCached(task.docTask.JobID)
}

package tasks

import (
	"text2phenotype.com/qde/redis"
)

const DocumentsDB redis.DB = 0

// DocumentTask is one referral packet: the concatenated notes of a patient
// stored as a single text file.
type DocumentTask struct {
	DocID        string       `json:"document_id"`
	JobID        string       `json:"job_id"`
	TextFileKey  string       `json:"text_file_key"`
	AsOf         *string      `json:"as_of"`
	SkipReview   bool         `json:"skip_review"`
	TaskStatuses TaskStatuses `json:"task_statuses"`
}

type TaskStatuses struct {
	QDE TaskInfo `json:"qde"`
}

type DocumentTasks struct {
	client redis.Client
}

func (tasks DocumentTasks) Get(redisKey string) (*DocumentTask, error) {
	var task DocumentTask
	err := tasks.client.GetDocument(redisKey, &task)
	if err != nil {
		return nil, err
	}
	return &task, nil
}

func (tasks DocumentTasks) Update(redisKey string, updateFunc func(task *DocumentTask)) error {
	var task DocumentTask
	return tasks.client.UpdateDocument(redisKey, &task, func() {
		updateFunc(&task)
	})
}

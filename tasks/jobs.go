package tasks

import (
	"text2phenotype.com/qde/redis"
	"sync"
)

const JobsDB redis.DB = 1

type JobTask struct {
	UserCanceled           bool     `json:"user_canceled"`
	StopDocumentsOnFailure bool     `json:"stop_documents_on_failure"`
	FailedDocuments        []string `json:"failed_documents"`
}

type JobTasks struct {
	client redis.Client
}

func (tasks JobTasks) GetCached(redisKey string) (*JobTask, error) {
	var task JobTask
	err := tasks.client.GetDocument(cachedPropertiesKey(redisKey), &task)
	if err != nil {
		return nil, err
	}
	return &task, nil
}

// Update applies updateFunc to the job document and its cached properties
// under a single lock.
func (tasks JobTasks) Update(redisKey string, updateFunc func(task *JobTask)) (err error) {
	releaseLock, err := tasks.client.Lock(redisKey)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = releaseLock()
			return
		}
		err = releaseLock()
	}()

	keys := []string{redisKey, cachedPropertiesKey(redisKey)}
	errChan := make(chan error, len(keys))
	var wg sync.WaitGroup
	wg.Add(len(keys))
	for _, key := range keys {
		go func(key string) {
			defer wg.Done()
			var task JobTask
			errChan <- tasks.client.ModifyDocument(key, &task, func() {
				updateFunc(&task)
			})
		}(key)
	}
	wg.Wait()
	close(errChan)
	for err = range errChan {
		if err != nil {
			return err
		}
	}
	return nil
}

package worker

import (
	"fmt"
	"path"
	"time"
)

const (
	workerName   = "qde"
	resultsMedia = "application/json"
)

const (
	outcomeCompleted = "completed"
	outcomeFailed    = "failed"
	outcomeSkipped   = "skipped"
	outcomeRejected  = "rejected"
)

func getResultsFileKey(task *Task) string {
	return path.Join(
		"processed",
		"documents",
		task.docTask.DocID,
		fmt.Sprintf("%s.%s_results.json", task.docTask.DocID, workerName),
	)
}

const RFC3339Micro = "2006-01-02T15:04:05.000000-07:00"

func getFormattedNow() *string {
	now := time.Now().UTC().Format(RFC3339Micro)
	return &now
}

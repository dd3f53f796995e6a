package tasks

type TaskStatus string

const (
	TaskStatusProcessing       TaskStatus = "processing"
	TaskStatusSubmitted        TaskStatus = "submitted"
	TaskStatusStarted          TaskStatus = "started"
	TaskStatusFailed           TaskStatus = "failed"
	TaskStatusCompletedSuccess TaskStatus = "completed - success"
	TaskStatusCompletedFailure TaskStatus = "completed - failure"
	TaskStatusCanceled         TaskStatus = "canceled"
)

func (s TaskStatus) Complete() bool {
	return s == TaskStatusCompletedSuccess || s == TaskStatusCompletedFailure || s == TaskStatusCanceled
}

func (s TaskStatus) Submitted() bool {
	return s == TaskStatusSubmitted || s == TaskStatusStarted || s == TaskStatusProcessing
}

// TaskInfo is the qualification worker's slot in a document's task statuses.
type TaskInfo struct {
	ResultsFileKey      string     `json:"results_file_key"`
	StartedAt           *string    `json:"started_at"`
	CompletedAt         *string    `json:"completed_at"`
	Attempts            int        `json:"attempts"`
	Status              TaskStatus `json:"status"`
	QualificationStatus string     `json:"qualification_status,omitempty"`
	Source              string     `json:"source,omitempty"`
	ErrorMessages       []string   `json:"error_messages"`
}

package tasks

import (
	"github.com/stretchr/testify/assert"
	"testing"
)

func TestTaskStatus(t *testing.T) {
	for _, status := range []TaskStatus{TaskStatusCompletedSuccess, TaskStatusCompletedFailure, TaskStatusCanceled} {
		assert.True(t, status.Complete(), status)
		assert.False(t, status.Submitted(), status)
	}
	for _, status := range []TaskStatus{TaskStatusSubmitted, TaskStatusStarted, TaskStatusProcessing} {
		assert.True(t, status.Submitted(), status)
		assert.False(t, status.Complete(), status)
	}
	assert.False(t, TaskStatusFailed.Complete())
}

func TestCachedPropertiesKey(t *testing.T) {
	assert.Equal(t, "job-1-cached-properties", cachedPropertiesKey("job-1"))
}

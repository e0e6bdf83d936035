package tools

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/storymesh/story-mcp/engine/story"
)

func TestJobStore(t *testing.T) {
	t.Run("Should store and return jobs by id", func(t *testing.T) {
		store := NewJobStore()
		store.Put(&story.JobStatus{JobID: "job-1", Status: "pending"})

		job, ok := store.Get("job-1")
		require.True(t, ok)
		assert.Equal(t, "pending", job.Status)
		assert.Equal(t, 1, store.Len())
	})

	t.Run("Should overwrite an existing job last-write-wins", func(t *testing.T) {
		store := NewJobStore()
		store.Put(&story.JobStatus{JobID: "job-1", Status: "pending"})
		store.Put(&story.JobStatus{JobID: "job-1", Status: "completed"})

		job, ok := store.Get("job-1")
		require.True(t, ok)
		assert.Equal(t, "completed", job.Status)
		assert.Equal(t, 1, store.Len())
	})

	t.Run("Should ignore nil jobs and empty ids", func(t *testing.T) {
		store := NewJobStore()
		store.Put(nil)
		store.Put(&story.JobStatus{Status: "pending"})

		assert.Equal(t, 0, store.Len())
		_, ok := store.Get("")
		assert.False(t, ok)
	})
}

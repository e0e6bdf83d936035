package tools

import (
	"sync"

	"github.com/storymesh/story-mcp/engine/story"
)

// JobStore is an in-memory registry of analysis jobs keyed by execution id.
// It is a display cache only: the workflow engine owns the state, entries are
// overwritten last-write-wins on every poll, and nothing survives a restart.
type JobStore struct {
	mu   sync.RWMutex
	jobs map[string]*story.JobStatus
}

func NewJobStore() *JobStore {
	return &JobStore{jobs: make(map[string]*story.JobStatus)}
}

// Put records the latest snapshot for a job.
func (s *JobStore) Put(job *story.JobStatus) {
	if job == nil || job.JobID == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[job.JobID] = job
}

// Get returns the most recently cached snapshot for a job.
func (s *JobStore) Get(jobID string) (*story.JobStatus, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	job, ok := s.jobs[jobID]
	return job, ok
}

// Len returns the number of cached jobs.
func (s *JobStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.jobs)
}

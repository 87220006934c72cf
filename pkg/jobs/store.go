package jobs

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/deadweight/argon/pkg/domain"
)

// Store is an in-memory job registry. All methods are safe for concurrent
// use. Get returns a copy so callers never observe a record mid-transition.
type Store struct {
	mu   sync.RWMutex
	jobs map[string]*domain.Job
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{
		jobs: make(map[string]*domain.Job),
	}
}

// Create registers a new queued job of the given kind and returns its id.
func (s *Store) Create(kind string) string {
	id := uuid.NewString()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[id] = &domain.Job{
		ID:        id,
		Kind:      kind,
		Status:    domain.JobQueued,
		CreatedAt: time.Now().UTC(),
	}
	return id
}

// Get returns a snapshot of the job or ErrJobNotFound.
func (s *Store) Get(id string) (domain.Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	j, ok := s.jobs[id]
	if !ok {
		return domain.Job{}, domain.ErrJobNotFound
	}
	return *j, nil
}

// Start marks the job as running. Unknown ids are ignored; the worker that
// calls this is the one that created the record.
func (s *Store) Start(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if j, ok := s.jobs[id]; ok {
		j.Status = domain.JobRunning
	}
}

// Complete stores the result and marks the job complete.
func (s *Store) Complete(id string, result any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if j, ok := s.jobs[id]; ok {
		j.Status = domain.JobComplete
		j.Result = result
		j.Error = ""
	}
}

// Fail marks the job as errored with the given message.
func (s *Store) Fail(id string, msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if j, ok := s.jobs[id]; ok {
		j.Status = domain.JobError
		j.Error = msg
	}
}

// Len reports the number of records held.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.jobs)
}

package activity

import (
	"errors"
	"sync"
)

// ErrSubmissionNotFound is returned for unknown or finished submissions.
var ErrSubmissionNotFound = errors.New("submission not found")

// ErrSubmissionExists is returned when a submission id is already in use.
var ErrSubmissionExists = errors.New("submission id already in use")

type registryKey struct {
	ownerID string
	id      string
}

// Registry tracks in-flight submissions so a second request can read their
// progress or skip their remaining uploads.
type Registry struct {
	submissions map[registryKey]*Workflow
	mu          sync.RWMutex
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		submissions: make(map[registryKey]*Workflow),
	}
}

// Register stores w under the owner's submission id.
func (r *Registry) Register(ownerID, id string, w *Workflow) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := registryKey{ownerID: ownerID, id: id}
	if _, exists := r.submissions[key]; exists {
		return ErrSubmissionExists
	}
	r.submissions[key] = w
	return nil
}

// Get retrieves the owner's in-flight submission.
func (r *Registry) Get(ownerID, id string) (*Workflow, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	w, ok := r.submissions[registryKey{ownerID: ownerID, id: id}]
	if !ok {
		return nil, ErrSubmissionNotFound
	}
	return w, nil
}

// Remove forgets a submission.
func (r *Registry) Remove(ownerID, id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.submissions, registryKey{ownerID: ownerID, id: id})
}

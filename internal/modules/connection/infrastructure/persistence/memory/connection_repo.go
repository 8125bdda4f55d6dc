// Package memory is a process-local registry for single-node development
// runs and tests. Nothing survives a restart.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/saransh1220/notify-relay/internal/shared/errs"
)

type ConnectionRepository struct {
	mu     sync.RWMutex
	owners map[string]string
	byUser map[string]map[string]struct{}
}

func NewConnectionRepository() *ConnectionRepository {
	return &ConnectionRepository{
		owners: make(map[string]string),
		byUser: make(map[string]map[string]struct{}),
	}
}

func (r *ConnectionRepository) Register(_ context.Context, connectionID, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.removeLocked(connectionID)
	r.owners[connectionID] = userID
	if userID == "" {
		return nil
	}
	set, ok := r.byUser[userID]
	if !ok {
		set = make(map[string]struct{})
		r.byUser[userID] = set
	}
	set[connectionID] = struct{}{}
	return nil
}

func (r *ConnectionRepository) Unregister(_ context.Context, connectionID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.removeLocked(connectionID)
	return nil
}

func (r *ConnectionRepository) removeLocked(connectionID string) {
	userID, ok := r.owners[connectionID]
	if !ok {
		return
	}
	delete(r.owners, connectionID)
	if set, ok := r.byUser[userID]; ok {
		delete(set, connectionID)
		if len(set) == 0 {
			delete(r.byUser, userID)
		}
	}
}

func (r *ConnectionRepository) FindByUser(_ context.Context, userID string) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.byUser[userID]))
	for id := range r.byUser[userID] {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

func (r *ConnectionRepository) UserOf(_ context.Context, connectionID string) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	userID, ok := r.owners[connectionID]
	if !ok {
		return "", errs.ErrConnectionNotFound
	}
	return userID, nil
}

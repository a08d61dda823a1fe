// Package registry holds the in-memory activity catalog and rosters.
package registry

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"

	"example.com/mergington/internal/domain"
)

// InMemoryRegistry stores activities in process memory. A single RWMutex
// serialises roster mutations; reads copy rosters under the read lock.
type InMemoryRegistry struct {
	mu         sync.RWMutex
	activities map[string]*domain.Activity
	onResize   SizeObserver
}

// SizeObserver receives an activity's roster size. It is called with the
// write lock held, once per seeded activity and after every mutation, so
// calls for one activity arrive in mutation order. It must not call back
// into the registry.
type SizeObserver func(activity string, size int)

// Option configures an InMemoryRegistry.
type Option func(*InMemoryRegistry)

// WithSizeObserver registers fn to track roster sizes.
func WithSizeObserver(fn SizeObserver) Option {
	return func(r *InMemoryRegistry) {
		r.onResize = fn
	}
}

// NewInMemoryRegistry constructs a registry from the seed catalog. The set of
// activity names is fixed for the lifetime of the registry.
func NewInMemoryRegistry(seed []domain.Activity, opts ...Option) (*InMemoryRegistry, error) {
	r := &InMemoryRegistry{activities: make(map[string]*domain.Activity, len(seed))}
	for _, opt := range opts {
		opt(r)
	}
	for _, activity := range seed {
		if strings.TrimSpace(activity.Name) == "" {
			return nil, fmt.Errorf("seed activity with empty name")
		}
		if _, exists := r.activities[activity.Name]; exists {
			return nil, fmt.Errorf("duplicate seed activity %q", activity.Name)
		}
		cloned := activity.Clone()
		r.activities[activity.Name] = &cloned
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for _, activity := range r.activities {
		r.resized(activity)
	}
	return r, nil
}

func (r *InMemoryRegistry) resized(activity *domain.Activity) {
	if r.onResize != nil {
		r.onResize(activity.Name, len(activity.Participants))
	}
}

// List implements domain.Registry.
func (r *InMemoryRegistry) List(ctx context.Context) (map[string]domain.Activity, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[string]domain.Activity, len(r.activities))
	for name, activity := range r.activities {
		out[name] = activity.Clone()
	}
	return out, nil
}

// Get implements domain.Registry.
func (r *InMemoryRegistry) Get(ctx context.Context, name string) (domain.Activity, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	activity, ok := r.activities[name]
	if !ok {
		return domain.Activity{}, fmt.Errorf("get %q: %w", name, domain.ErrActivityNotFound)
	}
	return activity.Clone(), nil
}

// Enroll implements domain.Registry. check runs under the write lock so that
// it observes the same state the append is applied to.
func (r *InMemoryRegistry) Enroll(ctx context.Context, name, email string, check domain.EnrollCheck) (domain.Activity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	activity, ok := r.activities[name]
	if !ok {
		return domain.Activity{}, fmt.Errorf("enroll %q: %w", name, domain.ErrActivityNotFound)
	}
	if activity.HasParticipant(email) {
		return domain.Activity{}, fmt.Errorf("enroll %q in %q: %w", email, name, domain.ErrAlreadyRegistered)
	}
	if check != nil {
		if err := check(activity.Clone()); err != nil {
			return domain.Activity{}, fmt.Errorf("enroll %q in %q: %w", email, name, err)
		}
	}

	activity.Participants = append(activity.Participants, email)
	r.resized(activity)
	return activity.Clone(), nil
}

// Withdraw implements domain.Registry. Exactly one occurrence is removed and
// the order of the remaining participants is preserved.
func (r *InMemoryRegistry) Withdraw(ctx context.Context, name, email string) (domain.Activity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	activity, ok := r.activities[name]
	if !ok {
		return domain.Activity{}, fmt.Errorf("withdraw %q: %w", name, domain.ErrActivityNotFound)
	}
	idx := slices.Index(activity.Participants, email)
	if idx < 0 {
		return domain.Activity{}, fmt.Errorf("withdraw %q from %q: %w", email, name, domain.ErrNotRegistered)
	}

	activity.Participants = slices.Delete(activity.Participants, idx, idx+1)
	r.resized(activity)
	return activity.Clone(), nil
}

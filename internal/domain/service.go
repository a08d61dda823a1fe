// Package domain defines the business logic for the activities service.
package domain

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"example.com/mergington/internal/events"
	"example.com/mergington/internal/observability"
)

var (
	// ErrActivityNotFound is returned when no activity has the requested name.
	ErrActivityNotFound = errors.New("activity not found")
	// ErrAlreadyRegistered is returned when the email is already on the roster.
	ErrAlreadyRegistered = errors.New("student already signed up")
	// ErrNotRegistered is returned when withdrawing an email that is not on the roster.
	ErrNotRegistered = errors.New("student is not signed up for this activity")
	// ErrActivityFull is returned by signup when capacity enforcement is enabled
	// and the roster already holds MaxParticipants entries.
	ErrActivityFull = errors.New("activity is full")
)

// EnrollCheck is evaluated against the current activity state before an email
// is appended. Returning an error aborts the enrollment.
type EnrollCheck func(activity Activity) error

// Registry owns the activity catalog and its rosters.
type Registry interface {
	List(ctx context.Context) (map[string]Activity, error)
	Get(ctx context.Context, name string) (Activity, error)
	Enroll(ctx context.Context, name, email string, check EnrollCheck) (Activity, error)
	Withdraw(ctx context.Context, name, email string) (Activity, error)
}

// Publisher emits roster change notifications to downstream consumers.
type Publisher interface {
	Publish(ctx context.Context, event events.RosterChanged) error
}

type noopPublisher struct{}

func (noopPublisher) Publish(context.Context, events.RosterChanged) error { return nil }

// Service orchestrates signup workflows on top of a Registry.
type Service struct {
	registry        Registry
	publisher       Publisher
	logger          *zap.Logger
	enforceCapacity bool
	now             func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithPublisher sets the roster event publisher.
func WithPublisher(p Publisher) Option {
	return func(s *Service) {
		if p != nil {
			s.publisher = p
		}
	}
}

// WithLogger sets the service logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithCapacityEnforcement rejects signups once a roster holds MaxParticipants
// entries. Disabled by default: rosters may grow past capacity.
func WithCapacityEnforcement(enabled bool) Option {
	return func(s *Service) {
		s.enforceCapacity = enabled
	}
}

// NewService constructs a Service.
func NewService(registry Registry, opts ...Option) *Service {
	s := &Service{
		registry:  registry,
		publisher: noopPublisher{},
		logger:    zap.NewNop(),
		now:       func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ListActivities returns every activity keyed by name.
func (s *Service) ListActivities(ctx context.Context) (map[string]Activity, error) {
	return s.registry.List(ctx)
}

// GetActivity fetches a single activity by its exact name.
func (s *Service) GetActivity(ctx context.Context, name string) (Activity, error) {
	return s.registry.Get(ctx, name)
}

// Signup enrolls email into the named activity and returns a confirmation message.
func (s *Service) Signup(ctx context.Context, name, email string) (string, error) {
	var check EnrollCheck
	if s.enforceCapacity {
		check = checkCapacity
	}

	activity, err := s.registry.Enroll(ctx, name, email, check)
	if err != nil {
		observability.RecordRosterRejection(observability.OperationSignup, rejectionReason(err))
		return "", err
	}

	observability.RecordRosterChange(observability.OperationSignup)
	s.publish(ctx, events.RosterEnrolled, activity, email)
	return fmt.Sprintf("Signed up %s for %s", email, name), nil
}

// Unregister removes email from the named activity and returns a confirmation message.
func (s *Service) Unregister(ctx context.Context, name, email string) (string, error) {
	activity, err := s.registry.Withdraw(ctx, name, email)
	if err != nil {
		observability.RecordRosterRejection(observability.OperationUnregister, rejectionReason(err))
		return "", err
	}

	observability.RecordRosterChange(observability.OperationUnregister)
	s.publish(ctx, events.RosterWithdrawn, activity, email)
	return fmt.Sprintf("Unregistered %s from %s", email, name), nil
}

func (s *Service) publish(ctx context.Context, eventType string, activity Activity, email string) {
	event := events.RosterChanged{
		EventID:      uuid.NewString(),
		EventType:    eventType,
		ActivityName: activity.Name,
		Email:        email,
		RosterSize:   len(activity.Participants),
		OccurredAt:   s.now(),
	}
	// The roster is already mutated; a failed publish is reported but does not
	// roll back or fail the request.
	if err := s.publisher.Publish(ctx, event); err != nil {
		observability.RecordPublishFailure(eventType)
		s.logger.Error("publish roster event",
			zap.String("event_type", eventType),
			zap.String("activity", activity.Name),
			zap.Error(err),
		)
	}
}

func checkCapacity(activity Activity) error {
	if activity.Full() {
		return ErrActivityFull
	}
	return nil
}

func rejectionReason(err error) string {
	switch {
	case errors.Is(err, ErrActivityNotFound):
		return "not_found"
	case errors.Is(err, ErrAlreadyRegistered):
		return "already_registered"
	case errors.Is(err, ErrNotRegistered):
		return "not_registered"
	case errors.Is(err, ErrActivityFull):
		return "activity_full"
	default:
		return "error"
	}
}

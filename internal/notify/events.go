package notify

import (
	"time"

	"github.com/studia-dev/classhub-api/internal/models"
)

// EventType enumerates the lifecycle transitions that produce a
// notification.
type EventType string

const (
	EventMembershipCreated   EventType = "membership.created"
	EventSubmissionSubmitted EventType = "submission.submitted"
	EventSubmissionGraded    EventType = "submission.graded"
)

// Event is an immutable snapshot of the entities involved in a transition,
// captured at emit time. Message content is derived from the snapshot only;
// the dispatcher never reads mutable state.
type Event struct {
	Type       EventType
	OccurredAt time.Time

	Classroom models.Classroom
	Teacher   models.UserInfo

	// Student is set for membership events.
	Student models.UserInfo

	// Submission is set for submission events.
	Submission *models.SubmissionDetail
}

// Emitter publishes events after the underlying state change has been
// committed. Implementations must never fail the calling command.
type Emitter interface {
	Emit(event Event)
}

// NopEmitter discards events. Used when notifications are disabled and in
// tests that do not care about dispatch.
type NopEmitter struct{}

// Emit drops the event.
func (NopEmitter) Emit(Event) {}

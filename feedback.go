package settings

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Severity classifies a feedback event.
type Severity int

const (
	// SeverityInfo marks informational events.
	SeverityInfo Severity = iota
	// SeverityWarning marks degraded but recovered operations, such as a
	// persisted value that could not be deserialized.
	SeverityWarning
	// SeverityError marks failed operations.
	SeverityError
)

// String returns the severity name.
func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	default:
		return "unknown"
	}
}

// Feedback is one event surfaced to the host application. The core never
// halts on a feedback event; hosts may log or display them.
type Feedback struct {
	ID         uuid.UUID
	Severity   Severity
	Message    string
	Cause      error
	OccurredAt time.Time
}

// FeedbackHook receives normalized feedback events.
type FeedbackHook interface {
	Notify(event Feedback)
}

// FeedbackHookFunc allows plain functions to satisfy FeedbackHook.
type FeedbackHookFunc func(event Feedback)

// Notify dispatches to the underlying function.
func (fn FeedbackHookFunc) Notify(event Feedback) {
	if fn != nil {
		fn(event)
	}
}

// FeedbackHooks fans out events to zero or more hooks. Dispatch is
// fire-and-forget: hooks cannot fail the emitting operation.
type FeedbackHooks []FeedbackHook

// Enabled reports whether there are any hooks to notify.
func (h FeedbackHooks) Enabled() bool {
	return len(h) > 0
}

// Notify normalizes the event and forwards it to all hooks. Events with an
// empty message are dropped.
func (h FeedbackHooks) Notify(event Feedback) {
	if len(h) == 0 {
		return
	}

	normalized := normalizeFeedback(event)
	if normalized.Message == "" {
		return
	}

	for _, hook := range h {
		if hook == nil {
			continue
		}
		hook.Notify(normalized)
	}
}

// normalizeFeedback trims the message and ensures an event ID and timestamp
// are present.
func normalizeFeedback(event Feedback) Feedback {
	normalized := event
	normalized.Message = strings.TrimSpace(event.Message)
	if normalized.ID == uuid.Nil {
		normalized.ID = uuid.New()
	}
	if normalized.OccurredAt.IsZero() {
		normalized.OccurredAt = time.Now()
	}
	return normalized
}

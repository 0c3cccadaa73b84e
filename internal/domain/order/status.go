package order

import (
	"fmt"
	"time"
)

// Status is the fulfillment state of an order.
type Status string

const (
	// StatusPending is the initial state seeded at checkout.
	StatusPending Status = "pending"
	// StatusInProgress means staff picked the order up for processing.
	StatusInProgress Status = "in_progress"
	// StatusUnderReview means the prepared documents await verification.
	StatusUnderReview Status = "under_review"
	// StatusCompleted is terminal: documents delivered or picked up.
	StatusCompleted Status = "completed"
	// StatusCancelled is terminal: the order was abandoned or rejected.
	StatusCancelled Status = "cancelled"
)

// ParseStatus converts a wire value into a Status.
func ParseStatus(s string) (Status, error) {
	switch st := Status(s); st {
	case StatusPending, StatusInProgress, StatusUnderReview, StatusCompleted, StatusCancelled:
		return st, nil
	default:
		return "", fmt.Errorf("unknown order status %q", s)
	}
}

// IsTerminal reports whether no further transitions are allowed from s.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// transitions is the full set of allowed status edges. Every non-terminal
// state may cancel; completion is reachable once processing has started.
var transitions = map[Status][]Status{
	StatusPending:     {StatusInProgress, StatusCancelled},
	StatusInProgress:  {StatusUnderReview, StatusCompleted, StatusCancelled},
	StatusUnderReview: {StatusInProgress, StatusCompleted, StatusCancelled},
	StatusCompleted:   {},
	StatusCancelled:   {},
}

// InvalidTransitionError indicates a status edge outside the transition table.
type InvalidTransitionError struct {
	From Status
	To   Status
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid status transition %s -> %s", e.From, e.To)
}

// CanTransition reports whether the edge from -> to is allowed.
func CanTransition(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Transition moves the order to target at the given instant. It is the
// sole mutator of the status field. On success it returns the
// StatusChanged event for the sink; transitions into StatusCompleted also
// stamp CompletedAt. The order is untouched on failure.
func Transition(o *Order, target Status, now time.Time) (StatusChanged, error) {
	if !CanTransition(o.Status, target) {
		return StatusChanged{}, &InvalidTransitionError{From: o.Status, To: target}
	}

	event := StatusChanged{
		OrderID: o.ID,
		From:    o.Status,
		To:      target,
		At:      now,
	}

	o.Status = target
	if target == StatusCompleted {
		completedAt := now
		o.CompletedAt = &completedAt
	}

	return event, nil
}

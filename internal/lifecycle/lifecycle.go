package lifecycle

import (
	"errors"
	"fmt"

	"github.com/example/courier-orders/internal/models"
)

// ErrIllegalTransition is returned when a requested status change is not
// reachable from the current status. The stored status must be left as is.
var ErrIllegalTransition = errors.New("illegal status transition")

// transitions lists the statuses reachable from each status. The forward path
// pending -> active -> in_transit -> completed is operator-driven; users may
// only cancel, and only before the order is in transit.
var transitions = map[models.OrderStatus][]models.OrderStatus{
	models.StatusPending:   {models.StatusActive, models.StatusCancelled},
	models.StatusActive:    {models.StatusInTransit, models.StatusCancelled},
	models.StatusInTransit: {models.StatusCompleted},
	models.StatusCompleted: {},
	models.StatusCancelled: {},
}

// Terminal reports whether no further transition is permitted from s.
func Terminal(s models.OrderStatus) bool {
	return s == models.StatusCompleted || s == models.StatusCancelled
}

// UserCancelable reports whether the end user may still cancel an order in
// status s.
func UserCancelable(s models.OrderStatus) bool {
	return s == models.StatusPending || s == models.StatusActive
}

// CanTransition reports whether from -> to is a legal step.
func CanTransition(from, to models.OrderStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Transition returns the new status if from -> to is legal, otherwise the
// unchanged status and an error wrapping ErrIllegalTransition.
func Transition(from, to models.OrderStatus) (models.OrderStatus, error) {
	if !CanTransition(from, to) {
		return from, fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, from, to)
	}
	return to, nil
}

// Badge returns the presentation tag shown next to an order status.
func Badge(s models.OrderStatus) string {
	switch s {
	case models.StatusPending:
		return "Pending"
	case models.StatusActive:
		return "Active"
	case models.StatusInTransit:
		return "In transit"
	case models.StatusCompleted:
		return "Completed"
	case models.StatusCancelled:
		return "Cancelled"
	default:
		return string(s)
	}
}

package lifecycle

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/example/courier-orders/internal/models"
)

func TestForwardPath(t *testing.T) {
	path := []models.OrderStatus{
		models.StatusPending,
		models.StatusActive,
		models.StatusInTransit,
		models.StatusCompleted,
	}
	for i := 0; i < len(path)-1; i++ {
		got, err := Transition(path[i], path[i+1])
		assert.NoError(t, err)
		assert.Equal(t, path[i+1], got)
	}
}

func TestCancelOnlyBeforeTransit(t *testing.T) {
	assert.True(t, CanTransition(models.StatusPending, models.StatusCancelled))
	assert.True(t, CanTransition(models.StatusActive, models.StatusCancelled))
	assert.False(t, CanTransition(models.StatusInTransit, models.StatusCancelled))
	assert.False(t, CanTransition(models.StatusCompleted, models.StatusCancelled))
}

func TestTerminalStatesRejectEverything(t *testing.T) {
	all := []models.OrderStatus{
		models.StatusPending, models.StatusActive, models.StatusInTransit,
		models.StatusCompleted, models.StatusCancelled,
	}
	for _, terminal := range []models.OrderStatus{models.StatusCompleted, models.StatusCancelled} {
		for _, to := range all {
			got, err := Transition(terminal, to)
			if !errors.Is(err, ErrIllegalTransition) {
				t.Fatalf("expected ErrIllegalTransition for %s -> %s, got %v", terminal, to, err)
			}
			// status must be unchanged on rejection
			assert.Equal(t, terminal, got)
		}
	}
}

func TestCancelTwiceIsIllegalSecondTime(t *testing.T) {
	s, err := Transition(models.StatusPending, models.StatusCancelled)
	assert.NoError(t, err)
	s, err = Transition(s, models.StatusCancelled)
	assert.ErrorIs(t, err, ErrIllegalTransition)
	assert.Equal(t, models.StatusCancelled, s)
}

func TestNoSkippingStates(t *testing.T) {
	assert.False(t, CanTransition(models.StatusPending, models.StatusInTransit))
	assert.False(t, CanTransition(models.StatusPending, models.StatusCompleted))
	assert.False(t, CanTransition(models.StatusActive, models.StatusCompleted))
}

func TestBadgeLabels(t *testing.T) {
	assert.Equal(t, "Pending", Badge(models.StatusPending))
	assert.Equal(t, "In transit", Badge(models.StatusInTransit))
	assert.Equal(t, "Cancelled", Badge(models.StatusCancelled))
	// unknown statuses fall through verbatim
	assert.Equal(t, "archived", Badge(models.OrderStatus("archived")))
}

func TestUserCancelable(t *testing.T) {
	assert.True(t, UserCancelable(models.StatusPending))
	assert.True(t, UserCancelable(models.StatusActive))
	assert.False(t, UserCancelable(models.StatusInTransit))
	assert.False(t, UserCancelable(models.StatusCompleted))
	assert.False(t, UserCancelable(models.StatusCancelled))
}

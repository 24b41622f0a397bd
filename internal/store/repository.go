package store

import (
	"context"
	"errors"

	"github.com/example/courier-orders/internal/models"
)

var (
	// ErrFetchFailed wraps transport or backend failures on reads; the cache
	// is left unchanged when it is returned.
	ErrFetchFailed = errors.New("order fetch failed")
	// ErrServiceNotFound means the service reference matched zero or more
	// than one catalog entry.
	ErrServiceNotFound = errors.New("service not found")
	// ErrOrderNotFound means the order id is not in the current user's cache.
	ErrOrderNotFound = errors.New("order not found")
	// ErrNoUser means no user is signed in.
	ErrNoUser = errors.New("no signed-in user")
)

// Repository is the persistence boundary for orders and the services catalog.
type Repository interface {
	// ListByUser returns the user's orders ordered by creation time descending.
	ListByUser(ctx context.Context, userID string) ([]models.Order, error)
	Insert(ctx context.Context, o models.Order) error
	UpdateStatus(ctx context.Context, orderID string, status models.OrderStatus) error

	// ServiceByID returns the catalog entry for a persisted id. A miss is
	// (zero, false, nil), never a silent fallback entry.
	ServiceByID(ctx context.Context, id string) (models.Service, bool, error)
	// ServiceByName resolves a service by display name; found is true only
	// for exactly one match, so ambiguity reads the same as a miss.
	ServiceByName(ctx context.Context, name string) (models.Service, bool, error)
}

package store

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/example/courier-orders/internal/feed"
	"github.com/example/courier-orders/internal/lifecycle"
	"github.com/example/courier-orders/internal/models"
	"github.com/example/courier-orders/internal/observability"
)

// Mirror publishes order change events downstream. Satisfied by
// feed.Producer; nil disables mirroring.
type Mirror interface {
	PublishChange(ev models.ChangeEvent) error
}

// Store owns the authoritative local cache of the signed-in user's orders.
// All mutation goes through it; other components read snapshots or issue
// requests. It merges local mutations with the change feed: events for a
// foreign user are ignored, events for the bound user trigger a full reload
// from a consistent snapshot, never a field-level merge.
type Store struct {
	repo   Repository
	mirror Mirror
	log    *slog.Logger
	now    func() time.Time

	// OnReload, when set, observes the fresh snapshot after a feed-driven
	// reload has been applied.
	OnReload func(userID string, orders []models.Order)

	mu      sync.Mutex
	userID  string
	orders  []models.Order // created_at desc
	loadGen uint64         // generation of the most recently issued load

	listener  feed.Listener
	closeOnce sync.Once
	wg        sync.WaitGroup
}

func New(repo Repository, mirror Mirror, log *slog.Logger) *Store {
	return &Store{repo: repo, mirror: mirror, log: log, now: time.Now}
}

// Bind scopes the store to userID. The cache is discarded in full before any
// load for the new user completes; there is no window where another user's
// orders remain visible. An empty id signs the store out.
func (s *Store) Bind(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.userID == userID {
		return
	}
	s.userID = userID
	s.orders = nil
	s.loadGen++ // invalidate loads still in flight for the previous user
}

// CurrentUser returns the bound user id, or "".
func (s *Store) CurrentUser() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.userID
}

// Orders returns a snapshot copy of the cache.
func (s *Store) Orders() []models.Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Order, len(s.orders))
	copy(out, s.orders)
	return out
}

// Load replaces the cache with the user's orders. Concurrent loads coalesce:
// each call bumps the load generation and only the newest generation may
// apply its result, so a stale response that completes late is discarded.
// On failure the cache is left unchanged.
func (s *Store) Load(ctx context.Context) error {
	s.mu.Lock()
	uid := s.userID
	if uid == "" {
		s.mu.Unlock()
		return ErrNoUser
	}
	s.loadGen++
	gen := s.loadGen
	s.mu.Unlock()

	orders, err := s.repo.ListByUser(ctx, uid)
	if err != nil {
		observability.OrderLoadFailed.Inc()
		return fmt.Errorf("%w: %v", ErrFetchFailed, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.loadGen || uid != s.userID {
		// a newer load was issued or the user changed; this result is stale
		return nil
	}
	s.orders = orders
	return nil
}

// Create validates the service reference, inserts the order server-side and
// appends it to the cache only after the backend confirmed it. There is no
// optimistic insert: a failed insert leaves no phantom order behind.
func (s *Store) Create(ctx context.Context, serviceRef string, form models.OrderForm) (models.Order, error) {
	s.mu.Lock()
	uid := s.userID
	s.mu.Unlock()
	if uid == "" {
		return models.Order{}, ErrNoUser
	}

	svc, err := s.resolveService(ctx, serviceRef)
	if err != nil {
		return models.Order{}, err
	}

	method := form.PaymentMethod
	if method == "" {
		method = models.PayCash
	}
	order := models.Order{
		ID:              uuid.NewString(),
		UserID:          uid,
		ServiceID:       svc.ID,
		Status:          models.StatusPending,
		PickupLocation:  form.PickupLocation,
		DropoffLocation: form.Destination,
		EstimatedPrice:  form.Price,
		PaymentMethod:   method,
		CreatedAt:       s.now(),
	}
	if err := s.repo.Insert(ctx, order); err != nil {
		return models.Order{}, fmt.Errorf("create order: %w", err)
	}

	s.mu.Lock()
	if s.userID == uid {
		// newest first
		s.orders = append([]models.Order{order}, s.orders...)
	}
	s.mu.Unlock()

	observability.OrdersCreated.Inc()
	s.publish(models.ChangeEvent{Op: "INSERT", OrderID: order.ID, UserID: uid, Status: order.Status})
	return order, nil
}

// Service resolves a service reference for read-only callers (quotes,
// validation) with the same rules Create applies.
func (s *Store) Service(ctx context.Context, ref string) (models.Service, error) {
	return s.resolveService(ctx, ref)
}

// resolveService resolves the reference to a catalog entry. UUIDs look like
// persisted ids and are looked up directly; anything else goes through the
// by-name lookup, which requires exactly one match. A miss is reported, never
// papered over with a default entry.
func (s *Store) resolveService(ctx context.Context, ref string) (models.Service, error) {
	if _, err := uuid.Parse(ref); err == nil {
		svc, found, err := s.repo.ServiceByID(ctx, ref)
		if err != nil {
			return models.Service{}, fmt.Errorf("%w: %v", ErrFetchFailed, err)
		}
		if !found {
			return models.Service{}, fmt.Errorf("%w: id %s", ErrServiceNotFound, ref)
		}
		return svc, nil
	}
	svc, found, err := s.repo.ServiceByName(ctx, ref)
	if err != nil {
		return models.Service{}, fmt.Errorf("%w: %v", ErrFetchFailed, err)
	}
	if !found {
		return models.Service{}, fmt.Errorf("%w: name %q", ErrServiceNotFound, ref)
	}
	return svc, nil
}

// Cancel requests a transition to cancelled for one of the user's orders.
// On success only the matching cached entry's status changes in place; the
// cache is not replaced and nothing is refetched. A rejected cancel leaves
// everything untouched and reports the error.
func (s *Store) Cancel(ctx context.Context, orderID string) error {
	s.mu.Lock()
	uid := s.userID
	var current *models.Order
	for i := range s.orders {
		if s.orders[i].ID == orderID {
			current = &s.orders[i]
			break
		}
	}
	if current == nil {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrOrderNotFound, orderID)
	}
	status := current.Status
	s.mu.Unlock()

	next, err := lifecycle.Transition(status, models.StatusCancelled)
	if err != nil {
		return err
	}
	if err := s.repo.UpdateStatus(ctx, orderID, next); err != nil {
		return fmt.Errorf("cancel order: %w", err)
	}

	s.mu.Lock()
	for i := range s.orders {
		if s.orders[i].ID == orderID {
			s.orders[i].Status = next
			break
		}
	}
	s.mu.Unlock()

	observability.OrdersCancelled.Inc()
	s.publish(models.ChangeEvent{Op: "UPDATE", OrderID: orderID, UserID: uid, Status: next})
	return nil
}

// ApplyFeedEvent is the single mutation entry point for the change feed.
// Foreign-user events are ignored; own-user events trigger a full reload,
// because the feed payload's shape is not guaranteed complete enough for
// field-level patching.
func (s *Store) ApplyFeedEvent(ctx context.Context, ev models.ChangeEvent) {
	s.mu.Lock()
	uid := s.userID
	s.mu.Unlock()

	if uid == "" || ev.UserID != uid {
		observability.FeedEvents.WithLabelValues("ignored").Inc()
		return
	}
	observability.FeedEvents.WithLabelValues("applied").Inc()
	if err := s.Load(ctx); err != nil {
		s.log.Error("feed-driven reload failed", "order_id", ev.OrderID, "error", err)
		return
	}
	if s.OnReload != nil {
		s.OnReload(uid, s.Orders())
	}
}

// Subscribe pumps the listener's events into ApplyFeedEvent until the
// listener closes. One subscription per signed-in session; Close releases it
// exactly once regardless of which teardown path runs first.
func (s *Store) Subscribe(l feed.Listener) {
	s.listener = l
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		for ev := range l.Events() {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			s.ApplyFeedEvent(ctx, ev)
			cancel()
		}
	}()
}

func (s *Store) publish(ev models.ChangeEvent) {
	if s.mirror == nil {
		return
	}
	if err := s.mirror.PublishChange(ev); err != nil {
		s.log.Warn("event mirror publish failed", "order_id", ev.OrderID, "error", err)
	}
}

// Close releases the feed subscription and waits for the pump to drain.
func (s *Store) Close() {
	s.closeOnce.Do(func() {
		if s.listener != nil {
			_ = s.listener.Close()
		}
		s.wg.Wait()
	})
}

package geocode

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/example/courier-orders/internal/models"
	"github.com/example/courier-orders/internal/observability"
)

// MinQueryLen is the shortest query that triggers a provider lookup.
const MinQueryLen = 3

// DefaultDebounce is the quiescence window for interactive suggestions.
const DefaultDebounce = 300 * time.Millisecond

var (
	// ErrNotInServiceArea means the device position is outside the supported country.
	ErrNotInServiceArea = errors.New("location outside service area")
	// ErrNoAddressFound means the reverse lookup returned zero results.
	ErrNoAddressFound = errors.New("no address found for position")
	// ErrResolveInFlight means a current-position resolution is already running.
	ErrResolveInFlight = errors.New("position resolution already in flight")
	// ErrNoLocator means the resolver has no device position source.
	ErrNoLocator = errors.New("no device position source configured")
)

// Result is what a suggestion pass hands back to the caller. Failures never
// surface as errors here; they collapse into Valid=false with no candidates.
type Result struct {
	Query      string             `json:"query"`
	Valid      bool               `json:"valid"`
	Candidates []models.Candidate `json:"candidates"`
}

// Locator is the one-shot device position source.
type Locator interface {
	CurrentPosition(ctx context.Context) (models.Coordinates, error)
}

// Resolver turns raw address text into resolved candidates. One Resolver
// serves one input field: suggestions are debounced per instance and at most
// one current-position resolution may be in flight.
type Resolver struct {
	client   Client
	cache    Cache
	locator  Locator
	contains func(models.Coordinates) bool
	log      *slog.Logger

	deb       *Debouncer
	resolving atomic.Bool
}

func NewResolver(client Client, cache Cache, locator Locator, contains func(models.Coordinates) bool, debounce time.Duration, log *slog.Logger) *Resolver {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Resolver{
		client:   client,
		cache:    cache,
		locator:  locator,
		contains: contains,
		log:      log,
		deb:      NewDebouncer(debounce),
	}
}

// Fresh returns a resolver sharing this one's provider, cache and
// containment check but carrying its own debounce window. Interactive
// surfaces create one per input field so typing in one field never
// suppresses lookups in another.
func (r *Resolver) Fresh() *Resolver {
	return &Resolver{
		client:   r.client,
		cache:    r.cache,
		locator:  r.locator,
		contains: r.contains,
		log:      r.log,
		deb:      NewDebouncer(r.deb.delay),
	}
}

// Suggest delivers suggestion candidates for query. All calls go through the
// debouncer: only the most recent call within the quiescence window is issued
// and every earlier pending call is suppressed. Queries shorter than
// MinQueryLen deliver an invalid empty result without touching the network,
// but still replace a pending lookup, so typing back below the minimum
// retracts the stale suggestion. deliver runs on the debounce timer's
// goroutine.
func (r *Resolver) Suggest(ctx context.Context, query string, deliver func(Result)) {
	if len([]rune(query)) < MinQueryLen {
		r.deb.Call(func() {
			deliver(Result{Query: query, Valid: false})
		})
		return
	}
	r.deb.Call(func() {
		deliver(r.lookup(ctx, query))
	})
}

// SuggestNow is the synchronous variant used by the HTTP surface, where the
// caller does its own pacing. Same short-query and filtering rules, no
// debounce window.
func (r *Resolver) SuggestNow(ctx context.Context, query string) Result {
	if len([]rune(query)) < MinQueryLen {
		return Result{Query: query, Valid: false}
	}
	return r.lookup(ctx, query)
}

func (r *Resolver) lookup(ctx context.Context, query string) Result {
	features, ok := r.cachedForward(ctx, query)
	if !ok {
		// failure policy: clear suggestions, report invalid, log, swallow
		return Result{Query: query, Valid: false}
	}
	candidates := make([]models.Candidate, 0, len(features))
	for _, f := range features {
		if f.Usable() {
			candidates = append(candidates, f.Candidate())
		}
	}
	return Result{Query: query, Valid: len(candidates) > 0, Candidates: candidates}
}

func (r *Resolver) cachedForward(ctx context.Context, query string) ([]Feature, bool) {
	if r.cache != nil {
		if features, ok := r.cache.Get(query); ok {
			observability.GeocodeCacheHits.Inc()
			return features, true
		}
	}
	observability.GeocodeLookups.Inc()
	features, err := r.client.Forward(ctx, query)
	if err != nil {
		r.log.Error("geocode forward lookup failed", "query", query, "error", err)
		return nil, false
	}
	if r.cache != nil {
		r.cache.Set(query, features)
	}
	return features, true
}

// ResolveCurrentPosition resolves the device position into one Candidate.
// Re-entrant calls while a resolution is pending are rejected, not queued.
func (r *Resolver) ResolveCurrentPosition(ctx context.Context) (models.Candidate, error) {
	if r.locator == nil {
		return models.Candidate{}, ErrNoLocator
	}
	if !r.resolving.CompareAndSwap(false, true) {
		return models.Candidate{}, ErrResolveInFlight
	}
	defer r.resolving.Store(false)

	pos, err := r.locator.CurrentPosition(ctx)
	if err != nil {
		r.log.Error("device position unavailable", "error", err)
		return models.Candidate{}, err
	}
	return r.ResolvePosition(ctx, pos)
}

// ResolvePosition reverse-geocodes a known coordinate pair after checking it
// falls inside the service area.
func (r *Resolver) ResolvePosition(ctx context.Context, pos models.Coordinates) (models.Candidate, error) {
	if !r.contains(pos) {
		return models.Candidate{}, ErrNotInServiceArea
	}
	observability.GeocodeLookups.Inc()
	features, err := r.client.Reverse(ctx, pos)
	if err != nil {
		r.log.Error("reverse lookup failed", "lon", pos.Lon, "lat", pos.Lat, "error", err)
		return models.Candidate{}, err
	}
	if len(features) == 0 {
		return models.Candidate{}, ErrNoAddressFound
	}
	c := features[0].Candidate()
	// keep the device position, the feature center is only approximate
	c.Coordinates = &models.Coordinates{Lon: pos.Lon, Lat: pos.Lat}
	return c, nil
}

// Close cancels the pending debounce timer. Callers must invoke it on
// teardown so no suggestion fires against a no-longer-observed target.
func (r *Resolver) Close() {
	r.deb.Cancel()
}

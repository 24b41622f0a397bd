package geocode

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/courier-orders/internal/geo"
	"github.com/example/courier-orders/internal/models"
)

type fakeClient struct {
	mu       sync.Mutex
	forward  map[string][]Feature
	reverse  []Feature
	err      error
	forwards int32
	block    chan struct{} // when set, Reverse waits on it
}

func (f *fakeClient) Forward(ctx context.Context, query string) ([]Feature, error) {
	atomic.AddInt32(&f.forwards, 1)
	if f.err != nil {
		return nil, f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.forward[query], nil
}

func (f *fakeClient) Reverse(ctx context.Context, at models.Coordinates) ([]Feature, error) {
	if f.block != nil {
		<-f.block
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.reverse, nil
}

type fakeLocator struct {
	pos models.Coordinates
	err error
}

func (f *fakeLocator) CurrentPosition(ctx context.Context) (models.Coordinates, error) {
	return f.pos, f.err
}

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

func newTestResolver(c Client, l Locator) *Resolver {
	return NewResolver(c, nil, l, geo.FranceExtent.Contains, 10*time.Millisecond, discard)
}

func paris() models.Coordinates { return models.Coordinates{Lon: 2.3522, Lat: 48.8566} }

func collect() (func(Result), func() (Result, bool)) {
	ch := make(chan Result, 4)
	deliver := func(r Result) { ch <- r }
	wait := func() (Result, bool) {
		select {
		case r := <-ch:
			return r, true
		case <-time.After(500 * time.Millisecond):
			return Result{}, false
		}
	}
	return deliver, wait
}

func TestSuggestShortQuerySkipsNetwork(t *testing.T) {
	c := &fakeClient{}
	r := newTestResolver(c, nil)
	defer r.Close()

	deliver, wait := collect()
	r.Suggest(context.Background(), "ab", deliver)
	res, ok := wait()
	require.True(t, ok, "short query must still deliver")
	assert.False(t, res.Valid)
	assert.Empty(t, res.Candidates)
	assert.Zero(t, atomic.LoadInt32(&c.forwards), "no network call for short queries")
}

func TestSuggestShortQueryReplacesPendingLookup(t *testing.T) {
	c := &fakeClient{forward: map[string][]Feature{
		"paris": {{ID: "1", Text: "Paris", PlaceName: "Paris, France", Center: []float64{2.35, 48.85}}},
	}}
	r := newTestResolver(c, nil)
	defer r.Close()

	deliver, wait := collect()
	r.Suggest(context.Background(), "paris", deliver)
	r.Suggest(context.Background(), "pa", deliver) // user deleted back below the minimum

	res, ok := wait()
	require.True(t, ok)
	assert.Equal(t, "pa", res.Query, "the short query retracts the pending lookup")
	assert.False(t, res.Valid)
	time.Sleep(50 * time.Millisecond)
	assert.Zero(t, atomic.LoadInt32(&c.forwards), "the superseded lookup must not fire")
}

func TestSuggestFiltersUnusableFeatures(t *testing.T) {
	c := &fakeClient{forward: map[string][]Feature{
		"rivoli": {
			{ID: "1", Text: "Rue de Rivoli", PlaceName: "Rue de Rivoli, Paris", Center: []float64{2.35, 48.85}},
			{ID: "2", Text: "nameless", PlaceName: "", Center: []float64{2.35, 48.85}},
			{ID: "3", Text: "centerless", PlaceName: "Somewhere", Center: nil},
		},
	}}
	r := newTestResolver(c, nil)
	defer r.Close()

	deliver, wait := collect()
	r.Suggest(context.Background(), "rivoli", deliver)
	res, ok := wait()
	require.True(t, ok)
	assert.True(t, res.Valid)
	require.Len(t, res.Candidates, 1)
	assert.Equal(t, "Rue de Rivoli, Paris", res.Candidates[0].FormattedAddress)
	require.NotNil(t, res.Candidates[0].Coordinates)
	assert.InDelta(t, 2.35, res.Candidates[0].Coordinates.Lon, 1e-9)
}

func TestSuggestDebouncesBurst(t *testing.T) {
	c := &fakeClient{forward: map[string][]Feature{}}
	r := newTestResolver(c, nil)
	defer r.Close()

	deliver, wait := collect()
	for _, q := range []string{"par", "pari", "paris"} {
		r.Suggest(context.Background(), q, deliver)
	}
	res, ok := wait()
	require.True(t, ok)
	assert.Equal(t, "paris", res.Query, "only the most recent query is issued")
	assert.EqualValues(t, 1, atomic.LoadInt32(&c.forwards))
}

func TestSuggestProviderErrorYieldsInvalid(t *testing.T) {
	c := &fakeClient{err: errors.New("boom")}
	r := newTestResolver(c, nil)
	defer r.Close()

	deliver, wait := collect()
	r.Suggest(context.Background(), "paris", deliver)
	res, ok := wait()
	require.True(t, ok)
	assert.False(t, res.Valid)
	assert.Empty(t, res.Candidates)
}

func TestSuggestNothingFiresAfterClose(t *testing.T) {
	c := &fakeClient{forward: map[string][]Feature{}}
	r := newTestResolver(c, nil)

	deliver, wait := collect()
	r.Suggest(context.Background(), "paris", deliver)
	r.Close()
	_, ok := wait()
	assert.False(t, ok, "no delivery after Close")
	assert.Zero(t, atomic.LoadInt32(&c.forwards))
}

func TestSuggestUsesCache(t *testing.T) {
	c := &fakeClient{forward: map[string][]Feature{}}
	cache := NewMemoryCache(time.Minute)
	cache.Set("paris", []Feature{{ID: "1", Text: "Paris", PlaceName: "Paris, France", Center: []float64{2.35, 48.85}}})
	r := NewResolver(c, cache, nil, geo.FranceExtent.Contains, 10*time.Millisecond, discard)
	defer r.Close()

	deliver, wait := collect()
	r.Suggest(context.Background(), "paris", deliver)
	res, ok := wait()
	require.True(t, ok)
	assert.True(t, res.Valid)
	assert.Zero(t, atomic.LoadInt32(&c.forwards), "cache hit must not reach the provider")
}

func TestResolveCurrentPosition(t *testing.T) {
	c := &fakeClient{reverse: []Feature{
		{ID: "1", Text: "Rue de Rivoli", PlaceName: "12 Rue de Rivoli, 75001 Paris", Center: []float64{2.351, 48.857}},
	}}
	r := newTestResolver(c, &fakeLocator{pos: paris()})
	defer r.Close()

	cand, err := r.ResolveCurrentPosition(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "12 Rue de Rivoli, 75001 Paris", cand.FormattedAddress)
	// device coordinates win over the feature center
	require.NotNil(t, cand.Coordinates)
	assert.InDelta(t, paris().Lon, cand.Coordinates.Lon, 1e-9)
}

func TestResolveOutsideServiceArea(t *testing.T) {
	berlin := models.Coordinates{Lon: 13.405, Lat: 52.52}
	r := newTestResolver(&fakeClient{}, &fakeLocator{pos: berlin})
	defer r.Close()

	_, err := r.ResolveCurrentPosition(context.Background())
	assert.ErrorIs(t, err, ErrNotInServiceArea)
}

func TestResolveNoAddressFound(t *testing.T) {
	r := newTestResolver(&fakeClient{reverse: nil}, &fakeLocator{pos: paris()})
	defer r.Close()

	_, err := r.ResolveCurrentPosition(context.Background())
	assert.ErrorIs(t, err, ErrNoAddressFound)
}

func TestResolveWithoutLocator(t *testing.T) {
	r := newTestResolver(&fakeClient{}, nil)
	defer r.Close()

	_, err := r.ResolveCurrentPosition(context.Background())
	assert.ErrorIs(t, err, ErrNoLocator)
}

func TestResolveRejectsReentrantCalls(t *testing.T) {
	block := make(chan struct{})
	c := &fakeClient{reverse: []Feature{{ID: "1", Text: "x", PlaceName: "x", Center: []float64{2, 48}}}, block: block}
	r := newTestResolver(c, &fakeLocator{pos: paris()})
	defer r.Close()

	done := make(chan error, 1)
	go func() {
		_, err := r.ResolveCurrentPosition(context.Background())
		done <- err
	}()
	time.Sleep(20 * time.Millisecond) // let the first call reach the provider

	_, err := r.ResolveCurrentPosition(context.Background())
	assert.ErrorIs(t, err, ErrResolveInFlight)

	close(block)
	assert.NoError(t, <-done)
}
